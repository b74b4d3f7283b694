package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/service"
)

// ReapInterval bounds how stale an overdue session can get before the
// sweep expires it.
const ReapInterval = 60 * time.Second

// Reaper runs the periodic expiry sweep over all session collections.
type Reaper struct {
	scheduler gocron.Scheduler
	sessions  *service.SessionService
	log       *logrus.Logger
}

func NewReaper(sessions *service.SessionService, log *logrus.Logger) (*Reaper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Reaper{scheduler: scheduler, sessions: sessions, log: log}, nil
}

func (r *Reaper) Start(ctx context.Context) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(ReapInterval),
		gocron.NewTask(func() {
			sweepCtx, cancel := context.WithTimeout(ctx, ReapInterval)
			defer cancel()
			r.sessions.ExpireStale(sweepCtx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	r.scheduler.Start()
	r.log.WithField("interval", ReapInterval.String()).Info("session reaper started")
	return nil
}

func (r *Reaper) Stop() error {
	return r.scheduler.Shutdown()
}
