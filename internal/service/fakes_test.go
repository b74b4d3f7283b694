package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// memSessionRepo is an in-memory SessionRepo with the same uniqueness and
// versioning behavior as the Mongo implementation.
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) Insert(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Open = !s.Status.Terminal()
	for _, existing := range r.sessions {
		if existing.GameType == s.GameType && existing.PairKey == s.PairKey && existing.Open {
			return repository.ErrActiveSessionExists
		}
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, gt model.GameType, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.GameType != gt {
		return nil, nil
	}
	return s, nil
}

func (r *memSessionRepo) Mutate(ctx context.Context, gt model.GameType, id string, fn func(*model.Session) error) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.GameType != gt {
		return nil, repository.ErrVersionConflict
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.Version++
	s.Open = !s.Status.Terminal()
	return s, nil
}

func (r *memSessionRepo) LatestFinished(_ context.Context, gt model.GameType, pairKey string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *model.Session
	for _, s := range r.sessions {
		if s.GameType != gt || s.PairKey != pairKey || !s.Status.Finished() {
			continue
		}
		if latest == nil || (s.CompletedAt != nil && latest.CompletedAt != nil && s.CompletedAt.After(*latest.CompletedAt)) {
			latest = s
		}
	}
	return latest, nil
}

func (r *memSessionRepo) CountFinished(_ context.Context, gt model.GameType, pairKey string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, s := range r.sessions {
		if s.GameType == gt && s.PairKey == pairKey && s.Status.Finished() {
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) HistoryForUser(_ context.Context, gt model.GameType, userID string, limit int64) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Session
	for _, s := range r.sessions {
		if s.GameType == gt && s.Participant(userID) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedAt.After(out[j].InvitedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSessionRepo) FindStale(_ context.Context, gt model.GameType, now time.Time, limit int64) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Session
	for _, s := range r.sessions {
		if s.GameType == gt && !s.Status.Terminal() && s.ExpiresAt.Before(now) {
			out = append(out, s)
		}
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memSessionRepo) FindPlaying(_ context.Context, gt model.GameType) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Session
	for _, s := range r.sessions {
		if s.GameType == gt && s.Status == model.StatusPlaying {
			out = append(out, s)
		}
	}
	return out, nil
}

// memCompatRepo mirrors the versioned save semantics of the Mongo repo.
type memCompatRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.CoupleCompatibility
}

func newMemCompatRepo() *memCompatRepo {
	return &memCompatRepo{profiles: make(map[string]*model.CoupleCompatibility)}
}

func (r *memCompatRepo) Get(_ context.Context, pairKey string) (*model.CoupleCompatibility, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[pairKey], nil
}

func (r *memCompatRepo) Save(_ context.Context, p *model.CoupleCompatibility, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.profiles[p.PairKey]
	if expectedVersion == 0 {
		if existing != nil {
			return repository.ErrVersionConflict
		}
	} else if existing == nil || existing.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	p.Version = expectedVersion + 1
	r.profiles[p.PairKey] = p
	return nil
}

// raceCompatRepo serves one stale read, so the next Generate builds from
// an outdated version and loses the save race.
type raceCompatRepo struct {
	*memCompatRepo
	stale bool
}

func (r *raceCompatRepo) Get(ctx context.Context, pairKey string) (*model.CoupleCompatibility, error) {
	if r.stale {
		r.stale = false
		return nil, nil
	}
	return r.memCompatRepo.Get(ctx, pairKey)
}

// memMatchRepo serves fixed match rows.
type memMatchRepo struct {
	matches map[string]*model.Match
}

func (r *memMatchRepo) GetByID(_ context.Context, matchID string) (*model.Match, error) {
	return r.matches[matchID], nil
}

// recordedEvent captures one broadcast for assertions.
type recordedEvent struct {
	UserID  string
	Event   string
	Payload interface{}
}

type memBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *memBroadcaster) EmitToUser(userID, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{UserID: userID, Event: event, Payload: payload})
}

func (b *memBroadcaster) eventsNamed(event string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type memIdentity struct{}

func (memIdentity) Profile(_ context.Context, userID string) (model.Player, error) {
	return model.Player{UserID: userID, DisplayName: "user-" + userID}, nil
}

type memUploader struct {
	mu      sync.Mutex
	uploads []string
}

func (u *memUploader) Upload(_ context.Context, objectName, _ string, _ io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, objectName)
	return "https://blobs.test/" + objectName, nil
}

type memQueue struct {
	mu   sync.Mutex
	jobs []cache.TranscribeJob
}

func (q *memQueue) Enqueue(_ context.Context, job cache.TranscribeJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type memDashboardCache struct {
	mu    sync.Mutex
	store map[string]*model.Dashboard
}

func newMemDashboardCache() *memDashboardCache {
	return &memDashboardCache{store: make(map[string]*model.Dashboard)}
}

func (c *memDashboardCache) Set(_ context.Context, pairKey string, d *model.Dashboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[pairKey] = d
	return nil
}

func (c *memDashboardCache) Get(_ context.Context, pairKey string) (*model.Dashboard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[pairKey], nil
}

func (c *memDashboardCache) Invalidate(_ context.Context, pairKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, pairKey)
	return nil
}
