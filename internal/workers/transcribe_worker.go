package workers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/entwine-app/entwine/internal/cache"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/providers/stt"
	"github.com/entwine-app/entwine/internal/repository"
	"github.com/entwine-app/entwine/internal/service"
	"github.com/entwine-app/entwine/internal/storage"
)

const (
	readBlock    = 5 * time.Second
	readCount    = 10
	jobTimeout   = 90 * time.Second
	fetchTimeout = 30 * time.Second
)

// TranscribePool consumes transcription jobs from the Redis stream and
// writes transcripts back onto sessions. Jobs are acked even on permanent
// failure; the session field carries the failed status and users can
// retry.
type TranscribePool struct {
	client   *redis.Client
	stream   string
	group    string
	workers  int
	sessions repository.SessionRepo
	stt      stt.Provider
	wwyd     *service.WWYDService
	log      *logrus.Logger

	httpClient *http.Client
	wg         sync.WaitGroup
}

func NewTranscribePool(
	client *redis.Client,
	stream, group string,
	workers int,
	sessions repository.SessionRepo,
	provider stt.Provider,
	wwyd *service.WWYDService,
	log *logrus.Logger,
) *TranscribePool {
	return &TranscribePool{
		client:     client,
		stream:     stream,
		group:      group,
		workers:    workers,
		sessions:   sessions,
		stt:        provider,
		wwyd:       wwyd,
		log:        log,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
}

// Start creates the consumer group and launches the workers. Blocks only
// until the group exists.
func (p *TranscribePool) Start(ctx context.Context) error {
	err := p.client.XGroupCreateMkStream(ctx, p.stream, p.group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group: %w", err)
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, fmt.Sprintf("worker-%d", i))
	}
	p.log.WithField("workers", p.workers).Info("transcribe pool started")
	return nil
}

// Wait blocks until all workers exit after context cancellation.
func (p *TranscribePool) Wait() { p.wg.Wait() }

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

func (p *TranscribePool) run(ctx context.Context, consumer string) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := p.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.group,
			Consumer: consumer,
			Streams:  []string{p.stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if err == redis.Nil || errors.Is(err, context.Canceled) {
				continue
			}
			p.log.WithError(err).Warn("stream read failed")
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				p.handle(ctx, msg)
				if err := p.client.XAck(ctx, p.stream, p.group, msg.ID).Err(); err != nil {
					p.log.WithError(err).WithField("msg_id", msg.ID).Warn("ack failed")
				}
			}
		}
	}
}

func (p *TranscribePool) handle(ctx context.Context, msg redis.XMessage) {
	job, ok := cache.ParseTranscribeJob(msg.Values)
	if !ok {
		p.log.WithField("msg_id", msg.ID).Warn("dropping malformed transcribe job")
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	transcript, err := p.transcribe(jobCtx, job.AudioURL)
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"session_id": job.SessionID,
			"kind":       job.Kind,
		}).Warn("transcription failed")
	}
	p.store(jobCtx, job, transcript, err)
}

func (p *TranscribePool) transcribe(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio fetch status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, storage.MaxUploadBytes))
	if err != nil {
		return "", err
	}

	text, _, err := p.stt.Transcribe(ctx, audio, "")
	return text, err
}

// store routes the outcome back to the right session field by job kind.
func (p *TranscribePool) store(ctx context.Context, job cache.TranscribeJob, transcript string, transcribeErr error) {
	_, err := p.sessions.Mutate(ctx, job.GameType, job.SessionID, func(sess *model.Session) error {
		switch job.Kind {
		case "wwyd":
			if sess.WWYD == nil || job.Index < 0 || job.Index >= model.WWYDScenarios {
				return fmt.Errorf("job does not match session shape")
			}
			resp := sess.WWYD.ResponsesOf(job.Slot)[job.Index]
			if resp == nil {
				return fmt.Errorf("no response at scenario %d", job.Index)
			}
			if transcribeErr != nil {
				resp.TranscriptStatus = model.TranscriptFailed
			} else {
				resp.Transcript = &transcript
				resp.TranscriptStatus = model.TranscriptDone
			}
		case "elaboration":
			if sess.Board == nil || job.Index < 1 || job.Index > model.BoardCategories {
				return fmt.Errorf("job does not match session shape")
			}
			sel := sess.Board.SelectionsOf(job.Slot)[job.Index-1]
			if sel == nil || sel.Elaboration == nil {
				return fmt.Errorf("no elaboration at category %d", job.Index)
			}
			if transcribeErr != nil {
				sel.Elaboration.Status = model.TranscriptFailed
			} else {
				sel.Elaboration.Transcript = &transcript
				sel.Elaboration.Status = model.TranscriptDone
			}
		default:
			return fmt.Errorf("unknown job kind %q", job.Kind)
		}
		return nil
	})
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"session_id": job.SessionID,
			"kind":       job.Kind,
		}).Error("failed to store transcript")
		return
	}

	if job.Kind == "wwyd" && p.wwyd != nil {
		p.wwyd.GenerateInsightsIfReady(ctx, job.SessionID)
	}
}
