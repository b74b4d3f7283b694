package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/entwine-app/entwine/internal/model"
)

// TranscribeJob identifies one audio artifact awaiting transcription.
// Kind routes the finished transcript back to the right session field.
type TranscribeJob struct {
	GameType  model.GameType
	SessionID string
	Slot      int    // player slot 1|2
	Index     int    // scenario index (wwyd) or category number (elaboration)
	Kind      string // "wwyd" | "elaboration"
	AudioURL  string
}

// TranscribeQueue enqueues transcription jobs onto a Redis stream consumed
// by the worker pool.
type TranscribeQueue interface {
	Enqueue(ctx context.Context, job TranscribeJob) error
}

type transcribeQueue struct {
	client *redis.Client
	stream string
}

func NewTranscribeQueue(client *redis.Client, stream string) TranscribeQueue {
	return &transcribeQueue{client: client, stream: stream}
}

func (q *transcribeQueue) Enqueue(ctx context.Context, job TranscribeJob) error {
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"game_type":  string(job.GameType),
			"session_id": job.SessionID,
			"slot":       strconv.Itoa(job.Slot),
			"index":      strconv.Itoa(job.Index),
			"kind":       job.Kind,
			"audio_url":  job.AudioURL,
		},
	}).Err()
}

// ParseTranscribeJob rebuilds a job from a stream message's values.
func ParseTranscribeJob(values map[string]interface{}) (TranscribeJob, bool) {
	getStr := func(k string) string {
		v, ok := values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	job := TranscribeJob{
		GameType:  model.GameType(getStr("game_type")),
		SessionID: getStr("session_id"),
		Kind:      getStr("kind"),
		AudioURL:  getStr("audio_url"),
	}
	job.Slot, _ = strconv.Atoi(getStr("slot"))
	job.Index, _ = strconv.Atoi(getStr("index"))

	if job.SessionID == "" || job.AudioURL == "" || !job.GameType.Valid() {
		return TranscribeJob{}, false
	}
	return job, true
}
