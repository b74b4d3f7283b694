package stt

import "context"

// Provider turns an audio clip into a transcript. A returned error is
// permanent from the caller's point of view; retries live in the worker.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
