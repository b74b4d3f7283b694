package service

import (
	"fmt"
	"sync"
	"time"
)

// TimerService schedules one-shot callbacks keyed by (sessionID, index).
// Arming a key replaces any previous timer for it; Cancel is a no-op for
// unknown keys. Callbacks must recheck session state themselves: a timer
// that fires after its question moved on has to no-op, which the engines
// guarantee by CAS-checking the index.
type TimerService struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerService() *TimerService {
	return &TimerService{timers: make(map[string]*time.Timer)}
}

func timerKey(sessionID string, index int) string {
	return fmt.Sprintf("%s:%d", sessionID, index)
}

func (t *TimerService) Arm(sessionID string, index int, d time.Duration, fn func()) {
	key := timerKey(sessionID, index)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.timers[key]; ok {
		prev.Stop()
	}
	t.timers[key] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()
		fn()
	})
}

func (t *TimerService) Cancel(sessionID string, index int) {
	key := timerKey(sessionID, index)

	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Shutdown stops every pending timer. Sessions mid-question recover on
// the next boot via the timer recovery sweep.
func (t *TimerService) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

// CancelAll drops every timer for a session, used on abandon/expiry.
func (t *TimerService) CancelAll(sessionID string) {
	prefix := sessionID + ":"

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timer := range t.timers {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			timer.Stop()
			delete(t.timers, key)
		}
	}
}
