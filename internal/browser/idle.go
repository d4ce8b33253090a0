package browser

import (
	"context"
	"sync"
	"time"
)

// idleTracker counts in-flight requests reported by driver event callbacks.
// Request IDs are kept in a set because redirects report the same ID twice.
type idleTracker struct {
	mu         sync.Mutex
	inflight   map[string]struct{}
	lastChange time.Time
	now        func() time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:   map[string]struct{}{},
		lastChange: time.Now(),
		now:        time.Now,
	}
}

func (t *idleTracker) started(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.lastChange = t.now()
}

func (t *idleTracker) finished(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.lastChange = t.now()
}

// reset forgets requests from a previous document; a navigation abandons them
// without always reporting them finished.
func (t *idleTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = map[string]struct{}{}
	t.lastChange = t.now()
}

// quietFor reports how long no request has been in flight, or zero while
// requests are pending.
func (t *idleTracker) quietFor() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > 0 {
		return 0
	}
	return t.now().Sub(t.lastChange)
}

// wait blocks until the network has been quiet for window or until max has
// elapsed. It returns false when max was reached first. A zero max waits
// until ctx is done.
func (t *idleTracker) wait(ctx context.Context, window, max time.Duration) (bool, error) {
	var deadline <-chan time.Time
	if max > 0 {
		timer := time.NewTimer(max)
		defer timer.Stop()
		deadline = timer.C
	}

	poll := window / 10
	if poll < 10*time.Millisecond {
		poll = 10 * time.Millisecond
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		if t.quietFor() >= window {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline:
			return false, nil
		case <-tick.C:
		}
	}
}
