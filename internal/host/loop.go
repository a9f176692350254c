// Package host implements the engine ports for environments without a
// native frame callback: a ticker-driven loop, an in-memory viewport and
// theme signals backed by memory or a file.
package host

import (
	"context"
	"slices"
	"sync"
	"time"
)

const DefaultFPS = 60

// Loop is a frame scheduler driven by Tick. Run calls Tick on a ticker;
// hosts with their own render loop call Tick once per repaint instead.
//
// Frame callbacks and posted events always run on the goroutine calling
// Tick or Run.
type Loop struct {
	interval time.Duration

	mu      sync.Mutex
	pending map[uint64]func()
	next    uint64

	postMu sync.Mutex
	posts  []func()
	wake   chan struct{}
}

func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		pending:  make(map[uint64]func()),
		wake:     make(chan struct{}, 1),
	}
}

func (l *Loop) Interval() time.Duration { return l.interval }

// RequestFrame queues fn for the next Tick. The returned function removes
// it if it has not run yet.
func (l *Loop) RequestFrame(fn func()) func() {
	l.mu.Lock()
	id := l.next
	l.next++
	l.pending[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.pending, id)
		l.mu.Unlock()
	}
}

// Pending returns the number of queued frame callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Post hands fn to the loop goroutine. It never blocks and may be called
// from any goroutine, including from inside a callback run by Tick.
func (l *Loop) Post(fn func()) {
	l.postMu.Lock()
	l.posts = append(l.posts, fn)
	l.postMu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Tick runs every posted event, then every frame callback queued before
// the tick started. Callbacks requested during the tick wait for the next
// one.
func (l *Loop) Tick() {
	l.drain()

	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return
	}
	ids := make([]uint64, 0, len(l.pending))
	for id := range l.pending {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		l.mu.Lock()
		fn, ok := l.pending[id]
		delete(l.pending, id)
		l.mu.Unlock()
		if ok {
			fn()
		}
	}
}

// drain runs the events posted before it was called. Events posted while
// draining wait for the next call.
func (l *Loop) drain() {
	l.postMu.Lock()
	posts := l.posts
	l.posts = nil
	l.postMu.Unlock()

	for _, fn := range posts {
		fn()
	}
}

// Run ticks at the loop interval until ctx is done. Posted events are
// handled as soon as they arrive.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.drain()
		case <-ticker.C:
			l.Tick()
		}
	}
}
