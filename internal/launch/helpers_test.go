package launch

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		t.fired = true
		t.ch <- c.now
		return t
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	pending := c.timers[:0]
	for _, t := range c.timers {
		if t.at.After(c.now) {
			pending = append(pending, t)
			continue
		}
		t.fired = true
		t.ch <- c.now
	}
	c.timers = pending
}

func (c *fakeClock) waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *fakeClock) blockUntilWaiters(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for c.waiters() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d timer(s), have %d", n, c.waiters())
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	ch      chan time.Time
	fired   bool
	stopped bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	for i, candidate := range t.clock.timers {
		if candidate == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			break
		}
	}
	return true
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...any)  { l.record("INFO", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.record("WARN", format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.record("ERROR", format, args...) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if len(line) > len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}

type firing struct {
	id string
	at time.Time
}

func requestsFor(ids ...string) []Request {
	out := make([]Request, 0, len(ids))
	for _, id := range ids {
		out = append(out, Request{Target: Target{ID: id, Name: "svc " + id}, Mode: ModeRun})
	}
	return out
}

func mustBatch(t *testing.T, requests []Request, delay int) Batch {
	t.Helper()
	batch, err := NewBatch(requests, delay)
	if err != nil {
		t.Fatalf("new batch: %v", err)
	}
	return batch
}

func receive(t *testing.T, ch <-chan firing) firing {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a launch")
	}
	return firing{}
}

func waitDone(t *testing.T, h *Handle) Result {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("batch %s did not finish", h.ID())
	}
	return h.Result()
}
