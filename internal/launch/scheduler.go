package launch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LaunchFunc starts one request. It runs on the scheduler's worker goroutine
// and should hop to whatever execution context the launch requires instead of
// blocking on the launch itself.
type LaunchFunc func(Request) error

// Scheduler fires the requests of a batch at fixed offsets from the moment the
// batch was scheduled: 0, d, 2d, ... Offsets never drift with launch latency.
type Scheduler struct {
	clock  Clock
	logger Logger
	unit   time.Duration
}

// Option customizes scheduler construction.
type Option func(*Scheduler)

// WithClock lets tests control time.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithUnit sets the length of one delay step. Values <= 0 are ignored.
func WithUnit(unit time.Duration) Option {
	return func(s *Scheduler) {
		if unit > 0 {
			s.unit = unit
		}
	}
}

// NewScheduler builds a scheduler using the real clock and one-second steps
// unless overridden.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  RealClock{},
		logger: nopLogger{},
		unit:   time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Entry is one committed slot of a scheduled batch.
type Entry struct {
	Index   int
	Request Request
	Offset  time.Duration
}

// Result counts what happened to each entry. Launched + Failed + Cancelled
// equals the batch size once the handle is done.
type Result struct {
	Launched  int
	Failed    int
	Cancelled int
}

// Handle tracks a scheduled batch.
type Handle struct {
	id   string
	plan []Entry

	cancelOnce sync.Once
	cancel     chan struct{}
	done       chan struct{}

	mu       sync.Mutex
	result   Result
	failures []*LaunchError
}

// Schedule commits every request of the batch to its offset and returns
// immediately. Requests with equal offsets fire in sequence order because a
// single worker goroutine owns firing.
func (s *Scheduler) Schedule(batch Batch, fn LaunchFunc) *Handle {
	requests := batch.Requests()
	h := &Handle{
		id:     batch.ID(),
		plan:   make([]Entry, len(requests)),
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	for i, req := range requests {
		h.plan[i] = Entry{Index: i, Request: req, Offset: batch.Offset(i, s.unit)}
	}
	if len(h.plan) == 0 {
		close(h.done)
		return h
	}
	if fn == nil {
		fn = func(Request) error { return ErrNoRunner }
	}
	start := s.clock.Now()
	s.logger.Info("batch %s: scheduled %d launch(es), delay %ds", h.id, len(h.plan), batch.DelaySeconds())
	go s.run(h, start, fn)
	return h
}

func (s *Scheduler) run(h *Handle, start time.Time, fn LaunchFunc) {
	defer close(h.done)
	for i, entry := range h.plan {
		if !s.waitUntil(h, start.Add(entry.Offset)) {
			pending := len(h.plan) - i
			h.mu.Lock()
			h.result.Cancelled += pending
			h.mu.Unlock()
			s.logger.Warn("batch %s: cancelled %d pending launch(es)", h.id, pending)
			return
		}
		s.fire(h, entry, fn)
	}
}

// waitUntil blocks until the deadline or cancellation. It reports false when
// the entry must not fire.
func (s *Scheduler) waitUntil(h *Handle, deadline time.Time) bool {
	if h.cancelled() {
		return false
	}
	wait := deadline.Sub(s.clock.Now())
	if wait <= 0 {
		return true
	}
	timer := s.clock.NewTimer(wait)
	select {
	case <-timer.C():
		return !h.cancelled()
	case <-h.cancel:
		timer.Stop()
		return false
	}
}

func (s *Scheduler) fire(h *Handle, entry Entry, fn LaunchFunc) {
	err := invoke(fn, entry.Request)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		lerr := newLaunchError(entry.Request, err)
		h.result.Failed++
		h.failures = append(h.failures, lerr)
		s.logger.Error("batch %s: %v", h.id, lerr)
		return
	}
	h.result.Launched++
	s.logger.Info("batch %s: launched %s at +%s", h.id, entry.Request, entry.Offset)
}

func invoke(fn LaunchFunc, req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(req)
}

// ID returns the batch identifier.
func (h *Handle) ID() string { return h.id }

// Plan returns the committed entries with their offsets.
func (h *Handle) Plan() []Entry {
	out := make([]Entry, len(h.plan))
	copy(out, h.plan)
	return out
}

// Cancel stops entries that have not fired yet. Fired entries are unaffected
// and calling Cancel more than once is harmless.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() { close(h.cancel) })
}

// Done is closed once every entry has fired, failed or been cancelled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result snapshots the counters. It is final once Done is closed.
func (h *Handle) Result() Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Failures returns the launch errors recorded so far.
func (h *Handle) Failures() []*LaunchError {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*LaunchError, len(h.failures))
	copy(out, h.failures)
	return out
}

// Wait blocks until the batch is done or ctx ends. On ctx expiry the batch
// keeps running; callers that want it stopped call Cancel.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-h.done:
		return h.Result(), nil
	case <-ctx.Done():
		return h.Result(), ctx.Err()
	}
}

func (h *Handle) cancelled() bool {
	select {
	case <-h.cancel:
		return true
	default:
		return false
	}
}
