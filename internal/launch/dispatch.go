package launch

import (
	"fmt"
	"sync"
)

// Dispatcher moves work onto the execution context launches must run in,
// such as a UI thread. Dispatch must not wait for fn to finish.
type Dispatcher interface {
	Dispatch(fn func()) error
}

// DispatchFunc adapts a plain function to Dispatcher.
type DispatchFunc func(fn func()) error

func (f DispatchFunc) Dispatch(fn func()) error { return f(fn) }

// Inline runs work on the calling goroutine.
type Inline struct{}

func (Inline) Dispatch(fn func()) error {
	if fn != nil {
		fn()
	}
	return nil
}

// Loop is a single goroutine that runs dispatched work one item at a time in
// FIFO order. It stands in for a host UI thread.
type Loop struct {
	logger Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewLoop starts the loop goroutine. A nil logger discards panic reports.
func NewLoop(logger Logger) *Loop {
	if logger == nil {
		logger = nopLogger{}
	}
	l := &Loop{logger: logger, done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Dispatch queues fn. It never blocks on fn and fails once Close was called.
func (l *Loop) Dispatch(fn func()) error {
	if fn == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrDispatcherClosed
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return nil
}

// Close rejects new work, runs everything already queued and waits for the
// loop goroutine to exit.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Broadcast()
	}
	l.mu.Unlock()
	<-l.done
	return nil
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		l.runOne(fn)
	}
}

func (l *Loop) runOne(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch loop: recovered panic: %v", fmt.Sprint(r))
		}
	}()
	fn()
}
