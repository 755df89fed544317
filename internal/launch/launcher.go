package launch

import "context"

// Executor starts a target in the given mode. Implementations return once the
// launch has started, not when the launched work finishes.
type Executor interface {
	Execute(ctx context.Context, target Target, mode Mode) error
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, target Target, mode Mode) error

func (f ExecutorFunc) Execute(ctx context.Context, target Target, mode Mode) error {
	return f(ctx, target, mode)
}

// Launcher bridges the scheduler and an Executor: Launch hops onto the
// Dispatcher and executes the request there.
type Launcher struct {
	Executor   Executor
	Dispatcher Dispatcher
	Logger     Logger
	// Context is passed to every Execute call. Defaults to Background.
	Context context.Context
	// OnResult, when set, is called on the dispatcher with the outcome of each
	// execution. A failed execution arrives as *LaunchError.
	OnResult func(Request, error)
}

// Launch satisfies LaunchFunc. Only a failed hop is returned; execution
// failures happen later on the dispatcher and are logged there.
func (l *Launcher) Launch(req Request) error {
	if l == nil || l.Executor == nil {
		return ErrNoRunner
	}
	dispatcher := l.Dispatcher
	if dispatcher == nil {
		dispatcher = Inline{}
	}
	return dispatcher.Dispatch(func() { l.execute(req) })
}

func (l *Launcher) execute(req Request) {
	logger := l.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	ctx := l.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var result error
	if err := l.Executor.Execute(ctx, req.Target, req.Mode); err != nil {
		lerr := newLaunchError(req, err)
		logger.Error("%v", lerr)
		result = lerr
	} else {
		logger.Info("started %s", req)
	}
	if l.OnResult != nil {
		l.OnResult(req, result)
	}
}
