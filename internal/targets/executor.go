package targets

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/logging"
)

const killGrace = 5 * time.Second

// ProcessExecutor starts targets as child processes. Execute returns as soon
// as the process is running; a reaper goroutine records the exit.
type ProcessExecutor struct {
	cfg    *config.Config
	logger launch.Logger

	mu      sync.Mutex
	running map[*exec.Cmd]string
	wg      sync.WaitGroup
}

// NewProcessExecutor builds an executor for the targets in cfg.
func NewProcessExecutor(cfg *config.Config, logger launch.Logger) *ProcessExecutor {
	return &ProcessExecutor{cfg: cfg, logger: logger, running: map[*exec.Cmd]string{}}
}

// Execute starts target in mode. A target without a command for the mode
// fails with launch.ErrNoRunner.
func (e *ProcessExecutor) Execute(ctx context.Context, target launch.Target, mode launch.Mode) error {
	if e == nil || e.cfg == nil {
		return launch.ErrNoRunner
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tc, ok := e.cfg.Target(target.ID)
	if !ok {
		return fmt.Errorf("%w: %q is not declared", launch.ErrNoRunner, target.ID)
	}
	argv := tc.Run
	if mode == launch.ModeDebug {
		argv = tc.Debug
	}
	if len(argv) == 0 {
		return fmt.Errorf("%w: %q has no %s command", launch.ErrNoRunner, target.ID, mode)
	}

	out, err := logging.New(e.cfg.TargetLogsDir(), target.ID)
	if err != nil {
		return err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = tc.Dir
	if cmd.Dir == "" {
		cmd.Dir = e.cfg.ProjectDir
	}
	cmd.Env = buildEnv(tc.Env, target, mode)
	cmd.Stdout = out.File()
	cmd.Stderr = out.File()
	out.Printf("starting %s (%s): %s", target.ID, mode, commandLine(argv))
	if err := cmd.Start(); err != nil {
		out.Printf("start failed: %v", err)
		_ = out.Close()
		return fmt.Errorf("start %s: %w", target.ID, err)
	}

	e.mu.Lock()
	e.running[cmd] = target.ID
	e.mu.Unlock()
	e.wg.Add(1)
	go e.reap(cmd, target.ID, out)
	e.log().Info("%s (%s) running as pid %d, output in %s", target.ID, mode, cmd.Process.Pid, out.Path())
	return nil
}

func (e *ProcessExecutor) reap(cmd *exec.Cmd, id string, out *logging.Logger) {
	defer e.wg.Done()
	err := cmd.Wait()
	e.mu.Lock()
	delete(e.running, cmd)
	e.mu.Unlock()
	if err != nil {
		out.Printf("exited: %v", err)
		e.log().Warn("%s exited: %v", id, err)
	} else {
		out.Printf("exited cleanly")
		e.log().Info("%s exited cleanly", id)
	}
	_ = out.Close()
}

// Running lists the IDs of processes that have not exited yet.
func (e *ProcessExecutor) Running() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.running))
	for _, id := range e.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Wait blocks until every started process exited. When ctx ends first the
// remaining processes are interrupted, killed after killGrace, and Wait
// returns ctx.Err() once they are gone.
func (e *ProcessExecutor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	e.mu.Lock()
	for cmd, id := range e.running {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			e.log().Warn("interrupt %s: %v", id, err)
		}
	}
	e.mu.Unlock()
	select {
	case <-done:
	case <-time.After(killGrace):
		e.mu.Lock()
		for cmd, id := range e.running {
			e.log().Warn("killing %s after %s", id, killGrace)
			_ = cmd.Process.Kill()
		}
		e.mu.Unlock()
		<-done
	}
	return ctx.Err()
}

func (e *ProcessExecutor) log() launch.Logger {
	if e.logger == nil {
		return quietLogger{}
	}
	return e.logger
}

func buildEnv(overlay map[string]string, target launch.Target, mode launch.Mode) []string {
	env := os.Environ()
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overlay[k])
	}
	return append(env,
		"SUPERRUN_TARGET="+target.ID,
		"SUPERRUN_MODE="+string(mode),
	)
}

type quietLogger struct{}

func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}
