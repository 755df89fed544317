package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/kvstore"
	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/logbook"
	"github.com/kingrea/superrun/internal/order"
	"github.com/kingrea/superrun/internal/targets"
)

// session holds everything a command needs for one project.
type session struct {
	cfg     *config.Config
	journal *logbook.Logbook
	records kvstore.Store
	order   *order.Store
	source  *targets.ConfigSource
}

func openSession(flags *globalFlags, stderr io.Writer) (*session, error) {
	projectDir := flags.projectDir
	if projectDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		projectDir = cwd
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	if err := config.InitProjectDir(projectDir); err != nil {
		return nil, fmt.Errorf("init %s: %w", config.ProjectDirName, err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	var opts []logbook.Option
	if flags.verbose {
		opts = append(opts, logbook.WithEcho(stderr))
	}
	journal, err := logbook.New(cfg.JournalPath(), opts...)
	if err != nil {
		return nil, err
	}
	records, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		journal: journal,
		records: records,
		order:   order.NewStore(records),
		source:  targets.NewConfigSource(cfg),
	}, nil
}

func (s *session) Close() error {
	return s.records.Close()
}

// orderedTargets lists the project's targets arranged by the saved order.
func (s *session) orderedTargets() []launch.Target {
	return order.ApplyOrder(s.source.ListTargets(), s.order.Load())
}

// runBatch schedules batch, reports each launch to out and waits for the
// started processes unless detach is set. Cancelling ctx cancels launches
// that have not fired yet and stops running processes.
func (s *session) runBatch(ctx context.Context, batch launch.Batch, detach bool, out io.Writer) error {
	loop := launch.NewLoop(s.journal)
	// Written on the loop goroutine only; read after loop.Close.
	var started, failed int
	executor := targets.NewProcessExecutor(s.cfg, s.journal)
	launcher := &launch.Launcher{
		Executor:   executor,
		Dispatcher: loop,
		Logger:     s.journal,
		Context:    ctx,
		OnResult: func(req launch.Request, err error) {
			if err != nil {
				failed++
				fmt.Fprintf(out, "✗ %v\n", err)
				return
			}
			started++
			fmt.Fprintf(out, "✓ started %s\n", req)
		},
	}
	scheduler := launch.NewScheduler(launch.WithLogger(s.journal))

	fmt.Fprintf(out, "Launching %d target(s), %ds apart\n", batch.Len(), batch.DelaySeconds())
	handle := scheduler.Schedule(batch, launcher.Launch)
	result, err := handle.Wait(ctx)
	if err != nil {
		handle.Cancel()
		<-handle.Done()
		result = handle.Result()
	}
	_ = loop.Close()

	failed += result.Failed
	fmt.Fprintf(out, "%d started, %d failed, %d cancelled\n", started, failed, result.Cancelled)
	for _, failure := range handle.Failures() {
		s.journal.Warn("batch %s: %v", handle.ID(), failure)
	}
	if detach {
		return launchOutcome(failed, ctx.Err())
	}

	if running := executor.Running(); len(running) > 0 {
		fmt.Fprintf(out, "Waiting for %d process(es); press Ctrl+C to stop them. Output: %s\n",
			len(running), s.cfg.TargetLogsDir())
	}
	if err := executor.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return launchOutcome(failed, ctx.Err())
}

func launchOutcome(failed int, ctxErr error) error {
	if ctxErr != nil {
		return fmt.Errorf("interrupted: %w", ctxErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d launch(es) failed, see the journal for details", failed)
	}
	return nil
}
