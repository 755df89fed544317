package targets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/logging"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	projectDir := t.TempDir()
	if err := config.InitProjectDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := filepath.Join(projectDir, config.ProjectDirName, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

const sampleConfig = `
kinds: [application]
targets:
  - id: Application.api
    name: API
    kind: Application
    env:
      GREETING: hello
    run: ["sh", "-c", "echo $GREETING from $SUPERRUN_TARGET in $SUPERRUN_MODE mode"]
  - id: Gradle.build
    kind: Gradle
    run: ["true"]
  - id: Application.worker
    name: Worker
    kind: Application
    dir: worker
    run: ["sh", "-c", "exit 3"]
    debug: ["sh", "-c", "pwd"]
`

func TestListTargetsFiltersByKind(t *testing.T) {
	cfg := loadConfig(t, sampleConfig)
	source := NewConfigSource(cfg)
	got := source.ListTargets()
	if len(got) != 2 || got[0].ID != "Application.api" || got[1].ID != "Application.worker" {
		t.Fatalf("unexpected targets %+v", got)
	}
	if got[0].Name != "API" || got[0].Kind != "Application" {
		t.Fatalf("target fields not carried: %+v", got[0])
	}
	if _, ok := source.Lookup("Gradle.build"); ok {
		t.Fatalf("filtered target must not be found")
	}
}

func TestDescribeShowsCommands(t *testing.T) {
	cfg := loadConfig(t, sampleConfig)
	text := NewConfigSource(cfg).Describe("Application.api")
	for _, want := range []string{"ID:    Application.api", "Debug: (none)", "GREETING=hello", `"echo $GREETING`} {
		if !strings.Contains(text, want) {
			t.Fatalf("description missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(NewConfigSource(cfg).Describe("nope"), "not declared") {
		t.Fatalf("expected unknown target message")
	}
}

func TestExecuteStartsProcessAndCapturesOutput(t *testing.T) {
	cfg := loadConfig(t, sampleConfig)
	exec := NewProcessExecutor(cfg, nil)
	target := launch.Target{ID: "Application.api"}
	if err := exec.Execute(context.Background(), target, launch.ModeRun); err != nil {
		t.Fatalf("execute: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.TargetLogsDir(), logging.FileName(target.ID)))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "hello from Application.api in run mode") {
		t.Fatalf("unexpected output %q", data)
	}
	if !strings.Contains(string(data), "exited cleanly") {
		t.Fatalf("missing exit marker in %q", data)
	}
	if len(exec.Running()) != 0 {
		t.Fatalf("expected no running processes, got %v", exec.Running())
	}
}

func TestExecuteDebugUsesTargetDir(t *testing.T) {
	cfg := loadConfig(t, sampleConfig)
	if err := os.MkdirAll(filepath.Join(cfg.ProjectDir, "worker"), 0o755); err != nil {
		t.Fatal(err)
	}
	exec := NewProcessExecutor(cfg, nil)
	if err := exec.Execute(context.Background(), launch.Target{ID: "Application.worker"}, launch.ModeDebug); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := exec.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.TargetLogsDir(), "Application.worker.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), filepath.Join(cfg.ProjectDir, "worker")) {
		t.Fatalf("debug command did not run in target dir: %q", data)
	}
}

func TestExecuteWithoutCommandIsNoRunner(t *testing.T) {
	cfg := loadConfig(t, sampleConfig)
	exec := NewProcessExecutor(cfg, nil)
	err := exec.Execute(context.Background(), launch.Target{ID: "Application.api"}, launch.ModeDebug)
	if !errors.Is(err, launch.ErrNoRunner) {
		t.Fatalf("expected ErrNoRunner for missing debug command, got %v", err)
	}
	err = exec.Execute(context.Background(), launch.Target{ID: "Unknown.thing"}, launch.ModeRun)
	if !errors.Is(err, launch.ErrNoRunner) {
		t.Fatalf("expected ErrNoRunner for unknown target, got %v", err)
	}
}

func TestExecuteReportsStartFailure(t *testing.T) {
	cfg := loadConfig(t, `
targets:
  - id: broken
    run: ["/definitely/not/a/binary"]
`)
	err := NewProcessExecutor(cfg, nil).Execute(context.Background(), launch.Target{ID: "broken"}, launch.ModeRun)
	if err == nil || errors.Is(err, launch.ErrNoRunner) {
		t.Fatalf("expected start error, got %v", err)
	}
}

func TestWaitInterruptsOnCancel(t *testing.T) {
	cfg := loadConfig(t, `
targets:
  - id: sleeper
    run: ["sleep", "30"]
`)
	exec := NewProcessExecutor(cfg, nil)
	if err := exec.Execute(context.Background(), launch.Target{ID: "sleeper"}, launch.ModeRun); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := exec.Running(); len(got) != 1 || got[0] != "sleeper" {
		t.Fatalf("expected sleeper running, got %v", got)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := exec.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatalf("wait took too long to stop the process")
	}
}
