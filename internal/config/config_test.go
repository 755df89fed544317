package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProjectFile(t *testing.T, projectDir, name, body string) {
	t.Helper()
	root := filepath.Join(projectDir, ProjectDirName)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, name), []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("SUPERRUN_DELAY", "")
	t.Setenv("SUPERRUN_STORE", "")
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.DelaySeconds() != DefaultDelaySeconds {
		t.Fatalf("expected default delay %d, got %d", DefaultDelaySeconds, c.DelaySeconds())
	}
	if c.StoreBackend() != "file" {
		t.Fatalf("expected file backend, got %q", c.StoreBackend())
	}
	if c.Source != "" {
		t.Fatalf("expected no source file, got %q", c.Source)
	}
}

func TestInitProjectDirWritesLoadableDefault(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, dir := range []string{"logs/targets", "state"} {
		if info, err := os.Stat(filepath.Join(projectDir, ProjectDirName, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory: %v", dir, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("default config must load: %v", err)
	}
	if len(c.Targets()) != 0 || c.DelaySeconds() != 5 {
		t.Fatalf("unexpected default config %+v", c.Project)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectFile(t, projectDir, "config.yaml", `
version: 1
delay_seconds: 0
kinds: [Application]
store:
  backend: SQLite
targets:
  - id: Application.api
    name: API
    kind: Application
    dir: services/api
    env:
      PORT: "8080"
    run: ["go", "run", "."]
    debug: ["dlv", "debug"]
  - id: Gradle.build
    kind: Gradle
    run: ["./gradlew", "build"]
`)
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.DelaySeconds() != 0 {
		t.Fatalf("explicit zero delay must survive defaults, got %d", c.DelaySeconds())
	}
	if c.StoreBackend() != "sqlite" {
		t.Fatalf("backend not normalized: %q", c.StoreBackend())
	}
	if len(c.Targets()) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(c.Targets()))
	}
	api, ok := c.Target("Application.api")
	if !ok {
		t.Fatalf("missing api target")
	}
	if api.Dir != filepath.Join(projectDir, "services", "api") {
		t.Fatalf("expected dir resolved against project, got %s", api.Dir)
	}
	if api.Env["PORT"] != "8080" || len(api.Debug) != 2 {
		t.Fatalf("unexpected api target %+v", api)
	}
	if got := c.Kinds(); len(got) != 1 || got[0] != "Application" {
		t.Fatalf("unexpected kinds %v", got)
	}
}

func TestLoadProjectConfigFallsBackToToml(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectFile(t, projectDir, "config.toml", `
version = 1
delay_seconds = 12

[[targets]]
id = "Application.web"
name = "Web"
run = ["npm", "start"]
`)
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.DelaySeconds() != 12 || len(c.Targets()) != 1 || c.Targets()[0].ID != "Application.web" {
		t.Fatalf("unexpected toml config %+v", c.Project)
	}
	if err := c.SetDelaySeconds(3); err == nil {
		t.Fatalf("expected toml configs to be read-only")
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
targets:
  - id: a
    run: ["x"]
  - id: a
    run: ["y"]
`,
		"missing command": `
targets:
  - id: a
`,
		"delay range": `delay_seconds: 61`,
		"backend":     "store:\n  backend: etcd",
	}
	for name, body := range cases {
		projectDir := t.TempDir()
		writeProjectFile(t, projectDir, "config.yaml", body)
		if _, err := NewConfig(projectDir); err == nil {
			t.Fatalf("%s: expected validation error but got none", name)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SUPERRUN_DELAY", "9")
	t.Setenv("SUPERRUN_STORE", "sqlite")
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.DelaySeconds() != 9 || c.StoreBackend() != "sqlite" {
		t.Fatalf("env overrides not applied: delay=%d backend=%s", c.DelaySeconds(), c.StoreBackend())
	}
	t.Setenv("SUPERRUN_DELAY", "600")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected out-of-range env delay to fail validation")
	}
	t.Setenv("SUPERRUN_DELAY", "five")
	if _, err := NewConfig(t.TempDir()); err == nil || !strings.Contains(err.Error(), "SUPERRUN_DELAY") {
		t.Fatalf("expected non-numeric env delay to be rejected, got %v", err)
	}
}

func TestSetDelaySecondsPersists(t *testing.T) {
	t.Setenv("SUPERRUN_DELAY", "")
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetDelaySeconds(61); err == nil {
		t.Fatalf("expected range error")
	}
	if err := c.SetDelaySeconds(17); err != nil {
		t.Fatalf("set delay: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.DelaySeconds() != 17 {
		t.Fatalf("expected persisted delay 17, got %d", reloaded.DelaySeconds())
	}
}

func TestSetDelaySecondsRewritesOnlyDelay(t *testing.T) {
	t.Setenv("SUPERRUN_DELAY", "")
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatal(err)
	}
	writeProjectFile(t, projectDir, "config.yaml", `
# team launch setup
version: 1
# Seconds between consecutive launch starts (0..60).
delay_seconds: 3
store:
  backend: file
targets:
  - id: api
    dir: services/api
    run: ["go", "run", "."]
`)
	t.Setenv("SUPERRUN_STORE", "sqlite")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.StoreBackend() != "sqlite" {
		t.Fatalf("expected env backend override, got %s", c.StoreBackend())
	}
	if err := c.SetDelaySeconds(7); err != nil {
		t.Fatalf("set delay: %v", err)
	}
	if c.DelaySeconds() != 7 || c.StoreBackend() != "sqlite" {
		t.Fatalf("in-memory config changed unexpectedly: delay=%d backend=%s", c.DelaySeconds(), c.StoreBackend())
	}

	data, err := os.ReadFile(c.ProjectConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"delay_seconds: 7", "backend: file", "dir: services/api", "# team launch setup", "# Seconds between consecutive launch starts"} {
		if !strings.Contains(text, want) {
			t.Fatalf("config.yaml missing %q after SetDelaySeconds:\n%s", want, text)
		}
	}
	if strings.Contains(text, projectDir) || strings.Contains(text, "sqlite") {
		t.Fatalf("resolved paths or env overrides leaked into config.yaml:\n%s", text)
	}

	t.Setenv("SUPERRUN_STORE", "")
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.DelaySeconds() != 7 || reloaded.StoreBackend() != "file" {
		t.Fatalf("unexpected reload: delay=%d backend=%s", reloaded.DelaySeconds(), reloaded.StoreBackend())
	}
	tc, ok := reloaded.Target("api")
	if !ok || tc.Dir != filepath.Join(projectDir, "services", "api") {
		t.Fatalf("relative dir not preserved: %+v", tc)
	}
}
