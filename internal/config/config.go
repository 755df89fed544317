// internal/config/config.go
//
// This package handles configuration and the .superrun directory structure.
// Every project that uses superrun gets a .superrun/ folder created in its root.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/superrun/internal/kvstore"
)

const (
	// ProjectDirName is the name of the directory we create in each project
	ProjectDirName = ".superrun"

	// DefaultDelaySeconds matches the dialog's initial delay.
	DefaultDelaySeconds = 5
	// MaxDelaySeconds bounds the delay the dialog and config accept.
	MaxDelaySeconds = 60

	configYAML = "config.yaml"
	configTOML = "config.toml"
)

const defaultProjectConfigYAML = `# superrun project configuration
version: 1

# Seconds between consecutive launch starts (0..60).
delay_seconds: 5

# Only targets of these kinds are offered. Leave empty to offer every target.
kinds: []

# Where the launch order is remembered: file (default) or sqlite.
store:
  backend: file

# Launch targets. run/debug are argv lists; a target without a debug command
# cannot be launched in debug mode.
targets: []
#  - id: Application.api
#    name: API server
#    kind: Application
#    dir: services/api
#    env:
#      PORT: "8080"
#    run: ["go", "run", "./cmd/api"]
#    debug: ["dlv", "debug", "./cmd/api", "--headless", "--listen=:2345"]
`

// TargetConfig declares one launch target inside .superrun/config.yaml.
type TargetConfig struct {
	ID    string            `yaml:"id" toml:"id"`
	Name  string            `yaml:"name,omitempty" toml:"name"`
	Kind  string            `yaml:"kind,omitempty" toml:"kind"`
	Dir   string            `yaml:"dir,omitempty" toml:"dir"`
	Env   map[string]string `yaml:"env,omitempty" toml:"env"`
	Run   []string          `yaml:"run,omitempty" toml:"run"`
	Debug []string          `yaml:"debug,omitempty" toml:"debug"`
}

// StoreConfig selects the durable record backend.
type StoreConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
}

// ProjectConfig models .superrun/config.yaml.
type ProjectConfig struct {
	Version      int            `yaml:"version" toml:"version"`
	DelaySeconds *int           `yaml:"delay_seconds,omitempty" toml:"delay_seconds"`
	Kinds        []string       `yaml:"kinds,omitempty" toml:"kinds"`
	Store        StoreConfig    `yaml:"store" toml:"store"`
	Targets      []TargetConfig `yaml:"targets" toml:"targets"`
}

// Config holds the runtime configuration for superrun.
type Config struct {
	// ProjectDir is the directory where the user ran `superrun` from
	ProjectDir string

	// StateRoot is ProjectDir/.superrun
	StateRoot string

	// Source is the file the project config was read from, empty when defaults apply.
	Source string

	Project ProjectConfig
}

// InitProjectDir creates the .superrun directory structure in the given project directory.
//
// Structure created:
// .superrun/
// ├── config.yaml
// ├── logs/
// │   └── targets/  <- Output of launched processes
// └── state/        <- Durable records (launch order)
func InitProjectDir(projectDir string) error {
	root := filepath.Join(projectDir, ProjectDirName)
	dirs := []string{
		filepath.Join(root, "logs", "targets"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if _, err := os.Stat(filepath.Join(root, configTOML)); err == nil {
		return nil
	}
	return ensureProjectConfig(filepath.Join(root, configYAML))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateRoot:  filepath.Join(projectDir, ProjectDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateRoot, "logs")
}

// TargetLogsDir returns the directory that receives launched process output
func (c *Config) TargetLogsDir() string {
	return filepath.Join(c.LogsDir(), "targets")
}

// JournalPath returns the leveled journal location
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "superrun.log")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.StateRoot, "state")
}

// ProjectConfigPath returns the on-disk location for the YAML project config.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateRoot, configYAML)
}

// DelaySeconds returns the configured default delay.
func (c *Config) DelaySeconds() int {
	if c == nil || c.Project.DelaySeconds == nil {
		return DefaultDelaySeconds
	}
	return *c.Project.DelaySeconds
}

// StoreBackend names the kvstore backend.
func (c *Config) StoreBackend() string {
	if c == nil || c.Project.Store.Backend == "" {
		return kvstore.BackendFile
	}
	return c.Project.Store.Backend
}

// Targets returns the declared targets in declaration order.
func (c *Config) Targets() []TargetConfig {
	if c == nil {
		return nil
	}
	return c.Project.Targets
}

// Target looks up a declared target by ID.
func (c *Config) Target(id string) (TargetConfig, bool) {
	for _, t := range c.Targets() {
		if t.ID == id {
			return t, true
		}
	}
	return TargetConfig{}, false
}

// Kinds returns the kind filter; empty means every kind.
func (c *Config) Kinds() []string {
	if c == nil {
		return nil
	}
	return c.Project.Kinds
}

// SetDelaySeconds updates the default delay and persists the value back to
// .superrun/config.yaml so the dialog opens with it next time.
func (c *Config) SetDelaySeconds(delay int) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	if filepath.Ext(c.Source) == ".toml" {
		return fmt.Errorf("config: %s is not written by superrun", c.Source)
	}
	if delay < 0 || delay > MaxDelaySeconds {
		return fmt.Errorf("config: delay must be between 0 and %d, got %d", MaxDelaySeconds, delay)
	}
	if err := c.saveDelaySeconds(delay); err != nil {
		return err
	}
	c.Project.DelaySeconds = &delay
	return nil
}

// OpenStore opens the configured durable record backend.
func (c *Config) OpenStore() (kvstore.Store, error) {
	return kvstore.Open(c.StoreBackend(), c.StateDir())
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		return c.loadTOMLConfig()
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c.adopt(parsed, path)
}

func (c *Config) loadTOMLConfig() error {
	path := filepath.Join(c.StateRoot, configTOML)
	var parsed ProjectConfig
	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c.adopt(parsed, path)
}

func (c *Config) adopt(parsed ProjectConfig, path string) error {
	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.Project = parsed
	c.Source = path
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if value := strings.TrimSpace(os.Getenv("SUPERRUN_DELAY")); value != "" {
		delay, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("SUPERRUN_DELAY must be a whole number of seconds, got %q", value)
		}
		c.Project.DelaySeconds = &delay
	}
	if backend := strings.TrimSpace(os.Getenv("SUPERRUN_STORE")); backend != "" {
		c.Project.Store.Backend = normalizeToken(backend)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	delay := DefaultDelaySeconds
	return ProjectConfig{
		Version:      1,
		DelaySeconds: &delay,
		Store:        StoreConfig{Backend: kvstore.BackendFile},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.DelaySeconds == nil {
		delay := DefaultDelaySeconds
		pc.DelaySeconds = &delay
	}
	if pc.Store.Backend == "" {
		pc.Store.Backend = kvstore.BackendFile
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Store.Backend = normalizeToken(pc.Store.Backend)
	kinds := make([]string, 0, len(pc.Kinds))
	for _, kind := range pc.Kinds {
		if trimmed := strings.TrimSpace(kind); trimmed != "" {
			kinds = append(kinds, trimmed)
		}
	}
	pc.Kinds = kinds
	for i := range pc.Targets {
		pc.Targets[i].normalize(base)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.DelaySeconds != nil {
		if d := *pc.DelaySeconds; d < 0 || d > MaxDelaySeconds {
			return fmt.Errorf("delay_seconds must be between 0 and %d, got %d", MaxDelaySeconds, d)
		}
	}
	switch pc.Store.Backend {
	case kvstore.BackendFile, kvstore.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be '%s' or '%s'", kvstore.BackendFile, kvstore.BackendSQLite)
	}
	seen := map[string]struct{}{}
	for i := range pc.Targets {
		if err := pc.Targets[i].validate(); err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		if _, dup := seen[pc.Targets[i].ID]; dup {
			return fmt.Errorf("targets[%d]: duplicate id %q", i, pc.Targets[i].ID)
		}
		seen[pc.Targets[i].ID] = struct{}{}
	}
	return nil
}

func (t *TargetConfig) normalize(base string) {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	t.Kind = strings.TrimSpace(t.Kind)
	t.Dir = resolvePath(base, t.Dir)
	t.Run = trimArgs(t.Run)
	t.Debug = trimArgs(t.Debug)
}

func (t TargetConfig) validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(t.Run) == 0 && len(t.Debug) == 0 {
		return fmt.Errorf("target %q needs a run or debug command", t.ID)
	}
	return nil
}

func trimArgs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	copy(out, args)
	for len(out) > 0 && strings.TrimSpace(out[0]) == "" {
		out = out[1:]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

// saveDelaySeconds rewrites only the delay_seconds entry of config.yaml. The
// rest of the document, comments included, is written back as it was read, so
// resolved paths and environment overrides never leak into the file.
func (c *Config) saveDelaySeconds(delay int) error {
	path := c.ProjectConfigPath()
	if err := os.MkdirAll(c.StateRoot, 0o755); err != nil {
		return fmt.Errorf("config: ensure state root: %w", err)
	}
	if err := ensureProjectConfig(path); err != nil {
		return fmt.Errorf("config: create project config: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("config: %s: top level must be a mapping", path)
	}
	setScalar(root, "delay_seconds", strconv.Itoa(delay), "!!int")

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	c.Source = path
	return nil
}

// setScalar replaces the value under key in mapping, appending the pair when
// the key is absent.
func setScalar(mapping *yaml.Node, key, value, tag string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			node := mapping.Content[i+1]
			node.Kind = yaml.ScalarNode
			node.Tag = tag
			node.Value = value
			node.Style = 0
			node.Content = nil
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
