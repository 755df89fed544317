// Package targets connects the project config to the launch package: it lists
// the declared targets and starts them as local processes.
package targets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/launch"
)

// ConfigSource lists the targets declared in .superrun/config.yaml.
type ConfigSource struct {
	cfg *config.Config
}

// NewConfigSource wraps a loaded project config.
func NewConfigSource(cfg *config.Config) *ConfigSource {
	return &ConfigSource{cfg: cfg}
}

// ListTargets returns declared targets in declaration order, restricted to the
// configured kinds when any are set.
func (s *ConfigSource) ListTargets() []launch.Target {
	if s == nil || s.cfg == nil {
		return nil
	}
	kinds := s.cfg.Kinds()
	var out []launch.Target
	for _, tc := range s.cfg.Targets() {
		if len(kinds) > 0 && !containsFold(kinds, tc.Kind) {
			continue
		}
		out = append(out, launch.Target{ID: tc.ID, Name: tc.Name, Kind: tc.Kind})
	}
	return out
}

// Lookup returns the listed target with the given ID.
func (s *ConfigSource) Lookup(id string) (launch.Target, bool) {
	for _, t := range s.ListTargets() {
		if t.ID == id {
			return t, true
		}
	}
	return launch.Target{}, false
}

// Describe renders the details of a target for the dialog's inspect panel.
func (s *ConfigSource) Describe(id string) string {
	if s == nil || s.cfg == nil {
		return ""
	}
	tc, ok := s.cfg.Target(id)
	if !ok {
		return fmt.Sprintf("%s: not declared in the project config", id)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ID:    %s\n", tc.ID)
	if tc.Name != "" {
		fmt.Fprintf(&b, "Name:  %s\n", tc.Name)
	}
	if tc.Kind != "" {
		fmt.Fprintf(&b, "Kind:  %s\n", tc.Kind)
	}
	dir := tc.Dir
	if dir == "" {
		dir = s.cfg.ProjectDir
	}
	fmt.Fprintf(&b, "Dir:   %s\n", dir)
	fmt.Fprintf(&b, "Run:   %s\n", commandLine(tc.Run))
	fmt.Fprintf(&b, "Debug: %s\n", commandLine(tc.Debug))
	if len(tc.Env) > 0 {
		keys := make([]string, 0, len(tc.Env))
		for k := range tc.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Env:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s=%s\n", k, tc.Env[k])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func commandLine(argv []string) string {
	if len(argv) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			quoted[i] = fmt.Sprintf("%q", arg)
			continue
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}
