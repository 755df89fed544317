package launch

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects the execution semantics applied to a target.
type Mode string

const (
	ModeRun   Mode = "run"
	ModeDebug Mode = "debug"
)

// ParseMode accepts "run" or "debug" in any case. An empty value means run.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeRun):
		return ModeRun, nil
	case string(ModeDebug):
		return ModeDebug, nil
	default:
		return "", fmt.Errorf("launch: unknown mode %q", value)
	}
}

// Target is a launchable unit of work. ID is the only identity; Name is for
// display and may change or collide.
type Target struct {
	ID   string
	Name string
	Kind string
}

// Label prefers the display name and falls back to the ID.
func (t Target) Label() string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return t.ID
}

// Request pairs a target with the mode it should be launched in.
type Request struct {
	Target Target
	Mode   Mode
}

func (r Request) String() string {
	return fmt.Sprintf("%s (%s)", r.Target.Label(), r.Mode)
}

// Batch is the immutable set of requests confirmed in one sitting.
type Batch struct {
	id           string
	requests     []Request
	delaySeconds int
}

// NewBatch validates and freezes a batch. Requests keep the caller's order,
// which is the launch order.
func NewBatch(requests []Request, delaySeconds int) (Batch, error) {
	if delaySeconds < 0 {
		return Batch{}, fmt.Errorf("launch: delay must be >= 0, got %d", delaySeconds)
	}
	seen := make(map[string]struct{}, len(requests))
	frozen := make([]Request, 0, len(requests))
	for i, req := range requests {
		id := strings.TrimSpace(req.Target.ID)
		if id == "" {
			return Batch{}, fmt.Errorf("launch: request %d has no target id", i)
		}
		if _, dup := seen[id]; dup {
			return Batch{}, fmt.Errorf("launch: target %q appears more than once", id)
		}
		seen[id] = struct{}{}
		mode := req.Mode
		if mode == "" {
			mode = ModeRun
		}
		if mode != ModeRun && mode != ModeDebug {
			return Batch{}, fmt.Errorf("launch: target %q has unknown mode %q", id, mode)
		}
		req.Target.ID = id
		req.Mode = mode
		frozen = append(frozen, req)
	}
	return Batch{
		id:           uuid.NewString(),
		requests:     frozen,
		delaySeconds: delaySeconds,
	}, nil
}

// ID correlates log lines that belong to the same batch.
func (b Batch) ID() string { return b.id }

// Len reports how many requests the batch holds.
func (b Batch) Len() int { return len(b.requests) }

// DelaySeconds is the gap between consecutive launch starts.
func (b Batch) DelaySeconds() int { return b.delaySeconds }

// Requests returns a copy of the ordered requests.
func (b Batch) Requests() []Request {
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Offset is the fire time of request i measured from the schedule instant,
// expressed with unit as the length of one delay step.
func (b Batch) Offset(i int, unit time.Duration) time.Duration {
	if i <= 0 {
		return 0
	}
	return time.Duration(i) * time.Duration(b.delaySeconds) * unit
}
