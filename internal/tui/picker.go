// internal/tui/picker.go
//
// The picker is the launch selection dialog. Each row is one target with a
// Run and a Debug mark; rows can be reordered and every reorder is saved
// immediately. Confirming produces the launch.Batch the scheduler consumes.

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/superrun/internal/config"
	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/order"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	debugStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	detailBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
)

type row struct {
	target launch.Target
	run    bool
	debug  bool
}

// mode resolves the row's marks; debug wins when both are set.
func (r row) mode() (launch.Mode, bool) {
	switch {
	case r.debug:
		return launch.ModeDebug, true
	case r.run:
		return launch.ModeRun, true
	default:
		return "", false
	}
}

// PickerOption customizes Picker construction.
type PickerOption func(*Picker)

// WithDescriber supplies the text shown by the details panel.
func WithDescriber(describe func(id string) string) PickerOption {
	return func(p *Picker) {
		if describe != nil {
			p.describe = describe
		}
	}
}

// WithLogger records reorder failures.
func WithLogger(logger launch.Logger) PickerOption {
	return func(p *Picker) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Picker is the bubbletea model of the selection dialog.
type Picker struct {
	rows     []row
	cursor   int
	delay    int
	store    *order.Store
	describe func(id string) string
	logger   launch.Logger

	configPath string
	reload     ReloadFunc

	inspecting bool
	status     string
	statusErr  bool

	confirmed bool
	batch     launch.Batch

	keys   keyMap
	help   help.Model
	width  int
	height int
}

// NewPicker builds the dialog. Targets are arranged by the order saved in
// store; targets the store does not know yet trail in discovery order.
func NewPicker(targets []launch.Target, store *order.Store, delay int, opts ...PickerOption) *Picker {
	ordered := order.ApplyOrder(targets, store.Load())
	rows := make([]row, len(ordered))
	for i, t := range ordered {
		rows[i] = row{target: t}
	}
	p := &Picker{
		rows:  rows,
		delay: clampDelay(delay),
		store: store,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Init is called once when the program starts.
func (p *Picker) Init() tea.Cmd {
	return nil
}

// Update handles one message.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.help.Width = msg.Width
		return p, nil
	case tea.KeyMsg:
		return p.handleKey(msg)
	case editorClosedMsg:
		p.editorClosed(msg)
		return p, nil
	}
	return p, nil
}

func (p *Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, p.keys.Cancel):
		p.confirmed = false
		return p, tea.Quit
	case key.Matches(msg, p.keys.Confirm):
		return p.confirm()
	case key.Matches(msg, p.keys.MoveUp):
		p.move(-1)
	case key.Matches(msg, p.keys.MoveDown):
		p.move(1)
	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, p.keys.Down):
		if p.cursor < len(p.rows)-1 {
			p.cursor++
		}
	case key.Matches(msg, p.keys.ToggleRun):
		if r := p.current(); r != nil {
			r.run = !r.run
		}
	case key.Matches(msg, p.keys.ToggleDebug):
		if r := p.current(); r != nil {
			r.debug = !r.debug
		}
	case key.Matches(msg, p.keys.DelayUp):
		p.delay = clampDelay(p.delay + 1)
	case key.Matches(msg, p.keys.DelayDown):
		p.delay = clampDelay(p.delay - 1)
	case key.Matches(msg, p.keys.Inspect):
		p.inspecting = !p.inspecting
	case key.Matches(msg, p.keys.Edit):
		return p, p.openEditor()
	case key.Matches(msg, p.keys.Help):
		p.help.ShowAll = !p.help.ShowAll
	}
	return p, nil
}

func (p *Picker) current() *row {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return nil
	}
	return &p.rows[p.cursor]
}

// move shifts the selected row and saves the resulting order. A failed save
// is shown but the new order stays in place for this session.
func (p *Picker) move(delta int) {
	rows, idx, ok := order.Move(p.rows, p.cursor, delta)
	if !ok {
		return
	}
	p.rows = rows
	p.cursor = idx
	if err := p.store.Save(p.OrderIDs()); err != nil {
		p.setStatus(fmt.Sprintf("Order not saved: %v", err), true)
		if p.logger != nil {
			p.logger.Warn("reorder not persisted: %v", err)
		}
		return
	}
	p.setStatus("Order saved", false)
}

func (p *Picker) confirm() (tea.Model, tea.Cmd) {
	requests := p.Requests()
	if len(requests) == 0 {
		p.setStatus("Mark at least one target with run or debug", true)
		return p, nil
	}
	batch, err := launch.NewBatch(requests, p.delay)
	if err != nil {
		p.setStatus(err.Error(), true)
		return p, nil
	}
	p.batch = batch
	p.confirmed = true
	return p, tea.Quit
}

func (p *Picker) setStatus(text string, isErr bool) {
	p.status = text
	p.statusErr = isErr
}

// Requests returns the marked rows in display order.
func (p *Picker) Requests() []launch.Request {
	var out []launch.Request
	for _, r := range p.rows {
		if mode, ok := r.mode(); ok {
			out = append(out, launch.Request{Target: r.target, Mode: mode})
		}
	}
	return out
}

// OrderIDs returns the IDs of every row in display order.
func (p *Picker) OrderIDs() []string {
	ids := make([]string, len(p.rows))
	for i, r := range p.rows {
		ids[i] = r.target.ID
	}
	return ids
}

// Delay returns the delay currently shown in the dialog.
func (p *Picker) Delay() int { return p.delay }

// Selection returns the confirmed batch. ok is false when the dialog was
// cancelled.
func (p *Picker) Selection() (launch.Batch, bool) {
	return p.batch, p.confirmed
}

// View renders the dialog.
func (p *Picker) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select targets to launch"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Delay between startups (seconds): %s\n\n", cursorStyle.Render(fmt.Sprintf("%d", p.delay)))

	if len(p.rows) == 0 {
		b.WriteString(dimStyle.Render("No targets found. Declare targets in .superrun/config.yaml."))
		b.WriteString("\n")
	} else {
		nameWidth := 7
		for _, r := range p.rows {
			nameWidth = max(nameWidth, lipgloss.Width(r.target.Label()))
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s  %-5s  %-5s", nameWidth, "Target", "Run", "Debug")))
		b.WriteString("\n")
		for i, r := range p.rows {
			marker := "  "
			if i == p.cursor {
				marker = cursorStyle.Render("› ")
			}
			fmt.Fprintf(&b, "%s%-*s  %s  %s\n", marker, nameWidth, r.target.Label(),
				check(r.run, runStyle), check(r.debug, debugStyle))
		}
	}

	if p.inspecting && p.describe != nil {
		if r := p.current(); r != nil {
			b.WriteString("\n")
			b.WriteString(detailBox.Render(p.describe(r.target.ID)))
			b.WriteString("\n")
		}
	}
	if p.status != "" {
		style := statusStyle
		if p.statusErr {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(p.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(p.help.View(p.keys))
	return b.String()
}

func check(on bool, style lipgloss.Style) string {
	if on {
		return style.Render("[x]  ")
	}
	return dimStyle.Render("[ ]  ")
}

func clampDelay(delay int) int {
	if delay < 0 {
		return 0
	}
	if delay > config.MaxDelaySeconds {
		return config.MaxDelaySeconds
	}
	return delay
}

// Run shows the picker until the user confirms or cancels.
func Run(p *Picker, opts ...tea.ProgramOption) (launch.Batch, bool, error) {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	if _, err := tea.NewProgram(p, opts...).Run(); err != nil {
		return launch.Batch{}, false, fmt.Errorf("tui: %w", err)
	}
	batch, ok := p.Selection()
	return batch, ok, nil
}
