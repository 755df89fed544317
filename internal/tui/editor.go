package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/superrun/internal/launch"
	"github.com/kingrea/superrun/internal/order"
)

// ReloadFunc re-reads the project's targets after the config was edited.
type ReloadFunc func() ([]launch.Target, error)

type editorClosedMsg struct {
	err error
}

// WithConfigEditor lets the `e` key open path in $VISUAL or $EDITOR. When the
// editor exits, reload supplies the refreshed target list.
func WithConfigEditor(path string, reload ReloadFunc) PickerOption {
	return func(p *Picker) {
		p.configPath = path
		p.reload = reload
	}
}

func editorCommand(path string) (*exec.Cmd, error) {
	editor := strings.TrimSpace(os.Getenv("VISUAL"))
	if editor == "" {
		editor = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if editor == "" {
		editor = "vi"
	}
	argv := strings.Fields(editor)
	if len(argv) == 0 {
		return nil, fmt.Errorf("no editor configured")
	}
	return exec.Command(argv[0], append(argv[1:], path)...), nil
}

func (p *Picker) openEditor() tea.Cmd {
	if p.configPath == "" {
		p.setStatus("Editing is not available here", true)
		return nil
	}
	cmd, err := editorCommand(p.configPath)
	if err != nil {
		p.setStatus(err.Error(), true)
		return nil
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorClosedMsg{err: err}
	})
}

// editorClosed refreshes the rows from the edited config. Rows keep their
// current order and marks; new targets trail, removed targets drop out.
func (p *Picker) editorClosed(msg editorClosedMsg) {
	if msg.err != nil {
		p.setStatus(fmt.Sprintf("Editor failed: %v", msg.err), true)
		return
	}
	if p.reload == nil {
		p.setStatus("Config saved", false)
		return
	}
	fresh, err := p.reload()
	if err != nil {
		p.setStatus(fmt.Sprintf("Config not reloaded: %v", err), true)
		if p.logger != nil {
			p.logger.Warn("config reload after edit: %v", err)
		}
		return
	}
	marks := make(map[string]row, len(p.rows))
	for _, r := range p.rows {
		marks[r.target.ID] = r
	}
	ordered := order.ApplyOrder(fresh, p.OrderIDs())
	rows := make([]row, len(ordered))
	for i, t := range ordered {
		prev := marks[t.ID]
		rows[i] = row{target: t, run: prev.run, debug: prev.debug}
	}
	p.rows = rows
	if p.cursor >= len(rows) {
		p.cursor = max(len(rows)-1, 0)
	}
	p.setStatus("Config reloaded", false)
}
