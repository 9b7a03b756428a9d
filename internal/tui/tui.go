// Package tui is a terminal console for a running overlay: it shows the
// view state, the menu and the open windows, and drives them over IPC.
package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/orbit/internal/config"
	"github.com/1broseidon/orbit/internal/ipc"
)

const refreshInterval = time.Second

// Daemon is the IPC surface the console drives; *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	OpenWindow(name string, data map[string]any) (string, error)
	MinimizeWindow(id string) error
	MaximizeWindow(id string) error
	CloseWindow(id string) error
	ShowMenu() error
	HideMenu() error
	Reload() error
}

type focus int

const (
	focusMenu focus = iota
	focusWindows
)

// TUI represents the terminal user interface state.
type TUI struct {
	configPath string
	daemon     Daemon

	// UI state
	status     *ipc.StatusData
	focus      focus
	menuIndex  int
	winIndex   int
	lastError  string
	lastAction string
	fatalErr   error

	// Terminal state
	oldState *term.State
	width    int
	height   int
}

// New creates a console for daemon. configPath is opened by the edit key;
// empty means the default location.
func New(configPath string, daemon Daemon) *TUI {
	if daemon == nil {
		daemon = ipc.NewClient()
	}
	return &TUI{
		configPath: configPath,
		daemon:     daemon,
		width:      80,
		height:     24,
	}
}

// Run starts the TUI main loop.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	t.oldState = oldState
	defer t.restore()

	t.updateSize()
	t.refresh()
	fmt.Print(t.render())

	input := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			buf := make([]byte, 32)
			n, err := os.Stdin.Read(buf)
			if err != nil {
				readErr <- err
				return
			}
			input <- buf[:n]
		}
	}()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-readErr:
			return err
		case in := <-input:
			if t.handleInput(in) {
				return t.fatalErr
			}
		case <-ticker.C:
			t.refresh()
		}
		t.updateSize()
		fmt.Print(t.render())
	}
}

func (t *TUI) restore() {
	if t.oldState != nil {
		term.Restore(int(os.Stdin.Fd()), t.oldState)
	}
	fmt.Print(escReset)
	fmt.Print(escShowCursor)
	fmt.Print(escClear)
	fmt.Print(escHome)
}

func (t *TUI) updateSize() {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		t.width = 80
		t.height = 24
		return
	}
	t.width = w
	t.height = h
}

// refresh pulls a fresh status. A failure keeps the last snapshot and is
// shown inline.
func (t *TUI) refresh() {
	st, err := t.daemon.GetStatus()
	if err != nil {
		t.lastError = err.Error()
		return
	}
	t.status = st
	t.lastError = ""
	t.menuIndex = clampIndex(t.menuIndex, len(st.Menu))
	t.winIndex = clampIndex(t.winIndex, len(st.Windows))
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (t *TUI) handleInput(input []byte) bool {
	for len(input) > 0 {
		if len(input) >= 3 && input[0] == 0x1b && input[1] == '[' {
			switch input[2] {
			case 'A':
				t.moveSelection(-1)
			case 'B':
				t.moveSelection(1)
			}
			input = input[3:]
			continue
		}

		switch input[0] {
		case 'q', 0x1b, 0x03:
			return true
		case 'j':
			t.moveSelection(1)
		case 'k':
			t.moveSelection(-1)
		case '\t':
			if t.focus == focusMenu {
				t.focus = focusWindows
			} else {
				t.focus = focusMenu
			}
		case '\r', '\n', 'o':
			t.openSelected()
		case 'm':
			t.windowAction("minimize", t.daemon.MinimizeWindow)
		case 'x':
			t.windowAction("maximize", t.daemon.MaximizeWindow)
		case 'c':
			t.windowAction("close", t.daemon.CloseWindow)
		case 's':
			t.act("show menu", t.daemon.ShowMenu)
		case 'h':
			t.act("hide menu", t.daemon.HideMenu)
		case 'r':
			t.act("reload", t.daemon.Reload)
		case 'e':
			if err := t.editConfig(); err != nil {
				t.fatalErr = err
				return true
			}
		}
		input = input[1:]
	}
	return false
}

func (t *TUI) moveSelection(delta int) {
	if t.status == nil {
		return
	}
	idx, n := &t.menuIndex, len(t.status.Menu)
	if t.focus == focusWindows {
		idx, n = &t.winIndex, len(t.status.Windows)
	}
	if n == 0 {
		return
	}
	*idx += delta
	if *idx < 0 {
		*idx = n - 1
	} else if *idx >= n {
		*idx = 0
	}
}

func (t *TUI) openSelected() {
	if t.status == nil || len(t.status.Menu) == 0 {
		return
	}
	it := t.status.Menu[t.menuIndex]
	id, err := t.daemon.OpenWindow(it.ID, nil)
	if err != nil {
		t.lastError = err.Error()
		return
	}
	t.lastAction = fmt.Sprintf("opened %s as %s", it.ID, id)
	t.refresh()
}

func (t *TUI) windowAction(name string, fn func(string) error) {
	if t.status == nil || len(t.status.Windows) == 0 {
		t.lastError = "no window selected"
		return
	}
	id := t.status.Windows[t.winIndex].ID
	t.act(name+" "+id, func() error { return fn(id) })
}

func (t *TUI) act(name string, fn func() error) {
	if err := fn(); err != nil {
		t.lastError = err.Error()
		return
	}
	t.lastAction = name
	t.refresh()
}

func (t *TUI) editConfig() error {
	// Restore terminal state before launching editor
	t.restore()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}

	configPath := t.configPath
	if configPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			t.lastError = err.Error()
			return t.reenterRawMode()
		}
		configPath = path
	}

	editorParts := strings.Fields(editor)
	cmd := exec.Command(editorParts[0], append(editorParts[1:], configPath)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.lastError = fmt.Sprintf("editor failed: %v", err)
	}

	if err := t.reenterRawMode(); err != nil {
		return err
	}
	t.act("reload", t.daemon.Reload)
	return nil
}

func (t *TUI) reenterRawMode() error {
	if t.oldState == nil {
		return nil
	}
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to re-enter raw mode: %w", err)
	}
	t.oldState = oldState
	return nil
}
