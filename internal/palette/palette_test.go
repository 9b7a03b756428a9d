package palette

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/window"
)

func TestRofiFormatItem_HeaderIsNonSelectable(t *testing.T) {
	l := &launcher{command: "rofi", kind: kindRofi}
	out := l.formatItem(Item{Label: "Menu <1>", IsHeader: true, Icon: "folder"})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.HasPrefix(out, "<b>Menu &lt;1&gt;</b>\x00") {
		t.Fatalf("expected escaped bold header, got %q", out)
	}
	if !strings.Contains(out, "nonselectable\x1ftrue\x1ficon\x1ffolder") {
		t.Fatalf("expected nonselectable and icon properties, got %q", out)
	}
}

func TestDmenuFormatItem_PlainText(t *testing.T) {
	l := &launcher{command: "dmenu", kind: kindDmenu}
	if out := l.formatItem(Item{Label: " a\nb ", Icon: "x"}); out != "a b" {
		t.Fatalf("formatItem = %q", out)
	}
}

func TestRofiBuildArgs(t *testing.T) {
	l := &launcher{command: "rofi", kind: kindRofi}
	_, active := l.formatInput([]Item{
		{Label: "Menu", IsHeader: true, IsActive: true},
		{Label: "Chat", IsActive: true},
		{Label: "Notes"},
	})
	args := strings.Join(l.buildArgs("orbit", active), " ")
	for _, want := range []string{"-format i", "-no-custom", "-p orbit", "-a 1"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestParseSelection(t *testing.T) {
	items := []Item{{Label: "Menu", IsHeader: true}, {Label: "Chat", Value: "chat"}}

	rofi := &launcher{command: "rofi", kind: kindRofi}
	if it, err := rofi.parseSelection("1", items); err != nil || it.Value != "chat" {
		t.Fatalf("rofi index = %+v, %v", it, err)
	}
	if _, err := rofi.parseSelection("7", items); err == nil {
		t.Fatalf("expected out of range error")
	}

	dmenu := &launcher{command: "dmenu", kind: kindDmenu}
	if it, err := dmenu.parseSelection("Chat", items); err != nil || it.Value != "chat" {
		t.Fatalf("dmenu label = %+v, %v", it, err)
	}
	if _, err := dmenu.parseSelection("Menu", items); err == nil {
		t.Fatalf("headers must not be selectable")
	}
}

func TestNewBackendUnknown(t *testing.T) {
	if _, err := NewBackend("zenity"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

// fakeLauncher puts an executable named name on PATH that runs script.
func fakeLauncher(t *testing.T, name, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake launcher: %v", err)
	}
	t.Setenv("PATH", dir)
}

func TestShowWithDmenu(t *testing.T) {
	fakeLauncher(t, "dmenu", "read first; read second; echo \"$second\"")
	b, err := NewBackend("auto")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b.Name() != "dmenu" {
		t.Fatalf("detected %q", b.Name())
	}
	it, err := b.Show("orbit", []Item{
		{Label: "Menu", IsHeader: true},
		{Label: "Chat", Value: "ball-quick-chat"},
		{Label: "Notes", Value: "ball-quick-notes"},
	})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if it.Value != "ball-quick-notes" {
		t.Fatalf("selected %+v", it)
	}
}

func TestShowCancelled(t *testing.T) {
	fakeLauncher(t, "dmenu", "while read line; do :; done; exit 1")
	b, err := NewBackend("dmenu")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, err := b.Show("", []Item{{Label: "Chat"}}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if _, err := b.Show("", nil); err == nil {
		t.Fatalf("expected error for empty list")
	}
}

func TestEntries(t *testing.T) {
	items := menu.Builtin()
	items[1].Visible = false
	windows := []window.Record{
		{ID: "w1", Visible: true, Config: window.WindowConfig{Name: "ChatWithMe"}},
		{ID: "w2", Visible: false, Config: window.WindowConfig{Name: "TodoTab"}},
		{ID: "w3", Visible: false, Config: window.WindowConfig{Name: "meeting-1"}},
	}
	got := Entries(items, windows)

	// header + 4 visible items + header + 1 restorable window
	if len(got) != 7 {
		t.Fatalf("entries = %d: %+v", len(got), got)
	}
	if !got[0].IsHeader || got[1].Value != "ball-quick-chat" || !got[1].IsActive {
		t.Fatalf("menu head = %+v %+v", got[0], got[1])
	}
	last := got[len(got)-1]
	if !got[5].IsHeader || last.Value != "ball-todo" || last.Label != "Restore TodoTab" {
		t.Fatalf("minimized section = %+v %+v", got[5], last)
	}
	if len(Entries(nil, nil)) != 0 {
		t.Fatalf("expected no entries")
	}
}
