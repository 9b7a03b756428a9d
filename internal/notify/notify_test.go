package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/1broseidon/orbit/internal/window"
)

type fakeOpener struct {
	calls []window.CreateOptions
	cfgs  []window.WindowConfig
	err   error
}

func (o *fakeOpener) CreateOrRestoreWindow(_ context.Context, cfg window.WindowConfig, opts window.CreateOptions) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	o.calls = append(o.calls, opts)
	o.cfgs = append(o.cfgs, cfg)
	return fmt.Sprintf("w%d", len(o.calls)), nil
}

func newCenter(t *testing.T, o Opener) *Center {
	t.Helper()
	c := NewCenter(o)
	n := 0
	c.newID = func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
	for _, k := range Builtin() {
		if err := c.Register(k); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return c
}

func TestNotifyForceCreateUnlessOverride(t *testing.T) {
	o := &fakeOpener{}
	c := newCenter(t, o)
	ctx := context.Background()

	id, err := c.Notify(ctx, Params{Type: "meeting", Data: map[string]any{"title": "standup"}})
	if err != nil || id != "n1" {
		t.Fatalf("Notify = %q, %v", id, err)
	}
	if _, err := c.Notify(ctx, Params{Type: "meeting", Override: true}); err != nil {
		t.Fatalf("Notify override: %v", err)
	}
	if !o.calls[0].ForceCreate || o.calls[1].ForceCreate {
		t.Fatalf("ForceCreate = %v, %v", o.calls[0].ForceCreate, o.calls[1].ForceCreate)
	}
	if o.calls[0].Data["title"] != "standup" {
		t.Fatalf("data not forwarded")
	}
	if o.cfgs[0].Type != window.NotificationWindow || o.cfgs[0].Name != "MeetingDialog" {
		t.Fatalf("window config = %+v", o.cfgs[0])
	}

	recent := c.Recent()
	if len(recent) != 2 || recent[0].WindowID != "w1" || recent[1].ID != "n2" {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestNotifyUnknownType(t *testing.T) {
	o := &fakeOpener{}
	c := newCenter(t, o)
	if _, err := c.Notify(context.Background(), Params{Type: "nope"}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v", err)
	}
	if len(o.calls) != 0 {
		t.Fatalf("opener should not be called")
	}
}

func TestNotifyOpenerError(t *testing.T) {
	boom := errors.New("boom")
	c := newCenter(t, &fakeOpener{err: boom})
	if _, err := c.Notify(context.Background(), Params{Type: "meeting"}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(c.Recent()) != 0 {
		t.Fatalf("failed notification recorded")
	}
}

func TestRegisterDefaultsTypeAndValidates(t *testing.T) {
	c := NewCenter(&fakeOpener{})
	if err := c.Register(Kind{Type: "ping", Window: window.WindowConfig{Name: "Ping"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if c.Kinds()[0].Window.Type != window.NotificationWindow {
		t.Fatalf("window type not defaulted")
	}
	if err := c.Register(Kind{Type: "bad"}); !errors.Is(err, window.ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
	if err := c.Register(Kind{}); err == nil {
		t.Fatalf("expected error for empty type")
	}
}

func TestHistoryBounded(t *testing.T) {
	c := newCenter(t, &fakeOpener{})
	for i := 0; i < historyLimit+5; i++ {
		if _, err := c.Notify(context.Background(), Params{Type: "todo_reminder"}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	recent := c.Recent()
	if len(recent) != historyLimit {
		t.Fatalf("history = %d", len(recent))
	}
	if recent[0].ID != "n6" {
		t.Fatalf("oldest kept = %s", recent[0].ID)
	}
}
