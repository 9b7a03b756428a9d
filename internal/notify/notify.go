// Package notify turns typed notification requests into NotificationWindow
// panels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/orbit/internal/window"
)

var ErrUnknownType = errors.New("unknown notification type")

// historyLimit bounds the notifications kept for status reporting.
const historyLimit = 50

// Kind registers one notification type and the window it opens.
type Kind struct {
	Type   string              `yaml:"type" json:"type"`
	Label  string              `yaml:"label" json:"label"`
	Window window.WindowConfig `yaml:"window" json:"window"`
}

// Params is a notification request. With Override set the window of an
// earlier notification of the same type is reused.
type Params struct {
	Type     string         `json:"type"`
	Override bool           `json:"override"`
	Data     map[string]any `json:"data,omitempty"`
}

// Notification is a delivered notification.
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	WindowID  string         `json:"window_id"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type Opener interface {
	CreateOrRestoreWindow(ctx context.Context, cfg window.WindowConfig, opts window.CreateOptions) (string, error)
}

// Center dispatches notifications through an Opener.
type Center struct {
	opener Opener
	newID  func() string
	now    func() time.Time

	mu      sync.Mutex
	kinds   map[string]Kind
	order   []string
	history []Notification
}

func NewCenter(o Opener) *Center {
	return &Center{
		opener: o,
		newID:  uuid.NewString,
		now:    time.Now,
		kinds:  make(map[string]Kind),
	}
}

func normalizeKind(k Kind) (Kind, error) {
	if k.Type == "" {
		return k, fmt.Errorf("notification type is required")
	}
	if k.Window.Type == "" {
		k.Window.Type = window.NotificationWindow
	}
	if err := k.Window.Validate(); err != nil {
		return k, fmt.Errorf("notification %s: %w", k.Type, err)
	}
	return k, nil
}

// Register adds or replaces a notification type.
func (c *Center) Register(k Kind) error {
	k, err := normalizeKind(k)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.kinds[k.Type]; !ok {
		c.order = append(c.order, k.Type)
	}
	c.kinds[k.Type] = k
	return nil
}

// Replace swaps the registered types for kinds. Nothing changes when any
// kind is invalid. A later duplicate type wins in its first position.
func (c *Center) Replace(kinds []Kind) error {
	next := make(map[string]Kind, len(kinds))
	var order []string
	for _, k := range kinds {
		k, err := normalizeKind(k)
		if err != nil {
			return err
		}
		if _, ok := next[k.Type]; !ok {
			order = append(order, k.Type)
		}
		next[k.Type] = k
	}
	c.mu.Lock()
	c.kinds = next
	c.order = order
	c.mu.Unlock()
	return nil
}

// Kinds returns the registered types in registration order.
func (c *Center) Kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Kind, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.kinds[t])
	}
	return out
}

// Notify opens the window registered for p.Type and returns the new
// notification's id.
func (c *Center) Notify(ctx context.Context, p Params) (string, error) {
	c.mu.Lock()
	k, ok := c.kinds[p.Type]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}

	id := c.newID()
	winID, err := c.opener.CreateOrRestoreWindow(ctx, k.Window, window.CreateOptions{
		Data:        p.Data,
		ForceCreate: !p.Override,
	})
	if err != nil {
		return "", fmt.Errorf("notify %s: %w", p.Type, err)
	}
	log.Printf("Notify: %s delivered as %s (window %s)", p.Type, id, winID)

	c.mu.Lock()
	c.history = append(c.history, Notification{
		ID:        id,
		Type:      p.Type,
		WindowID:  winID,
		Data:      p.Data,
		CreatedAt: c.now(),
	})
	if over := len(c.history) - historyLimit; over > 0 {
		c.history = append([]Notification(nil), c.history[over:]...)
	}
	c.mu.Unlock()
	return id, nil
}

// Recent returns delivered notifications, oldest first.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.history...)
}
