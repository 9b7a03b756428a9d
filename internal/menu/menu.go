// Package menu holds the ordered entries shown when the ball expands. Each
// entry opens one window.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/1broseidon/orbit/internal/window"
)

var (
	ErrItemNotFound  = errors.New("menu item not found")
	ErrDuplicateItem = errors.New("duplicate menu item")
)

// Item is one menu entry.
type Item struct {
	ID      string              `yaml:"id" json:"id"`
	Label   string              `yaml:"label" json:"label"`
	Type    string              `yaml:"type,omitempty" json:"type,omitempty"`
	Icon    string              `yaml:"icon,omitempty" json:"icon,omitempty"`
	Visible bool                `yaml:"visible" json:"visible"`
	Window  window.WindowConfig `yaml:"window" json:"window"`
}

func (it Item) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("menu item id is required")
	}
	if err := it.Window.Validate(); err != nil {
		return fmt.Errorf("menu item %s: %w", it.ID, err)
	}
	return nil
}

// Opener creates or restores the window behind an item.
type Opener interface {
	CreateOrRestoreWindow(ctx context.Context, cfg window.WindowConfig, opts window.CreateOptions) (string, error)
}

// Registry keeps items in insertion order.
type Registry struct {
	mu    sync.RWMutex
	items []Item
}

func NewRegistry(items ...Item) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(items); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateItems checks every item and rejects duplicate ids.
func ValidateItems(items []Item) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// Replace swaps the whole item list, e.g. after a config reload.
func (r *Registry) Replace(items []Item) error {
	if err := ValidateItems(items); err != nil {
		return err
	}
	r.mu.Lock()
	r.items = append([]Item(nil), items...)
	r.mu.Unlock()
	return nil
}

// Add appends an item.
func (r *Registry) Add(it Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.items {
		if cur.ID == it.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, it.ID)
		}
	}
	r.items = append(r.items, it)
	return nil
}

func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.items {
		if cur.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

func (r *Registry) SetVisible(id string, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Visible = visible
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// All returns every item, hidden ones included.
func (r *Registry) All() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Item(nil), r.items...)
}

// Items returns the items to render.
func (r *Registry) Items() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		if it.Visible {
			out = append(out, it)
		}
	}
	return out
}

func (r *Registry) ByID(id string) (Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ByType returns the first item of the given type.
func (r *Registry) ByType(typ string) (Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.Type == typ {
			return it, true
		}
	}
	return Item{}, false
}

// Lookup resolves key as an item id, then as an item type, then as a
// window name.
func (r *Registry) Lookup(key string) (Item, bool) {
	if it, ok := r.ByID(key); ok {
		return it, true
	}
	if it, ok := r.ByType(key); ok {
		return it, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.Window.Name == key {
			return it, true
		}
	}
	return Item{}, false
}

// Activate opens the window of the item resolved by key and returns its
// window id.
func (r *Registry) Activate(ctx context.Context, o Opener, key string, data map[string]any) (string, error) {
	it, ok := r.Lookup(key)
	if !ok {
		if s := r.Suggest(key); s != "" {
			return "", fmt.Errorf("%w: %s (did you mean %q?)", ErrItemNotFound, key, s)
		}
		return "", fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	return o.CreateOrRestoreWindow(ctx, it.Window, window.CreateOptions{Data: data})
}

// Suggest returns the item id, type or window name closest to key, or "" when
// nothing is within a third of key's length.
func (r *Registry) Suggest(key string) string {
	key = strings.ToLower(key)
	if key == "" {
		return ""
	}
	limit := len(key)/3 + 1
	best, bestDist := "", limit+1
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		for _, cand := range []string{it.ID, it.Type, it.Window.Name} {
			if cand == "" {
				continue
			}
			if d := levenshtein.ComputeDistance(key, strings.ToLower(cand)); d < bestDist {
				best, bestDist = cand, d
			}
		}
	}
	return best
}
