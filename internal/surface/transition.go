package surface

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTransitionTimeout is returned by Awaiter.Wait when no transitionend
// arrived before the fallback deadline.
var ErrTransitionTimeout = errors.New("transition did not finish before timeout")

// Awaiter resolves on the first transitionend of el for one of its
// properties. It must be created before the style change it waits for.
type Awaiter struct {
	el     *Element
	props  []string
	done   chan struct{}
	once   sync.Once

	mu     sync.Mutex
	remove func()
}

// AwaitTransition listens for the next transitionend on el. With no props
// every property matches. The listener removes itself after firing.
func AwaitTransition(el *Element, props ...string) *Awaiter {
	a := &Awaiter{
		el:    el,
		props: props,
		done:  make(chan struct{}),
	}
	if el == nil {
		a.resolve()
		return a
	}
	remove := el.AddEventListener(EventTransitionEnd, func(ev *Event) {
		if ev.Target != el || !a.watches(ev.Property) {
			return
		}
		a.resolve()
	})
	a.mu.Lock()
	a.remove = remove
	a.mu.Unlock()
	select {
	case <-a.done:
		a.detach()
	default:
	}
	return a
}

func (a *Awaiter) watches(prop string) bool {
	if len(a.props) == 0 {
		return true
	}
	for _, p := range a.props {
		if p == prop {
			return true
		}
	}
	return false
}

func (a *Awaiter) resolve() {
	a.detach()
	a.once.Do(func() { close(a.done) })
}

func (a *Awaiter) detach() {
	a.mu.Lock()
	remove := a.remove
	a.remove = nil
	a.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Done is closed once the awaited transition ended.
func (a *Awaiter) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the transition ends. If nothing is transitioning for
// the watched properties it returns immediately. A positive timeout bounds
// the wait; on expiry ErrTransitionTimeout is returned and the listener is
// dropped.
func (a *Awaiter) Wait(ctx context.Context, timeout time.Duration) error {
	select {
	case <-a.done:
		return nil
	default:
	}
	if !a.el.Running(a.props...) {
		a.resolve()
		return nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		a.resolve()
		return ctx.Err()
	case <-expired:
		a.resolve()
		return ErrTransitionTimeout
	}
}

// WaitAll waits for every awaiter and returns the first error seen.
func WaitAll(ctx context.Context, timeout time.Duration, awaiters ...*Awaiter) error {
	errs := make([]error, len(awaiters))
	var wg sync.WaitGroup
	for i, a := range awaiters {
		if a == nil {
			continue
		}
		wg.Add(1)
		go func(i int, a *Awaiter) {
			defer wg.Done()
			errs[i] = a.Wait(ctx, timeout)
		}(i, a)
	}
	wg.Wait()
	return errors.Join(errs...)
}
