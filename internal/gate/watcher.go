package gate

import (
	"context"
	"sync"

	"alcyxob/fitcoach/internal/service"

	log "github.com/sirupsen/logrus"
)

// Navigator performs a route change and calls done once it has completed.
type Navigator interface {
	Navigate(route Route, done func())
}

// Watcher re-runs the gate on every auth event and navigates, holding the
// current auth state of one client. A navigation latch is set before
// navigating and cleared only by the navigator's completion; triggers that
// arrive while it is set are dropped.
type Watcher struct {
	gate *Gate
	nav  Navigator

	mu         sync.Mutex
	navigating bool
	current    Decision
}

func NewWatcher(gate *Gate, nav Navigator) *Watcher {
	return &Watcher{
		gate:    gate,
		nav:     nav,
		current: Decision{Route: RouteSignedOut},
	}
}

// Trigger resolves token and navigates. It reports false, doing nothing, when
// a navigation is still in flight.
func (w *Watcher) Trigger(ctx context.Context, token string) bool {
	w.mu.Lock()
	if w.navigating {
		w.mu.Unlock()
		log.Debug("gate: navigation in flight, trigger ignored")
		return false
	}
	w.navigating = true
	w.mu.Unlock()

	decision := w.gate.Resolve(ctx, token)

	w.mu.Lock()
	w.current = decision
	w.mu.Unlock()

	w.nav.Navigate(decision.Route, w.release)
	return true
}

func (w *Watcher) release() {
	w.mu.Lock()
	w.navigating = false
	w.mu.Unlock()
}

// Navigating reports whether the latch is set.
func (w *Watcher) Navigating() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.navigating
}

// Current is the last decision; RouteSignedOut before the first one.
func (w *Watcher) Current() Decision {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run triggers on every event until ctx is done or events is closed.
func (w *Watcher) Run(ctx context.Context, events <-chan service.AuthEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			token := ""
			switch {
			case ev.Session != nil:
				token = ev.Session.AccessToken
			case ev.Type != service.AuthSignedOut:
				// USER_UPDATED carries no session; keep the one we hold
				if cur := w.Current().Session; cur != nil {
					token = cur.AccessToken
				}
			}
			log.Debugf("gate: %s for %s", ev.Type, ev.UserID.Hex())
			w.Trigger(ctx, token)
		}
	}
}
