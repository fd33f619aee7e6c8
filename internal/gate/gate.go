package gate

import (
	"context"
	"time"

	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/metrics"
	"alcyxob/fitcoach/internal/service"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Route is one of the disjoint entry points of the app.
type Route string

const (
	RouteCoach     Route = "coach"
	RouteStudent   Route = "student"
	RouteSignedOut Route = "signed_out"
)

const (
	DefaultSessionBudget = 2500 * time.Millisecond
	DefaultRoleBudget    = 2 * time.Second
)

type SessionSource interface {
	GetSession(ctx context.Context, token string) (*service.Session, error)
}

type RoleSource interface {
	GetRole(ctx context.Context, userID primitive.ObjectID) (domain.Role, error)
}

// Budgets bound the two lookups of a resolution.
type Budgets struct {
	Session time.Duration
	Role    time.Duration
}

// Decision is the outcome of a resolution. Session is nil for RouteSignedOut.
type Decision struct {
	Route   Route            `json:"route"`
	Session *service.Session `json:"-"`
}

// Gate decides where a credential lands.
type Gate struct {
	sessions SessionSource
	roles    RoleSource
	budgets  Budgets
	metrics  *metrics.Manager
}

func New(sessions SessionSource, roles RoleSource, budgets Budgets, metricsManager *metrics.Manager) *Gate {
	if budgets.Session <= 0 {
		budgets.Session = DefaultSessionBudget
	}
	if budgets.Role <= 0 {
		budgets.Role = DefaultRoleBudget
	}
	return &Gate{
		sessions: sessions,
		roles:    roles,
		budgets:  budgets,
		metrics:  metricsManager,
	}
}

// Resolve never takes longer than the two budgets combined. A missing,
// failed or slow session lookup signs out; with a session, a failed or slow
// role lookup lands on the student tabs.
func (g *Gate) Resolve(ctx context.Context, token string) Decision {
	d := g.resolve(ctx, token)
	g.metrics.CounterGateRoutes.WithLabelValues(string(d.Route)).Inc()
	return d
}

func (g *Gate) resolve(ctx context.Context, token string) Decision {
	if token == "" {
		return Decision{Route: RouteSignedOut}
	}

	session, err := within(ctx, g.budgets.Session, func(ctx context.Context) (*service.Session, error) {
		return g.sessions.GetSession(ctx, token)
	})
	if err != nil || session == nil {
		log.Debugf("gate: no session: %v", err)
		return Decision{Route: RouteSignedOut}
	}

	role, err := within(ctx, g.budgets.Role, func(ctx context.Context) (domain.Role, error) {
		return g.roles.GetRole(ctx, session.UserID)
	})
	if err != nil {
		log.Warnf("gate: role lookup for %s failed, routing to student: %s", session.UserID.Hex(), err)
		return Decision{Route: RouteStudent, Session: session}
	}
	if role == domain.RoleCoach {
		return Decision{Route: RouteCoach, Session: session}
	}
	return Decision{Route: RouteStudent, Session: session}
}

// within runs fn and gives up after budget even if fn ignores its context.
func within[T any](ctx context.Context, budget time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
