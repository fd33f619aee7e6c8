package api

import (
	"alcyxob/fitcoach/internal/gate"
	"alcyxob/fitcoach/internal/service"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type authEventSource interface {
	SubscribeAuthEvents(userID primitive.ObjectID) (<-chan service.AuthEvent, func())
}

// SessionHandler exposes the role gate: a one-shot resolution and a stream of
// navigations driven by auth events.
type SessionHandler struct {
	gate   *gate.Gate
	events authEventSource
}

func NewSessionHandler(g *gate.Gate, events authEventSource) *SessionHandler {
	return &SessionHandler{gate: g, events: events}
}

type RouteResponse struct {
	Route  gate.Route          `json:"route"`
	UserID *primitive.ObjectID `json:"userId,omitempty"`
}

func routeResponse(d gate.Decision) RouteResponse {
	resp := RouteResponse{Route: d.Route}
	if d.Session != nil {
		id := d.Session.UserID
		resp.UserID = &id
	}
	return resp
}

// Route resolves where the caller's credential lands. A missing or invalid
// token is not an error; it lands on signed_out.
func (h *SessionHandler) Route(c *gin.Context) {
	token, _ := bearerToken(c)
	c.JSON(http.StatusOK, routeResponse(h.gate.Resolve(c.Request.Context(), token)))
}

type navigation struct {
	route gate.Route
	done  func()
}

// streamNavigator hands navigations to the SSE writer. A navigation counts as
// complete once its event has been flushed.
type streamNavigator struct {
	ctx context.Context
	out chan navigation
}

func (n *streamNavigator) Navigate(route gate.Route, done func()) {
	select {
	case n.out <- navigation{route: route, done: done}:
	case <-n.ctx.Done():
		done()
	}
}

// Events streams a "navigate" event for the current route, then one for every
// auth event of the caller that the gate lets through.
func (h *SessionHandler) Events(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	token := c.GetString(ContextTokenKey)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, unsubscribe := h.events.SubscribeAuthEvents(userID)
	defer unsubscribe()

	nav := &streamNavigator{ctx: ctx, out: make(chan navigation)}
	watcher := gate.NewWatcher(h.gate, nav)
	go watcher.Run(ctx, events)
	go watcher.Trigger(ctx, token)

	log.Debugf("session events: stream opened for %s", userID.Hex())
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n := <-nav.out:
			c.SSEvent("navigate", gin.H{"route": n.route})
			c.Writer.Flush()
			n.done()
			return true
		}
	})
	log.Debugf("session events: stream closed for %s", userID.Hex())
}
