package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alcyxob/fitcoach/internal/api"
	"alcyxob/fitcoach/internal/gate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// openStream starts a real server, since streaming needs a connection the
// recorder cannot provide, and returns a reader over the event stream.
func (f *fixture) openStream(t *testing.T, path, token string) *bufio.Scanner {
	t.Helper()
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	return bufio.NewScanner(resp.Body)
}

func nextEvent(t *testing.T, sc *bufio.Scanner) sseEvent {
	t.Helper()
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			return ev
		}
	}
	t.Fatalf("stream ended before the next event: %v", sc.Err())
	return ev
}

func TestStudentHandler_StreamPlans(t *testing.T) {
	f := newFixture(t)
	f.seedPlan(t, "Treino A", f.student)

	sc := f.openStream(t, "/api/v1/student/plans/stream", f.studTok)

	ev := nextEvent(t, sc)
	require.Equal(t, "plans", ev.name)
	var first api.PlansResponse
	require.NoError(t, json.Unmarshal([]byte(ev.data), &first))
	require.Len(t, first.Plans, 1)
	assert.Equal(t, "Treino A", first.Plans[0].Title)

	f.seedPlan(t, "Treino B", f.student)

	ev = nextEvent(t, sc)
	require.Equal(t, "plans", ev.name)
	var second api.PlansResponse
	require.NoError(t, json.Unmarshal([]byte(ev.data), &second))
	require.Len(t, second.Plans, 2)
	assert.Equal(t, "Treino B", second.Plans[1].Title)
}

func TestSessionHandler_EventsFollowSignOut(t *testing.T) {
	f := newFixture(t)

	sc := f.openStream(t, "/api/v1/session/events", f.studTok)

	ev := nextEvent(t, sc)
	require.Equal(t, "navigate", ev.name)
	assert.JSONEq(t, `{"route":"student"}`, ev.data)

	// let the first navigation complete before the next trigger
	time.Sleep(100 * time.Millisecond)
	rr := f.do(t, http.MethodPost, "/api/v1/auth/signout", f.studTok, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	ev = nextEvent(t, sc)
	require.Equal(t, "navigate", ev.name)
	assert.JSONEq(t, `{"route":"`+string(gate.RouteSignedOut)+`"}`, ev.data)
}

func TestSessionHandler_Route(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		token string
		want  gate.Route
	}{
		{name: "no token", want: gate.RouteSignedOut},
		{name: "garbage token", token: "nope", want: gate.RouteSignedOut},
		{name: "student", token: f.studTok, want: gate.RouteStudent},
		{name: "coach", token: f.coachTok, want: gate.RouteCoach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodGet, "/api/v1/session/route", tt.token, nil)
			require.Equal(t, http.StatusOK, rr.Code)
			resp := decode[api.RouteResponse](t, rr)
			assert.Equal(t, tt.want, resp.Route)
			if tt.want == gate.RouteSignedOut {
				assert.Nil(t, resp.UserID)
			} else {
				assert.NotNil(t, resp.UserID)
			}
		})
	}
}
