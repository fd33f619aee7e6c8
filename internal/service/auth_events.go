package service

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthEventType string

const (
	AuthSignedIn       AuthEventType = "SIGNED_IN"
	AuthSignedOut      AuthEventType = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	AuthUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is a credential state change of one user. Session is nil for
// SIGNED_OUT.
type AuthEvent struct {
	Type    AuthEventType
	UserID  primitive.ObjectID
	Session *Session
}

const authEventBuffer = 8

// authBroker fans auth events out to the listeners of each user.
type authBroker struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[primitive.ObjectID]map[uint64]chan AuthEvent
}

func newAuthBroker() *authBroker {
	return &authBroker{subs: make(map[primitive.ObjectID]map[uint64]chan AuthEvent)}
}

func (b *authBroker) subscribe(userID primitive.ObjectID) (<-chan AuthEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan AuthEvent, authEventBuffer)
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]chan AuthEvent)
	}
	b.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
}

// publish never blocks; a listener with a full buffer misses the event.
func (b *authBroker) publish(ev AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
