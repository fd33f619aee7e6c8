package realtime

import "time"

// EventType is the kind of row change carried by an Event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	// EventAll is only meaningful as a subscription filter.
	EventAll EventType = "*"
)

// ParseEventType accepts the filter forms used by clients; empty means all.
func ParseEventType(s string) (EventType, bool) {
	switch EventType(s) {
	case "", EventAll:
		return EventAll, true
	case EventInsert, EventUpdate, EventDelete:
		return EventType(s), true
	}
	return "", false
}

// Event is one row change on a table.
type Event struct {
	Table    string    `json:"table"`
	Type     EventType `json:"type"`
	RecordID string    `json:"recordId"`
	At       time.Time `json:"at"`
}

func NewEvent(table string, typ EventType, recordID string) Event {
	return Event{
		Table:    table,
		Type:     typ,
		RecordID: recordID,
		At:       time.Now().UTC(),
	}
}

func (f EventType) matches(t EventType) bool {
	return f == EventAll || f == t
}
