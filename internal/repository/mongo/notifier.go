package mongo

import "alcyxob/fitcoach/internal/realtime"

// Notifier receives a change event after every successful mutation. It is the
// in-process realtime source; with change streams enabled the repositories get
// a no-op notifier and the events come from the database instead.
type Notifier interface {
	Publish(ev realtime.Event)
}

type noopNotifier struct{}

func (noopNotifier) Publish(realtime.Event) {}

func orNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
