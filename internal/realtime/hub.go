package realtime

import (
	"alcyxob/fitcoach/internal/metrics"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

const subscriberBuffer = 16

// Callback receives the events of one subscription, one at a time, on the
// subscription's own goroutine.
type Callback func(Event)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id     uint64
	table  string
	filter EventType
	ch     chan Event
	closed atomic.Bool
}

func (s *Subscription) Table() string     { return s.table }
func (s *Subscription) Filter() EventType { return s.filter }

// Hub fans change events out to table subscribers. It is the in-process
// realtime channel: repositories publish into it after mutations, or a
// ChangeStreamSource feeds it from the database.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	nextID  uint64
	wg      sync.WaitGroup
	metrics *metrics.Manager
}

func NewHub(metricsManager *metrics.Manager) *Hub {
	return &Hub{
		subs:    make(map[uint64]*Subscription),
		metrics: metricsManager,
	}
}

// Subscribe registers cb for events on table that match filter. An empty
// filter is treated as EventAll.
func (h *Hub) Subscribe(table string, filter EventType, cb Callback) *Subscription {
	if filter == "" {
		filter = EventAll
	}

	h.mu.Lock()
	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		table:  table,
		filter: filter,
		ch:     make(chan Event, subscriberBuffer),
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	h.metrics.GaugeSubscriptions.Inc()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for ev := range sub.ch {
			// events still buffered at unsubscribe time are discarded
			if sub.closed.Load() {
				continue
			}
			cb(ev)
		}
	}()

	log.Debugf("realtime: subscribed #%d to %s (%s)", sub.id, table, filter)
	return sub
}

// Unsubscribe stops delivery to sub. Calling it twice, or from inside the
// subscription's own callback, is safe.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	sub.closed.Store(true)
	close(sub.ch)

	h.metrics.GaugeSubscriptions.Dec()
	log.Debugf("realtime: unsubscribed #%d from %s", sub.id, sub.table)
}

// Publish delivers ev to every matching subscriber without blocking. A
// subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.metrics.CounterRealtimeEvents.WithLabelValues(ev.Table, string(ev.Type)).Inc()

	for _, sub := range h.subs {
		if sub.table != ev.Table || !sub.filter.matches(ev.Type) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.metrics.CounterRealtimeDropped.Inc()
			log.Warnf("realtime: subscriber #%d is slow, dropped %s %s", sub.id, ev.Table, ev.Type)
		}
	}
}

// Close removes every subscription and waits for their goroutines to exit.
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		h.Unsubscribe(sub)
	}
	h.wg.Wait()
}
