package tasks

import (
	"time"

	"Tasklist/internal/domain"
)

type EventType string

const (
	EventLoaded   EventType = "loaded"
	EventCreated  EventType = "created"
	EventUpdated  EventType = "updated"
	EventDeleted  EventType = "deleted"
	EventRestored EventType = "restored"
	EventExpired  EventType = "expired"
	EventFilters  EventType = "filters"
)

// Event describes a state change. It is delivered after the change is visible to readers.
type Event struct {
	// Seq increases by one per event; subscribers receive events in Seq order.
	Seq  uint64       `json:"seq"`
	Type EventType    `json:"type"`
	Task *domain.Task `json:"task,omitempty"`
	// UndoDeadline is set on deleted events.
	UndoDeadline *time.Time `json:"undo_deadline,omitempty"`
	// Live is the live collection size right after the change.
	Live int       `json:"live"`
	At   time.Time `json:"at"`
}

// Subscribe registers fn for every subsequent event and returns a cancel func.
// fn must not block. Events caused by mutations made inside fn are delivered
// after fn returns.
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// queueLocked stamps ev with the next sequence number and the current live
// count. m.mu must be held.
func (m *Manager) queueLocked(ev Event) {
	m.eventSeq++
	ev.Seq = m.eventSeq
	ev.Live = len(m.tasks)
	ev.At = m.clock.Now().UTC()
	m.outbox = append(m.outbox, ev)
}

// dispatch delivers queued events. Only one goroutine delivers at a time;
// others leave their events to it and return.
func (m *Manager) dispatch() {
	m.mu.Lock()
	if m.dispatching {
		m.mu.Unlock()
		return
	}
	m.dispatching = true
	for len(m.outbox) > 0 {
		batch := m.outbox
		m.outbox = nil
		m.mu.Unlock()
		m.deliver(batch)
		m.mu.Lock()
	}
	m.dispatching = false
	m.mu.Unlock()
}

func (m *Manager) deliver(batch []Event) {
	m.subMu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, ev := range batch {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

func taskRef(t domain.Task) *domain.Task { return &t }
