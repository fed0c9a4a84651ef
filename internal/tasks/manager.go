// Package tasks owns the canonical task list. Manager applies mutations,
// derives filtered views, keeps the store in sync with memory and holds a
// single pending-undo slot for deletions.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"Tasklist/internal/domain"
	"Tasklist/internal/logging"
	"Tasklist/internal/store"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultUndoWindow  = 5 * time.Second
	DefaultSaveTimeout = 3 * time.Second
)

// Options configure a Manager. Zero values pick the defaults.
type Options struct {
	UndoWindow  time.Duration
	SaveTimeout time.Duration
	Logger      *logging.Logger
	Clock       Clock
}

// Stats summarizes the live collection.
type Stats struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	ByPriority map[string]int `json:"by_priority"`
	ByCategory map[string]int `json:"by_category"`
}

type pendingDelete struct {
	task     domain.Task
	deadline time.Time
	timer    Timer
	token    uint64
}

// Manager is safe for concurrent use. One mutex covers the collection, the
// filter and the pending slot, so every read observes whole mutations.
type Manager struct {
	store      store.Store
	log        *logging.Logger
	clock      Clock
	undoWindow time.Duration
	writer     *writer
	sf         singleflight.Group

	mu         sync.Mutex
	tasks      []domain.Task
	filter     domain.Filter
	lastID     int64
	pending    *pendingDelete
	pendingSeq uint64
	closed     bool

	// Events are sequenced under mu and delivered by one dispatcher at a time.
	eventSeq    uint64
	outbox      []Event
	dispatching bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates a Manager with an empty collection and starts its persistence
// writer. Call Initialize to load the stored snapshot and Close to flush.
func New(s store.Store, opts Options) *Manager {
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = DefaultUndoWindow
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.New()
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	log := opts.Logger.WithComponent("tasks")
	return &Manager{
		store:      s,
		log:        log,
		clock:      opts.Clock,
		undoWindow: opts.UndoWindow,
		writer:     newWriter(s, log, opts.SaveTimeout),
		tasks:      []domain.Task{},
		subs:       make(map[int]func(Event)),
	}
}

// Initialize replaces the collection with the stored snapshot. A missing,
// unreadable or corrupt snapshot yields an empty collection; the failure is
// logged, not returned. Nothing is written back. Concurrent calls share one load.
func (m *Manager) Initialize(ctx context.Context) error {
	_, err, _ := m.sf.Do("initialize", func() (interface{}, error) {
		return nil, m.load(ctx)
	})
	return err
}

func (m *Manager) load(ctx context.Context) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return errors.New("tasks: manager closed")
	}

	list := []domain.Task{}
	data, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		m.log.Info("snapshot_missing", logging.Fields{"action": "start empty"})
	case err != nil:
		m.log.Warn("snapshot_load_failed", logging.Fields{"error": fmt.Errorf("%w: %w", ErrPersistence, err), "action": "start empty"})
	default:
		decoded, derr := DecodeSnapshot(data)
		if derr != nil {
			m.log.Warn("snapshot_decode_failed", logging.Fields{"error": derr, "bytes": len(data), "action": "start empty"})
		} else {
			list = decoded
		}
	}

	m.mu.Lock()
	m.tasks = list
	for _, t := range list {
		if t.ID > m.lastID {
			m.lastID = t.ID
		}
	}
	if dropped := m.clearPendingLocked(); dropped != nil {
		m.queueLocked(Event{Type: EventExpired, Task: dropped})
	}
	m.queueLocked(Event{Type: EventLoaded})
	live := len(m.tasks)
	m.mu.Unlock()
	m.dispatch()

	m.log.Info("tasks_loaded", logging.Fields{"count": live})
	return nil
}

// AddTask appends a new unchecked task. A blank label is rejected with
// ErrValidation. Empty category defaults to General.
func (m *Manager) AddTask(label, category string, priority domain.Priority) (domain.Task, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.Task{}, fmt.Errorf("%w: label must not be empty", ErrValidation)
	}
	if !priority.Valid() {
		return domain.Task{}, fmt.Errorf("%w: %v", ErrValidation, priority)
	}

	m.mu.Lock()
	t := domain.Task{
		ID:       m.nextIDLocked(),
		Label:    label,
		Category: normalizeCategory(category),
		Priority: priority,
	}
	m.tasks = append(m.tasks, t)
	m.persistLocked()
	m.queueLocked(Event{Type: EventCreated, Task: taskRef(t)})
	m.mu.Unlock()
	m.dispatch()

	m.log.Debug("task_added", logging.Fields{"id": t.ID, "category": t.Category, "priority": t.Priority})
	return t, nil
}

// ToggleTask flips checked. ok is false when id is not live.
func (m *Manager) ToggleTask(id int64) (t domain.Task, ok bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return domain.Task{}, false
	}
	m.tasks[i].Checked = !m.tasks[i].Checked
	t = m.tasks[i]
	m.persistLocked()
	m.queueLocked(Event{Type: EventUpdated, Task: taskRef(t)})
	m.mu.Unlock()
	m.dispatch()

	return t, true
}

// EditTask replaces the non-nil fields of patch. A patch that would blank the
// label fails with ErrValidation and changes nothing. ok is false when id is
// not live.
func (m *Manager) EditTask(id int64, patch domain.TaskPatch) (t domain.Task, ok bool, err error) {
	var label, category string
	if patch.Label != nil {
		label = strings.TrimSpace(*patch.Label)
		if label == "" {
			return domain.Task{}, false, fmt.Errorf("%w: label must not be empty", ErrValidation)
		}
	}
	if patch.Category != nil {
		category = normalizeCategory(*patch.Category)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return domain.Task{}, false, fmt.Errorf("%w: %v", ErrValidation, *patch.Priority)
	}

	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return domain.Task{}, false, nil
	}
	if patch.Label != nil {
		m.tasks[i].Label = label
	}
	if patch.Category != nil {
		m.tasks[i].Category = category
	}
	if patch.Priority != nil {
		m.tasks[i].Priority = *patch.Priority
	}
	t = m.tasks[i]
	m.persistLocked()
	m.queueLocked(Event{Type: EventUpdated, Task: taskRef(t)})
	m.mu.Unlock()
	m.dispatch()

	return t, true, nil
}

// DeleteTask moves the task into the pending-undo slot and starts the undo
// window. A task already pending is replaced and destroyed at once. The
// persisted snapshot only holds live tasks. ok is false when id is not live.
func (m *Manager) DeleteTask(id int64) (t domain.Task, deadline time.Time, ok bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return domain.Task{}, time.Time{}, false
	}
	t = m.tasks[i]
	m.tasks = slices.Delete(m.tasks, i, i+1)

	replaced := m.clearPendingLocked()
	m.pendingSeq++
	token := m.pendingSeq
	deadline = m.clock.Now().Add(m.undoWindow)
	m.pending = &pendingDelete{
		task:     t,
		deadline: deadline,
		token:    token,
		timer:    m.clock.AfterFunc(m.undoWindow, func() { m.expirePendingDelete(token) }),
	}
	m.persistLocked()
	if replaced != nil {
		m.queueLocked(Event{Type: EventExpired, Task: replaced})
	}
	m.queueLocked(Event{Type: EventDeleted, Task: taskRef(t), UndoDeadline: &deadline})
	m.mu.Unlock()
	m.dispatch()

	if replaced != nil {
		m.log.Info("pending_delete_replaced", logging.Fields{"id": replaced.ID, "by": t.ID})
	}
	return t, deadline, true
}

// UndoDelete appends the pending task back to the live collection. ok is
// false when nothing is pending or the undo window has already closed.
func (m *Manager) UndoDelete() (t domain.Task, ok bool) {
	m.mu.Lock()
	if m.pending == nil {
		m.mu.Unlock()
		return domain.Task{}, false
	}
	p := m.pending
	p.timer.Stop()
	m.pending = nil
	if !m.clock.Now().Before(p.deadline) {
		// The expiry timer has not run yet; the window is closed regardless.
		m.queueLocked(Event{Type: EventExpired, Task: taskRef(p.task)})
		m.mu.Unlock()
		m.dispatch()
		m.log.Debug("undo_after_deadline", logging.Fields{"id": p.task.ID})
		return domain.Task{}, false
	}
	m.tasks = append(m.tasks, p.task)
	m.persistLocked()
	m.queueLocked(Event{Type: EventRestored, Task: taskRef(p.task)})
	m.mu.Unlock()
	m.dispatch()

	return p.task, true
}

// expirePendingDelete runs when the undo window elapses. The token guards
// against a timer that fired while a newer deletion took the slot.
func (m *Manager) expirePendingDelete(token uint64) {
	m.mu.Lock()
	if m.pending == nil || m.pending.token != token {
		m.mu.Unlock()
		return
	}
	t := m.pending.task
	m.pending = nil
	m.queueLocked(Event{Type: EventExpired, Task: taskRef(t)})
	m.mu.Unlock()
	m.dispatch()

	m.log.Debug("pending_delete_expired", logging.Fields{"id": t.ID})
}

// SetFilters replaces the filter criteria.
func (m *Manager) SetFilters(f domain.Filter) {
	f = copyFilter(f)
	m.mu.Lock()
	m.filter = f
	m.queueLocked(Event{Type: EventFilters})
	m.mu.Unlock()
	m.dispatch()
}

// ResetFilters shows every task again.
func (m *Manager) ResetFilters() {
	m.SetFilters(domain.Filter{})
}

func (m *Manager) Filters() domain.Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyFilter(m.filter)
}

// VisibleTasks returns the live tasks matching the current filters, in collection order.
func (m *Manager) VisibleTasks() []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if m.filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Tasks returns the whole live collection.
func (m *Manager) Tasks() []domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tasks)
}

func (m *Manager) Task(id int64) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return m.tasks[i], true
}

// Pending returns the task awaiting undo and when its window closes.
func (m *Manager) Pending() (domain.Task, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return domain.Task{}, time.Time{}, false
	}
	return m.pending.task, m.pending.deadline, true
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Total:      len(m.tasks),
		ByPriority: make(map[string]int, len(domain.Priorities())),
		ByCategory: make(map[string]int),
	}
	for _, p := range domain.Priorities() {
		s.ByPriority[p.String()] = 0
	}
	for _, t := range m.tasks {
		if t.Checked {
			s.Completed++
		}
		s.ByPriority[t.Priority.String()]++
		s.ByCategory[t.Category]++
	}
	return s
}

// Flush writes the latest snapshot now if it has not been saved yet.
func (m *Manager) Flush(ctx context.Context) error {
	return m.writer.flush(ctx)
}

// Dirty reports whether the latest mutation is not yet in the store.
func (m *Manager) Dirty() bool {
	return m.writer.dirty()
}

// Close discards any pending deletion, flushes the live collection and stops
// the writer. Further mutations stay in memory only.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if dropped := m.clearPendingLocked(); dropped != nil {
		m.queueLocked(Event{Type: EventExpired, Task: dropped})
	}
	live := len(m.tasks)
	m.mu.Unlock()
	m.dispatch()

	if err := m.writer.close(ctx); err != nil {
		m.log.Error("final_flush_failed", logging.Fields{"error": err})
		return err
	}
	m.log.Info("tasks_closed", logging.Fields{"count": live})
	return nil
}

// clearPendingLocked cancels the timer and empties the slot, returning the dropped task.
func (m *Manager) clearPendingLocked() *domain.Task {
	if m.pending == nil {
		return nil
	}
	m.pending.timer.Stop()
	t := m.pending.task
	m.pending = nil
	return &t
}

func (m *Manager) indexLocked(id int64) int {
	return slices.IndexFunc(m.tasks, func(t domain.Task) bool { return t.ID == id })
}

// nextIDLocked derives the id from creation time in milliseconds, bumped past
// the highest id seen so far.
func (m *Manager) nextIDLocked() int64 {
	id := m.clock.Now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

func (m *Manager) persistLocked() {
	data, err := EncodeSnapshot(m.tasks)
	if err != nil {
		m.log.Error("snapshot_encode_failed", logging.Fields{"error": err})
		return
	}
	m.writer.submit(data)
}

func copyFilter(f domain.Filter) domain.Filter {
	if f.Priority != nil {
		p := *f.Priority
		f.Priority = &p
	}
	f.Category = strings.TrimSpace(f.Category)
	return f
}
