package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Tasklist/internal/logging"
	"Tasklist/internal/store"
)

// writer persists snapshots in the background. Only the latest submitted
// snapshot is written; saves are serialized so an older snapshot never
// overwrites a newer one. A failed save leaves the snapshot dirty until the
// next submit or flush.
type writer struct {
	store   store.Store
	log     *logging.Logger
	timeout time.Duration

	mu      sync.Mutex
	latest  []byte
	version uint64
	saved   uint64
	closed  bool

	saveMu sync.Mutex
	kick   chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func newWriter(s store.Store, log *logging.Logger, timeout time.Duration) *writer {
	w := &writer{
		store:   s,
		log:     log,
		timeout: timeout,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) submit(data []byte) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("snapshot_dropped", logging.Fields{"reason": "writer closed"})
		return
	}
	w.latest = data
	w.version++
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.kick:
			ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
			if err := w.flush(ctx); err != nil {
				w.log.Warn("snapshot_save_failed", logging.Fields{"error": err})
			}
			cancel()
		}
	}
}

// flush writes the latest snapshot if it has not been saved yet.
func (w *writer) flush(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	data, version := w.latest, w.version
	dirty := version > w.saved
	w.mu.Unlock()
	if !dirty {
		return nil
	}

	start := time.Now()
	if err := w.store.Save(ctx, data); err != nil {
		return fmt.Errorf("%w: save snapshot: %w", ErrPersistence, err)
	}

	w.mu.Lock()
	if version > w.saved {
		w.saved = version
	}
	w.mu.Unlock()
	w.log.Debug("snapshot_saved", logging.Fields{
		"bytes":    len(data),
		"version":  version,
		"duration": time.Since(start).String(),
	})
	return nil
}

func (w *writer) dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version > w.saved
}

// close stops the background loop and makes a final flush.
func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return w.flush(ctx)
}
