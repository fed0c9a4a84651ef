// Package events forwards task state changes to other processes.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"Tasklist/internal/logging"
	"Tasklist/internal/tasks"

	"github.com/redis/go-redis/v9"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 256
)

// RedisPublisher PUBLISHes every manager event as JSON on one channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	log     *logging.Logger
}

// NewRedisPublisher returns a new RedisPublisher.
func NewRedisPublisher(rdb *redis.Client, channel string, log *logging.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel, log: log.WithComponent("events")}
}

// Publish sends one event.
func (p *RedisPublisher) Publish(ctx context.Context, ev tasks.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Attach subscribes the publisher to m. One goroutine publishes events in
// the order the manager sequenced them; failures are logged and dropped, as
// are events arriving while the queue is full. cancel unsubscribes and stops
// the goroutine after it drains what was already queued.
func (p *RedisPublisher) Attach(m *tasks.Manager) (cancel func()) {
	queue := make(chan tasks.Event, queueSize)
	stop := make(chan struct{})
	done := make(chan struct{})

	unsubscribe := m.Subscribe(func(ev tasks.Event) {
		select {
		case queue <- ev:
		default:
			p.log.Warn("publish_dropped", logging.Fields{"type": ev.Type, "seq": ev.Seq, "reason": "queue full"})
		}
	})

	go func() {
		defer close(done)
		for {
			select {
			case ev := <-queue:
				p.publishLogged(ev)
			case <-stop:
				for {
					select {
					case ev := <-queue:
						p.publishLogged(ev)
					default:
						return
					}
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(stop)
			<-done
		})
	}
}

func (p *RedisPublisher) publishLogged(ev tasks.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		p.log.Warn("publish_failed", logging.Fields{"type": ev.Type, "seq": ev.Seq, "error": err})
	}
}
