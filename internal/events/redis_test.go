package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"Tasklist/internal/domain"
	"Tasklist/internal/logging"
	"Tasklist/internal/store"
	"Tasklist/internal/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisPublisherAttach(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "tasks:events")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	m := tasks.New(store.NewMemoryStore(), tasks.Options{Logger: logging.Discard()})
	defer m.Close(ctx)

	pub := NewRedisPublisher(rdb, "tasks:events", logging.Discard())
	cancel := pub.Attach(m)
	defer cancel()

	created, err := m.AddTask("Feed the cat", "General", domain.PriorityLow)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-sub.Channel():
		var ev tasks.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Type != tasks.EventCreated || ev.Task == nil || ev.Task.ID != created.ID || ev.Live != 1 {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for published event")
	}
}

func TestRedisPublisherKeepsOrder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "tasks:events")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	m := tasks.New(store.NewMemoryStore(), tasks.Options{Logger: logging.Discard()})
	defer m.Close(ctx)
	cancel := NewRedisPublisher(rdb, "tasks:events", logging.Discard()).Attach(m)
	defer cancel()

	const n = 20
	for i := 0; i < n; i++ {
		if _, err := m.AddTask("task", "", domain.PriorityLow); err != nil {
			t.Fatal(err)
		}
	}

	var last uint64
	msgs := sub.Channel()
	for i := 0; i < n; i++ {
		select {
		case msg := <-msgs:
			var ev tasks.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ev.Seq <= last {
				t.Fatalf("message %d seq %d after %d", i, ev.Seq, last)
			}
			if ev.Live != i+1 {
				t.Errorf("message %d live = %d, want %d", i, ev.Live, i+1)
			}
			last = ev.Seq
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout after %d messages", i)
		}
	}
}
