package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// exerciseStore runs the contract every Store must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on empty store: err = %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Errorf("Load = %s", got)
	}

	if err := s.Save(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load after overwrite: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Load after overwrite = %s, want []", got)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	if err := s.Save(ctx, buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'z'
	got, _ := s.Load(ctx)
	if string(got) != "abc" {
		t.Errorf("store aliased caller buffer: %s", got)
	}
	got[1] = 'z'
	again, _ := s.Load(ctx)
	if string(again) != "abc" {
		t.Errorf("store aliased returned buffer: %s", again)
	}
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStoreWith([]byte("x"))

	s.FailSaves(true)
	if err := s.Save(ctx, []byte("y")); !errors.Is(err, ErrInjected) {
		t.Errorf("Save err = %v, want ErrInjected", err)
	}
	s.FailLoads(true)
	if _, err := s.Load(ctx); !errors.Is(err, ErrInjected) {
		t.Errorf("Load err = %v, want ErrInjected", err)
	}
	s.FailSaves(false)
	s.FailLoads(false)

	if got, _ := s.Load(ctx); string(got) != "x" {
		t.Errorf("failed save changed data: %s", got)
	}
	if s.Saves() != 0 {
		t.Errorf("Saves = %d, want 0", s.Saves())
	}
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	if err := s.Save(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("Save err = %v, want context.Canceled", err)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, "tasks:snapshot")
	exerciseStore(t, s)

	if ttl := mr.TTL("tasks:snapshot"); ttl != 0 {
		t.Errorf("snapshot key has TTL %v, want none", ttl)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer rdb.Close()

	s := NewRedisStore(rdb, "tasks:snapshot")
	if _, err := s.Load(context.Background()); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load err = %v, want connection error", err)
	}
}

func TestPGStore(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS kv_snapshots`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	s := NewPGStore(pool, "tasks:test")

	// Missing table reads as an absent snapshot.
	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load without table: err = %v, want ErrNotFound", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE kv_snapshots (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`); err != nil {
		t.Fatalf("create: %v", err)
	}
	exerciseStore(t, s)
}
