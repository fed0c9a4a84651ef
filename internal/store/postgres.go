package store

import (
	"context"
	"errors"

	"Tasklist/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps the snapshot as one row of kv_snapshots.
type PGStore struct {
	db  *pgxpool.Pool
	key string
}

func NewPGStore(db *pgxpool.Pool, key string) *PGStore {
	return &PGStore{db: db, key: key}
}

// Load returns ErrNotFound when the row or the table is missing.
func (s *PGStore) Load(ctx context.Context) ([]byte, error) {
	var b []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM kv_snapshots WHERE key = $1`, s.key).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) || utils.IsPGUndefinedTable(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO kv_snapshots (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	_, err := s.db.Exec(ctx, query, s.key, data)
	return err
}
