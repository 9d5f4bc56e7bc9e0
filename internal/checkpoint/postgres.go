package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/scholar/internal/workflow"
)

// PostgresStore persists snapshots in a single conversations table,
// one row per conversation id, state as JSONB.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

const saveConversationSQL = `
INSERT INTO conversations (id, state, updated_at)
VALUES ($1,$2,NOW())
ON CONFLICT (id) DO UPDATE SET
  state = EXCLUDED.state,
  updated_at = NOW();
`

func (s *PostgresStore) Save(ctx context.Context, id string, state workflow.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, saveConversationSQL, id, data); err != nil {
		return fmt.Errorf("save conversation %s: %w", id, err)
	}
	return nil
}

const loadConversationSQL = `SELECT state FROM conversations WHERE id = $1`

func (s *PostgresStore) Load(ctx context.Context, id string) (workflow.State, bool, error) {
	var data []byte
	err := s.DB.QueryRowContext(ctx, loadConversationSQL, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.State{}, false, nil
	}
	if err != nil {
		return workflow.State{}, false, fmt.Errorf("load conversation %s: %w", id, err)
	}
	var st workflow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return workflow.State{}, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return st, true, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error { return s.DB.Close() }
