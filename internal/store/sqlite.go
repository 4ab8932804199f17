package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/surfenergy/internal/types"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS column_states (
		cell_id    TEXT PRIMARY KEY,
		state      BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)
`

// SQLiteStore keeps column states in a local SQLite database
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	logger *zap.SugaredLogger
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one writer at a time; concurrent cells would otherwise hit SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create column_states table: %w", err)
	}

	if logger != nil {
		logger.Infof("column state store opened at %s", dbPath)
	}
	return &SQLiteStore{db: db, dbPath: dbPath, logger: logger}, nil
}

// Load implements StateStore
func (s *SQLiteStore) Load(ctx context.Context, cellID string) (*types.ColumnState, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT state FROM column_states WHERE cell_id = ?", cellID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state of cell %s: %w", cellID, err)
	}
	return decode(blob)
}

// Save implements StateStore
func (s *SQLiteStore) Save(ctx context.Context, cellID string, cs *types.ColumnState) error {
	blob, err := encode(cs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO column_states (cell_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(cell_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, cellID, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save state of cell %s: %w", cellID, err)
	}
	return nil
}

// Close implements StateStore
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
