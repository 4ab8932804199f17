// Package store persists the column state each cell carries between time
// steps. States are stored as msgpack blobs keyed by cell id.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/surfenergy/internal/types"
)

// ErrNotFound is returned by Load when a cell has no stored state
var ErrNotFound = errors.New("column state not found")

// StateStore loads and saves column states
type StateStore interface {
	Load(ctx context.Context, cellID string) (*types.ColumnState, error)
	Save(ctx context.Context, cellID string, s *types.ColumnState) error
	Close() error
}

// New opens the backend selected in the storage configuration
func New(cfg types.StorageConfig, logger *zap.SugaredLogger) (StateStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(cfg.ConnectionString, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func encode(s *types.ColumnState) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding column state: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*types.ColumnState, error) {
	s := &types.ColumnState{}
	if err := msgpack.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("error decoding column state: %w", err)
	}
	return s, nil
}
