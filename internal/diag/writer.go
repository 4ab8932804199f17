package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/surfenergy/internal/energy"
)

// Writer receives the bundle of a failed solve together with its report
type Writer interface {
	WriteFailure(b *energy.Bundle, r *Report)
}

// WriterFunc adapts a function to Writer
type WriterFunc func(b *energy.Bundle, r *Report)

// WriteFailure implements Writer
func (f WriterFunc) WriteFailure(b *energy.Bundle, r *Report) {
	f(b, r)
}

// Snapshot is the replayable record of a failure
type Snapshot struct {
	ID     string         `msgpack:"id"`
	Report *Report        `msgpack:"report"`
	Bundle *energy.Bundle `msgpack:"bundle"`
}

// FatalWriter prints the report, saves a snapshot when SnapshotDir is set
// and terminates the process
type FatalWriter struct {
	Out         io.Writer
	SnapshotDir string
	Logger      *zap.SugaredLogger
	// Exit defaults to os.Exit
	Exit func(code int)
}

// NewFatalWriter returns a FatalWriter printing to stderr
func NewFatalWriter(snapshotDir string, logger *zap.SugaredLogger) *FatalWriter {
	return &FatalWriter{
		Out:         os.Stderr,
		SnapshotDir: snapshotDir,
		Logger:      logger,
		Exit:        os.Exit,
	}
}

// WriteFailure implements Writer
func (w *FatalWriter) WriteFailure(b *energy.Bundle, r *Report) {
	out := w.Out
	if out == nil {
		out = os.Stderr
	}
	if _, err := r.WriteTo(out); err != nil && w.Logger != nil {
		w.Logger.Errorf("error writing failure report %s: %v", r.ID, err)
	}

	if w.SnapshotDir != "" {
		path, err := SaveSnapshot(w.SnapshotDir, b, r)
		if w.Logger != nil {
			if err != nil {
				w.Logger.Errorf("error saving failure snapshot %s: %v", r.ID, err)
			} else {
				w.Logger.Infof("failure snapshot written to %s", path)
			}
		}
	}

	if w.Logger != nil {
		w.Logger.Sync()
	}
	exit := w.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
}

// SaveSnapshot encodes the bundle and report into dir and returns the path
// of the snapshot file
func SaveSnapshot(dir string, b *energy.Bundle, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating snapshot directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("surfbal-failure-%s.msgpack", r.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating snapshot: %w", err)
	}
	defer f.Close()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&Snapshot{ID: r.ID, Report: r, Bundle: b}); err != nil {
		return "", fmt.Errorf("error encoding snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot decodes a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("error decoding snapshot %s: %w", path, err)
	}
	return &s, nil
}
