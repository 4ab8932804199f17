package types

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "defaults",
			body: "options:\n  full-energy: true\n  quick-solve: true\n",
			check: func(t *testing.T, c Config) {
				if !c.Options.FullEnergy || !c.Options.QuickSolve || c.Options.NoFlux {
					t.Errorf("options not parsed: %+v", c.Options)
				}
				if c.Solver.SurfDT != DefaultSurfDT || c.Solver.MaxIterations != DefaultMaxIterations {
					t.Errorf("solver defaults not applied: %+v", c.Solver)
				}
				if c.Workers != DefaultWorkers || c.Storage.Backend != "memory" {
					t.Errorf("expected default workers and memory store, got %d %q", c.Workers, c.Storage.Backend)
				}
			},
		},
		{
			name: "explicit",
			body: "solver:\n  surf-dt: 10\n  tolerance: 0.001\nstorage:\n  backend: sqlite\n  sqlite-path: state.db\nworkers: 8\n",
			check: func(t *testing.T, c Config) {
				if c.Solver.SurfDT != 10 || c.Solver.Tolerance != 0.001 || c.Workers != 8 {
					t.Errorf("explicit values overwritten: %+v", c)
				}
				if c.Storage.SQLitePath != "state.db" {
					t.Errorf("expected sqlite path, got %q", c.Storage.SQLitePath)
				}
			},
		},
		{name: "sqlite without path", body: "storage:\n  backend: sqlite\n", wantErr: true},
		{name: "postgres without connection", body: "storage:\n  backend: postgres\n", wantErr: true},
		{name: "unknown backend", body: "storage:\n  backend: influxdb\n", wantErr: true},
		{name: "conflicting frost options", body: "options:\n  quick-frozen-soil: true\n  spatial-frost: true\n", wantErr: true},
		{name: "malformed", body: "options: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConfig(writeFile(t, "config.yaml", tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestLoadScenarioRejectsDuplicateIDs(t *testing.T) {
	body := "name: dup\ncells:\n  - id: a\n  - id: a\n"
	if _, err := LoadScenario(writeFile(t, "scenario.yaml", body)); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if _, err := LoadScenario(writeFile(t, "scenario.yaml", "cells:\n  - tile: {index: 1}\n")); err == nil {
		t.Fatal("expected missing id error")
	}
}

func TestUnfrozenTableLookup(t *testing.T) {
	u := &UnfrozenTable{Temps: []float64{0, -1, -2}, Layer: []float64{0.4, 0.2, 0.1}}
	tests := []struct {
		t, expected float64
	}{
		{t: 3, expected: 0.4},
		{t: -0.5, expected: 0.3},
		{t: -1.5, expected: 0.15},
		{t: -9, expected: 0.1},
	}
	for _, tt := range tests {
		if got := u.LayerLookup(tt.t); got < tt.expected-1e-12 || got > tt.expected+1e-12 {
			t.Errorf("at %v: expected %v, got %v", tt.t, tt.expected, got)
		}
	}
}
