package diag

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/surfenergy/internal/energy"
	"github.com/chrissnell/surfenergy/internal/soil"
	"github.com/chrissnell/surfenergy/internal/types"
)

func failedBundle() *energy.Bundle {
	p := &soil.Profile{
		T:     []float64{-1, 0.5, 2},
		Tnew:  []float64{-40, 0.1, 2},
		Kappa: []float64{1, 1, 1},
		Cs:    []float64{2e6, 2e6, 2e6},
		Moist: []float64{0.3, 0.3, 0.3},
		Ice:   []float64{0.1, 0, 0},
		Beta:  []float64{0, 0.1, 0.4},
		Gamma: []float64{0.1, 0.4, 0},
	}
	b := &energy.Bundle{
		General: energy.General{Tile: types.Tile{Index: 0, Count: 2}, Month: 3, Dt: 3600},
		Met:     energy.Met{Tair: -12.5, Pressure: 90000},
		Nodes:   energy.Nodes{Active: 3, Profile: p, Zsum: []float64{0, 0.1, 0.5}, Dz: []float64{0.05, 0.25, 0.2}},
		State: energy.State{
			LayerWet: []types.LayerState{{Moist: 30, Ice: 5, T: -0.5}},
			LayerDry: []types.LayerState{{Moist: 20, Ice: 4, T: -0.6}},
		},
		Flags: types.Options{FullEnergy: true, QuickSolve: true},
	}
	b.Trace.Reset(-37.5, 12.5)
	return b
}

func TestDescribeFailure(t *testing.T) {
	b := failedBundle()
	r := DescribeFailure(b, errors.New("root is not bracketed"))

	if r.ID == "" {
		t.Error("report should carry an id")
	}
	if v, ok := r.Lookup("Meteorological Forcing Terms", "Tair"); !ok || v != "-12.500000" {
		t.Errorf("expected Tair -12.500000, got %q", v)
	}
	if v, ok := r.Lookup("Control Flags", "QUICK_SOLVE"); !ok || v != "true" {
		t.Errorf("expected QUICK_SOLVE true, got %q", v)
	}
	if v, ok := r.Lookup("Solver Trace", "T_lower"); !ok || v != "-37.500000" {
		t.Errorf("expected lower bound in trace, got %q", v)
	}
	if len(r.Nodes) != 3 || r.Nodes[1].Zsum != 0.1 || r.Nodes[0].Tnew != -40 {
		t.Errorf("unexpected node table %+v", r.Nodes)
	}
	if _, ok := r.Lookup("Layer State (dry)", "layer[0].moist"); ok {
		t.Error("dry layers should only be reported with distributed precipitation")
	}

	b.Flags.DistPrcp = true
	r = DescribeFailure(b, nil)
	if _, ok := r.Lookup("Layer State (dry)", "layer[0].moist"); !ok {
		t.Error("dry layers should be reported with distributed precipitation")
	}

	text := r.String()
	for _, want := range []string{"General Model Terms", "Soil Nodes", "Returned Terms", r.ID} {
		if !strings.Contains(text, want) {
			t.Errorf("report text is missing %q", want)
		}
	}
}

func TestFatalWriter(t *testing.T) {
	var out bytes.Buffer
	var code int
	dir := t.TempDir()
	w := &FatalWriter{
		Out:         &out,
		SnapshotDir: dir,
		Logger:      zaptest.NewLogger(t).Sugar(),
		Exit:        func(c int) { code = c },
	}

	b := failedBundle()
	r := DescribeFailure(b, errors.New("maximum number of iterations exceeded"))
	w.WriteFailure(b, r)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out.String(), "maximum number of iterations exceeded") {
		t.Error("report should be written to the output")
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one snapshot, got %v (%v)", entries, err)
	}
	snap, err := LoadSnapshot(dir + "/" + entries[0].Name())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snap.ID != r.ID {
		t.Errorf("snapshot id %q does not match report %q", snap.ID, r.ID)
	}
	if snap.Bundle.Met.Tair != -12.5 || snap.Bundle.Nodes.Profile.Tnew[0] != -40 {
		t.Errorf("snapshot bundle does not replay the failure: %+v", snap.Bundle.Met)
	}
}
