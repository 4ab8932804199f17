package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/chrissnell/surfenergy/internal/diag"
	"github.com/chrissnell/surfenergy/internal/energy"
	"github.com/chrissnell/surfenergy/internal/store"
	"github.com/chrissnell/surfenergy/internal/surface"
	"github.com/chrissnell/surfenergy/internal/types"
	"github.com/chrissnell/surfenergy/pkg/brent"
)

const vegetationYAML = `
classes:
  - id: 2
    name: grassland
    rmin: 120
    lai: [0.5, 0.5, 0.8, 1.2, 2.0, 2.5, 2.5, 2.5, 2.0, 1.2, 0.8, 0.5]
`

const scenarioYAML = `
name: test
cells:
  - id: bare
    tile: {index: 1, count: 1}
    forcing: &forcing
      tair: 12
      vp: 1000
      density: 1.2
      pressure: 95000
      wind: 3
      aero-resist: 60
      short-under-in: 350
      long-under-in: 320
      rainfall: [0.001, 0]
      mu: 1
      dt-hours: 1
      month: 6
    soil: &soil
      depth: [0.1, 0.4, 1.0]
      max-moist: [40, 160, 400]
      resid-moist: [0, 0, 0]
      bubble: [30, 30, 30]
      expt: [12, 12, 12]
      wcr: [28, 112, 280]
      wpwp: [12, 48, 120]
      root: [0.4, 0.4, 0.2]
      b-infilt: 0.2
      dp: 4
      zsum: [0, 0.1, 0.3, 0.6, 1.0, 1.5, 2.2, 3.0, 4.0]
    soil-terms: {moist: 0.3}
    snow-terms: {bare-albedo: 0.2, snow-albedo: 0.8}
    initial: &initial
      energy:
        t: [8, 8, 7.5, 7, 6.5, 6, 6, 6, 6]
      layer-wet:
        - {moist: 30}
        - {moist: 120}
        - {moist: 300}
  - id: grass
    tile: {index: 0, count: 1, class: 2}
    forcing: *forcing
    soil: *soil
    soil-terms: {moist: 0.3}
    snow-terms: {bare-albedo: 0.2, snow-albedo: 0.8}
    initial: *initial
`

func writeInputs(t *testing.T) (types.Config, *types.Scenario) {
	t.Helper()
	dir := t.TempDir()
	vegPath := filepath.Join(dir, "vegetation.yaml")
	if err := os.WriteFile(vegPath, []byte(vegetationYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	scPath := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(scPath, []byte(scenarioYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := types.LoadScenario(scPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	cfg := types.Config{
		Options:           types.Options{FullEnergy: true, GroundFlux: true, QuickSolve: true},
		VegetationLibrary: vegPath,
		Workers:           2,
	}
	return cfg, sc
}

func TestRunResumesFromStore(t *testing.T) {
	cfg, sc := writeInputs(t)
	st := store.NewMemoryStore()
	a := New(cfg, zaptest.NewLogger(t).Sugar(), WithStore(st))

	first, err := a.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 2 || first[0].ID != "bare" || first[1].ID != "grass" {
		t.Fatalf("summaries out of scenario order: %+v", first)
	}
	for _, s := range first {
		if s.Resumed {
			t.Errorf("cell %s should start from its initial state", s.ID)
		}
		// quick solve searches the top nodes only, so the full column
		// evaluation leaves a small residual
		if math.Abs(s.Residual) > 0.5 {
			t.Errorf("cell %s left a residual of %v W/m²", s.ID, s.Residual)
		}
		if s.Tsurf < -20 || s.Tsurf > 40 {
			t.Errorf("cell %s: implausible surface temperature %v", s.ID, s.Tsurf)
		}
	}
	if first[0].Ppt[types.Wet] != 0.001 {
		t.Errorf("bare cell should receive the rainfall, got %v", first[0].Ppt)
	}

	saved, err := st.Load(context.Background(), "bare")
	if err != nil {
		t.Fatalf("state not saved: %v", err)
	}
	if saved.Energy.T[0] != first[0].Tsurf || len(saved.Energy.Kappa) != 9 {
		t.Errorf("saved state does not hold the solution: %+v", saved.Energy)
	}

	second, err := a.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for _, s := range second {
		if !s.Resumed {
			t.Errorf("cell %s should resume from the store", s.ID)
		}
	}
}

func TestRunReportsNonConvergence(t *testing.T) {
	cfg, sc := writeInputs(t)
	cfg.Solver = types.SolverConfig{SurfDT: 0.001}

	var failures int
	w := diag.WriterFunc(func(b *energy.Bundle, r *diag.Report) {
		failures++
	})
	a := New(cfg, zaptest.NewLogger(t).Sugar(), WithStore(store.NewMemoryStore()),
		WithModelOptions(surface.WithFailureWriter(w)))

	sc.Cells = sc.Cells[:1]
	_, err := a.Run(context.Background(), sc)
	if !errors.Is(err, brent.ErrNoBracket) {
		t.Fatalf("expected ErrNoBracket, got %v", err)
	}
	var nce *surface.NonConvergenceError
	if !errors.As(err, &nce) {
		t.Errorf("expected a NonConvergenceError, got %T", err)
	}
	if failures != 1 {
		t.Errorf("expected one failure report, got %d", failures)
	}
}

func TestRunMissingVegetationLibrary(t *testing.T) {
	cfg, sc := writeInputs(t)
	cfg.VegetationLibrary = filepath.Join(t.TempDir(), "missing.yaml")
	a := New(cfg, nil, WithStore(store.NewMemoryStore()))
	if _, err := a.Run(context.Background(), sc); err == nil {
		t.Fatal("expected an error for a missing vegetation library")
	}
}
