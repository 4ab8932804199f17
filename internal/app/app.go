// Package app runs one time step of the surface energy balance over every
// cell of a scenario, carrying column state between runs in a state store.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/surfenergy/internal/diag"
	"github.com/chrissnell/surfenergy/internal/soil"
	"github.com/chrissnell/surfenergy/internal/store"
	"github.com/chrissnell/surfenergy/internal/surface"
	"github.com/chrissnell/surfenergy/internal/types"
	"github.com/chrissnell/surfenergy/internal/vegetation"
)

// Unfrozen water table resolution for quick frozen soil
const (
	unfrozenTableStep  = 0.1 // °C
	unfrozenTableCount = 501
)

// CellSummary reports the outcome of one cell
type CellSummary struct {
	ID          string
	Tsurf       float64
	Melt        float64
	Ppt         [2]float64
	Iterations  int
	ActiveNodes int
	Resolved    bool
	// Residual is the energy balance error left at the solution (W/m²)
	Residual float64
	// Resumed reports that the cell started from a stored state
	Resumed bool
}

// App represents the batch driver
type App struct {
	config  types.Config
	logger  *zap.SugaredLogger
	store   store.StateStore
	options []surface.Option
}

// Option configures an App
type Option func(*App)

// WithStore uses an already opened state store instead of the configured one
func WithStore(s store.StateStore) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithModelOptions passes options through to the surface model
func WithModelOptions(opts ...surface.Option) Option {
	return func(a *App) {
		a.options = append(a.options, opts...)
	}
}

// New creates a new application instance
func New(cfg types.Config, logger *zap.SugaredLogger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg.ApplyDefaults()
	a := &App{config: cfg, logger: logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run solves every cell of the scenario and saves the new states. Cells are
// independent and run concurrently, bounded by the configured worker count.
// The summaries are returned in scenario order.
func (a *App) Run(ctx context.Context, sc *types.Scenario) ([]CellSummary, error) {
	runID := uuid.New().String()
	logger := a.logger.With("run", runID)
	start := time.Now()

	var veg surface.VegetationLibrary
	if a.config.VegetationLibrary != "" {
		lib, err := vegetation.Load(a.config.VegetationLibrary)
		if err != nil {
			return nil, fmt.Errorf("error loading vegetation library: %w", err)
		}
		logger.Infof("loaded %d vegetation classes from %s", lib.Len(), a.config.VegetationLibrary)
		veg = lib
	}

	st := a.store
	if st == nil {
		var err error
		if st, err = store.New(a.config.Storage, logger); err != nil {
			return nil, fmt.Errorf("error opening state store: %w", err)
		}
		defer st.Close()
	}

	modelOpts := append([]surface.Option{
		surface.WithFailureWriter(diag.NewFatalWriter(a.config.SnapshotDir, logger)),
	}, a.options...)
	model := surface.New(a.config.Options, a.config.Solver, veg, logger, modelOpts...)

	summaries := make([]CellSummary, len(sc.Cells))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i := range sc.Cells {
		cell := &sc.Cells[i]
		g.Go(func() error {
			sum, err := a.runCell(ctx, model, st, cell)
			if err != nil {
				return fmt.Errorf("cell %s: %w", cell.ID, err)
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Infow("scenario complete", "scenario", sc.Name, "cells", len(sc.Cells), "elapsed", time.Since(start))
	return summaries, nil
}

func (a *App) runCell(ctx context.Context, model *surface.Model, st store.StateStore, cell *types.CellScenario) (CellSummary, error) {
	if err := ctx.Err(); err != nil {
		return CellSummary{}, err
	}

	sp := cell.Soil
	if err := soil.Prepare(&sp); err != nil {
		return CellSummary{}, fmt.Errorf("error preparing soil: %w", err)
	}
	if a.config.Options.QuickFrozenSoil && sp.FrozenSoilActive {
		sp.UnfrozenTable = soil.BuildUnfrozenTable(&sp, unfrozenTableStep, unfrozenTableCount)
	}

	state, resumed, err := a.loadState(ctx, st, cell, &sp)
	if err != nil {
		return CellSummary{}, err
	}

	res, err := model.Solve(&surface.Step{
		Tile:        cell.Tile,
		IncludeSnow: cell.IncludeSnow,
		Forcing:     cell.Forcing,
		Soil:        &sp,
		SoilTerms:   cell.SoilTerms,
		SnowTerms:   cell.SnowTerms,
		State:       state,
	})
	if err != nil {
		return CellSummary{}, err
	}

	if err := st.Save(ctx, cell.ID, state); err != nil {
		return CellSummary{}, err
	}

	a.logger.Debugw("cell solved", "cell", cell.ID, "tsurf", res.Tsurf, "iterations", res.Iterations,
		"nodes", res.ActiveNodes, "melt", res.Melt)
	return CellSummary{
		ID:          cell.ID,
		Tsurf:       res.Tsurf,
		Melt:        res.Melt,
		Ppt:         res.Ppt,
		Iterations:  res.Iterations,
		ActiveNodes: res.ActiveNodes,
		Resolved:    res.Resolved,
		Residual:    state.Energy.Error,
		Resumed:     resumed,
	}, nil
}

// loadState returns the stored state of the cell, or its initial state
// completed from the soil properties when nothing is stored yet
func (a *App) loadState(ctx context.Context, st store.StateStore, cell *types.CellScenario, sp *types.SoilProperties) (*types.ColumnState, bool, error) {
	state, err := st.Load(ctx, cell.ID)
	if err == nil {
		return state, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	initial := cell.Initial
	initial.Energy.T = append([]float64(nil), cell.Initial.Energy.T...)
	initial.LayerWet = append([]types.LayerState(nil), cell.Initial.LayerWet...)
	initial.LayerDry = append([]types.LayerState(nil), cell.Initial.LayerDry...)
	if err := soil.Initialize(&initial.Energy, sp, initial.LayerWet, soil.NodeUnfrozen(sp, a.config.Options)); err != nil {
		return nil, false, err
	}
	return &initial, false, nil
}
