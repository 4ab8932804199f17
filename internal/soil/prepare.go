package soil

import (
	"fmt"

	"github.com/chrissnell/surfenergy/internal/types"
)

// Defaults applied by Prepare to unset thermal parameters
const (
	DefaultSolidsHeatCapacity = 2.0e6
	DefaultDryConductivity    = 0.25
	DefaultSatConductivity    = 1.6
	DefaultDampingDepth       = 4.0
)

// Prepare validates the layer terms and fills in the node geometry and the
// per-node soil parameters from the node depths in sp.Zsum.
func Prepare(sp *types.SoilProperties) error {
	nl := sp.Layers()
	if nl == 0 {
		return fmt.Errorf("soil has no layers")
	}
	for name, v := range map[string][]float64{
		"max-moist": sp.MaxMoist, "bubble": sp.Bubble, "expt": sp.Expt,
	} {
		if len(v) != nl {
			return fmt.Errorf("soil %s has %d entries, expected %d layers", name, len(v), nl)
		}
	}
	for l, d := range sp.Depth {
		if d <= 0 {
			return fmt.Errorf("soil layer %d has non-positive depth %v", l, d)
		}
	}

	n := sp.Nodes()
	if n < 2 {
		return fmt.Errorf("soil needs at least 2 thermal nodes, got %d", n)
	}
	if sp.Zsum[0] != 0 {
		return fmt.Errorf("first soil node must be at the surface, got depth %v", sp.Zsum[0])
	}
	for i := 1; i < n; i++ {
		if sp.Zsum[i] <= sp.Zsum[i-1] {
			return fmt.Errorf("soil node depths must increase, node %d at %v", i, sp.Zsum[i])
		}
	}

	if sp.SolidsHeatCapacity <= 0 {
		sp.SolidsHeatCapacity = DefaultSolidsHeatCapacity
	}
	if sp.DryConductivity <= 0 {
		sp.DryConductivity = DefaultDryConductivity
	}
	if sp.SatConductivity <= 0 {
		sp.SatConductivity = DefaultSatConductivity
	}
	if sp.Dp <= 0 {
		sp.Dp = DefaultDampingDepth
	}

	z := sp.Zsum
	sp.Dz = make([]float64, n)
	sp.Alpha = make([]float64, n)
	sp.Beta = make([]float64, n)
	sp.Gamma = make([]float64, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			sp.Beta[i] = z[i] - z[i-1]
		}
		if i < n-1 {
			sp.Gamma[i] = z[i+1] - z[i]
		}
		sp.Alpha[i] = sp.Beta[i] + sp.Gamma[i]
		sp.Dz[i] = sp.Alpha[i] / 2
	}

	sp.BubbleNode = make([]float64, n)
	sp.ExptNode = make([]float64, n)
	sp.MaxMoistNode = make([]float64, n)
	for i := 0; i < n; i++ {
		l := layerOf(sp.Depth, z[i])
		sp.BubbleNode[i] = sp.Bubble[l]
		sp.ExptNode[i] = sp.Expt[l]
		sp.MaxMoistNode[i] = sp.MaxMoist[l] / (sp.Depth[l] * 1000.)
	}

	if len(sp.FrostFract) > 0 {
		var sum float64
		for _, f := range sp.FrostFract {
			sum += f
		}
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("frost fractions sum to %v, expected 1", sum)
		}
	}

	return nil
}

// layerOf returns the layer containing depth z; nodes below the soil
// column belong to the bottom layer
func layerOf(depth []float64, z float64) int {
	var bottom float64
	for l, d := range depth {
		bottom += d
		if z <= bottom {
			return l
		}
	}
	return len(depth) - 1
}

// BuildUnfrozenTable tabulates the unfrozen water curves at count
// temperatures spaced step °C apart below freezing
func BuildUnfrozenTable(sp *types.SoilProperties, step float64, count int) *types.UnfrozenTable {
	n := sp.Nodes()
	tbl := &types.UnfrozenTable{
		Temps: make([]float64, count),
		Layer: make([]float64, count),
		Node:  make([][]float64, n),
	}
	for i := range tbl.Node {
		tbl.Node[i] = make([]float64, count)
	}
	maxMoist := TopLayerMaxMoist(sp)
	for k := 0; k < count; k++ {
		t := -step * float64(k)
		tbl.Temps[k] = t
		tbl.Layer[k] = MaxUnfrozenWater(t, maxMoist, sp.Bubble[0], sp.Expt[0])
		for i := 0; i < n; i++ {
			tbl.Node[i][k] = MaxUnfrozenWater(t, sp.MaxMoistNode[i], sp.BubbleNode[i], sp.ExptNode[i])
		}
	}
	return tbl
}
