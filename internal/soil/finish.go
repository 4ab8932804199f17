package soil

import (
	"fmt"
	"math"

	"github.com/chrissnell/surfenergy/internal/types"
)

// Finish commits a full column solution: node temperatures, ice contents
// and the thermal properties that depend on them. The layer temperature
// and ice of each supplied layer set are updated from the nodes that fall
// inside the layer.
func Finish(e *types.EnergyState, sp *types.SoilProperties, tnew []float64, unfrozen UnfrozenFunc, layerSets ...[]types.LayerState) {
	n := len(tnew)
	for i := 0; i < n; i++ {
		e.T[i] = tnew[i]
		if unfrozen != nil {
			e.Ice[i] = IceContent(e.Moist[i], unfrozen(i, tnew[i]))
		}
		porosity := sp.MaxMoistNode[i]
		e.Cs[i] = HeatCapacity(sp.SolidsHeatCapacity, porosity, e.Moist[i], e.Ice[i])
		e.Kappa[i] = Conductivity(sp.DryConductivity, sp.SatConductivity, porosity, e.Moist[i], e.Ice[i])
	}

	for _, layers := range layerSets {
		updateLayers(layers, sp, e)
	}
}

// updateLayers averages node temperatures and ice fractions over each layer
// and converts the ice to mm
func updateLayers(layers []types.LayerState, sp *types.SoilProperties, e *types.EnergyState) {
	var top float64
	for l := range layers {
		if l >= sp.Layers() {
			break
		}
		bottom := top + sp.Depth[l]
		var tsum, isum, count float64
		for i, z := range sp.Zsum {
			if z < top || z > bottom {
				continue
			}
			tsum += e.T[i]
			isum += e.Ice[i]
			count++
		}
		if count > 0 {
			layers[l].T = tsum / count
			ice := isum / count * sp.Depth[l] * 1000.
			if ice > layers[l].Moist {
				ice = layers[l].Moist
			}
			layers[l].Ice = ice
		}
		top = bottom
	}
}

// Initialize fills the node profiles a fresh state leaves empty. Node
// moisture comes from the layer holding the node, ice from the unfrozen
// water curve, and heat capacity and conductivity follow from both. e.T
// must already hold one temperature per node.
func Initialize(e *types.EnergyState, sp *types.SoilProperties, layers []types.LayerState, unfrozen UnfrozenFunc) error {
	n := len(e.T)
	if n != sp.Nodes() {
		return fmt.Errorf("initial state has %d node temperatures, soil has %d nodes", n, sp.Nodes())
	}
	if len(e.Moist) != n {
		e.Moist = make([]float64, n)
		for i, z := range sp.Zsum {
			l := layerOf(sp.Depth, z)
			if l < len(layers) {
				e.Moist[i] = math.Min(layers[l].Moist/(sp.Depth[l]*1000.), sp.MaxMoistNode[i])
			}
		}
	}
	if len(e.Ice) != n {
		e.Ice = make([]float64, n)
		if unfrozen != nil {
			for i := range e.Ice {
				e.Ice[i] = IceContent(e.Moist[i], unfrozen(i, e.T[i]))
			}
		}
	}
	if len(e.Cs) != n {
		e.Cs = make([]float64, n)
		for i := range e.Cs {
			e.Cs[i] = HeatCapacity(sp.SolidsHeatCapacity, sp.MaxMoistNode[i], e.Moist[i], e.Ice[i])
		}
	}
	if len(e.Kappa) != n {
		e.Kappa = make([]float64, n)
		for i := range e.Kappa {
			e.Kappa[i] = Conductivity(sp.DryConductivity, sp.SatConductivity, sp.MaxMoistNode[i], e.Moist[i], e.Ice[i])
		}
	}
	return nil
}
