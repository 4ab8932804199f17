package types

// SoilProperties describes one soil column. It is immutable for the
// duration of a step; the per-node terms are filled by soil.Prepare.
type SoilProperties struct {
	// Layer terms
	Depth      []float64 `yaml:"depth"`       // layer thickness (m)
	MaxMoist   []float64 `yaml:"max-moist"`   // mm
	ResidMoist []float64 `yaml:"resid-moist"` // volumetric
	Bubble     []float64 `yaml:"bubble"`      // bubbling pressure (cm)
	Expt       []float64 `yaml:"expt"`        // pore-size distribution exponent
	Wcr        []float64 `yaml:"wcr"`         // critical moisture (mm)
	Wpwp       []float64 `yaml:"wpwp"`        // wilting point (mm)
	Root       []float64 `yaml:"root"`        // root fraction per layer

	BInfilt   float64 `yaml:"b-infilt"`
	MaxInfil  float64 `yaml:"max-infil"`
	Dp        float64 `yaml:"dp"` // thermal damping depth (m)
	Elevation float64 `yaml:"elevation"`

	FrozenSoilActive   bool    `yaml:"fs-active"`
	DepthFullSnowCover float64 `yaml:"depth-full-snow-cover"`

	SolidsHeatCapacity float64 `yaml:"solids-cs"`   // J/m³/K
	DryConductivity    float64 `yaml:"kappa-dry"`   // W/m/K
	SatConductivity    float64 `yaml:"kappa-sat"`   // W/m/K
	FrostSlope         float64 `yaml:"frost-slope"` // °C

	// Node terms. Zsum holds node depths below the surface (m); the other
	// node slices are derived from it and the layer terms.
	Zsum         []float64 `yaml:"zsum"`
	Dz           []float64 `yaml:"-"`
	Alpha        []float64 `yaml:"-"`
	Beta         []float64 `yaml:"-"`
	Gamma        []float64 `yaml:"-"`
	BubbleNode   []float64 `yaml:"-"`
	ExptNode     []float64 `yaml:"-"`
	MaxMoistNode []float64 `yaml:"-"` // volumetric

	// FrostFract holds the area fractions of the spatial frost
	// distribution; it is only used when spatial frost is enabled.
	FrostFract []float64 `yaml:"frost-fract,omitempty"`

	// UnfrozenTable is the precomputed unfrozen water lookup used when quick
	// frozen soil mode is enabled.
	UnfrozenTable *UnfrozenTable `yaml:"-"`
}

// Nodes returns the number of soil thermal nodes
func (s *SoilProperties) Nodes() int {
	return len(s.Zsum)
}

// Layers returns the number of soil moisture layers
func (s *SoilProperties) Layers() int {
	return len(s.Depth)
}

// UnfrozenTable tabulates the maximum unfrozen water content against
// temperature. Temps descends from 0 °C; Layer holds the top-layer curve
// (volumetric) and Node holds one curve per thermal node.
type UnfrozenTable struct {
	Temps []float64
	Layer []float64
	Node  [][]float64
}

// LayerLookup interpolates the top-layer curve
func (u *UnfrozenTable) LayerLookup(t float64) float64 {
	return interpolate(u.Temps, u.Layer, t)
}

// NodeLookup interpolates the curve of one node
func (u *UnfrozenTable) NodeLookup(node int, t float64) float64 {
	return interpolate(u.Temps, u.Node[node], t)
}

func interpolate(temps, vals []float64, t float64) float64 {
	if t >= temps[0] {
		return vals[0]
	}
	for i := 1; i < len(temps); i++ {
		if t >= temps[i] {
			f := (t - temps[i]) / (temps[i-1] - temps[i])
			return vals[i] + f*(vals[i-1]-vals[i])
		}
	}
	return vals[len(vals)-1]
}
