package types

// Forcing holds the read-only meteorological inputs for one step
type Forcing struct {
	Tair     float64 `yaml:"tair"`     // air (or canopy) temperature (°C)
	VP       float64 `yaml:"vp"`       // vapor pressure (Pa)
	VPD      float64 `yaml:"vpd"`      // vapor pressure deficit (Pa)
	Density  float64 `yaml:"density"`  // air density (kg/m³)
	Pressure float64 `yaml:"pressure"` // Pa
	Wind     float64 `yaml:"wind"`     // m/s

	AeroResist   float64 `yaml:"aero-resist"` // s/m
	Displacement float64 `yaml:"displacement"`
	RefHeight    float64 `yaml:"ref-height"`
	Roughness    float64 `yaml:"roughness"`

	ShortUnderIn float64 `yaml:"short-under-in"` // W/m²
	LongUnderIn  float64 `yaml:"long-under-in"`  // W/m²

	Rainfall [2]float64 `yaml:"rainfall"` // m, indexed by Wet/Dry
	Snowfall [2]float64 `yaml:"snowfall"` // m, indexed by Wet/Dry

	// Le is the latent heat of vaporization (J/kg); derived from Tair when 0
	Le float64 `yaml:"le"`
	// Mu is the fraction of the tile receiving precipitation
	Mu        float64 `yaml:"mu"`
	SurfAtten float64 `yaml:"surf-atten"`

	DtHours float64 `yaml:"dt-hours"`
	Month   int     `yaml:"month"`
}

// DeltaT returns the step length in seconds
func (f *Forcing) DeltaT() float64 {
	return f.DtHours * 3600.
}

// LatentHeat returns Le, deriving it from the air temperature when unset
func (f *Forcing) LatentHeat() float64 {
	if f.Le > 0 {
		return f.Le
	}
	return (2.501 - 0.002361*f.Tair) * 1.0e6
}

// SnowTerms holds the snow-side quantities computed by the external snow
// model for this step
type SnowTerms struct {
	NetLongSnow    float64 `yaml:"net-long-snow"`    // net LW at snow surface
	NetShortGround float64 `yaml:"net-short-grnd"`   // net SW transmitted through snow
	NetShortSnow   float64 `yaml:"net-short-snow"`   // net SW at snow surface
	SnowAlbedo     float64 `yaml:"snow-albedo"`
	BareAlbedo     float64 `yaml:"bare-albedo"`
	SnowLatent     float64 `yaml:"snow-latent"`
	SnowLatentSub  float64 `yaml:"snow-latent-sub"`
	SnowSensible   float64 `yaml:"snow-sensible"`
	OldTSurf       float64 `yaml:"old-tsurf"`
	Coverage       float64 `yaml:"coverage"`
	DeltaCoverage  float64 `yaml:"delta-coverage"`
	MeltEnergy     float64 `yaml:"melt-energy"`
	SnowDepth      float64 `yaml:"snow-depth"`

	// BlowingFlux is the blowing snow sublimation rate (m/s, negative for
	// loss) from the snow model's wind transport scheme
	BlowingFlux float64 `yaml:"blowing-flux"`
}

// SoilTerms holds the top-layer water state used by the two-node scheme
type SoilTerms struct {
	Ice0  float64 `yaml:"ice0"`  // volumetric ice at the start of the step
	Moist float64 `yaml:"moist"` // volumetric water
}

// Tile identifies the vegetation tile being solved
type Tile struct {
	Index int `yaml:"index"` // iveg
	Count int `yaml:"count"` // Nveg; Index == Count is the bare soil tile
	Class int `yaml:"class"`

	Overstory  bool `yaml:"overstory"`
	UnderStory bool `yaml:"understory"`
}

// Bare reports whether the tile is the bare soil tile
func (t Tile) Bare() bool {
	return t.Index == t.Count
}
