// Package constants defines application-wide constants, version information
// and the physical constants shared by the energy balance packages.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// Physical constants. Temperatures are in °C unless noted otherwise.
const (
	// Kelvin is the offset between °C and K
	Kelvin = 273.15

	// StefanBoltzmann constant (W/m²/K⁴)
	StefanBoltzmann = 5.6696e-8

	// Lf is the latent heat of fusion (J/kg)
	Lf = 3.337e5

	// Ls is the latent heat of sublimation (J/kg)
	Ls = 2.845e6

	// RhoWater is the density of liquid water (kg/m³)
	RhoWater = 1000.0

	// RhoIce is the density of ice (kg/m³)
	RhoIce = 917.0

	// ChIce is the volumetric heat capacity of ice (J/m³/K)
	ChIce = 2100.0e3

	// ChWater is the volumetric heat capacity of liquid water (J/m³/K)
	ChWater = 4186.8e3

	// CpAir is the specific heat of moist air at constant pressure (J/kg/K)
	CpAir = 1013.0

	// Gravity (m/s²)
	Gravity = 9.81

	// KSnow is the snow conductivity proportionality constant; the snow
	// layer conductivity is KSnow·ρ² (W/m/K) for density ρ in kg/m³
	KSnow = 2.9302e-6

	// EpsVapor is the ratio of molecular weights of water vapour and dry air
	EpsVapor = 0.622

	// SecondsPerHour converts model step lengths
	SecondsPerHour = 3600.0
)
