// Package units provides the physical constants and unit conversions shared
// by the trap and resonator analysis packages.
//
// Internally everything is SI: positions in metres, potentials in volts,
// energies in joules. Energies reported to users are in electron-volts and
// frequencies in hertz; the helpers below convert at the edges.
package units

import "math"

// Physical constants (CODATA values, truncated to the precision the
// simulation exports carry).
const (
	// ElectronCharge is the elementary charge in coulombs.
	ElectronCharge = 1.602176634e-19

	// ElectronMass is the electron rest mass in kilograms.
	ElectronMass = 9.1093837015e-31

	// VacuumPermittivity is eps0 in farads per metre.
	VacuumPermittivity = 8.8541878128e-12

	// Boltzmann is kB in joules per kelvin.
	Boltzmann = 1.380649e-23

	// Planck is h in joule-seconds; Hbar is the reduced constant.
	Planck = 6.62607015e-34
	Hbar   = Planck / (2 * math.Pi)
)

// CoulombPrefactor is qe^2/(4*pi*eps0) in J·m, the strength of the pairwise
// electron repulsion used throughout the energy calculations.
const CoulombPrefactor = ElectronCharge * ElectronCharge / (4 * math.Pi * VacuumPermittivity)

// Length unit names accepted by the importer and CLIs.
const (
	Metres  = "m"
	Microns = "um"
)

// ValidLengthUnits contains all accepted length unit values.
var ValidLengthUnits = []string{Metres, Microns}

// IsValidLengthUnit checks if the given unit is in the list of valid units.
func IsValidLengthUnit(unit string) bool {
	for _, u := range ValidLengthUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// ToMetres converts a length in the named unit to metres.
func ToMetres(v float64, unit string) float64 {
	switch unit {
	case Microns:
		return v * 1e-6
	default:
		return v
	}
}

// MetresToMicrons converts metres to microns for display.
func MetresToMicrons(m float64) float64 { return m * 1e6 }

// JoulesToEV converts an energy in joules to electron-volts.
func JoulesToEV(j float64) float64 { return j / ElectronCharge }

// EVToJoules converts an energy in electron-volts to joules.
func EVToJoules(ev float64) float64 { return ev * ElectronCharge }

// OmegaToHz converts an angular frequency (rad/s) to a frequency in Hz.
func OmegaToHz(omega float64) float64 { return omega / (2 * math.Pi) }

// HzToGHz converts hertz to gigahertz for display.
func HzToGHz(f float64) float64 { return f * 1e-9 }
