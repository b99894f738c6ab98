// Package config loads solver tuning parameters from JSON files. Fields are
// pointers so a partial file only overrides what it names; the Get* methods
// supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default tuning values. These reproduce the schedules used for the
// published trap geometries.
const (
	DefaultGradientTolerance = 1e-2 // eV/m
	DefaultMaxIterations     = 10000
	DefaultMaxFuncEvals      = 100000
	DefaultPerturbations     = 50
	DefaultTemperatureK      = 0.5 // kelvin
	DefaultCoolingFactor     = 0.95
	DefaultMethod            = "cg"
	DefaultMonitorEvery      = 100
)

// TuningConfig represents solver tuning parameters. The same JSON schema is
// accepted by the CLIs and recorded with every persisted run, so a stored
// run can be reproduced from its params blob.
type TuningConfig struct {
	// Minimiser params
	GradientTolerance *float64 `json:"gradient_tolerance,omitempty"` // eV/m
	MaxIterations     *int     `json:"max_iterations,omitempty"`
	MaxFuncEvals      *int     `json:"max_func_evals,omitempty"`
	Method            *string  `json:"method,omitempty"` // "cg" or "lbfgs"

	// Anneal schedule params
	Perturbations *int     `json:"perturbations,omitempty"`
	TemperatureK  *float64 `json:"temperature_k,omitempty"`
	CoolingFactor *float64 `json:"cooling_factor,omitempty"`

	// Reporting params
	MonitorEvery *int   `json:"monitor_every,omitempty"`
	RandomSeed   *int64 `json:"random_seed,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every set field for a sane value.
func (c *TuningConfig) Validate() error {
	if c.GradientTolerance != nil && *c.GradientTolerance <= 0 {
		return fmt.Errorf("gradient_tolerance must be positive, got %g", *c.GradientTolerance)
	}
	if c.MaxIterations != nil && *c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", *c.MaxIterations)
	}
	if c.MaxFuncEvals != nil && *c.MaxFuncEvals < 1 {
		return fmt.Errorf("max_func_evals must be >= 1, got %d", *c.MaxFuncEvals)
	}
	if c.Method != nil && *c.Method != "cg" && *c.Method != "lbfgs" {
		return fmt.Errorf("method must be cg or lbfgs, got %q", *c.Method)
	}
	if c.Perturbations != nil && *c.Perturbations < 0 {
		return fmt.Errorf("perturbations must be >= 0, got %d", *c.Perturbations)
	}
	if c.TemperatureK != nil && *c.TemperatureK <= 0 {
		return fmt.Errorf("temperature_k must be positive, got %g", *c.TemperatureK)
	}
	if c.CoolingFactor != nil && (*c.CoolingFactor <= 0 || *c.CoolingFactor > 1) {
		return fmt.Errorf("cooling_factor must be in (0, 1], got %g", *c.CoolingFactor)
	}
	if c.MonitorEvery != nil && *c.MonitorEvery < 1 {
		return fmt.Errorf("monitor_every must be >= 1, got %d", *c.MonitorEvery)
	}
	return nil
}

// GetGradientTolerance returns the convergence threshold in eV/m.
func (c *TuningConfig) GetGradientTolerance() float64 {
	if c.GradientTolerance != nil {
		return *c.GradientTolerance
	}
	return DefaultGradientTolerance
}

// GetMaxIterations returns the major iteration budget.
func (c *TuningConfig) GetMaxIterations() int {
	if c.MaxIterations != nil {
		return *c.MaxIterations
	}
	return DefaultMaxIterations
}

// GetMaxFuncEvals returns the function evaluation budget.
func (c *TuningConfig) GetMaxFuncEvals() int {
	if c.MaxFuncEvals != nil {
		return *c.MaxFuncEvals
	}
	return DefaultMaxFuncEvals
}

// GetMethod returns the minimiser name.
func (c *TuningConfig) GetMethod() string {
	if c.Method != nil {
		return *c.Method
	}
	return DefaultMethod
}

// GetPerturbations returns the number of thermal kick rounds.
func (c *TuningConfig) GetPerturbations() int {
	if c.Perturbations != nil {
		return *c.Perturbations
	}
	return DefaultPerturbations
}

// GetTemperatureK returns the kick temperature in kelvin.
func (c *TuningConfig) GetTemperatureK() float64 {
	if c.TemperatureK != nil {
		return *c.TemperatureK
	}
	return DefaultTemperatureK
}

// GetCoolingFactor returns the per-round temperature decay.
func (c *TuningConfig) GetCoolingFactor() float64 {
	if c.CoolingFactor != nil {
		return *c.CoolingFactor
	}
	return DefaultCoolingFactor
}

// GetMonitorEvery returns the monitor reporting interval.
func (c *TuningConfig) GetMonitorEvery() int {
	if c.MonitorEvery != nil {
		return *c.MonitorEvery
	}
	return DefaultMonitorEvery
}

// GetRandomSeed returns the seed, or 0 meaning "derive from the clock".
func (c *TuningConfig) GetRandomSeed() int64 {
	if c.RandomSeed != nil {
		return *c.RandomSeed
	}
	return 0
}
