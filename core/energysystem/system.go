// Package energysystem holds the energy-system configuration: which named
// component definitions make up the system and how efficiently power moves
// between its AC and DC parts.
package energysystem

import (
	"fmt"

	"github.com/kilianp07/clover/core/component"
	"github.com/kilianp07/clover/core/model"
)

// Conversion holds the directional conversion efficiencies, each a fraction.
type Conversion struct {
	DCToAC float64 `json:"dc_to_ac" yaml:"dc_to_ac"`
	DCToDC float64 `json:"dc_to_dc" yaml:"dc_to_dc"`
	ACToDC float64 `json:"ac_to_dc" yaml:"ac_to_dc"`
	ACToAC float64 `json:"ac_to_ac" yaml:"ac_to_ac"`
}

// Config is the decoded energy_system.yaml. Component fields reference
// definitions by name; empty optional slots are inactive.
type Config struct {
	ACTransmissionEfficiency float64    `json:"ac_transmission_efficiency" yaml:"ac_transmission_efficiency"`
	DCTransmissionEfficiency float64    `json:"dc_transmission_efficiency" yaml:"dc_transmission_efficiency"`
	Battery                  string     `json:"battery" yaml:"battery"`
	DieselGenerator          string     `json:"diesel_generator" yaml:"diesel_generator"`
	PVPanel                  string     `json:"pv_panel" yaml:"pv_panel"`
	Conversion               Conversion `json:"conversion" yaml:"conversion"`

	BufferTank     string `json:"buffer_tank,omitempty" yaml:"buffer_tank,omitempty"`
	CleanWaterTank string `json:"clean_water_tank,omitempty" yaml:"clean_water_tank,omitempty"`
	HeatExchanger  string `json:"heat_exchanger,omitempty" yaml:"heat_exchanger,omitempty"`
	HotWaterTank   string `json:"hot_water_tank,omitempty" yaml:"hot_water_tank,omitempty"`
	PVTPanel       string `json:"pvt_panel,omitempty" yaml:"pvt_panel,omitempty"`
	WaterPump      string `json:"water_pump,omitempty" yaml:"water_pump,omitempty"`
}

// Validate checks every efficiency lies in [0, 1]. Component references are
// not checked here; Resolve reports those against the catalog.
func (c Config) Validate() error {
	for _, f := range []struct {
		key string
		v   float64
	}{
		{"ac_transmission_efficiency", c.ACTransmissionEfficiency},
		{"dc_transmission_efficiency", c.DCTransmissionEfficiency},
		{"conversion.dc_to_ac", c.Conversion.DCToAC},
		{"conversion.dc_to_dc", c.Conversion.DCToDC},
		{"conversion.ac_to_dc", c.Conversion.ACToDC},
		{"conversion.ac_to_ac", c.Conversion.ACToAC},
	} {
		if err := model.CheckFraction(f.key, f.v); err != nil {
			return err
		}
	}
	return nil
}

// System is a Config whose references have been resolved.
type System struct {
	Config          Config
	Battery         component.Battery
	DieselGenerator component.DieselGenerator
	PVPanel         component.SolarPanel

	BufferTank     *component.Tank
	CleanWaterTank *component.Tank
	HeatExchanger  *component.HeatExchanger
	HotWaterTank   *component.Tank
	PVTPanel       *component.SolarPanel
	WaterPump      *component.WaterPump
}

// Resolve looks every referenced definition up in the catalog. The three
// core slots are mandatory.
func (c Config) Resolve(cat *component.Catalog) (*System, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sys := &System{Config: c}
	var err error
	if sys.Battery, err = cat.Batteries.Resolve(c.Battery); err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	if sys.DieselGenerator, err = cat.DieselGenerators.Resolve(c.DieselGenerator); err != nil {
		return nil, fmt.Errorf("diesel_generator: %w", err)
	}
	if sys.PVPanel, err = cat.Panels.Resolve(c.PVPanel); err != nil {
		return nil, fmt.Errorf("pv_panel: %w", err)
	}
	if sys.PVPanel.IsPVT() {
		return nil, fmt.Errorf("pv_panel: %q is a pv_t panel", c.PVPanel)
	}
	if sys.BufferTank, err = optional(cat.Tanks, "buffer_tank", c.BufferTank); err != nil {
		return nil, err
	}
	if sys.CleanWaterTank, err = optional(cat.Tanks, "clean_water_tank", c.CleanWaterTank); err != nil {
		return nil, err
	}
	if sys.HotWaterTank, err = optional(cat.Tanks, "hot_water_tank", c.HotWaterTank); err != nil {
		return nil, err
	}
	if sys.HeatExchanger, err = optional(cat.Exchangers, "heat_exchanger", c.HeatExchanger); err != nil {
		return nil, err
	}
	if sys.PVTPanel, err = optional(cat.Panels, "pvt_panel", c.PVTPanel); err != nil {
		return nil, err
	}
	if sys.PVTPanel != nil && !sys.PVTPanel.IsPVT() {
		return nil, fmt.Errorf("pvt_panel: %q is not a pv_t panel", c.PVTPanel)
	}
	if sys.WaterPump, err = optional(cat.WaterPumps, "water_pump", c.WaterPump); err != nil {
		return nil, err
	}
	return sys, nil
}

func optional[T component.Definition](r *component.Registry[T], key, name string) (*T, error) {
	if name == "" {
		return nil, nil
	}
	def, err := r.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &def, nil
}

// Bus identifies one side of the system.
type Bus int

const (
	AC Bus = iota
	DC
)

// ChainEfficiency is the fraction of energy left after moving from one bus
// to another and being transmitted on the destination bus.
func (s *System) ChainEfficiency(from, to Bus) float64 {
	c := s.Config
	var conv float64
	switch {
	case from == DC && to == AC:
		conv = c.Conversion.DCToAC
	case from == DC && to == DC:
		conv = c.Conversion.DCToDC
	case from == AC && to == DC:
		conv = c.Conversion.ACToDC
	default:
		conv = c.Conversion.ACToAC
	}
	if to == AC {
		return conv * c.ACTransmissionEfficiency
	}
	return conv * c.DCTransmissionEfficiency
}

// Costs returns the cost block of each active component keyed by the
// impacting component it contributes to.
func (s *System) Costs() map[model.ImpactingComponent]model.Costs {
	out := map[model.ImpactingComponent]model.Costs{
		model.Storage: s.Battery.Costs,
		model.Diesel:  s.DieselGenerator.Costs,
		model.PV:      s.PVPanel.Costs,
	}
	if s.BufferTank != nil {
		out[model.BufferTank] = s.BufferTank.Costs
	}
	if s.CleanWaterTank != nil {
		out[model.CleanWaterTank] = s.CleanWaterTank.Costs
	}
	if s.HotWaterTank != nil {
		out[model.HotWaterTank] = s.HotWaterTank.Costs
	}
	if s.HeatExchanger != nil {
		out[model.HeatExchanger] = s.HeatExchanger.Costs
	}
	if s.PVTPanel != nil {
		out[model.PVT] = s.PVTPanel.Costs
	}
	return out
}
