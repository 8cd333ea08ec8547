package component

import (
	"fmt"

	"github.com/kilianp07/clover/core/model"
)

// Battery describes a storage technology. Charge levels, leakage and
// conversion efficiencies are fractions; C-rates are per hour.
type Battery struct {
	Name             string      `json:"name" yaml:"name"`
	MaximumCharge    float64     `json:"maximum_charge" yaml:"maximum_charge"`
	MinimumCharge    float64     `json:"minimum_charge" yaml:"minimum_charge"`
	Leakage          float64     `json:"leakage" yaml:"leakage"`
	ConversionIn     float64     `json:"conversion_in" yaml:"conversion_in"`
	ConversionOut    float64     `json:"conversion_out" yaml:"conversion_out"`
	CycleLifetime    int         `json:"cycle_lifetime" yaml:"cycle_lifetime"`
	LifetimeLoss     float64     `json:"lifetime_loss" yaml:"lifetime_loss"`
	CRateCharging    float64     `json:"c_rate_charging" yaml:"c_rate_charging"`
	CRateDischarging float64     `json:"c_rate_discharging" yaml:"c_rate_discharging"`
	Costs            model.Costs `json:"costs" yaml:"costs"`
}

func (b Battery) DefinitionName() string { return b.Name }

func (b Battery) Validate() error {
	for _, f := range []struct {
		key string
		v   float64
	}{
		{"maximum_charge", b.MaximumCharge},
		{"minimum_charge", b.MinimumCharge},
		{"leakage", b.Leakage},
		{"conversion_in", b.ConversionIn},
		{"conversion_out", b.ConversionOut},
		{"lifetime_loss", b.LifetimeLoss},
	} {
		if err := model.CheckFraction(f.key, f.v); err != nil {
			return err
		}
	}
	if b.MinimumCharge > b.MaximumCharge {
		return fmt.Errorf("minimum_charge %v exceeds maximum_charge %v", b.MinimumCharge, b.MaximumCharge)
	}
	if b.CycleLifetime < 0 {
		return fmt.Errorf("cycle_lifetime must not be negative")
	}
	if b.CRateCharging < 0 || b.CRateDischarging < 0 {
		return fmt.Errorf("c-rates must not be negative")
	}
	return nil
}

// DieselGenerator describes a backup generator. DieselConsumption is in
// litres per kWh and MinimumLoad is a fraction of rated capacity.
type DieselGenerator struct {
	Name              string      `json:"name" yaml:"name"`
	DieselConsumption float64     `json:"diesel_consumption" yaml:"diesel_consumption"`
	MinimumLoad       float64     `json:"minimum_load" yaml:"minimum_load"`
	Costs             model.Costs `json:"costs" yaml:"costs"`
}

func (d DieselGenerator) DefinitionName() string { return d.Name }

func (d DieselGenerator) Validate() error {
	if d.DieselConsumption < 0 {
		return fmt.Errorf("diesel_consumption must not be negative")
	}
	return model.CheckFraction("minimum_load", d.MinimumLoad)
}

// Panel types.
const (
	PanelPV  = "pv"
	PanelPVT = "pv_t"
)

// SolarPanel describes a PV or PV-T panel. Orientation angles are degrees.
type SolarPanel struct {
	Name                 string      `json:"name" yaml:"name"`
	Type                 string      `json:"type" yaml:"type"`
	AzimuthalOrientation float64     `json:"azimuthal_orientation" yaml:"azimuthal_orientation"`
	Tilt                 float64     `json:"tilt" yaml:"tilt"`
	Lifetime             int         `json:"lifetime" yaml:"lifetime"`
	ReferenceEfficiency  float64     `json:"reference_efficiency" yaml:"reference_efficiency"`
	ReferenceTemperature float64     `json:"reference_temperature" yaml:"reference_temperature"`
	ThermalCoefficient   float64     `json:"thermal_coefficient" yaml:"thermal_coefficient"`
	Costs                model.Costs `json:"costs" yaml:"costs"`
}

func (p SolarPanel) DefinitionName() string { return p.Name }

func (p SolarPanel) Validate() error {
	switch p.Type {
	case "", PanelPV, PanelPVT:
	default:
		return fmt.Errorf("unknown panel type %q", p.Type)
	}
	if err := model.CheckRange("azimuthal_orientation", p.AzimuthalOrientation, 0, 360); err != nil {
		return err
	}
	if err := model.CheckRange("tilt", p.Tilt, 0, 90); err != nil {
		return err
	}
	return model.CheckFraction("reference_efficiency", p.ReferenceEfficiency)
}

// IsPVT reports whether the panel also produces heat.
func (p SolarPanel) IsPVT() bool { return p.Type == PanelPVT }

// Tank describes a buffer, clean-water or hot-water tank. Mass is in kg (or
// litres of water), HeatCapacity in J/kg/K and HeatLoss is a fraction per hour.
type Tank struct {
	Name         string      `json:"name" yaml:"name"`
	Mass         float64     `json:"mass" yaml:"mass"`
	HeatCapacity float64     `json:"heat_capacity" yaml:"heat_capacity"`
	HeatLoss     float64     `json:"heat_loss" yaml:"heat_loss"`
	Costs        model.Costs `json:"costs" yaml:"costs"`
}

func (t Tank) DefinitionName() string { return t.Name }

func (t Tank) Validate() error {
	if t.Mass < 0 {
		return fmt.Errorf("mass must not be negative")
	}
	return model.CheckFraction("heat_loss", t.HeatLoss)
}

// HeatExchanger transfers heat between the PV-T loop and a tank.
type HeatExchanger struct {
	Name       string      `json:"name" yaml:"name"`
	Efficiency float64     `json:"efficiency" yaml:"efficiency"`
	Costs      model.Costs `json:"costs" yaml:"costs"`
}

func (h HeatExchanger) DefinitionName() string { return h.Name }

func (h HeatExchanger) Validate() error { return model.CheckFraction("efficiency", h.Efficiency) }

// WaterPump describes a pump. Consumption is in kW and Throughput in litres
// per hour.
type WaterPump struct {
	Name        string      `json:"name" yaml:"name"`
	Consumption float64     `json:"consumption" yaml:"consumption"`
	Throughput  float64     `json:"throughput" yaml:"throughput"`
	Costs       model.Costs `json:"costs" yaml:"costs"`
}

func (w WaterPump) DefinitionName() string { return w.Name }

func (w WaterPump) Validate() error {
	if w.Consumption < 0 || w.Throughput < 0 {
		return fmt.Errorf("consumption and throughput must not be negative")
	}
	return nil
}
