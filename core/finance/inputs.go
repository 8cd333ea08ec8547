package finance

import (
	"errors"
	"fmt"

	"github.com/kilianp07/clover/core/model"
)

// ErrMissingCosts is returned when a component is sized but no cost
// information exists for it.
var ErrMissingCosts = errors.New("missing financial input information")

// Misc holds the capacity-related costs not tied to one component.
type Misc struct {
	// CapacityCost is charged per kW of PV and diesel capacity.
	CapacityCost float64 `json:"capacity_cost" yaml:"capacity_cost"`
	// FixedCost is charged once, when the system is first installed.
	FixedCost float64 `json:"fixed_cost" yaml:"fixed_cost"`
}

// Inputs is the decoded finance_inputs.yaml. Any field absent from the file
// stays at zero.
type Inputs struct {
	// DiscountRate is a fraction between 0 and 1.
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`
	// GeneralOM is the yearly O&M cost of the whole system.
	GeneralOM float64 `json:"general_o&m" yaml:"general_o&m"`
	Misc      Misc    `json:"misc" yaml:"misc"`

	BOS        model.Costs `json:"bos" yaml:"bos"`
	DieselFuel model.Costs `json:"diesel_fuel" yaml:"diesel_fuel"`
	Grid       model.Costs `json:"grid" yaml:"grid"`
	Households model.Costs `json:"households" yaml:"households"`
	Inverter   model.Costs `json:"inverter" yaml:"inverter"`
	Kerosene   model.Costs `json:"kerosene" yaml:"kerosene"`

	// Per-device costs usually come from the component definition files
	// through ApplySystemCosts. Values set here take precedence.
	DieselGenerator *model.Costs `json:"diesel_generator,omitempty" yaml:"diesel_generator,omitempty"`
	PV              *model.Costs `json:"pv,omitempty" yaml:"pv,omitempty"`
	PVT             *model.Costs `json:"pv_t,omitempty" yaml:"pv_t,omitempty"`
	Storage         *model.Costs `json:"storage,omitempty" yaml:"storage,omitempty"`
	CleanWaterTank  *model.Costs `json:"clean_water_tank,omitempty" yaml:"clean_water_tank,omitempty"`
	HotWaterTank    *model.Costs `json:"hot_water_tank,omitempty" yaml:"hot_water_tank,omitempty"`
}

// Validate checks the discount rate and the inverter replacement settings.
// Cost decreases are not bounded: a negative value is an escalation.
func (in Inputs) Validate() error {
	if err := model.CheckFraction("discount_rate", in.DiscountRate); err != nil {
		return err
	}
	if in.Inverter.Lifetime < 0 {
		return fmt.Errorf("inverter.lifetime must not be negative, got %d", in.Inverter.Lifetime)
	}
	if in.Inverter.SizeIncrement < 0 {
		return fmt.Errorf("inverter.size_increment must not be negative, got %v", in.Inverter.SizeIncrement)
	}
	return nil
}

// ApplySystemCosts fills the per-device cost blocks that the finance file
// leaves unset from the costs carried by the resolved component definitions.
func (in *Inputs) ApplySystemCosts(costs map[model.ImpactingComponent]model.Costs) {
	fill := func(dst **model.Costs, c model.ImpactingComponent) {
		if *dst != nil {
			return
		}
		if v, ok := costs[c]; ok {
			v := v
			*dst = &v
		}
	}
	fill(&in.DieselGenerator, model.Diesel)
	fill(&in.PV, model.PV)
	fill(&in.PVT, model.PVT)
	fill(&in.Storage, model.Storage)
	fill(&in.CleanWaterTank, model.CleanWaterTank)
	fill(&in.HotWaterTank, model.HotWaterTank)
}

// CostsFor returns the cost block of a component and whether it was provided.
func (in Inputs) CostsFor(c model.ImpactingComponent) (model.Costs, bool) {
	deref := func(p *model.Costs) (model.Costs, bool) {
		if p == nil {
			return model.Costs{}, false
		}
		return *p, true
	}
	switch c {
	case model.BOS:
		return in.BOS, true
	case model.DieselFuel:
		return in.DieselFuel, true
	case model.Grid:
		return in.Grid, true
	case model.Households:
		return in.Households, true
	case model.Inverter:
		return in.Inverter, true
	case model.Kerosene:
		return in.Kerosene, true
	case model.Misc:
		return model.Costs{Cost: in.Misc.CapacityCost}, true
	case model.Diesel:
		return deref(in.DieselGenerator)
	case model.PV:
		return deref(in.PV)
	case model.PVT:
		return deref(in.PVT)
	case model.Storage:
		return deref(in.Storage)
	case model.CleanWaterTank:
		return deref(in.CleanWaterTank)
	case model.HotWaterTank:
		return deref(in.HotWaterTank)
	}
	return model.Costs{}, false
}

// requiredCosts returns the costs of an optional category, failing when the
// category is in use but has no financial information.
func (in Inputs) requiredCosts(c model.ImpactingComponent, size float64) (model.Costs, error) {
	costs, ok := in.CostsFor(c)
	if !ok && size > 0 {
		return model.Costs{}, fmt.Errorf("%s: %w", c, ErrMissingCosts)
	}
	return costs, nil
}
