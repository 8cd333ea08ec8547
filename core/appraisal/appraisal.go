// Package appraisal prices the hourly behaviour of a sized system over a
// simulation period.
package appraisal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/clover/core/finance"
	"github.com/kilianp07/clover/core/model"
)

const hoursPerYear = 365 * 24

// Appraisal is the financial outcome of one simulation period. Costs are
// discounted to year zero except Equipment, which itemises the undiscounted
// purchase made at the start of the period.
type Appraisal struct {
	StartYear int            `json:"start_year"`
	EndYear   int            `json:"end_year"`
	Sizing    finance.Sizing `json:"sizing"`

	Equipment       finance.EquipmentCosts `json:"equipment"`
	EquipmentCost   float64                `json:"equipment_cost"`
	ConnectionsCost float64                `json:"connections_cost"`
	OMCost          float64                `json:"om_cost"`
	DieselFuelCost  float64                `json:"diesel_fuel_cost"`
	GridCost        float64                `json:"grid_cost"`
	InverterCost    float64                `json:"inverter_cost"`
	// KeroseneCost is what the community spends on kerosene lamps while the
	// system is down. It is not part of TotalCost.
	KeroseneCost float64 `json:"kerosene_cost"`
	TotalCost    float64 `json:"total_cost"`

	TotalEnergy      float64 `json:"total_energy_kwh"`
	DiscountedEnergy float64 `json:"discounted_energy_kwh"`
	// LCUE is nil when no energy was used.
	LCUE *float64 `json:"lcue,omitempty"`
}

// Appraise prices the usage of a system over [startYear, endYear). The usage
// series must cover exactly that period.
func Appraise(in finance.Inputs, loc model.Location, s finance.Sizing, u Usage, startYear, endYear int) (Appraisal, error) {
	a := Appraisal{StartYear: startYear, EndYear: endYear, Sizing: s}
	if startYear < 0 || endYear <= startYear {
		return a, fmt.Errorf("invalid period %d-%d", startYear, endYear)
	}
	if loc.MaxYears > 0 && endYear > loc.MaxYears {
		return a, fmt.Errorf("end year %d exceeds max_years %d of %s", endYear, loc.MaxYears, loc.Name)
	}
	if err := in.Validate(); err != nil {
		return a, err
	}
	if err := checkUsage(u, (endYear-startYear)*hoursPerYear); err != nil {
		return a, err
	}

	var err error
	if a.Equipment, err = in.EquipmentCosts(s, startYear); err != nil {
		return a, fmt.Errorf("equipment: %w", err)
	}
	if a.EquipmentCost, err = in.DiscountedEquipmentCost(s, startYear); err != nil {
		return a, fmt.Errorf("equipment: %w", err)
	}
	a.ConnectionsCost = in.ConnectionsExpenditure(u.Households, startYear)
	if a.OMCost, err = in.TotalOM(s, startYear, endYear); err != nil {
		return a, fmt.Errorf("o&m: %w", err)
	}
	if a.DieselFuelCost, err = in.DieselFuelExpenditure(u.DieselFuel, startYear, endYear); err != nil {
		return a, fmt.Errorf("diesel fuel: %w", err)
	}
	if a.GridCost, err = in.Expenditure(model.Grid, u.GridEnergy, startYear, endYear); err != nil {
		return a, fmt.Errorf("grid: %w", err)
	}
	if a.KeroseneCost, err = in.Expenditure(model.Kerosene, u.KeroseneLamps, startYear, endYear); err != nil {
		return a, fmt.Errorf("kerosene: %w", err)
	}
	maxYears := loc.MaxYears
	if maxYears == 0 {
		maxYears = endYear
	}
	yearly := YearlyMaxLoad(u.Load, startYear, maxYears)
	if a.InverterCost, err = in.IndependentExpenditure(maxYears, yearly, startYear, endYear); err != nil {
		return a, fmt.Errorf("inverter: %w", err)
	}
	a.TotalCost = a.EquipmentCost + a.ConnectionsCost + a.OMCost + a.DieselFuelCost + a.GridCost + a.InverterCost

	a.TotalEnergy = floats.Sum(u.TotalEnergyUsed)
	daily, err := finance.HourlyToDaily(u.TotalEnergyUsed)
	if err != nil {
		return a, err
	}
	if a.DiscountedEnergy, err = in.DiscountedTotal(daily, startYear, endYear); err != nil {
		return a, fmt.Errorf("energy: %w", err)
	}
	if lcue := finance.LCUE(a.TotalCost, a.DiscountedEnergy); !math.IsNaN(lcue) {
		a.LCUE = &lcue
	}
	return a, nil
}

// YearlyMaxLoad returns the peak load of each year of the location lifetime.
// The series starts at startYear; years it does not cover stay at zero.
func YearlyMaxLoad(load []float64, startYear, maxYears int) []float64 {
	out := make([]float64, maxYears)
	for i := 0; i*hoursPerYear < len(load); i++ {
		year := startYear + i
		if year >= maxYears {
			break
		}
		end := (i + 1) * hoursPerYear
		if end > len(load) {
			end = len(load)
		}
		out[year] = floats.Max(load[i*hoursPerYear : end])
	}
	return out
}

func checkUsage(u Usage, hours int) error {
	for name, series := range map[string][]float64{
		ColumnDieselFuel:      u.DieselFuel,
		ColumnGridEnergy:      u.GridEnergy,
		ColumnKeroseneLamps:   u.KeroseneLamps,
		ColumnHouseholds:      u.Households,
		ColumnTotalEnergyUsed: u.TotalEnergyUsed,
		ColumnLoad:            u.Load,
	} {
		if len(series) != hours {
			return fmt.Errorf("%s has %d hours, period needs %d: %w", name, len(series), hours, finance.ErrLengthMismatch)
		}
	}
	return nil
}
