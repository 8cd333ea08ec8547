// Package finance assesses the costs of a system from the finance inputs and
// the system sizing. Costs are undiscounted unless the function name says
// otherwise; discounting works at a daily resolution over 365-day years.
package finance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/clover/core/model"
)

const (
	daysPerYear  = 365
	hoursPerDay  = 24
	hoursPerYear = daysPerYear * hoursPerDay
)

// ErrLengthMismatch is returned when a series does not cover the requested
// simulation period.
var ErrLengthMismatch = errors.New("series length does not match simulation period")

// ComponentCost is size * cost * (1 - 0.01*decrease)^year.
func ComponentCost(cost, decrease, size float64, installationYear int) float64 {
	return cost * size * math.Pow(1-0.01*decrease, float64(installationYear))
}

// InstallationCost has the same shape as ComponentCost, applied to the
// installation cost of a component.
func InstallationCost(size, cost, decrease float64, installationYear int) float64 {
	return size * cost * math.Pow(1-0.01*decrease, float64(installationYear))
}

// DailyDiscountRate converts a yearly discount rate into its daily equivalent.
func DailyDiscountRate(rate float64) float64 {
	return math.Pow(1+rate, 1.0/daysPerYear) - 1
}

// DiscountedFraction returns the discount factor of each day between the
// start of startYear and the start of endYear.
func DiscountedFraction(rate float64, startYear, endYear int) []float64 {
	startDay, endDay := startYear*daysPerYear, endYear*daysPerYear
	if endDay <= startDay {
		return nil
	}
	denominator := 1 + DailyDiscountRate(rate)
	out := make([]float64, endDay-startDay)
	for i := range out {
		out[i] = math.Pow(denominator, -float64(startDay+i))
	}
	return out
}

// HourlyToDaily sums an hourly series into days.
func HourlyToDaily(hourly []float64) ([]float64, error) {
	if len(hourly)%hoursPerDay != 0 {
		return nil, fmt.Errorf("%d hourly values do not make whole days: %w", len(hourly), ErrLengthMismatch)
	}
	daily := make([]float64, len(hourly)/hoursPerDay)
	for d := range daily {
		daily[d] = floats.Sum(hourly[d*hoursPerDay : (d+1)*hoursPerDay])
	}
	return daily, nil
}

// DiscountedTotal discounts a daily series covering [startYear, endYear) and
// sums it. It is used for costs and for energy alike.
func (in Inputs) DiscountedTotal(daily []float64, startYear, endYear int) (float64, error) {
	fraction := DiscountedFraction(in.DiscountRate, startYear, endYear)
	if len(daily) != len(fraction) {
		return 0, fmt.Errorf("%d daily values for years %d-%d (%d days): %w",
			len(daily), startYear, endYear, len(fraction), ErrLengthMismatch)
	}
	if len(daily) == 0 {
		return 0, nil
	}
	return floats.Dot(fraction, daily), nil
}

// discountFactor is the yearly approximation used for one-off expenditure.
func (in Inputs) discountFactor(year int) float64 {
	return math.Pow(1-in.DiscountRate, float64(year))
}

// EquipmentCosts breaks down the undiscounted cost of new equipment.
type EquipmentCosts struct {
	BOS            float64 `json:"bos"`
	CleanWaterTank float64 `json:"clean_water_tank"`
	Diesel         float64 `json:"diesel"`
	HotWaterTank   float64 `json:"hot_water_tank"`
	Misc           float64 `json:"misc"`
	PV             float64 `json:"pv"`
	PVT            float64 `json:"pv_t"`
	Storage        float64 `json:"storage"`
	Installation   float64 `json:"installation"`
}

// Total sums every entry.
func (e EquipmentCosts) Total() float64 {
	return e.BOS + e.CleanWaterTank + e.Diesel + e.HotWaterTank + e.Misc + e.PV + e.PVT + e.Storage + e.Installation
}

// EquipmentCosts computes the cost of the equipment installed in the given
// year. Tanks and PV-T panels need cost information as soon as they are
// sized; the other components fall back to zero.
func (in Inputs) EquipmentCosts(s Sizing, installationYear int) (EquipmentCosts, error) {
	var out EquipmentCosts
	if err := s.Validate(); err != nil {
		return out, err
	}
	y := installationYear

	out.BOS = ComponentCost(in.BOS.Cost, in.BOS.CostDecrease, s.PV, y)

	cw, err := in.requiredCosts(model.CleanWaterTank, s.CleanWaterTanks)
	if err != nil {
		return out, err
	}
	if s.CleanWaterTanks > 0 {
		out.CleanWaterTank = ComponentCost(cw.Cost, cw.CostDecrease, s.CleanWaterTanks, y)
		out.Installation += InstallationCost(s.CleanWaterTanks, cw.InstallationCost, cw.InstallationCostDecrease, y)
	}

	diesel, _ := in.CostsFor(model.Diesel)
	out.Diesel = ComponentCost(diesel.Cost, diesel.CostDecrease, s.Diesel, y)
	out.Installation += InstallationCost(s.Diesel, diesel.InstallationCost, diesel.InstallationCostDecrease, y)

	hw, err := in.requiredCosts(model.HotWaterTank, s.HotWaterTanks)
	if err != nil {
		return out, err
	}
	if s.HotWaterTanks > 0 {
		out.HotWaterTank = ComponentCost(hw.Cost, hw.CostDecrease, s.HotWaterTanks, y)
		out.Installation += InstallationCost(s.HotWaterTanks, hw.InstallationCost, hw.InstallationCostDecrease, y)
	}

	pv, _ := in.CostsFor(model.PV)
	out.PV = ComponentCost(pv.Cost, pv.CostDecrease, s.PV, y)
	out.Installation += InstallationCost(s.PV, pv.InstallationCost, pv.InstallationCostDecrease, y)

	pvt, err := in.requiredCosts(model.PVT, s.PVT)
	if err != nil {
		return out, err
	}
	if s.PVT > 0 {
		out.PVT = ComponentCost(pvt.Cost, pvt.CostDecrease, s.PVT, y)
		out.Installation += InstallationCost(s.PVT, pvt.InstallationCost, pvt.InstallationCostDecrease, y)
	}

	storage, _ := in.CostsFor(model.Storage)
	out.Storage = ComponentCost(storage.Cost, storage.CostDecrease, s.Storage, y)

	out.Misc = (s.PV + s.Diesel) * in.Misc.CapacityCost
	if y == 0 {
		out.Misc += in.Misc.FixedCost
	}
	return out, nil
}

// TotalEquipmentCost is the undiscounted sum of EquipmentCosts.
func (in Inputs) TotalEquipmentCost(s Sizing, installationYear int) (float64, error) {
	e, err := in.EquipmentCosts(s, installationYear)
	if err != nil {
		return 0, err
	}
	return e.Total(), nil
}

// DiscountedEquipmentCost discounts TotalEquipmentCost back to year zero.
func (in Inputs) DiscountedEquipmentCost(s Sizing, installationYear int) (float64, error) {
	total, err := in.TotalEquipmentCost(s, installationYear)
	if err != nil {
		return 0, err
	}
	return total * in.discountFactor(installationYear), nil
}

// ConnectionsExpenditure is the discounted cost of connecting the households
// that joined over the period covered by the series.
func (in Inputs) ConnectionsExpenditure(households []float64, installationYear int) float64 {
	if len(households) == 0 {
		return 0
	}
	newConnections := floats.Max(households) - floats.Min(households)
	return in.Households.ConnectionCost * newConnections * in.discountFactor(installationYear)
}

// DieselFuelExpenditure is the discounted cost of the hourly fuel usage (l).
// The fuel price moves every day following the yearly cost decrease; a
// negative decrease makes fuel dearer over time.
func (in Inputs) DieselFuelExpenditure(hourlyFuel []float64, startYear, endYear int) (float64, error) {
	daily, err := HourlyToDaily(hourlyFuel)
	if err != nil {
		return 0, err
	}
	startDay, endDay := startYear*daysPerYear, endYear*daysPerYear
	if len(daily) != endDay-startDay {
		return 0, fmt.Errorf("diesel fuel: %d days for years %d-%d: %w", len(daily), startYear, endYear, ErrLengthMismatch)
	}
	ry := 0.01 * in.DieselFuel.CostDecrease
	rd := math.Pow(1+ry, 1.0/daysPerYear) - 1
	cost := make([]float64, len(daily))
	for i := range daily {
		cost[i] = daily[i] * in.DieselFuel.Cost * math.Pow(1-rd, float64(startDay+i))
	}
	return in.DiscountedTotal(cost, startYear, endYear)
}

// Expenditure is the discounted cost of an hourly usage series priced at the
// component's unit cost, e.g. grid energy or kerosene lamps.
func (in Inputs) Expenditure(c model.ImpactingComponent, hourlyUsage []float64, startYear, endYear int) (float64, error) {
	costs, _ := in.CostsFor(c)
	hourlyCost := make([]float64, len(hourlyUsage))
	floats.ScaleTo(hourlyCost, costs.Cost, hourlyUsage)
	daily, err := HourlyToDaily(hourlyCost)
	if err != nil {
		return 0, err
	}
	return in.DiscountedTotal(daily, startYear, endYear)
}

// IndependentExpenditure is the discounted cost of equipment bought
// independently of the simulation periods. Only inverters fall in this class.
func (in Inputs) IndependentExpenditure(maxYears int, yearlyMaxLoad []float64, startYear, endYear int) (float64, error) {
	return in.inverterExpenditure(maxYears, yearlyMaxLoad, startYear, endYear)
}

// inverterExpenditure sizes an inverter at every replacement from the peak
// load (W) of the years it will serve, rounded up to the size increment.
func (in Inputs) inverterExpenditure(maxYears int, yearlyMaxLoad []float64, startYear, endYear int) (float64, error) {
	inv := in.Inverter
	if inv.Cost == 0 {
		return 0, nil
	}
	if inv.Lifetime <= 0 || inv.SizeIncrement <= 0 {
		return 0, fmt.Errorf("inverter: lifetime and size_increment must be positive when a cost is set")
	}
	var total float64
	for year := 0; year < maxYears; year += inv.Lifetime {
		if year < startYear || year >= endYear {
			continue
		}
		end := year + inv.Lifetime
		if end > len(yearlyMaxLoad) {
			end = len(yearlyMaxLoad)
		}
		var peak float64
		if year < end {
			peak = floats.Max(yearlyMaxLoad[year:end])
		}
		size := math.Ceil(0.001*peak/inv.SizeIncrement) * inv.SizeIncrement
		unit := inv.Cost * math.Pow(1-0.01*inv.CostDecrease, float64(year))
		total += in.discountFactor(year) * size * unit
	}
	return math.Round(total*100) / 100, nil
}

// componentOM discounts a constant daily O&M cost over the period.
func (in Inputs) componentOM(om, size float64, startYear, endYear int) (float64, error) {
	days := (endYear - startYear) * daysPerYear
	if days <= 0 {
		return 0, nil
	}
	daily := make([]float64, days)
	for i := range daily {
		daily[i] = size * om / daysPerYear
	}
	return in.DiscountedTotal(daily, startYear, endYear)
}

// TotalOM is the discounted O&M cost of every installed component plus the
// general O&M of the system over the period.
func (in Inputs) TotalOM(s Sizing, startYear, endYear int) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	type entry struct {
		c    model.ImpactingComponent
		size float64
	}
	var total float64
	for _, e := range []entry{
		{model.CleanWaterTank, s.CleanWaterTanks},
		{model.Diesel, s.Diesel},
		{model.HotWaterTank, s.HotWaterTanks},
		{model.PV, s.PV},
		{model.PVT, s.PVT},
		{model.Storage, s.Storage},
	} {
		costs, err := in.requiredCosts(e.c, e.size)
		if err != nil {
			return 0, err
		}
		if e.size == 0 {
			continue
		}
		om, err := in.componentOM(costs.OM, e.size, startYear, endYear)
		if err != nil {
			return 0, fmt.Errorf("%s o&m: %w", e.c, err)
		}
		total += om
	}
	general, err := in.componentOM(in.GeneralOM, 1, startYear, endYear)
	if err != nil {
		return 0, fmt.Errorf("general o&m: %w", err)
	}
	return total + general, nil
}

// LCUE is the levelised cost of used electricity: discounted costs over
// discounted energy. It is NaN when no energy was used.
func LCUE(totalDiscountedCost, totalDiscountedEnergy float64) float64 {
	if totalDiscountedEnergy == 0 {
		return math.NaN()
	}
	return totalDiscountedCost / totalDiscountedEnergy
}
