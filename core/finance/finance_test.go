package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clover/core/model"
)

func costs(c model.Costs) *model.Costs { return &c }

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComponentCostDecrease(t *testing.T) {
	assert.InDelta(t, 200, ComponentCost(100, 10, 2, 0), 1e-9)
	assert.InDelta(t, 162, ComponentCost(100, 10, 2, 2), 1e-9)
	// A negative decrease is an escalation.
	assert.InDelta(t, 220, ComponentCost(100, -10, 2, 1), 1e-9)
	assert.InDelta(t, 45, InstallationCost(3, 15, 0, 4), 1e-9)
}

func TestDiscountedFraction(t *testing.T) {
	f := DiscountedFraction(0.1, 0, 1)
	require.Len(t, f, 365)
	assert.Equal(t, 1.0, f[0])
	rd := DailyDiscountRate(0.1)
	assert.InDelta(t, math.Pow(1+rd, -364), f[364], 1e-12)
	assert.InDelta(t, 1/1.1, math.Pow(1+rd, -365), 1e-12)

	f = DiscountedFraction(0.1, 2, 3)
	require.Len(t, f, 365)
	assert.InDelta(t, math.Pow(1+rd, -730), f[0], 1e-12)

	assert.Empty(t, DiscountedFraction(0.1, 3, 3))
}

func TestDiscountedTotalLengthMismatch(t *testing.T) {
	in := Inputs{DiscountRate: 0.05}
	_, err := in.DiscountedTotal(repeat(1, 10), 0, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	total, err := in.DiscountedTotal(repeat(1, 365), 0, 1)
	require.NoError(t, err)
	assert.Less(t, total, 365.0)
	assert.Greater(t, total, 365/1.05)
}

func TestHourlyToDaily(t *testing.T) {
	daily, err := HourlyToDaily(repeat(0.5, 48))
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 12}, daily)

	_, err = HourlyToDaily(repeat(1, 25))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestEquipmentCosts(t *testing.T) {
	in := Inputs{
		BOS:             model.Costs{Cost: 20},
		PV:              costs(model.Costs{Cost: 100, InstallationCost: 10}),
		DieselGenerator: costs(model.Costs{Cost: 50, InstallationCost: 5}),
		Storage:         costs(model.Costs{Cost: 30}),
		Misc:            Misc{CapacityCost: 1, FixedCost: 7},
	}
	s := Sizing{PV: 2, Diesel: 3, Storage: 4}

	e, err := in.EquipmentCosts(s, 0)
	require.NoError(t, err)
	assert.InDelta(t, 40, e.BOS, 1e-9)
	assert.InDelta(t, 200, e.PV, 1e-9)
	assert.InDelta(t, 150, e.Diesel, 1e-9)
	assert.InDelta(t, 120, e.Storage, 1e-9)
	// Diesel installation is charged on the diesel capacity.
	assert.InDelta(t, 35, e.Installation, 1e-9)
	assert.InDelta(t, 12, e.Misc, 1e-9)
	assert.InDelta(t, 557, e.Total(), 1e-9)

	later, err := in.TotalEquipmentCost(s, 1)
	require.NoError(t, err)
	assert.InDelta(t, 550, later, 1e-9, "fixed misc cost is only paid at installation")
}

func TestDiscountedEquipmentCost(t *testing.T) {
	in := Inputs{DiscountRate: 0.1, PV: costs(model.Costs{Cost: 100})}
	got, err := in.DiscountedEquipmentCost(Sizing{PV: 1}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 81, got, 1e-9)
}

func TestEquipmentCostsMissingTankCosts(t *testing.T) {
	in := Inputs{}
	_, err := in.TotalEquipmentCost(Sizing{CleanWaterTanks: 1}, 0)
	assert.ErrorIs(t, err, ErrMissingCosts)
	_, err = in.TotalEquipmentCost(Sizing{PVT: 1}, 0)
	assert.ErrorIs(t, err, ErrMissingCosts)

	// Unsized optional categories need no costs.
	_, err = in.TotalEquipmentCost(Sizing{PV: 1}, 0)
	assert.NoError(t, err)

	_, err = in.TotalEquipmentCost(Sizing{PV: -1}, 0)
	assert.Error(t, err)
}

func TestPVTUsesItsOwnSize(t *testing.T) {
	in := Inputs{PVT: costs(model.Costs{Cost: 10, InstallationCost: 1})}
	e, err := in.EquipmentCosts(Sizing{PV: 5, PVT: 2}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 20, e.PVT, 1e-9)
	assert.InDelta(t, 2, e.Installation, 1e-9)
}

func TestConnectionsExpenditure(t *testing.T) {
	in := Inputs{Households: model.Costs{ConnectionCost: 5}}
	assert.InDelta(t, 25, in.ConnectionsExpenditure([]float64{10, 12, 15}, 0), 1e-9)
	assert.Zero(t, in.ConnectionsExpenditure(nil, 0))

	in.DiscountRate = 0.5
	assert.InDelta(t, 12.5, in.ConnectionsExpenditure([]float64{10, 15}, 1), 1e-9)
}

func TestDieselFuelExpenditure(t *testing.T) {
	in := Inputs{DieselFuel: model.Costs{Cost: 2}}
	got, err := in.DieselFuelExpenditure(repeat(1, 365*24), 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 17520, got, 1e-6)

	in.DieselFuel.CostDecrease = 5
	cheaper, err := in.DieselFuelExpenditure(repeat(1, 365*24), 0, 1)
	require.NoError(t, err)
	assert.Less(t, cheaper, got)

	_, err = in.DieselFuelExpenditure(repeat(1, 24), 0, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestExpenditure(t *testing.T) {
	in := Inputs{Grid: model.Costs{Cost: 0.1}, Kerosene: model.Costs{Cost: 0.5}}
	grid, err := in.Expenditure(model.Grid, repeat(1, 365*24), 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 876, grid, 1e-6)

	kerosene, err := in.Expenditure(model.Kerosene, repeat(2, 365*24), 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 8760, kerosene, 1e-6)
}

func TestInverterExpenditure(t *testing.T) {
	in := Inputs{Inverter: model.Costs{Cost: 100, Lifetime: 5, SizeIncrement: 1}}
	load := []float64{1000, 2500, 900, 1200, 800, 4200, 3000, 100, 0, 10}

	total, err := in.IndependentExpenditure(10, load, 0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 800, total, 1e-9)

	first, err := in.IndependentExpenditure(10, load, 0, 5)
	require.NoError(t, err)
	assert.InDelta(t, 300, first, 1e-9)

	none, err := in.IndependentExpenditure(10, load, 1, 4)
	require.NoError(t, err)
	assert.Zero(t, none)

	in.Inverter.Lifetime = 0
	_, err = in.IndependentExpenditure(10, load, 0, 10)
	assert.Error(t, err)

	free := Inputs{}
	got, err := free.IndependentExpenditure(10, load, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestTotalOM(t *testing.T) {
	in := Inputs{
		GeneralOM: 100,
		PV:        costs(model.Costs{OM: 365}),
	}
	got, err := in.TotalOM(Sizing{PV: 2}, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 830, got, 1e-6)

	_, err = in.TotalOM(Sizing{HotWaterTanks: 1}, 0, 1)
	assert.ErrorIs(t, err, ErrMissingCosts)

	zero, err := in.TotalOM(Sizing{}, 2, 2)
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestLCUE(t *testing.T) {
	assert.Equal(t, 2.0, LCUE(100, 50))
	assert.True(t, math.IsNaN(LCUE(100, 0)))
}

func TestApplySystemCostsKeepsExplicitValues(t *testing.T) {
	in := Inputs{PV: costs(model.Costs{Cost: 1})}
	in.ApplySystemCosts(map[model.ImpactingComponent]model.Costs{
		model.PV:      {Cost: 99},
		model.Storage: {Cost: 42},
	})
	pv, ok := in.CostsFor(model.PV)
	require.True(t, ok)
	assert.Equal(t, 1.0, pv.Cost)
	storage, ok := in.CostsFor(model.Storage)
	require.True(t, ok)
	assert.Equal(t, 42.0, storage.Cost)
	_, ok = in.CostsFor(model.HotWaterTank)
	assert.False(t, ok)
}

func TestInputsValidate(t *testing.T) {
	assert.NoError(t, Inputs{DiscountRate: 0.1}.Validate())
	assert.ErrorIs(t, Inputs{DiscountRate: 1.5}.Validate(), model.ErrOutOfRange)
	assert.Error(t, Inputs{Inverter: model.Costs{Lifetime: -1}}.Validate())
}
