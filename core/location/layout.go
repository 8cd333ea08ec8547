package location

import (
	"path/filepath"
)

// LocationsDir holds one directory per location under the CLOVER root.
const LocationsDir = "locations"

// Input files, relative to a location directory.
const (
	LocationInputsFile   = "inputs/location_data/location_inputs.yaml"
	FinanceInputsFile    = "inputs/impact/finance_inputs.yaml"
	EnergySystemFile     = "inputs/simulation/energy_system.yaml"
	GenerationInputsFile = "inputs/generation/generation_inputs.yaml"
	GridTimesFile        = "inputs/generation/grid_times.csv"

	BatteryInputsFile   = "inputs/simulation/battery_inputs.yaml"
	TankInputsFile      = "inputs/simulation/tank_inputs.yaml"
	ExchangerInputsFile = "inputs/simulation/exchanger_inputs.yaml"
	WaterPumpInputsFile = "inputs/simulation/water_pump_inputs.yaml"
	DieselInputsFile    = "inputs/generation/diesel_inputs.yaml"
	SolarInputsFile     = "inputs/generation/solar_generation_inputs.yaml"
)

// Generated data, relative to a location directory.
const (
	ProfilesDir   = "inputs/generation/profiles"
	GridStatusDir = "inputs/generation/grid"
	OutputsDir    = "outputs"
)

// ComponentFiles lists the component definition files in load order.
var ComponentFiles = []string{
	BatteryInputsFile,
	DieselInputsFile,
	SolarInputsFile,
	TankInputsFile,
	ExchangerInputsFile,
	WaterPumpInputsFile,
}

// Layout resolves the files of one location.
type Layout struct {
	Dir string
}

// At returns the layout of the named location under root.
func At(root, name string) Layout {
	return Layout{Dir: filepath.Join(root, LocationsDir, name)}
}

// Path joins rel to the location directory.
func (l Layout) Path(rel string) string {
	return filepath.Join(l.Dir, filepath.FromSlash(rel))
}

// Name is the location name, taken from the directory.
func (l Layout) Name() string { return filepath.Base(l.Dir) }
