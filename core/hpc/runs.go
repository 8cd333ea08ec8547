// Package hpc describes batch runs executed as an HPC array job and gathers
// their outputs once the job has finished.
package hpc

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/clover/core/finance"
)

// ErrRunIndex is returned when a run index falls outside the runs file.
var ErrRunIndex = errors.New("run index out of range")

// ArrayIndexEnv is set by PBS to the 1-based index of an array sub-job.
const ArrayIndexEnv = "PBS_ARRAY_INDEX"

// Run is one entry of hpc_runs.yaml.
type Run struct {
	Location        string  `yaml:"location" json:"location"`
	PVSystemSize    float64 `yaml:"pv_system_size" json:"pv_system_size"`
	PVTSystemSize   float64 `yaml:"pvt_system_size" json:"pvt_system_size"`
	StorageSize     float64 `yaml:"storage_size" json:"storage_size"`
	DieselSize      float64 `yaml:"diesel_size" json:"diesel_size"`
	CleanWaterTanks float64 `yaml:"clean_water_tanks" json:"clean_water_tanks"`
	HotWaterTanks   float64 `yaml:"hot_water_tanks" json:"hot_water_tanks"`
	// Usage is the hourly usage CSV, relative to the location directory
	// unless absolute.
	Usage     string `yaml:"usage" json:"usage"`
	StartYear int    `yaml:"start_year" json:"start_year"`
	EndYear   int    `yaml:"end_year" json:"end_year"`
	// Output names the files written to the location's outputs directory.
	Output string `yaml:"output" json:"output"`
}

// Sizing returns the system sizes of the run.
func (r Run) Sizing() finance.Sizing {
	return finance.Sizing{
		PV:              r.PVSystemSize,
		PVT:             r.PVTSystemSize,
		Storage:         r.StorageSize,
		Diesel:          r.DieselSize,
		CleanWaterTanks: r.CleanWaterTanks,
		HotWaterTanks:   r.HotWaterTanks,
	}
}

// Validate checks the fields every run needs.
func (r Run) Validate() error {
	if r.Location == "" {
		return fmt.Errorf("location is required")
	}
	if r.Usage == "" {
		return fmt.Errorf("usage is required")
	}
	if r.Output == "" {
		return fmt.Errorf("output is required")
	}
	if r.StartYear < 0 || r.EndYear <= r.StartYear {
		return fmt.Errorf("invalid period %d-%d", r.StartYear, r.EndYear)
	}
	return r.Sizing().Validate()
}

// LoadRuns reads a runs file: a YAML list of runs.
func LoadRuns(path string) ([]Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var runs []Run
	if err := yaml.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, r := range runs {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: run %d: %w", path, i+1, err)
		}
	}
	return runs, nil
}

// Select returns the run at the 1-based index.
func Select(runs []Run, index int) (Run, error) {
	if index < 1 || index > len(runs) {
		return Run{}, fmt.Errorf("%w: %d not in [1, %d]", ErrRunIndex, index, len(runs))
	}
	return runs[index-1], nil
}

// IndexFromEnv reads the array index set by the scheduler. It returns 0 and
// no error when the variable is unset.
func IndexFromEnv() (int, error) {
	v, ok := os.LookupEnv(ArrayIndexEnv)
	if !ok || v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", ArrayIndexEnv, v, err)
	}
	return i, nil
}
