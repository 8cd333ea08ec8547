package appraisal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Usage column headers.
const (
	ColumnDieselFuel      = "diesel_fuel_usage_l"
	ColumnGridEnergy      = "grid_energy_kwh"
	ColumnKeroseneLamps   = "kerosene_lamps"
	ColumnHouseholds      = "households"
	ColumnTotalEnergyUsed = "total_energy_used_kwh"
	ColumnLoad            = "load_w"
)

// Usage is the hourly behaviour of a simulated system over a period. Every
// series has one value per hour. A column missing from the input reads as
// zeros.
type Usage struct {
	DieselFuel      []float64
	GridEnergy      []float64
	KeroseneLamps   []float64
	Households      []float64
	TotalEnergyUsed []float64
	// Load is the power demand in W, used to size inverters.
	Load []float64
}

// ReadUsageFile reads a usage CSV from disk.
func ReadUsageFile(path string) (Usage, error) {
	f, err := os.Open(path)
	if err != nil {
		return Usage{}, fmt.Errorf("open usage: %w", err)
	}
	defer f.Close()
	u, err := ReadUsage(f)
	if err != nil {
		return Usage{}, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// ReadUsage parses a usage CSV with a header row. Unknown columns are
// ignored, so the full output of a simulation can be passed as is.
func ReadUsage(r io.Reader) (Usage, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Usage{}, fmt.Errorf("usage: empty input")
		}
		return Usage{}, fmt.Errorf("usage header: %w", err)
	}

	var u Usage
	targets := map[string]*[]float64{
		ColumnDieselFuel:      &u.DieselFuel,
		ColumnGridEnergy:      &u.GridEnergy,
		ColumnKeroseneLamps:   &u.KeroseneLamps,
		ColumnHouseholds:      &u.Households,
		ColumnTotalEnergyUsed: &u.TotalEnergyUsed,
		ColumnLoad:            &u.Load,
	}
	index := make(map[int]*[]float64)
	for i, h := range header {
		if dst, ok := targets[strings.TrimSpace(h)]; ok {
			index[i] = dst
		}
	}

	rows := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Usage{}, fmt.Errorf("usage row %d: %w", rows+1, err)
		}
		for i, dst := range index {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return Usage{}, fmt.Errorf("usage row %d column %q: %w", rows+1, header[i], err)
			}
			*dst = append(*dst, v)
		}
		rows++
	}
	for _, dst := range targets {
		if *dst == nil {
			*dst = make([]float64, rows)
		}
	}
	return u, nil
}
