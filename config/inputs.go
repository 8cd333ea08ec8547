package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/clover/core/component"
	"github.com/kilianp07/clover/core/energysystem"
	"github.com/kilianp07/clover/core/finance"
	"github.com/kilianp07/clover/core/generation"
	"github.com/kilianp07/clover/core/grid"
	"github.com/kilianp07/clover/core/location"
	"github.com/kilianp07/clover/core/model"
)

// Inputs gathers every input file of one location, decoded and checked.
type Inputs struct {
	Layout       location.Layout
	Location     model.Location
	Finance      finance.Inputs
	EnergySystem energysystem.Config
	Generation   generation.Inputs
	Components   component.Definitions
	// GridTimes is nil when the location has no grid_times.csv.
	GridTimes grid.Times

	Catalog *component.Catalog
	System  *energysystem.System
}

// LoadInputs reads the inputs of the location at l, resolves the energy
// system against the component definitions and merges the component costs
// into the finance inputs.
func LoadInputs(l location.Layout) (*Inputs, error) {
	in := &Inputs{Layout: l}
	if err := loadYAML(l.Path(location.LocationInputsFile), &in.Location); err != nil {
		return nil, err
	}
	if in.Location.Name == "" {
		in.Location.Name = l.Name()
	}
	if err := in.Location.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", location.LocationInputsFile, err)
	}
	if err := loadYAML(l.Path(location.FinanceInputsFile), &in.Finance); err != nil {
		return nil, err
	}
	if err := in.Finance.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", location.FinanceInputsFile, err)
	}
	if err := loadYAML(l.Path(location.EnergySystemFile), &in.EnergySystem); err != nil {
		return nil, err
	}
	if err := loadYAML(l.Path(location.GenerationInputsFile), &in.Generation); err != nil {
		return nil, err
	}
	if err := in.Generation.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", location.GenerationInputsFile, err)
	}

	defs, err := loadComponents(l)
	if err != nil {
		return nil, err
	}
	in.Components = defs
	if in.Catalog, err = component.Build(defs); err != nil {
		return nil, err
	}
	if in.System, err = in.EnergySystem.Resolve(in.Catalog); err != nil {
		return nil, fmt.Errorf("%s: %w", location.EnergySystemFile, err)
	}
	in.Finance.ApplySystemCosts(in.System.Costs())

	times, err := grid.LoadTimes(l.Path(location.GridTimesFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		in.GridTimes = times
	}
	return in, nil
}

// loadComponents merges every component definition file present. Each file
// contributes its own top-level key, e.g. batteries or panels.
func loadComponents(l location.Layout) (component.Definitions, error) {
	var defs component.Definitions
	k := koanf.New(".")
	for _, rel := range location.ComponentFiles {
		path := l.Path(rel)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return defs, fmt.Errorf("load %s: %w", rel, err)
		}
	}
	if err := k.UnmarshalWithConf("", &defs, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return defs, fmt.Errorf("component definitions: %w", err)
	}
	return defs, nil
}

func loadYAML(path string, out any) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", out, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
