package component

// Definitions is the decoded content of the component definition files.
type Definitions struct {
	Batteries        []Battery         `json:"batteries" yaml:"batteries"`
	DieselGenerators []DieselGenerator `json:"diesel_generators" yaml:"diesel_generators"`
	Panels           []SolarPanel      `json:"panels" yaml:"panels"`
	Tanks            []Tank            `json:"tanks" yaml:"tanks"`
	Exchangers       []HeatExchanger   `json:"exchangers" yaml:"exchangers"`
	WaterPumps       []WaterPump       `json:"water_pumps" yaml:"water_pumps"`
}

// Catalog groups one registry per component kind.
type Catalog struct {
	Batteries        *Registry[Battery]
	DieselGenerators *Registry[DieselGenerator]
	Panels           *Registry[SolarPanel]
	Tanks            *Registry[Tank]
	Exchangers       *Registry[HeatExchanger]
	WaterPumps       *Registry[WaterPump]
}

// NewCatalog returns a catalog with empty registries.
func NewCatalog() *Catalog {
	return &Catalog{
		Batteries:        NewRegistry[Battery]("battery"),
		DieselGenerators: NewRegistry[DieselGenerator]("diesel generator"),
		Panels:           NewRegistry[SolarPanel]("solar panel"),
		Tanks:            NewRegistry[Tank]("tank"),
		Exchangers:       NewRegistry[HeatExchanger]("heat exchanger"),
		WaterPumps:       NewRegistry[WaterPump]("water pump"),
	}
}

// Build registers every definition and returns the resulting catalog.
func Build(defs Definitions) (*Catalog, error) {
	c := NewCatalog()
	if err := registerAll(c.Batteries, defs.Batteries); err != nil {
		return nil, err
	}
	if err := registerAll(c.DieselGenerators, defs.DieselGenerators); err != nil {
		return nil, err
	}
	if err := registerAll(c.Panels, defs.Panels); err != nil {
		return nil, err
	}
	if err := registerAll(c.Tanks, defs.Tanks); err != nil {
		return nil, err
	}
	if err := registerAll(c.Exchangers, defs.Exchangers); err != nil {
		return nil, err
	}
	if err := registerAll(c.WaterPumps, defs.WaterPumps); err != nil {
		return nil, err
	}
	return c, nil
}

func registerAll[T Definition](r *Registry[T], defs []T) error {
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
