package model

// ImpactingComponent identifies a part of the system with a financial or
// environmental impact. The string value is the key used in the input files.
type ImpactingComponent string

const (
	BOS                 ImpactingComponent = "bos"
	BufferTank          ImpactingComponent = "buffer_tank"
	CleanWaterTank      ImpactingComponent = "clean_water_tank"
	ConventionalSource  ImpactingComponent = "conventional_source"
	Converter           ImpactingComponent = "converter"
	Diesel              ImpactingComponent = "diesel_generator"
	DieselFuel          ImpactingComponent = "diesel_fuel"
	DieselWaterHeater   ImpactingComponent = "diesel_water_heater"
	ElectricWaterHeater ImpactingComponent = "electric_water_heater"
	General             ImpactingComponent = "general"
	Grid                ImpactingComponent = "grid"
	HeatExchanger       ImpactingComponent = "heat_exchanger"
	Households          ImpactingComponent = "households"
	HotWaterTank        ImpactingComponent = "hot_water_tank"
	Inverter            ImpactingComponent = "inverter"
	Kerosene            ImpactingComponent = "kerosene"
	Misc                ImpactingComponent = "misc"
	PV                  ImpactingComponent = "pv"
	PVT                 ImpactingComponent = "pv_t"
	Storage             ImpactingComponent = "storage"
	Transmitter         ImpactingComponent = "transmitter"
)

func (c ImpactingComponent) String() string { return string(c) }
