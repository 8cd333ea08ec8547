package finance

import "fmt"

// Sizing describes the installed capacity of a system.
type Sizing struct {
	// PV and PVT are in kWp.
	PV  float64 `json:"pv_system_size" yaml:"pv_system_size"`
	PVT float64 `json:"pvt_system_size" yaml:"pvt_system_size"`
	// Storage is in kWh.
	Storage float64 `json:"storage_size" yaml:"storage_size"`
	// Diesel is in kW.
	Diesel          float64 `json:"diesel_size" yaml:"diesel_size"`
	CleanWaterTanks float64 `json:"clean_water_tanks" yaml:"clean_water_tanks"`
	HotWaterTanks   float64 `json:"hot_water_tanks" yaml:"hot_water_tanks"`
}

// Validate rejects negative sizes.
func (s Sizing) Validate() error {
	for _, f := range []struct {
		key string
		v   float64
	}{
		{"pv_system_size", s.PV},
		{"pvt_system_size", s.PVT},
		{"storage_size", s.Storage},
		{"diesel_size", s.Diesel},
		{"clean_water_tanks", s.CleanWaterTanks},
		{"hot_water_tanks", s.HotWaterTanks},
	} {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", f.key, f.v)
		}
	}
	return nil
}
