package model

import "fmt"

// Location describes the community a system is being designed for.
type Location struct {
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country" yaml:"country"`
	// Latitude and Longitude are in degrees.
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	// TimeDifference is the offset from UTC in hours.
	TimeDifference float64 `json:"time_difference" yaml:"time_difference"`
	// MaxYears bounds every simulation period at this location.
	MaxYears            int     `json:"max_years" yaml:"max_years"`
	CommunitySize       int     `json:"community_size" yaml:"community_size"`
	CommunityGrowthRate float64 `json:"community_growth_rate" yaml:"community_growth_rate"`
}

// Validate checks the coordinates and the simulation horizon.
func (l Location) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("location: name is required")
	}
	if err := CheckRange("latitude", l.Latitude, -90, 90); err != nil {
		return err
	}
	if err := CheckRange("longitude", l.Longitude, -180, 180); err != nil {
		return err
	}
	if err := CheckRange("time_difference", l.TimeDifference, -12, 14); err != nil {
		return err
	}
	if l.MaxYears <= 0 {
		return fmt.Errorf("max_years must be positive, got %d", l.MaxYears)
	}
	if l.CommunitySize < 0 {
		return fmt.Errorf("community_size must not be negative, got %d", l.CommunitySize)
	}
	return nil
}
