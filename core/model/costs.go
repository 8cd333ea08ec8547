package model

// Costs holds the cost information of one impacting component. Every field is
// optional in the input files and a missing value reads as zero.
//
// Units:
//   - Cost, InstallationCost: currency per unit of size (kW, kWh, litre, tank)
//   - CostDecrease, InstallationCostDecrease: percent per annum; negative
//     values describe an escalation
//   - OM: currency per unit of size per year
//   - Lifetime: years
//   - SizeIncrement: kW
type Costs struct {
	Cost                     float64 `json:"cost" yaml:"cost"`
	CostDecrease             float64 `json:"cost_decrease" yaml:"cost_decrease"`
	InstallationCost         float64 `json:"installation_cost" yaml:"installation_cost"`
	InstallationCostDecrease float64 `json:"installation_cost_decrease" yaml:"installation_cost_decrease"`
	OM                       float64 `json:"o&m" yaml:"o&m"`
	ConnectionCost           float64 `json:"connection_cost" yaml:"connection_cost"`
	ExtensionCost            float64 `json:"extension_cost" yaml:"extension_cost"`
	InfrastructureCost       float64 `json:"infrastructure_cost" yaml:"infrastructure_cost"`
	Lifetime                 int     `json:"lifetime" yaml:"lifetime"`
	SizeIncrement            float64 `json:"size_increment" yaml:"size_increment"`
}
