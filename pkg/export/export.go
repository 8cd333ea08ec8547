// Package export writes appraisals and outbox manifests as JSON and CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/clover/core/appraisal"
)

// WriteJSON writes the appraisal to w as indented JSON.
func WriteJSON(w io.Writer, a appraisal.Appraisal) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// appraisalColumns are the CSV columns of an appraisal, in order.
var appraisalColumns = []string{
	"start_year", "end_year",
	"pv_system_size", "pvt_system_size", "storage_size", "diesel_size", "clean_water_tanks", "hot_water_tanks",
	"equipment_cost", "connections_cost", "om_cost", "diesel_fuel_cost", "grid_cost", "inverter_cost",
	"kerosene_cost", "total_cost", "total_energy_kwh", "discounted_energy_kwh", "lcue",
}

// WriteCSV writes the appraisal to w as a header and a single row. The lcue
// cell is empty when no energy was used.
func WriteCSV(w io.Writer, a appraisal.Appraisal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(appraisalColumns); err != nil {
		return err
	}
	lcue := ""
	if a.LCUE != nil {
		lcue = formatFloat(*a.LCUE)
	}
	rec := []string{
		strconv.Itoa(a.StartYear),
		strconv.Itoa(a.EndYear),
		formatFloat(a.Sizing.PV),
		formatFloat(a.Sizing.PVT),
		formatFloat(a.Sizing.Storage),
		formatFloat(a.Sizing.Diesel),
		formatFloat(a.Sizing.CleanWaterTanks),
		formatFloat(a.Sizing.HotWaterTanks),
		formatFloat(a.EquipmentCost),
		formatFloat(a.ConnectionsCost),
		formatFloat(a.OMCost),
		formatFloat(a.DieselFuelCost),
		formatFloat(a.GridCost),
		formatFloat(a.InverterCost),
		formatFloat(a.KeroseneCost),
		formatFloat(a.TotalCost),
		formatFloat(a.TotalEnergy),
		formatFloat(a.DiscountedEnergy),
		lcue,
	}
	if err := cw.Write(rec); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Manifest statuses.
const (
	StatusCopied  = "copied"
	StatusFailed  = "failed"
	StatusMissing = "missing"
)

// ManifestEntry describes one run gathered into an outbox.
type ManifestEntry struct {
	Index    int      `json:"index"`
	RunID    string   `json:"run_id"`
	Location string   `json:"location"`
	Output   string   `json:"output"`
	Status   string   `json:"status"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WriteManifestCSV writes the outbox manifest. Files are joined with ';'.
func WriteManifestCSV(w io.Writer, entries []ManifestEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "run_id", "location", "output", "status", "files", "error"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{strconv.Itoa(e.Index), e.RunID, e.Location, e.Output, e.Status, strings.Join(e.Files, ";"), e.Error}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteManifestJSON writes the outbox manifest as a JSON array.
func WriteManifestJSON(w io.Writer, entries []ManifestEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
