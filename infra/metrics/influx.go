package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/clover/core/metrics"
	"github.com/kilianp07/clover/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket appraisals are written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	// Fallback replaces the sink with a NopSink when the instance is unhealthy.
	Fallback bool `json:"fallback"`
}

// InfluxSink writes CLOVER events to an InfluxDB bucket.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A URL ending in
// /api/v2/write is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink if the
// health check fails, so a missing database never fails a run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAppraisal writes one "appraisal" point per run.
func (s *InfluxSink) RecordAppraisal(ev coremetrics.AppraisalEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a := ev.Appraisal
	p := write.NewPointWithMeasurement("appraisal").
		AddTag("location", ev.Location).
		AddTag("run_id", ev.RunID).
		AddTag("period", strconv.Itoa(a.StartYear)+"-"+strconv.Itoa(a.EndYear)).
		AddField("pv_kw", round3(a.Sizing.PV)).
		AddField("storage_kwh", round3(a.Sizing.Storage)).
		AddField("equipment_cost", round3(a.EquipmentCost)).
		AddField("connections_cost", round3(a.ConnectionsCost)).
		AddField("om_cost", round3(a.OMCost)).
		AddField("diesel_fuel_cost", round3(a.DieselFuelCost)).
		AddField("grid_cost", round3(a.GridCost)).
		AddField("inverter_cost", round3(a.InverterCost)).
		AddField("kerosene_cost", round3(a.KeroseneCost)).
		AddField("total_cost", round3(a.TotalCost)).
		AddField("discounted_energy_kwh", round3(a.DiscountedEnergy)).
		SetTime(ev.Time)
	if a.LCUE != nil {
		p.AddField("lcue", round3(*a.LCUE))
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordProfileFetch writes a "profile_fetch" point.
func (s *InfluxSink) RecordProfileFetch(ev coremetrics.ProfileFetchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("profile_fetch").
		AddTag("location", ev.Location).
		AddTag("kind", ev.Kind).
		AddTag("cached", strconv.FormatBool(ev.Cached)).
		AddField("year", ev.Year).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		AddField("errors", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes a "run" point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run").
		AddTag("location", ev.Location).
		AddTag("command", ev.Command).
		AddTag("run_id", ev.RunID).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("duration_s", round3(ev.Duration.Seconds())).
		AddField("errors", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Flush closes the client. Writes are blocking so nothing is pending.
func (s *InfluxSink) Flush(context.Context) error {
	s.client.Close()
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
