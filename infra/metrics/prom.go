package metrics

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/clover/core/metrics"
)

// PromConfig configures a PromSink.
type PromConfig struct {
	// Listen, when set, exposes /metrics on this address while the command runs.
	Listen string `json:"listen"`
	// PushURL, when set, pushes every metric to a Pushgateway on Flush. Batch
	// jobs end before a scrape would reach them.
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink records CLOVER events as Prometheus metrics.
type PromSink struct {
	cfg      PromConfig
	gatherer prometheus.Gatherer

	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	totalCost     *prometheus.GaugeVec
	lcue          *prometheus.GaugeVec
	energy        *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default registry.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, nil)
}

// NewPromSinkWithRegistry registers the metrics on reg, or on the default
// registry when reg is nil. Metrics already registered are reused.
func NewPromSinkWithRegistry(cfg PromConfig, reg *prometheus.Registry) (*PromSink, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	if cfg.Job == "" {
		cfg.Job = "clover"
	}
	s := &PromSink{cfg: cfg, gatherer: gatherer}
	var err error
	if s.runs, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clover_runs_total",
		Help: "Number of finished CLOVER runs",
	}, []string{"command", "location", "success"})); err != nil {
		return nil, err
	}
	if s.runDuration, err = register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clover_run_duration_seconds",
		Help:    "Wall time of CLOVER runs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"command"})); err != nil {
		return nil, err
	}
	if s.fetches, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clover_profile_fetches_total",
		Help: "Yearly renewables.ninja profiles, fetched or found in the cache",
	}, []string{"kind", "cached", "failed"})); err != nil {
		return nil, err
	}
	if s.fetchDuration, err = register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clover_profile_fetch_duration_seconds",
		Help:    "Time spent fetching one yearly profile, throttling included",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.totalCost, err = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clover_appraisal_total_cost",
		Help: "Discounted total cost of the last appraisal",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	if s.lcue, err = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clover_appraisal_lcue",
		Help: "Levelised cost of used electricity of the last appraisal",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	if s.energy, err = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clover_appraisal_discounted_energy_kwh",
		Help: "Discounted energy used in the last appraisal",
	}, []string{"location"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Listen is the address /metrics should be served on, if any.
func (s *PromSink) Listen() string { return s.cfg.Listen }

// Gatherer returns the registry the sink's metrics live in.
func (s *PromSink) Gatherer() prometheus.Gatherer { return s.gatherer }

// RecordAppraisal sets the appraisal gauges of the location.
func (s *PromSink) RecordAppraisal(ev coremetrics.AppraisalEvent) error {
	a := ev.Appraisal
	s.totalCost.WithLabelValues(ev.Location).Set(a.TotalCost)
	s.energy.WithLabelValues(ev.Location).Set(a.DiscountedEnergy)
	if a.LCUE != nil {
		s.lcue.WithLabelValues(ev.Location).Set(*a.LCUE)
	}
	return nil
}

// RecordProfileFetch counts the fetch and observes its duration when a call
// was made.
func (s *PromSink) RecordProfileFetch(ev coremetrics.ProfileFetchEvent) error {
	s.fetches.WithLabelValues(ev.Kind, strconv.FormatBool(ev.Cached), strconv.FormatBool(ev.Error != "")).Inc()
	if !ev.Cached {
		s.fetchDuration.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordRun counts the run and observes its duration.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Command, ev.Location, strconv.FormatBool(ev.Success)).Inc()
	s.runDuration.WithLabelValues(ev.Command).Observe(ev.Duration.Seconds())
	return nil
}

// Flush pushes the metrics to the configured Pushgateway, if any.
func (s *PromSink) Flush(ctx context.Context) error {
	if s.cfg.PushURL == "" {
		return nil
	}
	if err := push.New(s.cfg.PushURL, s.cfg.Job).Gatherer(s.gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
