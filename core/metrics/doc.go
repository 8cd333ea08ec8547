// Package metrics defines the sinks CLOVER reports to: appraisals of every
// run, renewables.ninja profile fetches and run completions. Sinks are built
// from the metrics.sinks configuration through a registry; infra/metrics
// registers the Prometheus and InfluxDB implementations. Several configured
// sinks are combined into a MultiSink.
package metrics
