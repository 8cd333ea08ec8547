// Package metrics implements the Prometheus and InfluxDB sinks. Importing it
// registers the "prometheus" and "influx" sink types.
package metrics
