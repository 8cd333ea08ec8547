package metrics

import (
	"fmt"

	"github.com/kilianp07/clover/core/factory"
	coremetrics "github.com/kilianp07/clover/core/metrics"
)

func init() {
	_ = coremetrics.RegisterSink("prometheus", newPromSink)
	_ = coremetrics.RegisterSink("influx", newInfluxSink)
}

func newPromSink(raw map[string]any) (coremetrics.Sink, error) {
	var cfg PromConfig
	if err := factory.Decode(raw, &cfg); err != nil {
		return nil, err
	}
	return NewPromSink(cfg)
}

func newInfluxSink(raw map[string]any) (coremetrics.Sink, error) {
	var cfg InfluxConfig
	if err := factory.Decode(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx sink requires url and bucket")
	}
	if cfg.Fallback {
		return NewInfluxSinkWithFallback(cfg), nil
	}
	return NewInfluxSink(cfg), nil
}
