// Package app wires the configuration, the metrics sinks and the core
// packages into the operations behind the CLOVER commands.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kilianp07/clover/config"
	coremetrics "github.com/kilianp07/clover/core/metrics"
	"github.com/kilianp07/clover/infra/logger"
	"github.com/kilianp07/clover/infra/metrics"
	"github.com/kilianp07/clover/internal/progress"
)

// Service holds what every run of a process shares: the configuration, the
// metrics sink, the progress bus and the renewables.ninja request limiter.
type Service struct {
	Config   *config.Config
	Sink     coremetrics.Sink
	Progress *progress.Bus
	log      logger.Logger

	limiterOnce sync.Once
	limiter     *rate.Limiter

	stop context.CancelFunc
	done chan struct{}
}

// New creates a Service from the configuration. log may be nil.
func New(cfg *config.Config, log logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.New("service")
	}
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	return &Service{Config: cfg, Sink: sink, Progress: progress.NewBus(), log: log}, nil
}

// Start logs progress events and serves /metrics for every Prometheus sink
// configured with a listen address, until Close.
func (s *Service) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		progress.Log(ctx, s.Progress, s.log)
	}()
	for _, p := range promSinks(s.Sink) {
		if p.Listen() == "" {
			continue
		}
		go func() {
			if err := metrics.StartPromServer(ctx, p.Listen(), p.Gatherer()); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// NinjaLimiter returns the limiter spacing renewables.ninja requests. All
// runs of the process wait on it, whatever their location or token.
func (s *Service) NinjaLimiter() *rate.Limiter {
	s.limiterOnce.Do(func() {
		s.limiter = rate.NewLimiter(rate.Every(s.Config.RenewablesNinja.Interval), 1)
	})
	return s.limiter
}

// Close flushes the sinks and stops the background goroutines.
func (s *Service) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var err error
	if f, ok := s.Sink.(coremetrics.Flusher); ok {
		err = f.Flush(ctx)
	}
	if s.stop != nil {
		s.stop()
		<-s.done
	}
	s.Progress.Close()
	return err
}

func promSinks(s coremetrics.Sink) []*metrics.PromSink {
	switch v := s.(type) {
	case *metrics.PromSink:
		return []*metrics.PromSink{v}
	case *coremetrics.MultiSink:
		var out []*metrics.PromSink
		for _, inner := range v.Sinks {
			out = append(out, promSinks(inner)...)
		}
		return out
	}
	return nil
}
