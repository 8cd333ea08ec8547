package metrics

import (
	"context"
	"errors"
)

// MultiSink forwards every event to each of its sinks. Optional recorders
// are only called on the sinks implementing them. Errors are joined.
type MultiSink struct {
	Sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordAppraisal(ev AppraisalEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordAppraisal(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordProfileFetch(ev ProfileFetchEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ProfileFetchRecorder); ok {
			errs = append(errs, r.RecordProfileFetch(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(RunRecorder); ok {
			errs = append(errs, r.RecordRun(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			errs = append(errs, f.Flush(ctx))
		}
	}
	return errors.Join(errs...)
}
