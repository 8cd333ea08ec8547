package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/clover/core/appraisal"
)

// AppraisalEvent carries the outcome of one appraised run.
type AppraisalEvent struct {
	RunID     string
	Location  string
	Appraisal appraisal.Appraisal
	Time      time.Time
}

// Sink records appraisals for observability purposes.
type Sink interface {
	RecordAppraisal(ev AppraisalEvent) error
}

// ProfileFetchEvent describes one yearly renewables.ninja profile.
type ProfileFetchEvent struct {
	Location string
	Kind     string
	Year     int
	// Cached is set when the profile already existed and no call was made.
	Cached   bool
	Duration time.Duration
	Error    string
	Time     time.Time
}

// ProfileFetchRecorder records profile fetches.
type ProfileFetchRecorder interface {
	RecordProfileFetch(ev ProfileFetchEvent) error
}

// RunEvent describes a finished CLOVER run, batch or not.
type RunEvent struct {
	RunID    string
	Location string
	Command  string
	Success  bool
	Duration time.Duration
	Error    string
	Time     time.Time
}

// RunRecorder records run completions.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// Flusher is implemented by sinks that buffer until the process ends, such
// as a Prometheus sink pushing to a gateway from a batch job.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAppraisal(AppraisalEvent) error       { return nil }
func (NopSink) RecordProfileFetch(ProfileFetchEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error                   { return nil }
func (NopSink) Flush(context.Context) error                { return nil }
