package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/clover/core/factory"
	"github.com/kilianp07/clover/core/metrics"
)

type recordSink struct {
	appraisals, fetches, runs, flushes int
	err                                error
}

func (r *recordSink) RecordAppraisal(metrics.AppraisalEvent) error {
	r.appraisals++
	return r.err
}

func (r *recordSink) RecordProfileFetch(metrics.ProfileFetchEvent) error {
	r.fetches++
	return nil
}

func (r *recordSink) RecordRun(metrics.RunEvent) error {
	r.runs++
	return nil
}

func (r *recordSink) Flush(context.Context) error {
	r.flushes++
	return nil
}

type appraisalOnly struct{ n int }

func (a *appraisalOnly) RecordAppraisal(metrics.AppraisalEvent) error {
	a.n++
	return nil
}

func TestMultiSinkForwards(t *testing.T) {
	full := &recordSink{}
	basic := &appraisalOnly{}
	m := metrics.NewMultiSink(full, basic)

	require.NoError(t, m.RecordAppraisal(metrics.AppraisalEvent{RunID: "r1"}))
	require.NoError(t, m.RecordProfileFetch(metrics.ProfileFetchEvent{Kind: "solar"}))
	require.NoError(t, m.RecordRun(metrics.RunEvent{Success: true}))
	require.NoError(t, m.Flush(context.Background()))

	assert.Equal(t, 1, full.appraisals)
	assert.Equal(t, 1, full.fetches)
	assert.Equal(t, 1, full.runs)
	assert.Equal(t, 1, full.flushes)
	assert.Equal(t, 1, basic.n)
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recordSink{}
	m := metrics.NewMultiSink(&recordSink{err: boom}, ok)
	err := m.RecordAppraisal(metrics.AppraisalEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ok.appraisals, "a failing sink does not stop the others")
}

func TestNewSink(t *testing.T) {
	s, err := metrics.NewSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok)
	assert.Len(t, m.Sinks, 2)

	_, err = metrics.NewSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.ErrorIs(t, err, factory.ErrUnknownType)
}

func TestConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: influx
    conf:
      url: http://localhost:8086
`
	var cfg metrics.Config
	require.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	require.Len(t, cfg.Sinks, 2)
	assert.Equal(t, "influx", cfg.Sinks[1].Type)
	assert.Equal(t, "http://localhost:8086", cfg.Sinks[1].Conf["url"])
}
