package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clover/config"
	"github.com/kilianp07/clover/core/finance"
	"github.com/kilianp07/clover/core/generation"
	"github.com/kilianp07/clover/core/grid"
	"github.com/kilianp07/clover/core/hpc"
	"github.com/kilianp07/clover/core/location"
	coremetrics "github.com/kilianp07/clover/core/metrics"
	"github.com/kilianp07/clover/infra/logger"
	"github.com/kilianp07/clover/internal/progress"
	"github.com/kilianp07/clover/pkg/export"
)

type recordingSink struct {
	mu         sync.Mutex
	appraisals []coremetrics.AppraisalEvent
	fetches    []coremetrics.ProfileFetchEvent
	runs       []coremetrics.RunEvent
}

func (s *recordingSink) RecordAppraisal(ev coremetrics.AppraisalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appraisals = append(s.appraisals, ev)
	return nil
}

func (s *recordingSink) RecordProfileFetch(ev coremetrics.ProfileFetchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = append(s.fetches, ev)
	return nil
}

func (s *recordingSink) RecordRun(ev coremetrics.RunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, ev)
	return nil
}

// setupLocation scaffolds a one-year location with a one-year usage file.
func setupLocation(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	addLocation(t, root, "bahraich")
	return root
}

func addLocation(t *testing.T, root, name string) {
	t.Helper()
	_, err := location.Scaffold(root, name, location.Options{})
	require.NoError(t, err)
	l := location.At(root, name)

	loc := "name: " + name + "\nlatitude: 27.57\nlongitude: 81.6\ntime_difference: 5.5\nmax_years: 1\ncommunity_size: 100\n"
	require.NoError(t, os.WriteFile(l.Path(location.LocationInputsFile), []byte(loc), 0o644))
	gen := "token: secret\nstart_year: 2015\nend_year: 2015\n"
	require.NoError(t, os.WriteFile(l.Path(location.GenerationInputsFile), []byte(gen), 0o644))

	var b strings.Builder
	b.WriteString("hour,total_energy_used_kwh,diesel_fuel_usage_l,households,load_w\n")
	for h := 0; h < 8760; h++ {
		fmt.Fprintf(&b, "%d,1,0.1,100,2000\n", h)
	}
	require.NoError(t, os.WriteFile(l.Path("usage.csv"), []byte(b.String()), 0o644))
}

// arrivals records when requests reach the test server.
type arrivals struct {
	mu    sync.Mutex
	times []time.Time
}

func (a *arrivals) add(ts time.Time) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.times = append(a.times, ts)
}

func ninjaServer(t *testing.T, calls *atomic.Int32, seen *arrivals) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		seen.add(time.Now())
		if r.Header.Get("Authorization") != "Token secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		from, err := time.Parse("2006-01-02", r.URL.Query().Get("date_from"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		solar := strings.HasSuffix(r.URL.Path, "/data/pv")
		data := make(map[string]map[string]float64)
		for ts := from; ts.Year() == from.Year(); ts = ts.Add(time.Hour) {
			row := map[string]float64{generation.ColumnElectricity: 0.5}
			if solar {
				row[generation.ColumnDirectIrradiance] = 1
				row[generation.ColumnDiffuseIrradiance] = 2
				row[generation.ColumnTemperature] = 20
			}
			data[strconv.FormatInt(ts.UnixMilli(), 10)] = row
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, baseURL string) (*Service, *recordingSink) {
	t.Helper()
	cfg := &config.Config{
		RenewablesNinja: config.NinjaConfig{BaseURL: baseURL, Timeout: 5 * time.Second, Interval: time.Millisecond},
		Grid:            config.GridConfig{Seed: 1},
	}
	sink := &recordingSink{}
	return &Service{Config: cfg, Sink: sink, Progress: progress.NewBus(), log: logger.NopLogger{}}, sink
}

func baseRequest(root string) Request {
	return Request{
		Root:      root,
		Location:  "bahraich",
		Sizing:    finance.Sizing{PV: 10, Storage: 20, Diesel: 5},
		Usage:     "usage.csv",
		StartYear: 0,
		EndYear:   1,
		Output:    "run_1",
		Command:   "clover",
	}
}

func TestRunner_SkipProfiles(t *testing.T) {
	root := setupLocation(t)
	svc, sink := newTestService(t, "http://unused.invalid/")
	r := &Runner{Service: svc, Log: logger.NopLogger{}}

	req := baseRequest(root)
	req.SkipProfiles = true
	res, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Greater(t, res.Appraisal.TotalCost, 0.0)
	require.NotNil(t, res.Appraisal.LCUE)
	assert.InDelta(t, 8760, res.Appraisal.TotalEnergy, 1e-6)

	outputs := location.At(root, "bahraich").Path(location.OutputsDir)
	assert.Equal(t, []string{filepath.Join(outputs, "run_1.json"), filepath.Join(outputs, "run_1.csv")}, res.Files)
	data, err := os.ReadFile(filepath.Join(outputs, "run_1.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.InDelta(t, res.Appraisal.TotalCost, decoded["total_cost"], 1e-6)

	require.Len(t, sink.appraisals, 1)
	assert.Equal(t, res.RunID, sink.appraisals[0].RunID)
	require.Len(t, sink.runs, 1)
	assert.True(t, sink.runs[0].Success)
	assert.Equal(t, "clover", sink.runs[0].Command)
}

func TestRunner_FetchesAndCachesProfiles(t *testing.T) {
	root := setupLocation(t)
	var calls atomic.Int32
	srv := ninjaServer(t, &calls, nil)
	svc, sink := newTestService(t, srv.URL+"/")
	r := &Runner{Service: svc, Log: logger.NopLogger{}}

	_, err := r.Run(context.Background(), baseRequest(root))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	profiles := location.At(root, "bahraich").Path(location.ProfilesDir)
	for _, kind := range []generation.Kind{generation.Solar, generation.Wind} {
		assert.FileExists(t, generation.YearFile(profiles, "", kind, 2015))
		p, err := generation.LoadProfile(generation.TotalFile(profiles, "", kind, 1))
		require.NoError(t, err)
		assert.Equal(t, 8760, p.Len())
	}
	gridDir := location.At(root, "bahraich").Path(location.GridStatusDir)
	assert.FileExists(t, grid.StatusFile(gridDir, "bahraich"))
	assert.Len(t, sink.fetches, 2)

	_, err = r.Run(context.Background(), baseRequest(root))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "cached profiles are not refetched")
}

func TestRunner_Failures(t *testing.T) {
	root := setupLocation(t)
	svc, sink := newTestService(t, "http://unused.invalid/")
	r := &Runner{Service: svc, Log: logger.NopLogger{}}

	req := baseRequest(root)
	req.SkipProfiles = true
	req.Location = "nowhere"
	_, err := r.Run(context.Background(), req)
	assert.ErrorIs(t, err, location.ErrNotFound)

	req = baseRequest(root)
	req.SkipProfiles = true
	req.EndYear = 2
	_, err = r.Run(context.Background(), req)
	assert.Error(t, err)

	require.Len(t, sink.runs, 2)
	assert.False(t, sink.runs[0].Success)
	assert.NotEmpty(t, sink.runs[1].Error)
}

func TestBatch_RunAllAndAssemble(t *testing.T) {
	root := setupLocation(t)
	svc, _ := newTestService(t, "http://unused.invalid/")
	store, err := hpc.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)

	runs := []hpc.Run{
		{Location: "bahraich", PVSystemSize: 10, StorageSize: 20, Usage: "usage.csv", EndYear: 1, Output: "run_1"},
		{Location: "bahraich", PVSystemSize: 5, Usage: "missing.csv", EndYear: 1, Output: "run_2"},
	}
	b := &Batch{
		Runner:       &Runner{Service: svc, Log: logger.NopLogger{}},
		Store:        store,
		Root:         root,
		Parallelism:  2,
		SkipProfiles: true,
		Log:          logger.NopLogger{},
	}
	err = b.RunAll(context.Background(), runs)
	assert.ErrorContains(t, err, "run 2")

	records, err := store.Query(context.Background(), hpc.Query{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	outbox := filepath.Join(t.TempDir(), "outbox")
	entries, err := hpc.Assembler{Root: root, Outbox: outbox}.Assemble(runs, records)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, export.StatusCopied, entries[0].Status)
	assert.Equal(t, export.StatusFailed, entries[1].Status)
	assert.FileExists(t, filepath.Join(outbox, "bahraich", "run_1.json"))
}

func TestBatch_RunAllSharesProfilesAndLimiter(t *testing.T) {
	root := setupLocation(t)
	addLocation(t, root, "lucknow")
	var calls atomic.Int32
	seen := &arrivals{}
	srv := ninjaServer(t, &calls, seen)
	svc, sink := newTestService(t, srv.URL+"/")
	const interval = 100 * time.Millisecond
	svc.Config.RenewablesNinja.Interval = interval

	var runs []hpc.Run
	for i, name := range []string{"bahraich", "lucknow", "bahraich", "lucknow", "bahraich"} {
		runs = append(runs, hpc.Run{Location: name, PVSystemSize: 10, Usage: "usage.csv", EndYear: 1, Output: fmt.Sprintf("run_%d", i+1)})
	}
	b := &Batch{
		Runner:      &Runner{Service: svc, Log: logger.NopLogger{}},
		Root:        root,
		Parallelism: len(runs),
		Log:         logger.NopLogger{},
	}
	require.NoError(t, b.RunAll(context.Background(), runs))

	// One solar and one wind year per location, however many runs share it.
	assert.Equal(t, int32(4), calls.Load())
	fetched := 0
	for _, ev := range sink.fetches {
		if !ev.Cached {
			fetched++
		}
	}
	assert.Equal(t, 4, fetched)
	require.Len(t, sink.runs, len(runs))

	seen.mu.Lock()
	defer seen.mu.Unlock()
	sort.Slice(seen.times, func(i, j int) bool { return seen.times[i].Before(seen.times[j]) })
	for i := 1; i < len(seen.times); i++ {
		gap := seen.times[i].Sub(seen.times[i-1])
		assert.GreaterOrEqual(t, gap, interval-20*time.Millisecond, "request %d arrived %v after the previous one", i, gap)
	}
}

func TestBatch_RunIndex(t *testing.T) {
	root := setupLocation(t)
	svc, sink := newTestService(t, "http://unused.invalid/")
	runs := []hpc.Run{{Location: "bahraich", Usage: "usage.csv", EndYear: 1, Output: "only"}}
	b := &Batch{Runner: &Runner{Service: svc, Log: logger.NopLogger{}}, Root: root, SkipProfiles: true}

	require.NoError(t, b.RunIndex(context.Background(), runs, 1))
	assert.ErrorIs(t, b.RunIndex(context.Background(), runs, 2), hpc.ErrRunIndex)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, "clover-hpc", sink.runs[0].Command)
}

func TestService_NewAndClose(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	svc, err := New(cfg, logger.NopLogger{})
	require.NoError(t, err)
	svc.Start(context.Background())
	svc.Progress.Publish(progress.Event{Task: "t", Done: 1, Total: 2})
	assert.NoError(t, svc.Close(context.Background()))
}
