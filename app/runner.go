package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/clover/auth"
	"github.com/kilianp07/clover/config"
	"github.com/kilianp07/clover/core/appraisal"
	"github.com/kilianp07/clover/core/finance"
	"github.com/kilianp07/clover/core/generation"
	"github.com/kilianp07/clover/core/grid"
	"github.com/kilianp07/clover/core/location"
	coremetrics "github.com/kilianp07/clover/core/metrics"
	"github.com/kilianp07/clover/infra/logger"
	"github.com/kilianp07/clover/pkg/export"
)

// Request describes one CLOVER run.
type Request struct {
	// Root is the directory holding the locations directory.
	Root     string
	Location string
	Sizing   finance.Sizing
	// Usage is the hourly usage CSV, relative to the location directory
	// unless absolute.
	Usage     string
	StartYear int
	EndYear   int
	// Output names the files written to the outputs directory. It defaults
	// to the run ID.
	Output string

	// SkipProfiles leaves renewables.ninja and grid profiles alone.
	SkipProfiles bool
	// Regenerate refetches and redraws cached profiles.
	Regenerate bool
	// Command is reported with the run event, e.g. clover or clover-hpc.
	Command string
}

// Result is the outcome of a successful run.
type Result struct {
	RunID     string
	Appraisal appraisal.Appraisal
	// Files are the output files written.
	Files    []string
	Duration time.Duration
}

// Runner executes CLOVER runs.
type Runner struct {
	Service *Service
	Log     logger.Logger
	// ClientOptions are appended to the renewables.ninja client options.
	ClientOptions []generation.ClientOption

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// locationLock returns the mutex guarding the profile caches of a location
// directory. Concurrent runs of one location prepare profiles in turn, so
// later runs find the cache written by the first.
func (r *Runner) locationLock(dir string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	m, ok := r.locks[dir]
	if !ok {
		m = &sync.Mutex{}
		r.locks[dir] = m
	}
	return m
}

// Run loads the location inputs, brings the generation and grid profiles up
// to date, appraises the usage and writes the outputs.
func (r *Runner) Run(ctx context.Context, req Request) (res Result, err error) {
	res.RunID = uuid.NewString()
	log := r.Log
	if log == nil {
		log = logger.New("runner")
	}
	started := time.Now()
	defer func() {
		res.Duration = time.Since(started)
		r.recordRun(req, res, err, log)
	}()

	l := location.At(req.Root, req.Location)
	if _, statErr := os.Stat(l.Dir); errors.Is(statErr, os.ErrNotExist) {
		return res, fmt.Errorf("%w: %s", location.ErrNotFound, req.Location)
	}
	in, err := config.LoadInputs(l)
	if err != nil {
		return res, err
	}
	log.Infof("run %s: location %s, years %d-%d", res.RunID, in.Location.Name, req.StartYear, req.EndYear)

	if !req.SkipProfiles {
		if err := r.updateProfiles(ctx, in, req.Regenerate, log); err != nil {
			return res, err
		}
	}

	usagePath := req.Usage
	if !filepath.IsAbs(usagePath) {
		usagePath = l.Path(usagePath)
	}
	usage, err := appraisal.ReadUsageFile(usagePath)
	if err != nil {
		return res, err
	}
	res.Appraisal, err = appraisal.Appraise(in.Finance, in.Location, req.Sizing, usage, req.StartYear, req.EndYear)
	if err != nil {
		return res, fmt.Errorf("appraisal: %w", err)
	}
	if res.Files, err = writeOutputs(l, outputName(req, res.RunID), res.Appraisal); err != nil {
		return res, err
	}

	ev := coremetrics.AppraisalEvent{RunID: res.RunID, Location: in.Location.Name, Appraisal: res.Appraisal, Time: time.Now()}
	if err := r.Service.Sink.RecordAppraisal(ev); err != nil {
		log.Warnf("record appraisal: %v", err)
	}
	if res.Appraisal.LCUE != nil {
		log.Infof("run %s: total cost %.2f, LCUE %.4f", res.RunID, res.Appraisal.TotalCost, *res.Appraisal.LCUE)
	} else {
		log.Infof("run %s: total cost %.2f, no energy used", res.RunID, res.Appraisal.TotalCost)
	}
	return res, nil
}

// updateProfiles fetches the yearly renewables.ninja profiles, builds the
// lifetime profiles and draws the grid availability.
func (r *Runner) updateProfiles(ctx context.Context, in *config.Inputs, regenerate bool, log logger.Logger) error {
	lock := r.locationLock(filepath.Clean(in.Layout.Dir))
	lock.Lock()
	defer lock.Unlock()

	cfg := r.Service.Config
	opts := append([]generation.ClientOption{
		generation.WithBaseURL(cfg.RenewablesNinja.BaseURL),
		generation.WithLimiter(r.Service.NinjaLimiter()),
		generation.WithLogger(log),
	}, r.ClientOptions...)
	client, err := generation.NewClient(auth.NewAPIToken(in.Generation.Token), cfg.RenewablesNinja.Timeout, cfg.RenewablesNinja.Interval, opts...)
	if err != nil {
		return err
	}
	dir := in.Layout.Path(location.ProfilesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	params := map[generation.Kind]url.Values{
		generation.Solar: generation.SolarParams(in.Location, in.System.PVPanel),
		generation.Wind:  generation.WindParams(in.Location, in.Generation.Wind),
	}
	fetcher := &generation.Fetcher{
		Client:     client,
		Dir:        dir,
		Location:   in.Location,
		StartYear:  in.Generation.StartYear,
		EndYear:    in.Generation.EndYear,
		Params:     params,
		Regenerate: regenerate,
		Progress:   r.Service.Progress,
		Log:        log,
	}
	if rec, ok := r.Service.Sink.(coremetrics.ProfileFetchRecorder); ok {
		fetcher.Recorder = rec
	}
	if err := fetcher.Run(ctx); err != nil {
		return fmt.Errorf("renewables.ninja profiles: %w", err)
	}
	for kind := range params {
		if _, err := generation.TotalProfile(dir, "", kind, in.Generation.StartYear, in.Location.MaxYears, regenerate); err != nil {
			return fmt.Errorf("lifetime %s profile: %w", kind, err)
		}
	}

	if in.GridTimes == nil {
		log.Infof("no grid times for %s, skipping grid profiles", in.Location.Name)
		return nil
	}
	gridDir := in.Layout.Path(location.GridStatusDir)
	if err := os.MkdirAll(gridDir, 0o755); err != nil {
		return err
	}
	gen := grid.Generator{
		Dir:        gridDir,
		MaxYears:   in.Location.MaxYears,
		Seed:       cfg.Grid.Seed,
		Regenerate: regenerate,
		Log:        log,
	}
	if _, err := gen.LifetimeStatus(in.GridTimes); err != nil {
		return fmt.Errorf("grid profiles: %w", err)
	}
	return nil
}

func (r *Runner) recordRun(req Request, res Result, err error, log logger.Logger) {
	rec, ok := r.Service.Sink.(coremetrics.RunRecorder)
	if !ok {
		return
	}
	ev := coremetrics.RunEvent{
		RunID:    res.RunID,
		Location: req.Location,
		Command:  req.Command,
		Success:  err == nil,
		Duration: res.Duration,
		Time:     time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if rerr := rec.RecordRun(ev); rerr != nil {
		log.Warnf("record run: %v", rerr)
	}
}

func outputName(req Request, runID string) string {
	if req.Output != "" {
		return req.Output
	}
	return runID
}

// writeOutputs writes <name>.json and <name>.csv to the outputs directory.
func writeOutputs(l location.Layout, name string, a appraisal.Appraisal) ([]string, error) {
	dir := l.Path(location.OutputsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	writers := []struct {
		ext   string
		write func(*os.File) error
	}{
		{".json", func(f *os.File) error { return export.WriteJSON(f, a) }},
		{".csv", func(f *os.File) error { return export.WriteCSV(f, a) }},
	}
	files := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, name+w.ext)
		f, err := os.Create(path)
		if err != nil {
			return files, err
		}
		if err := w.write(f); err != nil {
			_ = f.Close()
			return files, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}
