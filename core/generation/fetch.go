package generation

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/clover/core/component"
	"github.com/kilianp07/clover/core/logger"
	"github.com/kilianp07/clover/core/metrics"
	"github.com/kilianp07/clover/core/model"
	"github.com/kilianp07/clover/internal/progress"
)

// repeatWindow is the number of fetched years a lifetime profile is built
// from before it starts repeating.
const repeatWindow = 10

// Inputs is the decoded generation_inputs.yaml.
type Inputs struct {
	Token     string     `json:"token" yaml:"token"`
	StartYear int        `json:"start_year" yaml:"start_year"`
	EndYear   int        `json:"end_year" yaml:"end_year"`
	Wind      WindInputs `json:"wind" yaml:"wind"`
}

// WindInputs describes the turbine simulated by renewables.ninja.
type WindInputs struct {
	// Height is the hub height in m.
	Height  float64 `json:"height" yaml:"height"`
	Turbine string  `json:"turbine" yaml:"turbine"`
}

// Validate checks the year range.
func (in Inputs) Validate() error {
	if in.StartYear <= 0 || in.EndYear < in.StartYear {
		return fmt.Errorf("invalid generation years %d-%d", in.StartYear, in.EndYear)
	}
	return nil
}

// SolarParams builds the request parameters for 1 kWp of the given panel.
func SolarParams(loc model.Location, panel component.SolarPanel) url.Values {
	return url.Values{
		"lat":         {formatFloat(loc.Latitude)},
		"lon":         {formatFloat(loc.Longitude)},
		"dataset":     {"merra2"},
		"capacity":    {"1"},
		"system_loss": {"0"},
		"tracking":    {"0"},
		"tilt":        {formatFloat(panel.Tilt)},
		"azim":        {formatFloat(panel.AzimuthalOrientation)},
		"raw":         {"true"},
	}
}

// WindParams builds the request parameters for a 1 kW turbine.
func WindParams(loc model.Location, w WindInputs) url.Values {
	height, turbine := w.Height, w.Turbine
	if height == 0 {
		height = 80
	}
	if turbine == "" {
		turbine = "Vestas V80 2000"
	}
	return url.Values{
		"lat":      {formatFloat(loc.Latitude)},
		"lon":      {formatFloat(loc.Longitude)},
		"dataset":  {"merra2"},
		"capacity": {"1"},
		"height":   {formatFloat(height)},
		"turbine":  {turbine},
		"raw":      {"true"},
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// YearFile is the cache path of one yearly profile.
func YearFile(dir, prefix string, kind Kind, year int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%s_generation_%d.csv", prefix, kind, year))
}

// TotalFile is the cache path of a lifetime profile.
func TotalFile(dir, prefix string, kind Kind, years int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%s_generation_%d_years.csv", prefix, kind, years))
}

// Fetcher downloads the yearly profiles of a location. Profiles of different
// kinds are fetched concurrently; the client's limiter spaces the calls.
type Fetcher struct {
	Client    *Client
	Dir       string
	Prefix    string
	Location  model.Location
	StartYear int
	EndYear   int
	// Params holds the request parameters of each kind to fetch.
	Params     map[Kind]url.Values
	Regenerate bool

	Progress *progress.Bus
	Recorder metrics.ProfileFetchRecorder
	Log      logger.Logger
}

// Run fetches every missing yearly profile, or all of them when Regenerate
// is set, and saves them in local time.
func (f *Fetcher) Run(ctx context.Context) error {
	if f.EndYear < f.StartYear {
		return fmt.Errorf("invalid generation years %d-%d", f.StartYear, f.EndYear)
	}
	kinds := make([]Kind, 0, len(f.Params))
	for k := range f.Params {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		g.Go(func() error { return f.fetchKind(ctx, kind) })
	}
	return g.Wait()
}

func (f *Fetcher) fetchKind(ctx context.Context, kind Kind) error {
	log := logger.OrNop(f.Log)
	tracker := f.Progress.Track(fmt.Sprintf("%s %sprofiles", kind, f.Prefix), f.EndYear-f.StartYear+1)
	log.Infof("renewables.ninja fetch started for %s profiles", kind)

	for year := f.StartYear; year <= f.EndYear; year++ {
		path := YearFile(f.Dir, f.Prefix, kind, year)
		if !f.Regenerate && fileExists(path) {
			log.Infof("data file for %s %d already exists, skipping", kind, year)
			f.record(metrics.ProfileFetchEvent{Kind: string(kind), Year: year, Cached: true})
			tracker.Step()
			continue
		}

		log.Infof("fetching %s data for year %d", kind, year)
		start := time.Now()
		err := f.fetchYear(ctx, kind, year, path)
		ev := metrics.ProfileFetchEvent{Kind: string(kind), Year: year, Duration: time.Since(start)}
		if err != nil {
			ev.Error = err.Error()
		}
		f.record(ev)
		if err != nil {
			log.Errorf("%s profile for %d failed: %v", kind, year, err)
			return fmt.Errorf("%s profile %d: %w", kind, year, err)
		}
		log.Infof("%s profile for %d saved to %s", kind, year, path)
		tracker.Step()
	}
	return nil
}

func (f *Fetcher) fetchYear(ctx context.Context, kind Kind, year int, path string) error {
	p, err := f.Client.FetchYear(ctx, kind, f.Params[kind], year)
	if err != nil {
		return err
	}
	return SaveProfile(path, ToLocalTime(p, f.Location.TimeDifference))
}

func (f *Fetcher) record(ev metrics.ProfileFetchEvent) {
	if f.Recorder == nil {
		return
	}
	ev.Location = f.Location.Name
	ev.Time = time.Now()
	if err := f.Recorder.RecordProfileFetch(ev); err != nil {
		logger.OrNop(f.Log).Warnf("record profile fetch: %v", err)
	}
}

// TotalProfile concatenates the yearly profiles from startYear into a
// profile covering years. Only the first ten years are read; they are
// repeated as a block until the period is covered, so the result may run
// past it. The result is cached and reused unless regenerate is set.
func TotalProfile(dir, prefix string, kind Kind, startYear, years int, regenerate bool) (Profile, error) {
	if years <= 0 {
		return Profile{}, fmt.Errorf("invalid number of years %d", years)
	}
	path := TotalFile(dir, prefix, kind, years)
	if !regenerate && fileExists(path) {
		return LoadProfile(path)
	}

	var block Profile
	for i := 0; i < min(repeatWindow, years); i++ {
		p, err := LoadProfile(YearFile(dir, prefix, kind, startYear+i))
		if err != nil {
			return Profile{}, fmt.Errorf("%s profile for %d: %w", kind, startYear+i, err)
		}
		if block.Columns == nil {
			block.Columns = p.Columns
		} else if !slices.Equal(block.Columns, p.Columns) {
			return Profile{}, fmt.Errorf("%s profile for %d: columns %v differ from %v", kind, startYear+i, p.Columns, block.Columns)
		}
		block.Rows = append(block.Rows, p.Rows...)
	}

	total := Profile{Columns: block.Columns}
	for i := 0; i < int(math.Ceil(float64(years)/repeatWindow)); i++ {
		total.Rows = append(total.Rows, block.Rows...)
	}
	if err := SaveProfile(path, total); err != nil {
		return Profile{}, err
	}
	return total, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
