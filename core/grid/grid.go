// Package grid generates hourly grid-availability profiles from the
// probability of the grid being up at each hour of the day.
package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/clover/core/logger"
	"github.com/kilianp07/clover/core/model"
)

const hoursPerYear = 365 * 24

// ErrInvalidName is returned for a grid name that cannot name a cache file.
var ErrInvalidName = errors.New("invalid grid name")

// Times maps a grid name to its 24 hourly availability probabilities.
type Times map[string][]float64

// Names returns the grid names in lexical order.
func (t Times) Names() []string {
	out := make([]string, 0, len(t))
	for n := range t {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks every grid name is a plain file name and every profile has
// 24 probabilities in [0, 1].
func (t Times) Validate() error {
	for _, name := range t.Names() {
		if err := checkName(name); err != nil {
			return err
		}
		p := t[name]
		if len(p) != 24 {
			return fmt.Errorf("grid %q: %d hourly values, want 24", name, len(p))
		}
		for h, v := range p {
			if err := model.CheckFraction(fmt.Sprintf("%s[%d]", name, h), v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadTimes parses grid_times.csv: a header of grid names followed by one row
// per hour of the day. A leading "hour" column is ignored.
func ReadTimes(r io.Reader) (Times, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("grid times: empty input")
		}
		return nil, err
	}
	t := make(Times)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" || strings.EqualFold(name, "hour") {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("grid %q: %w", name, err)
			}
			t[name] = append(t[name], v)
		}
	}
	return t, t.Validate()
}

// checkName rejects names that would escape the grid directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LoadTimes reads grid_times.csv from disk.
func LoadTimes(path string) (Times, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadTimes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// StatusFile is the cache path of a grid's lifetime profile.
func StatusFile(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf("grid_status_%s.csv", name))
}

// Generator draws lifetime availability profiles.
type Generator struct {
	Dir        string
	MaxYears   int
	Seed       uint64
	Regenerate bool
	Log        logger.Logger
}

// LifetimeStatus returns, for every grid, one 0/1 availability value per
// hour over MaxYears. Hour h is available with the probability given for
// h mod 24. Profiles are cached in Dir and reused unless Regenerate is set.
// Each grid draws from its own stream derived from Seed, so a profile does
// not depend on which other grids are defined.
func (g Generator) LifetimeStatus(times Times) (map[string][]float64, error) {
	if g.MaxYears <= 0 {
		return nil, fmt.Errorf("max_years must be positive, got %d", g.MaxYears)
	}
	if err := times.Validate(); err != nil {
		return nil, err
	}
	log := logger.OrNop(g.Log)
	hours := g.MaxYears * hoursPerYear
	out := make(map[string][]float64, len(times))
	for _, name := range times.Names() {
		path := StatusFile(g.Dir, name)
		if !g.Regenerate {
			if status, err := loadStatus(path); err == nil && len(status) == hours {
				log.Infof("grid profile for %s loaded from %s", name, path)
				out[name] = status
				continue
			}
		}
		src := rand.NewPCG(g.Seed, streamOffset(name))
		status := draw(times[name], hours, src)
		if err := saveStatus(path, status); err != nil {
			return nil, fmt.Errorf("grid %q: %w", name, err)
		}
		log.Infof("grid profile for %s generated", name)
		out[name] = status
	}
	return out, nil
}

// streamOffset hashes a grid name so streams differ between grids.
func streamOffset(name string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= 1099511628211
	}
	return h
}

func draw(daily []float64, hours int, src rand.Source) []float64 {
	var dists [24]distuv.Bernoulli
	for h := range dists {
		dists[h] = distuv.Bernoulli{P: daily[h], Src: src}
	}
	out := make([]float64, hours)
	for i := range out {
		out[i] = dists[i%24].Rand()
	}
	return out
}

func saveStatus(path string, status []float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("status\n")
	for _, v := range status {
		b.WriteString(strconv.Itoa(int(v)))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func loadStatus(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	if _, err := cr.Read(); err != nil {
		return nil, err
	}
	var out []float64
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
