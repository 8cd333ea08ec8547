package generation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// Profile is an hourly table of generation data with named columns, e.g.
// electricity output in kW/kWp and irradiance for solar profiles.
type Profile struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of hourly rows.
func (p Profile) Len() int { return len(p.Rows) }

// Column returns a copy of the named column.
func (p Profile) Column(name string) ([]float64, bool) {
	i := p.index(name)
	if i < 0 {
		return nil, false
	}
	out := make([]float64, len(p.Rows))
	for r, row := range p.Rows {
		out[r] = row[i]
	}
	return out, true
}

func (p Profile) index(name string) int {
	for i, c := range p.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddSum appends a column holding the row-wise sum of the given columns.
func (p *Profile) AddSum(name string, of ...string) error {
	idx := make([]int, len(of))
	for k, c := range of {
		if idx[k] = p.index(c); idx[k] < 0 {
			return fmt.Errorf("profile has no %q column", c)
		}
	}
	p.Columns = append(p.Columns, name)
	for r, row := range p.Rows {
		var sum float64
		for _, i := range idx {
			sum += row[i]
		}
		p.Rows[r] = append(row, sum)
	}
	return nil
}

// DropRows removes rows [from, to).
func (p *Profile) DropRows(from, to int) {
	if from < 0 {
		from = 0
	}
	if to > len(p.Rows) {
		to = len(p.Rows)
	}
	if from >= to {
		return
	}
	p.Rows = append(p.Rows[:from], p.Rows[to:]...)
}

// ToLocalTime shifts a UTC profile by the time difference in hours, rounded
// half to even. East of Greenwich the last rows wrap to the start; west of
// it the first rows wrap to the end.
func ToLocalTime(p Profile, timeDifference float64) Profile {
	n := len(p.Rows)
	shift := int(math.RoundToEven(timeDifference))
	if n == 0 || shift == 0 {
		return p
	}
	shift %= n
	if shift < 0 {
		shift += n
	}
	rows := make([][]float64, 0, n)
	rows = append(rows, p.Rows[n-shift:]...)
	rows = append(rows, p.Rows[:n-shift]...)
	return Profile{Columns: p.Columns, Rows: rows}
}

// WriteCSV writes the profile with a header row.
func (p Profile) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(p.Columns); err != nil {
		return err
	}
	rec := make([]string, len(p.Columns))
	for _, row := range p.Rows {
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadProfile parses a profile written by WriteCSV.
func ReadProfile(r io.Reader) (Profile, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Profile{}, fmt.Errorf("profile: empty input")
		}
		return Profile{}, err
	}
	p := Profile{Columns: header}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Profile{}, err
		}
		row := make([]float64, len(rec))
		for i, s := range rec {
			if row[i], err = strconv.ParseFloat(s, 64); err != nil {
				return Profile{}, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

// SaveProfile writes the profile to path, creating parent directories.
func SaveProfile(path string, p Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// LoadProfile reads a profile from path.
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, err
	}
	defer f.Close()
	p, err := ReadProfile(f)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
