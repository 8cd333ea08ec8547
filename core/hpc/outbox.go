package hpc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/kilianp07/clover/core/location"
	"github.com/kilianp07/clover/core/logger"
	"github.com/kilianp07/clover/pkg/export"
)

// ManifestFile is written at the root of every outbox.
const ManifestFile = "manifest.csv"

// OutputExtensions are the files a successful run leaves in its location's
// outputs directory.
var OutputExtensions = []string{".json", ".csv"}

// Assembler gathers the outputs of finished runs into an outbox directory.
type Assembler struct {
	// Root is the CLOVER root holding the locations directory.
	Root   string
	Outbox string
	Log    logger.Logger
}

// Assemble copies the outputs of successful runs into the outbox, one
// directory per location, and writes the manifest. When runs is given, runs
// without any record are reported as missing, and records whose run does
// not match the run at their index are ignored, so a store shared between
// runs files cannot mix up jobs. For an index recorded more than once, the
// last finished record wins.
func (a Assembler) Assemble(runs []Run, records []Record) ([]export.ManifestEntry, error) {
	log := logger.OrNop(a.Log)
	if err := os.MkdirAll(a.Outbox, 0o755); err != nil {
		return nil, err
	}

	latest := make(map[int]Record)
	for _, r := range records {
		if len(runs) > 0 && !belongsTo(r, runs) {
			log.Debugf("record %s: index %d (%s/%s) is not in the runs file, ignored", r.RunID, r.Index, r.Run.Location, r.Run.Output)
			continue
		}
		if prev, ok := latest[r.Index]; !ok || !r.Finished.Before(prev.Finished) {
			latest[r.Index] = r
		}
	}
	for i, run := range runs {
		if _, ok := latest[i+1]; !ok {
			latest[i+1] = Record{Index: i + 1, Run: run, Error: "no run record"}
		}
	}
	indices := make([]int, 0, len(latest))
	for i := range latest {
		indices = append(indices, i)
	}
	slices.Sort(indices)

	entries := make([]export.ManifestEntry, 0, len(indices))
	for _, i := range indices {
		rec := latest[i]
		e := export.ManifestEntry{
			Index:    rec.Index,
			RunID:    rec.RunID,
			Location: rec.Run.Location,
			Output:   rec.Run.Output,
			Error:    rec.Error,
		}
		switch {
		case rec.RunID == "":
			e.Status = export.StatusMissing
		case !rec.Success:
			e.Status = export.StatusFailed
		default:
			files, err := a.copyOutputs(rec.Run)
			if err != nil {
				return entries, err
			}
			if len(files) == 0 {
				e.Status = export.StatusMissing
				e.Error = "no output files"
			} else {
				e.Status = export.StatusCopied
				e.Files = files
			}
		}
		if e.Status != export.StatusCopied {
			log.Warnf("run %d (%s/%s): %s %s", e.Index, e.Location, e.Output, e.Status, e.Error)
		}
		entries = append(entries, e)
	}

	f, err := os.Create(filepath.Join(a.Outbox, ManifestFile))
	if err != nil {
		return entries, err
	}
	if err := export.WriteManifestCSV(f, entries); err != nil {
		_ = f.Close()
		return entries, err
	}
	if err := f.Close(); err != nil {
		return entries, err
	}
	log.Infof("outbox %s: %d run(s) in manifest", a.Outbox, len(entries))
	return entries, nil
}

// belongsTo reports whether rec was produced by the run at its index.
func belongsTo(rec Record, runs []Run) bool {
	if rec.Index < 1 || rec.Index > len(runs) {
		return false
	}
	run := runs[rec.Index-1]
	return rec.Run.Location == run.Location && rec.Run.Output == run.Output
}

// copyOutputs copies the output files of run and returns their paths in the
// outbox, slash-separated.
func (a Assembler) copyOutputs(run Run) ([]string, error) {
	src := location.At(a.Root, run.Location)
	var files []string
	for _, ext := range OutputExtensions {
		name := run.Output + ext
		from := filepath.Join(src.Path(location.OutputsDir), name)
		rel := path.Join(run.Location, name)
		err := copyFile(from, filepath.Join(a.Outbox, filepath.FromSlash(rel)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", from, err)
		}
		files = append(files, rel)
	}
	return files, nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
