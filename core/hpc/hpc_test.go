package hpc

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clover/core/location"
	"github.com/kilianp07/clover/pkg/export"
)

const runsYAML = `- location: bahraich
  pv_system_size: 20
  storage_size: 40
  usage: usage/run_1.csv
  start_year: 0
  end_year: 4
  output: run_1
- location: bahraich
  pv_system_size: 10
  diesel_size: 5
  usage: usage/run_2.csv
  start_year: 0
  end_year: 10
  output: run_2
`

func writeRuns(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hpc_runs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadRunsAndSelect(t *testing.T) {
	runs, err := LoadRuns(writeRuns(t, runsYAML))
	require.NoError(t, err)
	require.Len(t, runs, 2)

	r, err := Select(runs, 2)
	require.NoError(t, err)
	assert.Equal(t, "run_2", r.Output)
	assert.InDelta(t, 5, r.Sizing().Diesel, 1e-12)
	assert.Equal(t, 10, r.EndYear)

	_, err = Select(runs, 0)
	assert.ErrorIs(t, err, ErrRunIndex)
	_, err = Select(runs, 3)
	assert.ErrorIs(t, err, ErrRunIndex)
}

func TestLoadRuns_Invalid(t *testing.T) {
	_, err := LoadRuns(writeRuns(t, "- location: bahraich\n  usage: u.csv\n  start_year: 2\n  end_year: 1\n  output: x\n"))
	assert.ErrorContains(t, err, "run 1")

	_, err = LoadRuns(writeRuns(t, "- location: bahraich\n  usage: u.csv\n  end_year: 1\n  output: x\n  storage_size: -1\n"))
	assert.Error(t, err)
}

func TestIndexFromEnv(t *testing.T) {
	t.Setenv(ArrayIndexEnv, "")
	i, err := IndexFromEnv()
	require.NoError(t, err)
	assert.Zero(t, i)

	t.Setenv(ArrayIndexEnv, "3")
	i, err = IndexFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	t.Setenv(ArrayIndexEnv, "x")
	_, err = IndexFromEnv()
	assert.Error(t, err)
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, Record{RunID: "a", Index: 1, Run: Run{Location: "bahraich"}, Finished: base, Success: true}))
	require.NoError(t, store.Append(ctx, Record{RunID: "b", Index: 2, Run: Run{Location: "sitapur"}, Finished: base.Add(time.Hour)}))

	// A line cut short by a killed job is skipped.
	f, err := os.OpenFile(store.path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"run_id": "c", "ind`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	res, err := store.Query(ctx, Query{Location: "sitapur"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "b", res[0].RunID)

	res, err = store.Query(ctx, Query{Start: base.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 2, res[0].Index)
}

func TestAssemble(t *testing.T) {
	root := t.TempDir()
	outputs := location.At(root, "bahraich").Path(location.OutputsDir)
	require.NoError(t, os.MkdirAll(outputs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputs, "run_1.json"), []byte(`{"total_cost": 1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputs, "run_1.csv"), []byte("total_cost\n1\n"), 0o644))

	runs := []Run{
		{Location: "bahraich", Output: "run_1"},
		{Location: "bahraich", Output: "run_2"},
		{Location: "bahraich", Output: "run_3"},
		{Location: "bahraich", Output: "run_4"},
	}
	now := time.Now()
	records := []Record{
		{RunID: "old", Index: 1, Run: runs[0], Finished: now.Add(-time.Hour), Error: "first attempt"},
		{RunID: "r1", Index: 1, Run: runs[0], Finished: now, Success: true},
		{RunID: "r2", Index: 2, Run: runs[1], Finished: now, Error: "boom"},
		{RunID: "r3", Index: 3, Run: runs[2], Finished: now, Success: true},
	}

	outbox := filepath.Join(t.TempDir(), "outbox")
	entries, err := Assembler{Root: root, Outbox: outbox}.Assemble(runs, records)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, export.StatusCopied, entries[0].Status)
	assert.Equal(t, "r1", entries[0].RunID)
	assert.Equal(t, []string{"bahraich/run_1.json", "bahraich/run_1.csv"}, entries[0].Files)
	assert.Equal(t, export.StatusFailed, entries[1].Status)
	assert.Equal(t, "boom", entries[1].Error)
	assert.Equal(t, export.StatusMissing, entries[2].Status)
	assert.Equal(t, export.StatusMissing, entries[3].Status)
	assert.Equal(t, "no run record", entries[3].Error)

	data, err := os.ReadFile(filepath.Join(outbox, "bahraich", "run_1.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_cost": 1}`, string(data))

	f, err := os.Open(filepath.Join(outbox, ManifestFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, "copied", rows[1][4])
}

func TestAssemble_IgnoresRecordsOfOtherJobs(t *testing.T) {
	root := t.TempDir()
	outputs := location.At(root, "bahraich").Path(location.OutputsDir)
	require.NoError(t, os.MkdirAll(outputs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputs, "run_1.json"), []byte(`{}`), 0o644))

	runs := []Run{{Location: "bahraich", Output: "run_1"}}
	now := time.Now()
	records := []Record{
		{RunID: "ours", Index: 1, Run: runs[0], Finished: now, Success: true},
		{RunID: "theirs", Index: 1, Run: Run{Location: "lucknow", Output: "sweep_1"}, Finished: now.Add(time.Hour), Error: "boom"},
		{RunID: "stray", Index: 7, Run: Run{Location: "bahraich", Output: "run_7"}, Finished: now, Success: true},
	}

	entries, err := Assembler{Root: root, Outbox: filepath.Join(t.TempDir(), "outbox")}.Assemble(runs, records)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ours", entries[0].RunID)
	assert.Equal(t, export.StatusCopied, entries[0].Status)
}
