package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/clover/core/hpc"
	"github.com/kilianp07/clover/core/location"
	"github.com/kilianp07/clover/pkg/export"
)

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&errOut)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

// newLocation scaffolds a one-year location with a usage file.
func newLocation(t *testing.T, root, name string) {
	t.Helper()
	_, err := execute(t, NewLocationCmd(), "--root", root, name)
	require.NoError(t, err)
	l := location.At(root, name)
	loc := fmt.Sprintf("name: %s\nlatitude: 27.57\nlongitude: 81.6\nmax_years: 1\n", name)
	require.NoError(t, os.WriteFile(l.Path(location.LocationInputsFile), []byte(loc), 0o644))

	var b strings.Builder
	b.WriteString("total_energy_used_kwh,load_w\n")
	for h := 0; h < 8760; h++ {
		b.WriteString("2,1500\n")
	}
	require.NoError(t, os.WriteFile(l.Path("usage.csv"), []byte(b.String()), 0o644))
}

func TestLocationCmd(t *testing.T) {
	root := t.TempDir()
	out, err := execute(t, NewLocationCmd(), "--root", root, "bahraich")
	require.NoError(t, err)
	assert.Contains(t, out, location.FinanceInputsFile)

	_, err = execute(t, NewLocationCmd(), "--root", root, "bahraich")
	assert.ErrorIs(t, err, location.ErrExists)

	out, err = execute(t, NewLocationCmd(), "--root", root, "--update", "bahraich")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = execute(t, NewLocationCmd(), "--root", root, "--from-existing", "bahraich", "sitapur")
	require.NoError(t, err)
	assert.DirExists(t, location.At(root, "sitapur").Dir)

	_, err = execute(t, NewLocationCmd(), "--root", root)
	assert.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	root := t.TempDir()
	_, err := execute(t, NewLocationCmd(), "--root", root, "bahraich")
	require.NoError(t, err)

	out, err := execute(t, NewTokenCmd(), "--root", root, "-l", "bahraich", "-t", "new-token")
	require.NoError(t, err)
	assert.Contains(t, out, "bahraich")
	data, err := os.ReadFile(location.At(root, "bahraich").Path(location.GenerationInputsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "token: new-token")

	_, err = execute(t, NewTokenCmd(), "--root", root, "-l", "nowhere", "-t", "x")
	assert.ErrorIs(t, err, location.ErrNotFound)

	_, err = execute(t, NewTokenCmd(), "--root", root, "-l", "bahraich")
	assert.Error(t, err)
}

func TestCloverCmd(t *testing.T) {
	root := t.TempDir()
	newLocation(t, root, "bahraich")

	out, err := execute(t, NewCloverCmd(), "--root", root,
		"-l", "bahraich", "--pv-system-size", "5", "--storage-size", "10",
		"-u", "usage.csv", "--end-year", "1", "-o", "first", "--skip-profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "total cost")

	outputs := location.At(root, "bahraich").Path(location.OutputsDir)
	assert.FileExists(t, filepath.Join(outputs, "first.json"))
	assert.FileExists(t, filepath.Join(outputs, "first.csv"))
	assert.FileExists(t, filepath.Join(root, "logs", "bahraich.log"))

	_, err = execute(t, NewCloverCmd(), "--root", root, "-l", "bahraich", "-u", "usage.csv")
	assert.Error(t, err, "end-year is required")
}

func TestHPCAndOutboxCmds(t *testing.T) {
	root := t.TempDir()
	newLocation(t, root, "bahraich")
	runs := `- location: bahraich
  pv_system_size: 5
  usage: usage.csv
  end_year: 1
  output: hpc_1
- location: bahraich
  pv_system_size: 10
  usage: usage.csv
  end_year: 1
  output: hpc_2
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "hpc_runs.yaml"), []byte(runs), 0o644))

	t.Setenv(hpc.ArrayIndexEnv, "")
	_, err := execute(t, NewHPCCmd(), "--root", root, "--skip-profiles")
	assert.ErrorContains(t, err, "no run selected")

	_, err = execute(t, NewHPCCmd(), "--root", root, "--skip-profiles", "--index", "3")
	assert.ErrorIs(t, err, hpc.ErrRunIndex)

	t.Setenv(hpc.ArrayIndexEnv, "2")
	_, err = execute(t, NewHPCCmd(), "--root", root, "--skip-profiles")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(location.At(root, "bahraich").Path(location.OutputsDir), "hpc_2.json"))

	out, err := execute(t, NewOutboxCmd(), "--root", root, "--json")
	require.NoError(t, err)
	var entries []export.ManifestEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, export.StatusMissing, entries[0].Status)
	assert.Equal(t, export.StatusCopied, entries[1].Status)
	assert.FileExists(t, filepath.Join(root, "outbox", hpc.ManifestFile))
	assert.FileExists(t, filepath.Join(root, "outbox", "bahraich", "hpc_2.csv"))

	_, err = execute(t, NewOutboxCmd(), "--root", root, "--strict")
	assert.Error(t, err)

	_, err = execute(t, NewHPCCmd(), "--root", root, "--skip-profiles", "--all")
	require.NoError(t, err)
	_, err = execute(t, NewOutboxCmd(), "--root", root, "--strict")
	assert.NoError(t, err)
}
