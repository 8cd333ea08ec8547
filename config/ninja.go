package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kilianp07/clover/core/generation"
)

// NinjaConfig configures the renewables.ninja client.
type NinjaConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
	// Interval spaces consecutive requests. The free tier allows 5 per
	// minute, hence the default of 12s.
	Interval time.Duration `json:"interval"`
}

func (c *NinjaConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = generation.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Interval == 0 {
		c.Interval = 12 * time.Second
	}
}

func (c NinjaConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("renewables_ninja.base_url %q is not an absolute URL", c.BaseURL)
	}
	if c.Timeout < 0 || c.Interval < 0 {
		return fmt.Errorf("renewables_ninja durations must not be negative")
	}
	return nil
}

// GridConfig seeds the grid availability draws so that reruns reproduce the
// same profiles.
type GridConfig struct {
	Seed uint64 `json:"seed"`
}

// HPCConfig configures batch runs.
type HPCConfig struct {
	RunsFile string `json:"runs_file"`
	// Parallelism bounds the runs executed at once when one job runs several.
	Parallelism int `json:"parallelism"`
	// Store is the JSONL file run records are appended to.
	Store string `json:"store"`
}

func (c *HPCConfig) SetDefaults() {
	if c.RunsFile == "" {
		c.RunsFile = "hpc_runs.yaml"
	}
	if c.Parallelism == 0 {
		c.Parallelism = 1
	}
	if c.Store == "" {
		c.Store = "hpc_runs.jsonl"
	}
}

func (c HPCConfig) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("hpc.parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}
