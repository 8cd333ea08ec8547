package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clover/app"
	"github.com/kilianp07/clover/core/hpc"
)

// NewHPCCmd returns the clover-hpc command, run once per array sub-job.
func NewHPCCmd() *cobra.Command {
	var (
		opts         globalOptions
		runsFile     string
		storePath    string
		index        int
		all          bool
		skipProfiles bool
	)
	c := newRoot("clover-hpc", "Run one entry of an HPC runs file", &opts)
	c.Long = "Executes the run selected by --index, or by the " + hpc.ArrayIndexEnv + " variable of a PBS " +
		"array job, and appends its outcome to the run-record store. With --all every run is " +
		"executed, hpc.parallelism at a time."
	f := c.Flags()
	f.StringVar(&runsFile, "runs", "", "runs file (default hpc.runs_file)")
	f.StringVar(&storePath, "store", "", "run-record store (default hpc.store)")
	f.IntVarP(&index, "index", "i", 0, "1-based run index (default $"+hpc.ArrayIndexEnv+")")
	f.BoolVar(&all, "all", false, "execute every run")
	f.BoolVar(&skipProfiles, "skip-profiles", false, "do not fetch or draw profiles")
	c.MarkFlagsMutuallyExclusive("index", "all")

	c.RunE = func(c *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		if runsFile == "" {
			runsFile = inRoot(opts.root, cfg.HPC.RunsFile)
		}
		if storePath == "" {
			storePath = inRoot(opts.root, cfg.HPC.Store)
		}
		runs, err := hpc.LoadRuns(runsFile)
		if err != nil {
			return err
		}
		if !all && index == 0 {
			if index, err = hpc.IndexFromEnv(); err != nil {
				return err
			}
			if index == 0 {
				return fmt.Errorf("no run selected: pass --index, --all or set %s", hpc.ArrayIndexEnv)
			}
		}

		logName := "hpc"
		if !all {
			run, err := hpc.Select(runs, index)
			if err != nil {
				return err
			}
			logName = fmt.Sprintf("%s_hpc_run_%d", run.Location, index)
		}
		log, closer := opts.newLogger(c, cfg, "clover-hpc", logName)
		defer closer.Close()

		store, err := hpc.NewJSONLStore(storePath)
		if err != nil {
			return err
		}
		defer store.Close()

		svc, err := app.New(cfg, log.With("service"))
		if err != nil {
			return err
		}
		svc.Start(ctx)
		defer func() {
			if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
				log.Errorf("service close: %v", err)
			}
		}()

		batch := &app.Batch{
			Runner:       &app.Runner{Service: svc, Log: log.With("runner")},
			Store:        store,
			Root:         opts.root,
			Parallelism:  cfg.HPC.Parallelism,
			SkipProfiles: skipProfiles,
			Log:          log,
		}
		if all {
			log.Infof("executing %d run(s), %d at a time", len(runs), cfg.HPC.Parallelism)
			return batch.RunAll(ctx, runs)
		}
		log.Infof("executing run %d of %d", index, len(runs))
		return batch.RunIndex(ctx, runs, index)
	}
	return c
}

func inRoot(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
