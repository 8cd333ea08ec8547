package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clover/core/hpc"
	"github.com/kilianp07/clover/pkg/export"
)

// NewOutboxCmd returns the hpc-outbox-assembly command.
func NewOutboxCmd() *cobra.Command {
	var (
		opts      globalOptions
		runsFile  string
		storePath string
		outbox    string
		asJSON    bool
		strict    bool
	)
	c := newRoot("hpc-outbox-assembly", "Gather the outputs of finished HPC runs", &opts)
	c.Long = "Copies the outputs of every successful run recorded in the run-record store into " +
		"an outbox directory and writes " + hpc.ManifestFile + ". Failed runs, and runs of the " +
		"runs file that left no record, are listed in the manifest."
	f := c.Flags()
	f.StringVar(&runsFile, "runs", "", "runs file listing the expected runs (default hpc.runs_file when present)")
	f.StringVar(&storePath, "store", "", "run-record store (default hpc.store)")
	f.StringVarP(&outbox, "outbox", "o", "outbox", "outbox directory, relative to the root unless absolute")
	f.BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	f.BoolVar(&strict, "strict", false, "fail when a run was not copied")

	c.RunE = func(c *cobra.Command, _ []string) error {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		log, closer := opts.newLogger(c, cfg, "hpc-outbox-assembly", "")
		defer closer.Close()

		if storePath == "" {
			storePath = inRoot(opts.root, cfg.HPC.Store)
		}
		store, err := hpc.NewJSONLStore(storePath)
		if err != nil {
			return err
		}
		defer store.Close()
		records, err := store.Query(c.Context(), hpc.Query{})
		if err != nil {
			return err
		}

		var runs []hpc.Run
		explicit := runsFile != ""
		if !explicit {
			runsFile = inRoot(opts.root, cfg.HPC.RunsFile)
		}
		runs, err = hpc.LoadRuns(runsFile)
		if err != nil {
			if explicit {
				return err
			}
			log.Debugf("no runs file: %v", err)
		}

		entries, err := hpc.Assembler{Root: opts.root, Outbox: inRoot(opts.root, outbox), Log: log}.Assemble(runs, records)
		if err != nil {
			return err
		}
		if asJSON {
			if err := export.WriteManifestJSON(c.OutOrStdout(), entries); err != nil {
				return err
			}
		}
		counts := map[string]int{}
		for _, e := range entries {
			counts[e.Status]++
		}
		fmt.Fprintf(c.ErrOrStderr(), "%d copied, %d failed, %d missing\n",
			counts[export.StatusCopied], counts[export.StatusFailed], counts[export.StatusMissing])
		if strict && counts[export.StatusCopied] != len(entries) {
			return fmt.Errorf("%d of %d run(s) not copied", len(entries)-counts[export.StatusCopied], len(entries))
		}
		return nil
	}
	return c
}
