package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clover/core/location"
)

// NewLocationCmd returns the new-clover-location command.
func NewLocationCmd() *cobra.Command {
	var (
		opts  globalOptions
		sopts location.Options
	)
	c := newRoot("new-clover-location <name>", "Create the input tree of a new location", &opts)
	c.Args = cobra.ExactArgs(1)
	f := c.Flags()
	f.StringVarP(&sopts.FromExisting, "from-existing", "f", "", "copy the inputs of this location instead of the templates")
	f.BoolVarP(&sopts.Update, "update", "u", false, "add the files missing from an existing location")

	c.RunE = func(c *cobra.Command, args []string) error {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		log, closer := opts.newLogger(c, cfg, "new-clover-location", "")
		defer closer.Close()

		sopts.Log = log
		written, err := location.Scaffold(opts.root, args[0], sopts)
		if err != nil {
			return err
		}
		for _, f := range written {
			fmt.Fprintln(c.OutOrStdout(), f)
		}
		return nil
	}
	return c
}
