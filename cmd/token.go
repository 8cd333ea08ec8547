package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clover/core/location"
)

// NewTokenCmd returns the update-api-token command.
func NewTokenCmd() *cobra.Command {
	var (
		opts  globalOptions
		name  string
		token string
	)
	c := newRoot("update-api-token", "Update the renewables.ninja API token of a location", &opts)
	f := c.Flags()
	f.StringVarP(&name, "location", "l", "", "name of the location")
	f.StringVarP(&token, "token", "t", "", "renewables.ninja API token")
	_ = c.MarkFlagRequired("location")
	_ = c.MarkFlagRequired("token")

	c.RunE = func(c *cobra.Command, _ []string) error {
		if err := location.UpdateToken(opts.root, name, token); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "API token of %s updated\n", name)
		return nil
	}
	return c
}
