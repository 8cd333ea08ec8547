package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clover/app"
	"github.com/kilianp07/clover/core/finance"
)

// NewCloverCmd returns the clover command: one run for one location.
func NewCloverCmd() *cobra.Command {
	var (
		opts   globalOptions
		req    app.Request
		sizing finance.Sizing
	)
	c := newRoot("clover", "Run CLOVER for one location", &opts)
	c.Long = "Fetches the renewables.ninja and grid profiles of a location, then appraises the " +
		"hourly usage of a sized system over a simulation period and writes the result to " +
		"the location's outputs directory."
	f := c.Flags()
	f.StringVarP(&req.Location, "location", "l", "", "name of the location")
	f.Float64Var(&sizing.PV, "pv-system-size", 0, "PV capacity in kWp")
	f.Float64Var(&sizing.PVT, "pvt-system-size", 0, "PV-T capacity in kWp")
	f.Float64Var(&sizing.Storage, "storage-size", 0, "storage capacity in kWh")
	f.Float64Var(&sizing.Diesel, "diesel-size", 0, "diesel generator capacity in kW")
	f.Float64Var(&sizing.CleanWaterTanks, "clean-water-tanks", 0, "number of clean-water tanks")
	f.Float64Var(&sizing.HotWaterTanks, "hot-water-tanks", 0, "number of hot-water tanks")
	f.StringVarP(&req.Usage, "usage", "u", "", "hourly usage CSV, relative to the location directory unless absolute")
	f.IntVar(&req.StartYear, "start-year", 0, "first simulation year")
	f.IntVar(&req.EndYear, "end-year", 0, "simulation year the period ends before")
	f.StringVarP(&req.Output, "output", "o", "", "name of the output files (default: the run ID)")
	f.BoolVar(&req.SkipProfiles, "skip-profiles", false, "do not fetch or draw profiles")
	f.BoolVar(&req.Regenerate, "regenerate", false, "refetch and redraw cached profiles")
	_ = c.MarkFlagRequired("location")
	_ = c.MarkFlagRequired("usage")
	_ = c.MarkFlagRequired("end-year")

	c.RunE = func(c *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		log, closer := opts.newLogger(c, cfg, "clover", req.Location)
		defer closer.Close()

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

		req.Root = opts.root
		req.Sizing = sizing
		req.Command = "clover"
		runner := &app.Runner{Service: svc, Log: log.With("runner")}
		res, err := runner.Run(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "run %s: total cost %.2f\n", res.RunID, res.Appraisal.TotalCost)
		for _, f := range res.Files {
			fmt.Fprintln(c.OutOrStdout(), f)
		}
		return nil
	}
	return c
}
