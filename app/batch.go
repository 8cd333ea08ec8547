package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/clover/core/hpc"
	"github.com/kilianp07/clover/infra/logger"
)

// Batch executes the runs of an HPC runs file and records each outcome.
type Batch struct {
	Runner *Runner
	Store  hpc.Store
	Root   string
	// Parallelism bounds the runs executed at once by RunAll.
	Parallelism  int
	SkipProfiles bool
	Log          logger.Logger
}

// RunIndex executes the run at the 1-based index, as one array sub-job does.
func (b *Batch) RunIndex(ctx context.Context, runs []hpc.Run, index int) error {
	run, err := hpc.Select(runs, index)
	if err != nil {
		return err
	}
	return b.execute(ctx, index, run)
}

// RunAll executes every run, Parallelism at a time. All runs are attempted;
// the returned error joins the failures.
func (b *Batch) RunAll(ctx context.Context, runs []hpc.Run) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Parallelism, 1))
	errs := make([]error, len(runs))
	for i, run := range runs {
		g.Go(func() error {
			errs[i] = b.execute(ctx, i+1, run)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (b *Batch) execute(ctx context.Context, index int, run hpc.Run) error {
	log := b.Log
	if log == nil {
		log = logger.New("hpc")
	}
	host, _ := os.Hostname()
	started := time.Now()
	res, err := b.Runner.Run(ctx, Request{
		Root:         b.Root,
		Location:     run.Location,
		Sizing:       run.Sizing(),
		Usage:        run.Usage,
		StartYear:    run.StartYear,
		EndYear:      run.EndYear,
		Output:       run.Output,
		SkipProfiles: b.SkipProfiles,
		Command:      "clover-hpc",
	})
	rec := hpc.Record{
		RunID:    res.RunID,
		Index:    index,
		Run:      run,
		Host:     host,
		Started:  started,
		Finished: time.Now(),
		Success:  err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
		log.Errorf("run %d (%s) failed: %v", index, run.Output, err)
	}
	if b.Store != nil {
		if serr := b.Store.Append(context.WithoutCancel(ctx), rec); serr != nil {
			log.Errorf("store run %d: %v", index, serr)
		}
	}
	if err != nil {
		return fmt.Errorf("run %d: %w", index, err)
	}
	return nil
}
