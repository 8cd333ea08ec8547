// Package cmd holds the cobra commands behind the CLOVER binaries. Each
// binary under cmd/ executes one of the command constructors.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/clover/config"
	"github.com/kilianp07/clover/infra/logger"
)

// defaultConfigFile is loaded from the root when --config is not given and
// the file exists.
const defaultConfigFile = "clover.yaml"

type globalOptions struct {
	configPath string
	root       string
	verbose    bool
}

func (o *globalOptions) bind(c *cobra.Command) {
	c.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "tool configuration file (default <root>/clover.yaml when present)")
	c.PersistentFlags().StringVarP(&o.root, "root", "r", ".", "directory holding the locations directory")
	c.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log at debug level")
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		candidate := filepath.Join(o.root, defaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.verbose {
		cfg.Logging.Verbose = true
	}
	return cfg, nil
}

// newLogger logs to the command output and, when logName is set, to
// <logging.dir>/<logName>.log. A relative logging.dir is taken from the root.
func (o *globalOptions) newLogger(c *cobra.Command, cfg *config.Config, component, logName string) (*logger.ZerologLogger, io.Closer) {
	opts := logger.Options{
		Component:  component,
		Verbose:    cfg.Logging.Verbose,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Console:    c.ErrOrStderr(),
	}
	if logName != "" {
		dir := cfg.Logging.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(o.root, dir)
		}
		opts.File = filepath.Join(dir, logName+".log")
	}
	return logger.NewZerologLogger(opts)
}

func newRoot(use, short string, opts *globalOptions) *cobra.Command {
	c := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(c)
	return c
}
