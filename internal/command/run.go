package command

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/joeycumines/uibridge/internal/bundle"
	"github.com/joeycumines/uibridge/internal/config"
	"github.com/joeycumines/uibridge/internal/devsupport"
	"github.com/joeycumines/uibridge/internal/host"
	"github.com/joeycumines/uibridge/internal/logging"
	"github.com/joeycumines/uibridge/internal/packages"
	"go.uber.org/zap"
)

// RunCommand builds a bridge instance and runs its bundle once.
type RunCommand struct {
	*BaseCommand
	fs *flag.FlagSet

	configPath string
	debug      bool
	bundleFile string
	asset      string
	devServer  string
	mainModule string
	logLevel   string
	dump       bool

	// Packages are handed to the host alongside the defaults.
	Packages []packages.Package
}

// NewRunCommand creates a new run command.
func NewRunCommand() *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run a bundle and build its shadow tree",
			"run [options]",
		),
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.fs = fs
	fs.StringVar(&c.configPath, "config", "", "Path to a TOML config file (default $UIBRIDGE_CONFIG or ~/.uibridge/config.toml)")
	fs.BoolVar(&c.debug, "debug", false, "Enable dev support")
	fs.StringVar(&c.bundleFile, "bundle", "", "Explicit bundle file; wins over -asset")
	fs.StringVar(&c.asset, "asset", "", "Embedded bundle asset name")
	fs.StringVar(&c.devServer, "dev-server", "", "Dev server base URL (debug only)")
	fs.StringVar(&c.mainModule, "main-module", "", "Entry module requested from the dev server")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.BoolVar(&c.dump, "dump", false, "Print every mounted root after the bundle runs")
}

// resolve merges config values with the flags that were set explicitly.
func (c *RunCommand) resolve() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if c.fs == nil {
		return cfg, nil
	}
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = c.debug
		case "bundle":
			cfg.Bundle.File = c.bundleFile
		case "asset":
			cfg.Bundle.Asset = c.asset
		case "dev-server":
			cfg.Dev.Server = c.devServer
		case "main-module":
			cfg.Bundle.MainModule = c.mainModule
		case "log-level":
			cfg.Log.Level = c.logLevel
		}
	})
	return cfg, nil
}

// Execute runs the bundle.
func (c *RunCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}

	cfg, err := c.resolve()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	inst, err := host.New(host.Options{
		Debug:       cfg.Debug,
		Packages:    c.Packages,
		BundleFile:  cfg.Bundle.File,
		BundleAsset: cfg.Bundle.Asset,
		MainModule:  cfg.Bundle.MainModule,
		Logger:      log,
		SyncTimeout: cfg.Runtime.SyncTimeout,
		DevServer:   cfg.Dev.Server,
	}).Build(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = inst.Close() }()

	inst.SetBundleObserver(bundle.ObserverFuncs{
		Progress: func(p bundle.Progress) { log.Debug("bundle download", zap.Stringer("progress", p)) },
		Failure:  func(cause error) { log.Warn("bundle download failed", zap.Error(cause)) },
	})

	if err := inst.Run(ctx); err != nil {
		(&devsupport.RedBox{Out: stderr, Debug: inst.Debug()}).Show(err)
		return err
	}

	roots := inst.UI().Roots()
	log.Info("bundle ran", zap.String("id", inst.ID()), zap.Ints("roots", roots))
	if c.dump {
		for _, root := range roots {
			_, _ = fmt.Fprint(stdout, inst.UI().Dump(root))
		}
	}
	return nil
}
