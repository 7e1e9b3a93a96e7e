package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/macscan/application/services"
	"github.com/carlosrabelo/macscan/infrastructure/config"
	"github.com/carlosrabelo/macscan/infrastructure/export"
	"github.com/carlosrabelo/macscan/infrastructure/logging"
	"github.com/carlosrabelo/macscan/infrastructure/transport"
	"github.com/carlosrabelo/macscan/platform"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type options struct {
	configFile  string
	target      string
	verbosity   int
	csvPath     string
	noCSV       bool
	check       bool
	logFile     string
	logFormat   string
	concurrency int
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  --config string       YAML configuration file (default \"config.yaml\")\n")
	fmt.Fprintf(os.Stderr, "  --target string       Poll only the switch with this name or target\n")
	fmt.Fprintf(os.Stderr, "  --verbose int         Verbosity level: 0=none, 1=debug logs, 2=raw switch output, 3=debug+raw output\n")
	fmt.Fprintf(os.Stderr, "  --csv string          CSV export path (default mac_addresses_YYYYMMDD_HHMMSS.csv)\n")
	fmt.Fprintf(os.Stderr, "  --no-csv              Skip the CSV export\n")
	fmt.Fprintf(os.Stderr, "  --check               Only test connectivity to every switch\n")
	fmt.Fprintf(os.Stderr, "  --log-file string     Also write logs to this file (rotated, overrides log.file)\n")
	fmt.Fprintf(os.Stderr, "  --log-format string   Log format: text or json (overrides log.format)\n")
	fmt.Fprintf(os.Stderr, "  --concurrency int     Switches polled in parallel (default from YAML)\n")
	fmt.Fprintf(os.Stderr, "Platforms: %s, auto\n", strings.Join(platformNames(), ", "))
}

func platformNames() []string {
	drivers := platform.Available()
	names := make([]string, 0, len(drivers))
	for _, d := range drivers {
		names = append(names, d.Name())
	}
	return names
}

func parseOptions(args []string) (*options, error) {
	fs := flag.NewFlagSet("macscan", flag.ContinueOnError)
	fs.Usage = printUsage
	opts := &options{}
	fs.StringVar(&opts.configFile, "config", config.DefaultFile, "YAML configuration file")
	fs.StringVar(&opts.target, "target", "", "Poll only the switch with this name or target")
	fs.IntVar(&opts.verbosity, "verbose", 0, "Verbosity level: 0=none, 1=debug logs, 2=raw switch output, 3=debug+raw output")
	fs.StringVar(&opts.csvPath, "csv", "", "CSV export path")
	fs.BoolVar(&opts.noCSV, "no-csv", false, "Skip the CSV export")
	fs.BoolVar(&opts.check, "check", false, "Only test connectivity to every switch")
	fs.StringVar(&opts.logFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Switches polled in parallel")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.verbosity < 0 || opts.verbosity > 3 {
		return nil, errors.New("--verbose must be 0, 1, 2, or 3")
	}
	if opts.concurrency < 0 {
		return nil, errors.New("--concurrency must not be negative")
	}
	if err := config.ValidateLogFormat(opts.logFormat); err != nil {
		return nil, err
	}
	if opts.noCSV && opts.csvPath != "" {
		return nil, errors.New("--csv and --no-csv are mutually exclusive")
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	fmt.Printf("macscan %s (built %s)\n", version, buildTime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, stdout io.Writer) error {
	if err := logging.Init(loggingConfig(opts, config.LogConfig{})); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	// .env is optional; it only feeds the credential overrides
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Ignoring .env: %v", err)
	}

	configPath, err := config.Resolve(opts.configFile, config.SearchPaths())
	if err != nil {
		return err
	}
	logrus.Debugf("Configuration file found at %s", configPath)

	cfg, err := config.Load(configPath, opts.verbosity)
	if err != nil {
		return err
	}
	if err := logging.Init(loggingConfig(opts, cfg.Log)); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	devices, err := cfg.Select(opts.target)
	if err != nil {
		return err
	}

	concurrency := cfg.Concurrency
	if opts.concurrency > 0 {
		concurrency = opts.concurrency
	}
	poller := services.NewPollService(concurrency)
	defer transport.CloseAll()

	fmt.Fprintf(stdout, "Processing %d switch(es)...\n", len(devices))

	if opts.check {
		results := poller.Check(ctx, devices)
		printCheck(stdout, results)
		if services.CountReachable(results) != len(results) {
			return fmt.Errorf("%d switch(es) unreachable", len(results)-services.CountReachable(results))
		}
		return nil
	}

	agg := poller.Run(ctx, devices)
	export.DisplayResults(stdout, agg)

	csvPath := ""
	if !opts.noCSV {
		path := opts.csvPath
		if path == "" {
			path = export.DefaultFilename(time.Now())
		}
		rows, err := export.SaveCSV(path, agg, devices)
		if err != nil {
			logrus.Errorf("CSV export failed: %v", err)
		} else {
			if abs, absErr := filepath.Abs(path); absErr == nil {
				path = abs
			}
			logrus.Debugf("Exported %d rows", rows)
			csvPath = path
		}
	}

	export.DisplaySummary(stdout, agg.Summary(), csvPath)
	return ctx.Err()
}

// loggingConfig merges the log section of the inventory with the flags; flags win
func loggingConfig(opts *options, fromFile config.LogConfig) logging.Config {
	cfg := logging.Config{
		VerbosityLevel: opts.verbosity,
		Format:         fromFile.Format,
		FilePath:       fromFile.File,
		MaxSize:        fromFile.MaxSize,
		MaxBackups:     fromFile.MaxBackups,
		MaxAge:         fromFile.MaxAge,
		Compress:       fromFile.Compress,
	}
	if opts.logFile != "" {
		cfg.FilePath = opts.logFile
	}
	if opts.logFormat != "" {
		cfg.Format = opts.logFormat
	}
	return cfg
}

func printCheck(w io.Writer, results []services.CheckResult) {
	for _, r := range results {
		if r.Reachable {
			fmt.Fprintf(w, "%s (%s): reachable\n", r.DeviceID, r.Target)
			continue
		}
		fmt.Fprintf(w, "%s (%s): unreachable: %v\n", r.DeviceID, r.Target, r.Err)
	}
	fmt.Fprintf(w, "%d/%d reachable\n", services.CountReachable(results), len(results))
}
