package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oarkflow/log"

	"github.com/oarkflow/remit/pipeline"
	"github.com/oarkflow/remit/pkg/config"
	"github.com/oarkflow/remit/pkg/payers"
	"github.com/oarkflow/remit/pkg/rates"
	"github.com/oarkflow/remit/pkg/redact"
	"github.com/oarkflow/remit/pkg/report"
	"github.com/oarkflow/remit/pkg/trips"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "process":
		err = runProcess(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "redact":
		err = runRedact(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: remit <command> [flags] [inputs...]

commands:
  process    parse 835 files into consolidated CSV output
  validate   check 835 files and print validation reports
  redact     mask patient identifiers in 835 files

Inputs may be files, globs, or directories.
`)
}

func runProcess(args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	outputDir := fs.String("out", "", "output directory")
	workers := fs.Int("workers", 0, "worker count override")
	noValidate := fs.Bool("no-validate", false, "skip validation")
	compact := fs.Bool("compact", false, "also write the compact CSV")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *noValidate {
		cfg.EnableValidation = false
	}
	if *compact {
		cfg.EnableCompact = true
	}

	opts, cleanup, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := pipeline.New(opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pipeline.Shutdown(cancel)

	summary, err := p.Run(ctx, fs.Args())
	if err != nil {
		return err
	}
	if summary.Failed() {
		return fmt.Errorf("run %s finished with failures", summary.RunID)
	}
	return nil
}

// buildOptions wires the optional rate and trip stores from config. The
// returned cleanup closes whatever was opened.
func buildOptions(cfg *config.Config) ([]pipeline.Option, func(), error) {
	registry := payers.NewRegistry()
	if cfg.PayerOverlay != "" {
		if err := registry.LoadOverlay(cfg.PayerOverlay); err != nil {
			return nil, nil, fmt.Errorf("load payer overlay: %w", err)
		}
	}
	opts := []pipeline.Option{pipeline.WithConfig(cfg), pipeline.WithPayerRegistry(registry)}
	var closers []func() error

	ctx := context.Background()
	if cfg.EnableRates && cfg.RateTable != "" {
		svc, err := rates.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, svc.Close)
		n, err := svc.LoadCSV(ctx, cfg.RateTable)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("loaded %d benchmark rates", n)
		opts = append(opts, pipeline.WithRateLookup(svc))
	}
	if cfg.EnableTrips && cfg.TripManifest != "" {
		store, err := trips.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		n, err := store.LoadCSV(ctx, cfg.TripManifest)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("loaded %d trips", n)
		opts = append(opts, pipeline.WithTripLookup(store))
	}
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("close store: %v", err)
			}
		}
	}
	return opts, cleanup, nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	registry := payers.NewRegistry()
	if cfg.PayerOverlay != "" {
		if err := registry.LoadOverlay(cfg.PayerOverlay); err != nil {
			return fmt.Errorf("load payer overlay: %w", err)
		}
	}
	p, err := pipeline.New(pipeline.WithPayerRegistry(registry), pipeline.WithValidation(true))
	if err != nil {
		return err
	}

	files, err := pipeline.Discover(fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no remittance files found")
	}

	failed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		_, rep, err := p.ProcessFile(context.Background(), filepath.Base(file), data)
		if err != nil {
			fmt.Printf("%s: %v\n", file, err)
			failed++
			continue
		}
		fmt.Println(report.Text(rep))
		if rep.Status != "PASS" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(files))
	}
	return nil
}

func runRedact(args []string) error {
	fs := flag.NewFlagSet("redact", flag.ExitOnError)
	outputDir := fs.String("out", "", "directory for redacted copies (default: alongside input)")
	fs.Parse(args)

	files, err := pipeline.Discover(fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no remittance files found")
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		masked := redact.Redact(data)
		target := file + ".redacted"
		if *outputDir != "" {
			if err := os.MkdirAll(*outputDir, 0o755); err != nil {
				return err
			}
			target = filepath.Join(*outputDir, filepath.Base(file)+".redacted")
		}
		if err := os.WriteFile(target, masked, 0o644); err != nil {
			return err
		}
		log.Printf("redacted %s -> %s", file, target)
	}
	return nil
}
