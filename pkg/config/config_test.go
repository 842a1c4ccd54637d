package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputCSV != "835_consolidated_output.csv" {
		t.Fatalf("wrong default output: %s", cfg.OutputCSV)
	}
	if cfg.ChunkSize != 10000 {
		t.Fatalf("wrong default chunk size: %d", cfg.ChunkSize)
	}
	if !cfg.EnableValidation {
		t.Fatal("validation should default on")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remit.yaml")
	data := `
inputs:
  - inbox/*.835
output_csv: out.csv
enable_rates: true
workers: 8
rate_table: rates.csv
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Inputs) != 1 || cfg.Inputs[0] != "inbox/*.835" {
		t.Fatalf("wrong inputs: %v", cfg.Inputs)
	}
	if cfg.OutputCSV != "out.csv" {
		t.Fatalf("wrong output: %s", cfg.OutputCSV)
	}
	if !cfg.EnableRates || cfg.Workers != 8 || cfg.RateTable != "rates.csv" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	// untouched keys keep defaults
	if cfg.CompactCSV != "835_compact_output.csv" {
		t.Fatalf("default lost: %s", cfg.CompactCSV)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REMIT_WORKERS", "2")
	t.Setenv("REMIT_ENABLE_VALIDATION", "false")
	t.Setenv("REMIT_INPUTS", "a.835, b.835")
	t.Setenv("REMIT_OUTPUT_CSV", "env.csv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Fatalf("env workers not applied: %d", cfg.Workers)
	}
	if cfg.EnableValidation {
		t.Fatal("env disable not applied")
	}
	if len(cfg.Inputs) != 2 || cfg.Inputs[1] != "b.835" {
		t.Fatalf("env inputs not applied: %v", cfg.Inputs)
	}
	if cfg.OutputCSV != "env.csv" {
		t.Fatalf("env output not applied: %s", cfg.OutputCSV)
	}
}

func TestMissingFileIsNotError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Fatalf("defaults not applied: %d", cfg.Workers)
	}
}

func TestInvalidWorkerFloor(t *testing.T) {
	t.Setenv("REMIT_WORKERS", "0")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 1 {
		t.Fatalf("worker floor not applied: %d", cfg.Workers)
	}
}
