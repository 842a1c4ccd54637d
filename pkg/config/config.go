package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config drives a remittance processing run. Values come from YAML, then
// environment variables with the REMIT_ prefix override individual keys.
type Config struct {
	Inputs []string `yaml:"inputs" json:"inputs"`

	OutputCSV     string `yaml:"output_csv" json:"output_csv"`
	CompactCSV    string `yaml:"compact_csv" json:"compact_csv"`
	ReportText    string `yaml:"report_text" json:"report_text"`
	ReportHTML    string `yaml:"report_html" json:"report_html"`
	ReportJSON    string `yaml:"report_json" json:"report_json"`
	OutputDir     string `yaml:"output_dir" json:"output_dir"`
	AppendOutputs bool   `yaml:"append_outputs" json:"append_outputs"`

	EnableRates      bool `yaml:"enable_rates" json:"enable_rates"`
	EnableTrips      bool `yaml:"enable_trips" json:"enable_trips"`
	EnableCompact    bool `yaml:"enable_compact" json:"enable_compact"`
	EnableValidation bool `yaml:"enable_validation" json:"enable_validation"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	Workers   int    `yaml:"workers" json:"workers"`
	ChunkSize int    `yaml:"chunk_size" json:"chunk_size"`

	RateTable    string `yaml:"rate_table" json:"rate_table"`
	TripManifest string `yaml:"trip_manifest" json:"trip_manifest"`
	PayerOverlay string `yaml:"payer_overlay" json:"payer_overlay"`
	SQLitePath   string `yaml:"sqlite_path" json:"sqlite_path"`
}

// Default returns a config with the standard output names and limits.
func Default() *Config {
	return &Config{
		OutputCSV:        "835_consolidated_output.csv",
		CompactCSV:       "835_compact_output.csv",
		ReportText:       "835_validation_report.txt",
		ReportHTML:       "835_validation_report.html",
		ReportJSON:       "835_validation_report.json",
		EnableValidation: true,
		LogLevel:         "info",
		Workers:          4,
		ChunkSize:        10000,
		SQLitePath:       "remit.db",
	}
}

// Load reads YAML from path over the defaults, then applies REMIT_
// environment overrides. A missing file is not an error; env overrides
// still apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 10000
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := lookup("INPUTS"); ok {
		c.Inputs = splitList(v)
	}
	setString("OUTPUT_CSV", &c.OutputCSV)
	setString("COMPACT_CSV", &c.CompactCSV)
	setString("REPORT_TEXT", &c.ReportText)
	setString("REPORT_HTML", &c.ReportHTML)
	setString("REPORT_JSON", &c.ReportJSON)
	setString("OUTPUT_DIR", &c.OutputDir)
	setBool("APPEND_OUTPUTS", &c.AppendOutputs)
	setBool("ENABLE_RATES", &c.EnableRates)
	setBool("ENABLE_TRIPS", &c.EnableTrips)
	setBool("ENABLE_COMPACT", &c.EnableCompact)
	setBool("ENABLE_VALIDATION", &c.EnableValidation)
	setString("LOG_LEVEL", &c.LogLevel)
	setInt("WORKERS", &c.Workers)
	setInt("CHUNK_SIZE", &c.ChunkSize)
	setString("RATE_TABLE", &c.RateTable)
	setString("TRIP_MANIFEST", &c.TripManifest)
	setString("PAYER_OVERLAY", &c.PayerOverlay)
	setString("SQLITE_PATH", &c.SQLitePath)
}

func lookup(key string) (string, bool) {
	return os.LookupEnv("REMIT_" + key)
}

func setString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setBool(key string, dst *bool) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(key string, dst *int) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
