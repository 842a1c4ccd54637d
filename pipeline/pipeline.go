// Package pipeline orchestrates remittance processing runs: discovering
// input files, parsing and rendering them on a worker pool, appending
// consolidated CSV output, and collecting validation reports.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/oarkflow/log"
	"github.com/oarkflow/xid"

	"github.com/oarkflow/remit/pkg/assemble"
	"github.com/oarkflow/remit/pkg/config"
	"github.com/oarkflow/remit/pkg/contracts"
	"github.com/oarkflow/remit/pkg/payers"
	"github.com/oarkflow/remit/pkg/report"
	"github.com/oarkflow/remit/pkg/utils/fileutil"
	"github.com/oarkflow/remit/pkg/validate"
	"github.com/oarkflow/remit/pkg/x12"
)

// Metrics counts work done across a run. Updated atomically by workers.
type Metrics struct {
	Files    int64 `json:"files"`
	Rows     int64 `json:"rows"`
	Claims   int64 `json:"claims"`
	Services int64 `json:"services"`
	Failures int64 `json:"failures"`
}

// FileResult is the outcome for one input file.
type FileResult struct {
	File   string           `json:"file"`
	Rows   int              `json:"rows"`
	Report *validate.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Summary describes a completed run.
type Summary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Metrics   Metrics       `json:"metrics"`
	Results   []FileResult  `json:"results"`
}

// Failed reports whether any file errored or failed validation.
func (s *Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Error != "" {
			return true
		}
		if r.Report != nil && r.Report.Status != "PASS" {
			return true
		}
	}
	return false
}

// Pipeline wires the parsing, rendering and validation stages together.
type Pipeline struct {
	cfg       *config.Config
	registry  *payers.Registry
	rates     contracts.RateLookup
	trips     contracts.TripLookup
	validator *validate.Validator
	validation bool
	workers   int

	metrics Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

func WithConfig(cfg *config.Config) Option {
	return func(p *Pipeline) error {
		if cfg == nil {
			return fmt.Errorf("nil config")
		}
		p.cfg = cfg
		p.workers = cfg.Workers
		p.validation = cfg.EnableValidation
		return nil
	}
}

func WithPayerRegistry(r *payers.Registry) Option {
	return func(p *Pipeline) error {
		p.registry = r
		return nil
	}
}

func WithRateLookup(r contracts.RateLookup) Option {
	return func(p *Pipeline) error {
		p.rates = r
		return nil
	}
}

func WithTripLookup(t contracts.TripLookup) Option {
	return func(p *Pipeline) error {
		p.trips = t
		return nil
	}
}

func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("worker count must be positive, got %d", n)
		}
		p.workers = n
		return nil
	}
}

func WithValidation(enabled bool) Option {
	return func(p *Pipeline) error {
		p.validation = enabled
		return nil
	}
}

// New builds a pipeline with defaults, then applies options.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:      config.Default(),
		registry: payers.NewRegistry(),
		validation: true,
		workers:    4,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.validator = validate.New(validate.WithRegistry(p.registry))
	return p, nil
}

// Shutdown cancels the run on SIGINT or SIGTERM.
func Shutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()
}

type fileOutput struct {
	result FileResult
	rows   []assemble.Row
}

// Run processes every discovered input and writes the configured
// outputs. Inputs falls back to the config's input list when empty.
func (p *Pipeline) Run(ctx context.Context, inputs []string) (*Summary, error) {
	if len(inputs) == 0 {
		inputs = p.cfg.Inputs
	}
	files, err := Discover(inputs)
	if err != nil {
		return nil, fmt.Errorf("discover inputs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no remittance files found in %v", inputs)
	}

	runID := xid.New().String()
	started := time.Now()
	log.Printf("run %s: %d files, %d workers", runID, len(files), p.workers)

	outputPath := p.outputPath(p.cfg.OutputCSV)
	lock := flock.New(outputPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output %s is locked by another run", outputPath)
	}
	defer lock.Unlock()

	appender, err := fileutil.NewCSVAppender[assemble.Row](outputPath, p.cfg.AppendOutputs)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer appender.Close()

	var compact *fileutil.CSVAppender[assemble.CompactRow]
	if p.cfg.EnableCompact {
		compact, err = fileutil.NewCSVAppender[assemble.CompactRow](p.outputPath(p.cfg.CompactCSV), p.cfg.AppendOutputs)
		if err != nil {
			return nil, fmt.Errorf("open compact output: %w", err)
		}
		defer compact.Close()
	}

	jobs := make(chan string)
	outputs := make(chan fileOutput)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				outputs <- p.processFile(ctx, file)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outputs)
	}()

	summary := &Summary{RunID: runID, StartedAt: started}
	var reports []*validate.Report
	for out := range outputs {
		if out.result.Error == "" && len(out.rows) > 0 {
			if err := appender.AppendBatch(out.rows); err != nil {
				out.result.Error = fmt.Sprintf("write rows: %v", err)
			} else if compact != nil {
				compacted := make([]assemble.CompactRow, len(out.rows))
				for i, r := range out.rows {
					compacted[i] = assemble.CompactRow{Row: r}
				}
				if err := compact.AppendBatch(compacted); err != nil {
					out.result.Error = fmt.Sprintf("write compact rows: %v", err)
				}
			}
		}
		if out.result.Error != "" {
			atomic.AddInt64(&p.metrics.Failures, 1)
			log.Printf("run %s: %s: %s", runID, out.result.File, out.result.Error)
		}
		if out.result.Report != nil {
			reports = append(reports, out.result.Report)
		}
		summary.Results = append(summary.Results, out.result)
	}

	if err := p.writeReports(reports); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(started)
	summary.Metrics = Metrics{
		Files:    atomic.LoadInt64(&p.metrics.Files),
		Rows:     atomic.LoadInt64(&p.metrics.Rows),
		Claims:   atomic.LoadInt64(&p.metrics.Claims),
		Services: atomic.LoadInt64(&p.metrics.Services),
		Failures: atomic.LoadInt64(&p.metrics.Failures),
	}
	log.Printf("run %s: %d files, %d rows, %d failures in %s",
		runID, summary.Metrics.Files, summary.Metrics.Rows, summary.Metrics.Failures, summary.Duration)
	return summary, nil
}

// ProcessFile parses and renders one file without touching the
// configured outputs. Used by the server and for ad-hoc validation.
func (p *Pipeline) ProcessFile(ctx context.Context, name string, data []byte) ([]assemble.Row, *validate.Report, error) {
	raw, err := x12.Tokenize(data)
	if err != nil {
		return nil, nil, err
	}
	tree, err := assemble.Build(raw, name)
	if err != nil {
		return nil, nil, err
	}
	rows, err := p.renderer().Render(ctx, tree)
	if err != nil {
		return nil, nil, err
	}
	var rep *validate.Report
	if p.validation {
		rep, err = p.validator.Validate(ctx, data, name, rows)
		if err != nil {
			return rows, nil, err
		}
	}
	return rows, rep, nil
}

func (p *Pipeline) processFile(ctx context.Context, file string) fileOutput {
	out := fileOutput{result: FileResult{File: file}}
	data, err := os.ReadFile(file)
	if err != nil {
		out.result.Error = err.Error()
		return out
	}
	rows, rep, err := p.ProcessFile(ctx, filepath.Base(file), data)
	if err != nil {
		out.result.Error = err.Error()
		return out
	}
	out.rows = rows
	out.result.Rows = len(rows)
	out.result.Report = rep

	atomic.AddInt64(&p.metrics.Files, 1)
	atomic.AddInt64(&p.metrics.Rows, int64(len(rows)))
	claims := make(map[string]bool)
	for _, r := range rows {
		claims[r.SEQ] = true
		if r.Kind == assemble.KindService {
			atomic.AddInt64(&p.metrics.Services, 1)
		}
	}
	atomic.AddInt64(&p.metrics.Claims, int64(len(claims)))
	return out
}

func (p *Pipeline) renderer() *assemble.Renderer {
	opts := []assemble.RenderOption{assemble.WithPayerRegistry(p.registry)}
	if p.rates != nil {
		opts = append(opts, assemble.WithRateLookup(p.rates))
	}
	if p.trips != nil {
		opts = append(opts, assemble.WithTripLookup(p.trips))
	}
	return assemble.NewRenderer(opts...)
}

func (p *Pipeline) outputPath(name string) string {
	if p.cfg.OutputDir == "" {
		return name
	}
	return filepath.Join(p.cfg.OutputDir, name)
}

// writeReports renders the collected validation reports: one combined
// text file, a JSON array, and one HTML dashboard per input file named
// after its stem.
func (p *Pipeline) writeReports(reports []*validate.Report) error {
	if !p.validation || len(reports) == 0 {
		return nil
	}
	if p.cfg.ReportText != "" {
		var b strings.Builder
		for i, r := range reports {
			if i > 0 {
				b.WriteString("\n" + strings.Repeat("=", 70) + "\n\n")
			}
			b.WriteString(report.Text(r))
		}
		if err := os.WriteFile(p.outputPath(p.cfg.ReportText), []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("write text report: %w", err)
		}
	}
	if p.cfg.ReportJSON != "" {
		ja, err := fileutil.NewJSONAppender[*validate.Report](p.outputPath(p.cfg.ReportJSON), p.cfg.AppendOutputs)
		if err != nil {
			return fmt.Errorf("open json report: %w", err)
		}
		if err := ja.AppendBatch(reports); err != nil {
			_ = ja.Close()
			return fmt.Errorf("write json report: %w", err)
		}
		if err := ja.Close(); err != nil {
			return err
		}
	}
	if p.cfg.ReportHTML != "" {
		for _, r := range reports {
			page, err := report.HTML(r)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(r.File), filepath.Ext(r.File)) + "_" + p.cfg.ReportHTML
			if err := os.WriteFile(p.outputPath(name), page, 0o644); err != nil {
				return fmt.Errorf("write html report: %w", err)
			}
		}
	}
	return nil
}
