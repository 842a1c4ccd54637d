package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oarkflow/remit/pkg/config"
)

const sample835 = "ISA*00*          *00*          *ZZ*EMEDNYBAT      *ZZ*ETIN           *240115*1200*^*00501*000000001*0*P*:~" +
	"GS*HP*EMEDNYBAT*ETIN*20240115*1200*1*X*005010X221A1~" +
	"ST*835*0001~" +
	"BPR*I*140.00*C*ACH************20240115~" +
	"TRN*1*12345678*123456789~" +
	"DTM*405*20240114~" +
	"N1*PR*NY STATE DEPT OF HEALTH~" +
	"N1*PE*ACME AMBULANCE*XX*1234567890~" +
	"CLP*1001*1*200.00*100.00*25.00*MC*ICN001*41*1~" +
	"NM1*QC*1*DOE*JANE****MI*XYZ123~" +
	"DTM*232*20240101~" +
	"SVC*HC:A0427:RH*150.00*75.00**1~" +
	"DTM*472*20240101~" +
	"CAS*CO*45*50.00~" +
	"CAS*PR*1*25.00~" +
	"SVC*A0425*50.00*25.00**10~" +
	"DTM*472*20240101~" +
	"CAS*CO*45*20.00~" +
	"CAS*PR*2*5.00~" +
	"CLP*1001*1*80.00*40.00~" +
	"CAS*OA*23*40.00~" +
	"SE*20*0001~" +
	"GE*1*1~" +
	"IEA*1*000000001~"

func writeSample(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sample835), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.OutputDir = dir
	cfg.Workers = 2
	return cfg
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "a.835")
	writeSample(t, dir, "b.edi")
	writeSample(t, dir, "sniffed.dat")
	writeSample(t, dir, "done.835"+ProcessedExt)
	if err := os.WriteFile(filepath.Join(dir, "junk.dat"), []byte("nothing"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	files, err := Discover([]string{dir})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %v", files)
	}
	for _, f := range files {
		if strings.HasSuffix(f, ProcessedExt) {
			t.Fatalf("swept file rediscovered: %s", f)
		}
	}

	files, err = Discover([]string{filepath.Join(dir, "*.835")})
	if err != nil {
		t.Fatalf("Discover glob: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "a.835" {
		t.Fatalf("glob mismatch: %v", files)
	}
}

func TestRunWritesConsolidatedCSV(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir, "remit.835")

	out := t.TempDir()
	cfg := testConfig(out)
	p, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := p.Run(context.Background(), []string{in})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Metrics.Files != 1 {
		t.Fatalf("expected 1 file, got %d", summary.Metrics.Files)
	}
	// two service rows plus the synthesized second occurrence claim row
	if summary.Metrics.Rows != 3 {
		t.Fatalf("expected 3 rows, got %d", summary.Metrics.Rows)
	}
	if summary.Metrics.Claims != 2 {
		t.Fatalf("expected 2 claims, got %d", summary.Metrics.Claims)
	}
	if summary.Failed() {
		t.Fatalf("run should pass: %+v", summary.Results)
	}

	f, err := os.Open(filepath.Join(out, cfg.OutputCSV))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}

	// validation artifacts
	if _, err := os.Stat(filepath.Join(out, cfg.ReportText)); err != nil {
		t.Fatalf("text report missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, cfg.ReportJSON)); err != nil {
		t.Fatalf("json report missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "remit_"+cfg.ReportHTML)); err != nil {
		t.Fatalf("html report missing: %v", err)
	}
}

func TestRunMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "one.835")
	writeSample(t, dir, "two.835")
	writeSample(t, dir, "three.835")

	cfg := testConfig(t.TempDir())
	cfg.EnableValidation = false
	p, err := New(WithConfig(cfg), WithWorkers(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := p.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Metrics.Files != 3 || summary.Metrics.Rows != 9 {
		t.Fatalf("wrong metrics: %+v", summary.Metrics)
	}
}

func TestRunRecordsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "good.835")
	if err := os.WriteFile(filepath.Join(dir, "bad.835"), []byte("not an interchange"), 0o644); err != nil {
		t.Fatalf("write bad: %v", err)
	}

	cfg := testConfig(t.TempDir())
	cfg.EnableValidation = false
	p, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := p.Run(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Metrics.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", summary.Metrics.Failures)
	}
	if !summary.Failed() {
		t.Fatal("summary should report failure")
	}
	var sawError bool
	for _, r := range summary.Results {
		if strings.HasSuffix(r.File, "bad.835") && r.Error != "" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("bad file error not recorded: %+v", summary.Results)
	}
}

func TestRunNoInputs(t *testing.T) {
	cfg := testConfig(t.TempDir())
	p, err := New(WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Run(context.Background(), []string{filepath.Join(t.TempDir(), "*.835")}); err == nil {
		t.Fatal("expected error for empty input set")
	}
}

func TestProcessFileStandalone(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows, rep, err := p.ProcessFile(context.Background(), "remit.835", []byte(sample835))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rep == nil || rep.Status != "PASS" {
		t.Fatalf("expected passing report, got %+v", rep)
	}
}
