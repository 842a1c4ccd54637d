package payers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIdentifyPriority(t *testing.T) {
	r := NewRegistry()

	if p := r.Identify("1999999999", "", ""); p == nil || p.Key != "MEDI_CAL" {
		t.Fatalf("TRN03 identify = %+v", p)
	}
	if p := r.Identify("", "EMEDNYBAT", ""); p == nil || p.Key != "EMEDNY" {
		t.Fatalf("ISA06 identify = %+v", p)
	}
	if p := r.Identify("", "", "nysdoh"); p == nil || p.Key != "EMEDNY" {
		t.Fatalf("name identify = %+v", p)
	}
	// TRN03 wins over a conflicting name
	if p := r.Identify("1999999999", "", "NYSDOH"); p == nil || p.Key != "MEDI_CAL" {
		t.Fatalf("priority identify = %+v", p)
	}
	if p := r.Identify("", "", "UNKNOWN PAYER"); p != nil {
		t.Fatalf("unknown payer = %+v", p)
	}
}

func TestNormalizeReasonCode(t *testing.T) {
	r := NewRegistry()
	mc := r.Lookup("MEDI_CAL")
	if mc == nil {
		t.Fatal("MEDI_CAL missing")
	}
	if got := mc.NormalizeReasonCode("001"); got != "1" {
		t.Errorf("001 -> %q, want 1", got)
	}
	if got := mc.NormalizeReasonCode("0303"); got != "303" {
		t.Errorf("0303 -> %q, want 303", got)
	}
	// stripped form is not classified; keep as sent
	if got := mc.NormalizeReasonCode("045"); got != "045" {
		t.Errorf("045 -> %q, want 045", got)
	}
	if got := mc.NormalizeReasonCode("45"); got != "45" {
		t.Errorf("45 -> %q, want 45", got)
	}

	em := r.Lookup("EMEDNY")
	if got := em.NormalizeReasonCode("001"); got != "001" {
		t.Errorf("non-normalizing payer changed code: %q", got)
	}
}

func TestTolerance(t *testing.T) {
	var p *Profile
	if p.Tolerance() != 1 {
		t.Errorf("nil profile tolerance = %d", p.Tolerance())
	}
	wide := &Profile{BalanceToleranceCents: 5}
	if wide.Tolerance() != 5 {
		t.Errorf("tolerance = %d", wide.Tolerance())
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payers.yaml")
	overlay := `payers:
  - key: EMEDNY
    isa06: ["EMEDNYBAT"]
    payer_names: ["NYSDOH"]
    balance_tolerance_cents: 5
  - key: ACME
    trn03: ["123456789"]
    payer_names: ["ACME HEALTH"]
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRegistry()
	if err := r.LoadOverlay(path); err != nil {
		t.Fatalf("LoadOverlay: %v", err)
	}
	em := r.Lookup("EMEDNY")
	if em == nil || em.Tolerance() != 5 {
		t.Fatalf("overlay did not replace EMEDNY: %+v", em)
	}
	if p := r.Identify("123456789", "", ""); p == nil || p.Key != "ACME" {
		t.Fatalf("overlay payer not identified: %+v", p)
	}
}
