package x12

import "testing"

const sampleISA = "ISA*00*          *00*          *ZZ*EMEDNYBAT      *ZZ*ETIN           *240115*1200*^*00501*000000001*0*P*:~" +
	"GS*HP*EMEDNYBAT*ETIN*20240115*1200*1*X*005010X221A1~" +
	"ST*835*0001~" +
	"BPR*I*100.00*C*CHK************20240115~" +
	"SE*4*0001~" +
	"GE*1*1~" +
	"IEA*1*000000001~"

func TestDetect(t *testing.T) {
	d, err := Detect([]byte(sampleISA))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if d.Element != '*' {
		t.Errorf("element separator = %q, want '*'", d.Element)
	}
	if d.Component != ':' {
		t.Errorf("component separator = %q, want ':'", d.Component)
	}
	if d.Repetition != '^' {
		t.Errorf("repetition separator = %q, want '^'", d.Repetition)
	}
	if d.Terminator != '~' {
		t.Errorf("terminator = %q, want '~'", d.Terminator)
	}
}

func TestDetectRejectsShortInput(t *testing.T) {
	if _, err := Detect([]byte("ISA*00")); err == nil {
		t.Fatal("expected error for short input")
	}
	if _, err := Detect([]byte("GS*HP")); err == nil {
		t.Fatal("expected error for non-ISA input")
	}
}

func TestTokenize(t *testing.T) {
	ic, err := Tokenize([]byte(sampleISA))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(ic.Segments) != 7 {
		t.Fatalf("segment count = %d, want 7", len(ic.Segments))
	}
	if ic.Segments[0].ID != "ISA" || ic.Segments[6].ID != "IEA" {
		t.Errorf("unexpected segment order: first=%s last=%s", ic.Segments[0].ID, ic.Segments[6].ID)
	}
	bpr := ic.Segments[3]
	if bpr.ID != "BPR" {
		t.Fatalf("segment 3 = %s, want BPR", bpr.ID)
	}
	if got := bpr.Element(2); got != "100.00" {
		t.Errorf("BPR02 = %q, want 100.00", got)
	}
	if got := bpr.Element(5); got != "" {
		t.Errorf("BPR05 = %q, want empty", got)
	}
	if got := bpr.Element(99); got != "" {
		t.Errorf("out-of-range element = %q, want empty", got)
	}
}

func TestTokenizeHandlesNewlines(t *testing.T) {
	withNewlines := ""
	for _, c := range sampleISA {
		withNewlines += string(c)
		if c == '~' {
			withNewlines += "\r\n"
		}
	}
	ic, err := Tokenize([]byte(withNewlines))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(ic.Segments) != 7 {
		t.Fatalf("segment count = %d, want 7", len(ic.Segments))
	}
	for _, seg := range ic.Segments {
		if seg.ID != "ISA" && len(seg.ID) > 3 {
			t.Errorf("segment ID carries newline residue: %q", seg.ID)
		}
	}
}

func TestTokenizeMissingFinalTerminator(t *testing.T) {
	trimmed := sampleISA[:len(sampleISA)-1]
	ic, err := Tokenize([]byte(trimmed))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if ic.Segments[len(ic.Segments)-1].ID != "IEA" {
		t.Errorf("final segment lost without terminator")
	}
}

func TestSplitComposite(t *testing.T) {
	ic, err := Tokenize([]byte(sampleISA))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	parts := ic.SplitComposite("HC:A0428:RH")
	if len(parts) != 3 || parts[0] != "HC" || parts[1] != "A0428" {
		t.Errorf("SplitComposite = %v", parts)
	}
	single := ic.SplitComposite("A0428")
	if len(single) != 1 || single[0] != "A0428" {
		t.Errorf("SplitComposite without separator = %v", single)
	}
}
