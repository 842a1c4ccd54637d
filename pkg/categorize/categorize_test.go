package categorize

import (
	"testing"

	"github.com/oarkflow/remit/pkg/model"
)

func amt(s string) model.Amount {
	a, ok := model.ParseAmount(s)
	if !ok {
		panic("bad amount: " + s)
	}
	return a
}

func TestCategorizeZeroShortCircuits(t *testing.T) {
	a := Categorize("CO", "45", 0)
	if a.Bucket != None || a.AuditFlag != "" {
		t.Fatalf("zero amount: got %v %q", a.Bucket, a.AuditFlag)
	}
}

func TestCategorizeNC(t *testing.T) {
	if got := Categorize("NC", "45", amt("50.00")); got.Bucket != PRNonCovered || got.AuditFlag != "" {
		t.Errorf("NC/45 = %v %q, want PR_NonCovered", got.Bucket, got.AuditFlag)
	}
	if got := Categorize("NC", "303", amt("10.00")); got.Bucket != PRNonCovered {
		t.Errorf("NC/303 = %v, want PR_NonCovered", got.Bucket)
	}
}

func TestCategorizePR(t *testing.T) {
	cases := []struct {
		code string
		want Bucket
	}{
		{"1", Deductible},
		{"2", Coinsurance},
		{"3", Copay},
		{"96", PRNonCovered},
		{"54", PRNonCovered},
		{"142", OtherPatientResp},
	}
	for _, c := range cases {
		if got := Categorize("PR", c.code, amt("100.00")); got.Bucket != c.want {
			t.Errorf("PR/%s = %v, want %v", c.code, got.Bucket, c.want)
		}
	}
}

func TestCategorizeCO(t *testing.T) {
	if got := Categorize("CO", "45", amt("50.00")); got.Bucket != Contractual || got.AuditFlag != "" {
		t.Errorf("CO/45 = %v %q", got.Bucket, got.AuditFlag)
	}
	if got := Categorize("CO", "253", amt("2.00")); got.Bucket != Sequestration {
		t.Errorf("CO/253 = %v", got.Bucket)
	}
	if got := Categorize("CO", "303", amt("10.00")); got.Bucket != QMB {
		t.Errorf("CO/303 = %v", got.Bucket)
	}
	got := Categorize("CO", "23", amt("30.00"))
	if got.Bucket != Contractual {
		t.Errorf("CO/23 = %v, want Contractual", got.Bucket)
	}
	want := "CO-23: Dictionary suggests COB but payer declared CO (Contractual)"
	if got.AuditFlag != want {
		t.Errorf("CO/23 flag = %q, want %q", got.AuditFlag, want)
	}
}

func TestCategorizeOA(t *testing.T) {
	if got := Categorize("OA", "23", amt("30.00")); got.Bucket != COB || got.AuditFlag != "" {
		t.Errorf("OA/23 = %v %q", got.Bucket, got.AuditFlag)
	}
	if got := Categorize("OA", "253", amt("1.00")); got.Bucket != Sequestration {
		t.Errorf("OA/253 = %v", got.Bucket)
	}
	got := Categorize("OA", "303", amt("5.00"))
	if got.Bucket != QMB {
		t.Errorf("OA/303 = %v", got.Bucket)
	}
	if want := "OA-303: QMB CARC expected with CO group"; got.AuditFlag != want {
		t.Errorf("OA/303 flag = %q, want %q", got.AuditFlag, want)
	}
	if got := Categorize("OA", "94", amt("5.00")); got.Bucket != OtherAdjustments {
		t.Errorf("OA/94 = %v", got.Bucket)
	}
}

func TestCategorizePI(t *testing.T) {
	if got := Categorize("PI", "96", amt("40.00")); got.Bucket != Denied {
		t.Errorf("PI/96 = %v", got.Bucket)
	}
	if got := Categorize("PI", "78", amt("40.00")); got.Bucket != Denied {
		t.Errorf("PI/78 = %v", got.Bucket)
	}
	if got := Categorize("PI", "45", amt("40.00")); got.Bucket != OtherAdjustments {
		t.Errorf("PI/45 = %v", got.Bucket)
	}
}

func TestCategorizeMA(t *testing.T) {
	if got := Categorize("MA", "303", amt("1.00")); got.Bucket != QMB || got.AuditFlag != "" {
		t.Errorf("MA/303 = %v %q", got.Bucket, got.AuditFlag)
	}
	if got := Categorize("MA", "23", amt("1.00")); got.Bucket != COB {
		t.Errorf("MA/23 = %v", got.Bucket)
	}
	if got := Categorize("MA", "45", amt("1.00")); got.Bucket != OtherAdjustments {
		t.Errorf("MA/45 = %v", got.Bucket)
	}
}

func TestCategorizeFallback(t *testing.T) {
	if got := Categorize("CR", "1", amt("1.00")); got.Bucket != Deductible {
		t.Errorf("CR/1 = %v", got.Bucket)
	}
	if got := Categorize("DE", "96", amt("1.00")); got.Bucket != PRNonCovered {
		t.Errorf("DE/96 = %v", got.Bucket)
	}
	if got := Categorize("ZZ", "45", amt("1.00")); got.Bucket != OtherAdjustments {
		t.Errorf("ZZ/45 = %v", got.Bucket)
	}
}

func TestBucketsAccumulate(t *testing.T) {
	var b Buckets
	b.AddGroups([]model.CASGroup{
		{Group: "CO", Entries: []model.CASEntry{
			{Code: "45", Amount: amt("50.00")},
			{Code: "23", Amount: amt("10.00")},
		}},
		{Group: "PR", Entries: []model.CASEntry{
			{Code: "1", Amount: amt("25.00")},
			{Code: "2", Amount: amt("15.00")},
		}},
	}, nil)
	if b.Contractual != amt("60.00") {
		t.Errorf("Contractual = %s", b.Contractual)
	}
	if b.Deductible != amt("25.00") || b.Coinsurance != amt("15.00") {
		t.Errorf("patient side = %s / %s", b.Deductible, b.Coinsurance)
	}
	if len(b.AuditFlags) != 1 {
		t.Fatalf("audit flags = %v", b.AuditFlags)
	}
	if b.Total() != amt("100.00") {
		t.Errorf("Total = %s", b.Total())
	}
	// charge 200, paid 100: both derivations agree
	if b.Allowed(amt("200.00")) != amt("140.00") {
		t.Errorf("Allowed = %s", b.Allowed(amt("200.00")))
	}
	if b.AllowedVerification(amt("100.00")) != amt("140.00") {
		t.Errorf("AllowedVerification = %s", b.AllowedVerification(amt("100.00")))
	}
}

type zeroStripper struct{}

func (zeroStripper) NormalizeReasonCode(code string) string {
	if code == "001" {
		return "1"
	}
	return code
}

func TestBucketsNormalizer(t *testing.T) {
	var b Buckets
	a := b.Add("PR", "001", amt("10.00"), zeroStripper{})
	if a.Bucket != Deductible {
		t.Errorf("normalized PR/001 = %v, want Deductible", a.Bucket)
	}
}
