package assemble

import (
	"context"
	"strings"
	"testing"

	"github.com/oarkflow/remit/pkg/model"
	"github.com/oarkflow/remit/pkg/payers"
	"github.com/oarkflow/remit/pkg/x12"
)

const sample835 = "ISA*00*          *00*          *ZZ*EMEDNYBAT      *ZZ*ETIN           *240115*1200*^*00501*000000001*0*P*:~" +
	"GS*HP*EMEDNYBAT*ETIN*20240115*1200*1*X*005010X221A1~" +
	"ST*835*0001~" +
	"BPR*I*150.00*C*ACH************20240115~" +
	"TRN*1*12345678*123456789~" +
	"DTM*405*20240114~" +
	"N1*PR*NY STATE DEPT OF HEALTH~" +
	"N3*ONE COMMERCE PLAZA~" +
	"N4*ALBANY*NY*12237~" +
	"PER*CX*EDI HELP*TE*8005551234~" +
	"N1*PE*ACME AMBULANCE*XX*1234567890~" +
	"N3*10 MAIN ST~" +
	"N4*BUFFALO*NY*14201~" +
	"CLP*1001*1*200.00*100.00*25.00*MC*ICN001*41*1~" +
	"NM1*QC*1*DOE*JANE****MI*XYZ123~" +
	"NM1*PW*2*PICKUP~" +
	"N3*5 ELM ST~" +
	"N4*BUFFALO*NY*14201~" +
	"NM1*45*2*DROPOFF~" +
	"N3*HOSPITAL DR~" +
	"N4*BUFFALO*NY*14203~" +
	"DTM*232*20240101~" +
	"SVC*HC:A0427:RH*150.00*75.00**1~" +
	"DTM*472*20240101~" +
	"CAS*CO*45*50.00~" +
	"CAS*PR*1*25.00~" +
	"AMT*B6*100.00~" +
	"SVC*A0425*50.00*25.00**10~" +
	"DTM*472*20240101~" +
	"CAS*CO*45*20.00*2A~" +
	"CAS*PR*2*5.00~" +
	"CLP*1001*1*80.00*40.00~" +
	"CAS*OA*23*40.00~" +
	"SE*33*0001~" +
	"ST*835*0002~" +
	"BPR*I*0.00*C*NON~" +
	"TRN*1*00000000*123456789~" +
	"PLB*1234567890*20241231*WO:CLM1*125.00*72:CLM1*-125.00~" +
	"SE*5*0002~" +
	"GE*2*1~" +
	"IEA*1*000000001~"

func buildSample(t *testing.T) *x12.Interchange {
	t.Helper()
	ic, err := x12.Tokenize([]byte(sample835))
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	return ic
}

func TestBuildTree(t *testing.T) {
	tree, err := Build(buildSample(t), "sample.835")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.ISA.SenderID != "EMEDNYBAT" {
		t.Errorf("ISA06 = %q", tree.ISA.SenderID)
	}
	if len(tree.Groups) != 1 {
		t.Fatalf("groups = %d", len(tree.Groups))
	}
	txs := tree.Groups[0].Transactions
	if len(txs) != 2 {
		t.Fatalf("transactions = %d", len(txs))
	}

	tx := txs[0]
	if tx.BPR.Amount.String() != "150.00" || tx.BPR.Method != "ACH" {
		t.Errorf("BPR = %+v", tx.BPR)
	}
	if tx.Payer.Name != "NY STATE DEPT OF HEALTH" || tx.Payer.Address.City != "ALBANY" {
		t.Errorf("payer = %+v", tx.Payer)
	}
	if tx.Payer.Contacts[0].Phone != "8005551234" {
		t.Errorf("payer contact = %+v", tx.Payer.Contacts)
	}
	if len(tx.Claims) != 2 {
		t.Fatalf("claims = %d", len(tx.Claims))
	}

	c1 := tx.Claims[0]
	if c1.Number != "1001" || c1.Occurrence != 1 {
		t.Errorf("claim 1 = %s occ %d", c1.Number, c1.Occurrence)
	}
	if c1.Patient.LastOrOrg != "DOE" || c1.Patient.ID != "XYZ123" {
		t.Errorf("patient = %+v", c1.Patient)
	}
	if c1.Pickup.Address.Zip != "14201" || c1.Dropoff.Address.Zip != "14203" {
		t.Errorf("ambulance addresses = %+v / %+v", c1.Pickup.Address, c1.Dropoff.Address)
	}
	if len(c1.Services) != 2 {
		t.Fatalf("services = %d", len(c1.Services))
	}
	s1 := c1.Services[0]
	if s1.Procedure.Qualifier != "HC" || s1.Procedure.Code != "A0427" || s1.Procedure.Modifiers[0] != "RH" {
		t.Errorf("service 1 procedure = %+v", s1.Procedure)
	}
	s2 := c1.Services[1]
	if s2.Procedure.Qualifier != "HC" || s2.Procedure.Code != "A0425" {
		t.Errorf("bare composite should default to HC: %+v", s2.Procedure)
	}
	// letters in the CAS quantity element drop the quantity, not the entry
	if q := s2.Adjustments[0].Entries[0].Quantity; q != "" {
		t.Errorf("CAS quantity = %q, want empty", q)
	}

	c2 := tx.Claims[1]
	if c2.Occurrence != 2 {
		t.Errorf("repeated claim occurrence = %d, want 2", c2.Occurrence)
	}
	if len(c2.Services) != 0 {
		t.Errorf("claim 2 services = %d", len(c2.Services))
	}
}

func TestBuildEmptyTransactionAndRefundAck(t *testing.T) {
	tree, err := Build(buildSample(t), "sample.835")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tx := tree.Groups[0].Transactions[1]
	if len(tx.Claims) != 1 || !tx.Claims[0].Synthetic {
		t.Fatalf("empty transaction claims = %+v", tx.Claims)
	}
	if tx.Claims[0].Number != "EMPTY_CLAIM_1" {
		t.Errorf("placeholder claim = %q", tx.Claims[0].Number)
	}
	entries := tx.PLBs[0].Entries
	if len(entries) != 2 {
		t.Fatalf("PLB entries = %d", len(entries))
	}
	for _, e := range entries {
		if !e.Acknowledged {
			t.Errorf("entry %s not acknowledged", e.Reason)
		}
	}
	if tx.NetProviderAdjustment() != 0 {
		t.Errorf("net adjustment = %s, want 0.00", tx.NetProviderAdjustment())
	}
}

func plbAmount(t *testing.T, s string) model.Amount {
	t.Helper()
	a, ok := model.ParseAmount(s)
	if !ok {
		t.Fatalf("bad amount %q", s)
	}
	return a
}

func TestRefundAckMatchesIndividualPairs(t *testing.T) {
	tx := &model.Transaction{PLBs: []model.PLBAdjustment{{Entries: []model.PLBEntry{
		{Reason: "WO", Reference: "CLM1", Amount: plbAmount(t, "125.00")},
		{Reason: "72", Reference: "CLM1", Amount: plbAmount(t, "-125.00")},
		{Reason: "WO", Reference: "CLM2", Amount: plbAmount(t, "50.00")},
	}}}}
	markRefundAcknowledgments(tx)
	entries := tx.PLBs[0].Entries
	if !entries[0].Acknowledged || !entries[1].Acknowledged {
		t.Errorf("offsetting WO/72 pair not acknowledged: %+v", entries[:2])
	}
	if entries[2].Acknowledged {
		t.Error("unpaired WO acknowledged")
	}
}

func TestRefundAckIgnoresPartialOffsets(t *testing.T) {
	tx := &model.Transaction{PLBs: []model.PLBAdjustment{{Entries: []model.PLBEntry{
		{Reason: "WO", Amount: plbAmount(t, "100.00")},
		{Reason: "72", Amount: plbAmount(t, "-60.00")},
		{Reason: "72", Amount: plbAmount(t, "-40.00")},
	}}}}
	markRefundAcknowledgments(tx)
	for _, e := range tx.PLBs[0].Entries {
		if e.Acknowledged {
			t.Errorf("entry %s %s acknowledged without an offsetting partner", e.Reason, e.Amount)
		}
	}
}

func TestRenderRows(t *testing.T) {
	tree, err := Build(buildSample(t), "sample.835")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rd := NewRenderer(WithPayerRegistry(payers.NewRegistry()))
	rows, err := rd.Render(context.Background(), tree)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// 2 service rows + 1 claim row + 1 empty row
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}

	r1 := rows[0]
	if r1.Kind != KindService || r1.SEQ != "1-1" {
		t.Errorf("row 1 kind/SEQ = %s/%s", r1.Kind, r1.SEQ)
	}
	if r1.PayerKey != "EMEDNY" {
		t.Errorf("payer key = %q, want EMEDNY", r1.PayerKey)
	}
	if r1.ServiceContractual.String() != "50.00" || r1.ServiceDeductible.String() != "25.00" {
		t.Errorf("service buckets = %s/%s", r1.ServiceContractual, r1.ServiceDeductible)
	}
	if r1.AllowedAmount != "100.00" || r1.AllowedVerification != "100.00" {
		t.Errorf("allowed = %s / %s", r1.AllowedAmount, r1.AllowedVerification)
	}
	if r1.ServiceAllowedAMT != "100.00" {
		t.Errorf("AMT B6 = %q", r1.ServiceAllowedAMT)
	}
	if !strings.Contains(r1.ServiceDescription, "advanced life support") {
		t.Errorf("A0427 description = %q", r1.ServiceDescription)
	}

	r2 := rows[1]
	if r2.MileageUnitPrice != "5.00" {
		t.Errorf("mileage unit price = %q, want 5.00", r2.MileageUnitPrice)
	}
	if r2.ServiceDescription != "Ground mileage, per statute mile" {
		t.Errorf("A0425 description = %q", r2.ServiceDescription)
	}
	if r2.ServiceCoinsurance.String() != "5.00" {
		t.Errorf("coinsurance = %s", r2.ServiceCoinsurance)
	}
	if r2.AllowedAmount != "30.00" || r2.AllowedVerification != "30.00" {
		t.Errorf("allowed = %s / %s", r2.AllowedAmount, r2.AllowedVerification)
	}

	r3 := rows[2]
	if r3.Kind != KindClaim || r3.SEQ != "2-2" {
		t.Errorf("row 3 kind/SEQ = %s/%s", r3.Kind, r3.SEQ)
	}
	if r3.ClaimCOB.String() != "40.00" {
		t.Errorf("claim COB = %s", r3.ClaimCOB)
	}

	r4 := rows[3]
	if r4.Kind != KindEmpty || r4.ClaimNumber != "EMPTY_CLAIM_1" {
		t.Errorf("row 4 = %s %s", r4.Kind, r4.ClaimNumber)
	}
	if r4.PLBTotal != "0.00" || r4.PLBRefundAcks == "" {
		t.Errorf("PLB summary = total %q acks %q", r4.PLBTotal, r4.PLBRefundAcks)
	}
	if r4.PLBProviderID != "1234567890" || r4.PLBFiscalPeriod != "20241231" {
		t.Errorf("PLB header = %q / %q", r4.PLBProviderID, r4.PLBFiscalPeriod)
	}
	if s := r4.PLBSlots[0]; s.Reason != "WO" || s.Reference != "CLM1" || s.Amount != "125.00" {
		t.Errorf("PLB slot 1 = %+v", s)
	}
	if s := r4.PLBSlots[1]; s.Reason != "72" || s.Amount != "-125.00" {
		t.Errorf("PLB slot 2 = %+v", s)
	}
	if r4.PLBSlots[2] != (PLBSlot{}) {
		t.Errorf("PLB slot 3 = %+v, want empty", r4.PLBSlots[2])
	}
}

func TestPriorityRemarks(t *testing.T) {
	profile := &payers.Profile{PriorityRARCs: []string{"N426", "N892"}}
	claim := &model.Claim{
		MOA:     &model.MOAInfo{RemarkCodes: []string{"N426", "MA01"}},
		Remarks: []model.RemarkCode{{Code: "N892"}, {Code: "N426"}},
	}
	svc := &model.Service{Remarks: []model.RemarkCode{{Code: "N892"}, {Code: "N700"}}}

	if got := priorityRemarks(profile, claim, svc); got != "N426;N892" {
		t.Errorf("priority remarks = %q, want N426;N892", got)
	}
	if got := priorityRemarks(profile, &model.Claim{}, nil); got != "" {
		t.Errorf("priority remarks without codes = %q, want empty", got)
	}
	if got := priorityRemarks(nil, claim, svc); got != "" {
		t.Errorf("priority remarks without a profile = %q, want empty", got)
	}
}

func TestRowHeaderRecordAligned(t *testing.T) {
	var r Row
	h := r.Header()
	rec := r.Record()
	if len(h) != len(rec) {
		t.Fatalf("header %d columns, record %d", len(h), len(rec))
	}
	ch := r.CompactHeader()
	crec := r.CompactRecord()
	if len(ch) != len(crec) {
		t.Fatalf("compact header %d columns, record %d", len(ch), len(crec))
	}
	if len(ch) >= len(h) {
		t.Errorf("compact header should drop columns: %d vs %d", len(ch), len(h))
	}
	for _, name := range ch {
		if strings.HasPrefix(name, "ENV_") {
			t.Errorf("compact header carries %s", name)
		}
	}
}
