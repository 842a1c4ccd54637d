package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oarkflow/convert"
	"github.com/oarkflow/date"

	"github.com/oarkflow/remit/pkg/assemble"
	"github.com/oarkflow/remit/pkg/categorize"
	"github.com/oarkflow/remit/pkg/codes"
	"github.com/oarkflow/remit/pkg/model"
	"github.com/oarkflow/remit/pkg/payers"
	"github.com/oarkflow/remit/pkg/x12"
)

// Validator re-derives every computed quantity from the raw EDI and compares
// it against the emitted rows. It never mutates the rows it checks.
type Validator struct {
	registry *payers.Registry
}

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry sets the payer registry used for tolerances and payer
// attribution on findings.
func WithRegistry(r *payers.Registry) Option {
	return func(v *Validator) { v.registry = r }
}

// New builds a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{registry: payers.NewRegistry()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the full check pipeline over one file.
func (v *Validator) Validate(ctx context.Context, raw []byte, file string, rows []assemble.Row) (*Report, error) {
	report := &Report{File: file, RowCount: len(rows)}
	tracker := newPresenceTracker()

	ic, err := x12.Tokenize(raw)
	if err != nil {
		report.add(Issue{Kind: FormatError, Message: err.Error(), Location: file})
		report.finalize()
		return report, nil
	}
	tree, err := assemble.Build(ic, file)
	if err != nil {
		report.add(Issue{Kind: StructuralError, Message: err.Error(), Location: file})
		report.finalize()
		return report, nil
	}
	for _, n := range tree.Notes {
		report.add(Issue{Kind: FormatError, Message: n.Message, Location: n.Location})
	}

	steps := []func(*Report, *x12.Interchange, *model.Interchange, []assemble.Row, *presenceTracker){
		v.checkStructure,
		v.checkLoops,
		v.checkSequences,
		v.checkGrouping,
		v.checkBalancing,
		v.checkCompleteness,
		v.checkComposites,
		v.checkMappings,
		v.checkDates,
		v.checkEdgeCases,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step(report, ic, tree, rows, tracker)
	}

	report.Coverage = tracker.coverage()
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			for _, c := range tx.Claims {
				if !c.Synthetic {
					report.ClaimCount++
					report.ServiceCount += len(c.Services)
				}
			}
		}
	}
	report.finalize()
	return report, nil
}

func (v *Validator) payerFor(tree *model.Interchange, tx *model.Transaction) (string, *payers.Profile) {
	profile := v.registry.Identify(tx.TRN.PayerID, tree.ISA.SenderID, tx.Payer.Name)
	if profile != nil {
		return profile.Key, profile
	}
	return tx.Payer.Name, nil
}

// checkStructure verifies envelope pairing, control numbers and the SE
// segment count.
func (v *Validator) checkStructure(report *Report, ic *x12.Interchange, tree *model.Interchange, rows []assemble.Row, _ *presenceTracker) {
	if !tree.IEA.Present {
		report.add(Issue{Kind: StructuralError, Message: "missing IEA trailer", Segment: "IEA"})
	} else if tree.IEA.ControlNumber != tree.ISA.ControlNumber {
		report.add(Issue{
			Kind: StructuralError, Message: "interchange control numbers disagree",
			Segment: "IEA", Expected: tree.ISA.ControlNumber, Actual: tree.IEA.ControlNumber,
		})
	}
	for _, grp := range tree.Groups {
		if !grp.GE.Present {
			report.add(Issue{Kind: StructuralError, Message: "missing GE trailer", Segment: "GE"})
		} else {
			if grp.GE.ControlNumber != grp.GS.ControlNumber {
				report.add(Issue{
					Kind: StructuralError, Message: "group control numbers disagree",
					Segment: "GE", Expected: grp.GS.ControlNumber, Actual: grp.GE.ControlNumber,
				})
			}
			if want := fmt.Sprintf("%d", len(grp.Transactions)); grp.GE.TransactionCount != want {
				report.add(Issue{
					Kind: StructuralError, Message: "GE transaction count mismatch",
					Segment: "GE", Expected: want, Actual: grp.GE.TransactionCount,
				})
			}
		}
		for _, tx := range grp.Transactions {
			if !tx.SE.Present {
				report.add(Issue{Kind: StructuralError, Message: "missing SE trailer", Segment: "SE", Location: "ST " + tx.ControlNumber})
				continue
			}
			if tx.SE.ControlNumber != tx.ControlNumber {
				report.add(Issue{
					Kind: StructuralError, Message: "transaction control numbers disagree",
					Segment: "SE", Expected: tx.ControlNumber, Actual: tx.SE.ControlNumber,
				})
			}
			if want := fmt.Sprintf("%d", tx.SegmentCount); tx.SE.SegmentCount != want {
				report.add(Issue{
					Kind: StructuralError, Message: "SE segment count mismatch",
					Segment: "SE", Location: "ST " + tx.ControlNumber,
					Expected: want, Actual: tx.SE.SegmentCount,
				})
			}
		}
	}
}

// checkLoops verifies segment placement within the transaction loops.
func (v *Validator) checkLoops(report *Report, ic *x12.Interchange, _ *model.Interchange, _ []assemble.Row, _ *presenceTracker) {
	inTx, seenCLP, seenPLB := false, false, false
	for i, seg := range ic.Segments {
		loc := fmt.Sprintf("segment %d", i+1)
		switch seg.ID {
		case "ST":
			inTx, seenCLP, seenPLB = true, false, false
		case "SE":
			inTx = false
		case "CLP":
			seenCLP = true
			if seenPLB {
				report.add(Issue{Kind: StructuralError, Message: "CLP after PLB", Segment: "CLP", Location: loc})
			}
		case "SVC":
			if !seenCLP {
				report.add(Issue{Kind: StructuralError, Message: "SVC outside a claim loop", Segment: "SVC", Location: loc})
			}
		case "CAS":
			if inTx && !seenCLP {
				report.add(Issue{Kind: StructuralError, Message: "CAS before first CLP", Segment: "CAS", Location: loc})
			}
		case "PLB":
			if !inTx {
				report.add(Issue{Kind: StructuralError, Message: "PLB outside a transaction", Segment: "PLB", Location: loc})
			}
			seenPLB = true
		}
	}
}

// checkSequences verifies the critical header order: BPR first after ST,
// then TRN.
func (v *Validator) checkSequences(report *Report, ic *x12.Interchange, _ *model.Interchange, _ []assemble.Row, _ *presenceTracker) {
	bprAt, trnAt := -1, -1
	txControl := ""
	flush := func() {
		if txControl == "" {
			return
		}
		loc := "ST " + txControl
		if bprAt < 0 {
			report.add(Issue{Kind: SequenceError, Message: "transaction missing BPR", Segment: "BPR", Location: loc})
		}
		if trnAt < 0 {
			report.add(Issue{Kind: SequenceError, Message: "transaction missing TRN", Segment: "TRN", Location: loc})
		}
		if bprAt >= 0 && trnAt >= 0 && trnAt < bprAt {
			report.add(Issue{Kind: SequenceError, Message: "TRN precedes BPR", Segment: "TRN", Location: loc})
		}
	}
	for i, seg := range ic.Segments {
		switch seg.ID {
		case "ST":
			bprAt, trnAt = -1, -1
			txControl = seg.Element(2)
		case "BPR":
			if bprAt < 0 {
				bprAt = i
			}
		case "TRN":
			if trnAt < 0 {
				trnAt = i
			}
		case "SE":
			flush()
			txControl = ""
		}
	}
	flush()
}

// checkGrouping re-derives occurrence numbering and verifies the rows carry
// it; duplicate SEQ values are structural defects.
func (v *Validator) checkGrouping(report *Report, _ *x12.Interchange, tree *model.Interchange, rows []assemble.Row, _ *presenceTracker) {
	rowKeys := make(map[string]int)
	for _, row := range rows {
		rowKeys[row.ClaimNumber+"|"+fmt.Sprint(row.ClaimOccurrence)]++
	}
	seqSeen := make(map[string]int)
	for _, row := range rows {
		seqSeen[row.SEQ]++
	}
	for seq, n := range seqSeen {
		if n > 1 && seq != "" {
			kinds := 0
			for _, row := range rows {
				if row.SEQ == seq && row.Kind != assemble.KindService {
					kinds++
				}
			}
			// service rows legitimately share a SEQ; other kinds must not
			if kinds > 1 {
				report.add(Issue{Kind: StructuralError, Message: "duplicate SEQ " + seq, Field: "SEQ"})
			}
		}
	}
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			payer, _ := v.payerFor(tree, tx)
			for _, c := range tx.Claims {
				key := c.Number + "|" + fmt.Sprint(c.Occurrence)
				if rowKeys[key] == 0 {
					report.add(Issue{
						Kind: StructuralError, Message: "no output row for claim",
						Location: key, Payer: payer,
					})
				}
			}
		}
	}
}

// checkBalancing re-derives service, claim and transaction balances with the
// payer's tolerance.
func (v *Validator) checkBalancing(report *Report, _ *x12.Interchange, tree *model.Interchange, _ []assemble.Row, _ *presenceTracker) {
	allZeroNon := true
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			if tx.BPR.Amount != 0 || tx.BPR.Method != "NON" {
				allZeroNon = false
			}
		}
	}
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			payer, profile := v.payerFor(tree, tx)
			tol := model.Amount(profile.Tolerance())
			for _, c := range tx.Claims {
				if c.Synthetic {
					continue
				}
				loc := fmt.Sprintf("%s|%s|%d", tree.File, c.Number, c.Occurrence)
				var claimCAS model.Amount
				for _, g := range c.Adjustments {
					for _, e := range g.Entries {
						claimCAS += e.Amount
					}
				}
				var svcCAS, svcPaid, svcCharge model.Amount
				for si, s := range c.Services {
					var lineCAS model.Amount
					for _, g := range s.Adjustments {
						for _, e := range g.Entries {
							lineCAS += e.Amount
						}
					}
					if diff := s.Charge - s.Paid - lineCAS; diff.Abs() > tol {
						report.add(Issue{
							Kind: CalculationError, Message: "service line does not balance",
							Location: fmt.Sprintf("%s service %d", loc, si+1), Segment: "SVC",
							Expected: s.Charge.String(),
							Actual:   (s.Paid + lineCAS).String(),
							Payer:    payer,
						})
					}
					svcCAS += lineCAS
					svcPaid += s.Paid
					svcCharge += s.Charge
				}
				if len(c.Services) > 0 {
					if diff := c.Charge - svcCharge; diff.Abs() > tol {
						report.add(Issue{
							Kind: CalculationError, Message: "service charges do not sum to claim charge",
							Location: loc, Segment: "CLP", Field: "CLM_Charge",
							Expected: c.Charge.String(), Actual: svcCharge.String(),
							Payer: payer,
						})
					}
					if diff := c.Paid - svcPaid; diff.Abs() > tol {
						report.add(Issue{
							Kind: CalculationError, Message: "service payments do not sum to claim payment",
							Location: loc, Segment: "CLP", Field: "CLM_Paid",
							Expected: c.Paid.String(), Actual: svcPaid.String(),
							Payer: payer,
						})
					}
				}
				if diff := c.Charge - c.Paid - claimCAS - svcCAS; diff.Abs() > tol {
					report.add(Issue{
						Kind: CalculationError, Message: "claim does not balance",
						Location: loc, Segment: "CLP",
						Expected: c.Charge.String(),
						Actual:   (c.Paid + claimCAS + svcCAS).String(),
						Payer:    payer,
					})
				}
			}
			if allZeroNon {
				continue
			}
			expected := tx.TotalPaid() - tx.NetProviderAdjustment()
			if diff := tx.BPR.Amount - expected; diff.Abs() > tol {
				report.add(Issue{
					Kind: CalculationError, Message: "transaction does not balance to BPR02",
					Location: "ST " + tx.ControlNumber, Segment: "BPR",
					Expected: expected.String(), Actual: tx.BPR.Amount.String(),
					Payer: payer,
				})
			}
		}
	}
}

// checkCompleteness rebuilds the expected claim fields straight from the
// segments and compares them against the rows, with numeric tolerance and
// case-insensitive text matching. Loop-level fields with a blank source
// value are exempt.
func (v *Validator) checkCompleteness(report *Report, ic *x12.Interchange, tree *model.Interchange, rows []assemble.Row, _ *presenceTracker) {
	byKey := make(map[claimKey][]assemble.Row)
	for _, row := range rows {
		k := claimKey{row.ClaimNumber, row.ClaimOccurrence}
		byKey[k] = append(byKey[k], row)
	}
	rd := rederive(ic)
	for _, c := range rd.claims {
		claimRows := byKey[claimKey{c.number, c.occurrence}]
		if len(claimRows) == 0 {
			continue // reported by checkGrouping
		}
		payer, _ := v.payerForExpected(rd, c)
		loc := fmt.Sprintf("%s|%s|%d", tree.File, c.number, c.occurrence)
		for _, row := range claimRows {
			v.compareField(report, loc, payer, "CLM_Charge", c.charge, row.ClaimCharge)
			v.compareField(report, loc, payer, "CLM_Paid", c.paid, row.ClaimPaid)
			v.compareField(report, loc, payer, "CLM_Status", c.status, row.ClaimStatus)
			if c.patientLast != "" {
				v.compareField(report, loc, payer, "Patient_Last", c.patientLast, row.PatientLast)
			}
			if c.payerName != "" {
				v.compareField(report, loc, payer, "Payer_Name", c.payerName, row.PayerName)
			}
			if c.checkNumber != "" {
				v.compareField(report, loc, payer, "CheckNumber_TRN02", c.checkNumber, row.CheckNumber)
			}
		}
		if want, got := len(c.services), serviceRowCount(claimRows); want > 0 && want != got {
			report.add(Issue{
				Kind: MappingError, Message: "service row count mismatch",
				Location: loc, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got),
				Payer: payer,
			})
		}
	}
}

func (v *Validator) payerForExpected(rd *rederivation, c *expectedClaim) (string, *payers.Profile) {
	profile := v.registry.Identify(c.traceID, rd.senderID, c.payerName)
	if profile != nil {
		return profile.Key, profile
	}
	return c.payerName, nil
}

func serviceRowCount(rows []assemble.Row) int {
	n := 0
	for _, r := range rows {
		if r.Kind == assemble.KindService {
			n++
		}
	}
	return n
}

func (v *Validator) compareField(report *Report, loc, payer, field, expected, actual string) {
	if valuesMatch(expected, actual) {
		return
	}
	report.add(Issue{
		Kind: MappingError, Message: "row field disagrees with source",
		Location: loc, Field: field, Expected: expected, Actual: actual,
		Payer: payer,
	})
}

// valuesMatch compares loosely: numeric values within a cent, everything
// else case-insensitively with surrounding space ignored.
func valuesMatch(expected, actual string) bool {
	e := strings.TrimSpace(expected)
	a := strings.TrimSpace(actual)
	if strings.EqualFold(e, a) {
		return true
	}
	ea, eok := model.ParseAmount(e)
	aa, aok := model.ParseAmount(a)
	if eok && aok {
		return (ea - aa).Abs() <= 1
	}
	return false
}

// checkComposites re-parses every SVC01 composite with the component
// separator declared by the envelope and compares the decoded procedure.
func (v *Validator) checkComposites(report *Report, ic *x12.Interchange, _ *model.Interchange, rows []assemble.Row, _ *presenceTracker) {
	sep := string(ic.Delimiters.Component)
	for _, row := range rows {
		if row.EnvComponentSep == "" {
			continue
		}
		if row.EnvComponentSep != sep {
			report.add(Issue{
				Kind: FormatError, Message: "rows recorded a different component separator",
				Expected: sep, Actual: row.EnvComponentSep, Field: "ENV_ComponentSeparator_Envelope_ISA",
			})
			return
		}
		break
	}
	svcRows := make([]assemble.Row, 0, len(rows))
	for _, row := range rows {
		if row.Kind == assemble.KindService {
			svcRows = append(svcRows, row)
		}
	}
	i := 0
	for _, seg := range ic.Segments {
		if seg.ID != "SVC" {
			continue
		}
		if i >= len(svcRows) {
			break
		}
		row := svcRows[i]
		i++
		parts := strings.Split(seg.Element(1), sep)
		code := parts[0]
		if len(parts) > 1 {
			code = parts[1]
		}
		if !strings.EqualFold(code, row.ServiceCode) {
			report.add(Issue{
				Kind: FormatError, Message: "composite procedure re-parse disagrees",
				Field: "SVC_ProcedureCode", Expected: code, Actual: row.ServiceCode,
			})
		}
	}
}

// checkMappings validates group codes and claim statuses, and records any
// unmapped qualifiers for the coverage report.
func (v *Validator) checkMappings(report *Report, ic *x12.Interchange, tree *model.Interchange, _ []assemble.Row, tracker *presenceTracker) {
	for i, seg := range ic.Segments {
		loc := fmt.Sprintf("segment %d", i+1)
		switch seg.ID {
		case "CAS":
			if g := seg.Element(1); !codes.IsGroupCode(g) {
				report.add(Issue{
					Kind: MappingError, Message: "unknown CAS group code",
					Segment: "CAS", Location: loc, Actual: g,
				})
			}
		case "CLP":
			if s := seg.Element(2); s != "" {
				if _, ok := claimStatusCodes[s]; !ok {
					tracker.observe("CLP02", s, claimStatusCodes)
				}
			}
		case "REF":
			tracker.observe("REF", seg.Element(1), refQualifiers)
		case "DTM":
			tracker.observe("DTM", seg.Element(1), dtmQualifiers)
		case "AMT":
			tracker.observe("AMT", seg.Element(1), amtQualifiers)
		case "QTY":
			tracker.observe("QTY", seg.Element(1), qtyQualifiers)
		case "NM1":
			tracker.observe("NM1", seg.Element(1), nm1Entities)
		case "LQ":
			tracker.observe("LQ", seg.Element(1), lqQualifiers)
		case "PLB":
			for base := 3; base <= 13; base += 2 {
				reason := seg.Element(base)
				if reason == "" {
					continue
				}
				reason = strings.SplitN(reason, tree.ComponentSeparator, 2)[0]
				tracker.observe("PLB", reason, plbReasons)
			}
		}
	}
	for seg, quals := range tracker.coverage() {
		for _, q := range quals {
			report.MissingMappings = append(report.MissingMappings, seg+":"+q)
		}
	}
	v.checkDictionaryCoverage(report, tree)
}

// checkDictionaryCoverage resolves every reason and remark code through the
// dictionary and aggregates the gaps per payer. Gaps are advisory; unknown
// codes never fail a file.
func (v *Validator) checkDictionaryCoverage(report *Report, tree *model.Interchange) {
	var dict codes.Dictionary
	unresolved := make(map[string]map[string]struct{})
	note := func(payer, code string) {
		if unresolved[payer] == nil {
			unresolved[payer] = make(map[string]struct{})
		}
		unresolved[payer][code] = struct{}{}
	}
	carc := func(payer string, groups []model.CASGroup) {
		for _, g := range groups {
			for _, e := range g.Entries {
				if e.Code == "" {
					continue
				}
				if _, ok := dict.DescribeCARC(e.Code); !ok {
					note(payer, "CARC "+e.Code)
				}
			}
		}
	}
	rarc := func(payer string, remarks []string) {
		for _, code := range remarks {
			if code == "" {
				continue
			}
			if _, ok := dict.DescribeRARC(code); !ok {
				note(payer, "RARC "+code)
			}
		}
	}
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			payer, _ := v.payerFor(tree, tx)
			for _, c := range tx.Claims {
				carc(payer, c.Adjustments)
				if c.MOA != nil {
					rarc(payer, c.MOA.RemarkCodes)
				}
				if c.MIA != nil {
					rarc(payer, c.MIA.RemarkCodes)
				}
				for _, s := range c.Services {
					carc(payer, s.Adjustments)
					for _, r := range s.Remarks {
						rarc(payer, []string{r.Code})
					}
				}
			}
		}
	}
	for payer, set := range unresolved {
		missing := make([]string, 0, len(set))
		for code := range set {
			missing = append(missing, code)
		}
		sort.Strings(missing)
		report.add(Issue{
			Kind: DataQualityWarning, Message: "codes lack dictionary descriptions",
			Field: "Dictionary", Actual: strings.Join(missing, ";"), Payer: payer,
		})
	}
}

// checkDates verifies CCYYMMDD fields parse as real dates. Date anomalies
// never fail a file; they surface as warnings.
func (v *Validator) checkDates(report *Report, ic *x12.Interchange, _ *model.Interchange, _ []assemble.Row, _ *presenceTracker) {
	var check func(loc, segID, value string)
	check = func(loc, segID, value string) {
		if value == "" {
			return
		}
		if len(value) == 17 && strings.Contains(value, "-") {
			// D8 range CCYYMMDD-CCYYMMDD
			parts := strings.SplitN(value, "-", 2)
			check(loc, segID, parts[0])
			check(loc, segID, parts[1])
			return
		}
		if len(value) != 8 {
			report.add(Issue{
				Kind: DataQualityWarning, Message: "date is not CCYYMMDD",
				Segment: segID, Location: loc, Actual: value,
			})
			return
		}
		if _, err := date.Parse(value); err != nil {
			report.add(Issue{
				Kind: DataQualityWarning, Message: "unparseable date",
				Segment: segID, Location: loc, Actual: value,
			})
		}
	}
	for i, seg := range ic.Segments {
		loc := fmt.Sprintf("segment %d", i+1)
		switch seg.ID {
		case "DTM":
			check(loc, "DTM", seg.Element(2))
		case "BPR":
			check(loc, "BPR", seg.Element(16))
		case "GS":
			check(loc, "GS", seg.Element(4))
		}
	}
}

// checkEdgeCases covers reversals, predetermination claims, NSA remarks,
// mileage unit plausibility, categorization re-derivation and the allowed
// amount cross-check.
func (v *Validator) checkEdgeCases(report *Report, ic *x12.Interchange, tree *model.Interchange, rows []assemble.Row, _ *presenceTracker) {
	expected := rederive(ic).byKey()
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			payer, profile := v.payerFor(tree, tx)
			for _, c := range tx.Claims {
				if c.Synthetic {
					continue
				}
				loc := fmt.Sprintf("%s|%s|%d", tree.File, c.Number, c.Occurrence)
				if c.Status == "22" && (c.Paid > 0 || c.Charge > 0) {
					report.add(Issue{
						Kind: DataQualityWarning, Message: "reversal claim carries positive amounts",
						Location: loc, Segment: "CLP", Payer: payer,
					})
				}
				if c.Status == "25" && c.Paid != 0 {
					report.add(Issue{
						Kind: DataQualityWarning, Message: "predetermination claim expects zero payment",
						Location: loc, Segment: "CLP", Actual: c.Paid.String(), Payer: payer,
					})
				}
				v.checkNSA(report, loc, payer, c)
				v.checkMileage(report, loc, payer, profile, c)
				if exp := expected[claimKey{c.Number, c.Occurrence}]; exp != nil {
					v.checkCategorization(report, loc, payer, profile, exp, rows)
				}
			}
		}
	}
	for _, row := range rows {
		if row.Kind != assemble.KindService || row.AllowedAmount == "" {
			continue
		}
		a, aok := model.ParseAmount(row.AllowedAmount)
		b, bok := model.ParseAmount(row.AllowedVerification)
		if aok && bok && (a-b).Abs() > 1 {
			report.add(Issue{
				Kind: DataQualityWarning, Message: "allowed amount derivations disagree",
				Location: row.SEQ, Field: "Allowed_Amount",
				Expected: row.AllowedVerification, Actual: row.AllowedAmount,
				Payer: row.PayerKey,
			})
		}
	}
}

func (v *Validator) checkNSA(report *Report, loc, payer string, c *model.Claim) {
	hasNSA := false
	scan := func(list []string) {
		for _, code := range list {
			if codes.IsNSARemark(code) {
				hasNSA = true
			}
		}
	}
	if c.MOA != nil {
		scan(c.MOA.RemarkCodes)
	}
	for _, s := range c.Services {
		for _, r := range s.Remarks {
			if codes.IsNSARemark(r.Code) {
				hasNSA = true
			}
		}
	}
	if !hasNSA {
		return
	}
	if _, ok := c.AmountFor("B6"); ok {
		return
	}
	for _, s := range c.Services {
		if _, ok := s.AmountFor("B6"); ok {
			return
		}
	}
	report.add(Issue{
		Kind: DataQualityWarning, Message: "No Surprises Act remark without a qualifying payment amount",
		Location: loc, Segment: "LQ", Payer: payer,
	})
}

// checkMileage re-derives mileage units from the payer's per-mile rate.
// Secondary claims and COB filing indicators are exempt; their units
// routinely reflect the primary payer's pricing.
func (v *Validator) checkMileage(report *Report, loc, payer string, profile *payers.Profile, c *model.Claim) {
	if c.Status == "2" || c.Status == "20" {
		return
	}
	if _, cob := cobFilingCodes[c.FilingIndicator]; cob {
		return
	}
	for si, s := range c.Services {
		units, uok := parseFloat(s.Units)
		if _, mileage := mileageCodes[s.Procedure.Code]; mileage && (!uok || units <= 0) {
			report.add(Issue{
				Kind: DataQualityWarning, Message: "mileage service has zero or missing units",
				Location: fmt.Sprintf("%s service %d", loc, si+1), Field: "SVC_Units",
				Actual: s.Units, Payer: payer,
			})
			continue
		}
		if profile == nil {
			continue
		}
		rate, ok := profile.MileageUnitRates[s.Procedure.Code]
		if !ok || rate <= 0 || !uok || units <= 0 {
			continue
		}
		derived := s.Charge.Float() / rate
		if diff := derived - units; diff > 0.5 || diff < -0.5 {
			report.add(Issue{
				Kind: DataQualityWarning, Message: "mileage units disagree with payer rate",
				Location: fmt.Sprintf("%s service %d", loc, si+1), Field: "SVC_Units",
				Expected: fmt.Sprintf("%.1f", derived), Actual: s.Units,
				Payer: payer,
			})
		}
	}
}

// checkCategorization recomputes buckets from the segment-derived CAS trios
// and compares them against the category columns on the rows.
func (v *Validator) checkCategorization(report *Report, loc, payer string, profile *payers.Profile, c *expectedClaim, rows []assemble.Row) {
	var want categorize.Buckets
	var n categorize.Normalizer
	if profile != nil && profile.NormalizeCARCCodes {
		n = profile
	}
	want.AddGroups(c.cas, n)
	for _, row := range rows {
		if row.ClaimNumber != c.number || row.ClaimOccurrence != c.occurrence {
			continue
		}
		checks := []struct {
			name string
			want model.Amount
			got  model.Amount
		}{
			{"CLM_Contractual", want.Contractual, row.ClaimContractual},
			{"CLM_Deductible", want.Deductible, row.ClaimDeductible},
			{"CLM_Coinsurance", want.Coinsurance, row.ClaimCoinsurance},
			{"CLM_Copay", want.Copay, row.ClaimCopay},
			{"CLM_COB", want.COB, row.ClaimCOB},
			{"CLM_QMB", want.QMB, row.ClaimQMB},
			{"CLM_Sequestration", want.Sequestration, row.ClaimSequestration},
		}
		for _, chk := range checks {
			if chk.want != chk.got {
				report.add(Issue{
					Kind: CategorizationError, Message: "claim category re-derivation disagrees",
					Location: loc, Field: chk.name,
					Expected: chk.want.String(), Actual: chk.got.String(),
					Payer: payer,
				})
			}
		}
		break
	}
}

func parseFloat(s string) (float64, bool) {
	return convert.ToFloat64(strings.TrimSpace(s))
}
