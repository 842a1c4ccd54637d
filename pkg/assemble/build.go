package assemble

import (
	"fmt"
	"strings"

	"github.com/oarkflow/remit/pkg/model"
	"github.com/oarkflow/remit/pkg/x12"
)

// refundAckTolerance is the net-to-zero window for WO/72 pairing, in cents.
const refundAckTolerance = 1

type builder struct {
	ic    *model.Interchange
	group *model.FunctionalGroup
	tx    *model.Transaction

	claim   *model.Claim
	service *model.Service
	party   *model.PartyInfo

	occurrences map[string]int
	emptyCount  int
	txStart     int
}

// Build decodes tokenized segments into the transaction tree. The tree is
// complete when Build returns; nothing mutates it afterwards.
func Build(raw *x12.Interchange, file string) (*model.Interchange, error) {
	if raw == nil || len(raw.Segments) == 0 {
		return nil, fmt.Errorf("no segments to build from")
	}
	b := &builder{
		ic: &model.Interchange{
			File:               file,
			ElementSeparator:    string(raw.Delimiters.Element),
			ComponentSeparator:  string(raw.Delimiters.Component),
			RepetitionSeparator: string(raw.Delimiters.Repetition),
			SegmentTerminator:   string(raw.Delimiters.Terminator),
		},
		occurrences: make(map[string]int),
	}
	for idx, seg := range raw.Segments {
		b.segment(raw, idx, seg)
	}
	if b.tx != nil {
		b.note(len(raw.Segments), "SE", "transaction not closed before end of file")
		b.closeTransaction(len(raw.Segments), x12.Segment{})
	}
	if b.ic.ISA.SenderID == "" && len(raw.Segments) > 0 && raw.Segments[0].ID != "ISA" {
		return nil, fmt.Errorf("file does not open with ISA")
	}
	return b.ic, nil
}

func (b *builder) note(idx int, segID, msg string) {
	b.ic.Notes = append(b.ic.Notes, model.Note{
		Location: fmt.Sprintf("%s segment %d", segID, idx+1),
		Message:  msg,
	})
}

func (b *builder) amount(idx int, seg x12.Segment, pos int) (model.Amount, string, bool) {
	raw := seg.Element(pos)
	if raw == "" {
		return 0, raw, false
	}
	a, ok := model.ParseAmount(raw)
	if !ok {
		b.note(idx, seg.ID, fmt.Sprintf("malformed amount %q at element %d", raw, pos))
		return 0, raw, false
	}
	return a, raw, true
}

func (b *builder) segment(raw *x12.Interchange, idx int, seg x12.Segment) {
	switch seg.ID {
	case "ISA":
		b.ic.ISA = model.ISAEnvelope{
			AuthQualifier:     seg.Element(1),
			AuthInfo:          seg.Element(2),
			SecurityQualifier: seg.Element(3),
			SecurityInfo:      seg.Element(4),
			SenderQualifier:   seg.Element(5),
			SenderID:          strings.TrimSpace(seg.Element(6)),
			ReceiverQualifier: seg.Element(7),
			ReceiverID:        strings.TrimSpace(seg.Element(8)),
			Date:              seg.Element(9),
			Time:              seg.Element(10),
			Repetition:        seg.Element(11),
			Version:           seg.Element(12),
			ControlNumber:     seg.Element(13),
			AckRequested:      seg.Element(14),
			Usage:             seg.Element(15),
			ComponentSep:      b.ic.ComponentSeparator,
		}
	case "IEA":
		b.ic.IEA = model.IEAInfo{
			GroupCount:    seg.Element(1),
			ControlNumber: seg.Element(2),
			Present:       true,
		}
	case "GS":
		b.group = &model.FunctionalGroup{GS: model.GSEnvelope{
			FunctionalCode: seg.Element(1),
			SenderCode:     seg.Element(2),
			ReceiverCode:   seg.Element(3),
			Date:           seg.Element(4),
			Time:           seg.Element(5),
			ControlNumber:  seg.Element(6),
			Agency:         seg.Element(7),
			Version:        seg.Element(8),
		}}
		b.ic.Groups = append(b.ic.Groups, b.group)
	case "GE":
		if b.group != nil {
			b.group.GE = model.GEInfo{
				TransactionCount: seg.Element(1),
				ControlNumber:    seg.Element(2),
				Present:          true,
			}
		}
	case "ST":
		if b.tx != nil {
			b.note(idx, "ST", "new transaction started before SE")
			b.closeTransaction(idx, x12.Segment{})
		}
		if b.group == nil {
			// tolerate files with a missing GS
			b.group = &model.FunctionalGroup{}
			b.ic.Groups = append(b.ic.Groups, b.group)
		}
		b.tx = &model.Transaction{ControlNumber: seg.Element(2)}
		b.txStart = idx
		b.claim, b.service, b.party = nil, nil, nil
	case "SE":
		b.closeTransaction(idx, seg)
	case "BPR":
		if b.tx == nil {
			return
		}
		amt, rawAmt, ok := b.amount(idx, seg, 2)
		b.tx.BPR = model.BPRInfo{
			Handling:        seg.Element(1),
			Amount:          amt,
			AmountRaw:       rawAmt,
			AmountOK:        ok,
			CreditDebitFlag: seg.Element(3),
			Method:          seg.Element(4),
			Format:          seg.Element(5),
			Date:            seg.Element(16),
		}
	case "TRN":
		if b.tx == nil {
			return
		}
		b.tx.TRN = model.TRNInfo{
			TraceType:    seg.Element(1),
			CheckNumber:  seg.Element(2),
			PayerID:      seg.Element(3),
			Supplemental: seg.Element(4),
		}
	case "RDM":
		if b.tx == nil {
			return
		}
		b.tx.RDM = model.RDMInfo{
			TransmissionCode: seg.Element(1),
			Name:             seg.Element(2),
			Address:          seg.Element(3),
		}
	case "CUR":
		// currency segment carries no fields the output needs
	case "N1":
		if b.tx == nil || b.claim != nil {
			return
		}
		entity := seg.Element(1)
		p := model.PartyInfo{
			EntityCode:  entity,
			Name:        seg.Element(2),
			IDQualifier: seg.Element(3),
			ID:          seg.Element(4),
		}
		switch entity {
		case "PR":
			b.tx.Payer = p
			b.party = &b.tx.Payer
		case "PE":
			b.tx.Payee = p
			b.party = &b.tx.Payee
		default:
			b.party = nil
		}
	case "N3":
		if b.party != nil && b.claim == nil {
			b.party.Address.Line1 = seg.Element(1)
			b.party.Address.Line2 = seg.Element(2)
		}
	case "N4":
		if b.party != nil && b.claim == nil {
			b.party.Address.City = seg.Element(1)
			b.party.Address.State = seg.Element(2)
			b.party.Address.Zip = seg.Element(3)
		}
	case "PER":
		if b.party != nil && b.claim == nil {
			b.party.Contacts = append(b.party.Contacts, parsePER(seg))
		}
	case "LX":
		b.service = nil
	case "TS3", "TS2":
		// provider summary segments are informational only
	case "CLP":
		b.startClaim(idx, seg)
	case "SVC":
		b.startService(raw, idx, seg)
	case "CAS":
		b.addCAS(idx, seg)
	case "NM1":
		b.addNM1(raw, idx, seg)
	case "MOA":
		if b.claim != nil {
			b.claim.MOA = parseMOA(seg)
		}
	case "MIA":
		if b.claim != nil {
			b.claim.MIA = parseMIA(seg)
		}
	case "DTM":
		b.addDTM(seg)
	case "REF":
		b.addREF(seg)
	case "AMT":
		b.addAMT(idx, seg)
	case "QTY":
		b.addQTY(seg)
	case "LQ":
		rc := model.RemarkCode{Qualifier: seg.Element(1), Code: seg.Element(2)}
		if b.service != nil {
			b.service.Remarks = append(b.service.Remarks, rc)
		} else if b.claim != nil {
			b.claim.Remarks = append(b.claim.Remarks, rc)
		}
	case "PLB":
		b.addPLB(idx, seg)
	}
}

func (b *builder) startClaim(idx int, seg x12.Segment) {
	if b.tx == nil {
		b.note(idx, "CLP", "claim outside a transaction")
		return
	}
	charge, chargeRaw, _ := b.amount(idx, seg, 3)
	paid, paidRaw, _ := b.amount(idx, seg, 4)
	resp, respRaw, _ := b.amount(idx, seg, 5)
	number := seg.Element(1)
	b.occurrences[number]++
	c := &model.Claim{
		Number:            number,
		Status:            seg.Element(2),
		Charge:            charge,
		ChargeRaw:         chargeRaw,
		Paid:              paid,
		PaidRaw:           paidRaw,
		PatientResp:       resp,
		PatientRespRaw:    respRaw,
		FilingIndicator:   seg.Element(6),
		PayerControlNum:   seg.Element(7),
		FacilityTypeCode:  seg.Element(8),
		FrequencyCode:     seg.Element(9),
		DRGCode:           seg.Element(11),
		DRGWeight:         seg.Element(12),
		DischargeFraction: seg.Element(13),
		Occurrence:        b.occurrences[number],
	}
	b.tx.Claims = append(b.tx.Claims, c)
	b.claim = c
	b.service = nil
	b.party = nil
}

func (b *builder) startService(raw *x12.Interchange, idx int, seg x12.Segment) {
	if b.claim == nil {
		b.note(idx, "SVC", "service line outside a claim")
		return
	}
	charge, chargeRaw, _ := b.amount(idx, seg, 2)
	paid, paidRaw, _ := b.amount(idx, seg, 3)
	s := &model.Service{
		Procedure:   parseComposite(raw, seg.Element(1)),
		Charge:      charge,
		ChargeRaw:   chargeRaw,
		Paid:        paid,
		PaidRaw:     paidRaw,
		RevenueCode: seg.Element(4),
		Units:       seg.Element(5),
	}
	if orig := seg.Element(6); orig != "" {
		s.Original = parseComposite(raw, orig)
	}
	b.claim.Services = append(b.claim.Services, s)
	b.service = s
}

// parseComposite decodes an SVC01/SVC06 composite. A bare value without a
// component separator is a procedure code with the default HC qualifier.
func parseComposite(raw *x12.Interchange, value string) model.CompositeProcedure {
	parts := raw.SplitComposite(value)
	cp := model.CompositeProcedure{Raw: value}
	if len(parts) == 1 {
		cp.Qualifier = "HC"
		cp.Code = parts[0]
		return cp
	}
	cp.Qualifier = parts[0]
	cp.Code = parts[1]
	for _, m := range parts[2:] {
		if m == "" {
			continue
		}
		cp.Modifiers = append(cp.Modifiers, m)
		if len(cp.Modifiers) == 4 {
			break
		}
	}
	return cp
}

func (b *builder) addCAS(idx int, seg x12.Segment) {
	group := model.CASGroup{Group: seg.Element(1)}
	for base := 2; base <= 17; base += 3 {
		code := seg.Element(base)
		amtRaw := seg.Element(base + 1)
		if code == "" && amtRaw == "" {
			continue
		}
		amt, raw, _ := b.amount(idx, seg, base+1)
		e := model.CASEntry{Code: code, Amount: amt, AmountRaw: raw}
		if q := seg.Element(base + 2); isPlainNumeric(q) {
			e.Quantity = q
		}
		group.Entries = append(group.Entries, e)
	}
	if len(group.Entries) == 0 {
		return
	}
	if b.service != nil {
		b.service.Adjustments = append(b.service.Adjustments, group)
	} else if b.claim != nil {
		b.claim.Adjustments = append(b.claim.Adjustments, group)
	} else {
		b.note(idx, "CAS", "adjustment outside a claim")
	}
}

// isPlainNumeric accepts CAS quantities: digits with optional sign and
// decimal point, no letters.
func isPlainNumeric(s string) bool {
	if s == "" {
		return false
	}
	seenDigit := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return false
		}
	}
	return seenDigit
}

func (b *builder) addNM1(raw *x12.Interchange, idx int, seg x12.Segment) {
	if b.claim == nil {
		return
	}
	n := model.NameInfo{
		EntityCode:  seg.Element(1),
		Type:        seg.Element(2),
		LastOrOrg:   seg.Element(3),
		First:       seg.Element(4),
		Middle:      seg.Element(5),
		IDQualifier: seg.Element(8),
		ID:          seg.Element(9),
		Present:     true,
	}
	switch n.EntityCode {
	case "QC":
		b.claim.Patient = n
	case "IL":
		b.claim.Insured = n
	case "82":
		if b.service != nil {
			b.service.Rendering = n
		} else {
			b.claim.Rendering = n
		}
	case "TT":
		b.claim.TransferTo = n
	case "PR":
		b.claim.CorrectedPayer = n
	case "PW":
		n.Address = lookaheadAddress(raw, idx)
		b.claim.Pickup = n
	case "45":
		n.Address = lookaheadAddress(raw, idx)
		b.claim.Dropoff = n
	}
}

// lookaheadAddress reads N3/N4 within the next three segments, stopping at
// the next NM1, CLP or SE. Ambulance pickup and dropoff parties carry their
// address this way.
func lookaheadAddress(raw *x12.Interchange, idx int) model.Address {
	var addr model.Address
	for i := idx + 1; i < len(raw.Segments) && i <= idx+3; i++ {
		seg := raw.Segments[i]
		switch seg.ID {
		case "N3":
			addr.Line1 = seg.Element(1)
			addr.Line2 = seg.Element(2)
		case "N4":
			addr.City = seg.Element(1)
			addr.State = seg.Element(2)
			addr.Zip = seg.Element(3)
		case "NM1", "CLP", "SE":
			return addr
		}
	}
	return addr
}

func (b *builder) addDTM(seg x12.Segment) {
	d := model.DatedValue{Qualifier: seg.Element(1), Date: seg.Element(2)}
	switch {
	case b.service != nil:
		b.service.Dates = append(b.service.Dates, d)
	case b.claim != nil:
		b.claim.Dates = append(b.claim.Dates, d)
	case b.tx != nil && d.Qualifier == "405":
		b.tx.ProductionDate = d.Date
	}
}

func (b *builder) addREF(seg x12.Segment) {
	r := model.Ref{Qualifier: seg.Element(1), Value: seg.Element(2)}
	switch {
	case b.service != nil:
		b.service.Refs = append(b.service.Refs, r)
	case b.claim != nil:
		b.claim.Refs = append(b.claim.Refs, r)
	case b.party != nil:
		b.party.Refs = append(b.party.Refs, r)
	case b.tx != nil:
		switch r.Qualifier {
		case "EV":
			b.tx.ReceiverID = r.Value
		case "F2":
			b.tx.VersionID = r.Value
		}
	}
}

func (b *builder) addAMT(idx int, seg x12.Segment) {
	amt, raw, _ := b.amount(idx, seg, 2)
	a := model.QualifiedAmount{Qualifier: seg.Element(1), Amount: amt, Raw: raw}
	switch {
	case b.service != nil:
		b.service.Amounts = append(b.service.Amounts, a)
	case b.claim != nil:
		b.claim.Amounts = append(b.claim.Amounts, a)
	}
}

func (b *builder) addQTY(seg x12.Segment) {
	q := model.QualifiedValue{Qualifier: seg.Element(1), Value: seg.Element(2)}
	switch {
	case b.service != nil:
		b.service.Quantities = append(b.service.Quantities, q)
	case b.claim != nil:
		b.claim.Quantities = append(b.claim.Quantities, q)
	}
}

func (b *builder) addPLB(idx int, seg x12.Segment) {
	if b.tx == nil {
		b.note(idx, "PLB", "provider adjustment outside a transaction")
		return
	}
	plb := model.PLBAdjustment{
		ProviderID:   seg.Element(1),
		FiscalPeriod: seg.Element(2),
	}
	for base := 3; base <= 13; base += 2 {
		reasonRaw := seg.Element(base)
		amtRaw := seg.Element(base + 1)
		if reasonRaw == "" && amtRaw == "" {
			continue
		}
		amt, raw, _ := b.amount(idx, seg, base+1)
		e := model.PLBEntry{Amount: amt, AmountRaw: raw}
		parts := strings.SplitN(reasonRaw, b.ic.ComponentSeparator, 2)
		e.Reason = parts[0]
		if len(parts) > 1 {
			e.Reference = parts[1]
		}
		plb.Entries = append(plb.Entries, e)
	}
	b.tx.PLBs = append(b.tx.PLBs, plb)
}

func parsePER(seg x12.Segment) model.Contact {
	c := model.Contact{Function: seg.Element(1), Name: seg.Element(2)}
	for base := 3; base <= 7; base += 2 {
		switch seg.Element(base) {
		case "TE", "WP":
			c.Phone = seg.Element(base + 1)
		case "EM":
			c.Email = seg.Element(base + 1)
		case "FX":
			c.Fax = seg.Element(base + 1)
		}
	}
	return c
}

func parseMOA(seg x12.Segment) *model.MOAInfo {
	m := &model.MOAInfo{
		ReimbursementRate: seg.Element(1),
		HCPCSAmount:       seg.Element(2),
		ESRDAmount:        seg.Element(8),
		NonPayableAmount:  seg.Element(9),
	}
	for pos := 3; pos <= 7; pos++ {
		if code := seg.Element(pos); code != "" {
			m.RemarkCodes = append(m.RemarkCodes, code)
		}
	}
	return m
}

func parseMIA(seg x12.Segment) *model.MIAInfo {
	m := &model.MIAInfo{
		CoveredDays:       seg.Element(1),
		PPSOperatingDSH:   seg.Element(2),
		LifetimeReserve:   seg.Element(3),
		DRGAmount:         seg.Element(4),
		DisproportionateA: seg.Element(6),
		CapitalAmount:     seg.Element(8),
	}
	for _, pos := range []int{5, 20, 21, 22, 23} {
		if code := seg.Element(pos); code != "" {
			m.RemarkCodes = append(m.RemarkCodes, code)
		}
	}
	return m
}

// closeTransaction records the SE trailer, synthesizes the placeholder claim
// for an empty transaction and marks WO/72 refund acknowledgments.
func (b *builder) closeTransaction(idx int, se x12.Segment) {
	tx := b.tx
	if tx == nil {
		return
	}
	if se.ID == "SE" {
		tx.SE = model.SEInfo{
			SegmentCount:  se.Element(1),
			ControlNumber: se.Element(2),
			Present:       true,
		}
		tx.SegmentCount = idx - b.txStart + 1
	} else {
		tx.SegmentCount = idx - b.txStart
	}
	if len(tx.Claims) == 0 {
		b.emptyCount++
		tx.Claims = append(tx.Claims, &model.Claim{
			Number:     fmt.Sprintf("EMPTY_CLAIM_%d", b.emptyCount),
			Occurrence: 1,
			Synthetic:  true,
		})
	}
	markRefundAcknowledgments(tx)
	b.group.Transactions = append(b.group.Transactions, tx)
	b.tx, b.claim, b.service, b.party = nil, nil, nil, nil
}

// markRefundAcknowledgments pairs each WO provider adjustment with a 72
// entry whose amount offsets it within a cent. WO and 72 may sit in the same
// PLB or different ones. Acknowledged pairs are bookkeeping echoes of refunds
// already taken and do not move the check amount; unpaired WO or 72 entries
// stay unacknowledged.
func markRefundAcknowledgments(tx *model.Transaction) {
	var recoveries, returns []*model.PLBEntry
	for i := range tx.PLBs {
		for j := range tx.PLBs[i].Entries {
			e := &tx.PLBs[i].Entries[j]
			switch e.Reason {
			case "WO":
				recoveries = append(recoveries, e)
			case "72":
				returns = append(returns, e)
			}
		}
	}
	for _, wo := range recoveries {
		for _, ret := range returns {
			if (wo.Amount + ret.Amount).Abs() <= refundAckTolerance {
				wo.Acknowledged = true
				ret.Acknowledged = true
				break
			}
		}
	}
}
