package validate

import (
	"strings"

	"github.com/oarkflow/remit/pkg/model"
	"github.com/oarkflow/remit/pkg/x12"
)

// The completeness and category checks rebuild their expected values straight
// from the segment stream, sharing only element positions and mapping tables
// with the assembler. A mapping defect in the build pass cannot confirm
// itself through the rows it produced.

type expectedService struct {
	composite string
	cas       []model.CASGroup
}

type expectedClaim struct {
	number      string
	occurrence  int
	status      string
	charge      string
	paid        string
	patientLast string
	payerName   string
	checkNumber string
	traceID     string
	cas         []model.CASGroup
	services    []*expectedService
}

type rederivation struct {
	senderID string
	claims   []*expectedClaim
}

type claimKey struct {
	number     string
	occurrence int
}

func (r *rederivation) byKey() map[claimKey]*expectedClaim {
	out := make(map[claimKey]*expectedClaim, len(r.claims))
	for _, c := range r.claims {
		out[claimKey{c.number, c.occurrence}] = c
	}
	return out
}

// rederive scans the raw segments once, tracking the transaction header
// fields and the open claim/service the way the loop structure dictates.
func rederive(ic *x12.Interchange) *rederivation {
	out := &rederivation{}
	var payerName, checkNumber, traceID string
	var claim *expectedClaim
	var service *expectedService
	occurrences := make(map[string]int)
	for _, seg := range ic.Segments {
		switch seg.ID {
		case "ISA":
			out.senderID = strings.TrimSpace(seg.Element(6))
		case "ST", "SE":
			payerName, checkNumber, traceID = "", "", ""
			claim, service = nil, nil
		case "TRN":
			if checkNumber == "" {
				checkNumber = seg.Element(2)
				traceID = seg.Element(3)
			}
		case "N1":
			if seg.Element(1) == "PR" {
				payerName = seg.Element(2)
			}
		case "CLP":
			number := seg.Element(1)
			occurrences[number]++
			claim = &expectedClaim{
				number:      number,
				occurrence:  occurrences[number],
				status:      seg.Element(2),
				charge:      seg.Element(3),
				paid:        seg.Element(4),
				payerName:   payerName,
				checkNumber: checkNumber,
				traceID:     traceID,
			}
			service = nil
			out.claims = append(out.claims, claim)
		case "SVC":
			if claim == nil {
				continue
			}
			service = &expectedService{composite: seg.Element(1)}
			claim.services = append(claim.services, service)
		case "NM1":
			if claim != nil && service == nil && seg.Element(1) == "QC" {
				claim.patientLast = seg.Element(3)
			}
		case "CAS":
			grp := casGroup(seg)
			if len(grp.Entries) == 0 {
				continue
			}
			switch {
			case service != nil:
				service.cas = append(service.cas, grp)
			case claim != nil:
				claim.cas = append(claim.cas, grp)
			}
		}
	}
	return out
}

// casGroup splits a CAS segment into reason/amount pairs at the same fixed
// triple positions the assembler reads.
func casGroup(seg x12.Segment) model.CASGroup {
	grp := model.CASGroup{Group: seg.Element(1)}
	for base := 2; base <= 17; base += 3 {
		code := seg.Element(base)
		raw := seg.Element(base + 1)
		if code == "" && raw == "" {
			continue
		}
		amt, _ := model.ParseAmount(raw)
		grp.Entries = append(grp.Entries, model.CASEntry{Code: code, Amount: amt, AmountRaw: raw})
	}
	return grp
}
