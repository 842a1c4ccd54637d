package assemble

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oarkflow/convert"
	"github.com/oarkflow/log"

	"github.com/oarkflow/remit/pkg/categorize"
	"github.com/oarkflow/remit/pkg/codes"
	"github.com/oarkflow/remit/pkg/contracts"
	"github.com/oarkflow/remit/pkg/model"
	"github.com/oarkflow/remit/pkg/payers"
)

// Ambulance mileage procedure codes and their benchmark base unit count.
var mileageCodes = map[string]struct{}{"A0425": {}, "A0435": {}, "A0436": {}}

// baseRateCodes are the ambulance base-rate procedures eligible for
// benchmark rate enrichment.
var baseRateCodes = map[string]struct{}{
	"A0426": {}, "A0427": {}, "A0428": {}, "A0429": {}, "A0433": {}, "A0434": {},
}

const mileageBaseUnits = 15

// Renderer flattens a transaction tree into output rows.
type Renderer struct {
	registry contracts.PayerIdentifier
	rates    contracts.RateLookup
	trips    contracts.TripLookup
	dict     contracts.Describer
}

// RenderOption configures a Renderer.
type RenderOption func(*Renderer)

// WithPayerRegistry sets the payer identification registry.
func WithPayerRegistry(r contracts.PayerIdentifier) RenderOption {
	return func(rd *Renderer) { rd.registry = r }
}

// WithRateLookup enables benchmark rate enrichment.
func WithRateLookup(r contracts.RateLookup) RenderOption {
	return func(rd *Renderer) { rd.rates = r }
}

// WithTripLookup enables trip manifest enrichment.
func WithTripLookup(t contracts.TripLookup) RenderOption {
	return func(rd *Renderer) { rd.trips = t }
}

// WithDescriber overrides the code dictionary.
func WithDescriber(d contracts.Describer) RenderOption {
	return func(rd *Renderer) { rd.dict = d }
}

// NewRenderer builds a Renderer.
func NewRenderer(opts ...RenderOption) *Renderer {
	rd := &Renderer{dict: codes.Dictionary{}}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Render walks the tree and emits one row per service line, one row for a
// claim without services, and one placeholder row per empty transaction.
// The tree is read-only input; rendering never writes back into it.
func (rd *Renderer) Render(ctx context.Context, tree *model.Interchange) ([]Row, error) {
	var rows []Row
	claimSeq := 0
	for _, grp := range tree.Groups {
		for _, tx := range grp.Transactions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			profile := rd.identify(tree, tx)
			base := rd.baseRow(tree, grp, tx, profile)
			for _, claim := range tx.Claims {
				claimSeq++
				rows = append(rows, rd.claimRows(ctx, base, tx, claim, claimSeq, profile)...)
			}
		}
	}
	return rows, nil
}

func (rd *Renderer) identify(tree *model.Interchange, tx *model.Transaction) *payers.Profile {
	if rd.registry == nil {
		return nil
	}
	return rd.registry.Identify(tx.TRN.PayerID, tree.ISA.SenderID, tx.Payer.Name)
}

func (rd *Renderer) baseRow(tree *model.Interchange, grp *model.FunctionalGroup, tx *model.Transaction, profile *payers.Profile) Row {
	row := Row{
		FileName:           tree.File,
		EnvSenderQualifier: tree.ISA.SenderQualifier,
		EnvSenderID:        tree.ISA.SenderID,
		EnvReceiverID:      tree.ISA.ReceiverID,
		EnvDate:            tree.ISA.Date,
		EnvControlNumber:   tree.ISA.ControlNumber,
		EnvUsage:           tree.ISA.Usage,
		EnvComponentSep:    tree.ComponentSeparator,
		EnvGroupSender:     grp.GS.SenderCode,
		EnvGroupControl:    grp.GS.ControlNumber,
		EnvGroupVersion:    grp.GS.Version,

		TransactionControl: tx.ControlNumber,
		CheckAmount:        tx.BPR.AmountRaw,
		PaymentMethod:      tx.BPR.Method,
		CreditDebitFlag:    tx.BPR.CreditDebitFlag,
		PaymentDate:        tx.BPR.Date,
		CheckNumber:        tx.TRN.CheckNumber,
		PayerTraceID:       tx.TRN.PayerID,
		ProductionDate:     tx.ProductionDate,

		PayerName:    tx.Payer.Name,
		PayerID:      tx.Payer.ID,
		PayerAddress: joinAddress(tx.Payer.Address),
		PayerCity:    tx.Payer.Address.City,
		PayerState:   tx.Payer.Address.State,
		PayerZip:     tx.Payer.Address.Zip,

		PayeeName:    tx.Payee.Name,
		PayeeID:      tx.Payee.ID,
		PayeeAddress: joinAddress(tx.Payee.Address),
		PayeeCity:    tx.Payee.Address.City,
		PayeeState:   tx.Payee.Address.State,
		PayeeZip:     tx.Payee.Address.Zip,
	}
	if profile != nil {
		row.PayerKey = profile.Key
	}
	for _, c := range tx.Payer.Contacts {
		if row.PayerContactName == "" {
			row.PayerContactName = c.Name
		}
		if row.PayerContactPhone == "" {
			row.PayerContactPhone = c.Phone
		}
		if row.PayerContactEmail == "" {
			row.PayerContactEmail = c.Email
		}
	}
	if tx.Payee.IDQualifier == "XX" {
		row.PayeeNPI = tx.Payee.ID
	}
	row.PLBAdjustments, row.PLBRefundAcks = plbStrings(tx)
	row.PLBTotal = tx.NetProviderAdjustment().String()
	if len(tx.PLBs) > 0 {
		row.PLBProviderID = tx.PLBs[0].ProviderID
		row.PLBFiscalPeriod = tx.PLBs[0].FiscalPeriod
	}
	slot := 0
	for _, plb := range tx.PLBs {
		for _, e := range plb.Entries {
			if slot >= len(row.PLBSlots) {
				break
			}
			row.PLBSlots[slot] = PLBSlot{Reason: e.Reason, Reference: e.Reference, Amount: e.AmountRaw}
			slot++
		}
	}
	return row
}

func plbStrings(tx *model.Transaction) (adjustments, acks string) {
	var adj, ack []string
	for _, plb := range tx.PLBs {
		for _, e := range plb.Entries {
			s := fmt.Sprintf("%s:%s=%s", e.Reason, e.Reference, e.Amount)
			if e.Acknowledged {
				ack = append(ack, s)
			} else {
				adj = append(adj, s)
			}
		}
	}
	return strings.Join(adj, ";"), strings.Join(ack, ";")
}

func (rd *Renderer) claimRows(ctx context.Context, base Row, tx *model.Transaction, claim *model.Claim, claimSeq int, profile *payers.Profile) []Row {
	row := base
	row.ClaimNumber = claim.Number
	row.ClaimOccurrence = claim.Occurrence
	row.SEQ = fmt.Sprintf("%d-%d", claim.Occurrence, claimSeq)

	if claim.Synthetic {
		row.Kind = KindEmpty
		return []Row{row}
	}

	row.ClaimStatus = claim.Status
	row.ClaimCharge = claim.ChargeRaw
	row.ClaimPaid = claim.PaidRaw
	row.ClaimPatientResp = claim.PatientRespRaw
	row.ClaimFiling = claim.FilingIndicator
	row.ClaimPayerControl = claim.PayerControlNum
	row.ClaimFacilityType = claim.FacilityTypeCode
	row.ClaimFrequency = claim.FrequencyCode
	row.ClaimDRGCode = claim.DRGCode

	row.PatientLast = claim.Patient.LastOrOrg
	row.PatientFirst = claim.Patient.First
	row.PatientID = claim.Patient.ID
	row.InsuredLast = claim.Insured.LastOrOrg
	row.InsuredFirst = claim.Insured.First
	row.InsuredID = claim.Insured.ID
	row.RenderingOrg = claim.Rendering.LastOrOrg
	if claim.Rendering.IDQualifier == "XX" {
		row.RenderingNPI = claim.Rendering.ID
	}

	row.ClaimStartDate = claim.Date("232")
	row.ClaimEndDate = claim.Date("233")
	row.ClaimReceivedDate = claim.Date("050")
	if cov, ok := claim.AmountFor("AU"); ok {
		row.ClaimCoverage = cov.String()
	}
	row.ClaimRemarks = claimRemarks(claim)
	row.PriorityRemarks = priorityRemarks(profile, claim, nil)

	var claimBuckets categorize.Buckets
	claimBuckets.AddGroups(claim.Adjustments, normalizer(profile))
	applyClaimBuckets(&row, &claimBuckets)

	if len(claim.Services) == 0 {
		row.Kind = KindClaim
		row.AuditFlags = strings.Join(claimBuckets.AuditFlags, "; ")
		row.AllowedAmount = claimBuckets.Allowed(claim.Charge).String()
		row.AllowedVerification = claimBuckets.AllowedVerification(claim.Paid).String()
		rd.enrichTrip(ctx, &row, claim)
		return []Row{row}
	}

	rows := make([]Row, 0, len(claim.Services))
	for _, svc := range claim.Services {
		r := row
		r.Kind = KindService
		rd.fillService(ctx, &r, claim, svc, profile, &claimBuckets)
		rd.enrichTrip(ctx, &r, claim)
		rows = append(rows, r)
	}
	return rows
}

func claimRemarks(claim *model.Claim) string {
	var codes []string
	if claim.MOA != nil {
		codes = append(codes, claim.MOA.RemarkCodes...)
	}
	if claim.MIA != nil {
		codes = append(codes, claim.MIA.RemarkCodes...)
	}
	for _, r := range claim.Remarks {
		codes = append(codes, r.Code)
	}
	return strings.Join(codes, ";")
}

// priorityRemarks picks out the remark codes the payer profile flags for
// analyst review.
func priorityRemarks(profile *payers.Profile, claim *model.Claim, svc *model.Service) string {
	if profile == nil {
		return ""
	}
	var out []string
	seen := make(map[string]struct{})
	add := func(code string) {
		if !profile.IsPriorityRARC(code) {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	if claim.MOA != nil {
		for _, c := range claim.MOA.RemarkCodes {
			add(c)
		}
	}
	for _, r := range claim.Remarks {
		add(r.Code)
	}
	if svc != nil {
		for _, r := range svc.Remarks {
			add(r.Code)
		}
	}
	return strings.Join(out, ";")
}

func normalizer(profile *payers.Profile) categorize.Normalizer {
	if profile == nil || !profile.NormalizeCARCCodes {
		return nil
	}
	return profile
}

func applyClaimBuckets(row *Row, b *categorize.Buckets) {
	row.ClaimContractual = b.Contractual
	row.ClaimCopay = b.Copay
	row.ClaimCoinsurance = b.Coinsurance
	row.ClaimDeductible = b.Deductible
	row.ClaimDenied = b.Denied
	row.ClaimOtherAdjustments = b.OtherAdjustments
	row.ClaimSequestration = b.Sequestration
	row.ClaimCOB = b.COB
	row.ClaimHCRA = b.HCRA
	row.ClaimQMB = b.QMB
	row.ClaimPRNonCovered = b.PRNonCovered
	row.ClaimOtherPatientResp = b.OtherPatientResp
}

func (rd *Renderer) fillService(ctx context.Context, row *Row, claim *model.Claim, svc *model.Service, profile *payers.Profile, claimBuckets *categorize.Buckets) {
	row.ServiceQualifier = svc.Procedure.Qualifier
	row.ServiceCode = svc.Procedure.Code
	row.ServiceModifiers = strings.Join(svc.Procedure.Modifiers, ":")
	if desc, ok := rd.dict.DescribeProcedure(svc.Procedure.Code); ok {
		row.ServiceDescription = desc
	}
	row.ServiceCharge = svc.ChargeRaw
	row.ServicePaid = svc.PaidRaw
	row.ServiceRevenueCode = svc.RevenueCode
	row.ServiceUnits = svc.Units
	row.ServiceDate = svc.Date("472")
	if allowed, ok := svc.AmountFor("B6"); ok {
		row.ServiceAllowedAMT = allowed.String()
	}
	var remarks []string
	for _, r := range svc.Remarks {
		remarks = append(remarks, r.Code)
	}
	row.ServiceRemarks = strings.Join(remarks, ";")
	row.PriorityRemarks = priorityRemarks(profile, claim, svc)

	var b categorize.Buckets
	b.AddGroups(svc.Adjustments, normalizer(profile))
	row.ServiceContractual = b.Contractual
	row.ServiceCopay = b.Copay
	row.ServiceCoinsurance = b.Coinsurance
	row.ServiceDeductible = b.Deductible
	row.ServiceDenied = b.Denied
	row.ServiceOtherAdjustments = b.OtherAdjustments
	row.ServiceSequestration = b.Sequestration
	row.ServiceCOB = b.COB
	row.ServiceHCRA = b.HCRA
	row.ServiceQMB = b.QMB
	row.ServicePRNonCovered = b.PRNonCovered
	row.ServiceOtherPatientResp = b.OtherPatientResp

	row.AllowedAmount = b.Allowed(svc.Charge).String()
	row.AllowedVerification = b.AllowedVerification(svc.Paid).String()

	flags := append(append([]string{}, claimBuckets.AuditFlags...), b.AuditFlags...)
	row.AuditFlags = strings.Join(flags, "; ")

	rd.enrichMileage(ctx, row, claim, svc, profile)
}

// enrichMileage derives the per-unit price for mileage lines and, when a
// rate source is configured, fills the benchmark columns for mileage and
// base-rate procedures.
func (rd *Renderer) enrichMileage(ctx context.Context, row *Row, claim *model.Claim, svc *model.Service, profile *payers.Profile) {
	code := svc.Procedure.Code
	_, isMileage := mileageCodes[code]
	_, isBaseRate := baseRateCodes[code]
	if !isMileage && !isBaseRate {
		return
	}
	units, unitsOK := parseUnits(svc.Units)
	if isMileage && unitsOK && units > 0 {
		row.MileageUnitPrice = halfUpCents(svc.Charge, units).String()
	}
	if rd.rates == nil {
		return
	}
	zip := claim.Pickup.Address.Zip
	if zip == "" {
		zip = row.PayeeZip
	}
	svcDate, err := time.Parse("20060102", svc.Date("472"))
	if err != nil {
		return
	}
	rate, ok, err := rd.rates.LookupRate(ctx, zip, code, svcDate)
	if err != nil {
		log.Printf("rate lookup failed for %s/%s: %v", zip, code, err)
		return
	}
	if !ok {
		return
	}
	row.BenchmarkRateIn = formatRate(rate.InNetwork)
	row.BenchmarkRateOut = formatRate(rate.OutOfNetwork)
	if isMileage {
		unitPrice := rate.OutOfNetwork / mileageBaseUnits
		row.BenchmarkUnitPrice = formatRate(unitPrice)
		if unitsOK {
			row.BenchmarkMiles = formatRate(unitPrice * units)
		}
	}
}

func (rd *Renderer) enrichTrip(ctx context.Context, row *Row, claim *model.Claim) {
	if rd.trips == nil || claim.Synthetic {
		return
	}
	trip, ok, err := rd.trips.LookupTrip(ctx, claim.Number)
	if err != nil {
		log.Printf("trip lookup failed for claim %s: %v", claim.Number, err)
		return
	}
	if !ok {
		return
	}
	row.TripVehicle = trip["vehicle"]
	row.TripOrigin = trip["origin"]
	row.TripDest = trip["destination"]
}

// halfUpCents divides cents by possibly fractional units, rounding half away
// from zero to the nearest cent.
func halfUpCents(cents model.Amount, units float64) model.Amount {
	v := float64(cents) / units
	if v >= 0 {
		return model.Amount(math.Floor(v + 0.5))
	}
	return model.Amount(math.Ceil(v - 0.5))
}

func parseUnits(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	return convert.ToFloat64(s)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func joinAddress(a model.Address) string {
	if a.Line2 == "" {
		return a.Line1
	}
	if a.Line1 == "" {
		return a.Line2
	}
	return a.Line1 + " " + a.Line2
}
