package assemble

import (
	"strconv"
	"strings"

	"github.com/oarkflow/remit/pkg/model"
)

// RowKind tells what level of the tree a row was rendered from.
type RowKind string

const (
	KindService RowKind = "service"
	KindClaim   RowKind = "claim"
	KindEmpty   RowKind = "empty"
)

// Row is one flattened output record: a service line, a claim without
// service lines, or a placeholder for an empty transaction. Field order in
// fields() fixes the CSV column order.
type Row struct {
	FileName string
	SEQ      string
	Kind     RowKind

	EnvSenderQualifier   string
	EnvSenderID          string
	EnvReceiverID        string
	EnvDate              string
	EnvControlNumber     string
	EnvUsage             string
	EnvComponentSep      string
	EnvGroupSender       string
	EnvGroupControl      string
	EnvGroupVersion      string

	TransactionControl string
	CheckAmount        string
	PaymentMethod      string
	CreditDebitFlag    string
	PaymentDate        string
	CheckNumber        string
	PayerTraceID       string
	ProductionDate     string

	PayerName         string
	PayerID           string
	PayerAddress      string
	PayerCity         string
	PayerState        string
	PayerZip          string
	PayerContactName  string
	PayerContactPhone string
	PayerContactEmail string
	PayerKey          string

	PayeeName    string
	PayeeID      string
	PayeeNPI     string
	PayeeAddress string
	PayeeCity    string
	PayeeState   string
	PayeeZip     string

	ClaimNumber       string
	ClaimOccurrence   int
	ClaimStatus       string
	ClaimCharge       string
	ClaimPaid         string
	ClaimPatientResp  string
	ClaimFiling       string
	ClaimPayerControl string
	ClaimFacilityType string
	ClaimFrequency    string
	ClaimDRGCode      string

	PatientLast  string
	PatientFirst string
	PatientID    string
	InsuredLast  string
	InsuredFirst string
	InsuredID    string
	RenderingOrg string
	RenderingNPI string

	ClaimStartDate    string
	ClaimEndDate      string
	ClaimReceivedDate string
	ClaimCoverage     string
	ClaimRemarks      string

	ClaimContractual      model.Amount
	ClaimCopay            model.Amount
	ClaimCoinsurance      model.Amount
	ClaimDeductible       model.Amount
	ClaimDenied           model.Amount
	ClaimOtherAdjustments model.Amount
	ClaimSequestration    model.Amount
	ClaimCOB              model.Amount
	ClaimHCRA             model.Amount
	ClaimQMB              model.Amount
	ClaimPRNonCovered     model.Amount
	ClaimOtherPatientResp model.Amount

	ServiceQualifier   string
	ServiceCode        string
	ServiceModifiers   string
	ServiceDescription string
	ServiceCharge      string
	ServicePaid        string
	ServiceRevenueCode string
	ServiceUnits       string
	ServiceDate        string
	ServiceAllowedAMT  string
	ServiceRemarks     string
	PriorityRemarks    string

	ServiceContractual      model.Amount
	ServiceCopay            model.Amount
	ServiceCoinsurance      model.Amount
	ServiceDeductible       model.Amount
	ServiceDenied           model.Amount
	ServiceOtherAdjustments model.Amount
	ServiceSequestration    model.Amount
	ServiceCOB              model.Amount
	ServiceHCRA             model.Amount
	ServiceQMB              model.Amount
	ServicePRNonCovered     model.Amount
	ServiceOtherPatientResp model.Amount

	AllowedAmount       string
	AllowedVerification string

	MileageUnitPrice   string
	BenchmarkRateIn    string
	BenchmarkRateOut   string
	BenchmarkUnitPrice string
	BenchmarkMiles     string

	PLBAdjustments  string
	PLBTotal        string
	PLBRefundAcks   string
	PLBProviderID   string
	PLBFiscalPeriod string
	PLBSlots        [6]PLBSlot

	AuditFlags string

	TripVehicle string
	TripOrigin  string
	TripDest    string
}

// PLBSlot is one flattened provider-level adjustment occurrence. Entries
// from every PLB segment in the transaction fill the six slots in order.
type PLBSlot struct {
	Reason    string
	Reference string
	Amount    string
}

type field struct {
	name  string
	value string
}

func (r Row) fields() []field {
	occ := ""
	if r.ClaimOccurrence > 0 {
		occ = strconv.Itoa(r.ClaimOccurrence)
	}
	fs := []field{
		{"FileName", r.FileName},
		{"SEQ", r.SEQ},
		{"RowKind", string(r.Kind)},
		{"ENV_SenderQualifier_ISA05", r.EnvSenderQualifier},
		{"ENV_SenderID_ISA06", r.EnvSenderID},
		{"ENV_ReceiverID_ISA08", r.EnvReceiverID},
		{"ENV_Date_ISA09", r.EnvDate},
		{"ENV_ControlNumber_ISA13", r.EnvControlNumber},
		{"ENV_Usage_ISA15", r.EnvUsage},
		{"ENV_ComponentSeparator_Envelope_ISA", r.EnvComponentSep},
		{"ENV_GroupSender_GS02", r.EnvGroupSender},
		{"ENV_GroupControl_GS06", r.EnvGroupControl},
		{"ENV_GroupVersion_GS08", r.EnvGroupVersion},
		{"TransactionControl_ST02", r.TransactionControl},
		{"CheckAmount_BPR02", r.CheckAmount},
		{"PaymentMethod_BPR04", r.PaymentMethod},
		{"CreditDebit_BPR03", r.CreditDebitFlag},
		{"PaymentDate_BPR16", r.PaymentDate},
		{"CheckNumber_TRN02", r.CheckNumber},
		{"PayerTraceID_TRN03", r.PayerTraceID},
		{"ProductionDate_DTM405", r.ProductionDate},
		{"Payer_Name", r.PayerName},
		{"Payer_ID", r.PayerID},
		{"Payer_Address", r.PayerAddress},
		{"Payer_City", r.PayerCity},
		{"Payer_State", r.PayerState},
		{"Payer_Zip", r.PayerZip},
		{"Payer_ContactName", r.PayerContactName},
		{"Payer_ContactPhone", r.PayerContactPhone},
		{"Payer_ContactEmail", r.PayerContactEmail},
		{"Payer_Profile", r.PayerKey},
		{"Payee_Name", r.PayeeName},
		{"Payee_ID", r.PayeeID},
		{"Payee_NPI", r.PayeeNPI},
		{"Payee_Address", r.PayeeAddress},
		{"Payee_City", r.PayeeCity},
		{"Payee_State", r.PayeeState},
		{"Payee_Zip", r.PayeeZip},
		{"CLM_ClaimNumber", r.ClaimNumber},
		{"CLM_Occurrence", occ},
		{"CLM_Status", r.ClaimStatus},
		{"CLM_Charge", r.ClaimCharge},
		{"CLM_Paid", r.ClaimPaid},
		{"CLM_PatientResp", r.ClaimPatientResp},
		{"CLM_FilingIndicator", r.ClaimFiling},
		{"CLM_PayerControlNumber", r.ClaimPayerControl},
		{"CLM_FacilityType", r.ClaimFacilityType},
		{"CLM_Frequency", r.ClaimFrequency},
		{"CLM_DRGCode", r.ClaimDRGCode},
		{"Patient_Last", r.PatientLast},
		{"Patient_First", r.PatientFirst},
		{"Patient_ID", r.PatientID},
		{"Insured_Last", r.InsuredLast},
		{"Insured_First", r.InsuredFirst},
		{"Insured_ID", r.InsuredID},
		{"Rendering_Name", r.RenderingOrg},
		{"Rendering_NPI", r.RenderingNPI},
		{"CLM_StartDate", r.ClaimStartDate},
		{"CLM_EndDate", r.ClaimEndDate},
		{"CLM_ReceivedDate", r.ClaimReceivedDate},
		{"CLM_CoverageAmount", r.ClaimCoverage},
		{"CLM_Remarks", r.ClaimRemarks},
		{"CLM_Contractual", r.ClaimContractual.String()},
		{"CLM_Copay", r.ClaimCopay.String()},
		{"CLM_Coinsurance", r.ClaimCoinsurance.String()},
		{"CLM_Deductible", r.ClaimDeductible.String()},
		{"CLM_Denied", r.ClaimDenied.String()},
		{"CLM_OtherAdjustments", r.ClaimOtherAdjustments.String()},
		{"CLM_Sequestration", r.ClaimSequestration.String()},
		{"CLM_COB", r.ClaimCOB.String()},
		{"CLM_HCRA", r.ClaimHCRA.String()},
		{"CLM_QMB", r.ClaimQMB.String()},
		{"CLM_PR_NonCovered", r.ClaimPRNonCovered.String()},
		{"CLM_OtherPatientResp", r.ClaimOtherPatientResp.String()},
		{"SVC_Qualifier", r.ServiceQualifier},
		{"SVC_ProcedureCode", r.ServiceCode},
		{"SVC_Modifiers", r.ServiceModifiers},
		{"SVC_Description", r.ServiceDescription},
		{"SVC_Charge", r.ServiceCharge},
		{"SVC_Paid", r.ServicePaid},
		{"SVC_RevenueCode", r.ServiceRevenueCode},
		{"SVC_Units", r.ServiceUnits},
		{"SVC_Date", r.ServiceDate},
		{"SVC_AllowedAMT_B6", r.ServiceAllowedAMT},
		{"SVC_Remarks", r.ServiceRemarks},
		{"Priority_Remarks", r.PriorityRemarks},
		{"SVC_Contractual", r.ServiceContractual.String()},
		{"SVC_Copay", r.ServiceCopay.String()},
		{"SVC_Coinsurance", r.ServiceCoinsurance.String()},
		{"SVC_Deductible", r.ServiceDeductible.String()},
		{"SVC_Denied", r.ServiceDenied.String()},
		{"SVC_OtherAdjustments", r.ServiceOtherAdjustments.String()},
		{"SVC_Sequestration", r.ServiceSequestration.String()},
		{"SVC_COB", r.ServiceCOB.String()},
		{"SVC_HCRA", r.ServiceHCRA.String()},
		{"SVC_QMB", r.ServiceQMB.String()},
		{"SVC_PR_NonCovered", r.ServicePRNonCovered.String()},
		{"SVC_OtherPatientResp", r.ServiceOtherPatientResp.String()},
		{"Allowed_Amount", r.AllowedAmount},
		{"Allowed_Verification", r.AllowedVerification},
		{"EDI_MileageUnitPrice", r.MileageUnitPrice},
		{"Benchmark_Rate_InNetwork", r.BenchmarkRateIn},
		{"Benchmark_Rate_OutOfNetwork", r.BenchmarkRateOut},
		{"Benchmark_UnitPrice", r.BenchmarkUnitPrice},
		{"Benchmark_Miles", r.BenchmarkMiles},
		{"PLB_Adjustments", r.PLBAdjustments},
		{"PLB_Total", r.PLBTotal},
		{"PLB_RefundAcknowledgments", r.PLBRefundAcks},
		{"PLB_ProviderID", r.PLBProviderID},
		{"PLB_FiscalPeriodDate", r.PLBFiscalPeriod},
	}
	for i, slot := range r.PLBSlots {
		n := strconv.Itoa(i + 1)
		fs = append(fs,
			field{"PLB_Adj" + n + "_ReasonCode", slot.Reason},
			field{"PLB_Adj" + n + "_RefID", slot.Reference},
			field{"PLB_Adj" + n + "_Amount", slot.Amount},
		)
	}
	return append(fs,
		field{"Audit_Flags", r.AuditFlags},
		field{"Trip_Vehicle", r.TripVehicle},
		field{"Trip_Origin", r.TripOrigin},
		field{"Trip_Destination", r.TripDest},
	)
}

// Header returns the full output column order.
func (r Row) Header() []string {
	fs := r.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.name
	}
	return out
}

// Record renders the row's values in Header order.
func (r Row) Record() []string {
	fs := r.fields()
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.value
	}
	return out
}

// compactExcluded drops envelope and contact detail from the compact CSV.
func compactExcluded(name string) bool {
	if strings.HasPrefix(name, "ENV_") {
		return true
	}
	switch name {
	case "Payer_ContactName", "Payer_ContactPhone", "Payer_ContactEmail",
		"Payer_Address", "Payee_Address", "Payee_City", "Payee_State", "Payee_Zip":
		return true
	}
	return false
}

// CompactRow renders a Row with the envelope and contact columns dropped.
type CompactRow struct {
	Row
}

// Header returns the compact column order.
func (c CompactRow) Header() []string { return c.Row.CompactHeader() }

// Record renders the compact values.
func (c CompactRow) Record() []string { return c.Row.CompactRecord() }

// CompactHeader returns the column order of the compact CSV.
func (r Row) CompactHeader() []string {
	var out []string
	for _, f := range r.fields() {
		if !compactExcluded(f.name) {
			out = append(out, f.name)
		}
	}
	return out
}

// CompactRecord renders the row's values in CompactHeader order.
func (r Row) CompactRecord() []string {
	var out []string
	for _, f := range r.fields() {
		if !compactExcluded(f.name) {
			out = append(out, f.value)
		}
	}
	return out
}
