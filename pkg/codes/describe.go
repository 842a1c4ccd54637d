package codes

// carcDescriptions covers the reason codes that surface in reports. The
// table is a working subset, not the full external code list.
var carcDescriptions = map[string]string{
	"1":   "Deductible amount",
	"2":   "Coinsurance amount",
	"3":   "Co-payment amount",
	"16":  "Claim/service lacks information or has submission/billing error(s)",
	"18":  "Exact duplicate claim/service",
	"22":  "This care may be covered by another payer per coordination of benefits",
	"23":  "The impact of prior payer(s) adjudication",
	"29":  "The time limit for filing has expired",
	"36":  "Balance does not exceed co-payment amount",
	"37":  "Balance does not exceed deductible",
	"45":  "Charge exceeds fee schedule/maximum allowable",
	"49":  "This is a non-covered service",
	"50":  "Non-covered: not deemed a medical necessity by the payer",
	"66":  "Blood deductible",
	"96":  "Non-covered charge(s)",
	"97":  "Benefit included in payment/allowance for another service",
	"109": "Claim/service not covered by this payer/contractor",
	"119": "Benefit maximum for this time period has been reached",
	"168": "Service(s) have been considered under the patient's medical plan",
	"204": "Service/equipment/drug is not covered under the patient's plan",
	"217": "Claim adjusted based on payment reductions",
	"247": "Deductible for professional service in facility rendered",
	"248": "Coinsurance for professional service in facility rendered",
	"253": "Sequestration - reduction in federal payment",
	"303": "Prior payer's patient responsibility, Qualified Medicare Beneficiary",
}

// rarcDescriptions covers remark codes used for priority flags and NSA
// detection.
var rarcDescriptions = map[string]string{
	"M137": "Part B coinsurance under a demonstration project",
	"MA04": "Secondary payment cannot be considered without primary payer identity",
	"N426": "No coverage available; service not covered",
	"N427": "Payment based on an alternate fee schedule",
	"N428": "Not covered when performed in this place of service",
	"N429": "Not covered when considered routine",
	"N864": "Subject to the No Surprises Act",
	"N865": "Out-of-network cost sharing based on the qualifying payment amount",
	"N866": "Payment amount determined through open negotiation",
	"N875": "Qualifying payment amount used to calculate cost sharing",
	"N892": "Alert: offset from a previous overpayment",
	"N908": "Payment reflects state-mandated reimbursement",
	"N909": "Adjusted based on contracted rate with delegated entity",
	"N910": "Processed under a state fee schedule",
	"N911": "Reduced per state supplemental payment policy",
	"N912": "Payment reflects managed care capitation arrangement",
	"N913": "Adjusted per state-directed payment program",
}

// procedureDescriptions covers the ambulance HCPCS codes this pipeline
// routinely sees.
var procedureDescriptions = map[string]string{
	"A0425": "Ground mileage, per statute mile",
	"A0426": "Ambulance service, advanced life support, non-emergency transport, level 1",
	"A0427": "Ambulance service, advanced life support, emergency transport, level 1",
	"A0428": "Ambulance service, basic life support, non-emergency transport",
	"A0429": "Ambulance service, basic life support, emergency transport",
	"A0433": "Advanced life support, level 2",
	"A0434": "Specialty care transport",
	"A0435": "Fixed wing air mileage, per statute mile",
	"A0436": "Rotary wing air mileage, per statute mile",
	"A0998": "Ambulance response and treatment, no transport",
	"A0999": "Unlisted ambulance service",
}

// Dictionary resolves human descriptions for CARC, RARC and procedure values.
type Dictionary struct{}

// Describe returns the description for a reason or remark code.
func (Dictionary) Describe(code string) (string, bool) {
	if d, ok := carcDescriptions[code]; ok {
		return d, true
	}
	d, ok := rarcDescriptions[code]
	return d, ok
}

// DescribeCARC returns the claim adjustment reason description only.
func (Dictionary) DescribeCARC(code string) (string, bool) {
	d, ok := carcDescriptions[code]
	return d, ok
}

// DescribeRARC returns the remark code description only.
func (Dictionary) DescribeRARC(code string) (string, bool) {
	d, ok := rarcDescriptions[code]
	return d, ok
}

// DescribeProcedure returns the procedure code description.
func (Dictionary) DescribeProcedure(code string) (string, bool) {
	d, ok := procedureDescriptions[code]
	return d, ok
}

// NSARemarkCodes flag claims under the federal No Surprises Act; their
// presence without a qualifying payment amount is a data quality warning.
var NSARemarkCodes = set("N864", "N865", "N866", "N875")

// IsNSARemark reports whether the remark code is NSA-related.
func IsNSARemark(code string) bool {
	return has(NSARemarkCodes, code)
}
