package validate

// Qualifier maps cover the qualifiers the output maps into named columns.
// A qualifier seen in the data but absent here is recorded by the presence
// tracker and surfaces in the coverage section of the report.

var refQualifiers = map[string]string{
	"EV": "Receiver Identification",
	"F2": "Version Code",
	"2U": "Payer Identification",
	"9A": "Repriced Claim Reference",
	"0K": "Policy Form Identifying Number",
	"1L": "Group or Policy Number",
	"1W": "Member Identification Number",
	"28": "Employee Identification Number",
	"6R": "Provider Control Number",
	"BB": "Authorization Number",
	"CE": "Class of Contract Code",
	"EA": "Medical Record Identification Number",
	"F8": "Original Reference Number",
	"G1": "Prior Authorization Number",
	"G3": "Predetermination of Benefits Number",
	"HPI": "Health Care Provider Identifier",
	"IG": "Insurance Policy Number",
	"LU": "Location Number",
	"PQ": "Payee Identification",
	"RB": "Rate Code Number",
	"SY": "Social Security Number",
	"TJ": "Federal Taxpayer Identification Number",
}

var dtmQualifiers = map[string]string{
	"036": "Expiration",
	"050": "Received",
	"150": "Service Period Start",
	"151": "Service Period End",
	"232": "Claim Statement Period Start",
	"233": "Claim Statement Period End",
	"405": "Production",
	"472": "Service",
}

var amtQualifiers = map[string]string{
	"AU": "Coverage Amount",
	"B6": "Allowed Amount",
	"I":  "Interest",
	"T":  "Tax",
	"T2": "Total Claim Before Taxes",
	"F5": "Patient Amount Paid",
	"DY": "Per Day Limit",
	"NL": "Negative Ledger Balance",
	"ZK": "Federal Medicare Category 1",
	"ZL": "Federal Medicare Category 2",
}

var qtyQualifiers = map[string]string{
	"CA": "Covered Actual",
	"CD": "Co-insured Actual",
	"LA": "Life-time Reserve Actual",
	"LE": "Life-time Reserve Estimated",
	"NE": "Non-covered Estimated",
	"NR": "Not Replaced Blood Units",
	"OU": "Outlier Days",
	"PS": "Prescription",
	"VS": "Visits",
	"ZK": "Federal Medicare Category 1",
	"ZL": "Federal Medicare Category 2",
	"ZM": "Federal Medicare Category 3",
	"ZN": "Federal Medicare Category 4",
	"ZO": "Federal Medicare Category 5",
}

var nm1Entities = map[string]string{
	"QC": "Patient",
	"IL": "Insured",
	"74": "Corrected Insured",
	"82": "Rendering Provider",
	"TT": "Transfer To",
	"PR": "Payer",
	"PE": "Payee",
	"GB": "Other Insured",
	"PW": "Ambulance Pickup",
	"45": "Ambulance Dropoff",
}

var lqQualifiers = map[string]string{
	"HE": "Claim Payment Remark Code",
	"RX": "NCPDP Reject/Payment Code",
}

// plbReasons are the provider-level adjustment reason codes with defined
// handling. Unlisted reasons still process; they just show up in coverage.
var plbReasons = map[string]string{
	"50": "Late Charge",
	"51": "Interest Penalty Charge",
	"72": "Authorized Return",
	"90": "Early Payment Allowance",
	"AH": "Origination Fee",
	"AM": "Applied to Borrower's Account",
	"AP": "Acceleration of Benefits",
	"B2": "Rebate",
	"B3": "Recovery Allowance",
	"BD": "Bad Debt Adjustment",
	"BN": "Bonus",
	"C5": "Temporary Allowance",
	"CR": "Capitation Interest",
	"CS": "Adjustment",
	"CT": "Capitation Payment",
	"CV": "Capital Passthru",
	"CW": "Certified Registered Nurse Anesthetist Passthru",
	"DM": "Direct Medical Education Passthru",
	"E3": "Withholding",
	"FB": "Forwarding Balance",
	"FC": "Fund Allocation",
	"GO": "Graduate Medical Education Passthru",
	"HM": "Hemophilia Clotting Factor Supplement",
	"IP": "Incentive Premium Payment",
	"IR": "Internal Revenue Service Withholding",
	"IS": "Interim Settlement",
	"J1": "Nonreimbursable",
	"L3": "Penalty",
	"L6": "Interest Owed",
	"LE": "Levy",
	"LS": "Lump Sum",
	"OA": "Organ Acquisition Passthru",
	"OB": "Offset for Affiliated Providers",
	"PI": "Periodic Interim Payment",
	"PL": "Payment Final",
	"RA": "Retro-activity Adjustment",
	"RE": "Return on Equity",
	"SL": "Student Loan Repayment",
	"TL": "Third Party Liability",
	"WO": "Overpayment Recovery",
	"WU": "Unspecified Recovery",
}

// claimStatusCodes maps CLP02 values to their adjudication meaning.
var claimStatusCodes = map[string]string{
	"1":  "Processed as Primary",
	"2":  "Processed as Secondary",
	"3":  "Processed as Tertiary",
	"4":  "Denied",
	"19": "Processed as Primary, Forwarded to Additional Payer(s)",
	"20": "Processed as Secondary, Forwarded to Additional Payer(s)",
	"21": "Processed as Tertiary, Forwarded to Additional Payer(s)",
	"22": "Reversal of Previous Payment",
	"23": "Not Our Claim, Forwarded to Additional Payer(s)",
	"25": "Predetermination Pricing Only - No Payment",
}

// cobFilingCodes are the CLP06 claim filing indicators that mark another
// payer's involvement; mileage unit checks are relaxed for them.
var cobFilingCodes = map[string]struct{}{
	"12": {}, "13": {}, "14": {}, "15": {}, "16": {},
	"41": {}, "42": {}, "43": {}, "44": {}, "45": {}, "46": {}, "47": {},
}

// mileageCodes are the ambulance mileage procedures whose units carry miles.
var mileageCodes = map[string]struct{}{
	"A0425": {}, "A0435": {}, "A0436": {},
}
