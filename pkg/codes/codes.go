package codes

// Class is the dictionary classification of a claim adjustment reason code.
// Classification is advisory; the declared CAS group code decides the final
// bucket, with the class feeding tie-breaks and audit flags.
type Class int

const (
	ClassUnknown Class = iota
	ClassDeductible
	ClassCoinsurance
	ClassCopay
	ClassSequestration
	ClassQMB
	ClassHCRA
	ClassNonCovered
	ClassCOB
)

// String names the class for logs and reports.
func (c Class) String() string {
	switch c {
	case ClassDeductible:
		return "Deductible"
	case ClassCoinsurance:
		return "Coinsurance"
	case ClassCopay:
		return "Copay"
	case ClassSequestration:
		return "Sequestration"
	case ClassQMB:
		return "QMB"
	case ClassHCRA:
		return "HCRA"
	case ClassNonCovered:
		return "NonCovered"
	case ClassCOB:
		return "COB"
	}
	return "Unknown"
}

var deductible = set("1", "37", "66", "168", "247")
var coinsurance = set("2", "248")
var copay = set("3", "36")
var sequestration = set("217", "253")
var qmb = set("303")

// hcra is reserved; no national CARC maps to the New York HCRA surcharge.
var hcra = map[string]struct{}{}

var nonCovered = set(
	"48", "49", "50", "53", "54", "78", "96", "109", "111", "167", "202",
	"204", "212", "219", "258", "269", "293", "295", "B1", "D25",
)

// cob covers prior-payer adjudication, workers' compensation and liability
// carve-outs, plan forwarding, and the P-series property and casualty block.
var cob = set(
	"22", "23", "89", "129", "136", "213", "275", "276", "277", "282", "300",
	"A3", "B13", "B15", "B20",
	"19", "20", "21", "90", "92", "191", "201", "214",
	"304", "305",
	"P2", "P3", "P4", "P12", "P13", "P15", "P16", "P21", "P22",
)

func set(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

// Classify maps a CARC to its dictionary class.
func Classify(code string) Class {
	switch {
	case has(deductible, code):
		return ClassDeductible
	case has(coinsurance, code):
		return ClassCoinsurance
	case has(copay, code):
		return ClassCopay
	case has(sequestration, code):
		return ClassSequestration
	case has(qmb, code):
		return ClassQMB
	case has(hcra, code):
		return ClassHCRA
	case has(nonCovered, code):
		return ClassNonCovered
	case has(cob, code):
		return ClassCOB
	}
	return ClassUnknown
}

func has(m map[string]struct{}, code string) bool {
	_, ok := m[code]
	return ok
}

// IsClassified reports whether the code belongs to any known class.
func IsClassified(code string) bool {
	return Classify(code) != ClassUnknown
}

// GroupCodes are the CAS group codes accepted on parse. DE is rare but
// appears in some payer streams and routes through the dictionary fallback;
// NC marks non-covered charges and buckets as patient responsibility.
var GroupCodes = set("CO", "CR", "DE", "MA", "NC", "OA", "PI", "PR")

// IsGroupCode reports whether s is a recognized CAS group code.
func IsGroupCode(s string) bool {
	return has(GroupCodes, s)
}
