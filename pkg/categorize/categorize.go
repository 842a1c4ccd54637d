package categorize

import (
	"fmt"

	"github.com/oarkflow/remit/pkg/codes"
	"github.com/oarkflow/remit/pkg/model"
)

// Bucket identifies the category an adjustment amount lands in.
type Bucket int

const (
	None Bucket = iota
	Contractual
	Copay
	Coinsurance
	Deductible
	Denied
	OtherAdjustments
	Sequestration
	COB
	HCRA
	QMB
	PRNonCovered
	OtherPatientResp
)

// String names the bucket as it appears in output columns.
func (b Bucket) String() string {
	switch b {
	case Contractual:
		return "Contractual"
	case Copay:
		return "Copay"
	case Coinsurance:
		return "Coinsurance"
	case Deductible:
		return "Deductible"
	case Denied:
		return "Denied"
	case OtherAdjustments:
		return "OtherAdjustments"
	case Sequestration:
		return "Sequestration"
	case COB:
		return "COB"
	case HCRA:
		return "HCRA"
	case QMB:
		return "QMB"
	case PRNonCovered:
		return "PR_NonCovered"
	case OtherPatientResp:
		return "OtherPatientResp"
	}
	return "None"
}

// Assignment is the categorizer's verdict for one adjustment.
type Assignment struct {
	Bucket    Bucket
	AuditFlag string
}

// Categorize assigns one CAS adjustment to a bucket. The declared group code
// wins over the dictionary class; the class resolves ties within a group and
// raises audit flags when group and dictionary disagree. Zero amounts are
// ignored entirely.
func Categorize(group, code string, amount model.Amount) Assignment {
	if amount == 0 {
		return Assignment{Bucket: None}
	}
	class := codes.Classify(code)

	switch group {
	case "NC":
		// Non-covered charge groups are patient responsibility outright;
		// the dictionary never overrides them.
		return Assignment{Bucket: PRNonCovered}
	case "CO":
		switch class {
		case codes.ClassSequestration:
			return Assignment{Bucket: Sequestration}
		case codes.ClassQMB:
			return Assignment{Bucket: QMB}
		case codes.ClassCOB:
			return Assignment{
				Bucket:    Contractual,
				AuditFlag: fmt.Sprintf("CO-%s: Dictionary suggests COB but payer declared CO (Contractual)", code),
			}
		}
		return Assignment{Bucket: Contractual}
	case "PR":
		switch class {
		case codes.ClassDeductible:
			return Assignment{Bucket: Deductible}
		case codes.ClassCoinsurance:
			return Assignment{Bucket: Coinsurance}
		case codes.ClassCopay:
			return Assignment{Bucket: Copay}
		case codes.ClassNonCovered:
			return Assignment{Bucket: PRNonCovered}
		}
		return Assignment{Bucket: OtherPatientResp}
	case "OA":
		switch class {
		case codes.ClassSequestration:
			return Assignment{Bucket: Sequestration}
		case codes.ClassQMB:
			return Assignment{
				Bucket:    QMB,
				AuditFlag: fmt.Sprintf("OA-%s: QMB CARC expected with CO group", code),
			}
		case codes.ClassHCRA:
			return Assignment{Bucket: HCRA}
		case codes.ClassCOB:
			return Assignment{Bucket: COB}
		}
		return Assignment{Bucket: OtherAdjustments}
	case "PI":
		if class == codes.ClassNonCovered {
			return Assignment{Bucket: Denied}
		}
		return Assignment{Bucket: OtherAdjustments}
	case "MA":
		switch class {
		case codes.ClassQMB:
			return Assignment{Bucket: QMB}
		case codes.ClassCOB:
			return Assignment{Bucket: COB}
		case codes.ClassSequestration:
			return Assignment{Bucket: Sequestration}
		}
		return Assignment{Bucket: OtherAdjustments}
	}

	// CR and unrecognized groups fall back to the dictionary class alone.
	switch class {
	case codes.ClassDeductible:
		return Assignment{Bucket: Deductible}
	case codes.ClassCoinsurance:
		return Assignment{Bucket: Coinsurance}
	case codes.ClassCopay:
		return Assignment{Bucket: Copay}
	case codes.ClassSequestration:
		return Assignment{Bucket: Sequestration}
	case codes.ClassQMB:
		return Assignment{Bucket: QMB}
	case codes.ClassHCRA:
		return Assignment{Bucket: HCRA}
	case codes.ClassNonCovered:
		return Assignment{Bucket: PRNonCovered}
	case codes.ClassCOB:
		return Assignment{Bucket: COB}
	}
	return Assignment{Bucket: OtherAdjustments}
}
