package categorize

import "github.com/oarkflow/remit/pkg/model"

// Buckets accumulates categorized adjustment totals for one claim or
// service line.
type Buckets struct {
	Contractual      model.Amount
	Copay            model.Amount
	Coinsurance      model.Amount
	Deductible       model.Amount
	Denied           model.Amount
	OtherAdjustments model.Amount
	Sequestration    model.Amount
	COB              model.Amount
	HCRA             model.Amount
	QMB              model.Amount
	PRNonCovered     model.Amount
	OtherPatientResp model.Amount

	AuditFlags []string
}

// Normalizer rewrites payer-specific reason codes before classification.
type Normalizer interface {
	NormalizeReasonCode(code string) string
}

// Add categorizes one adjustment and folds it into the totals. A non-nil
// normalizer is applied to the reason code first.
func (b *Buckets) Add(group, code string, amount model.Amount, n Normalizer) Assignment {
	if n != nil {
		code = n.NormalizeReasonCode(code)
	}
	a := Categorize(group, code, amount)
	b.apply(a, amount)
	return a
}

func (b *Buckets) apply(a Assignment, amount model.Amount) {
	switch a.Bucket {
	case Contractual:
		b.Contractual += amount
	case Copay:
		b.Copay += amount
	case Coinsurance:
		b.Coinsurance += amount
	case Deductible:
		b.Deductible += amount
	case Denied:
		b.Denied += amount
	case OtherAdjustments:
		b.OtherAdjustments += amount
	case Sequestration:
		b.Sequestration += amount
	case COB:
		b.COB += amount
	case HCRA:
		b.HCRA += amount
	case QMB:
		b.QMB += amount
	case PRNonCovered:
		b.PRNonCovered += amount
	case OtherPatientResp:
		b.OtherPatientResp += amount
	}
	if a.AuditFlag != "" {
		b.AuditFlags = append(b.AuditFlags, a.AuditFlag)
	}
}

// AddGroups folds every entry of the given CAS groups into the totals.
func (b *Buckets) AddGroups(groups []model.CASGroup, n Normalizer) {
	for _, g := range groups {
		for _, e := range g.Entries {
			b.Add(g.Group, e.Code, e.Amount, n)
		}
	}
}

// Total sums every bucket.
func (b *Buckets) Total() model.Amount {
	return b.PayerSide() + b.PatientSide()
}

// PayerSide sums the buckets that reduce the allowed amount.
func (b *Buckets) PayerSide() model.Amount {
	return b.Contractual + b.COB + b.Sequestration + b.HCRA +
		b.OtherAdjustments + b.Denied + b.QMB
}

// PatientSide sums the buckets that sit between allowed and paid.
func (b *Buckets) PatientSide() model.Amount {
	return b.Deductible + b.Coinsurance + b.Copay + b.PRNonCovered +
		b.OtherPatientResp
}

// Allowed derives the allowed amount from the billed charge.
func (b *Buckets) Allowed(charge model.Amount) model.Amount {
	return charge - b.PayerSide()
}

// AllowedVerification derives the allowed amount from the paid side; it
// should agree with Allowed within a cent on balanced lines.
func (b *Buckets) AllowedVerification(paid model.Amount) model.Amount {
	return paid + b.PatientSide()
}
