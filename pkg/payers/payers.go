package payers

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oarkflow/remit/pkg/codes"
)

// Profile describes payer-specific handling. Zero-value fields fall back to
// the generic behavior.
type Profile struct {
	Key                 string            `yaml:"key"`
	TRN03               []string          `yaml:"trn03"`
	ISA06               []string          `yaml:"isa06"`
	PayerNames          []string          `yaml:"payer_names"`
	NormalizeCARCCodes  bool              `yaml:"normalize_carc_codes"`
	AllowGenericPayerID bool              `yaml:"allow_generic_payer_id"`
	RefOverrides        map[string]string `yaml:"ref_qualifier_overrides"`
	PriorityRARCs       []string          `yaml:"priority_rarcs"`
	BalanceToleranceCents int64           `yaml:"balance_tolerance_cents"`
	MileageUnitRates    map[string]float64 `yaml:"mileage_unit_rates"`
}

// Tolerance returns the payer's balancing tolerance in cents, defaulting to
// one cent.
func (p *Profile) Tolerance() int64 {
	if p == nil || p.BalanceToleranceCents <= 0 {
		return 1
	}
	return p.BalanceToleranceCents
}

// NormalizeReasonCode strips leading zeros from a CARC, but only when the
// stripped form is a recognized classification. Codes the payer pads that do
// not map anywhere stay untouched.
func (p *Profile) NormalizeReasonCode(code string) string {
	if p == nil || !p.NormalizeCARCCodes {
		return code
	}
	stripped := strings.TrimLeft(code, "0")
	if stripped == "" || stripped == code {
		return code
	}
	if codes.IsClassified(stripped) {
		return stripped
	}
	return code
}

// IsPriorityRARC reports whether the payer highlights this remark code.
func (p *Profile) IsPriorityRARC(code string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.PriorityRARCs {
		if c == code {
			return true
		}
	}
	return false
}

// RefDescription returns the payer's label for a REF qualifier, or "".
func (p *Profile) RefDescription(qualifier string) string {
	if p == nil {
		return ""
	}
	return p.RefOverrides[qualifier]
}

// Registry holds known payer profiles and identifies the payer of a
// transaction.
type Registry struct {
	profiles []*Profile
}

// NewRegistry returns a registry seeded with the built-in profiles.
func NewRegistry() *Registry {
	return &Registry{profiles: builtins()}
}

func builtins() []*Profile {
	return []*Profile{
		{
			Key:                 "MEDI_CAL",
			TRN03:               []string{"1999999999"},
			PayerNames:          []string{"MEDI CAL FISCAL INTERMEDIARY"},
			NormalizeCARCCodes:  true,
			AllowGenericPayerID: true,
			RefOverrides:        map[string]string{"2U": "Medi-Cal Payer Identification"},
			PriorityRARCs:       []string{"N908", "N909", "N910", "N911", "N912", "N913"},
		},
		{
			Key:           "EMEDNY",
			ISA06:         []string{"EMEDNYBAT"},
			PayerNames:    []string{"NYSDOH", "NY STATE DEPT OF HEALTH"},
			RefOverrides:  map[string]string{"9A": "eMedNY Rate Code"},
			PriorityRARCs: []string{"N426", "N427", "N428", "N429", "N892"},
		},
	}
}

// Identify resolves a payer profile by, in priority order, the TRN03 payer
// identifier, the ISA06 sender ID, then the exact payer name. Returns nil
// when no profile matches.
func (r *Registry) Identify(trn03, isa06, payerName string) *Profile {
	trn03 = strings.TrimSpace(trn03)
	isa06 = strings.TrimSpace(isa06)
	name := strings.ToUpper(strings.TrimSpace(payerName))
	for _, p := range r.profiles {
		for _, v := range p.TRN03 {
			if trn03 != "" && trn03 == v {
				return p
			}
		}
	}
	for _, p := range r.profiles {
		for _, v := range p.ISA06 {
			if isa06 != "" && isa06 == v {
				return p
			}
		}
	}
	for _, p := range r.profiles {
		for _, v := range p.PayerNames {
			if name != "" && name == strings.ToUpper(v) {
				return p
			}
		}
	}
	return nil
}

// Lookup returns the profile with the given key.
func (r *Registry) Lookup(key string) *Profile {
	for _, p := range r.profiles {
		if p.Key == key {
			return p
		}
	}
	return nil
}

// Profiles returns every registered profile.
func (r *Registry) Profiles() []*Profile {
	return r.profiles
}

type overlayFile struct {
	Payers []*Profile `yaml:"payers"`
}

// LoadOverlay merges profiles from a YAML file into the registry. Profiles
// whose key matches a built-in replace it; new keys are appended.
func (r *Registry) LoadOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read payer overlay: %w", err)
	}
	var of overlayFile
	if err := yaml.Unmarshal(data, &of); err != nil {
		return fmt.Errorf("parse payer overlay: %w", err)
	}
	for _, p := range of.Payers {
		if p.Key == "" {
			return fmt.Errorf("payer overlay entry missing key")
		}
		replaced := false
		for i, existing := range r.profiles {
			if existing.Key == p.Key {
				r.profiles[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			r.profiles = append(r.profiles, p)
		}
	}
	return nil
}
