package model

// Interchange is the fully decoded form of one 835 file. The tree is built
// once and never mutated afterwards; rendering reads from it only.
type Interchange struct {
	File                string
	ElementSeparator    string
	ComponentSeparator  string
	RepetitionSeparator string
	SegmentTerminator   string

	ISA    ISAEnvelope
	IEA    IEAInfo
	Groups []*FunctionalGroup

	// Notes records recoverable decode problems (malformed amounts,
	// truncated segments) for the validator to surface.
	Notes []Note
}

// Note is a recoverable problem observed while decoding.
type Note struct {
	Location string
	Message  string
}

// ISAEnvelope carries the interchange header fields.
type ISAEnvelope struct {
	AuthQualifier     string
	AuthInfo          string
	SecurityQualifier string
	SecurityInfo      string
	SenderQualifier   string
	SenderID          string
	ReceiverQualifier string
	ReceiverID        string
	Date              string
	Time              string
	Repetition        string
	Version           string
	ControlNumber     string
	AckRequested      string
	Usage             string
	ComponentSep      string
}

// IEAInfo carries the interchange trailer fields.
type IEAInfo struct {
	GroupCount    string
	ControlNumber string
	Present       bool
}

// FunctionalGroup is one GS/GE group.
type FunctionalGroup struct {
	GS           GSEnvelope
	GE           GEInfo
	Transactions []*Transaction
}

// GSEnvelope carries the functional group header fields.
type GSEnvelope struct {
	FunctionalCode string
	SenderCode     string
	ReceiverCode   string
	Date           string
	Time           string
	ControlNumber  string
	Agency         string
	Version        string
}

// GEInfo carries the functional group trailer fields.
type GEInfo struct {
	TransactionCount string
	ControlNumber    string
	Present          bool
}

// Transaction is one ST/SE transaction set.
type Transaction struct {
	ControlNumber  string
	BPR            BPRInfo
	TRN            TRNInfo
	ReceiverID     string // REF EV
	VersionID      string // REF F2
	ProductionDate string // DTM 405

	Payer PartyInfo
	Payee PartyInfo
	RDM   RDMInfo

	Claims []*Claim
	PLBs   []PLBAdjustment

	SE           SEInfo
	SegmentCount int // actual segments from ST through SE inclusive
}

// BPRInfo is the financial information segment.
type BPRInfo struct {
	Handling        string
	Amount          Amount
	AmountRaw       string
	AmountOK        bool
	CreditDebitFlag string
	Method          string
	Format          string
	Date            string // BPR16 check issue / EFT date
}

// TRNInfo is the reassociation trace number segment.
type TRNInfo struct {
	TraceType    string
	CheckNumber  string
	PayerID      string
	Supplemental string
}

// RDMInfo is the remittance delivery method segment.
type RDMInfo struct {
	TransmissionCode string
	Name             string
	Address          string
}

// Contact is one PER entry flattened to the communication numbers the 835
// actually carries.
type Contact struct {
	Function string
	Name     string
	Phone    string
	Email    string
	Fax      string
}

// Ref is a REF qualifier/value pair.
type Ref struct {
	Qualifier string
	Value     string
}

// PartyInfo is an N1 loop (payer or payee) with its address, contacts and
// references.
type PartyInfo struct {
	EntityCode  string
	Name        string
	IDQualifier string
	ID          string
	Address     Address
	Contacts    []Contact
	Refs        []Ref
}

// Address is the N3/N4 pair.
type Address struct {
	Line1 string
	Line2 string
	City  string
	State string
	Zip   string
}

// SEInfo is the transaction trailer.
type SEInfo struct {
	SegmentCount  string
	ControlNumber string
	Present       bool
}

// PLBAdjustment is one provider-level adjustment segment. Composite
// reason:reference identifiers sit at elements 3,5,..,13 with the paired
// amounts at 4,6,..,14.
type PLBAdjustment struct {
	ProviderID   string
	FiscalPeriod string
	Entries      []PLBEntry
}

// PLBEntry is one reason/amount pair from a PLB segment.
type PLBEntry struct {
	Reason    string
	Reference string
	Amount    Amount
	AmountRaw string
	// Acknowledged marks WO/72 pairs that net to zero within a cent; they
	// are excluded from the provider adjustment total.
	Acknowledged bool
}

// Claim is one CLP loop.
type Claim struct {
	Number            string
	Status            string
	Charge            Amount
	ChargeRaw         string
	Paid              Amount
	PaidRaw           string
	PatientResp       Amount
	PatientRespRaw    string
	FilingIndicator   string
	PayerControlNum   string
	FacilityTypeCode  string
	FrequencyCode     string
	DRGCode           string
	DRGWeight         string
	DischargeFraction string

	Adjustments []CASGroup
	MOA         *MOAInfo
	MIA         *MIAInfo

	Patient        NameInfo
	Insured        NameInfo
	Rendering      NameInfo
	TransferTo     NameInfo
	CorrectedPayer NameInfo
	Pickup         NameInfo
	Dropoff        NameInfo

	Dates      []DatedValue
	Refs       []Ref
	Amounts    []QualifiedAmount
	Quantities []QualifiedValue
	Remarks    []RemarkCode

	Services []*Service

	// Occurrence is the 1-based ordinal of this claim number within the
	// file, assigned at build time and stable thereafter.
	Occurrence int
	// Synthetic marks the placeholder claim emitted for a transaction
	// that carried no CLP segments.
	Synthetic bool
}

// MOAInfo is the outpatient adjudication segment.
type MOAInfo struct {
	ReimbursementRate string
	HCPCSAmount       string
	RemarkCodes       []string
	ESRDAmount        string
	NonPayableAmount  string
}

// MIAInfo is the inpatient adjudication segment.
type MIAInfo struct {
	CoveredDays       string
	PPSOperatingDSH   string
	LifetimeReserve   string
	DRGAmount         string
	RemarkCodes       []string
	DisproportionateA string
	CapitalAmount     string
}

// CASGroup is one CAS segment: a group code with up to six
// code/amount/quantity trios.
type CASGroup struct {
	Group   string
	Entries []CASEntry
}

// CASEntry is a single reason code, amount and optional quantity.
type CASEntry struct {
	Code      string
	Amount    Amount
	AmountRaw string
	Quantity  string
}

// CompositeProcedure is a decoded SVC01/SVC06 composite.
type CompositeProcedure struct {
	Qualifier string
	Code      string
	Modifiers []string
	Raw       string
}

// Service is one SVC loop.
type Service struct {
	Procedure   CompositeProcedure
	Charge      Amount
	ChargeRaw   string
	Paid        Amount
	PaidRaw     string
	RevenueCode string
	Units       string
	Original    CompositeProcedure

	Adjustments []CASGroup
	Dates       []DatedValue
	Refs        []Ref
	Amounts     []QualifiedAmount
	Quantities  []QualifiedValue
	Remarks     []RemarkCode
	Rendering   NameInfo
}

// NameInfo is an NM1 entry with any trailing N3/N4 address.
type NameInfo struct {
	EntityCode  string
	Type        string
	LastOrOrg   string
	First       string
	Middle      string
	IDQualifier string
	ID          string
	Address     Address
	Present     bool
}

// DatedValue is a DTM qualifier/date pair.
type DatedValue struct {
	Qualifier string
	Date      string
}

// QualifiedAmount is an AMT qualifier/amount pair.
type QualifiedAmount struct {
	Qualifier string
	Amount    Amount
	Raw       string
}

// QualifiedValue is a QTY qualifier/value pair.
type QualifiedValue struct {
	Qualifier string
	Value     string
}

// RemarkCode is an LQ qualifier/code pair.
type RemarkCode struct {
	Qualifier string
	Code      string
}

// Date returns the first date carried under the given DTM qualifier.
func (c *Claim) Date(qualifier string) string {
	for _, d := range c.Dates {
		if d.Qualifier == qualifier {
			return d.Date
		}
	}
	return ""
}

// Date returns the first date carried under the given DTM qualifier.
func (s *Service) Date(qualifier string) string {
	for _, d := range s.Dates {
		if d.Qualifier == qualifier {
			return d.Date
		}
	}
	return ""
}

// Amount returns the first AMT value under the given qualifier.
func (s *Service) AmountFor(qualifier string) (Amount, bool) {
	for _, a := range s.Amounts {
		if a.Qualifier == qualifier {
			return a.Amount, true
		}
	}
	return 0, false
}

// AmountFor returns the first AMT value under the given qualifier.
func (c *Claim) AmountFor(qualifier string) (Amount, bool) {
	for _, a := range c.Amounts {
		if a.Qualifier == qualifier {
			return a.Amount, true
		}
	}
	return 0, false
}

// RefFor returns the first REF value under the given qualifier.
func (c *Claim) RefFor(qualifier string) string {
	for _, r := range c.Refs {
		if r.Qualifier == qualifier {
			return r.Value
		}
	}
	return ""
}

// RefFor returns the first REF value under the given qualifier.
func (s *Service) RefFor(qualifier string) string {
	for _, r := range s.Refs {
		if r.Qualifier == qualifier {
			return r.Value
		}
	}
	return ""
}

// NetProviderAdjustment sums all non-acknowledged PLB entries for the
// transaction. PLB amounts are sign-reversed against the check amount by the
// caller.
func (t *Transaction) NetProviderAdjustment() Amount {
	var total Amount
	for _, plb := range t.PLBs {
		for _, e := range plb.Entries {
			if e.Acknowledged {
				continue
			}
			total += e.Amount
		}
	}
	return total
}

// TotalPaid sums CLP04 across the transaction's claims.
func (t *Transaction) TotalPaid() Amount {
	var total Amount
	for _, c := range t.Claims {
		total += c.Paid
	}
	return total
}
