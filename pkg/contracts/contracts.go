package contracts

import (
	"context"
	"time"

	"github.com/oarkflow/remit/pkg/payers"
)

// Describer resolves human descriptions for CARC/RARC and procedure codes.
type Describer interface {
	Describe(code string) (string, bool)
	DescribeProcedure(code string) (string, bool)
}

// Normalizer rewrites payer-specific reason codes into standard form.
type Normalizer interface {
	NormalizeReasonCode(code string) string
}

// PayerIdentifier resolves the payer profile for a transaction.
type PayerIdentifier interface {
	Identify(trn03, isa06, payerName string) *payers.Profile
}

// Rate is a benchmark reimbursement rate for a procedure at a location.
type Rate struct {
	InNetwork    float64
	OutOfNetwork float64
	Effective    time.Time
}

// RateLookup resolves benchmark rates by zip, procedure code and service
// date.
type RateLookup interface {
	LookupRate(ctx context.Context, zip, code string, date time.Time) (Rate, bool, error)
}

// TripLookup resolves trip manifest metadata by claim number.
type TripLookup interface {
	LookupTrip(ctx context.Context, claimNumber string) (map[string]string, bool, error)
}

// Appender persists rendered rows to an output sink.
type Appender[T any] interface {
	Append(record T) error
	AppendBatch(records []T) error
	Close() error
}
