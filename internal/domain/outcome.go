package domain

import "fmt"

// VerdictKind result of a single guard check.
type VerdictKind int

const (
	VerdictProceed VerdictKind = iota
	VerdictSkip
	VerdictFail
)

// SkipReason informational reason for not placing an order.
type SkipReason string

const (
	SkipAlreadyPurchased SkipReason = "already purchased"
	SkipPriceTooHigh     SkipReason = "price too high"
)

// Verdict is the tagged result of a guard: proceed, skip with a reason or fail with an error.
type Verdict struct {
	Kind   VerdictKind
	Reason SkipReason
	Err    error
}

// Proceed lets the cycle continue.
func Proceed() Verdict {
	return Verdict{Kind: VerdictProceed}
}

// Skip stops the cycle without an error.
func Skip(reason SkipReason) Verdict {
	return Verdict{Kind: VerdictSkip, Reason: reason}
}

// Fail stops the cycle with err.
func Fail(err error) Verdict {
	return Verdict{Kind: VerdictFail, Err: err}
}

// Proceeds reports whether the cycle may continue.
func (v Verdict) Proceeds() bool {
	return v.Kind == VerdictProceed
}

// OutcomeKind final state of a pair evaluation cycle.
type OutcomeKind int

const (
	OutcomePlaced OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomePlaced:
		return "placed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome of one pair evaluation cycle.
type Outcome struct {
	Pair   string
	Kind   OutcomeKind
	Reason SkipReason
	Err    error
	// Order is set when an order was submitted, even if persisting it failed.
	Order *Order
}

// Placed outcome for a submitted and persisted order.
func Placed(pair string, order *Order) Outcome {
	return Outcome{Pair: pair, Kind: OutcomePlaced, Order: order}
}

// Skipped outcome for an informational skip.
func Skipped(pair string, reason SkipReason) Outcome {
	return Outcome{Pair: pair, Kind: OutcomeSkipped, Reason: reason}
}

// Failed outcome for a cycle aborted by err.
func Failed(pair string, err error) Outcome {
	return Outcome{Pair: pair, Kind: OutcomeFailed, Err: err}
}

// FromVerdict converts a non-proceeding verdict into an outcome.
func FromVerdict(pair string, v Verdict) Outcome {
	switch v.Kind {
	case VerdictSkip:
		return Skipped(pair, v.Reason)
	case VerdictFail:
		return Failed(pair, v.Err)
	default:
		return Failed(pair, fmt.Errorf("verdict for %s did not stop the cycle", pair))
	}
}

// String returns a human-readable string representation.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSkipped:
		return fmt.Sprintf("%s: %s (%s)", o.Pair, o.Kind, o.Reason)
	case OutcomeFailed:
		return fmt.Sprintf("%s: %s (%v)", o.Pair, o.Kind, o.Err)
	default:
		if o.Order != nil {
			return fmt.Sprintf("%s: %s txid %s", o.Pair, o.Kind, o.Order.TxID)
		}
		return fmt.Sprintf("%s: %s", o.Pair, o.Kind)
	}
}
