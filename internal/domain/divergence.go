package domain

import "github.com/google/uuid"

// DivergenceKind classifies a reconciliation finding.
type DivergenceKind string

const (
	ValueMismatch            DivergenceKind = "VALUE_MISMATCH"
	MissingOnLedger          DivergenceKind = "MISSING_ON_LEDGER"
	MissingOnStatement       DivergenceKind = "MISSING_ON_STATEMENT"
	BalanceMismatch          DivergenceKind = "BALANCE_MISMATCH"
	SuspiciousClassification DivergenceKind = "SUSPICIOUS_CLASSIFICATION"
)

// Divergence is a single typed finding produced by a reconciliation run.
// Depending on the kind, zero, one or both transaction snapshots are set.
// Divergences are created once per run and never mutated afterwards.
type Divergence struct {
	ID        string
	Kind      DivergenceKind
	Detail    string
	Statement *Transaction // bank-statement side, nil when not applicable
	Ledger    *Transaction // ledger side, nil when not applicable
}

// NewDivergence assigns a fresh identifier and snapshots both sides.
// The snapshots are copies so later slice reordering by the caller cannot
// alias into a divergence.
func NewDivergence(kind DivergenceKind, detail string, statement, ledger *Transaction) Divergence {
	d := Divergence{
		ID:     uuid.NewString(),
		Kind:   kind,
		Detail: detail,
	}
	if statement != nil {
		snap := *statement
		d.Statement = &snap
	}
	if ledger != nil {
		snap := *ledger
		d.Ledger = &snap
	}
	return d
}
