package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Origin identifies the document family a transaction was parsed from.
type Origin string

const (
	// OriginStatement marks movements extracted from a bank statement
	// (CSV, OFX or PDF).
	OriginStatement Origin = "bank-statement"
	// OriginLedger marks entries extracted from the accounting export.
	OriginLedger Origin = "ledger"
)

// Transaction is the canonical record every parser emits. Amounts are signed:
// negative means outflow/debit, positive means inflow/credit. Once a parser
// returns a Transaction it is never mutated; engines only read it.
type Transaction struct {
	Date        civil.Date
	Description string
	Document    string // optional document number, "" when absent
	Amount      decimal.Decimal
	Balance     *decimal.Decimal // running balance after this movement, or nil
	AccountCode string           // chart-of-accounts code, "" when absent
	Origin      Origin

	// Classification attributes carried only by ledger-origin entries.
	EventType  string
	Category   string
	EntityType string
}

// Summary renders a one-line human description used in divergence and
// validation messages.
func (t Transaction) Summary() string {
	desc := t.Description
	if r := []rune(desc); len(r) > 50 {
		desc = string(r[:50])
	}
	return fmt.Sprintf("%s | %s | R$ %s", t.Date, desc, t.Amount.StringFixed(2))
}
