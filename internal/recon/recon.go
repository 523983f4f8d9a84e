// Package recon holds the two reconciliation engines: a key-indexed
// multi-pass comparator for statements that share document numbers or
// descriptions with the ledger, and a weighted fuzzy matcher for free-form
// comparison. Both are pure functions over in-memory transaction slices.
package recon

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
	"github.com/SwayBrasil/rpa-dominio/internal/parser"
)

// Options tune both engines. The zero value is usable: defaults are applied
// on entry.
type Options struct {
	// Tolerance is the absolute amount difference treated as equal.
	Tolerance decimal.Decimal
	// DayWindow bounds the date distance the fuzzy matcher accepts.
	DayWindow int
	// MinSimilarity is the description-similarity floor below which the
	// fuzzy matcher ignores the description entirely.
	MinSimilarity float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance.IsZero() {
		o.Tolerance = decimal.New(1, -2)
	}
	if o.DayWindow == 0 {
		o.DayWindow = 2
	}
	if o.MinSimilarity == 0 {
		o.MinSimilarity = 0.55
	}
	return o
}

// Result is the outcome of one engine run. BankResidue and LedgerResidue are
// the entries neither matched nor paired in a mismatch; they are disjoint
// per side and already reported as MISSING_* divergences.
type Result struct {
	Divergences   []domain.Divergence
	Matched       int
	BankResidue   []domain.Transaction
	LedgerResidue []domain.Transaction
}

// Account codes too generic to mean a real classification.
var genericAccountCodes = map[string]struct{}{
	"1": {}, "9": {}, "0": {}, "00": {}, "000": {},
}

func isGenericAccountCode(code string) bool {
	if len(code) < 3 {
		return true
	}
	_, generic := genericAccountCodes[code]
	return generic
}

// Keywords that mark a bank fee, tax or interest charge in a normalized
// description.
var feeKeywords = []string{
	"tarifa", "taxa", "encargo", "juros", "multa", "iof",
	"cobranca", "manutencao", "anuidade", "servico bancario",
}

func hasFeeKeyword(normalizedDesc string) bool {
	for _, kw := range feeKeywords {
		if strings.Contains(normalizedDesc, kw) {
			return true
		}
	}
	return false
}

func amountDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b).Abs()
}

// similarity is the Levenshtein ratio of the two normalized descriptions,
// in [0, 1].
func similarity(a, b string) float64 {
	na, nb := parser.NormalizeDescription(a), parser.NormalizeDescription(b)
	if na == "" || nb == "" {
		return 0
	}
	return levenshtein.RatioForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
}
