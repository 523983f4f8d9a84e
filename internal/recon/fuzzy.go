package recon

import (
	"fmt"
	"strings"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

// Score tiers of the fuzzy matcher. A candidate either contributes a tier
// bonus or, for amount and date, rejects the pair outright.
const (
	scoreAmountExact  = 0.5
	scoreAmountNear   = 0.3
	scoreAmountFar    = 0.1
	scoreSameDay      = 0.3
	scoreWindowBase   = 0.2
	scoreWindowDecay  = 0.05
	scoreDescWeight   = 0.2
	scoreDocBonus     = 0.1
	acceptThreshold   = 0.6
	amountNearCeiling = 1.0
	amountFarCeiling  = 10.0
)

// MatchFuzzy reconciles without relying on shared keys. Every unconsumed
// bank entry is scored against every unconsumed ledger entry; the best
// candidate at or above the acceptance threshold is taken. Iteration is in
// source-index order and ties keep the first candidate found, so the
// assignment is greedy and deterministic, not globally optimal.
func MatchFuzzy(bank, ledger []domain.Transaction, opts Options) Result {
	opts = opts.withDefaults()

	ledgerUsed := make([]bool, len(ledger))
	var res Result

	for i := range bank {
		bt := &bank[i]
		best, bestScore := -1, 0.0
		for j := range ledger {
			if ledgerUsed[j] {
				continue
			}
			score, ok := scorePair(bt, &ledger[j], opts)
			if ok && score > bestScore {
				best, bestScore = j, score
			}
		}
		if best < 0 || bestScore < acceptThreshold {
			res.BankResidue = append(res.BankResidue, *bt)
			res.Divergences = append(res.Divergences, domain.NewDivergence(
				domain.MissingOnLedger,
				fmt.Sprintf("statement entry %s has no ledger counterpart", bt.Summary()),
				bt, nil))
			continue
		}

		ledgerUsed[best] = true
		res.Matched++
		if amountDiff(bt.Amount, ledger[best].Amount).GreaterThan(opts.Tolerance) {
			res.Divergences = append(res.Divergences, domain.NewDivergence(
				domain.ValueMismatch,
				fmt.Sprintf("matched pair on %s: statement R$ %s vs ledger R$ %s",
					bt.Date, bt.Amount.StringFixed(2), ledger[best].Amount.StringFixed(2)),
				bt, &ledger[best]))
		}
	}

	for j := range ledger {
		if ledgerUsed[j] {
			continue
		}
		res.LedgerResidue = append(res.LedgerResidue, ledger[j])
		res.Divergences = append(res.Divergences, domain.NewDivergence(
			domain.MissingOnStatement,
			fmt.Sprintf("ledger entry %s has no statement counterpart", ledger[j].Summary()),
			nil, &ledger[j]))
	}
	return res
}

// scorePair computes the weighted score of one bank/ledger pairing. ok is
// false when the amounts or dates are too far apart for the pair to be a
// candidate at all.
func scorePair(bt, lt *domain.Transaction, opts Options) (score float64, ok bool) {
	diff := amountDiff(bt.Amount, lt.Amount)
	switch {
	case diff.LessThanOrEqual(opts.Tolerance):
		score += scoreAmountExact
	case diff.InexactFloat64() <= amountNearCeiling:
		score += scoreAmountNear
	case diff.InexactFloat64() <= amountFarCeiling:
		score += scoreAmountFar
	default:
		return 0, false
	}

	days := bt.Date.DaysSince(lt.Date)
	if days < 0 {
		days = -days
	}
	switch {
	case days == 0:
		score += scoreSameDay
	case days <= opts.DayWindow:
		score += scoreWindowBase - scoreWindowDecay*float64(days)
	default:
		return 0, false
	}

	if sim := similarity(bt.Description, lt.Description); sim >= opts.MinSimilarity {
		score += scoreDescWeight * sim
	}

	if bt.Document != "" && strings.EqualFold(bt.Document, lt.Document) {
		score += scoreDocBonus
	}
	return score, true
}
