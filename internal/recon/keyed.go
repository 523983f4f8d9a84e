package recon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
	"github.com/SwayBrasil/rpa-dominio/internal/parser"
)

// Description-keyed mismatches need a gap this large before they are worth
// reporting; smaller gaps are more often two unrelated entries that happen
// to share a description.
var descMismatchFloor = decimal.NewFromInt(1)

// MatchByKey reconciles the bank statement against the ledger when the two
// sides are expected to correspond one to one. Passes, in order: value
// mismatches keyed by (date, document) then (date, description); exact
// matches keyed by (date, amount) with a same-date tolerance fallback;
// missing-entry residues; running-balance endpoints; and a classification
// sweep over ledger fee entries with weak account codes.
func MatchByKey(bank, ledger []domain.Transaction, opts Options) Result {
	opts = opts.withDefaults()

	bankUsed := make([]bool, len(bank))
	ledgerUsed := make([]bool, len(ledger))
	var res Result

	docIdx := make(map[string][]int)
	descIdx := make(map[string][]int)
	for j, lt := range ledger {
		if lt.Document != "" {
			k := lt.Date.String() + "|" + strings.ToUpper(lt.Document)
			docIdx[k] = append(docIdx[k], j)
		}
		if nd := parser.NormalizeDescription(lt.Description); nd != "" {
			k := lt.Date.String() + "|" + nd
			descIdx[k] = append(descIdx[k], j)
		}
	}

	// Pass 1: same key, different amount.
	for i := range bank {
		bt := &bank[i]
		if bt.Document != "" {
			for _, j := range docIdx[bt.Date.String()+"|"+strings.ToUpper(bt.Document)] {
				if ledgerUsed[j] {
					continue
				}
				// Candidates within tolerance are left for pass 2; the scan
				// moves on to the next one under the same key.
				diff := amountDiff(bt.Amount, ledger[j].Amount)
				if diff.GreaterThan(opts.Tolerance) {
					res.Divergences = append(res.Divergences, domain.NewDivergence(
						domain.ValueMismatch,
						fmt.Sprintf("document %s on %s: statement R$ %s vs ledger R$ %s",
							bt.Document, bt.Date, bt.Amount.StringFixed(2), ledger[j].Amount.StringFixed(2)),
						bt, &ledger[j]))
					bankUsed[i], ledgerUsed[j] = true, true
					break
				}
			}
		}
		if bankUsed[i] {
			continue
		}
		nd := parser.NormalizeDescription(bt.Description)
		if nd == "" {
			continue
		}
		for _, j := range descIdx[bt.Date.String()+"|"+nd] {
			if ledgerUsed[j] {
				continue
			}
			diff := amountDiff(bt.Amount, ledger[j].Amount)
			if diff.GreaterThan(opts.Tolerance) && diff.GreaterThan(descMismatchFloor) {
				res.Divergences = append(res.Divergences, domain.NewDivergence(
					domain.ValueMismatch,
					fmt.Sprintf("same description on %s: statement R$ %s vs ledger R$ %s",
						bt.Date, bt.Amount.StringFixed(2), ledger[j].Amount.StringFixed(2)),
					bt, &ledger[j]))
				bankUsed[i], ledgerUsed[j] = true, true
				break
			}
		}
	}

	// Pass 2: exact (date, amount) matches, then a same-date scan within
	// tolerance for entries whose amounts were rounded differently.
	exactIdx := make(map[string][]int)
	for j := range ledger {
		if ledgerUsed[j] {
			continue
		}
		k := ledger[j].Date.String() + "|" + ledger[j].Amount.Round(2).String()
		exactIdx[k] = append(exactIdx[k], j)
	}
	for i := range bank {
		if bankUsed[i] {
			continue
		}
		bt := &bank[i]
		found := false
		for _, j := range exactIdx[bt.Date.String()+"|"+bt.Amount.Round(2).String()] {
			if ledgerUsed[j] {
				continue
			}
			bankUsed[i], ledgerUsed[j] = true, true
			res.Matched++
			found = true
			break
		}
		if found {
			continue
		}
		for j := range ledger {
			if ledgerUsed[j] || ledger[j].Date != bt.Date {
				continue
			}
			if amountDiff(bt.Amount, ledger[j].Amount).LessThanOrEqual(opts.Tolerance) {
				bankUsed[i], ledgerUsed[j] = true, true
				res.Matched++
				break
			}
		}
	}

	// Pass 3: residues.
	for i := range bank {
		if bankUsed[i] {
			continue
		}
		res.BankResidue = append(res.BankResidue, bank[i])
		res.Divergences = append(res.Divergences, domain.NewDivergence(
			domain.MissingOnLedger,
			fmt.Sprintf("statement entry %s has no ledger counterpart", bank[i].Summary()),
			&bank[i], nil))
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

	// Pass 4: running-balance endpoints.
	if d := compareBalances(bank, ledger, opts.Tolerance); d != nil {
		res.Divergences = append(res.Divergences, *d)
	}

	// Pass 5: fee entries booked under absent or too-generic account codes.
	for j := range ledger {
		lt := &ledger[j]
		if !hasFeeKeyword(parser.NormalizeDescription(lt.Description)) {
			continue
		}
		if lt.AccountCode == "" || isGenericAccountCode(lt.AccountCode) {
			res.Divergences = append(res.Divergences, domain.NewDivergence(
				domain.SuspiciousClassification,
				fmt.Sprintf("fee entry %s booked without a specific account code", lt.Summary()),
				nil, lt))
		}
	}

	return res
}

func compareBalances(bank, ledger []domain.Transaction, tol decimal.Decimal) *domain.Divergence {
	bankFirst, bankLast := balanceEndpoints(bank)
	ledgerFirst, ledgerLast := balanceEndpoints(ledger)
	if bankFirst == nil || ledgerFirst == nil {
		return nil
	}

	var parts []string
	if amountDiff(*bankFirst, *ledgerFirst).GreaterThan(tol) {
		parts = append(parts, fmt.Sprintf("opening R$ %s vs R$ %s",
			bankFirst.StringFixed(2), ledgerFirst.StringFixed(2)))
	}
	if amountDiff(*bankLast, *ledgerLast).GreaterThan(tol) {
		parts = append(parts, fmt.Sprintf("closing R$ %s vs R$ %s",
			bankLast.StringFixed(2), ledgerLast.StringFixed(2)))
	}
	if len(parts) == 0 {
		return nil
	}
	d := domain.NewDivergence(domain.BalanceMismatch,
		"running balances disagree: "+strings.Join(parts, "; "), nil, nil)
	return &d
}

// balanceEndpoints returns the first and last non-null running balances of
// the slice, or nils when none are present.
func balanceEndpoints(txs []domain.Transaction) (first, last *decimal.Decimal) {
	for i := range txs {
		if txs[i].Balance == nil {
			continue
		}
		if first == nil {
			first = txs[i].Balance
		}
		last = txs[i].Balance
	}
	return first, last
}
