// Package accounts checks ledger entries against a chart of accounts and a
// set of booking rules. It shares the canonical transaction type with the
// reconciliation engines but runs independently of them.
package accounts

import (
	"fmt"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusInvalid Status = "invalid"
	StatusUnknown Status = "unknown"
)

type Reason string

const (
	ReasonValid           Reason = "VALID"
	ReasonMissingCode     Reason = "MISSING_ACCOUNT_CODE"
	ReasonAccountNotFound Reason = "ACCOUNT_NOT_FOUND"
	ReasonRuleViolation   Reason = "RULE_VIOLATION"
	ReasonNoRuleMatch     Reason = "NO_RULE_MATCH"
)

type Result struct {
	Transaction domain.Transaction
	Status      Status
	Reason      Reason
	Detail      string
	// Expected snapshots the violated rule's constraint; empty unless the
	// reason is RULE_VIOLATION.
	Expected string
	// MatchedRule names the rule behind a violation, "" otherwise.
	MatchedRule string
}

type Summary struct {
	Total   int
	OK      int
	Invalid int
	Unknown int
}

// Validate classifies every ledger entry. Precedence per entry: a missing
// account code, then an unknown or inactive chart account, then rule checks.
// Across the matched rules a single block hit invalidates the entry even
// when another rule allows the same code.
func Validate(txs []domain.Transaction, chart *domain.Chart, rules []Rule) ([]Result, Summary) {
	results := make([]Result, 0, len(txs))
	var sum Summary
	for i := range txs {
		r := validateOne(&txs[i], chart, rules)
		results = append(results, r)
		sum.Total++
		switch r.Status {
		case StatusOK:
			sum.OK++
		case StatusInvalid:
			sum.Invalid++
		default:
			sum.Unknown++
		}
	}
	return results, sum
}

func validateOne(tx *domain.Transaction, chart *domain.Chart, rules []Rule) Result {
	if tx.AccountCode == "" {
		return Result{
			Transaction: *tx,
			Status:      StatusUnknown,
			Reason:      ReasonMissingCode,
			Detail:      "entry carries no account code",
		}
	}

	if _, ok := lookupAccount(chart, tx); !ok {
		return Result{
			Transaction: *tx,
			Status:      StatusInvalid,
			Reason:      ReasonAccountNotFound,
			Detail:      fmt.Sprintf("account %s is not an active entry in the chart of accounts", tx.AccountCode),
		}
	}

	var matched []*Rule
	for i := range rules {
		if rules[i].matches(tx) {
			matched = append(matched, &rules[i])
		}
	}
	if len(matched) == 0 {
		return Result{
			Transaction: *tx,
			Status:      StatusUnknown,
			Reason:      ReasonNoRuleMatch,
			Detail:      "no enabled rule matches this entry",
		}
	}

	for _, r := range matched {
		if r.blocks(tx.AccountCode) {
			return Result{
				Transaction: *tx,
				Status:      StatusInvalid,
				Reason:      ReasonRuleViolation,
				Detail:      violationDetail(r, fmt.Sprintf("account %s is blocked by rule %q", tx.AccountCode, r.Name)),
				Expected:    r.constraint(),
				MatchedRule: r.Name,
			}
		}
	}

	restricted := false
	for _, r := range matched {
		if !r.hasAllowList() {
			continue
		}
		restricted = true
		if r.allows(tx.AccountCode) {
			return Result{Transaction: *tx, Status: StatusOK, Reason: ReasonValid}
		}
	}
	if restricted {
		first := firstRestricting(matched)
		return Result{
			Transaction: *tx,
			Status:      StatusInvalid,
			Reason:      ReasonRuleViolation,
			Detail:      violationDetail(first, fmt.Sprintf("account %s is outside every allow list of the matched rules", tx.AccountCode)),
			Expected:    first.constraint(),
			MatchedRule: first.Name,
		}
	}
	return Result{Transaction: *tx, Status: StatusOK, Reason: ReasonValid}
}

func violationDetail(r *Rule, generated string) string {
	if r.Message != "" {
		return r.Message
	}
	return generated
}

func firstRestricting(matched []*Rule) *Rule {
	for _, r := range matched {
		if r.hasAllowList() {
			return r
		}
	}
	return matched[0]
}

// lookupAccount resolves the chart entry for a transaction, first under the
// entry's origin as source, then under the sourceless form some charts use.
func lookupAccount(chart *domain.Chart, tx *domain.Transaction) (domain.Account, bool) {
	if acc, ok := chart.Lookup(tx.AccountCode, string(tx.Origin)); ok {
		return acc, true
	}
	return chart.Lookup(tx.AccountCode, "")
}
