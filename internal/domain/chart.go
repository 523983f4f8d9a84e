package domain

import "strings"

// Account is one entry of the caller-supplied chart of accounts.
type Account struct {
	Code   string
	Name   string
	Source string // e.g. "dominio"
	Active bool
}

type chartKey struct {
	code   string
	source string
}

// Chart is an immutable lookup over a chart of accounts. Existence checks
// are by exact code + source, restricted to active accounts.
type Chart struct {
	byKey map[chartKey]Account
}

// NewChart builds a lookup from the supplied accounts. Inactive accounts are
// indexed but reported as absent by Lookup, matching how the accounting
// system treats deactivated codes.
func NewChart(accounts []Account) *Chart {
	c := &Chart{byKey: make(map[chartKey]Account, len(accounts))}
	for _, a := range accounts {
		k := chartKey{code: strings.TrimSpace(a.Code), source: strings.TrimSpace(a.Source)}
		c.byKey[k] = a
	}
	return c
}

// Lookup returns the active account for code under source, if any.
func (c *Chart) Lookup(code, source string) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	a, ok := c.byKey[chartKey{code: strings.TrimSpace(code), source: strings.TrimSpace(source)}]
	if !ok || !a.Active {
		return Account{}, false
	}
	return a, true
}

// Len reports how many accounts were loaded, active or not.
func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byKey)
}
