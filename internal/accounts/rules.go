package accounts

import (
	"fmt"
	"strings"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

// MatchField names the transaction attribute a rule matches on. The set is
// closed: adding a field means adding a constant and extending valueOf.
type MatchField int

const (
	FieldEventType MatchField = iota
	FieldCategory
	FieldEntityType
)

func (f MatchField) String() string {
	switch f {
	case FieldEventType:
		return "event_type"
	case FieldCategory:
		return "category"
	case FieldEntityType:
		return "entity_type"
	}
	return fmt.Sprintf("MatchField(%d)", int(f))
}

// ParseMatchField maps a stored field name to its enum value.
func ParseMatchField(s string) (MatchField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "event_type", "tipo_evento":
		return FieldEventType, nil
	case "category", "categoria":
		return FieldCategory, nil
	case "entity_type", "tipo_entidade":
		return FieldEntityType, nil
	}
	return 0, fmt.Errorf("ParseMatchField: unknown field %q", s)
}

func (f MatchField) valueOf(tx *domain.Transaction) (string, bool) {
	switch f {
	case FieldEventType:
		return tx.EventType, true
	case FieldCategory:
		return tx.Category, true
	case FieldEntityType:
		return tx.EntityType, true
	}
	return "", false
}

// Rule constrains which account codes a class of ledger entries may be
// booked under. A rule applies to a transaction when the attribute named by
// Field equals MatchValue, case-insensitively.
type Rule struct {
	Name            string
	Enabled         bool
	Field           MatchField
	MatchValue      string
	AllowedCodes    []string
	AllowedPrefixes []string
	BlockedCodes    []string
	BlockedPrefixes []string
	Severity        string // "error" or "warning", informational for the caller
	Message         string // optional text used instead of the generated detail
}

// constraint renders the rule's allow and block lists for violation
// messages.
func (r *Rule) constraint() string {
	var parts []string
	if len(r.AllowedCodes) > 0 {
		parts = append(parts, "allowed codes "+strings.Join(r.AllowedCodes, ", "))
	}
	if len(r.AllowedPrefixes) > 0 {
		parts = append(parts, "allowed prefixes "+strings.Join(r.AllowedPrefixes, ", "))
	}
	if len(r.BlockedCodes) > 0 {
		parts = append(parts, "blocked codes "+strings.Join(r.BlockedCodes, ", "))
	}
	if len(r.BlockedPrefixes) > 0 {
		parts = append(parts, "blocked prefixes "+strings.Join(r.BlockedPrefixes, ", "))
	}
	return strings.Join(parts, "; ")
}

func (r *Rule) matches(tx *domain.Transaction) bool {
	if !r.Enabled {
		return false
	}
	v, ok := r.Field.valueOf(tx)
	return ok && v != "" && strings.EqualFold(v, r.MatchValue)
}

func (r *Rule) blocks(code string) bool {
	for _, c := range r.BlockedCodes {
		if code == c {
			return true
		}
	}
	for _, p := range r.BlockedPrefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

func (r *Rule) hasAllowList() bool {
	return len(r.AllowedCodes) > 0 || len(r.AllowedPrefixes) > 0
}

func (r *Rule) allows(code string) bool {
	for _, c := range r.AllowedCodes {
		if code == c {
			return true
		}
	}
	for _, p := range r.AllowedPrefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// DefaultRules is the seed rule set. Client entries belong on 1.1/1.2
// accounts, supplier entries on 2.1/2.2, tax entries on 2.112. Two broader
// event-type rules pin payables to expense or liability accounts and
// receivables to revenue or asset accounts.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:            "Clientes - Contas 1.1 e 1.2",
			Enabled:         true,
			Field:           FieldEntityType,
			MatchValue:      "CLIENTE",
			AllowedPrefixes: []string{"1.1", "1.2"},
			Severity:        "error",
			Message:         "Lançamentos de CLIENTE devem usar contas que começam com 1.1 ou 1.2",
		},
		{
			Name:            "Fornecedores - Contas 2.1 e 2.2",
			Enabled:         true,
			Field:           FieldEntityType,
			MatchValue:      "FORNECEDOR",
			AllowedPrefixes: []string{"2.1", "2.2"},
			Severity:        "error",
			Message:         "Lançamentos de FORNECEDOR devem usar contas que começam com 2.1 ou 2.2",
		},
		{
			Name:            "Impostos - Conta 2.112",
			Enabled:         true,
			Field:           FieldCategory,
			MatchValue:      "IMPOSTO",
			AllowedPrefixes: []string{"2.112"},
			Severity:        "error",
			Message:         "Lançamentos de IMPOSTO devem usar contas que começam com 2.112",
		},
		{
			Name:            "contas a pagar em despesa ou passivo",
			Enabled:         true,
			Field:           FieldEventType,
			MatchValue:      "PAGAR",
			AllowedPrefixes: []string{"2", "4"},
			BlockedPrefixes: []string{"3"},
			Severity:        "error",
			Message:         "contas a pagar devem ser lançadas em contas de despesa ou passivo",
		},
		{
			Name:            "contas a receber em receita ou ativo",
			Enabled:         true,
			Field:           FieldEventType,
			MatchValue:      "RECEBER",
			AllowedPrefixes: []string{"1", "3"},
			Severity:        "error",
			Message:         "contas a receber devem ser lançadas em contas de receita ou ativo",
		},
	}
}
