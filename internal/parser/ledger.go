package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

// Header keywords that mark a line as a column heading, not an entry.
var ledgerHeaderWords = []string{"DATA", "VALOR", "DESCRICAO", "HISTORICO", "CONTA", "LANCAMENTO"}

var ledgerDelimiters = []rune{';', '\t', '|', ','}

// ParseLedgerTXT reads one internal-ledger export. The format is a loose
// delimited text dump: the delimiter, the column order and the presence of
// optional columns all vary between exports, so fields are identified by
// shape rather than by position. The filename carries meaning: exports named
// with PAGAR hold payables and every amount is forced negative, RECEBER
// holds receivables forced positive; any other name keeps the parsed sign.
func ParseLedgerTXT(data []byte, filename string, strict bool) ([]domain.Transaction, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	forceSign := 0
	switch folded := foldColumn(filename); {
	case strings.Contains(folded, "PAGAR"):
		forceSign = -1
	case strings.Contains(folded, "RECEBER"):
		forceSign = 1
	}

	var txs []domain.Transaction
	var issues []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || isLedgerHeader(line) {
			continue
		}

		tx, ok, why := parseLedgerLine(line)
		if !ok {
			if why != "" {
				msg := fmt.Sprintf("%s line %d: %s", filename, lineNo, why)
				if strict {
					return nil, nil, fmt.Errorf("ParseLedgerTXT: %s", msg)
				}
				issues = append(issues, msg)
			}
			continue
		}
		switch forceSign {
		case -1:
			tx.Amount = tx.Amount.Abs().Neg()
		case 1:
			tx.Amount = tx.Amount.Abs()
		}
		txs = append(txs, tx)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("ParseLedgerTXT: read %s: %w", filename, err)
	}
	return txs, issues, nil
}

func isLedgerHeader(line string) bool {
	folded := foldColumn(line)
	hits := 0
	for _, w := range ledgerHeaderWords {
		if strings.Contains(folded, w) {
			hits++
		}
	}
	return hits >= 2
}

// parseLedgerLine identifies the fields of one entry by shape. A line with
// no recognizable date or value is skipped; the reason is returned for the
// issue log when the line plausibly was an entry.
func parseLedgerLine(line string) (domain.Transaction, bool, string) {
	fields := splitLedgerLine(line)
	if len(fields) < 2 {
		return domain.Transaction{}, false, ""
	}

	dateIdx := -1
	var date civil.Date
	head := len(fields)
	if head > 3 {
		head = 3
	}
	for i := 0; i < head; i++ {
		if d, err := ParseDate(fields[i]); err == nil {
			dateIdx, date = i, d
			break
		}
	}
	// Free-text lines carry the date anywhere in the middle, with the
	// description running on both sides of it.
	midLine := false
	if dateIdx < 0 {
		for i := head; i < len(fields); i++ {
			if d, err := ParseDate(fields[i]); err == nil {
				dateIdx, date = i, d
				midLine = true
				break
			}
		}
	}
	if dateIdx < 0 {
		return domain.Transaction{}, false, "no date found"
	}

	valueIdx := -1
	var amount decimal.Decimal
	for i := dateIdx + 1; i < len(fields); i++ {
		if !looksLikeMoney(fields[i]) {
			continue
		}
		if v, err := ParseAmount(fields[i]); err == nil {
			valueIdx, amount = i, v
			break
		}
	}
	if valueIdx < 0 {
		return domain.Transaction{}, false, "no monetary value after the date"
	}
	if amount.IsZero() {
		return domain.Transaction{}, false, ""
	}

	tx := domain.Transaction{
		Date:   date,
		Amount: amount,
		Origin: domain.OriginLedger,
	}

	// Account code: a purely numeric field before the date.
	for i := 0; i < dateIdx; i++ {
		if isDigits(fields[i]) && len(fields[i]) >= 3 {
			tx.AccountCode = fields[i]
			break
		}
	}

	// Description: the longest lettered field before the value column, or,
	// on a free-text line, everything around the date joined back together.
	// Fields after the value are classification tags, not descriptions.
	if midLine {
		var parts []string
		for i := 0; i < valueIdx; i++ {
			if i == dateIdx || fields[i] == tx.AccountCode || !hasLetter(fields[i]) {
				continue
			}
			parts = append(parts, fields[i])
		}
		if len(parts) > 0 {
			tx.Description = CollapseSpaces(strings.Join(parts, " "))
		} else {
			tx.Description = "Sem descrição"
		}
	} else {
		descIdx := -1
		for i := 0; i < valueIdx; i++ {
			if i == dateIdx || fields[i] == tx.AccountCode || !hasLetter(fields[i]) {
				continue
			}
			if descIdx < 0 || len(fields[i]) > len(fields[descIdx]) {
				descIdx = i
			}
		}
		if descIdx >= 0 {
			tx.Description = CollapseSpaces(fields[descIdx])
		} else {
			tx.Description = "Sem descrição"
		}
	}

	// Classification tags trail the value column.
	var tags []string
	for i := valueIdx + 1; i < len(fields); i++ {
		if !hasLetter(fields[i]) || len(fields[i]) > 30 {
			continue
		}
		tags = append(tags, CollapseSpaces(fields[i]))
	}
	if len(tags) > 0 {
		tx.EventType = tags[0]
	}
	if len(tags) > 1 {
		tx.Category = tags[1]
	}
	if len(tags) > 2 {
		tx.EntityType = tags[2]
	}

	return tx, true, ""
}

func splitLedgerLine(line string) []string {
	delim := rune(0)
	best := 0
	for _, d := range ledgerDelimiters {
		n := strings.Count(line, string(d))
		// A single comma is more often the decimal separator of a
		// Brazilian amount than a field delimiter.
		if d == ',' && n < 2 {
			continue
		}
		if n > best {
			delim, best = d, n
		}
	}
	var raw []string
	if delim != 0 {
		raw = strings.Split(line, string(delim))
	} else {
		raw = strings.Fields(line)
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func looksLikeMoney(s string) bool {
	s = strings.TrimSpace(s)
	bare := strings.TrimPrefix(strings.ToUpper(s), "-")
	bare = strings.TrimPrefix(bare, "R$")
	if s == "" || hasLetter(bare) {
		return false
	}
	digits := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = true
			break
		}
	}
	return digits && (strings.ContainsAny(s, ",.")) && !IsDateToken(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127 {
			return true
		}
	}
	return false
}

// UnifyLedgers concatenates the per-file batches into one ledger, dropping
// duplicate entries. Two entries are duplicates when date, amount rounded to
// cents and the first 50 characters of the uppercased description all match;
// the first occurrence wins.
func UnifyLedgers(batches ...[]domain.Transaction) ([]domain.Transaction, []string) {
	seen := make(map[string]struct{})
	var out []domain.Transaction
	removed := 0
	for _, batch := range batches {
		for _, tx := range batch {
			key := dedupeKey(tx)
			if _, dup := seen[key]; dup {
				removed++
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tx)
		}
	}
	var issues []string
	if removed > 0 {
		issues = append(issues, fmt.Sprintf("removed %d duplicate ledger entries across files", removed))
	}
	return out, issues
}

func dedupeKey(tx domain.Transaction) string {
	desc := strings.ToUpper(tx.Description)
	if len(desc) > 50 {
		desc = desc[:50]
	}
	return tx.Date.String() + "|" + tx.Amount.Round(2).String() + "|" + desc
}
