package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

// Lines containing any of these fragments are statement furniture, never
// part of an entry. Matched against the uppercased raw line.
var sicoobStopwords = []string{
	"SALDO ANTERIOR",
	"SALDO DO DIA",
	"SALDO EM C.CORRENTE",
	"SALDO BLOQUEADO",
	"EXTRATO CONTA",
	"COOP.:",
	"CONTA:",
	"PERÍODO:",
	"PERIODO:",
	"HISTÓRICO DE MOVIMENTAÇÃO",
	"DATA HISTÓRICO",
	"RESUMO",
	"TOTAL",
	"PÁGINA",
	"COOPERATIVA",
	"AGÊNCIA",
	"OUVIDORIA",
}

// "3.649,87 D" or just "3.649,87" at the end of a line.
var sicoobValueTailRe = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})*,\d{2})\s*([DC])?\s*$`)

type sicoobState int

const (
	sicoobIdle sicoobState = iota
	sicoobAccumulating
)

type sicoobRecord struct {
	date      civil.Date
	descLines []string
	valueTok  string
	dc        string
}

// sicoobMachine walks statement lines one at a time. An entry opens on a
// DD/MM line and accumulates description fragments until the next entry or
// end of input. Value and D/C markers may arrive on the opening line, on
// their own lines below it, or on the line just before the next entry
// (pending lookahead).
type sicoobMachine struct {
	state    sicoobState
	cur      sicoobRecord
	pending  sicoobRecord // only valueTok and dc are used
	yearHint int
	prevRaw  string

	txs    []domain.Transaction
	issues []string
}

func parseSicoobLines(lines []string, yearHint int) ([]domain.Transaction, []string) {
	m := &sicoobMachine{yearHint: yearHint}
	for i, ln := range lines {
		next := ""
		if i+1 < len(lines) {
			next = strings.TrimSpace(lines[i+1])
		}
		m.step(strings.TrimSpace(ln), next)
	}
	m.finalize()
	return m.txs, m.issues
}

func (m *sicoobMachine) step(line, next string) {
	defer func() { m.prevRaw = line }()

	if line == "" {
		return
	}
	if isSicoobStopword(line) {
		return
	}
	if isSicoobRecordStart(line) {
		m.finalize()
		m.openRecord(line)
		return
	}

	switch m.state {
	case sicoobAccumulating:
		m.stepAccumulating(line, next)
	case sicoobIdle:
		m.stepIdle(line, next)
	}
}

func (m *sicoobMachine) stepAccumulating(line, next string) {
	if dc, ok := asDCMarker(line); ok {
		if m.cur.dc == "" {
			m.cur.dc = dc
		}
		return
	}
	if moneyOnlyRe.MatchString(line) {
		if isSicoobBalanceContext(m.prevRaw) {
			return
		}
		if m.cur.valueTok == "" {
			m.cur.valueTok = strings.TrimSpace(line)
			return
		}
		// A second value just before a new entry belongs to that entry.
		if isSicoobRecordStart(next) {
			m.pending.valueTok = strings.TrimSpace(line)
		}
		return
	}
	if mTail := sicoobValueTailRe.FindStringSubmatch(line); mTail != nil && m.cur.valueTok == "" {
		m.cur.valueTok = mTail[1]
		if mTail[2] != "" {
			m.cur.dc = strings.ToUpper(mTail[2])
		}
	}
	m.cur.descLines = append(m.cur.descLines, line)
}

func (m *sicoobMachine) stepIdle(line, next string) {
	if moneyOnlyRe.MatchString(line) {
		if isSicoobBalanceContext(m.prevRaw) {
			return
		}
		if isSicoobRecordStart(next) {
			m.pending.valueTok = strings.TrimSpace(line)
		}
		return
	}
	if dc, ok := asDCMarker(line); ok && m.pending.valueTok != "" {
		m.pending.dc = dc
	}
}

func (m *sicoobMachine) openRecord(line string) {
	m.state = sicoobIdle
	m.cur = sicoobRecord{}

	sm := ddmmRe.FindStringSubmatch(line)
	day, _ := strconv.Atoi(sm[1])
	month, _ := strconv.Atoi(sm[2])
	year := m.yearHint
	if sm[3] != "" {
		year, _ = strconv.Atoi(sm[3])
		if year < 100 {
			year += 2000
		}
	}
	if year == 0 {
		m.issues = append(m.issues, fmt.Sprintf("entry %q has no year and the statement declares no period", line))
		m.pending = sicoobRecord{}
		return
	}
	date := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !date.IsValid() {
		m.issues = append(m.issues, fmt.Sprintf("entry %q has an invalid date", line))
		m.pending = sicoobRecord{}
		return
	}

	m.cur.date = date
	m.cur.valueTok = m.pending.valueTok
	m.cur.dc = m.pending.dc
	m.pending = sicoobRecord{}

	if mTail := sicoobValueTailRe.FindStringSubmatch(line); mTail != nil {
		m.cur.valueTok = mTail[1]
		if mTail[2] != "" {
			m.cur.dc = strings.ToUpper(mTail[2])
		}
	}
	m.cur.descLines = append(m.cur.descLines, line)
	m.state = sicoobAccumulating
}

func (m *sicoobMachine) finalize() {
	defer func() {
		m.cur = sicoobRecord{}
		m.state = sicoobIdle
	}()
	if m.state != sicoobAccumulating || m.cur.date.IsZero() || m.cur.valueTok == "" {
		return
	}

	amount, err := ParseAmount(m.cur.valueTok)
	if err != nil || amount.IsZero() {
		return
	}
	dc := m.cur.dc
	if dc == "" {
		dc = "D"
		m.issues = append(m.issues, fmt.Sprintf("entry on %s has no D/C marker, assuming debit", m.cur.date))
	}
	if dc == "D" {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}

	m.txs = append(m.txs, domain.Transaction{
		Date:        m.cur.date,
		Description: sicoobDescription(m.cur.descLines),
		Amount:      amount,
		Origin:      domain.OriginStatement,
	})
}

func sicoobDescription(lines []string) string {
	s := strings.Join(lines, " ")
	s = ddmmRe.ReplaceAllString(s, "")
	s = sicoobValueTailRe.ReplaceAllString(s, "")
	s = CollapseSpaces(s)
	if s == "" {
		return "Sem descrição"
	}
	return s
}

func isSicoobStopword(line string) bool {
	upper := strings.ToUpper(line)
	for _, w := range sicoobStopwords {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

func isSicoobRecordStart(line string) bool {
	return line != "" && ddmmRe.MatchString(line) && !isSicoobStopword(line)
}

// A lone monetary value under a line mentioning SALDO is a running balance,
// not an entry value.
func isSicoobBalanceContext(prev string) bool {
	return strings.Contains(strings.ToUpper(prev), "SALDO")
}

func asDCMarker(line string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "D":
		return "D", true
	case "C":
		return "C", true
	}
	return "", false
}
