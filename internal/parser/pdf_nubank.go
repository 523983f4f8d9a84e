package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

var nubankMonths = map[string]int{
	"JAN": 1, "FEV": 2, "MAR": 3, "ABR": 4, "MAI": 5, "JUN": 6,
	"JUL": 7, "AGO": 8, "SET": 9, "OUT": 10, "NOV": 11, "DEZ": 12,
}

var (
	// "05 MAR 2025  Transferência enviada pelo Pix  -1.234,56"
	nubankMonthLineRe = regexp.MustCompile(`(?i)^(\d{1,2})\s+(JAN|FEV|MAR|ABR|MAI|JUN|JUL|AGO|SET|OUT|NOV|DEZ)\s+(\d{4})\s+(.+?)\s+(-?R?\$?\s*[\d.,]+)\s*$`)
	// "05/03/2025  Compra no débito  R$ 1.234,56"
	nubankSlashLineRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+(-?R\$\s*-?[\d.,]+)\s*$`)
	// Standalone date announcing a block of entries below it.
	nubankDateOnlyRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(JAN|FEV|MAR|ABR|MAI|JUN|JUL|AGO|SET|OUT|NOV|DEZ)\s+(\d{4})\b`)

	nubankTailNoise = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s+-\s+NU PAGAMENTOS.*$`),
		regexp.MustCompile(`(?i)\s+Ag[eê]ncia:.*$`),
		regexp.MustCompile(`(?i)\s+Conta:.*$`),
	}
)

// How many lines below a standalone date heading still belong to it.
const nubankDateCarry = 20

// Entries below one cent are artifacts of the text reconstruction.
var minNubankAmount = decimal.New(1, -2)

// parseNubank tries the positional table first, then progressively looser
// line patterns over the flattened text. Each fallback only runs when the
// previous strategy found nothing.
func parseNubank(pages []pdfPage, allLines []string) ([]domain.Transaction, []string) {
	txs, issues := nubankFromTables(pages)
	if len(txs) > 0 {
		return txs, issues
	}
	if txs, issues = nubankFromMonthLines(allLines); len(txs) > 0 {
		return txs, issues
	}
	if txs, issues = nubankFromSlashLines(allLines); len(txs) > 0 {
		return txs, issues
	}
	return nubankFromTransferBlocks(allLines)
}

type nubankColumns struct {
	dateX, descX, valueX float64
}

func matchNubankHeader(row pdfRow) (nubankColumns, bool) {
	var cols nubankColumns
	var haveDate, haveDesc, haveValue bool
	for _, c := range row.cells {
		folded := foldColumn(c.text)
		switch {
		case !haveDate && (strings.Contains(folded, "DATA") || folded == "DIA"):
			cols.dateX, haveDate = c.x, true
		case !haveDesc && (strings.Contains(folded, "DESCRICAO") || strings.Contains(folded, "HISTORICO") || strings.Contains(folded, "MOVIMENTACAO")):
			cols.descX, haveDesc = c.x, true
		case !haveValue && strings.Contains(folded, "VALOR"):
			cols.valueX, haveValue = c.x, true
		}
	}
	return cols, haveDate && haveDesc && haveValue
}

func nubankFromTables(pages []pdfPage) ([]domain.Transaction, []string) {
	var txs []domain.Transaction
	var issues []string
	for _, page := range pages {
		headerAt := -1
		var cols nubankColumns
		for i, row := range page.rows {
			if c, ok := matchNubankHeader(row); ok {
				headerAt, cols = i, c
				break
			}
		}
		if headerAt < 0 {
			continue
		}
		for _, row := range page.rows[headerAt+1:] {
			if len(row.cells) < 2 {
				continue
			}
			var dateS, descS, valueS string
			for _, c := range row.cells {
				switch nearestColumn(c.x, cols) {
				case 0:
					dateS = strings.TrimSpace(dateS + " " + c.text)
				case 1:
					descS = strings.TrimSpace(descS + " " + c.text)
				case 2:
					valueS = strings.TrimSpace(valueS + " " + c.text)
				}
			}
			if dateS == "" || valueS == "" {
				continue
			}
			date, err := parseNubankDate(dateS)
			if err != nil {
				issues = append(issues, fmt.Sprintf("unparseable date %q in statement table", dateS))
				continue
			}
			amount, err := ParseAmount(valueS)
			if err != nil || amount.IsZero() {
				continue
			}
			txs = append(txs, domain.Transaction{
				Date:        date,
				Description: cleanNubankDescription(descS),
				Amount:      amount,
				Origin:      domain.OriginStatement,
			})
		}
	}
	return txs, issues
}

func nearestColumn(x float64, cols nubankColumns) int {
	best, bestDist := 0, math.Abs(x-cols.dateX)
	if d := math.Abs(x - cols.descX); d < bestDist {
		best, bestDist = 1, d
	}
	if d := math.Abs(x - cols.valueX); d < bestDist {
		best = 2
	}
	return best
}

// parseNubankDate accepts both the abbreviated month form ("05 MAR 2025")
// and the plain numeric forms handled by ParseDate.
func parseNubankDate(s string) (civil.Date, error) {
	if m := nubankDateOnlyRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		d := civil.Date{Year: year, Month: time.Month(nubankMonths[strings.ToUpper(m[2])]), Day: day}
		if !d.IsValid() {
			return civil.Date{}, fmt.Errorf("parseNubankDate: invalid date %q", s)
		}
		return d, nil
	}
	return ParseDate(s)
}

func nubankFromMonthLines(lines []string) ([]domain.Transaction, []string) {
	var txs []domain.Transaction
	var issues []string
	for _, ln := range lines {
		if isNubankTotalLine(ln) {
			continue
		}
		m := nubankMonthLineRe.FindStringSubmatch(strings.TrimSpace(ln))
		if m == nil {
			continue
		}
		date, err := parseNubankDate(m[1] + " " + m[2] + " " + m[3])
		if err != nil {
			issues = append(issues, fmt.Sprintf("unparseable date in line %q", strings.TrimSpace(ln)))
			continue
		}
		amount, err := ParseAmount(m[5])
		if err != nil || amount.Abs().LessThan(minNubankAmount) {
			continue
		}
		desc := cleanNubankDescription(m[4])
		if len(desc) <= 5 {
			continue
		}
		txs = append(txs, domain.Transaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Origin:      domain.OriginStatement,
		})
	}
	return txs, issues
}

func nubankFromSlashLines(lines []string) ([]domain.Transaction, []string) {
	var txs []domain.Transaction
	var issues []string
	for _, ln := range lines {
		if isNubankTotalLine(ln) {
			continue
		}
		m := nubankSlashLineRe.FindStringSubmatch(strings.TrimSpace(ln))
		if m == nil {
			continue
		}
		date, err := ParseDate(m[1])
		if err != nil {
			issues = append(issues, fmt.Sprintf("unparseable date in line %q", strings.TrimSpace(ln)))
			continue
		}
		amount, err := ParseAmount(m[3])
		if err != nil || amount.Abs().LessThan(minNubankAmount) {
			continue
		}
		desc := cleanNubankDescription(m[2])
		if len(desc) <= 5 {
			continue
		}
		txs = append(txs, domain.Transaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Origin:      domain.OriginStatement,
		})
	}
	return txs, issues
}

// nubankFromTransferBlocks is the last resort for exports where each entry
// spans two lines under a standalone date heading. A heading stays in effect
// for a bounded number of following lines.
func nubankFromTransferBlocks(lines []string) ([]domain.Transaction, []string) {
	var txs []domain.Transaction
	var issues []string
	var carryDate civil.Date
	carryAge := nubankDateCarry + 1

	for i, ln := range lines {
		ln = strings.TrimSpace(ln)
		carryAge++
		if m := nubankDateOnlyRe.FindStringSubmatch(ln); m != nil {
			if d, err := parseNubankDate(m[0]); err == nil {
				carryDate, carryAge = d, 0
			}
			continue
		}
		if carryAge > nubankDateCarry || isNubankTotalLine(ln) {
			continue
		}
		lower := strings.ToLower(foldAccents(ln))
		if !strings.Contains(lower, "transferencia") {
			continue
		}

		desc := ln
		valueS := ""
		if m := moneyTailRe.FindStringSubmatch(ln); m != nil {
			valueS = m[1]
			desc = strings.TrimSpace(strings.TrimSuffix(ln, m[0]))
		} else if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if moneyOnlyRe.MatchString(next) {
				valueS = next
			}
		}
		if valueS == "" {
			continue
		}
		amount, err := ParseAmount(valueS)
		if err != nil || amount.Abs().LessThan(minNubankAmount) {
			continue
		}
		desc = cleanNubankDescription(desc)
		if len(desc) <= 5 {
			issues = append(issues, fmt.Sprintf("transfer entry near line %d has no usable description", i+1))
			continue
		}
		txs = append(txs, domain.Transaction{
			Date:        carryDate,
			Description: desc,
			Amount:      amount,
			Origin:      domain.OriginStatement,
		})
	}
	return txs, issues
}

func isNubankTotalLine(ln string) bool {
	lower := strings.ToLower(foldAccents(ln))
	return strings.Contains(lower, "total de entradas") || strings.Contains(lower, "total de saidas")
}

func cleanNubankDescription(s string) string {
	s = strings.TrimLeft(s, "•-– \t")
	for _, re := range nubankTailNoise {
		s = re.ReplaceAllString(s, "")
	}
	return CollapseSpaces(s)
}
