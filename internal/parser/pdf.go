package parser

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

// Monetary token shapes used across both PDF layouts: Brazilian grouping
// with a mandatory two-digit decimal part.
var (
	moneyTailRe = regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*,\d{2})\s*$`)
	moneyOnlyRe = regexp.MustCompile(`^\s*\d{1,3}(?:\.\d{3})*,\d{2}\s*$`)
	ddmmRe      = regexp.MustCompile(`^\s*(\d{2})/(\d{2})(?:/(\d{2,4}))?\b`)
	periodRe    = regexp.MustCompile(`(?i)PER[IÍ]ODO\s*:?\s*(\d{2}/\d{2}/\d{4})\s*(?:[-–]|a)\s*(\d{2}/\d{2}/\d{4})`)
)

type pdfCell struct {
	x    float64
	text string
}

type pdfRow struct {
	y     float64
	cells []pdfCell
}

// text returns the row as a single line, cells joined by single spaces.
func (r pdfRow) text() string {
	parts := make([]string, 0, len(r.cells))
	for _, c := range r.cells {
		parts = append(parts, c.text)
	}
	return strings.Join(parts, " ")
}

type pdfPage struct {
	rows []pdfRow
}

func (p pdfPage) lines() []string {
	out := make([]string, 0, len(p.rows))
	for _, r := range p.rows {
		out = append(out, r.text())
	}
	return out
}

// ParseStatementPDF reconstructs canonical transactions from a PDF bank
// statement. The bank layout is selected by scanning the first page for
// identifying phrases; when neither bank is recognized, both sub-parsers run
// and whichever extracts more records wins.
//
// Text extraction over every page is the slow path of the whole system, so
// the context is checked between pages; the caller owns the timeout.
func ParseStatementPDF(ctx context.Context, data []byte, strict bool) ([]domain.Transaction, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("ParseStatementPDF: open: %w", err)
	}

	pages, err := extractPages(ctx, r)
	if err != nil {
		return nil, nil, fmt.Errorf("ParseStatementPDF: %w", err)
	}

	var allLines []string
	for _, p := range pages {
		allLines = append(allLines, p.lines()...)
	}
	if len(allLines) == 0 {
		issues := []string{"PDF has no extractable text"}
		if strict {
			return nil, nil, fmt.Errorf("ParseStatementPDF: no extractable text")
		}
		return nil, issues, nil
	}

	yearHint := inferYearFromPeriod(allLines)

	var firstPage []string
	if len(pages) > 0 {
		firstPage = pages[0].lines()
	}

	var txs []domain.Transaction
	var issues []string
	switch detectBank(firstPage) {
	case bankNubank:
		txs, issues = parseNubank(pages, allLines)
	case bankSicoob:
		txs, issues = parseSicoobLines(allLines, yearHint)
	default:
		// Unknown layout: run both and keep whichever recovered more.
		nubankTxs, nubankIssues := parseNubank(pages, allLines)
		sicoobTxs, sicoobIssues := parseSicoobLines(allLines, yearHint)
		if len(nubankTxs) >= len(sicoobTxs) {
			txs, issues = nubankTxs, nubankIssues
		} else {
			txs, issues = sicoobTxs, sicoobIssues
		}
	}

	if strict && len(issues) > 0 {
		return nil, nil, fmt.Errorf("ParseStatementPDF: %d issues in strict mode, first: %s", len(issues), issues[0])
	}
	return txs, issues, nil
}

type bankLayout int

const (
	bankUnknown bankLayout = iota
	bankNubank
	bankSicoob
)

func detectBank(firstPage []string) bankLayout {
	joined := strings.ToLower(strings.Join(firstPage, "\n"))
	switch {
	case strings.Contains(joined, "nubank"), strings.Contains(joined, "nu pagamentos"):
		return bankNubank
	case strings.Contains(joined, "sicoob"), strings.Contains(joined, "sistema de cooperativas"):
		return bankSicoob
	}
	return bankUnknown
}

// inferYearFromPeriod reads the statement's declared period banner and
// returns the year of its end date, or 0 when no banner is present.
func inferYearFromPeriod(lines []string) int {
	for _, ln := range lines {
		m := periodRe.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		if end, err := ParseDate(m[2]); err == nil {
			return end.Year
		}
	}
	return 0
}

const (
	// Vertical tolerance for clustering glyph runs into the same row.
	rowYTolerance = 2.0
	// Horizontal gap, in points, that separates two table cells.
	cellGap = 8.0
	// Horizontal gap that separates two words inside the same cell.
	wordGap = 1.0
)

// extractPages rebuilds the positional text of every page into rows and
// cells. Cells are glyph runs clustered by horizontal proximity, rows by
// vertical proximity, which approximates the table structure the PDF lost
// when it was linearized.
func extractPages(ctx context.Context, r *pdf.Reader) ([]pdfPage, error) {
	var pages []pdfPage
	for n := 1; n <= r.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		texts := page.Content().Text
		if len(texts) == 0 {
			continue
		}
		pages = append(pages, buildRows(texts))
	}
	return pages, nil
}

func buildRows(texts []pdf.Text) pdfPage {
	// Stable order: top to bottom, then left to right. PDF Y grows upward.
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var page pdfPage
	var cur []pdf.Text
	flush := func() {
		if len(cur) == 0 {
			return
		}
		page.rows = append(page.rows, assembleRow(cur))
		cur = nil
	}
	for _, t := range sorted {
		if strings.TrimSpace(t.S) == "" && t.S != " " {
			continue
		}
		if len(cur) > 0 && cur[0].Y-t.Y > rowYTolerance {
			flush()
		}
		cur = append(cur, t)
	}
	flush()
	return page
}

func assembleRow(texts []pdf.Text) pdfRow {
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	row := pdfRow{y: texts[0].Y}
	var cell strings.Builder
	cellX := texts[0].X
	prevEnd := texts[0].X

	flush := func() {
		if s := strings.TrimSpace(cell.String()); s != "" {
			row.cells = append(row.cells, pdfCell{x: cellX, text: s})
		}
		cell.Reset()
	}
	for i, t := range texts {
		gap := t.X - prevEnd
		switch {
		case i == 0:
			// First run opens the first cell.
		case gap > cellGap:
			flush()
			cellX = t.X
		case gap > wordGap:
			cell.WriteByte(' ')
		}
		cell.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	flush()
	return row
}
