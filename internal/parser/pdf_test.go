package parser

import (
	"context"
	"testing"

	"github.com/dslipak/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementPDFEmpty(t *testing.T) {
	_, _, err := ParseStatementPDF(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseStatementPDFMalformed(t *testing.T) {
	_, _, err := ParseStatementPDF(context.Background(), []byte("not a pdf"), false)
	assert.Error(t, err)
}

func text(x, y, w float64, s string) pdf.Text {
	return pdf.Text{X: x, Y: y, W: w, S: s}
}

func TestBuildRowsGroupsByLine(t *testing.T) {
	page := buildRows([]pdf.Text{
		text(10, 700, 30, "Data"),
		text(120, 700, 60, "Histórico"),
		text(400, 700, 30, "Valor"),
		text(10, 680, 50, "10/03/2025"),
		text(120, 680, 80, "PIX Recebido"),
		text(400, 680, 40, "1.500,00"),
	})

	require.Len(t, page.rows, 2)
	assert.Equal(t, []string{"Data", "Histórico", "Valor"}, cellTexts(page.rows[0]))
	assert.Equal(t, "10/03/2025 PIX Recebido 1.500,00", page.rows[1].text())
}

func cellTexts(r pdfRow) []string {
	out := make([]string, 0, len(r.cells))
	for _, c := range r.cells {
		out = append(out, c.text)
	}
	return out
}

func TestAssembleRowJoinsWordsWithinCell(t *testing.T) {
	// Two glyph runs 2pt apart form one cell with a space between words;
	// a 50pt gap opens a new cell.
	row := assembleRow([]pdf.Text{
		text(10, 700, 20, "PIX"),
		text(32, 700, 40, "Recebido"),
		text(122, 700, 30, "1.500,00"),
	})
	assert.Equal(t, []string{"PIX Recebido", "1.500,00"}, cellTexts(row))
}

func TestMatchNubankHeader(t *testing.T) {
	header := pdfRow{cells: []pdfCell{
		{x: 10, text: "Data"},
		{x: 120, text: "Descrição"},
		{x: 400, text: "Valor"},
	}}
	cols, ok := matchNubankHeader(header)
	require.True(t, ok)
	assert.Equal(t, 10.0, cols.dateX)
	assert.Equal(t, 120.0, cols.descX)
	assert.Equal(t, 400.0, cols.valueX)

	_, ok = matchNubankHeader(pdfRow{cells: []pdfCell{{x: 10, text: "Resumo"}}})
	assert.False(t, ok)
}

func TestNubankFromTables(t *testing.T) {
	pages := []pdfPage{{rows: []pdfRow{
		{cells: []pdfCell{{x: 10, text: "Data"}, {x: 120, text: "Descrição"}, {x: 400, text: "Valor"}}},
		{cells: []pdfCell{{x: 10, text: "05 MAR 2025"}, {x: 120, text: "Pix enviado Fulano"}, {x: 400, text: "-1.234,56"}}},
		{cells: []pdfCell{{x: 10, text: "06 MAR 2025"}, {x: 120, text: "Pix recebido"}, {x: 400, text: "2.000,00"}}},
	}}}

	txs, issues := nubankFromTables(pages)
	assert.Empty(t, issues)
	require.Len(t, txs, 2)
	assert.Equal(t, "-1234.56", txs[0].Amount.String())
	assert.Equal(t, "Pix enviado Fulano", txs[0].Description)
	assert.Equal(t, "2000", txs[1].Amount.String())
}
