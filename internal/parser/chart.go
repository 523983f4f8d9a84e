package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

var (
	chartCodeColumns   = []string{"CODIGO", "CONTA", "ACCOUNT_CODE", "COD", "CODE"}
	chartNameColumns   = []string{"DESCRICAO", "NOME", "ACCOUNT_NAME", "NAME", "DESC"}
	chartSourceColumns = []string{"ORIGEM", "FONTE", "SOURCE"}
	chartActiveColumns = []string{"ATIVO", "ATIVA", "STATUS", "ACTIVE", "SITUACAO"}
)

// ParseChartCSV reads a chart-of-accounts export. Code and name columns are
// required; source and active columns are optional and an account with no
// active column is taken as active.
func ParseChartCSV(data []byte) (*domain.Chart, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	firstLine, _, _ := strings.Cut(string(data), "\n")
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(firstLine)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ParseChartCSV: %w", ErrNoHeader)
	}

	codeIdx := findColumn(headers, chartCodeColumns)
	nameIdx := findColumn(headers, chartNameColumns)
	sourceIdx := findColumn(headers, chartSourceColumns)
	activeIdx := findColumn(headers, chartActiveColumns)
	if codeIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("ParseChartCSV: code or name column not found: %w", ErrNoHeader)
	}

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var accs []domain.Account
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		code := cell(row, codeIdx)
		if code == "" {
			continue
		}
		accs = append(accs, domain.Account{
			Code:   code,
			Name:   cell(row, nameIdx),
			Source: cell(row, sourceIdx),
			Active: parseActiveFlag(cell(row, activeIdx)),
		})
	}
	return domain.NewChart(accs), nil
}

func parseActiveFlag(s string) bool {
	switch foldColumn(s) {
	case "NAO", "N", "FALSE", "0", "INATIVO", "INATIVA", "ENCERRADA":
		return false
	}
	return true
}
