package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

// Column-role candidates. Header matching is fuzzy (accent-insensitive
// substring in either direction), so "Data Lançamento" resolves to the date
// role and "Valor Movimento" to the amount role.
var (
	dateColumns     = []string{"DATA", "DT", "DATA LANCAMENTO", "DATA MOVIMENTO", "DATE", "DATA OPERACAO", "DIA"}
	descColumns     = []string{"DESCRICAO", "HISTORICO", "HIST", "DESCRIPTION", "MEMO", "NOME", "DESCRICAO OPERACAO"}
	amountColumns   = []string{"VALOR", "VAL", "AMOUNT", "VALOR MOVIMENTO"}
	debitColumns    = []string{"DEBITO", "DEB", "DEBIT", "DEBITO MOVIMENTO"}
	creditColumns   = []string{"CREDITO", "CRED", "CREDIT", "CREDITO MOVIMENTO"}
	documentColumns = []string{"DOCUMENTO", "DOC", "N DOC", "NUM DOC", "NUMERO DOCUMENTO"}
	balanceColumns  = []string{"SALDO", "SLD", "BALANCE"}
)

func findColumn(headers []string, candidates []string) int {
	for idx, h := range headers {
		folded := foldColumn(h)
		if folded == "" {
			continue
		}
		for _, cand := range candidates {
			if strings.Contains(folded, cand) || strings.Contains(cand, folded) {
				return idx
			}
		}
	}
	return -1
}

// detectDelimiter picks ";" over "," when the header line uses it more often.
func detectDelimiter(firstLine string) rune {
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// ParseStatementCSV parses a structured bank-statement CSV into canonical
// transactions. Column order is not assumed; roles are resolved from the
// header. In non-strict mode unparseable rows are reported as issues and
// skipped; in strict mode the first bad row aborts the parse.
func ParseStatementCSV(data []byte, strict bool) ([]domain.Transaction, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	firstLine, _, _ := strings.Cut(string(data), "\n")
	delim := detectDelimiter(firstLine)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("ParseStatementCSV: %w", ErrNoHeader)
	}

	dateIdx := findColumn(headers, dateColumns)
	descIdx := findColumn(headers, descColumns)
	amountIdx := findColumn(headers, amountColumns)
	debitIdx := findColumn(headers, debitColumns)
	creditIdx := findColumn(headers, creditColumns)
	documentIdx := findColumn(headers, documentColumns)
	balanceIdx := findColumn(headers, balanceColumns)

	if dateIdx < 0 {
		return nil, nil, fmt.Errorf("ParseStatementCSV: date column not found: %w", ErrNoHeader)
	}
	if descIdx < 0 {
		return nil, nil, fmt.Errorf("ParseStatementCSV: description column not found: %w", ErrNoHeader)
	}
	if amountIdx < 0 && debitIdx < 0 && creditIdx < 0 {
		return nil, nil, fmt.Errorf("ParseStatementCSV: no amount, debit or credit column found: %w", ErrNoHeader)
	}

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var txs []domain.Transaction
	var issues []string
	lineNo := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			issue := fmt.Sprintf("line %d: malformed row: %v", lineNo, err)
			if strict {
				return nil, nil, errors.New("ParseStatementCSV: " + issue)
			}
			issues = append(issues, issue)
			continue
		}

		empty := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		dateStr := cell(row, dateIdx)
		if dateStr == "" {
			issue := fmt.Sprintf("line %d: missing date", lineNo)
			if strict {
				return nil, nil, errors.New("ParseStatementCSV: " + issue)
			}
			issues = append(issues, issue)
			continue
		}
		date, err := ParseDate(dateStr)
		if err != nil {
			issue := fmt.Sprintf("line %d: invalid date %q", lineNo, dateStr)
			if strict {
				return nil, nil, errors.New("ParseStatementCSV: " + issue)
			}
			issues = append(issues, issue)
			continue
		}

		desc := cell(row, descIdx)
		if desc == "" {
			issue := fmt.Sprintf("line %d: missing description", lineNo)
			if strict {
				return nil, nil, errors.New("ParseStatementCSV: " + issue)
			}
			issues = append(issues, issue)
			continue
		}

		var amount decimal.Decimal
		if amtStr := cell(row, amountIdx); amtStr != "" {
			v, err := ParseAmount(amtStr)
			if err != nil {
				// Unparseable values degrade to zero instead of failing
				// the row; the issue records what was lost.
				issue := fmt.Sprintf("line %d: unparseable amount %q, treated as zero", lineNo, amtStr)
				if strict {
					return nil, nil, errors.New("ParseStatementCSV: " + issue)
				}
				issues = append(issues, issue)
			} else {
				amount = v
			}
		}
		if amount.IsZero() {
			// Combine debit/credit columns when there is no single
			// amount column or it was empty.
			debit := amountOrZero(cell(row, debitIdx))
			credit := amountOrZero(cell(row, creditIdx))
			switch {
			case !debit.IsZero():
				amount = debit.Abs().Neg()
			case !credit.IsZero():
				amount = credit.Abs()
			}
		}
		if amount.IsZero() {
			// Zero-amount rows are non-events (headers repeated in the
			// body, balance carry lines); drop silently.
			continue
		}

		tx := domain.Transaction{
			Date:        date,
			Description: CollapseSpaces(desc),
			Document:    cell(row, documentIdx),
			Amount:      amount,
			Origin:      domain.OriginStatement,
		}
		if balStr := cell(row, balanceIdx); balStr != "" {
			if bal, err := ParseAmount(balStr); err == nil {
				tx.Balance = &bal
			}
		}
		txs = append(txs, tx)
	}

	return txs, issues, nil
}

func amountOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
