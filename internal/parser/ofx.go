package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

var (
	ofxBlockRe    = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	ofxDtPostedRe = regexp.MustCompile(`(?i)<DTPOSTED[^>]*>\s*([^<\r\n]+)`)
	ofxTrnAmtRe   = regexp.MustCompile(`(?i)<TRNAMT[^>]*>\s*([^<\r\n]+)`)
	ofxFitIDRe    = regexp.MustCompile(`(?i)<FITID[^>]*>\s*([^<\r\n]+)`)
	ofxMemoRe     = regexp.MustCompile(`(?i)<MEMO[^>]*>\s*([^<\r\n]+)`)
	ofxNameRe     = regexp.MustCompile(`(?i)<NAME[^>]*>\s*([^<\r\n]+)`)
)

// ParseStatementOFX parses an OFX bank statement, either SGML (1.x) or XML
// (2.x). A conformant file goes through the ofxgo decoder; files that the
// strict decoder rejects (a common situation with Brazilian bank exports)
// fall back to a lenient scan over <STMTTRN> blocks where tag order inside
// each block is not assumed.
func ParseStatementOFX(data []byte, strict bool) ([]domain.Transaction, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, ErrEmptyFile
	}

	if txs, err := parseOFXConformant(data); err == nil && len(txs) > 0 {
		return txs, nil, nil
	}

	return scanOFXBlocks(data, strict)
}

// parseOFXConformant decodes through ofxgo and maps bank and credit-card
// statement transactions to the canonical model.
func parseOFXConformant(data []byte) ([]domain.Transaction, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parseOFXConformant: %w", err)
	}

	var txs []domain.Transaction
	collect := func(list *ofxgo.TransactionList) {
		if list == nil {
			return
		}
		for _, tr := range list.Transactions {
			f, _ := tr.TrnAmt.Float64()
			amount := decimal.NewFromFloat(f)
			if amount.IsZero() {
				continue
			}
			desc := strings.TrimSpace(tr.Memo.String())
			if desc == "" {
				desc = strings.TrimSpace(tr.Name.String())
			}
			if desc == "" {
				desc = "Transação sem descrição"
			}
			txs = append(txs, domain.Transaction{
				Date:        civil.DateOf(tr.DtPosted.Time),
				Description: CollapseSpaces(desc),
				Document:    strings.TrimSpace(tr.FiTID.String()),
				Amount:      amount,
				Origin:      domain.OriginStatement,
			})
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			collect(stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			collect(stmt.BankTranList)
		}
	}
	return txs, nil
}

// scanOFXBlocks extracts transactions by locating paired <STMTTRN> markers
// and probing each block for its fields independently of ordering.
func scanOFXBlocks(data []byte, strict bool) ([]domain.Transaction, []string, error) {
	var txs []domain.Transaction
	var issues []string

	blocks := ofxBlockRe.FindAllSubmatch(data, -1)
	if len(blocks) == 0 {
		issues = append(issues, "no STMTTRN transaction blocks found")
		return nil, issues, nil
	}

	for idx, m := range blocks {
		block := m[1]

		dateMatch := ofxDtPostedRe.FindSubmatch(block)
		if dateMatch == nil {
			issue := fmt.Sprintf("transaction %d: DTPOSTED not found", idx+1)
			if strict {
				return nil, nil, errors.New("scanOFXBlocks: " + issue)
			}
			issues = append(issues, issue)
			continue
		}
		date, err := parseOFXDate(string(dateMatch[1]))
		if err != nil {
			issue := fmt.Sprintf("transaction %d: invalid date %q", idx+1, strings.TrimSpace(string(dateMatch[1])))
			if strict {
				return nil, nil, errors.New("scanOFXBlocks: " + issue)
			}
			issues = append(issues, issue)
			continue
		}

		amtMatch := ofxTrnAmtRe.FindSubmatch(block)
		if amtMatch == nil {
			issue := fmt.Sprintf("transaction %d: TRNAMT not found", idx+1)
			if strict {
				return nil, nil, errors.New("scanOFXBlocks: " + issue)
			}
			issues = append(issues, issue)
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(string(amtMatch[1])))
		if err != nil {
			issue := fmt.Sprintf("transaction %d: invalid amount %q", idx+1, strings.TrimSpace(string(amtMatch[1])))
			if strict {
				return nil, nil, errors.New("scanOFXBlocks: " + issue)
			}
			issues = append(issues, issue)
			continue
		}
		if amount.IsZero() {
			continue
		}

		desc := ""
		if m := ofxMemoRe.FindSubmatch(block); m != nil {
			desc = strings.TrimSpace(string(m[1]))
		}
		if desc == "" {
			if m := ofxNameRe.FindSubmatch(block); m != nil {
				desc = strings.TrimSpace(string(m[1]))
			}
		}
		if desc == "" {
			desc = "Transação sem descrição"
		}

		document := ""
		if m := ofxFitIDRe.FindSubmatch(block); m != nil {
			document = strings.TrimSpace(string(m[1]))
		}

		txs = append(txs, domain.Transaction{
			Date:        date,
			Description: CollapseSpaces(desc),
			Document:    document,
			Amount:      amount,
			Origin:      domain.OriginStatement,
		})
	}

	return txs, issues, nil
}

// parseOFXDate reads the positional OFX date format YYYYMMDD[HHMMSS...].
// Anything past the day, including timezone suffixes, is ignored.
func parseOFXDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return civil.Date{}, fmt.Errorf("parseOFXDate: %q too short", s)
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return civil.Date{}, fmt.Errorf("parseOFXDate: %q: %w", s, err)
	}
	month, err := strconv.Atoi(s[4:6])
	if err != nil {
		return civil.Date{}, fmt.Errorf("parseOFXDate: %q: %w", s, err)
	}
	day, err := strconv.Atoi(s[6:8])
	if err != nil {
		return civil.Date{}, fmt.Errorf("parseOFXDate: %q: %w", s, err)
	}
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("parseOFXDate: %q is not a calendar date", s)
	}
	return d, nil
}
