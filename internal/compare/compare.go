// Package compare wires the parsers, the reconciliation engines and the
// account validator into one in-memory run. It owns no I/O: callers hand in
// raw file bytes and receive a report back.
package compare

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/SwayBrasil/rpa-dominio/internal/accounts"
	"github.com/SwayBrasil/rpa-dominio/internal/domain"
	"github.com/SwayBrasil/rpa-dominio/internal/logger"
	"github.com/SwayBrasil/rpa-dominio/internal/parser"
	"github.com/SwayBrasil/rpa-dominio/internal/recon"
)

// Engine selects the reconciliation strategy.
type Engine string

const (
	// EngineKey expects one-to-one correspondence via documents and
	// descriptions.
	EngineKey Engine = "key"
	// EngineFuzzy scores free-form candidates by amount, date and
	// description proximity.
	EngineFuzzy Engine = "fuzzy"
)

// File is one raw input document.
type File struct {
	Name string
	Data []byte
}

// Inputs is everything one reconciliation run consumes.
type Inputs struct {
	Statement File
	Ledgers   []File
	Chart     *domain.Chart
	Rules     []accounts.Rule
}

// Options tune one run. Zero value: key engine, default tolerances, lenient
// parsing, no validation unless a chart is supplied.
type Options struct {
	Engine Engine
	Recon  recon.Options
	Strict bool
}

// Report is the complete outcome of a run.
type Report struct {
	StatementTxs []domain.Transaction
	LedgerTxs    []domain.Transaction
	// Issues holds per-file parse warnings keyed by input file name.
	Issues map[string][]string

	Divergences   []domain.Divergence
	Matched       int
	BankResidue   []domain.Transaction
	LedgerResidue []domain.Transaction

	Validation        []accounts.Result
	ValidationSummary accounts.Summary
}

// Run executes one full reconciliation: parse the statement by extension,
// parse and unify every ledger file, reconcile with the selected engine and
// validate the ledger entries against the chart. The context reaches the
// PDF parser, which is the only slow component; cancellation belongs to the
// caller.
func Run(ctx context.Context, in Inputs, opts Options) (*Report, error) {
	log := logger.Component(logger.FromContext(ctx), "compare")

	rep := &Report{Issues: make(map[string][]string)}

	stmtTxs, stmtIssues, err := ParseStatement(ctx, in.Statement, opts.Strict)
	if err != nil {
		return nil, fmt.Errorf("Run: statement %s: %w", in.Statement.Name, err)
	}
	rep.StatementTxs = stmtTxs
	if len(stmtIssues) > 0 {
		rep.Issues[in.Statement.Name] = stmtIssues
	}
	log.Info().Str("file", in.Statement.Name).
		Int("transactions", len(stmtTxs)).
		Int("issues", len(stmtIssues)).
		Msg("statement parsed")

	batches := make([][]domain.Transaction, 0, len(in.Ledgers))
	for _, lf := range in.Ledgers {
		txs, issues, err := parser.ParseLedgerTXT(lf.Data, lf.Name, opts.Strict)
		if err != nil {
			return nil, fmt.Errorf("Run: ledger %s: %w", lf.Name, err)
		}
		batches = append(batches, txs)
		if len(issues) > 0 {
			rep.Issues[lf.Name] = issues
		}
	}
	ledgerTxs, unifyIssues := parser.UnifyLedgers(batches...)
	rep.LedgerTxs = ledgerTxs
	if len(unifyIssues) > 0 {
		rep.Issues["ledger"] = unifyIssues
	}
	log.Info().Int("files", len(in.Ledgers)).
		Int("transactions", len(ledgerTxs)).
		Msg("ledgers unified")

	var result recon.Result
	switch opts.Engine {
	case EngineFuzzy:
		result = recon.MatchFuzzy(stmtTxs, ledgerTxs, opts.Recon)
	case EngineKey, "":
		result = recon.MatchByKey(stmtTxs, ledgerTxs, opts.Recon)
	default:
		return nil, fmt.Errorf("Run: unknown engine %q", opts.Engine)
	}
	rep.Divergences = result.Divergences
	rep.Matched = result.Matched
	rep.BankResidue = result.BankResidue
	rep.LedgerResidue = result.LedgerResidue
	log.Info().Int("matched", result.Matched).
		Int("divergences", len(result.Divergences)).
		Msg("reconciliation finished")

	if in.Chart != nil {
		rules := in.Rules
		if rules == nil {
			rules = accounts.DefaultRules()
		}
		rep.Validation, rep.ValidationSummary = accounts.Validate(ledgerTxs, in.Chart, rules)
		log.Info().Int("ok", rep.ValidationSummary.OK).
			Int("invalid", rep.ValidationSummary.Invalid).
			Int("unknown", rep.ValidationSummary.Unknown).
			Msg("account validation finished")
	}
	return rep, nil
}

// ParseStatement dispatches one bank-statement file to its parser by
// filename extension.
func ParseStatement(ctx context.Context, f File, strict bool) ([]domain.Transaction, []string, error) {
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv":
		return parser.ParseStatementCSV(f.Data, strict)
	case ".ofx", ".qfx":
		return parser.ParseStatementOFX(f.Data, strict)
	case ".pdf":
		return parser.ParseStatementPDF(ctx, f.Data, strict)
	}
	return nil, nil, fmt.Errorf("ParseStatement: %s: %w", f.Name, parser.ErrUnsupportedFormat)
}
