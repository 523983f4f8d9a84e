package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/SwayBrasil/rpa-dominio/internal/compare"
	"github.com/SwayBrasil/rpa-dominio/internal/logger"
	"github.com/SwayBrasil/rpa-dominio/internal/parser"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "run":
		runReconcile(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Reconcile CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  reconcile <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse     Parse one statement or ledger file and print the transactions as JSON")
	fmt.Println("  run       Reconcile a bank statement against one or more ledger files")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'reconcile <command> -h' for more information on a command.")
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	strict := fs.Bool("strict", false, "fail on the first parse issue instead of collecting issues")
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		log.Fatal().Msg("Error: parse expects exactly one file argument")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read input file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	txs, issues, err := compare.ParseStatement(ctx, compare.File{Name: path, Data: data}, *strict)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}
	for _, issue := range issues {
		log.Warn().Str("file", path).Msg(issue)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		log.Fatal().Err(err).Msg("Cannot encode output")
	}
}

func runReconcile(log zerolog.Logger) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	statement := fs.String("statement", "", "bank statement file (.csv, .ofx, .qfx or .pdf)")
	chartPath := fs.String("chart", "", "chart-of-accounts CSV; enables account validation")
	engine := fs.String("engine", "key", "reconciliation engine: key or fuzzy")
	tolerance := fs.String("tolerance", "0.01", "amount difference treated as equal")
	window := fs.Int("window", 2, "day window for the fuzzy engine")
	strict := fs.Bool("strict", false, "fail on the first parse issue")
	fs.Parse(os.Args[2:])

	if *statement == "" {
		log.Fatal().Msg("Error: --statement is required")
	}
	if fs.NArg() == 0 {
		log.Fatal().Msg("Error: at least one ledger file argument is required")
	}
	tol, err := decimal.NewFromString(*tolerance)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: --tolerance is not a number")
	}

	in := compare.Inputs{}
	in.Statement.Name = *statement
	if in.Statement.Data, err = os.ReadFile(*statement); err != nil {
		log.Fatal().Err(err).Msg("Cannot read statement file")
	}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read ledger file")
		}
		in.Ledgers = append(in.Ledgers, compare.File{Name: path, Data: data})
	}
	if *chartPath != "" {
		data, err := os.ReadFile(*chartPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot read chart of accounts file")
		}
		if in.Chart, err = parser.ParseChartCSV(data); err != nil {
			log.Fatal().Err(err).Msg("Cannot parse chart of accounts")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	opts := compare.Options{
		Engine: compare.Engine(*engine),
		Strict: *strict,
	}
	opts.Recon.Tolerance = tol
	opts.Recon.DayWindow = *window

	rep, err := compare.Run(ctx, in, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Reconciliation failed")
	}
	printReport(rep)
	if len(rep.Divergences) > 0 {
		os.Exit(2)
	}
}

func printReport(rep *compare.Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Printf("Statement entries: %d   Ledger entries: %d   Matched: %d\n",
		len(rep.StatementTxs), len(rep.LedgerTxs), rep.Matched)

	for file, issues := range rep.Issues {
		for _, issue := range issues {
			yellow.Printf("  issue %s: %s\n", file, issue)
		}
	}

	if len(rep.Divergences) == 0 {
		green.Println("No divergences.")
	} else {
		red.Printf("%d divergences:\n", len(rep.Divergences))
		for _, d := range rep.Divergences {
			red.Printf("  [%s] %s\n", d.Kind, d.Detail)
			if d.Statement != nil {
				fmt.Printf("      statement: %s\n", d.Statement.Summary())
			}
			if d.Ledger != nil {
				fmt.Printf("      ledger:    %s\n", d.Ledger.Summary())
			}
		}
	}

	if rep.ValidationSummary.Total > 0 {
		bold.Printf("Account validation: %d ok, %d invalid, %d unknown\n",
			rep.ValidationSummary.OK, rep.ValidationSummary.Invalid, rep.ValidationSummary.Unknown)
		for _, v := range rep.Validation {
			if v.Status == "ok" {
				continue
			}
			yellow.Printf("  [%s/%s] %s  %s\n", v.Status, v.Reason, v.Transaction.Summary(), v.Detail)
		}
	}
}
