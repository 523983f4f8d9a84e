package recon

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

func tx(date string, amount string, opts ...func(*domain.Transaction)) domain.Transaction {
	d, err := civil.ParseDate(date)
	if err != nil {
		panic(err)
	}
	t := domain.Transaction{
		Date:   d,
		Amount: decimal.RequireFromString(amount),
	}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func withDoc(doc string) func(*domain.Transaction) {
	return func(t *domain.Transaction) { t.Document = doc }
}

func withDesc(desc string) func(*domain.Transaction) {
	return func(t *domain.Transaction) { t.Description = desc }
}

func withAccount(code string) func(*domain.Transaction) {
	return func(t *domain.Transaction) { t.AccountCode = code }
}

func kinds(divs []domain.Divergence) []domain.DivergenceKind {
	out := make([]domain.DivergenceKind, 0, len(divs))
	for _, d := range divs {
		out = append(out, d.Kind)
	}
	return out
}

func TestMatchByKeyIdenticalEntries(t *testing.T) {
	bank := []domain.Transaction{tx("2025-03-06", "-100.00", withDoc("123"))}
	ledger := []domain.Transaction{tx("2025-03-06", "-100.00", withDoc("123"))}

	res := MatchByKey(bank, ledger, Options{})
	assert.Empty(t, res.Divergences)
	assert.Equal(t, 1, res.Matched)
	assert.Empty(t, res.BankResidue)
	assert.Empty(t, res.LedgerResidue)
}

func TestMatchByKeyDocumentValueMismatch(t *testing.T) {
	bank := []domain.Transaction{tx("2025-03-06", "-100.00", withDoc("123"))}
	ledger := []domain.Transaction{tx("2025-03-06", "-90.00", withDoc("123"))}

	res := MatchByKey(bank, ledger, Options{})
	require.Len(t, res.Divergences, 1)
	assert.Equal(t, domain.ValueMismatch, res.Divergences[0].Kind)
	assert.Equal(t, 0, res.Matched)
	assert.Empty(t, res.BankResidue)
}

func TestMatchByKeyDescriptionMismatchFloor(t *testing.T) {
	// Below the one-real floor the description path stays quiet; the pair
	// then fails the tolerance scan and both sides surface as missing.
	bank := []domain.Transaction{tx("2025-03-06", "-100.50", withDesc("Energia elétrica"))}
	ledger := []domain.Transaction{tx("2025-03-06", "-100.00", withDesc("Energia Elétrica"))}

	res := MatchByKey(bank, ledger, Options{})
	assert.ElementsMatch(t,
		[]domain.DivergenceKind{domain.MissingOnLedger, domain.MissingOnStatement},
		kinds(res.Divergences))

	// Beyond the floor the same pair is a reported mismatch.
	bank[0].Amount = decimal.RequireFromString("-105.00")
	res = MatchByKey(bank, ledger, Options{})
	require.Len(t, res.Divergences, 1)
	assert.Equal(t, domain.ValueMismatch, res.Divergences[0].Kind)
}

func TestMatchByKeyScansPastToleratedCandidate(t *testing.T) {
	// Two ledger entries share the statement entry's document and date. The
	// first agrees on the amount and must not stop the scan; the second is
	// the mismatch to report.
	bank := []domain.Transaction{tx("2025-03-06", "-100.00", withDoc("777"))}
	ledger := []domain.Transaction{
		tx("2025-03-06", "-100.00", withDoc("777")),
		tx("2025-03-06", "-250.00", withDoc("777")),
	}

	res := MatchByKey(bank, ledger, Options{})
	require.Contains(t, kinds(res.Divergences), domain.ValueMismatch)
	for _, d := range res.Divergences {
		if d.Kind == domain.ValueMismatch {
			require.NotNil(t, d.Ledger)
			assert.Equal(t, "-250", d.Ledger.Amount.String())
		}
	}
}

func TestMatchByKeyResiduesAreDisjointAndComplete(t *testing.T) {
	bank := []domain.Transaction{
		tx("2025-03-06", "-100.00", withDesc("PIX Fulano")),
		tx("2025-03-07", "-200.00", withDesc("Boleto energia")),
		tx("2025-03-08", "-300.00", withDesc("Sem par")),
	}
	ledger := []domain.Transaction{
		tx("2025-03-06", "-100.00", withDesc("PIX Fulano")),
		tx("2025-03-07", "-200.00", withDesc("Boleto energia")),
		tx("2025-03-09", "-400.00", withDesc("Só no razão")),
	}

	res := MatchByKey(bank, ledger, Options{})
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, len(bank), res.Matched+len(res.BankResidue))
	assert.Equal(t, len(ledger), res.Matched+len(res.LedgerResidue))
	require.Len(t, res.BankResidue, 1)
	assert.Equal(t, "Sem par", res.BankResidue[0].Description)
	require.Len(t, res.LedgerResidue, 1)
	assert.Equal(t, "Só no razão", res.LedgerResidue[0].Description)
	assert.ElementsMatch(t,
		[]domain.DivergenceKind{domain.MissingOnLedger, domain.MissingOnStatement},
		kinds(res.Divergences))
}

func TestMatchByKeySameDateToleranceFallback(t *testing.T) {
	bank := []domain.Transaction{tx("2025-03-06", "-100.00", withDesc("PIX"))}
	ledger := []domain.Transaction{tx("2025-03-06", "-100.004", withDesc("TED"))}

	res := MatchByKey(bank, ledger, Options{Tolerance: decimal.RequireFromString("0.01")})
	assert.Equal(t, 1, res.Matched)
	assert.Empty(t, res.Divergences)
}

func TestMatchByKeyBalancePass(t *testing.T) {
	closeBank := decimal.RequireFromString("900.00")
	closeLedger := decimal.RequireFromString("850.00")

	bank := []domain.Transaction{tx("2025-03-06", "-100.00", withDesc("PIX"))}
	bank[0].Balance = &closeBank
	ledger := []domain.Transaction{tx("2025-03-06", "-100.00", withDesc("PIX"))}
	ledger[0].Balance = &closeLedger

	res := MatchByKey(bank, ledger, Options{})
	assert.Contains(t, kinds(res.Divergences), domain.BalanceMismatch)
}

func TestMatchByKeyFeeClassification(t *testing.T) {
	bank := []domain.Transaction{}
	ledger := []domain.Transaction{
		tx("2025-03-06", "-25.90", withDesc("Tarifa manutenção conta"), withAccount("1")),
		tx("2025-03-06", "-30.00", withDesc("Tarifa pacote serviços"), withAccount("4101")),
	}

	res := MatchByKey(bank, ledger, Options{})
	n := 0
	for _, d := range res.Divergences {
		if d.Kind == domain.SuspiciousClassification {
			n++
			require.NotNil(t, d.Ledger)
			assert.Equal(t, "1", d.Ledger.AccountCode)
		}
	}
	assert.Equal(t, 1, n)
}
