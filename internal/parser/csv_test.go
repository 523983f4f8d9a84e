package parser

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwayBrasil/rpa-dominio/internal/domain"
)

func TestParseStatementCSVSemicolon(t *testing.T) {
	data := []byte("Data;Histórico;Documento;Valor;Saldo\n" +
		"10/03/2025;PIX RECEBIDO FULANO;abc123;1.500,00;5.000,00\n" +
		"11/03/2025;TARIFA MANUTENÇÃO;;-25,90;4.974,10\n")

	txs, issues, err := ParseStatementCSV(data, false)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, txs, 2)

	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 10}, txs[0].Date)
	assert.Equal(t, "PIX RECEBIDO FULANO", txs[0].Description)
	assert.Equal(t, "abc123", txs[0].Document)
	assert.Equal(t, "1500", txs[0].Amount.String())
	assert.Equal(t, domain.OriginStatement, txs[0].Origin)
	require.NotNil(t, txs[0].Balance)
	assert.Equal(t, "5000", txs[0].Balance.String())

	assert.Equal(t, "-25.9", txs[1].Amount.String())
}

func TestParseStatementCSVDebitCreditColumns(t *testing.T) {
	data := []byte("DATA,DESCRICAO,DEBITO,CREDITO\n" +
		"10/03/2025,COMPRA CARTAO,150.00,\n" +
		"11/03/2025,DEPOSITO,,300.00\n")

	txs, _, err := ParseStatementCSV(data, false)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "-150", txs[0].Amount.String())
	assert.Equal(t, "300", txs[1].Amount.String())
}

func TestParseStatementCSVMissingColumns(t *testing.T) {
	_, _, err := ParseStatementCSV([]byte("Foo;Bar\n1;2\n"), false)
	require.ErrorIs(t, err, ErrNoHeader)

	_, _, err = ParseStatementCSV([]byte("Data;Valor\n10/03/2025;1,00\n"), false)
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestParseStatementCSVBadRows(t *testing.T) {
	data := []byte("Data;Historico;Valor\n" +
		"not-a-date;ALGO;1,00\n" +
		"10/03/2025;;1,00\n" +
		"10/03/2025;OK;2,00\n")

	txs, issues, err := ParseStatementCSV(data, false)
	require.NoError(t, err)
	assert.Len(t, issues, 2)
	require.Len(t, txs, 1)
	assert.Equal(t, "OK", txs[0].Description)

	_, _, err = ParseStatementCSV(data, true)
	assert.Error(t, err)
}

func TestParseStatementCSVDropsZeroAmounts(t *testing.T) {
	data := []byte("Data;Historico;Valor\n" +
		"10/03/2025;SALDO ANTERIOR;0,00\n" +
		"10/03/2025;PIX;10,00\n")

	txs, issues, err := ParseStatementCSV(data, false)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, txs, 1)
	assert.Equal(t, "PIX", txs[0].Description)
}

func TestParseStatementCSVUnparseableAmountDegradesToZero(t *testing.T) {
	data := []byte("Data;Historico;Valor\n" +
		"10/03/2025;ALGO;n/d\n")

	txs, issues, err := ParseStatementCSV(data, false)
	require.NoError(t, err)
	assert.Empty(t, txs)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "unparseable amount")
}

func TestParseStatementCSVEmpty(t *testing.T) {
	_, _, err := ParseStatementCSV([]byte("  \n "), false)
	assert.ErrorIs(t, err, ErrEmptyFile)
}
