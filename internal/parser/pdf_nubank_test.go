package parser

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNubankMonthLines(t *testing.T) {
	lines := []string{
		"EXTRATO NUBANK",
		"05 MAR 2025 Transferência enviada pelo Pix Fulano de Tal -1.234,56",
		"06 MAR 2025 Pagamento de boleto efetuado 430,00",
		"Total de entradas + 12.763,60",
	}
	txs, issues := parseNubank(nil, lines)
	assert.Empty(t, issues)
	require.Len(t, txs, 2)

	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 5}, txs[0].Date)
	assert.Equal(t, "-1234.56", txs[0].Amount.String())
	assert.Contains(t, txs[0].Description, "Transferência enviada")

	assert.Equal(t, "430", txs[1].Amount.String())
}

func TestNubankSlashLines(t *testing.T) {
	lines := []string{
		"10/03/2025 Compra no débito supermercado R$ 56,90",
	}
	txs, issues := parseNubank(nil, lines)
	assert.Empty(t, issues)
	require.Len(t, txs, 1)
	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 10}, txs[0].Date)
	assert.Equal(t, "56.9", txs[0].Amount.String())
}

func TestNubankTransferBlocks(t *testing.T) {
	lines := []string{
		"05 MAR 2025",
		"Transferência enviada pelo Pix - Fulano de Tal",
		"1.234,56",
		"Transferência recebida de Sicrano 2.000,00",
	}
	txs, issues := parseNubank(nil, lines)
	assert.Empty(t, issues)
	require.Len(t, txs, 2)

	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 5}, txs[0].Date)
	assert.Equal(t, "1234.56", txs[0].Amount.String())
	assert.Equal(t, "Transferência enviada pelo Pix - Fulano de Tal", txs[0].Description)

	assert.Equal(t, "2000", txs[1].Amount.String())
	assert.Equal(t, "Transferência recebida de Sicrano", txs[1].Description)
}

func TestNubankDateCarryExpires(t *testing.T) {
	lines := []string{"05 MAR 2025"}
	for i := 0; i < nubankDateCarry+1; i++ {
		lines = append(lines, "linha de preenchimento qualquer")
	}
	lines = append(lines, "Transferência enviada pelo Pix - Fulano 1.234,56")

	txs, _ := parseNubank(nil, lines)
	assert.Empty(t, txs)
}

func TestCleanNubankDescription(t *testing.T) {
	in := "• Transferência enviada - NU PAGAMENTOS S.A. Agência: 0001 Conta: 123"
	assert.Equal(t, "Transferência enviada", cleanNubankDescription(in))
}

func TestDetectBank(t *testing.T) {
	assert.Equal(t, bankNubank, detectBank([]string{"NU PAGAMENTOS S.A."}))
	assert.Equal(t, bankSicoob, detectBank([]string{"SICOOB - Sistema de Cooperativas"}))
	assert.Equal(t, bankUnknown, detectBank([]string{"Banco Qualquer"}))
}
