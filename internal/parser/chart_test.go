package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChartCSV(t *testing.T) {
	data := []byte("Código;Descrição;Origem;Ativo\n" +
		"4101;Despesas bancárias;ledger;sim\n" +
		"3101;Conta encerrada;ledger;não\n" +
		";sem código;;\n")

	chart, err := ParseChartCSV(data)
	require.NoError(t, err)
	assert.Equal(t, 2, chart.Len())

	acc, ok := chart.Lookup("4101", "ledger")
	require.True(t, ok)
	assert.Equal(t, "Despesas bancárias", acc.Name)

	_, ok = chart.Lookup("3101", "ledger")
	assert.False(t, ok, "inactive accounts stay out of lookups")
}

func TestParseChartCSVWithoutOptionalColumns(t *testing.T) {
	data := []byte("conta,nome\n2.112,Impostos a recolher\n")

	chart, err := ParseChartCSV(data)
	require.NoError(t, err)

	acc, ok := chart.Lookup("2.112", "")
	require.True(t, ok)
	assert.True(t, acc.Active)
	assert.Equal(t, "Impostos a recolher", acc.Name)
}

func TestParseChartCSVMissingColumns(t *testing.T) {
	_, err := ParseChartCSV([]byte("foo;bar\n1;2\n"))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ParseChartCSV([]byte(" \n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}
