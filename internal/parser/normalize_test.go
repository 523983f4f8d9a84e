package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents folded", "Transferência Enviada", "transferencia enviada"},
		{"document counter removed", "PIX DOC 12345 Fulano", "pix fulano"},
		{"cnpj removed", "Empresa 12.345.678/0001-90 LTDA", "empresa ltda"},
		{"payment shorthand removed", "Pagto 123 Fornecedor", "fornecedor"},
		{"masked bullets removed", "Cartão final ••••1234", "cartao final 1234"},
		{"whitespace collapsed", "  TED   RECEBIDA  ", "ted recebida"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescription(tt.in))
		})
	}
}

func TestNormalizeDescriptionIdempotent(t *testing.T) {
	samples := []string{
		"Transferência enviada pelo Pix - Fulano de Tal",
		"PAGTO 42 Energia Elétrica",
		"TARIFA MANUTENÇÃO CONTA",
		"",
	}
	for _, s := range samples {
		once := NormalizeDescription(s)
		assert.Equal(t, once, NormalizeDescription(once), "input %q", s)
	}
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "PIX Recebido", CollapseSpaces("  PIX \t Recebido \n"))
	assert.Equal(t, "", CollapseSpaces("   "))
}

func TestFoldColumn(t *testing.T) {
	assert.Equal(t, "DATA LANCAMENTO", foldColumn(" Data Lançamento "))
	assert.Equal(t, "DESCRICAO", foldColumn("Descrição"))
}
