package parser

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ofxSample = `OFXHEADER:100
DATA:OFXSGML
VERSION:102

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<STMTRS>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250310120000[-3:BRT]
<TRNAMT>-150.00
<FITID>20250310001
<MEMO>PIX ENVIADO FULANO
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250312
<TRNAMT>300.00
<FITID>20250312002
<NAME>TED RECEBIDA
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseStatementOFX(t *testing.T) {
	txs, issues, err := ParseStatementOFX([]byte(ofxSample), false)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, txs, 2)

	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 10}, txs[0].Date)
	assert.Equal(t, "-150", txs[0].Amount.String())
	assert.Equal(t, "20250310001", txs[0].Document)
	assert.Equal(t, "PIX ENVIADO FULANO", txs[0].Description)

	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 12}, txs[1].Date)
	assert.Equal(t, "300", txs[1].Amount.String())
	assert.Equal(t, "TED RECEBIDA", txs[1].Description)
}

func TestParseStatementOFXBadBlock(t *testing.T) {
	data := []byte(`<OFX><STMTTRN><TRNAMT>10.00</STMTTRN>
<STMTTRN><DTPOSTED>20250310<TRNAMT>-5.00<MEMO>OK</STMTTRN></OFX>`)

	txs, issues, err := ParseStatementOFX(data, false)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "OK", txs[0].Description)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "DTPOSTED")

	_, _, err = ParseStatementOFX(data, true)
	assert.Error(t, err)
}

func TestParseStatementOFXNoBlocks(t *testing.T) {
	txs, issues, err := ParseStatementOFX([]byte("not an ofx file"), false)
	require.NoError(t, err)
	assert.Empty(t, txs)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "STMTTRN")
}

func TestParseStatementOFXEmpty(t *testing.T) {
	_, _, err := ParseStatementOFX(nil, false)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseOFXDate(t *testing.T) {
	d, err := parseOFXDate("20250310120000[-3:BRT]")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 10}, d)

	_, err = parseOFXDate("2025031")
	assert.Error(t, err)
	_, err = parseOFXDate("20250231")
	assert.Error(t, err)
}
