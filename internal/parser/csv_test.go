package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reconcile-web/internal/models"
	"reconcile-web/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVParserDebitCreditColumns(t *testing.T) {
	path := writeCSV(t, `Date,Value Date,Description,Reference,Debit,Credit,Balance
2024-03-01,2024-03-01,POS SETTLEMENT MERCHANT 4411,POS-88121,,152300.50,1152300.50
2024-03-03,2024-03-04,AIRTIME PURCHASE MTN,ATM-50912,5000.00,,1147300.50
`)

	statement, err := NewCSVParser().Parse(path)
	require.NoError(t, err)
	require.Len(t, statement.Lines, 2)

	first := statement.Lines[0]
	assert.Equal(t, 1, first.LineNumber)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.TransactionDate)
	assert.Equal(t, models.TxnTypeCredit, first.TransactionType)
	assert.Equal(t, int64(15230050), first.AmountKobo)
	require.NotNil(t, first.Reference)
	assert.Equal(t, "POS-88121", *first.Reference)
	require.NotNil(t, first.BalanceAfterKobo)
	assert.Equal(t, int64(115230050), *first.BalanceAfterKobo)

	second := statement.Lines[1]
	assert.Equal(t, models.TxnTypeDebit, second.TransactionType)
	assert.Equal(t, int64(500000), second.AmountKobo)
	require.NotNil(t, second.ValueDate)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), *second.ValueDate)
}

func TestCSVParserSignedAmountColumn(t *testing.T) {
	path := writeCSV(t, `Date,Description,Amount
2024-03-01,TRANSFER IN,2500.00
2024-03-02,TRANSFER OUT,-1200.00
`)

	statement, err := NewCSVParser().Parse(path)
	require.NoError(t, err)
	require.Len(t, statement.Lines, 2)

	assert.Equal(t, models.TxnTypeCredit, statement.Lines[0].TransactionType)
	assert.Equal(t, int64(250000), statement.Lines[0].AmountKobo)
	assert.Equal(t, models.TxnTypeDebit, statement.Lines[1].TransactionType)
	assert.Equal(t, int64(120000), statement.Lines[1].AmountKobo)
}

func TestCSVParserHeaderAliases(t *testing.T) {
	path := writeCSV(t, `Txn Date,Narration,Money Out,Money In
01/03/2024,SALARY PAYMENT,185000.00,
`)

	statement, err := NewCSVParser().Parse(path)
	require.NoError(t, err)
	require.Len(t, statement.Lines, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), statement.Lines[0].TransactionDate)
	assert.Equal(t, models.TxnTypeDebit, statement.Lines[0].TransactionType)
	assert.Equal(t, "SALARY PAYMENT", statement.Lines[0].Description)
}

func TestCSVParserSkipsBlankRows(t *testing.T) {
	path := writeCSV(t, `Date,Description,Amount
2024-03-01,FIRST,100.00
,,
2024-03-02,SECOND,200.00
`)

	statement, err := NewCSVParser().Parse(path)
	require.NoError(t, err)
	require.Len(t, statement.Lines, 2)
	assert.Equal(t, 1, statement.Lines[0].LineNumber)
	assert.Equal(t, 2, statement.Lines[1].LineNumber)
}

func TestCSVParserMissingRequiredColumns(t *testing.T) {
	var unparsable *service.UnparsableDocumentError

	_, err := NewCSVParser().Parse(writeCSV(t, "Description,Amount\nFOO,1.00\n"))
	assert.ErrorAs(t, err, &unparsable)

	_, err = NewCSVParser().Parse(writeCSV(t, "Date,Amount\n2024-03-01,1.00\n"))
	assert.ErrorAs(t, err, &unparsable)

	_, err = NewCSVParser().Parse(writeCSV(t, "Date,Description\n2024-03-01,FOO\n"))
	assert.ErrorAs(t, err, &unparsable)
}

func TestCSVParserHeaderOnly(t *testing.T) {
	var unparsable *service.UnparsableDocumentError
	_, err := NewCSVParser().Parse(writeCSV(t, "Date,Description,Amount\n"))
	assert.ErrorAs(t, err, &unparsable)
}

func TestCSVParserBadDate(t *testing.T) {
	var unparsable *service.UnparsableDocumentError
	_, err := NewCSVParser().Parse(writeCSV(t, "Date,Description,Amount\nnot-a-date,FOO,1.00\n"))
	assert.ErrorAs(t, err, &unparsable)
}

func TestRegistryResolvesByExtension(t *testing.T) {
	registry := DefaultRegistry()

	formats := registry.SupportedFormats()
	require.Len(t, formats, 2)
	assert.Equal(t, "generic_csv", formats[0].Code)

	path := writeCSV(t, "Date,Description,Amount\n2024-03-01,FOO,1.00\n")
	statement, err := registry.Parse(path, "Statement.CSV")
	require.NoError(t, err)
	assert.Len(t, statement.Lines, 1)
}

func TestRegistryUnknownExtension(t *testing.T) {
	registry := DefaultRegistry()

	var unparsable *service.UnparsableDocumentError
	_, err := registry.Parse("/tmp/whatever.pdf", "whatever.pdf")
	assert.ErrorAs(t, err, &unparsable)
}
