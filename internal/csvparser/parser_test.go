package csvparser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
	"fjacquet/budget-csv/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T, chunkSize int) *Parser {
	t.Helper()
	profiles, err := profile.LoadBuiltin()
	require.NoError(t, err)
	detector, err := profile.NewDetector(profiles, logging.NewMockLogger())
	require.NoError(t, err)
	return NewParser(detector, chunkSize, logging.NewMockLogger())
}

func parseString(t *testing.T, p *Parser, content string) *models.ParseResult {
	t.Helper()
	result, err := p.ParseReader(context.Background(), strings.NewReader(content), 0)
	require.NoError(t, err)
	return result
}

type txExpect struct {
	date     string
	cents    int64
	merchant string
	typ      models.TransactionType
}

func assertTransactions(t *testing.T, want []txExpect, got []models.ParsedTransaction) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		assert.Equal(t, w.date, got[i].Date, "date of #%d", i)
		assert.Equal(t, w.cents, got[i].AmountCents, "cents of #%d", i)
		assert.Equal(t, w.merchant, got[i].Merchant, "merchant of #%d", i)
		assert.Equal(t, w.typ, got[i].Type, "type of #%d", i)
	}
}

func TestParseMalformedAmountIsRowLocal(t *testing.T) {
	content := "Date,Description,Amount\n" +
		"2025-01-02,Coffee,-4.50\n" +
		"2025-01-03,Lunch,abc\n" +
		"2025-01-04,Books,-20.00\n" +
		"2025-01-05,Salary,1500.00\n" +
		"2025-01-06,Groceries,-63.10\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, models.GenericProfileID, result.DetectedFormat)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "amount", result.Errors[0].Column)
	assert.Equal(t, []string{"2025-01-03", "Lunch", "abc"}, result.Errors[0].Raw)
}

func TestParseUnrecognizedHeaderIsFatal(t *testing.T) {
	p := newTestParser(t, 0)
	result, err := p.ParseReader(context.Background(), strings.NewReader("Foo,Bar,Baz\n1,2,3\n"), 0)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrUnrecognizedFormat))
}

func TestParseChaseChecking(t *testing.T) {
	content := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"DEBIT,01/03/2025,STARBUCKS #123,-4.50,DEBIT_CARD,100.00,\n" +
		"CREDIT,01/05/2025,PAYROLL ACME,2500.00,ACH_CREDIT,2600.00,\n" +
		"DEBIT,1/6/2025,Online Transfer to SAV,-200.00,ACCT_XFER,2400.00,\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, "chase_checking", result.DetectedFormat)
	assert.Zero(t, result.ErrorCount)
	assertTransactions(t, []txExpect{
		{"2025-01-03", -450, "STARBUCKS #123", models.TypeExpense},
		{"2025-01-05", 250000, "PAYROLL ACME", models.TypeIncome},
		{"2025-01-06", -20000, "Online Transfer to SAV", models.TypeTransfer},
	}, result.Transactions)
}

func TestParseTypeColumnOverridesSign(t *testing.T) {
	content := "Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n" +
		"01/02/2025,01/03/2025,AMAZON MKTP,Shopping,Sale,-23.99,\n" +
		"01/10/2025,01/10/2025,Payment Thank You-Mobile,,Payment,500.00,\n" +
		"01/11/2025,01/12/2025,AMAZON MKTP,Shopping,Return,23.99,  refund  \n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, "chase_credit", result.DetectedFormat)
	assertTransactions(t, []txExpect{
		{"2025-01-02", -2399, "AMAZON MKTP", models.TypeExpense},
		{"2025-01-10", 50000, "Payment Thank You-Mobile", models.TypeTransfer},
		{"2025-01-11", 2399, "AMAZON MKTP", models.TypeIncome},
	}, result.Transactions)
	assert.Nil(t, result.Transactions[0].Description)
	require.NotNil(t, result.Transactions[2].Description)
	assert.Equal(t, "refund", *result.Transactions[2].Description)
}

func TestParseInvertedSignProfile(t *testing.T) {
	content := "Trans. Date,Post Date,Description,Amount,Category\n" +
		"01/02/2025,01/02/2025,SHELL OIL,45.00,Gasoline\n" +
		"01/05/2025,01/05/2025,INTERNET PAYMENT,-100.00,Payments\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, "discover", result.DetectedFormat)
	assertTransactions(t, []txExpect{
		{"2025-01-02", -4500, "SHELL OIL", models.TypeExpense},
		{"2025-01-05", 10000, "INTERNET PAYMENT", models.TypeIncome},
	}, result.Transactions)
}

func TestParseDebitCreditColumns(t *testing.T) {
	content := "Transaction Date,Posted Date,Card No.,Description,Category,Debit,Credit\n" +
		"2025-01-02,2025-01-03,1234,UBER TRIP,Other Travel,12.34,\n" +
		"2025-01-04,2025-01-04,1234,CAPITAL ONE PAYMENT,Payment/Credit,,300.00\n" +
		"2025-01-05,2025-01-05,1234,NOTHING,Other,,\n" +
		"2025-01-06,2025-01-06,1234,BOTH,Other,1.00,2.00\n" +
		"2025-01-07,2025-01-07,1234,BAD,Other,abc,\n" +
		"2025-01-08,2025-01-08,1234,ZERO CREDIT,Other,5.00,0.00\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, "capital_one", result.DetectedFormat)
	assertTransactions(t, []txExpect{
		{"2025-01-02", -1234, "UBER TRIP", models.TypeExpense},
		{"2025-01-04", 30000, "CAPITAL ONE PAYMENT", models.TypeIncome},
		{"2025-01-08", -500, "ZERO CREDIT", models.TypeExpense},
	}, result.Transactions)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Equal(t, "amount", result.Errors[0].Column)
	assert.Contains(t, result.Errors[0].Message, "required")
	assert.Equal(t, 5, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Message, "both debit and credit")
	assert.Equal(t, 6, result.Errors[2].Row)
	assert.Equal(t, "debit", result.Errors[2].Column)
}

func TestParseGenericSignsBlankRowsAndMerchant(t *testing.T) {
	content := "Date,Description,Amount\n" +
		"2025-01-02,Coffee,(4.50)\n" +
		"2025-01-03,Refund,+10.00\n" +
		",,\n" +
		"2025-01-04,  Salary  ,2000\n" +
		"01/05/2025,Mixed formats,\"$1,234.56\"\n" +
		"2025-01-06,   ,5.00\n" +
		"not a date,Broken,1.00\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, 6, result.TotalRows)
	assertTransactions(t, []txExpect{
		{"2025-01-02", -450, "Coffee", models.TypeExpense},
		{"2025-01-03", 1000, "Refund", models.TypeIncome},
		{"2025-01-04", 200000, "Salary", models.TypeIncome},
		{"2025-01-05", 123456, "Mixed formats", models.TypeIncome},
	}, result.Transactions)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 7, result.Errors[0].Row)
	assert.Equal(t, "merchant", result.Errors[0].Column)
	assert.Equal(t, 8, result.Errors[1].Row)
	assert.Equal(t, "date", result.Errors[1].Column)
}

func TestParseEmptyLinesKeepPhysicalRowNumbers(t *testing.T) {
	content := "Date,Description,Amount\n" +
		"2025-01-02,Coffee,-4.50\n" +
		"\n" +
		"2025-01-03,Lunch,abc\n" +
		",,\n" +
		"2025-01-04,Books,xyz\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, 3, result.TotalRows)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Equal(t, 6, result.Errors[1].Row)
}

func TestParseAmountTooLargeIsRowError(t *testing.T) {
	content := "Date,Description,Amount\n" +
		"2025-01-02,Coffee,-4.50\n" +
		"2025-01-04,Jackpot,99999999999999999999\n"

	result := parseString(t, newTestParser(t, 0), content)

	require.Len(t, result.Transactions, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "amount", result.Errors[0].Column)
	assert.Contains(t, result.Errors[0].Message, "too large")
}

func TestTableLine(t *testing.T) {
	table := &Table{Rows: [][]string{{"a"}, {"b"}}, Lines: []int{3}}
	assert.Equal(t, 3, table.Line(0))
	assert.Equal(t, 3, table.Line(1))

	bare := &Table{Rows: [][]string{{"a"}}}
	assert.Equal(t, 2, bare.Line(0))
}

func TestParseSemicolonEuropeanExport(t *testing.T) {
	content := "Booking Date;Value Date;Counterparty;Description;Amount\n" +
		"05-03-2024;06-03-2024;Bakery Muller;Bread;-3,50\n" +
		"01.04.2024;01.04.2024;Employer AG;Salary April;1.250,00\n"

	result := parseString(t, newTestParser(t, 0), content)

	assert.Equal(t, "european_semicolon", result.DetectedFormat)
	assertTransactions(t, []txExpect{
		{"2024-03-05", -350, "Bakery Muller", models.TypeExpense},
		{"2024-04-01", 125000, "Employer AG", models.TypeIncome},
	}, result.Transactions)
	require.NotNil(t, result.Transactions[0].Description)
	assert.Equal(t, "Bread", *result.Transactions[0].Description)
}

func TestParseDescriptionOnlyProfileUsesDescriptionAsMerchant(t *testing.T) {
	custom := profile.Profile{
		ID: "memo_bank", DateFormats: []string{"YYYY-MM-DD"},
		Columns: []profile.Column{
			{Field: profile.FieldDate, Aliases: []string{"When"}, Required: true},
			{Field: profile.FieldDescription, Aliases: []string{"Text"}, Required: true},
			{Field: profile.FieldAmount, Aliases: []string{"Value"}, Required: true},
		},
	}
	detector, err := profile.NewDetector([]profile.Profile{custom}, logging.NewMockLogger())
	require.NoError(t, err)
	p := NewParser(detector, 0, logging.NewMockLogger())

	result := parseString(t, p, "When,Text,Value\n2025-02-01,Rent February,-1200\n")

	assertTransactions(t, []txExpect{{"2025-02-01", -120000, "Rent February", models.TypeExpense}}, result.Transactions)
	assert.Nil(t, result.Transactions[0].Description)
}

func TestParseChunkingDoesNotChangeOutput(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for i := 0; i < 23; i++ {
		if i%7 == 3 {
			b.WriteString("2025-01-02,Bad,xyz\n")
			continue
		}
		b.WriteString("2025-01-02,Shop,-1.00\n")
	}
	content := b.String()

	whole := parseString(t, newTestParser(t, 1000), content)
	chunked := parseString(t, newTestParser(t, 2), content)

	assert.Equal(t, whole, chunked)
	assert.Equal(t, 23, chunked.TotalRows)
	assert.Equal(t, 3, chunked.ErrorCount)
}

func TestParseCancelledContextDiscardsResult(t *testing.T) {
	p := newTestParser(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.ParseReader(ctx, strings.NewReader("Date,Description,Amount\n2025-01-02,Shop,-1.00\n"), 0)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadTable(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		delimiter rune
		wantDelim rune
		wantRows  int
		wantErr   bool
	}{
		{"comma", "a,b,c\n1,2,3\n", 0, ',', 1, false},
		{"semicolon", "a;b;c\n1;2;3\n", 0, ';', 1, false},
		{"tab", "a\tb\tc\n1\t2\t3\n", 0, '\t', 1, false},
		{"pipe", "a|b|c\n", 0, '|', 0, false},
		{"quoted commas do not count", "\"a,x,y\";b;c\n", 0, ';', 0, false},
		{"byte order mark", "\xef\xbb\xbfa,b\n1,2\n", 0, ',', 1, false},
		{"explicit delimiter", "a;b,c\n", ',', ',', 0, false},
		{"leading blank line", "\n\na;b\n1;2\n", 0, ';', 1, false},
		{"empty", "", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadTable(strings.NewReader(tt.content), tt.delimiter)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelim, table.Delimiter)
			assert.Len(t, table.Rows, tt.wantRows)
			assert.Equal(t, "a", strings.Trim(table.Header[0], `"`)[:1])
		})
	}
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(good, []byte("Date,Description,Amount\n2025-01-02,Shop,-1.00\n"), 0600))
	require.NoError(t, os.WriteFile(bad, []byte("Foo,Bar\n1,2\n"), 0600))
	missing := filepath.Join(dir, "missing.csv")

	p := newTestParser(t, 0)
	results, err := p.ParseFiles(context.Background(), []string{good, bad, missing}, 0, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, good, results[0].Path)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 1, results[0].Result.SuccessCount)

	assert.ErrorIs(t, results[1].Err, parsererror.ErrUnrecognizedFormat)
	assert.Error(t, results[2].Err)
	assert.Nil(t, results[2].Result)
}
