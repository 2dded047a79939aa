package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"reconcile-web/internal/models"
	"reconcile-web/internal/service"
)

// CSVParser reads the common bank CSV export layout:
// Date, Value Date, Description, Reference, Debit, Credit, Balance.
// Column order is resolved from the header row, so extra columns and
// reordered layouts still parse.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Format() models.BankFormat {
	return models.BankFormat{
		Code:       "generic_csv",
		Name:       "Generic bank CSV export",
		Extensions: []string{".csv"},
	}
}

// header aliases, lowercased
var csvColumns = map[string][]string{
	"date":        {"date", "transaction date", "txn date", "posting date"},
	"value_date":  {"value date", "val date"},
	"description": {"description", "narration", "details", "remarks"},
	"reference":   {"reference", "ref", "reference number", "transaction ref"},
	"debit":       {"debit", "withdrawal", "dr", "money out"},
	"credit":      {"credit", "deposit", "cr", "money in"},
	"balance":     {"balance", "running balance", "balance after"},
	"amount":      {"amount"},
	"type":        {"type", "transaction type", "dr/cr"},
}

func (p *CSVParser) Parse(filePath string) (*models.ParsedStatement, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening statement file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &service.UnparsableDocumentError{Reason: "malformed CSV: " + err.Error()}
	}
	if len(rows) < 2 {
		return nil, &service.UnparsableDocumentError{Reason: "file must contain a header row and at least one data row"}
	}

	columns, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	statement := &models.ParsedStatement{}
	lineNumber := 0
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		lineNumber++
		line, err := buildLine(columns, row, lineNumber)
		if err != nil {
			return nil, err
		}
		statement.Lines = append(statement.Lines, *line)
	}
	return statement, nil
}

type columnMap map[string]int

func mapColumns(header []string) (columnMap, error) {
	columns := columnMap{}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for key, aliases := range csvColumns {
			for _, alias := range aliases {
				if name == alias {
					if _, taken := columns[key]; !taken {
						columns[key] = i
					}
				}
			}
		}
	}

	if _, ok := columns["date"]; !ok {
		return nil, &service.UnparsableDocumentError{Reason: "no date column found in header"}
	}
	if _, ok := columns["description"]; !ok {
		return nil, &service.UnparsableDocumentError{Reason: "no description column found in header"}
	}
	_, hasDebit := columns["debit"]
	_, hasCredit := columns["credit"]
	_, hasAmount := columns["amount"]
	if !hasDebit && !hasCredit && !hasAmount {
		return nil, &service.UnparsableDocumentError{Reason: "no debit/credit or amount column found in header"}
	}
	return columns, nil
}

func buildLine(columns columnMap, row []string, lineNumber int) (*models.RawLine, error) {
	cell := func(key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, err := parseDate(cell("date"))
	if err != nil {
		return nil, err
	}

	line := &models.RawLine{
		LineNumber:      lineNumber,
		TransactionDate: date,
		Description:     cell("description"),
	}

	if raw := cell("value_date"); raw != "" {
		if valueDate, err := parseDate(raw); err == nil {
			line.ValueDate = &valueDate
		}
	}
	if ref := cell("reference"); ref != "" {
		line.Reference = &ref
	}

	debit, credit := cell("debit"), cell("credit")
	switch {
	case debit != "" && !isZeroAmount(debit):
		amount, err := parseAmountKobo(debit)
		if err != nil {
			return nil, err
		}
		line.AmountKobo = abs64(amount)
		line.TransactionType = models.TxnTypeDebit
	case credit != "" && !isZeroAmount(credit):
		amount, err := parseAmountKobo(credit)
		if err != nil {
			return nil, err
		}
		line.AmountKobo = abs64(amount)
		line.TransactionType = models.TxnTypeCredit
	default:
		// Single signed amount column: negative is an outflow.
		raw := cell("amount")
		if raw == "" {
			return nil, &service.UnparsableDocumentError{
				Reason: fmt.Sprintf("line %d has no amount", lineNumber),
			}
		}
		amount, err := parseAmountKobo(raw)
		if err != nil {
			return nil, err
		}
		if amount < 0 {
			line.TransactionType = models.TxnTypeDebit
		} else {
			line.TransactionType = models.TxnTypeCredit
		}
		line.AmountKobo = abs64(amount)
	}

	if raw := cell("balance"); raw != "" {
		if balance, err := parseAmountKobo(raw); err == nil {
			line.BalanceAfterKobo = &balance
		}
	}

	return line, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isZeroAmount(raw string) bool {
	kobo, err := parseAmountKobo(raw)
	return err == nil && kobo == 0
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
