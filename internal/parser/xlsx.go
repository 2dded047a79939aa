package parser

import (
	"fmt"
	"strings"

	"reconcile-web/internal/models"
	"reconcile-web/internal/service"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads statements exported as Excel workbooks. It expects the
// same columns as the CSV layout on the first sheet, with an optional
// metadata block (Bank, Account Number, Account Name) above the header row.
type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Format() models.BankFormat {
	return models.BankFormat{
		Code:       "generic_xlsx",
		Name:       "Generic bank Excel export",
		Extensions: []string{".xlsx"},
	}
}

func (p *XLSXParser) Parse(filePath string) (*models.ParsedStatement, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, &service.UnparsableDocumentError{Reason: "cannot open workbook: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &service.UnparsableDocumentError{Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	statement := &models.ParsedStatement{}
	headerIdx := -1
	for i, row := range rows {
		if key, value := metadataPair(row); key != "" {
			applyMetadata(statement, key, value)
			continue
		}
		if columns, err := mapColumns(row); err == nil {
			if _, ok := columns["date"]; ok {
				headerIdx = i
				break
			}
		}
	}
	if headerIdx == -1 {
		return nil, &service.UnparsableDocumentError{Reason: "no header row found"}
	}

	columns, err := mapColumns(rows[headerIdx])
	if err != nil {
		return nil, err
	}

	lineNumber := 0
	for _, row := range rows[headerIdx+1:] {
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
	if len(statement.Lines) == 0 {
		return nil, &service.UnparsableDocumentError{Reason: "no transaction rows below header"}
	}
	return statement, nil
}

// metadataPair recognizes two-cell "Key: Value" metadata rows above the
// transaction table.
func metadataPair(row []string) (string, string) {
	if len(row) < 2 {
		return "", ""
	}
	key := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(row[0]), ":"))
	value := strings.TrimSpace(row[1])
	if value == "" {
		return "", ""
	}
	switch key {
	case "bank", "bank name", "account number", "account no", "account name":
		return key, value
	}
	return "", ""
}

func applyMetadata(statement *models.ParsedStatement, key, value string) {
	v := value
	switch key {
	case "bank", "bank name":
		statement.BankName = &v
	case "account number", "account no":
		statement.AccountNumber = &v
	case "account name":
		statement.AccountName = &v
	}
}
