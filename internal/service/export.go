package service

import (
	"fmt"
	"time"

	"reconcile-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ExportService writes an upload's lines to an Excel workbook for offline
// re-review, optionally restricted to error lines.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

var koboPerNaira = decimal.NewFromInt(100)

func amountToNaira(kobo int64) string {
	return decimal.NewFromInt(kobo).Div(koboPerNaira).StringFixed(2)
}

// ExportLines writes the given lines to outputPath.
func (s *ExportService) ExportLines(lines []models.StatementLine, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Statement Lines"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{
		"Line", "Date", "Value Date", "Description", "Reference", "Type",
		"Amount", "Balance After", "Status", "Duplicate", "Suggested Category",
		"Confidence", "Selected Category", "GL Account", "Journal Number",
		"Notes", "Error",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", columnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", columnName(len(headers)-1)), headerStyle)

	for i, line := range lines {
		row := i + 2
		values := []interface{}{
			line.LineNumber,
			line.TransactionDate.Format("2006-01-02"),
			formatDatePtr(line.ValueDate),
			line.Description,
			strPtr(line.Reference),
			line.TransactionType,
			amountToNaira(line.AmountKobo),
			formatKoboPtr(line.BalanceAfterKobo),
			line.Status,
			line.IsDuplicate,
			strPtr(line.SuggestedCategoryName),
			floatPtr(line.CategoryConfidence),
			intPtr(line.SelectedCategoryID),
			strPtr(line.SuggestedGLAccountCode),
			strPtr(line.ImportedJournalNumber),
			strPtr(line.UserNotes),
			strPtr(line.ErrorMessage),
		}
		for j, value := range values {
			cell := fmt.Sprintf("%s%d", columnName(j), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// columnName converts a 0-based column index to an Excel column name.
func columnName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatKoboPtr(kobo *int64) string {
	if kobo == nil {
		return ""
	}
	return amountToNaira(*kobo)
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtr(i *int) interface{} {
	if i == nil {
		return ""
	}
	return *i
}

func floatPtr(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}
