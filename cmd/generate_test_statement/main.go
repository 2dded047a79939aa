package main

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

func main() {
	// Create new Excel file
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Statement"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		fmt.Printf("Error creating sheet: %v\n", err)
		return
	}

	// Statement metadata rows above the header, like real bank exports
	f.SetCellValue(sheetName, "A1", "Bank")
	f.SetCellValue(sheetName, "B1", "First Bank of Nigeria")
	f.SetCellValue(sheetName, "A2", "Account Number")
	f.SetCellValue(sheetName, "B2", "0123456789")
	f.SetCellValue(sheetName, "A3", "Account Name")
	f.SetCellValue(sheetName, "B3", "Acme Trading Ltd")

	headers := []string{"Date", "Value Date", "Description", "Reference", "Debit", "Credit", "Balance"}
	headerRow := 5
	for i, header := range headers {
		cell := fmt.Sprintf("%s%d", getColumnName(i), headerRow)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName,
		fmt.Sprintf("A%d", headerRow),
		fmt.Sprintf("%s%d", getColumnName(len(headers)-1), headerRow),
		headerStyle)

	// A month of activity: salaries, POS income, transfers, bank charges.
	// Amounts are naira with kobo decimals; debit and credit in separate
	// columns the way Nigerian banks export them.
	testData := [][]interface{}{
		{"2024-03-01", "2024-03-01", "POS SETTLEMENT MERCHANT 4411", "POS-88121", "", "152300.50", "1152300.50"},
		{"2024-03-02", "2024-03-02", "TRF FROM ADEBAYO STORES LTD", "NIP-220344", "", "500000.00", "1652300.50"},
		{"2024-03-03", "2024-03-04", "AIRTIME PURCHASE MTN", "ATM-50912", "5000.00", "", "1647300.50"},
		{"2024-03-05", "2024-03-05", "SALARY MARCH - OKAFOR J", "SAL-2024-03", "185000.00", "", "1462300.50"},
		{"2024-03-05", "2024-03-05", "SALARY MARCH - EZE C", "SAL-2024-03", "210000.00", "", "1252300.50"},
		{"2024-03-08", "2024-03-08", "SMS ALERT CHARGE", "CHG-11203", "52.50", "", "1252248.00"},
		{"2024-03-12", "2024-03-12", "TRF TO LAGOS ELECTRIC PHCN", "NIP-220781", "76400.00", "", "1175848.00"},
		{"2024-03-15", "2024-03-15", "POS SETTLEMENT MERCHANT 4411", "POS-88349", "", "98750.25", "1274598.25"},
		{"2024-03-18", "2024-03-18", "CHEQUE 000231 SUPPLIER PAYMENT", "CHQ-000231", "320000.00", "", "954598.25"},
		{"2024-03-22", "2024-03-22", "TRF FROM ADEBAYO STORES LTD", "NIP-221554", "", "250000.00", "1204598.25"},
		{"2024-03-25", "2024-03-25", "STAMP DUTY", "CHG-11569", "50.00", "", "1204548.25"},
		{"2024-03-28", "2024-03-29", "FUEL PURCHASE TOTAL ENERGIES", "POS-90112", "45200.00", "", "1159348.25"},
		{"2024-03-31", "2024-03-31", "ACCOUNT MAINTENANCE FEE", "CHG-11873", "1057.50", "", "1158290.75"},
	}

	for i, row := range testData {
		rowNum := headerRow + 1 + i
		for j, value := range row {
			cell := fmt.Sprintf("%s%d", getColumnName(j), rowNum)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	// Remove default sheet
	f.DeleteSheet("Sheet1")

	outputPath := filepath.Join(".", "test_statement.xlsx")
	if err := f.SaveAs(outputPath); err != nil {
		fmt.Printf("Error saving file: %v\n", err)
		return
	}

	fmt.Printf("Test statement generated: %s\n", outputPath)
	fmt.Printf("Rows: %d transaction lines\n", len(testData))
}

func getColumnName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}
