package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

// SettlementWorkbook renders a settlement statement as an Excel file
// for the document/export collaborators.
func SettlementWorkbook(settlement *models.Settlement, driver *models.Driver) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Settlement"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	driverName := settlement.DriverID
	if driver != nil {
		driverName = driver.Name
	}

	rows := [][]interface{}{
		{"Settlement", settlement.ID},
		{"Driver", driverName},
		{"Status", settlement.Status},
		{"Loads", fmt.Sprintf("%d", len(settlement.LoadIDs))},
		{},
		{"Gross Pay", amountCell(settlement.GrossPay)},
		{"Advances", amountCell(settlement.Advances)},
		{"Lumper Fees", amountCell(settlement.LumperFees)},
		{"Taxes", amountCell(settlement.Taxes)},
		{"Expense Deductions", amountCell(settlement.ExpenseDeductions)},
		{"Total Deductions", amountCell(settlement.TotalDeductions)},
		{"Net Pay", amountCell(settlement.NetPay)},
	}
	rowIndex := 1
	for _, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIndex)
			f.SetCellValue(sheetName, cell, value)
		}
		rowIndex++
	}

	rowIndex++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), "Expense")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), "Type")
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), "Deducted")
	for _, line := range settlement.Deductions {
		rowIndex++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), line.ExpenseID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), line.ExpenseType)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), amountCell(line.Amount))
	}

	return f, nil
}

// ARAgingWorkbook renders the aging report as an Excel file.
func ARAgingWorkbook(summary map[string]decimal.Decimal, invoices []*models.Invoice, asOf time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "AR Aging"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	f.SetCellValue(sheetName, "A1", "AR Aging as of")
	f.SetCellValue(sheetName, "B1", asOf.Format("2006-01-02"))

	rowIndex := 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), "Bucket")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), "Outstanding")
	for _, bucket := range AgingBuckets {
		rowIndex++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), bucket)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), amountCell(summary[bucket]))
	}

	rowIndex += 2
	headers := []string{"Invoice", "Load", "Issued", "Amount", "Paid", "Outstanding", "Bucket"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, rowIndex)
		f.SetCellValue(sheetName, cell, header)
	}
	for _, invoice := range invoices {
		if invoice.Status == models.InvoiceStatusPaid {
			continue
		}
		rowIndex++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), invoice.InvoiceNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), invoice.LoadID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), invoice.IssueDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), amountCell(invoice.Amount))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), amountCell(invoice.TotalPaid()))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), amountCell(invoice.Outstanding()))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), AgingBucket(invoice, asOf))
	}

	return f, nil
}

func amountCell(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
