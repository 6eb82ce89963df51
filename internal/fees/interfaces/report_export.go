package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	feeperiod "household-registry/internal/feeperiod/domain"
	fees "household-registry/internal/fees/domain"
)

// BuildPeriodReportPDF renders a collection report for one fee period.
func BuildPeriodReportPDF(period *feeperiod.FeePeriod, stats fees.PeriodStats, obligations []fees.Obligation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fee Collection Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", period.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Category: %s", period.Category))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s to %s", period.StartDate.Format("2006-01-02"), period.EndDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Unit Rate: %.2f (%s)", period.UnitRate, period.BillingMode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.Cell(0, 6, fmt.Sprintf("Total Obligated: %.2f", stats.TotalObligated))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Collected: %.2f", stats.TotalCollected))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Households Obligated: %d", stats.HouseholdsWithObligations))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Households Paid: %d", stats.DistinctHouseholdsPaid))
	pdf.Ln(8)

	// Obligations table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Household", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Collector", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, obligation := range obligations {
		pdf.CellFormat(60, 6, obligation.HouseholdID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", obligation.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, obligation.Collector, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPeriodReportXLSX renders a collection report workbook for one fee period.
func BuildPeriodReportXLSX(period *feeperiod.FeePeriod, stats fees.PeriodStats, obligations []fees.Obligation, payments []fees.Payment) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	obligationsSheet := "obligations"
	paymentsSheet := "payments"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(obligationsSheet)
	f.NewSheet(paymentsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Fee Collection Report")
	_ = f.SetCellValue(summarySheet, "A3", "Period")
	_ = f.SetCellValue(summarySheet, "B3", period.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Category")
	_ = f.SetCellValue(summarySheet, "B4", period.Category)
	_ = f.SetCellValue(summarySheet, "A5", "Start")
	_ = f.SetCellValue(summarySheet, "B5", period.StartDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "End")
	_ = f.SetCellValue(summarySheet, "B6", period.EndDate.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A7", "Unit Rate")
	_ = f.SetCellValue(summarySheet, "B7", period.UnitRate)
	_ = f.SetCellValue(summarySheet, "A8", "Billing Mode")
	_ = f.SetCellValue(summarySheet, "B8", period.BillingMode)
	_ = f.SetCellValue(summarySheet, "A9", "Total Obligated")
	_ = f.SetCellValue(summarySheet, "B9", stats.TotalObligated)
	_ = f.SetCellValue(summarySheet, "A10", "Total Collected")
	_ = f.SetCellValue(summarySheet, "B10", stats.TotalCollected)
	_ = f.SetCellValue(summarySheet, "A11", "Households Obligated")
	_ = f.SetCellValue(summarySheet, "B11", stats.HouseholdsWithObligations)
	_ = f.SetCellValue(summarySheet, "A12", "Households Paid")
	_ = f.SetCellValue(summarySheet, "B12", stats.DistinctHouseholdsPaid)

	_ = f.SetCellValue(obligationsSheet, "A1", "Household")
	_ = f.SetCellValue(obligationsSheet, "B1", "Amount")
	_ = f.SetCellValue(obligationsSheet, "C1", "Covered Months")
	_ = f.SetCellValue(obligationsSheet, "D1", "Collector")
	for i, obligation := range obligations {
		row := i + 2
		_ = f.SetCellValue(obligationsSheet, fmt.Sprintf("A%d", row), obligation.HouseholdID)
		_ = f.SetCellValue(obligationsSheet, fmt.Sprintf("B%d", row), obligation.Amount)
		_ = f.SetCellValue(obligationsSheet, fmt.Sprintf("C%d", row), fmt.Sprint(obligation.CoveredMonths))
		_ = f.SetCellValue(obligationsSheet, fmt.Sprintf("D%d", row), obligation.Collector)
	}

	_ = f.SetCellValue(paymentsSheet, "A1", "Household")
	_ = f.SetCellValue(paymentsSheet, "B1", "Amount")
	_ = f.SetCellValue(paymentsSheet, "C1", "Collector")
	_ = f.SetCellValue(paymentsSheet, "D1", "Paid At")
	for i, payment := range payments {
		row := i + 2
		_ = f.SetCellValue(paymentsSheet, fmt.Sprintf("A%d", row), payment.HouseholdID)
		_ = f.SetCellValue(paymentsSheet, fmt.Sprintf("B%d", row), payment.Amount)
		_ = f.SetCellValue(paymentsSheet, fmt.Sprintf("C%d", row), payment.Collector)
		_ = f.SetCellValue(paymentsSheet, fmt.Sprintf("D%d", row), payment.PaidAt.Format(time.RFC3339))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
