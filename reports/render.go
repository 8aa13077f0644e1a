package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
	"github.com/shopspring/decimal"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// row is one document line in a rendered report, shared by the PDF and XLSX
// renderers.
type row struct {
	InvoiceNo string
	Date      string
	Party     string
	Store     string
	Payment   string
	Amount    decimal.Decimal
}

// Render produces the report file for a request and returns the bytes, the
// content type and the object key it should be stored under.
func Render(ctx context.Context, report models.Report) ([]byte, string, string, error) {
	rows, total, err := collectRows(ctx, report)
	if err != nil {
		return nil, "", "", err
	}

	title := fmt.Sprintf("%s Report %s to %s",
		reportTitle(report.ReportType),
		report.StartDate.Format("2006-01-02"),
		report.EndDate.Format("2006-01-02"))

	var data []byte
	var contentType, ext string
	switch report.Format {
	case models.ReportFormatXLSX:
		data, err = renderXLSX(title, rows, total)
		contentType, ext = contentTypeXLSX, "xlsx"
	case models.ReportFormatPDF:
		data, err = renderPDF(title, rows, total)
		contentType, ext = contentTypePDF, "pdf"
	default:
		return nil, "", "", fmt.Errorf("unsupported report format %q", report.Format)
	}
	if err != nil {
		return nil, "", "", err
	}

	objectKey := fmt.Sprintf("reports/%s_%d_%d.%s",
		strings.ToLower(string(report.ReportType)), report.ID, time.Now().Unix(), ext)
	return data, contentType, objectKey, nil
}

func reportTitle(t models.ReportType) string {
	switch t {
	case models.ReportTypePurchase:
		return "Purchase"
	case models.ReportTypePurchaseReturn:
		return "Purchase Return"
	case models.ReportTypeSale:
		return "Sale"
	case models.ReportTypeSaleReturn:
		return "Sale Return"
	}
	return string(t)
}

func collectRows(ctx context.Context, report models.Report) ([]row, decimal.Decimal, error) {
	switch report.ReportType {
	case models.ReportTypePurchase:
		return purchaseRows(ctx, report, false)
	case models.ReportTypePurchaseReturn:
		return purchaseRows(ctx, report, true)
	case models.ReportTypeSale:
		return saleRows(ctx, report, false)
	case models.ReportTypeSaleReturn:
		return saleRows(ctx, report, true)
	}
	return nil, decimal.Zero, fmt.Errorf("unsupported report type %q", report.ReportType)
}

func purchaseRows(ctx context.Context, report models.Report, isReturn bool) ([]row, decimal.Decimal, error) {
	db := config.GetDB()
	var purchases []models.Purchase
	if err := db.WithContext(ctx).
		Preload("Supplier").Preload("Store").
		Where("is_return = ?", isReturn).
		Where("DATE(date) >= DATE(?) AND DATE(date) <= DATE(?)", report.StartDate, report.EndDate).
		Order("date ASC, id ASC").
		Find(&purchases).Error; err != nil {
		return nil, decimal.Zero, err
	}

	rows := make([]row, 0, len(purchases))
	total := decimal.Zero
	for _, p := range purchases {
		r := row{
			InvoiceNo: p.InvoiceNo,
			Date:      p.Date.Format("2006-01-02"),
			Payment:   string(p.PaymentType),
			Amount:    p.TotalAmount,
		}
		if p.Supplier != nil {
			r.Party = p.Supplier.Name
		}
		if p.Store != nil {
			r.Store = p.Store.Name
		}
		rows = append(rows, r)
		total = total.Add(p.TotalAmount)
	}
	return rows, total, nil
}

func saleRows(ctx context.Context, report models.Report, isReturn bool) ([]row, decimal.Decimal, error) {
	db := config.GetDB()
	var sales []models.Sale
	if err := db.WithContext(ctx).
		Preload("Customer").Preload("Store").
		Where("is_return = ?", isReturn).
		Where("DATE(date) >= DATE(?) AND DATE(date) <= DATE(?)", report.StartDate, report.EndDate).
		Order("date ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, decimal.Zero, err
	}

	rows := make([]row, 0, len(sales))
	total := decimal.Zero
	for _, s := range sales {
		r := row{
			InvoiceNo: s.InvoiceNo,
			Date:      s.Date.Format("2006-01-02"),
			Party:     "Walk-in",
			Payment:   string(s.PaymentMethod),
			Amount:    s.FinalAmount,
		}
		if s.Customer != nil {
			r.Party = s.Customer.Name
		}
		if s.Store != nil {
			r.Store = s.Store.Name
		}
		rows = append(rows, r)
		total = total.Add(s.FinalAmount)
	}
	return rows, total, nil
}
