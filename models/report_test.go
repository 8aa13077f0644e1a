package models_test

import (
	"testing"
	"time"

	"bitbucket.org/truebittech/retail_backend/models"
)

func TestGenerateReportEnqueuesUpload(t *testing.T) {
	ctx := openTestDB(t)

	start := time.Now().AddDate(0, -1, 0)
	end := time.Now()
	report, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: models.ReportTypeSale,
		Format:     models.ReportFormatXLSX,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}
	if report.Status != models.ReportStatusPending {
		t.Fatalf("status = %q, want PENDING", report.Status)
	}
	if report.FileUrl != nil {
		t.Fatalf("file url = %v, want nil before rendering", *report.FileUrl)
	}

	// The render request commits together with the report row.
	status, err := models.GetOutboxStatus(ctx, "REPORT", report.ID)
	if err != nil {
		t.Fatalf("outbox status: %v", err)
	}
	if status.Kind != string(models.NotificationKindReportUpload) {
		t.Fatalf("outbox kind = %q, want REPORT_UPLOAD", status.Kind)
	}
	if status.PublishStatus != models.PublishStatusPending {
		t.Fatalf("outbox status = %q, want PENDING", status.PublishStatus)
	}
}

func TestGenerateReportRejectsInvalidInput(t *testing.T) {
	ctx := openTestDB(t)

	now := time.Now()
	if _, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: "INVENTORY",
		Format:     models.ReportFormatPDF,
		StartDate:  now,
		EndDate:    now,
	}); err == nil {
		t.Fatal("unknown report type accepted, want error")
	}
	if _, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: models.ReportTypeSale,
		Format:     models.ReportFormatPDF,
		StartDate:  now,
		EndDate:    now.AddDate(0, 0, -1),
	}); err == nil {
		t.Fatal("inverted date range accepted, want error")
	}
}

func TestMarkReportReadyAndFailed(t *testing.T) {
	ctx := openTestDB(t)

	report, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: models.ReportTypePurchase,
		Format:     models.ReportFormatPDF,
		StartDate:  time.Now().AddDate(0, 0, -7),
		EndDate:    time.Now(),
	})
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}

	if err := models.MarkReportFailed(ctx, report.ID, "render blew up"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	fresh, _ := models.GetReport(ctx, report.ID)
	if fresh.Status != models.ReportStatusFailed {
		t.Fatalf("status = %q, want FAILED", fresh.Status)
	}
	if fresh.ErrorDetail == nil || *fresh.ErrorDetail != "render blew up" {
		t.Fatalf("error detail = %v", fresh.ErrorDetail)
	}

	// A later successful retry flips the row back and clears the error.
	if err := models.MarkReportReady(ctx, report.ID, "https://storage.example.com/reports/a.pdf"); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	fresh, _ = models.GetReport(ctx, report.ID)
	if fresh.Status != models.ReportStatusReady {
		t.Fatalf("status = %q, want READY", fresh.Status)
	}
	if fresh.FileUrl == nil || *fresh.FileUrl != "https://storage.example.com/reports/a.pdf" {
		t.Fatalf("file url = %v", fresh.FileUrl)
	}
	if fresh.ErrorDetail != nil {
		t.Fatalf("error detail = %v, want nil after success", *fresh.ErrorDetail)
	}
}

func TestReportSummaryNetsReturns(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Idli Rice 5kg", "320", models.TaxTypeInclusive, nil)

	rate := dec("100")
	date := time.Now()
	purchase, err := models.CreatePurchase(ctx, models.NewPurchase{
		Date:       &date,
		SupplierId: supplier.ID,
		Items:      []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("10"), Rate: &rate}},
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if _, err := models.CreatePurchaseReturn(ctx, models.NewPurchaseReturn{
		ReturnReferenceId: purchase.ID,
		Date:              &date,
		Items:             []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("4"), Rate: &rate}},
	}); err != nil {
		t.Fatalf("create purchase return: %v", err)
	}

	sale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("3"), Rate: dec("300")}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	returnedSale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("1"), Rate: dec("200")}},
	})
	if err != nil {
		t.Fatalf("create second sale: %v", err)
	}
	if _, err := models.CreateSaleReturn(ctx, returnedSale.ID); err != nil {
		t.Fatalf("create sale return: %v", err)
	}
	_ = sale

	summary, err := models.GetReportSummary(ctx, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	wantDecimal(t, "gross purchase", summary.GrossPurchase, "1000")
	wantDecimal(t, "purchase return", summary.PurchaseReturn, "400")
	wantDecimal(t, "net purchase", summary.NetPurchase, "600")
	wantDecimal(t, "gross sale", summary.GrossSale, "1100")
	wantDecimal(t, "sale return", summary.SaleReturn, "200")
	wantDecimal(t, "net sale", summary.NetSale, "900")
	wantDecimal(t, "net total", summary.NetTotal, "300")

	if summary.PurchaseCount != 1 || summary.PurchaseReturnCount != 1 {
		t.Fatalf("purchase counts = %d/%d, want 1/1", summary.PurchaseCount, summary.PurchaseReturnCount)
	}
	if summary.SaleCount != 2 || summary.SaleReturnCount != 1 {
		t.Fatalf("sale counts = %d/%d, want 2/1", summary.SaleCount, summary.SaleReturnCount)
	}
}

func TestListReportsScopedToRequester(t *testing.T) {
	ctx := openTestDB(t)

	report, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: models.ReportTypeSaleReturn,
		Format:     models.ReportFormatXLSX,
		StartDate:  time.Now().AddDate(0, 0, -1),
		EndDate:    time.Now(),
	})
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}

	reports, err := models.ListReports(ctx, models.ReportFilter{})
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != report.ID {
		t.Fatalf("reports = %+v, want just the generated one", reports)
	}

	pending := models.ReportStatusPending
	reports, err = models.ListReports(ctx, models.ReportFilter{Status: &pending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("pending reports = %d, want 1", len(reports))
	}
}
