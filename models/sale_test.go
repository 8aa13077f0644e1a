package models_test

import (
	"strings"
	"testing"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
)

func TestCreateSaleWithPrivilegeCardDiscount(t *testing.T) {
	ctx := openTestDB(t)
	gst := seedTax(t, ctx, "GST 5", "5")
	inclusive := seedProduct(t, ctx, "Idli Rice 5kg", "320", models.TaxTypeInclusive, nil)
	exclusive := seedProduct(t, ctx, "Ghee 500ml", "450", models.TaxTypeExclusive, &gst.ID)
	customer := seedCustomer(t, ctx, "Kavitha R", "+919876543210", 10)

	sale, err := models.CreateSale(ctx, models.NewSale{
		CustomerId: &customer.ID,
		Items: []models.NewSaleItem{
			{ProductId: inclusive.ID, Quantity: dec("3"), Rate: dec("200")},
			{ProductId: exclusive.ID, Quantity: dec("1"), Rate: dec("400")},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if sale.InvoiceNo != "SA001" {
		t.Fatalf("invoice no = %q, want SA001", sale.InvoiceNo)
	}
	// Gross 1000, 10% card discount 100, exclusive 5% tax on the 400 line.
	wantDecimal(t, "total", sale.TotalAmount, "900")
	wantDecimal(t, "discount", sale.DiscountAmount, "100")
	wantDecimal(t, "tax", sale.TaxAmount, "20")
	wantDecimal(t, "final", sale.FinalAmount, "920")
	if sale.PaymentMethod != models.PaymentMethodCash {
		t.Fatalf("payment method = %q, want CASH", sale.PaymentMethod)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sale.Items))
	}
	for _, item := range sale.Items {
		wantDecimal(t, "line discount", item.Discount, "100")
	}

	// Selling never touches the stock ledger.
	wantDecimal(t, "stock of inclusive product", productStock(t, ctx, inclusive.ID), "0")
	movements, err := models.ListStockMovements(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 0 {
		t.Fatalf("movements = %d, want 0", len(movements))
	}

	// The receipt SMS rides the outbox and commits with the sale.
	status, err := models.GetOutboxStatus(ctx, "SALE", sale.ID)
	if err != nil {
		t.Fatalf("outbox status: %v", err)
	}
	if status.Kind != string(models.NotificationKindSMS) {
		t.Fatalf("outbox kind = %q, want SMS", status.Kind)
	}
	if status.PublishStatus != models.PublishStatusPending {
		t.Fatalf("outbox status = %q, want PENDING", status.PublishStatus)
	}
}

func TestCreateSaleWalkInNoDiscountNoSms(t *testing.T) {
	ctx := openTestDB(t)
	product := seedProduct(t, ctx, "Idli Rice 5kg", "320", models.TaxTypeInclusive, nil)

	sale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{
			{ProductId: product.ID, Quantity: dec("2"), Rate: dec("300")},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	wantDecimal(t, "total", sale.TotalAmount, "600")
	wantDecimal(t, "discount", sale.DiscountAmount, "0")
	wantDecimal(t, "final", sale.FinalAmount, "600")

	var count int64
	if err := config.GetDB().Model(&models.NotificationOutbox{}).Count(&count).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if count != 0 {
		t.Fatalf("outbox rows = %d, want 0", count)
	}
}

func TestSaleReturnNegatesOriginal(t *testing.T) {
	ctx := openTestDB(t)
	gst := seedTax(t, ctx, "GST 5", "5")
	product := seedProduct(t, ctx, "Ghee 500ml", "450", models.TaxTypeExclusive, &gst.ID)
	customer := seedCustomer(t, ctx, "Kavitha R", "+919876543210", 10)

	sale, err := models.CreateSale(ctx, models.NewSale{
		CustomerId: &customer.ID,
		Items: []models.NewSaleItem{
			{ProductId: product.ID, Quantity: dec("2"), Rate: dec("400")},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	returnSale, err := models.CreateSaleReturn(ctx, sale.ID)
	if err != nil {
		t.Fatalf("create return: %v", err)
	}
	if returnSale.InvoiceNo != "RT001" {
		t.Fatalf("return invoice = %q, want RT001", returnSale.InvoiceNo)
	}
	if !returnSale.IsReturn || returnSale.OriginalSaleId == nil || *returnSale.OriginalSaleId != sale.ID {
		t.Fatalf("return not linked to original: %+v", returnSale)
	}
	wantDecimal(t, "return total", returnSale.TotalAmount, sale.TotalAmount.Neg().String())
	wantDecimal(t, "return discount", returnSale.DiscountAmount, sale.DiscountAmount.Neg().String())
	wantDecimal(t, "return tax", returnSale.TaxAmount, sale.TaxAmount.Neg().String())
	wantDecimal(t, "return final", returnSale.FinalAmount, sale.FinalAmount.Neg().String())
	if len(returnSale.Items) != 1 {
		t.Fatalf("return items = %d, want 1", len(returnSale.Items))
	}
	wantDecimal(t, "return quantity", returnSale.Items[0].Quantity, "-2")
	wantDecimal(t, "return line amount", returnSale.Items[0].Amount, "-800")

	// Only one return per sale.
	if _, err := models.CreateSaleReturn(ctx, sale.ID); err == nil {
		t.Fatal("second return accepted, want error")
	}
	// Returning a return is meaningless.
	if _, err := models.CreateSaleReturn(ctx, returnSale.ID); err == nil {
		t.Fatal("return of return accepted, want error")
	}
}

func TestSaleWithReturnIsFrozen(t *testing.T) {
	ctx := openTestDB(t)
	product := seedProduct(t, ctx, "Idli Rice 5kg", "320", models.TaxTypeInclusive, nil)

	sale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("1"), Rate: dec("300")}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	returnSale, err := models.CreateSaleReturn(ctx, sale.ID)
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	update := models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("2"), Rate: dec("300")}},
	}
	if _, err := models.UpdateSale(ctx, sale.ID, update); err == nil {
		t.Fatal("update of sale with return accepted, want error")
	}
	if _, err := models.UpdateSale(ctx, returnSale.ID, update); err == nil {
		t.Fatal("update of return accepted, want error")
	} else if !strings.Contains(err.Error(), "return") {
		t.Fatalf("update return error = %q", err)
	}
	if _, err := models.DeleteSale(ctx, sale.ID); err == nil {
		t.Fatal("delete of sale with return accepted, want error")
	}

	// Deleting the return first unfreezes the original.
	if _, err := models.DeleteSale(ctx, returnSale.ID); err != nil {
		t.Fatalf("delete return: %v", err)
	}
	if _, err := models.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete original after return removed: %v", err)
	}
}

func TestUpdateSaleReplacesLines(t *testing.T) {
	ctx := openTestDB(t)
	first := seedProduct(t, ctx, "Idli Rice 5kg", "320", models.TaxTypeInclusive, nil)
	second := seedProduct(t, ctx, "Sambar Powder 200g", "85", models.TaxTypeInclusive, nil)

	sale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: first.ID, Quantity: dec("1"), Rate: dec("300")}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	updated, err := models.UpdateSale(ctx, sale.ID, models.NewSale{
		Items: []models.NewSaleItem{
			{ProductId: first.ID, Quantity: dec("2"), Rate: dec("300")},
			{ProductId: second.ID, Quantity: dec("1"), Rate: dec("80")},
		},
	})
	if err != nil {
		t.Fatalf("update sale: %v", err)
	}
	if updated.InvoiceNo != sale.InvoiceNo {
		t.Fatalf("invoice changed on update: %q -> %q", sale.InvoiceNo, updated.InvoiceNo)
	}
	wantDecimal(t, "total after update", updated.TotalAmount, "680")
	wantDecimal(t, "final after update", updated.FinalAmount, "680")
	if len(updated.Items) != 2 {
		t.Fatalf("items after update = %d, want 2", len(updated.Items))
	}
}

func TestSaleInvoicePreview(t *testing.T) {
	ctx := openTestDB(t)
	product := seedProduct(t, ctx, "Idli Rice 5kg", "320", models.TaxTypeInclusive, nil)

	info, err := models.GetLastSaleInvoice(ctx)
	if err != nil {
		t.Fatalf("last invoice: %v", err)
	}
	if info.LastInvoice != nil {
		t.Fatalf("last invoice = %v, want nil", *info.LastInvoice)
	}
	if info.NextInvoice != "SA001" {
		t.Fatalf("next invoice = %q, want SA001", info.NextInvoice)
	}

	if _, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("1"), Rate: dec("100")}},
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	info, err = models.GetLastSaleInvoice(ctx)
	if err != nil {
		t.Fatalf("last invoice: %v", err)
	}
	if info.LastInvoice == nil || *info.LastInvoice != "SA001" {
		t.Fatalf("last invoice = %v, want SA001", info.LastInvoice)
	}
	if info.NextInvoice != "SA002" {
		t.Fatalf("next invoice = %q, want SA002", info.NextInvoice)
	}
}
