package models_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/truebittech/retail_backend/models"
)

func createPurchase(t *testing.T, ctx context.Context, supplierId int, items []models.NewPurchaseItem) *models.Purchase {
	t.Helper()
	date := time.Now()
	purchase, err := models.CreatePurchase(ctx, models.NewPurchase{
		Date:       &date,
		SupplierId: supplierId,
		Items:      items,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return purchase
}

func TestCreatePurchaseAppliesStock(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Basmati Rice 5kg", "550", models.TaxTypeInclusive, nil)

	rate := dec("100")
	purchase := createPurchase(t, ctx, supplier.ID, []models.NewPurchaseItem{
		{ProductId: product.ID, Quantity: dec("10"), Rate: &rate},
	})

	if purchase.InvoiceNo != "PE001" {
		t.Fatalf("invoice no = %q, want PE001", purchase.InvoiceNo)
	}
	if purchase.Status != models.PurchaseStatusCompleted {
		t.Fatalf("status = %q, want completed", purchase.Status)
	}
	wantDecimal(t, "total amount", purchase.TotalAmount, "1000")
	if len(purchase.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(purchase.Items))
	}
	wantDecimal(t, "line amount", purchase.Items[0].Amount, "1000")
	wantDecimal(t, "stock after purchase", productStock(t, ctx, product.ID), "10")

	movements, err := models.ListStockMovements(ctx, &product.ID, nil)
	if err != nil {
		t.Fatalf("list stock movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	if movements[0].Reason != models.StockMovementReasonPurchase {
		t.Fatalf("movement reason = %q, want PURCHASE", movements[0].Reason)
	}
	wantDecimal(t, "movement quantity", movements[0].Quantity, "10")
}

func TestPurchasePartialThenFullReturn(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Sunflower Oil 1L", "180", models.TaxTypeInclusive, nil)

	rate := dec("100")
	purchase := createPurchase(t, ctx, supplier.ID, []models.NewPurchaseItem{
		{ProductId: product.ID, Quantity: dec("10"), Rate: &rate},
	})

	date := time.Now()
	firstReturn, err := models.CreatePurchaseReturn(ctx, models.NewPurchaseReturn{
		ReturnReferenceId: purchase.ID,
		Date:              &date,
		Items:             []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("4"), Rate: &rate}},
	})
	if err != nil {
		t.Fatalf("partial return: %v", err)
	}
	if firstReturn.InvoiceNo != "PR001" {
		t.Fatalf("return invoice = %q, want PR001", firstReturn.InvoiceNo)
	}
	if !firstReturn.IsReturn || firstReturn.ReturnReferenceId == nil || *firstReturn.ReturnReferenceId != purchase.ID {
		t.Fatalf("return not linked to original: %+v", firstReturn)
	}
	wantDecimal(t, "return total", firstReturn.TotalAmount, "-400")
	wantDecimal(t, "stock after partial return", productStock(t, ctx, product.ID), "6")

	original, err := models.GetPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("refetch original: %v", err)
	}
	if original.Status != models.PurchaseStatusCompleted {
		t.Fatalf("original status after partial return = %q, want completed", original.Status)
	}
	wantDecimal(t, "returned quantity", original.Items[0].ReturnedQuantity, "4")

	// Returning more than the remainder must fail.
	if _, err := models.CreatePurchaseReturn(ctx, models.NewPurchaseReturn{
		ReturnReferenceId: purchase.ID,
		Date:              &date,
		Items:             []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("7"), Rate: &rate}},
	}); err == nil {
		t.Fatal("over-return accepted, want error")
	} else if !strings.Contains(err.Error(), "cannot return more than") {
		t.Fatalf("over-return error = %q", err)
	}

	// Returning the remainder flips the original to returned.
	if _, err := models.CreatePurchaseReturn(ctx, models.NewPurchaseReturn{
		ReturnReferenceId: purchase.ID,
		Date:              &date,
		Items:             []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("6"), Rate: &rate}},
	}); err != nil {
		t.Fatalf("final return: %v", err)
	}
	wantDecimal(t, "stock after full return", productStock(t, ctx, product.ID), "0")

	original, err = models.GetPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("refetch original: %v", err)
	}
	if original.Status != models.PurchaseStatusReturned {
		t.Fatalf("original status after full return = %q, want returned", original.Status)
	}
	wantDecimal(t, "returned quantity", original.Items[0].ReturnedQuantity, "10")
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Toor Dal 1kg", "160", models.TaxTypeInclusive, nil)

	rate := dec("120")
	purchase := createPurchase(t, ctx, supplier.ID, []models.NewPurchaseItem{
		{ProductId: product.ID, Quantity: dec("5"), Rate: &rate},
	})
	wantDecimal(t, "stock after purchase", productStock(t, ctx, product.ID), "5")

	if _, err := models.DeletePurchase(ctx, purchase.ID); err != nil {
		t.Fatalf("delete purchase: %v", err)
	}
	wantDecimal(t, "stock after delete", productStock(t, ctx, product.ID), "0")

	if _, err := models.GetPurchase(ctx, purchase.ID); err == nil {
		t.Fatal("deleted purchase still fetchable")
	}
}

func TestDeletePurchaseWithReturnsRejected(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Wheat Flour 5kg", "240", models.TaxTypeInclusive, nil)

	rate := dec("200")
	purchase := createPurchase(t, ctx, supplier.ID, []models.NewPurchaseItem{
		{ProductId: product.ID, Quantity: dec("3"), Rate: &rate},
	})

	date := time.Now()
	if _, err := models.CreatePurchaseReturn(ctx, models.NewPurchaseReturn{
		ReturnReferenceId: purchase.ID,
		Date:              &date,
		Items:             []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("1"), Rate: &rate}},
	}); err != nil {
		t.Fatalf("return: %v", err)
	}

	if _, err := models.DeletePurchase(ctx, purchase.ID); err == nil {
		t.Fatal("delete of purchase with returns accepted, want error")
	}
}

func TestDeleteReturnRestoresOriginal(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Jaggery 1kg", "90", models.TaxTypeInclusive, nil)

	rate := dec("60")
	purchase := createPurchase(t, ctx, supplier.ID, []models.NewPurchaseItem{
		{ProductId: product.ID, Quantity: dec("8"), Rate: &rate},
	})

	date := time.Now()
	returnDoc, err := models.CreatePurchaseReturn(ctx, models.NewPurchaseReturn{
		ReturnReferenceId: purchase.ID,
		Date:              &date,
		Items:             []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("8"), Rate: &rate}},
	})
	if err != nil {
		t.Fatalf("return: %v", err)
	}

	original, _ := models.GetPurchase(ctx, purchase.ID)
	if original.Status != models.PurchaseStatusReturned {
		t.Fatalf("status after full return = %q, want returned", original.Status)
	}
	wantDecimal(t, "stock after full return", productStock(t, ctx, product.ID), "0")

	if _, err := models.DeletePurchase(ctx, returnDoc.ID); err != nil {
		t.Fatalf("delete return: %v", err)
	}

	original, err = models.GetPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("refetch original: %v", err)
	}
	if original.Status != models.PurchaseStatusCompleted {
		t.Fatalf("status after deleting return = %q, want completed", original.Status)
	}
	wantDecimal(t, "returned quantity restored", original.Items[0].ReturnedQuantity, "0")
	wantDecimal(t, "stock restored", productStock(t, ctx, product.ID), "8")
}

func TestNextPurchaseInvoiceNoDoesNotConsume(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Tea Dust 250g", "120", models.TaxTypeInclusive, nil)

	next, err := models.NextPurchaseInvoiceNo(ctx, false)
	if err != nil {
		t.Fatalf("next invoice: %v", err)
	}
	if next != "PE001" {
		t.Fatalf("next invoice = %q, want PE001", next)
	}
	// Peeking again must not advance the counter.
	next, _ = models.NextPurchaseInvoiceNo(ctx, false)
	if next != "PE001" {
		t.Fatalf("second peek = %q, want PE001", next)
	}

	rate := dec("80")
	purchase := createPurchase(t, ctx, supplier.ID, []models.NewPurchaseItem{
		{ProductId: product.ID, Quantity: decimal.NewFromInt(2), Rate: &rate},
	})
	if purchase.InvoiceNo != "PE001" {
		t.Fatalf("first invoice = %q, want PE001", purchase.InvoiceNo)
	}

	next, _ = models.NextPurchaseInvoiceNo(ctx, false)
	if next != "PE002" {
		t.Fatalf("peek after create = %q, want PE002", next)
	}
	// Return numbering runs in its own scope.
	next, _ = models.NextPurchaseInvoiceNo(ctx, true)
	if next != "PR001" {
		t.Fatalf("return peek = %q, want PR001", next)
	}
}
