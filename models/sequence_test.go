package models_test

import (
	"testing"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
)

func firstStore(t *testing.T) models.Store {
	t.Helper()
	var store models.Store
	if err := config.GetDB().Order("id ASC").Take(&store).Error; err != nil {
		t.Fatalf("fetch store: %v", err)
	}
	return store
}

func TestSaleNumbersAreConsecutive(t *testing.T) {
	ctx := openTestDB(t)
	product := seedProduct(t, ctx, "Turmeric Powder 100g", "45", models.TaxTypeInclusive, nil)

	for i, want := range []string{"SA001", "SA002", "SA003"} {
		sale, err := models.CreateSale(ctx, models.NewSale{
			Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("1"), Rate: dec("40")}},
		})
		if err != nil {
			t.Fatalf("create sale %d: %v", i, err)
		}
		if sale.InvoiceNo != want {
			t.Fatalf("invoice %d = %q, want %q", i, sale.InvoiceNo, want)
		}
	}
}

func TestSaleNumberingContinuesFromLegacyInvoice(t *testing.T) {
	ctx := openTestDB(t)
	store := firstStore(t)
	product := seedProduct(t, ctx, "Turmeric Powder 100g", "45", models.TaxTypeInclusive, nil)

	// A sale that predates the counter table.
	legacy := models.Sale{InvoiceNo: "SA041", Date: time.Now(), StoreId: store.ID}
	if err := config.GetDB().Create(&legacy).Error; err != nil {
		t.Fatalf("insert legacy sale: %v", err)
	}

	sale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("1"), Rate: dec("40")}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.InvoiceNo != "SA042" {
		t.Fatalf("invoice = %q, want SA042", sale.InvoiceNo)
	}
}

func TestSaleNumberingMalformedLegacySeedsAtOne(t *testing.T) {
	ctx := openTestDB(t)
	store := firstStore(t)
	product := seedProduct(t, ctx, "Turmeric Powder 100g", "45", models.TaxTypeInclusive, nil)

	legacy := models.Sale{InvoiceNo: "LEGACY-INVOICE", Date: time.Now(), StoreId: store.ID}
	if err := config.GetDB().Create(&legacy).Error; err != nil {
		t.Fatalf("insert legacy sale: %v", err)
	}

	sale, err := models.CreateSale(ctx, models.NewSale{
		Items: []models.NewSaleItem{{ProductId: product.ID, Quantity: dec("1"), Rate: dec("40")}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if sale.InvoiceNo != "SA001" {
		t.Fatalf("invoice = %q, want SA001", sale.InvoiceNo)
	}
}

func TestPurchaseCountersAreScopedPerStore(t *testing.T) {
	ctx := openTestDB(t)
	store := firstStore(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")
	product := seedProduct(t, ctx, "Turmeric Powder 100g", "45", models.TaxTypeInclusive, nil)

	rate := dec("30")
	date := time.Now()
	purchase, err := models.CreatePurchase(ctx, models.NewPurchase{
		Date:       &date,
		SupplierId: supplier.ID,
		Items:      []models.NewPurchaseItem{{ProductId: product.ID, Quantity: dec("1"), Rate: &rate}},
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if purchase.InvoiceNo != "PE001" {
		t.Fatalf("invoice = %q, want PE001", purchase.InvoiceNo)
	}

	// Another store's counter starts at its own PE001.
	other, err := models.CreateStore(ctx, &models.NewStore{
		Name:    "Second Branch",
		Place:   "Erode",
		Email:   "second@example.com",
		Phone:   "+919876500003",
		StoreId: "ST-002",
	})
	if err != nil {
		t.Fatalf("create second store: %v", err)
	}

	tx := config.GetDB().Begin()
	next, err := models.NextDocumentNumber(tx, models.PurchaseSequenceScope(other.ID, false))
	if err != nil {
		tx.Rollback()
		t.Fatalf("claim for second store: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if next != 1 {
		t.Fatalf("second store first number = %d, want 1", next)
	}

	// Returns count separately from purchases within the same store.
	peek, err := models.PeekDocumentNumber(ctx, models.PurchaseSequenceScope(store.ID, true))
	if err != nil {
		t.Fatalf("peek return scope: %v", err)
	}
	if peek != 1 {
		t.Fatalf("return scope peek = %d, want 1", peek)
	}
}

func TestPeekDocumentNumberDoesNotConsume(t *testing.T) {
	ctx := openTestDB(t)

	for i := 0; i < 3; i++ {
		peek, err := models.PeekDocumentNumber(ctx, models.SaleSequenceScope())
		if err != nil {
			t.Fatalf("peek %d: %v", i, err)
		}
		if peek != 1 {
			t.Fatalf("peek %d = %d, want 1", i, peek)
		}
	}

	tx := config.GetDB().Begin()
	claimed, err := models.NextDocumentNumber(tx, models.SaleSequenceScope())
	if err != nil {
		tx.Rollback()
		t.Fatalf("claim: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("claimed = %d, want 1", claimed)
	}

	peek, err := models.PeekDocumentNumber(ctx, models.SaleSequenceScope())
	if err != nil {
		t.Fatalf("peek after claim: %v", err)
	}
	if peek != 2 {
		t.Fatalf("peek after claim = %d, want 2", peek)
	}
}
