package models_test

import (
	"testing"
	"time"

	"bitbucket.org/truebittech/retail_backend/models"
)

func TestSupplierBalanceFollowsLedger(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "500")
	wantDecimal(t, "opening balance", supplier.CurrentBalance, "500")

	debit := dec("200")
	debitTxn, err := models.CreateSupplierTransaction(ctx, models.NewSupplierTransaction{
		SupplierId:  supplier.ID,
		Particulars: "Goods received",
		Debit:       &debit,
		PaymentMode: models.SupplierPaymentModeCash,
	})
	if err != nil {
		t.Fatalf("create debit: %v", err)
	}
	if debitTxn.TransactionNo != "ST0001" {
		t.Fatalf("transaction no = %q, want ST0001", debitTxn.TransactionNo)
	}

	fresh, _ := models.GetSupplier(ctx, supplier.ID)
	wantDecimal(t, "balance after debit", fresh.CurrentBalance, "700")

	credit := dec("300")
	creditTxn, err := models.CreateSupplierTransaction(ctx, models.NewSupplierTransaction{
		SupplierId:  supplier.ID,
		Particulars: "Payment made",
		Credit:      &credit,
		PaymentMode: models.SupplierPaymentModeOnline,
	})
	if err != nil {
		t.Fatalf("create credit: %v", err)
	}
	if creditTxn.TransactionNo != "ST0002" {
		t.Fatalf("transaction no = %q, want ST0002", creditTxn.TransactionNo)
	}

	fresh, _ = models.GetSupplier(ctx, supplier.ID)
	wantDecimal(t, "balance after credit", fresh.CurrentBalance, "400")

	// Amending an entry recomputes from the full history, not incrementally.
	newDebit := dec("50")
	if _, err := models.UpdateSupplierTransaction(ctx, debitTxn.ID, models.UpdateSupplierTransactionInput{
		Debit: &newDebit,
	}); err != nil {
		t.Fatalf("update debit: %v", err)
	}
	fresh, _ = models.GetSupplier(ctx, supplier.ID)
	wantDecimal(t, "balance after amend", fresh.CurrentBalance, "250")

	// Removing an entry does too.
	if _, err := models.DeleteSupplierTransaction(ctx, creditTxn.ID); err != nil {
		t.Fatalf("delete credit: %v", err)
	}
	fresh, _ = models.GetSupplier(ctx, supplier.ID)
	wantDecimal(t, "balance after delete", fresh.CurrentBalance, "550")
}

func TestSupplierTransactionRejectsNegativeAmounts(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "0")

	bad := dec("-10")
	if _, err := models.CreateSupplierTransaction(ctx, models.NewSupplierTransaction{
		SupplierId:  supplier.ID,
		Particulars: "Bad entry",
		Debit:       &bad,
		PaymentMode: models.SupplierPaymentModeCash,
	}); err == nil {
		t.Fatal("negative debit accepted, want error")
	}
}

func TestSupplierStatementTotals(t *testing.T) {
	ctx := openTestDB(t)
	supplier := seedSupplier(t, ctx, "Arun Traders", "100")

	now := time.Now()
	debit := dec("250")
	credit := dec("80")
	for _, input := range []models.NewSupplierTransaction{
		{SupplierId: supplier.ID, Particulars: "Goods received", Debit: &debit, PaymentMode: models.SupplierPaymentModeCash, TransactionDate: &now},
		{SupplierId: supplier.ID, Particulars: "Part payment", Credit: &credit, PaymentMode: models.SupplierPaymentModeUPI, TransactionDate: &now},
	} {
		if _, err := models.CreateSupplierTransaction(ctx, input); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	statement, err := models.GetSupplierStatement(ctx, &supplier.ID, now.AddDate(0, 0, -1), now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(statement.Transactions) != 2 {
		t.Fatalf("statement entries = %d, want 2", len(statement.Transactions))
	}
	wantDecimal(t, "total debit", statement.TotalDebit, "250")
	wantDecimal(t, "total credit", statement.TotalCredit, "80")
	wantDecimal(t, "current balance", statement.CurrentBalance, "270")

	// A window before the entries is empty but still carries the balance.
	statement, err = models.GetSupplierStatement(ctx, &supplier.ID, now.AddDate(0, 0, -10), now.AddDate(0, 0, -5))
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if len(statement.Transactions) != 0 {
		t.Fatalf("statement entries = %d, want 0", len(statement.Transactions))
	}
	wantDecimal(t, "current balance", statement.CurrentBalance, "270")
}
