package models_test

import (
	"testing"

	"bitbucket.org/truebittech/retail_backend/models"
)

func TestCustomerIdsAreSequential(t *testing.T) {
	ctx := openTestDB(t)

	next, err := models.NextCustomerId(ctx)
	if err != nil {
		t.Fatalf("next customer id: %v", err)
	}
	if next != "CIN001" {
		t.Fatalf("next customer id = %q, want CIN001", next)
	}

	first := seedCustomer(t, ctx, "Kavitha R", "+919876543210", 0)
	if first.CustomerId != "CIN001" {
		t.Fatalf("customer id = %q, want CIN001", first.CustomerId)
	}
	second := seedCustomer(t, ctx, "Meena S", "+919876543211", 0)
	if second.CustomerId != "CIN002" {
		t.Fatalf("customer id = %q, want CIN002", second.CustomerId)
	}

	next, _ = models.NextCustomerId(ctx)
	if next != "CIN003" {
		t.Fatalf("next customer id after creates = %q, want CIN003", next)
	}
}

func TestCustomerDuplicatePhoneRejected(t *testing.T) {
	ctx := openTestDB(t)
	seedCustomer(t, ctx, "Kavitha R", "+919876543210", 0)

	if _, err := models.CreateCustomer(ctx, models.NewCustomer{
		Name:  "Someone Else",
		Email: "someone.else@example.com",
		Phone: "+919876543210",
	}); err == nil {
		t.Fatal("duplicate phone accepted, want error")
	}
}

func TestCustomerPrivilegeCardMustExist(t *testing.T) {
	ctx := openTestDB(t)

	missing := 999
	if _, err := models.CreateCustomer(ctx, models.NewCustomer{
		Name:            "Kavitha R",
		Email:           "kavitha@example.com",
		Phone:           "+919876543210",
		PrivilegeCardId: &missing,
	}); err == nil {
		t.Fatal("missing privilege card accepted, want error")
	}
}
