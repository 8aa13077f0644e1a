package models_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
	"bitbucket.org/truebittech/retail_backend/utils"
)

// openTestDB points the global connection at a fresh in-memory sqlite
// database named after the test, migrates the schema, and seeds the
// default store plus the bootstrap admin. The returned context carries
// the admin identity so created_by stamping and store resolution work
// the same way they do behind the auth middleware.
func openTestDB(t *testing.T) context.Context {
	t.Helper()

	t.Setenv("DB_DRIVER", "sqlite")
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	t.Setenv("DB_NAME_2", "file:"+name+"?mode=memory&cache=shared")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	store, err := models.CreateStore(ctx, &models.NewStore{
		Name:    "Main Branch",
		Place:   "Coimbatore",
		Email:   "main@example.com",
		Phone:   "+919876500001",
		StoreId: "ST-001",
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	admin, err := models.RegisterAdmin(ctx, &models.NewUser{
		Username: "admin",
		Password: "TrueBit@2024",
		Role:     models.UserRoleAdmin,
		StoreId:  &store.ID,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	ctx = utils.SetUserIdInContext(ctx, admin.ID)
	ctx = utils.SetRoleInContext(ctx, string(models.UserRoleAdmin))
	return ctx
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func wantDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", label, got.String(), want)
	}
}

func seedSupplier(t *testing.T, ctx context.Context, name string, openingBalance string) *models.Supplier {
	t.Helper()
	opening := dec(openingBalance)
	supplier, err := models.CreateSupplier(ctx, models.NewSupplier{
		Name:           name,
		Address:        "12 Market Road",
		City:           "Coimbatore",
		ContactNo:      "+919876500002",
		OpeningBalance: &opening,
	})
	if err != nil {
		t.Fatalf("seed supplier %s: %v", name, err)
	}
	return supplier
}

func seedTax(t *testing.T, ctx context.Context, name string, rate string) *models.Tax {
	t.Helper()
	tax, err := models.CreateTax(ctx, &models.NewTax{Name: name, Rate: dec(rate)})
	if err != nil {
		t.Fatalf("seed tax %s: %v", name, err)
	}
	return tax
}

func seedProduct(t *testing.T, ctx context.Context, name string, mrp string, taxType models.TaxType, tax1Id *int) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:    name,
		Mrp:     dec(mrp),
		TaxType: &taxType,
		Tax1Id:  tax1Id,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

// seedCustomer creates a customer, optionally carrying a privilege card with
// the given discount percentage. Zero means no card.
func seedCustomer(t *testing.T, ctx context.Context, name string, phone string, discountPercentage int) *models.Customer {
	t.Helper()

	var cardId *int
	if discountPercentage > 0 {
		card, err := models.CreatePrivilegeCard(ctx, models.NewPrivilegeCard{
			CardType:           models.CardTypePremium,
			DiscountPercentage: discountPercentage,
		})
		if err != nil {
			t.Fatalf("seed privilege card: %v", err)
		}
		cardId = &card.ID
	}

	customer, err := models.CreateCustomer(ctx, models.NewCustomer{
		Name:            name,
		Email:           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Phone:           phone,
		PrivilegeCardId: cardId,
	})
	if err != nil {
		t.Fatalf("seed customer %s: %v", name, err)
	}
	return customer
}

func productStock(t *testing.T, ctx context.Context, productId int) decimal.Decimal {
	t.Helper()
	product, err := models.GetProduct(ctx, productId)
	if err != nil {
		t.Fatalf("fetch product %d: %v", productId, err)
	}
	return product.Stock
}
