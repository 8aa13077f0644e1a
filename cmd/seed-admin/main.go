// seed-admin bootstraps a fresh installation: the single admin account, a
// default store, and the login settings row.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// Override the defaults with SEED_ADMIN_USERNAME / SEED_ADMIN_PASSWORD /
// SEED_STORE_NAME.
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "TrueBit@2024"
	defaultStoreName     = "Main Store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	// Default store first so the admin record can reference it if needed.
	storeName := envOr("SEED_STORE_NAME", defaultStoreName)
	var store models.Store
	err := db.WithContext(ctx).Where("name = ?", storeName).First(&store).Error
	if err == gorm.ErrRecordNotFound {
		created, cerr := models.CreateStore(ctx, &models.NewStore{
			Name:    storeName,
			Place:   "Head Office",
			Email:   envOr("SEED_STORE_EMAIL", "store@truebit.in"),
			Phone:   envOr("SEED_STORE_PHONE", "9000000000"),
			StoreId: envOr("SEED_STORE_CODE", "ST-001"),
		})
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "failed to create default store: %v\n", cerr)
			os.Exit(1)
		}
		store = *created
		fmt.Printf("created store %q (id=%d)\n", store.Name, store.ID)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup store: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Printf("store %q already exists (id=%d)\n", store.Name, store.ID)
	}

	// Login settings singleton; GetLoginSettings creates the default row.
	if _, err := models.GetLoginSettings(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure login settings: %v\n", err)
		os.Exit(1)
	}

	count, err := models.AdminExists(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to check for existing admin: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Println("admin account already exists; nothing to do")
		return
	}

	username := envOr("SEED_ADMIN_USERNAME", defaultAdminUsername)
	password := envOr("SEED_ADMIN_PASSWORD", defaultAdminPassword)
	admin, err := models.RegisterAdmin(ctx, &models.NewUser{
		Username: username,
		Password: password,
		Role:     models.UserRoleAdmin,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created admin %q (id=%d)\n", admin.Username, admin.ID)
}
