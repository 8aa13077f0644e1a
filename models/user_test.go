package models_test

import (
	"fmt"
	"strings"
	"testing"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
	"bitbucket.org/truebittech/retail_backend/utils"
)

func TestOnlyOneAdminAllowed(t *testing.T) {
	ctx := openTestDB(t)

	// The fixture already registered the bootstrap admin.
	count, err := models.AdminExists(ctx)
	if err != nil {
		t.Fatalf("admin exists: %v", err)
	}
	if count != 1 {
		t.Fatalf("admin count = %d, want 1", count)
	}

	if _, err := models.RegisterAdmin(ctx, &models.NewUser{
		Username: "second_admin",
		Password: "TrueBit@2024",
		Role:     models.UserRoleAdmin,
	}); err == nil {
		t.Fatal("second admin accepted, want error")
	} else if !strings.Contains(err.Error(), "admin") {
		t.Fatalf("second admin error = %q", err)
	}
}

func TestStaffLoginRequiresAssignedStore(t *testing.T) {
	ctx := openTestDB(t)
	store := firstStore(t)

	staff, err := models.RegisterUser(ctx, &models.NewUser{
		Username: "ramesh",
		Password: "Counter@2024",
		Role:     models.UserRoleStaff,
		StoreId:  &store.ID,
	})
	if err != nil {
		t.Fatalf("register staff: %v", err)
	}

	// Registration row is written alongside the account.
	registrations, err := models.ListRegistrations(ctx)
	if err != nil {
		t.Fatalf("list registrations: %v", err)
	}
	if len(registrations) != 2 {
		t.Fatalf("registrations = %d, want 2 (admin + staff)", len(registrations))
	}

	if _, err := models.Login(ctx, "ramesh", "Counter@2024", nil); err == nil {
		t.Fatal("staff login without store accepted, want error")
	}
	wrongStore := store.ID + 100
	if _, err := models.Login(ctx, "ramesh", "Counter@2024", &wrongStore); err == nil {
		t.Fatal("staff login with wrong store accepted, want error")
	}

	info, err := models.Login(ctx, "ramesh", "Counter@2024", &store.ID)
	if err != nil {
		t.Fatalf("staff login: %v", err)
	}
	if info.Access == "" || info.Refresh == "" {
		t.Fatal("login did not issue both tokens")
	}
	if info.User.ID != staff.ID {
		t.Fatalf("login user = %d, want %d", info.User.ID, staff.ID)
	}
	if info.User.Password != "" {
		t.Fatal("login response leaks the password hash")
	}

	token, err := utils.JwtValidate(info.Access)
	if err != nil || !token.Valid {
		t.Fatalf("validate access token: %v", err)
	}
	claims, ok := token.Claims.(*utils.JwtCustomClaim)
	if !ok {
		t.Fatalf("claims type = %T", token.Claims)
	}
	if claims.ID != staff.ID || claims.Role != string(models.UserRoleStaff) {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.TokenType != utils.TokenTypeAccess {
		t.Fatalf("token type = %q, want access", claims.TokenType)
	}

	// Refresh tokens exchange for a fresh access token and nothing else.
	access, err := models.RefreshToken(ctx, info.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" {
		t.Fatal("refresh returned empty token")
	}
	if _, err := models.RefreshToken(ctx, info.Access); err == nil {
		t.Fatal("access token accepted as refresh token, want error")
	}
}

func TestAdminLoginIgnoresStoreSelection(t *testing.T) {
	ctx := openTestDB(t)

	info, err := models.Login(ctx, "admin", "TrueBit@2024", nil)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if info.User.Role != models.UserRoleAdmin {
		t.Fatalf("role = %q, want ADMIN", info.User.Role)
	}

	if _, err := models.Login(ctx, "admin", "wrong-password", nil); err == nil {
		t.Fatal("wrong password accepted, want error")
	}
}

func TestWeakPasswordsRejected(t *testing.T) {
	ctx := openTestDB(t)

	for i, password := range []string{"short", "123456789"} {
		if _, err := models.RegisterUser(ctx, &models.NewUser{
			Username: fmt.Sprintf("weak_user_%d", i),
			Password: password,
			Role:     models.UserRoleStaff,
		}); err == nil {
			t.Fatalf("password %q accepted, want error", password)
		}
	}
}

func TestLoginSettingsSingleton(t *testing.T) {
	ctx := openTestDB(t)

	settings, err := models.GetLoginSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.CompanyName == "" {
		t.Fatal("default settings missing company name")
	}

	name := "Sri Murugan Stores"
	updated, err := models.UpdateLoginSettings(ctx, &models.UpdateLoginSettingsInput{CompanyName: &name})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.CompanyName != name {
		t.Fatalf("company name = %q, want %q", updated.CompanyName, name)
	}

	// Reads after the update still resolve to the same single row.
	again, err := models.GetLoginSettings(ctx)
	if err != nil {
		t.Fatalf("get settings again: %v", err)
	}
	if again.ID != settings.ID {
		t.Fatalf("settings id changed: %d -> %d", settings.ID, again.ID)
	}
	if again.CompanyName != name {
		t.Fatalf("company name after update = %q, want %q", again.CompanyName, name)
	}

	var count int64
	if err := config.GetDB().Model(&models.LoginSettings{}).Count(&count).Error; err != nil {
		t.Fatalf("count settings rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("settings rows = %d, want 1", count)
	}
}
