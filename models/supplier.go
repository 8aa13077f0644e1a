package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Supplier struct {
	ID             int                   `gorm:"primary_key" json:"id"`
	Name           string                `gorm:"size:100;not null" json:"name" binding:"required"`
	Address        string                `gorm:"type:text;not null" json:"address"`
	City           string                `gorm:"size:100;not null" json:"city"`
	ContactNo      string                `gorm:"size:15;not null" json:"contact_no"`
	ContactEmail   *string               `gorm:"size:100" json:"contact_email"`
	Gstin          *string               `gorm:"size:15" json:"gstin"`
	BankName       *string               `gorm:"size:100" json:"bank_name"`
	AccountNumber  *string               `gorm:"size:20" json:"account_number"`
	IfscCode       *string               `gorm:"size:20" json:"ifsc_code"`
	OpeningBalance decimal.Decimal       `gorm:"type:decimal(10,2);not null;default:0" json:"opening_balance"`
	CurrentBalance decimal.Decimal       `gorm:"type:decimal(10,2);not null;default:0" json:"current_balance"`
	Transactions   []SupplierTransaction `json:"transactions,omitempty"`
	CreatedById    *int                  `json:"created_by"`
	UpdatedById    *int                  `json:"updated_by"`
	CreatedAt      time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name           string           `json:"name" binding:"required"`
	Address        string           `json:"address"`
	City           string           `json:"city"`
	ContactNo      string           `json:"contact_no"`
	ContactEmail   *string          `json:"contact_email"`
	Gstin          *string          `json:"gstin"`
	BankName       *string          `json:"bank_name"`
	AccountNumber  *string          `json:"account_number"`
	IfscCode       *string          `json:"ifsc_code"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

type UpdateSupplierInput struct {
	Name           *string          `json:"name"`
	Address        *string          `json:"address"`
	City           *string          `json:"city"`
	ContactNo      *string          `json:"contact_no"`
	ContactEmail   *string          `json:"contact_email"`
	Gstin          *string          `json:"gstin"`
	BankName       *string          `json:"bank_name"`
	AccountNumber  *string          `json:"account_number"`
	IfscCode       *string          `json:"ifsc_code"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

type SupplierFilter struct {
	Name  *string `form:"name"`
	City  *string `form:"city"`
	Gstin *string `form:"gstin"`
}

func validateSupplier(name, address, city, contactNo string, contactEmail *string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("supplier name is required")
	}
	if strings.TrimSpace(address) == "" {
		return errors.New("address is required")
	}
	if strings.TrimSpace(city) == "" {
		return errors.New("city is required")
	}
	if strings.TrimSpace(contactNo) == "" {
		return errors.New("contact number is required")
	}
	if contactEmail != nil && *contactEmail != "" && !utils.IsValidEmail(*contactEmail) {
		return errors.New("invalid contact email format")
	}
	return nil
}

// UpdateSupplierBalance recomputes current_balance from the supplier's full
// transaction history: opening_balance + sum(debit) - sum(credit). Must run
// inside the transaction that touched the ledger so a failed recompute rolls
// the triggering write back with it.
func UpdateSupplierBalance(tx *gorm.DB, supplierId int) error {
	if tx == nil {
		return errors.New("tx is nil")
	}

	var totals struct {
		TotalDebit  decimal.Decimal
		TotalCredit decimal.Decimal
	}
	if err := tx.Model(&SupplierTransaction{}).
		Where("supplier_id = ?", supplierId).
		Select("COALESCE(SUM(debit), 0) AS total_debit, COALESCE(SUM(credit), 0) AS total_credit").
		Scan(&totals).Error; err != nil {
		return err
	}

	var supplier Supplier
	if err := tx.Select("id", "opening_balance").First(&supplier, supplierId).Error; err != nil {
		return err
	}

	currentBalance := supplier.OpeningBalance.Add(totals.TotalDebit).Sub(totals.TotalCredit)
	return tx.Model(&Supplier{}).Where("id = ?", supplierId).
		Update("current_balance", currentBalance).Error
}

func CreateSupplier(ctx context.Context, input NewSupplier) (*Supplier, error) {
	if err := validateSupplier(input.Name, input.Address, input.City, input.ContactNo, input.ContactEmail); err != nil {
		return nil, err
	}

	openingBalance := decimal.Zero
	if input.OpeningBalance != nil {
		openingBalance = *input.OpeningBalance
	}

	supplier := Supplier{
		Name:           input.Name,
		Address:        input.Address,
		City:           input.City,
		ContactNo:      input.ContactNo,
		ContactEmail:   input.ContactEmail,
		Gstin:          input.Gstin,
		BankName:       input.BankName,
		AccountNumber:  input.AccountNumber,
		IfscCode:       input.IfscCode,
		OpeningBalance: openingBalance,
		CurrentBalance: openingBalance,
		CreatedById:    utils.NilIfEmpty(userIdFromContext(ctx)),
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input UpdateSupplierInput) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	name := supplier.Name
	if input.Name != nil {
		name = *input.Name
	}
	address := supplier.Address
	if input.Address != nil {
		address = *input.Address
	}
	city := supplier.City
	if input.City != nil {
		city = *input.City
	}
	contactNo := supplier.ContactNo
	if input.ContactNo != nil {
		contactNo = *input.ContactNo
	}
	contactEmail := supplier.ContactEmail
	if input.ContactEmail != nil {
		contactEmail = input.ContactEmail
	}

	if err := validateSupplier(name, address, city, contactNo, contactEmail); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":      name,
		"Address":   address,
		"City":      city,
		"ContactNo": contactNo,
	}
	if input.ContactEmail != nil {
		updates["ContactEmail"] = input.ContactEmail
	}
	if input.Gstin != nil {
		updates["Gstin"] = input.Gstin
	}
	if input.BankName != nil {
		updates["BankName"] = input.BankName
	}
	if input.AccountNumber != nil {
		updates["AccountNumber"] = input.AccountNumber
	}
	if input.IfscCode != nil {
		updates["IfscCode"] = input.IfscCode
	}
	if input.OpeningBalance != nil {
		updates["OpeningBalance"] = *input.OpeningBalance
	}
	updates["UpdatedById"] = utils.NilIfEmpty(userIdFromContext(ctx))

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// db action
	if err := tx.WithContext(ctx).Model(&supplier).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// An opening balance change shifts the derived balance too.
	if input.OpeningBalance != nil {
		if err := UpdateSupplierBalance(tx.WithContext(ctx), id); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetSupplier(ctx, id)
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	// Purchases keep a protected reference to their supplier
	count, err := utils.ResourceCountWhere[Purchase](ctx, "supplier_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by purchase")
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Ledger entries belong to the supplier and go with it
	if err := tx.WithContext(ctx).Where("supplier_id = ?", id).Delete(&SupplierTransaction{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// db action
	if err := tx.WithContext(ctx).Delete(&supplier).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id, "Transactions")
}

func ListSuppliers(ctx context.Context, filter SupplierFilter) ([]Supplier, error) {
	db := config.GetDB()
	var suppliers []Supplier

	query := db.WithContext(ctx).Model(&Supplier{})
	if filter.Name != nil && *filter.Name != "" {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.City != nil && *filter.City != "" {
		query = query.Where("city = ?", *filter.City)
	}
	if filter.Gstin != nil && *filter.Gstin != "" {
		query = query.Where("gstin = ?", *filter.Gstin)
	}

	// db action
	if err := query.Order("created_at DESC").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}
