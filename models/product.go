package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID           int              `gorm:"primary_key" json:"id"`
	ProductCode  string           `gorm:"size:50;not null;uniqueIndex" json:"product_code"`
	Name         string           `gorm:"size:100;not null" json:"name" binding:"required"`
	HsnCode      *string          `gorm:"size:10" json:"hsn_code"`
	StoreId      *int             `gorm:"index" json:"store"`
	Store        *Store           `json:"store_detail,omitempty"`
	CategoryId   *int             `gorm:"index" json:"category"`
	Category     *Category        `json:"category_detail,omitempty"`
	Stock        decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"stock"`
	Description  *string          `gorm:"type:text" json:"description"`
	Mrp          decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"mrp" binding:"required"`
	Discount     decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	PurchaseRate *decimal.Decimal `gorm:"type:decimal(10,2)" json:"purchase_rate"`
	SaleRate     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"sale_rate"`
	Tax1Id       *int             `json:"tax1"`
	Tax1         *Tax             `json:"tax1_detail,omitempty"`
	Tax2Id       *int             `json:"tax2"`
	Tax2         *Tax             `json:"tax2_detail,omitempty"`
	TaxType      TaxType          `gorm:"size:10;not null;default:'INCLUSIVE'" json:"tax_type"`
	OpeningStock decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"opening_stock"`
	Barcode      *string          `gorm:"size:100;uniqueIndex" json:"barcode"`
	UnitId       *int             `json:"unit"`
	Unit         *Unit            `json:"unit_detail,omitempty"`
	ImageUrl     *string          `gorm:"size:255" json:"image_url"`
	IsActive     *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedById  *int             `json:"created_by"`
	UpdatedById  *int             `json:"updated_by"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	CalculatedPrice decimal.Decimal `gorm:"-" json:"calculated_price"`
}

type NewProduct struct {
	ProductCode  string           `json:"product_code"`
	Name         string           `json:"name" binding:"required"`
	HsnCode      *string          `json:"hsn_code"`
	StoreId      *int             `json:"store"`
	CategoryId   *int             `json:"category"`
	Description  *string          `json:"description"`
	Mrp          decimal.Decimal  `json:"mrp" binding:"required"`
	Discount     *decimal.Decimal `json:"discount"`
	PurchaseRate *decimal.Decimal `json:"purchase_rate"`
	SaleRate     *decimal.Decimal `json:"sale_rate"`
	Tax1Id       *int             `json:"tax1"`
	Tax2Id       *int             `json:"tax2"`
	TaxType      *TaxType         `json:"tax_type"`
	OpeningStock *decimal.Decimal `json:"opening_stock"`
	Barcode      *string          `json:"barcode"`
	UnitId       *int             `json:"unit"`
	ImageUrl     *string          `json:"image_url"`
	IsActive     *bool            `json:"is_active"`
}

type ProductFilter struct {
	CategoryId *int    `form:"category"`
	Tax1Id     *int    `form:"tax1"`
	Tax2Id     *int    `form:"tax2"`
	UnitId     *int    `form:"unit"`
	StoreId    *int    `form:"store"`
	Search     *string `form:"search"`
	Ordering   *string `form:"ordering"`
}

// ComputeCalculatedPrice fills the price after discount and, for exclusive
// products, taxes. Tax1/Tax2 must be preloaded.
func (p *Product) ComputeCalculatedPrice() {
	price := p.Mrp
	if p.Discount.IsPositive() {
		price = price.Sub(p.Discount)
	}
	if p.TaxType == TaxTypeExclusive {
		taxAmount := decimal.Zero
		hundred := decimal.NewFromInt(100)
		if p.Tax1 != nil {
			taxAmount = taxAmount.Add(price.Mul(p.Tax1.Rate).DivRound(hundred, 4))
		}
		if p.Tax2 != nil {
			taxAmount = taxAmount.Add(price.Mul(p.Tax2.Rate).DivRound(hundred, 4))
		}
		price = price.Add(taxAmount)
	}
	p.CalculatedPrice = price.Round(2)
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	if input.Mrp.IsNegative() {
		return errors.New("mrp cannot be negative")
	}
	if input.Discount != nil &&
		(input.Discount.IsNegative() || input.Discount.GreaterThan(decimal.NewFromInt(100))) {
		return errors.New("discount must be between 0 and 100 percent")
	}
	if input.PurchaseRate != nil && input.PurchaseRate.IsNegative() {
		return errors.New("purchase rate cannot be negative")
	}
	if input.SaleRate != nil && input.SaleRate.IsNegative() {
		return errors.New("sale rate cannot be negative")
	}
	if input.Tax1Id != nil && input.Tax2Id != nil && *input.Tax1Id == *input.Tax2Id {
		return errors.New("tax 1 and tax 2 cannot be the same")
	}
	if input.TaxType != nil && *input.TaxType != TaxTypeInclusive && *input.TaxType != TaxTypeExclusive {
		return errors.New("invalid tax type")
	}

	rules := []utils.ValidationRule[int]{
		{Model: Category{}, Ids: derefIds(input.CategoryId), Message: "category not found"},
		{Model: Tax{}, Ids: derefIds(input.Tax1Id, input.Tax2Id), Message: "tax not found"},
		{Model: Unit{}, Ids: derefIds(input.UnitId), Message: "unit not found"},
		{Model: Store{}, Ids: derefIds(input.StoreId), Message: "store not found"},
	}
	if err := utils.MassValidateResourceIds(ctx, rules); err != nil {
		return err
	}

	if input.ProductCode != "" {
		if err := utils.ValidateUnique[Product](ctx, "product_code", input.ProductCode, id); err != nil {
			return err
		}
	}
	if input.Barcode != nil && *input.Barcode != "" {
		if err := utils.ValidateUnique[Product](ctx, "barcode", *input.Barcode, id); err != nil {
			return err
		}
	}
	return nil
}

func derefIds(ids ...*int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != nil && *id != 0 {
			out = append(out, *id)
		}
	}
	return out
}

// generateProductCode continues the "0-NNNN" series from the newest product.
func generateProductCode(tx *gorm.DB) (string, error) {
	var lastCode *string
	if err := tx.Table("products").
		Order("id DESC").Limit(1).
		Select("product_code").Scan(&lastCode).Error; err != nil {
		return "", err
	}

	newNum := int64(1)
	if lastCode != nil && *lastCode != "" {
		parts := strings.Split(*lastCode, "-")
		if n, err := strconv.ParseInt(parts[len(parts)-1], 10, 64); err == nil {
			newNum = n + 1
		}
	}
	return fmt.Sprintf("0-%04d", newNum), nil
}

// generateBarcode builds "COMP-<code>-<NAME>" from the first five
// alphanumeric characters of the upper-cased product name.
func generateBarcode(productCode string, name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= 5 {
				break
			}
		}
	}
	return fmt.Sprintf("COMP-%s-%s", productCode, b.String())
}

// CreateProduct inserts a product, generating the code and barcode when
// omitted. Staff products are pinned to the staff member's store.
func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	userId := userIdFromContext(ctx)
	storeId := input.StoreId
	if roleFromContext(ctx) == UserRoleStaff {
		db := config.GetDB()
		var staff User
		if err := db.WithContext(ctx).First(&staff, userId).Error; err != nil {
			return nil, err
		}
		storeId = staff.StoreId
	}

	product := Product{
		ProductCode: input.ProductCode,
		Name:        input.Name,
		HsnCode:     input.HsnCode,
		StoreId:     storeId,
		CategoryId:  input.CategoryId,
		Description: input.Description,
		Mrp:         input.Mrp,
		Tax1Id:      input.Tax1Id,
		Tax2Id:      input.Tax2Id,
		TaxType:     TaxTypeInclusive,
		Barcode:     input.Barcode,
		UnitId:      input.UnitId,
		ImageUrl:    input.ImageUrl,
		IsActive:    utils.NewTrue(),
		CreatedById: utils.NilIfEmpty(userId),
		UpdatedById: utils.NilIfEmpty(userId),
	}
	if input.Discount != nil {
		product.Discount = *input.Discount
	}
	product.PurchaseRate = input.PurchaseRate
	product.SaleRate = input.SaleRate
	if input.TaxType != nil {
		product.TaxType = *input.TaxType
	}
	if input.OpeningStock != nil {
		product.OpeningStock = *input.OpeningStock
	}
	if input.IsActive != nil {
		product.IsActive = input.IsActive
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if product.ProductCode == "" {
		code, err := generateProductCode(tx.WithContext(ctx))
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		product.ProductCode = code
	}
	if product.Barcode == nil || *product.Barcode == "" {
		barcode := generateBarcode(product.ProductCode, product.Name)
		product.Barcode = &barcode
	}

	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetProduct(ctx, product.ID)
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":        input.Name,
		"Mrp":         input.Mrp,
		"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	if input.ProductCode != "" {
		updates["ProductCode"] = input.ProductCode
	}
	if input.HsnCode != nil {
		updates["HsnCode"] = input.HsnCode
	}
	if input.StoreId != nil {
		updates["StoreId"] = input.StoreId
	}
	if input.CategoryId != nil {
		updates["CategoryId"] = input.CategoryId
	}
	if input.Description != nil {
		updates["Description"] = input.Description
	}
	if input.Discount != nil {
		updates["Discount"] = *input.Discount
	}
	if input.PurchaseRate != nil {
		updates["PurchaseRate"] = input.PurchaseRate
	}
	if input.SaleRate != nil {
		updates["SaleRate"] = input.SaleRate
	}
	if input.Tax1Id != nil {
		updates["Tax1Id"] = input.Tax1Id
	}
	if input.Tax2Id != nil {
		updates["Tax2Id"] = input.Tax2Id
	}
	if input.TaxType != nil {
		updates["TaxType"] = *input.TaxType
	}
	if input.OpeningStock != nil {
		updates["OpeningStock"] = *input.OpeningStock
	}
	if input.Barcode != nil && *input.Barcode != "" {
		updates["Barcode"] = input.Barcode
	}
	if input.UnitId != nil {
		updates["UnitId"] = input.UnitId
	}
	if input.ImageUrl != nil {
		updates["ImageUrl"] = input.ImageUrl
	}
	if input.IsActive != nil {
		updates["IsActive"] = input.IsActive
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	return GetProduct(ctx, id)
}

// SetProductImage stores the uploaded image URL.
func SetProductImage(ctx context.Context, id int, imageUrl *string) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&product).
		Updates(map[string]interface{}{
			"ImageUrl":    imageUrl,
			"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
		}).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	return GetProduct(ctx, id)
}

// DeleteProduct refuses to remove a product referenced by any document.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[PurchaseItem](ctx, "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by purchase")
	}
	count, err = utils.ResourceCountWhere[SaleItem](ctx, "product_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by sale")
	}

	db := config.GetDB()
	// db action
	if err := db.WithContext(ctx).Delete(&product).Error; err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisItem[Product](id); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct fetches with associations; redis first, then db.
func GetProduct(ctx context.Context, id int) (*Product, error) {
	cached, err := utils.RetrieveRedis[Product](id)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		cached.ComputeCalculatedPrice()
		return cached, nil
	}

	product, err := utils.FetchModel[Product](ctx, id, "Category", "Tax1", "Tax2", "Unit", "Store")
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[Product](product, id); err != nil {
		return nil, err
	}
	product.ComputeCalculatedPrice()
	return product, nil
}

var productOrderings = map[string]string{
	"name":        "name",
	"-name":       "name DESC",
	"mrp":         "mrp",
	"-mrp":        "mrp DESC",
	"discount":    "discount",
	"-discount":   "discount DESC",
	"created_at":  "created_at",
	"-created_at": "created_at DESC",
}

func ListProducts(ctx context.Context, filter *ProductFilter) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx).
		Preload("Category").Preload("Tax1").Preload("Tax2").Preload("Unit").Preload("Store")

	order := "created_at DESC"
	if filter != nil {
		if filter.CategoryId != nil {
			dbCtx = dbCtx.Where("category_id = ?", *filter.CategoryId)
		}
		if filter.Tax1Id != nil {
			dbCtx = dbCtx.Where("tax1_id = ?", *filter.Tax1Id)
		}
		if filter.Tax2Id != nil {
			dbCtx = dbCtx.Where("tax2_id = ?", *filter.Tax2Id)
		}
		if filter.UnitId != nil {
			dbCtx = dbCtx.Where("unit_id = ?", *filter.UnitId)
		}
		if filter.StoreId != nil {
			dbCtx = dbCtx.Where("store_id = ?", *filter.StoreId)
		}
		if filter.Search != nil && *filter.Search != "" {
			term := "%" + *filter.Search + "%"
			dbCtx = dbCtx.Where(
				"name LIKE ? OR product_code LIKE ? OR barcode LIKE ? OR hsn_code LIKE ?",
				term, term, term, term)
		}
		if filter.Ordering != nil {
			if mapped, ok := productOrderings[*filter.Ordering]; ok {
				order = mapped
			}
		}
	}

	// db query
	if err := dbCtx.Order(order).Find(&results).Error; err != nil {
		return nil, err
	}
	for _, p := range results {
		p.ComputeCalculatedPrice()
	}
	return results, nil
}
