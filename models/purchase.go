package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Purchase struct {
	ID                  int                 `gorm:"primary_key" json:"id"`
	InvoiceNo           string              `gorm:"size:50;not null;uniqueIndex" json:"invoice_no"`
	Date                time.Time           `gorm:"not null" json:"date"`
	PaymentType         PurchasePaymentType `gorm:"size:10;not null;default:'cash'" json:"payment_type"`
	Status              PurchaseStatus      `gorm:"size:10;not null;default:'completed'" json:"status"`
	SupplierInvoiceNo   *string             `gorm:"size:50" json:"supplier_invoice_no"`
	SupplierInvoiceDate *time.Time          `json:"supplier_invoice_date"`
	SupplierId          int                 `gorm:"index;not null" json:"supplier"`
	Supplier            *Supplier           `json:"supplier_detail,omitempty"`
	StoreId             int                 `gorm:"index;not null" json:"store"`
	Store               *Store              `json:"store_detail,omitempty"`
	TotalAmount         decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Remarks             *string             `gorm:"type:text" json:"remarks"`
	IsReturn            bool                `gorm:"not null;default:false;index" json:"is_return"`
	ReturnReferenceId   *int                `gorm:"index" json:"return_reference"`
	ReturnReference     *Purchase           `json:"return_reference_detail,omitempty"`
	Items               []PurchaseItem      `json:"items"`
	CreatedById         *int                `json:"created_by"`
	UpdatedById         *int                `json:"updated_by"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// PurchaseItem snapshots the product's tax configuration at creation time.
// For EXCLUSIVE lines the tax is folded into amount; returned_quantity
// accumulates across partial returns and never exceeds quantity.
type PurchaseItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PurchaseId       int             `gorm:"index;not null" json:"purchase"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Product          *Product        `json:"product_detail,omitempty"`
	Quantity         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Rate             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	Tax1Rate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax1_rate"`
	Tax2Rate         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax2_rate"`
	TaxType          TaxType         `gorm:"size:10;not null;default:'INCLUSIVE'" json:"tax_type"`
	ReturnedQuantity decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"returned_quantity"`
}

type NewPurchaseItem struct {
	ProductId int              `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	Rate      *decimal.Decimal `json:"rate"`
}

type NewPurchase struct {
	Date                *time.Time           `json:"date"`
	PaymentType         *PurchasePaymentType `json:"payment_type"`
	SupplierId          int                  `json:"supplier_id" binding:"required"`
	SupplierInvoiceNo   *string              `json:"supplier_invoice_no"`
	SupplierInvoiceDate *time.Time           `json:"supplier_invoice_date"`
	Remarks             *string              `json:"remarks"`
	Items               []NewPurchaseItem    `json:"items" binding:"required"`
}

type UpdatePurchaseInput struct {
	Date                *time.Time           `json:"date"`
	PaymentType         *PurchasePaymentType `json:"payment_type"`
	SupplierId          *int                 `json:"supplier_id"`
	SupplierInvoiceNo   *string              `json:"supplier_invoice_no"`
	SupplierInvoiceDate *time.Time           `json:"supplier_invoice_date"`
	Remarks             *string              `json:"remarks"`
	Items               []NewPurchaseItem    `json:"items" binding:"required"`
}

type NewPurchaseReturn struct {
	ReturnReferenceId int                  `json:"return_reference_id" binding:"required"`
	Date              *time.Time           `json:"date"`
	PaymentType       *PurchasePaymentType `json:"payment_type"`
	Remarks           *string              `json:"remarks"`
	Items             []NewPurchaseItem    `json:"items" binding:"required"`
}

type PurchaseFilter struct {
	SupplierId  *int                 `form:"supplier_id"`
	StartDate   *time.Time           `form:"start_date" time_format:"2006-01-02"`
	EndDate     *time.Time           `form:"end_date" time_format:"2006-01-02"`
	IsReturn    *bool                `form:"is_return"`
	Status      *PurchaseStatus      `form:"status"`
	StoreId     *int                 `form:"store"`
	PaymentType *PurchasePaymentType `form:"payment_type"`
}

// ReturnableItem describes how much of a purchase line is still open for
// return, along with the tax snapshot the return line will reuse.
type ReturnableItem struct {
	ID                int             `json:"id"`
	ProductId         int             `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductCode       string          `json:"product_code"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	ReturnedQuantity  decimal.Decimal `json:"returned_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Rate              decimal.Decimal `json:"rate"`
	TaxType           TaxType         `json:"tax_type"`
	Tax1Rate          decimal.Decimal `json:"tax1_rate"`
	Tax2Rate          decimal.Decimal `json:"tax2_rate"`
}

func validatePurchaseItems(ctx context.Context, items []NewPurchaseItem) error {
	if len(items) == 0 {
		return errors.New("at least one item is required")
	}

	productIds := make([]int, 0, len(items))
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return errors.New("quantity must be greater than zero")
		}
		if item.Rate != nil && !item.Rate.IsPositive() {
			return errors.New("rate must be greater than zero")
		}
		productIds = append(productIds, item.ProductId)
	}

	return utils.MassValidateResourceIds(ctx, []utils.ValidationRule[int]{
		{Model: Product{}, Ids: productIds, Message: "product not found"},
	})
}

// storeOfRequestUser resolves the acting user's assigned store. Purchases are
// always recorded against the store of whoever keys them in.
func storeOfRequestUser(ctx context.Context) (int, error) {
	userId := userIdFromContext(ctx)
	if userId == 0 {
		return 0, errors.New("user must be assigned to a store")
	}
	user, err := utils.FetchModel[User](ctx, userId)
	if err != nil {
		return 0, err
	}
	if user.StoreId == nil {
		return 0, errors.New("user must be assigned to a store")
	}
	return *user.StoreId, nil
}

// createPurchaseLines persists the line set for a purchase document, applying
// the stock effect of each line as it lands. Returns the document total.
// Runs inside the caller's transaction.
func createPurchaseLines(tx *gorm.DB, purchase *Purchase, items []NewPurchaseItem, reason StockMovementReason) (decimal.Decimal, error) {
	totalAmount := decimal.Zero

	for _, itemInput := range items {
		var product Product
		if err := tx.Preload("Tax1").Preload("Tax2").First(&product, itemInput.ProductId).Error; err != nil {
			return decimal.Zero, err
		}

		rate, err := resolvePurchaseRate(&product, itemInput.Rate)
		if err != nil {
			return decimal.Zero, err
		}

		tax1Rate := decimal.Zero
		if product.Tax1 != nil {
			tax1Rate = product.Tax1.Rate
		}
		tax2Rate := decimal.Zero
		if product.Tax2 != nil {
			tax2Rate = product.Tax2.Rate
		}

		amount, taxAmount := utils.CalculatePurchaseLineValues(
			itemInput.Quantity, rate, tax1Rate, tax2Rate, product.TaxType == TaxTypeExclusive)

		item := PurchaseItem{
			PurchaseId: purchase.ID,
			ProductId:  product.ID,
			Quantity:   itemInput.Quantity,
			Rate:       rate,
			Amount:     amount,
			TaxAmount:  taxAmount,
			Tax1Rate:   tax1Rate,
			Tax2Rate:   tax2Rate,
			TaxType:    product.TaxType,
		}
		if err := tx.Create(&item).Error; err != nil {
			return decimal.Zero, err
		}

		stockDelta := itemInput.Quantity
		if purchase.IsReturn {
			stockDelta = stockDelta.Neg()
		}
		if err := ApplyStockDelta(tx, product.ID, stockDelta, reason, "PURCHASE", purchase.ID); err != nil {
			return decimal.Zero, err
		}

		totalAmount = totalAmount.Add(amount)
	}

	return totalAmount, nil
}

// resolvePurchaseRate falls back to the product's configured purchase rate
// when the line does not carry one.
func resolvePurchaseRate(product *Product, rate *decimal.Decimal) (decimal.Decimal, error) {
	if rate != nil {
		return *rate, nil
	}
	if product.PurchaseRate != nil && product.PurchaseRate.IsPositive() {
		return *product.PurchaseRate, nil
	}
	return decimal.Zero, fmt.Errorf("rate is required for product %s", product.Name)
}

// reversePurchaseStock undoes the stock effect of every line on the document.
func reversePurchaseStock(tx *gorm.DB, purchase *Purchase, reason StockMovementReason) error {
	for _, item := range purchase.Items {
		stockDelta := item.Quantity.Neg()
		if purchase.IsReturn {
			stockDelta = item.Quantity
		}
		if err := ApplyStockDelta(tx, item.ProductId, stockDelta, reason, "PURCHASE", purchase.ID); err != nil {
			return err
		}
	}
	return nil
}

// purchaseHasReturns reports whether any return document or line-level
// returned quantity exists against the purchase.
func purchaseHasReturns(ctx context.Context, purchaseId int) (bool, error) {
	count, err := utils.ResourceCountWhere[Purchase](ctx, "return_reference_id = ?", purchaseId)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	count, err = utils.ResourceCountWhere[PurchaseItem](ctx, "purchase_id = ? AND returned_quantity > 0", purchaseId)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreatePurchase(ctx context.Context, input NewPurchase) (*Purchase, error) {
	if input.Date == nil {
		return nil, errors.New("date is required")
	}
	if input.PaymentType != nil && !input.PaymentType.Valid() {
		return nil, errors.New("payment type must be one of: cash, credit")
	}
	if _, err := utils.FetchModel[Supplier](ctx, input.SupplierId); err != nil {
		return nil, errors.New("supplier not found")
	}
	if err := validatePurchaseItems(ctx, input.Items); err != nil {
		return nil, err
	}

	storeId, err := storeOfRequestUser(ctx)
	if err != nil {
		return nil, err
	}

	paymentType := PurchasePaymentTypeCash
	if input.PaymentType != nil {
		paymentType = *input.PaymentType
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	nextNo, err := NextDocumentNumber(tx.WithContext(ctx), PurchaseSequenceScope(storeId, false))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	purchase := Purchase{
		InvoiceNo:           FormatPurchaseInvoiceNo(nextNo, false),
		Date:                *input.Date,
		PaymentType:         paymentType,
		Status:              PurchaseStatusCompleted,
		SupplierInvoiceNo:   input.SupplierInvoiceNo,
		SupplierInvoiceDate: input.SupplierInvoiceDate,
		SupplierId:          input.SupplierId,
		StoreId:             storeId,
		Remarks:             input.Remarks,
		CreatedById:         utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	// db action
	if err := tx.WithContext(ctx).Create(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	totalAmount, err := createPurchaseLines(tx.WithContext(ctx), &purchase, input.Items, StockMovementReasonPurchase)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&purchase).Update("total_amount", totalAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetPurchase(ctx, purchase.ID)
}

// UpdatePurchase replaces the whole line set: existing lines are reversed out
// of stock and deleted, then the new set is written and applied. Returns are
// immutable, and a purchase that already has returns against it cannot change
// shape underneath them.
func UpdatePurchase(ctx context.Context, id int, input UpdatePurchaseInput) (*Purchase, error) {
	purchase, err := utils.FetchModel[Purchase](ctx, id, "Items")
	if err != nil {
		return nil, err
	}
	if purchase.IsReturn {
		return nil, errors.New("cannot modify a return purchase")
	}
	hasReturns, err := purchaseHasReturns(ctx, id)
	if err != nil {
		return nil, err
	}
	if hasReturns {
		return nil, errors.New("purchase has returns against it and cannot be modified")
	}

	if input.PaymentType != nil && !input.PaymentType.Valid() {
		return nil, errors.New("payment type must be one of: cash, credit")
	}
	if input.SupplierId != nil {
		if _, err := utils.FetchModel[Supplier](ctx, *input.SupplierId); err != nil {
			return nil, errors.New("supplier not found")
		}
	}
	if err := validatePurchaseItems(ctx, input.Items); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := reversePurchaseStock(tx.WithContext(ctx), purchase, StockMovementReasonPurchaseDelete); err != nil {
		tx.Rollback()
		return nil, err
	}

	// db action
	if err := tx.WithContext(ctx).Where("purchase_id = ?", id).Delete(&PurchaseItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"UpdatedById": utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	if input.Date != nil {
		updates["Date"] = *input.Date
	}
	if input.PaymentType != nil {
		updates["PaymentType"] = *input.PaymentType
	}
	if input.SupplierId != nil {
		updates["SupplierId"] = *input.SupplierId
	}
	if input.SupplierInvoiceNo != nil {
		updates["SupplierInvoiceNo"] = input.SupplierInvoiceNo
	}
	if input.SupplierInvoiceDate != nil {
		updates["SupplierInvoiceDate"] = input.SupplierInvoiceDate
	}
	if input.Remarks != nil {
		updates["Remarks"] = input.Remarks
	}
	if err := tx.WithContext(ctx).Model(&purchase).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	totalAmount, err := createPurchaseLines(tx.WithContext(ctx), purchase, input.Items, StockMovementReasonPurchase)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&purchase).Update("total_amount", totalAmount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetPurchase(ctx, id)
}

// DeletePurchase reverses every stock effect the document applied before
// removing it. Deleting a return also hands the returned quantities back to
// the original purchase and reopens its status.
func DeletePurchase(ctx context.Context, id int) (*Purchase, error) {
	purchase, err := utils.FetchModel[Purchase](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	if !purchase.IsReturn {
		hasReturns, err := purchaseHasReturns(ctx, id)
		if err != nil {
			return nil, err
		}
		if hasReturns {
			return nil, errors.New("purchase has returns against it and cannot be deleted")
		}
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	reason := StockMovementReasonPurchaseDelete
	if purchase.IsReturn {
		reason = StockMovementReasonReturnDelete
	}
	if err := reversePurchaseStock(tx.WithContext(ctx), purchase, reason); err != nil {
		tx.Rollback()
		return nil, err
	}

	if purchase.IsReturn && purchase.ReturnReferenceId != nil {
		if err := restoreReturnedQuantities(tx.WithContext(ctx), purchase); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// db action
	if err := tx.WithContext(ctx).Where("purchase_id = ?", id).Delete(&PurchaseItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

// restoreReturnedQuantities gives a deleted return's quantities back to the
// original purchase lines and reopens the original's status, since it is no
// longer fully returned.
func restoreReturnedQuantities(tx *gorm.DB, returnPurchase *Purchase) error {
	originalId := *returnPurchase.ReturnReferenceId

	for _, item := range returnPurchase.Items {
		if err := tx.Model(&PurchaseItem{}).
			Where("purchase_id = ? AND product_id = ?", originalId, item.ProductId).
			Update("returned_quantity", gorm.Expr("returned_quantity - ?", item.Quantity)).Error; err != nil {
			return err
		}
	}

	return tx.Model(&Purchase{}).
		Where("id = ? AND status = ?", originalId, PurchaseStatusReturned).
		Update("status", PurchaseStatusCompleted).Error
}

// CreatePurchaseReturn creates a return document against an original
// purchase. Partial returns accumulate on the original lines; once every
// line is fully returned the original's status flips to returned.
func CreatePurchaseReturn(ctx context.Context, input NewPurchaseReturn) (*Purchase, error) {
	original, err := utils.FetchModel[Purchase](ctx, input.ReturnReferenceId, "Items", "Items.Product")
	if err != nil {
		return nil, err
	}
	if original.IsReturn {
		return nil, errors.New("cannot return a return purchase")
	}
	if input.Date == nil {
		return nil, errors.New("date is required")
	}
	if input.PaymentType != nil && !input.PaymentType.Valid() {
		return nil, errors.New("payment type must be one of: cash, credit")
	}
	if err := validatePurchaseItems(ctx, input.Items); err != nil {
		return nil, err
	}

	// Every requested line must match an original line with enough
	// un-returned quantity left.
	originalByProduct := make(map[int]*PurchaseItem, len(original.Items))
	for i := range original.Items {
		originalByProduct[original.Items[i].ProductId] = &original.Items[i]
	}
	for _, item := range input.Items {
		originalItem, ok := originalByProduct[item.ProductId]
		if !ok {
			return nil, fmt.Errorf("product %d not found in original purchase", item.ProductId)
		}
		remaining := originalItem.Quantity.Sub(originalItem.ReturnedQuantity)
		if item.Quantity.GreaterThan(remaining) {
			name := fmt.Sprintf("product %d", item.ProductId)
			if originalItem.Product != nil {
				name = originalItem.Product.Name
			}
			return nil, fmt.Errorf("cannot return more than %s of %s", remaining.String(), name)
		}
	}

	storeId, err := storeOfRequestUser(ctx)
	if err != nil {
		return nil, err
	}

	paymentType := PurchasePaymentTypeCash
	if input.PaymentType != nil {
		paymentType = *input.PaymentType
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	nextNo, err := NextDocumentNumber(tx.WithContext(ctx), PurchaseSequenceScope(storeId, true))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	returnPurchase := Purchase{
		InvoiceNo:         FormatPurchaseInvoiceNo(nextNo, true),
		Date:              *input.Date,
		PaymentType:       paymentType,
		Status:            PurchaseStatusCompleted,
		SupplierId:        original.SupplierId,
		StoreId:           storeId,
		Remarks:           input.Remarks,
		IsReturn:          true,
		ReturnReferenceId: &original.ID,
		CreatedById:       utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	// db action
	if err := tx.WithContext(ctx).Create(&returnPurchase).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	totalAmount, err := createPurchaseLines(tx.WithContext(ctx), &returnPurchase, input.Items, StockMovementReasonPurchaseReturn)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// Return documents carry their total negative so range aggregates can
	// net them against the originals with a plain SUM.
	if err := tx.WithContext(ctx).Model(&returnPurchase).Update("total_amount", totalAmount.Neg()).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, item := range input.Items {
		if err := tx.WithContext(ctx).Model(&PurchaseItem{}).
			Where("purchase_id = ? AND product_id = ?", original.ID, item.ProductId).
			Update("returned_quantity", gorm.Expr("returned_quantity + ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Flip the original to returned only once every line is fully consumed.
	var openLines int64
	if err := tx.WithContext(ctx).Model(&PurchaseItem{}).
		Where("purchase_id = ? AND returned_quantity < quantity", original.ID).
		Count(&openLines).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if openLines == 0 {
		if err := tx.WithContext(ctx).Model(&Purchase{}).
			Where("id = ?", original.ID).
			Update("status", PurchaseStatusReturned).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetPurchase(ctx, returnPurchase.ID)
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	return utils.FetchModel[Purchase](ctx, id,
		"Supplier", "Store", "Items", "Items.Product", "ReturnReference")
}

// NextPurchaseInvoiceNo previews the invoice number the acting user's store
// would produce next, without claiming it.
func NextPurchaseInvoiceNo(ctx context.Context, isReturn bool) (string, error) {
	storeId, err := storeOfRequestUser(ctx)
	if err != nil {
		return "", err
	}
	nextNo, err := PeekDocumentNumber(ctx, PurchaseSequenceScope(storeId, isReturn))
	if err != nil {
		return "", err
	}
	return FormatPurchaseInvoiceNo(nextNo, isReturn), nil
}

func ListPurchases(ctx context.Context, filter PurchaseFilter) ([]Purchase, error) {
	db := config.GetDB()
	var purchases []Purchase

	query := db.WithContext(ctx).Model(&Purchase{}).
		Preload("Supplier").Preload("Store").
		Preload("Items").Preload("Items.Product").
		Preload("ReturnReference")

	// Users tied to a store only see that store's purchases.
	if storeId, err := storeOfRequestUser(ctx); err == nil {
		query = query.Where("store_id = ?", storeId)
	} else if filter.StoreId != nil {
		query = query.Where("store_id = ?", *filter.StoreId)
	}

	if filter.SupplierId != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierId)
	}
	if filter.StartDate != nil {
		query = query.Where("DATE(date) >= DATE(?)", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("DATE(date) <= DATE(?)", *filter.EndDate)
	}
	if filter.IsReturn != nil {
		query = query.Where("is_return = ?", *filter.IsReturn)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentType != nil {
		query = query.Where("payment_type = ?", *filter.PaymentType)
	}

	// db action
	if err := query.Order("date DESC, created_at DESC").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// ListReturnablePurchases lists the store's purchases that still have
// un-returned quantity on at least one line.
func ListReturnablePurchases(ctx context.Context) ([]Purchase, error) {
	storeId, err := storeOfRequestUser(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var purchases []Purchase
	// db action
	if err := db.WithContext(ctx).Model(&Purchase{}).
		Distinct("purchases.*").
		Joins("JOIN purchase_items ON purchase_items.purchase_id = purchases.id").
		Where("purchases.store_id = ? AND purchases.is_return = ?", storeId, false).
		Where("purchase_items.returned_quantity < purchase_items.quantity").
		Preload("Supplier").Preload("Items").Preload("Items.Product").
		Order("purchases.date DESC, purchases.created_at DESC").
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// ListReturnableItems lists a purchase's lines that still have quantity left
// to return.
func ListReturnableItems(ctx context.Context, purchaseId int) ([]ReturnableItem, error) {
	purchase, err := utils.FetchModel[Purchase](ctx, purchaseId, "Items", "Items.Product")
	if err != nil {
		return nil, err
	}
	if purchase.IsReturn {
		return nil, errors.New("cannot return a return purchase")
	}

	items := []ReturnableItem{}
	for _, item := range purchase.Items {
		if !item.Quantity.GreaterThan(item.ReturnedQuantity) {
			continue
		}
		returnable := ReturnableItem{
			ID:                item.ID,
			ProductId:         item.ProductId,
			OriginalQuantity:  item.Quantity,
			ReturnedQuantity:  item.ReturnedQuantity,
			RemainingQuantity: item.Quantity.Sub(item.ReturnedQuantity),
			Rate:              item.Rate,
			TaxType:           item.TaxType,
			Tax1Rate:          item.Tax1Rate,
			Tax2Rate:          item.Tax2Rate,
		}
		if item.Product != nil {
			returnable.ProductName = item.Product.Name
			returnable.ProductCode = item.Product.ProductCode
		}
		items = append(items, returnable)
	}
	return items, nil
}
