package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale stores total_amount already net of the privilege-card discount, so
// final_amount = total_amount + tax_amount always holds. Returns carry the
// same fields negated and are immutable after creation.
type Sale struct {
	ID             int             `gorm:"primary_key" json:"id"`
	InvoiceNo      string          `gorm:"size:20;not null;uniqueIndex" json:"invoice_no"`
	Date           time.Time       `gorm:"not null" json:"date"`
	StoreId        int             `gorm:"index;not null" json:"store"`
	Store          *Store          `json:"store_detail,omitempty"`
	CustomerId     *int            `gorm:"index" json:"customer"`
	Customer       *Customer       `json:"customer_detail,omitempty"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`
	PaymentMethod  PaymentMethod   `gorm:"size:20;not null;default:'CASH'" json:"payment_method"`
	Notes          *string         `gorm:"type:text" json:"notes"`
	IsReturn       bool            `gorm:"not null;default:false;index" json:"is_return"`
	OriginalSaleId *int            `gorm:"index" json:"original_sale"`
	OriginalSale   *Sale           `json:"original_sale_detail,omitempty"`
	Items          []SaleItem      `json:"items"`
	CreatedById    *int            `json:"created_by"`
	UpdatedById    *int            `json:"updated_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// SaleItem keeps amount = quantity * rate; exclusive tax is accumulated on
// the sale header, never folded into the line. The discount column is a
// uniform copy of the document discount for the printed receipt.
type SaleItem struct {
	ID        int             `gorm:"primary_key" json:"id"`
	SaleId    int             `gorm:"index;not null" json:"sale"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Product   *Product        `json:"product_detail,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Rate      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"rate"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Tax1Rate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax1_rate"`
	Tax2Rate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax2_rate"`
	TaxType   TaxType         `gorm:"size:10;not null;default:'INCLUSIVE'" json:"tax_type"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
}

type NewSaleItem struct {
	ProductId int             `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Rate      decimal.Decimal `json:"rate" binding:"required"`
}

type NewSale struct {
	Date          *time.Time     `json:"date"`
	StoreId       *int           `json:"store"`
	CustomerId    *int           `json:"customer"`
	PaymentMethod *PaymentMethod `json:"payment_method"`
	Notes         *string        `json:"notes"`
	Items         []NewSaleItem  `json:"items" binding:"required"`
}

type SaleFilter struct {
	StoreId       *int           `form:"store"`
	CustomerId    *int           `form:"customer"`
	StartDate     *time.Time     `form:"start_date" time_format:"2006-01-02"`
	EndDate       *time.Time     `form:"end_date" time_format:"2006-01-02"`
	IsReturn      *bool          `form:"is_return"`
	PaymentMethod *PaymentMethod `form:"payment_method"`
}

// saleTotals is the document-level aggregation: gross = sum(qty*rate),
// discount from the customer's privilege card, tax from exclusive lines only,
// final = (gross - discount) + tax.
type saleTotals struct {
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
}

func validateSaleItems(ctx context.Context, items []NewSaleItem) error {
	if len(items) == 0 {
		return errors.New("at least one item is required")
	}

	productIds := make([]int, 0, len(items))
	for _, item := range items {
		if item.Quantity.IsZero() {
			return errors.New("quantity cannot be zero")
		}
		if item.Quantity.IsNegative() {
			return errors.New("quantity must be greater than zero")
		}
		if !item.Rate.IsPositive() {
			return errors.New("rate must be greater than 0")
		}
		productIds = append(productIds, item.ProductId)
	}

	return utils.MassValidateResourceIds(ctx, []utils.ValidationRule[int]{
		{Model: Product{}, Ids: productIds, Message: "product not found"},
	})
}

// computeSaleTotals aggregates the document amounts from the input lines and
// the products' current tax configuration. The customer's privilege card
// discount applies to the gross before tax.
func computeSaleTotals(tx *gorm.DB, items []NewSaleItem, customer *Customer) (*saleTotals, map[int]*Product, error) {
	products := make(map[int]*Product, len(items))
	gross := decimal.Zero
	taxAmount := decimal.Zero

	for _, item := range items {
		product, ok := products[item.ProductId]
		if !ok {
			var p Product
			if err := tx.Preload("Tax1").Preload("Tax2").First(&p, item.ProductId).Error; err != nil {
				return nil, nil, err
			}
			product = &p
			products[item.ProductId] = product
		}

		base := item.Quantity.Mul(item.Rate)
		gross = gross.Add(base)

		if product.TaxType == TaxTypeExclusive {
			tax1 := decimal.Zero
			if product.Tax1 != nil {
				tax1 = product.Tax1.Rate
			}
			tax2 := decimal.Zero
			if product.Tax2 != nil {
				tax2 = product.Tax2.Rate
			}
			taxAmount = taxAmount.Add(utils.CalculateExclusiveTax(base, tax1, tax2))
		}
	}

	discountAmount := decimal.Zero
	if customer != nil && customer.PrivilegeCard != nil {
		discountAmount = utils.CalculateDiscountAmount(
			gross, decimal.NewFromInt(int64(customer.PrivilegeCard.DiscountPercentage)), "P")
	}

	totalAmount := gross.Sub(discountAmount)
	return &saleTotals{
		TotalAmount:    totalAmount,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		FinalAmount:    totalAmount.Add(taxAmount),
	}, products, nil
}

// createSaleLines persists the line set. Sales do not move stock; only
// purchase documents write the stock ledger.
func createSaleLines(tx *gorm.DB, sale *Sale, items []NewSaleItem, products map[int]*Product, discountAmount decimal.Decimal) error {
	for _, itemInput := range items {
		product := products[itemInput.ProductId]

		tax1Rate := decimal.Zero
		if product.Tax1 != nil {
			tax1Rate = product.Tax1.Rate
		}
		tax2Rate := decimal.Zero
		if product.Tax2 != nil {
			tax2Rate = product.Tax2.Rate
		}

		item := SaleItem{
			SaleId:    sale.ID,
			ProductId: product.ID,
			Quantity:  itemInput.Quantity,
			Rate:      itemInput.Rate,
			Discount:  discountAmount,
			Tax1Rate:  tax1Rate,
			Tax2Rate:  tax2Rate,
			TaxType:   product.TaxType,
			Amount:    itemInput.Quantity.Mul(itemInput.Rate),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}

// resolveSaleStore pins staff to their assigned store; admins may name any
// store and fall back to the first one.
func resolveSaleStore(ctx context.Context, storeId *int) (int, error) {
	if roleFromContext(ctx) == UserRoleStaff {
		return storeOfRequestUser(ctx)
	}
	if storeId != nil {
		if err := utils.ValidateResourceId[Store](ctx, *storeId); err != nil {
			return 0, errors.New("store not found")
		}
		return *storeId, nil
	}

	db := config.GetDB()
	var store Store
	if err := db.WithContext(ctx).Order("id ASC").Take(&store).Error; err != nil {
		return 0, errors.New("store is required")
	}
	return store.ID, nil
}

func saleCustomer(ctx context.Context, customerId *int) (*Customer, error) {
	if customerId == nil {
		return nil, nil
	}
	customer, err := utils.FetchModel[Customer](ctx, *customerId, "PrivilegeCard")
	if err != nil {
		return nil, errors.New("customer not found")
	}
	return customer, nil
}

// saleHasReturn reports whether a return document already exists against the
// sale. A sale supports at most one linked return.
func saleHasReturn(ctx context.Context, saleId int) (bool, error) {
	count, err := utils.ResourceCountWhere[Sale](ctx, "original_sale_id = ?", saleId)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// saleSmsBody mirrors the receipt SMS: first three product names, a count of
// the rest, and the final amount.
func saleSmsBody(products map[int]*Product, items []NewSaleItem, finalAmount decimal.Decimal) string {
	names := make([]string, 0, 3)
	for _, item := range items {
		if len(names) >= 3 {
			break
		}
		names = append(names, products[item.ProductId].Name)
	}
	body := "Thank you for your purchase of " + strings.Join(names, ", ")
	if len(items) > 3 {
		body += fmt.Sprintf(" and %d more items", len(items)-3)
	}
	return body + fmt.Sprintf(". Total amount: %s. Please visit us again!", finalAmount.StringFixed(2))
}

func CreateSale(ctx context.Context, input NewSale) (*Sale, error) {
	if input.PaymentMethod != nil && !input.PaymentMethod.Valid() {
		return nil, errors.New("payment method must be one of: CASH, ONLINE, CHEQUE, CREDIT")
	}
	if err := validateSaleItems(ctx, input.Items); err != nil {
		return nil, err
	}

	customer, err := saleCustomer(ctx, input.CustomerId)
	if err != nil {
		return nil, err
	}
	storeId, err := resolveSaleStore(ctx, input.StoreId)
	if err != nil {
		return nil, err
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	paymentMethod := PaymentMethodCash
	if input.PaymentMethod != nil {
		paymentMethod = *input.PaymentMethod
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	totals, products, err := computeSaleTotals(tx.WithContext(ctx), input.Items, customer)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	nextNo, err := NextDocumentNumber(tx.WithContext(ctx), SaleSequenceScope())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	sale := Sale{
		InvoiceNo:      FormatSaleInvoiceNo(nextNo, false),
		Date:           date,
		StoreId:        storeId,
		CustomerId:     input.CustomerId,
		TotalAmount:    totals.TotalAmount,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		FinalAmount:    totals.FinalAmount,
		PaymentMethod:  paymentMethod,
		Notes:          input.Notes,
		CreatedById:    utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	// db action
	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createSaleLines(tx.WithContext(ctx), &sale, input.Items, products, totals.DiscountAmount); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Receipt SMS rides the transactional outbox; delivery happens after
	// commit and can never abort the sale.
	if customer != nil && strings.TrimSpace(customer.Phone) != "" {
		if phone, perr := utils.FormatPhoneE164(customer.Phone); perr == nil {
			if _, err := EnqueueNotification(ctx, tx.WithContext(ctx), NotificationKindSMS,
				sale.ID, "SALE", phone, saleSmsBody(products, input.Items, totals.FinalAmount)); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetSale(ctx, sale.ID)
}

// UpdateSale replaces the whole line set and recomputes the document totals.
// Returns are immutable and a sale with a return against it is frozen.
func UpdateSale(ctx context.Context, id int, input NewSale) (*Sale, error) {
	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.IsReturn {
		return nil, errors.New("cannot modify a return sale")
	}
	hasReturn, err := saleHasReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	if hasReturn {
		return nil, errors.New("sale has a return against it and cannot be modified")
	}

	if input.PaymentMethod != nil && !input.PaymentMethod.Valid() {
		return nil, errors.New("payment method must be one of: CASH, ONLINE, CHEQUE, CREDIT")
	}
	if err := validateSaleItems(ctx, input.Items); err != nil {
		return nil, err
	}

	customerId := sale.CustomerId
	if input.CustomerId != nil {
		customerId = input.CustomerId
	}
	customer, err := saleCustomer(ctx, customerId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	totals, products, err := computeSaleTotals(tx.WithContext(ctx), input.Items, customer)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// db action
	if err := tx.WithContext(ctx).Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"TotalAmount":    totals.TotalAmount,
		"DiscountAmount": totals.DiscountAmount,
		"TaxAmount":      totals.TaxAmount,
		"FinalAmount":    totals.FinalAmount,
		"CustomerId":     customerId,
		"UpdatedById":    utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	if input.Date != nil {
		updates["Date"] = *input.Date
	}
	if input.PaymentMethod != nil {
		updates["PaymentMethod"] = *input.PaymentMethod
	}
	if input.Notes != nil {
		updates["Notes"] = input.Notes
	}
	if err := tx.WithContext(ctx).Model(&sale).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createSaleLines(tx.WithContext(ctx), sale, input.Items, products, totals.DiscountAmount); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetSale(ctx, id)
}

// DeleteSale removes the sale and its lines. A sale with a linked return
// must have the return deleted first so the pair never goes half-orphaned.
func DeleteSale(ctx context.Context, id int) (*Sale, error) {
	sale, err := utils.FetchModel[Sale](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	if !sale.IsReturn {
		hasReturn, err := saleHasReturn(ctx, id)
		if err != nil {
			return nil, err
		}
		if hasReturn {
			return nil, errors.New("sale has a return against it and cannot be deleted")
		}
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// db action
	if err := tx.WithContext(ctx).Where("sale_id = ?", id).Delete(&SaleItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return sale, nil
}

// CreateSaleReturn reverses a sale in full: one return document with every
// amount and quantity negated, linked back to the original. The invoice
// number reuses the original's digits under the RT prefix.
func CreateSaleReturn(ctx context.Context, originalId int) (*Sale, error) {
	original, err := utils.FetchModel[Sale](ctx, originalId, "Items")
	if err != nil {
		return nil, err
	}
	if original.IsReturn {
		return nil, errors.New("this is already a return sale")
	}
	hasReturn, err := saleHasReturn(ctx, originalId)
	if err != nil {
		return nil, err
	}
	if hasReturn {
		return nil, errors.New("return already exists for this sale")
	}

	notes := fmt.Sprintf("Return for %s", original.InvoiceNo)
	returnSale := Sale{
		InvoiceNo:      "RT" + digitsOnly(original.InvoiceNo),
		Date:           time.Now(),
		StoreId:        original.StoreId,
		CustomerId:     original.CustomerId,
		TotalAmount:    original.TotalAmount.Neg(),
		DiscountAmount: original.DiscountAmount.Neg(),
		TaxAmount:      original.TaxAmount.Neg(),
		FinalAmount:    original.FinalAmount.Neg(),
		PaymentMethod:  original.PaymentMethod,
		Notes:          &notes,
		IsReturn:       true,
		OriginalSaleId: &original.ID,
		CreatedById:    utils.NilIfEmpty(userIdFromContext(ctx)),
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// db action
	if err := tx.WithContext(ctx).Create(&returnSale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, item := range original.Items {
		returnItem := SaleItem{
			SaleId:    returnSale.ID,
			ProductId: item.ProductId,
			Quantity:  item.Quantity.Neg(),
			Rate:      item.Rate,
			Discount:  item.Discount,
			Tax1Rate:  item.Tax1Rate,
			Tax2Rate:  item.Tax2Rate,
			TaxType:   item.TaxType,
			Amount:    item.Amount.Neg(),
		}
		if err := tx.WithContext(ctx).Create(&returnItem).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetSale(ctx, returnSale.ID)
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchModel[Sale](ctx, id,
		"Store", "Customer", "Customer.PrivilegeCard", "Items", "Items.Product", "OriginalSale")
}

func ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error) {
	db := config.GetDB()
	var sales []Sale

	query := db.WithContext(ctx).Model(&Sale{}).
		Preload("Store").Preload("Customer").
		Preload("Items").Preload("Items.Product").
		Preload("OriginalSale")

	// Staff only see their own store's sales.
	if roleFromContext(ctx) == UserRoleStaff {
		if storeId, err := storeOfRequestUser(ctx); err == nil {
			query = query.Where("store_id = ?", storeId)
		}
	} else if filter.StoreId != nil {
		query = query.Where("store_id = ?", *filter.StoreId)
	}

	if filter.CustomerId != nil {
		query = query.Where("customer_id = ?", *filter.CustomerId)
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
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}

	// db action
	if err := query.Order("date DESC, created_at DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// LastInvoiceInfo backs the POS screen: what the last invoice was and what
// the next one will be (preview only, nothing is claimed).
type LastInvoiceInfo struct {
	LastInvoice *string `json:"last_invoice"`
	NextInvoice string  `json:"next_invoice"`
}

func GetLastSaleInvoice(ctx context.Context) (*LastInvoiceInfo, error) {
	db := config.GetDB()

	var lastSale Sale
	var lastInvoice *string
	if err := db.WithContext(ctx).Order("id DESC").Take(&lastSale).Error; err == nil {
		lastInvoice = &lastSale.InvoiceNo
	}

	nextNo, err := PeekDocumentNumber(ctx, SaleSequenceScope())
	if err != nil {
		return nil, err
	}
	return &LastInvoiceInfo{
		LastInvoice: lastInvoice,
		NextInvoice: FormatSaleInvoiceNo(nextNo, false),
	}, nil
}

// NextSaleInvoiceNo previews the next invoice number without claiming it.
func NextSaleInvoiceNo(ctx context.Context, isReturn bool) (string, error) {
	nextNo, err := PeekDocumentNumber(ctx, SaleSequenceScope())
	if err != nil {
		return "", err
	}
	return FormatSaleInvoiceNo(nextNo, isReturn), nil
}
