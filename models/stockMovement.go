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

// StockMovement is the append-only ledger behind products.stock. Every
// mutation of a product's stock writes one movement row inside the same
// transaction that moves the quantity, so the ledger always reconciles
// with the stock column.
type StockMovement struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	ProductId     int                 `gorm:"index;not null" json:"product_id"`
	Product       *Product            `json:"product_detail,omitempty"`
	Quantity      decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Reason        StockMovementReason `gorm:"size:20;not null;index" json:"reason"`
	ReferenceType string              `gorm:"size:30" json:"reference_type"`
	ReferenceId   int                 `gorm:"index" json:"reference_id"`
	CreatedById   *int                `json:"created_by"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

// ApplyStockDelta records a signed stock movement and shifts the product's
// stock by the same quantity. It must run inside the caller's transaction;
// the document operation that triggered the movement commits or rolls back
// both together. Quantity is positive for goods coming in, negative for
// goods going out.
func ApplyStockDelta(tx *gorm.DB, productId int, quantity decimal.Decimal, reason StockMovementReason, referenceType string, referenceId int) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if productId <= 0 || quantity.IsZero() {
		return nil
	}

	ctx := tx.Statement.Context

	movement := StockMovement{
		ProductId:     productId,
		Quantity:      quantity,
		Reason:        reason,
		ReferenceType: referenceType,
		ReferenceId:   referenceId,
		CreatedById:   utils.NilIfEmpty(userIdFromContext(ctx)),
	}
	if err := tx.Create(&movement).Error; err != nil {
		return err
	}

	if err := tx.Exec("UPDATE products SET stock = stock + ? WHERE id = ?", quantity, productId).Error; err != nil {
		return err
	}

	// Read back within the transaction so a movement that would drive the
	// product negative aborts the whole document operation.
	var product Product
	if err := tx.Select("id", "stock").First(&product, productId).Error; err != nil {
		return err
	}
	if product.Stock.IsNegative() {
		return errors.New("product stock cannot be negative")
	}

	// The cached product carries a stale stock figure once the row moves.
	if err := utils.RemoveRedisItem[Product](productId); err != nil {
		return err
	}

	return nil
}

func ListStockMovements(ctx context.Context, productId *int, reason *StockMovementReason) ([]StockMovement, error) {
	db := config.GetDB()
	var movements []StockMovement

	query := db.WithContext(ctx).Model(&StockMovement{}).Preload("Product")
	if productId != nil {
		query = query.Where("product_id = ?", *productId)
	}
	if reason != nil {
		query = query.Where("reason = ?", *reason)
	}

	// db action
	if err := query.Order("id DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
