package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentType string

const (
	DocumentTypeSale                DocumentType = "SALE"
	DocumentTypePurchase            DocumentType = "PURCHASE"
	DocumentTypeCustomer            DocumentType = "CUSTOMER"
	DocumentTypeSupplierTransaction DocumentType = "SUPPLIER_TXN"
)

// DocumentSequence is one counter row per numbering scope. Numbers are
// claimed with an upsert-increment inside the caller's transaction, so two
// concurrent writers can never observe the same value and a rollback
// releases the number with the rest of the document.
type DocumentSequence struct {
	ID        int          `gorm:"primary_key" json:"id"`
	DocType   DocumentType `gorm:"size:20;not null;uniqueIndex:idx_sequence_scope,priority:1" json:"doc_type"`
	StoreId   int          `gorm:"not null;default:0;uniqueIndex:idx_sequence_scope,priority:2" json:"store_id"`
	IsReturn  bool         `gorm:"not null;default:false;uniqueIndex:idx_sequence_scope,priority:3" json:"is_return"`
	LastNo    int64        `gorm:"not null;default:0" json:"last_no"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// SequenceScope identifies one counter row and knows how to seed it from
// documents that predate the counter table.
type SequenceScope struct {
	DocType  DocumentType
	StoreId  int
	IsReturn bool

	seedLastNo func(tx *gorm.DB) (int64, error)
}

// Sales and sale returns share a single global counter; only the prefix
// differs between the two document kinds.
func SaleSequenceScope() SequenceScope {
	return SequenceScope{
		DocType:    DocumentTypeSale,
		seedLastNo: seedFromLastSaleInvoice,
	}
}

// Purchases count independently per store, and returns independently from
// purchases within a store.
func PurchaseSequenceScope(storeId int, isReturn bool) SequenceScope {
	return SequenceScope{
		DocType:  DocumentTypePurchase,
		StoreId:  storeId,
		IsReturn: isReturn,
		seedLastNo: func(tx *gorm.DB) (int64, error) {
			return seedFromMaxPurchaseInvoice(tx, storeId, isReturn)
		},
	}
}

func CustomerSequenceScope() SequenceScope {
	return SequenceScope{
		DocType:    DocumentTypeCustomer,
		seedLastNo: seedFromMaxId("customers"),
	}
}

func SupplierTransactionSequenceScope() SequenceScope {
	return SequenceScope{
		DocType:    DocumentTypeSupplierTransaction,
		seedLastNo: seedFromMaxId("supplier_transactions"),
	}
}

// NextDocumentNumber claims the next number for the scope inside tx.
// The first claim on a scope seeds the counter from pre-existing documents,
// so numbering continues where legacy data left off.
func NextDocumentNumber(tx *gorm.DB, scope SequenceScope) (int64, error) {
	var count int64
	if err := tx.Model(&DocumentSequence{}).
		Where("doc_type = ? AND store_id = ? AND is_return = ?", scope.DocType, scope.StoreId, scope.IsReturn).
		Count(&count).Error; err != nil {
		return 0, err
	}

	var seed int64
	if count == 0 && scope.seedLastNo != nil {
		var err error
		seed, err = scope.seedLastNo(tx)
		if err != nil {
			return 0, err
		}
	}

	// Insert claims seed+1; on conflict the existing row is incremented.
	// If two first claims race, the loser's insert degrades to an increment.
	row := DocumentSequence{
		DocType:  scope.DocType,
		StoreId:  scope.StoreId,
		IsReturn: scope.IsReturn,
		LastNo:   seed + 1,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_type"}, {Name: "store_id"}, {Name: "is_return"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_no": gorm.Expr("last_no + 1"),
		}),
	}).Create(&row).Error; err != nil {
		return 0, err
	}

	// Read back inside the same tx; the upsert holds the row lock until commit.
	var claimed int64
	if err := tx.Model(&DocumentSequence{}).
		Where("doc_type = ? AND store_id = ? AND is_return = ?", scope.DocType, scope.StoreId, scope.IsReturn).
		Select("last_no").Scan(&claimed).Error; err != nil {
		return 0, err
	}
	return claimed, nil
}

// PeekDocumentNumber returns the number the next claim would produce without
// claiming it. Used by invoice number previews; the value is not reserved.
func PeekDocumentNumber(ctx context.Context, scope SequenceScope) (int64, error) {
	db := config.GetDB()
	var row DocumentSequence
	err := db.WithContext(ctx).
		Where("doc_type = ? AND store_id = ? AND is_return = ?", scope.DocType, scope.StoreId, scope.IsReturn).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if scope.seedLastNo == nil {
				return 1, nil
			}
			seed, serr := scope.seedLastNo(db.WithContext(ctx))
			if serr != nil {
				return 0, serr
			}
			return seed + 1, nil
		}
		return 0, err
	}
	return row.LastNo + 1, nil
}

func FormatSaleInvoiceNo(n int64, isReturn bool) string {
	if isReturn {
		return fmt.Sprintf("RT%03d", n)
	}
	return fmt.Sprintf("SA%03d", n)
}

func FormatPurchaseInvoiceNo(n int64, isReturn bool) string {
	if isReturn {
		return fmt.Sprintf("PR%03d", n)
	}
	return fmt.Sprintf("PE%03d", n)
}

func FormatCustomerId(n int64) string {
	return fmt.Sprintf("CIN%03d", n)
}

func FormatSupplierTransactionNo(n int64) string {
	return fmt.Sprintf("ST%04d", n)
}

/* legacy seeds */

// seedFromLastSaleInvoice reads the digits out of the newest sale's invoice
// number. Malformed or missing invoices seed at zero.
func seedFromLastSaleInvoice(tx *gorm.DB) (int64, error) {
	var invoiceNo *string
	if err := tx.Table("sales").
		Order("id DESC").Limit(1).
		Select("invoice_no").Scan(&invoiceNo).Error; err != nil {
		return 0, err
	}
	if invoiceNo == nil {
		return 0, nil
	}
	n, err := strconv.ParseInt(digitsOnly(*invoiceNo), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// seedFromMaxPurchaseInvoice strips the document prefix off the highest
// invoice number in the scope. Zero padding keeps the string max aligned
// with the numeric max.
func seedFromMaxPurchaseInvoice(tx *gorm.DB, storeId int, isReturn bool) (int64, error) {
	var invoiceNo *string
	if err := tx.Table("purchases").
		Where("store_id = ? AND is_return = ?", storeId, isReturn).
		Select("MAX(invoice_no)").Scan(&invoiceNo).Error; err != nil {
		return 0, err
	}
	if invoiceNo == nil {
		return 0, nil
	}
	prefix := "PE"
	if isReturn {
		prefix = "PR"
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(*invoiceNo, prefix), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func seedFromMaxId(table string) func(tx *gorm.DB) (int64, error) {
	return func(tx *gorm.DB) (int64, error) {
		var maxId *int64
		if err := tx.Table(table).Select("MAX(id)").Scan(&maxId).Error; err != nil {
			return 0, err
		}
		if maxId == nil {
			return 0, nil
		}
		return *maxId, nil
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
