package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/shopspring/decimal"
)

// SupplierTransaction is one debit/credit entry in a supplier's ledger. The
// supplier's current_balance is recomputed from the full history on every
// write or delete, inside the same transaction.
type SupplierTransaction struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	SupplierId      int                 `gorm:"index;not null" json:"supplier"`
	Supplier        *Supplier           `json:"supplier_detail,omitempty"`
	TransactionNo   string              `gorm:"size:20;not null;uniqueIndex" json:"transaction_no"`
	TransactionDate time.Time           `gorm:"not null" json:"transaction_date"`
	InvoiceNo       *string             `gorm:"size:50" json:"invoice_no"`
	Particulars     string              `gorm:"size:200;not null" json:"particulars" binding:"required"`
	Description     *string             `gorm:"type:text" json:"description"`
	Debit           decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"debit"`
	Credit          decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"credit"`
	PaymentMode     SupplierPaymentMode `gorm:"size:20;not null" json:"payment_mode" binding:"required"`
	Remarks         *string             `gorm:"type:text" json:"remarks"`
	CreatedById     *int                `json:"created_by"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

type NewSupplierTransaction struct {
	SupplierId      int                 `json:"supplier" binding:"required"`
	TransactionDate *time.Time          `json:"transaction_date"`
	InvoiceNo       *string             `json:"invoice_no"`
	Particulars     string              `json:"particulars" binding:"required"`
	Description     *string             `json:"description"`
	Debit           *decimal.Decimal    `json:"debit"`
	Credit          *decimal.Decimal    `json:"credit"`
	PaymentMode     SupplierPaymentMode `json:"payment_mode" binding:"required"`
	Remarks         *string             `json:"remarks"`
}

type UpdateSupplierTransactionInput struct {
	SupplierId      *int                 `json:"supplier"`
	TransactionDate *time.Time           `json:"transaction_date"`
	InvoiceNo       *string              `json:"invoice_no"`
	Particulars     *string              `json:"particulars"`
	Description     *string              `json:"description"`
	Debit           *decimal.Decimal     `json:"debit"`
	Credit          *decimal.Decimal     `json:"credit"`
	PaymentMode     *SupplierPaymentMode `json:"payment_mode"`
	Remarks         *string              `json:"remarks"`
}

type SupplierTransactionFilter struct {
	SupplierId      *int                 `form:"supplier"`
	PaymentMode     *SupplierPaymentMode `form:"payment_mode"`
	TransactionDate *time.Time           `form:"transaction_date" time_format:"2006-01-02"`
}

// SupplierStatement is the data behind a supplier account statement:
// the ledger entries of a date range plus running totals.
type SupplierStatement struct {
	Supplier       *Supplier             `json:"supplier,omitempty"`
	Transactions   []SupplierTransaction `json:"transactions"`
	TotalDebit     decimal.Decimal       `json:"total_debit"`
	TotalCredit    decimal.Decimal       `json:"total_credit"`
	CurrentBalance decimal.Decimal       `json:"current_balance"`
	StartDate      time.Time             `json:"start_date"`
	EndDate        time.Time             `json:"end_date"`
}

func validateSupplierTransaction(particulars string, debit, credit decimal.Decimal, paymentMode SupplierPaymentMode) error {
	if strings.TrimSpace(particulars) == "" {
		return errors.New("particulars is required")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return errors.New("debit and credit amounts must be positive")
	}
	if !paymentMode.Valid() {
		return errors.New("payment mode must be one of: cash, cheque, online, upi, other")
	}
	return nil
}

func CreateSupplierTransaction(ctx context.Context, input NewSupplierTransaction) (*SupplierTransaction, error) {
	if _, err := utils.FetchModel[Supplier](ctx, input.SupplierId); err != nil {
		return nil, errors.New("supplier not found")
	}

	debit := decimal.Zero
	if input.Debit != nil {
		debit = *input.Debit
	}
	credit := decimal.Zero
	if input.Credit != nil {
		credit = *input.Credit
	}
	if err := validateSupplierTransaction(input.Particulars, debit, credit, input.PaymentMode); err != nil {
		return nil, err
	}

	transactionDate := time.Now()
	if input.TransactionDate != nil {
		transactionDate = *input.TransactionDate
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	nextNo, err := NextDocumentNumber(tx.WithContext(ctx), SupplierTransactionSequenceScope())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	transaction := SupplierTransaction{
		SupplierId:      input.SupplierId,
		TransactionNo:   FormatSupplierTransactionNo(nextNo),
		TransactionDate: transactionDate,
		InvoiceNo:       input.InvoiceNo,
		Particulars:     input.Particulars,
		Description:     input.Description,
		Debit:           debit,
		Credit:          credit,
		PaymentMode:     input.PaymentMode,
		Remarks:         input.Remarks,
		CreatedById:     utils.NilIfEmpty(userIdFromContext(ctx)),
	}

	// db action
	if err := tx.WithContext(ctx).Create(&transaction).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := UpdateSupplierBalance(tx.WithContext(ctx), transaction.SupplierId); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetSupplierTransaction(ctx, transaction.ID)
}

func UpdateSupplierTransaction(ctx context.Context, id int, input UpdateSupplierTransactionInput) (*SupplierTransaction, error) {
	transaction, err := utils.FetchModel[SupplierTransaction](ctx, id)
	if err != nil {
		return nil, err
	}

	particulars := transaction.Particulars
	if input.Particulars != nil {
		particulars = *input.Particulars
	}
	debit := transaction.Debit
	if input.Debit != nil {
		debit = *input.Debit
	}
	credit := transaction.Credit
	if input.Credit != nil {
		credit = *input.Credit
	}
	paymentMode := transaction.PaymentMode
	if input.PaymentMode != nil {
		paymentMode = *input.PaymentMode
	}
	if err := validateSupplierTransaction(particulars, debit, credit, paymentMode); err != nil {
		return nil, err
	}

	oldSupplierId := transaction.SupplierId
	newSupplierId := oldSupplierId
	if input.SupplierId != nil && *input.SupplierId != oldSupplierId {
		if _, err := utils.FetchModel[Supplier](ctx, *input.SupplierId); err != nil {
			return nil, errors.New("supplier not found")
		}
		newSupplierId = *input.SupplierId
	}

	updates := map[string]interface{}{
		"SupplierId":  newSupplierId,
		"Particulars": particulars,
		"Debit":       debit,
		"Credit":      credit,
		"PaymentMode": paymentMode,
	}
	if input.TransactionDate != nil {
		updates["TransactionDate"] = *input.TransactionDate
	}
	if input.InvoiceNo != nil {
		updates["InvoiceNo"] = input.InvoiceNo
	}
	if input.Description != nil {
		updates["Description"] = input.Description
	}
	if input.Remarks != nil {
		updates["Remarks"] = input.Remarks
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// db action
	if err := tx.WithContext(ctx).Model(&transaction).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := UpdateSupplierBalance(tx.WithContext(ctx), newSupplierId); err != nil {
		tx.Rollback()
		return nil, err
	}
	// Moving an entry between suppliers shifts both balances.
	if newSupplierId != oldSupplierId {
		if err := UpdateSupplierBalance(tx.WithContext(ctx), oldSupplierId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetSupplierTransaction(ctx, id)
}

func DeleteSupplierTransaction(ctx context.Context, id int) (*SupplierTransaction, error) {
	transaction, err := utils.FetchModel[SupplierTransaction](ctx, id)
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

	// db action
	if err := tx.WithContext(ctx).Delete(&transaction).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := UpdateSupplierBalance(tx.WithContext(ctx), transaction.SupplierId); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return transaction, nil
}

func GetSupplierTransaction(ctx context.Context, id int) (*SupplierTransaction, error) {
	return utils.FetchModel[SupplierTransaction](ctx, id, "Supplier")
}

func ListSupplierTransactions(ctx context.Context, filter SupplierTransactionFilter) ([]SupplierTransaction, error) {
	db := config.GetDB()
	var transactions []SupplierTransaction

	query := db.WithContext(ctx).Model(&SupplierTransaction{}).Preload("Supplier")
	if filter.SupplierId != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierId)
	}
	if filter.PaymentMode != nil {
		query = query.Where("payment_mode = ?", *filter.PaymentMode)
	}
	if filter.TransactionDate != nil {
		query = query.Where("DATE(transaction_date) = DATE(?)", *filter.TransactionDate)
	}

	// db action
	if err := query.Order("transaction_date DESC, id DESC").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetSupplierStatement assembles a supplier's ledger for a date range along
// with debit/credit totals, for the account statement report.
func GetSupplierStatement(ctx context.Context, supplierId *int, startDate, endDate time.Time) (*SupplierStatement, error) {
	statement := SupplierStatement{
		Transactions: []SupplierTransaction{},
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
		StartDate:    startDate,
		EndDate:      endDate,
	}

	db := config.GetDB()
	query := db.WithContext(ctx).Model(&SupplierTransaction{})

	if supplierId != nil {
		supplier, err := utils.FetchModel[Supplier](ctx, *supplierId)
		if err != nil {
			return nil, errors.New("supplier not found")
		}
		statement.Supplier = supplier
		statement.CurrentBalance = supplier.CurrentBalance
		query = query.Where("supplier_id = ?", *supplierId)
	} else {
		// Without a supplier there is no ledger to report on.
		return &statement, nil
	}

	// db action
	if err := query.
		Where("DATE(transaction_date) >= DATE(?) AND DATE(transaction_date) <= DATE(?)", startDate, endDate).
		Order("transaction_date ASC").
		Find(&statement.Transactions).Error; err != nil {
		return nil, err
	}

	for _, t := range statement.Transactions {
		statement.TotalDebit = statement.TotalDebit.Add(t.Debit)
		statement.TotalCredit = statement.TotalCredit.Add(t.Credit)
	}

	return &statement, nil
}
