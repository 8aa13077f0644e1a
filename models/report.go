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

// Report is a generation request. The row is created PENDING together with a
// REPORT_UPLOAD outbox entry in one transaction; the dispatcher renders the
// file, uploads it and flips the row to READY with the download URL.
type Report struct {
	ID          int          `gorm:"primary_key" json:"id"`
	ReportType  ReportType   `gorm:"size:20;not null" json:"report_type"`
	Format      ReportFormat `gorm:"size:10;not null" json:"format"`
	StartDate   time.Time    `gorm:"not null" json:"start_date"`
	EndDate     time.Time    `gorm:"not null" json:"end_date"`
	Status      ReportStatus `gorm:"size:10;not null;default:'PENDING';index" json:"status"`
	FileUrl     *string      `gorm:"size:500" json:"file_url"`
	ErrorDetail *string      `gorm:"type:text" json:"error_detail"`
	RequestedBy *int         `gorm:"index" json:"requested_by"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReport struct {
	ReportType ReportType   `json:"report_type" binding:"required"`
	Format     ReportFormat `json:"format" binding:"required"`
	StartDate  time.Time    `json:"start_date" binding:"required" time_format:"2006-01-02"`
	EndDate    time.Time    `json:"end_date" binding:"required" time_format:"2006-01-02"`
}

type ReportFilter struct {
	ReportType *ReportType   `form:"report_type"`
	Status     *ReportStatus `form:"status"`
}

func (s ReportStatus) Valid() bool {
	return s == ReportStatusPending || s == ReportStatusReady || s == ReportStatusFailed
}

// GenerateReport records the request and hands rendering to the outbox
// dispatcher. The report row and its outbox entry commit together.
func GenerateReport(ctx context.Context, input NewReport) (*Report, error) {
	if !input.ReportType.Valid() {
		return nil, errors.New("report type must be one of: PURCHASE, PURCHASE_RETURN, SALE, SALE_RETURN")
	}
	if !input.Format.Valid() {
		return nil, errors.New("format must be one of: PDF, XLSX")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, errors.New("end date cannot be before start date")
	}

	report := Report{
		ReportType:  input.ReportType,
		Format:      input.Format,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Status:      ReportStatusPending,
		RequestedBy: utils.NilIfEmpty(userIdFromContext(ctx)),
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// db action
	if err := tx.WithContext(ctx).Create(&report).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	body := fmt.Sprintf("%s report (%s) from %s to %s",
		report.ReportType, report.Format,
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"))
	if _, err := EnqueueNotification(ctx, tx.WithContext(ctx), NotificationKindReportUpload,
		report.ID, "REPORT", "", body); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// GetReport returns the report only to its requester; admins see everything.
func GetReport(ctx context.Context, id int) (*Report, error) {
	report, err := utils.FetchModel[Report](ctx, id)
	if err != nil {
		return nil, err
	}
	if roleFromContext(ctx) != UserRoleAdmin {
		userId := userIdFromContext(ctx)
		if report.RequestedBy == nil || *report.RequestedBy != userId {
			return nil, utils.ErrorRecordNotFound
		}
	}
	return report, nil
}

func ListReports(ctx context.Context, filter ReportFilter) ([]Report, error) {
	db := config.GetDB()
	var reports []Report

	query := db.WithContext(ctx).Model(&Report{})
	if roleFromContext(ctx) != UserRoleAdmin {
		query = query.Where("requested_by = ?", userIdFromContext(ctx))
	}
	if filter.ReportType != nil {
		query = query.Where("report_type = ?", *filter.ReportType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	// db action
	if err := query.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// ReportSummary aggregates document totals for a date range. Return
// documents store negative amounts, so the return figures are negated back
// to positive for display and the net values come out of plain sums.
type ReportSummary struct {
	StartDate           string          `json:"start_date"`
	EndDate             string          `json:"end_date"`
	GrossPurchase       decimal.Decimal `json:"gross_purchase"`
	PurchaseReturn      decimal.Decimal `json:"purchase_return"`
	NetPurchase         decimal.Decimal `json:"net_purchase"`
	GrossSale           decimal.Decimal `json:"gross_sale"`
	SaleReturn          decimal.Decimal `json:"sale_return"`
	NetSale             decimal.Decimal `json:"net_sale"`
	PurchaseCount       int64           `json:"purchase_count"`
	PurchaseReturnCount int64           `json:"purchase_return_count"`
	SaleCount           int64           `json:"sale_count"`
	SaleReturnCount     int64           `json:"sale_return_count"`
	NetTotal            decimal.Decimal `json:"net_total"`
}

func sumAndCount(ctx context.Context, table, column string, isReturn bool, start, end time.Time) (decimal.Decimal, int64, error) {
	db := config.GetDB()
	var total *decimal.Decimal
	var count int64

	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Table(table).
			Where("is_return = ?", isReturn).
			Where("DATE(date) >= DATE(?) AND DATE(date) <= DATE(?)", start, end)
	}
	if err := scoped().Count(&count).Error; err != nil {
		return decimal.Zero, 0, err
	}
	if err := scoped().Select("SUM(" + column + ")").Scan(&total).Error; err != nil {
		return decimal.Zero, 0, err
	}
	if total == nil {
		return decimal.Zero, count, nil
	}
	return *total, count, nil
}

func GetReportSummary(ctx context.Context, start, end time.Time) (*ReportSummary, error) {
	if end.Before(start) {
		return nil, errors.New("end date cannot be before start date")
	}

	grossPurchase, purchaseCount, err := sumAndCount(ctx, "purchases", "total_amount", false, start, end)
	if err != nil {
		return nil, err
	}
	purchaseReturn, purchaseReturnCount, err := sumAndCount(ctx, "purchases", "total_amount", true, start, end)
	if err != nil {
		return nil, err
	}
	grossSale, saleCount, err := sumAndCount(ctx, "sales", "final_amount", false, start, end)
	if err != nil {
		return nil, err
	}
	saleReturn, saleReturnCount, err := sumAndCount(ctx, "sales", "final_amount", true, start, end)
	if err != nil {
		return nil, err
	}

	netPurchase := grossPurchase.Add(purchaseReturn)
	netSale := grossSale.Add(saleReturn)

	return &ReportSummary{
		StartDate:           start.Format("2006-01-02"),
		EndDate:             end.Format("2006-01-02"),
		GrossPurchase:       grossPurchase,
		PurchaseReturn:      purchaseReturn.Neg(),
		NetPurchase:         netPurchase,
		GrossSale:           grossSale,
		SaleReturn:          saleReturn.Neg(),
		NetSale:             netSale,
		PurchaseCount:       purchaseCount,
		PurchaseReturnCount: purchaseReturnCount,
		SaleCount:           saleCount,
		SaleReturnCount:     saleReturnCount,
		NetTotal:            netSale.Sub(netPurchase),
	}, nil
}

// Dispatcher-side status updates happen outside the request transaction.

func MarkReportReady(ctx context.Context, id int, fileUrl string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Report{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"Status":      ReportStatusReady,
			"FileUrl":     fileUrl,
			"ErrorDetail": nil,
		}).Error
}

func MarkReportFailed(ctx context.Context, id int, detail string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Report{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"Status":      ReportStatusFailed,
			"ErrorDetail": detail,
		}).Error
}
