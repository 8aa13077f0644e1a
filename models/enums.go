package models

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleStaff UserRole = "STAFF"
)

type TaxType string

const (
	TaxTypeInclusive TaxType = "INCLUSIVE"
	TaxTypeExclusive TaxType = "EXCLUSIVE"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCheque PaymentMethod = "CHEQUE"
	PaymentMethodCredit PaymentMethod = "CREDIT"
)

// Purchase payment types are lowercase on the wire, unlike sale payment methods.
type PurchasePaymentType string

const (
	PurchasePaymentTypeCash   PurchasePaymentType = "cash"
	PurchasePaymentTypeCredit PurchasePaymentType = "credit"
)

type PurchaseStatus string

const (
	PurchaseStatusDraft     PurchaseStatus = "draft"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusReturned  PurchaseStatus = "returned"
)

type SupplierPaymentMode string

const (
	SupplierPaymentModeCash   SupplierPaymentMode = "cash"
	SupplierPaymentModeCheque SupplierPaymentMode = "cheque"
	SupplierPaymentModeOnline SupplierPaymentMode = "online"
	SupplierPaymentModeUPI    SupplierPaymentMode = "upi"
	SupplierPaymentModeOther  SupplierPaymentMode = "other"
)

type CardType string

const (
	CardTypePremium  CardType = "PREMIUM"
	CardTypeStandard CardType = "STANDARD"
	CardTypeBasic    CardType = "BASIC"
)

type UnitType string

const (
	UnitTypeSale     UnitType = "SALE"
	UnitTypePurchase UnitType = "PURCHASE"
)

type StockMovementReason string

const (
	StockMovementReasonPurchase       StockMovementReason = "PURCHASE"
	StockMovementReasonPurchaseDelete StockMovementReason = "PURCHASE_DELETE"
	StockMovementReasonPurchaseReturn StockMovementReason = "PURCHASE_RETURN"
	StockMovementReasonReturnDelete   StockMovementReason = "RETURN_DELETE"
)

type ReportType string

const (
	ReportTypePurchase       ReportType = "PURCHASE"
	ReportTypePurchaseReturn ReportType = "PURCHASE_RETURN"
	ReportTypeSale           ReportType = "SALE"
	ReportTypeSaleReturn     ReportType = "SALE_RETURN"
)

type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "PDF"
	ReportFormatXLSX ReportFormat = "XLSX"
)

type ReportStatus string

const (
	ReportStatusPending ReportStatus = "PENDING"
	ReportStatusReady   ReportStatus = "READY"
	ReportStatusFailed  ReportStatus = "FAILED"
)

type NotificationKind string

const (
	NotificationKindSMS          NotificationKind = "SMS"
	NotificationKindReportUpload NotificationKind = "REPORT_UPLOAD"
)

// Outbox publish lifecycle. Rows move PENDING -> PROCESSING -> SENT,
// with FAILED scheduled for retry and DEAD parked after max attempts.
const (
	PublishStatusPending    = "PENDING"
	PublishStatusProcessing = "PROCESSING"
	PublishStatusSent       = "SENT"
	PublishStatusFailed     = "FAILED"
	PublishStatusDead       = "DEAD"
)

func (r ReportType) Valid() bool {
	switch r {
	case ReportTypePurchase, ReportTypePurchaseReturn, ReportTypeSale, ReportTypeSaleReturn:
		return true
	}
	return false
}

func (f ReportFormat) Valid() bool {
	switch f {
	case ReportFormatPDF, ReportFormatXLSX:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodOnline, PaymentMethodCheque, PaymentMethodCredit:
		return true
	}
	return false
}

func (t PurchasePaymentType) Valid() bool {
	return t == PurchasePaymentTypeCash || t == PurchasePaymentTypeCredit
}

func (m SupplierPaymentMode) Valid() bool {
	switch m {
	case SupplierPaymentModeCash, SupplierPaymentModeCheque, SupplierPaymentModeOnline,
		SupplierPaymentModeUPI, SupplierPaymentModeOther:
		return true
	}
	return false
}

func (c CardType) Valid() bool {
	return c == CardTypePremium || c == CardTypeStandard || c == CardTypeBasic
}

func (u UnitType) Valid() bool {
	return u == UnitTypeSale || u == UnitTypePurchase
}
