package models

import (
	"context"

	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnqueueNotification implements the transactional outbox: it writes the
// notification row inside the caller's DB transaction but does NOT publish.
// Delivery is performed asynchronously by the outbox dispatcher after commit,
// so a failed SMS or report upload can never roll back a committed document.
func EnqueueNotification(ctx context.Context, tx *gorm.DB, kind NotificationKind, refId int, refType string, recipient string, body string) (*NotificationOutbox, error) {
	record := NotificationOutbox{
		Kind:          kind,
		ReferenceId:   refId,
		ReferenceType: refType,
		Recipient:     recipient,
		Body:          body,
		PublishStatus: PublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// userIdFromContext resolves the acting user for created_by stamping.
// Returns 0 when the request is unauthenticated (seed tooling, tests).
func userIdFromContext(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	if id, ok := utils.GetUserIdFromContext(ctx); ok {
		return id
	}
	return 0
}

// roleFromContext returns the acting user's role, empty when unauthenticated.
func roleFromContext(ctx context.Context) UserRole {
	if ctx == nil {
		return ""
	}
	if role, ok := utils.GetRoleFromContext(ctx); ok {
		return UserRole(role)
	}
	return ""
}
