package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"gorm.io/gorm"
)

type NotificationOutbox struct {
	ID            int              `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	Kind          NotificationKind `gorm:"size:20;not null;index" json:"kind"`
	ReferenceId   int              `gorm:"index:idx_outbox_reference,priority:2" json:"reference_id"`
	ReferenceType string           `gorm:"size:30;index:idx_outbox_reference,priority:1" json:"reference_type"`
	Recipient     string           `gorm:"size:30" json:"recipient"`
	Body          string           `gorm:"type:text" json:"body"`
	// Publish metadata (delivery happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToNotificationMessage(record NotificationOutbox) config.NotificationMessage {
	return config.NotificationMessage{
		ID:            record.ID,
		Kind:          string(record.Kind),
		Recipient:     record.Recipient,
		Body:          record.Body,
		ReferenceId:   record.ReferenceId,
		ReferenceType: record.ReferenceType,
		OccurredAt:    record.CreatedAt,
		CorrelationId: record.CorrelationId,
	}
}

// OutboxStatus is a UI-facing view of the latest outbox row for a document.
type OutboxStatus struct {
	RecordId         int        `json:"record_id"`
	Kind             string     `json:"kind"`
	ReferenceType    string     `json:"reference_type"`
	ReferenceId      int        `json:"reference_id"`
	PublishStatus    string     `json:"publish_status"`
	PublishAttempts  int        `json:"publish_attempts"`
	NextAttemptAt    *time.Time `json:"next_attempt_at"`
	LastPublishError *string    `json:"last_publish_error"`
	CreatedAt        time.Time  `json:"created_at"`
	PublishedAt      *time.Time `json:"published_at"`
}

func GetOutboxStatus(ctx context.Context, referenceType string, referenceId int) (*OutboxStatus, error) {
	db := config.GetDB()
	var rec NotificationOutbox
	if err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id DESC").
		First(&rec).Error; err != nil {
		return nil, err
	}

	return &OutboxStatus{
		RecordId:         rec.ID,
		Kind:             string(rec.Kind),
		ReferenceType:    rec.ReferenceType,
		ReferenceId:      rec.ReferenceId,
		PublishStatus:    rec.PublishStatus,
		PublishAttempts:  rec.PublishAttempts,
		NextAttemptAt:    rec.NextAttemptAt,
		LastPublishError: rec.LastPublishError,
		CreatedAt:        rec.CreatedAt,
		PublishedAt:      rec.PublishedAt,
	}, nil
}

// ReplayNotification resets a FAILED or DEAD outbox row so the dispatcher
// picks it up again. SENT rows are left alone.
func ReplayNotification(ctx context.Context, id int) (*OutboxStatus, error) {
	db := config.GetDB()
	var rec NotificationOutbox
	if err := db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	if rec.PublishStatus == PublishStatusSent {
		return nil, errors.New("notification already sent")
	}

	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&NotificationOutbox{}).
		Where("id = ? AND publish_status <> ?", id, PublishStatusSent).
		Updates(map[string]interface{}{
			"locked_at":          nil,
			"locked_by":          nil,
			"publish_status":     PublishStatusPending,
			"next_attempt_at":    &now,
			"last_publish_error": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return GetOutboxStatus(ctx, rec.ReferenceType, rec.ReferenceId)
}

// ListDeadNotifications surfaces parked rows for the ops endpoint.
func ListDeadNotifications(ctx context.Context) ([]*NotificationOutbox, error) {
	db := config.GetDB()
	var results []*NotificationOutbox
	if err := db.WithContext(ctx).
		Where("publish_status = ?", PublishStatusDead).
		Order("id DESC").Limit(200).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
