package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
	"bitbucket.org/truebittech/retail_backend/reports"
	"bitbucket.org/truebittech/retail_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxDispatcher drains the notification outbox after commit. SMS rows go
// to the pub/sub notification topic; REPORT_UPLOAD rows are rendered,
// uploaded to object storage and the report row is updated with the URL.
// PublishSMS and UploadReport are swappable for tests.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration

	PublishSMS   func(ctx context.Context, msg config.NotificationMessage) (string, error)
	UploadReport func(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
		PublishSMS:     config.PublishNotificationWithResult,
		UploadReport:   utils.UploadReportToGCS,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.dispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

func (d *OutboxDispatcher) dispatchOnce(ctx context.Context) {
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)
	db := d.DB
	if db == nil {
		return
	}

	var claimed []models.NotificationOutbox
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligible:
		// - PENDING / FAILED and ready to retry
		// - PROCESSING but lock is stale (dispatcher crashed mid-batch), reclaim after LockTimeout
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.PublishStatusPending, models.PublishStatusFailed}, now, models.PublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize)
		// sqlite is single-writer and has no row locks.
		if config.DatabaseDriver() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}
		for i := range claimed {
			// Enforce max attempts: poison rows go terminal.
			if d.MaxAttempts > 0 && claimed[i].PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].PublishStatus = models.PublishStatusDead
				if err := tx.Model(&models.NotificationOutbox{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"publish_status":     models.PublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			// Claim for delivery.
			claimed[i].PublishStatus = models.PublishStatusProcessing
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &d.DispatcherID
			claimed[i].PublishAttempts = claimed[i].PublishAttempts + 1
			claimed[i].LastPublishError = nil
			if err := tx.Model(&models.NotificationOutbox{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"publish_status":     claimed[i].PublishStatus,
				"locked_at":          claimed[i].LockedAt,
				"locked_by":          claimed[i].LockedBy,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(claimed) == 0 {
		return
	}

	for _, rec := range claimed {
		// Skip terminal rows that were marked DEAD in the claim transaction.
		if rec.PublishStatus == models.PublishStatusDead {
			continue
		}
		if err := d.deliver(ctx, rec, now); err != nil {
			d.markPublishFailed(ctx, rec, err)
		}
	}
}

func (d *OutboxDispatcher) deliver(ctx context.Context, rec models.NotificationOutbox, now time.Time) error {
	switch rec.Kind {
	case models.NotificationKindSMS:
		msg := models.ConvertToNotificationMessage(rec)
		pubID, err := d.PublishSMS(ctx, msg)
		if err != nil {
			return err
		}
		d.markPublishSent(ctx, rec.ID, pubID, now)
		return nil
	case models.NotificationKindReportUpload:
		return d.deliverReport(ctx, rec, now)
	default:
		return fmt.Errorf("unknown notification kind %q", rec.Kind)
	}
}

// deliverReport renders and uploads the requested report. Render or upload
// failure marks the report row FAILED and lets the outbox retry; a later
// success flips it back to READY.
func (d *OutboxDispatcher) deliverReport(ctx context.Context, rec models.NotificationOutbox, now time.Time) error {
	report, err := fetchReport(ctx, d.DB, rec.ReferenceId)
	if err != nil {
		return err
	}

	data, contentType, objectKey, err := reports.Render(ctx, *report)
	if err != nil {
		d.markReportFailed(ctx, report.ID, err)
		return err
	}

	fileUrl, err := d.UploadReport(ctx, objectKey, data, contentType)
	if err != nil {
		d.markReportFailed(ctx, report.ID, err)
		return err
	}

	if err := models.MarkReportReady(ctx, report.ID, fileUrl); err != nil {
		return err
	}
	d.markPublishSent(ctx, rec.ID, "", now)
	return nil
}

func fetchReport(ctx context.Context, db *gorm.DB, id int) (*models.Report, error) {
	var report models.Report
	if err := db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (d *OutboxDispatcher) markReportFailed(ctx context.Context, reportId int, cause error) {
	if err := models.MarkReportFailed(ctx, reportId, cause.Error()); err != nil && d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":     "OutboxDispatcher",
			"report_id": reportId,
		}).Error("failed to mark report FAILED: " + err.Error())
	}
}

func (d *OutboxDispatcher) markPublishSent(ctx context.Context, recordID int, pubsubMsgID string, now time.Time) {
	db := d.DB.WithContext(ctx)
	var id *string
	if pubsubMsgID != "" {
		id = &pubsubMsgID
	}
	_ = db.Model(&models.NotificationOutbox{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"publish_status":     models.PublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": id,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, rec models.NotificationOutbox, err error) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	msg := err.Error()
	attempt := rec.PublishAttempts

	// Terminal after MaxAttempts.
	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		_ = db.Model(&models.NotificationOutbox{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.PublishStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error

		if d.Logger != nil {
			d.Logger.WithFields(logrus.Fields{
				"field":     "OutboxDispatcher",
				"record_id": rec.ID,
				"kind":      rec.Kind,
				"attempt":   attempt,
			}).Error("outbox delivery moved to DEAD after max attempts: " + fmt.Sprintf("%v", err))
		}
		return
	}

	backoff := d.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff > time.Minute*10 {
			backoff = time.Minute * 10
			break
		}
	}
	next := now.Add(backoff)
	_ = db.Model(&models.NotificationOutbox{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.PublishStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error

	if d.Logger != nil {
		d.Logger.WithFields(logrus.Fields{
			"field":           "OutboxDispatcher",
			"record_id":       rec.ID,
			"kind":            rec.Kind,
			"attempt":         attempt,
			"next_attempt_at": next.Format(time.RFC3339Nano),
		}).Error("outbox delivery failed: " + fmt.Sprintf("%v", err))
	}
}
