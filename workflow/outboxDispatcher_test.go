package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	configPkg "bitbucket.org/truebittech/retail_backend/config"
	"bitbucket.org/truebittech/retail_backend/models"
	"bitbucket.org/truebittech/retail_backend/utils"
)

func openDispatcherTestDB(t *testing.T) (*gorm.DB, context.Context) {
	t.Helper()

	t.Setenv("DB_DRIVER", "sqlite")
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	t.Setenv("DB_NAME_2", "file:"+name+"?mode=memory&cache=shared")

	configPkg.ConnectDatabaseWithRetry()
	models.MigrateTable()

	ctx := utils.SetRoleInContext(context.Background(), string(models.UserRoleAdmin))
	return configPkg.GetDB(), ctx
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDispatcher(db *gorm.DB) *OutboxDispatcher {
	d := NewOutboxDispatcher(db, quietLogger())
	d.InitialBackoff = 0
	d.PublishSMS = func(ctx context.Context, msg configPkg.NotificationMessage) (string, error) {
		return "", errors.New("no publisher configured in test")
	}
	d.UploadReport = func(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
		return "", errors.New("no uploader configured in test")
	}
	return d
}

func enqueueSms(t *testing.T, db *gorm.DB, ctx context.Context, body string) *models.NotificationOutbox {
	t.Helper()
	rec, err := models.EnqueueNotification(ctx, db.WithContext(ctx),
		models.NotificationKindSMS, 1, "SALE", "+919876543210", body)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return rec
}

func outboxRow(t *testing.T, db *gorm.DB, id int) models.NotificationOutbox {
	t.Helper()
	var rec models.NotificationOutbox
	if err := db.First(&rec, id).Error; err != nil {
		t.Fatalf("fetch outbox row %d: %v", id, err)
	}
	return rec
}

func TestDispatcherDeliversSmsExactlyOnce(t *testing.T) {
	db, ctx := openDispatcherTestDB(t)
	rec := enqueueSms(t, db, ctx, "Thank you for your purchase")

	var calls int
	var delivered configPkg.NotificationMessage
	d := newTestDispatcher(db)
	d.PublishSMS = func(ctx context.Context, msg configPkg.NotificationMessage) (string, error) {
		calls++
		delivered = msg
		return "pub-12345", nil
	}

	d.dispatchOnce(ctx)

	if calls != 1 {
		t.Fatalf("publish calls = %d, want 1", calls)
	}
	if delivered.Recipient != "+919876543210" {
		t.Fatalf("recipient = %q", delivered.Recipient)
	}

	row := outboxRow(t, db, rec.ID)
	if row.PublishStatus != models.PublishStatusSent {
		t.Fatalf("status = %q, want SENT", row.PublishStatus)
	}
	if row.PubSubMessageId == nil || *row.PubSubMessageId != "pub-12345" {
		t.Fatalf("pubsub message id = %v", row.PubSubMessageId)
	}
	if row.PublishedAt == nil {
		t.Fatal("published_at not set")
	}
	if row.LockedAt != nil || row.LockedBy != nil {
		t.Fatal("lock not released after delivery")
	}

	// A second pass finds nothing to do.
	d.dispatchOnce(ctx)
	if calls != 1 {
		t.Fatalf("publish calls after second pass = %d, want 1", calls)
	}
}

func TestDispatcherRetriesWithBackoff(t *testing.T) {
	db, ctx := openDispatcherTestDB(t)
	rec := enqueueSms(t, db, ctx, "will fail")

	d := newTestDispatcher(db)
	d.InitialBackoff = time.Minute
	var calls int
	d.PublishSMS = func(ctx context.Context, msg configPkg.NotificationMessage) (string, error) {
		calls++
		return "", errors.New("provider down")
	}

	d.dispatchOnce(ctx)

	row := outboxRow(t, db, rec.ID)
	if row.PublishStatus != models.PublishStatusFailed {
		t.Fatalf("status = %q, want FAILED", row.PublishStatus)
	}
	if row.PublishAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", row.PublishAttempts)
	}
	if row.LastPublishError == nil || !strings.Contains(*row.LastPublishError, "provider down") {
		t.Fatalf("last error = %v", row.LastPublishError)
	}
	if row.NextAttemptAt == nil || !row.NextAttemptAt.After(time.Now().UTC().Add(30*time.Second)) {
		t.Fatalf("next attempt = %v, want ~1m out", row.NextAttemptAt)
	}

	// Not eligible again until the backoff elapses.
	d.dispatchOnce(ctx)
	if calls != 1 {
		t.Fatalf("publish calls = %d, want 1 while backing off", calls)
	}
}

func TestDispatcherParksPoisonRowsAsDead(t *testing.T) {
	db, ctx := openDispatcherTestDB(t)
	rec := enqueueSms(t, db, ctx, "always fails")

	d := newTestDispatcher(db)
	d.MaxAttempts = 2
	var calls int
	d.PublishSMS = func(ctx context.Context, msg configPkg.NotificationMessage) (string, error) {
		calls++
		return "", errors.New("permanent failure")
	}

	d.dispatchOnce(ctx)
	d.dispatchOnce(ctx)

	if calls != 2 {
		t.Fatalf("publish calls = %d, want 2", calls)
	}
	row := outboxRow(t, db, rec.ID)
	if row.PublishStatus != models.PublishStatusDead {
		t.Fatalf("status = %q, want DEAD", row.PublishStatus)
	}

	// Dead rows are never picked up again.
	d.dispatchOnce(ctx)
	if calls != 2 {
		t.Fatalf("publish calls after park = %d, want 2", calls)
	}

	dead, err := models.ListDeadNotifications(ctx)
	if err != nil {
		t.Fatalf("list dead: %v", err)
	}
	if len(dead) != 1 || dead[0].ID != rec.ID {
		t.Fatalf("dead rows = %+v", dead)
	}

	// Replay resets the row for another delivery cycle.
	if _, err := models.ReplayNotification(ctx, rec.ID); err != nil {
		t.Fatalf("replay: %v", err)
	}
	row = outboxRow(t, db, rec.ID)
	if row.PublishStatus != models.PublishStatusPending {
		t.Fatalf("status after replay = %q, want PENDING", row.PublishStatus)
	}
}

func TestDispatcherReclaimsStaleProcessingRows(t *testing.T) {
	db, ctx := openDispatcherTestDB(t)
	rec := enqueueSms(t, db, ctx, "stuck in processing")

	// Simulate a dispatcher that died mid-batch long ago.
	staleTime := time.Now().UTC().Add(-time.Hour)
	crashed := "crashed-dispatcher"
	if err := db.Model(&models.NotificationOutbox{}).Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status": models.PublishStatusProcessing,
			"locked_at":      &staleTime,
			"locked_by":      &crashed,
		}).Error; err != nil {
		t.Fatalf("simulate stale lock: %v", err)
	}

	var calls int
	d := newTestDispatcher(db)
	d.PublishSMS = func(ctx context.Context, msg configPkg.NotificationMessage) (string, error) {
		calls++
		return "pub-1", nil
	}

	d.dispatchOnce(ctx)

	if calls != 1 {
		t.Fatalf("publish calls = %d, want 1", calls)
	}
	row := outboxRow(t, db, rec.ID)
	if row.PublishStatus != models.PublishStatusSent {
		t.Fatalf("status = %q, want SENT", row.PublishStatus)
	}
}

func TestDispatcherRendersAndUploadsReport(t *testing.T) {
	db, ctx := openDispatcherTestDB(t)

	report, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: models.ReportTypeSale,
		Format:     models.ReportFormatXLSX,
		StartDate:  time.Now().AddDate(0, 0, -7),
		EndDate:    time.Now(),
	})
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}

	var uploadedKey string
	var uploadedBytes int
	d := newTestDispatcher(db)
	d.UploadReport = func(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
		uploadedKey = objectKey
		uploadedBytes = len(data)
		return "https://storage.example.com/" + objectKey, nil
	}

	d.dispatchOnce(ctx)

	fresh, err := models.GetReport(ctx, report.ID)
	if err != nil {
		t.Fatalf("refetch report: %v", err)
	}
	if fresh.Status != models.ReportStatusReady {
		t.Fatalf("report status = %q, want READY", fresh.Status)
	}
	if fresh.FileUrl == nil || !strings.HasPrefix(*fresh.FileUrl, "https://storage.example.com/reports/") {
		t.Fatalf("file url = %v", fresh.FileUrl)
	}
	if !strings.HasPrefix(uploadedKey, "reports/") || !strings.HasSuffix(uploadedKey, ".xlsx") {
		t.Fatalf("object key = %q", uploadedKey)
	}
	if uploadedBytes == 0 {
		t.Fatal("uploaded an empty file")
	}

	status, err := models.GetOutboxStatus(ctx, "REPORT", report.ID)
	if err != nil {
		t.Fatalf("outbox status: %v", err)
	}
	if status.PublishStatus != models.PublishStatusSent {
		t.Fatalf("outbox status = %q, want SENT", status.PublishStatus)
	}
}

func TestDispatcherMarksReportFailedOnUploadError(t *testing.T) {
	db, ctx := openDispatcherTestDB(t)

	report, err := models.GenerateReport(ctx, models.NewReport{
		ReportType: models.ReportTypePurchase,
		Format:     models.ReportFormatXLSX,
		StartDate:  time.Now().AddDate(0, 0, -7),
		EndDate:    time.Now(),
	})
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}

	d := newTestDispatcher(db)
	d.InitialBackoff = time.Minute
	d.UploadReport = func(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
		return "", errors.New("bucket unreachable")
	}

	d.dispatchOnce(ctx)

	fresh, _ := models.GetReport(ctx, report.ID)
	if fresh.Status != models.ReportStatusFailed {
		t.Fatalf("report status = %q, want FAILED", fresh.Status)
	}
	if fresh.ErrorDetail == nil || !strings.Contains(*fresh.ErrorDetail, "bucket unreachable") {
		t.Fatalf("error detail = %v", fresh.ErrorDetail)
	}

	// The outbox row stays retryable so a healthy bucket later succeeds.
	status, err := models.GetOutboxStatus(ctx, "REPORT", report.ID)
	if err != nil {
		t.Fatalf("outbox status: %v", err)
	}
	if status.PublishStatus != models.PublishStatusFailed {
		t.Fatalf("outbox status = %q, want FAILED", status.PublishStatus)
	}

	d.UploadReport = func(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
		return "https://storage.example.com/" + objectKey, nil
	}
	// Make the retry due now.
	now := time.Now().UTC().Add(-time.Second)
	if err := db.Model(&models.NotificationOutbox{}).
		Where("reference_type = ? AND reference_id = ?", "REPORT", report.ID).
		Update("next_attempt_at", &now).Error; err != nil {
		t.Fatalf("reset next attempt: %v", err)
	}
	d.dispatchOnce(ctx)

	fresh, _ = models.GetReport(ctx, report.ID)
	if fresh.Status != models.ReportStatusReady {
		t.Fatalf("report status after retry = %q, want READY", fresh.Status)
	}
}
