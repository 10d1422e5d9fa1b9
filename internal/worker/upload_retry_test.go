package worker

import (
	"testing"
	"time"

	"factory-qc-backend/internal/adapter/repository/mysql"
	domain "factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/testutil/mediastoremock"
	"factory-qc-backend/internal/usecase/media"
	"factory-qc-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWorkerEnv(t *testing.T) (*gorm.DB, *UploadRetryWorker) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.CheckpointResult{}, &domain.Photo{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	photos := mysql.NewPhotoRepository(db)
	m := media.NewUsecase(photos, mysql.NewInspectionRepository(db), &mediastoremock.Store{})
	w := NewUploadRetryWorker(photos, m, 10*time.Millisecond, 3, 50)
	return db, w
}

func seedPhoto(t *testing.T, db *gorm.DB, status domain.UploadStatus, retries int) *domain.Photo {
	t.Helper()
	p := &domain.Photo{
		PhotoID:          id.NewID32(),
		ResultID:         id.NewID32(),
		UploadStatus:     status,
		UploadRetryCount: retries,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	return p
}

func TestSweep_RetriesFailedUnderCap(t *testing.T) {
	db, w := newWorkerEnv(t)

	retryable := seedPhoto(t, db, domain.UploadFailed, 1)
	exhausted := seedPhoto(t, db, domain.UploadFailed, 3) // at cap, left alone
	healthy := seedPhoto(t, db, domain.UploadCompleted, 0)

	w.sweep()

	var got domain.Photo
	if err := db.Where("photo_id = ?", retryable.PhotoID).First(&got).Error; err != nil {
		t.Fatalf("load retryable: %v", err)
	}
	if got.UploadStatus != domain.UploadUploading || got.UploadRetryCount != 2 {
		t.Fatalf("retryable: status=%s retries=%d", got.UploadStatus, got.UploadRetryCount)
	}
	if got.UploadURL == "" {
		t.Fatal("retry must re-issue an upload target")
	}

	if err := db.Where("photo_id = ?", exhausted.PhotoID).First(&got).Error; err != nil {
		t.Fatalf("load exhausted: %v", err)
	}
	if got.UploadStatus != domain.UploadFailed || got.UploadRetryCount != 3 {
		t.Fatalf("exhausted photo must not be touched: %+v", got)
	}

	if err := db.Where("photo_id = ?", healthy.PhotoID).First(&got).Error; err != nil {
		t.Fatalf("load healthy: %v", err)
	}
	if got.UploadStatus != domain.UploadCompleted {
		t.Fatalf("completed photo must not be touched: %+v", got)
	}
}

func TestSweep_EmptyBatchIsQuiet(t *testing.T) {
	_, w := newWorkerEnv(t)
	w.sweep() // nothing seeded, nothing to do
}

func TestStartStop(t *testing.T) {
	db, w := newWorkerEnv(t)
	p := seedPhoto(t, db, domain.UploadFailed, 0)

	w.Start()
	deadline := time.After(2 * time.Second)
	for {
		var got domain.Photo
		if err := db.Where("photo_id = ?", p.PhotoID).First(&got).Error; err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.UploadStatus == domain.UploadUploading {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker never picked up the failed photo")
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.Stop() // must return, not hang
}
