package worker

import (
	"context"
	"log"
	"sync"
	"time"

	domain "factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/usecase/media"
)

// UploadRetryWorker periodically re-issues upload targets for failed photos
// still under the retry cap. It is optional plumbing: nothing in the verdict
// path depends on it, clients can also retry on their own.
type UploadRetryWorker struct {
	photos     domain.PhotoRepository
	media      *media.Usecase
	interval   time.Duration
	maxRetries int
	batchSize  int

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewUploadRetryWorker(photos domain.PhotoRepository, m *media.Usecase, interval time.Duration, maxRetries, batchSize int) *UploadRetryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &UploadRetryWorker{
		photos:     photos,
		media:      m,
		interval:   interval,
		maxRetries: maxRetries,
		batchSize:  batchSize,
		stopChan:   make(chan struct{}),
	}
}

func (w *UploadRetryWorker) Start() {
	w.wg.Add(1)
	go w.run()
	log.Printf("upload-retry worker started (interval %s, max retries %d)", w.interval, w.maxRetries)
}

func (w *UploadRetryWorker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
	log.Println("upload-retry worker stopped")
}

func (w *UploadRetryWorker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep retries one batch of failed uploads. Per-photo failures are logged
// and skipped so one broken row cannot stall the rest.
func (w *UploadRetryWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed, err := w.photos.ListFailedForRetry(ctx, w.maxRetries, w.batchSize)
	if err != nil {
		log.Printf("upload-retry: list failed photos: %v", err)
		return
	}
	for _, p := range failed {
		if _, err := w.media.Retry(ctx, p.PhotoID); err != nil {
			log.Printf("upload-retry: photo %s: %v", p.PhotoID, err)
		}
	}
}
