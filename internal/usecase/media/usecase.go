package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/media"
	"factory-qc-backend/pkg/id"

	"gorm.io/gorm"
)

// Usecase tracks photo upload state independently of the result submission
// path. The only coupling to correctness is the verdict photo gate, which
// counts completed rows at finalize time.
type Usecase struct {
	photos  domain.PhotoRepository
	results domain.Repository
	store   media.Store
}

func NewUsecase(photos domain.PhotoRepository, results domain.Repository, store media.Store) *Usecase {
	return &Usecase{photos: photos, results: results, store: store}
}

type RegisterInput struct {
	ResultID      string
	Mime          string
	SizeBytes     int64
	DeviceTakenAt time.Time
}

type PhotoDTO struct {
	PhotoID          string `json:"photo_id"`
	ResultID         string `json:"result_id"`
	UploadStatus     string `json:"upload_status"`
	UploadRetryCount int    `json:"upload_retry_count"`
	UploadURL        string `json:"upload_url,omitempty"`
	SizeBytes        int64  `json:"size_bytes"`
	Mime             string `json:"mime,omitempty"`
}

// Register creates a pending photo row and asks the media store for an
// upload target.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*PhotoDTO, error) {
	res, err := u.results.GetCheckpointResultByResultID(ctx, in.ResultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result %s: %w", in.ResultID, domain.ErrNotFound)
		}
		return nil, err
	}

	p := &domain.Photo{
		PhotoID:       id.NewID32(),
		ResultRef:     res.ID,
		ResultID:      res.ResultID,
		UploadStatus:  domain.UploadPending,
		DeviceTakenAt: in.DeviceTakenAt.UTC(),
		SizeBytes:     in.SizeBytes,
		Mime:          in.Mime,
	}
	url, err := u.store.IssueUploadTarget(ctx, media.PhotoMeta{
		PhotoID:   p.PhotoID,
		ResultID:  p.ResultID,
		Mime:      p.Mime,
		SizeBytes: p.SizeBytes,
	})
	if err != nil {
		return nil, err
	}
	p.UploadURL = url

	if err := u.photos.Create(ctx, p); err != nil {
		return nil, err
	}
	return toDTO(p), nil
}

// SetStatus moves a photo through pending→uploading→completed|failed.
// failed→uploading is the retry path and bumps the retry counter.
func (u *Usecase) SetStatus(ctx context.Context, photoID string, to domain.UploadStatus) (*PhotoDTO, error) {
	p, err := u.get(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionUpload(p.UploadStatus, to) {
		return nil, fmt.Errorf("%w: upload %s -> %s", domain.ErrInvalidTransition, p.UploadStatus, to)
	}
	if p.UploadStatus == domain.UploadFailed && to == domain.UploadUploading {
		p.UploadRetryCount++
	}
	p.UploadStatus = to
	if err := u.photos.Save(ctx, p); err != nil {
		return nil, err
	}
	return toDTO(p), nil
}

// Complete is the media-store callback after the bytes landed.
func (u *Usecase) Complete(ctx context.Context, photoID string, sizeBytes int64, mime string) (*PhotoDTO, error) {
	p, err := u.get(ctx, photoID)
	if err != nil {
		return nil, err
	}
	// completion may arrive straight from pending (client uploaded before
	// reporting uploading) and is idempotent on replayed callbacks; only a
	// failed upload cannot be completed without a retry first
	if p.UploadStatus == domain.UploadFailed {
		return nil, fmt.Errorf("%w: upload %s -> completed", domain.ErrInvalidTransition, p.UploadStatus)
	}
	p.UploadStatus = domain.UploadCompleted
	if sizeBytes > 0 {
		p.SizeBytes = sizeBytes
	}
	if mime != "" {
		p.Mime = mime
	}
	return toDTO(p), u.photos.Save(ctx, p)
}

// Retry re-issues an upload target for a failed photo and moves it back to
// uploading. Used by the async retry worker.
func (u *Usecase) Retry(ctx context.Context, photoID string) (*PhotoDTO, error) {
	p, err := u.get(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if p.UploadStatus != domain.UploadFailed {
		return nil, fmt.Errorf("%w: retry from %s", domain.ErrInvalidTransition, p.UploadStatus)
	}
	url, err := u.store.IssueUploadTarget(ctx, media.PhotoMeta{
		PhotoID:   p.PhotoID,
		ResultID:  p.ResultID,
		Mime:      p.Mime,
		SizeBytes: p.SizeBytes,
	})
	if err != nil {
		return nil, err
	}
	p.UploadURL = url
	p.UploadStatus = domain.UploadUploading
	p.UploadRetryCount++
	if err := u.photos.Save(ctx, p); err != nil {
		return nil, err
	}
	return toDTO(p), nil
}

func (u *Usecase) Get(ctx context.Context, photoID string) (*PhotoDTO, error) {
	p, err := u.get(ctx, photoID)
	if err != nil {
		return nil, err
	}
	return toDTO(p), nil
}

func (u *Usecase) get(ctx context.Context, photoID string) (*domain.Photo, error) {
	p, err := u.photos.GetByPhotoID(ctx, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, err
	}
	return p, nil
}

func toDTO(p *domain.Photo) *PhotoDTO {
	return &PhotoDTO{
		PhotoID:          p.PhotoID,
		ResultID:         p.ResultID,
		UploadStatus:     string(p.UploadStatus),
		UploadRetryCount: p.UploadRetryCount,
		UploadURL:        p.UploadURL,
		SizeBytes:        p.SizeBytes,
		Mime:             p.Mime,
	}
}
