package mysql

import (
	"context"

	inspectionDomain "factory-qc-backend/internal/domain/inspection"

	"gorm.io/gorm"
)

type PhotoRepository struct{ db *gorm.DB }

func NewPhotoRepository(db *gorm.DB) *PhotoRepository { return &PhotoRepository{db: db} }

func (r *PhotoRepository) Create(ctx context.Context, p *inspectionDomain.Photo) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PhotoRepository) Save(ctx context.Context, p *inspectionDomain.Photo) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PhotoRepository) GetByPhotoID(ctx context.Context, photoID string) (*inspectionDomain.Photo, error) {
	var out inspectionDomain.Photo
	res := r.db.WithContext(ctx).Where("photo_id = ?", photoID).First(&out)
	return &out, res.Error
}

func (r *PhotoRepository) CompletedCountsByInspection(ctx context.Context, inspectionRef uint64) (map[string]int, error) {
	type row struct {
		ResultID string
		N        int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&inspectionDomain.Photo{}).
		Select("photos.result_id AS result_id, COUNT(*) AS n").
		Joins("JOIN checkpoint_results cr ON cr.result_id = photos.result_id").
		Where("cr.inspection_ref = ? AND photos.upload_status = ?", inspectionRef, inspectionDomain.UploadCompleted).
		Group("photos.result_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.ResultID] = r.N
	}
	return out, nil
}

func (r *PhotoRepository) ListFailedForRetry(ctx context.Context, maxRetries, limit int) ([]inspectionDomain.Photo, error) {
	var out []inspectionDomain.Photo
	res := r.db.WithContext(ctx).
		Where("upload_status = ? AND upload_retry_count < ?", inspectionDomain.UploadFailed, maxRetries).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
