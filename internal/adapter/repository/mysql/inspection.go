package mysql

import (
	"context"

	inspectionDomain "factory-qc-backend/internal/domain/inspection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InspectionRepository struct{ db *gorm.DB }

func NewInspectionRepository(db *gorm.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

func (r *InspectionRepository) Create(ctx context.Context, ins *inspectionDomain.Inspection) error {
	return r.db.WithContext(ctx).Create(ins).Error
}

func (r *InspectionRepository) Save(ctx context.Context, ins *inspectionDomain.Inspection) error {
	return r.db.WithContext(ctx).Save(ins).Error
}

func (r *InspectionRepository) GetByInspectionID(ctx context.Context, inspectionID string) (*inspectionDomain.Inspection, error) {
	var out inspectionDomain.Inspection
	res := r.db.WithContext(ctx).Where("inspection_id = ?", inspectionID).First(&out)
	return &out, res.Error
}

// GetByInspectionIDForUpdate takes a row lock so checkpoint writes and
// verdict computation for one inspection serialize. sqlite (tests) has no
// FOR UPDATE; its writes are single-connection serialized anyway.
func (r *InspectionRepository) GetByInspectionIDForUpdate(ctx context.Context, inspectionID string) (*inspectionDomain.Inspection, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out inspectionDomain.Inspection
	res := q.Where("inspection_id = ?", inspectionID).First(&out)
	return &out, res.Error
}

func (r *InspectionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*inspectionDomain.Inspection, error) {
	var out inspectionDomain.Inspection
	res := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&out)
	return &out, res.Error
}

func (r *InspectionRepository) GetByID(ctx context.Context, id uint64) (*inspectionDomain.Inspection, error) {
	var out inspectionDomain.Inspection
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *InspectionRepository) CreateSectionResults(ctx context.Context, rows []*inspectionDomain.SectionResult) error {
	return r.db.WithContext(ctx).Create(rows).Error
}

func (r *InspectionRepository) CreateCheckpointResults(ctx context.Context, rows []*inspectionDomain.CheckpointResult) error {
	return r.db.WithContext(ctx).Create(rows).Error
}

func (r *InspectionRepository) ListSectionResults(ctx context.Context, inspectionRef uint64) ([]inspectionDomain.SectionResult, error) {
	var out []inspectionDomain.SectionResult
	res := r.db.WithContext(ctx).
		Where("inspection_ref = ?", inspectionRef).
		Order("ordinal ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *InspectionRepository) GetSectionResult(ctx context.Context, inspectionRef uint64, sectionID string) (*inspectionDomain.SectionResult, error) {
	var out inspectionDomain.SectionResult
	res := r.db.WithContext(ctx).
		Where("inspection_ref = ? AND section_id = ?", inspectionRef, sectionID).
		First(&out)
	return &out, res.Error
}

func (r *InspectionRepository) ListCheckpointResults(ctx context.Context, inspectionRef uint64) ([]inspectionDomain.CheckpointResult, error) {
	var out []inspectionDomain.CheckpointResult
	res := r.db.WithContext(ctx).
		Where("inspection_ref = ?", inspectionRef).
		Order("display_order ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *InspectionRepository) GetCheckpointResult(ctx context.Context, inspectionRef uint64, checkpointID string) (*inspectionDomain.CheckpointResult, error) {
	var out inspectionDomain.CheckpointResult
	res := r.db.WithContext(ctx).
		Where("inspection_ref = ? AND checkpoint_id = ?", inspectionRef, checkpointID).
		First(&out)
	return &out, res.Error
}

func (r *InspectionRepository) GetCheckpointResultByResultID(ctx context.Context, resultID string) (*inspectionDomain.CheckpointResult, error) {
	var out inspectionDomain.CheckpointResult
	res := r.db.WithContext(ctx).Where("result_id = ?", resultID).First(&out)
	return &out, res.Error
}

func (r *InspectionRepository) SaveSectionResult(ctx context.Context, row *inspectionDomain.SectionResult) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *InspectionRepository) SaveCheckpointResult(ctx context.Context, row *inspectionDomain.CheckpointResult) error {
	return r.db.WithContext(ctx).Save(row).Error
}
