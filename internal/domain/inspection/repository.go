package inspection

import "context"

type Repository interface {
	Create(ctx context.Context, ins *Inspection) error
	Save(ctx context.Context, ins *Inspection) error
	GetByInspectionID(ctx context.Context, inspectionID string) (*Inspection, error)
	// GetByInspectionIDForUpdate locks the row so verdict computation never
	// races an in-flight checkpoint write for the same inspection.
	GetByInspectionIDForUpdate(ctx context.Context, inspectionID string) (*Inspection, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Inspection, error)
	// GetByID resolves a numeric parent pointer during rework-chain walks.
	GetByID(ctx context.Context, id uint64) (*Inspection, error)

	CreateSectionResults(ctx context.Context, rows []*SectionResult) error
	CreateCheckpointResults(ctx context.Context, rows []*CheckpointResult) error
	ListSectionResults(ctx context.Context, inspectionRef uint64) ([]SectionResult, error)
	GetSectionResult(ctx context.Context, inspectionRef uint64, sectionID string) (*SectionResult, error)
	ListCheckpointResults(ctx context.Context, inspectionRef uint64) ([]CheckpointResult, error)
	GetCheckpointResult(ctx context.Context, inspectionRef uint64, checkpointID string) (*CheckpointResult, error)
	GetCheckpointResultByResultID(ctx context.Context, resultID string) (*CheckpointResult, error)
	SaveSectionResult(ctx context.Context, row *SectionResult) error
	SaveCheckpointResult(ctx context.Context, row *CheckpointResult) error
}

type PhotoRepository interface {
	Create(ctx context.Context, p *Photo) error
	Save(ctx context.Context, p *Photo) error
	GetByPhotoID(ctx context.Context, photoID string) (*Photo, error)
	// CompletedCountsByInspection returns completed-upload counts keyed by
	// checkpoint result id, for the verdict photo gate.
	CompletedCountsByInspection(ctx context.Context, inspectionRef uint64) (map[string]int, error)
	// ListFailedForRetry feeds the optional upload-retry worker.
	ListFailedForRetry(ctx context.Context, maxRetries, limit int) ([]Photo, error)
}
