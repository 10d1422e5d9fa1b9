package inspection

import (
	"time"

	"factory-qc-backend/internal/domain/template"

	"gorm.io/gorm"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusPassed     Status = "passed"
	StatusFailed     Status = "failed"
)

// ValidTransitions is the inspection lifecycle. submitted is transient: the
// verdict is computed in the same transaction, so persisted rows only ever
// show open, in_progress, passed or failed.
var ValidTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusSubmitted},
	StatusInProgress: {StatusSubmitted},
	StatusSubmitted:  {StatusPassed, StatusFailed},
}

func CanTransition(from, to Status) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool { return s == StatusPassed || s == StatusFailed }

type SectionStatus string

const (
	SectionPending    SectionStatus = "pending"
	SectionInProgress SectionStatus = "in_progress"
	SectionCompleted  SectionStatus = "completed"
	SectionPassed     SectionStatus = "passed"
	SectionFailed     SectionStatus = "failed"
)

type CheckpointStatus string

const (
	CheckpointPending CheckpointStatus = "pending"
	CheckpointPass    CheckpointStatus = "pass"
	CheckpointFail    CheckpointStatus = "fail"
	CheckpointIssue   CheckpointStatus = "issue"
	CheckpointNA      CheckpointStatus = "na"
)

func (s CheckpointStatus) Terminal() bool { return s != CheckpointPending }

// Failing reports whether the status counts against the section verdict.
func (s CheckpointStatus) Failing() bool { return s == CheckpointFail || s == CheckpointIssue }

// Inspection is one execution of a template version against one production
// item. Verdict policy and item metadata are snapshotted at open so the
// rollup stays a pure function of inspection-owned rows even if the template
// or item changes later.
type Inspection struct {
	ID           uint64 `gorm:"primaryKey;column:id" json:"-"`
	InspectionID string `gorm:"size:32;uniqueIndex:ux_inspections_inspection_id" json:"inspection_id"`

	TemplateID      string `gorm:"size:32;index" json:"template_id"`
	TemplateVersion int    `json:"template_version"`
	ItemID          string `gorm:"size:32;index" json:"item_id"`

	ItemMetadata template.Metadata `gorm:"type:json;serializer:json" json:"item_metadata"`

	Status      Status `gorm:"size:16;default:'open'" json:"status"`
	ReworkCount int    `gorm:"default:0" json:"rework_count"`

	MajorFailThreshold int  `json:"major_fail_threshold"`
	ReworkCeiling      int  `json:"rework_ceiling"`
	ReworkEnabled      bool `json:"rework_enabled"`

	// Client-generated, globally unique. The submission gateway keys its
	// at-most-once guarantee on this column.
	IdempotencyKey string `gorm:"size:64;uniqueIndex:ux_inspections_idempotency_key" json:"idempotency_key"`

	// Numeric FK to the failed ancestor; forms the rework chain.
	ParentInspectionID *uint64 `gorm:"index" json:"-"`

	CreatedBy       string    `gorm:"size:32" json:"created_by"`
	StatusUpdatedAt time.Time `gorm:"autoCreateTime" json:"status_updated_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy string         `gorm:"size:32" json:"-"`
}

func (Inspection) TableName() string { return "inspections" }

// SectionResult is materialized at open for every applicable section.
type SectionResult struct {
	ID            uint64 `gorm:"primaryKey;column:id" json:"-"`
	InspectionRef uint64 `gorm:"column:inspection_ref;uniqueIndex:ux_section_results" json:"-"`
	SectionID     string `gorm:"size:32;uniqueIndex:ux_section_results" json:"section_id"`
	Ordinal       int    `json:"ordinal"`
	Name          string `gorm:"size:255" json:"name"`

	Status      SectionStatus `gorm:"size:16;default:'pending'" json:"status"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SectionResult) TableName() string { return "section_results" }

// CheckpointResult is materialized at open for every applicable checkpoint.
// Severity and the photo gate are snapshots of the checkpoint at open;
// severity may be overridden by the inspector at submission time.
type CheckpointResult struct {
	ID            uint64 `gorm:"primaryKey;column:id" json:"-"`
	ResultID      string `gorm:"size:32;uniqueIndex:ux_checkpoint_results_result_id" json:"result_id"`
	InspectionRef uint64 `gorm:"column:inspection_ref;uniqueIndex:ux_checkpoint_results" json:"-"`
	CheckpointID  string `gorm:"size:32;uniqueIndex:ux_checkpoint_results" json:"checkpoint_id"`
	SectionID     string `gorm:"size:32;index" json:"section_id"`
	Code          string `gorm:"size:64" json:"code"`
	DisplayOrder  int    `json:"display_order"`

	Status   CheckpointStatus  `gorm:"size:16;default:'pending'" json:"status"`
	Severity template.Severity `gorm:"size:16" json:"severity"`

	PhotoRequiredIfIssue bool `json:"photo_required_if_issue"`
	MinPhotosIfIssue     int  `json:"min_photos_if_issue"`

	Note       string `gorm:"type:text" json:"note"`
	RecordedBy string `gorm:"size:32" json:"recorded_by"`

	// Last-write-wins ordinal: client device clock, not server arrival.
	ClientRecordedAt time.Time `json:"client_recorded_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CheckpointResult) TableName() string { return "checkpoint_results" }

type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

var validUploadTransitions = map[UploadStatus][]UploadStatus{
	UploadPending:   {UploadUploading, UploadFailed},
	UploadUploading: {UploadCompleted, UploadFailed},
	UploadFailed:    {UploadUploading},
}

func CanTransitionUpload(from, to UploadStatus) bool {
	for _, s := range validUploadTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Photo tracks one upload, correlated to a checkpoint result by its public
// result id. Its lifecycle is independent of result correctness; the verdict
// photo gate only counts completed rows.
type Photo struct {
	ID        uint64 `gorm:"primaryKey;column:id" json:"-"`
	PhotoID   string `gorm:"size:32;uniqueIndex:ux_photos_photo_id" json:"photo_id"`
	ResultRef uint64 `gorm:"column:result_ref;index" json:"-"`
	ResultID  string `gorm:"size:32;index" json:"result_id"`

	UploadStatus     UploadStatus `gorm:"size:16;default:'pending'" json:"upload_status"`
	UploadRetryCount int          `gorm:"default:0" json:"upload_retry_count"`
	UploadURL        string       `gorm:"type:text" json:"upload_url,omitempty"`

	DeviceTakenAt time.Time `json:"device_taken_at"`
	SizeBytes     int64     `json:"size_bytes"`
	Mime          string    `gorm:"size:64" json:"mime"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Photo) TableName() string { return "photos" }
