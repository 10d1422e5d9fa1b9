package template

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("template not found")

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Template is one immutable version of a checklist catalog. Edits create a
// new version row; inspections pin the version they were opened against.
type Template struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	TemplateID string `gorm:"size:32;uniqueIndex:ux_templates_template_id_version" json:"template_id"`
	Version    int    `gorm:"uniqueIndex:ux_templates_template_id_version;default:1" json:"version"`
	Name       string `gorm:"size:255" json:"name"`

	// Verdict policy, snapshotted onto each inspection at open.
	MajorFailThreshold int  `gorm:"default:0" json:"major_fail_threshold"`
	ReworkCeiling      int  `gorm:"default:3" json:"rework_ceiling"`
	ReworkEnabled      bool `gorm:"default:true" json:"rework_enabled"`

	Sections []Section `gorm:"foreignKey:TemplateRef;references:ID" json:"sections,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy string         `gorm:"size:32" json:"-"`
}

func (Template) TableName() string { return "templates" }

type Section struct {
	ID          uint64 `gorm:"primaryKey;column:id" json:"-"`
	SectionID   string `gorm:"size:32;uniqueIndex:ux_sections_section_id" json:"section_id"`
	TemplateRef uint64 `gorm:"column:template_ref;index" json:"-"`
	Ordinal     int    `json:"ordinal"`
	Name        string `gorm:"size:255" json:"name"`

	Checkpoints []Checkpoint `gorm:"foreignKey:SectionRef;references:ID" json:"checkpoints,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Section) TableName() string { return "sections" }

type Checkpoint struct {
	ID           uint64 `gorm:"primaryKey;column:id" json:"-"`
	CheckpointID string `gorm:"size:32;uniqueIndex:ux_checkpoints_checkpoint_id" json:"checkpoint_id"`
	SectionRef   uint64 `gorm:"column:section_ref;uniqueIndex:ux_checkpoints_section_code" json:"-"`
	// Human-readable stable code, unique within its section.
	Code   string `gorm:"size:64;uniqueIndex:ux_checkpoints_section_code" json:"code"`
	Name   string `gorm:"size:255" json:"name"`
	Prompt string `gorm:"type:text" json:"prompt"`

	SeverityIfFailed     Severity `gorm:"size:16;default:'minor'" json:"severity_if_failed"`
	PhotoRequiredIfIssue bool     `json:"photo_required_if_issue"`
	MinPhotosIfIssue     int      `gorm:"default:0" json:"min_photos_if_issue"`

	// nil means always applicable.
	Conditional *Rule `gorm:"type:json;serializer:json" json:"conditional,omitempty"`

	DisplayOrder int `json:"display_order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Checkpoint) TableName() string { return "checkpoints" }
