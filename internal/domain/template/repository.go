package template

import "context"

// Structure is the fully-ordered section/checkpoint tree for one template
// version. The read path is side-effect free so adapters may cache it.
type Structure struct {
	Template *Template          `json:"template"`
	Sections []StructureSection `json:"sections"`
}

type StructureSection struct {
	Section     Section      `json:"section"`
	Checkpoints []Checkpoint `json:"checkpoints"`
}

type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByTemplateID(ctx context.Context, templateID string, version int) (*Template, error)
	// GetStructure returns sections ordered by ordinal and checkpoints by
	// display order. Unknown template → ErrNotFound.
	GetStructure(ctx context.Context, templateID string, version int) (*Structure, error)
}
