package mysql

import (
	"context"
	"errors"

	templateDomain "factory-qc-backend/internal/domain/template"

	"gorm.io/gorm"
)

type TemplateRepository struct{ db *gorm.DB }

func NewTemplateRepository(db *gorm.DB) *TemplateRepository { return &TemplateRepository{db: db} }

func (r *TemplateRepository) Create(ctx context.Context, t *templateDomain.Template) error {
	// nested create: sections and checkpoints ride along
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TemplateRepository) GetByTemplateID(ctx context.Context, templateID string, version int) (*templateDomain.Template, error) {
	var out templateDomain.Template
	q := r.db.WithContext(ctx).Where("template_id = ?", templateID)
	if version > 0 {
		q = q.Where("version = ?", version)
	} else {
		q = q.Order("version DESC")
	}
	res := q.First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, templateDomain.ErrNotFound
	}
	return &out, res.Error
}

// GetStructure loads the ordered section/checkpoint tree. version <= 0 means
// latest; callers that need determinism pass the pinned version.
func (r *TemplateRepository) GetStructure(ctx context.Context, templateID string, version int) (*templateDomain.Structure, error) {
	t, err := r.GetByTemplateID(ctx, templateID, version)
	if err != nil {
		return nil, err
	}

	var sections []templateDomain.Section
	if err := r.db.WithContext(ctx).
		Where("template_ref = ?", t.ID).
		Order("ordinal ASC, id ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	st := &templateDomain.Structure{Template: t, Sections: make([]templateDomain.StructureSection, 0, len(sections))}
	for _, sec := range sections {
		var cps []templateDomain.Checkpoint
		if err := r.db.WithContext(ctx).
			Where("section_ref = ?", sec.ID).
			Order("display_order ASC, id ASC").
			Find(&cps).Error; err != nil {
			return nil, err
		}
		st.Sections = append(st.Sections, templateDomain.StructureSection{Section: sec, Checkpoints: cps})
	}
	return st, nil
}
