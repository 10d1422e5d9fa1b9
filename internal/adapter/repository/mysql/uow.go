package mysql

import (
	"context"
	"errors"

	"factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Templates:   &TemplateRepository{db: tx},
		Inspections: &InspectionRepository{db: tx},
		Photos:      &PhotoRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinInspectionTx(ctx context.Context, inspectionID string, fn func(r uow.Repos, ins *inspection.Inspection) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := repos(tx)
		// lock the inspection row up-front to prevent races
		ins, err := r.Inspections.GetByInspectionIDForUpdate(ctx, inspectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return inspection.ErrNotFound
			}
			return err
		}
		return fn(r, ins)
	})
}
