package uow

import (
	"context"

	"factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/template"
)

type Repos struct {
	Templates   template.Repository
	Inspections inspection.Repository
	Photos      inspection.PhotoRepository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the inspection row first, then pass it in. Every
	// inspection-mutating flow goes through this so verdict computation
	// never overlaps an in-flight checkpoint write for the same inspection.
	WithinInspectionTx(ctx context.Context, inspectionID string, fn func(r Repos, ins *inspection.Inspection) error) error
}
