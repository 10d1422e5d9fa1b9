package uowmock

import (
	"context"
	"errors"

	"factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn           func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinInspectionTxFn func(ctx context.Context, inspectionID string, fn func(r uow.Repos, ins *inspection.Inspection) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinInspectionTx(fn func(context.Context, string, func(uow.Repos, *inspection.Inspection) error) error) *UoW {
	m.WithinInspectionTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinInspectionTx(ctx context.Context, inspectionID string, fn func(r uow.Repos, ins *inspection.Inspection) error) error {
	if m.WithinInspectionTxFn != nil {
		return m.WithinInspectionTxFn(ctx, inspectionID, fn)
	}
	return errUnimplemented
}
