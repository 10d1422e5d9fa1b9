package mediastoremock

import (
	"context"

	"factory-qc-backend/internal/domain/media"
)

var _ media.Store = (*Store)(nil)

// Store is a function-backed mock that satisfies media.Store. The default
// behavior hands out a predictable fake URL so most tests need no setup.
type Store struct {
	IssueUploadTargetFn func(ctx context.Context, meta media.PhotoMeta) (string, error)
	Issued              []media.PhotoMeta
}

func (m *Store) IssueUploadTarget(ctx context.Context, meta media.PhotoMeta) (string, error) {
	m.Issued = append(m.Issued, meta)
	if m.IssueUploadTargetFn != nil {
		return m.IssueUploadTargetFn(ctx, meta)
	}
	return "https://media.test/uploads/" + meta.ResultID + "/" + meta.PhotoID, nil
}
