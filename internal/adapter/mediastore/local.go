package mediastore

import (
	"context"
	"fmt"
	"strings"

	"factory-qc-backend/internal/domain/media"
)

// LocalStore is a development stand-in for the real media store: it hands
// out deterministic upload URLs under a configured base. Production deploys
// swap in the CDN-backed implementation behind the same interface.
type LocalStore struct{ baseURL string }

func NewLocalStore(baseURL string) *LocalStore {
	return &LocalStore{baseURL: strings.TrimRight(baseURL, "/")}
}

var _ media.Store = (*LocalStore)(nil)

func (s *LocalStore) IssueUploadTarget(_ context.Context, meta media.PhotoMeta) (string, error) {
	if meta.PhotoID == "" {
		return "", fmt.Errorf("mediastore: missing photo id")
	}
	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, meta.ResultID, meta.PhotoID), nil
}
