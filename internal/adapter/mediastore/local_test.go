package mediastore

import (
	"context"
	"testing"

	"factory-qc-backend/internal/domain/media"
)

func TestIssueUploadTarget(t *testing.T) {
	s := NewLocalStore("http://localhost:8081/")

	url, err := s.IssueUploadTarget(context.Background(), media.PhotoMeta{
		PhotoID:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ResultID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	want := "http://localhost:8081/uploads/bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	if url != want {
		t.Fatalf("url: got %q want %q", url, want)
	}
}

func TestIssueUploadTarget_MissingPhotoID(t *testing.T) {
	s := NewLocalStore("http://localhost:8081")
	if _, err := s.IssueUploadTarget(context.Background(), media.PhotoMeta{ResultID: "x"}); err == nil {
		t.Fatal("missing photo id must error")
	}
}
