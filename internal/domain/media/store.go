package media

import "context"

// PhotoMeta describes an upload about to happen. The store decides where the
// bytes go; this engine only tracks state.
type PhotoMeta struct {
	PhotoID   string
	ResultID  string
	Mime      string
	SizeBytes int64
}

// Store is the consumed media-store interface. File bytes, CDN delivery and
// signed-URL mechanics live behind it; the engine never touches them.
type Store interface {
	IssueUploadTarget(ctx context.Context, meta PhotoMeta) (string, error)
}
