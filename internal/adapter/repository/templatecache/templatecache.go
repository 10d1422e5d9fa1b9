package templatecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	templateDomain "factory-qc-backend/internal/domain/template"

	"github.com/redis/go-redis/v9"
)

// Repository is a redis read-through cache over the real template store.
// Templates are read-mostly (one structure read per opened inspection, edits
// are rare), and template versions are immutable, so cached structures never
// go stale within their TTL in a harmful way.
type Repository struct {
	inner templateDomain.Repository
	rdb   *redis.Client
	ttl   time.Duration
}

func New(inner templateDomain.Repository, rdb *redis.Client, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Repository{inner: inner, rdb: rdb, ttl: ttl}
}

var _ templateDomain.Repository = (*Repository)(nil)

func structureKey(templateID string, version int) string {
	return fmt.Sprintf("qc:template:structure:%s:%d", templateID, version)
}

func (r *Repository) Create(ctx context.Context, t *templateDomain.Template) error {
	return r.inner.Create(ctx, t)
}

func (r *Repository) GetByTemplateID(ctx context.Context, templateID string, version int) (*templateDomain.Template, error) {
	return r.inner.GetByTemplateID(ctx, templateID, version)
}

func (r *Repository) GetStructure(ctx context.Context, templateID string, version int) (*templateDomain.Structure, error) {
	// latest-version reads (version <= 0) bypass the cache: only pinned
	// versions are immutable
	if version > 0 {
		if b, err := r.rdb.Get(ctx, structureKey(templateID, version)).Bytes(); err == nil {
			var st templateDomain.Structure
			if uerr := json.Unmarshal(b, &st); uerr == nil {
				return &st, nil
			}
			log.Printf("templatecache: corrupt entry for %s v%d, falling through", templateID, version)
		}
	}

	st, err := r.inner.GetStructure(ctx, templateID, version)
	if err != nil {
		return nil, err
	}

	if b, merr := json.Marshal(st); merr == nil {
		if serr := r.rdb.Set(ctx, structureKey(st.Template.TemplateID, st.Template.Version), b, r.ttl).Err(); serr != nil {
			log.Printf("templatecache: set failed: %v", serr)
		}
	}
	return st, nil
}
