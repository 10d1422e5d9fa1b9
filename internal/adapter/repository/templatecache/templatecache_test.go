package templatecache

import (
	"context"
	"testing"
	"time"

	templateDomain "factory-qc-backend/internal/domain/template"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// countingRepo wraps a canned structure and counts inner reads.
type countingRepo struct {
	st    *templateDomain.Structure
	reads int
}

func (r *countingRepo) Create(context.Context, *templateDomain.Template) error { return nil }

func (r *countingRepo) GetByTemplateID(_ context.Context, templateID string, _ int) (*templateDomain.Template, error) {
	if templateID != r.st.Template.TemplateID {
		return nil, templateDomain.ErrNotFound
	}
	return r.st.Template, nil
}

func (r *countingRepo) GetStructure(_ context.Context, templateID string, _ int) (*templateDomain.Structure, error) {
	if templateID != r.st.Template.TemplateID {
		return nil, templateDomain.ErrNotFound
	}
	r.reads++
	return r.st, nil
}

func newEnv(t *testing.T) (*miniredis.Miniredis, *countingRepo, *Repository) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingRepo{st: &templateDomain.Structure{
		Template: &templateDomain.Template{TemplateID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Version: 2, Name: "assembly QC"},
		Sections: []templateDomain.StructureSection{
			{
				Section: templateDomain.Section{SectionID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Ordinal: 1, Name: "Exterior"},
				Checkpoints: []templateDomain.Checkpoint{
					{CheckpointID: "cccccccccccccccccccccccccccccccc", Code: "paint", SeverityIfFailed: templateDomain.SeverityMinor},
				},
			},
		},
	}}
	return mr, inner, New(inner, rdb, time.Minute)
}

func TestGetStructure_PinnedVersionCached(t *testing.T) {
	_, inner, cache := newEnv(t)
	ctx := context.Background()
	tid := inner.st.Template.TemplateID

	first, err := cache.GetStructure(ctx, tid, 2)
	if err != nil {
		t.Fatalf("miss read: %v", err)
	}
	second, err := cache.GetStructure(ctx, tid, 2)
	if err != nil {
		t.Fatalf("hit read: %v", err)
	}
	if inner.reads != 1 {
		t.Fatalf("second read must come from cache, inner reads = %d", inner.reads)
	}
	if second.Template.TemplateID != first.Template.TemplateID || len(second.Sections) != 1 {
		t.Fatalf("cached structure mangled: %+v", second)
	}
	if second.Sections[0].Checkpoints[0].Code != "paint" {
		t.Fatalf("cached tree: %+v", second.Sections[0])
	}
}

func TestGetStructure_LatestBypassesCache(t *testing.T) {
	_, inner, cache := newEnv(t)
	ctx := context.Background()
	tid := inner.st.Template.TemplateID

	// version <= 0 is "latest" and may change between reads
	for i := 0; i < 2; i++ {
		if _, err := cache.GetStructure(ctx, tid, 0); err != nil {
			t.Fatalf("latest read %d: %v", i, err)
		}
	}
	if inner.reads != 2 {
		t.Fatalf("latest reads must hit the store, inner reads = %d", inner.reads)
	}
}

func TestGetStructure_CorruptEntryFallsThrough(t *testing.T) {
	mr, inner, cache := newEnv(t)
	ctx := context.Background()
	tid := inner.st.Template.TemplateID

	if err := mr.Set(structureKey(tid, 2), "{not json"); err != nil {
		t.Fatalf("seed corrupt: %v", err)
	}
	st, err := cache.GetStructure(ctx, tid, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if inner.reads != 1 {
		t.Fatalf("corrupt entry must fall through to the store, reads = %d", inner.reads)
	}
	if st.Template.Version != 2 {
		t.Fatalf("structure: %+v", st)
	}
}

func TestGetStructure_MissPropagatesNotFound(t *testing.T) {
	_, _, cache := newEnv(t)
	if _, err := cache.GetStructure(context.Background(), "dddddddddddddddddddddddddddddddd", 1); err != templateDomain.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRedisDownDegradesToStore(t *testing.T) {
	_, inner, _ := newEnv(t)
	// cache backend unreachable, reads must still work
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	cache := New(inner, down, time.Minute)

	st, err := cache.GetStructure(context.Background(), inner.st.Template.TemplateID, 2)
	if err != nil {
		t.Fatalf("read with redis down: %v", err)
	}
	if st.Template.Version != 2 || inner.reads != 1 {
		t.Fatalf("degraded read: %+v reads=%d", st, inner.reads)
	}
}
