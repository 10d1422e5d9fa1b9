package inspection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	domain "factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/template"
	"factory-qc-backend/internal/domain/uow"
	"factory-qc-backend/internal/usecase/checklist"
	"factory-qc-backend/pkg/id"

	"gorm.io/gorm"
)

// VerdictEvent is emitted after a finalize commits. Downstream item/prototype
// records consume it to update their own qc_status; this engine never writes
// those tables.
type VerdictEvent struct {
	InspectionID string    `json:"inspection_id"`
	ItemID       string    `json:"item_id"`
	Status       string    `json:"status"`
	ReworkID     string    `json:"rework_id,omitempty"`
	Escalated    bool      `json:"escalated"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishVerdict(ctx context.Context, ev VerdictEvent) error
}

type Usecase struct {
	repo   domain.Repository
	photos domain.PhotoRepository
	uow    uow.UnitOfWork
	events EventPublisher // optional
}

// NewUsecase: direct repos serve the read paths, the UoW serves mutations.
func NewUsecase(repo domain.Repository, photos domain.PhotoRepository, tx uow.UnitOfWork, events EventPublisher) *Usecase {
	return &Usecase{repo: repo, photos: photos, uow: tx, events: events}
}

// ---- DTOs ----

type OpenInput struct {
	TemplateID      string
	TemplateVersion int
	ItemID          string
	ItemMetadata    template.Metadata
	IdempotencyKey  string
	CreatedBy       string
}

type ChecklistCheckpoint struct {
	ResultID             string            `json:"result_id"`
	CheckpointID         string            `json:"checkpoint_id"`
	Code                 string            `json:"code"`
	Prompt               string            `json:"prompt,omitempty"`
	Status               string            `json:"status"`
	Severity             template.Severity `json:"severity"`
	PhotoRequiredIfIssue bool              `json:"photo_required_if_issue"`
	MinPhotosIfIssue     int               `json:"min_photos_if_issue"`
}

type ChecklistSection struct {
	SectionID   string                `json:"section_id"`
	Name        string                `json:"name"`
	Ordinal     int                   `json:"ordinal"`
	Status      string                `json:"status"`
	Checkpoints []ChecklistCheckpoint `json:"checkpoints"`
}

type InspectionDTO struct {
	InspectionID    string             `json:"inspection_id"`
	TemplateID      string             `json:"template_id"`
	TemplateVersion int                `json:"template_version"`
	ItemID          string             `json:"item_id"`
	Status          string             `json:"status"`
	ReworkCount     int                `json:"rework_count"`
	Checklist       []ChecklistSection `json:"checklist,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type RecordInput struct {
	InspectionID     string
	CheckpointID     string
	Status           domain.CheckpointStatus
	Severity         template.Severity // empty keeps the checkpoint snapshot
	Note             string
	RecordedBy       string
	ClientRecordedAt time.Time
}

type ResultDTO struct {
	ResultID         string            `json:"result_id"`
	CheckpointID     string            `json:"checkpoint_id"`
	SectionID        string            `json:"section_id"`
	Code             string            `json:"code"`
	Status           string            `json:"status"`
	Severity         template.Severity `json:"severity"`
	Note             string            `json:"note,omitempty"`
	ClientRecordedAt time.Time         `json:"client_recorded_at"`
}

type FinalizeInput struct {
	InspectionID string
	FinalizedBy  string
	// Optional fresh item metadata for the rework resolution; nil reuses
	// the snapshot taken at open.
	ItemMetadata template.Metadata
}

type SectionVerdictDTO struct {
	SectionID string `json:"section_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

type VerdictDTO struct {
	InspectionID string              `json:"inspection_id"`
	ItemID       string              `json:"item_id"`
	Status       string              `json:"status"`
	ReworkCount  int                 `json:"rework_count"`
	Sections     []SectionVerdictDTO `json:"sections"`
	ReworkID     string              `json:"rework_inspection_id,omitempty"`
	Escalated    bool                `json:"escalated,omitempty"`
}

// ---- Open ----

func (u *Usecase) Open(ctx context.Context, in OpenInput) (*InspectionDTO, error) {
	if in.TemplateID == "" || in.ItemID == "" || in.IdempotencyKey == "" {
		return nil, errors.New("invalid input")
	}
	var dto *InspectionDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		ins, sections, err := u.OpenTx(ctx, r, in)
		if err != nil {
			return err
		}
		dto = ToInspectionDTO(ins, sections)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// OpenTx creates an inspection and materializes its checklist inside the
// caller's transaction. A hit on the idempotency key returns the existing
// inspection untouched.
func (u *Usecase) OpenTx(ctx context.Context, r uow.Repos, in OpenInput) (*domain.Inspection, []ChecklistSection, error) {
	existing, err := r.Inspections.GetByIdempotencyKey(ctx, in.IdempotencyKey)
	switch {
	case err == nil:
		sections, lerr := u.loadChecklist(ctx, r.Inspections, existing)
		return existing, sections, lerr
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}

	st, err := r.Templates.GetStructure(ctx, in.TemplateID, in.TemplateVersion)
	if err != nil {
		return nil, nil, err
	}
	resolved := checklist.Resolve(st, in.ItemMetadata)

	ins := &domain.Inspection{
		InspectionID:       id.NewID32(),
		TemplateID:         in.TemplateID,
		TemplateVersion:    st.Template.Version,
		ItemID:             in.ItemID,
		ItemMetadata:       in.ItemMetadata,
		Status:             domain.StatusOpen,
		MajorFailThreshold: st.Template.MajorFailThreshold,
		ReworkCeiling:      st.Template.ReworkCeiling,
		ReworkEnabled:      st.Template.ReworkEnabled,
		IdempotencyKey:     in.IdempotencyKey,
		CreatedBy:          in.CreatedBy,
		StatusUpdatedAt:    time.Now().UTC(),
	}
	if err := r.Inspections.Create(ctx, ins); err != nil {
		// two retries of the same key raced: hand back the winner
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, rerr := r.Inspections.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if rerr != nil {
				return nil, nil, rerr
			}
			sections, lerr := u.loadChecklist(ctx, r.Inspections, winner)
			return winner, sections, lerr
		}
		return nil, nil, err
	}

	if err := u.materialize(ctx, r.Inspections, ins, resolved); err != nil {
		return nil, nil, err
	}
	sections, err := u.loadChecklist(ctx, r.Inspections, ins)
	return ins, sections, err
}

func (u *Usecase) materialize(ctx context.Context, repo domain.Repository, ins *domain.Inspection, resolved []checklist.ResolvedSection) error {
	var sectionRows []*domain.SectionResult
	var checkpointRows []*domain.CheckpointResult
	for _, rs := range resolved {
		sectionRows = append(sectionRows, &domain.SectionResult{
			InspectionRef: ins.ID,
			SectionID:     rs.Section.SectionID,
			Ordinal:       rs.Section.Ordinal,
			Name:          rs.Section.Name,
			Status:        domain.SectionPending,
		})
		for _, cp := range rs.Checkpoints {
			checkpointRows = append(checkpointRows, &domain.CheckpointResult{
				ResultID:             id.NewID32(),
				InspectionRef:        ins.ID,
				CheckpointID:         cp.CheckpointID,
				SectionID:            rs.Section.SectionID,
				Code:                 cp.Code,
				DisplayOrder:         cp.DisplayOrder,
				Status:               domain.CheckpointPending,
				Severity:             cp.SeverityIfFailed,
				PhotoRequiredIfIssue: cp.PhotoRequiredIfIssue,
				MinPhotosIfIssue:     cp.MinPhotosIfIssue,
			})
		}
	}
	if len(sectionRows) > 0 {
		if err := repo.CreateSectionResults(ctx, sectionRows); err != nil {
			return err
		}
	}
	if len(checkpointRows) > 0 {
		if err := repo.CreateCheckpointResults(ctx, checkpointRows); err != nil {
			return err
		}
	}
	return nil
}

func (u *Usecase) loadChecklist(ctx context.Context, repo domain.Repository, ins *domain.Inspection) ([]ChecklistSection, error) {
	secRows, err := repo.ListSectionResults(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	cpRows, err := repo.ListCheckpointResults(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	bySection := make(map[string][]ChecklistCheckpoint)
	for _, cp := range cpRows {
		bySection[cp.SectionID] = append(bySection[cp.SectionID], ChecklistCheckpoint{
			ResultID:             cp.ResultID,
			CheckpointID:         cp.CheckpointID,
			Code:                 cp.Code,
			Status:               string(cp.Status),
			Severity:             cp.Severity,
			PhotoRequiredIfIssue: cp.PhotoRequiredIfIssue,
			MinPhotosIfIssue:     cp.MinPhotosIfIssue,
		})
	}
	out := make([]ChecklistSection, 0, len(secRows))
	for _, s := range secRows {
		out = append(out, ChecklistSection{
			SectionID:   s.SectionID,
			Name:        s.Name,
			Ordinal:     s.Ordinal,
			Status:      string(s.Status),
			Checkpoints: bySection[s.SectionID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// ---- Record ----

func (u *Usecase) Record(ctx context.Context, in RecordInput) (*ResultDTO, error) {
	var dto *ResultDTO
	err := u.uow.WithinInspectionTx(ctx, in.InspectionID, func(r uow.Repos, ins *domain.Inspection) error {
		row, err := u.RecordTx(ctx, r, ins, in)
		if err != nil {
			return err
		}
		dto = toResultDTO(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// RecordTx applies one checkpoint write under the caller's per-inspection
// lock. Writes are last-write-wins on the client timestamp: an older replay
// is a no-op, never an error, so offline queues can flush out of order.
func (u *Usecase) RecordTx(ctx context.Context, r uow.Repos, ins *domain.Inspection, in RecordInput) (*domain.CheckpointResult, error) {
	if ins.Status.Terminal() || ins.Status == domain.StatusSubmitted {
		return nil, domain.ErrImmutable
	}
	switch in.Status {
	case domain.CheckpointPass, domain.CheckpointFail, domain.CheckpointIssue, domain.CheckpointNA:
	default:
		return nil, fmt.Errorf("%w: checkpoint status %q", domain.ErrInvalidTransition, in.Status)
	}

	row, err := r.Inspections.GetCheckpointResult(ctx, ins.ID, in.CheckpointID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checkpoint %s: %w", in.CheckpointID, domain.ErrNotFound)
		}
		return nil, err
	}

	if row.Status.Terminal() && row.ClientRecordedAt.After(in.ClientRecordedAt) {
		return row, nil
	}

	row.Status = in.Status
	if in.Severity.Valid() {
		row.Severity = in.Severity
	}
	row.Note = in.Note
	row.RecordedBy = in.RecordedBy
	row.ClientRecordedAt = in.ClientRecordedAt
	if err := r.Inspections.SaveCheckpointResult(ctx, row); err != nil {
		return nil, err
	}

	if ins.Status == domain.StatusOpen {
		ins.Status = domain.StatusInProgress
		ins.StatusUpdatedAt = time.Now().UTC()
		if err := r.Inspections.Save(ctx, ins); err != nil {
			return nil, err
		}
	}

	if err := u.refreshSection(ctx, r.Inspections, ins, row.SectionID); err != nil {
		return nil, err
	}
	return row, nil
}

// refreshSection moves the section result to in_progress or completed based
// on how many of its checkpoints are terminal.
func (u *Usecase) refreshSection(ctx context.Context, repo domain.Repository, ins *domain.Inspection, sectionID string) error {
	sec, err := repo.GetSectionResult(ctx, ins.ID, sectionID)
	if err != nil {
		return err
	}
	rows, err := repo.ListCheckpointResults(ctx, ins.ID)
	if err != nil {
		return err
	}
	terminal, total := 0, 0
	for _, r := range rows {
		if r.SectionID != sectionID {
			continue
		}
		total++
		if r.Status.Terminal() {
			terminal++
		}
	}
	want := domain.SectionInProgress
	if total > 0 && terminal == total {
		want = domain.SectionCompleted
	}
	if sec.Status == want {
		return nil
	}
	sec.Status = want
	if want == domain.SectionCompleted && sec.CompletedAt == nil {
		now := time.Now().UTC()
		sec.CompletedAt = &now
	}
	return repo.SaveSectionResult(ctx, sec)
}

// ---- Finalize ----

func (u *Usecase) Finalize(ctx context.Context, in FinalizeInput) (*VerdictDTO, error) {
	var dto *VerdictDTO
	err := u.uow.WithinInspectionTx(ctx, in.InspectionID, func(r uow.Repos, ins *domain.Inspection) error {
		out, err := u.FinalizeTx(ctx, r, ins, in)
		if err != nil {
			return err
		}
		dto = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publishVerdict(ctx, dto)
	return dto, nil
}

// FinalizeTx runs the in_progress→submitted→verdict transition in one
// transaction: the completeness and photo gates, the severity rollup, and —
// on a failing verdict with rework enabled — the rework spawn. A finalized
// inspection is immutable; corrections happen on the spawned child.
func (u *Usecase) FinalizeTx(ctx context.Context, r uow.Repos, ins *domain.Inspection, in FinalizeInput) (*VerdictDTO, error) {
	if !domain.CanTransition(ins.Status, domain.StatusSubmitted) {
		return nil, domain.ErrImmutable
	}

	secRows, err := r.Inspections.ListSectionResults(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	cpRows, err := r.Inspections.ListCheckpointResults(ctx, ins.ID)
	if err != nil {
		return nil, err
	}

	for _, row := range cpRows {
		if !row.Status.Terminal() {
			return nil, fmt.Errorf("checkpoint %s pending: %w", row.Code, domain.ErrChecklistIncomplete)
		}
	}

	counts, err := r.Photos.CompletedCountsByInspection(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	if missing := PhotoGateViolations(cpRows, counts); len(missing) > 0 {
		return nil, fmt.Errorf("checkpoints %s: %w", strings.Join(missing, ", "), domain.ErrPhotoGate)
	}

	verdict := ComputeVerdict(cpRows, ins.MajorFailThreshold)

	dto := &VerdictDTO{
		InspectionID: ins.InspectionID,
		ItemID:       ins.ItemID,
		Status:       string(verdict.Inspection),
		ReworkCount:  ins.ReworkCount,
	}
	now := time.Now().UTC()
	for i := range secRows {
		sec := &secRows[i]
		if st, ok := verdict.Sections[sec.SectionID]; ok {
			sec.Status = st
		}
		if sec.CompletedAt == nil {
			sec.CompletedAt = &now
		}
		if err := r.Inspections.SaveSectionResult(ctx, sec); err != nil {
			return nil, err
		}
		dto.Sections = append(dto.Sections, SectionVerdictDTO{SectionID: sec.SectionID, Name: sec.Name, Status: string(sec.Status)})
	}

	ins.Status = verdict.Inspection
	ins.StatusUpdatedAt = now
	if err := r.Inspections.Save(ctx, ins); err != nil {
		return nil, err
	}

	if verdict.Inspection == domain.StatusFailed && ins.ReworkEnabled {
		child, err := u.spawnRework(ctx, r, ins, in)
		switch {
		case errors.Is(err, domain.ErrReworkCeilingReached):
			// escalation: the verdict stands, nothing is spawned
			dto.Escalated = true
			log.Printf("inspection %s: rework ceiling %d reached, escalating", ins.InspectionID, ins.ReworkCeiling)
		case err != nil:
			return nil, err
		default:
			dto.ReworkID = child.InspectionID
		}
	}
	return dto, nil
}

// spawnRework creates the successor inspection with a fresh applicability
// resolution. The failed parent is never mutated; the chain is walked via
// parent pointers.
func (u *Usecase) spawnRework(ctx context.Context, r uow.Repos, parent *domain.Inspection, in FinalizeInput) (*domain.Inspection, error) {
	if parent.ReworkCount >= parent.ReworkCeiling {
		return nil, domain.ErrReworkCeilingReached
	}
	md := parent.ItemMetadata
	if in.ItemMetadata != nil {
		md = in.ItemMetadata
	}
	st, err := r.Templates.GetStructure(ctx, parent.TemplateID, parent.TemplateVersion)
	if err != nil {
		return nil, err
	}
	resolved := checklist.Resolve(st, md)

	child := &domain.Inspection{
		InspectionID:       id.NewID32(),
		TemplateID:         parent.TemplateID,
		TemplateVersion:    parent.TemplateVersion,
		ItemID:             parent.ItemID,
		ItemMetadata:       md,
		Status:             domain.StatusOpen,
		ReworkCount:        parent.ReworkCount + 1,
		MajorFailThreshold: parent.MajorFailThreshold,
		ReworkCeiling:      parent.ReworkCeiling,
		ReworkEnabled:      parent.ReworkEnabled,
		IdempotencyKey:     id.NewID32(), // server-spawned, no client key to honor
		ParentInspectionID: &parent.ID,
		CreatedBy:          in.FinalizedBy,
		StatusUpdatedAt:    time.Now().UTC(),
	}
	if err := r.Inspections.Create(ctx, child); err != nil {
		return nil, err
	}
	if err := u.materialize(ctx, r.Inspections, child, resolved); err != nil {
		return nil, err
	}
	return child, nil
}

func (u *Usecase) publishVerdict(ctx context.Context, dto *VerdictDTO) {
	if u.events == nil || dto == nil {
		return
	}
	ev := VerdictEvent{
		InspectionID: dto.InspectionID,
		ItemID:       dto.ItemID,
		Status:       dto.Status,
		ReworkID:     dto.ReworkID,
		Escalated:    dto.Escalated,
		OccurredAt:   time.Now().UTC(),
	}
	if err := u.events.PublishVerdict(ctx, ev); err != nil {
		log.Printf("inspection %s: verdict event publish failed: %v", dto.InspectionID, err)
	}
}

// LoadChecklistTx rebuilds the checklist DTO from materialized rows using
// the caller's transaction repos.
func (u *Usecase) LoadChecklistTx(ctx context.Context, r uow.Repos, ins *domain.Inspection) ([]ChecklistSection, error) {
	return u.loadChecklist(ctx, r.Inspections, ins)
}

// ---- Reads ----

func (u *Usecase) Get(ctx context.Context, inspectionID string) (*InspectionDTO, error) {
	ins, err := u.getByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	sections, err := u.loadChecklist(ctx, u.repo, ins)
	if err != nil {
		return nil, err
	}
	return ToInspectionDTO(ins, sections), nil
}

// GetVerdict recomputes the rollup from persisted rows. For a finalized
// inspection this is a pure replay and must match the stored status.
func (u *Usecase) GetVerdict(ctx context.Context, inspectionID string) (*VerdictDTO, error) {
	ins, err := u.getByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	secRows, err := u.repo.ListSectionResults(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	cpRows, err := u.repo.ListCheckpointResults(ctx, ins.ID)
	if err != nil {
		return nil, err
	}
	verdict := ComputeVerdict(cpRows, ins.MajorFailThreshold)
	dto := &VerdictDTO{InspectionID: ins.InspectionID, ItemID: ins.ItemID, Status: string(ins.Status), ReworkCount: ins.ReworkCount}
	for _, sec := range secRows {
		st := sec.Status
		if v, ok := verdict.Sections[sec.SectionID]; ok && ins.Status.Terminal() {
			st = v
		}
		dto.Sections = append(dto.Sections, SectionVerdictDTO{SectionID: sec.SectionID, Name: sec.Name, Status: string(st)})
	}
	return dto, nil
}

// GetReworkChain walks parent pointers back to the root and returns ancestor
// inspection ids in creation order (oldest first).
func (u *Usecase) GetReworkChain(ctx context.Context, inspectionID string) ([]string, error) {
	ins, err := u.getByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	var chain []string
	cur := ins
	for cur.ParentInspectionID != nil {
		parent, err := u.repo.GetByID(ctx, *cur.ParentInspectionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("parent of %s: %w", cur.InspectionID, domain.ErrNotFound)
			}
			return nil, err
		}
		chain = append(chain, parent.InspectionID)
		cur = parent
	}
	// walked newest→oldest, flip to creation order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (u *Usecase) getByID(ctx context.Context, inspectionID string) (*domain.Inspection, error) {
	ins, err := u.repo.GetByInspectionID(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ins, nil
}

func ToInspectionDTO(ins *domain.Inspection, sections []ChecklistSection) *InspectionDTO {
	return &InspectionDTO{
		InspectionID:    ins.InspectionID,
		TemplateID:      ins.TemplateID,
		TemplateVersion: ins.TemplateVersion,
		ItemID:          ins.ItemID,
		Status:          string(ins.Status),
		ReworkCount:     ins.ReworkCount,
		Checklist:       sections,
		CreatedAt:       ins.CreatedAt,
	}
}

func toResultDTO(row *domain.CheckpointResult) *ResultDTO {
	return &ResultDTO{
		ResultID:         row.ResultID,
		CheckpointID:     row.CheckpointID,
		SectionID:        row.SectionID,
		Code:             row.Code,
		Status:           string(row.Status),
		Severity:         row.Severity,
		Note:             row.Note,
		ClientRecordedAt: row.ClientRecordedAt,
	}
}
