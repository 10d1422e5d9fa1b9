package submission

import (
	"context"
	"errors"
	"time"

	domain "factory-qc-backend/internal/domain/inspection"
	"factory-qc-backend/internal/domain/template"
	"factory-qc-backend/internal/domain/uow"
	"factory-qc-backend/internal/usecase/inspection"

	"gorm.io/gorm"
)

// Usecase is the idempotent submission gateway. Mobile clients queue
// checkpoint writes offline and flush them in one batch; the same batch may
// be replayed after a timeout even when the server already committed it, so
// everything here keys off the client-generated idempotency key.
type Usecase struct {
	uow  uow.UnitOfWork
	insp *inspection.Usecase
}

func NewUsecase(tx uow.UnitOfWork, insp *inspection.Usecase) *Usecase {
	return &Usecase{uow: tx, insp: insp}
}

type ResultInput struct {
	CheckpointID     string                  `json:"checkpoint_id"`
	Status           domain.CheckpointStatus `json:"status"`
	Severity         template.Severity       `json:"severity,omitempty"`
	Note             string                  `json:"note,omitempty"`
	ClientRecordedAt time.Time               `json:"client_recorded_at"`
}

type SubmitInput struct {
	IdempotencyKey  string
	TemplateID      string
	TemplateVersion int
	ItemID          string
	ItemMetadata    template.Metadata
	Results         []ResultInput
	// Finalize runs the submitted→verdict transition in the same
	// transaction once the batch is applied.
	Finalize    bool
	SubmittedBy string
}

type SubmitDTO struct {
	Inspection *inspection.InspectionDTO `json:"inspection"`
	Verdict    *inspection.VerdictDTO    `json:"verdict,omitempty"`
	// Replayed marks an at-most-once hit: the key was already committed
	// and nothing from this request was applied.
	Replayed bool `json:"replayed"`
}

// Submit applies the whole batch atomically, or returns the original outcome
// when the key was seen before. Either way the caller can retry with the
// same key and never end up with two inspections.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*SubmitDTO, error) {
	if in.IdempotencyKey == "" {
		return nil, errors.New("missing idempotency key")
	}
	var dto *SubmitDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		existing, err := r.Inspections.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		switch {
		case err == nil:
			out, rerr := u.replay(ctx, existing.InspectionID)
			if rerr != nil {
				return rerr
			}
			dto = out
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		ins, _, err := u.insp.OpenTx(ctx, r, inspection.OpenInput{
			TemplateID:      in.TemplateID,
			TemplateVersion: in.TemplateVersion,
			ItemID:          in.ItemID,
			ItemMetadata:    in.ItemMetadata,
			IdempotencyKey:  in.IdempotencyKey,
			CreatedBy:       in.SubmittedBy,
		})
		if err != nil {
			return err
		}

		for _, res := range in.Results {
			if _, err := u.insp.RecordTx(ctx, r, ins, inspection.RecordInput{
				InspectionID:     ins.InspectionID,
				CheckpointID:     res.CheckpointID,
				Status:           res.Status,
				Severity:         res.Severity,
				Note:             res.Note,
				RecordedBy:       in.SubmittedBy,
				ClientRecordedAt: res.ClientRecordedAt,
			}); err != nil {
				return err
			}
		}

		var verdict *inspection.VerdictDTO
		if in.Finalize {
			verdict, err = u.insp.FinalizeTx(ctx, r, ins, inspection.FinalizeInput{
				InspectionID: ins.InspectionID,
				FinalizedBy:  in.SubmittedBy,
			})
			if err != nil {
				return err
			}
		}

		sections, err := u.insp.LoadChecklistTx(ctx, r, ins)
		if err != nil {
			return err
		}
		dto = &SubmitDTO{Inspection: inspection.ToInspectionDTO(ins, sections), Verdict: verdict}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// replay rebuilds the response for a key that already committed. No result
// from the retried payload is re-applied.
func (u *Usecase) replay(ctx context.Context, inspectionID string) (*SubmitDTO, error) {
	insDTO, err := u.insp.Get(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	out := &SubmitDTO{Inspection: insDTO, Replayed: true}
	if insDTO.Status == string(domain.StatusPassed) || insDTO.Status == string(domain.StatusFailed) {
		v, err := u.insp.GetVerdict(ctx, inspectionID)
		if err != nil {
			return nil, err
		}
		out.Verdict = v
	}
	return out, nil
}
