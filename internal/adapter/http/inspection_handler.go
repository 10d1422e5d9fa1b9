package http

import (
	"net/http"
	"time"

	inspectionDomain "factory-qc-backend/internal/domain/inspection"
	templateDomain "factory-qc-backend/internal/domain/template"
	inspectionUC "factory-qc-backend/internal/usecase/inspection"
	submissionUC "factory-qc-backend/internal/usecase/submission"

	"github.com/labstack/echo/v4"
)

type InspectionHandler struct {
	uc  *inspectionUC.Usecase
	sub *submissionUC.Usecase
}

func NewInspectionHandler(uc *inspectionUC.Usecase, sub *submissionUC.Usecase) *InspectionHandler {
	return &InspectionHandler{uc: uc, sub: sub}
}

type openInspectionReq struct {
	TemplateID      string                  `json:"template_id" validate:"required,hex32"`
	TemplateVersion int                     `json:"template_version" validate:"gte=0"`
	ItemID          string                  `json:"item_id" validate:"required"`
	ItemMetadata    templateDomain.Metadata `json:"item_metadata"`
	IdempotencyKey  string                  `json:"idempotency_key" validate:"required"`
	CreatedBy       string                  `json:"created_by"`
}

func (h *InspectionHandler) OpenInspection(c echo.Context) error {
	var req openInspectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Open(c.Request().Context(), inspectionUC.OpenInput{
		TemplateID:      req.TemplateID,
		TemplateVersion: req.TemplateVersion,
		ItemID:          req.ItemID,
		ItemMetadata:    req.ItemMetadata,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *InspectionHandler) GetInspection(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("inspection_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type recordResultReq struct {
	Status           string    `json:"status" validate:"required,cpstatus"`
	Severity         string    `json:"severity" validate:"omitempty,severity"`
	Note             string    `json:"note"`
	RecordedBy       string    `json:"recorded_by"`
	ClientRecordedAt time.Time `json:"client_recorded_at" validate:"required"`
}

func (h *InspectionHandler) RecordResult(c echo.Context) error {
	var req recordResultReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Record(c.Request().Context(), inspectionUC.RecordInput{
		InspectionID:     c.Param("inspection_id"),
		CheckpointID:     c.Param("checkpoint_id"),
		Status:           inspectionDomain.CheckpointStatus(req.Status),
		Severity:         templateDomain.Severity(req.Severity),
		Note:             req.Note,
		RecordedBy:       req.RecordedBy,
		ClientRecordedAt: req.ClientRecordedAt.UTC(),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type finalizeReq struct {
	FinalizedBy  string                  `json:"finalized_by"`
	ItemMetadata templateDomain.Metadata `json:"item_metadata,omitempty"`
}

func (h *InspectionHandler) Finalize(c echo.Context) error {
	var req finalizeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	dto, err := h.uc.Finalize(c.Request().Context(), inspectionUC.FinalizeInput{
		InspectionID: c.Param("inspection_id"),
		FinalizedBy:  req.FinalizedBy,
		ItemMetadata: req.ItemMetadata,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *InspectionHandler) GetVerdict(c echo.Context) error {
	dto, err := h.uc.GetVerdict(c.Request().Context(), c.Param("inspection_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *InspectionHandler) GetReworkChain(c echo.Context) error {
	chain, err := h.uc.GetReworkChain(c.Request().Context(), c.Param("inspection_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"inspection_id": c.Param("inspection_id"),
		"ancestors":     chain,
	})
}

type submitResultReq struct {
	CheckpointID     string    `json:"checkpoint_id" validate:"required,hex32"`
	Status           string    `json:"status" validate:"required,cpstatus"`
	Severity         string    `json:"severity" validate:"omitempty,severity"`
	Note             string    `json:"note"`
	ClientRecordedAt time.Time `json:"client_recorded_at" validate:"required"`
}

type submitReq struct {
	IdempotencyKey  string                  `json:"idempotency_key" validate:"required"`
	TemplateID      string                  `json:"template_id" validate:"required,hex32"`
	TemplateVersion int                     `json:"template_version" validate:"gte=0"`
	ItemID          string                  `json:"item_id" validate:"required"`
	ItemMetadata    templateDomain.Metadata `json:"item_metadata"`
	Results         []submitResultReq       `json:"results" validate:"dive"`
	Finalize        bool                    `json:"finalize"`
	SubmittedBy     string                  `json:"submitted_by"`
}

// Submit is the offline batch path: one atomic create-and-apply guarded by
// the client's idempotency key.
func (h *InspectionHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	in := submissionUC.SubmitInput{
		IdempotencyKey:  req.IdempotencyKey,
		TemplateID:      req.TemplateID,
		TemplateVersion: req.TemplateVersion,
		ItemID:          req.ItemID,
		ItemMetadata:    req.ItemMetadata,
		Finalize:        req.Finalize,
		SubmittedBy:     req.SubmittedBy,
	}
	for _, r := range req.Results {
		in.Results = append(in.Results, submissionUC.ResultInput{
			CheckpointID:     r.CheckpointID,
			Status:           inspectionDomain.CheckpointStatus(r.Status),
			Severity:         templateDomain.Severity(r.Severity),
			Note:             r.Note,
			ClientRecordedAt: r.ClientRecordedAt.UTC(),
		})
	}
	dto, err := h.sub.Submit(c.Request().Context(), in)
	if err != nil {
		return writeDomainError(c, err)
	}
	status := http.StatusCreated
	if dto.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, dto)
}
