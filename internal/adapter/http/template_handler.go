package http

import (
	"net/http"

	templateDomain "factory-qc-backend/internal/domain/template"
	"factory-qc-backend/pkg/id"

	"github.com/labstack/echo/v4"
)

type TemplateHandler struct{ repo templateDomain.Repository }

func NewTemplateHandler(repo templateDomain.Repository) *TemplateHandler {
	return &TemplateHandler{repo: repo}
}

type createCheckpointReq struct {
	Code                 string               `json:"code" validate:"required"`
	Name                 string               `json:"name" validate:"required"`
	Prompt               string               `json:"prompt"`
	SeverityIfFailed     string               `json:"severity_if_failed" validate:"required,severity"`
	PhotoRequiredIfIssue bool                 `json:"photo_required_if_issue"`
	MinPhotosIfIssue     int                  `json:"min_photos_if_issue" validate:"gte=0"`
	Conditional          *templateDomain.Rule `json:"conditional,omitempty"`
	DisplayOrder         int                  `json:"display_order"`
}

type createSectionReq struct {
	Ordinal     int                   `json:"ordinal"`
	Name        string                `json:"name" validate:"required"`
	Checkpoints []createCheckpointReq `json:"checkpoints" validate:"min=1,dive"`
}

type createTemplateReq struct {
	Name               string             `json:"name" validate:"required"`
	Version            int                `json:"version" validate:"gte=1"`
	MajorFailThreshold int                `json:"major_fail_threshold" validate:"gte=0"`
	ReworkCeiling      int                `json:"rework_ceiling" validate:"gte=0"`
	ReworkEnabled      bool               `json:"rework_enabled"`
	Sections           []createSectionReq `json:"sections" validate:"min=1,dive"`
}

func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	var req createTemplateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	t := &templateDomain.Template{
		TemplateID:         id.NewID32(),
		Version:            req.Version,
		Name:               req.Name,
		MajorFailThreshold: req.MajorFailThreshold,
		ReworkCeiling:      req.ReworkCeiling,
		ReworkEnabled:      req.ReworkEnabled,
	}
	for _, s := range req.Sections {
		sec := templateDomain.Section{
			SectionID: id.NewID32(),
			Ordinal:   s.Ordinal,
			Name:      s.Name,
		}
		for _, cp := range s.Checkpoints {
			sec.Checkpoints = append(sec.Checkpoints, templateDomain.Checkpoint{
				CheckpointID:         id.NewID32(),
				Code:                 cp.Code,
				Name:                 cp.Name,
				Prompt:               cp.Prompt,
				SeverityIfFailed:     templateDomain.Severity(cp.SeverityIfFailed),
				PhotoRequiredIfIssue: cp.PhotoRequiredIfIssue,
				MinPhotosIfIssue:     cp.MinPhotosIfIssue,
				Conditional:          cp.Conditional,
				DisplayOrder:         cp.DisplayOrder,
			})
		}
		t.Sections = append(t.Sections, sec)
	}

	if err := h.repo.Create(c.Request().Context(), t); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TemplateHandler) GetStructure(c echo.Context) error {
	templateID := c.Param("template_id")
	version := 0
	if v := c.QueryParam("version"); v != "" {
		if err := echo.QueryParamsBinder(c).Int("version", &version).BindError(); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid version"})
		}
	}
	st, err := h.repo.GetStructure(c.Request().Context(), templateID, version)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}
