package http

import (
	"net/http"
	"time"

	inspectionDomain "factory-qc-backend/internal/domain/inspection"
	mediaUC "factory-qc-backend/internal/usecase/media"

	"github.com/labstack/echo/v4"
)

type MediaHandler struct{ uc *mediaUC.Usecase }

func NewMediaHandler(uc *mediaUC.Usecase) *MediaHandler { return &MediaHandler{uc: uc} }

type registerPhotoReq struct {
	ResultID      string    `json:"result_id" validate:"required,hex32"`
	Mime          string    `json:"mime" validate:"required"`
	SizeBytes     int64     `json:"size_bytes" validate:"gte=0"`
	DeviceTakenAt time.Time `json:"device_taken_at"`
}

func (h *MediaHandler) RegisterPhoto(c echo.Context) error {
	var req registerPhotoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.Register(c.Request().Context(), mediaUC.RegisterInput{
		ResultID:      req.ResultID,
		Mime:          req.Mime,
		SizeBytes:     req.SizeBytes,
		DeviceTakenAt: req.DeviceTakenAt,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type photoStatusReq struct {
	UploadStatus string `json:"upload_status" validate:"required,uploadstatus"`
}

func (h *MediaHandler) SetPhotoStatus(c echo.Context) error {
	var req photoStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.uc.SetStatus(c.Request().Context(), c.Param("photo_id"), inspectionDomain.UploadStatus(req.UploadStatus))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type photoCompleteReq struct {
	SizeBytes int64  `json:"size_bytes" validate:"gte=0"`
	Mime      string `json:"mime"`
}

// CompletePhoto is the media-store upload-completion callback.
func (h *MediaHandler) CompletePhoto(c echo.Context) error {
	var req photoCompleteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	dto, err := h.uc.Complete(c.Request().Context(), c.Param("photo_id"), req.SizeBytes, req.Mime)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *MediaHandler) GetPhoto(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("photo_id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
