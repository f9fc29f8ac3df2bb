package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/service"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
	"github.com/noah-isme/ivms-api/pkg/storage"
)

type undertakingService interface {
	Submit(ctx context.Context, req dto.SubmitUndertakingRequest, studentSig, parentSig *service.FileUpload) (*dto.UndertakingResponse, *models.Undertaking, error)
	Get(ctx context.Context, ref models.UndertakingRef) (*dto.UndertakingResponse, error)
	Update(ctx context.Context, ref models.UndertakingRef, req dto.UpdateUndertakingRequest, studentSig, parentSig *service.FileUpload) (*dto.UndertakingResponse, error)
	Remove(ctx context.Context, ref models.UndertakingRef, actorID string) (*dto.UndertakingDeleteResult, error)
}

// undertakingRef resolves the path parameter into a tagged lookup. The
// ?by=user switch flips matching from record id to applicant id.
func undertakingRef(c *gin.Context) models.UndertakingRef {
	ref := models.UndertakingRef{Kind: models.UndertakingByID, ID: c.Param("id")}
	if strings.EqualFold(c.Query("by"), "user") {
		ref.Kind = models.UndertakingByApplicant
	}
	return ref
}

// UndertakingHandler exposes the declaration form endpoints.
type UndertakingHandler struct {
	service undertakingService
	files   *storage.UploadStore
	signer  *storage.SignedURLSigner
	metrics *service.MetricsService
	policy  UploadPolicy
}

// NewUndertakingHandler builds a new handler.
func NewUndertakingHandler(svc undertakingService, files *storage.UploadStore, signer *storage.SignedURLSigner, metrics *service.MetricsService, policy UploadPolicy) *UndertakingHandler {
	return &UndertakingHandler{service: svc, files: files, signer: signer, metrics: metrics, policy: policy}
}

// Submit godoc
// @Summary File an undertaking for a student and semester
// @Tags Undertakings
// @Accept multipart/form-data
// @Produce json
// @Param userId formData string true "Applicant user ID"
// @Param studentId formData string true "Student ID"
// @Param semester formData string true "Semester"
// @Param studentSignature formData file false "Student signature scan"
// @Param parentSignature formData file false "Parent signature scan"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Undertaking already filed for this semester"
// @Router /undertakings [post]
func (h *UndertakingHandler) Submit(c *gin.Context) {
	var req dto.SubmitUndertakingRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid undertaking payload"))
		return
	}
	studentSig, err := openUpload(c, "studentSignature", h.policy)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer studentSig.close()
	parentSig, err := openUpload(c, "parentSignature", h.policy)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer parentSig.close()

	created, existing, err := h.service.Submit(c.Request.Context(), req, studentSig.upload(), parentSig.upload())
	if err != nil {
		if existing != nil {
			h.metrics.CountUndertaking(service.MetricOutcomeConflict)
			response.ErrorWithMeta(c, err, map[string]interface{}{"existing": existing})
			return
		}
		h.metrics.CountUndertaking(service.MetricOutcomeRejected)
		response.Error(c, err)
		return
	}
	h.metrics.CountUndertaking(service.MetricOutcomeAccepted)
	response.Created(c, created)
}

// Get godoc
// @Summary Fetch an undertaking by record ID or applicant
// @Tags Undertakings
// @Produce json
// @Param id path string true "Undertaking ID"
// @Param by query string false "Set to 'user' to match the applicant instead of the record"
// @Success 200 {object} response.Envelope
// @Router /undertakings/{id} [get]
func (h *UndertakingHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), undertakingRef(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Patch an undertaking; replaces signature scans when sent
// @Tags Undertakings
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Undertaking ID"
// @Param by query string false "Set to 'user' to match the applicant instead of the record"
// @Success 200 {object} response.Envelope
// @Router /undertakings/{id} [put]
func (h *UndertakingHandler) Update(c *gin.Context) {
	var req dto.UpdateUndertakingRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid undertaking payload"))
		return
	}
	studentSig, err := openUpload(c, "studentSignature", h.policy)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer studentSig.close()
	parentSig, err := openUpload(c, "parentSignature", h.policy)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer parentSig.close()

	item, err := h.service.Update(c.Request.Context(), undertakingRef(c), req, studentSig.upload(), parentSig.upload())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete an undertaking and sweep its signature files
// @Tags Undertakings
// @Produce json
// @Param id path string true "Undertaking ID"
// @Param by query string false "Set to 'user' to match the applicant instead of the record"
// @Success 200 {object} response.Envelope
// @Router /undertakings/{id} [delete]
func (h *UndertakingHandler) Delete(c *gin.Context) {
	result, err := h.service.Remove(c.Request.Context(), undertakingRef(c), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DownloadSignature godoc
// @Summary Download a signature scan via signed token
// @Tags Undertakings
// @Produce octet-stream
// @Param id path string true "Undertaking ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /undertakings/{id}/signature [get]
func (h *UndertakingHandler) DownloadSignature(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	recordID, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
		return
	}
	if recordID != c.Param("id") {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "token does not match this undertaking"))
		return
	}
	file, err := h.files.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "signature file not found"))
		return
	}
	defer file.Close() //nolint:errcheck
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}
