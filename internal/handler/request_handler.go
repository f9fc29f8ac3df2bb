package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/service"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
)

type requestService interface {
	CheckExisting(ctx context.Context, userID string) (*dto.CheckRequestResponse, error)
	Submit(ctx context.Context, req dto.SubmitVisitRequest) (*models.VisitRequest, *models.VisitRequest, error)
	List(ctx context.Context) ([]models.VisitRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.VisitRequest, error)
	SetStatus(ctx context.Context, id string, status models.RequestStatus, actorID string) (*models.VisitRequest, error)
	Remove(ctx context.Context, id, actorID string) error
}

// RequestHandler exposes the visit request endpoints.
type RequestHandler struct {
	service requestService
	metrics *service.MetricsService
}

// NewRequestHandler builds a new handler.
func NewRequestHandler(svc requestService, metrics *service.MetricsService) *RequestHandler {
	return &RequestHandler{service: svc, metrics: metrics}
}

// Check godoc
// @Summary Check whether the submitter has an outstanding request
// @Tags Requests
// @Produce json
// @Param userId path string true "Submitter user ID"
// @Success 200 {object} response.Envelope
// @Router /requests/check/{userId} [get]
func (h *RequestHandler) Check(c *gin.Context) {
	result, err := h.service.CheckExisting(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Submit a visit request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitVisitRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "An active request already exists"
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	if req.UserID == "" {
		req.UserID = actorID(c)
	}
	created, existing, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		if existing != nil {
			h.metrics.CountVisitRequest(service.MetricOutcomeConflict)
			response.ErrorWithMeta(c, err, map[string]interface{}{"existing": existing})
			return
		}
		h.metrics.CountVisitRequest(service.MetricOutcomeRejected)
		response.Error(c, err)
		return
	}
	h.metrics.CountVisitRequest(service.MetricOutcomeAccepted)
	response.Created(c, created)
}

// List godoc
// @Summary List all visit requests (review queue)
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListByUser godoc
// @Summary List the submitter's own requests
// @Tags Requests
// @Produce json
// @Param userId path string true "Submitter user ID"
// @Success 200 {object} response.Envelope
// @Router /requests/user/{userId} [get]
func (h *RequestHandler) ListByUser(c *gin.Context) {
	items, err := h.service.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UpdateStatus godoc
// @Summary Approve or reject a visit request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/status [patch]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	updated, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), req.Status, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Delete a visit request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
