package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
)

type reviewService interface {
	Add(ctx context.Context, packageID string, req dto.AddFeedbackRequest) (*models.Review, *models.Review, error)
	Update(ctx context.Context, packageID, reviewID string, req dto.UpdateFeedbackRequest) (*models.PackageDetail, error)
	Delete(ctx context.Context, packageID, reviewID, userID string) (*models.PackageDetail, error)
}

// FeedbackHandler exposes the per-package review endpoints.
type FeedbackHandler struct {
	service reviewService
}

// NewFeedbackHandler builds a new handler.
func NewFeedbackHandler(service reviewService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Add godoc
// @Summary Post a review on a package
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param payload body dto.AddFeedbackRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "User already reviewed this package"
// @Router /packages/{id}/feedback [post]
func (h *FeedbackHandler) Add(c *gin.Context) {
	var req dto.AddFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid feedback payload"))
		return
	}
	if req.UserID == "" {
		req.UserID = actorID(c)
	}
	created, existing, err := h.service.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if existing != nil {
			response.ErrorWithMeta(c, err, map[string]interface{}{"existing": existing})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Edit the caller's review
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param reviewId path string true "Review ID"
// @Param payload body dto.UpdateFeedbackRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /packages/{id}/feedback/{reviewId} [put]
func (h *FeedbackHandler) Update(c *gin.Context) {
	var req dto.UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid feedback payload"))
		return
	}
	if req.UserID == "" {
		req.UserID = actorID(c)
	}
	detail, err := h.service.Update(c.Request.Context(), c.Param("id"), c.Param("reviewId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Remove the caller's review
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param reviewId path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Router /packages/{id}/feedback/{reviewId} [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
	var req dto.DeleteFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		req.UserID = actorID(c)
	}
	if req.UserID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "userId is required"))
		return
	}
	detail, err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Param("reviewId"), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
