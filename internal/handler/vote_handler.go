package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/service"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
)

type voteService interface {
	Cast(ctx context.Context, req dto.CastVoteRequest) (*models.Vote, *models.Vote, error)
	Status(ctx context.Context, studentID string) (*models.Vote, error)
	Statistics(ctx context.Context) (*models.VoteStatistics, error)
	ExportStatistics(ctx context.Context, format string) ([]byte, string, string, error)
}

// VoteHandler exposes the vote ledger endpoints.
type VoteHandler struct {
	service       voteService
	metrics       *service.MetricsService
	exportEnabled bool
}

// NewVoteHandler builds a new handler.
func NewVoteHandler(svc voteService, metrics *service.MetricsService, exportEnabled bool) *VoteHandler {
	return &VoteHandler{service: svc, metrics: metrics, exportEnabled: exportEnabled}
}

// Cast godoc
// @Summary Cast the student's one-time vote for a package
// @Tags Votes
// @Accept json
// @Produce json
// @Param payload body dto.CastVoteRequest true "Vote payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Student has already voted"
// @Router /votes [post]
func (h *VoteHandler) Cast(c *gin.Context) {
	var req dto.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid vote payload"))
		return
	}
	if req.StudentID == "" {
		req.StudentID = actorID(c)
	}
	vote, existing, err := h.service.Cast(c.Request.Context(), req)
	if err != nil {
		if existing != nil {
			h.metrics.CountVoteCast(service.MetricOutcomeConflict)
			response.ErrorWithMeta(c, err, map[string]interface{}{"existing": existing})
			return
		}
		h.metrics.CountVoteCast(service.MetricOutcomeRejected)
		response.Error(c, err)
		return
	}
	h.metrics.CountVoteCast(service.MetricOutcomeAccepted)
	response.Created(c, vote)
}

// Status godoc
// @Summary Check whether a student has voted
// @Tags Votes
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /votes/{studentId} [get]
func (h *VoteHandler) Status(c *gin.Context) {
	vote, err := h.service.Status(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"voted": vote != nil, "vote": vote}, nil)
}

// Statistics godoc
// @Summary Voting turnout statistics
// @Tags Votes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /votes-details [get]
func (h *VoteHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export the voter roll as CSV or PDF
// @Tags Votes
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /votes-details/export [get]
func (h *VoteHandler) Export(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "vote export is disabled"))
		return
	}
	payload, contentType, filename, err := h.service.ExportStatistics(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, payload)
}
