package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/middleware"
	"github.com/noah-isme/ivms-api/internal/models"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
)

type reviewServiceMock struct {
	addCreated  *models.Review
	addExisting *models.Review
	addErr      error
	updateResp  *models.PackageDetail
	updateErr   error
	deleteResp  *models.PackageDetail
	deleteErr   error
	lastReq     dto.AddFeedbackRequest
	addCalled   bool
}

func (m *reviewServiceMock) Add(ctx context.Context, packageID string, req dto.AddFeedbackRequest) (*models.Review, *models.Review, error) {
	m.addCalled = true
	m.lastReq = req
	return m.addCreated, m.addExisting, m.addErr
}

func (m *reviewServiceMock) Update(ctx context.Context, packageID, reviewID string, req dto.UpdateFeedbackRequest) (*models.PackageDetail, error) {
	return m.updateResp, m.updateErr
}

func (m *reviewServiceMock) Delete(ctx context.Context, packageID, reviewID, userID string) (*models.PackageDetail, error) {
	return m.deleteResp, m.deleteErr
}

func TestFeedbackHandlerAddCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{addCreated: &models.Review{ID: "rev-1"}}
	handler := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(dto.AddFeedbackRequest{UserID: "user-1", Rating: 4})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/packages/pkg-1/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pkg-1"}}

	handler.Add(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.addCalled)
}

func TestFeedbackHandlerAddConflictCarriesExisting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{
		addExisting: &models.Review{ID: "rev-prior", Rating: 5},
		addErr:      appErrors.ErrDuplicateReview,
	}
	handler := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(dto.AddFeedbackRequest{UserID: "user-1", Rating: 3})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/packages/pkg-1/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pkg-1"}}

	handler.Add(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE_REVIEW", envelope.Error.Code)
	require.Contains(t, envelope.Meta, "existing")
}

func TestFeedbackHandlerAddFallsBackToClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{addCreated: &models.Review{ID: "rev-1"}}
	handler := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(dto.AddFeedbackRequest{Rating: 4})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/packages/pkg-1/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pkg-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-7", Role: models.RoleStudent})

	handler.Add(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-7", mockSvc.lastReq.UserID)
}

func TestFeedbackHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reviewServiceMock{updateErr: appErrors.Clone(appErrors.ErrNotFound, "review not found")}
	handler := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(dto.UpdateFeedbackRequest{UserID: "user-1", Rating: 2})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/packages/pkg-1/feedback/rev-1", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pkg-1"}, {Key: "reviewId", Value: "rev-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackHandlerDeleteRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeedbackHandler(&reviewServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/packages/pkg-1/feedback/rev-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pkg-1"}, {Key: "reviewId", Value: "rev-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
