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
	"github.com/noah-isme/ivms-api/internal/models"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
)

type voteServiceMock struct {
	castVote     *models.Vote
	castExisting *models.Vote
	castErr      error
	statusVote   *models.Vote
	statsResp    *models.VoteStatistics
	statsErr     error
	exportBytes  []byte
	exportErr    error
}

func (m *voteServiceMock) Cast(ctx context.Context, req dto.CastVoteRequest) (*models.Vote, *models.Vote, error) {
	return m.castVote, m.castExisting, m.castErr
}

func (m *voteServiceMock) Status(ctx context.Context, studentID string) (*models.Vote, error) {
	return m.statusVote, nil
}

func (m *voteServiceMock) Statistics(ctx context.Context) (*models.VoteStatistics, error) {
	return m.statsResp, m.statsErr
}

func (m *voteServiceMock) ExportStatistics(ctx context.Context, format string) ([]byte, string, string, error) {
	if m.exportErr != nil {
		return nil, "", "", m.exportErr
	}
	return m.exportBytes, "text/csv", "votes.csv", nil
}

func TestVoteHandlerCastCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &voteServiceMock{castVote: &models.Vote{ID: "vote-1", PackageID: "pkg-1"}}
	handler := NewVoteHandler(mockSvc, nil, true)

	payload, _ := json.Marshal(dto.CastVoteRequest{StudentID: "stu-1", PackageID: "pkg-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/votes", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Cast(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestVoteHandlerCastConflictCarriesExisting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &voteServiceMock{
		castExisting: &models.Vote{ID: "vote-prior", PackageID: "pkg-2"},
		castErr:      appErrors.ErrAlreadyVoted,
	}
	handler := NewVoteHandler(mockSvc, nil, true)

	payload, _ := json.Marshal(dto.CastVoteRequest{StudentID: "stu-1", PackageID: "pkg-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/votes", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Cast(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ALREADY_VOTED", envelope.Error.Code)
	require.Contains(t, envelope.Meta, "existing")
}

func TestVoteHandlerStatusReportsNotVoted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVoteHandler(&voteServiceMock{}, nil, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/votes/stu-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "studentId", Value: "stu-1"}}

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"voted":false`)
}

func TestVoteHandlerExportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVoteHandler(&voteServiceMock{exportBytes: []byte("a,b\n")}, nil, false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/votes-details/export", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestVoteHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewVoteHandler(&voteServiceMock{exportBytes: []byte("a,b\n")}, nil, true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/votes-details/export?format=csv", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "votes.csv")
}
