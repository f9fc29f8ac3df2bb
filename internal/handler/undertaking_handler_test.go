package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/service"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
	"github.com/noah-isme/ivms-api/pkg/storage"
)

type undertakingServiceMock struct {
	submitResp     *dto.UndertakingResponse
	submitExisting *models.Undertaking
	submitErr      error
	getResp        *dto.UndertakingResponse
	getErr         error
	updateResp     *dto.UndertakingResponse
	updateErr      error
	removeResp     *dto.UndertakingDeleteResult
	removeErr      error
	lastRef        models.UndertakingRef
	sawStudentSig  bool
}

func (m *undertakingServiceMock) Submit(ctx context.Context, req dto.SubmitUndertakingRequest, studentSig, parentSig *service.FileUpload) (*dto.UndertakingResponse, *models.Undertaking, error) {
	m.sawStudentSig = studentSig != nil
	return m.submitResp, m.submitExisting, m.submitErr
}

func (m *undertakingServiceMock) Get(ctx context.Context, ref models.UndertakingRef) (*dto.UndertakingResponse, error) {
	m.lastRef = ref
	return m.getResp, m.getErr
}

func (m *undertakingServiceMock) Update(ctx context.Context, ref models.UndertakingRef, req dto.UpdateUndertakingRequest, studentSig, parentSig *service.FileUpload) (*dto.UndertakingResponse, error) {
	m.lastRef = ref
	return m.updateResp, m.updateErr
}

func (m *undertakingServiceMock) Remove(ctx context.Context, ref models.UndertakingRef, actorID string) (*dto.UndertakingDeleteResult, error) {
	m.lastRef = ref
	return m.removeResp, m.removeErr
}

func multipartUndertaking(t *testing.T, withSignature bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"userId": "user-1", "studentId": "stu-1", "semester": "VI",
		"branch": "CSE", "rollNo": "42", "parentName": "R. Verma",
		"placesVisited": "Acme Motors", "tourPeriod": "2026-03-01 to 2026-03-03",
		"facultyDetails": "Prof. Iyer",
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if withSignature {
		part, err := writer.CreateFormFile("studentSignature", "student.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUndertakingHandlerSubmitCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &undertakingServiceMock{submitResp: &dto.UndertakingResponse{Undertaking: models.Undertaking{ID: "ut-1"}}}
	handler := NewUndertakingHandler(mockSvc, nil, nil, nil, UploadPolicy{})

	body, contentType := multipartUndertaking(t, true)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/undertakings", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.sawStudentSig)
}

func TestUndertakingHandlerSubmitConflictCarriesExisting(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &undertakingServiceMock{
		submitExisting: &models.Undertaking{ID: "ut-prior", Semester: "VI"},
		submitErr:      appErrors.Clone(appErrors.ErrConflict, "an undertaking for semester VI was already filed on 2026-02-10"),
	}
	handler := NewUndertakingHandler(mockSvc, nil, nil, nil, UploadPolicy{})

	body, contentType := multipartUndertaking(t, false)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/undertakings", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Message, "semester VI")
	require.Contains(t, envelope.Meta, "existing")
}

func TestUndertakingHandlerSubmitRejectsOversizedFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUndertakingHandler(&undertakingServiceMock{}, nil, nil, nil, UploadPolicy{MaxFileSizeBytes: 2})

	body, contentType := multipartUndertaking(t, true)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/undertakings", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUndertakingHandlerGetByApplicant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &undertakingServiceMock{getResp: &dto.UndertakingResponse{Undertaking: models.Undertaking{ID: "ut-1"}}}
	handler := NewUndertakingHandler(mockSvc, nil, nil, nil, UploadPolicy{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/undertakings/user-1?by=user", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "user-1"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.UndertakingByApplicant, mockSvc.lastRef.Kind)
}

func TestUndertakingHandlerUpdateByApplicant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &undertakingServiceMock{updateResp: &dto.UndertakingResponse{Undertaking: models.Undertaking{ID: "ut-1"}}}
	handler := NewUndertakingHandler(mockSvc, nil, nil, nil, UploadPolicy{})

	body, contentType := multipartUndertaking(t, false)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/undertakings/user-1?by=user", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "user-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.UndertakingByApplicant, mockSvc.lastRef.Kind)
	assert.Equal(t, "user-1", mockSvc.lastRef.ID)
}

func TestUndertakingHandlerDeleteByApplicant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &undertakingServiceMock{removeResp: &dto.UndertakingDeleteResult{}}
	handler := NewUndertakingHandler(mockSvc, nil, nil, nil, UploadPolicy{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/undertakings/user-1?by=user", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "user-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.UndertakingByApplicant, mockSvc.lastRef.Kind)
	assert.Equal(t, "user-1", mockSvc.lastRef.ID)
}

func TestUndertakingHandlerDownloadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewUploadStore(t.TempDir())
	require.NoError(t, err)
	rel, err := store.SaveStream("signatures", "student.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	token, _, err := signer.Generate("ut-1", rel)
	require.NoError(t, err)

	handler := NewUndertakingHandler(&undertakingServiceMock{}, store, signer, nil, UploadPolicy{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/undertakings/ut-1/signature?token="+token, nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ut-1"}}

	handler.DownloadSignature(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
}

func TestUndertakingHandlerDownloadSignatureWrongRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	token, _, err := signer.Generate("ut-other", "signatures/student.png")
	require.NoError(t, err)

	handler := NewUndertakingHandler(&undertakingServiceMock{}, nil, signer, nil, UploadPolicy{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/undertakings/ut-1/signature?token="+token, nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ut-1"}}

	handler.DownloadSignature(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
