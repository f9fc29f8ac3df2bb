package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
)

type stubRequestStore struct {
	outstandingFn  func(ctx context.Context, userID string) (*models.VisitRequest, error)
	createFn       func(ctx context.Context, req *models.VisitRequest) (*models.VisitRequest, error)
	listFn         func(ctx context.Context) ([]models.VisitRequest, error)
	listByUserFn   func(ctx context.Context, userID string) ([]models.VisitRequest, error)
	getFn          func(ctx context.Context, id string) (*models.VisitRequest, error)
	updateStatusFn func(ctx context.Context, id string, status models.RequestStatus) error
	deleteFn       func(ctx context.Context, id string) error
}

func (s *stubRequestStore) FindOutstanding(ctx context.Context, userID string) (*models.VisitRequest, error) {
	if s.outstandingFn == nil {
		return nil, nil
	}
	return s.outstandingFn(ctx, userID)
}

func (s *stubRequestStore) Create(ctx context.Context, req *models.VisitRequest) (*models.VisitRequest, error) {
	if s.createFn == nil {
		return nil, nil
	}
	return s.createFn(ctx, req)
}

func (s *stubRequestStore) List(ctx context.Context) ([]models.VisitRequest, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s *stubRequestStore) ListByUser(ctx context.Context, userID string) ([]models.VisitRequest, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s *stubRequestStore) GetByID(ctx context.Context, id string) (*models.VisitRequest, error) {
	if s.getFn == nil {
		return &models.VisitRequest{ID: id, Status: models.RequestPending}, nil
	}
	return s.getFn(ctx, id)
}

func (s *stubRequestStore) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	if s.updateStatusFn == nil {
		return nil
	}
	return s.updateStatusFn(ctx, id, status)
}

func (s *stubRequestStore) Delete(ctx context.Context, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}

type stubAuditWriter struct {
	entries []*models.AuditLog
}

func (s *stubAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.entries = append(s.entries, log)
	return nil
}

func validSubmitRequest() dto.SubmitVisitRequest {
	return dto.SubmitVisitRequest{
		UserID:            "user-1",
		Role:              "STUDENT",
		FullName:          "Asha Verma",
		Email:             "asha@example.com",
		Phone:             "9999999999",
		Industry:          "Acme Motors",
		Date:              "2026-09-15",
		StudentsCount:     "40",
		Faculty:           "Mechanical",
		Transport:         "Bus",
		PackageDetails:    "Plant tour",
		Activity:          "Assembly line walkthrough",
		Duration:          "1 day",
		Distance:          "120.5",
		TicketCost:        "250",
		DriverPhoneNumber: "8888888888",
		Checklist:         "helmets,id-cards",
	}
}

func TestRequestServiceSubmitCoercesFields(t *testing.T) {
	var inserted *models.VisitRequest
	store := &stubRequestStore{createFn: func(ctx context.Context, req *models.VisitRequest) (*models.VisitRequest, error) {
		inserted = req
		return nil, nil
	}}
	svc := NewRequestService(store, nil, nil, zap.NewNop())

	created, existing, err := svc.Submit(context.Background(), validSubmitRequest())
	require.NoError(t, err)
	assert.Nil(t, existing)
	require.NotNil(t, created)
	require.NotNil(t, inserted)
	assert.Equal(t, 40, inserted.StudentsCount)
	assert.InDelta(t, 120.5, inserted.Distance, 0.001)
	assert.InDelta(t, 250.0, inserted.TicketCost, 0.001)
	assert.Equal(t, 2026, inserted.VisitDate.Year())
	assert.Equal(t, "Not specified", inserted.StudentRep)
}

func TestRequestServiceSubmitBlockedReturnsExisting(t *testing.T) {
	outstanding := &models.VisitRequest{ID: "req-1", UserID: "user-1", Status: models.RequestPending}
	store := &stubRequestStore{createFn: func(ctx context.Context, req *models.VisitRequest) (*models.VisitRequest, error) {
		return outstanding, repository.ErrOutstandingRequest
	}}
	svc := NewRequestService(store, nil, nil, zap.NewNop())

	created, existing, err := svc.Submit(context.Background(), validSubmitRequest())
	require.Error(t, err)
	assert.Nil(t, created)
	require.NotNil(t, existing)
	assert.Equal(t, "req-1", existing.ID)
	assert.Equal(t, appErrors.ErrRequestOutstanding.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceSubmitRejectsBadNumbers(t *testing.T) {
	svc := NewRequestService(&stubRequestStore{}, nil, nil, zap.NewNop())

	req := validSubmitRequest()
	req.StudentsCount = "zero"
	_, _, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validSubmitRequest()
	req.StudentsCount = "-5"
	_, _, err = svc.Submit(context.Background(), req)
	require.Error(t, err)

	req = validSubmitRequest()
	req.Distance = "-1"
	_, _, err = svc.Submit(context.Background(), req)
	require.Error(t, err)
}

func TestRequestServiceSubmitAcceptsRFC3339Date(t *testing.T) {
	store := &stubRequestStore{createFn: func(ctx context.Context, req *models.VisitRequest) (*models.VisitRequest, error) {
		return nil, nil
	}}
	svc := NewRequestService(store, nil, nil, zap.NewNop())

	req := validSubmitRequest()
	req.Date = "2026-09-15T09:30:00Z"
	created, _, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 9, int(created.VisitDate.Month()))
}

func TestRequestServiceCheckExisting(t *testing.T) {
	store := &stubRequestStore{outstandingFn: func(ctx context.Context, userID string) (*models.VisitRequest, error) {
		return &models.VisitRequest{ID: "req-1", Status: models.RequestApproved}, nil
	}}
	svc := NewRequestService(store, nil, nil, zap.NewNop())

	resp, err := svc.CheckExisting(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, resp.Exists)
	require.NotNil(t, resp.Request)
	assert.Equal(t, models.RequestApproved, resp.Request.Status)
}

func TestRequestServiceSetStatusAuditsChange(t *testing.T) {
	audit := &stubAuditWriter{}
	svc := NewRequestService(&stubRequestStore{}, audit, nil, zap.NewNop())

	updated, err := svc.SetStatus(context.Background(), "req-1", "approved", "hod-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, updated.Status)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionRequestStatusUpdate, audit.entries[0].Action)
}

func TestRequestServiceSetStatusRejectsUnknown(t *testing.T) {
	svc := NewRequestService(&stubRequestStore{}, nil, nil, zap.NewNop())

	_, err := svc.SetStatus(context.Background(), "req-1", "SHELVED", "hod-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceRemoveMissing(t *testing.T) {
	store := &stubRequestStore{deleteFn: func(ctx context.Context, id string) error {
		return sql.ErrNoRows
	}}
	svc := NewRequestService(store, nil, nil, zap.NewNop())

	err := svc.Remove(context.Background(), "ghost", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
