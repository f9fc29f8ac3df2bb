package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
)

// defaultStudentRep is stored when the form leaves the representative blank.
const defaultStudentRep = "Not specified"

type requestStore interface {
	FindOutstanding(ctx context.Context, userID string) (*models.VisitRequest, error)
	Create(ctx context.Context, req *models.VisitRequest) (*models.VisitRequest, error)
	List(ctx context.Context) ([]models.VisitRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.VisitRequest, error)
	GetByID(ctx context.Context, id string) (*models.VisitRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	Delete(ctx context.Context, id string) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RequestService is the admission gate for visit requests: one outstanding
// (pending or approved) request per submitter. The store serializes the
// check-and-insert, so two concurrent submissions cannot both pass.
type RequestService struct {
	store     requestStore
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService builds a RequestService.
func NewRequestService(store requestStore, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{store: store, audit: audit, validator: validate, logger: logger}
}

// CheckExisting reports whether the submitter has an outstanding request.
// The mobile client calls this before rendering the submission form.
func (s *RequestService) CheckExisting(ctx context.Context, userID string) (*dto.CheckRequestResponse, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	existing, err := s.store.FindOutstanding(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check requests")
	}
	return &dto.CheckRequestResponse{Exists: existing != nil, Request: existing}, nil
}

// Submit coerces the form payload and inserts a pending request. When the
// submitter already has an outstanding one, it is returned alongside the
// conflict error.
func (s *RequestService) Submit(ctx context.Context, req dto.SubmitVisitRequest) (*models.VisitRequest, *models.VisitRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	record, err := s.coerce(req)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.store.Create(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrOutstandingRequest) {
			if existing == nil {
				// Blocked by the partial unique index rather than the lock;
				// fetch the winner for the conflict payload.
				existing, err = s.store.FindOutstanding(ctx, req.UserID)
				if err != nil {
					s.logger.Warn("failed to load outstanding request after conflict", zap.Error(err))
				}
			}
			return nil, existing, appErrors.ErrRequestOutstanding
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit request")
	}

	return record, nil, nil
}

// List returns the full review queue for approvers.
func (s *RequestService) List(ctx context.Context) ([]models.VisitRequest, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if items == nil {
		items = []models.VisitRequest{}
	}
	return items, nil
}

// ListByUser returns the submitter's own history.
func (s *RequestService) ListByUser(ctx context.Context, userID string) ([]models.VisitRequest, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if items == nil {
		items = []models.VisitRequest{}
	}
	return items, nil
}

// SetStatus transitions a request and records the change in the audit trail.
// Any of the three states may be set from any other; the review board
// occasionally reverses its own decisions.
func (s *RequestService) SetStatus(ctx context.Context, id string, status models.RequestStatus, actorID string) (*models.VisitRequest, error) {
	status = models.RequestStatus(strings.ToUpper(string(status)))
	if !models.ValidRequestStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.writeAudit(ctx, actorID, models.AuditActionRequestStatusUpdate, id,
		map[string]any{"status": current.Status},
		map[string]any{"status": status},
	)

	current.Status = status
	return current, nil
}

// Remove deletes a request outright (admin housekeeping).
func (s *RequestService) Remove(ctx context.Context, id, actorID string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.writeAudit(ctx, actorID, models.AuditActionRequestDelete, id, nil, nil)
	return nil
}

func (s *RequestService) coerce(req dto.SubmitVisitRequest) (*models.VisitRequest, error) {
	studentsCount, err := strconv.Atoi(strings.TrimSpace(req.StudentsCount))
	if err != nil || studentsCount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentsCount must be a positive whole number")
	}
	distance, err := strconv.ParseFloat(strings.TrimSpace(req.Distance), 64)
	if err != nil || distance < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "distance must be a non-negative number")
	}
	ticketCost, err := strconv.ParseFloat(strings.TrimSpace(req.TicketCost), 64)
	if err != nil || ticketCost < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ticketCost must be a non-negative number")
	}
	visitDate, err := parseVisitDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be RFC3339 or YYYY-MM-DD")
	}

	studentRep := strings.TrimSpace(req.StudentRep)
	if studentRep == "" {
		studentRep = defaultStudentRep
	}

	return &models.VisitRequest{
		UserID:            req.UserID,
		Role:              req.Role,
		FullName:          req.FullName,
		Email:             req.Email,
		Phone:             req.Phone,
		Industry:          req.Industry,
		VisitDate:         visitDate,
		StudentsCount:     studentsCount,
		Faculty:           req.Faculty,
		Transport:         req.Transport,
		PackageDetails:    req.PackageDetails,
		Activity:          req.Activity,
		Duration:          req.Duration,
		Distance:          distance,
		TicketCost:        ticketCost,
		DriverPhoneNumber: req.DriverPhoneNumber,
		Checklist:         req.Checklist,
		StudentRep:        studentRep,
	}, nil
}

func parseVisitDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *RequestService) writeAudit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "visit_request",
		ResourceID: &resourceID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if oldValues != nil {
		if payload, err := json.Marshal(oldValues); err == nil {
			entry.OldValues = payload
		}
	}
	if newValues != nil {
		if payload, err := json.Marshal(newValues); err == nil {
			entry.NewValues = payload
		}
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
