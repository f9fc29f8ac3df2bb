package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/storage"
)

const signatureSubdir = "signatures"

// FileUpload is an incoming multipart file handed down from the handler.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

type undertakingStore interface {
	FindExisting(ctx context.Context, userID, studentID, semester string) (*models.Undertaking, error)
	Create(ctx context.Context, u *models.Undertaking) error
	Get(ctx context.Context, ref models.UndertakingRef) (*models.Undertaking, error)
	Update(ctx context.Context, u *models.Undertaking) error
	Delete(ctx context.Context, id string) error
}

type uploadStore interface {
	SaveStream(subdir, originalName string, r io.Reader) (string, error)
	Remove(relPath string) storage.CleanupOutcome
}

// UndertakingService is the uniqueness gate for declaration forms: one per
// (applicant, student, semester). The record store is authoritative; stored
// signature files are compensated best-effort and orphans are reported, never
// escalated into request failures.
type UndertakingService struct {
	store     undertakingStore
	files     uploadStore
	signer    *storage.SignedURLSigner
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUndertakingService builds an UndertakingService.
func NewUndertakingService(store undertakingStore, files uploadStore, signer *storage.SignedURLSigner, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *UndertakingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UndertakingService{
		store:     store,
		files:     files,
		signer:    signer,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Submit files a new undertaking with optional signature scans. When one
// already exists for the same applicant, student and semester, the existing
// record is returned alongside the conflict error.
func (s *UndertakingService) Submit(ctx context.Context, req dto.SubmitUndertakingRequest, studentSig, parentSig *FileUpload) (*dto.UndertakingResponse, *models.Undertaking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid undertaking payload")
	}

	existing, err := s.store.FindExisting(ctx, req.UserID, req.StudentID, req.Semester)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing undertaking")
	}
	if existing != nil {
		return nil, existing, s.conflictError(existing)
	}

	record := &models.Undertaking{
		UserID:         req.UserID,
		StudentID:      req.StudentID,
		Semester:       req.Semester,
		Branch:         req.Branch,
		RollNo:         req.RollNo,
		ParentName:     req.ParentName,
		PlacesVisited:  req.PlacesVisited,
		TourPeriod:     req.TourPeriod,
		FacultyDetails: req.FacultyDetails,
	}

	saved, err := s.saveSignatures(record, studentSig, parentSig)
	if err != nil {
		s.removeFiles(saved)
		return nil, nil, err
	}

	if err := s.store.Create(ctx, record); err != nil {
		s.removeFiles(saved)
		if errors.Is(err, repository.ErrDuplicateKey) {
			winner, lookupErr := s.store.FindExisting(ctx, req.UserID, req.StudentID, req.Semester)
			if lookupErr != nil {
				s.logger.Warn("failed to load existing undertaking after duplicate", zap.Error(lookupErr))
			}
			return nil, winner, s.conflictError(winner)
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save undertaking")
	}

	return s.decorate(record), nil, nil
}

// Get resolves a tagged reference and returns the record with signed
// signature links.
func (s *UndertakingService) Get(ctx context.Context, ref models.UndertakingRef) (*dto.UndertakingResponse, error) {
	record, err := s.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "undertaking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load undertaking")
	}
	return s.decorate(record), nil
}

// Update patches fields and optionally replaces signature scans. The record
// is resolved through the same tagged reference as Get, so callers holding
// only the applicant id can still update. Replaced files are removed
// best-effort after the record commits.
func (s *UndertakingService) Update(ctx context.Context, ref models.UndertakingRef, req dto.UpdateUndertakingRequest, studentSig, parentSig *FileUpload) (*dto.UndertakingResponse, error) {
	record, err := s.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "undertaking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load undertaking")
	}

	applyPatch(&record.Semester, req.Semester)
	applyPatch(&record.Branch, req.Branch)
	applyPatch(&record.RollNo, req.RollNo)
	applyPatch(&record.ParentName, req.ParentName)
	applyPatch(&record.PlacesVisited, req.PlacesVisited)
	applyPatch(&record.TourPeriod, req.TourPeriod)
	applyPatch(&record.FacultyDetails, req.FacultyDetails)

	oldStudent := record.StudentSignaturePath
	oldParent := record.ParentSignaturePath
	saved, err := s.saveSignatures(record, studentSig, parentSig)
	if err != nil {
		s.removeFiles(saved)
		return nil, err
	}

	if err := s.store.Update(ctx, record); err != nil {
		s.removeFiles(saved)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "undertaking not found")
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, appErrors.Clone(appErrors.ErrConflict, "an undertaking already exists for that semester")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update undertaking")
		}
	}

	// Record committed; retire replaced scans.
	if studentSig != nil && oldStudent != nil {
		s.warnOnFailure(s.files.Remove(*oldStudent))
	}
	if parentSig != nil && oldParent != nil {
		s.warnOnFailure(s.files.Remove(*oldParent))
	}

	return s.decorate(record), nil
}

// Remove resolves the tagged reference, deletes the record first, then sweeps
// its signature files. Each file's fate is reported explicitly; a failed
// removal leaves an orphan on disk but never resurrects the record.
func (s *UndertakingService) Remove(ctx context.Context, ref models.UndertakingRef, actorID string) (*dto.UndertakingDeleteResult, error) {
	record, err := s.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "undertaking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load undertaking")
	}

	if err := s.store.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "undertaking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete undertaking")
	}

	result := &dto.UndertakingDeleteResult{
		DeletedFiles: []string{},
		Warnings:     []string{},
		Errors:       []string{},
	}
	for _, path := range []*string{record.StudentSignaturePath, record.ParentSignaturePath} {
		if path == nil {
			continue
		}
		outcome := s.files.Remove(*path)
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Status {
		case storage.CleanupDeleted:
			result.DeletedFiles = append(result.DeletedFiles, outcome.File)
		case storage.CleanupNotFound:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s was already gone", outcome.File))
		case storage.CleanupFailed:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", outcome.File, outcome.Reason))
			s.logger.Warn("signature cleanup failed",
				zap.String("undertaking_id", record.ID),
				zap.String("file", outcome.File),
				zap.String("reason", outcome.Reason))
		}
	}

	if s.audit != nil {
		resourceID := record.ID
		entry := &models.AuditLog{
			Action:     models.AuditActionUndertakingDelete,
			Resource:   "undertaking",
			ResourceID: &resourceID,
		}
		if actorID != "" {
			entry.UserID = &actorID
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}

	return result, nil
}

func (s *UndertakingService) conflictError(existing *models.Undertaking) *appErrors.Error {
	if existing == nil {
		return appErrors.Clone(appErrors.ErrConflict, "an undertaking already exists for this student and semester")
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("an undertaking for semester %s was already filed on %s",
			existing.Semester, existing.CreatedAt.Format("2006-01-02")))
}

func (s *UndertakingService) saveSignatures(record *models.Undertaking, studentSig, parentSig *FileUpload) ([]string, error) {
	var saved []string
	if studentSig != nil {
		rel, err := s.files.SaveStream(signatureSubdir, studentSig.Name, studentSig.Reader)
		if err != nil {
			return saved, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store student signature")
		}
		saved = append(saved, rel)
		record.StudentSignaturePath = &rel
	}
	if parentSig != nil {
		rel, err := s.files.SaveStream(signatureSubdir, parentSig.Name, parentSig.Reader)
		if err != nil {
			return saved, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store parent signature")
		}
		saved = append(saved, rel)
		record.ParentSignaturePath = &rel
	}
	return saved, nil
}

func (s *UndertakingService) removeFiles(paths []string) {
	for _, path := range paths {
		s.warnOnFailure(s.files.Remove(path))
	}
}

func (s *UndertakingService) warnOnFailure(outcome storage.CleanupOutcome) {
	if outcome.Status == storage.CleanupFailed {
		s.logger.Warn("file cleanup failed",
			zap.String("file", outcome.File),
			zap.String("reason", outcome.Reason))
	}
}

func (s *UndertakingService) decorate(record *models.Undertaking) *dto.UndertakingResponse {
	resp := &dto.UndertakingResponse{Undertaking: *record}
	if s.signer == nil {
		return resp
	}
	if record.StudentSignaturePath != nil {
		token, expires, err := s.signer.Generate(record.ID, *record.StudentSignaturePath)
		if err == nil {
			resp.StudentSignatureURL = token
			resp.SignedURLExpiresAt = &expires
		} else {
			s.logger.Warn("failed to sign student signature url", zap.Error(err))
		}
	}
	if record.ParentSignaturePath != nil {
		token, expires, err := s.signer.Generate(record.ID, *record.ParentSignaturePath)
		if err == nil {
			resp.ParentSignatureURL = token
			if resp.SignedURLExpiresAt == nil {
				resp.SignedURLExpiresAt = &expires
			}
		} else {
			s.logger.Warn("failed to sign parent signature url", zap.Error(err))
		}
	}
	return resp
}

func applyPatch(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
