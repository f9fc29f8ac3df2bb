package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/export"
)

const cacheKeyVoteStats = "votes:stats"

type voteStore interface {
	FindByStudent(ctx context.Context, studentID string) (*models.Vote, error)
	Cast(ctx context.Context, vote *models.Vote) error
	ListVotedUsers(ctx context.Context) ([]models.VotedUser, error)
}

type voteUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type voteCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// VoteService enforces the one-vote-per-student rule and serves the turnout
// dashboard. The ledger itself lives in the store; percentages are rebalanced
// there on every cast.
type VoteService struct {
	store     voteStore
	users     voteUserReader
	cache     voteCache
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	statsTTL  time.Duration
}

// NewVoteService builds a VoteService.
func NewVoteService(store voteStore, users voteUserReader, cache voteCache, validate *validator.Validate, logger *zap.Logger, statsTTL time.Duration) *VoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteService{
		store:     store,
		users:     users,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		statsTTL:  statsTTL,
	}
}

// Cast records a student's vote. When the student has already voted, the
// prior vote is returned alongside the conflict error so the handler can show
// which package won the student's only ballot.
func (s *VoteService) Cast(ctx context.Context, req dto.CastVoteRequest) (*models.Vote, *models.Vote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vote payload")
	}

	user, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only students may vote")
	}

	vote := &models.Vote{StudentID: req.StudentID, PackageID: req.PackageID}
	if err := s.store.Cast(ctx, vote); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			existing, lookupErr := s.store.FindByStudent(ctx, req.StudentID)
			if lookupErr != nil {
				s.logger.Warn("failed to load existing vote after duplicate", zap.Error(lookupErr))
			}
			return nil, existing, appErrors.ErrAlreadyVoted
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		default:
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cast vote")
		}
	}

	s.invalidateStats(ctx)
	return vote, nil, nil
}

// Status reports whether a student has voted and for which package.
func (s *VoteService) Status(ctx context.Context, studentID string) (*models.Vote, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	vote, err := s.store.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vote")
	}
	return vote, nil
}

// Statistics aggregates turnout for the dashboard. Results are cached for a
// short window since every cast invalidates them anyway.
func (s *VoteService) Statistics(ctx context.Context) (*models.VoteStatistics, error) {
	if s.cache != nil {
		var cached models.VoteStatistics
		if err := s.cache.Get(ctx, cacheKeyVoteStats, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("vote stats cache read failed", zap.Error(err))
		}
	}

	voted, err := s.store.ListVotedUsers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load voters")
	}
	totalStudents, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	stats := &models.VoteStatistics{
		VotedUsers:    voted,
		TotalStudents: totalStudents,
	}
	for _, v := range voted {
		switch strings.ToUpper(v.Gender) {
		case "MALE", "M":
			stats.MaleCount++
		case "FEMALE", "F":
			stats.FemaleCount++
		}
	}
	if total := len(voted); total > 0 {
		stats.MalePercentage = float64(stats.MaleCount) * 100 / float64(total)
		stats.FemalePercentage = float64(stats.FemaleCount) * 100 / float64(total)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyVoteStats, stats, s.statsTTL); err != nil {
			s.logger.Warn("vote stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// ExportStatistics renders the voter roll as a downloadable document.
// Supported formats are "csv" and "pdf".
func (s *VoteService) ExportStatistics(ctx context.Context, format string) ([]byte, string, string, error) {
	stats, err := s.Statistics(ctx)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Name", "Gender", "Package", "Voted At"},
	}
	for _, v := range stats.VotedUsers {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID": v.StudentID,
			"Name":       v.FullName,
			"Gender":     v.Gender,
			"Package":    v.PackageID,
			"Voted At":   v.VotedAt.Format(time.RFC3339),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", fmt.Sprintf("vote-statistics-%s.csv", stamp), nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Vote Statistics")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", fmt.Sprintf("vote-statistics-%s.pdf", stamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *VoteService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyVoteStats); err != nil {
		s.logger.Warn("failed to invalidate vote stats cache", zap.Error(err))
	}
}
