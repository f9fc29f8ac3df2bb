package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/repository"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
)

type reviewStore interface {
	FindByUser(ctx context.Context, packageID, userID string) (*models.Review, error)
	Add(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, packageID, reviewID, userID string, rating int, comment *string, fullName string) error
	Delete(ctx context.Context, packageID, reviewID, userID string) error
	RefreshSnapshots(ctx context.Context, userID, fullName string, profileImage *string) error
}

type reviewPackageReader interface {
	GetByID(ctx context.Context, id string) (*models.Package, error)
	ListReviews(ctx context.Context, packageID string) ([]models.Review, error)
}

type reviewUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type packageCacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// ReviewService is the review aggregator: it owns feedback submission and
// keeps the package rating equal to the mean of its reviews. The store
// recomputes the mean inside each mutating transaction.
type ReviewService struct {
	store     reviewStore
	packages  reviewPackageReader
	users     reviewUserReader
	cache     packageCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	baseURL   string
}

// NewReviewService builds a ReviewService with sane defaults.
func NewReviewService(store reviewStore, packages reviewPackageReader, users reviewUserReader, cache packageCacheInvalidator, validate *validator.Validate, logger *zap.Logger, baseURL string) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		store:     store,
		packages:  packages,
		users:     users,
		cache:     cache,
		validator: validate,
		logger:    logger,
		baseURL:   baseURL,
	}
}

// Add posts a new review. When the user already reviewed the package it
// returns the existing review alongside a conflict error so the handler can
// surface it as context.
func (s *ReviewService) Add(ctx context.Context, packageID string, req dto.AddFeedbackRequest) (*models.Review, *models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	existing, err := s.store.FindByUser(ctx, packageID, req.UserID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}
	if existing != nil {
		formatReview(s.baseURL, existing)
		return nil, existing, appErrors.ErrDuplicateReview
	}

	fullName := req.Name
	if fullName == "" {
		fullName = user.FullName
	}
	review := &models.Review{
		PackageID:    packageID,
		UserID:       req.UserID,
		FullName:     fullName,
		ProfileImage: user.ProfileImage,
		Rating:       req.Rating,
		Comment:      req.Comment,
	}

	if err := s.store.Add(ctx, review); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		case errors.Is(err, repository.ErrDuplicateKey):
			// Lost the race against a concurrent submission from the same
			// user; fetch the winner for the conflict payload.
			existing, lookupErr := s.store.FindByUser(ctx, packageID, req.UserID)
			if lookupErr != nil {
				s.logger.Warn("failed to load winning review after duplicate", zap.Error(lookupErr))
			}
			if existing != nil {
				formatReview(s.baseURL, existing)
			}
			return nil, existing, appErrors.ErrDuplicateReview
		default:
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
		}
	}

	// Older reviews by the same user keep showing the stale snapshot
	// otherwise.
	if err := s.store.RefreshSnapshots(ctx, req.UserID, fullName, user.ProfileImage); err != nil {
		s.logger.Warn("failed to refresh review snapshots", zap.Error(err))
	}

	s.invalidatePackages(ctx)
	formatReview(s.baseURL, review)
	return review, nil, nil
}

// Update mutates the caller's own review and returns the freshly formatted
// package. A review owned by someone else is indistinguishable from a
// missing one.
func (s *ReviewService) Update(ctx context.Context, packageID, reviewID string, req dto.UpdateFeedbackRequest) (*models.PackageDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	if err := s.store.Update(ctx, packageID, reviewID, req.UserID, req.Rating, req.Comment, req.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review")
	}

	s.invalidatePackages(ctx)
	return s.loadDetail(ctx, packageID)
}

// Delete removes the caller's own review and returns the updated package.
func (s *ReviewService) Delete(ctx context.Context, packageID, reviewID, userID string) (*models.PackageDetail, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}

	if err := s.store.Delete(ctx, packageID, reviewID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}

	s.invalidatePackages(ctx)
	return s.loadDetail(ctx, packageID)
}

func (s *ReviewService) loadDetail(ctx context.Context, packageID string) (*models.PackageDetail, error) {
	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}
	reviews, err := s.packages.ListReviews(ctx, packageID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviews")
	}
	return formatPackageDetail(s.baseURL, pkg, reviews), nil
}

func (s *ReviewService) invalidatePackages(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyPackageList); err != nil {
		s.logger.Warn("failed to invalidate package cache", zap.Error(err))
	}
}
