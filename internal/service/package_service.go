package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/jobs"
)

const (
	cacheKeyPackageList = "packages:list"
	packageImageSubdir  = "packages"
	packageListTTL      = 10 * time.Minute

	// JobTypeFileCleanup removes a replaced upload off the request path.
	JobTypeFileCleanup = "file_cleanup"
)

type packageStore interface {
	Create(ctx context.Context, p *models.Package) error
	Update(ctx context.Context, p *models.Package) error
	List(ctx context.Context) ([]models.Package, error)
	GetByID(ctx context.Context, id string) (*models.Package, error)
	ListReviews(ctx context.Context, packageID string) ([]models.Review, error)
}

type imageStore interface {
	SaveStream(subdir, originalName string, r io.Reader) (string, error)
}

type packageCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cleanupQueue interface {
	Enqueue(job jobs.Job) error
}

// PackageService owns the package catalogue. Vote and rating aggregates on
// each package are read-only here; they belong to the vote ledger and review
// aggregator respectively.
type PackageService struct {
	store     packageStore
	images    imageStore
	cache     packageCache
	cleanup   cleanupQueue
	validator *validator.Validate
	logger    *zap.Logger
	baseURL   string
}

// NewPackageService builds a PackageService.
func NewPackageService(store packageStore, images imageStore, cache packageCache, cleanup cleanupQueue, validate *validator.Validate, logger *zap.Logger, baseURL string) *PackageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageService{
		store:     store,
		images:    images,
		cache:     cache,
		cleanup:   cleanup,
		validator: validate,
		logger:    logger,
		baseURL:   baseURL,
	}
}

// Create publishes a new package with an optional cover image.
func (s *PackageService) Create(ctx context.Context, req dto.SavePackageRequest, image *FileUpload) (*models.Package, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid package payload")
	}

	pkg := &models.Package{
		Name:         req.Name,
		Description:  req.Description,
		Duration:     req.Duration,
		Price:        req.Price,
		Activities:   req.Activities,
		Inclusions:   req.Inclusions,
		Instructions: req.Instructions,
	}

	if image != nil {
		rel, err := s.images.SaveStream(packageImageSubdir, image.Name, image.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store package image")
		}
		pkg.ImagePath = &rel
	}

	if err := s.store.Create(ctx, pkg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create package")
	}

	s.invalidateList(ctx)
	formatPackage(s.baseURL, pkg)
	return pkg, nil
}

// Update overwrites content fields and optionally replaces the cover image.
// The replaced image is cleaned up off the request path.
func (s *PackageService) Update(ctx context.Context, id string, req dto.SavePackageRequest, image *FileUpload) (*models.Package, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid package payload")
	}

	pkg, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}

	pkg.Name = req.Name
	pkg.Description = req.Description
	pkg.Duration = req.Duration
	pkg.Price = req.Price
	pkg.Activities = req.Activities
	pkg.Inclusions = req.Inclusions
	pkg.Instructions = req.Instructions

	var oldImage *string
	if image != nil {
		rel, err := s.images.SaveStream(packageImageSubdir, image.Name, image.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store package image")
		}
		oldImage = pkg.ImagePath
		pkg.ImagePath = &rel
	}

	if err := s.store.Update(ctx, pkg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update package")
	}

	if oldImage != nil && s.cleanup != nil {
		if err := s.cleanup.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    JobTypeFileCleanup,
			Payload: *oldImage,
		}); err != nil {
			s.logger.Warn("failed to enqueue image cleanup", zap.String("file", *oldImage), zap.Error(err))
		}
	}

	s.invalidateList(ctx)
	formatPackage(s.baseURL, pkg)
	return pkg, nil
}

// List returns the catalogue, served from cache when warm.
func (s *PackageService) List(ctx context.Context) ([]models.Package, error) {
	if s.cache != nil {
		var cached []models.Package
		if err := s.cache.Get(ctx, cacheKeyPackageList, &cached); err == nil {
			for i := range cached {
				formatPackage(s.baseURL, &cached[i])
			}
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("package list cache read failed", zap.Error(err))
		}
	}

	items, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list packages")
	}
	if items == nil {
		items = []models.Package{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPackageList, items, packageListTTL); err != nil {
			s.logger.Warn("package list cache write failed", zap.Error(err))
		}
	}

	for i := range items {
		formatPackage(s.baseURL, &items[i])
	}
	return items, nil
}

// Get returns one package with its review thread.
func (s *PackageService) Get(ctx context.Context, id string) (*models.PackageDetail, error) {
	pkg, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "package not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load package")
	}
	reviews, err := s.store.ListReviews(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviews")
	}
	return formatPackageDetail(s.baseURL, pkg, reviews), nil
}

func (s *PackageService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyPackageList); err != nil {
		s.logger.Warn("failed to invalidate package cache", zap.Error(err))
	}
}
