package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ivms-api/internal/dto"
	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/internal/service"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
	"github.com/noah-isme/ivms-api/pkg/response"
)

type packageService interface {
	Create(ctx context.Context, req dto.SavePackageRequest, image *service.FileUpload) (*models.Package, error)
	Update(ctx context.Context, id string, req dto.SavePackageRequest, image *service.FileUpload) (*models.Package, error)
	List(ctx context.Context) ([]models.Package, error)
	Get(ctx context.Context, id string) (*models.PackageDetail, error)
}

// PackageHandler exposes the package catalogue endpoints.
type PackageHandler struct {
	service packageService
	policy  UploadPolicy
}

// NewPackageHandler builds a new handler.
func NewPackageHandler(service packageService, policy UploadPolicy) *PackageHandler {
	return &PackageHandler{service: service, policy: policy}
}

// List godoc
// @Summary List visit packages
// @Tags Packages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /packages [get]
func (h *PackageHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get a package with its reviews
// @Tags Packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} response.Envelope
// @Router /packages/{id} [get]
func (h *PackageHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Publish a new visit package
// @Tags Packages
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Name"
// @Param description formData string false "Description"
// @Param duration formData string false "Duration"
// @Param price formData number false "Price"
// @Param image formData file false "Cover image"
// @Success 201 {object} response.Envelope
// @Router /packages [post]
func (h *PackageHandler) Create(c *gin.Context) {
	var req dto.SavePackageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid package payload"))
		return
	}
	image, err := openUpload(c, "image", h.policy)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer image.close()
	item, err := h.service.Create(c.Request.Context(), req, image.upload())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a visit package
// @Tags Packages
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Package ID"
// @Param name formData string true "Name"
// @Param image formData file false "Replacement cover image"
// @Success 200 {object} response.Envelope
// @Router /packages/{id} [put]
func (h *PackageHandler) Update(c *gin.Context) {
	var req dto.SavePackageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid package payload"))
		return
	}
	image, err := openUpload(c, "image", h.policy)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer image.close()
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, image.upload())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
