package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ivms-api/internal/service"
	appErrors "github.com/noah-isme/ivms-api/pkg/errors"
)

// UploadPolicy limits what multipart files handlers accept.
type UploadPolicy struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

func (p UploadPolicy) check(header *multipart.FileHeader) error {
	if p.MaxFileSizeBytes > 0 && header.Size > p.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file %s exceeds the %d byte limit", header.Filename, p.MaxFileSizeBytes))
	}
	if len(p.AllowedMIMEs) == 0 {
		return nil
	}
	contentType := header.Header.Get("Content-Type")
	for _, allowed := range p.AllowedMIMEs {
		if strings.EqualFold(contentType, allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation,
		fmt.Sprintf("file type %s is not allowed", contentType))
}

type formUpload struct {
	file multipart.File
	name string
}

func (u *formUpload) close() {
	if u != nil && u.file != nil {
		_ = u.file.Close()
	}
}

func (u *formUpload) upload() *service.FileUpload {
	if u == nil {
		return nil
	}
	return &service.FileUpload{Name: u.name, Reader: u.file}
}

// openUpload returns the named multipart file, or nil when the field is
// absent. Policy violations surface as validation errors.
func openUpload(c *gin.Context, field string, policy UploadPolicy) (*formUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s upload", field))
	}
	if err := policy.check(header); err != nil {
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	return &formUpload{file: file, name: header.Filename}, nil
}
