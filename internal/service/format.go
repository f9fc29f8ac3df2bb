package service

import (
	"strings"

	"github.com/noah-isme/ivms-api/internal/models"
)

// absoluteURL rewrites a stored relative file path to an absolute URL the
// mobile client can fetch. Absolute paths pass through untouched.
func absoluteURL(baseURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func formatPackage(baseURL string, p *models.Package) {
	if p.ImagePath != nil {
		p.ImageURL = absoluteURL(baseURL, *p.ImagePath)
	}
}

func formatReview(baseURL string, r *models.Review) {
	if r.ProfileImage != nil {
		r.ProfileImageURL = absoluteURL(baseURL, *r.ProfileImage)
	}
}

func formatPackageDetail(baseURL string, p *models.Package, reviews []models.Review) *models.PackageDetail {
	formatPackage(baseURL, p)
	formatted := make([]models.Review, len(reviews))
	copy(formatted, reviews)
	for i := range formatted {
		formatReview(baseURL, &formatted[i])
	}
	return &models.PackageDetail{Package: *p, Reviews: formatted}
}
