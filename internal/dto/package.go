package dto

// SavePackageRequest contains fields submitted alongside an optional image
// upload when an industry representative creates or updates a package.
type SavePackageRequest struct {
	Name         string   `form:"name" json:"name" validate:"required"`
	Description  string   `form:"description" json:"description"`
	Duration     string   `form:"duration" json:"duration"`
	Price        float64  `form:"price" json:"price" validate:"gte=0"`
	Activities   []string `form:"activities" json:"activities"`
	Inclusions   []string `form:"inclusions" json:"inclusions"`
	Instructions string   `form:"instructions" json:"instructions"`
}
