package types

import "github.com/av-estimator/engine/internal/estimate"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type DefaultAccessoryRequest struct {
	CatalogID  string  `json:"catalog_id" validate:"required,uuid"`
	QtyPerUnit float64 `json:"qty_per_unit" validate:"gt=0"`
}

type CatalogItemRequest struct {
	Manufacturer       string                    `json:"manufacturer" validate:"required"`
	Model              string                    `json:"model" validate:"required"`
	PartNumber         string                    `json:"part_number"`
	Description        string                    `json:"description"`
	Category           string                    `json:"category"`
	Subcategory        string                    `json:"subcategory"`
	UnitCost           float64                   `json:"unit_cost" validate:"gte=0"`
	LaborHrsPerUnit    float64                   `json:"labor_hrs_per_unit" validate:"gte=0"`
	UnitOfMeasure      string                    `json:"unit_of_measure"`
	Vendor             string                    `json:"vendor"`
	Discontinued       bool                      `json:"discontinued"`
	DefaultAccessories []DefaultAccessoryRequest `json:"default_accessories" validate:"dive"`
}

type ProjectCreateRequest struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Description string              `json:"description"`
	Locations   []estimate.Location `json:"locations"`
}

type ProjectUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
}

type ForestRequest struct {
	Locations []estimate.Location `json:"locations" validate:"required"`
}

type AddItemRequest struct {
	LocationID    string  `json:"location_id" validate:"required"`
	CatalogItemID string  `json:"catalog_item_id" validate:"required,uuid"`
	Qty           float64 `json:"qty" validate:"gt=0"`
	Notes         string  `json:"notes"`
	PackageName   string  `json:"package_name"`
}

type AddInstanceRequest struct {
	LocationID string  `json:"location_id" validate:"required"`
	PackageID  string  `json:"package_id" validate:"required,uuid"`
	Qty        float64 `json:"qty" validate:"gt=0"`
	Notes      string  `json:"notes"`
}

type SaveSelectionRequest struct {
	LocationID string `json:"location_id" validate:"required"`
	Indices    []int  `json:"indices" validate:"required,min=1,dive,gte=0"`
	Name       string `json:"name" validate:"required,max=200"`
	Notes      string `json:"notes"`
}

type PackageCreateRequest struct {
	Name      string                   `json:"name" validate:"required,max=200"`
	Scope     string                   `json:"scope" validate:"required,oneof=catalog project"`
	ProjectID string                   `json:"project_id" validate:"required_if=Scope project,omitempty,uuid"`
	Lines     []estimate.ComponentLine `json:"lines"`
}

type CatalogLineRequest struct {
	CatalogItemID string  `json:"catalog_item_id" validate:"required,uuid"`
	QtyPerPackage float64 `json:"qty_per_package" validate:"gt=0"`
}

type ReplaceLinesRequest struct {
	Lines []estimate.ComponentLine `json:"lines"`
}

// SyncRequest targets either one project or every project using the package.
type SyncRequest struct {
	ProjectID   string `json:"project_id" validate:"required_without=AllProjects,excluded_with=AllProjects,omitempty,uuid"`
	AllProjects bool   `json:"all_projects"`
}
