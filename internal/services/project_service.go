package services

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	"github.com/av-estimator/engine/internal/repository"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/av-estimator/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service interface and related DTOs
type ProjectService interface {
	// Project CRUD
	CreateProject(ctx context.Context, userID uuid.UUID, input *CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	UpdateProject(ctx context.Context, projectID, userID uuid.UUID, updates *UpdateProjectInput) (*models.Project, error)
	ArchiveProject(ctx context.Context, projectID, userID uuid.UUID) error
	DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error

	// Location tree
	GetForest(ctx context.Context, projectID, userID uuid.UUID) (estimate.Forest, error)
	SaveForest(ctx context.Context, projectID, userID uuid.UUID, f estimate.Forest) (estimate.Forest, error)
	AddCatalogItem(ctx context.Context, projectID, userID uuid.UUID, input *AddCatalogItemInput) (*estimate.Location, error)
	AddPackageInstance(ctx context.Context, projectID, userID uuid.UUID, input *AddPackageInstanceInput) (*estimate.Location, error)
	SaveSelectionAsPackage(ctx context.Context, projectID, userID uuid.UUID, input *SaveSelectionInput) (*models.PackageDefinition, *estimate.Location, error)
}

type CreateProjectInput struct {
	Name        string
	Description string
	Locations   []estimate.Location
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
}

type AddCatalogItemInput struct {
	LocationID    string
	CatalogItemID uuid.UUID
	Qty           float64
	Notes         string
	// PackageName files the item into an informal group.
	PackageName string
}

type AddPackageInstanceInput struct {
	LocationID string
	PackageID  uuid.UUID
	Qty        float64
	Notes      string
}

type SaveSelectionInput struct {
	LocationID string
	Indices    []int
	Name       string
	Notes      string
}

type projectService struct {
	projectRepo repository.ProjectRepository
	packageRepo repository.PackageRepository
	catalogRepo repository.CatalogRepository
	now         func() time.Time
}

func NewProjectService(projectRepo repository.ProjectRepository, packageRepo repository.PackageRepository, catalogRepo repository.CatalogRepository) ProjectService {
	return &projectService{projectRepo: projectRepo, packageRepo: packageRepo, catalogRepo: catalogRepo, now: time.Now}
}

// Ensure interfaces are satisfied at compile time
var _ ProjectService = (*projectService)(nil)

// CreateProject creates a new project for the given user.
func (s *projectService) CreateProject(ctx context.Context, userID uuid.UUID, input *CreateProjectInput) (*models.Project, error) {
	logger.L().Info("create project called", zap.String("user_id", userID.String()), zap.String("name", input.Name))

	if strings.TrimSpace(input.Name) == "" {
		return nil, appErr.New(appErr.CodeInvalid, "project name is required")
	}
	f := estimate.Forest{Roots: input.Locations}
	if err := validateForest(f); err != nil {
		return nil, err
	}

	p := &models.Project{
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
	}
	if err := p.SetForest(f); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid locations")
	}
	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.L().Info("project created", zap.String("project_id", p.ID.String()), zap.String("user_id", userID.String()))
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	return loadOwnedProject(ctx, s.projectRepo, projectID, userID)
}

func (s *projectService) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	logger.L().Info("list projects", zap.String("user_id", userID.String()))
	return s.projectRepo.ListByUser(ctx, userID)
}

func (s *projectService) UpdateProject(ctx context.Context, projectID, userID uuid.UUID, updates *UpdateProjectInput) (*models.Project, error) {
	logger.L().Info("update project", zap.String("project_id", projectID.String()), zap.String("user_id", userID.String()))
	return s.projectRepo.WithLocked(ctx, projectID, func(p *models.Project) error {
		if p.UserID != userID {
			return errNotOwner()
		}
		if updates.Name != nil {
			name := strings.TrimSpace(*updates.Name)
			if name == "" {
				return appErr.New(appErr.CodeInvalid, "project name is required")
			}
			p.Name = name
		}
		if updates.Description != nil {
			p.Description = *updates.Description
		}
		return nil
	})
}

func (s *projectService) ArchiveProject(ctx context.Context, projectID, userID uuid.UUID) error {
	if _, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID); err != nil {
		return err
	}
	return s.projectRepo.Archive(ctx, projectID)
}

func (s *projectService) DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error {
	logger.L().Info("delete project", zap.String("project_id", projectID.String()), zap.String("user_id", userID.String()))
	if _, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return err
	}
	logger.L().Info("project deleted", zap.String("project_id", projectID.String()), zap.String("user_id", userID.String()))
	return nil
}

func (s *projectService) GetForest(ctx context.Context, projectID, userID uuid.UUID) (estimate.Forest, error) {
	p, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID)
	if err != nil {
		return estimate.Forest{}, err
	}
	return decodeForest(p)
}

// SaveForest replaces the whole location tree. Item indices inside the new
// tree are whatever the caller sent; any earlier sync candidates are void.
func (s *projectService) SaveForest(ctx context.Context, projectID, userID uuid.UUID, f estimate.Forest) (estimate.Forest, error) {
	logger.L().Info("save forest", zap.String("project_id", projectID.String()), zap.String("user_id", userID.String()))
	if err := validateForest(f); err != nil {
		return estimate.Forest{}, err
	}
	_, err := s.projectRepo.WithLocked(ctx, projectID, func(p *models.Project) error {
		if p.UserID != userID {
			return errNotOwner()
		}
		return p.SetForest(f)
	})
	if err != nil {
		return estimate.Forest{}, err
	}
	return f, nil
}

// AddCatalogItem copies a catalog item into a location with its default
// accessories expanded for the requested quantity.
func (s *projectService) AddCatalogItem(ctx context.Context, projectID, userID uuid.UUID, input *AddCatalogItemInput) (*estimate.Location, error) {
	logger.L().Info("add catalog item", zap.String("project_id", projectID.String()), zap.String("location_id", input.LocationID), zap.String("catalog_item_id", input.CatalogItemID.String()))

	var item models.CatalogItem
	if err := s.catalogRepo.GetByID(ctx, input.CatalogItemID, &item); err != nil {
		return nil, err
	}
	if item.Deleted {
		return nil, appErr.New(appErr.CodeNotFound, "catalog item not found")
	}

	defaults := item.Accessories()
	ids := make([]uuid.UUID, 0, len(defaults))
	for _, d := range defaults {
		if id, err := uuid.Parse(d.CatalogID); err == nil {
			ids = append(ids, id)
		}
	}
	related, err := s.catalogRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	qty := input.Qty
	if qty <= 0 {
		qty = 1
	}
	newItem := estimate.Item{
		CatalogID:       item.ID.String(),
		Manufacturer:    item.Manufacturer,
		Model:           item.Model,
		PartNumber:      item.PartNumber,
		Description:     item.Description,
		Category:        item.Category,
		UnitOfMeasure:   item.UnitOfMeasure,
		Qty:             estimate.Number(qty),
		UnitCost:        estimate.Number(item.UnitCost),
		LaborHrsPerUnit: estimate.Number(item.LaborHrsPerUnit),
		Accessories:     estimate.ExpandDefaultAccessories(qty, defaults, models.CatalogLookup(related)),
		PackageName:     strings.TrimSpace(input.PackageName),
		Notes:           input.Notes,
	}
	return s.appendItem(ctx, projectID, userID, input.LocationID, newItem)
}

// AddPackageInstance places an instance stamped with the definition's current
// version.
func (s *projectService) AddPackageInstance(ctx context.Context, projectID, userID uuid.UUID, input *AddPackageInstanceInput) (*estimate.Location, error) {
	logger.L().Info("add package instance", zap.String("project_id", projectID.String()), zap.String("location_id", input.LocationID), zap.String("package_id", input.PackageID.String()))

	var row models.PackageDefinition
	if err := s.packageRepo.GetByID(ctx, input.PackageID, &row); err != nil {
		return nil, err
	}
	if row.ProjectID != nil && *row.ProjectID != projectID {
		return nil, appErr.New(appErr.CodeNotFound, "package not found")
	}
	qty := input.Qty
	if qty <= 0 {
		qty = 1
	}
	def, err := decodeDefinition(&row)
	if err != nil {
		return nil, err
	}
	return s.appendItem(ctx, projectID, userID, input.LocationID, estimate.NewInstance(def, qty, input.Notes))
}

func (s *projectService) appendItem(ctx context.Context, projectID, userID uuid.UUID, locationID string, it estimate.Item) (*estimate.Location, error) {
	var out estimate.Location
	_, err := s.projectRepo.WithLocked(ctx, projectID, func(p *models.Project) error {
		if p.UserID != userID {
			return errNotOwner()
		}
		f, err := decodeForest(p)
		if err != nil {
			return err
		}
		loc, ok := f.Find(locationID)
		if !ok {
			return appErr.New(appErr.CodeNotFound, "location not found").WithMeta("location_id", locationID)
		}
		loc.Items = append(loc.Items, it)
		out = *loc
		return p.SetForest(f)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveSelectionAsPackage turns selected standalone items of one location
// into a new project-scope definition at version 1 and replaces them with a
// single instance of it.
func (s *projectService) SaveSelectionAsPackage(ctx context.Context, projectID, userID uuid.UUID, input *SaveSelectionInput) (*models.PackageDefinition, *estimate.Location, error) {
	logger.L().Info("save selection as package", zap.String("project_id", projectID.String()), zap.String("location_id", input.LocationID), zap.Int("selected", len(input.Indices)))

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, appErr.New(appErr.CodeInvalid, "package name is required")
	}

	// Validate against a snapshot first so that a bad selection never leaves
	// an orphan definition behind. The locked pass below refuses to collapse
	// unless the same items still sit at the same indices.
	p, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID)
	if err != nil {
		return nil, nil, err
	}
	f, err := decodeForest(p)
	if err != nil {
		return nil, nil, err
	}
	loc, ok := f.Find(input.LocationID)
	if !ok {
		return nil, nil, appErr.New(appErr.CodeNotFound, "location not found").WithMeta("location_id", input.LocationID)
	}
	picked := selectedStandalone(*loc, input.Indices)
	snapshot := itemsAt(*loc, picked)
	lines := estimate.LinesFromItems(snapshot)
	if len(lines) == 0 {
		return nil, nil, appErr.Wrap(estimate.ErrEmptySelection, appErr.CodeInvalid, "selection contains no standalone items")
	}

	def := estimate.NewPackageDefinition("", name, estimate.ScopeProject, lines, s.now())
	row := &models.PackageDefinition{ProjectID: &projectID, Scope: string(estimate.ScopeProject), CreatedAt: def.CreatedAt}
	if err := row.Apply(def); err != nil {
		return nil, nil, appErr.Wrap(err, appErr.CodeInternal, "encode package lines failed")
	}
	if err := s.packageRepo.Create(ctx, row); err != nil {
		return nil, nil, err
	}
	def.ID = row.ID.String()

	var out estimate.Location
	_, err = s.projectRepo.WithLocked(ctx, projectID, func(p *models.Project) error {
		f, err := decodeForest(p)
		if err != nil {
			return err
		}
		loc, ok := f.Find(input.LocationID)
		if !ok {
			return appErr.New(appErr.CodeNotFound, "location not found")
		}
		keep := selectedStandalone(*loc, input.Indices)
		if !slices.Equal(keep, picked) || !reflect.DeepEqual(itemsAt(*loc, keep), snapshot) {
			return appErr.New(appErr.CodeConflict, "selection changed while saving").WithMeta("location_id", input.LocationID)
		}
		collapsed, err := estimate.CollapseSelection(*loc, keep, def, input.Notes)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeConflict, "selection changed while saving")
		}
		*loc = collapsed
		out = collapsed
		return p.SetForest(f)
	})
	if err != nil {
		if derr := s.packageRepo.Delete(ctx, row.ID); derr != nil {
			logger.L().Error("remove orphan package failed", zap.String("package_id", row.ID.String()), zap.Error(derr))
		}
		return nil, nil, err
	}

	logger.L().Info("selection saved as package", zap.String("package_id", row.ID.String()), zap.String("project_id", projectID.String()))
	return row, &out, nil
}

// selectedStandalone drops package instances from a selection; they are not
// folded into the new definition and must stay where they are.
func selectedStandalone(loc estimate.Location, indices []int) []int {
	keep, items := estimate.Selected(loc, indices)
	out := keep[:0:0]
	for i, it := range items {
		if it.Type != estimate.ItemTypePackage {
			out = append(out, keep[i])
		}
	}
	return out
}

func itemsAt(loc estimate.Location, indices []int) []estimate.Item {
	out := make([]estimate.Item, 0, len(indices))
	for _, i := range indices {
		out = append(out, loc.Items[i])
	}
	return out
}

func loadOwnedProject(ctx context.Context, repo repository.ProjectRepository, projectID, userID uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := repo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, errNotOwner()
	}
	return &p, nil
}

func errNotOwner() error {
	return appErr.New(appErr.CodeForbidden, "user does not own project")
}

func decodeForest(p *models.Project) (estimate.Forest, error) {
	f, err := p.Forest()
	if err != nil {
		return estimate.Forest{}, appErr.Wrap(err, appErr.CodeInternal, "stored locations are unreadable")
	}
	return f, nil
}

func decodeDefinition(row *models.PackageDefinition) (estimate.PackageDefinition, error) {
	def, err := row.Definition()
	if err != nil {
		return estimate.PackageDefinition{}, appErr.Wrap(err, appErr.CodeInternal, "stored package lines are unreadable")
	}
	return def, nil
}

func decodeDefinitions(rows []models.PackageDefinition, precedence estimate.Precedence) (estimate.Definitions, error) {
	defs, err := models.Definitions(rows, precedence)
	if err != nil {
		return estimate.Definitions{}, appErr.Wrap(err, appErr.CodeInternal, "stored package lines are unreadable")
	}
	return defs, nil
}

func validateForest(f estimate.Forest) error {
	if err := f.Validate(); err != nil {
		if errors.Is(err, estimate.ErrInvalidForest) {
			return appErr.Wrap(err, appErr.CodeInvalid, "invalid location tree")
		}
		return err
	}
	return nil
}
