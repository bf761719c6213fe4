package services

import (
	"context"
	"errors"
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

type PackageService interface {
	CreatePackage(ctx context.Context, userID uuid.UUID, input *CreatePackageInput) (*models.PackageDefinition, error)
	GetPackage(ctx context.Context, packageID, userID uuid.UUID) (*models.PackageDefinition, error)
	ListPackages(ctx context.Context, projectID, userID uuid.UUID) ([]models.PackageDefinition, error)
	ListCatalogPackages(ctx context.Context) ([]models.PackageDefinition, error)
	DeletePackage(ctx context.Context, packageID, userID uuid.UUID) error

	// Line edits. Each one bumps the definition version.
	AddLine(ctx context.Context, packageID, userID uuid.UUID, line estimate.ComponentLine) (*models.PackageDefinition, error)
	AddCatalogLine(ctx context.Context, packageID, userID, catalogItemID uuid.UUID, qtyPerPackage float64) (*models.PackageDefinition, error)
	UpdateLine(ctx context.Context, packageID, userID uuid.UUID, index int, line estimate.ComponentLine) (*models.PackageDefinition, error)
	RemoveLine(ctx context.Context, packageID, userID uuid.UUID, index int) (*models.PackageDefinition, error)
	ReplaceLines(ctx context.Context, packageID, userID uuid.UUID, lines []estimate.ComponentLine) (*models.PackageDefinition, error)

	Usage(ctx context.Context, packageID, projectID, userID uuid.UUID) (*PackageUsage, error)
}

type CreatePackageInput struct {
	Name      string
	Scope     string
	ProjectID *uuid.UUID
	Lines     []estimate.ComponentLine
}

// PackageUsage is where a package is used within one project.
type PackageUsage struct {
	PackageID      uuid.UUID                   `json:"package_id"`
	ProjectID      uuid.UUID                   `json:"project_id"`
	CurrentVersion int                         `json:"current_version"`
	LocationCount  int                         `json:"location_count"`
	OutOfDate      int                         `json:"out_of_date"`
	Instances      []estimate.InstanceLocation `json:"instances"`
}

type packageService struct {
	packageRepo repository.PackageRepository
	projectRepo repository.ProjectRepository
	catalogRepo repository.CatalogRepository
	precedence  estimate.Precedence
	now         func() time.Time
}

func NewPackageService(packageRepo repository.PackageRepository, projectRepo repository.ProjectRepository, catalogRepo repository.CatalogRepository, precedence estimate.Precedence) PackageService {
	return &packageService{packageRepo: packageRepo, projectRepo: projectRepo, catalogRepo: catalogRepo, precedence: precedence, now: time.Now}
}

var _ PackageService = (*packageService)(nil)

func (s *packageService) CreatePackage(ctx context.Context, userID uuid.UUID, input *CreatePackageInput) (*models.PackageDefinition, error) {
	logger.L().Info("create package", zap.String("user_id", userID.String()), zap.String("name", input.Name), zap.String("scope", input.Scope))

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "package name is required")
	}
	row := &models.PackageDefinition{Scope: input.Scope}
	switch estimate.Scope(input.Scope) {
	case estimate.ScopeCatalog:
		if input.ProjectID != nil {
			return nil, appErr.New(appErr.CodeInvalid, "catalog packages do not belong to a project")
		}
	case estimate.ScopeProject:
		if input.ProjectID == nil {
			return nil, appErr.New(appErr.CodeInvalid, "project packages need a project id")
		}
		if _, err := loadOwnedProject(ctx, s.projectRepo, *input.ProjectID, userID); err != nil {
			return nil, err
		}
		pid := *input.ProjectID
		row.ProjectID = &pid
	default:
		return nil, appErr.New(appErr.CodeInvalid, "scope must be catalog or project")
	}

	def := estimate.NewPackageDefinition("", name, estimate.Scope(input.Scope), input.Lines, s.now())
	row.CreatedAt = def.CreatedAt
	if err := row.Apply(def); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid package lines")
	}
	if err := s.packageRepo.Create(ctx, row); err != nil {
		return nil, err
	}
	logger.L().Info("package created", zap.String("package_id", row.ID.String()), zap.Int("version", row.Version))
	return row, nil
}

func (s *packageService) GetPackage(ctx context.Context, packageID, userID uuid.UUID) (*models.PackageDefinition, error) {
	var row models.PackageDefinition
	if err := s.packageRepo.GetByID(ctx, packageID, &row); err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, &row, userID); err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *packageService) ListPackages(ctx context.Context, projectID, userID uuid.UUID) ([]models.PackageDefinition, error) {
	if _, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID); err != nil {
		return nil, err
	}
	return s.packageRepo.ListForProject(ctx, projectID)
}

func (s *packageService) ListCatalogPackages(ctx context.Context) ([]models.PackageDefinition, error) {
	return s.packageRepo.ListCatalogScope(ctx)
}

// DeletePackage soft-deletes the definition. Existing instances stay in place
// and resolve as missing.
func (s *packageService) DeletePackage(ctx context.Context, packageID, userID uuid.UUID) error {
	logger.L().Info("delete package", zap.String("package_id", packageID.String()), zap.String("user_id", userID.String()))
	if _, err := s.GetPackage(ctx, packageID, userID); err != nil {
		return err
	}
	return s.packageRepo.Delete(ctx, packageID)
}

func (s *packageService) AddLine(ctx context.Context, packageID, userID uuid.UUID, line estimate.ComponentLine) (*models.PackageDefinition, error) {
	return s.mutate(ctx, packageID, userID, "add line", func(def *estimate.PackageDefinition, now time.Time) error {
		def.AddLine(line, now)
		return nil
	})
}

// AddCatalogLine copies the catalog item's descriptive fields, cost and labor
// into a new line.
func (s *packageService) AddCatalogLine(ctx context.Context, packageID, userID, catalogItemID uuid.UUID, qtyPerPackage float64) (*models.PackageDefinition, error) {
	var item models.CatalogItem
	if err := s.catalogRepo.GetByID(ctx, catalogItemID, &item); err != nil {
		return nil, err
	}
	if item.Deleted {
		return nil, appErr.New(appErr.CodeNotFound, "catalog item not found")
	}
	if qtyPerPackage <= 0 {
		qtyPerPackage = 1
	}
	return s.AddLine(ctx, packageID, userID, item.Line(qtyPerPackage))
}

func (s *packageService) UpdateLine(ctx context.Context, packageID, userID uuid.UUID, index int, line estimate.ComponentLine) (*models.PackageDefinition, error) {
	return s.mutate(ctx, packageID, userID, "update line", func(def *estimate.PackageDefinition, now time.Time) error {
		return def.UpdateLine(index, line, now)
	})
}

func (s *packageService) RemoveLine(ctx context.Context, packageID, userID uuid.UUID, index int) (*models.PackageDefinition, error) {
	return s.mutate(ctx, packageID, userID, "remove line", func(def *estimate.PackageDefinition, now time.Time) error {
		return def.RemoveLine(index, now)
	})
}

func (s *packageService) ReplaceLines(ctx context.Context, packageID, userID uuid.UUID, lines []estimate.ComponentLine) (*models.PackageDefinition, error) {
	return s.mutate(ctx, packageID, userID, "replace lines", func(def *estimate.PackageDefinition, now time.Time) error {
		def.ReplaceLines(lines, now)
		return nil
	})
}

func (s *packageService) mutate(ctx context.Context, packageID, userID uuid.UUID, op string, fn func(*estimate.PackageDefinition, time.Time) error) (*models.PackageDefinition, error) {
	logger.L().Info("package "+op, zap.String("package_id", packageID.String()), zap.String("user_id", userID.String()))
	row, err := s.packageRepo.UpdateLines(ctx, packageID, func(row *models.PackageDefinition) error {
		if err := s.checkAccess(ctx, row, userID); err != nil {
			return err
		}
		def, err := decodeDefinition(row)
		if err != nil {
			return err
		}
		if err := fn(&def, s.now()); err != nil {
			if errors.Is(err, estimate.ErrLineIndex) {
				return appErr.Wrap(err, appErr.CodeInvalid, "line index out of range")
			}
			return err
		}
		if err := row.Apply(def); err != nil {
			return appErr.Wrap(err, appErr.CodeInvalid, "invalid package lines")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L().Info("package updated", zap.String("package_id", packageID.String()), zap.Int("version", row.Version))
	return row, nil
}

// Usage reports the locations of one project that hold an instance of the
// package, and how many of those instances lag behind the current version.
func (s *packageService) Usage(ctx context.Context, packageID, projectID, userID uuid.UUID) (*PackageUsage, error) {
	p, err := loadOwnedProject(ctx, s.projectRepo, projectID, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.packageRepo.ListForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defs, err := decodeDefinitions(rows, s.precedence)
	if err != nil {
		return nil, err
	}
	def, ok := defs.ByID(packageID.String())
	if !ok {
		return nil, appErr.New(appErr.CodeNotFound, "package not found")
	}
	f, err := decodeForest(p)
	if err != nil {
		return nil, err
	}

	found := estimate.FindInstances(f, def.ID, defs)
	usage := &PackageUsage{
		PackageID:      packageID,
		ProjectID:      projectID,
		CurrentVersion: def.Version,
		LocationCount:  estimate.UsageCount(found),
		Instances:      found,
	}
	idx := f.Index()
	for _, at := range found {
		it := idx[at.LocationID].Items[at.ItemIndex]
		if it.StoredVersion != nil && *it.StoredVersion != def.Version {
			usage.OutOfDate++
		}
	}
	return usage, nil
}

// Catalog packages are shared by every estimator; project packages follow
// their project's ownership.
func (s *packageService) checkAccess(ctx context.Context, row *models.PackageDefinition, userID uuid.UUID) error {
	if row.ProjectID == nil {
		return nil
	}
	_, err := loadOwnedProject(ctx, s.projectRepo, *row.ProjectID, userID)
	return err
}
