package repository

import (
	"context"

	"github.com/av-estimator/engine/internal/models"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PackageRepository interface {
	BaseRepository[models.PackageDefinition]
	ListCatalogScope(ctx context.Context) ([]models.PackageDefinition, error)
	ListProjectScope(ctx context.Context, projectID uuid.UUID) ([]models.PackageDefinition, error)
	// ListForProject returns every definition visible to a project: the
	// catalog scope plus the project's own.
	ListForProject(ctx context.Context, projectID uuid.UUID) ([]models.PackageDefinition, error)
	// UpdateLines loads the definition under a row lock, lets fn mutate it and
	// saves the result in the same transaction.
	UpdateLines(ctx context.Context, id uuid.UUID, fn func(*models.PackageDefinition) error) (*models.PackageDefinition, error)
}

type packageRepository struct {
	BaseRepository[models.PackageDefinition]
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{BaseRepository: NewBaseRepository[models.PackageDefinition](db, "package"), db: db}
}

func (r *packageRepository) ListCatalogScope(ctx context.Context) ([]models.PackageDefinition, error) {
	var out []models.PackageDefinition
	if err := r.db.WithContext(ctx).Where("scope = ?", "catalog").Order("name, created_at, id").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list catalog packages failed")
	}
	return out, nil
}

func (r *packageRepository) ListProjectScope(ctx context.Context, projectID uuid.UUID) ([]models.PackageDefinition, error) {
	var out []models.PackageDefinition
	if err := r.db.WithContext(ctx).Where("scope = ? AND project_id = ?", "project", projectID).Order("name, created_at, id").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list project packages failed")
	}
	return out, nil
}

func (r *packageRepository) ListForProject(ctx context.Context, projectID uuid.UUID) ([]models.PackageDefinition, error) {
	var out []models.PackageDefinition
	err := r.db.WithContext(ctx).
		Where("scope = ? OR (scope = ? AND project_id = ?)", "catalog", "project", projectID).
		Order("scope, name, created_at, id").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list packages failed")
	}
	return out, nil
}

func (r *packageRepository) UpdateLines(ctx context.Context, id uuid.UUID, fn func(*models.PackageDefinition) error) (*models.PackageDefinition, error) {
	var def models.PackageDefinition
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx); err != nil {
			return translate(err, "package", "lock")
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&def, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "package")
		}
		if err := fn(&def); err != nil {
			return err
		}
		if err := tx.Save(&def).Error; err != nil {
			return translate(err, "package", "save")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}
