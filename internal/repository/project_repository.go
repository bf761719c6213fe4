package repository

import (
	"context"

	"github.com/av-estimator/engine/internal/models"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	BaseRepository[models.Project]
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	ListAll(ctx context.Context) ([]uuid.UUID, error)
	Archive(ctx context.Context, projectID uuid.UUID) error
	// WithLocked runs fn against the project row held FOR UPDATE and saves
	// whatever fn leaves in it. Every rewrite of a project's locations goes
	// through here so that edits and sync never interleave.
	WithLocked(ctx context.Context, projectID uuid.UUID, fn func(*models.Project) error) (*models.Project, error)
}

type projectRepository struct {
	BaseRepository[models.Project]
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{BaseRepository: NewBaseRepository[models.Project](db, "project"), db: db}
}

func (r *projectRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	if err := r.db.WithContext(ctx).Where("user_id = ? AND archived = false", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list projects by user failed")
	}
	return out, nil
}

// ListAll returns the ids of every non-archived project.
func (r *projectRepository) ListAll(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Where("archived = false").Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list project ids failed")
	}
	return ids, nil
}

func (r *projectRepository) Archive(ctx context.Context, projectID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Update("archived", true)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "archive project failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "project not found")
	}
	return nil
}

func (r *projectRepository) WithLocked(ctx context.Context, projectID uuid.UUID, fn func(*models.Project) error) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx); err != nil {
			return translate(err, "project", "lock")
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", projectID).Error; err != nil {
			return notFoundOr(err, "project")
		}
		if err := fn(&p); err != nil {
			return err
		}
		if err := tx.Save(&p).Error; err != nil {
			return translate(err, "project", "save")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
