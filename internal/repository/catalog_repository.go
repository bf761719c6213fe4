package repository

import (
	"context"
	"strings"

	"github.com/av-estimator/engine/internal/models"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	BaseRepository[models.CatalogItem]
	ListActive(ctx context.Context) ([]models.CatalogItem, error)
	Search(ctx context.Context, term string, limit int) ([]models.CatalogItem, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]models.CatalogItem, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type catalogRepository struct {
	BaseRepository[models.CatalogItem]
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{BaseRepository: NewBaseRepository[models.CatalogItem](db, "catalog item"), db: db}
}

func (r *catalogRepository) ListActive(ctx context.Context) ([]models.CatalogItem, error) {
	var out []models.CatalogItem
	if err := r.db.WithContext(ctx).Where("deleted = false").Order("manufacturer, model").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list catalog items failed")
	}
	return out, nil
}

// Search matches term case-insensitively against the descriptive columns.
func (r *catalogRepository) Search(ctx context.Context, term string, limit int) ([]models.CatalogItem, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListActive(ctx)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	like := "%" + escapeLike(term) + "%"
	var out []models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("deleted = false").
		Where("manufacturer ILIKE ? OR model ILIKE ? OR part_number ILIKE ? OR description ILIKE ? OR category ILIKE ?", like, like, like, like, like).
		Order("manufacturer, model").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "search catalog failed")
	}
	return out, nil
}

// GetMany loads the given ids, deleted rows included. Missing ids are skipped.
func (r *catalogRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.CatalogItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get catalog items failed")
	}
	return out, nil
}

func (r *catalogRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.CatalogItem{}).Where("id = ?", id).Update("deleted", true)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete catalog item failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "catalog item not found")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
