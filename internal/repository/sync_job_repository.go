package repository

import (
	"context"
	"encoding/json"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/models"
	appErr "github.com/av-estimator/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SyncJobRepository interface {
	BaseRepository[models.SyncJob]
	ListByPackage(ctx context.Context, packageID uuid.UUID) ([]models.SyncJob, error)
	UpdateStatus(ctx context.Context, jobID uuid.UUID, status string, reason string) error
	SaveReport(ctx context.Context, jobID uuid.UUID, report estimate.SyncReport) error
}

type syncJobRepository struct {
	BaseRepository[models.SyncJob]
	db *gorm.DB
}

func NewSyncJobRepository(db *gorm.DB) SyncJobRepository {
	return &syncJobRepository{BaseRepository: NewBaseRepository[models.SyncJob](db, "sync job"), db: db}
}

func (r *syncJobRepository) ListByPackage(ctx context.Context, packageID uuid.UUID) ([]models.SyncJob, error) {
	var out []models.SyncJob
	if err := r.db.WithContext(ctx).Where("package_id = ?", packageID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list sync jobs failed")
	}
	return out, nil
}

// UpdateStatus sets the job status. reason is stored as the job error and
// cleared when empty.
func (r *syncJobRepository) UpdateStatus(ctx context.Context, jobID uuid.UUID, status string, reason string) error {
	res := r.db.WithContext(ctx).Model(&models.SyncJob{}).Where("id = ?", jobID).
		Updates(map[string]any{"status": status, "error": reason})
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update sync job status failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "sync job not found")
	}
	return nil
}

func (r *syncJobRepository) SaveReport(ctx context.Context, jobID uuid.UUID, report estimate.SyncReport) error {
	b, err := json.Marshal(report)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "marshal sync report failed")
	}
	res := r.db.WithContext(ctx).Model(&models.SyncJob{}).Where("id = ?", jobID).Update("report", datatypes.JSON(b))
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "save sync report failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "sync job not found")
	}
	return nil
}
