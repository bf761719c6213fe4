package models

import (
	"encoding/json"
	"time"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SyncJobPending   = "pending"
	SyncJobRunning   = "running"
	SyncJobCompleted = "completed"
	SyncJobFailed    = "failed"
)

// SyncJob records one request to bring a project's instances of a package up
// to a given definition version.
type SyncJob struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PackageID uuid.UUID      `gorm:"type:uuid;index;not null" json:"package_id" validate:"required"`
	ProjectID uuid.UUID      `gorm:"type:uuid;index;not null" json:"project_id" validate:"required"`
	Version   int            `gorm:"not null" json:"version" validate:"gte=1"`
	Status    string         `gorm:"type:varchar(32);index;not null" json:"status" validate:"required,oneof=pending running completed failed"`
	Report    datatypes.JSON `gorm:"type:jsonb" json:"report"`
	Error     string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (j *SyncJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// SyncReport decodes the stored report, if any.
func (j *SyncJob) SyncReport() (*estimate.SyncReport, error) {
	if len(j.Report) == 0 {
		return nil, nil
	}
	var r estimate.SyncReport
	if err := json.Unmarshal(j.Report, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
