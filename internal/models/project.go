package models

import (
	"encoding/json"
	"time"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is an estimate owned by a user. Its location tree is stored whole
// as one jsonb document.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id" validate:"required"`
	Name        string         `gorm:"not null;index:idx_projects_user_name,unique" json:"name" validate:"required"`
	Description string         `gorm:"type:text" json:"description"`
	Locations   datatypes.JSON `gorm:"type:jsonb" json:"locations"`
	Archived    bool           `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Forest decodes the stored location tree. An empty column is an empty forest.
func (p *Project) Forest() (estimate.Forest, error) {
	var roots []estimate.Location
	if len(p.Locations) == 0 {
		return estimate.Forest{}, nil
	}
	if err := json.Unmarshal(p.Locations, &roots); err != nil {
		return estimate.Forest{}, err
	}
	return estimate.Forest{Roots: roots}, nil
}

// SetForest encodes f into the locations column.
func (p *Project) SetForest(f estimate.Forest) error {
	roots := f.Roots
	if roots == nil {
		roots = []estimate.Location{}
	}
	b, err := json.Marshal(roots)
	if err != nil {
		return err
	}
	p.Locations = datatypes.JSON(b)
	return nil
}
