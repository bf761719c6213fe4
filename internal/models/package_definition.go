package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PackageDefinition stores a versioned bundle of component lines. Catalog
// scope definitions have no project; project scope ones belong to exactly one.
type PackageDefinition struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID *uuid.UUID     `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Name      string         `gorm:"type:varchar(255);not null;index" json:"name" validate:"required"`
	Scope     string         `gorm:"type:varchar(16);not null;index" json:"scope" validate:"required,oneof=catalog project"`
	Version   int            `gorm:"not null;default:1" json:"version" validate:"gte=1"`
	Lines     datatypes.JSON `gorm:"type:jsonb" json:"lines"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *PackageDefinition) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Definition converts the row into the engine's definition type. Unreadable
// stored lines are an error rather than an empty definition, so that an edit
// never writes an empty list over them.
func (p *PackageDefinition) Definition() (estimate.PackageDefinition, error) {
	var lines []estimate.ComponentLine
	if len(p.Lines) > 0 {
		if err := json.Unmarshal(p.Lines, &lines); err != nil {
			return estimate.PackageDefinition{}, fmt.Errorf("decode lines of package %s: %w", p.ID, err)
		}
	}
	return estimate.PackageDefinition{
		ID:        p.ID.String(),
		Name:      p.Name,
		Scope:     estimate.Scope(p.Scope),
		Version:   p.Version,
		Items:     lines,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

// Apply copies an engine definition's mutable state back onto the row.
func (p *PackageDefinition) Apply(def estimate.PackageDefinition) error {
	b, err := json.Marshal(def.Items)
	if err != nil {
		return err
	}
	p.Name = def.Name
	p.Version = def.Version
	p.Lines = datatypes.JSON(b)
	p.UpdatedAt = def.UpdatedAt
	return nil
}

// Definitions splits rows by scope into an engine lookup.
func Definitions(rows []PackageDefinition, precedence estimate.Precedence) (estimate.Definitions, error) {
	defs := estimate.Definitions{Precedence: precedence}
	for i := range rows {
		d, err := rows[i].Definition()
		if err != nil {
			return estimate.Definitions{}, err
		}
		if d.Scope == estimate.ScopeProject {
			defs.Project = append(defs.Project, d)
		} else {
			defs.Catalog = append(defs.Catalog, d)
		}
	}
	return defs, nil
}
