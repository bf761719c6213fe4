package models

import (
	"encoding/json"
	"time"

	"github.com/av-estimator/engine/internal/estimate"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CatalogItem is an orderable product with its default cost and labor.
// Catalog items are only ever soft-deleted: package lines and location items
// copy their fields, and accessory expansion must still be able to skip them.
type CatalogItem struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Manufacturer       string         `gorm:"type:varchar(128);index;not null" json:"manufacturer" validate:"required"`
	Model              string         `gorm:"type:varchar(128);index;not null" json:"model" validate:"required"`
	PartNumber         string         `gorm:"type:varchar(128);index" json:"part_number"`
	Description        string         `gorm:"type:text" json:"description"`
	Category           string         `gorm:"type:varchar(64);index" json:"category"`
	Subcategory        string         `gorm:"type:varchar(64)" json:"subcategory"`
	UnitCost           float64        `gorm:"not null;default:0" json:"unit_cost" validate:"gte=0"`
	LaborHrsPerUnit    float64        `gorm:"not null;default:0" json:"labor_hrs_per_unit" validate:"gte=0"`
	UnitOfMeasure      string         `gorm:"type:varchar(16);not null;default:'EA'" json:"unit_of_measure"`
	Vendor             string         `gorm:"type:varchar(128)" json:"vendor"`
	Discontinued       bool           `gorm:"not null;default:false;index" json:"discontinued"`
	Deleted            bool           `gorm:"not null;default:false;index" json:"deleted"`
	DefaultAccessories datatypes.JSON `gorm:"type:jsonb" json:"default_accessories"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (c *CatalogItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Accessories decodes the default accessory list. Undecodable data yields none.
func (c *CatalogItem) Accessories() []estimate.DefaultAccessory {
	if len(c.DefaultAccessories) == 0 {
		return nil
	}
	var out []estimate.DefaultAccessory
	if err := json.Unmarshal(c.DefaultAccessories, &out); err != nil {
		return nil
	}
	return out
}

// Entry is the view of the item accessory expansion works on.
func (c *CatalogItem) Entry() estimate.CatalogEntry {
	return estimate.CatalogEntry{
		ID:              c.ID.String(),
		Manufacturer:    c.Manufacturer,
		Model:           c.Model,
		PartNumber:      c.PartNumber,
		Description:     c.Description,
		UnitCost:        c.UnitCost,
		LaborHrsPerUnit: c.LaborHrsPerUnit,
		Deleted:         c.Deleted,
	}
}

// Line copies the item into a package line.
func (c *CatalogItem) Line(qtyPerPackage float64) estimate.ComponentLine {
	return estimate.ComponentLine{
		CatalogID:       c.ID.String(),
		Manufacturer:    c.Manufacturer,
		Model:           c.Model,
		PartNumber:      c.PartNumber,
		Description:     c.Description,
		UnitCost:        estimate.Number(c.UnitCost),
		LaborHrsPerUnit: estimate.Number(c.LaborHrsPerUnit),
		QtyPerPackage:   estimate.Number(qtyPerPackage),
	}
}

// CatalogLookup builds an estimate.CatalogLookup over the given items.
func CatalogLookup(items []CatalogItem) estimate.CatalogMap {
	m := make(estimate.CatalogMap, len(items))
	for i := range items {
		e := items[i].Entry()
		m[e.ID] = e
	}
	return m
}
