// Package estimate resolves package instances against versioned package
// definitions and rolls cost, labor and item counts up a location tree.
//
// Everything here is an in-memory computation over values supplied by the
// caller. Nothing is cached between calls, so a definition edit is visible to
// the very next resolution.
package estimate

import (
	"strings"
	"time"
)

// ItemTypePackage marks an item as a current-format package instance.
const ItemTypePackage = "package"

// Scope of a package definition.
type Scope string

const (
	ScopeCatalog Scope = "catalog"
	ScopeProject Scope = "project"
)

// Accessory is a component line owned by a parent item. It contributes to the
// parent's totals and is never addressed on its own at the location level.
type Accessory struct {
	CatalogID       string `json:"catalogId,omitempty" yaml:"catalogId,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model           string `json:"model,omitempty" yaml:"model,omitempty"`
	PartNumber      string `json:"partNumber,omitempty" yaml:"partNumber,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	Qty             Number `json:"qty" yaml:"qty"`
	UnitCost        Number `json:"unitCost" yaml:"unitCost"`
	LaborHrsPerUnit Number `json:"laborHrsPerUnit" yaml:"laborHrsPerUnit"`
}

// Item is one entry of a location's item list. Standalone items, legacy
// grouped items and package instances share this shape; PackageRef tells them
// apart.
type Item struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	CatalogID       string      `json:"catalogId,omitempty" yaml:"catalogId,omitempty"`
	Manufacturer    string      `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model           string      `json:"model,omitempty" yaml:"model,omitempty"`
	PartNumber      string      `json:"partNumber,omitempty" yaml:"partNumber,omitempty"`
	Description     string      `json:"description,omitempty" yaml:"description,omitempty"`
	Category        string      `json:"category,omitempty" yaml:"category,omitempty"`
	UnitOfMeasure   string      `json:"uom,omitempty" yaml:"uom,omitempty"`
	Qty             Number      `json:"qty" yaml:"qty"`
	UnitCost        Number      `json:"unitCost" yaml:"unitCost"`
	LaborHrsPerUnit Number      `json:"laborHrsPerUnit" yaml:"laborHrsPerUnit"`
	Custom          bool        `json:"custom,omitempty" yaml:"custom,omitempty"`
	Accessories     []Accessory `json:"accessories,omitempty" yaml:"accessories,omitempty"`

	PackageID     string `json:"packageId,omitempty" yaml:"packageId,omitempty"`
	PackageName   string `json:"packageName,omitempty" yaml:"packageName,omitempty"`
	StoredVersion *int   `json:"storedVersion,omitempty" yaml:"storedVersion,omitempty"`
	Notes         string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// PackageRef is the package-ness of an item: either an InstanceRef or a
// LegacyRef.
type PackageRef interface {
	packageRef()
}

// InstanceRef references a package definition by id (or by name for
// instances created before ids were stamped) and carries the version it was
// last synced to.
type InstanceRef struct {
	ID            string
	Name          string
	StoredVersion *int
	Qty           float64
	Notes         string
}

// LegacyRef is an informal group: standalone items that share a package name
// and have no definition behind them.
type LegacyRef struct {
	Name string
}

func (InstanceRef) packageRef() {}
func (LegacyRef) packageRef()   {}

// PackageRef reports whether the item belongs to a package and how.
func (it Item) PackageRef() (PackageRef, bool) {
	if it.Type == ItemTypePackage {
		return InstanceRef{
			ID:            it.PackageID,
			Name:          it.PackageName,
			StoredVersion: it.StoredVersion,
			Qty:           it.Qty.Float(),
			Notes:         it.Notes,
		}, true
	}
	if name := strings.TrimSpace(it.PackageName); name != "" {
		return LegacyRef{Name: name}, true
	}
	return nil, false
}

// NewInstance builds a current-format package instance stamped with the
// definition's current version.
func NewInstance(def PackageDefinition, qty float64, notes string) Item {
	v := def.Version
	return Item{
		Type:          ItemTypePackage,
		PackageID:     def.ID,
		PackageName:   def.Name,
		Qty:           Number(qty),
		Notes:         notes,
		StoredVersion: &v,
	}
}

// ComponentLine is one line of a package definition. Descriptive fields are
// copied from the catalog when the line is added.
type ComponentLine struct {
	CatalogID       string `json:"catalogId,omitempty" yaml:"catalogId,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model           string `json:"model,omitempty" yaml:"model,omitempty"`
	PartNumber      string `json:"partNumber,omitempty" yaml:"partNumber,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	UnitCost        Number `json:"unitCost" yaml:"unitCost"`
	LaborHrsPerUnit Number `json:"laborHrsPerUnit" yaml:"laborHrsPerUnit"`
	QtyPerPackage   Number `json:"qtyPerPackage" yaml:"qtyPerPackage"`
}

// PackageDefinition is a named, versioned bundle of component lines.
type PackageDefinition struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Scope     Scope           `json:"scope" yaml:"scope"`
	Version   int             `json:"version" yaml:"version"`
	Items     []ComponentLine `json:"items" yaml:"items"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" yaml:"updatedAt"`
}

// Location is a node of the location tree. Children are owned values.
type Location struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Path     string     `json:"path,omitempty" yaml:"path,omitempty"`
	Items    []Item     `json:"items" yaml:"items"`
	Children []Location `json:"children,omitempty" yaml:"children,omitempty"`
}

// Totals is the extended cost and labor of one line.
type Totals struct {
	Cost  float64 `json:"cost"`
	Labor float64 `json:"labor"`
}

// Add returns the component-wise sum.
func (t Totals) Add(o Totals) Totals {
	return Totals{Cost: t.Cost + o.Cost, Labor: t.Labor + o.Labor}
}

// Summary is an aggregate over a set of items.
type Summary struct {
	Cost      float64 `json:"cost"`
	Labor     float64 `json:"labor"`
	ItemCount int     `json:"itemCount"`
}

// Add returns the component-wise sum.
func (s Summary) Add(o Summary) Summary {
	return Summary{Cost: s.Cost + o.Cost, Labor: s.Labor + o.Labor, ItemCount: s.ItemCount + o.ItemCount}
}

func (s Summary) addTotals(t Totals, count int) Summary {
	return Summary{Cost: s.Cost + t.Cost, Labor: s.Labor + t.Labor, ItemCount: s.ItemCount + count}
}
