package estimate

// DefaultAccessory is a catalog item's default accessory: another catalog
// item and how many of it go with one unit of the parent.
type DefaultAccessory struct {
	CatalogID  string `json:"catalogId"`
	QtyPerUnit Number `json:"qtyPerUnit"`
}

// CatalogEntry is the part of a catalog item accessory expansion needs.
type CatalogEntry struct {
	ID              string
	Manufacturer    string
	Model           string
	PartNumber      string
	Description     string
	UnitCost        float64
	LaborHrsPerUnit float64
	Deleted         bool
}

// CatalogLookup finds catalog items by id.
type CatalogLookup interface {
	LookupCatalogItem(id string) (CatalogEntry, bool)
}

// CatalogMap is a CatalogLookup over an in-memory map.
type CatalogMap map[string]CatalogEntry

// LookupCatalogItem implements CatalogLookup.
func (m CatalogMap) LookupCatalogItem(id string) (CatalogEntry, bool) {
	e, ok := m[id]
	return e, ok
}

// ExpandDefaultAccessories builds the accessory list attached to a newly added
// item. Unknown and deleted catalog items are dropped.
func ExpandDefaultAccessories(parentQty float64, defaults []DefaultAccessory, lookup CatalogLookup) []Accessory {
	var out []Accessory
	for _, d := range defaults {
		e, ok := lookup.LookupCatalogItem(d.CatalogID)
		if !ok || e.Deleted {
			continue
		}
		out = append(out, Accessory{
			CatalogID:       e.ID,
			Manufacturer:    e.Manufacturer,
			Model:           e.Model,
			PartNumber:      e.PartNumber,
			Description:     e.Description,
			Qty:             Number(d.QtyPerUnit.Float() * Number(parentQty).Float()),
			UnitCost:        Number(e.UnitCost),
			LaborHrsPerUnit: Number(e.LaborHrsPerUnit),
		})
	}
	return out
}
