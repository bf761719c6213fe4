package estimate

// ExpandedItem is a read-only projection of one definition line inside an
// instance. It is never written back.
type ExpandedItem struct {
	Manufacturer    string  `json:"manufacturer,omitempty"`
	Model           string  `json:"model,omitempty"`
	PartNumber      string  `json:"partNumber,omitempty"`
	Description     string  `json:"description,omitempty"`
	UnitCost        float64 `json:"unitCost"`
	LaborHrsPerUnit float64 `json:"laborHrsPerUnit"`
	QtyPerPackage   float64 `json:"qtyPerPackage"`
	Qty             float64 `json:"qty"`
	ExtCost         float64 `json:"extCost"`
	ExtLabor        float64 `json:"extLabor"`
}

// ResolvedPackage is the expanded, priced and staleness-flagged view of one
// package instance.
type ResolvedPackage struct {
	Index int `json:"index"`

	DefinitionID   string `json:"definitionId,omitempty"`
	Name           string `json:"name"`
	Scope          Scope  `json:"scope,omitempty"`
	CurrentVersion int    `json:"currentVersion,omitempty"`
	StoredVersion  *int   `json:"storedVersion,omitempty"`

	Qty   float64 `json:"qty"`
	Notes string  `json:"notes,omitempty"`

	IsMissing     bool           `json:"isMissing"`
	IsOutOfDate   bool           `json:"isOutOfDate"`
	TotalCost     float64        `json:"totalCost"`
	TotalLabor    float64        `json:"totalLabor"`
	ExpandedItems []ExpandedItem `json:"expandedItems"`
	ItemCount     int            `json:"itemCount"`
}

// Totals returns the instance's cost and labor.
func (r ResolvedPackage) Totals() Totals {
	return Totals{Cost: r.TotalCost, Labor: r.TotalLabor}
}

// ResolveInstance resolves one instance against the current definitions.
// A reference that resolves to nothing is reported as missing with zero
// totals. Stale instances are priced against the current definition.
func ResolveInstance(ref InstanceRef, defs Definitions) ResolvedPackage {
	out := ResolvedPackage{
		Name:          ref.Name,
		StoredVersion: ref.StoredVersion,
		Qty:           Number(ref.Qty).Float(),
		Notes:         ref.Notes,
		ExpandedItems: []ExpandedItem{},
	}

	def, ok := defs.Find(ref)
	if !ok {
		out.IsMissing = true
		return out
	}

	out.DefinitionID = def.ID
	out.Name = def.Name
	out.Scope = def.Scope
	out.CurrentVersion = def.Version
	out.IsOutOfDate = ref.StoredVersion != nil && *ref.StoredVersion != def.Version

	for _, line := range def.Items {
		per := line.QtyPerPackage.Float()
		qty := per * out.Qty
		cost := line.UnitCost.Float()
		labor := line.LaborHrsPerUnit.Float()
		e := ExpandedItem{
			Manufacturer:    line.Manufacturer,
			Model:           line.Model,
			PartNumber:      line.PartNumber,
			Description:     line.Description,
			UnitCost:        cost,
			LaborHrsPerUnit: labor,
			QtyPerPackage:   per,
			Qty:             qty,
			ExtCost:         qty * cost,
			ExtLabor:        qty * labor,
		}
		out.TotalCost += e.ExtCost
		out.TotalLabor += e.ExtLabor
		out.ExpandedItems = append(out.ExpandedItems, e)
	}
	out.ItemCount = len(out.ExpandedItems)
	return out
}
