package estimate

import (
	"errors"
	"sort"
)

// ErrEmptySelection is returned when a selection holds no usable items.
var ErrEmptySelection = errors.New("selection contains no items")

// LinesFromItems converts standalone items into package lines, one unit of
// the package reproducing the selection: each item's quantity becomes its
// qtyPerPackage and its accessories become lines of their own. Package
// instances in the selection are ignored.
func LinesFromItems(items []Item) []ComponentLine {
	var lines []ComponentLine
	for _, it := range items {
		if it.Type == ItemTypePackage {
			continue
		}
		lines = append(lines, ComponentLine{
			CatalogID:       it.CatalogID,
			Manufacturer:    it.Manufacturer,
			Model:           it.Model,
			PartNumber:      it.PartNumber,
			Description:     it.Description,
			UnitCost:        Number(it.UnitCost.Float()),
			LaborHrsPerUnit: Number(it.LaborHrsPerUnit.Float()),
			QtyPerPackage:   Number(it.Qty.Float()),
		})
		for _, acc := range it.Accessories {
			lines = append(lines, ComponentLine{
				CatalogID:       acc.CatalogID,
				Manufacturer:    acc.Manufacturer,
				Model:           acc.Model,
				PartNumber:      acc.PartNumber,
				Description:     acc.Description,
				UnitCost:        Number(acc.UnitCost.Float()),
				LaborHrsPerUnit: Number(acc.LaborHrsPerUnit.Float()),
				QtyPerPackage:   Number(acc.Qty.Float()),
			})
		}
	}
	return lines
}

// Selected returns the items at the given indices in index order, ignoring
// out-of-range and duplicate indices.
func Selected(loc Location, indices []int) ([]int, []Item) {
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	var keep []int
	var items []Item
	for i, idx := range sorted {
		if idx < 0 || idx >= len(loc.Items) || (i > 0 && sorted[i-1] == idx) {
			continue
		}
		keep = append(keep, idx)
		items = append(items, loc.Items[idx])
	}
	return keep, items
}

// CollapseSelection replaces the selected items of loc with a single instance
// of def at quantity 1, placed where the first selected item was. Indices of
// items after the selection shift; callers must treat this as a structural
// edit.
func CollapseSelection(loc Location, indices []int, def PackageDefinition, notes string) (Location, error) {
	keep, _ := Selected(loc, indices)
	if len(keep) == 0 {
		return loc, ErrEmptySelection
	}
	drop := make(map[int]struct{}, len(keep))
	for _, i := range keep {
		drop[i] = struct{}{}
	}
	out := cloneLocation(loc)
	items := make([]Item, 0, len(loc.Items)-len(keep)+1)
	for i, it := range out.Items {
		if i == keep[0] {
			items = append(items, NewInstance(def, 1, notes))
			continue
		}
		if _, ok := drop[i]; ok {
			continue
		}
		items = append(items, it)
	}
	out.Items = items
	return out, nil
}
