package estimate

import "sort"

// LegacyPackage is an informal group of standalone items sharing a package
// name. It has no version and so is never stale.
type LegacyPackage struct {
	Name      string  `json:"name"`
	Indices   []int   `json:"indices"`
	Items     []Item  `json:"items"`
	Cost      float64 `json:"cost"`
	Labor     float64 `json:"labor"`
	ItemCount int     `json:"itemCount"`
}

// StandaloneItem is an item outside any package with its original index.
type StandaloneItem struct {
	Index int    `json:"index"`
	Item  Item   `json:"item"`
	Total Totals `json:"total"`
}

// Grouped partitions one location's items. Every entry keeps the index it has
// in Location.Items; selection, deletion and sync address items by that index.
type Grouped struct {
	PackageInstances []ResolvedPackage `json:"packageInstances"`
	LegacyPackages   []LegacyPackage   `json:"legacyPackages"`
	StandaloneItems  []StandaloneItem  `json:"standaloneItems"`
}

// GroupItems partitions loc.Items in a single pass. Legacy groups appear in
// the order their first member does.
func GroupItems(loc Location, defs Definitions) Grouped {
	g := Grouped{
		PackageInstances: []ResolvedPackage{},
		LegacyPackages:   []LegacyPackage{},
		StandaloneItems:  []StandaloneItem{},
	}
	legacy := map[string]int{}

	for i, it := range loc.Items {
		ref, ok := it.PackageRef()
		if !ok {
			g.StandaloneItems = append(g.StandaloneItems, StandaloneItem{Index: i, Item: it, Total: LineTotal(it)})
			continue
		}
		switch ref := ref.(type) {
		case InstanceRef:
			rp := ResolveInstance(ref, defs)
			rp.Index = i
			g.PackageInstances = append(g.PackageInstances, rp)
		case LegacyRef:
			pos, seen := legacy[ref.Name]
			if !seen {
				pos = len(g.LegacyPackages)
				legacy[ref.Name] = pos
				g.LegacyPackages = append(g.LegacyPackages, LegacyPackage{Name: ref.Name})
			}
			lp := &g.LegacyPackages[pos]
			t := LineTotal(it)
			lp.Indices = append(lp.Indices, i)
			lp.Items = append(lp.Items, it)
			lp.Cost += t.Cost
			lp.Labor += t.Labor
			lp.ItemCount += ItemCount(it)
		}
	}
	return g
}

// Summary totals the three buckets.
func (g Grouped) Summary() Summary {
	var s Summary
	for _, p := range g.PackageInstances {
		s = s.addTotals(p.Totals(), p.ItemCount)
	}
	for _, lp := range g.LegacyPackages {
		s = s.addTotals(Totals{Cost: lp.Cost, Labor: lp.Labor}, lp.ItemCount)
	}
	for _, si := range g.StandaloneItems {
		s = s.addTotals(si.Total, ItemCount(si.Item))
	}
	return s
}

// Indices flattens the buckets back to the sorted set of original indices.
func (g Grouped) Indices() []int {
	var out []int
	for _, p := range g.PackageInstances {
		out = append(out, p.Index)
	}
	for _, lp := range g.LegacyPackages {
		out = append(out, lp.Indices...)
	}
	for _, si := range g.StandaloneItems {
		out = append(out, si.Index)
	}
	sort.Ints(out)
	return out
}
