package estimate

// Aggregate returns the totals of loc and every descendant. Recursion depth is
// the nesting depth of the tree, which users keep shallow (building, floor,
// room).
func Aggregate(loc Location, defs Definitions) Summary {
	s := GroupItems(loc, defs).Summary()
	for _, child := range loc.Children {
		s = s.Add(Aggregate(child, defs))
	}
	return s
}

// AggregateDirect returns the totals of loc excluding its sublocations. It
// sums loc's own items rather than subtracting child totals, so the result
// carries no rounding residue from the subtree.
func AggregateDirect(loc Location, defs Definitions) Summary {
	return GroupItems(loc, defs).Summary()
}

// AggregateForest sums every root of the forest.
func AggregateForest(f Forest, defs Definitions) Summary {
	var s Summary
	for _, root := range f.Roots {
		s = s.Add(Aggregate(root, defs))
	}
	return s
}

// LocationSummary is one node of a Breakdown.
type LocationSummary struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Path     string            `json:"path,omitempty"`
	Total    Summary           `json:"total"`
	Direct   Summary           `json:"direct"`
	Stale    int               `json:"stale"`
	Missing  int               `json:"missing"`
	Children []LocationSummary `json:"children,omitempty"`
}

// Breakdown computes total and direct-only summaries for loc and each
// descendant in one post-order pass, along with counts of stale and missing
// instances in the subtree.
func Breakdown(loc Location, defs Definitions) LocationSummary {
	g := GroupItems(loc, defs)
	out := LocationSummary{
		ID:     loc.ID,
		Name:   loc.Name,
		Path:   loc.Path,
		Direct: g.Summary(),
	}
	for _, p := range g.PackageInstances {
		if p.IsMissing {
			out.Missing++
		}
		if p.IsOutOfDate {
			out.Stale++
		}
	}
	out.Total = out.Direct
	for _, child := range loc.Children {
		cs := Breakdown(child, defs)
		out.Total = out.Total.Add(cs.Total)
		out.Stale += cs.Stale
		out.Missing += cs.Missing
		out.Children = append(out.Children, cs)
	}
	return out
}
