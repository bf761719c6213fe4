package estimate

import "strings"

// Matcher decides whether an item matches a free-text search term.
type Matcher func(it Item, term string) bool

// DefaultMatcher matches term case-insensitively against the descriptive
// fields of an item and its accessories.
func DefaultMatcher(it Item, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	fields := []string{it.Manufacturer, it.Model, it.PartNumber, it.Description, it.Category, it.PackageName, it.Notes}
	for _, acc := range it.Accessories {
		fields = append(fields, acc.Manufacturer, acc.Model, acc.PartNumber, acc.Description)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// FilterForest returns a copy of the forest keeping only items that match
// term. Locations are kept even when empty so the tree shape is preserved.
// A blank term returns an unfiltered copy. Item indices in the copy are not
// the original indices; filtered forests are for totals only.
func FilterForest(f Forest, term string, match Matcher) Forest {
	out := f.Clone()
	if strings.TrimSpace(term) == "" {
		return out
	}
	if match == nil {
		match = DefaultMatcher
	}
	out.Walk(func(loc *Location, _ int) bool {
		kept := loc.Items[:0]
		for _, it := range loc.Items {
			if match(it, term) {
				kept = append(kept, it)
			}
		}
		loc.Items = kept
		return true
	})
	return out
}
