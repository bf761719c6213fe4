package estimate

// InstanceLocation addresses one package instance inside a forest.
type InstanceLocation struct {
	LocationID string `json:"locationId"`
	ItemIndex  int    `json:"itemIndex"`
}

// FindInstances returns every current-format instance in the forest whose
// resolved definition is packageID, in pre-order. Instances linked only by
// name are found through the same id-then-name rule the resolver uses.
func FindInstances(f Forest, packageID string, defs Definitions) []InstanceLocation {
	out := []InstanceLocation{}
	f.Walk(func(loc *Location, _ int) bool {
		for i, it := range loc.Items {
			if resolvesTo(it, packageID, defs) {
				out = append(out, InstanceLocation{LocationID: loc.ID, ItemIndex: i})
			}
		}
		return true
	})
	return out
}

// UsageCount is the number of distinct locations that embed packageID.
func UsageCount(found []InstanceLocation) int {
	seen := map[string]struct{}{}
	for _, l := range found {
		seen[l.LocationID] = struct{}{}
	}
	return len(seen)
}

func resolvesTo(it Item, packageID string, defs Definitions) bool {
	ref, ok := it.PackageRef()
	if !ok {
		return false
	}
	inst, ok := ref.(InstanceRef)
	if !ok {
		return false
	}
	def, ok := defs.Find(inst)
	return ok && def.ID == packageID
}
