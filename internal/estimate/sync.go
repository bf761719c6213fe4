package estimate

// SkipReason explains why one located instance was not rewritten.
type SkipReason string

const (
	SkipLocationNotFound SkipReason = "location_not_found"
	SkipIndexOutOfRange  SkipReason = "index_out_of_range"
	SkipNotAnInstance    SkipReason = "not_an_instance"
	SkipPackageMismatch  SkipReason = "package_mismatch"
)

// SkippedInstance is one instance a sync could not rewrite.
type SkippedInstance struct {
	InstanceLocation
	Reason SkipReason `json:"reason"`
}

// SyncReport lists what a sync did. AlreadyCurrent entries were located but
// already carried the target version.
type SyncReport struct {
	PackageID      string             `json:"packageId"`
	Version        int                `json:"version"`
	Updated        []InstanceLocation `json:"updated"`
	AlreadyCurrent []InstanceLocation `json:"alreadyCurrent"`
	Skipped        []SkippedInstance  `json:"skipped"`
}

// Changed reports whether the forest was rewritten.
func (r SyncReport) Changed() bool {
	return len(r.Updated) > 0
}

// SyncInstances stamps newVersion onto every instance of packageID in the
// forest and returns the rewritten copy. The input forest is not modified.
// Only an invalid forest aborts the operation.
func SyncInstances(packageID string, newVersion int, f Forest, defs Definitions) (Forest, SyncReport, error) {
	if err := f.Validate(); err != nil {
		return f, SyncReport{}, err
	}
	return SyncLocations(packageID, newVersion, f, FindInstances(f, packageID, defs), defs)
}

// SyncLocations rewrites the given candidate instances. Each candidate is
// re-validated against the forest first: a candidate whose location is gone,
// or whose index no longer holds an instance of packageID, is skipped and
// reported rather than written.
func SyncLocations(packageID string, newVersion int, f Forest, candidates []InstanceLocation, defs Definitions) (Forest, SyncReport, error) {
	if err := f.Validate(); err != nil {
		return f, SyncReport{}, err
	}
	out := f.Clone()
	idx := out.Index()
	report := SyncReport{
		PackageID:      packageID,
		Version:        newVersion,
		Updated:        []InstanceLocation{},
		AlreadyCurrent: []InstanceLocation{},
		Skipped:        []SkippedInstance{},
	}

	for _, c := range candidates {
		loc, ok := idx[c.LocationID]
		if !ok {
			report.Skipped = append(report.Skipped, SkippedInstance{InstanceLocation: c, Reason: SkipLocationNotFound})
			continue
		}
		if c.ItemIndex < 0 || c.ItemIndex >= len(loc.Items) {
			report.Skipped = append(report.Skipped, SkippedInstance{InstanceLocation: c, Reason: SkipIndexOutOfRange})
			continue
		}
		it := &loc.Items[c.ItemIndex]
		if it.Type != ItemTypePackage {
			report.Skipped = append(report.Skipped, SkippedInstance{InstanceLocation: c, Reason: SkipNotAnInstance})
			continue
		}
		if !resolvesTo(*it, packageID, defs) {
			report.Skipped = append(report.Skipped, SkippedInstance{InstanceLocation: c, Reason: SkipPackageMismatch})
			continue
		}
		if it.StoredVersion != nil && *it.StoredVersion == newVersion {
			report.AlreadyCurrent = append(report.AlreadyCurrent, c)
			continue
		}
		v := newVersion
		it.StoredVersion = &v
		report.Updated = append(report.Updated, c)
	}
	return out, report, nil
}
