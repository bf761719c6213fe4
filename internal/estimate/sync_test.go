package estimate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncForest() Forest {
	return Forest{Roots: []Location{
		{
			ID: "bldg",
			Items: []Item{
				instance("pkg-room-kit", "Room Kit", 1, intp(1)),
			},
			Children: []Location{
				{
					ID: "room-1",
					Items: []Item{
						{Model: "Speaker", Qty: 1, UnitCost: 10},
						instance("pkg-room-kit", "Room Kit", 2, intp(1)),
						instance("other", "Other", 1, intp(4)),
					},
				},
				{
					ID: "room-2",
					Items: []Item{
						// linked by name only, predates ids
						{Type: ItemTypePackage, PackageName: "Room Kit", Qty: 1, Notes: "legacy link"},
						{Model: "Rack", PackageName: "Room Kit", Qty: 1},
					},
				},
			},
		},
		{ID: "annex"},
	}}
}

func kitDefs(version int) Definitions {
	def := roomKit()
	def.Version = version
	other := NewPackageDefinition("other", "Other", ScopeProject, nil, now)
	other.Version = 4
	return Definitions{Catalog: []PackageDefinition{def}, Project: []PackageDefinition{other}}
}

func TestFindInstances(t *testing.T) {
	found := FindInstances(syncForest(), "pkg-room-kit", kitDefs(1))
	assert.Equal(t, []InstanceLocation{
		{LocationID: "bldg", ItemIndex: 0},
		{LocationID: "room-1", ItemIndex: 1},
		{LocationID: "room-2", ItemIndex: 0},
	}, found)
	assert.Equal(t, 3, UsageCount(found))

	assert.Empty(t, FindInstances(syncForest(), "nope", kitDefs(1)))
	assert.Empty(t, FindInstances(Forest{}, "pkg-room-kit", kitDefs(1)))
}

func TestSyncInstances(t *testing.T) {
	defs := kitDefs(2)
	in := syncForest()
	before := in.Clone()

	ref := InstanceRef{ID: "pkg-room-kit", StoredVersion: intp(1), Qty: 2}
	require.True(t, ResolveInstance(ref, defs).IsOutOfDate)

	out, report, err := SyncInstances("pkg-room-kit", 2, in, defs)
	require.NoError(t, err)
	assert.Equal(t, before, in, "input forest must not change")
	assert.Len(t, report.Updated, 3)
	assert.Empty(t, report.Skipped)
	assert.True(t, report.Changed())

	room1, ok := out.Find("room-1")
	require.True(t, ok)
	synced := room1.Items[1]
	assert.Equal(t, 2, *synced.StoredVersion)
	assert.Equal(t, 2.0, synced.Qty.Float())
	assert.Equal(t, 4, *room1.Items[2].StoredVersion)
	assert.Nil(t, room1.Items[0].StoredVersion)

	ref2, _ := synced.PackageRef()
	assert.False(t, ResolveInstance(ref2.(InstanceRef), defs).IsOutOfDate)

	room2, _ := out.Find("room-2")
	assert.Equal(t, "legacy link", room2.Items[0].Notes)
	assert.Equal(t, 2, *room2.Items[0].StoredVersion)
	assert.Nil(t, room2.Items[1].StoredVersion, "legacy grouped item is not an instance")

	again, report2, err := SyncInstances("pkg-room-kit", 2, out, defs)
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Empty(t, report2.Updated)
	assert.Len(t, report2.AlreadyCurrent, 3)
	assert.False(t, report2.Changed())
}

func TestSyncLocationsSkipsDriftedCandidates(t *testing.T) {
	defs := kitDefs(2)
	f := syncForest()
	candidates := []InstanceLocation{
		{LocationID: "room-1", ItemIndex: 1},
		{LocationID: "room-1", ItemIndex: 0},
		{LocationID: "room-1", ItemIndex: 2},
		{LocationID: "room-1", ItemIndex: 9},
		{LocationID: "demolished", ItemIndex: 0},
	}
	out, report, err := SyncLocations("pkg-room-kit", 2, f, candidates, defs)
	require.NoError(t, err)
	assert.Equal(t, []InstanceLocation{{LocationID: "room-1", ItemIndex: 1}}, report.Updated)
	assert.Equal(t, []SkippedInstance{
		{InstanceLocation: InstanceLocation{LocationID: "room-1", ItemIndex: 0}, Reason: SkipNotAnInstance},
		{InstanceLocation: InstanceLocation{LocationID: "room-1", ItemIndex: 2}, Reason: SkipPackageMismatch},
		{InstanceLocation: InstanceLocation{LocationID: "room-1", ItemIndex: 9}, Reason: SkipIndexOutOfRange},
		{InstanceLocation: InstanceLocation{LocationID: "demolished", ItemIndex: 0}, Reason: SkipLocationNotFound},
	}, report.Skipped)

	room1, _ := out.Find("room-1")
	assert.Nil(t, room1.Items[0].StoredVersion)
	assert.Equal(t, 4, *room1.Items[2].StoredVersion)
}

func TestSyncRejectsInvalidForest(t *testing.T) {
	dup := Forest{Roots: []Location{{ID: "a"}, {ID: "b", Children: []Location{{ID: "a"}}}}}
	_, _, err := SyncInstances("pkg-room-kit", 2, dup, kitDefs(2))
	assert.ErrorIs(t, err, ErrInvalidForest)

	noID := Forest{Roots: []Location{{Name: "Lobby"}}}
	_, _, err = SyncInstances("pkg-room-kit", 2, noID, kitDefs(2))
	assert.ErrorIs(t, err, ErrInvalidForest)
}

func TestWalkDepthAndOrder(t *testing.T) {
	var ids []string
	var depths []int
	syncForest().Walk(func(loc *Location, depth int) bool {
		ids = append(ids, loc.ID)
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []string{"bldg", "room-1", "room-2", "annex"}, ids)
	assert.Equal(t, []int{0, 1, 1, 0}, depths)
}

func TestWalkHandlesDeepTrees(t *testing.T) {
	root := Location{ID: "l0"}
	cur := &root
	for i := 1; i < 5000; i++ {
		cur.Children = []Location{{ID: fmt.Sprintf("l%d", i)}}
		cur = &cur.Children[0]
	}
	n := 0
	deep := Forest{Roots: []Location{root}}
	deep.Walk(func(*Location, int) bool { n++; return true })
	assert.Equal(t, 5000, n)
	require.NoError(t, deep.Validate())
}

func TestDeletedDefinitionStaysMissing(t *testing.T) {
	replacement := NewPackageDefinition("proj-kit", "Room Kit", ScopeProject, []ComponentLine{
		{Model: "RK-2", UnitCost: 999, QtyPerPackage: 3},
	}, now)
	defs := Definitions{Project: []PackageDefinition{replacement}}
	f := Forest{Roots: []Location{{ID: "room", Items: []Item{instance("pkg-room-kit", "Room Kit", 1, intp(2))}}}}

	got := ResolveInstance(InstanceRef{ID: "pkg-room-kit", Name: "Room Kit", Qty: 1, StoredVersion: intp(2)}, defs)
	assert.True(t, got.IsMissing)
	assert.False(t, got.IsOutOfDate)
	assert.Zero(t, got.TotalCost)

	assert.Empty(t, FindInstances(f, "proj-kit", defs))
	out, report, err := SyncInstances("proj-kit", 1, f, defs)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	it := out.Roots[0].Items[0]
	assert.Equal(t, "pkg-room-kit", it.PackageID)
	assert.Equal(t, 2, *it.StoredVersion)
}
