package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedLocation() Location {
	return Location{
		ID:   "room-a",
		Name: "Room A",
		Items: []Item{
			{Model: "Speaker", Qty: 2, UnitCost: 10, LaborHrsPerUnit: 1},
			{Model: "Amp", PackageName: "Old Audio", Qty: 1, UnitCost: 200, Accessories: []Accessory{{Qty: 1, UnitCost: 20}}},
			instance("pkg-room-kit", "Room Kit", 3, intp(1)),
			{Model: "Cable", PackageName: "Old Audio", Qty: 4, UnitCost: 5},
			instance("pkg-deleted", "Deleted Kit", 1, nil),
			{Model: "Rack", Qty: 1, UnitCost: 300},
		},
	}
}

func TestGroupItems(t *testing.T) {
	loc := mixedLocation()
	defs := Definitions{Catalog: []PackageDefinition{roomKit()}}
	g := GroupItems(loc, defs)

	require.Len(t, g.PackageInstances, 2)
	assert.Equal(t, 2, g.PackageInstances[0].Index)
	assert.False(t, g.PackageInstances[0].IsMissing)
	assert.Equal(t, 4, g.PackageInstances[1].Index)
	assert.True(t, g.PackageInstances[1].IsMissing)

	require.Len(t, g.LegacyPackages, 1)
	lp := g.LegacyPackages[0]
	assert.Equal(t, "Old Audio", lp.Name)
	assert.Equal(t, []int{1, 3}, lp.Indices)
	assert.InDelta(t, 200+20+20, lp.Cost, 1e-9)
	assert.Equal(t, 3, lp.ItemCount)

	require.Len(t, g.StandaloneItems, 2)
	assert.Equal(t, 0, g.StandaloneItems[0].Index)
	assert.Equal(t, 5, g.StandaloneItems[1].Index)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, g.Indices())
}

func TestGroupItemsRoundTripEmpty(t *testing.T) {
	g := GroupItems(Location{ID: "x"}, Definitions{})
	assert.Empty(t, g.Indices())
	assert.Equal(t, Summary{}, g.Summary())
}

func TestAggregateParentAndDirect(t *testing.T) {
	parent := Location{
		ID:       "parent",
		Items:    []Item{{Qty: 2, UnitCost: 10}},
		Children: []Location{{ID: "child", Items: []Item{{Qty: 1, UnitCost: 5}}}},
	}
	total := Aggregate(parent, Definitions{})
	assert.InDelta(t, 25, total.Cost, 1e-9)
	assert.Equal(t, 2, total.ItemCount)

	direct := AggregateDirect(parent, Definitions{})
	assert.InDelta(t, 20, direct.Cost, 1e-9)
	assert.Equal(t, 1, direct.ItemCount)

	assert.Equal(t, Summary{}, Aggregate(Location{ID: "empty"}, Definitions{}))
}

func TestAggregateDirectIsExact(t *testing.T) {
	parent := Location{
		ID:       "bldg",
		Items:    []Item{{Qty: 1, UnitCost: 0.1, LaborHrsPerUnit: 0.1}},
		Children: []Location{{ID: "room", Items: []Item{{Qty: 1, UnitCost: 0.2, LaborHrsPerUnit: 0.2}}}},
	}
	direct := AggregateDirect(parent, Definitions{})
	assert.Equal(t, 0.1, direct.Cost)
	assert.Equal(t, 0.1, direct.Labor)
	assert.Equal(t, 1, direct.ItemCount)
	assert.Equal(t, Breakdown(parent, Definitions{}).Direct, direct)
}

func TestAggregateMatchesSumOfParts(t *testing.T) {
	defs := Definitions{Catalog: []PackageDefinition{roomKit()}}
	room := mixedLocation()
	floor := Location{
		ID:       "floor-1",
		Items:    []Item{{Qty: 10, UnitCost: 1.5, LaborHrsPerUnit: 0.1}},
		Children: []Location{room, {ID: "room-b", Items: []Item{instance("", "Room Kit", 1, nil)}}},
	}

	var direct float64
	for _, it := range floor.Items {
		direct += LineTotal(it).Cost
	}
	want := direct + Aggregate(floor.Children[0], defs).Cost + Aggregate(floor.Children[1], defs).Cost

	got := Aggregate(floor, defs)
	assert.InDelta(t, want, got.Cost, 1e-9)
	// room: speaker 20 + legacy 240 + kit 600 + missing 0 + rack 300; room-b: 200; floor: 15
	assert.InDelta(t, 1160+200+15, got.Cost, 1e-9)
	// room: 1 + 3 + 1 + 0 + 1; room-b: 1; floor: 1
	assert.Equal(t, 8, got.ItemCount)

	forest := Forest{Roots: []Location{floor, {ID: "yard", Items: []Item{{Qty: 1, UnitCost: 1}}}}}
	assert.InDelta(t, got.Cost+1, AggregateForest(forest, defs).Cost, 1e-9)
}

func TestBreakdown(t *testing.T) {
	kit := roomKit()
	kit.AddLine(ComponentLine{Model: "Mic", UnitCost: 50, QtyPerPackage: 1}, now)
	defs := Definitions{Catalog: []PackageDefinition{kit}}
	building := Location{
		ID:       "bldg",
		Name:     "Building",
		Children: []Location{mixedLocation()},
	}
	b := Breakdown(building, defs)
	assert.Equal(t, Summary{}, b.Direct)
	assert.Equal(t, Aggregate(building, defs), b.Total)
	assert.Equal(t, 1, b.Stale)
	assert.Equal(t, 1, b.Missing)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "room-a", b.Children[0].ID)
	assert.Equal(t, b.Children[0].Total, b.Children[0].Direct)
}
