package estimate

// LineTotal returns the extended cost and labor of an item including its
// accessories. Malformed numbers count as zero.
func LineTotal(it Item) Totals {
	qty := it.Qty.Float()
	t := Totals{
		Cost:  qty * it.UnitCost.Float(),
		Labor: qty * it.LaborHrsPerUnit.Float(),
	}
	for _, acc := range it.Accessories {
		t = t.Add(AccessoryTotal(acc))
	}
	return t
}

// AccessoryTotal returns one accessory's own extended cost and labor.
func AccessoryTotal(acc Accessory) Totals {
	qty := acc.Qty.Float()
	return Totals{
		Cost:  qty * acc.UnitCost.Float(),
		Labor: qty * acc.LaborHrsPerUnit.Float(),
	}
}

// ItemCount is what a standalone or legacy-grouped item contributes to a
// location's item count: the item itself plus each accessory.
func ItemCount(it Item) int {
	return 1 + len(it.Accessories)
}
