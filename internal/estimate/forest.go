package estimate

import (
	"errors"
	"fmt"
)

// ErrInvalidForest means the caller handed over something that is not a
// forest of uniquely identified locations.
var ErrInvalidForest = errors.New("invalid location forest")

// Forest is the ordered set of root locations of a project.
type Forest struct {
	Roots []Location `json:"locations" yaml:"locations"`
}

// Validate checks that every location has a non-empty id that is unique
// across the whole forest.
func (f Forest) Validate() error {
	seen := map[string]struct{}{}
	var err error
	f.Walk(func(loc *Location, _ int) bool {
		if loc.ID == "" {
			err = fmt.Errorf("%w: location %q has no id", ErrInvalidForest, loc.Name)
			return false
		}
		if _, dup := seen[loc.ID]; dup {
			err = fmt.Errorf("%w: duplicate location id %q", ErrInvalidForest, loc.ID)
			return false
		}
		seen[loc.ID] = struct{}{}
		return true
	})
	return err
}

// Walk visits every location in pre-order with its depth (roots are depth 0).
// It uses an explicit stack so adversarially deep trees cannot exhaust the
// goroutine stack. Returning false from fn stops the walk. fn may modify the
// location's items but must not add or remove children.
func (f Forest) Walk(fn func(loc *Location, depth int) bool) {
	type frame struct {
		loc   *Location
		depth int
	}
	stack := make([]frame, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{loc: &f.Roots[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.loc, top.depth) {
			return
		}
		for i := len(top.loc.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{loc: &top.loc.Children[i], depth: top.depth + 1})
		}
	}
}

// Index maps location ids to the locations inside f. The pointers alias f.
func (f Forest) Index() map[string]*Location {
	idx := map[string]*Location{}
	f.Walk(func(loc *Location, _ int) bool {
		idx[loc.ID] = loc
		return true
	})
	return idx
}

// Find returns the location with the given id.
func (f Forest) Find(id string) (*Location, bool) {
	var found *Location
	f.Walk(func(loc *Location, _ int) bool {
		if loc.ID == id {
			found = loc
			return false
		}
		return true
	})
	return found, found != nil
}

// Clone deep-copies the forest so the copy can be rewritten without touching
// the original.
func (f Forest) Clone() Forest {
	if f.Roots == nil {
		return Forest{}
	}
	out := Forest{Roots: make([]Location, len(f.Roots))}
	for i := range f.Roots {
		out.Roots[i] = cloneLocation(f.Roots[i])
	}
	return out
}

func cloneLocation(loc Location) Location {
	c := loc
	if loc.Items != nil {
		c.Items = make([]Item, len(loc.Items))
		for i, it := range loc.Items {
			c.Items[i] = cloneItem(it)
		}
	}
	if loc.Children != nil {
		c.Children = make([]Location, len(loc.Children))
		for i := range loc.Children {
			c.Children[i] = cloneLocation(loc.Children[i])
		}
	}
	return c
}

func cloneItem(it Item) Item {
	c := it
	if it.Accessories != nil {
		c.Accessories = append([]Accessory(nil), it.Accessories...)
	}
	if it.StoredVersion != nil {
		v := *it.StoredVersion
		c.StoredVersion = &v
	}
	return c
}
