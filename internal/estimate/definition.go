package estimate

import (
	"errors"
	"strings"
	"time"
)

// ErrLineIndex is returned when a line edit addresses a line that does not exist.
var ErrLineIndex = errors.New("component line index out of range")

// NewPackageDefinition returns a definition at version 1.
func NewPackageDefinition(id, name string, scope Scope, lines []ComponentLine, now time.Time) PackageDefinition {
	return PackageDefinition{
		ID:        id,
		Name:      name,
		Scope:     scope,
		Version:   1,
		Items:     append([]ComponentLine(nil), lines...),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Every mutation of Items goes through bump: the version is the only
// staleness signal instances have.
func (d *PackageDefinition) bump(now time.Time) {
	d.Version++
	d.UpdatedAt = now
}

// AddLine appends a component line.
func (d *PackageDefinition) AddLine(line ComponentLine, now time.Time) {
	d.Items = append(d.Items, line)
	d.bump(now)
}

// UpdateLine replaces the line at index i.
func (d *PackageDefinition) UpdateLine(i int, line ComponentLine, now time.Time) error {
	if i < 0 || i >= len(d.Items) {
		return ErrLineIndex
	}
	d.Items[i] = line
	d.bump(now)
	return nil
}

// RemoveLine deletes the line at index i.
func (d *PackageDefinition) RemoveLine(i int, now time.Time) error {
	if i < 0 || i >= len(d.Items) {
		return ErrLineIndex
	}
	d.Items = append(d.Items[:i:i], d.Items[i+1:]...)
	d.bump(now)
	return nil
}

// ReplaceLines swaps the whole line list.
func (d *PackageDefinition) ReplaceLines(lines []ComponentLine, now time.Time) {
	d.Items = append([]ComponentLine(nil), lines...)
	d.bump(now)
}

// Precedence decides which scope wins when an instance only matches by name
// and both collections hold a definition with that name.
type Precedence int

const (
	PrecedenceCatalog Precedence = iota
	PrecedenceProject
)

// ParsePrecedence maps "catalog" and "project" to a Precedence. Anything else
// yields the catalog default.
func ParsePrecedence(s string) Precedence {
	if strings.EqualFold(strings.TrimSpace(s), string(ScopeProject)) {
		return PrecedenceProject
	}
	return PrecedenceCatalog
}

// Definitions holds the two definition collections a resolution runs against.
type Definitions struct {
	Catalog    []PackageDefinition
	Project    []PackageDefinition
	Precedence Precedence
}

// Find returns the definition an instance refers to. An instance carrying an
// id resolves by id only (catalog, then project), so one whose definition was
// deleted stays missing. Only instances without an id match by name, in
// precedence order.
func (d Definitions) Find(ref InstanceRef) (*PackageDefinition, bool) {
	if ref.ID != "" {
		return d.ByID(ref.ID)
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, false
	}
	first, second := d.Catalog, d.Project
	if d.Precedence == PrecedenceProject {
		first, second = d.Project, d.Catalog
	}
	if def := findByName(first, name); def != nil {
		return def, true
	}
	if def := findByName(second, name); def != nil {
		return def, true
	}
	return nil, false
}

// ByID looks a definition up by id in either collection.
func (d Definitions) ByID(id string) (*PackageDefinition, bool) {
	if def := findByID(d.Catalog, id); def != nil {
		return def, true
	}
	if def := findByID(d.Project, id); def != nil {
		return def, true
	}
	return nil, false
}

func findByID(defs []PackageDefinition, id string) *PackageDefinition {
	for i := range defs {
		if defs[i].ID == id {
			return &defs[i]
		}
	}
	return nil
}

func findByName(defs []PackageDefinition, name string) *PackageDefinition {
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i]
		}
	}
	return nil
}
