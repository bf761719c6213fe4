package types

import (
	"github.com/shopspring/decimal"

	"github.com/av-estimator/engine/internal/estimate"
)

const amountPlaces = 2

// Amount rounds a cost or labor figure to cents for the wire.
func Amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(amountPlaces)
}

type SummaryView struct {
	Cost      decimal.Decimal `json:"cost"`
	Labor     decimal.Decimal `json:"labor"`
	ItemCount int             `json:"item_count"`
}

func NewSummaryView(s estimate.Summary) SummaryView {
	return SummaryView{Cost: Amount(s.Cost), Labor: Amount(s.Labor), ItemCount: s.ItemCount}
}

type LocationView struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Path     string         `json:"path,omitempty"`
	Total    SummaryView    `json:"total"`
	Direct   SummaryView    `json:"direct"`
	Stale    int            `json:"stale"`
	Missing  int            `json:"missing"`
	Children []LocationView `json:"children,omitempty"`
}

func NewLocationViews(in []estimate.LocationSummary) []LocationView {
	out := make([]LocationView, 0, len(in))
	for _, ls := range in {
		out = append(out, LocationView{
			ID:       ls.ID,
			Name:     ls.Name,
			Path:     ls.Path,
			Total:    NewSummaryView(ls.Total),
			Direct:   NewSummaryView(ls.Direct),
			Stale:    ls.Stale,
			Missing:  ls.Missing,
			Children: childViews(ls.Children),
		})
	}
	return out
}

func childViews(in []estimate.LocationSummary) []LocationView {
	if len(in) == 0 {
		return nil
	}
	return NewLocationViews(in)
}

type EstimateView struct {
	ProjectID string         `json:"project_id"`
	Query     string         `json:"query,omitempty"`
	Total     SummaryView    `json:"total"`
	Stale     int            `json:"stale"`
	Missing   int            `json:"missing"`
	Locations []LocationView `json:"locations"`
}

type LocationGroupsView struct {
	LocationID string           `json:"location_id"`
	Name       string           `json:"name"`
	Groups     estimate.Grouped `json:"groups"`
	Direct     SummaryView      `json:"direct"`
	Total      SummaryView      `json:"total"`
}
