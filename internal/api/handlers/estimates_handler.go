package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/av-estimator/engine/internal/api/types"
	"github.com/av-estimator/engine/internal/services"
)

type EstimatesHandler struct {
	svc services.EstimateService
}

func NewEstimatesHandler(svc services.EstimateService) *EstimatesHandler {
	return &EstimatesHandler{svc: svc}
}

// Estimate prices the project's location tree, optionally narrowed by ?q=.
// Responses carry an ETag so polling clients can revalidate cheaply.
func (h *EstimatesHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.svc.Estimate(r.Context(), pid, uid, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		fail(w, r, err)
		return
	}
	okCached(w, r, types.EstimateView{
		ProjectID: res.ProjectID.String(),
		Query:     res.Query,
		Total:     types.NewSummaryView(res.Total),
		Stale:     res.Stale,
		Missing:   res.Missing,
		Locations: types.NewLocationViews(res.Locations),
	})
}

// Groups shows one location's items as package instances, legacy groups and
// standalone items.
func (h *EstimatesHandler) Groups(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	g, err := h.svc.LocationGroups(r.Context(), pid, uid, chi.URLParam(r, "locationID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	okCached(w, r, types.LocationGroupsView{
		LocationID: g.LocationID,
		Name:       g.Name,
		Groups:     g.Groups,
		Direct:     types.NewSummaryView(g.Direct),
		Total:      types.NewSummaryView(g.Total),
	})
}
