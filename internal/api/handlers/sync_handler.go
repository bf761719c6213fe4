package handlers

import (
	"net/http"

	"github.com/av-estimator/engine/internal/api/types"
	"github.com/av-estimator/engine/internal/services"
)

type SyncHandler struct {
	svc services.SyncService
}

func NewSyncHandler(svc services.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// Sync brings instances of a package up to its current version, either in
// one project synchronously or in every project through background jobs.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.SyncRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	if req.AllProjects {
		jobs, err := h.svc.SyncEverywhere(r.Context(), id, uid)
		if err != nil {
			fail(w, r, err)
			return
		}
		ok(w, r, http.StatusAccepted, map[string]any{"jobs": jobs})
		return
	}

	pid, err := parseUUID(req.ProjectID, "project_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	report, err := h.svc.SyncForUser(r.Context(), pid, id, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, report)
}

func (h *SyncHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	jobs, err := h.svc.ListJobs(r.Context(), id, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, jobs)
}
