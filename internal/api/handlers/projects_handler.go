package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/av-estimator/engine/internal/api/types"
	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/services"
)

type ProjectsHandler struct {
	svc services.ProjectService
}

func NewProjectsHandler(svc services.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{svc: svc}
}

// projectScope resolves the caller and the {projectID} path parameter.
func projectScope(r *http.Request) (projectID, userID uuid.UUID, err error) {
	if userID, err = currentUser(r); err != nil {
		return
	}
	projectID, err = uuidParam(r, "projectID")
	return
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	projects, err := h.svc.ListProjects(r.Context(), uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    projects,
		Meta:    &types.Meta{Total: int64(len(projects))},
	})
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.ProjectCreateRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.CreateProject(r.Context(), uid, &services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Locations:   req.Locations,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, p)
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.GetProject(r.Context(), pid, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.ProjectUpdateRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.UpdateProject(r.Context(), pid, uid, &services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, p)
}

func (h *ProjectsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.ArchiveProject(r.Context(), pid, uid); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.DeleteProject(r.Context(), pid, uid); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) GetLocations(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	f, err := h.svc.GetForest(r.Context(), pid, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	okCached(w, r, f)
}

// PutLocations replaces the whole location tree.
func (h *ProjectsHandler) PutLocations(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.ForestRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	f, err := h.svc.SaveForest(r.Context(), pid, uid, estimate.Forest{Roots: req.Locations})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, f)
}

// AddItem adds a catalog item, with its default accessories, to a location.
func (h *ProjectsHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.AddItemRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	itemID, err := parseUUID(req.CatalogItemID, "catalog_item_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	loc, err := h.svc.AddCatalogItem(r.Context(), pid, uid, &services.AddCatalogItemInput{
		LocationID:    req.LocationID,
		CatalogItemID: itemID,
		Qty:           req.Qty,
		Notes:         req.Notes,
		PackageName:   req.PackageName,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, loc)
}

// AddInstance places a package instance, stamped with the definition's
// current version, in a location.
func (h *ProjectsHandler) AddInstance(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.AddInstanceRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	pkgID, err := parseUUID(req.PackageID, "package_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	loc, err := h.svc.AddPackageInstance(r.Context(), pid, uid, &services.AddPackageInstanceInput{
		LocationID: req.LocationID,
		PackageID:  pkgID,
		Qty:        req.Qty,
		Notes:      req.Notes,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, loc)
}

// SaveSelection turns selected standalone items into a project package and
// replaces them with one instance of it.
func (h *ProjectsHandler) SaveSelection(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.SaveSelectionRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	def, loc, err := h.svc.SaveSelectionAsPackage(r.Context(), pid, uid, &services.SaveSelectionInput{
		LocationID: req.LocationID,
		Indices:    req.Indices,
		Name:       req.Name,
		Notes:      req.Notes,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, map[string]any{
		"package":  def,
		"location": loc,
	})
}
