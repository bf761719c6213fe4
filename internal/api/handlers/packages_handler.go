package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/av-estimator/engine/internal/api/types"
	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/services"
)

type PackagesHandler struct {
	svc services.PackageService
}

func NewPackagesHandler(svc services.PackageService) *PackagesHandler {
	return &PackagesHandler{svc: svc}
}

// packageScope resolves the caller and the {packageID} path parameter.
func packageScope(r *http.Request) (packageID, userID uuid.UUID, err error) {
	if userID, err = currentUser(r); err != nil {
		return
	}
	packageID, err = uuidParam(r, "packageID")
	return
}

// ListCatalog lists the catalog-scope packages shared by every project.
func (h *PackagesHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListCatalogPackages(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, rows)
}

// ListForProject lists catalog packages followed by the project's own.
func (h *PackagesHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	pid, uid, err := projectScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rows, err := h.svc.ListPackages(r.Context(), pid, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, rows)
}

func (h *PackagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.PackageCreateRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	input := &services.CreatePackageInput{Name: req.Name, Scope: req.Scope, Lines: req.Lines}
	if req.ProjectID != "" {
		pid, err := parseUUID(req.ProjectID, "project_id")
		if err != nil {
			fail(w, r, err)
			return
		}
		input.ProjectID = &pid
	}
	def, err := h.svc.CreatePackage(r.Context(), uid, input)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, def)
}

func (h *PackagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	def, err := h.svc.GetPackage(r.Context(), id, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, def)
}

func (h *PackagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.DeletePackage(r.Context(), id, uid); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PackagesHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var line estimate.ComponentLine
	if err := decode(w, r, &line); err != nil {
		fail(w, r, err)
		return
	}
	def, err := h.svc.AddLine(r.Context(), id, uid, line)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, def)
}

// AddCatalogLine appends a line copied from a catalog item.
func (h *PackagesHandler) AddCatalogLine(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.CatalogLineRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	itemID, err := parseUUID(req.CatalogItemID, "catalog_item_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	def, err := h.svc.AddCatalogLine(r.Context(), id, uid, itemID, req.QtyPerPackage)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, def)
}

func (h *PackagesHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	idx, err := intParam(r, "index")
	if err != nil {
		fail(w, r, err)
		return
	}
	var line estimate.ComponentLine
	if err := decode(w, r, &line); err != nil {
		fail(w, r, err)
		return
	}
	def, err := h.svc.UpdateLine(r.Context(), id, uid, idx, line)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, def)
}

func (h *PackagesHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	idx, err := intParam(r, "index")
	if err != nil {
		fail(w, r, err)
		return
	}
	def, err := h.svc.RemoveLine(r.Context(), id, uid, idx)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, def)
}

func (h *PackagesHandler) ReplaceLines(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.ReplaceLinesRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}
	def, err := h.svc.ReplaceLines(r.Context(), id, uid, req.Lines)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, def)
}

// Usage reports where the package is used in ?project_id= and how many of
// those instances are behind the current version.
func (h *PackagesHandler) Usage(w http.ResponseWriter, r *http.Request) {
	id, uid, err := packageScope(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	pid, err := parseUUID(r.URL.Query().Get("project_id"), "project_id")
	if err != nil {
		fail(w, r, err)
		return
	}
	usage, err := h.svc.Usage(r.Context(), id, pid, uid)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, usage)
}
