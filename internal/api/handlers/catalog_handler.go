package handlers

import (
	"net/http"
	"strconv"

	"github.com/av-estimator/engine/internal/api/types"
	"github.com/av-estimator/engine/internal/estimate"
	"github.com/av-estimator/engine/internal/services"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 200
)

type CatalogHandler struct {
	svc services.CatalogService
}

func NewCatalogHandler(svc services.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Search lists catalog items whose manufacturer, model, part number or
// description contains ?q=. A blank query lists every active item.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit := defaultSearchLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeErrorStr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	items, err := h.svc.SearchItems(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Data:    items,
		Meta:    &types.Meta{PageSize: limit, Total: int64(len(items))},
	})
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "itemID")
	if err != nil {
		fail(w, r, err)
		return
	}
	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, item)
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.readInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	item, err := h.svc.CreateItem(r.Context(), input)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusCreated, item)
}

func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "itemID")
	if err != nil {
		fail(w, r, err)
		return
	}
	input, err := h.readInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), id, input)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, http.StatusOK, item)
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "itemID")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) readInput(w http.ResponseWriter, r *http.Request) (*services.CatalogItemInput, error) {
	var req types.CatalogItemRequest
	if err := decode(w, r, &req); err != nil {
		return nil, err
	}
	accessories := make([]estimate.DefaultAccessory, 0, len(req.DefaultAccessories))
	for _, a := range req.DefaultAccessories {
		accessories = append(accessories, estimate.DefaultAccessory{CatalogID: a.CatalogID, QtyPerUnit: estimate.Number(a.QtyPerUnit)})
	}
	return &services.CatalogItemInput{
		Manufacturer:       req.Manufacturer,
		Model:              req.Model,
		PartNumber:         req.PartNumber,
		Description:        req.Description,
		Category:           req.Category,
		Subcategory:        req.Subcategory,
		UnitCost:           req.UnitCost,
		LaborHrsPerUnit:    req.LaborHrsPerUnit,
		UnitOfMeasure:      req.UnitOfMeasure,
		Vendor:             req.Vendor,
		Discontinued:       req.Discontinued,
		DefaultAccessories: accessories,
	}, nil
}
