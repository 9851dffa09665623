package web

import (
	"net/http"

	"shopdesk/internal/app"
	"shopdesk/internal/core"
)

// apiListProducts handles GET /api/products?category=&stock_status=.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.ProductFilter{
		Category:    q.Get("category"),
		StockStatus: core.StockStatus(q.Get("stock_status")),
	}
	result, err := h.svc.ListProducts(r.Context(), accountID(r), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateProduct handles POST /api/products.
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in core.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), accountID(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

func (h *Handler) apiGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), accountID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiUpdateProduct handles PUT /api/products/{id}; the body replaces every editable field.
func (h *Handler) apiUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in core.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), accountID(r), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiDeleteProduct handles DELETE /api/products/{id} as a soft delete.
func (h *Handler) apiDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeactivateProduct(r.Context(), accountID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"message": "product deleted"})
}

// apiAdjustQuantity handles PATCH /api/products/{id}/quantity.
func (h *Handler) apiAdjustQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Quantity  *int   `json:"quantity"`
		Operation string `json:"operation"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Quantity == nil {
		writeError(w, r, "quantity is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	p, err := h.svc.AdjustStock(r.Context(), app.AdjustStockRequest{
		AccountID: accountID(r),
		ProductID: id,
		Operation: body.Operation,
		Quantity:  *body.Quantity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// apiBulkAdjustQuantity handles PATCH /api/products/bulk/quantity. Items that fail
// are reported in the results without failing the request.
func (h *Handler) apiBulkAdjustQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Updates []core.BulkAdjustItem `json:"updates"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	result, err := h.svc.BulkAdjustStock(r.Context(), accountID(r), body.Updates)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) apiListMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListMovements(r.Context(), accountID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) apiListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context(), accountID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string][]string{"categories": categories})
}

func (h *Handler) apiLowStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LowStock(r.Context(), accountID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
