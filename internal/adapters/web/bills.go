package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopdesk/internal/core"
)

// apiCreateBill handles POST /api/bills.
func (h *Handler) apiCreateBill(w http.ResponseWriter, r *http.Request) {
	var in core.CreateBillInput
	if !decodeJSON(w, r, &in) {
		return
	}
	bill, err := h.svc.CreateBill(r.Context(), accountID(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, bill)
}

// apiListBills handles GET /api/bills?status=&from=&to=&limit=.
func (h *Handler) apiListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	filter := core.BillFilter{Status: strings.ToLower(q.Get("status")), From: from, To: to}
	if filter.Status != "" && !core.ValidBillStatus(filter.Status) {
		writeError(w, r, "status must be one of: paid, pending, cancelled", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, r, "limit must be between 1 and 500", "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	result, err := h.svc.ListBills(r.Context(), accountID(r), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) apiGetBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bill, err := h.svc.GetBill(r.Context(), accountID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, bill)
}

// apiUpdateBillStatus handles PATCH /api/bills/{id}/status.
func (h *Handler) apiUpdateBillStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	bill, err := h.svc.UpdateBillStatus(r.Context(), accountID(r), id, body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, bill)
}

// dateRange reads the optional from/to query parameters. Both accept YYYY-MM-DD or
// RFC 3339. A date-only "to" covers that whole day. Writes a 400 and returns false
// on a malformed value.
func dateRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	q := r.URL.Query()
	var err error
	if from, err = parseTimeParam(q.Get("from"), false); err != nil {
		writeError(w, r, "from must be YYYY-MM-DD or RFC 3339", "VALIDATION_ERROR", http.StatusBadRequest)
		return nil, nil, false
	}
	if to, err = parseTimeParam(q.Get("to"), true); err != nil {
		writeError(w, r, "to must be YYYY-MM-DD or RFC 3339", "VALIDATION_ERROR", http.StatusBadRequest)
		return nil, nil, false
	}
	return from, to, true
}

func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
