package web

import (
	"net/http"

	"shopdesk/internal/app"
)

func (h *Handler) apiDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context(), accountID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// apiSalesReport handles GET /api/analytics/sales-report?from=&to=&group_by=day|week|month.
func (h *Handler) apiSalesReport(w http.ResponseWriter, r *http.Request) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSalesReport(r.Context(), app.SalesReportRequest{
		AccountID: accountID(r),
		From:      from,
		To:        to,
		GroupBy:   r.URL.Query().Get("group_by"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
