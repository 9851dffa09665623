package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"shopdesk/internal/app"

	"github.com/go-chi/chi/v5"
)

// Options configures NewHandler. Idempotency may be nil, which disables
// Idempotency-Key handling.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	TokenTTL       time.Duration
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
}

// Handler holds the ApplicationService, the chi router, and the auth settings.
type Handler struct {
	svc            app.ApplicationService
	router         chi.Router
	jwtSecret      string
	tokenTTL       time.Duration
	idem           IdempotencyStore
	idempotencyTTL time.Duration
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}

	h := &Handler{
		svc:            svc,
		jwtSecret:      opts.JWTSecret,
		tokenTTL:       opts.TokenTTL,
		idem:           opts.Idempotency,
		idempotencyTTL: opts.IdempotencyTTL,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)
		r.Put("/api/auth/profile", h.updateProfile)

		// ── Products ──────────────────────────────────────────────────────────
		r.Get("/api/products", h.apiListProducts)
		r.Post("/api/products", h.apiCreateProduct)
		r.Get("/api/products/categories", h.apiListCategories)
		r.Get("/api/products/alerts/low-stock", h.apiLowStock)
		r.Patch("/api/products/bulk/quantity", h.apiBulkAdjustQuantity)
		r.Get("/api/products/{id}", h.apiGetProduct)
		r.Put("/api/products/{id}", h.apiUpdateProduct)
		r.Delete("/api/products/{id}", h.apiDeleteProduct)
		r.Patch("/api/products/{id}/quantity", h.apiAdjustQuantity)
		r.Get("/api/products/{id}/movements", h.apiListMovements)

		// ── Bills ─────────────────────────────────────────────────────────────
		r.With(h.Idempotent).Post("/api/bills", h.apiCreateBill)
		r.Get("/api/bills", h.apiListBills)
		r.Get("/api/bills/{id}", h.apiGetBill)
		r.Patch("/api/bills/{id}/status", h.apiUpdateBillStatus)

		// ── Analytics ─────────────────────────────────────────────────────────
		r.Get("/api/analytics/dashboard", h.apiDashboard)
		r.Get("/api/analytics/sales-report", h.apiSalesReport)
	})

	h.router = r
	return r
}

// health returns service status and database reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}

	if err := h.svc.Ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Database: "ok"})
}

// pathID parses the {id} URL parameter. It writes a 400 and returns false when
// the value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
