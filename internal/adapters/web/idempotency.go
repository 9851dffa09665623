package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"shopdesk/internal/cache"

	"github.com/google/uuid"
)

// IdempotencyStore remembers the outcome of requests sent with an Idempotency-Key.
// cache.RedisIdempotencyStore is the production implementation.
type IdempotencyStore interface {
	// Reserve holds key only briefly; Complete sets the replay lifetime.
	Reserve(ctx context.Context, key, fingerprint string) (*cache.Entry, error)
	Complete(ctx context.Context, key string, e cache.Entry, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Idempotent replays the stored response when a request repeats an Idempotency-Key
// with the same body. A key reused with a different body is rejected with 422; a key
// whose first request is still running gets 409. Only 2xx responses are stored, so a
// failed attempt may be retried under the same key. Store outages fail open.
func (h *Handler) Idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if h.idem == nil || key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !validRequestID.MatchString(key) {
			writeError(w, r, "Idempotency-Key must be 1-64 letters, digits, or hyphens", "BAD_REQUEST", http.StatusBadRequest)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
				return
			}
			writeError(w, r, "failed to read request body", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		fingerprint := uuid.NewSHA1(uuid.NameSpaceOID, body).String()
		scoped := fmt.Sprintf("%d:%s:%s", accountID(r), r.URL.Path, key)

		existing, err := h.idem.Reserve(r.Context(), scoped, fingerprint)
		switch {
		case errors.Is(err, cache.ErrInFlight):
			writeError(w, r, "a request with this Idempotency-Key is still in progress", "IDEMPOTENCY_IN_PROGRESS", http.StatusConflict)
			return
		case err != nil:
			log.Printf("request %s: idempotency store unavailable: %v", requestIDFromContext(r.Context()), err)
			next.ServeHTTP(w, r)
			return
		case existing != nil:
			if existing.Fingerprint != fingerprint {
				writeError(w, r, "Idempotency-Key was already used with a different request body", "IDEMPOTENCY_KEY_REUSED", http.StatusUnprocessableEntity)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(existing.Status)
			_, _ = w.Write(existing.Body)
			return
		}

		rec := &bodyRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// The response is already written; store bookkeeping must not depend on the client.
		ctx := context.WithoutCancel(r.Context())
		if rec.status >= 200 && rec.status < 300 {
			err = h.idem.Complete(ctx, scoped, cache.Entry{Fingerprint: fingerprint, Status: rec.status, Body: rec.buf.Bytes()}, h.idempotencyTTL)
		} else {
			err = h.idem.Release(ctx, scoped)
		}
		if err != nil {
			log.Printf("request %s: idempotency bookkeeping failed: %v", requestIDFromContext(r.Context()), err)
		}
	})
}

// bodyRecorder captures the status and a copy of the body while writing through.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.buf.Write(p)
	return r.ResponseWriter.Write(p)
}
