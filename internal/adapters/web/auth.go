package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopdesk/internal/app"
	"shopdesk/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const authCookie = "auth_token"

type authClaimsKey struct{}

// AuthClaims holds the authenticated account's identity extracted from the JWT.
type AuthClaims struct {
	AccountID int
	Email     string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// accountID returns the authenticated account id. Only valid behind RequireAuth.
func accountID(r *http.Request) int {
	if c := authFromContext(r.Context()); c != nil {
		return c.AccountID
	}
	return 0
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	AccountID int    `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// tokenFromRequest prefers an Authorization: Bearer header and falls back to the cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if cookie, err := r.Cookie(authCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *Handler) parseToken(raw string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.AccountID <= 0 {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RequireAuth is chi middleware that validates the bearer token or auth_token cookie
// and injects AuthClaims into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims, err := h.parseToken(raw)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsKey{}, &AuthClaims{
			AccountID: claims.AccountID,
			Email:     claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// issueToken signs a token for session and sets it as the auth cookie.
func (h *Handler) issueToken(w http.ResponseWriter, session *app.AccountSession) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		AccountID: session.AccountID,
		Email:     session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})
	return signed, nil
}

type sessionResponse struct {
	Token   string              `json:"token"`
	Account *app.AccountSession `json:"account"`
}

// register handles POST /api/auth/register.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req core.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.issueToken(w, session)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sessionResponse{Token: token, Account: session})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, r, "email and password are required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	session, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.issueToken(w, session)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, sessionResponse{Token: token, Account: session})
}

// logout handles POST /api/auth/logout by clearing the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetAccount(r.Context(), accountID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, account)
}

// updateProfile handles PUT /api/auth/profile.
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in core.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	account, err := h.svc.UpdateProfile(r.Context(), accountID(r), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, account)
}
