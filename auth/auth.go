// Package auth handles employee sessions: a signed cookie carries the employee id
// and the resolved Identity travels in the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type ctxKey string

const (
	sessionCookieName = "session"
	employeeIDCtxKey  = ctxKey("employeeID")
	identityCtxKey    = ctxKey("identity")
	sessionLifetime   = 12 * time.Hour
)

// IdentityLoader resolves the identity behind a session.
// Returning a nil identity or an error ends the session.
type IdentityLoader func(ctx context.Context, employeeID uint) (*Identity, error)

var loader IdentityLoader

// SetIdentityLoader configures the loader used by RequireAuth.
func SetIdentityLoader(l IdentityLoader) { loader = l }

// Secret returns SESSION_SECRET or default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie with the employee id.
func CreateSession(w http.ResponseWriter, employeeID uint) {
	idStr := strconv.FormatUint(uint64(employeeID), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    idStr + "." + sign(idStr),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the employee id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	idStr, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return 0, false
	}
	if !hmac.Equal([]byte(sig), []byte(sign(idStr))) {
		return 0, false
	}
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id64 == 0 {
		return 0, false
	}
	return uint(id64), true
}

// WithEmployeeID stores the employee id in context.
func WithEmployeeID(ctx context.Context, employeeID uint) context.Context {
	return context.WithValue(ctx, employeeIDCtxKey, employeeID)
}

// EmployeeIDFromContext extracts the employee id.
func EmployeeIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(employeeIDCtxKey).(uint)
	return id, ok && id != 0
}

// WithIdentity stores the resolved identity (and its employee id) in context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = WithEmployeeID(ctx, id.EmployeeID)
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromContext returns the identity attached by RequireAuth.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(*Identity)
	return id, ok && id != nil
}

// Middleware attaches the employee id to the request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := ParseSession(r); ok {
			r = r.WithContext(WithEmployeeID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
// When an IdentityLoader is configured the identity must exist and be enabled.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employeeID, ok := EmployeeIDFromContext(r.Context())
		if !ok {
			unauthorized(w, r)
			return
		}
		if loader != nil {
			id, err := loader(r.Context(), employeeID)
			if err != nil || id == nil || !id.Enabled {
				// Session refers to a missing or disabled employee.
				ClearSession(w)
				unauthorized(w, r)
				return
			}
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
