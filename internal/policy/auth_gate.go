package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/gate"
	"github.com/vidanatural/farmacia-web/httpx"
	"github.com/vidanatural/farmacia-web/i18n"
	"gorm.io/gorm"
)

// AuthGate is the application's authorization point: role profiles resolved
// per employee and cached.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates the gate with profiles cached for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewRoleResolver(db), cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cached),
		CacheResolver: cached,
	}
}

// Authorize checks the employee in ctx against action on resourceType.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string) error {
	employeeID, ok := auth.EmployeeIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, employeeID, action, resourceType)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	return ag.Authorize(ctx, action, resourceType) == nil
}

// IsAdmin reports whether the employee in ctx holds every permission.
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	employeeID, ok := auth.EmployeeIDFromContext(ctx)
	return ok && ag.Gate.IsSuperAdmin(ctx, employeeID)
}

// InvalidateEmployee drops the cached profile after a role or status change.
func (ag *AuthGate) InvalidateEmployee(employeeID uint) {
	ag.CacheResolver.Invalidate(employeeID)
}

// RequirePermission returns middleware rejecting employees without the permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), action, resourceType); err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets administrators through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			employeeID, ok := auth.EmployeeIDFromContext(r.Context())
			if !ok {
				deny(w, r, gate.ErrUnauthorized)
				return
			}
			if !ag.Gate.IsSuperAdmin(r.Context(), employeeID) {
				deny(w, r, gate.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusForbidden
	if errors.Is(err, gate.ErrUnauthorized) {
		status = http.StatusUnauthorized
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, http.StatusText(status), nil)
		return
	}
	if status == http.StatusUnauthorized {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	httpx.Redirect(w, r, "/", httpx.Flash{Error: i18n.T(i18n.LangFrom(r.Context()), "forbidden")})
}
