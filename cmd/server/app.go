package main

import (
	"net/http"

	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/gate"
	"github.com/vidanatural/farmacia-web/httpx"
	"github.com/vidanatural/farmacia-web/internal/metrics"
	"github.com/vidanatural/farmacia-web/internal/middleware"
	"github.com/vidanatural/farmacia-web/internal/policy"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates the application with all routes configured. /metrics is
// only exposed when withMetrics is set.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, withMetrics bool) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	if withMetrics {
		app.mux.Handle("GET /metrics", metrics.Handler())
	}
	app.handler = middleware.Chain(app.mux,
		middleware.Recover,
		middleware.Logging,
		middleware.Prefs,
		auth.Middleware,
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// catalogRoutes are the five operations every catalog resource exposes.
type catalogRoutes interface {
	List(http.ResponseWriter, *http.Request)
	View(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("GET /{$}", a.home)
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.HandleFunc("GET /login", ah.LoginPage)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /logout", ah.Logout)
	a.mux.HandleFunc("POST /logout", ah.Logout)
	a.mux.HandleFunc("GET /registro", ah.LoginPage)
	a.mux.HandleFunc("POST /registro", ah.Register)
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /perfil", a.requireAuth(http.HandlerFunc(ah.Profile)))
	a.mux.Handle("POST /perfil", a.requireAuth(http.HandlerFunc(ah.UpdateProfile)))

	ch := a.routerCfg.CheckoutHandler
	a.mux.Handle("GET /facturas/ventas", a.permitted(policy.ResourceSale, gate.ActionView, ch.SaleForm))
	a.mux.Handle("POST /facturas/nueva-venta", a.permitted(policy.ResourceSale, gate.ActionIssue, ch.CreateSale))
	a.mux.Handle("GET /facturas/compras", a.permitted(policy.ResourcePurchase, gate.ActionView, ch.PurchaseForm))
	a.mux.Handle("POST /facturas/nueva-compra", a.permitted(policy.ResourcePurchase, gate.ActionIssue, ch.CreatePurchase))

	fh := a.routerCfg.FileHandler
	a.mux.Handle("GET /archivos/{category}/{filename}", a.permitted(policy.ResourceInvoice, gate.ActionView, fh.Serve))
	a.mux.Handle("GET /files/{category}/{filename}", a.permitted(policy.ResourceInvoice, gate.ActionView, fh.Serve))

	a.catalog("/productos", policy.ResourceProduct, a.routerCfg.ProductHandler)
	a.catalog("/clientes", policy.ResourceCustomer, a.routerCfg.CustomerHandler)
	a.catalog("/proveedores", policy.ResourceSupplier, a.routerCfg.SupplierHandler)
	a.catalog("/marcas", policy.ResourceBrand, a.routerCfg.BrandHandler)
	a.catalog("/categorias", policy.ResourceCategory, a.routerCfg.CategoryHandler)
	a.catalog("/subcategorias", policy.ResourceSubcategory, a.routerCfg.SubcategoryHandler)

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes
	// ─────────────────────────────────────────────────────────────────────────
	adm := a.routerCfg.AdminHandler
	a.mux.Handle("GET /admin/dashboard", a.requireAdmin(http.HandlerFunc(adm.Dashboard)))
	a.mux.Handle("GET /admin/reportes", a.requireAdmin(http.HandlerFunc(adm.Reports)))
	a.mux.Handle("POST /admin/transacciones/{id}/eliminar", a.requireAdmin(http.HandlerFunc(ch.DeleteTransaction)))
	a.catalog("/admin/empleados", policy.ResourceEmployee, a.routerCfg.EmployeeHandler)
}

// catalog registers list, view, create, update and delete under prefix.
// Updates also answer PUT and deletes DELETE, next to the form-friendly POST routes.
func (a *App) catalog(prefix, resource string, h catalogRoutes) {
	a.mux.Handle("GET "+prefix, a.permitted(resource, gate.ActionList, h.List))
	a.mux.Handle("POST "+prefix, a.permitted(resource, gate.ActionCreate, h.Create))
	a.mux.Handle("GET "+prefix+"/{id}", a.permitted(resource, gate.ActionView, h.View))
	a.mux.Handle("POST "+prefix+"/{id}", a.permitted(resource, gate.ActionUpdate, h.Update))
	a.mux.Handle("PUT "+prefix+"/{id}", a.permitted(resource, gate.ActionUpdate, h.Update))
	a.mux.Handle("POST "+prefix+"/{id}/eliminar", a.permitted(resource, gate.ActionDelete, h.Delete))
	a.mux.Handle("DELETE "+prefix+"/{id}", a.permitted(resource, gate.ActionDelete, h.Delete))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth demands an active employee session.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requireAdmin demands an administrator session.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequireAdmin()(next))
}

// permitted demands a session whose role grants action on resource.
func (a *App) permitted(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.requireAuth(a.routerCfg.AuthGate.RequirePermission(resource, action)(h))
}

// ─────────────────────────────────────────────────────────────────────────────
// Page handlers
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.EmployeeIDFromContext(r.Context()); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if a.routerCfg.AuthGate.IsAdmin(r.Context()) {
		http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/facturas/ventas", http.StatusSeeOther)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
