package policy

import (
	"time"

	"github.com/vidanatural/farmacia-web/internal/handlers"
	"github.com/vidanatural/farmacia-web/internal/pdf"
	"github.com/vidanatural/farmacia-web/internal/services"
	"gorm.io/gorm"
)

const profileCacheTTL = 5 * time.Minute

// RouterConfig holds the configured services, handlers and authorization gate.
type RouterConfig struct {
	AuthGate *AuthGate

	AuthHandler        *handlers.AuthHandler
	CheckoutHandler    *handlers.CheckoutHandler
	AdminHandler       *handlers.AdminHandler
	FileHandler        *handlers.FileHandler
	ProductHandler     *handlers.ProductHandler
	CustomerHandler    *handlers.CustomerHandler
	SupplierHandler    *handlers.SupplierHandler
	BrandHandler       *handlers.BrandHandler
	CategoryHandler    *handlers.CategoryHandler
	SubcategoryHandler *handlers.SubcategoryHandler
	EmployeeHandler    *handlers.EmployeeHandler

	Accounts     *services.AccountService
	Transactions *services.TransactionService
}

// NewRouterConfig wires services and handlers. Invoices are written by renderer.
func NewRouterConfig(db *gorm.DB, renderer *pdf.Renderer) *RouterConfig {
	authGate := NewAuthGate(db, profileCacheTTL)

	accounts := services.NewAccountService(db)
	transactions := services.NewTransactionService(db, services.NewSerialAllocator(db), renderer)
	dashboard := services.NewDashboardService(db)

	return &RouterConfig{
		AuthGate:           authGate,
		AuthHandler:        handlers.NewAuthHandler(accounts, authGate.InvalidateEmployee),
		CheckoutHandler:    handlers.NewCheckoutHandler(db, transactions),
		AdminHandler:       handlers.NewAdminHandler(dashboard, transactions),
		FileHandler:        handlers.NewFileHandler(renderer),
		ProductHandler:     handlers.NewProductHandler(db),
		CustomerHandler:    handlers.NewCustomerHandler(db),
		SupplierHandler:    handlers.NewSupplierHandler(db),
		BrandHandler:       handlers.NewBrandHandler(db),
		CategoryHandler:    handlers.NewCategoryHandler(db),
		SubcategoryHandler: handlers.NewSubcategoryHandler(db),
		EmployeeHandler:    handlers.NewEmployeeHandler(db, authGate.InvalidateEmployee),
		Accounts:           accounts,
		Transactions:       transactions,
	}
}
