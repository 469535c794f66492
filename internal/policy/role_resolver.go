package policy

import (
	"context"
	"errors"

	"github.com/vidanatural/farmacia-web/gate"
	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
)

// Resource types checked by the router.
const (
	ResourceSale        = "sale"
	ResourcePurchase    = "purchase"
	ResourceCustomer    = "customer"
	ResourceSupplier    = "supplier"
	ResourceProduct     = "product"
	ResourceBrand       = "brand"
	ResourceCategory    = "category"
	ResourceSubcategory = "subcategory"
	ResourceEmployee    = "employee"
	ResourceInvoice     = "invoice"
	ResourceTransaction = "transaction"
	ResourceDashboard   = "dashboard"
	ResourceReport      = "report"
)

// RoleProfiles maps each employee role to its permission profile.
// Administrators hold every permission.
var RoleProfiles = map[string]*gate.StaticProfile{
	models.RoleAdmin: gate.NewStaticProfile(models.RoleAdmin, gate.PermissionSuperAdmin),
	models.RoleEmployee: gate.NewStaticProfile(models.RoleEmployee,
		gate.NewPermission(ResourceSale, gate.WildcardAll),
		gate.NewPermission(ResourcePurchase, gate.WildcardAll),
		gate.NewPermission(ResourceCustomer, gate.WildcardAll),
		gate.NewPermission(ResourceProduct, gate.ActionList),
		gate.NewPermission(ResourceProduct, gate.ActionView),
		gate.NewPermission(ResourceSupplier, gate.ActionList),
		gate.NewPermission(ResourceSupplier, gate.ActionView),
		gate.NewPermission(ResourceBrand, gate.ActionList),
		gate.NewPermission(ResourceCategory, gate.ActionList),
		gate.NewPermission(ResourceSubcategory, gate.ActionList),
		gate.NewPermission(ResourceInvoice, gate.ActionView),
	),
}

// RoleResolver resolves an employee's profile from the role column.
// Inactive or unknown employees have no profile.
type RoleResolver struct {
	DB *gorm.DB
}

func NewRoleResolver(db *gorm.DB) *RoleResolver {
	return &RoleResolver{DB: db}
}

func (r *RoleResolver) Resolve(ctx context.Context, employeeID uint) (gate.Profile, error) {
	var e models.Employee
	err := r.DB.WithContext(ctx).Select("id", "role", "active").First(&e, employeeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !e.Active {
		return nil, nil
	}
	profile, ok := RoleProfiles[e.Role]
	if !ok {
		return nil, nil
	}
	return profile, nil
}
