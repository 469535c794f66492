package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/validation"
	"gorm.io/gorm"
)

func formInt(form url.Values, key string, v validation.Violations) int64 {
	s := strings.TrimSpace(form.Get(key))
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v[key] = "invalid_number"
	}
	return n
}

func formUint(form url.Values, key string, v validation.Violations) uint {
	n := formInt(form, key, v)
	if n < 0 {
		v[key] = "invalid_number"
		return 0
	}
	return uint(n)
}

func formDecimal(form url.Values, key string, v validation.Violations) decimal.Decimal {
	s := strings.TrimSpace(form.Get(key))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		v[key] = "invalid_number"
	}
	return d
}

func optionalUint(n uint) *uint {
	if n == 0 {
		return nil
	}
	return &n
}

// ProductHandler serves /productos.
type ProductHandler struct{ resource[models.Product] }

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{resource[models.Product]{
		db:      db,
		path:    "/productos",
		preload: []string{"Brand", "Subcategory.Category", "Supplier"},
		order:   "name",
		search:  []string{"name", "code"},
		fromForm: func(f url.Values) (models.Product, validation.Violations) {
			v := validation.Violations{}
			return models.Product{
				Code:          f.Get("code"),
				Name:          strings.TrimSpace(f.Get("name")),
				Description:   f.Get("description"),
				PurchasePrice: formDecimal(f, "purchase_price", v),
				SalePrice:     formDecimal(f, "sale_price", v),
				Stock:         int(formInt(f, "stock", v)),
				SubcategoryID: formUint(f, "subcategory_id", v),
				BrandID:       formUint(f, "brand_id", v),
				SupplierID:    optionalUint(formUint(f, "supplier_id", v)),
				Presentation:  f.Get("presentation"),
				Status:        f.Get("status"),
				VAT:           int(formInt(f, "vat", v)),
			}, v
		},
		validate: func(p *models.Product, v validation.Violations) {
			p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
			validation.ProductCode("code", p.Code, v)
			validation.Required("name", p.Name, v)
			validation.MaxLen("name", p.Name, 100, v)
			validation.PositiveDecimal("purchase_price", p.PurchasePrice, v)
			validation.PositiveDecimal("sale_price", p.SalePrice, v)
			if p.Stock < 0 {
				v["stock"] = "must_be_positive"
			}
			validation.RangeInt("vat", p.VAT, 0, 100, v)
			if p.SubcategoryID == 0 {
				v["subcategory_id"] = "required"
			}
			if p.BrandID == 0 {
				v["brand_id"] = "required"
			}
		},
		id:    func(p *models.Product) uint { return p.ID },
		setID: func(p *models.Product, id uint) { p.ID = id },
	}}
}

// CustomerHandler serves /clientes.
type CustomerHandler struct{ resource[models.Customer] }

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{resource[models.Customer]{
		db:     db,
		path:   "/clientes",
		order:  "name",
		search: []string{"name", "email"},
		fromForm: func(f url.Values) (models.Customer, validation.Violations) {
			v := validation.Violations{}
			return models.Customer{
				NationalID: formInt(f, "national_id", v),
				Name:       strings.TrimSpace(f.Get("name")),
				Email:      strings.TrimSpace(f.Get("email")),
				Phone:      strings.TrimSpace(f.Get("phone")),
			}, v
		},
		validate: func(c *models.Customer, v validation.Violations) {
			validation.PositiveInt("national_id", c.NationalID, v)
			validation.Required("name", c.Name, v)
			if c.Email != "" {
				validation.Email("email", c.Email, v)
			}
			if c.Phone != "" {
				validation.Phone("phone", c.Phone, v)
			}
		},
		id:    func(c *models.Customer) uint { return c.ID },
		setID: func(c *models.Customer, id uint) { c.ID = id },
	}}
}

// SupplierHandler serves /proveedores.
type SupplierHandler struct{ resource[models.Supplier] }

func NewSupplierHandler(db *gorm.DB) *SupplierHandler {
	return &SupplierHandler{resource[models.Supplier]{
		db:     db,
		path:   "/proveedores",
		order:  "name",
		search: []string{"name", "city"},
		fromForm: func(f url.Values) (models.Supplier, validation.Violations) {
			return models.Supplier{
				Name:        strings.TrimSpace(f.Get("name")),
				Email:       strings.TrimSpace(f.Get("email")),
				Phone:       strings.TrimSpace(f.Get("phone")),
				Description: f.Get("description"),
				City:        strings.TrimSpace(f.Get("city")),
			}, validation.Violations{}
		},
		validate: func(s *models.Supplier, v validation.Violations) {
			validation.Required("name", s.Name, v)
			validation.Required("email", s.Email, v)
			validation.Email("email", s.Email, v)
			if s.Phone != "" {
				validation.Phone("phone", s.Phone, v)
			}
		},
		id:    func(s *models.Supplier) uint { return s.ID },
		setID: func(s *models.Supplier, id uint) { s.ID = id },
	}}
}

// BrandHandler serves /marcas.
type BrandHandler struct{ resource[models.Brand] }

func NewBrandHandler(db *gorm.DB) *BrandHandler {
	return &BrandHandler{resource[models.Brand]{
		db:     db,
		path:   "/marcas",
		order:  "name",
		search: []string{"name"},
		fromForm: func(f url.Values) (models.Brand, validation.Violations) {
			return models.Brand{Name: strings.TrimSpace(f.Get("name"))}, validation.Violations{}
		},
		validate: func(b *models.Brand, v validation.Violations) {
			validation.Required("name", b.Name, v)
			validation.MaxLen("name", b.Name, 45, v)
		},
		id:    func(b *models.Brand) uint { return b.ID },
		setID: func(b *models.Brand, id uint) { b.ID = id },
	}}
}

// CategoryHandler serves /categorias.
type CategoryHandler struct{ resource[models.Category] }

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{resource[models.Category]{
		db:      db,
		path:    "/categorias",
		preload: []string{"Subcategories"},
		order:   "name",
		search:  []string{"name"},
		fromForm: func(f url.Values) (models.Category, validation.Violations) {
			return models.Category{Name: strings.TrimSpace(f.Get("name"))}, validation.Violations{}
		},
		validate: func(c *models.Category, v validation.Violations) {
			validation.Required("name", c.Name, v)
			validation.MaxLen("name", c.Name, 45, v)
		},
		id:    func(c *models.Category) uint { return c.ID },
		setID: func(c *models.Category, id uint) { c.ID = id },
	}}
}

// SubcategoryHandler serves /subcategorias.
type SubcategoryHandler struct{ resource[models.Subcategory] }

func NewSubcategoryHandler(db *gorm.DB) *SubcategoryHandler {
	return &SubcategoryHandler{resource[models.Subcategory]{
		db:      db,
		path:    "/subcategorias",
		preload: []string{"Category"},
		order:   "name",
		search:  []string{"name"},
		fromForm: func(f url.Values) (models.Subcategory, validation.Violations) {
			v := validation.Violations{}
			return models.Subcategory{
				Name:       strings.TrimSpace(f.Get("name")),
				CategoryID: formUint(f, "category_id", v),
			}, v
		},
		validate: func(s *models.Subcategory, v validation.Violations) {
			validation.Required("name", s.Name, v)
			validation.MaxLen("name", s.Name, 45, v)
			if s.CategoryID == 0 {
				v["category_id"] = "required"
			}
		},
		id:    func(s *models.Subcategory) uint { return s.ID },
		setID: func(s *models.Subcategory, id uint) { s.ID = id },
	}}
}

// EmployeeHandler serves /admin/empleados. Employees are created inactive and
// set their own password through registration; Active is kept on update.
type EmployeeHandler struct{ resource[models.Employee] }

// NewEmployeeHandler calls invalidate with the employee id after every change
// so cached permission profiles follow role updates.
func NewEmployeeHandler(db *gorm.DB, invalidate func(uint)) *EmployeeHandler {
	return &EmployeeHandler{resource[models.Employee]{
		db:     db,
		path:   "/admin/empleados",
		order:  "name",
		search: []string{"name", "email"},
		omit:   []string{"password", "active"},
		fromForm: func(f url.Values) (models.Employee, validation.Violations) {
			v := validation.Violations{}
			return models.Employee{
				NationalID: formInt(f, "national_id", v),
				Name:       strings.TrimSpace(f.Get("name")),
				Phone:      strings.TrimSpace(f.Get("phone")),
				Role:       strings.TrimSpace(f.Get("role")),
				Email:      strings.TrimSpace(f.Get("email")),
			}, v
		},
		validate: func(e *models.Employee, v validation.Violations) {
			e.Email = strings.ToLower(strings.TrimSpace(e.Email))
			validation.PositiveInt("national_id", e.NationalID, v)
			validation.Required("name", e.Name, v)
			validation.Required("email", e.Email, v)
			validation.Email("email", e.Email, v)
			if e.Phone != "" {
				validation.Phone("phone", e.Phone, v)
			}
			if e.Role != models.RoleAdmin && e.Role != models.RoleEmployee {
				v["role"] = "out_of_range"
			}
		},
		prepare: func(e *models.Employee, creating bool) {
			if creating {
				e.Active = false
				e.Password = ""
			}
		},
		id:      func(e *models.Employee) uint { return e.ID },
		setID:   func(e *models.Employee, id uint) { e.ID = id },
		changed: invalidate,
	}}
}
