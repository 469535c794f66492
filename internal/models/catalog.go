package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:45;uniqueIndex;not null" json:"name"`
}

type Category struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"size:45;uniqueIndex;not null" json:"name"`
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

type Subcategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:45;not null" json:"name"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Product is an item sold and purchased by the pharmacy.
// Code follows the AAA-123 pattern.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Code          string          `gorm:"size:7;uniqueIndex;not null" json:"code"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"sale_price"`
	Stock         int             `gorm:"not null;default:0" json:"stock"`
	SubcategoryID uint            `gorm:"index" json:"subcategory_id"`
	Subcategory   *Subcategory    `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	SupplierID    *uint           `gorm:"index" json:"supplier_id,omitempty"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	BrandID       uint            `gorm:"index" json:"brand_id"`
	Brand         *Brand          `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Presentation  string          `gorm:"size:45" json:"presentation,omitempty"`
	Status        string          `gorm:"size:20" json:"status,omitempty"`
	VAT           int             `gorm:"not null;default:0" json:"vat"` // percent
}

// BrandName returns the brand name or an empty string when the brand is not loaded.
func (p *Product) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return p.Brand.Name
}

// Label joins name, brand and presentation the way invoices show a product.
func (p *Product) Label() string {
	parts := []string{p.Name}
	if b := p.BrandName(); b != "" {
		parts = append(parts, b)
	}
	if p.Presentation != "" {
		parts = append(parts, p.Presentation)
	}
	return strings.Join(parts, " ")
}
