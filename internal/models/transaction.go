package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a sale or a purchase. Sales may omit the customer;
// purchases always reference a supplier.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Kind          Kind            `gorm:"size:10;index;not null" json:"kind"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod string          `gorm:"size:45" json:"payment_method"`
	EmployeeID    uint            `gorm:"index;not null" json:"employee_id"`
	Employee      *Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	CustomerID    *uint           `gorm:"index" json:"customer_id,omitempty"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SupplierID    *uint           `gorm:"index" json:"supplier_id,omitempty"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	InvoiceID     uint            `gorm:"uniqueIndex;not null" json:"invoice_id"`
	Invoice       *Invoice        `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	Items         []LineItem      `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
}

// ItemsTotal sums the line subtotals.
func (t *Transaction) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range t.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// LineItem is one product row of a transaction, owned by it.
type LineItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID uint            `gorm:"index;not null" json:"transaction_id"`
	ProductID     uint            `gorm:"index;not null" json:"product_id"`
	Product       *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

// All returns every model in dependency order for migrations.
func All() []any {
	return []any{
		&Employee{}, &Customer{}, &Supplier{}, &Brand{}, &Category{}, &Subcategory{},
		&Product{}, &Invoice{}, &InvoiceSequence{}, &Transaction{}, &LineItem{},
	}
}
