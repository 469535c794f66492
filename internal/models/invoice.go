package models

import (
	"time"
)

// Kind tags both a transaction and its invoice.
type Kind string

const (
	KindSale     Kind = "venta"
	KindPurchase Kind = "compra"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindSale || k == KindPurchase
}

// Prefix is the first character of every serial of this kind.
func (k Kind) Prefix() string {
	if k == KindPurchase {
		return "C"
	}
	return "V"
}

// Invoice holds the numbering metadata of a transaction.
// The row is written before rendering; FilePath is attached once the PDF exists.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Serial    string    `gorm:"size:20;uniqueIndex;not null" json:"serial"`
	Type      Kind      `gorm:"size:45;index;not null" json:"type"`
	FilePath  string    `gorm:"size:100" json:"file_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InvoiceSequence reserves serial counters per day and kind.
type InvoiceSequence struct {
	Day     string `gorm:"primaryKey;size:10"` // yyyy-MM-dd
	Kind    Kind   `gorm:"primaryKey;size:10"`
	Counter int    `gorm:"not null"`
}
