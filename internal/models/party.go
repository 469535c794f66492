package models

import "time"

// Customer is a buyer identified by a national identifier.
type Customer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	NationalID int64     `gorm:"uniqueIndex;not null" json:"national_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      string    `gorm:"size:100" json:"email,omitempty"`
	Phone      string    `gorm:"size:10" json:"phone,omitempty"`
}

// Supplier provides products to the pharmacy.
type Supplier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"size:100" json:"email,omitempty"`
	Phone       string    `gorm:"size:10" json:"phone,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	City        string    `gorm:"size:45" json:"city,omitempty"`
}
