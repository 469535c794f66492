package models

import (
	"time"
)

// Employee roles.
const (
	RoleAdmin    = "ADMINISTRADOR"
	RoleEmployee = "EMPLEADO"
)

// Employee is a staff member able to sign in and record transactions.
// Accounts are created inactive by an administrator and activated through registration.
type Employee struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	NationalID int64     `gorm:"uniqueIndex;not null" json:"national_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Phone      string    `gorm:"size:10" json:"phone,omitempty"`
	Role       string    `gorm:"size:20;not null;default:'EMPLEADO'" json:"role"`
	Email      string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password   string    `gorm:"size:100" json:"-"` // bcrypt hash
	Active     bool      `gorm:"not null;default:false" json:"active"`
}

// IsAdmin reports whether the employee holds the administrator role.
func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}
