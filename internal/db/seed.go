package db

import (
	"errors"
	"fmt"
	"log"

	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
)

// SeedOptions describes the bootstrap administrator.
// Without a password the administrator is created inactive and must register.
type SeedOptions struct {
	AdminEmail      string
	AdminPassword   string
	AdminName       string
	AdminNationalID int64
}

var baseCategories = map[string][]string{
	"Medicamentos":     {"Analgesicos", "Antibioticos", "Antigripales"},
	"Cuidado personal": {"Higiene", "Dermocosmetica"},
	"Naturales":        {"Vitaminas", "Suplementos"},
}

// Seed creates the administrator account and baseline categories. Safe to run repeatedly.
func Seed(db *gorm.DB, opts SeedOptions) error {
	if err := seedAdmin(db, opts); err != nil {
		return err
	}
	for name, subs := range baseCategories {
		var cat models.Category
		err := db.Where("name = ?", name).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cat = models.Category{Name: name}
			if err := db.Create(&cat).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", name, err)
			}
		} else if err != nil {
			return err
		}
		for _, sub := range subs {
			var existing models.Subcategory
			err := db.Where("name = ? AND category_id = ?", sub, cat.ID).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := db.Create(&models.Subcategory{Name: sub, CategoryID: cat.ID}).Error; err != nil {
					return fmt.Errorf("seed subcategory %s: %w", sub, err)
				}
			} else if err != nil {
				return err
			}
		}
	}
	return nil
}

func seedAdmin(db *gorm.DB, opts SeedOptions) error {
	if opts.AdminEmail == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.Employee{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	admin := models.Employee{
		NationalID: opts.AdminNationalID,
		Name:       opts.AdminName,
		Email:      opts.AdminEmail,
		Role:       models.RoleAdmin,
	}
	if opts.AdminPassword != "" {
		hash, err := auth.HashPassword(opts.AdminPassword)
		if err != nil {
			return err
		}
		admin.Password = hash
		admin.Active = true
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Printf("[DB] seeded administrator %s (active=%v)", admin.Email, admin.Active)
	return nil
}
