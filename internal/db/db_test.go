package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestSeedIdempotent(t *testing.T) {
	d := openTestDB(t)
	opts := SeedOptions{AdminEmail: "admin@test", AdminPassword: "secreto123", AdminName: "Admin", AdminNationalID: 7}
	if err := Seed(d, opts); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Seed(d, opts); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	var admins, cats, subs int64
	d.Model(&models.Employee{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	d.Model(&models.Category{}).Count(&cats)
	d.Model(&models.Subcategory{}).Count(&subs)
	if admins != 1 {
		t.Fatalf("expected one admin, got %d", admins)
	}
	if cats != int64(len(baseCategories)) {
		t.Fatalf("categories duplicated or missing: %d", cats)
	}
	if subs != 7 {
		t.Fatalf("expected 7 subcategories, got %d", subs)
	}
	var admin models.Employee
	if err := d.Where("email = ?", "admin@test").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if !admin.Active || !auth.CheckPassword(admin.Password, "secreto123") {
		t.Fatalf("admin should be active with hashed password")
	}
}

func TestSeedAdminWithoutPasswordIsInactive(t *testing.T) {
	d := openTestDB(t)
	if err := Seed(d, SeedOptions{AdminEmail: "pending@test", AdminName: "Pending", AdminNationalID: 9}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var admin models.Employee
	if err := d.Where("email = ?", "pending@test").First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if admin.Active || admin.Password != "" {
		t.Fatalf("admin without password must stay inactive: %+v", admin)
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  'postgres://u:p@h/db'  ", "postgres://u:p@h/db"},
		{"host=h   user=u dbname=d", "host=h user=u dbname=d sslmode=disable"},
		{"host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
	}
	for _, tt := range tests {
		if got := NormalizeDSN(tt.in); got != tt.want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=u password=p dbname=farmacia sslmode=disable")
	want := "postgres://u:p@db:5432/farmacia?sslmode=disable"
	if got != want {
		t.Fatalf("ToURLDSN = %q, want %q", got, want)
	}
	if ToURLDSN("host=db") != "host=db" {
		t.Fatalf("incomplete DSN should be returned unchanged")
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=s3cret dbname=d"); got != "host=h password=*** dbname=d" {
		t.Fatalf("kv mask = %q", got)
	}
	if got := MaskDSN("postgres://u:s3cret@h:5432/d"); got != "postgres://u:***@h:5432/d" {
		t.Fatalf("url mask = %q", got)
	}
}

func TestOpenSQLite_EnforcesForeignKeys(t *testing.T) {
	d := openTestDB(t)
	var on int
	if err := d.Raw("PRAGMA foreign_keys").Scan(&on).Error; err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if on != 1 {
		t.Fatalf("foreign keys disabled")
	}
	if err := Seed(d, SeedOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var cat models.Category
	if err := d.Where("name = ?", "Medicamentos").First(&cat).Error; err != nil {
		t.Fatalf("load category: %v", err)
	}
	if err := d.Delete(&cat).Error; !errors.Is(err, gorm.ErrForeignKeyViolated) {
		t.Fatalf("deleting a category with subcategories: got %v, want ErrForeignKeyViolated", err)
	}
}

func TestWithForeignKeys(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"farmacia.db", "farmacia.db?_foreign_keys=1"},
		{"file:x?mode=memory&cache=shared", "file:x?mode=memory&cache=shared&_foreign_keys=1"},
		{"farmacia.db?_foreign_keys=0", "farmacia.db?_foreign_keys=0"},
	}
	for _, tt := range tests {
		if got := withForeignKeys(tt.in); got != tt.want {
			t.Errorf("withForeignKeys(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
