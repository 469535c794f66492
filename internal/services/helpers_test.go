package services

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vidanatural/farmacia-web/internal/db"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/pdf"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func testRenderer(t *testing.T) (*pdf.Renderer, string) {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{34, 139, 34, 255})
	logo := filepath.Join(dir, "logo.png")
	f, err := os.Create(logo)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	root := filepath.Join(dir, "archivos")
	return pdf.NewRenderer(root, pdf.Assets{LogoPath: logo}, "Farmacia Vida Natural"), root
}

type fixture struct {
	employee models.Employee
	customer models.Customer
	supplier models.Supplier
	products []models.Product
}

func seedFixture(t *testing.T, conn *gorm.DB) fixture {
	t.Helper()
	fx := fixture{
		employee: models.Employee{NationalID: 1001, Name: "Laura Gómez", Email: "laura@farmacia.test", Role: models.RoleEmployee, Active: true},
		customer: models.Customer{NationalID: 52123456, Name: "Carlos Pérez", Email: "carlos@correo.test"},
		supplier: models.Supplier{Name: "Droguería Central", Email: "ventas@central.test", City: "Bogotá"},
	}
	require.NoError(t, conn.Create(&fx.employee).Error)
	require.NoError(t, conn.Create(&fx.customer).Error)
	require.NoError(t, conn.Create(&fx.supplier).Error)
	brand := models.Brand{Name: "Genfar"}
	require.NoError(t, conn.Create(&brand).Error)
	cat := models.Category{Name: "Medicamentos"}
	require.NoError(t, conn.Create(&cat).Error)
	sub := models.Subcategory{Name: "Analgésicos", CategoryID: cat.ID}
	require.NoError(t, conn.Create(&sub).Error)
	for _, p := range []models.Product{
		{Code: "ACE-001", Name: "Acetaminofén", Presentation: "Tabletas", SalePrice: decimal.NewFromInt(1500), PurchasePrice: decimal.NewFromInt(900), Stock: 50, VAT: 19},
		{Code: "IBU-002", Name: "Ibuprofeno", Presentation: "Cápsulas", SalePrice: decimal.NewFromInt(2500), PurchasePrice: decimal.NewFromInt(1600), Stock: 30, VAT: 19},
	} {
		p.BrandID = brand.ID
		p.SubcategoryID = sub.ID
		require.NoError(t, conn.Create(&p).Error)
		fx.products = append(fx.products, p)
	}
	return fx
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type failingRenderer struct{ removed []string }

func (f *failingRenderer) Render(pdf.InvoiceData) (string, error) {
	return "", errors.New("disk full")
}

func (f *failingRenderer) Remove(p string) error {
	f.removed = append(f.removed, p)
	return nil
}

// recordingRenderer writes real files and remembers every path it rendered
// or was asked to remove.
type recordingRenderer struct {
	*pdf.Renderer
	rendered []string
	removed  []string
}

func (r *recordingRenderer) Render(data pdf.InvoiceData) (string, error) {
	p, err := r.Renderer.Render(data)
	if err == nil {
		r.rendered = append(r.rendered, p)
	}
	return p, err
}

func (r *recordingRenderer) Remove(p string) error {
	r.removed = append(r.removed, p)
	return r.Renderer.Remove(p)
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}
