package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
)

// Point is one bar of a dashboard chart.
type Point struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Dashboard aggregates the shop activity. Profit figures use the current
// catalog prices of the products sold.
type Dashboard struct {
	Customers    int64           `json:"customers"`
	Suppliers    int64           `json:"suppliers"`
	Products     int64           `json:"products"`
	Sales        int64           `json:"sales"`
	UnitsSold    int64           `json:"units_sold"`
	CurrentStock int64           `json:"current_stock"`
	TotalStock   int64           `json:"total_stock"`
	AmountSold   decimal.Decimal `json:"amount_sold"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	VAT          decimal.Decimal `json:"vat"`
	NetProfit    decimal.Decimal `json:"net_profit"`

	UnitsByCategory []Point `json:"units_by_category"`
	SalesByEmployee []Point `json:"sales_by_employee"`
	TopProducts     []Point `json:"top_products"`
	PaymentMethods  []Point `json:"payment_methods"`
	TopSuppliers    []Point `json:"top_suppliers"`
}

const topN = 10

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// saleLines joins sold line items with their product.
func saleLines(db *gorm.DB) *gorm.DB {
	return db.Table("line_items AS li").
		Joins("JOIN transactions t ON t.id = li.transaction_id").
		Joins("JOIN products p ON p.id = li.product_id").
		Where("t.kind = ?", models.KindSale)
}

func (s *DashboardService) Load(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	var d Dashboard

	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.Customer{}, &d.Customers},
		{&models.Supplier{}, &d.Suppliers},
		{&models.Product{}, &d.Products},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("%w: dashboard counts: %w", ErrPersistence, err)
		}
	}
	if err := db.Model(&models.Transaction{}).Where("kind = ?", models.KindSale).Count(&d.Sales).Error; err != nil {
		return nil, fmt.Errorf("%w: count sales: %w", ErrPersistence, err)
	}

	if err := saleLines(db).Select("COALESCE(SUM(li.quantity),0)").Scan(&d.UnitsSold).Error; err != nil {
		return nil, fmt.Errorf("%w: units sold: %w", ErrPersistence, err)
	}
	if err := db.Model(&models.Product{}).Select("COALESCE(SUM(stock),0)").Scan(&d.CurrentStock).Error; err != nil {
		return nil, fmt.Errorf("%w: current stock: %w", ErrPersistence, err)
	}
	d.TotalStock = d.CurrentStock + d.UnitsSold

	amounts := []struct {
		kind models.Kind
		dst  *decimal.Decimal
	}{
		{models.KindSale, &d.AmountSold},
		{models.KindPurchase, &d.AmountPaid},
	}
	for _, a := range amounts {
		if err := db.Model(&models.Transaction{}).Where("kind = ?", a.kind).
			Select("COALESCE(SUM(total),0)").Scan(a.dst).Error; err != nil {
			return nil, fmt.Errorf("%w: %s amount: %w", ErrPersistence, a.kind, err)
		}
	}

	var profit struct {
		Gross decimal.Decimal
		VAT   decimal.Decimal
	}
	err := saleLines(db).Select(
		"COALESCE(SUM(li.quantity * (p.sale_price - p.purchase_price)),0) AS gross, " +
			"COALESCE(SUM(li.quantity * p.sale_price * p.vat / 100.0),0) AS vat").
		Scan(&profit).Error
	if err != nil {
		return nil, fmt.Errorf("%w: profit: %w", ErrPersistence, err)
	}
	d.GrossProfit = profit.Gross.Round(2)
	d.VAT = profit.VAT.Round(2)
	d.NetProfit = d.GrossProfit.Sub(d.VAT)

	if d.UnitsByCategory, err = points(saleLines(db).
		Joins("JOIN subcategories s ON s.id = p.subcategory_id").
		Joins("JOIN categories c ON c.id = s.category_id").
		Select("c.name AS label, SUM(li.quantity) AS value").
		Group("c.name").Order("value DESC, label")); err != nil {
		return nil, err
	}
	if d.SalesByEmployee, err = points(db.Table("transactions t").
		Joins("JOIN employees e ON e.id = t.employee_id").
		Where("t.kind = ?", models.KindSale).
		Select("e.name AS label, COUNT(t.id) AS value").
		Group("e.id, e.name").Order("value DESC, label")); err != nil {
		return nil, err
	}
	if d.PaymentMethods, err = points(db.Table("transactions t").
		Where("t.kind = ?", models.KindSale).
		Select("t.payment_method AS label, COUNT(*) AS value").
		Group("t.payment_method").Order("value DESC, label")); err != nil {
		return nil, err
	}
	if d.TopSuppliers, err = points(saleLines(db).
		Joins("JOIN suppliers sp ON sp.id = p.supplier_id").
		Select("sp.name AS label, SUM(li.quantity) AS value").
		Group("sp.name").Order("value DESC, label").Limit(topN)); err != nil {
		return nil, err
	}
	if d.TopProducts, err = s.topProducts(db); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DashboardService) topProducts(db *gorm.DB) ([]Point, error) {
	var rows []struct {
		Name         string
		Brand        string
		Presentation string
		Value        int64
	}
	err := saleLines(db).
		Joins("LEFT JOIN brands b ON b.id = p.brand_id").
		Select("p.id, p.name AS name, COALESCE(b.name,'') AS brand, p.presentation AS presentation, SUM(li.quantity) AS value").
		Group("p.id, p.name, b.name, p.presentation").
		Order("value DESC, p.id").
		Limit(topN).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: top products: %w", ErrPersistence, err)
	}
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		label := strings.Join(strings.Fields(r.Name+" "+r.Brand+" "+r.Presentation), " ")
		out = append(out, Point{Label: label, Value: r.Value})
	}
	return out, nil
}

func points(q *gorm.DB) ([]Point, error) {
	var out []Point
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: dashboard chart: %w", ErrPersistence, err)
	}
	if out == nil {
		out = []Point{}
	}
	return out, nil
}
