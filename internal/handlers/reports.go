package handlers

import (
	"context"
	"net/http"

	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/services"
)

const reportsPage = "/admin/reportes"

// TransactionLister lists recorded transactions by kind.
type TransactionLister interface {
	List(ctx context.Context, kind models.Kind) ([]models.Transaction, error)
}

// AdminHandler serves the administrator dashboard and reports.
type AdminHandler struct {
	dashboard    *services.DashboardService
	transactions TransactionLister
}

func NewAdminHandler(dashboard *services.DashboardService, transactions TransactionLister) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, transactions: transactions}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Load(r.Context())
	if err != nil {
		fail(w, r, err, "/")
		return
	}
	page(w, r, map[string]any{"dashboard": d})
}

type reportRow struct {
	ID            uint   `json:"id"`
	Serial        string `json:"serial"`
	FilePath      string `json:"file_path"`
	CreatedAt     string `json:"created_at"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
	Employee      string `json:"employee"`
	Counterparty  string `json:"counterparty,omitempty"`
}

func reportRows(txns []models.Transaction) []reportRow {
	rows := make([]reportRow, 0, len(txns))
	for _, t := range txns {
		row := reportRow{
			ID:            t.ID,
			CreatedAt:     t.CreatedAt.Format("2006-01-02 15:04:05"),
			Total:         t.Total.StringFixed(2),
			PaymentMethod: t.PaymentMethod,
		}
		if t.Invoice != nil {
			row.Serial = t.Invoice.Serial
			row.FilePath = t.Invoice.FilePath
		}
		if t.Employee != nil {
			row.Employee = t.Employee.Name
		}
		switch {
		case t.Customer != nil:
			row.Counterparty = t.Customer.Name
		case t.Supplier != nil:
			row.Counterparty = t.Supplier.Name
		}
		rows = append(rows, row)
	}
	return rows
}

// Reports lists sales and purchases with their invoice serial and file.
func (h *AdminHandler) Reports(w http.ResponseWriter, r *http.Request) {
	sales, err := h.transactions.List(r.Context(), models.KindSale)
	if err != nil {
		fail(w, r, err, "/")
		return
	}
	purchases, err := h.transactions.List(r.Context(), models.KindPurchase)
	if err != nil {
		fail(w, r, err, "/")
		return
	}
	page(w, r, map[string]any{"sales": reportRows(sales), "purchases": reportRows(purchases)})
}
