package handlers

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/httpx"
	"github.com/vidanatural/farmacia-web/i18n"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/services"
	"gorm.io/gorm"
)

// Recorder is the checkout workflow used by the point-of-sale forms.
type Recorder interface {
	Record(ctx context.Context, req services.CheckoutRequest) (*services.Receipt, error)
	Delete(ctx context.Context, id uint) error
}

// CheckoutHandler serves the sale and purchase forms under /facturas.
type CheckoutHandler struct {
	db       *gorm.DB
	recorder Recorder
}

func NewCheckoutHandler(db *gorm.DB, recorder Recorder) *CheckoutHandler {
	return &CheckoutHandler{db: db, recorder: recorder}
}

const (
	salesForm     = "/facturas/ventas"
	purchasesForm = "/facturas/compras"
)

// SaleForm lists the sellable products and, with ?identificacion=, the customer.
func (h *CheckoutHandler) SaleForm(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if raw := strings.TrimSpace(r.URL.Query().Get("identificacion")); raw != "" {
		nid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fail(w, r, errBadInput, salesForm)
			return
		}
		var c models.Customer
		if err := h.db.WithContext(r.Context()).Where("national_id = ?", nid).First(&c).Error; err != nil {
			fail(w, r, err, salesForm)
			return
		}
		data["customer"] = c
	}
	var products []models.Product
	if err := h.db.WithContext(r.Context()).Preload("Brand").Order("name").Find(&products).Error; err != nil {
		fail(w, r, err, "/")
		return
	}
	data["products"] = products
	page(w, r, data)
}

// PurchaseForm shows a supplier (?idProveedor=) and the products it provides.
func (h *CheckoutHandler) PurchaseForm(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"products": []models.Product{}}
	if raw := strings.TrimSpace(r.URL.Query().Get("idProveedor")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fail(w, r, errBadInput, purchasesForm)
			return
		}
		var s models.Supplier
		if err := h.db.WithContext(r.Context()).First(&s, id).Error; err != nil {
			fail(w, r, err, purchasesForm)
			return
		}
		var products []models.Product
		if err := h.db.WithContext(r.Context()).Preload("Brand").Where("supplier_id = ?", s.ID).Order("name").Find(&products).Error; err != nil {
			fail(w, r, err, purchasesForm)
			return
		}
		data["supplier"] = s
		data["products"] = products
	}
	page(w, r, data)
}

func (h *CheckoutHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, models.KindSale, salesForm)
}

func (h *CheckoutHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, models.KindPurchase, purchasesForm)
}

func (h *CheckoutHandler) record(w http.ResponseWriter, r *http.Request, kind models.Kind, back string) {
	employeeID, _ := auth.EmployeeIDFromContext(r.Context())
	req, err := bindCheckout(r)
	if err != nil {
		fail(w, r, err, back)
		return
	}
	req.Kind = kind
	req.EmployeeID = employeeID

	receipt, err := h.recorder.Record(r.Context(), req)
	if err != nil {
		checkoutFailed(w, r, kind, err, back)
		return
	}
	created := "sale_created"
	if kind == models.KindPurchase {
		created = "purchase_created"
	}
	msg := i18n.Tf(lang(r), created, receipt.Serial)
	done(w, r, http.StatusCreated, receipt, back, msg)
}

// checkoutFailed reports a failed workflow. Validation problems show their own
// message; anything else is wrapped into "could not record" with the cause.
func checkoutFailed(w http.ResponseWriter, r *http.Request, kind models.Kind, err error, back string) {
	status, code := classify(err)
	if httpx.WantsJSON(r) {
		fail(w, r, err, back)
		return
	}
	msg := i18n.T(lang(r), code)
	if status != http.StatusBadRequest {
		failed := "sale_failed"
		if kind == models.KindPurchase {
			failed = "purchase_failed"
		}
		msg = i18n.Tf(lang(r), failed, err.Error())
	}
	httpx.Redirect(w, r, back, httpx.Flash{Error: msg})
}

// DeleteTransaction removes a transaction with its items, invoice and file.
func (h *CheckoutHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		fail(w, r, services.ErrNotFound, reportsPage)
		return
	}
	if err := h.recorder.Delete(r.Context(), id); err != nil {
		fail(w, r, err, reportsPage)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"deleted": id}, reportsPage, i18n.T(lang(r), "deleted"))
}

type checkoutLine struct {
	ProductID uint            `json:"productoId"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type checkoutBody struct {
	Total         *decimal.Decimal `json:"total"`
	PaymentMethod string           `json:"metodoPago"`
	Customer      *int64           `json:"cliente"`
	SupplierID    *uint            `json:"idProveedor"`
	Items         []checkoutLine   `json:"items"`
}

// itemField matches items[i].field and the detallesVenta / detallesCompra
// names posted by the legacy point-of-sale pages.
var itemField = regexp.MustCompile(`^(?:items|detallesVenta|detallesCompra)\[(\d+)\]\.(\w+)$`)

// bindCheckout reads a checkout submission from JSON or from the form fields
// total, metodoPago, cliente, idProveedor and items[i].{productoId,precio,cantidad,subtotal}.
// Rows without a product are dropped, as unselected rows of the form post them empty.
func bindCheckout(r *http.Request) (services.CheckoutRequest, error) {
	var body checkoutBody
	if isJSONBody(r) {
		if err := decodeJSON(r, &body); err != nil {
			return services.CheckoutRequest{}, err
		}
	} else {
		form, err := parseForm(r)
		if err != nil {
			return services.CheckoutRequest{}, err
		}
		if body, err = checkoutFromForm(form); err != nil {
			return services.CheckoutRequest{}, err
		}
	}

	req := services.CheckoutRequest{
		Total:              body.Total,
		PaymentMethod:      strings.TrimSpace(body.PaymentMethod),
		CustomerNationalID: body.Customer,
		SupplierID:         body.SupplierID,
	}
	for _, it := range body.Items {
		if it.ProductID == 0 {
			continue
		}
		req.Items = append(req.Items, services.LineInput{
			ProductID: it.ProductID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
	}
	return req, nil
}

func checkoutFromForm(form url.Values) (checkoutBody, error) {
	var body checkoutBody
	if s := strings.TrimSpace(form.Get("total")); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return body, errBadInput
		}
		body.Total = &d
	}
	body.PaymentMethod = form.Get("metodoPago")
	if s := strings.TrimSpace(form.Get("cliente")); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return body, errBadInput
		}
		body.Customer = &n
	}
	if s := strings.TrimSpace(form.Get("idProveedor")); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return body, errBadInput
		}
		id := uint(n)
		body.SupplierID = &id
	}

	rows := map[int]*checkoutLine{}
	for key, values := range form {
		m := itemField.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return body, errBadInput
		}
		row, ok := rows[idx]
		if !ok {
			row = &checkoutLine{}
			rows[idx] = row
		}
		val := strings.TrimSpace(values[0])
		if val == "" {
			continue
		}
		switch m[2] {
		case "productoId", "producto":
			var n uint64
			n, err = strconv.ParseUint(val, 10, 64)
			row.ProductID = uint(n)
		case "precio", "precioVenta", "precioCompra":
			row.UnitPrice, err = decimal.NewFromString(val)
		case "cantidad":
			row.Quantity, err = strconv.Atoi(val)
		case "subtotal":
			row.Subtotal, err = decimal.NewFromString(val)
		}
		if err != nil {
			return body, errBadInput
		}
	}
	idxs := make([]int, 0, len(rows))
	for i := range rows {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		body.Items = append(body.Items, *rows[i])
	}
	return body, nil
}
