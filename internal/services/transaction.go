package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidanatural/farmacia-web/internal/metrics"
	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/pdf"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRenderer writes invoice documents and returns their public path.
type InvoiceRenderer interface {
	Render(data pdf.InvoiceData) (string, error)
	Remove(publicPath string) error
}

// LineInput is one cart row as submitted. Prices and subtotals are taken as given.
type LineInput struct {
	ProductID uint            `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CheckoutRequest describes a sale or purchase to record. A nil Total means the
// field was absent. CustomerNationalID is optional for sales; SupplierID is
// required for purchases.
type CheckoutRequest struct {
	Kind               models.Kind
	EmployeeID         uint
	CustomerNationalID *int64
	SupplierID         *uint
	Total              *decimal.Decimal
	PaymentMethod      string
	Items              []LineInput
}

// Receipt confirms a committed transaction.
type Receipt struct {
	TransactionID uint   `json:"transaction_id"`
	Serial        string `json:"serial"`
	FilePath      string `json:"file_path"`
}

// TransactionService records sales and purchases together with their invoice.
type TransactionService struct {
	db       *gorm.DB
	serials  *SerialAllocator
	renderer InvoiceRenderer
	now      func() time.Time
}

func NewTransactionService(db *gorm.DB, serials *SerialAllocator, renderer InvoiceRenderer) *TransactionService {
	return &TransactionService{db: db, serials: serials, renderer: renderer, now: time.Now}
}

// SetClock replaces the time source (tests).
func (s *TransactionService) SetClock(now func() time.Time) { s.now = now }

// Validate checks a request before anything is written.
func Validate(req CheckoutRequest) error {
	emptyCode := "sale_empty"
	if req.Kind == models.KindPurchase {
		emptyCode = "purchase_empty"
	}
	if !req.Kind.Valid() {
		return &ValidationError{Code: "invalid_kind"}
	}
	if req.Total == nil || req.Total.IsZero() || len(req.Items) == 0 {
		return &ValidationError{Code: emptyCode}
	}
	fields := map[string]string{}
	if req.Total.IsNegative() {
		fields["total"] = "must_be_positive"
	}
	if req.EmployeeID == 0 {
		fields["employee"] = "required"
	}
	if req.Kind == models.KindPurchase && (req.SupplierID == nil || *req.SupplierID == 0) {
		fields["supplier"] = "required"
	}
	for i, it := range req.Items {
		key := "items[" + strconv.Itoa(i) + "]"
		switch {
		case it.ProductID == 0:
			fields[key+".product"] = "required"
		case it.Quantity <= 0:
			fields[key+".quantity"] = "must_be_positive"
		case it.UnitPrice.IsNegative():
			fields[key+".price"] = "must_be_positive"
		case it.Subtotal.IsNegative():
			fields[key+".subtotal"] = "must_be_positive"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Code: emptyCode, Fields: fields}
	}
	return nil
}

// Record runs the checkout workflow: allocate the invoice, persist the
// transaction and its line items, render the PDF and attach its path. All
// database writes share one transaction; on failure nothing is kept and a
// PDF already written is removed.
func (s *TransactionService) Record(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	if err := Validate(req); err != nil {
		metrics.TransactionFailures.WithLabelValues(string(req.Kind), "validation").Inc()
		return nil, err
	}

	now := s.now()
	var (
		receipt Receipt
		written string
	)
	err := s.serials.Allocate(ctx, req.Kind, now, func(tx *gorm.DB, serial string) error {
		inv := models.Invoice{Serial: serial, Type: req.Kind, CreatedAt: now}
		if err := tx.Create(&inv).Error; err != nil {
			return fmt.Errorf("%w: save invoice %s: %w", ErrPersistence, serial, err)
		}

		txn := models.Transaction{
			Kind:          req.Kind,
			Total:         *req.Total,
			PaymentMethod: req.PaymentMethod,
			CreatedAt:     now,
			EmployeeID:    req.EmployeeID,
			InvoiceID:     inv.ID,
			Invoice:       &inv,
		}
		if err := s.resolveParties(tx, req, &txn); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&txn).Error; err != nil {
			return fmt.Errorf("%w: save transaction: %w", ErrPersistence, err)
		}

		for i, in := range req.Items {
			var product models.Product
			if err := tx.Preload("Brand").First(&product, in.ProductID).Error; err != nil {
				return lookupErr("product", in.ProductID, err)
			}
			item := models.LineItem{
				TransactionID: txn.ID,
				ProductID:     product.ID,
				UnitPrice:     in.UnitPrice,
				Quantity:      in.Quantity,
				Subtotal:      in.Subtotal,
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return fmt.Errorf("%w: save line item %d: %w", ErrPersistence, i, err)
			}
			item.Product = &product
			txn.Items = append(txn.Items, item)
		}

		start := time.Now()
		path, err := s.renderer.Render(InvoiceData(&txn))
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrRender, err)
		}
		written = path

		if err := tx.Model(&inv).Update("file_path", path).Error; err != nil {
			return fmt.Errorf("%w: attach invoice file: %w", ErrPersistence, err)
		}
		if err := tx.Omit(clause.Associations).Save(&txn).Error; err != nil {
			return fmt.Errorf("%w: update transaction: %w", ErrPersistence, err)
		}
		receipt = Receipt{TransactionID: txn.ID, Serial: serial, FilePath: path}
		return nil
	})
	if err != nil {
		if written != "" {
			if rmErr := s.renderer.Remove(written); rmErr != nil {
				log.Printf("[checkout] could not remove %s after failure: %v", written, rmErr)
			}
		}
		metrics.TransactionFailures.WithLabelValues(string(req.Kind), reason(err)).Inc()
		log.Printf("[checkout] %s by employee %d failed: %v", req.Kind, req.EmployeeID, err)
		return nil, err
	}
	metrics.InvoicesIssued.WithLabelValues(string(req.Kind)).Inc()
	log.Printf("[checkout] %s %s recorded (transaction %d)", req.Kind, receipt.Serial, receipt.TransactionID)
	return &receipt, nil
}

func (s *TransactionService) resolveParties(tx *gorm.DB, req CheckoutRequest, txn *models.Transaction) error {
	var employee models.Employee
	if err := tx.First(&employee, req.EmployeeID).Error; err != nil {
		return lookupErr("employee", req.EmployeeID, err)
	}
	txn.Employee = &employee

	switch req.Kind {
	case models.KindSale:
		if req.CustomerNationalID != nil {
			var customer models.Customer
			if err := tx.Where("national_id = ?", *req.CustomerNationalID).First(&customer).Error; err != nil {
				return lookupErr("customer", *req.CustomerNationalID, err)
			}
			txn.CustomerID = &customer.ID
			txn.Customer = &customer
		}
	case models.KindPurchase:
		var supplier models.Supplier
		if err := tx.First(&supplier, *req.SupplierID).Error; err != nil {
			return lookupErr("supplier", *req.SupplierID, err)
		}
		txn.SupplierID = &supplier.ID
		txn.Supplier = &supplier
	}
	return nil
}

func lookupErr[T any](entity string, key T, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, entity, key)
	}
	return fmt.Errorf("%w: load %s %v: %w", ErrPersistence, entity, key, err)
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrSerialOverflow):
		return "overflow"
	default:
		return "persistence"
	}
}

// InvoiceData maps a loaded transaction to its printed invoice.
func InvoiceData(txn *models.Transaction) pdf.InvoiceData {
	data := pdf.InvoiceData{
		Kind:          pdf.Kind(txn.Kind),
		CreatedAt:     txn.CreatedAt,
		Total:         txn.Total,
		PaymentMethod: txn.PaymentMethod,
	}
	if txn.Invoice != nil {
		data.Serial = txn.Invoice.Serial
	}
	if txn.Employee != nil {
		data.Employee = txn.Employee.Name
	}
	switch {
	case txn.Kind == models.KindSale && txn.Customer != nil:
		data.Counterparty = &pdf.Party{Name: txn.Customer.Name, Reference: strconv.FormatInt(txn.Customer.NationalID, 10)}
	case txn.Kind == models.KindPurchase && txn.Supplier != nil:
		data.Counterparty = &pdf.Party{Name: txn.Supplier.Name, Reference: txn.Supplier.Email}
	}
	for _, it := range txn.Items {
		row := pdf.Item{UnitPrice: it.UnitPrice, Quantity: it.Quantity, Subtotal: it.Subtotal}
		if it.Product != nil {
			row.Code = it.Product.Code
			row.Description = it.Product.Label()
			row.VAT = it.Product.VAT
		}
		data.Items = append(data.Items, row)
	}
	return data
}

// Get loads a transaction with its parties, invoice and items.
func (s *TransactionService) Get(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Employee").Preload("Customer").Preload("Supplier").Preload("Invoice").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_items.id") }).
		Preload("Items.Product.Brand").
		First(&txn, id).Error
	if err != nil {
		return nil, lookupErr("transaction", id, err)
	}
	return &txn, nil
}

// List returns transactions of kind (all kinds when empty), newest first.
func (s *TransactionService) List(ctx context.Context, kind models.Kind) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).
		Preload("Employee").Preload("Customer").Preload("Supplier").Preload("Invoice").
		Order("created_at DESC, id DESC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var txns []models.Transaction
	if err := q.Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("%w: list transactions: %w", ErrPersistence, err)
	}
	return txns, nil
}

// Delete removes a transaction with its line items and invoice in one
// database transaction, then deletes the invoice file.
func (s *TransactionService) Delete(ctx context.Context, id uint) error {
	var filePath string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Preload("Invoice").First(&txn, id).Error; err != nil {
			return lookupErr("transaction", id, err)
		}
		if err := tx.Where("transaction_id = ?", txn.ID).Delete(&models.LineItem{}).Error; err != nil {
			return fmt.Errorf("%w: delete line items: %w", ErrPersistence, err)
		}
		if err := tx.Delete(&models.Transaction{}, txn.ID).Error; err != nil {
			return fmt.Errorf("%w: delete transaction: %w", ErrPersistence, err)
		}
		if err := tx.Delete(&models.Invoice{}, txn.InvoiceID).Error; err != nil {
			return fmt.Errorf("%w: delete invoice: %w", ErrPersistence, err)
		}
		if txn.Invoice != nil {
			filePath = txn.Invoice.FilePath
		}
		return nil
	})
	if err != nil {
		return err
	}
	if filePath != "" {
		if err := s.renderer.Remove(filePath); err != nil {
			log.Printf("[checkout] transaction %d deleted but file %s kept: %v", id, filePath, err)
		}
	}
	return nil
}

// Regenerate renders the invoice of an existing transaction again and stores
// the resulting path. Used to restore documents lost from the files folder.
func (s *TransactionService) Regenerate(ctx context.Context, id uint) (string, error) {
	txn, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if txn.Invoice == nil {
		return "", fmt.Errorf("%w: invoice of transaction %d", ErrNotFound, id)
	}
	start := time.Now()
	path, err := s.renderer.Render(InvoiceData(txn))
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	if path != txn.Invoice.FilePath {
		if err := s.db.WithContext(ctx).Model(txn.Invoice).Update("file_path", path).Error; err != nil {
			return "", fmt.Errorf("%w: attach invoice file: %w", ErrPersistence, err)
		}
	}
	return path, nil
}
