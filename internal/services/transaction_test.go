package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
)

func fixedClock() time.Time { return time.Date(2024, 1, 1, 15, 4, 5, 0, time.Local) }

func saleRequest(fx fixture) CheckoutRequest {
	nid := fx.customer.NationalID
	return CheckoutRequest{
		Kind:               models.KindSale,
		EmployeeID:         fx.employee.ID,
		CustomerNationalID: &nid,
		Total:              decPtr("5500"),
		PaymentMethod:      "Efectivo",
		Items: []LineInput{
			{ProductID: fx.products[0].ID, UnitPrice: dec("1500"), Quantity: 2, Subtotal: dec("3000")},
			{ProductID: fx.products[1].ID, UnitPrice: dec("2500"), Quantity: 1, Subtotal: dec("2500")},
		},
	}
}

func TestRecord_Sale(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, root := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	receipt, err := svc.Record(context.Background(), saleRequest(fx))
	require.NoError(t, err)

	assert.Equal(t, "V01012024001", receipt.Serial)
	assert.Equal(t, "/archivos/facturasVentas/V01012024001.pdf", receipt.FilePath)
	assert.Regexp(t, serialPattern, receipt.Serial)

	assert.EqualValues(t, 1, count(t, conn, &models.Invoice{}))
	assert.EqualValues(t, 1, count(t, conn, &models.Transaction{}))
	assert.EqualValues(t, 2, count(t, conn, &models.LineItem{}))

	txn, err := svc.Get(context.Background(), receipt.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, receipt.FilePath, txn.Invoice.FilePath)
	assert.Equal(t, fx.customer.ID, *txn.CustomerID)
	assert.Nil(t, txn.SupplierID)
	assert.True(t, txn.ItemsTotal().Equal(txn.Total), "items %s total %s", txn.ItemsTotal(), txn.Total)

	body, err := os.ReadFile(filepath.Join(root, "facturasVentas", "V01012024001.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))

	var stock int
	require.NoError(t, conn.Model(&models.Product{}).Select("stock").Where("id = ?", fx.products[0].ID).Scan(&stock).Error)
	assert.Equal(t, 50, stock, "stock is not adjusted by sales")
}

func TestRecord_SecondSaleSameDay(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, _ := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	first, err := svc.Record(context.Background(), saleRequest(fx))
	require.NoError(t, err)
	second, err := svc.Record(context.Background(), saleRequest(fx))
	require.NoError(t, err)

	assert.Equal(t, "V01012024001", first.Serial)
	assert.Equal(t, "V01012024002", second.Serial)
}

func TestRecord_AnonymousSale(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, _ := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)

	req := saleRequest(fx)
	req.CustomerNationalID = nil
	receipt, err := svc.Record(context.Background(), req)
	require.NoError(t, err)

	txn, err := svc.Get(context.Background(), receipt.TransactionID)
	require.NoError(t, err)
	assert.Nil(t, txn.CustomerID)
}

func TestRecord_Purchase(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, root := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	supplierID := fx.supplier.ID
	receipt, err := svc.Record(context.Background(), CheckoutRequest{
		Kind:          models.KindPurchase,
		EmployeeID:    fx.employee.ID,
		SupplierID:    &supplierID,
		Total:         decPtr("9000"),
		PaymentMethod: "Transferencia",
		Items:         []LineInput{{ProductID: fx.products[0].ID, UnitPrice: dec("900"), Quantity: 10, Subtotal: dec("9000")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "C01012024001", receipt.Serial)
	assert.Equal(t, "/archivos/facturasCompras/C01012024001.pdf", receipt.FilePath)
	assert.FileExists(t, filepath.Join(root, "facturasCompras", "C01012024001.pdf"))

	txns, err := svc.List(context.Background(), models.KindPurchase)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, fx.supplier.ID, *txns[0].SupplierID)
	assert.Equal(t, models.KindPurchase, txns[0].Invoice.Type)
}

func TestRecord_PurchaseRequiresSupplier(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, _ := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)

	_, err := svc.Record(context.Background(), CheckoutRequest{
		Kind:       models.KindPurchase,
		EmployeeID: fx.employee.ID,
		Total:      decPtr("900"),
		Items:      []LineInput{{ProductID: fx.products[0].ID, UnitPrice: dec("900"), Quantity: 1, Subtotal: dec("900")}},
	})
	require.ErrorIs(t, err, ErrValidation)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "purchase_empty", ve.Code)
	assert.Equal(t, "required", ve.Fields["supplier"])
}

func TestRecord_EmptyCartWritesNothing(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, root := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)

	cases := []CheckoutRequest{
		{Kind: models.KindSale, EmployeeID: fx.employee.ID, Total: nil, Items: saleRequest(fx).Items},
		{Kind: models.KindSale, EmployeeID: fx.employee.ID, Total: decPtr("0"), Items: saleRequest(fx).Items},
		{Kind: models.KindSale, EmployeeID: fx.employee.ID, Total: decPtr("5500")},
	}
	for i, req := range cases {
		_, err := svc.Record(context.Background(), req)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "case %d", i)
		assert.Equal(t, "sale_empty", ve.Code)
	}

	assert.Zero(t, count(t, conn, &models.Invoice{}))
	assert.Zero(t, count(t, conn, &models.Transaction{}))
	assert.Zero(t, count(t, conn, &models.LineItem{}))
	assert.Zero(t, count(t, conn, &models.InvoiceSequence{}))
	assert.NoDirExists(t, filepath.Join(root, "facturasVentas"))
}

func TestRecord_InvalidQuantity(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, _ := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)

	req := saleRequest(fx)
	req.Items[1].Quantity = 0
	_, err := svc.Record(context.Background(), req)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must_be_positive", ve.Fields["items[1].quantity"])
}

func TestRecord_RenderFailureRollsBack(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), &failingRenderer{})
	svc.SetClock(fixedClock)

	_, err := svc.Record(context.Background(), saleRequest(fx))
	require.ErrorIs(t, err, ErrRender)
	assert.Contains(t, err.Error(), "disk full")

	assert.Zero(t, count(t, conn, &models.Invoice{}))
	assert.Zero(t, count(t, conn, &models.Transaction{}))
	assert.Zero(t, count(t, conn, &models.LineItem{}))

	renderer, _ := testRenderer(t)
	svc = NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)
	receipt, err := svc.Record(context.Background(), saleRequest(fx))
	require.NoError(t, err)
	assert.Equal(t, "V01012024001", receipt.Serial, "rolled back serial is reused")
}

func TestRecord_FailureAfterRenderRemovesFile(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	inner, root := testRenderer(t)
	renderer := &recordingRenderer{Renderer: inner}
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	// Attaching the file path is the first write after rendering.
	require.NoError(t, conn.Callback().Update().Before("gorm:update").Register("test:fail_invoice_path", func(tx *gorm.DB) {
		if tx.Statement.Table == "invoices" {
			tx.AddError(errors.New("disk quota exceeded"))
		}
	}))

	_, err := svc.Record(context.Background(), saleRequest(fx))
	require.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "disk quota exceeded")

	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, renderer.rendered, renderer.removed)
	_, statErr := os.Stat(filepath.Join(root, "facturasVentas", "V01012024001.pdf"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)

	assert.Zero(t, count(t, conn, &models.Invoice{}))
	assert.Zero(t, count(t, conn, &models.Transaction{}))
	assert.Zero(t, count(t, conn, &models.LineItem{}))
}

func TestRecord_UnknownReferences(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, _ := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)

	req := saleRequest(fx)
	req.EmployeeID = 999
	_, err := svc.Record(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)

	req = saleRequest(fx)
	missing := int64(11111)
	req.CustomerNationalID = &missing
	_, err = svc.Record(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)

	req = saleRequest(fx)
	req.Items[0].ProductID = 999
	_, err = svc.Record(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, count(t, conn, &models.Transaction{}))
	assert.Zero(t, count(t, conn, &models.Invoice{}))
}

func TestRecord_ConcurrentSalesGetDistinctSerials(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, _ := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipt, err := svc.Record(context.Background(), saleRequest(fx))
			if assert.NoError(t, err) {
				results[i] = receipt.Serial
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, s := range results {
		assert.Regexp(t, serialPattern, s)
		seen[s] = true
	}
	assert.Len(t, seen, n)
	assert.EqualValues(t, n, count(t, conn, &models.Invoice{}))
}

func TestDelete(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, root := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	receipt, err := svc.Record(context.Background(), saleRequest(fx))
	require.NoError(t, err)
	file := filepath.Join(root, "facturasVentas", receipt.Serial+".pdf")
	require.FileExists(t, file)

	require.NoError(t, svc.Delete(context.Background(), receipt.TransactionID))
	assert.Zero(t, count(t, conn, &models.Invoice{}))
	assert.Zero(t, count(t, conn, &models.Transaction{}))
	assert.Zero(t, count(t, conn, &models.LineItem{}))
	assert.NoFileExists(t, file)

	assert.ErrorIs(t, svc.Delete(context.Background(), receipt.TransactionID), ErrNotFound)
}

func TestInvoiceData(t *testing.T) {
	txn := &models.Transaction{
		Kind:     models.KindPurchase,
		Total:    dec("100"),
		Invoice:  &models.Invoice{Serial: "C01012024003"},
		Supplier: &models.Supplier{Name: "Droguería Central", Email: "ventas@central.test"},
		Employee: &models.Employee{Name: "Laura"},
		Items: []models.LineItem{{
			Product:   &models.Product{Code: "ACE-001", Name: "Acetaminofén", Brand: &models.Brand{Name: "Genfar"}, VAT: 19},
			UnitPrice: dec("50"), Quantity: 2, Subtotal: dec("100"),
		}},
	}
	data := InvoiceData(txn)
	assert.Equal(t, "C01012024003", data.Serial)
	require.NotNil(t, data.Counterparty)
	assert.Equal(t, "ventas@central.test", data.Counterparty.Reference)
	require.Len(t, data.Items, 1)
	assert.Equal(t, "Acetaminofén Genfar", data.Items[0].Description)
	assert.Equal(t, "Laura", data.Employee)
}

func TestRegenerate(t *testing.T) {
	conn := openTestDB(t)
	fx := seedFixture(t, conn)
	renderer, root := testRenderer(t)
	svc := NewTransactionService(conn, NewSerialAllocator(conn), renderer)
	svc.SetClock(fixedClock)

	receipt, err := svc.Record(context.Background(), saleRequest(fx))
	require.NoError(t, err)
	local := filepath.Join(root, "facturasVentas", receipt.Serial+".pdf")
	require.NoError(t, os.Remove(local))

	path, err := svc.Regenerate(context.Background(), receipt.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, receipt.FilePath, path)
	_, err = os.Stat(local)
	assert.NoError(t, err)

	_, err = svc.Regenerate(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
