// Command invoice-preview renders a sample sale invoice with the configured
// logo, font and organization name, to check the assets before going live.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/vidanatural/farmacia-web/internal/config"
	"github.com/vidanatural/farmacia-web/internal/pdf"
)

func main() {
	out := flag.String("o", "preview.pdf", "output file")
	purchase := flag.Bool("purchase", false, "render a purchase invoice instead of a sale")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	data := pdf.InvoiceData{
		Kind:      pdf.Sale,
		Serial:    "V" + time.Now().Format("02012006") + "001",
		CreatedAt: time.Now(),
		Items: []pdf.Item{
			{Code: "ACE-001", Description: "Acetaminofén Genfar Tabletas", VAT: 19, UnitPrice: decimal.NewFromInt(1500), Quantity: 2, Subtotal: decimal.NewFromInt(3000)},
			{Code: "VIT-010", Description: "Vitamina C MK Frasco", VAT: 5, UnitPrice: decimal.NewFromInt(12500), Quantity: 1, Subtotal: decimal.NewFromInt(12500)},
		},
		Total:         decimal.NewFromInt(15500),
		PaymentMethod: "Efectivo",
		Employee:      "Empleado de prueba",
		Counterparty:  &pdf.Party{Name: "Cliente de prueba", Reference: "1020304050"},
	}
	if *purchase {
		data.Kind = pdf.Purchase
		data.Serial = "C" + data.Serial[1:]
		data.Counterparty = &pdf.Party{Name: "Proveedor de prueba", Reference: "ventas@proveedor.test"}
	}

	body, err := pdf.InvoicePDF(data, pdf.Assets{LogoPath: cfg.Invoices.LogoPath, FontPath: cfg.Invoices.FontPath}, cfg.Invoices.Organization)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render error: %v\n", err)
		os.Exit(2)
	}
	if err := os.WriteFile(*out, body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		os.Exit(3)
	}
	fmt.Printf("%s (%d bytes)\n", *out, len(body))
}
