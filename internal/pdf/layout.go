package pdf

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kind selects the invoice variant. Values match the stored invoice type tags.
type Kind string

const (
	Sale     Kind = "venta"
	Purchase Kind = "compra"
)

// Folder is the directory, under the files root, holding invoices of this kind.
func (k Kind) Folder() string {
	if k == Purchase {
		return "facturasCompras"
	}
	return "facturasVentas"
}

// KindForFolder maps a files directory back to its kind.
func KindForFolder(folder string) (Kind, bool) {
	switch folder {
	case Sale.Folder():
		return Sale, true
	case Purchase.Folder():
		return Purchase, true
	}
	return "", false
}

// Party is the counterparty printed under the invoice header.
// Reference is the customer's national id or the supplier's contact email.
type Party struct {
	Name      string
	Reference string
}

// Item is one table row.
type Item struct {
	Code        string
	Description string
	VAT         int
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// InvoiceData is everything printed on an invoice.
// A sale without Counterparty is anonymous and prints no customer line.
type InvoiceData struct {
	Kind          Kind
	Serial        string
	CreatedAt     time.Time
	Counterparty  *Party
	Items         []Item
	Total         decimal.Decimal
	PaymentMethod string
	Employee      string
}

// Section names a block of the page, top to bottom.
type Section string

const (
	SectionHeader Section = "header"
	SectionInfo   Section = "info"
	SectionParty  Section = "party"
	SectionItems  Section = "items"
	SectionTotals Section = "totals"
	SectionFooter Section = "footer"
)

// Block is the text content of one section. Items and totals use Rows,
// the other sections use Lines.
type Block struct {
	Section Section
	Lines   []string
	Rows    [][]string
}

var itemColumns = []string{"Código", "Producto", "Iva", "Precio unitario", "Cantidad", "Subtotal"}

// Layout computes the page content of an invoice for organization.
func Layout(data InvoiceData, organization string) []Block {
	title := "Factura de Venta"
	if data.Kind == Purchase {
		title = "Factura de Compra"
	}
	blocks := []Block{
		{Section: SectionHeader, Lines: []string{title, organization}},
		{Section: SectionInfo, Lines: []string{FormatDate(data.CreatedAt), "Factura N°: " + data.Serial}},
	}

	if p := data.Counterparty; p != nil {
		var line string
		if data.Kind == Purchase {
			line = fmt.Sprintf("Proveedor: %s     Contacto: %s", p.Name, p.Reference)
		} else {
			line = fmt.Sprintf("Cliente: %s     identificacion: %s", p.Name, p.Reference)
		}
		blocks = append(blocks, Block{Section: SectionParty, Lines: []string{line}})
	}

	rows := [][]string{itemColumns}
	for _, it := range data.Items {
		rows = append(rows, []string{
			it.Code,
			it.Description,
			strconv.Itoa(it.VAT) + "%",
			"$ " + FormatMoney(it.UnitPrice),
			strconv.Itoa(it.Quantity),
			"$ " + FormatMoney(it.Subtotal),
		})
	}
	blocks = append(blocks,
		Block{Section: SectionItems, Rows: rows},
		Block{Section: SectionTotals, Rows: [][]string{
			{"Total:", FormatMoney(data.Total)},
			{"Método de Pago", data.PaymentMethod},
		}},
	)

	var footer []string
	if data.Kind == Purchase {
		footer = []string{
			"Bajo la responsabilidad de: " + data.Employee,
			"registro de compra realizada por " + organization,
		}
	} else {
		footer = []string{
			"Usted fue atendido por: " + data.Employee,
			"Gracias por su compra en " + organization,
		}
	}
	return append(blocks, Block{Section: SectionFooter, Lines: footer})
}

// Find returns the first block of section s.
func Find(blocks []Block, s Section) (Block, bool) {
	for _, b := range blocks {
		if b.Section == s {
			return b, true
		}
	}
	return Block{}, false
}
