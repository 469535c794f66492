// Package pdf lays out and writes invoice documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ErrAssetMissing is returned when the logo or font file cannot be found.
var ErrAssetMissing = errors.New("invoice asset missing")

// PublicPrefix is the URL prefix of served invoice files.
const PublicPrefix = "/archivos"

var (
	darkGreen  = [3]int{34, 139, 34}
	lightGreen = [3]int{144, 238, 144}
	grey       = [3]int{128, 128, 128}
	// Column widths in mm, proportional to 1:3:2:2:2:2 over the printable width.
	columnWidths = []float64{15, 45, 30, 30, 30, 30}
)

// Assets are the files embedded in every invoice. FontPath is optional;
// without it the core Helvetica font is used.
type Assets struct {
	LogoPath string
	FontPath string
}

// Check verifies the configured assets exist.
func (a Assets) Check() error {
	if a.LogoPath == "" {
		return fmt.Errorf("%w: no logo configured", ErrAssetMissing)
	}
	if _, err := os.Stat(a.LogoPath); err != nil {
		return fmt.Errorf("%w: logo %s: %v", ErrAssetMissing, a.LogoPath, err)
	}
	if a.FontPath != "" {
		if _, err := os.Stat(a.FontPath); err != nil {
			return fmt.Errorf("%w: font %s: %v", ErrAssetMissing, a.FontPath, err)
		}
	}
	return nil
}

// InvoicePDF renders the invoice into PDF bytes.
func InvoicePDF(data InvoiceData, assets Assets, organization string) ([]byte, error) {
	if err := assets.Check(); err != nil {
		return nil, err
	}

	f := gofpdf.New("P", "mm", "A4", "")
	f.SetTitle(data.Serial, true)
	f.SetAuthor(organization, true)
	f.SetCreationDate(data.CreatedAt)
	f.SetMargins(15, 15, 15)
	f.AddPage()

	family, tr := "Helvetica", f.UnicodeTranslatorFromDescriptor("")
	if assets.FontPath != "" {
		family = "Poppins"
		f.AddUTF8Font(family, "", assets.FontPath)
		f.AddUTF8Font(family, "B", assets.FontPath)
		tr = func(s string) string { return s }
	}
	pageWidth, _ := f.GetPageSize()
	left, _, right, _ := f.GetMargins()
	width := pageWidth - left - right

	for _, b := range Layout(data, organization) {
		switch b.Section {
		case SectionHeader:
			f.SetFont(family, "B", 16)
			setText(f, darkGreen)
			f.CellFormat(width, 10, tr(b.Lines[0]), "", 1, "C", false, 0, "")
			y := f.GetY() + 2
			f.ImageOptions(assets.LogoPath, left, y, 20, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			f.SetFont(family, "", 12)
			setText(f, [3]int{0, 0, 0})
			f.SetXY(left+width/3, y+6)
			f.CellFormat(width*2/3, 8, tr(b.Lines[1]), "", 1, "L", false, 0, "")
			f.SetY(y + 24)
		case SectionInfo:
			f.SetFont(family, "B", 11)
			setText(f, darkGreen)
			f.CellFormat(width/3, 8, tr(b.Lines[0]), "", 0, "L", false, 0, "")
			f.CellFormat(width*2/3, 8, tr(b.Lines[1]), "", 1, "R", false, 0, "")
			f.Ln(4)
		case SectionParty:
			f.SetFont(family, "", 10)
			setText(f, grey)
			f.CellFormat(width, 7, tr(b.Lines[0]), "", 1, "L", false, 0, "")
			f.Ln(6)
		case SectionItems:
			drawItems(f, family, tr, b.Rows)
		case SectionTotals:
			f.SetFont(family, "B", 10)
			setText(f, darkGreen)
			label := sum(columnWidths[:5])
			for _, row := range b.Rows {
				f.CellFormat(label, 7, tr(row[0]), "", 0, "R", false, 0, "")
				f.CellFormat(columnWidths[5], 7, tr(row[1]), "", 1, "C", false, 0, "")
			}
			f.Ln(10)
		case SectionFooter:
			f.SetFont(family, "", 10)
			setText(f, grey)
			for _, line := range b.Lines {
				f.CellFormat(width, 6, tr(line), "", 1, "C", false, 0, "")
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", data.Serial, err)
	}
	return buf.Bytes(), nil
}

const itemLineHeight = 5

// drawItems prints the item table. Cells wrap inside their column and every
// row takes the height of its tallest cell.
func drawItems(f *gofpdf.Fpdf, family string, tr func(string) string, rows [][]string) {
	f.SetFont(family, "B", 10)
	setText(f, [3]int{0, 0, 0})
	f.SetFillColor(lightGreen[0], lightGreen[1], lightGreen[2])
	for i, h := range rows[0] {
		f.CellFormat(columnWidths[i], 8, tr(h), "", 0, "C", true, 0, "")
	}
	f.Ln(-1)
	f.SetFont(family, "", 10)

	left, _, _, bottom := f.GetMargins()
	_, pageHeight := f.GetPageSize()
	for _, row := range rows[1:] {
		cells := make([][]string, len(row))
		lines := 1
		for i, cell := range row {
			cells[i] = wrapText(f, tr(cell), columnWidths[i])
			lines = max(lines, len(cells[i]))
		}
		height := float64(lines)*itemLineHeight + 2
		if f.GetY()+height > pageHeight-bottom {
			f.AddPage()
		}
		y := f.GetY()
		x := left
		for i, cellLines := range cells {
			align := "C"
			if i == 1 {
				align = "L"
			}
			if i >= 3 {
				setText(f, darkGreen)
			} else {
				setText(f, [3]int{0, 0, 0})
			}
			top := y + (height-float64(len(cellLines))*itemLineHeight)/2
			for j, line := range cellLines {
				f.SetXY(x, top+float64(j)*itemLineHeight)
				f.CellFormat(columnWidths[i], itemLineHeight, line, "", 0, align, false, 0, "")
			}
			x += columnWidths[i]
		}
		f.SetXY(left, y+height)
	}
}

// wrapText breaks s at spaces into lines that fit width with the current font.
// A single word wider than the column is kept whole.
func wrapText(f *gofpdf.Fpdf, s string, width float64) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	avail := width - 2*f.GetCellMargin()
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if f.GetStringWidth(line+" "+w) <= avail {
			line += " " + w
			continue
		}
		lines = append(lines, line)
		line = w
	}
	return append(lines, line)
}

func setText(f *gofpdf.Fpdf, c [3]int) { f.SetTextColor(c[0], c[1], c[2]) }

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// Renderer writes invoice files under a files root.
type Renderer struct {
	root         string
	assets       Assets
	organization string
}

// NewRenderer creates a renderer writing below root.
func NewRenderer(root string, assets Assets, organization string) *Renderer {
	return &Renderer{root: root, assets: assets, organization: organization}
}

// Render writes {root}/{folder}/{serial}.pdf, replacing any previous file
// atomically, and returns its public path /archivos/{folder}/{serial}.pdf.
func (r *Renderer) Render(data InvoiceData) (string, error) {
	body, err := InvoicePDF(data, r.assets, r.organization)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(r.root, data.Kind.Folder())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, data.Serial+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create invoice file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write invoice file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close invoice file: %w", err)
	}
	name := data.Serial + ".pdf"
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("move invoice file: %w", err)
	}
	return path.Join(PublicPrefix, data.Kind.Folder(), name), nil
}

// Remove deletes the file behind a public path returned by Render.
// Missing files are not an error.
func (r *Renderer) Remove(publicPath string) error {
	local, ok := r.Resolve(publicPath)
	if !ok {
		return fmt.Errorf("not an invoice path: %s", publicPath)
	}
	if err := os.Remove(local); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve maps a public invoice path to its file on disk. It rejects paths
// outside the invoice folders.
func (r *Renderer) Resolve(publicPath string) (string, bool) {
	rel, ok := strings.CutPrefix(path.Clean(publicPath), PublicPrefix+"/")
	if !ok {
		return "", false
	}
	folder, name := path.Split(rel)
	if _, ok := KindForFolder(path.Clean(folder)); !ok || !validFileName(name) {
		return "", false
	}
	return filepath.Join(r.root, path.Clean(folder), name), true
}

// Local returns the file on disk for folder and name, validating both.
func (r *Renderer) Local(folder, name string) (string, bool) {
	return r.Resolve(path.Join(PublicPrefix, folder, name))
}

func validFileName(name string) bool {
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ".pdf" {
		return false
	}
	for _, c := range name {
		if c == '/' || c == '\\' || c == 0 {
			return false
		}
	}
	return name[0] != '.'
}
