package infra

// pdf.go — purchase order document generation using go-pdf/fpdf.
// Renders an A4 order sheet with:
//   - Company name header and document title
//   - PO number, status and date
//   - Supplier block (name, company, address, email)
//   - Item table (product, quantity, unit price, amount)
//   - Bold total and optional remarks
//
// The output file is saved to storagePath/po_{number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"fabriq/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateOrderPDF renders a purchase order document for sending to the
// supplier. storagePath is the directory where the PDF will be written
// (created if needed). Returns the absolute path to the generated file.
func GenerateOrderPDF(po *model.PurchaseOrder, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("po_%s.pdf", po.PONumber)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30 // total margins = 30mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 10, "fabriq", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, "Purchase Order", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Order info ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, po.PONumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Date: "+po.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Status: "+po.Status, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Supplier block ────────────────────────────────────────────────────────
	if po.Supplier != nil {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "Supplier", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW, 5, po.Supplier.FullName, "", 1, "L", false, 0, "")
		if po.Supplier.Company != "" {
			pdf.CellFormat(contentW, 5, po.Supplier.Company, "", 1, "L", false, 0, "")
		}
		if po.Supplier.Address != "" {
			pdf.CellFormat(contentW, 5, po.Supplier.Address, "", 1, "L", false, 0, "")
		}
		pdf.CellFormat(contentW, 5, po.Supplier.Email, "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	// ── Separator ────────────────────────────────────────────────────────────
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Items header ──────────────────────────────────────────────────────────
	col1 := contentW * 0.46 // product name
	col2 := contentW * 0.16 // qty
	col3 := contentW * 0.18 // unit price
	col4 := contentW * 0.20 // amount

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 7, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 7, "Unit Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 7, "Amount", "B", 1, "R", false, 0, "")

	// ── Item rows ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range po.Items {
		name := item.ProductID.String()
		if item.Product != nil {
			name = item.Product.Name
		}
		if len(name) > 40 {
			name = name[:39] + "…"
		}
		amount := item.UnitPrice.Mul(item.Quantity)
		pdf.CellFormat(col1, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, item.Quantity.String(), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, amount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Total ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 8, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 8, po.TotalCost.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Remarks ───────────────────────────────────────────────────────────────
	if po.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, "Remarks: "+po.Remarks, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
