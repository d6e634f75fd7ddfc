package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fabriq/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOrderWithItems() *model.PurchaseOrder {
	rod := &model.Product{ID: uuid.New(), Name: "Steel Rod", ProductCode: "RM001"}
	bolt := &model.Product{ID: uuid.New(), Name: "Hex Bolt", ProductCode: "RM002"}
	return &model.PurchaseOrder{
		ID:       uuid.New(),
		PONumber: "PO00042",
		Status:   model.POStatusOpen,
		Supplier: &model.Party{
			Type:     model.PartySupplier,
			FullName: "Acme Metals",
			Company:  "Acme Metals Pvt Ltd",
			Address:  "14 Foundry Lane",
			Email:    "sales@acme.example",
		},
		Items: []model.PurchaseOrderItem{
			{ProductID: rod.ID, Product: rod, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromFloat(12.5)},
			{ProductID: bolt.ID, Product: bolt, Quantity: decimal.NewFromInt(100), UnitPrice: decimal.NewFromFloat(0.8)},
		},
		TotalCost: decimal.NewFromInt(205),
		CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestGenerateOrderPDF_WritesFile(t *testing.T) {
	tmpDir := t.TempDir()
	po := buildOrderWithItems()

	pdfPath, err := GenerateOrderPDF(po, tmpDir)

	require.NoError(t, err)
	assert.NotEmpty(t, pdfPath)

	// File must exist and have content
	info, statErr := os.Stat(pdfPath)
	require.NoError(t, statErr)
	assert.Greater(t, info.Size(), int64(100), "PDF should have content > 100 bytes")
}

func TestGenerateOrderPDF_FileName(t *testing.T) {
	tmpDir := t.TempDir()
	po := buildOrderWithItems()
	po.PONumber = "PO00099"

	pdfPath, err := GenerateOrderPDF(po, tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "po_PO00099.pdf", filepath.Base(pdfPath))
}

func TestGenerateOrderPDF_WithRemarksAndNoSupplier(t *testing.T) {
	tmpDir := t.TempDir()
	po := buildOrderWithItems()
	po.Supplier = nil
	po.Remarks = "deliver to gate 3, quote ref Q-118"

	pdfPath, err := GenerateOrderPDF(po, tmpDir)

	require.NoError(t, err)
	_, statErr := os.Stat(pdfPath)
	assert.NoError(t, statErr)
}
