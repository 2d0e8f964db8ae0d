package printer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLabelsPDF(t *testing.T) {
	var labels []Label
	for i := 0; i < 5; i++ {
		labels = append(labels, Label{LPNNumber: fmt.Sprintf("LPN%08d", i+1), SKUCode: "SKU-1", Batch: "B1", Qty: 40, Location: "A-01"})
	}

	out, err := GenerateLabelsPDF(labels, Layout{Cols: 2, Rows: 2})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	// 5 labels on a 2x2 grid need two pages
	assert.Equal(t, 2, bytes.Count(out, []byte("/Type /Page\n")))
}

func TestGenerateLabelsPDFEmpty(t *testing.T) {
	_, err := GenerateLabelsPDF(nil, DefaultLayout())
	assert.ErrorIs(t, err, ErrNoLabels)
}

func TestLabelFromRecord(t *testing.T) {
	rec := models.UnitLoadRecord{LPNNumber: "LPN1", SKUID: "sku-id", BatchNumber: "B1", HUQty: 12, Location: "Z-9"}
	assert.Equal(t, Label{LPNNumber: "LPN1", SKUCode: "sku-id", Batch: "B1", Qty: 12, Location: "Z-9"}, LabelFromRecord(rec, ""))
	assert.Equal(t, "SKU-1", LabelFromRecord(rec, "SKU-1").SKUCode)
}
