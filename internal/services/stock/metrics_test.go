package stock

import (
	"testing"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMetricsFor(t *testing.T) {
	sku := &models.SKU{
		LengthMM: dec("1200"), WidthMM: dec("800"), HeightMM: dec("150"),
		HUWeight: dec("12.75"),
	}

	m := metricsFor(sku, 10, 40)
	assert.Equal(t, "127.5", m.Weight.String())
	assert.Equal(t, "1.44", m.CubicM3.String())
	assert.Equal(t, "0.25", m.PLT.String())

	sku.UnitsPerPallet = 8
	assert.Equal(t, "1.25", metricsFor(sku, 10, 40).PLT.String())

	sku.UnitsPerPallet = 0
	assert.True(t, metricsFor(sku, 10, 0).PLT.IsZero())
	assert.Equal(t, lineMetrics{}, metricsFor(nil, 10, 40))
	assert.Equal(t, lineMetrics{}, metricsFor(sku, 0, 40))
}

func TestMergeAndReleaseLine(t *testing.T) {
	line := &models.ProductLine{}
	u1 := models.UnitLoadRecord{ID: "u1", LPNNumber: "L1", HUQty: 40, Location: "A-01"}
	u2 := models.UnitLoadRecord{ID: "u2", LPNNumber: "L2", HUQty: 20, Location: "B-01"}

	mergeIntoLine(line, []models.UnitLoadRecord{u1}, lineMetrics{Weight: dec("100"), CubicM3: dec("1"), PLT: dec("1")})
	mergeIntoLine(line, []models.UnitLoadRecord{u2, u1}, lineMetrics{Weight: dec("50"), CubicM3: dec("0.5"), PLT: dec("0.5")})

	assert.Equal(t, "A-01", line.Location)
	assert.Equal(t, []string{"u1", "u2"}, line.UnitLoadIDs)
	assert.Equal(t, []string{"L1", "L2"}, line.LPNNumbers)
	assert.Equal(t, "150", line.AllocatedWeight.String())

	releaseFromLine(line, u1, lineMetrics{Weight: dec("500"), CubicM3: dec("1"), PLT: dec("1")})
	assert.Equal(t, []string{"u2"}, line.UnitLoadIDs)
	assert.True(t, line.AllocatedWeight.IsZero(), "totals clamp at zero")
	assert.Equal(t, "0.5", line.AllocatedCubicM3.String())
}
