package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var mm3PerM3 = decimal.NewFromInt(1_000_000_000)

// lineMetrics are the derived totals for a quantity of one SKU.
type lineMetrics struct {
	Weight  decimal.Decimal
	CubicM3 decimal.Decimal
	PLT     decimal.Decimal
}

// metricsFor computes weight, volume and pallet equivalents for qty units.
// A nil SKU yields zero metrics.
func metricsFor(sku *models.SKU, qty, unitCapacity int) lineMetrics {
	if sku == nil || qty <= 0 {
		return lineMetrics{}
	}
	q := decimal.NewFromInt(int64(qty))

	m := lineMetrics{
		Weight:  sku.HUWeight.Mul(q),
		CubicM3: sku.LengthMM.Mul(sku.WidthMM).Mul(sku.HeightMM).Div(mm3PerM3).Mul(q).Round(6),
	}
	perPallet := sku.UnitsPerPallet
	if perPallet <= 0 {
		perPallet = unitCapacity
	}
	if perPallet > 0 {
		m.PLT = q.DivRound(decimal.NewFromInt(int64(perPallet)), 4)
	}
	return m
}

func (s *Service) loadSKU(ctx context.Context, tx *gorm.DB, id string) (*models.SKU, error) {
	if id == "" {
		return nil, nil
	}
	var sku models.SKU
	err := tx.WithContext(ctx).Where("id = ?", id).First(&sku).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.WithField("sku_id", id).Warn("sku not found, allocation metrics left at zero")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sku %s: %w", id, err)
	}
	return &sku, nil
}

// mergeIntoLine adds newly allocated units to the line's cumulative totals.
// Unit ids and LPNs already listed are not added twice.
func mergeIntoLine(line *models.ProductLine, units []models.UnitLoadRecord, m lineMetrics) {
	qty := 0
	for _, u := range units {
		qty += u.HUQty
	}
	line.AllocatedQty += qty
	line.AllocatedWeight = line.AllocatedWeight.Add(m.Weight)
	line.AllocatedCubicM3 = line.AllocatedCubicM3.Add(m.CubicM3)
	line.AllocatedPLT = line.AllocatedPLT.Add(m.PLT)

	for _, u := range units {
		line.UnitLoadIDs = appendUnique(line.UnitLoadIDs, u.ID)
		line.LPNNumbers = appendUnique(line.LPNNumbers, u.LPNNumber)
	}
	if line.Location == "" && len(units) > 0 {
		line.Location = units[0].Location
	}
}

// releaseFromLine takes one unit back out of the line's totals.
func releaseFromLine(line *models.ProductLine, unit models.UnitLoadRecord, m lineMetrics) {
	line.AllocatedQty -= unit.HUQty
	if line.AllocatedQty < 0 {
		line.AllocatedQty = 0
	}
	line.AllocatedWeight = nonNegative(line.AllocatedWeight.Sub(m.Weight))
	line.AllocatedCubicM3 = nonNegative(line.AllocatedCubicM3.Sub(m.CubicM3))
	line.AllocatedPLT = nonNegative(line.AllocatedPLT.Sub(m.PLT))
	line.UnitLoadIDs = without(line.UnitLoadIDs, unit.ID)
	line.LPNNumbers = without(line.LPNNumbers, unit.LPNNumber)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func without(list []string, v string) []string {
	out := list[:0:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
