package stock

import (
	"context"
	"fmt"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	lpnAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lpnDigits       = 8
	lpnMaxReserveTx = 5

	// rounds of skipping used numbers before put-away gives up
	lpnMaxSkipRounds = 8
)

// LPNGenerator reserves contiguous blocks of license plate numbers from the
// global sequence row. LPN numbers are unique across tenants.
type LPNGenerator struct {
	prefix string
}

func NewLPNGenerator(prefix string) *LPNGenerator {
	if prefix == "" {
		prefix = "LPN"
	}
	return &LPNGenerator{prefix: prefix}
}

// Generate returns count new LPNs. It must run inside the caller's transaction
// so the reservation rolls back with the records it numbers. The numbers are
// not checked against existing records.
func (g *LPNGenerator) Generate(ctx context.Context, tx *gorm.DB, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	db := tx.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.LPNSequence{Name: models.LPNSequenceGlobal, NextValue: 1}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create lpn sequence: %w", err)
	}

	for attempt := 0; attempt < lpnMaxReserveTx; attempt++ {
		var seq models.LPNSequence
		if err := db.Where("name = ?", models.LPNSequenceGlobal).First(&seq).Error; err != nil {
			return nil, fmt.Errorf("failed to load lpn sequence: %w", err)
		}

		res := db.Model(&models.LPNSequence{}).
			Where("name = ? AND next_value = ?", seq.Name, seq.NextValue).
			UpdateColumn("next_value", seq.NextValue+int64(count))
		if res.Error != nil {
			return nil, fmt.Errorf("failed to reserve lpn block: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		out := make([]string, count)
		for i := range out {
			out[i] = g.Format(seq.NextValue + int64(i))
		}
		return out, nil
	}
	return nil, newError(ErrCodeConflict, "lpn sequence is contended, retry")
}

// Format renders a sequence value as prefix plus fixed-width base36 digits.
func (g *LPNGenerator) Format(n int64) string {
	base := int64(len(lpnAlphabet))
	buf := make([]byte, lpnDigits)
	for i := lpnDigits - 1; i >= 0; i-- {
		buf[i] = lpnAlphabet[n%base]
		n /= base
	}
	return g.prefix + string(buf)
}
