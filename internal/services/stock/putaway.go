package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PutAwayMode selects how locations are assigned to the remaining units of a line.
type PutAwayMode string

const (
	// ModeBulk applies one location to every remaining unit.
	ModeBulk PutAwayMode = "bulk"
	// ModeItemized takes one record per remaining unit, in order.
	ModeItemized PutAwayMode = "itemized"
)

// PutAwayRecord is one row of a put-away submission.
type PutAwayRecord struct {
	ProductLineID string      `json:"productLineId" validate:"required"`
	SKUID         string      `json:"skuId"`
	Location      string      `json:"location"`
	HUQty         int         `json:"huQty" validate:"gte=0"`
	LPNNumber     string      `json:"lpnNumber"`
	Mode          PutAwayMode `json:"mode" validate:"omitempty,oneof=bulk itemized"`
}

// PutAwayRequest stores the unit loads of one inbound job or import container.
type PutAwayRequest struct {
	JobID       string            `json:"jobId" validate:"required"`
	JobKind     models.SourceKind `json:"jobKind" validate:"omitempty,oneof=inbound container"`
	WarehouseID string            `json:"warehouseId"`
	Records     []PutAwayRecord   `json:"putAwayRecords" validate:"required,min=1,dive"`
}

// LinePutAway reports what happened to one product line.
type LinePutAway struct {
	ProductLineID string      `json:"productLineId"`
	Mode          PutAwayMode `json:"mode,omitempty"`
	UnitCount     int         `json:"unitCount"`
	Existing      int         `json:"existing"`
	Created       int         `json:"created"`
	// Ignored counts submitted rows no unit load was created from.
	Ignored       int         `json:"ignored"`
	FullyPutAway  bool        `json:"fullyPutAway"`
}

// PutAwayResult lists the created unit loads and the per-line outcome.
type PutAwayResult struct {
	Lines   []LinePutAway           `json:"lines"`
	Created []models.UnitLoadRecord `json:"created"`
}

// sourceDoc is the versioned document whose product lines are put away.
type sourceDoc struct {
	kind        models.SourceKind
	id          string
	warehouseID string
	containerID *string
	version     int64
	lines       []models.ProductLine
	model       any
}

func loadSource(ctx context.Context, tx *gorm.DB, kind models.SourceKind, id string) (*sourceDoc, error) {
	db := models.ActiveOnly(tx.WithContext(ctx))
	switch kind {
	case models.SourceInbound, "":
		var job models.InboundJob
		if err := db.Where("id = ?", id).First(&job).Error; err != nil {
			return nil, notFound(err, "inbound job "+id)
		}
		return &sourceDoc{
			kind:        models.SourceInbound,
			id:          job.ID,
			warehouseID: job.WarehouseID,
			version:     job.Version,
			lines:       job.ProductLines,
			model:       &models.InboundJob{},
		}, nil
	case models.SourceContainer:
		var alloc models.ContainerStockAllocation
		if err := db.Where("id = ?", id).First(&alloc).Error; err != nil {
			return nil, notFound(err, "container stock allocation "+id)
		}
		doc := &sourceDoc{
			kind:        models.SourceContainer,
			id:          alloc.ID,
			containerID: &alloc.ContainerDetailID,
			version:     alloc.Version,
			lines:       alloc.ProductLines,
			model:       &models.ContainerStockAllocation{},
		}
		var container models.ContainerDetail
		err := tx.WithContext(ctx).Where("id = ?", alloc.ContainerDetailID).First(&container).Error
		if err == nil && container.WarehouseID != nil {
			doc.warehouseID = *container.WarehouseID
		}
		return doc, nil
	}
	return nil, newError(ErrCodeValidation, "unknown job kind %q", kind)
}

// putAwayQty is the quantity decomposed into unit loads. Import containers
// that were never received against fall back to the expected quantity.
func putAwayQty(kind models.SourceKind, line models.ProductLine) int {
	if line.ReceivedQty > 0 || kind != models.SourceContainer {
		return line.ReceivedQty
	}
	return line.ExpectedQty
}

type plannedUnit struct {
	lineIdx  int
	location string
	lpn      string
	huQty    int
}

// PutAway creates the unit loads still missing for each submitted product line.
// Lines that are already fully put away are skipped, so repeating a call is safe.
func (s *Service) PutAway(ctx context.Context, req PutAwayRequest) (*PutAwayResult, error) {
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.JobID == "" {
		return nil, newError(ErrCodeValidation, "jobId is required")
	}

	// group rows by product line, keeping submission order
	var order []string
	groups := map[string][]PutAwayRecord{}
	for _, r := range req.Records {
		if r.ProductLineID == "" {
			return nil, newError(ErrCodeValidation, "productLineId is required on every put-away record")
		}
		if _, ok := groups[r.ProductLineID]; !ok {
			order = append(order, r.ProductLineID)
		}
		groups[r.ProductLineID] = append(groups[r.ProductLineID], r)
	}

	result := &PutAwayResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := loadSource(ctx, tx, req.JobKind, req.JobID)
		if err != nil {
			return err
		}
		warehouseID := doc.warehouseID
		if req.WarehouseID != "" {
			if warehouseID != "" && warehouseID != req.WarehouseID {
				return newError(ErrCodeValidation, "job %s belongs to warehouse %s, not %s", doc.id, warehouseID, req.WarehouseID)
			}
			warehouseID = req.WarehouseID
		}

		var (
			planned []plannedUnit
			missing []string
		)
		for _, lineID := range order {
			idx := models.FindLine(doc.lines, lineID)
			if idx < 0 {
				return newError(ErrCodeValidation, "product line %s is not on job %s", lineID, doc.id).
					with("productLineId", lineID)
			}
			line := doc.lines[idx]
			rows := groups[lineID]

			qty := putAwayQty(doc.kind, line)
			count := UnitCount(qty, line.LPNQty)

			var existing int64
			err := models.ActiveOnly(tx.WithContext(ctx)).Model(&models.UnitLoadRecord{}).
				Where("source_id = ? AND product_line_id = ?", doc.id, lineID).
				Count(&existing).Error
			if err != nil {
				return fmt.Errorf("failed to count unit loads of line %s: %w", lineID, err)
			}

			outcome := LinePutAway{ProductLineID: lineID, UnitCount: count, Existing: int(existing)}
			remaining := count - int(existing)
			if remaining <= 0 {
				outcome.Ignored = len(rows)
				outcome.FullyPutAway = true
				result.Lines = append(result.Lines, outcome)
				continue
			}

			mode := lineMode(rows)
			outcome.Mode = mode
			for _, r := range rows {
				if r.SKUID != "" && line.SKUID != "" && r.SKUID != line.SKUID {
					return newError(ErrCodeValidation, "sku %s does not match product line %s", r.SKUID, lineID).
						with("productLineId", lineID)
				}
			}

			for i := 0; i < remaining; i++ {
				unitIdx := int(existing) + i
				u := plannedUnit{lineIdx: idx, huQty: UnitQty(qty, line.LPNQty, unitIdx, count)}
				switch mode {
				case ModeBulk:
					u.location = strings.TrimSpace(rows[0].Location)
					if remaining == 1 {
						u.lpn = strings.TrimSpace(rows[0].LPNNumber)
					}
				default:
					if i < len(rows) {
						u.location = strings.TrimSpace(rows[i].Location)
						u.lpn = strings.TrimSpace(rows[i].LPNNumber)
					}
				}
				if u.location == "" {
					missing = append(missing, fmt.Sprintf("%s#%d", lineID, unitIdx+1))
				}
				planned = append(planned, u)
			}
			outcome.Created = remaining
			outcome.Ignored = len(rows) - usedRows(mode, len(rows), remaining)
			outcome.FullyPutAway = true
			result.Lines = append(result.Lines, outcome)
		}

		if len(missing) > 0 {
			return newError(ErrCodeValidation, "location missing for %d unit(s): %s", len(missing), strings.Join(missing, ", ")).
				with("units", strings.Join(missing, ","))
		}
		if len(planned) == 0 {
			return nil
		}

		if err := s.assignLPNs(ctx, tx, planned); err != nil {
			return err
		}

		records := make([]models.UnitLoadRecord, len(planned))
		for i, u := range planned {
			line := doc.lines[u.lineIdx]
			records[i] = models.UnitLoadRecord{
				TenantID:          tenantID,
				WarehouseID:       warehouseID,
				LPNNumber:         u.lpn,
				SourceKind:        doc.kind,
				SourceID:          doc.id,
				ProductLineID:     line.ID,
				SourceContainerID: doc.containerID,
				SKUID:             line.SKUID,
				BatchNumber:       line.BatchNumber,
				Location:          u.location,
				HUQty:             u.huQty,
				AllocationStatus:  models.StatusAvailable,
			}
			doc.lines[u.lineIdx].Location = u.location
		}
		if err := tx.WithContext(ctx).Create(&records).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(ErrCodeConflict, "lpn number taken by a concurrent put-away, retry")
			}
			return fmt.Errorf("failed to create unit loads: %w", err)
		}
		if err := saveVersioned(ctx, tx, doc.model, doc.id, doc.version, doc.lines); err != nil {
			return err
		}
		result.Created = records
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, l := range result.Lines {
		if l.Ignored > 0 {
			s.log.WithFields(logrus.Fields{
				"tenant_id":       tenantID,
				"job_id":          req.JobID,
				"product_line_id": l.ProductLineID,
				"ignored":         l.Ignored,
			}).Warn("put-away rows beyond the remaining unit loads were ignored")
		}
	}

	if len(result.Created) > 0 {
		s.log.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"job_id":    req.JobID,
			"created":   len(result.Created),
		}).Info("unit loads put away")
		s.publish(ctx, EventPutAway, result)
	}
	return result, nil
}

// lineMode picks the location mode for a line: an explicit mode on any row
// wins, otherwise a single row with a location means bulk.
func lineMode(rows []PutAwayRecord) PutAwayMode {
	for _, r := range rows {
		if r.Mode != "" {
			return r.Mode
		}
	}
	if len(rows) == 1 && strings.TrimSpace(rows[0].Location) != "" {
		return ModeBulk
	}
	return ModeItemized
}

// usedRows is how many submitted rows a line's new unit loads draw from.
func usedRows(mode PutAwayMode, rows, remaining int) int {
	if mode == ModeBulk {
		return 1
	}
	return min(rows, remaining)
}

// assignLPNs checks caller supplied numbers and generates the rest. Generated
// numbers that are already in use, for example ones a caller supplied for an
// earlier job, are skipped and replaced from a larger block.
func (s *Service) assignLPNs(ctx context.Context, tx *gorm.DB, planned []plannedUnit) error {
	var supplied []string
	seen := map[string]bool{}
	need := 0
	for _, u := range planned {
		if u.lpn == "" {
			need++
			continue
		}
		if seen[u.lpn] {
			return newError(ErrCodeValidation, "lpn %s submitted twice", u.lpn).with("lpnNumber", u.lpn)
		}
		seen[u.lpn] = true
		supplied = append(supplied, u.lpn)
	}

	if len(supplied) > 0 {
		taken, err := lpnsInUse(ctx, tx, supplied)
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			return newError(ErrCodeConflict, "lpn numbers already in use: %s", strings.Join(taken, ", ")).
				with("lpnNumbers", strings.Join(taken, ","))
		}
	}

	var free []string
	for round := 0; len(free) < need; round++ {
		if round == lpnMaxSkipRounds {
			return newError(ErrCodeConflict, "could not reserve %d unused lpn numbers, retry", need)
		}
		size := (need - len(free)) << round
		block, err := s.lpn.Generate(ctx, tx, size)
		if err != nil {
			return err
		}
		taken, err := lpnsInUse(ctx, tx, block)
		if err != nil {
			return err
		}
		for _, n := range taken {
			seen[n] = true
		}
		for _, n := range block {
			if !seen[n] && len(free) < need {
				free = append(free, n)
			}
		}
	}

	next := 0
	for i := range planned {
		if planned[i].lpn == "" {
			planned[i].lpn = free[next]
			next++
		}
	}
	return nil
}

// lpnsInUse returns the sorted subset of numbers held by any tenant's records.
func lpnsInUse(ctx context.Context, tx *gorm.DB, numbers []string) ([]string, error) {
	var taken []string
	err := tx.WithContext(appctx.SkipTenantScope(ctx)).Model(&models.UnitLoadRecord{}).
		Where("lpn_number IN ?", numbers).
		Pluck("lpn_number", &taken).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check lpn numbers: %w", err)
	}
	sort.Strings(taken)
	return taken, nil
}

// ListPutAway returns the active unit loads created from a job, oldest first.
func (s *Service) ListPutAway(ctx context.Context, jobID string) ([]models.UnitLoadRecord, error) {
	var records []models.UnitLoadRecord
	err := models.ActiveOnly(s.db.WithContext(ctx)).
		Where("source_id = ?", jobID).
		Order("created_at ASC, lpn_number ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unit loads of job %s: %w", jobID, err)
	}
	return records, nil
}
