package main

import (
	"encoding/json"
	"fmt"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/stock"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// seedResult names what seed-demo created.
type seedResult struct {
	WarehouseID  string   `json:"warehouseId"`
	CustomerID   string   `json:"customerId"`
	SKUIDs       []string `json:"skuIds"`
	InboundJobID string   `json:"inboundJobId"`
	AllocationID string   `json:"allocationId"`
	UnitLoads    int      `json:"unitLoads"`
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Create a demo warehouse, received stock and an export allocation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			var existing int64
			if err := s.db.WithContext(s.ctx).Model(&models.Warehouse{}).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 && !force {
				return fmt.Errorf("tenant %s already has %d warehouse(s), rerun with --force to seed anyway", opts.Tenant, existing)
			}

			res, err := seedDemo(s, opts.Tenant)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return json.NewEncoder(out).Encode(res)
			}
			printf(out, "Seeded tenant %s\n", opts.Tenant)
			printf(out, "  warehouse:   %s\n", res.WarehouseID)
			printf(out, "  inbound job: %s (%d unit loads stored)\n", res.InboundJobID, res.UnitLoads)
			printf(out, "  allocation:  %s\n", res.AllocationID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the tenant already has data")
	return cmd
}

func seedDemo(s *session, tenant string) (*seedResult, error) {
	res := &seedResult{}
	var job models.InboundJob

	err := s.db.WithContext(s.ctx).Transaction(func(tx *gorm.DB) error {
		wh := models.Warehouse{
			TenantID: tenant,
			Name:     "Port Botany DC",
			Address:  models.Address{Street: "1 Friendship Rd", City: "Port Botany", State: "NSW", Postcode: "2036"},
		}
		if err := tx.Create(&wh).Error; err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}
		res.WarehouseID = wh.ID

		cust := models.Customer{
			TenantID:     tenant,
			CustomerName: "Harbour Foods",
			Address:      models.Address{Street: "22 Wharf St", City: "Sydney", State: "NSW", Postcode: "2000"},
			Contact:      models.Contact{ContactName: "Ana Lee", ContactPhone: "0400 000 000"},
		}
		if err := tx.Create(&cust).Error; err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		res.CustomerID = cust.ID

		skus := []models.SKU{
			{TenantID: tenant, Code: "RICE-25", Description: "Rice 25kg bag", LengthMM: decimal.NewFromInt(600), WidthMM: decimal.NewFromInt(400), HeightMM: decimal.NewFromInt(150), HUWeight: decimal.NewFromInt(25), UnitsPerPallet: 40},
			{TenantID: tenant, Code: "OIL-20", Description: "Cooking oil 20L", LengthMM: decimal.NewFromInt(300), WidthMM: decimal.NewFromInt(250), HeightMM: decimal.NewFromInt(350), HUWeight: decimal.RequireFromString("18.4"), UnitsPerPallet: 48},
		}
		if err := tx.Create(&skus).Error; err != nil {
			return fmt.Errorf("failed to create skus: %w", err)
		}
		for _, sku := range skus {
			res.SKUIDs = append(res.SKUIDs, sku.ID)
		}

		job = models.InboundJob{
			TenantID:    tenant,
			WarehouseID: wh.ID,
			JobCode:     "IN-DEMO-1",
			ProductLines: []models.ProductLine{
				{SKUID: skus[0].ID, BatchNumber: "R2501", ExpectedQty: 100, ReceivedQty: 100, LPNQty: 40},
				{SKUID: skus[1].ID, BatchNumber: "O2503", ExpectedQty: 96, ReceivedQty: 96, LPNQty: 48},
			},
		}
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("failed to create inbound job: %w", err)
		}
		res.InboundJobID = job.ID

		warehouseID := wh.ID
		booking := models.ContainerBooking{
			TenantID:    tenant,
			BookingCode: "EXP-DEMO-1",
			Direction:   models.DirectionExport,
			ChargeTo:    models.PartyRef{PartyID: &cust.ID, Collection: models.CollectionCustomers},
			From:        models.PartyRef{PartyID: &warehouseID, Collection: models.CollectionWarehouses},
			ToAddress:   models.Address{Street: "Berth 7", City: "Auckland", Postcode: "1010"},
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		container := models.ContainerDetail{TenantID: tenant, BookingID: booking.ID, ContainerNumber: "MSCU7654321"}
		if err := tx.Create(&container).Error; err != nil {
			return fmt.Errorf("failed to create container: %w", err)
		}
		alloc := models.ContainerStockAllocation{
			TenantID:          tenant,
			ContainerDetailID: container.ID,
			Booking:           models.BookingRef{BookingID: booking.ID, Collection: booking.Collection()},
			Direction:         models.DirectionExport,
			ProductLines: []models.ProductLine{
				{SKUID: skus[0].ID, BatchNumber: "R2501", ExpectedQty: 60, LPNQty: 40},
			},
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return fmt.Errorf("failed to create allocation: %w", err)
		}
		res.AllocationID = alloc.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	put, err := s.svc.PutAway(s.ctx, stock.PutAwayRequest{
		JobID: job.ID,
		Records: []stock.PutAwayRecord{
			{ProductLineID: job.ProductLines[0].ID, Location: "A-01-01"},
			{ProductLineID: job.ProductLines[1].ID, Location: "B-02-01"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put away demo stock: %w", err)
	}
	res.UnitLoads = len(put.Created)
	return res, nil
}
