package main

import (
	"encoding/json"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/spf13/cobra"
)

// report summarizes a tenant's stock.
type report struct {
	Warehouses  int64                   `json:"warehouses"`
	SKUs        int64                   `json:"skus"`
	Allocations int64                   `json:"allocations"`
	ByStatus    map[string]int64        `json:"byStatus"`
	UnitLoads   []models.UnitLoadRecord `json:"unitLoads"`
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show-data",
		Short: "Print the tenant's stock and allocation state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			rep, err := buildReport(s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}

			printf(out, "STOCK REPORT (tenant %s)\n", opts.Tenant)
			printf(out, "  Warehouses:   %3d\n", rep.Warehouses)
			printf(out, "  SKUs:         %3d\n", rep.SKUs)
			printf(out, "  Allocations:  %3d\n", rep.Allocations)
			for _, st := range []models.AllocationStatus{models.StatusAvailable, models.StatusAllocated, models.StatusPicked} {
				printf(out, "  %-12s  %3d\n", st+":", rep.ByStatus[string(st)])
			}
			printf(out, "\nUNIT LOADS\n")
			for _, u := range rep.UnitLoads {
				printf(out, "  %-12s %-10s qty %4d  %-9s", u.LPNNumber, u.Location, u.HUQty, u.AllocationStatus)
				if u.OutboundAllocationID != nil {
					printf(out, " -> %s", *u.OutboundAllocationID)
				}
				printf(out, "\n")
			}
			return nil
		},
	}
}

func buildReport(s *session) (*report, error) {
	db := s.db.WithContext(s.ctx)
	rep := &report{ByStatus: map[string]int64{}}

	if err := models.ActiveOnly(db.Model(&models.Warehouse{})).Count(&rep.Warehouses).Error; err != nil {
		return nil, err
	}
	if err := models.ActiveOnly(db.Model(&models.SKU{})).Count(&rep.SKUs).Error; err != nil {
		return nil, err
	}
	if err := models.ActiveOnly(db.Model(&models.ContainerStockAllocation{})).Count(&rep.Allocations).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		AllocationStatus string
		N                int64
	}
	err := models.ActiveOnly(db.Model(&models.UnitLoadRecord{})).
		Select("allocation_status, COUNT(*) AS n").
		Group("allocation_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		rep.ByStatus[r.AllocationStatus] = r.N
	}

	if err := models.ActiveOnly(db).Order("created_at ASC, lpn_number ASC").Find(&rep.UnitLoads).Error; err != nil {
		return nil, err
	}
	return rep, nil
}
