package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile <allocation-id>",
		Short: "Recompute allocation totals from the linked unit loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.svc.Reconcile(s.ctx, args[0], !dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return json.NewEncoder(out).Encode(res)
			}
			for _, l := range res.Lines {
				mark := "ok"
				if l.Drifted {
					mark = "DRIFT"
				}
				printf(out, "  line %d  stored %4d  linked %4d (%d units)  %s\n", l.ProductLineIndex, l.StoredQty, l.LinkedQty, l.LinkedUnits, mark)
			}
			switch {
			case res.Applied:
				printf(out, "allocation %s repaired\n", res.AllocationID)
			case res.Drifted():
				printf(out, "allocation %s drifted, rerun without --dry-run to repair\n", res.AllocationID)
			default:
				printf(out, "allocation %s is consistent\n", res.AllocationID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report drift without writing")
	return cmd
}
