package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/database"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/stock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Tenant string
	Format string // "json" | "text"
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wmsctl",
		Short: "Administrative tasks for the container stock service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Tenant, "tenant", "demo", "tenant to operate on")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newReconcileCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	return cmd
}

// session is an open database with a stock service bound to one tenant.
type session struct {
	cfg *config.Config
	db  *database.DB
	svc *stock.Service
	ctx context.Context
}

func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	if opts.Tenant == "" {
		return nil, fmt.Errorf("--tenant is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.LogLevel)
	log.SetOutput(cmd.ErrOrStderr())
	if opts.Format == "json" {
		log.SetLevel(logrus.WarnLevel)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	ctx := appctx.WithUser(appctx.WithTenant(cmd.Context(), opts.Tenant), "wmsctl")
	svc := stock.NewService(db.DB, stock.Options{
		LPNPrefix: cfg.Stock.LPNPrefix,
		PageSize:  cfg.Stock.CandidatePage,
		Logger:    log,
	})
	return &session{cfg: cfg, db: db, svc: svc, ctx: ctx}, nil
}

func (s *session) Close() error { return s.db.Close() }

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
