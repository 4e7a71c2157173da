package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/auth"
	"github.com/evcraddock/sfa-backend/internal/catalog"
	"github.com/evcraddock/sfa-backend/internal/customer"
	"github.com/evcraddock/sfa-backend/internal/logging"
	"github.com/evcraddock/sfa-backend/internal/release"
	"github.com/evcraddock/sfa-backend/internal/visit"
	"github.com/evcraddock/sfa-backend/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP API used by the mobile app. Requires auth.jwt_secret (SFA_AUTH_JWT_SECRET).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: server.port, 3333)")

	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Port = port
	}

	logging.Setup(cfg.DevMode)

	if cfg.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set SFA_AUTH_JWT_SECRET)")
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}

	d, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(d)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(d.DB, "sfa"),
	)

	coord := visit.NewCoordinator(visit.NewSQLProvider(d),
		visit.WithTimeout(cfg.SubmitTimeout),
		visit.WithVisitSerialization(cfg.SerializeByVisit),
		visit.WithAdvisoryLock(d.Dialect.VisitLockSQL()),
		visit.WithMetrics(visit.NewMetrics(reg)),
	)

	srv, err := web.NewServer(web.Deps{
		Coordinator: coord,
		Visits:      visit.NewRepository(d),
		Catalog:     catalog.NewRepository(d, cfg.CatalogSubqueryTimeout),
		Customers:   customer.NewRepository(d),
		Releases:    release.NewRepository(d),
		Users:       auth.NewUserStore(d),
		Tokens:      tokens,
		Gatherer:    reg,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Port)
}
