// Package cli defines the cobra command tree for the SFA backend.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sfa-backend/internal/config"
	"github.com/evcraddock/sfa-backend/internal/db"
)

var (
	flagFormat   string
	flagConfig   string
	flagDBDriver string
	flagDSN      string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sfa",
		Short:         "Field sales visit backend",
		Long:          "Backend for the field sales app: serves the checklist catalog and stores visit submissions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./sfa.yaml or ~/.sfa/sfa.yaml)")
	root.PersistentFlags().StringVar(&flagDBDriver, "db-driver", "", "database driver (sqlite3|pgx)")
	root.PersistentFlags().StringVar(&flagDSN, "dsn", "", "database DSN or SQLite path (default: ~/.sfa/sfa.db)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newUserCmd(),
		newVisitCmd(),
		newAPKCmd(),
		newPushCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the config file and environment, then applies global flag overrides.
func loadConfig() (config.Config, error) {
	v, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagDBDriver != "" {
		v.Set(config.KeyDBDriver, flagDBDriver)
	}
	if flagDSN != "" {
		v.Set(config.KeyDBDSN, flagDSN)
	}
	return config.Resolve(v)
}

// openDB opens the configured database, defaulting SQLite to ~/.sfa/sfa.db.
func openDB(cfg config.Config) (*db.DB, error) {
	dsn := cfg.DBDSN
	if dsn == "" {
		dialect, err := db.ParseDialect(cfg.DBDriver)
		if err != nil {
			return nil, err
		}
		if dialect != db.SQLite {
			return nil, fmt.Errorf("db.dsn is required for driver %s", cfg.DBDriver)
		}
		dsn, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(cfg.DBDriver, dsn)
}

// openConfiguredDB loads config and opens the database.
func openConfiguredDB() (*db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openDB(cfg)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *db.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
