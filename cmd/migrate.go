package cmd

import (
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/internal/scorestore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// migrateCmd runs database schema migrations for the score store.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the score store.

Migrations allow:
- Upgrading to new schema versions when devscore is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed
- Testing new features on specific schema versions

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  devscore migrate

  # Migrate to specific version
  devscore migrate --target-version 1

  # Rollback to initial state
  devscore migrate --target-version 0`,
	PreRunE: migrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := scorestore.Migrate(cfg.Backend, cfg.DBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
