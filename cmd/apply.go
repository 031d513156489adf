package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Rana718/ddlseed/internal/database"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	applyProvider string
	applyURLEnv   string
)

var applyCmd = &cobra.Command{
	Use:   "apply <script.sql>",
	Short: "Load a generated insert script into a database",
	Long: `Execute a generated SQL script against the database named by the
url_env variable, in a single transaction. Intended for local and test
databases.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		if applyProvider != "" {
			cfg.Database.Provider = applyProvider
		}
		if applyURLEnv != "" {
			cfg.Database.URLEnv = applyURLEnv
		}

		script, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}

		dbURL, err := cfg.GetDatabaseURL()
		if err != nil {
			return err
		}

		ctx := context.Background()
		adapter, err := database.Open(ctx, cfg.Database.Provider, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer adapter.Close()

		n, err := database.ApplyScript(ctx, adapter, string(script))
		if err != nil {
			return err
		}
		color.Green("✅ Applied %d statement(s) from %s", n, args[0])

		if quiet {
			return nil
		}
		tables, err := adapter.GetAllTableNames(ctx)
		if err != nil {
			return nil
		}
		for _, table := range tables {
			count, err := adapter.CountRows(ctx, table)
			if err != nil {
				continue
			}
			fmt.Printf("  %-30s %d rows\n", table, count)
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyProvider, "provider", "", "Database provider (overrides database.provider)")
	applyCmd.Flags().StringVar(&applyURLEnv, "url-env", "", "Environment variable holding the database URL")
}
