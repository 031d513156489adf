package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/Rana718/ddlseed/internal/config"
	"github.com/Rana718/ddlseed/internal/seeder"
	"github.com/Rana718/ddlseed/internal/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	genFile      string
	genOut       string
	genOutputDir string
	genFormat    string
	genDialect   string
	genSeed      int64
)

var generateCmd = &cobra.Command{
	Use:   "generate [schema.sql|dir]",
	Short: "Generate seed data for a schema",
	Long: `Generate rows for every table configured in the generation config and
write them as a SQL insert script or as a zip archive of CSV files.

Examples:
  ddlseed generate db/schema --gen generation.yaml
  ddlseed generate schema.sql -g gen.json --format csv --seed 7 --out fixtures`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dialect") {
			cfg.Dialect = genDialect
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.OutputDir = genOutputDir
		}

		s, err := loadSchema(schemaArg(args, cfg))
		if err != nil {
			return err
		}
		gen, err := config.LoadGenerationConfig(genFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("format") {
			gen.Format = types.Format(strings.ToLower(genFormat))
		}
		if cmd.Flags().Changed("seed") {
			gen.Seed = &genSeed
		}

		sd, err := seeder.NewSeeder(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if !quiet {
			color.Cyan("🌱 Generating seed data...")
		}
		path, err := sd.WithQuiet(quiet).Generate(ctx, gen, s, genOut)
		if err != nil {
			var verr *seeder.ValidationError
			if errors.As(err, &verr) {
				color.Red("❌ %d problem(s) in %s", len(verr.Errors), genFile)
				for _, fe := range verr.Errors {
					fmt.Printf("  %s: %s\n", fe.Field, fe.Message)
				}
				return fmt.Errorf("generation config is invalid")
			}
			return err
		}

		fmt.Println(path)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genFile, "gen", "g", "generation.yaml", "Generation config (.yaml or .json)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output file name (default data_<uuid>)")
	generateCmd.Flags().StringVar(&genOutputDir, "output-dir", "", "Directory for the output file (overrides output_dir)")
	generateCmd.Flags().StringVar(&genFormat, "format", "", "Output format: sql or csv (overrides the generation config)")
	generateCmd.Flags().StringVar(&genDialect, "dialect", "", "SQL quoting: mysql, postgresql or sqlite (overrides dialect)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "Random seed (overrides the generation config)")
}
