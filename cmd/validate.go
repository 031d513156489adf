package cmd

import (
	"fmt"

	"github.com/Rana718/ddlseed/internal/config"
	"github.com/Rana718/ddlseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateGenFile string

var validateCmd = &cobra.Command{
	Use:   "validate [schema.sql|dir]",
	Short: "Check a generation config against a schema without generating",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		s, err := loadSchema(schemaArg(args, cfg))
		if err != nil {
			return err
		}
		gen, err := config.LoadGenerationConfig(validateGenFile)
		if err != nil {
			return err
		}

		errs := seeder.ValidateConfig(s, gen)
		if len(errs) == 0 {
			color.Green("✅ %s is valid", validateGenFile)
			return nil
		}

		color.Red("❌ %d problem(s) in %s", len(errs), validateGenFile)
		for _, fe := range errs {
			fmt.Printf("  %s: %s\n", fe.Field, fe.Message)
		}
		return fmt.Errorf("generation config is invalid")
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateGenFile, "gen", "g", "generation.yaml", "Generation config (.yaml or .json)")
}
