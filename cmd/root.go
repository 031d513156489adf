package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Rana718/ddlseed/internal/config"
	"github.com/Rana718/ddlseed/internal/schema"
	"github.com/Rana718/ddlseed/internal/types"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	quiet   bool
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════╗",
		"║   🌱 ddlseed                             ║",
		"║   DDL in, referentially sound data out   ║",
		"╚══════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("   ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "ddlseed",
	Short: "Generate synthetic seed data from SQL DDL",
	Long: `
ddlseed reads CREATE TABLE / ALTER TABLE scripts, works out how the tables
depend on each other and generates rows that satisfy primary keys, unique
keys, foreign keys and auto-increment columns.

Output formats:
- SQL insert script (MySQL, PostgreSQL or SQLite quoting)
- Zip archive with one CSV file per table`,
	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("ddlseed version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	RegisterBaseCommands()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors and results")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, ".json"))
	}

	viper.SetEnvPrefix("DDLSEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		color.Yellow("⚠️  Could not read config %s: %v", cfgFile, err)
	}
}

// loadAppConfig loads and validates ddlseed.config.json.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadSchema parses a .sql file or a folder of them. Statements that could
// not be parsed are reported as warnings as long as some tables survived.
func loadSchema(path string) (*types.Schema, error) {
	s, err := schema.ParseSchemaPath(path)
	var perr *schema.ParseError
	if errors.As(err, &perr) && s != nil {
		if !quiet {
			color.Yellow("⚠️  %d statement(s) skipped, %d issue(s) while parsing %s", len(perr.Failures), len(perr.Issues), path)
			for _, f := range perr.Failures {
				color.Yellow("   - %s", f.Error())
			}
			for _, issue := range perr.Issues {
				color.Yellow("   - %s", issue)
			}
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	return s, nil
}

// schemaArg returns the schema path from args or the config default.
func schemaArg(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.SchemaPath
}
