package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Rana718/ddlseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var parseJSON bool

var parseCmd = &cobra.Command{
	Use:   "parse [schema.sql|dir]",
	Short: "Parse a DDL script and show tables in generation order",
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
		cycles := seeder.SortSchema(s)

		if parseJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		color.Green("📊 Found %d tables", len(s.Tables))
		color.Cyan("📋 Generation order: %s", strings.Join(s.TableNames(), " → "))
		if len(cycles) > 0 {
			color.Yellow("⚠️  Circular foreign keys between: %s", strings.Join(cycles, ", "))
		}
		fmt.Println()

		for _, t := range s.Tables {
			fmt.Printf("%s\n", t.Name)
			for _, c := range t.Columns {
				var flags []string
				if c.IsPrimaryKey {
					flags = append(flags, "PK")
				}
				if c.IsUnique {
					flags = append(flags, "UNIQUE")
				}
				if c.IsForeignKey {
					flags = append(flags, "FK")
				}
				if c.AutoIncrement {
					flags = append(flags, "AUTO")
				}
				if !c.Nullable {
					flags = append(flags, "NOT NULL")
				}
				fmt.Printf("  %-24s %-24s %s\n", c.Name, c.DataType, strings.Join(flags, " "))
			}
		}

		if len(s.Relationships) > 0 {
			fmt.Println()
			fmt.Println("🔗 Relationships:")
			for _, rel := range s.Relationships {
				fmt.Printf("  %s.%s → %s.%s\n", rel.FromTable, rel.FromColumn, rel.ToTable, rel.ToColumn)
			}
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the parsed schema as JSON")
}
