package cmd

import (
	"fmt"

	"github.com/Rana718/ddlseed/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a ddlseed config and a sample generation config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitializeProject("."); err != nil {
			return err
		}

		color.Green("✅ Initialized ddlseed")
		fmt.Println()
		fmt.Println("📝 Files created:")
		fmt.Printf("   %s\n", config.FileName)
		fmt.Println("   generation.yaml")
		fmt.Println()
		color.Cyan("💡 Next: ddlseed generate <schema.sql> --gen generation.yaml")
		return nil
	},
}
