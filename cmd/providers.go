package cmd

import (
	"fmt"
	"strings"

	"github.com/Rana718/ddlseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the value providers usable in a generation config",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		group := ""
		for _, name := range seeder.Providers() {
			g, _, _ := strings.Cut(name, ".")
			if g != group {
				if group != "" {
					fmt.Println()
				}
				color.Cyan("%s", g)
				group = g
			}
			fmt.Printf("  %s\n", name)
		}
	},
}
