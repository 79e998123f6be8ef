package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackmesh/dnsrig/pkg/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List registered test scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range scenario.All() {
			fmt.Printf("%-16s %s\n", s.Name, s.Description)
		}
	},
}
