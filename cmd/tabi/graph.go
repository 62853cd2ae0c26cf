package main

import (
	"fmt"

	"github.com/aretw0/tabi/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the planning workflow as a Mermaid diagram",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(graph.GenerateMermaid(nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
