package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/tabi"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tabi",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tabi version %s\n", strings.TrimSpace(tabi.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
