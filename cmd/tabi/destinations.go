package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	loamAdapter "github.com/aretw0/tabi/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var destinationsCmd = &cobra.Command{
	Use:     "destinations",
	Aliases: []string{"ls"},
	Short:   "List the destinations of the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		// Listing needs no language model, so the knowledge base is opened on its own.
		dir, err := filepath.Abs(cfg.Knowledge.Dir)
		if err != nil {
			return err
		}
		kb, err := loamAdapter.Open(dir)
		if err != nil {
			return fmt.Errorf("failed to open knowledge base: %w", err)
		}
		dests, err := kb.List(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(dests)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tREGION\tALIASES")
		for _, d := range dests {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Title(), d.Region, strings.Join(d.Aliases, ", "))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(destinationsCmd)
	destinationsCmd.Flags().Bool("json", false, "Print the list as JSON")
}
