package main

import (
	"fmt"
	"os"

	"github.com/aretw0/tabi"
	"github.com/aretw0/tabi/internal/cli"
	"github.com/aretw0/tabi/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var planCmd = &cobra.Command{
	Use:   "plan [destination]",
	Short: "Draft itineraries for one trip",
	Long: `Runs the planning workflow once and prints the candidate itineraries.
Missing required fields are asked for interactively when stdin is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		cli.WarnMissing(logger, cfg)

		opts := cli.PlanOptions{}
		opts.Origin, _ = cmd.Flags().GetString("origin")
		opts.Destination, _ = cmd.Flags().GetString("destination")
		opts.Budget, _ = cmd.Flags().GetFloat64("budget")
		opts.Duration, _ = cmd.Flags().GetInt("duration")
		opts.Purposes, _ = cmd.Flags().GetStringSlice("purpose")
		opts.Notes, _ = cmd.Flags().GetString("notes")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Diagram, _ = cmd.Flags().GetBool("diagram")
		width, _ := cmd.Flags().GetInt("width")
		if opts.Destination == "" && len(args) > 0 {
			opts.Destination = args[0]
		}

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		if interactive && !opts.JSON {
			if err := cli.Prompt(os.Stdin, os.Stdout, &opts); err != nil {
				return err
			}
		}

		styled := !opts.JSON && term.IsTerminal(int(os.Stdout.Fd()))
		if styled {
			tui.PrintBanner(os.Stdout)
			if width <= 0 {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					width = w
				}
			}
			render, err := tui.NewRenderer(width)
			if err != nil {
				return err
			}
			opts.Render = render
		} else {
			opts.Render = tui.Plain
		}

		app, err := tabi.New(cfg, tabi.WithLogger(logger))
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if styled {
			cli.SystemMessage(os.Stdout, "Planning %s -> %s...", opts.Origin, opts.Destination)
		}
		err = cli.RunPlan(sigCtx, app, opts, os.Stdout)
		if sig := sigCtx.Signal(); sig != nil {
			return fmt.Errorf("interrupted by %v", sig)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("origin", "", "Departure city")
	planCmd.Flags().String("destination", "", "Destination city or area")
	planCmd.Flags().Float64("budget", 0, "Budget in yen (0 for no limit)")
	planCmd.Flags().Int("duration", 0, "Trip length in days")
	planCmd.Flags().StringSlice("purpose", nil, "Trip purpose, repeatable (sightseeing, gourmet, onsen...)")
	planCmd.Flags().String("notes", "", "Additional requests")
	planCmd.Flags().String("session", "", "Session ID used to reuse gathered context")
	planCmd.Flags().Bool("json", false, "Print the result as JSON")
	planCmd.Flags().Bool("diagram", false, "Append the workflow diagram with the path taken")
	planCmd.Flags().Int("width", 0, "Word wrap width for terminal output (0 for auto)")
}
