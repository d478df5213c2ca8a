package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
	appName = "thermactl"
)

// engine is the slice of bootstrap.EngineApp the commands drive.
type engine interface {
	Migrate(ctx context.Context) error
	ListZones(ctx context.Context) ([]entities.Zone, error)
	SeedZones(ctx context.Context) (commands.ProvisionResult, error)
	RunCycle(ctx context.Context, zoneID string) (entities.CycleResult, error)
	RunAllCycles(ctx context.Context) ([]entities.CycleResult, error)
	Close() error
}

type opener func(ctx context.Context) (engine, error)

func bootstrapOpener(ctx context.Context) (engine, error) {
	app, err := bootstrap.BuildEngine(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

func rootCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Thermostat recommendation maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		cycleCmd(open),
		sweepCmd(open),
		zonesCmd(open),
		migrateCmd(open),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// withEngine opens the engine for one command and always closes it.
func withEngine(cmd *cobra.Command, open opener, run func(engine) error) (err error) {
	app, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, app.Close())
	}()
	return run(app)
}

func cycleCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <zone_id>",
		Short: "Run one recommendation cycle for a zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, open, func(app engine) error {
				result, err := app.RunCycle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printResults(cmd.OutOrStdout(), []entities.CycleResult{result})
				return nil
			})
		},
	}
}

func sweepCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a recommendation cycle for every zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, open, func(app engine) error {
				results, err := app.RunAllCycles(cmd.Context())
				printResults(cmd.OutOrStdout(), results)
				return err
			})
		},
	}
}

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, open, func(app engine) error {
				if err := app.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func zonesCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Inspect and provision zones",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List zones with their temperatures",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, open, func(app engine) error {
					zones, err := app.ListZones(cmd.Context())
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ZONE\tNAME\tCURRENT\tRECOMMENDED")
					for _, zone := range zones {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
							zone.ZoneID,
							zone.Name,
							zone.CurrentTemp.StringFixed(1),
							zone.RecommendedTemp.StringFixed(1),
						)
					}
					return w.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Create missing default zones and apply renames",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEngine(cmd, open, func(app engine) error {
					result, err := app.SeedZones(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "created %d, renamed %d\n", result.Created, result.Renamed)
					return nil
				})
			},
		},
	)
	return cmd
}

func printResults(out io.Writer, results []entities.CycleResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ZONE\tSTATUS\tVOTES\tPREVIOUS\tRECOMMENDED\tACTUATED")
	for _, result := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%t\n",
			result.ZoneID,
			result.Status,
			result.VoteCount,
			result.PreviousRecommended.StringFixed(1),
			result.Recommended.StringFixed(1),
			result.Actuated,
		)
	}
	_ = w.Flush()
}
