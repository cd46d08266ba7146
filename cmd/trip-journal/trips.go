package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/trip-journal/internal/boot"
	"github.com/fpang/trip-journal/internal/filehandler"
	"github.com/fpang/trip-journal/internal/trip"
)

func newCreateCmd() *cobra.Command {
	var (
		owner    string
		title    string
		dir      string
		maxDepth int
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trip journal from a directory of photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := filehandler.LoadDirectory(dir, filehandler.ScanOptions{MaxDepth: maxDepth, Limit: limit})
			if err != nil {
				return err
			}
			photos := make([]trip.RawPhoto, len(files))
			for i, f := range files {
				photos[i] = trip.RawPhoto{Filename: f.Filename, Data: f.Data}
			}

			return withApp(cmd, func(app *boot.App) error {
				start := time.Now()
				created, err := app.Service.CreateAutoTrip(cmd.Context(), owner, title, photos)
				if err != nil {
					return err
				}
				log.Info().
					Uint64("trip_id", created.ID).
					Int("photos", len(photos)).
					Int("records", len(created.Records)).
					Dur("elapsed", time.Since(start)).
					Msg("Trip journal created")
				return printJSON(created)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID of the new trip")
	cmd.Flags().StringVar(&title, "title", "", "Trip title (defaults to the date range)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory containing the trip photos")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum recursion depth (0 = unlimited)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum photos to use (0 = unlimited)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("dir")
	return cmd
}

func newListCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's trips, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *boot.App) error {
				trips, err := app.Service.ListTrips(cmd.Context(), owner)
				if err != nil {
					return err
				}
				return printJSON(trips)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <trip-id>",
		Short: "Print a stored trip with its records and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := parseTripID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(app *boot.App) error {
				detail, err := app.Service.GetTripDetail(cmd.Context(), tripID)
				if err != nil {
					return err
				}
				return printJSON(detail)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a trip and its stored photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tripID, err := parseTripID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(app *boot.App) error {
				return app.Service.DeleteTrip(cmd.Context(), owner, tripID)
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID of the trip")
	cmd.MarkFlagRequired("owner")
	return cmd
}

// withApp loads config, wires the app, and closes it after fn.
func withApp(cmd *cobra.Command, fn func(app *boot.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := boot.Build(cmd.Context(), cfg, identity())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func parseTripID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid trip id %q", s)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
