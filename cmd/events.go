package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minv/config"
	"github.com/otherjamesbrown/minv/pkg/calendar"
)

// EventsCommandDeps holds the dependencies for event commands.
type EventsCommandDeps struct {
	LoadConfig   func() (*config.Config, error)
	OpenCalendar func(*config.Config) (calendar.Source, error)
	Out          io.Writer
	Now          func() time.Time
}

// DefaultEventsDeps returns the default dependencies for production use.
func DefaultEventsDeps() *EventsCommandDeps {
	return &EventsCommandDeps{
		LoadConfig:   config.LoadConfig,
		OpenCalendar: openCalendar,
		Out:          os.Stdout,
		Now:          time.Now,
	}
}

// Events command flags.
var eventsDaysBack int

// NewEventsCommand creates the 'events' command group.
func NewEventsCommand(deps *EventsCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultEventsDeps()
	}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect calendar events",
		Long: `Inspect the calendar events the reconciler would consider, without
touching the billing provider.

Useful for checking that the configured calendar feed covers the
meetings you expect before running an invoicing pass.

Examples:
  minv events list
  minv events list --days-back 14`,
	}

	cmd.AddCommand(newEventsListCommand(deps))

	return cmd
}

func newEventsListCommand(deps *EventsCommandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calendar events in the lookback window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if cmd.Flags().Changed("days-back") {
				cfg.DaysBack = eventsDaysBack
			}

			source, err := deps.OpenCalendar(cfg)
			if err != nil {
				return err
			}

			now := deps.Now()
			events, err := source.ListEvents(cmd.Context(), now.AddDate(0, 0, -cfg.DaysBack), now)
			if err != nil {
				return fmt.Errorf("listing calendar events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintf(deps.Out, "No events found in the last %d days.\n", cfg.DaysBack)
				return nil
			}

			fmt.Fprintf(deps.Out, "%-22s %-40s %s\n", "START", "TITLE", "ATTENDEES")
			for _, e := range events {
				title := e.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(deps.Out, "%-22s %-40s %s\n", e.Start, title, strings.Join(e.Attendees, ", "))
			}
			fmt.Fprintf(deps.Out, "\n%d event(s) in the last %d days.\n", len(events), cfg.DaysBack)
			return nil
		},
	}

	cmd.Flags().IntVar(&eventsDaysBack, "days-back", 0, "Lookback window in days (default from config)")

	return cmd
}
