// Package cmd provides CLI commands for the minv tool.
package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/otherjamesbrown/minv/client"
	"github.com/otherjamesbrown/minv/config"
	"github.com/otherjamesbrown/minv/credentials"
	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/calendar"
	"github.com/otherjamesbrown/minv/pkg/errs"
	"github.com/otherjamesbrown/minv/pkg/logging"
)

// amounts formats currency amounts with thousands separators.
var amounts = message.NewPrinter(language.AmericanEnglish)

// formatAmount renders a major-unit amount like "$1,234.50".
func formatAmount(v float64) string {
	return amounts.Sprintf("$%.2f", v)
}

// openStore connects to the billing provider using the active API key.
func openStore(log logging.Logger) (billing.Store, error) {
	credStore, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("initializing credential store: %w", err)
	}
	apiKey, err := credStore.GetActiveKey()
	if err != nil {
		if err == credentials.ErrNoCredentials {
			return nil, fmt.Errorf("%w: not authenticated, run 'minv auth login' first", errs.ErrUnavailable)
		}
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return client.NewStripeStore(apiKey, log), nil
}

// openCalendar builds the configured calendar source.
func openCalendar(cfg *config.Config) (calendar.Source, error) {
	if cfg.Calendar.ICS == "" {
		return nil, fmt.Errorf("%w: no calendar configured, set calendar.ics in %s or MINV_CALENDAR_ICS", errs.ErrValidation, config.DefaultConfigFile)
	}
	return calendar.NewICSSource(cfg.Calendar.ICS), nil
}

// newLogger builds the CLI logger from config. Every invocation carries a
// run_id so interleaved runs can be told apart in aggregated logs.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:      logging.Level(cfg.Log.Level),
		JSONFormat: cfg.Log.Format == "json",
	}).With(logging.F("run_id", uuid.NewString()))
}
