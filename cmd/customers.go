package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minv/config"
	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/errs"
	"github.com/otherjamesbrown/minv/pkg/logging"
	"github.com/otherjamesbrown/minv/pkg/parse"
)

// CustomersCommandDeps holds the dependencies for customer commands.
type CustomersCommandDeps struct {
	LoadConfig func() (*config.Config, error)
	OpenStore  func(logging.Logger) (billing.Store, error)
	Logger     logging.Logger
	Out        io.Writer
}

// DefaultCustomersDeps returns the default dependencies for production use.
func DefaultCustomersDeps() *CustomersCommandDeps {
	return &CustomersCommandDeps{
		LoadConfig: config.LoadConfig,
		OpenStore:  openStore,
		Out:        os.Stdout,
	}
}

// NewCustomersCommand creates the 'customers' command group.
func NewCustomersCommand(deps *CustomersCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultCustomersDeps()
	}

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Inspect and manage billing customers",
		Long: `Inspect the customer roster and manage per-customer billing settings.

Customers come from the billing provider. The hourly rate is stored as
customer metadata; customers without one bill at the configured default.

Examples:
  minv customers list
  minv customers set-rate cus_abc123 275`,
	}

	cmd.AddCommand(newCustomersListCommand(deps))
	cmd.AddCommand(newCustomersSetRateCommand(deps))

	return cmd
}

func newCustomersListCommand(deps *CustomersCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers and their hourly rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log := deps.Logger
			if log == nil {
				log = newLogger(cfg)
			}
			store, err := deps.OpenStore(log)
			if err != nil {
				return err
			}

			customers, err := store.ListCustomers(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing customers: %w", err)
			}
			if len(customers) == 0 {
				fmt.Fprintln(deps.Out, "No customers found.")
				return nil
			}

			fmt.Fprintf(deps.Out, "%-22s %-30s %-24s %s\n", "ID", "EMAIL", "NAME", "RATE")
			for _, c := range customers {
				rate := formatAmount(c.HourlyRate(cfg.DefaultHourlyRate)) + "/h"
				if _, ok := c.Metadata[billing.MetadataRateKey]; !ok {
					rate += " (default)"
				}
				fmt.Fprintf(deps.Out, "%-22s %-30s %-24s %s\n", c.ID, c.Email, c.Name, rate)
			}
			return nil
		},
	}
}

func newCustomersSetRateCommand(deps *CustomersCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "set-rate <customer-id> <rate>",
		Short: "Set a customer's default hourly rate",
		Long: `Set the hourly rate stored on a customer at the billing provider.

The rate accepts the same forms as the interactive prompts: "275",
"$275", "1,000".

Examples:
  minv customers set-rate cus_abc123 275
  minv customers set-rate cus_abc123 '$1,250'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parse.ParseRate(args[1])
			if err != nil {
				return err
			}
			if rate == nil {
				return fmt.Errorf("%w: rate is required", errs.ErrValidation)
			}

			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			log := deps.Logger
			if log == nil {
				log = newLogger(cfg)
			}
			store, err := deps.OpenStore(log)
			if err != nil {
				return err
			}

			if err := store.UpdateCustomerRate(cmd.Context(), args[0], *rate); err != nil {
				return fmt.Errorf("updating customer rate: %w", err)
			}
			fmt.Fprintf(deps.Out, "Set rate for %s to %s/h\n", args[0], formatAmount(*rate))
			return nil
		},
	}
}
