// Package main provides the minv CLI entry point.
// minv reconciles calendar meetings against a billing customer roster and
// turns the selected meetings into draft invoices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/minv/cmd"
	"github.com/otherjamesbrown/minv/config"
	"github.com/otherjamesbrown/minv/pkg/buildinfo"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "minv",
	Short: "Meeting invoice reconciliation",
	Long: `minv turns recent calendar meetings into draft invoices.

It matches calendar events to billing customers by attendee email,
organizer email, or name-and-email mentions in event descriptions, then
resolves which meetings are already invoiced by scanning existing
invoice line items for embedded meeting identifiers. Only unbilled
meetings can be selected, so rerunning is always safe.

COMMON WORKFLOWS:
  First run:        minv auth login  then  minv run
  Check inputs:     minv customers list  |  minv events list
  Wider window:     minv run --days-back 14
  Unknown events:   minv run --include-unassociated

Configuration lives in ~/.minv/config.yaml; MINV_* environment
variables override it. Run 'minv config show' to inspect the active
settings.`,
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View the minv CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the active configuration after file and environment overrides.`,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		configPath, _ := config.ConfigPath()

		fmt.Println("Current configuration:")
		fmt.Printf("  Config file:          %s\n", configPath)
		fmt.Printf("  Default hourly rate:  $%.2f\n", cfg.DefaultHourlyRate)
		fmt.Printf("  Days back:            %d\n", cfg.DaysBack)
		fmt.Printf("  Include unassociated: %t\n", cfg.IncludeUnassociated)
		fmt.Printf("  Currency:             %s\n", cfg.Currency)
		fmt.Printf("  Calendar ICS:         %s\n", valueOrDefault(cfg.Calendar.ICS, "(not set)"))
		fmt.Printf("  Log level:            %s\n", cfg.Log.Level)
		fmt.Printf("  Log format:           %s\n", cfg.Log.Format)
		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		info := buildinfo.Get()
		out := cobraCmd.OutOrStdout()
		fmt.Fprintf(out, "minv version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:  %s\n", info.Commit)
		fmt.Fprintf(out, "  built:   %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:      %s\n", info.GoVersion)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for minv.

To load completions:

Bash:
  $ source <(minv completion bash)

Zsh:
  $ minv completion zsh > "${fpath[1]}/_minv"

Fish:
  $ minv completion fish | source

PowerShell:
  PS> minv completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func valueOrDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "invoicing", Title: "Invoicing Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)

	runCmd := cmd.NewRunCommand(nil)
	runCmd.GroupID = "invoicing"
	rootCmd.AddCommand(runCmd)

	customersCmd := cmd.NewCustomersCommand(nil)
	customersCmd.GroupID = "invoicing"
	rootCmd.AddCommand(customersCmd)

	eventsCmd := cmd.NewEventsCommand(nil)
	eventsCmd.GroupID = "invoicing"
	rootCmd.AddCommand(eventsCmd)

	authCmd := cmd.NewAuthCommand()
	authCmd.GroupID = "setup"
	rootCmd.AddCommand(authCmd)

	configCmd.GroupID = "setup"
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// .env files are how the predecessor tool was configured; loading one
	// from the working directory keeps those setups working. Absence is
	// fine.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
		os.Exit(1)
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
