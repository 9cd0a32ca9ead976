package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/minv/credentials"
)

// Auth command flags.
var (
	authAPIKey         string
	authNonInteractive bool
)

// NewAuthCommand creates the 'auth' command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage billing provider credentials",
		Long: `Manage the Stripe API key used to talk to the billing provider.

The key is stored encrypted in ~/.minv/credentials.yaml. The encryption
key lives in the OS keyring, or in MINV_ENCRYPTION_KEY for headless
environments.

The STRIPE_SECRET_KEY environment variable always takes precedence over
stored credentials.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store the Stripe API key",
		Long: `Store the Stripe API key for later runs.

Examples:
  # Interactive login (prompts for the key, input hidden)
  minv auth login

  # Login with a flag
  minv auth login --api-key sk_live_...

  # One-off runs can skip login entirely
  STRIPE_SECRET_KEY=sk_live_... minv run`,
		RunE: runAuthLogin,
	}
	loginCmd.Flags().StringVar(&authAPIKey, "api-key", "", "Stripe secret key")
	loginCmd.Flags().BoolVar(&authNonInteractive, "non-interactive", false, "Fail instead of prompting for input")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		RunE:  runAuthLogout,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show credential status",
		RunE:  runAuthStatus,
	}

	cmd.AddCommand(loginCmd)
	cmd.AddCommand(logoutCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	apiKey := authAPIKey
	if apiKey == "" {
		if envKey := os.Getenv(credentials.EnvAPIKey); envKey != "" {
			apiKey = envKey
			fmt.Printf("Using API key from %s environment variable\n", credentials.EnvAPIKey)
		}
	}

	if apiKey == "" {
		if authNonInteractive {
			return fmt.Errorf("no API key provided and --non-interactive flag set")
		}
		apiKey, err = promptForAPIKey()
		if err != nil {
			return fmt.Errorf("reading API key: %w", err)
		}
	}

	if err := validateAPIKey(apiKey); err != nil {
		return fmt.Errorf("invalid API key: %w", err)
	}

	if err := store.Save(&credentials.Credentials{APIKey: apiKey}); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Println("Login successful!")
	fmt.Printf("  API Key: %s\n", credentials.MaskAPIKey(apiKey))
	return nil
}

// promptForAPIKey reads the key with echo disabled, falling back to plain
// input when no terminal is attached.
func promptForAPIKey() (string, error) {
	fmt.Print("Stripe secret key: ")

	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", err
		}
		keyBytes = []byte(line)
	}

	apiKey := strings.TrimSpace(string(keyBytes))
	if apiKey == "" {
		return "", fmt.Errorf("no API key provided")
	}
	return apiKey, nil
}

// validateAPIKey performs basic shape checks on a Stripe secret key.
func validateAPIKey(key string) error {
	if len(key) < 12 {
		return fmt.Errorf("key is too short")
	}
	if !strings.HasPrefix(key, "sk_") && !strings.HasPrefix(key, "rk_") {
		return fmt.Errorf("expected a secret key starting with sk_ or rk_")
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	if !store.Exists() {
		fmt.Println("No stored credentials found.")
		return nil
	}

	if err := store.Delete(); err != nil {
		return fmt.Errorf("removing credentials: %w", err)
	}

	fmt.Println("Logged out successfully.")
	if os.Getenv(credentials.EnvAPIKey) != "" {
		fmt.Printf("\nNote: %s environment variable is still set.\n", credentials.EnvAPIKey)
		fmt.Printf("Unset it with: unset %s\n", credentials.EnvAPIKey)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	envKey := os.Getenv(credentials.EnvAPIKey)
	if envKey != "" {
		fmt.Printf("%s: %s (active)\n", credentials.EnvAPIKey, credentials.MaskAPIKey(envKey))
	}

	creds, err := store.Load()
	if err != nil {
		if err == credentials.ErrNoCredentials {
			fmt.Println("Stored credentials: none")
			if envKey == "" {
				fmt.Println("\nNot authenticated. Run 'minv auth login' first.")
			}
			return nil
		}
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Printf("Stored credentials: %s\n", credentials.MaskAPIKey(creds.APIKey))
	if envKey != "" {
		fmt.Printf("\nActive source: environment (%s takes precedence)\n", credentials.EnvAPIKey)
	} else {
		fmt.Println("\nActive source: stored credentials")
	}
	return nil
}
