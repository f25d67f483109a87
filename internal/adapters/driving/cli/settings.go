package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/spo/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the model bound to each role, the round budget and
other options.

Roles:
  optimize - proposes rewritten instructions
  evaluate - judges which of two answer sets is better
  execute  - answers the example questions with a candidate instruction`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsRoleCmd = &cobra.Command{
	Use:       "role [optimize|evaluate|execute]",
	Short:     "Configure the model for a role",
	Long:      `Configure the provider and model used for a role. Without --provider you are prompted to choose one.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"optimize", "evaluate", "execute"},
	RunE:      runSettingsRole,
}

var settingsRoundsCmd = &cobra.Command{
	Use:   "rounds [n]",
	Short: "Set the default round budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsRounds,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every role is configured and reachable",
	RunE:  runSettingsValidate,
}

func init() {
	settingsRoleCmd.Flags().String("provider", "", "provider (ollama, openai, anthropic, gemini)")
	settingsRoleCmd.Flags().String("model", "", "model name (defaults to the provider's default)")
	settingsRoleCmd.Flags().String("base-url", "", "API endpoint (defaults to the provider's endpoint)")
	settingsRoleCmd.Flags().Float64("temperature", 0, "sampling temperature (defaults to the role's temperature)")
	settingsRoleCmd.Flags().Int("max-tokens", 0, "response token cap (0 = provider default)")
	settingsRoleCmd.Flags().Bool("skip-validate", false, "do not ping the provider after saving")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsRoleCmd)
	settingsCmd.AddCommand(settingsRoundsCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	for _, role := range domain.AllRoles() {
		printRole(cmd, role, settings.Role(role))
	}

	cmd.Println("[Optimizer]")
	cmd.Printf("  Max rounds: %d\n", settings.Optimizer.MaxRounds)
	if settings.Optimizer.Concurrency > 0 {
		cmd.Printf("  Concurrency: %d\n", settings.Optimizer.Concurrency)
	} else {
		cmd.Println("  Concurrency: unbounded")
	}
	if settings.Optimizer.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit: %.2f req/s\n", settings.Optimizer.RequestsPerSecond)
	} else {
		cmd.Println("  Rate limit: off")
	}
	if settings.Optimizer.CallTimeout > 0 {
		cmd.Printf("  Call timeout: %s\n", settings.Optimizer.CallTimeout)
	} else {
		cmd.Println("  Call timeout: none")
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'spo settings role <role>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printRole(cmd *cobra.Command, role domain.Role, rs domain.RoleSettings) {
	cmd.Printf("[Role: %s]\n", role)
	cmd.Printf("  Provider: %s\n", rs.Provider.Description())
	if rs.Model != "" {
		cmd.Printf("  Model: %s\n", rs.Model)
	}
	if rs.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", rs.BaseURL)
	}
	if rs.Provider.RequiresAPIKey() {
		if rs.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(rs.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Temperature: %.2f\n", rs.Temperature)
	if rs.MaxTokens > 0 {
		cmd.Printf("  Max tokens: %d\n", rs.MaxTokens)
	}
	status := "configured"
	if !rs.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()
}

func runSettingsRole(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	role := domain.Role(args[0])
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q (want optimize, evaluate or execute)", args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	current := settings.Role(role)

	reader := bufio.NewReader(cmd.InOrStdin())
	rs, err := roleFromFlags(cmd, reader, current)
	if err != nil {
		return err
	}

	if rs.Provider.RequiresAPIKey() && (current.Provider != rs.Provider || current.APIKey == "") {
		cmd.Print("Enter API key: ")
		rs.APIKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if rs.APIKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetRole(role, rs); err != nil {
		return fmt.Errorf("failed to configure %s role: %w", role, err)
	}

	if skip, _ := cmd.Flags().GetBool("skip-validate"); !skip {
		cmd.Print("Validating configuration... ")
		if err := settingsService.ValidateRoleConfig(role); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("%s role validation failed: %w", role, err)
		}
		cmd.Println("OK")
	}

	saved, err := settingsService.Get()
	if err == nil {
		rs = saved.Role(role)
	}
	cmd.Printf("Role %s configured: %s (%s)\n", role, rs.Provider.Description(), rs.Model)
	return nil
}

// roleFromFlags builds role settings from flags, prompting for the
// provider when --provider is absent.
func roleFromFlags(cmd *cobra.Command, reader *bufio.Reader, current domain.RoleSettings) (domain.RoleSettings, error) {
	flags := cmd.Flags()
	providerName, _ := flags.GetString("provider")

	var provider domain.AIProvider
	if providerName != "" {
		provider = domain.AIProvider(strings.ToLower(providerName))
		if !provider.IsValid() {
			return domain.RoleSettings{}, fmt.Errorf("unknown provider %q", providerName)
		}
	} else {
		providers := domain.AllLLMProviders()
		cmd.Println("Select LLM Provider")
		for i, p := range providers {
			cmd.Printf("  %d. %s\n", i+1, p.Description())
		}
		cmd.Print("\nEnter choice [1]: ")
		provider = providers[parseChoice(readLine(reader), len(providers), 1)-1]
	}

	rs := domain.RoleSettings{
		Provider:    provider,
		Temperature: current.Temperature,
		MaxTokens:   current.MaxTokens,
	}
	rs.Model, _ = flags.GetString("model")
	rs.BaseURL, _ = flags.GetString("base-url")
	if flags.Changed("temperature") {
		rs.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("max-tokens") {
		rs.MaxTokens, _ = flags.GetInt("max-tokens")
	}
	if provider == current.Provider {
		if rs.Model == "" {
			rs.Model = current.Model
		}
		if rs.BaseURL == "" {
			rs.BaseURL = current.BaseURL
		}
	}
	return rs, nil
}

func runSettingsRounds(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid round count %q", args[0])
	}
	if err := settingsService.SetMaxRounds(n); err != nil {
		return fmt.Errorf("failed to set max rounds: %w", err)
	}
	cmd.Printf("Default round budget set to %d\n", n)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}

	var errs []error
	for _, role := range domain.AllRoles() {
		cmd.Printf("Checking %s role... ", role)
		if err := settingsService.ValidateRoleConfig(role); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			errs = append(errs, fmt.Errorf("%s: %w", role, err))
			continue
		}
		cmd.Println("OK")
	}
	return errors.Join(errs...)
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal.
func readPassword(in io.Reader, fallback *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(fallback)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
