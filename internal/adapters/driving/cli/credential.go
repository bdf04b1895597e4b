package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the classifier API key",
}

var credentialGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the stored key, masked",
	Args:  cobra.NoArgs,
	RunE:  runCredentialGet,
}

var credentialSetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store an API key",
	Long: `Stores the API key for the configured provider in the local ledger.
When no key is given it is read from the terminal without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCredentialSet,
}

var credentialClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored key",
	Args:  cobra.NoArgs,
	RunE:  runCredentialClear,
}

func init() {
	credentialCmd.AddCommand(credentialGetCmd, credentialSetCmd, credentialClearCmd)
	rootCmd.AddCommand(credentialCmd)
}

func runCredentialGet(cmd *cobra.Command, _ []string) error {
	c, err := credential()
	if err != nil {
		return err
	}
	masked := c.Masked(cmd.Context())
	if masked == "" {
		cmd.Println("No API key configured.")
		return nil
	}
	cmd.Printf("API key: %s\n", masked)
	return nil
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	c, err := credential()
	if err != nil {
		return err
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		key, err = readSecret(cmd, "API key: ")
		if err != nil {
			return err
		}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	if err := c.SetAPIKey(cmd.Context(), key); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	cmd.Println("API key stored.")
	return nil
}

func runCredentialClear(cmd *cobra.Command, _ []string) error {
	c, err := credential()
	if err != nil {
		return err
	}
	if err := c.ClearAPIKey(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear key: %w", err)
	}
	cmd.Println("API key cleared.")
	return nil
}

// readSecret reads a line without echo from a terminal, or plainly from
// the command's input otherwise.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		cmd.Print(prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return line, nil
}
