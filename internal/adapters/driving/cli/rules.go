package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage filename rules",
	Long: `Rules map a filename pattern straight to a folder, skipping the
classifier. Patterns with *, ? or [ are shell globs; anything else matches
as a case-insensitive substring. The oldest matching rule wins.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add [pattern] [folder]",
	Short: "Add a rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesAdd,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRemove,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesRemoveCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, _ []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	rules, err := h.ListRules(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	if len(rules) == 0 {
		cmd.Println("No rules configured.")
		return nil
	}
	for _, r := range rules {
		cmd.Printf("  [%d] %s -> %s\n", r.ID, r.Pattern, r.TargetFolder)
	}
	return nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	r, err := h.AddRule(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to add rule: %w", err)
	}
	cmd.Printf("Added rule %d: %s -> %s\n", r.ID, r.Pattern, r.TargetFolder)
	return nil
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid rule id %q", args[0])
	}
	if err := h.DeleteRule(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to remove rule: %w", err)
	}
	cmd.Printf("Removed rule %d\n", id)
	return nil
}
