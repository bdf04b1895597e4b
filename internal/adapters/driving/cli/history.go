package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

var (
	historyLimit int
	historyJSON  bool
	exportOut    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded corrections and moves",
}

var historyCorrectionsCmd = &cobra.Command{
	Use:   "corrections",
	Short: "List recent corrections, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryCorrections,
}

var historyActivityCmd = &cobra.Command{
	Use:   "activity",
	Short: "List recent moves, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryActivity,
}

var historyClearCmd = &cobra.Command{
	Use:       "clear [corrections|activity]",
	Short:     "Delete recorded corrections or moves",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"corrections", "activity"},
	RunE:      runHistoryClear,
}

var historyImportCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Import history exported from another machine",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryImport,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how often suggestions were accepted, per folder",
	Long: `Summarises the recorded corrections: overall accuracy, the folders whose
suggestions are usually kept, and the folders the classifier often gets
wrong. Folders need at least 3 suggestions to be ranked.`,
	Args: cobra.NoArgs,
	RunE: runHistoryStats,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export corrections and moves as JSON",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to file instead of stdout")

	historyCmd.AddCommand(historyCorrectionsCmd, historyActivityCmd, historyClearCmd,
		historyImportCmd, historyExportCmd, historyStatsCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryCorrections(cmd *cobra.Command, _ []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	corrections, err := h.ListCorrections(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list corrections: %w", err)
	}
	if historyJSON {
		return printJSON(cmd, corrections)
	}
	if len(corrections) == 0 {
		cmd.Println("No corrections recorded.")
		return nil
	}
	for _, c := range corrections {
		cmd.Printf("  %-9s %s: suggested %s, chose %s\n", c.Type, c.Filename, c.AISuggested, c.UserChose)
	}
	return nil
}

func runHistoryActivity(cmd *cobra.Command, _ []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	entries, err := h.ListActivity(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list activity: %w", err)
	}
	if historyJSON {
		return printJSON(cmd, entries)
	}
	if len(entries) == 0 {
		cmd.Println("No moves recorded.")
		return nil
	}
	for _, e := range entries {
		status := ""
		if e.Undone {
			status = " (undone)"
		}
		cmd.Printf("  [%d] %s: %s -> %s%s\n", e.CreatedAt.UnixMilli(), e.Filename, e.FromFolder, e.ToFolder, status)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	if args[0] == "corrections" {
		err = h.ClearCorrections(cmd.Context())
	} else {
		err = h.ClearActivity(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", args[0], err)
	}
	cmd.Printf("Cleared %s.\n", args[0])
	return nil
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	var export driving.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	res, err := h.Import(cmd.Context(), export)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Imported %d corrections and %d moves.\n", res.Corrections, res.Activity)
	return nil
}

func runHistoryExport(cmd *cobra.Command, _ []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	export, err := h.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if exportOut == "" {
		return printJSON(cmd, export)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	if err := os.WriteFile(exportOut, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	cmd.Printf("Exported to %s\n", exportOut)
	return nil
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	h, err := history()
	if err != nil {
		return err
	}
	stats, err := h.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}
	if historyJSON {
		return printJSON(cmd, stats)
	}

	total := stats.Accepted + stats.Corrected
	if total == 0 {
		cmd.Println("No corrections recorded yet.")
		return nil
	}
	cmd.Printf("Suggestions: %d (%d accepted, %d corrected)\n", total, stats.Accepted, stats.Corrected)
	cmd.Printf("Accuracy:    %.1f%%\n", stats.Accuracy()*100)
	cmd.Printf("Moves:       %d (%d undone)\n", stats.Moves, stats.Undone)

	printFolderStats(cmd, "Most reliable folders:", limitFolders(stats.TopFolders()))
	printFolderStats(cmd, "Most corrected folders:", limitFolders(stats.ProblemFolders()))
	return nil
}

func limitFolders(folders []domain.FolderStats) []domain.FolderStats {
	if historyLimit > 0 && len(folders) > historyLimit {
		return folders[:historyLimit]
	}
	return folders
}

func printFolderStats(cmd *cobra.Command, title string, folders []domain.FolderStats) {
	if len(folders) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(title)
	for _, f := range folders {
		cmd.Printf("  %-24s %5.1f%% accepted (%d suggestions)\n", f.Folder, f.AcceptRate()*100, f.Total())
	}
}
