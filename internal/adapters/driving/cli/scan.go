package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

var (
	scanRecursive bool
	scanDepth     int
	scanJSON      bool

	hashDupesIn string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List folders and files",
}

var scanFoldersCmd = &cobra.Command{
	Use:   "folders [root]",
	Short: "List sub-folders",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanFolders,
}

var scanFilesCmd = &cobra.Command{
	Use:   "files [dir]",
	Short: "List files in a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanFiles,
}

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Show a short preview of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var hashCmd = &cobra.Command{
	Use:   "hash [file]",
	Short: "Print a file's sha256 digest",
	Args:  cobra.ExactArgs(1),
	RunE:  runHash,
}

func init() {
	scanCmd.PersistentFlags().BoolVar(&scanJSON, "json", false, "output as JSON")
	scanFoldersCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", false, "descend into sub-folders")
	scanFoldersCmd.Flags().IntVar(&scanDepth, "depth", 0, "maximum depth when recursive (0 = unlimited)")
	scanCmd.AddCommand(scanFoldersCmd, scanFilesCmd)

	hashCmd.Flags().StringVar(&hashDupesIn, "dupes-in", "", "also list identical files in this folder")

	rootCmd.AddCommand(scanCmd, previewCmd, hashCmd)
}

func runScanFolders(cmd *cobra.Command, args []string) error {
	b, err := browser()
	if err != nil {
		return err
	}
	folders, err := b.ScanFolders(args[0], scanRecursive, scanDepth)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if scanJSON {
		return printJSON(cmd, folders)
	}
	if len(folders) == 0 {
		cmd.Println("No folders found.")
		return nil
	}
	for _, f := range folders {
		cmd.Printf("%s%s\n", strings.Repeat("  ", f.Depth-1), f.Name)
	}
	return nil
}

func runScanFiles(cmd *cobra.Command, args []string) error {
	b, err := browser()
	if err != nil {
		return err
	}
	files, err := b.ScanFiles(args[0])
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if scanJSON {
		return printJSON(cmd, files)
	}
	if len(files) == 0 {
		cmd.Println("No files found.")
		return nil
	}
	for _, f := range files {
		cmd.Printf("  %-40s %-12s %s\n", f.Name, f.Category, humanSize(f.Size))
	}
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	b, err := browser()
	if err != nil {
		return err
	}
	p, err := b.Preview(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}
	switch p.Kind {
	case domain.PreviewText:
		cmd.Println(p.Text)
		if p.Truncated {
			cmd.Println("...")
		}
	case domain.PreviewImage:
		cmd.Printf("Image (%s, %d bytes encoded)\n", p.MIMEType, len(p.DataURL))
	default:
		cmd.Println("No preview available.")
	}
	return nil
}

func runHash(cmd *cobra.Command, args []string) error {
	b, err := browser()
	if err != nil {
		return err
	}
	sum, err := b.Hash(args[0])
	if err != nil {
		return fmt.Errorf("hash failed: %w", err)
	}
	cmd.Println(sum)

	if hashDupesIn == "" {
		return nil
	}
	dupes, err := b.FindDuplicates(args[0], hashDupesIn)
	if err != nil {
		return fmt.Errorf("duplicate search failed: %w", err)
	}
	for _, d := range dupes {
		cmd.Printf("  duplicate: %s\n", d)
	}
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
