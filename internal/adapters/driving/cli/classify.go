package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

var errNoFolders = errors.New("no candidate folders: pass --folders or set library.folders")

var (
	classifyMode        string
	classifyFolders     []string
	classifyDir         string
	classifyConcurrency int
	classifyJSON        bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Suggest a folder for a file",
	Long: `Classifies a file into one of the candidate folders without moving it.

Modes:
  cascade   rules, then filename, escalating to content when unsure (default)
  filename  the file name only
  vision    attach the image for a vision model
  ocr       recognise the image's text first
  content   extract the document's text first

With --dir every file in the folder is classified as a batch.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if classifyDir != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyMode, "mode", "cascade", "filename, vision, ocr, content or cascade")
	classifyCmd.Flags().StringSliceVar(&classifyFolders, "folders", nil, "candidate folders (default from config)")
	classifyCmd.Flags().StringVar(&classifyDir, "dir", "", "classify every file in this folder")
	classifyCmd.Flags().IntVar(&classifyConcurrency, "concurrency", 0, "batch classifications in flight (default from config)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	folders := folderList(classifyFolders)
	if len(folders) == 0 {
		return errNoFolders
	}
	if classifyDir != "" {
		return runClassifyBatch(cmd, folders)
	}

	result, err := classifyOne(cmd, args[0], folders)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}
	if classifyJSON {
		return printJSON(cmd, result)
	}
	printResult(cmd, filepath.Base(args[0]), result)
	return nil
}

func classifyOne(cmd *cobra.Command, path string, folders []string) (*domain.ClassificationResult, error) {
	ctx := cmd.Context()
	if classifyMode == "cascade" {
		c, err := cascade()
		if err != nil {
			return nil, err
		}
		return c.Cascade(ctx, path, folders)
	}

	c, err := classifier()
	if err != nil {
		return nil, err
	}
	switch classifyMode {
	case "filename":
		return c.ClassifyFilename(ctx, filepath.Base(path), folders)
	case "vision":
		return c.ClassifyImage(ctx, path, folders)
	case "ocr":
		return c.ClassifyOCR(ctx, path, folders)
	case "content":
		return c.ClassifyContent(ctx, path, folders)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, classifyMode)
	}
}

func runClassifyBatch(cmd *cobra.Command, folders []string) error {
	b, err := browser()
	if err != nil {
		return err
	}
	org, err := organiser()
	if err != nil {
		return err
	}

	files, err := b.ScanFiles(classifyDir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	concurrency := classifyConcurrency
	if concurrency <= 0 {
		concurrency = cfg().Classify.Concurrency
	}
	items, err := org.ClassifyBatch(cmd.Context(), paths, folders, concurrency)
	if err != nil {
		return fmt.Errorf("batch classification failed: %w", err)
	}
	if classifyJSON {
		return printJSON(cmd, items)
	}

	if len(items) == 0 {
		cmd.Println("No files found.")
		return nil
	}
	for _, it := range items {
		if it.Error != "" {
			cmd.Printf("  %s: %s\n", filepath.Base(it.Path), it.Error)
			continue
		}
		printResult(cmd, filepath.Base(it.Path), it.Result)
	}
	return nil
}

func printResult(cmd *cobra.Command, name string, r *domain.ClassificationResult) {
	if r == nil || !r.IsRelevant {
		cmd.Printf("  %s: not course material\n", name)
		return
	}
	if r.Unsorted() {
		cmd.Printf("  %s: course material, no matching folder\n", name)
		return
	}
	if r.Source != "" {
		cmd.Printf("  %s -> %s (%.0f%%, %s)\n", name, r.SuggestedFolder, r.Confidence*100, r.Source)
	} else {
		cmd.Printf("  %s -> %s (%.0f%%)\n", name, r.SuggestedFolder, r.Confidence*100)
	}
	if r.Reasoning != "" {
		cmd.Printf("      %s\n", r.Reasoning)
	}
}
