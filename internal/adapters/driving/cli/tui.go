package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui"
	"github.com/custodia-labs/sorta/internal/logger"
)

var (
	reviewFolders []string
	reviewLibrary string
)

// reviewCmd represents the interactive review command.
var reviewCmd = &cobra.Command{
	Use:   "review [dir]",
	Short: "Review and sort a folder interactively",
	Long: `Open the interactive terminal UI on a folder. Each file is classified in
turn and shown with its suggested folder and confidence.

Controls:
  ↑/k, ↓/j - Navigate files
  a/Enter  - Accept the suggestion
  c        - Choose another folder
  s        - Skip
  u        - Undo the last move
  t        - Move to trash
  p        - Preview
  r        - Reclassify
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringSliceVar(&reviewFolders, "folders", nil, "candidate folders (default from config)")
	reviewCmd.Flags().StringVar(&reviewLibrary, "library", "", "library root holding the folders (default from config)")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	org, err := organiser()
	if err != nil {
		return err
	}
	casc, err := cascade()
	if err != nil {
		return err
	}
	browse, err := browser()
	if err != nil {
		return err
	}

	folders := folderList(reviewFolders)
	if len(folders) == 0 {
		return errNoFolders
	}
	c := cfg()
	dir, library := args[0], reviewLibrary
	if library == "" {
		library = c.Library.Root
	}
	if err := absPaths(&dir, &library); err != nil {
		return err
	}

	ports := &tui.Ports{
		Organiser:    org,
		Cascade:      casc,
		Browse:       browse,
		Folders:      folders,
		LibraryRoot:  library,
		ConfirmBelow: c.Classify.EscalateBelow,
		Dir:          dir,
	}
	if services.Relocation != nil {
		ports.Relocation = services.Relocation
	}

	ctx := cmd.Context()
	if services.Background != nil {
		go services.Background(ctx)
	}

	// Log lines would tear the alternate screen.
	logger.SetOutput(reviewLog(c.DataDir))
	defer logger.SetOutput(os.Stderr)

	app, err := tui.NewAppWithContext(ctx, ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// reviewLog returns a log file under dataDir, or a discarding writer when
// it cannot be opened. The file is closed when the process exits.
func reviewLog(dataDir string) io.Writer {
	if dataDir == "" {
		return io.Discard
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "review.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return io.Discard
	}
	return f
}
