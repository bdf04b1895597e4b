package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

var (
	watchAuto    bool
	watchLibrary string
	watchFolders []string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a folder and classify new files",
	Long: `Watches a folder for newly arrived files. Each file is classified once
its size has stopped changing. With --auto, confident results are moved into
the library straight away; everything else is reported for review.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchAuto, "auto", false, "move confident results automatically")
	watchCmd.Flags().StringVar(&watchLibrary, "library", "", "library root (default from config)")
	watchCmd.Flags().StringSliceVar(&watchFolders, "folders", nil, "candidate folders (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	w, err := watcher()
	if err != nil {
		return err
	}
	org, err := organiser()
	if err != nil {
		return err
	}

	folders := folderList(watchFolders)
	if len(folders) == 0 {
		return errNoFolders
	}
	dir, library := args[0], watchLibrary
	if library == "" {
		library = cfg().Library.Root
	}
	if err := absPaths(&dir, &library); err != nil {
		return err
	}
	opts := driving.ProcessOptions{Auto: watchAuto, LibraryRoot: library}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if services.Background != nil {
		go services.Background(ctx)
	}

	sink := func(obs domain.FileObservation) {
		printOutcome(cmd, org.ProcessObservation(ctx, obs, folders, opts))
	}
	if err := w.Start(dir, sink); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	defer w.Stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	<-ctx.Done()
	cmd.Println("Stopping...")
	return nil
}

func printOutcome(cmd *cobra.Command, out driving.Outcome) {
	name := out.Observation.Name
	switch {
	case out.Retrying:
		cmd.Printf("  %s: in use, will retry\n", name)
	case out.Err != nil && errors.Is(out.Err, context.Canceled):
		return
	case out.Err != nil:
		cmd.Printf("  %s: %v\n", name, out.Err)
	case out.Activity != nil:
		cmd.Printf("  %s -> %s\n", name, filepath.Join(out.Activity.ToFolder, out.Activity.Filename))
	case out.Result != nil && !out.Result.IsRelevant:
		cmd.Printf("  %s: not course material\n", name)
	case out.Result != nil && out.Result.Unsorted():
		cmd.Printf("  %s: no matching folder, needs review\n", name)
	case out.Result != nil:
		cmd.Printf("  %s: suggest %s (%.0f%%), needs review\n",
			name, out.Result.SuggestedFolder, out.Result.Confidence*100)
	}
}
