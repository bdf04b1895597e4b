package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

var (
	moveAutoRename bool
	moveReplace    bool
	moveSuggested  string

	renameTo string

	undoAt   int64
	undoLast bool
)

var moveCmd = &cobra.Command{
	Use:   "move [file] [dest]",
	Short: "Move a file into a folder",
	Long: `Moves a file into a destination folder and records the move so it can
be undone. By default an existing file of the same name is an error.

Pass --suggested with the folder the classifier proposed to record whether
you agreed with it.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var renameCmd = &cobra.Command{
	Use:   "rename [file] [new-name]",
	Short: "Rename a file, optionally moving it",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo a recorded move",
	Long: `Moves a file back to where it came from, restoring its original name.
Without flags the most recent move is undone. Use --at with the timestamp
shown by 'sorta history activity' to pick a specific one.`,
	Args: cobra.NoArgs,
	RunE: runUndo,
}

var trashCmd = &cobra.Command{
	Use:   "trash [file]",
	Short: "Move a file to the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrash,
}

func init() {
	moveCmd.Flags().BoolVar(&moveAutoRename, "auto-rename", false, "append _1, _2, ... when the name is taken")
	moveCmd.Flags().BoolVar(&moveReplace, "replace", false, "remove the existing file and take its place")
	moveCmd.Flags().StringVar(&moveSuggested, "suggested", "", "folder the classifier suggested")
	moveCmd.MarkFlagsMutuallyExclusive("auto-rename", "replace")

	renameCmd.Flags().StringVar(&renameTo, "to", "", "destination folder (default: same folder)")

	undoCmd.Flags().Int64Var(&undoAt, "at", 0, "timestamp of the move in milliseconds")
	undoCmd.Flags().BoolVar(&undoLast, "last", false, "undo the most recent move")
	undoCmd.MarkFlagsMutuallyExclusive("at", "last")

	rootCmd.AddCommand(moveCmd, renameCmd, undoCmd, trashCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	org, err := organiser()
	if err != nil {
		return err
	}

	src, dest := args[0], args[1]
	if err := absPaths(&src, &dest); err != nil {
		return err
	}

	req := driving.RelocateRequest{
		Source:      src,
		DestFolder:  dest,
		Conflict:    driving.ConflictFail,
		AISuggested: moveSuggested,
	}
	switch {
	case moveAutoRename:
		req.Conflict = driving.ConflictAutoRename
	case moveReplace:
		req.Conflict = driving.ConflictReplace
	}

	entry, err := org.Relocate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("move failed: %w", err)
	}
	printMoved(cmd, entry)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	org, err := organiser()
	if err != nil {
		return err
	}

	src, dest := args[0], renameTo
	if err := absPaths(&src, &dest); err != nil {
		return err
	}
	if dest == "" {
		dest = filepath.Dir(src)
	}
	entry, err := org.Relocate(cmd.Context(), driving.RelocateRequest{
		Source:     src,
		DestFolder: dest,
		NewName:    args[1],
	})
	if err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	printMoved(cmd, entry)
	return nil
}

func runUndo(cmd *cobra.Command, _ []string) error {
	org, err := organiser()
	if err != nil {
		return err
	}

	var entry *domain.ActivityEntry
	if undoAt > 0 {
		entry, err = org.Undo(cmd.Context(), time.UnixMilli(undoAt))
	} else {
		entry, err = org.UndoLast(cmd.Context())
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && undoAt == 0 {
			cmd.Println("Nothing to undo.")
			return nil
		}
		return fmt.Errorf("undo failed: %w", err)
	}
	cmd.Printf("Restored %s\n", filepath.Join(entry.FromFolder, entry.RestoreName()))
	return nil
}

func runTrash(cmd *cobra.Command, args []string) error {
	r, err := relocation()
	if err != nil {
		return err
	}
	path := args[0]
	if err := absPaths(&path); err != nil {
		return err
	}
	where, err := r.Trash(path)
	if err != nil {
		return fmt.Errorf("trash failed: %w", err)
	}
	cmd.Printf("Moved to trash: %s\n", where)
	return nil
}

func printMoved(cmd *cobra.Command, entry *domain.ActivityEntry) {
	cmd.Printf("Moved to %s\n", filepath.Join(entry.ToFolder, entry.Filename))
	cmd.Printf("Undo with: sorta undo --at %s\n", strconv.FormatInt(entry.CreatedAt.UnixMilli(), 10))
}
