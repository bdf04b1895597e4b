package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// defaultListLimit caps list tools when no limit is given.
const defaultListLimit = 20

// absPaths rewrites each non-empty path as an absolute one. Clients may
// send paths relative to the server's working directory.
func absPaths(paths ...*string) error {
	for _, p := range paths {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidPath, *p, err)
		}
		*p = abs
	}
	return nil
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "watch_start",
		Description: "Start watching a downloads folder and classify each new file",
	}, s.handleWatchStart)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "watch_stop",
		Description: "Stop the active downloads watcher",
	}, s.handleWatchStop)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "watch_status",
		Description: "Report the watcher state and the most recently processed files",
	}, s.handleWatchStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_file",
		Description: "Suggest which candidate folder a file belongs in, without moving it",
	}, s.handleClassifyFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "move_file",
		Description: "Move a file into a folder and record the move for undo",
	}, s.handleMoveFile)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rename_file",
		Description: "Rename a file, optionally moving it to another folder",
	}, s.handleRenameFile)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "undo_move",
		Description: "Undo a recorded move, restoring the file's original folder and name",
	}, s.handleUndoMove)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trash_file",
		Description: "Move a file to the system trash",
	}, s.handleTrashFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_folders",
		Description: "List the sub-folders of a directory",
	}, s.handleScanFolders)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_files",
		Description: "List the files directly inside a directory",
	}, s.handleScanFiles)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "preview_file",
		Description: "Return a short text excerpt or an inline image for a file",
	}, s.handlePreviewFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_corrections",
		Description: "List recorded classifier corrections, newest first",
	}, s.handleListCorrections)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_activity",
		Description: "List recorded moves, newest first",
	}, s.handleListActivity)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "history_stats",
		Description: "Summarise how often suggestions were accepted, overall and per folder",
	}, s.handleHistoryStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List filename rules in evaluation order",
	}, s.handleListRules)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_rule",
		Description: "Add a rule that sends matching filenames straight to a folder",
	}, s.handleAddRule)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_rule",
		Description: "Delete a filename rule",
	}, s.handleDeleteRule)
}

// Watch tools

// WatchStartInput is the input schema for the watch_start tool.
type WatchStartInput struct {
	Path        string   `json:"path" jsonschema:"the folder to watch"`
	Auto        bool     `json:"auto,omitempty" jsonschema:"move confident results automatically"`
	LibraryRoot string   `json:"library_root,omitempty" jsonschema:"parent folder of the candidate folders"`
	Folders     []string `json:"folders,omitempty" jsonschema:"candidate folder names (default from config)"`
}

func (s *Server) handleWatchStart(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input WatchStartInput,
) (*mcp.CallToolResult, WatchStatusOutput, error) {
	if s.ports.Watch == nil {
		return nil, WatchStatusOutput{}, ErrWatchUnavailable
	}
	folders := s.ports.folders(input.Folders)
	if len(folders) == 0 {
		return nil, WatchStatusOutput{}, fmt.Errorf("%w: no candidate folders", domain.ErrInvalidInput)
	}
	dir, library := input.Path, input.LibraryRoot
	if library == "" {
		library = s.ports.LibraryRoot
	}
	if err := absPaths(&dir, &library); err != nil {
		return nil, WatchStatusOutput{}, err
	}
	opts := driving.ProcessOptions{Auto: input.Auto, LibraryRoot: library}

	// The session outlives this tool call, so files are processed under
	// the server's context rather than the request's.
	ctx := s.baseContext()
	sink := func(obs domain.FileObservation) {
		out := s.ports.Organiser.ProcessObservation(ctx, obs, folders, opts)
		if out.Err != nil {
			s.log.Warn("processing watched file", zap.String("path", obs.Path), zap.Error(out.Err))
		}
		s.record(out)
	}
	if err := s.ports.Watch.Start(dir, sink); err != nil {
		return nil, WatchStatusOutput{}, err
	}
	return nil, s.watchStatus(), nil
}

func (s *Server) handleWatchStop(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, WatchStatusOutput, error) {
	if s.ports.Watch == nil {
		return nil, WatchStatusOutput{}, ErrWatchUnavailable
	}
	s.ports.Watch.Stop()
	return nil, s.watchStatus(), nil
}

func (s *Server) handleWatchStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, WatchStatusOutput, error) {
	if s.ports.Watch == nil {
		return nil, WatchStatusOutput{}, ErrWatchUnavailable
	}
	return nil, s.watchStatus(), nil
}

func (s *Server) watchStatus() WatchStatusOutput {
	st := s.ports.Watch.Status()
	out := WatchStatusOutput{
		State: string(st.State),
		Path:  st.Path,
		Since: formatTime(st.Since),
	}
	for _, o := range s.recentCopy() {
		out.Recent = append(out.Recent, toOutcome(o, s.ports.threshold()))
	}
	return out
}

// Classification

// ClassifyFileInput is the input schema for the classify_file tool.
type ClassifyFileInput struct {
	Path    string   `json:"path" jsonschema:"the file to classify"`
	Folders []string `json:"folders,omitempty" jsonschema:"candidate folder names (default from config)"`
	Mode    string   `json:"mode,omitempty" jsonschema:"cascade (default), filename, vision, ocr or content"`
}

func (s *Server) handleClassifyFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyFileInput,
) (*mcp.CallToolResult, ClassificationOutput, error) {
	folders := s.ports.folders(input.Folders)
	if len(folders) == 0 {
		return nil, ClassificationOutput{}, fmt.Errorf("%w: no candidate folders", domain.ErrInvalidInput)
	}

	var (
		result *domain.ClassificationResult
		err    error
	)
	switch input.Mode {
	case "", "cascade":
		result, err = s.ports.Cascade.Cascade(ctx, input.Path, folders)
	default:
		if s.ports.Classify == nil {
			return nil, ClassificationOutput{}, fmt.Errorf("%w: mode %q is not available", domain.ErrInvalidInput, input.Mode)
		}
		result, err = s.classifyMode(ctx, input.Mode, input.Path, folders)
	}
	if err != nil {
		return nil, ClassificationOutput{}, err
	}
	return nil, *toClassification(result, s.ports.threshold()), nil
}

func (s *Server) classifyMode(
	ctx context.Context, mode, path string, folders []string,
) (*domain.ClassificationResult, error) {
	c := s.ports.Classify
	switch mode {
	case "filename":
		return c.ClassifyFilename(ctx, filepath.Base(path), folders)
	case "vision":
		return c.ClassifyImage(ctx, path, folders)
	case "ocr":
		return c.ClassifyOCR(ctx, path, folders)
	case "content":
		return c.ClassifyContent(ctx, path, folders)
	}
	return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, mode)
}

// Relocation

// MoveFileInput is the input schema for the move_file tool.
type MoveFileInput struct {
	Source     string `json:"source" jsonschema:"the file to move"`
	DestFolder string `json:"dest_folder" jsonschema:"the destination folder"`
	Conflict   string `json:"conflict,omitempty" jsonschema:"fail (default), auto_rename or replace"`
	Suggested  string `json:"suggested,omitempty" jsonschema:"the folder the classifier suggested, recorded as a correction"`
}

func (s *Server) handleMoveFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MoveFileInput,
) (*mcp.CallToolResult, ActivityOutput, error) {
	src, dest := input.Source, input.DestFolder
	if err := absPaths(&src, &dest); err != nil {
		return nil, ActivityOutput{}, err
	}
	entry, err := s.ports.Organiser.Relocate(ctx, driving.RelocateRequest{
		Source:      src,
		DestFolder:  dest,
		Conflict:    driving.ConflictPolicy(input.Conflict),
		AISuggested: input.Suggested,
	})
	if err != nil {
		return nil, ActivityOutput{}, err
	}
	return nil, *toActivity(entry), nil
}

// RenameFileInput is the input schema for the rename_file tool.
type RenameFileInput struct {
	Path       string `json:"path" jsonschema:"the file to rename"`
	NewName    string `json:"new_name" jsonschema:"the new file name, without directories"`
	DestFolder string `json:"dest_folder,omitempty" jsonschema:"move into this folder too (default: same folder)"`
}

func (s *Server) handleRenameFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenameFileInput,
) (*mcp.CallToolResult, ActivityOutput, error) {
	src, dest := input.Path, input.DestFolder
	if err := absPaths(&src, &dest); err != nil {
		return nil, ActivityOutput{}, err
	}
	if dest == "" {
		dest = filepath.Dir(src)
	}
	entry, err := s.ports.Organiser.Relocate(ctx, driving.RelocateRequest{
		Source:     src,
		DestFolder: dest,
		NewName:    input.NewName,
	})
	if err != nil {
		return nil, ActivityOutput{}, err
	}
	return nil, *toActivity(entry), nil
}

// UndoMoveInput is the input schema for the undo_move tool.
type UndoMoveInput struct {
	CreatedAtMs int64 `json:"created_at_ms,omitempty" jsonschema:"timestamp of the move from list_activity (default: most recent)"`
}

func (s *Server) handleUndoMove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UndoMoveInput,
) (*mcp.CallToolResult, ActivityOutput, error) {
	var (
		entry *domain.ActivityEntry
		err   error
	)
	if input.CreatedAtMs > 0 {
		entry, err = s.ports.Organiser.Undo(ctx, time.UnixMilli(input.CreatedAtMs))
	} else {
		entry, err = s.ports.Organiser.UndoLast(ctx)
	}
	if err != nil {
		return nil, ActivityOutput{}, err
	}
	return nil, *toActivity(entry), nil
}

// PathInput is the input schema for tools that take one path.
type PathInput struct {
	Path string `json:"path" jsonschema:"the file or folder path"`
}

// TrashOutput is the output schema for the trash_file tool.
type TrashOutput struct {
	TrashedTo string `json:"trashed_to"`
}

func (s *Server) handleTrashFile(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input PathInput,
) (*mcp.CallToolResult, TrashOutput, error) {
	if s.ports.Relocation == nil {
		return nil, TrashOutput{}, ErrTrashUnavailable
	}
	path := input.Path
	if err := absPaths(&path); err != nil {
		return nil, TrashOutput{}, err
	}
	where, err := s.ports.Relocation.Trash(path)
	if err != nil {
		return nil, TrashOutput{}, err
	}
	return nil, TrashOutput{TrashedTo: where}, nil
}

// Browse

// ScanFoldersInput is the input schema for the scan_folders tool.
type ScanFoldersInput struct {
	Root      string `json:"root" jsonschema:"the directory to scan"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"descend into sub-folders"`
	MaxDepth  int    `json:"max_depth,omitempty" jsonschema:"maximum depth when recursive (0 = unlimited)"`
}

// ScanFoldersOutput is the output schema for the scan_folders tool.
type ScanFoldersOutput struct {
	Folders []FolderOutput `json:"folders"`
	Count   int            `json:"count"`
}

func (s *Server) handleScanFolders(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ScanFoldersInput,
) (*mcp.CallToolResult, ScanFoldersOutput, error) {
	folders, err := s.ports.Browse.ScanFolders(input.Root, input.Recursive, input.MaxDepth)
	if err != nil {
		return nil, ScanFoldersOutput{}, err
	}
	out := ScanFoldersOutput{Folders: make([]FolderOutput, len(folders)), Count: len(folders)}
	for i, f := range folders {
		out.Folders[i] = FolderOutput{Name: f.Name, Path: f.Path, Depth: f.Depth}
	}
	return nil, out, nil
}

// ScanFilesInput is the input schema for the scan_files tool.
type ScanFilesInput struct {
	Dir string `json:"dir" jsonschema:"the directory to list"`
}

// ScanFilesOutput is the output schema for the scan_files tool.
type ScanFilesOutput struct {
	Files []FileOutput `json:"files"`
	Count int          `json:"count"`
}

func (s *Server) handleScanFiles(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ScanFilesInput,
) (*mcp.CallToolResult, ScanFilesOutput, error) {
	files, err := s.ports.Browse.ScanFiles(input.Dir)
	if err != nil {
		return nil, ScanFilesOutput{}, err
	}
	return nil, ScanFilesOutput{Files: toFiles(files), Count: len(files)}, nil
}

func toFiles(files []domain.FileEntry) []FileOutput {
	out := make([]FileOutput, len(files))
	for i, f := range files {
		out[i] = FileOutput{
			Name:      f.Name,
			Path:      f.Path,
			Extension: f.Extension,
			Size:      f.Size,
			ModTime:   formatTime(f.ModTime),
			Category:  string(f.Category),
		}
	}
	return out
}

// PreviewOutput is the output schema for the preview_file tool.
type PreviewOutput struct {
	Kind      string `json:"kind"`
	Text      string `json:"text,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	DataURL   string `json:"data_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

func (s *Server) handlePreviewFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PathInput,
) (*mcp.CallToolResult, PreviewOutput, error) {
	p, err := s.ports.Browse.Preview(ctx, input.Path)
	if err != nil {
		return nil, PreviewOutput{}, err
	}
	return nil, PreviewOutput{
		Kind:      string(p.Kind),
		Text:      p.Text,
		MIMEType:  p.MIMEType,
		DataURL:   p.DataURL,
		Truncated: p.Truncated,
	}, nil
}

// History

// ListInput is the input schema for the list tools.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of entries (default 20)"`
}

func (in ListInput) limit() int {
	if in.Limit <= 0 {
		return defaultListLimit
	}
	return in.Limit
}

// CorrectionsOutput is the output schema for the list_corrections tool.
type CorrectionsOutput struct {
	Corrections []CorrectionOutput `json:"corrections"`
	Count       int                `json:"count"`
}

func (s *Server) handleListCorrections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, CorrectionsOutput, error) {
	corrections, err := s.ports.History.ListCorrections(ctx, input.limit())
	if err != nil {
		return nil, CorrectionsOutput{}, err
	}
	out := CorrectionsOutput{Corrections: make([]CorrectionOutput, len(corrections)), Count: len(corrections)}
	for i, c := range corrections {
		out.Corrections[i] = CorrectionOutput{
			Filename:    c.Filename,
			AISuggested: c.AISuggested,
			UserChose:   c.UserChose,
			Type:        string(c.Type),
			CreatedAt:   formatTime(c.CreatedAt),
		}
	}
	return nil, out, nil
}

// FolderStatsOutput is one folder in the history_stats output.
type FolderStatsOutput struct {
	Folder     string  `json:"folder"`
	Accepted   int     `json:"accepted"`
	Corrected  int     `json:"corrected"`
	AcceptRate float64 `json:"accept_rate"`
}

// HistoryStatsOutput is the output schema for the history_stats tool.
type HistoryStatsOutput struct {
	Accepted       int                 `json:"accepted"`
	Corrected      int                 `json:"corrected"`
	Accuracy       float64             `json:"accuracy"`
	Moves          int                 `json:"moves"`
	Undone         int                 `json:"undone"`
	TopFolders     []FolderStatsOutput `json:"top_folders"`
	ProblemFolders []FolderStatsOutput `json:"problem_folders"`
}

func (s *Server) handleHistoryStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, HistoryStatsOutput, error) {
	stats, err := s.ports.History.Stats(ctx)
	if err != nil {
		return nil, HistoryStatsOutput{}, err
	}
	return nil, HistoryStatsOutput{
		Accepted:       stats.Accepted,
		Corrected:      stats.Corrected,
		Accuracy:       stats.Accuracy(),
		Moves:          stats.Moves,
		Undone:         stats.Undone,
		TopFolders:     toFolderStats(stats.TopFolders()),
		ProblemFolders: toFolderStats(stats.ProblemFolders()),
	}, nil
}

func toFolderStats(folders []domain.FolderStats) []FolderStatsOutput {
	out := make([]FolderStatsOutput, len(folders))
	for i, f := range folders {
		out[i] = FolderStatsOutput{
			Folder: f.Folder, Accepted: f.Accepted, Corrected: f.Corrected, AcceptRate: f.AcceptRate(),
		}
	}
	return out
}

// ActivityListOutput is the output schema for the list_activity tool.
type ActivityListOutput struct {
	Activity []ActivityOutput `json:"activity"`
	Count    int              `json:"count"`
}

func (s *Server) handleListActivity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ActivityListOutput, error) {
	entries, err := s.ports.History.ListActivity(ctx, input.limit())
	if err != nil {
		return nil, ActivityListOutput{}, err
	}
	out := ActivityListOutput{Activity: make([]ActivityOutput, len(entries)), Count: len(entries)}
	for i := range entries {
		out.Activity[i] = *toActivity(&entries[i])
	}
	return nil, out, nil
}

// Rules

// RulesOutput is the output schema for the list_rules tool.
type RulesOutput struct {
	Rules []RuleOutput `json:"rules"`
	Count int          `json:"count"`
}

func (s *Server) handleListRules(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, RulesOutput, error) {
	rules, err := s.ports.History.ListRules(ctx)
	if err != nil {
		return nil, RulesOutput{}, err
	}
	out := RulesOutput{Rules: make([]RuleOutput, len(rules)), Count: len(rules)}
	for i, r := range rules {
		out.Rules[i] = RuleOutput{ID: r.ID, Pattern: r.Pattern, TargetFolder: r.TargetFolder}
	}
	return nil, out, nil
}

// AddRuleInput is the input schema for the add_rule tool.
type AddRuleInput struct {
	Pattern      string `json:"pattern" jsonschema:"a shell glob such as Lecture* or a plain substring"`
	TargetFolder string `json:"target_folder" jsonschema:"the folder matching files go to"`
}

func (s *Server) handleAddRule(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddRuleInput,
) (*mcp.CallToolResult, RuleOutput, error) {
	r, err := s.ports.History.AddRule(ctx, input.Pattern, input.TargetFolder)
	if err != nil {
		return nil, RuleOutput{}, err
	}
	return nil, RuleOutput{ID: r.ID, Pattern: r.Pattern, TargetFolder: r.TargetFolder}, nil
}

// DeleteRuleInput is the input schema for the delete_rule tool.
type DeleteRuleInput struct {
	ID int64 `json:"id" jsonschema:"the rule id from list_rules"`
}

// DeleteRuleOutput is the output schema for the delete_rule tool.
type DeleteRuleOutput struct {
	Deleted bool  `json:"deleted"`
	ID      int64 `json:"id"`
}

func (s *Server) handleDeleteRule(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteRuleInput,
) (*mcp.CallToolResult, DeleteRuleOutput, error) {
	if err := s.ports.History.DeleteRule(ctx, input.ID); err != nil {
		return nil, DeleteRuleOutput{}, err
	}
	return nil, DeleteRuleOutput{Deleted: true, ID: input.ID}, nil
}
