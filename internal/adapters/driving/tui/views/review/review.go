// Package review provides the file review view: each file in a folder is
// classified in turn and the user accepts, redirects, skips or trashes it.
package review

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// ErrNoSuggestion is reported when accepting a file without a usable folder.
var ErrNoSuggestion = errors.New("no folder suggested")

// ErrTrashUnavailable is reported when trashing without a relocation service.
var ErrTrashUnavailable = errors.New("trash is not available")

// ItemState is where a file is in the review.
type ItemState string

// Item states.
const (
	StatePending     ItemState = "pending"
	StateClassifying ItemState = "classifying"
	StateSuggested   ItemState = "suggested"
	StateFailed      ItemState = "failed"
	StateMoving      ItemState = "moving"
	StateMoved       ItemState = "moved"
	StateSkipped     ItemState = "skipped"
	StateTrashed     ItemState = "trashed"
)

// Item is one reviewed file.
type Item struct {
	File   domain.FileEntry
	State  ItemState
	Result *domain.ClassificationResult
	Entry  *domain.ActivityEntry
	Err    error
}

// Decided reports whether the user has dealt with the item.
func (i Item) Decided() bool {
	switch i.State {
	case StateMoved, StateSkipped, StateTrashed:
		return true
	}
	return false
}

// Config holds what the view needs from the core.
type Config struct {
	Organiser   driving.OrganiserService
	Cascade     driving.CascadeService
	Browse      driving.BrowseService
	Relocation  driving.RelocationService
	Folders     []string
	LibraryRoot string
	Threshold   float64
	Dir         string
}

// View is the review screen.
type View struct {
	cfg     Config
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	list    *list.List
	status  *status.Bar
	items   []Item
	busy    bool
	loaded  bool
	preview *domain.Preview
	preFor  string
	err     error
	width   int
	height  int
}

// NewView creates a review view.
func NewView(ctx context.Context, s *styles.Styles, km *keymap.KeyMap, cfg Config) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.LibraryRoot == "" {
		cfg.LibraryRoot = cfg.Dir
	}
	return &View{
		cfg:    cfg,
		ctx:    ctx,
		styles: s,
		keymap: km,
		list:   list.NewList(s),
		status: status.NewBar(s, km),
		width:  80,
		height: 24,
	}
}

// Init loads the folder's files.
func (v *View) Init() tea.Cmd {
	v.status.SetState(status.StateClassifying)
	return v.loadFiles()
}

func (v *View) loadFiles() tea.Cmd {
	browse, dir := v.cfg.Browse, v.cfg.Dir
	return func() tea.Msg {
		files, err := browse.ScanFiles(dir)
		return messages.FilesLoaded{Files: files, Err: err}
	}
}

// Update handles messages.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.FilesLoaded:
		v.loaded = true
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.items = make([]Item, 0, len(msg.Files))
		for _, f := range msg.Files {
			v.items = append(v.items, Item{File: f, State: StatePending})
		}
		v.refresh()
		return v, v.nextClassification()

	case messages.ClassificationDone:
		v.busy = false
		if i := v.indexOf(msg.Path); i >= 0 && v.items[i].State == StateClassifying {
			v.items[i].Result = msg.Result
			v.items[i].Err = msg.Err
			v.items[i].State = StateSuggested
			if msg.Err != nil {
				v.items[i].State = StateFailed
			}
		}
		v.refresh()
		return v, v.nextClassification()

	case messages.FileMoved:
		i := v.indexOf(msg.Path)
		if msg.Err != nil {
			if i >= 0 {
				v.items[i].State = v.restingState(v.items[i])
			}
			v.fail(msg.Err)
			return v, nil
		}
		if i >= 0 {
			v.items[i].State = StateMoved
			v.items[i].Entry = msg.Entry
			v.items[i].Err = nil
		}
		v.err = nil
		if msg.Entry != nil {
			v.status.SetMessage(fmt.Sprintf("Moved %s to %s", msg.Entry.Filename, filepath.Base(msg.Entry.ToFolder)))
		}
		v.refresh()
		v.settle()
		return v, nil

	case messages.MoveUndone:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.err = nil
		if msg.Entry != nil {
			restored := filepath.Join(msg.Entry.FromFolder, msg.Entry.RestoreName())
			if i := v.indexOf(restored); i >= 0 {
				v.items[i].Entry = nil
				v.items[i].State = v.restingState(v.items[i])
			}
			v.status.SetMessage(fmt.Sprintf("Restored %s", msg.Entry.RestoreName()))
		}
		v.refresh()
		v.settle()
		return v, nil

	case messages.FileTrashed:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.err = nil
		if i := v.indexOf(msg.Path); i >= 0 {
			v.items[i].State = StateTrashed
		}
		v.status.SetMessage(fmt.Sprintf("Trashed %s", filepath.Base(msg.Path)))
		v.refresh()
		v.settle()
		return v, nil

	case messages.PreviewLoaded:
		if msg.Err != nil {
			v.fail(msg.Err)
			return v, nil
		}
		v.preview = msg.Preview
		v.preFor = msg.Path
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
		return v, nil
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
		return v, nil
	case key.Matches(msg, v.keymap.Undo):
		return v, v.undo()
	}

	item, ok := v.Selected()
	if !ok {
		return v, nil
	}
	v.status.SetMessage("")

	switch {
	case key.Matches(msg, v.keymap.Accept):
		return v, v.accept(item)
	case key.Matches(msg, v.keymap.Choose):
		if item.Decided() {
			return v, nil
		}
		path, current := item.File.Path, suggestion(item)
		return v, func() tea.Msg {
			return messages.FolderPickRequested{Path: path, Current: current}
		}
	case key.Matches(msg, v.keymap.Skip):
		if !item.Decided() && item.State != StateMoving {
			v.items[v.list.SelectedIndex()].State = StateSkipped
			v.refresh()
			v.list.MoveDown()
		}
		return v, nil
	case key.Matches(msg, v.keymap.Trash):
		return v, v.trash(item)
	case key.Matches(msg, v.keymap.Preview):
		return v, v.loadPreview(item.File.Path)
	case key.Matches(msg, v.keymap.Reclassify):
		return v, v.reclassify(v.list.SelectedIndex())
	}
	return v, nil
}

// nextClassification starts classifying the first pending file, one at a
// time. It returns nil when nothing is pending or a classification is
// already running.
func (v *View) nextClassification() tea.Cmd {
	if v.busy {
		return nil
	}
	for i := range v.items {
		if v.items[i].State != StatePending {
			continue
		}
		v.items[i].State = StateClassifying
		v.busy = true
		v.status.SetState(status.StateClassifying)
		v.refresh()

		ctx, cascade, folders, path := v.ctx, v.cfg.Cascade, v.cfg.Folders, v.items[i].File.Path
		return func() tea.Msg {
			result, err := cascade.Cascade(ctx, path, folders)
			return messages.ClassificationDone{Path: path, Result: result, Err: err}
		}
	}
	v.settle()
	return nil
}

func (v *View) accept(item Item) tea.Cmd {
	if item.Decided() || item.State != StateSuggested {
		return nil
	}
	folder := suggestion(item)
	if folder == "" {
		v.fail(fmt.Errorf("%w for %s", ErrNoSuggestion, item.File.Name))
		return nil
	}
	return v.MoveTo(item.File.Path, folder)
}

// MoveTo relocates the reviewed file at path into folder, recording the
// classifier's suggestion alongside the user's choice.
func (v *View) MoveTo(path, folder string) tea.Cmd {
	i := v.indexOf(path)
	if i < 0 || folder == "" {
		return nil
	}
	if v.items[i].Decided() || v.items[i].State == StateMoving {
		return nil
	}
	req := driving.RelocateRequest{
		Source:      path,
		DestFolder:  v.resolve(folder),
		Conflict:    driving.ConflictAutoRename,
		AISuggested: suggestion(v.items[i]),
	}
	v.items[i].State = StateMoving
	v.status.SetState(status.StateMoving)
	v.refresh()

	ctx, org := v.ctx, v.cfg.Organiser
	return func() tea.Msg {
		entry, err := org.Relocate(ctx, req)
		return messages.FileMoved{Path: path, Entry: entry, Err: err}
	}
}

func (v *View) undo() tea.Cmd {
	ctx, org := v.ctx, v.cfg.Organiser
	return func() tea.Msg {
		entry, err := org.UndoLast(ctx)
		return messages.MoveUndone{Entry: entry, Err: err}
	}
}

func (v *View) trash(item Item) tea.Cmd {
	if item.Decided() || item.State == StateMoving {
		return nil
	}
	if v.cfg.Relocation == nil {
		v.fail(ErrTrashUnavailable)
		return nil
	}
	reloc, path := v.cfg.Relocation, item.File.Path
	return func() tea.Msg {
		to, err := reloc.Trash(path)
		return messages.FileTrashed{Path: path, TrashedTo: to, Err: err}
	}
}

func (v *View) loadPreview(path string) tea.Cmd {
	ctx, browse := v.ctx, v.cfg.Browse
	return func() tea.Msg {
		p, err := browse.Preview(ctx, path)
		return messages.PreviewLoaded{Path: path, Preview: p, Err: err}
	}
}

func (v *View) reclassify(i int) tea.Cmd {
	if i < 0 || i >= len(v.items) {
		return nil
	}
	switch v.items[i].State {
	case StateSuggested, StateFailed, StateSkipped:
	default:
		return nil
	}
	v.items[i].State = StatePending
	v.items[i].Result = nil
	v.items[i].Err = nil
	v.refresh()
	return v.nextClassification()
}

// restingState is the state an item returns to after a failed or undone
// move.
func (v *View) restingState(item Item) ItemState {
	if item.Result != nil {
		return StateSuggested
	}
	if item.Err != nil {
		return StateFailed
	}
	return StatePending
}

func (v *View) resolve(folder string) string {
	if filepath.IsAbs(folder) || v.cfg.LibraryRoot == "" {
		return folder
	}
	return filepath.Join(v.cfg.LibraryRoot, folder)
}

func (v *View) fail(err error) {
	v.err = err
	v.status.SetState(status.StateError)
	v.status.SetMessage(err.Error())
}

func (v *View) indexOf(path string) int {
	for i := range v.items {
		if v.items[i].File.Path == path {
			return i
		}
	}
	return -1
}

func suggestion(item Item) string {
	if item.Result == nil || !item.Result.IsRelevant {
		return ""
	}
	return item.Result.SuggestedFolder
}

// refresh rebuilds the list rows and the status counts from the items.
func (v *View) refresh() {
	rows := make([]list.Row, 0, len(v.items))
	pending := 0
	for _, it := range v.items {
		if !it.Decided() {
			pending++
		}
		rows = append(rows, v.row(it))
	}
	v.list.SetRows(rows)
	v.status.SetCount(len(v.items), pending)
}

// settle sets the status bar state from the work in flight. An error stays
// visible until the next success.
func (v *View) settle() {
	if v.err != nil {
		return
	}
	switch {
	case v.busy:
		v.status.SetState(status.StateClassifying)
	case v.anyMoving():
		v.status.SetState(status.StateMoving)
	default:
		v.status.SetState(status.StateReview)
	}
}

func (v *View) anyMoving() bool {
	for _, it := range v.items {
		if it.State == StateMoving {
			return true
		}
	}
	return false
}

func (v *View) row(it Item) list.Row {
	r := list.Row{Title: it.File.Name, Muted: it.Decided()}
	switch it.State {
	case StatePending:
		r.Detail = "waiting"
	case StateClassifying:
		r.Detail = "classifying..."
	case StateSuggested:
		if folder := suggestion(it); folder != "" {
			r.Detail = folder
			r.Badge = v.styles.Confidence(it.Result.Confidence, v.cfg.Threshold)
		} else {
			r.Detail = "not coursework"
		}
	case StateFailed:
		r.Detail = "failed"
	case StateMoving:
		r.Detail = "moving..."
	case StateMoved:
		if it.Entry != nil {
			r.Detail = "moved to " + filepath.Base(it.Entry.ToFolder)
		} else {
			r.Detail = "moved"
		}
	case StateSkipped:
		r.Detail = "skipped"
	case StateTrashed:
		r.Detail = "trashed"
	}
	return r
}

// View renders the review screen.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("sorta review"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(v.cfg.Dir))
	b.WriteString("\n\n")

	switch {
	case !v.loaded:
		b.WriteString(v.styles.Muted.Render("Loading files..."))
	case len(v.items) == 0 && v.err == nil:
		b.WriteString(v.styles.Muted.Render("No files to review."))
	default:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, v.list.View(), "  ", v.detail()))
	}

	b.WriteString("\n\n")
	b.WriteString(v.status.View())
	return b.String()
}

func (v *View) detail() string {
	item, ok := v.Selected()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(item.File.Name))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s, %d bytes", item.File.Category, item.File.Size)))

	if r := item.Result; r != nil {
		b.WriteString("\n\n")
		if folder := suggestion(item); folder != "" {
			b.WriteString("Suggested: ")
			b.WriteString(v.styles.Folder.Render(folder))
			b.WriteString(" ")
			b.WriteString(v.styles.Confidence(r.Confidence, v.cfg.Threshold))
		} else {
			b.WriteString(v.styles.Warning.Render("Not coursework"))
		}
		if r.Source != "" {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf(" (%s)", r.Source)))
		}
		if r.Reasoning != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(r.Reasoning))
		}
	}
	if item.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render(item.Err.Error()))
	}

	if v.preview != nil && v.preFor == item.File.Path {
		b.WriteString("\n\n")
		switch v.preview.Kind {
		case domain.PreviewText:
			b.WriteString(v.preview.Text)
			if v.preview.Truncated {
				b.WriteString(v.styles.Muted.Render("..."))
			}
		case domain.PreviewImage:
			b.WriteString(v.styles.Muted.Render("[" + v.preview.MIMEType + " image]"))
		default:
			b.WriteString(v.styles.Muted.Render("No preview available."))
		}
	}

	width := max(v.width/2-2, 20)
	return v.styles.Panel.Width(width).Render(b.String())
}

// Selected returns the selected item.
func (v *View) Selected() (Item, bool) {
	i := v.list.SelectedIndex()
	if i < 0 || i >= len(v.items) {
		return Item{}, false
	}
	return v.items[i], true
}

// Items returns the reviewed items.
func (v *View) Items() []Item {
	return v.items
}

// Busy reports whether a classification is running.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.status
}

// Folders returns the candidate folders.
func (v *View) Folders() []string {
	return v.cfg.Folders
}

// SetDimensions sets the terminal dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.status.SetWidth(width)
	// Title, blank line, spacing and status bar
	v.list.SetDimensions(width/2, max(height-6, 1))
}
