package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/colonyops/revdeck/internal/api"
	"github.com/colonyops/revdeck/internal/core/anchors"
	"github.com/colonyops/revdeck/internal/core/comments"
	"github.com/colonyops/revdeck/internal/core/config"
	"github.com/colonyops/revdeck/internal/core/difftable"
	"github.com/colonyops/revdeck/internal/core/fragment"
	"github.com/colonyops/revdeck/internal/core/logging"
	"github.com/colonyops/revdeck/internal/core/router"
	"github.com/colonyops/revdeck/internal/core/selection"
	"github.com/colonyops/revdeck/internal/core/styles"
	"github.com/colonyops/revdeck/internal/data/stores"
)

// fileState is everything the app holds per diff file. Pointer fields stay
// shared when the model value is copied through the update loop.
type fileState struct {
	file     difftable.DiffFile
	table    *difftable.Table
	placer   *difftable.Placer
	expander *difftable.ExpandController
	blocks   []*comments.DiffBlock
	store    *api.CommentStore
	loaded   bool
	loadErr  error
}

// App is the root model: a scrolling concatenation of per-file diff tables
// with anchor navigation, row selection, and the draft comment modal.
type App struct {
	cfg    *config.Config
	client *api.Client
	resume *stores.ResumeStore // nil when no local store is available
	drafts *stores.DraftStore  // nil when no local store is available

	route   router.Route
	pending *router.PendingAnchor

	// generation stamps outstanding loads; results from a superseded
	// revision are dropped on arrival.
	generation int

	files      []*fileState
	queue      *LoadQueue
	loader     *FileLoader
	chunks     *ChunkSource
	fragments  *fragment.Queue
	containers *ContainerSet

	seq         *anchors.Sequence
	tracker     *selection.Tracker
	trackerFile int

	viewport  viewport.Model
	debounce  HighlightDebouncer
	cursor    int // global content row
	modal     *CommentModal
	modalFile int
	modalBlk  *comments.DiffBlock
	overlay   string // read-only comment fragment overlay

	width  int
	height int
	status string

	log zerolog.Logger
}

// New builds the app for one review request and route. The stores may be
// nil when no local database is available.
func New(cfg *config.Config, client *api.Client, resume *stores.ResumeStore, drafts *stores.DraftStore, route router.Route) App {
	containers := NewContainerSet()
	a := App{
		cfg:        cfg,
		client:     client,
		resume:     resume,
		drafts:     drafts,
		route:      route,
		pending:    router.NewPendingAnchor(route.Anchor),
		seq:        anchors.NewSequence(),
		queue:      NewLoadQueue(),
		containers: containers,
		fragments:  fragment.NewQueue(client, containers),
		viewport:   viewport.New(),
		log:        logging.Component("tui"),
	}
	a.loader = NewFileLoader(client, route.Revision, a.buildOptions())
	a.chunks = NewChunkSource(client, route.Revision, route.InterdiffRevision)
	return a
}

func (a App) buildOptions() difftable.BuildOptions {
	return difftable.BuildOptions{
		ContextLines:      a.cfg.ContextLines,
		CollapseThreshold: a.cfg.CollapseThreshold,
	}
}

// Init kicks off the diff-context load.
func (a App) Init() tea.Cmd {
	return a.loadContextCmd(a.generation)
}

func (a App) loadContextCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		dc, err := a.client.GetDiffContext(context.Background(),
			a.route.Revision, a.route.InterdiffRevision,
			a.route.BaseCommitID, a.route.TipCommitID)
		return diffContextMsg{generation: gen, context: dc, err: err}
	}
}

func (a App) loadFilesCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		files, err := a.client.GetFiles(context.Background(), a.route.Revision, a.route.Page)
		return filesListMsg{generation: gen, files: files, err: err}
	}
}

func (a App) loadFileCmd(gen, fileIndex int) tea.Cmd {
	fs := a.files[fileIndex]
	loader := a.loader
	return func() tea.Msg {
		table, err := loader.LoadFile(context.Background(), fs.file)
		return fileLoadedMsg{generation: gen, fileIndex: fileIndex, table: table, err: err}
	}
}

func (a App) loadFragmentsCmd(gen int) tea.Cmd {
	// Detach the pass here so the goroutine below only fetches; the
	// containers are written when the result lands back in Update.
	pass := a.fragments.Snapshot()
	return func() tea.Msg {
		frags, err := pass.Fetch(context.Background())
		return fragmentsLoadedMsg{generation: gen, pass: pass, fragments: frags, err: err}
	}
}

func (a App) expandCmd(gen, fileIndex, chunkIndex, linesOfContext int, all bool) tea.Cmd {
	fs := a.files[fileIndex]
	src := a.chunks
	return func() tea.Msg {
		rows, err := src.ChunkRows(context.Background(), fs.file, chunkIndex, linesOfContext, all)
		return chunkExpandedMsg{
			generation: gen,
			fileIndex:  fileIndex,
			chunkIndex: chunkIndex,
			rows:       rows,
			err:        err,
		}
	}
}

// saveBlockCmd snapshots the draft on the event loop and runs only the
// store round-trip in the command goroutine. The stored comment travels
// back in the message and is applied to the block in Update.
func (a App) saveBlockCmd(fileIndex int, block *comments.DiffBlock) tea.Cmd {
	d := block.Draft()
	if d == nil {
		return func() tea.Msg {
			return commentSavedMsg{err: fmt.Errorf("comment block has no draft to save")}
		}
	}
	draft := *d
	key := block.RangeKey()
	store := block.Store()
	return func() tea.Msg {
		stored, err := store.SaveComment(context.Background(), draft)
		if err != nil {
			return commentSavedMsg{err: fmt.Errorf("save comment: %w", err)}
		}
		return commentSavedMsg{comment: stored, fileIndex: fileIndex, rangeKey: key}
	}
}

// discardBlockCmd handles a cancelled editor. A textless draft that was
// never persisted is dropped locally right here; a persisted one needs a
// delete round-trip, which runs I/O-only with the block mutation applied
// in Update.
func (a *App) discardBlockCmd(fileIndex int, block *comments.DiffBlock) tea.Cmd {
	d := block.Draft()
	if d == nil || strings.TrimSpace(d.Text) != "" {
		return nil
	}
	if !block.CanDelete() {
		block.Discard()
		return func() tea.Msg {
			return commentSavedMsg{deleted: true}
		}
	}
	id := d.ID
	key := block.RangeKey()
	store := block.Store()
	return func() tea.Msg {
		if err := store.DeleteComment(context.Background(), id); err != nil {
			return commentSavedMsg{err: fmt.Errorf("delete comment: %w", err)}
		}
		return commentSavedMsg{deleted: true, fileIndex: fileIndex, rangeKey: key}
	}
}

// Update is the event loop.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport = viewport.New(
			viewport.WithWidth(msg.Width),
			viewport.WithHeight(a.viewportHeight()),
		)
		a.rebuildContent()
		return a, nil

	case diffContextMsg:
		if msg.generation != a.generation {
			return a, nil
		}
		if msg.err != nil {
			a.status = "diff context: " + msg.err.Error()
			return a, nil
		}
		if a.route.Revision == 0 {
			a.route.Revision = msg.context.Revision.Revision
		}
		return a, a.loadFilesCmd(a.generation)

	case filesListMsg:
		return a.handleFilesList(msg)

	case fileLoadedMsg:
		return a.handleFileLoaded(msg)

	case fragmentsLoadedMsg:
		if msg.generation != a.generation {
			return a, nil
		}
		a.fragments.Apply(msg.pass, msg.fragments)
		if msg.err != nil {
			a.status = "comment fragments: " + msg.err.Error()
		}
		return a, nil

	case chunkExpandedMsg:
		return a.handleChunkExpanded(msg)

	case commentSavedMsg:
		return a.handleCommentSaved(msg)

	case highlightTickMsg:
		if a.debounce.Due(msg) {
			a.rebuildContent()
		}
		return a, nil

	case errMsg:
		a.status = msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a App) handleFilesList(msg filesListMsg) (tea.Model, tea.Cmd) {
	if msg.generation != a.generation {
		return a, nil
	}
	if msg.err != nil {
		a.status = "file list: " + msg.err.Error()
		return a, nil
	}

	a.files = nil
	a.queue.Reset()
	for _, df := range msg.files {
		if len(a.route.Filenames) > 0 && !a.route.MatchesFilename(df.ModifiedFilename) {
			continue
		}
		df.Index = len(a.files)
		a.files = append(a.files, &fileState{
			file:  df,
			store: a.client.NewCommentStore(int(df.FileDiffID), int(df.InterFileDiffID)),
		})
		a.queue.Enqueue(df.Index)
	}

	a.status = fmt.Sprintf("loading %d files", len(a.files))
	a.rebuildContent()
	return a, a.nextLoad()
}

// nextLoad starts the next queued file load, if the queue is free.
func (a *App) nextLoad() tea.Cmd {
	idx, ok := a.queue.Next()
	if !ok {
		if a.queue.Idle() && a.fragments.Pending() > 0 {
			return a.loadFragmentsCmd(a.generation)
		}
		return nil
	}
	return a.loadFileCmd(a.generation, idx)
}

func (a App) handleFileLoaded(msg fileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != a.generation {
		return a, nil
	}
	if a.queue.Done(msg.fileIndex) {
		a.log.Debug().Int("file", msg.fileIndex).Msg("stale file load dropped")
		return a, nil
	}

	fs := a.files[msg.fileIndex]
	if msg.err != nil {
		fs.loadErr = msg.err
		fs.loaded = true
		a.status = msg.err.Error()
		return a, a.nextLoad()
	}

	fs.table = msg.table
	fs.placer = difftable.NewPlacer(msg.table)
	fs.expander = difftable.NewExpandController(msg.table, a.chunks, fs.placer, a.buildOptions())
	fs.loaded = true

	blocks, err := comments.BlocksFromFile(fs.store, fs.file)
	if err != nil {
		a.log.Warn().Err(err).Str("file", fs.file.ModifiedFilename).Msg("bad serialized comments")
	}
	fs.blocks = blocks
	for _, b := range blocks {
		fs.placer.Add(b)
	}
	fs.placer.PlacePending()

	a.indexAnchors(fs)
	a.queueBlockFragments(fs)
	a.consumePendingAnchor()
	a.rebuildContent()

	if a.status != "" && strings.HasPrefix(a.status, "loading") {
		a.status = fmt.Sprintf("loaded %s", fs.file.ModifiedFilename)
	}
	return a, a.nextLoad()
}

// indexAnchors appends the file's anchors in document order: the file
// header, every chunk including equal ones, then each comment block.
func (a *App) indexAnchors(fs *fileState) {
	df := fs.file
	a.seq.Add(anchors.Anchor{
		Kind:      anchors.KindFile,
		Name:      fmt.Sprintf("file%d", df.FileDiffID),
		FileIndex: df.Index,
	})
	for _, chunk := range fs.table.Chunks {
		a.seq.Add(anchors.Anchor{
			Kind:       anchors.KindChunk,
			Name:       fmt.Sprintf("%d.%d", df.FileDiffID, chunk.Index),
			FileIndex:  df.Index,
			ChunkIndex: chunk.Index,
		})
	}
	for _, b := range fs.blocks {
		for _, cm := range b.Published() {
			a.seq.Add(anchors.Anchor{
				Kind:      anchors.KindComment,
				Name:      fmt.Sprintf("comment%d", cm.ID),
				FileIndex: df.Index,
			})
			break // one anchor per block, named for its first comment
		}
	}
}

// queueBlockFragments registers a container per published comment and
// queues its fragment under the revision's batch key.
func (a *App) queueBlockFragments(fs *fileState) {
	key := strconv.Itoa(a.route.Revision)
	if a.route.InterdiffRevision > 0 {
		key += "-" + strconv.Itoa(a.route.InterdiffRevision)
	}
	for _, b := range fs.blocks {
		for _, cm := range b.Published() {
			id := strconv.FormatInt(cm.ID, 10)
			a.containers.Add(id)
			a.fragments.QueueLoad(id, key, nil)
		}
	}
}

// consumePendingAnchor selects the route's fragment anchor the first time
// it becomes present, and only once.
func (a *App) consumePendingAnchor() {
	name, ok := a.pending.TryConsume(func(name string) bool {
		for i := 0; i < a.seq.Len(); i++ {
			if a.seq.At(i).Name == name {
				return true
			}
		}
		return false
	})
	if !ok {
		return
	}
	a.seq.SelectName(name)
	a.scrollToCurrent()
}

func (a App) handleChunkExpanded(msg chunkExpandedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != a.generation {
		return a, nil
	}
	if msg.err != nil {
		a.status = msg.err.Error()
		return a, nil
	}

	fs := a.files[msg.fileIndex]
	if fs.expander == nil {
		return a, nil
	}

	kept := a.measureScrollAnchor(msg.fileIndex, msg.chunkIndex)
	if err := fs.expander.ApplyRows(msg.chunkIndex, msg.rows); err != nil {
		a.status = err.Error()
		return a, nil
	}
	a.restoreScrollAnchor(msg.fileIndex, msg.chunkIndex, kept)
	a.rebuildContent()
	return a, a.debounce.Invalidate()
}

// measureScrollAnchor records where the chunk's first row sits relative to
// the viewport top, so a splice that changes content height keeps the
// user's visual position.
func (a *App) measureScrollAnchor(fileIndex, chunkIndex int) int {
	fs := a.files[fileIndex]
	first := a.fileStart(fileIndex) + fs.table.Chunks[chunkIndex].FirstRow
	return first - a.viewport.YOffset()
}

func (a *App) restoreScrollAnchor(fileIndex, chunkIndex, kept int) {
	fs := a.files[fileIndex]
	first := a.fileStart(fileIndex) + fs.table.Chunks[chunkIndex].FirstRow
	offset := first - kept
	if offset < 0 {
		offset = 0
	}
	a.viewport.SetYOffset(offset)
}

func (a App) handleCommentSaved(msg commentSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.status = "save failed: " + msg.err.Error()
		return a, nil
	}
	block := a.blockAt(msg.fileIndex, msg.rangeKey)
	if msg.deleted {
		if block != nil {
			block.Discard()
		}
		a.status = "draft discarded"
	} else {
		if block != nil {
			block.ApplySaved(msg.comment)
		}
		a.status = "draft saved"
		a.clearLocalDraft(msg.rangeKey)
	}
	a.rebuildContent()
	return a, nil
}

// blockAt finds a file's comment block by its range key.
func (a *App) blockAt(fileIndex int, rangeKey string) *comments.DiffBlock {
	if rangeKey == "" || fileIndex < 0 || fileIndex >= len(a.files) {
		return nil
	}
	for _, b := range a.files[fileIndex].blocks {
		if b.RangeKey() == rangeKey {
			return b
		}
	}
	return nil
}

// persistLocalDraft stashes the draft text locally before the network save,
// so it survives a crash or a dropped connection.
func (a *App) persistLocalDraft(block *comments.DiffBlock) {
	if a.drafts == nil {
		return
	}
	d := block.Draft()
	if d == nil {
		return
	}
	err := a.drafts.Put(context.Background(), stores.DraftText{
		Server:          a.cfg.Server,
		ReviewRequestID: a.clientReviewID(),
		RangeKey:        block.RangeKey(),
		Text:            d.Text,
		RichText:        d.RichText,
		IssueOpened:     d.IssueOpened,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("persist local draft")
	}
}

func (a *App) clearLocalDraft(rangeKey string) {
	if a.drafts == nil || rangeKey == "" {
		return
	}
	err := a.drafts.Delete(context.Background(), a.cfg.Server, a.clientReviewID(), rangeKey)
	if err != nil {
		a.log.Warn().Err(err).Msg("clear local draft")
	}
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.overlay != "" {
		a.overlay = ""
		return a, nil
	}

	if a.modal != nil {
		return a.updateModal(msg)
	}

	switch key {
	case "q", "ctrl+c":
		a.persistResume()
		return a, tea.Quit
	case "up":
		return a.moveCursor(-1), nil
	case "down":
		return a.moveCursor(1), nil
	case "pgup":
		a.viewport.HalfPageUp()
		return a, a.debounce.Invalidate()
	case "pgdown":
		a.viewport.HalfPageDown()
		return a, a.debounce.Invalidate()
	case "esc":
		if a.tracker != nil {
			a.tracker.Cancel()
			a.tracker = nil
			a.rebuildContent()
		}
		return a, nil
	case "enter":
		return a.openCurrentAnchor()
	}

	if len(key) == 1 && key >= "1" && key <= "9" {
		rev, _ := strconv.Atoi(key)
		return a.navigateRevision(rev)
	}

	kb, ok := a.cfg.Binding(key)
	if !ok {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a.dispatch(kb.Action)
}

func (a App) dispatch(action string) (tea.Model, tea.Cmd) {
	switch action {
	case config.ActionPrevFile:
		return a.nextAnchor(anchors.Backward, anchors.MaskFile)
	case config.ActionNextFile:
		return a.nextAnchor(anchors.Forward, anchors.MaskFile)
	case config.ActionPrevChunk:
		return a.nextAnchor(anchors.Backward, anchors.MaskChunk)
	case config.ActionNextChunk:
		return a.nextAnchor(anchors.Forward, anchors.MaskChunk)
	case config.ActionPrevComment:
		return a.nextAnchor(anchors.Backward, anchors.MaskComment)
	case config.ActionNextComment:
		return a.nextAnchor(anchors.Forward, anchors.MaskComment)
	case config.ActionRecenter:
		a.scrollToCurrent()
		return a, a.debounce.Invalidate()
	case config.ActionCreateComment:
		return a.toggleSelection()
	case config.ActionExpandChunk:
		return a.expandCurrent(false)
	case config.ActionCollapseChunk:
		return a.collapseCurrent()
	}
	return a, nil
}

// nextAnchor advances the selection in document order, skipping dimmed
// chunks, and never wrapping past either end.
func (a App) nextAnchor(dir anchors.Direction, mask anchors.Mask) (tea.Model, tea.Cmd) {
	next, ok := a.seq.Next(dir, mask, a.anchorSkipped)
	if !ok {
		return a, nil
	}
	a.seq.SelectName(next.Name)
	a.scrollToCurrent()
	return a, a.debounce.Invalidate()
}

// anchorSkipped hides anchors whose target cannot be shown: unloaded
// files, and chunks currently dimmed.
func (a App) anchorSkipped(an anchors.Anchor) bool {
	if an.FileIndex >= len(a.files) {
		return true
	}
	fs := a.files[an.FileIndex]
	if !fs.loaded || fs.table == nil {
		return true
	}
	if an.Kind == anchors.KindChunk {
		return fs.table.Chunks[an.ChunkIndex].Dimmed
	}
	return false
}

// rowForAnchor resolves an anchor to its current global content row. The
// row is recomputed on demand so splices never leave anchors stale.
func (a App) rowForAnchor(an anchors.Anchor) (int, bool) {
	if an.FileIndex >= len(a.files) {
		return 0, false
	}
	fs := a.files[an.FileIndex]
	if !fs.loaded || fs.table == nil {
		return 0, false
	}
	start := a.fileStart(an.FileIndex)

	switch an.Kind {
	case anchors.KindFile:
		return start, true
	case anchors.KindChunk:
		if an.ChunkIndex >= len(fs.table.Chunks) {
			return 0, false
		}
		return start + fs.table.Chunks[an.ChunkIndex].FirstRow, true
	case anchors.KindComment:
		block := a.blockForAnchor(an)
		if block == nil || fs.placer == nil {
			return 0, false
		}
		row, ok := fs.placer.RowOf(block)
		if !ok {
			return 0, false
		}
		return start + row, true
	}
	return 0, false
}

func (a App) blockForAnchor(an anchors.Anchor) *comments.DiffBlock {
	fs := a.files[an.FileIndex]
	for _, b := range fs.blocks {
		for _, cm := range b.Published() {
			if fmt.Sprintf("comment%d", cm.ID) == an.Name {
				return b
			}
			break
		}
	}
	return nil
}

func (a *App) scrollToCurrent() {
	current, ok := a.seq.Current()
	if !ok {
		return
	}
	row, ok := a.rowForAnchor(current)
	if !ok {
		return
	}
	engine := ScrollEngine{
		ContentHeight:  a.contentHeight(),
		ViewportHeight: a.viewportHeight(),
		Chrome:         a.chromeAt,
	}
	a.viewport.SetYOffset(engine.OffsetFor(row))
	a.cursor = row
	a.rebuildContent()
}

// chromeAt reports the sticky-banner height at a viewport offset: one row
// once the current file's header has scrolled off the top.
func (a App) chromeAt(offset int) int {
	idx, local := a.locate(offset)
	if idx < 0 {
		return 0
	}
	if local > 0 {
		return 1
	}
	return 0
}

// moveCursor shifts the cursor one content row, extending an active
// selection's frontier.
func (a App) moveCursor(delta int) App {
	next := a.cursor + delta
	if next < 0 || next >= a.contentHeight() {
		return a
	}
	a.cursor = next

	if a.tracker != nil {
		idx, local := a.locate(next)
		if idx == a.trackerFile {
			a.tracker.ExtendTo(local)
		}
	}

	// keep the cursor inside the viewport
	if next < a.viewport.YOffset() {
		a.viewport.SetYOffset(next)
	} else if next >= a.viewport.YOffset()+a.viewportHeight() {
		a.viewport.SetYOffset(next - a.viewportHeight() + 1)
	}
	a.rebuildContent()
	return a
}

// toggleSelection begins a selection at the cursor, or releases an active
// one. The release outcome decides between opening the comment editor,
// delegating to an existing flag, or just moving the navigation anchor.
func (a App) toggleSelection() (tea.Model, tea.Cmd) {
	idx, local := a.locate(a.cursor)
	if idx < 0 {
		return a, nil
	}
	fs := a.files[idx]
	if fs.table == nil {
		return a, nil
	}

	if a.tracker == nil {
		tracker := selection.NewTracker(fs.table)
		if !tracker.Begin(local) {
			a.status = "no line here to comment on"
			return a, nil
		}
		a.tracker = tracker
		a.trackerFile = idx
		a.status = "selecting; press again to comment, esc to cancel"
		a.rebuildContent()
		return a, nil
	}

	if idx != a.trackerFile {
		a.tracker.Cancel()
		a.tracker = nil
		a.rebuildContent()
		return a, nil
	}

	release := a.tracker.Release(local, a.flagPresence(idx))
	a.tracker = nil
	return a.applyRelease(idx, release)
}

func (a App) applyRelease(fileIndex int, release selection.Release) (tea.Model, tea.Cmd) {
	fs := a.files[fileIndex]
	switch release.Kind {
	case selection.ReleaseNewBlock:
		r := release.Range.Normalize()
		block := comments.NewDiffBlock(fs.store, fs.file.FileDiffID, r.Start, r.NumLines(), nil)
		a.openModal(fileIndex, block, r.Start, r.End)
	case selection.ReleaseDelegate:
		block := a.blockAtRow(fileIndex, release.Row)
		if block != nil {
			a.openModal(fileIndex, block, block.BeginLine(), block.EndLine())
		}
	case selection.ReleaseMoveAnchor:
		fdid := fs.file.FileDiffID
		a.seq.SelectName(fmt.Sprintf("%d.%d", fdid, release.Chunk))
		a.scrollToCurrent()
	}
	a.rebuildContent()
	return a, a.debounce.Invalidate()
}

func (a *App) openModal(fileIndex int, block *comments.DiffBlock, startLine, endLine int) {
	modal := NewCommentModal(startLine, endLine, a.width, a.height)
	if d := block.Draft(); d != nil && d.Text != "" {
		modal.SetExistingComment(d.Text, d.IssueOpened)
	}
	a.modal = &modal
	a.modalFile = fileIndex
	a.modalBlk = block
	a.status = ""
}

func (a App) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal, cmd := a.modal.Update(msg)
	a.modal = &modal

	switch {
	case modal.Submitted():
		block := a.modalBlk
		fileIndex := a.modalFile
		block.EnsureDraft()
		block.CreateComment(modal.Value())
		block.Draft().IssueOpened = modal.IssueOpened()
		a.attachBlock(fileIndex, block)
		a.persistLocalDraft(block)
		a.modal = nil
		a.modalBlk = nil
		return a, a.saveBlockCmd(fileIndex, block)

	case modal.Cancelled():
		block := a.modalBlk
		fileIndex := a.modalFile
		a.modal = nil
		a.modalBlk = nil
		return a, a.discardBlockCmd(fileIndex, block)
	}
	return a, cmd
}

// attachBlock makes a freshly created block part of its file: placed on the
// table and indexed for flag rendering.
func (a *App) attachBlock(fileIndex int, block *comments.DiffBlock) {
	fs := a.files[fileIndex]
	for _, b := range fs.blocks {
		if b == block {
			return
		}
	}
	fs.blocks = append(fs.blocks, block)
	fs.placer.Add(block)
	fs.placer.PlacePending()
}

// openCurrentAnchor shows the fragment text of the current comment anchor.
func (a App) openCurrentAnchor() (tea.Model, tea.Cmd) {
	current, ok := a.seq.Current()
	if !ok || current.Kind != anchors.KindComment {
		return a, nil
	}
	block := a.blockForAnchor(current)
	if block == nil {
		return a, nil
	}

	var b strings.Builder
	for _, cm := range block.Published() {
		id := strconv.FormatInt(cm.ID, 10)
		if c, ok := a.containers.Get(id); ok && c.Text() != "" {
			b.WriteString(c.Text())
		} else {
			b.WriteString(cm.Text)
		}
		b.WriteString("\n\n")
	}
	if d := block.Draft(); d != nil && d.Text != "" {
		b.WriteString("(draft) " + d.Text + "\n")
	}
	a.overlay = a.renderOverlayText(strings.TrimSpace(b.String()))
	return a, nil
}

// renderOverlayText renders comment text as markdown for the overlay.
// Falls back to the raw text when the renderer cannot be built.
func (a App) renderOverlayText(text string) string {
	wrapWidth := max(a.width-8, 20)
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(min(wrapWidth, 80)),
	)
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

func (a App) expandCurrent(all bool) (tea.Model, tea.Cmd) {
	idx, chunk, ok := a.currentChunk()
	if !ok {
		return a, nil
	}
	fs := a.files[idx]
	if !fs.table.Chunks[chunk].Collapsed {
		return a, nil
	}
	lines := a.cfg.ContextLines
	if all {
		lines = 0
	}
	return a, a.expandCmd(a.generation, idx, chunk, lines, all)
}

func (a App) collapseCurrent() (tea.Model, tea.Cmd) {
	idx, chunk, ok := a.currentChunk()
	if !ok {
		return a, nil
	}
	fs := a.files[idx]
	kept := a.measureScrollAnchor(idx, chunk)
	if err := fs.expander.CollapseChunk(chunk); err != nil {
		a.status = err.Error()
		return a, nil
	}
	a.restoreScrollAnchor(idx, chunk, kept)
	a.rebuildContent()
	return a, a.debounce.Invalidate()
}

// currentChunk picks the chunk to expand or collapse: the selected chunk
// anchor when there is one, otherwise the chunk under the cursor.
func (a App) currentChunk() (fileIndex, chunkIndex int, ok bool) {
	if current, sel := a.seq.Current(); sel && current.Kind == anchors.KindChunk {
		return current.FileIndex, current.ChunkIndex, true
	}
	idx, local := a.locate(a.cursor)
	if idx < 0 {
		return 0, 0, false
	}
	fs := a.files[idx]
	if fs.table == nil {
		return 0, 0, false
	}
	chunk := fs.table.ChunkAt(local)
	if chunk == nil {
		return 0, 0, false
	}
	return idx, chunk.Index, true
}

// navigateRevision routes to another diff revision. An anchor-only change
// just rescrolls; anything else reloads the tables.
func (a App) navigateRevision(revision int) (tea.Model, tea.Cmd) {
	next := a.route
	next.Revision = revision
	next.InterdiffRevision = 0

	switch router.Classify(a.route, next) {
	case router.NavNone:
		return a, nil
	case router.NavAnchorOnly:
		a.route = next
		a.pending = router.NewPendingAnchor(next.Anchor)
		a.consumePendingAnchor()
		return a, nil
	default:
		return a.reload(next)
	}
}

// reload supersedes every outstanding load and starts over on the new
// route. Results stamped with the old generation are dropped on arrival.
func (a App) reload(next router.Route) (tea.Model, tea.Cmd) {
	a.generation++
	a.route = next
	a.pending = router.NewPendingAnchor(next.Anchor)
	a.queue.Reset()
	a.containers.Clear()
	a.files = nil
	a.seq = anchors.NewSequence()
	a.tracker = nil
	a.cursor = 0
	a.loader = NewFileLoader(a.client, next.Revision, a.buildOptions())
	a.chunks = NewChunkSource(a.client, next.Revision, next.InterdiffRevision)
	a.fragments = fragment.NewQueue(a.client, a.containers)
	a.status = fmt.Sprintf("loading revision %d", next.Revision)
	a.rebuildContent()
	return a, a.loadContextCmd(a.generation)
}

func (a *App) persistResume() {
	if a.resume == nil {
		return
	}
	state := stores.ResumeState{
		Server:            a.cfg.Server,
		ReviewRequestID:   a.clientReviewID(),
		Revision:          a.route.Revision,
		InterdiffRevision: a.route.InterdiffRevision,
		Page:              a.route.Page,
	}
	if current, ok := a.seq.Current(); ok {
		state.Anchor = current.Name
	}
	if err := a.resume.Save(context.Background(), state); err != nil {
		a.log.Warn().Err(err).Msg("persist resume state")
	}
}

// geometry helpers

func (a App) viewportHeight() int {
	h := a.height - 2 // header and status lines
	if h < 1 {
		h = 1
	}
	return h
}

// fileStart is the global row where a file's table begins. Unloaded files
// occupy a single placeholder row.
func (a App) fileStart(fileIndex int) int {
	start := 0
	for i := 0; i < fileIndex && i < len(a.files); i++ {
		start += a.fileHeight(i)
	}
	return start
}

func (a App) fileHeight(fileIndex int) int {
	fs := a.files[fileIndex]
	if fs.loaded && fs.table != nil {
		return len(fs.table.Rows)
	}
	return 1
}

func (a App) contentHeight() int {
	total := 0
	for i := range a.files {
		total += a.fileHeight(i)
	}
	return total
}

// locate maps a global row to (fileIndex, localRow); (-1, 0) when out of
// range.
func (a App) locate(globalRow int) (fileIndex, localRow int) {
	row := globalRow
	for i := range a.files {
		h := a.fileHeight(i)
		if row < h {
			return i, row
		}
		row -= h
	}
	return -1, 0
}

// rendering

// rebuildContent re-renders every file into the viewport, applying the
// selected chunk's highlight bar and the selection/ghost affordances.
func (a *App) rebuildContent() {
	if a.width == 0 {
		return
	}

	highlightFirst, highlightLast := a.highlightSpan()

	var lines []string
	for i := range a.files {
		fs := a.files[i]
		if !fs.loaded || fs.table == nil {
			label := "… loading " + fs.file.ModifiedFilename
			if fs.loadErr != nil {
				label = "✗ " + fs.file.ModifiedFilename + ": " + fs.loadErr.Error()
			}
			lines = append(lines, styles.DiffDimmedStyle.Render(label))
			continue
		}

		renderer := a.rendererFor(i)
		start := len(lines)
		for r := range fs.table.Rows {
			line := renderer.RenderRow(fs.table, r)
			global := start + r
			if global >= highlightFirst && global <= highlightLast {
				line = styles.HighlightBorderStyle.Render("▎") + line
			} else if global == a.cursor {
				line = styles.SelectedLineStyle.Render("›") + line
			} else {
				line = " " + line
			}
			lines = append(lines, line)
		}
	}

	a.viewport.SetContent(strings.Join(lines, "\n"))
}

// applyHighlight paints the right edge and corners of the selected chunk's
// rectangle onto the clipped viewport body. The left edge is drawn as part
// of the content rows; the right edge only exists after the viewport clips,
// so a partially scrolled chunk keeps exactly the edges on screen. A corner
// scrolled off (Top or Bottom is -1) degrades to the plain side glyph.
func (a App) applyHighlight(body string, rect HighlightRect) string {
	lines := strings.Split(body, "\n")
	for row := rect.FirstRow; row <= rect.LastRow && row < len(lines); row++ {
		glyph := "│"
		switch row {
		case rect.Top:
			glyph = "┐"
		case rect.Bottom:
			glyph = "┘"
		}
		// The glyph takes the last cell; rendered rows already fill the
		// full width, so truncate rather than append.
		line := ansi.Truncate(lines[row], rect.Right, "")
		if pad := rect.Right - ansi.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		lines[row] = line + styles.HighlightBorderStyle.Render(glyph)
	}
	return strings.Join(lines, "\n")
}

// highlightSpan is the global row span of the selected chunk anchor, or an
// empty span.
func (a App) highlightSpan() (first, last int) {
	current, ok := a.seq.Current()
	if !ok || current.Kind != anchors.KindChunk || current.FileIndex >= len(a.files) {
		return -1, -1
	}
	fs := a.files[current.FileIndex]
	if !fs.loaded || fs.table == nil || current.ChunkIndex >= len(fs.table.Chunks) {
		return -1, -1
	}
	chunk := fs.table.Chunks[current.ChunkIndex]
	start := a.fileStart(current.FileIndex)
	return start + chunk.FirstRow, start + chunk.LastRow
}

// rendererFor builds the renderer for one file, with flag and ghost
// callbacks bound to that file's placer and tracker state.
func (a *App) rendererFor(fileIndex int) TableRenderer {
	flagRows := a.flagRows(fileIndex)

	var ghost func(int) bool
	if a.tracker != nil && a.trackerFile == fileIndex {
		hasFlag := a.flagPresence(fileIndex)
		tracker := a.tracker
		ghost = func(row int) bool { return tracker.ShowGhostFlag(row, hasFlag) }
	}

	return TableRenderer{
		Width: a.width - 1, // one cell for the cursor/highlight bar
		FlagAt: func(row int) string {
			b, ok := flagRows[row]
			if !ok {
				return ""
			}
			return a.flagGlyph(b)
		},
		GhostAt: ghost,
	}
}

// flagRows maps each visible block's anchor row to its block.
func (a App) flagRows(fileIndex int) map[int]*comments.DiffBlock {
	fs := a.files[fileIndex]
	out := map[int]*comments.DiffBlock{}
	if fs.placer == nil {
		return out
	}
	for _, b := range fs.blocks {
		if row, ok := fs.placer.RowOf(b); ok {
			out[row] = b
		}
	}
	return out
}

func (a App) flagPresence(fileIndex int) func(int) bool {
	rows := a.flagRows(fileIndex)
	return func(row int) bool {
		_, ok := rows[row]
		return ok
	}
}

// blockAtRow finds the visible block flagged at a table row.
func (a App) blockAtRow(fileIndex, row int) *comments.DiffBlock {
	return a.flagRows(fileIndex)[row]
}

// flagGlyph picks the gutter glyph for a block: draft beats issue state
// beats the plain comment flag.
func (a App) flagGlyph(b *comments.DiffBlock) string {
	if d := b.Draft(); d != nil {
		return styles.DraftFlagStyle.Render(styles.IconDraft)
	}
	for _, cm := range b.Published() {
		switch cm.IssueStatus {
		case comments.IssueOpen:
			return styles.IssueOpenStyle.Render(styles.IconIssueOpen)
		case comments.IssueResolved:
			return styles.CommentFlagStyle.Render(styles.IconResolved)
		case comments.IssueDropped:
			return styles.CommentFlagStyle.Render(styles.IconDropped)
		}
	}
	return styles.CommentFlagStyle.Render(styles.IconComment)
}

// View renders header, viewport, and status line, with the comment modal
// or fragment overlay centered on top when open.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	header := styles.CommandHeaderStyle.Render(a.headerLine())
	body := a.viewport.View()
	if first, last := a.highlightSpan(); first >= 0 {
		rect := ComputeHighlight(first, last, a.viewport.YOffset(), a.viewportHeight(), a.width)
		if rect.Visible {
			body = a.applyHighlight(body, rect)
		}
	}
	status := styles.DividerStyle.Render(a.statusLine())

	screen := header + "\n" + body + "\n" + status

	if a.modal != nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.modal.View())
	}
	if a.overlay != "" {
		box := styles.ModalStyle.Render(a.overlay)
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
	}
	return screen
}

func (a App) headerLine() string {
	rev := strconv.Itoa(a.route.Revision)
	if a.route.InterdiffRevision > 0 {
		rev += "-" + strconv.Itoa(a.route.InterdiffRevision)
	}
	return fmt.Sprintf("revdeck · r/%d · diff %s", a.clientReviewID(), rev)
}

func (a App) statusLine() string {
	if a.status != "" {
		return a.status
	}
	if current, ok := a.seq.Current(); ok {
		return fmt.Sprintf("anchor %s (%d/%d)", current.Name, a.seq.Selected()+1, a.seq.Len())
	}
	if !a.queue.Idle() {
		return "loading…"
	}
	return fmt.Sprintf("%d files", len(a.files))
}

func (a App) clientReviewID() int {
	return a.client.ReviewRequestID()
}
