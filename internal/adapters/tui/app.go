package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"noteferry/internal/adapters/tui/styles"
	"noteferry/internal/adapters/tui/views"
	"noteferry/internal/application"
	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewPicker
	ViewProgress
)

// NewEventChannel creates the channel the pipeline goroutines publish to.
// Buffered so tracker callbacks never block the orchestrator on a slow
// render.
func NewEventChannel() chan tea.Msg {
	return make(chan tea.Msg, 64)
}

// TrackerCallbacks bridges tracker snapshots onto the event channel.
func TrackerCallbacks(events chan<- tea.Msg) (application.RunCallback, application.DocumentCallback) {
	onRun := func(run domain.ImportRun) {
		events <- views.RunProgressMsg{Run: run}
	}
	onDoc := func(doc domain.DocumentProgress) {
		events <- views.DocProgressMsg{Doc: doc}
	}
	return onRun, onDoc
}

// Resolver suspends a conflicted document until the operator answers the
// dialog. It publishes one ConflictRequestMsg and blocks on its single-shot
// reply channel; cancellation of the run context unblocks it with skip.
type Resolver struct {
	events chan<- tea.Msg
}

// NewResolver creates a resolver publishing to the given channel.
func NewResolver(events chan<- tea.Msg) *Resolver {
	return &Resolver{events: events}
}

// Resolve implements ports.ConflictResolver.
func (r *Resolver) Resolve(ctx context.Context, c ports.Conflict) (domain.Resolution, error) {
	reply := make(chan domain.Resolution, 1)

	select {
	case r.events <- views.ConflictRequestMsg{Conflict: c, Reply: reply}:
	case <-ctx.Done():
		return domain.Resolution{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return domain.Resolution{}, ctx.Err()
	}
}

// App is the main TUI application model
type App struct {
	fetcher  ports.Fetcher
	index    *application.Index
	importer *application.Importer
	events   chan tea.Msg
	opts     application.Options

	state    ViewState
	picker   *views.PickerModel
	conflict *views.ConflictModel
	progress *views.ProgressModel

	docs    []domain.RemoteDocument
	reply   chan domain.Resolution
	queued  []views.ConflictRequestMsg
	loadErr error
	width   int
	height  int
}

// NewApp creates a new TUI application. events must be the same channel
// the resolver and tracker callbacks publish to.
func NewApp(fetcher ports.Fetcher, index *application.Index, importer *application.Importer, events chan tea.Msg, opts application.Options) *App {
	return &App{
		fetcher:  fetcher,
		index:    index,
		importer: importer,
		events:   events,
		opts:     opts,
		state:    ViewLoading,
		picker:   views.NewPickerModel(),
		conflict: views.NewConflictModel(),
		progress: views.NewProgressModel(),
	}
}

type documentsLoadedMsg struct {
	docs     []domain.RemoteDocument
	statuses map[string]domain.ImportStatus
}

type loadFailedMsg struct{ err error }

type importDoneMsg struct{ err error }

type errorsCopiedMsg struct{}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.load(), a.listen())
}

// load fetches the batch and classifies it against the vault.
func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		docs, err := a.fetcher.FetchDocuments(ctx)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		if err := a.index.Initialize(ctx); err != nil {
			return loadFailedMsg{err: err}
		}
		statuses, err := a.index.CheckDocuments(ctx, docs)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return documentsLoadedMsg{docs: docs, statuses: statuses}
	}
}

// listen delivers one pipeline event and is re-armed after each delivery.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		return <-a.events
	}
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.picker.SetSize(msg.Width, msg.Height)
		a.conflict.SetSize(msg.Width, msg.Height)
		a.progress.SetSize(msg.Width, msg.Height)
		return a, nil

	case documentsLoadedMsg:
		a.docs = msg.docs
		a.picker.SetDocuments(msg.docs, msg.statuses)
		a.state = ViewPicker
		return a, nil

	case loadFailedMsg:
		a.loadErr = msg.err
		return a, nil

	case views.StartImportMsg:
		a.state = ViewProgress
		a.progress.Reset(msg.Selection)
		return a, a.startImport(msg.Selection)

	case views.RetryMsg:
		a.progress.Reset(nil)
		return a, a.retryFailures()

	case importDoneMsg:
		// Counts arrive through tracker snapshots; only unexpected errors
		// need surfacing here.
		if msg.err != nil {
			a.loadErr = msg.err
		}
		return a, nil

	case views.RunProgressMsg:
		a.progress.SetRun(msg.Run)
		return a, a.listen()

	case views.DocProgressMsg:
		a.progress.SetDocument(msg.Doc)
		return a, a.listen()

	case views.ConflictRequestMsg:
		// Concurrent documents can conflict at once; dialogs run one at
		// a time in arrival order.
		if a.reply != nil {
			a.queued = append(a.queued, msg)
			return a, a.listen()
		}
		a.reply = msg.Reply
		a.conflict.SetConflict(msg.Conflict)
		return a, a.listen()

	case views.ResolutionChosenMsg:
		if a.reply != nil {
			a.reply <- msg.Resolution
			a.reply = nil
		}
		if len(a.queued) > 0 {
			next := a.queued[0]
			a.queued = a.queued[1:]
			a.reply = next.Reply
			a.conflict.SetConflict(next.Conflict)
		}
		return a, nil

	case views.CancelRequestMsg:
		a.importer.Cancel()
		return a, nil

	case views.CopyErrorsMsg:
		return a, a.copyErrors()

	case errorsCopiedMsg:
		a.progress.MarkCopied()
		return a, nil
	}

	// A pending conflict captures all input until it is answered.
	if a.reply != nil {
		_, cmd := a.conflict.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewPicker:
		_, cmd = a.picker.Update(msg)
	case ViewProgress:
		_, cmd = a.progress.Update(msg)
	default:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			}
		}
	}
	return a, cmd
}

// startImport runs the pipeline off the UI goroutine.
func (a *App) startImport(selection []domain.DocumentMeta) tea.Cmd {
	return func() tea.Msg {
		_, err := a.importer.ImportDocuments(context.Background(), selection, a.docs, a.opts)
		return importDoneMsg{err: err}
	}
}

// retryFailures re-runs the failure registry off the UI goroutine.
func (a *App) retryFailures() tea.Cmd {
	return func() tea.Msg {
		_, err := a.importer.RetryFailedImports(context.Background(), a.opts)
		return importDoneMsg{err: err}
	}
}

// copyErrors puts the failure messages on the system clipboard.
func (a *App) copyErrors() tea.Cmd {
	failures := a.progress.Failures()
	var b strings.Builder
	for _, doc := range failures {
		fmt.Fprintf(&b, "%s: %s\n", doc.Title, doc.Error)
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(b.String()); err != nil {
			return nil
		}
		return errorsCopiedMsg{}
	}
}

// View renders the current view
func (a *App) View() string {
	if a.loadErr != nil {
		return styles.App.Render(
			styles.StatusFailed.Render("error: "+a.loadErr.Error()) + "\n\n" +
				styles.HelpDesc.Render("press q to quit"))
	}

	switch a.state {
	case ViewPicker:
		return a.picker.View()
	case ViewProgress:
		view := a.progress.View()
		if a.reply != nil {
			view += "\n" + a.conflict.View()
		}
		return view
	default:
		return styles.App.Render(styles.Subtitle.Render("fetching documents…"))
	}
}
