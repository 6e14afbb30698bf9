package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/ark/pkg/ark/logging"
	"github.com/jamesainslie/ark/pkg/ark/types"
)

// AppState represents the current phase of a run.
type AppState int

const (
	StateScanning AppState = iota
	StateCopying
	StateDone
)

// recentLogLimit is how many buffered warnings the log pane pulls per refresh.
const recentLogLimit = 100

// Options configures the progress UI. The UI drives the run through these
// callbacks and never touches configuration itself.
type Options struct {
	Source      string
	Destination string

	// Scan walks the source. It must honor ctx and report progress through
	// onProgress, which is safe to call from any goroutine.
	Scan func(ctx context.Context, onProgress func(types.ScanProgress)) (*types.ScanResult, error)

	// Check runs before copying starts; an error ends the run.
	Check func(files []types.FileRecord) error

	// Copy copies the scanned files.
	Copy func(ctx context.Context, files []types.FileRecord, onProgress func(types.CopyProgress)) (*types.CopyResult, error)
}

// Outcome is what the UI hands back once the user leaves it.
type Outcome struct {
	Scan *types.ScanResult
	Copy *types.CopyResult
	Err  error
}

// Model is the Bubble Tea model for "ark run".
type Model struct {
	state     AppState
	options   Options
	scanModel ScanModel
	copyModel CopyModel
	logs      *LogViewerState

	ctx             context.Context
	cancel          context.CancelFunc
	cancelRequested bool

	scanChan chan types.ScanProgress
	copyChan chan types.CopyProgress

	scanResult *types.ScanResult
	copyResult *types.CopyResult
	err        error

	width  int
	height int
}

type (
	scanProgressMsg types.ScanProgress
	copyProgressMsg types.CopyProgress

	scanDoneMsg struct {
		result *types.ScanResult
		err    error
	}

	copyDoneMsg struct {
		result *types.CopyResult
		err    error
	}

	// tickUIMsg triggers a UI refresh.
	tickUIMsg struct{}
)

// NewModel creates the model for one run.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateScanning,
		options:   opts,
		scanModel: NewScanModel(opts.Source),
		logs:      NewLogViewerState(),
		ctx:       ctx,
		cancel:    cancel,
		scanChan:  make(chan types.ScanProgress, 100),
		copyChan:  make(chan types.CopyProgress, 100),
		width:     80,
		height:    24,
	}
}

// Init starts the scan.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.scanModel.spinner.Tick,
		m.startScan(),
		listen(m.scanChan, func(p types.ScanProgress) tea.Msg { return scanProgressMsg(p) }),
		m.tickUI(),
	)
}

func (m Model) tickUI() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickUIMsg{}
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickUIMsg:
		m.logs.SetEntries(logging.Recent(recentLogLimit))
		if m.state == StateDone {
			return m, nil
		}
		return m, m.tickUI()

	case spinner.TickMsg:
		if m.state == StateDone {
			return m, nil
		}
		var cmd tea.Cmd
		m.scanModel.spinner, cmd = m.scanModel.spinner.Update(msg)
		return m, cmd

	case scanProgressMsg:
		m.scanModel.SetProgress(types.ScanProgress(msg))
		return m, listen(m.scanChan, func(p types.ScanProgress) tea.Msg { return scanProgressMsg(p) })

	case scanDoneMsg:
		return m.handleScanDone(msg)

	case copyProgressMsg:
		m.copyModel.SetProgress(types.CopyProgress(msg))
		return m, listen(m.copyChan, func(p types.CopyProgress) tea.Msg { return copyProgressMsg(p) })

	case copyDoneMsg:
		m.copyResult = msg.result
		m.err = msg.err
		m.finish()
		return m, nil
	}

	return m, nil
}

// handleScanDone moves on to copying, or ends the run when the scan failed,
// was cancelled, found nothing, or the destination cannot take the files.
func (m Model) handleScanDone(msg scanDoneMsg) (tea.Model, tea.Cmd) {
	m.scanResult = msg.result
	m.scanModel.SetDone(msg.err)

	switch {
	case msg.err != nil:
		m.err = msg.err
	case m.cancelRequested:
		m.err = context.Canceled
	case msg.result == nil || len(msg.result.Files) == 0:
	default:
		if m.options.Check != nil {
			m.err = m.options.Check(msg.result.Files)
		}
	}
	if m.err != nil || msg.result == nil || len(msg.result.Files) == 0 {
		m.finish()
		return m, nil
	}

	m.state = StateCopying
	m.copyModel = NewCopyModel(len(msg.result.Files), msg.result.TotalSize)
	return m, tea.Batch(
		m.startCopy(msg.result.Files),
		listen(m.copyChan, func(p types.CopyProgress) tea.Msg { return copyProgressMsg(p) }),
	)
}

func (m *Model) finish() {
	m.state = StateDone
	m.logs.SetEntries(logging.Recent(recentLogLimit))
	m.cancel()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "l":
		m.logs.Toggle()
		return m, nil
	case "1", "2", "3", "4":
		m.logs.SetFilterLevel(logging.Level(key[0] - '1'))
		return m, nil
	case "up", "k":
		if m.logs.Open {
			m.logs.ScrollUp()
		}
		return m, nil
	case "down", "j":
		if m.logs.Open {
			m.logs.ScrollDown(logViewerRows - 2)
		}
		return m, nil
	}

	if m.state == StateDone {
		switch key {
		case "q", "esc", "enter", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "q", "esc", "ctrl+c":
		// The copier finishes the current file and writes its manifest.
		if !m.cancelRequested {
			m.cancelRequested = true
			m.cancel()
		}
	}
	return m, nil
}

// Outcome returns the results gathered so far.
func (m Model) Outcome() Outcome {
	return Outcome{Scan: m.scanResult, Copy: m.copyResult, Err: m.err}
}

// State returns the current phase.
func (m Model) State() AppState {
	return m.state
}

// View renders the current state.
func (m Model) View() string {
	contentWidth := max(20, m.width-4)

	var b strings.Builder
	b.WriteString(renderAppHeader(m.options.Source, m.options.Destination, m.hint(), contentWidth))
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n\n")

	switch m.state {
	case StateScanning:
		b.WriteString(m.scanModel.View(contentWidth))
	case StateCopying:
		if metrics := renderScanMetrics(m.scanResult); metrics != "" {
			b.WriteString(metrics)
			b.WriteString("\n\n")
		}
		b.WriteString(m.copyModel.View(contentWidth, m.scanModel.spinner.View()))
	case StateDone:
		b.WriteString(m.renderDone(contentWidth))
	}

	if m.cancelRequested && m.state != StateDone {
		b.WriteString("\n")
		b.WriteString(warningTextStyle.Render("  Stopping after current file..."))
		b.WriteString("\n")
	}

	if m.logs.Open {
		b.WriteString("\n")
		b.WriteString(m.logs.View(contentWidth))
	} else if n := m.logs.WarningCount(); n > 0 {
		b.WriteString("\n")
		b.WriteString(warningTextStyle.Render(fmt.Sprintf("  %d warnings", n)))
		b.WriteString(mutedTextStyle.Render("  press l to show"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())

	return outerBoxStyle.Width(m.width - 2).Render(b.String())
}

func (m Model) hint() string {
	switch m.state {
	case StateDone:
		return "enter to exit"
	default:
		return "q to stop"
	}
}

func (m Model) footer() string {
	logsDesc := "logs"
	if m.logs.Open {
		logsDesc = "hide logs"
	}
	parts := []string{renderKeyHint("l", logsDesc)}
	if m.state == StateDone {
		parts = append(parts, renderKeyHint("enter", "exit"))
	} else {
		parts = append(parts, renderKeyHint("q", "stop"))
	}
	return "  " + strings.Join(parts, "  ")
}

// renderDone renders the end-of-run body.
func (m Model) renderDone(width int) string {
	var b strings.Builder

	res := m.copyResult
	switch {
	case errors.Is(m.err, context.Canceled) || (res != nil && res.Cancelled):
		b.WriteString(warningTextStyle.Render("  Run cancelled"))
	case m.err != nil:
		b.WriteString(errorTextStyle.Render("  Run failed: " + truncatePath(m.err.Error(), max(10, width-16))))
	case res == nil:
		b.WriteString(mutedTextStyle.Render("  No matching files"))
	case res.Errors > 0:
		b.WriteString(warningTextStyle.Render("  Run complete with errors"))
	default:
		b.WriteString(successTextStyle.Render("  Run complete"))
	}
	b.WriteString("\n\n")

	if metrics := renderScanMetrics(m.scanResult); metrics != "" {
		b.WriteString(metrics)
		b.WriteString("\n")
	}

	if res != nil {
		b.WriteString(fmt.Sprintf("  Copied:   %s of %s files (%s)\n",
			humanize.Comma(int64(res.Copied)),
			humanize.Comma(int64(res.Total)),
			types.FormatSize(res.BytesCopied)))
		errs := humanize.Comma(int64(res.Errors))
		if res.Errors > 0 {
			errs = errorTextStyle.Render(errs)
		}
		b.WriteString(fmt.Sprintf("  Errors:   %s\n", errs))
		b.WriteString(fmt.Sprintf("  Elapsed:  %s\n", formatDuration(res.Elapsed)))
		if res.ManifestPath != "" {
			b.WriteString(fmt.Sprintf("  Manifest: %s\n", fileNameStyle.Render(truncatePath(res.ManifestPath, max(10, width-14)))))
		}
	}

	return b.String()
}

func (m Model) startScan() tea.Cmd {
	ctx := m.ctx
	scan := m.options.Scan
	progressChan := m.scanChan
	return func() tea.Msg {
		defer close(progressChan)
		if scan == nil {
			return scanDoneMsg{result: &types.ScanResult{}}
		}
		res, err := scan(ctx, func(p types.ScanProgress) {
			select {
			case progressChan <- p:
			default:
			}
		})
		return scanDoneMsg{result: res, err: err}
	}
}

func (m Model) startCopy(files []types.FileRecord) tea.Cmd {
	ctx := m.ctx
	copyFn := m.options.Copy
	progressChan := m.copyChan
	return func() tea.Msg {
		defer close(progressChan)
		if copyFn == nil {
			return copyDoneMsg{err: errors.New("no copy function configured")}
		}
		res, err := copyFn(ctx, files, func(p types.CopyProgress) {
			select {
			case progressChan <- p:
			default:
			}
		})
		return copyDoneMsg{result: res, err: err}
	}
}

// listen waits for the next progress event. A closed channel yields no message.
func listen[T any](ch chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(p)
	}
}

// Run shows the progress UI until the run ends and the user exits.
func Run(opts Options) (Outcome, error) {
	model := NewModel(opts)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Outcome{}, err
	}

	m, ok := final.(Model)
	if !ok {
		return Outcome{}, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Outcome(), nil
}
