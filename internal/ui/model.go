package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bojq/internal/dispatch"
	"github.com/five82/bojq/internal/logtail"
	"github.com/five82/bojq/internal/prefs"
	"github.com/five82/bojq/internal/queue"
	"github.com/five82/bojq/internal/session"
	"github.com/five82/bojq/internal/solver"
	"github.com/five82/bojq/internal/state"
)

// Backend is the set of actions the UI can trigger.
type Backend interface {
	Snapshot() state.Snapshot
	Refresh(ctx context.Context) (bool, error)
	Add(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Generate(ctx context.Context, id string) (dispatch.Result, error)
	Latest(ctx context.Context, id string) (dispatch.Result, error)
	RunNext(ctx context.Context) (session.RunNextReport, error)
	Save(res dispatch.Result) (string, error)
}

// View represents the current active view.
type View int

const (
	ViewQueue View = iota
	ViewCode
	ViewLogs
)

type promptMode int

const (
	promptNone promptMode = iota
	promptAdd
	promptGenerate
)

const logTailLines = 400

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   Backend
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
	Prefs     prefs.Prefs
	LogPath   string
	// Clipboard overrides the system clipboard writer.
	Clipboard func(string) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	backend   Backend
	prefsPath string
	prefs     prefs.Prefs
	logPath   string
	pollTick  time.Duration
	copyText  func(string) error

	theme    Theme
	keys     keyMap
	help     help.Model
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool

	snapshot state.Snapshot
	selected int

	result       *dispatch.Result
	codeViewport viewport.Model

	logViewport   viewport.Model
	logLines      []string
	logForProblem string

	input  textinput.Model
	prompt promptMode

	busy      string
	status    string
	statusErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	input := textinput.New()
	input.Placeholder = "problem id"
	input.CharLimit = 12

	return Model{
		ctx:          ctx,
		backend:      opts.Backend,
		prefsPath:    prefsPath,
		prefs:        opts.Prefs,
		logPath:      opts.LogPath,
		pollTick:     pollTick,
		copyText:     copyText,
		theme:        GetTheme(themeName),
		keys:         defaultKeyMap(),
		help:         help.New(),
		input:        input,
		codeViewport: viewport.New(0, 0),
		logViewport:  viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.pollTick), fetchSnapshotCmd(m.backend))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{fetchSnapshotCmd(m.backend), tickCmd(m.pollTick)}
		if m.view == ViewLogs {
			cmds = append(cmds, m.readLogsCmd())
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampSelection()
		return m, nil

	case actionDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError(msg.label, msg.err)
		} else {
			m.setStatus(msg.label)
		}
		return m, fetchSnapshotCmd(m.backend)

	case generatedMsg:
		m.busy = ""
		res := msg.result
		if msg.err != nil {
			m.setError("generate "+res.ProblemID, msg.err)
			return m, fetchSnapshotCmd(m.backend)
		}
		m.showResult(res)
		note := fmt.Sprintf("BOJ %s: %s code", res.ProblemID, res.Origin)
		if res.Fallback {
			note += " (cache unavailable, regenerated)"
		}
		m.setStatus(note)
		m.rememberProblem(res.ProblemID)
		return m, fetchSnapshotCmd(m.backend)

	case archivedMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError("archive "+msg.id, msg.err)
			return m, nil
		}
		m.showResult(msg.result)
		m.setStatus(fmt.Sprintf("BOJ %s: archived %s code", msg.id, msg.result.Origin))
		return m, nil

	case ranNextMsg:
		m.busy = ""
		switch {
		case msg.err != nil:
			m.setError("run next", msg.err)
		case !msg.report.Ran:
			m.setStatus(msg.report.Message)
		default:
			m.setStatus(fmt.Sprintf("backend ran BOJ %s", msg.report.Result.ProblemID))
			if msg.report.Result.Code != "" {
				m.showResult(msg.report.Result)
			}
		}
		return m, fetchSnapshotCmd(m.backend)

	case logLinesMsg:
		if msg.err != nil {
			m.setError("read logs", msg.err)
			return m, nil
		}
		m.logLines = msg.lines
		m.logViewport.SetContent(m.renderLogLines())
		m.logViewport.GotoBottom()
		return m, nil
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePromptKey(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.persistPrefs()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.view = ViewQueue
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		if m.view == ViewLogs {
			m.view = ViewQueue
			return m, nil
		}
		m.view = ViewLogs
		return m, m.readLogsCmd()
	case key.Matches(msg, m.keys.Refresh):
		m.busy = "refreshing"
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Add):
		cmd := m.openPrompt(promptAdd, "")
		return m, cmd
	case key.Matches(msg, m.keys.Generate):
		initial := m.prefs.LastProblem()
		if item, ok := m.selectedItem(); ok {
			initial = item.ID
		}
		cmd := m.openPrompt(promptGenerate, initial)
		return m, cmd
	case key.Matches(msg, m.keys.RunNext):
		m.busy = "running next problem"
		return m, m.runNextCmd()
	}

	switch m.view {
	case ViewCode:
		return m.handleCodeKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleQueueKey(msg)
	}
}

func (m Model) handleQueueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Queue)
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		if count > 0 {
			m.selected = count - 1
		}
	case key.Matches(msg, m.keys.Open):
		if item, ok := m.selectedItem(); ok {
			cmd := m.generateCmd(item.ID)
			return m, cmd
		}
	case key.Matches(msg, m.keys.Archived):
		if item, ok := m.selectedItem(); ok {
			m.busy = "loading archived " + item.ID
			return m, m.latestCmd(item.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.selectedItem(); ok {
			m.busy = "deleting " + item.ID
			return m, m.deleteCmd(item.ID)
		}
	case key.Matches(msg, m.keys.Copy), key.Matches(msg, m.keys.Save):
		if m.result != nil {
			return m.handleCodeKey(msg)
		}
	}
	return m, nil
}

func (m Model) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Copy):
		if m.result == nil {
			return m, nil
		}
		if err := m.copyText(m.result.Code); err != nil {
			m.setError("copy", err)
		} else {
			m.setStatus(fmt.Sprintf("copied BOJ %s to clipboard", m.result.ProblemID))
		}
		return m, nil
	case key.Matches(msg, m.keys.Save):
		if m.result == nil {
			return m, nil
		}
		path, err := m.backend.Save(*m.result)
		if err != nil {
			m.setError("save", err)
		} else {
			m.setStatus("saved " + path)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.codeViewport, cmd = m.codeViewport.Update(msg)
	return m, cmd
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.FilterLogs) {
		if m.logForProblem != "" {
			m.logForProblem = ""
		} else if item, ok := m.selectedItem(); ok {
			m.logForProblem = item.ID
		}
		return m, m.readLogsCmd()
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		id := strings.TrimSpace(m.input.Value())
		mode := m.prompt
		m.closePrompt()
		if err := queue.ValidateID(id); err != nil {
			m.setError("", err)
			return m, nil
		}
		if mode == promptAdd {
			m.busy = "adding " + id
			return m, m.addCmd(id)
		}
		cmd := m.generateCmd(id)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openPrompt(mode promptMode, initial string) tea.Cmd {
	m.prompt = mode
	if mode == promptAdd {
		m.input.Prompt = "Add BOJ › "
	} else {
		m.input.Prompt = "Generate BOJ › "
	}
	m.input.SetValue(initial)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) showResult(res dispatch.Result) {
	m.result = &res
	m.view = ViewCode
	m.codeViewport.SetContent(m.renderCode(res))
	m.codeViewport.GotoTop()
}

func (m *Model) rememberProblem(id string) {
	m.prefs.Remember(id)
	m.persistPrefs()
}

func (m *Model) persistPrefs() {
	if m.prefsPath == "" {
		return
	}
	if m.prefs.Theme == "" {
		m.prefs.Theme = m.theme.Name
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.setError("save preferences", err)
	}
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) setError(label string, err error) {
	m.status = describeError(label, err)
	m.statusErr = true
}

func (m Model) selectedItem() (queue.Item, bool) {
	if m.selected < 0 || m.selected >= len(m.snapshot.Queue) {
		return queue.Item{}, false
	}
	return m.snapshot.Queue[m.selected], true
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snapshot.Queue) {
		m.selected = len(m.snapshot.Queue) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) resize() {
	bodyHeight := m.height - 5
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	m.codeViewport.Width = width
	m.codeViewport.Height = bodyHeight
	m.logViewport.Width = width
	m.logViewport.Height = bodyHeight
	m.help.Width = m.width
	if m.result != nil {
		m.codeViewport.SetContent(m.renderCode(*m.result))
	}
}

// describeError renders err for the status line. Data errors are shown
// verbatim; transport errors are marked as transient.
func describeError(label string, err error) string {
	var (
		verr *queue.ValidationError
		derr *solver.DataError
	)
	prefix := ""
	if label != "" {
		prefix = label + ": "
	}
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &derr):
		return prefix + derr.Message
	case errors.Is(err, state.ErrDuplicate):
		return prefix + "already in queue"
	case errors.Is(err, solver.ErrDuplicateOrRejected):
		return prefix + "backend rejected (duplicate?)"
	case errors.Is(err, solver.ErrNotFoundOrRejected):
		return prefix + "backend rejected (not found?)"
	case solver.IsTransport(err):
		return prefix + "backend unavailable, try again (" + err.Error() + ")"
	default:
		return prefix + err.Error()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type actionDoneMsg struct {
	label string
	err   error
}

type generatedMsg struct {
	result dispatch.Result
	err    error
}

type archivedMsg struct {
	id     string
	result dispatch.Result
	err    error
}

type ranNextMsg struct {
	report session.RunNextReport
	err    error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(backend Backend) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(backend.Snapshot())
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		ran, err := backend.Refresh(ctx)
		if err == nil && !ran {
			return actionDoneMsg{label: "refresh already in progress"}
		}
		return actionDoneMsg{label: "queue refreshed", err: err}
	}
}

func (m Model) addCmd(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		err := backend.Add(ctx, id)
		if err != nil {
			return actionDoneMsg{label: "add " + id, err: err}
		}
		return actionDoneMsg{label: "added BOJ " + id}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		err := backend.Delete(ctx, id)
		if err != nil {
			return actionDoneMsg{label: "delete " + id, err: err}
		}
		return actionDoneMsg{label: "deleted BOJ " + id}
	}
}

func (m *Model) generateCmd(id string) tea.Cmd {
	m.busy = "generating " + id
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		res, err := backend.Generate(ctx, id)
		if res.ProblemID == "" {
			res.ProblemID = id
		}
		return generatedMsg{result: res, err: err}
	}
}

func (m Model) latestCmd(id string) tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		res, err := backend.Latest(ctx, id)
		return archivedMsg{id: id, result: res, err: err}
	}
}

func (m Model) runNextCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		report, err := backend.RunNext(ctx)
		return ranNextMsg{report: report, err: err}
	}
}

func (m Model) readLogsCmd() tea.Cmd {
	path := m.logPath
	filter := logtail.Filter{ProblemID: m.logForProblem}
	return func() tea.Msg {
		if path == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.ReadFiltered(path, logTailLines, filter)
		return logLinesMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
