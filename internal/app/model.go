package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mindcue/internal/identity"
	"mindcue/internal/logging"
	"mindcue/internal/present"
	"mindcue/internal/types"
	"mindcue/internal/workflow"
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastWarning
	toastError
)

const historyLoadTimeout = 5 * time.Second

// Options configures the TUI. Projects and Identity are optional; without a
// store the workflow still runs but confirming an analysis fails.
type Options struct {
	Projects workflow.ProjectStore
	Identity identity.Provider
	Logger   logging.Logger
	Metrics  workflow.Metrics
	Delays   workflow.Delays
	Dark     bool
	// Workflow is appended to the controller options built from the fields
	// above.
	Workflow []workflow.Option
}

// ConfigReloadedMsg carries new workflow delays into a running program.
type ConfigReloadedMsg struct {
	Delays workflow.Delays
}

type historyLoadedMsg struct {
	projects []types.ProjectSummary
	err      error
}

type Model struct {
	ctx      context.Context
	ctrl     *workflow.Controller
	sched    *teaScheduler
	projects workflow.ProjectStore
	identity identity.Provider
	logger   logging.Logger
	keys     keyMap
	user     types.User
	dark     bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	sidebar  sidebar
	form     editForm

	width  int
	height int

	status      string
	statusLevel toastLevel

	phase        workflow.Phase
	phaseStarted time.Time
	historyKey   string
	transcript   string
	now          func() time.Time
	signedOut    bool
}

func NewModel(ctx context.Context, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Model{
		ctx:      ctx,
		sched:    &teaScheduler{},
		projects: opts.Projects,
		identity: opts.Identity,
		logger:   logger,
		keys:     defaultKeyMap(),
		dark:     opts.Dark,
		now:      time.Now,
		width:    100,
		height:   30,
	}
	if m.identity != nil {
		user, err := m.identity.Current(ctx)
		if err != nil {
			logger.Warn("identity unavailable", logging.F("error", err))
		}
		m.user = user
	}
	if m.user.ID == "" {
		m.user = types.User{ID: "guest", DisplayName: "Guest"}
	}

	owner := m.user.Email
	if owner == "" {
		owner = m.user.ID
	}
	ctrlOpts := []workflow.Option{
		workflow.WithScheduler(m.sched),
		workflow.WithProjectStore(opts.Projects),
		workflow.WithLogger(logger),
		workflow.WithMetrics(opts.Metrics),
		workflow.WithOwner(owner),
	}
	if opts.Delays != (workflow.Delays{}) {
		ctrlOpts = append(ctrlOpts, workflow.WithDelays(opts.Delays))
	}
	ctrlOpts = append(ctrlOpts, opts.Workflow...)
	m.ctrl = workflow.NewController(ctrlOpts...)

	m.input = textinput.New()
	m.input.Placeholder = "Paste your landing page URL or ask a question"
	m.input.Prompt = "› "
	m.input.CharLimit = 2048
	m.input.Focus()

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(phaseStyle))
	m.viewport = viewport.New(0, 0)
	m.resize(m.width, m.height)
	m.phase = m.ctrl.Phase()
	m.phaseStarted = m.now()
	m.refresh()
	return m
}

// Run starts the program on the alternate screen. onStart receives the
// program so callers can Send messages into it from other goroutines.
func Run(ctx context.Context, opts Options, onStart func(*tea.Program)) error {
	model := NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if onStart != nil {
		onStart(p)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Controller() *workflow.Controller {
	return m.ctrl
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadHistoryCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case timerFiredMsg:
		m.ctrl.Fire(m.ctx, msg.token)
	case historyLoadedMsg:
		if msg.err != nil {
			m.setStatus(toastWarning, "history unavailable: "+msg.err.Error())
		} else {
			m.sidebar.setProjects(msg.projects)
		}
	case ConfigReloadedMsg:
		m.ctrl.SetDelays(msg.Delays)
		m.setStatus(toastInfo, "config reloaded")
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.sync(), m.sched.drain())
	if m.signedOut {
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.SignOut):
		m.signOut()
		return nil
	case key.Matches(msg, m.keys.StartOver):
		m.ctrl.StartOver()
		m.clearStatus()
		return nil
	case key.Matches(msg, m.keys.NewProject):
		m.newProject()
		return nil
	case key.Matches(msg, m.keys.Copy):
		m.copyScripts()
		return nil
	}
	if m.form.active() {
		return m.handleEditKey(msg)
	}
	if m.sidebar.focused {
		return m.handleSidebarKey(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Focus):
		m.sidebar.focused = true
		m.input.Blur()
		return nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Confirm):
		m.confirm()
		return nil
	case key.Matches(msg, m.keys.Edit):
		m.report(m.ctrl.EditAnalysis())
		return nil
	case key.Matches(msg, m.keys.Scripts):
		m.report(m.ctrl.CreateScripts(m.ctx))
		return nil
	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Save):
		if err := m.ctrl.SaveAnalysis(); err != nil {
			m.report(err)
		} else {
			m.setStatus(toastInfo, "analysis saved")
		}
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.report(m.ctrl.CancelEdit())
		return nil
	case key.Matches(msg, m.keys.NextField), key.Matches(msg, m.keys.Submit):
		m.form.next()
		return nil
	case key.Matches(msg, m.keys.PrevField):
		m.form.prev()
		return nil
	}
	field, value, changed, cmd := m.form.update(msg)
	if changed {
		m.report(m.ctrl.SetField(field, value))
	}
	return cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Cancel):
		m.sidebar.focused = false
		return m.input.Focus()
	case key.Matches(msg, m.keys.Up):
		m.sidebar.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.sidebar.move(1)
	case key.Matches(msg, m.keys.Submit):
		summary, ok := m.sidebar.selected()
		if !ok {
			m.newProject()
			m.sidebar.focused = false
			return m.input.Focus()
		}
		if err := m.ctrl.SelectProject(m.ctx, summary.ID); err != nil {
			m.report(err)
			return nil
		}
		m.clearStatus()
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if err := m.ctrl.SubmitInput(m.ctx, text); err != nil {
		if errors.Is(err, workflow.ErrEmptyInput) {
			return nil
		}
		m.report(err)
		return nil
	}
	m.input.Reset()
	m.clearStatus()
	return nil
}

func (m *Model) confirm() {
	project, err := m.ctrl.ConfirmAnalysis(m.ctx)
	if err != nil {
		if errors.Is(err, workflow.ErrMaterialize) {
			m.setStatus(toastError, "could not save project, press ctrl+y to retry")
			return
		}
		m.report(err)
		return
	}
	m.setStatus(toastInfo, "saved "+project.Name)
}

func (m *Model) newProject() {
	m.ctrl.NewProject()
	m.sidebar.cursor = 0
	m.clearStatus()
}

func (m *Model) copyScripts() {
	scripts := m.ctrl.State().Scripts
	if len(scripts) == 0 {
		m.setStatus(toastWarning, "no scripts to copy")
		return
	}
	method, err := copyText(present.ScriptsPlainText(scripts))
	if err != nil {
		m.setStatus(toastError, "copy failed: "+err.Error())
		return
	}
	m.setStatus(toastInfo, fmt.Sprintf("copied %d scripts (%s clipboard)", len(scripts), method))
}

func (m *Model) signOut() {
	if m.identity != nil {
		if err := m.identity.SignOut(m.ctx); err != nil {
			m.setStatus(toastError, "sign out failed: "+err.Error())
			return
		}
	}
	m.logger.Info("signed out", logging.F("user", m.user.ID))
	m.signedOut = true
}

// report surfaces a rejected intent in the status line.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	if reason, ok := workflow.ReasonOf(err); ok {
		m.setStatus(toastWarning, rejectionText(reason))
		return
	}
	m.setStatus(toastError, err.Error())
}

func rejectionText(reason workflow.RejectReason) string {
	switch reason {
	case workflow.ReasonInvalidPhase:
		return "that action isn't available right now"
	case workflow.ReasonEditInProgress:
		return "save or cancel your edits first"
	case workflow.ReasonInvalidDraft:
		return "product name is required"
	case workflow.ReasonAlreadyEditing:
		return "already editing"
	case workflow.ReasonNotEditing:
		return "not editing"
	default:
		return strings.ReplaceAll(string(reason), "_", " ")
	}
}

func (m *Model) setStatus(level toastLevel, text string) {
	m.status = text
	m.statusLevel = level
}

func (m *Model) clearStatus() {
	m.status = ""
}

// sync reconciles view-only state with the controller after every message.
func (m *Model) sync() tea.Cmd {
	state := m.ctrl.State()
	if state.Phase != m.phase {
		m.phase = state.Phase
		m.phaseStarted = m.now()
	}
	switch {
	case state.Editing && !m.form.active():
		m.form = newEditForm(state.Draft, m.mainWidth()-6)
		m.input.Blur()
		m.resize(m.width, m.height)
	case !state.Editing && m.form.active():
		m.form = editForm{}
		m.input.Focus()
		m.resize(m.width, m.height)
	}
	if state.Failure != nil && m.status == "" {
		m.setStatus(toastError, state.Failure.Message)
	}

	var cmd tea.Cmd
	m.sidebar.activeID = ""
	if state.Project != nil {
		m.sidebar.activeID = state.Project.ID
		historyKey := fmt.Sprintf("%s/%d", state.Project.ID, len(state.Project.Scripts))
		if historyKey != m.historyKey {
			m.historyKey = historyKey
			cmd = m.loadHistoryCmd()
		}
	}
	m.refresh()
	return cmd
}

func (m *Model) loadHistoryCmd() tea.Cmd {
	store := m.projects
	if store == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, historyLoadTimeout)
		defer cancel()
		projects, err := store.ListProjectHistory(ctx)
		return historyLoadedMsg{projects: projects, err: err}
	}
}

// processingStep is how many progress lines are checked off so far.
func (m *Model) processingStep() int {
	lines := len(workflow.StatusLines(m.phase))
	if lines == 0 {
		return 0
	}
	delay := m.ctrl.Delays().Advance(m.phase)
	if delay <= 0 {
		return lines
	}
	step := int(m.now().Sub(m.phaseStarted) * time.Duration(lines) / delay)
	if step > lines {
		step = lines
	}
	return step
}

func (m *Model) refresh() {
	state := m.ctrl.State()
	width := m.mainWidth()
	var blocks []string
	for _, msg := range state.Messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if content := present.PhaseContent(state, m.processingStep()); content != "" {
		blocks = append(blocks, phaseContentStyle.Render(renderMarkdown(content, width-4, m.dark)))
	}
	transcript := strings.Join(blocks, "\n")
	if transcript == m.transcript {
		return
	}
	m.transcript = transcript
	m.viewport.SetContent(transcript)
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg types.Message, width int) string {
	bubbleWidth := width * 3 / 4
	if bubbleWidth < 20 {
		bubbleWidth = width
	}
	if msg.IsUser() {
		bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	return agentBubbleStyle.Width(bubbleWidth).Render(renderMarkdown(msg.Text, bubbleWidth-4, m.dark))
}

func (m *Model) mainWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	main := m.mainWidth()
	m.input.Width = main - 4
	m.form.setWidth(main - 6)
	m.viewport.Width = main
	vh := height - 5
	if m.form.active() {
		vh -= 2 * len(m.form.fields)
	}
	if vh < 3 {
		vh = 3
	}
	m.viewport.Height = vh
	m.transcript = ""
}

func (m *Model) View() string {
	main := []string{
		m.header(),
		m.viewport.View(),
	}
	if m.form.active() {
		main = append(main, m.form.view())
	} else {
		main = append(main, m.input.View())
	}
	main = append(main, m.statusLine(), m.help())
	column := lipgloss.NewStyle().Width(m.mainWidth()).Render(strings.Join(main, "\n"))
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.view(m.user, m.height), " ", column)
}

func (m *Model) header() string {
	label := phaseStyle.Render(string(m.phase))
	if m.phase.Waiting() {
		label = m.spinner.View() + " " + label
	}
	return headerStyle.Render("MindCue") + "  " + label
}

func (m *Model) statusLine() string {
	if m.status == "" {
		return statusStyle.Render(" ")
	}
	style := toastInfoStyle
	switch m.statusLevel {
	case toastWarning:
		style = toastWarningStyle
	case toastError:
		style = toastErrorStyle
	}
	return style.Render(" " + m.status + " ")
}

func (m *Model) help() string {
	k := m.keys
	switch {
	case m.form.active():
		return helpLine(k.NextField, k.Save, k.Cancel, k.Quit)
	case m.sidebar.focused:
		return helpLine(k.Submit, k.Focus, k.NewProject, k.Quit)
	}
	switch m.phase {
	case workflow.PhaseResults:
		return helpLine(k.Confirm, k.Edit, k.StartOver, k.Focus, k.Quit)
	case workflow.PhaseStrategyResults:
		return helpLine(k.Scripts, k.StartOver, k.Focus, k.Quit)
	case workflow.PhaseScriptResults:
		return helpLine(k.Copy, k.NewProject, k.Focus, k.SignOut, k.Quit)
	default:
		return helpLine(k.Submit, k.StartOver, k.Focus, k.SignOut, k.Quit)
	}
}
