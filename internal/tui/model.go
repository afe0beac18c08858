package tui

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/chromaseek/internal/controller"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Context    context.Context
	Controller *controller.Controller
	// TopK is the initial passage count, clamped into 1..20.
	TopK int
	// Drops delivers batches of files landing in the drop folder.
	Drops     <-chan []string
	PickerDir string
	ExportDir string
	Now       func() time.Time
}

type focusArea int

const (
	focusCommands focusArea = iota
	focusComposer
	focusPicker
)

const (
	composerPlaceholder = "Ask a question about your documents…"
	msgExportFailed     = "Export failed"
)

type model struct {
	config Config
	ctrl   *controller.Controller
	jobs   *jobBus

	layout   pageLayout
	focus    focusArea
	composer textinput.Model
	picker   filepicker.Model
	spinner  spinner.Model
	viewport viewport.Model
	answer   answerRenderer

	snap          controller.Snapshot
	running       jobTracker
	topK          int
	selection     []string
	pickerLoaded  bool
	passageCursor int
	expanded      map[int]bool
	shownAnswer   string
	helpVisible   bool
	viewportDirty bool
	lastExport    string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.ExportDir == "" {
		config.ExportDir = "."
	}
	if config.PickerDir == "" {
		if dir, err := os.Getwd(); err == nil {
			config.PickerDir = dir
		}
	}

	composer := textinput.New()
	composer.Placeholder = composerPlaceholder
	composer.CharLimit = 500
	composer.Width = 70

	picker := filepicker.New()
	picker.AllowedTypes = []string{".pdf"}
	picker.CurrentDirectory = config.PickerDir
	picker.Height = 10

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	m := &model{
		config:        config,
		ctrl:          config.Controller,
		jobs:          newJobBus(config.Context),
		layout:        newPageLayout(),
		focus:         focusCommands,
		composer:      composer,
		picker:        picker,
		spinner:       spin,
		viewport:      vp,
		running:       jobTracker{},
		topK:          controller.ClampTopK(config.TopK),
		expanded:      map[int]bool{},
		viewportDirty: true,
	}
	if m.ctrl != nil {
		m.ctrl.RestoreTheme()
		m.snap = m.ctrl.Snapshot()
	}
	return m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.ctrl != nil {
		cmds = append(cmds,
			m.jobs.Start(jobKindStart, startJob(m.ctrl)),
			listenForChanges(m.ctrl.Changes()),
		)
	}
	if cmd := listenForDrops(m.config.Drops); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.composer.Width = m.layout.viewportWidth - 6
		m.picker.Height = m.layout.viewportHeight
		m.markViewportDirty()
		return m, nil
	case spinner.TickMsg:
		if len(m.running) == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobStartedMsg:
		if m.running.add(msg.Job) {
			return m, m.spinner.Tick
		}
		return m, nil
	case jobDoneMsg:
		m.running.remove(msg.Job.ID)
		m.refreshSnapshot()
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case workflowDoneMsg:
		return m, nil
	case exportDoneMsg:
		m.handleExportDone(msg)
		m.refreshSnapshot()
		return m, nil
	case changedMsg:
		m.refreshSnapshot()
		return m, listenForChanges(m.ctrl.Changes())
	case dropMsg:
		log.Printf("[tui] drop folder delivered %d file(s)", len(msg.paths))
		return m, tea.Batch(
			m.jobs.Start(jobKindUpload, uploadPathsJob(m.ctrl, msg.paths)),
			listenForDrops(m.config.Drops),
		)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.focus {
		case focusComposer:
			return m.handleComposerKey(msg)
		case focusPicker:
			return m.handlePickerKey(msg)
		default:
			return m.handleCommandKey(msg)
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if m.focus == focusPicker || m.pickerLoaded {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleComposerKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.blurComposer()
		return m, nil
	case tea.KeyEnter:
		return m, m.submitQuestion()
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	m.ctrl.SetQuestion(m.composer.Value())
	return m, cmd
}

func (m *model) handlePickerKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		m.focus = focusCommands
		return m, nil
	case "tab":
		return m, m.submitSelection()
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(key)
	if ok, path := m.picker.DidSelectFile(key); ok {
		m.addToSelection(path)
	}
	return m, cmd
}

func (m *model) handleCommandKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "a", "/":
		m.focusComposer()
		return m, textinput.Blink
	case "u":
		return m, m.openPicker()
	case "i":
		return m, m.jobs.Start(jobKindIngest, ingestJob(m.ctrl))
	case "+", "=":
		m.adjustTopK(1)
	case "-", "_":
		m.adjustTopK(-1)
	case "y":
		m.ctrl.CopyAnswer()
	case "x":
		m.clearAll()
	case "t":
		m.ctrl.ToggleTheme()
		m.refreshSnapshot()
	case "r":
		return m, m.jobs.Start(jobKindStats, statsJob(m.ctrl))
	case "e":
		return m, m.jobs.Start(jobKindExport, exportJob(m.ctrl, m.config.ExportDir, m.config.Now()))
	case "ctrl+r":
		return m, m.jobs.Start(jobKindReset, resetJob(m.ctrl))
	case "up", "k":
		m.movePassageCursor(-1)
	case "down", "j":
		m.movePassageCursor(1)
	case "enter", " ":
		m.togglePassage()
	case "?":
		m.helpVisible = !m.helpVisible
	case "q":
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	return m, nil
}

func (m *model) focusComposer() {
	m.focus = focusComposer
	m.composer.Focus()
}

func (m *model) blurComposer() {
	m.focus = focusCommands
	m.composer.Blur()
}

// submitQuestion sends the composer text. A blank question never leaves the
// update loop; the controller only posts its prompt notification.
func (m *model) submitQuestion() tea.Cmd {
	question := m.composer.Value()
	m.ctrl.SetQuestion(question)
	if controller.QuestionEmpty(question) {
		_ = m.ctrl.Ask(m.jobs.ctx, question, m.topK)
		m.refreshSnapshot()
		return nil
	}
	return m.jobs.Start(jobKindAsk, askJob(m.ctrl, question, m.topK))
}

func (m *model) openPicker() tea.Cmd {
	m.focus = focusPicker
	if m.pickerLoaded {
		return nil
	}
	m.pickerLoaded = true
	return m.picker.Init()
}

func (m *model) addToSelection(path string) {
	for _, existing := range m.selection {
		if existing == path {
			return
		}
	}
	m.selection = append(m.selection, path)
}

// submitSelection uploads the picked files and resets the picker. An empty
// selection only closes it.
func (m *model) submitSelection() tea.Cmd {
	batch := m.selection
	m.selection = nil
	m.focus = focusCommands
	if len(batch) == 0 {
		return nil
	}
	return m.jobs.Start(jobKindUpload, uploadPathsJob(m.ctrl, batch))
}

func (m *model) adjustTopK(delta int) {
	next := m.topK + delta
	if next < 1 {
		next = 1
	}
	if next > controller.MaxTopK {
		next = controller.MaxTopK
	}
	m.topK = next
}

func (m *model) clearAll() {
	m.ctrl.Clear()
	m.composer.SetValue("")
	m.expanded = map[int]bool{}
	m.passageCursor = 0
	m.refreshSnapshot()
}

func (m *model) movePassageCursor(delta int) {
	count := len(m.snap.PassageItems)
	if count == 0 {
		m.passageCursor = 0
		return
	}
	next := m.passageCursor + delta
	if next < 0 {
		next = 0
	}
	if next >= count {
		next = count - 1
	}
	m.passageCursor = next
	m.markViewportDirty()
}

func (m *model) togglePassage() {
	if len(m.snap.PassageItems) == 0 {
		return
	}
	m.expanded[m.passageCursor] = !m.expanded[m.passageCursor]
	m.markViewportDirty()
}

func (m *model) handleExportDone(msg exportDoneMsg) {
	if msg.err != nil {
		log.Printf("[tui] export failed: %v", msg.err)
		m.ctrl.Notifier().Notify(msgExportFailed, false)
		return
	}
	m.lastExport = msg.path
	m.ctrl.Notifier().Notify(fmt.Sprintf("Exported %s", filepath.Base(msg.path)), true)
}

// refreshSnapshot pulls the controller state. A new answer collapses every
// passage and moves the cursor back to the first one.
func (m *model) refreshSnapshot() {
	if m.ctrl == nil {
		return
	}
	m.snap = m.ctrl.Snapshot()
	if m.snap.Answer != m.shownAnswer {
		m.shownAnswer = m.snap.Answer
		m.expanded = map[int]bool{}
		m.passageCursor = 0
		m.viewport.GotoTop()
	}
	if m.focus != focusComposer && m.composer.Value() != m.snap.Question {
		m.composer.SetValue(m.snap.Question)
	}
	m.markViewportDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) busy() bool {
	return len(m.running) > 0
}
