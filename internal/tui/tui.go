// Package tui provides a Bubble Tea editor for the text properties of MP3 files.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/ultraschall/podcast-tools/internal/audio"
	"github.com/ultraschall/podcast-tools/internal/batch"
	"github.com/ultraschall/podcast-tools/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// Field labels in the order of model.Properties.
var fieldLabels = [model.PropertyFieldCount]string{"Title", "Artist", "Album", "Date", "Genre", "Comment"}

var errCancelled = errors.New("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateEditing State = iota
	StateSaving
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   batch.ProgressLevel
}

// Options configures a Model.
type Options struct {
	Tagger             *audio.Tagger
	MaxConcurrentFiles int
	Backup             bool
	Logger             zerolog.Logger
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	paths    []string
	inputs   [model.PropertyFieldCount]textinput.Model
	focus    int
	spinner  spinner.Model
	progress progress.Model
	opts     Options
	logs     []LogEntry
	summary  batch.Summary
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	// Save progress
	runner *batch.Runner
	events chan batch.ProgressEvent

	width  int
	height int
}

// NewModel creates a new TUI model editing paths. The inputs are prefilled
// from the first file.
func NewModel(paths []string, opts Options) Model {
	if opts.Tagger == nil {
		opts.Tagger = audio.NewTagger(nil, opts.Logger)
	}

	var current model.Properties
	if len(paths) > 0 {
		if props, err := audio.ReadProperties(paths[0]); err == nil {
			current = *props
		} else {
			opts.Logger.Debug().Err(err).Str("path", paths[0]).Msg("no existing properties")
		}
	}
	values := [model.PropertyFieldCount]string{current.Title, current.Artist, current.Album, current.Date, current.Genre, current.Comment}

	var inputs [model.PropertyFieldCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = fieldLabels[i]
		ti.CharLimit = 500
		ti.Width = 60
		ti.SetValue(values[i])
		inputs[i] = ti
	}
	inputs[0].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateEditing,
		paths:    paths,
		inputs:   inputs,
		spinner:  sp,
		progress: prog,
		opts:     opts,
		logs:     make([]LogEntry, 0),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent for every batch progress event.
	ProgressMsg struct {
		Event batch.ProgressEvent
	}

	// SaveDoneMsg is sent when all files were written.
	SaveDoneMsg struct {
		Summary batch.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Properties returns the values currently entered.
func (m Model) Properties() model.Properties {
	return model.Properties{
		Title:   m.inputs[0].Value(),
		Artist:  m.inputs[1].Value(),
		Album:   m.inputs[2].Value(),
		Date:    m.inputs[3].Value(),
		Genre:   m.inputs[4].Value(),
		Comment: m.inputs[5].Value(),
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateEditing {
				return m, tea.Quit
			}
			if m.state == StateSaving {
				m.cancel()
				m.state = StateError
				m.err = errCancelled
			}
			return m, nil

		case "tab", "down", "enter":
			if m.state == StateEditing {
				m.setFocus(m.focus + 1)
				return m, textinput.Blink
			}

		case "shift+tab", "up":
			if m.state == StateEditing {
				m.setFocus(m.focus - 1)
				return m, textinput.Blink
			}

		case "ctrl+s":
			if m.state == StateEditing {
				return m.startSave()
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.state = StateEditing
				m.logs = nil
				m.err = nil
				m.summary = batch.Summary{}
				m.runner = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.setFocus(0)
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}
		cmds = append(cmds, listen(m.events))

	case SaveDoneMsg:
		m.summary = msg.Summary
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		case len(msg.Summary.Failures) > 0:
			m.state = StateError
			m.err = fmt.Errorf("%d of %d files failed", len(msg.Summary.Failures), msg.Summary.Total)
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.runner != nil && m.state == StateSaving {
			done, total := m.runner.Progress()
			var percent float64
			if total > 0 {
				percent = float64(done) / float64(total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateEditing {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) setFocus(i int) {
	n := len(m.inputs)
	m.focus = ((i % n) + n) % n
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// startSave switches to StateSaving and starts the batch in background.
func (m Model) startSave() (tea.Model, tea.Cmd) {
	if len(m.paths) == 0 {
		m.state = StateError
		m.err = audio.ErrEmptyPath
		return m, nil
	}

	events := make(chan batch.ProgressEvent, 64)
	runner := batch.NewRunner(m.opts.Tagger, m.opts.MaxConcurrentFiles, m.opts.Logger, func(e batch.ProgressEvent) {
		if e.Level == batch.LevelVerbose {
			return
		}
		select {
		case events <- e:
		default:
		}
	})

	props := m.Properties()
	job := batch.Job{Backup: m.opts.Backup, Properties: props.String()}

	m.state = StateSaving
	m.runner = runner
	m.events = events
	m.logs = nil

	return m, tea.Batch(saveCmd(m.ctx, runner, events, m.paths, job), listen(events), tickProgress(), m.spinner.Tick)
}

// saveCmd runs the batch and closes events when it is done.
func saveCmd(ctx context.Context, runner *batch.Runner, events chan batch.ProgressEvent, paths []string, job batch.Job) tea.Cmd {
	return func() tea.Msg {
		summary, err := runner.Run(ctx, paths, job)
		close(events)
		return SaveDoneMsg{Summary: summary, Err: err}
	}
}

// listen waits for the next progress event.
func listen(events <-chan batch.ProgressEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: e}
	}
}

// tickProgress returns a command to tick progress updates.
func tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Ultraschall Properties"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.describeFiles()))
	b.WriteString("\n\n")

	switch m.state {
	case StateEditing:
		b.WriteString(m.viewEditing())
	case StateSaving:
		b.WriteString(m.viewSaving())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) describeFiles() string {
	switch len(m.paths) {
	case 0:
		return "No files"
	case 1:
		return filepath.Base(m.paths[0])
	default:
		return fmt.Sprintf("%s and %d more", filepath.Base(m.paths[0]), len(m.paths)-1)
	}
}

func (m Model) viewEditing() string {
	var b strings.Builder

	for i, input := range m.inputs {
		label := fmt.Sprintf("%-8s", fieldLabels[i])
		if i == m.focus {
			b.WriteString(subtitleStyle.Render(label))
		} else {
			b.WriteString(dimStyle.Render(label))
		}
		b.WriteString(" ")
		b.WriteString(input.View())
		b.WriteString("\n")
	}

	if m.opts.Backup {
		b.WriteString("\n")
		b.WriteString(infoStyle.Render("Backups are written next to each file"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewSaving() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Writing tags..."))
	b.WriteString("\n\n")

	var percent float64
	if m.runner != nil {
		done, total := m.runner.Progress()
		if total > 0 {
			percent = float64(done) / float64(total)
		}
		b.WriteString(m.progress.ViewAs(percent))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Files: %d/%d", done, total)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	var files strings.Builder
	for _, p := range m.paths {
		files.WriteString(fileStyle.Render("  ♪ " + filepath.Base(p)))
		files.WriteString("\n")
	}

	box := boxStyle.Render(fmt.Sprintf(
		"✨ Tags written!\n\n"+
			"Files: %d\n%s",
		m.summary.Succeeded,
		strings.TrimSuffix(files.String(), "\n"),
	))
	b.WriteString(box)

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n")
	}
	for _, f := range m.summary.Failures {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %s: %v", filepath.Base(f.Path), f.Err)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case batch.LevelError:
			style = errorStyle
			prefix = "✗"
		case batch.LevelWarning:
			style = warningStyle
			prefix = "!"
		case batch.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case batch.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateEditing:
		return "tab/shift+tab: move • ctrl+s: save • esc: quit"
	case StateSaving:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: edit again • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(paths []string, opts Options) error {
	p := tea.NewProgram(NewModel(paths, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
