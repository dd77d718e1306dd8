package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/pgnkit/curator/internal/models"
	"github.com/pgnkit/curator/internal/organize"
	"github.com/pgnkit/curator/internal/store"
)

const pollInterval = 500 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the session checkpoint
type tickMsg time.Time

// sessionUpdateMsg carries the freshly read session row
type sessionUpdateMsg struct {
	session *models.Session
}

// runResultMsg carries the finished run's outcome
type runResultMsg struct {
	report *organize.Report
	err    error
}

// progressModel is the bubbletea model for an organize run. The run
// itself executes on its own goroutine; the model polls the session
// checkpoint the orchestrator persists after every batch.
type progressModel struct {
	store        *store.Store
	cancel       context.CancelFunc
	results      <-chan runResultMsg
	session      *models.Session
	progress     progress.Model
	theme        Theme
	report       *organize.Report
	err          error
	done         bool
	interrupting bool
}

func newProgressModel(st *store.Store, cancel context.CancelFunc, results <-chan runResultMsg) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return progressModel{
		store:    st,
		cancel:   cancel,
		results:  results,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial commands (start polling, wait for the result).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
		m.waitForResult(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// The run stops at the next batch boundary; keep waiting for
			// its result so the session is checkpointed properly.
			m.interrupting = true
			m.cancel()
			return m, nil
		}

	case tickMsg:
		return m, m.fetchSession()

	case sessionUpdateMsg:
		if msg.session != nil {
			m.session = msg.session
		}
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case runResultMsg:
		m.report = msg.report
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.session == nil {
		return "Starting run...\n"
	}

	var pct float64
	if m.session.TotalFiles > 0 {
		pct = float64(m.session.Processed) / float64(m.session.TotalFiles)
	}

	label := string(m.session.Status)
	if m.interrupting {
		label = "interrupting"
	}
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", label))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d files", m.session.Processed, m.session.TotalFiles)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop at the next batch")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the one-line outcome; the full report is printed by
// the command after the UI exits.
func (m progressModel) finalView() string {
	switch {
	case m.interrupting:
		return m.theme.hintStyle().Render("\nInterrupted; session is resumable.\n")
	case m.err != nil:
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Run failed: %s\n", m.err))
	default:
		return m.theme.completedStyle().Render("✓ Completed\n")
	}
}

// fetchSession reads the latest session row. Runs as a command to keep
// Update() non-blocking.
func (m progressModel) fetchSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if m.session != nil {
			session, err := m.store.GetSession(ctx, m.session.ID)
			if err != nil {
				return sessionUpdateMsg{}
			}
			return sessionUpdateMsg{session: session}
		}

		// The run creates its session shortly after starting; pick up the
		// newest running one.
		sessions, err := m.store.ListSessions(ctx)
		if err != nil {
			return sessionUpdateMsg{}
		}
		for i := range sessions {
			if sessions[i].Status == models.SessionRunning {
				return sessionUpdateMsg{session: &sessions[i]}
			}
		}
		return sessionUpdateMsg{}
	}
}

func (m progressModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return <-m.results
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runWithProgress executes an organize run under the interactive progress
// UI and returns its report.
func runWithProgress(st *store.Store, run func(context.Context) (*organize.Report, error)) (*organize.Report, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan runResultMsg, 1)
	go func() {
		report, err := run(ctx)
		results <- runResultMsg{report: report, err: err}
	}()

	model := newProgressModel(st, cancel, results)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		// An interrupted run is not an error; its session stays resumable.
		if m.interrupting {
			return m.report, nil
		}
		return m.report, m.err
	}
	return nil, nil
}
