package installer

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/ui"
)

var ErrInterrupted = errors.New("setup interrupted")

var (
	titleStyle = ui.TitleStyle.MarginBottom(0)
	hintStyle  = ui.DescStyle
	itemStyle  = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle = ui.BlockedStyle
)

// Step is one screen of the wizard. Update returns nil once the step is done.
type Step interface {
	Init() tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

func getSteps() []Step {
	return []Step{
		NewProviderStep(),
		NewBaseURLStep(),
		NewAPIKeyStep(),
		NewModelStep(),
		NewChannelStep(),
		NewTelegramTokenStep(),
		NewFinalizationStep(),
		NewSaveEnvStep(),
		NewInitializeFilesStep(),
	}
}

// item backs the model picker list.
type item struct {
	id    string
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.id }

type modelsMsg []list.Item
type errMsg error
type nextMsg struct{}

type model struct {
	steps    []Step
	current  int
	state    *InstallState
	quitting bool
	err      error
	width    int
	height   int
}

func initialModel(runtimePath string) model {
	return model{
		steps: getSteps(),
		state: NewInstallState(runtimePath),
	}
}

func (m model) Init() tea.Cmd {
	if len(m.steps) == 0 {
		return tea.Quit
	}
	return m.steps[0].Init()
}

func (m model) done() bool {
	return m.current >= len(m.steps)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case errMsg:
		m.err = msg
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	if m.quitting || m.done() {
		return m, tea.Quit
	}

	next, cmd := m.steps[m.current].Update(msg, m.state, m.width, m.height)
	if next != nil {
		m.steps[m.current] = next
		return m, cmd
	}

	m.current++
	if m.done() {
		return m, tea.Quit
	}
	return m, m.steps[m.current].Init()
}

func (m model) View() string {
	switch {
	case m.quitting:
		return "Setup cancelled.\n"
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(press ctrl+c to quit)\n"
	case m.done():
		return "Configuration complete!\n"
	}

	header := titleStyle.Render("Setting up "+core.CoachName) + " " +
		hintStyle.Render(fmt.Sprintf("step %d of %d", m.current+1, len(m.steps)))
	return header + "\n\n" + m.steps[m.current].View(m.state)
}

// RunWizard starts the TUI and writes the runtime directory as it goes.
func RunWizard(runtimePath string) (*InstallState, error) {
	p := tea.NewProgram(initialModel(runtimePath), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := final.(model)
	if m.quitting {
		return nil, ErrInterrupted
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.state, nil
}
