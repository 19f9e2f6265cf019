package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// APIKeyStep collects the provider API key (optional for self-hosted endpoints)
type APIKeyStep struct {
	input      textinput.Model
	provider   string
	title      string
	isOptional bool
}

func NewAPIKeyStep() Step {
	return &APIKeyStep{}
}

func (s *APIKeyStep) Init() tea.Cmd {
	// kick Update so the step can configure itself from earlier answers
	return func() tea.Msg { return nextMsg{} }
}

func (s *APIKeyStep) initProvider(state *InstallState) bool {
	s.provider = strings.ToLower(state.Provider.Provider)
	if s.provider == "" {
		return false
	}

	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 40
	s.input.EchoMode = textinput.EchoPassword
	s.input.EchoCharacter = '•'

	switch s.provider {
	case "openrouter":
		s.title = "OpenRouter API Key"
		s.input.Placeholder = "sk-or-v1-..."
	case "openai":
		s.title = "OpenAI API Key"
		s.input.Placeholder = "sk-..."
	case "ollama", "custom":
		s.title = "API Key"
		s.isOptional = true
		s.input.Placeholder = "Optional - press Enter to skip"
	default:
		return false
	}
	return true
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.provider == "" {
		if !s.initProvider(state) {
			return nil, nil
		}
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			key := strings.TrimSpace(s.input.Value())
			if key == "" && !s.isOptional {
				return s, cmd
			}
			state.Provider.APIKey = key
			return nil, nil
		}
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	if s.provider == "" {
		if !s.initProvider(state) {
			return "Loading..."
		}
	}

	optionalHint := ""
	if s.isOptional {
		optionalHint = " (optional - press Enter to skip)"
	}

	return fmt.Sprintf("Enter your %s%s:\n\n%s\n\n(press enter to confirm)\n",
		s.title, optionalHint, s.input.View())
}
