package installer

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type choice struct {
	label string
	hint  string
}

// ChoiceStep is a single-select list; apply stores the picked index in state.
type ChoiceStep struct {
	prompt  string
	choices []choice
	cursor  int
	apply   func(state *InstallState, idx int)
}

func NewProviderStep() Step {
	providers := []string{"openrouter", "openai", "ollama", "custom"}
	return &ChoiceStep{
		prompt: "Select your AI provider:",
		choices: []choice{
			{label: "OpenRouter", hint: "free model fallback chain out of the box"},
			{label: "OpenAI", hint: "api.openai.com"},
			{label: "Ollama", hint: "local models"},
			{label: "Custom", hint: "any OpenAI-compatible endpoint"},
		},
		apply: func(state *InstallState, idx int) {
			state.Provider.Provider = providers[idx]
		},
	}
}

func NewChannelStep() Step {
	return &ChoiceStep{
		prompt: "Where should the coach be reachable?",
		choices: []choice{
			{label: "HTTP API only"},
			{label: "HTTP API + Telegram", hint: "needs a bot token from @BotFather"},
		},
		apply: func(state *InstallState, idx int) {
			state.WantTelegram = idx == 1
		},
	}
}

func (s *ChoiceStep) Init() tea.Cmd {
	return nil
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch key.String() {
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		s.cursor = min(s.cursor+1, len(s.choices)-1)
	case "enter":
		s.apply(state, s.cursor)
		return nil, nil
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.prompt + "\n\n")
	for i, c := range s.choices {
		line := "  " + c.label
		style := itemStyle
		if i == s.cursor {
			line = "❯ " + c.label
			style = selStyle
		}
		b.WriteString(style.Render(line))
		if c.hint != "" {
			b.WriteString(" " + hintStyle.Render(c.hint))
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
