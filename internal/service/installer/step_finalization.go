package installer

import (
	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep computes derived values
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	Finalize(state)
	return nil, nil
}

// Finalize derives flags from the collected answers.
func Finalize(state *InstallState) {
	state.App.EnableTelegram = state.Telegram.Token != ""
	if !state.WantTelegram {
		state.Telegram.Token = ""
		state.App.EnableTelegram = false
	}
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}
