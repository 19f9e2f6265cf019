package installer

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/providers/llm"
)

// ModelStep picks the preferred model from the provider's catalogue
type ModelStep struct {
	list     list.Model
	loading  bool
	fetching bool // Ensures we only trigger the API call once
	err      error
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select your preferred model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{
		list:    l,
		loading: true,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	// kick Update so the step can configure itself from earlier answers
	return func() tea.Msg { return nextMsg{} }
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	// 1. Trigger fetch once when we enter the step
	if s.loading && !s.fetching {
		s.fetching = true
		cfg := state.Provider

		return s, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			p, err := llm.NewProvider(ctx, cfg)
			if err != nil {
				return errMsg(err)
			}
			models, err := p.Models(ctx)
			if err != nil {
				return errMsg(err)
			}

			items := make([]list.Item, 0, len(models))
			for _, mod := range models {
				items = append(items, item{
					id:    mod.ID,
					title: mod.Name,
					desc:  fmt.Sprintf("ID: %s | Context: %d", mod.ID, mod.ContextLength),
				})
			}
			return modelsMsg(items)
		}
	}

	// Update list size
	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil // Return nil command to break the error loop

	case tea.KeyMsg:
		if s.err != nil {
			switch msg.String() {
			case "enter":
				s.err = nil
				s.loading = true
				s.fetching = false
			case "s":
				// keep the default candidate lists
				return nil, nil
			}
			return s, nil
		}

		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				applyPreferredModel(state, i.id)
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

// applyPreferredModel puts the chosen model first. OpenRouter keeps the free
// fallbacks behind it; other providers only know their own model ids.
func applyPreferredModel(state *InstallState, id string) {
	if state.Provider.Provider != "openrouter" {
		state.Provider.TextModels = []string{id}
		state.Provider.VisionModels = []string{id}
		return
	}

	defaults := config.DefaultProviderConfig().TextModels
	models := []string{id}
	for _, m := range defaults {
		if !slices.Contains(models, m) {
			models = append(models, m)
		}
	}
	state.Provider.TextModels = models
}

func (s *ModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nCheck your API key and internet connection.\n\n(press enter to retry, s to skip, ctrl+c to quit)\n"
	}
	if s.loading {
		return "Fetching models...\n"
	}
	return s.list.View()
}
