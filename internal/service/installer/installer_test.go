package installer

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sandevgo/lifecoach/internal/service/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvContent_OnlyChosenValues(t *testing.T) {
	state := NewInstallState(t.TempDir())
	state.Provider.Provider = "ollama"
	state.Provider.BaseURL = "http://127.0.0.1:11434"
	state.Provider.TextModels = []string{"llama3", "qwen"}
	state.WantTelegram = true
	state.Telegram.Token = "123:abc"
	Finalize(state)

	content, err := state.EnvContent()
	require.NoError(t, err)

	vars, err := godotenv.Unmarshal(content)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ENABLE_TELEGRAM": "true",
		"LLM_PROVIDER":    "ollama",
		"LLM_BASE_URL":    "http://127.0.0.1:11434",
		"LLM_TEXT_MODELS": "llama3,qwen",
		"TELEGRAM_TOKEN":  "123:abc",
	}, vars)
}

func TestFinalize_DropsTelegramWhenNotWanted(t *testing.T) {
	state := NewInstallState(t.TempDir())
	state.Telegram.Token = "stale"
	Finalize(state)

	assert.False(t, state.App.EnableTelegram)
	assert.Empty(t, state.Telegram.Token)
}

func TestApplyPreferredModel(t *testing.T) {
	state := NewInstallState("")
	state.Provider.Provider = "openrouter"
	applyPreferredModel(state, "google/gemma-3-27b-it:free")

	models := state.Provider.TextModels
	require.NotEmpty(t, models)
	assert.Equal(t, "google/gemma-3-27b-it:free", models[0])
	assert.Equal(t, 1, countOf(models, "google/gemma-3-27b-it:free"))
	assert.Greater(t, len(models), 1, "free fallbacks are kept")

	state.Provider.Provider = "ollama"
	applyPreferredModel(state, "llama3")
	assert.Equal(t, []string{"llama3"}, state.Provider.TextModels)
	assert.Equal(t, []string{"llama3"}, state.Provider.VisionModels)
}

func TestSaveEnv_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	state := NewInstallState(dir)
	state.Provider.APIKey = "sk-or-v1-test"

	require.NoError(t, SaveEnv(state))
	data, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "LLM_API_KEY=sk-or-v1-test")

	assert.Error(t, SaveEnv(state))
}

func TestInitializeFiles(t *testing.T) {
	dir := t.TempDir()
	persona := filepath.Join(dir, personaFile)
	require.NoError(t, os.WriteFile(persona, []byte("my coach"), 0o644))

	require.NoError(t, InitializeFiles(dir))

	data, err := os.ReadFile(persona)
	require.NoError(t, err)
	assert.Equal(t, "my coach", string(data), "existing files are kept")

	catalog, err := quota.LoadCatalog(filepath.Join(dir, plansFile))
	require.NoError(t, err)
	assert.Equal(t, quota.DefaultPlans(), catalog.Plans())
}

func countOf(items []string, want string) int {
	n := 0
	for _, it := range items {
		if it == want {
			n++
		}
	}
	return n
}

func TestChoiceStep(t *testing.T) {
	tests := []struct {
		name  string
		step  Step
		keys  []string
		check func(t *testing.T, s *InstallState)
	}{
		{
			name: "provider defaults to openrouter",
			step: NewProviderStep(),
			keys: []string{"enter"},
			check: func(t *testing.T, s *InstallState) {
				assert.Equal(t, "openrouter", s.Provider.Provider)
			},
		},
		{
			name: "provider cursor clamps at the end",
			step: NewProviderStep(),
			keys: []string{"down", "down", "down", "down", "enter"},
			check: func(t *testing.T, s *InstallState) {
				assert.Equal(t, "custom", s.Provider.Provider)
			},
		},
		{
			name: "telegram channel",
			step: NewChannelStep(),
			keys: []string{"j", "enter"},
			check: func(t *testing.T, s *InstallState) {
				assert.True(t, s.WantTelegram)
			},
		},
		{
			name: "cursor clamps at the top",
			step: NewChannelStep(),
			keys: []string{"up", "k", "enter"},
			check: func(t *testing.T, s *InstallState) {
				assert.False(t, s.WantTelegram)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewInstallState(t.TempDir())
			step := tt.step
			for i, k := range tt.keys {
				require.NotNil(t, step, "step finished early at key %d", i)
				step, _ = step.Update(keyMsg(k), state, 80, 24)
			}
			assert.Nil(t, step)
			tt.check(t, state)
		})
	}
}

func TestWizard_CtrlCQuits(t *testing.T) {
	m := initialModel(t.TempDir())
	next, cmd := m.Update(keyMsg("ctrl+c"))
	assert.True(t, next.(model).quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Setup cancelled.\n", next.View())
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}
