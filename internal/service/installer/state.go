package installer

import (
	"fmt"
	"strings"

	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/pkg/env"
)

// InstallState collects answers as the config structs they end up in, so
// saving is a matter of marshalling them back to .env lines.
type InstallState struct {
	RuntimePath  string
	WantTelegram bool

	App      config.AppConfig
	Provider config.ProviderConfig
	Telegram config.TelegramConfig
}

func NewInstallState(runtimePath string) *InstallState {
	return &InstallState{RuntimePath: runtimePath}
}

// EnvContent renders only the values the user chose; everything else keeps
// its envDefault on the next start.
func (s *InstallState) EnvContent() (string, error) {
	var sb strings.Builder
	sections := []struct {
		title string
		cfg   any
	}{
		{"App", &s.App},
		{"LLM provider", &s.Provider},
		{"Telegram", &s.Telegram},
	}

	for _, sec := range sections {
		content, err := env.MarshalEnv(sec.cfg)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %s config: %w", sec.title, err)
		}
		if content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "# %s\n%s", sec.title, content)
	}
	return sb.String(), nil
}
