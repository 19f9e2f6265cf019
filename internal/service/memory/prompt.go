package memory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
)

//go:embed persona.md
var defaultPersona string

type SysPrompt struct {
	cfg core.AppConfig
}

func NewSysPrompt(cfg core.AppConfig) *SysPrompt {
	return &SysPrompt{
		cfg: cfg,
	}
}

// DefaultPersona is the built-in coach persona, written out by setup as PERSONA.md.
func DefaultPersona() string {
	return strings.TrimSpace(defaultPersona)
}

// Persona returns PERSONA.md from the runtime directory, or the built-in persona.
func (p *SysPrompt) Persona() string {
	if p.cfg != nil {
		if content, err := os.ReadFile(p.cfg.GetPersonaPath()); err == nil {
			if s := strings.TrimSpace(string(content)); s != "" {
				return s
			}
		}
	}
	return DefaultPersona()
}

// Build assembles system instructions: digest first, then persona, then the
// account's stats and active goals when an account is known.
func (p *SysPrompt) Build(digest string, acc *core.Account) string {
	var sb strings.Builder
	sb.WriteString(digest)
	sb.WriteString(p.Persona())

	if acc != nil {
		sb.WriteString("\n\n")
		sb.WriteString(UserStats(acc))
		if goals := acc.ActiveGoals(); len(goals) > 0 {
			sb.WriteString("\n\nCURRENT USER ACTIVE GOALS (Keep these in mind):\n")
			for i, g := range goals {
				if i > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString("- ")
				sb.WriteString(g.Title)
			}
		}
	}
	return sb.String()
}

func UserStats(acc *core.Account) string {
	last := "Never"
	if acc.LastCheckinDate != nil {
		last = acc.LastCheckinDate.UTC().Format(time.DateOnly)
	}
	return fmt.Sprintf("USER STATS:\n- Current Streak: %d days\n- Last Check-in: %s", acc.Streak, last)
}
