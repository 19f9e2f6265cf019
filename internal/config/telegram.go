package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/lifecoach/pkg/log"
)

type TelegramConfig struct {
	Token      string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	HistoryLen int    `env:"TELEGRAM_HISTORY_LEN" envDefault:"20"`
	// Chats silent for longer lose their in-memory history.
	HistoryTTL time.Duration `env:"TELEGRAM_HISTORY_TTL" envDefault:"24h"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}

func (c TelegramConfig) GetTelegramToken() string {
	return c.Token
}
