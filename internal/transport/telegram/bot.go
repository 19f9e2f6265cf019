package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sandevgo/lifecoach/internal/config"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/service/identity"
	"github.com/sandevgo/lifecoach/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	baseContextKey = "base_context"
	channelName    = "telegram"

	// Telegram serves photos up to 20MB; the gateway accepts less.
	maxPhotoBytes = 8 << 20
)

type Chatter interface {
	Chat(ctx context.Context, req gateway.Request) (gateway.Response, error)
}

// Bot talks to anyone who messages it. Each chat is its own anonymous
// identity with a short in-memory history.
type Bot struct {
	bot     *tele.Bot
	chat    Chatter
	router  core.CmdRouter
	history core.ChatLog
	sender  *sender
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	chat Chatter,
	router core.CmdRouter,
	history core.ChatLog,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		chat:    chat,
		router:  router,
		history: history,
		sender:  newSender(b),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chatCtx := log.WithFields(ctx, map[string]any{"chat_id": c.Chat().ID})
			c.Set(baseContextKey, chatCtx)
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle(tele.OnPhoto, bot.handlePhoto)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("bot", b.bot.Me.Username).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chatID := strconv.FormatInt(c.Chat().ID, 10)

	if reply, ok := b.router.Execute(ctx, chatID, c.Text()); ok {
		return b.sender.sendMarkdown(ctx, c.Chat(), reply, false)
	}

	return b.converse(ctx, c, chatID, c.Text(), nil)
}

func (b *Bot) handlePhoto(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chatID := strconv.FormatInt(c.Chat().ID, 10)
	photo := c.Message().Photo

	if photo.FileSize > maxPhotoBytes {
		return c.Send("That photo is too large. Please send one under 8 MB.")
	}

	rc, err := b.bot.File(&photo.File)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to download telegram photo")
		return c.Send("I could not download that photo. Please try again.")
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes+1))
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to read telegram photo")
		return c.Send("I could not download that photo. Please try again.")
	}

	attachment := &core.Attachment{
		Name:     photo.UniqueID + ".jpg",
		MimeType: "image/jpeg",
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	return b.converse(ctx, c, chatID, c.Message().Caption, attachment)
}

func (b *Bot) converse(ctx context.Context, c tele.Context, chatID, text string, attachment *core.Attachment) error {
	logger := log.FromCtx(ctx)

	// Notify user we are working
	_ = c.Notify(tele.Typing)

	resp, err := b.chat.Chat(ctx, gateway.Request{
		Message:    text,
		History:    b.history.History(chatID),
		Signals:    identity.ForChat(channelName, chatID),
		Attachment: attachment,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("chat failed")
		return c.Send(gateway.Explain(err))
	}

	userTurn := text
	if attachment != nil {
		userTurn = "[photo] " + text
	}
	b.history.Append(chatID,
		core.Message{Role: core.RoleUser, Content: userTurn},
		core.Message{Role: core.RoleAssistant, Content: resp.Content},
	)

	return b.sender.sendMarkdown(ctx, c.Chat(), resp.Content, false)
}
