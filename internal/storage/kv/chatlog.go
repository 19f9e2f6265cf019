package kv

import (
	"slices"
	"sync"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
)

// DefaultChatIdleTTL is how long a chat may stay silent before its history is dropped.
const DefaultChatIdleTTL = 24 * time.Hour

type ChatLogOption func(*ChatLog)

func WithIdleTTL(ttl time.Duration) ChatLogOption {
	return func(c *ChatLog) {
		if ttl > 0 {
			c.idleTTL = ttl
		}
	}
}

func WithChatClock(now func() time.Time) ChatLogOption {
	return func(c *ChatLog) {
		c.now = now
	}
}

type chatHistory struct {
	messages   []core.Message
	lastActive time.Time
}

// ChatLog keeps the last limit messages per chat in memory. A chat idle for
// longer than the idle TTL reads as empty and is evicted on the next append.
type ChatLog struct {
	mu        sync.Mutex
	limit     int
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
	chats     map[string]*chatHistory
}

func NewChatLog(limit int, opts ...ChatLogOption) *ChatLog {
	if limit <= 0 {
		limit = 20
	}
	c := &ChatLog{
		limit:   limit,
		idleTTL: DefaultChatIdleTTL,
		now:     time.Now,
		chats:   make(map[string]*chatHistory),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ChatLog) History(chatID string) []core.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.chats[chatID]
	if !ok || c.expired(h, c.now()) {
		return nil
	}
	return slices.Clone(h.messages)
}

func (c *ChatLog) Append(chatID string, msgs ...core.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictIdle(now)

	h, ok := c.chats[chatID]
	if !ok || c.expired(h, now) {
		h = &chatHistory{}
		c.chats[chatID] = h
	}
	history := append(h.messages, msgs...)
	if over := len(history) - c.limit; over > 0 {
		history = slices.Clone(history[over:])
	}
	h.messages = history
	h.lastActive = now
}

func (c *ChatLog) Reset(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chats, chatID)
}

// Len is the number of chats currently held.
func (c *ChatLog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.chats)
}

func (c *ChatLog) expired(h *chatHistory, now time.Time) bool {
	return now.Sub(h.lastActive) > c.idleTTL
}

// evictIdle scans at most once per idle TTL so appends stay cheap.
func (c *ChatLog) evictIdle(now time.Time) {
	if now.Sub(c.lastSweep) < c.idleTTL {
		return
	}
	c.lastSweep = now
	for id, h := range c.chats {
		if c.expired(h, now) {
			delete(c.chats, id)
		}
	}
}
