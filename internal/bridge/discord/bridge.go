// Package discord bridges Discord chat to the command map: prefixed messages
// are dispatched as commands and the feedback is posted back to the channel.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/commands"
	"github.com/haasonsaas/cmdtree/internal/host"
	"github.com/haasonsaas/cmdtree/internal/observability"
)

// maxMessageLength is Discord's limit for a single message body.
const maxMessageLength = 2000

var (
	// ErrMissingToken is returned when no bot token is configured.
	ErrMissingToken = errors.New("discord: token is required")

	// ErrAlreadyStarted is returned by Start on a running bridge.
	ErrAlreadyStarted = errors.New("discord: bridge already started")
)

// session is the subset of *discordgo.Session the bridge uses.
type session interface {
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	AddHandler(handler interface{}) func()
}

// Dispatcher executes a command line for a sender. *host.CommandMap
// implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, sender commands.Sender, line string) error
}

// Config holds configuration for the bridge.
type Config struct {
	// Token is the bot token from the Discord Developer Portal (required)
	Token string

	// Prefix marks a message as a command (default "!")
	Prefix string

	// MaxReconnectAttempts bounds the connection attempts made by Start
	MaxReconnectAttempts int

	// ReconnectBackoff caps the wait between connection attempts
	ReconnectBackoff time.Duration

	// Logger is an optional slog.Logger instance
	Logger *slog.Logger
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrMissingToken
	}
	if c.Prefix == "" {
		c.Prefix = "!"
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.ReconnectBackoff == 0 {
		c.ReconnectBackoff = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Bridge relays Discord messages to a Dispatcher. Each author becomes a
// player whose permission subject is "discord:<user id>".
type Bridge struct {
	config   Config
	commands Dispatcher
	perms    host.PermissionChecker
	logger   *slog.Logger

	mu      sync.Mutex
	session session
	started bool
	ctx     context.Context
	cancel  context.CancelFunc

	removeHandlers []func()
}

// New creates a bridge that dispatches to cmds and checks permissions with
// perms.
func New(config Config, cmds Dispatcher, perms host.PermissionChecker) (*Bridge, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Bridge{
		config:   config,
		commands: cmds,
		perms:    perms,
		logger:   config.Logger.With("component", "discord"),
		ctx:      context.Background(),
	}, nil
}

// Start opens the gateway connection and begins handling messages.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrAlreadyStarted
	}

	if b.session == nil {
		dg, err := discordgo.New("Bot " + b.config.Token)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentMessageContent
		b.session = dg
	}

	b.removeHandlers = []func(){
		b.session.AddHandler(b.handleMessageCreate),
		b.session.AddHandler(b.handleReady),
	}

	if err := b.connectWithRetry(ctx); err != nil {
		b.detachHandlers()
		return fmt.Errorf("discord: connect: %w", err)
	}

	b.ctx, b.cancel = context.WithCancel(context.WithoutCancel(ctx))
	b.started = true
	b.logger.Info("discord bridge started", "prefix", b.config.Prefix)
	return nil
}

// Stop closes the gateway connection.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.started = false
	b.detachHandlers()

	if err := b.session.Close(); err != nil {
		b.logger.Error("failed to close discord session", "error", err)
		return fmt.Errorf("discord: close session: %w", err)
	}
	b.logger.Info("discord bridge stopped")
	return nil
}

// detachHandlers unregisters the session handlers added by Start. Callers
// hold b.mu.
func (b *Bridge) detachHandlers() {
	for _, remove := range b.removeHandlers {
		if remove != nil {
			remove()
		}
	}
	b.removeHandlers = nil
}

func (b *Bridge) connectWithRetry(ctx context.Context) error {
	var err error
	maxAttempts := b.config.MaxReconnectAttempts

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = b.session.Open(); err == nil {
			return nil
		}

		wait := calculateBackoff(attempt, b.config.ReconnectBackoff)
		b.logger.Warn("connection failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"backoff_ms", wait.Milliseconds())

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

// calculateBackoff doubles from one second up to maxWait.
func calculateBackoff(attempt int, maxWait time.Duration) time.Duration {
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > maxWait {
		backoff = maxWait
	}
	return backoff
}

func (b *Bridge) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		b.logger.Info("connected to discord", "user", r.User.Username, "guilds", len(r.Guilds))
	}
}

func (b *Bridge) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil {
		return
	}
	b.handleMessage(m.Message)
}

// handleMessage dispatches a prefixed message from a human author. The
// feedback is collected and posted as one reply.
func (b *Bridge) handleMessage(msg *discordgo.Message) {
	if msg == nil || msg.Author == nil || msg.Author.Bot {
		return
	}
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, b.config.Prefix) {
		return
	}
	line := strings.TrimPrefix(content, b.config.Prefix)

	b.mu.Lock()
	ctx := b.ctx
	b.mu.Unlock()
	ctx = observability.WithInvocationID(ctx, uuid.NewString())

	b.logger.DebugContext(ctx, "received command",
		"channel_id", msg.ChannelID,
		"user_id", msg.Author.ID,
		"content_length", len(content))

	var lines []string
	player := host.NewPlayerSender(msg.Author.Username, "discord:"+msg.Author.ID, b.perms,
		func(text string) { lines = append(lines, chat.Strip(text)) })

	if err := b.commands.Dispatch(ctx, player, line); err != nil && !errors.Is(err, host.ErrUnknownCommand) {
		b.logger.WarnContext(ctx, "dispatch failed", "error", err)
	}
	b.reply(ctx, msg.ChannelID, lines)
}

func (b *Bridge) reply(ctx context.Context, channelID string, lines []string) {
	for _, chunk := range chunkLines(lines, maxMessageLength) {
		if _, err := b.session.ChannelMessageSend(channelID, chunk); err != nil {
			b.logger.ErrorContext(ctx, "failed to send reply", "channel_id", channelID, "error", err)
			return
		}
	}
}

// chunkLines joins lines with newlines into bodies of at most limit
// characters. A single line longer than limit is split between runes.
func chunkLines(lines []string, limit int) []string {
	var chunks []string
	var current strings.Builder
	size := 0
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}
	for _, line := range lines {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if current.Len() > 0 && size+1+len(runes) > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
			size++
		}
		current.WriteString(string(runes))
		size += len(runes)
	}
	flush()
	return chunks
}
