// Package telegram implements the platform.Client capability interface on
// top of github.com/go-telegram/bot. It only translates between the SDK's
// wire types and the platform-neutral shapes; normalization and access
// control live in internal/adapter.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/polygate-bot/polygate/internal/platform"
)

// Config carries what the client needs from the platform configuration.
type Config struct {
	Token       string
	WebhookURL  string
	WebhookAddr string
}

// Client wraps a go-telegram/bot instance behind platform.Client.
type Client struct {
	token  string
	cfg    Config
	logger *slog.Logger
	bot    *tgbot.Bot

	mu         sync.RWMutex
	handlers   map[platform.UpdateKind]platform.UpdateHandler
	errHandler platform.ErrorHandler

	cancel context.CancelFunc
	server *http.Server
}

var _ platform.Client = (*Client)(nil)

// New connects to the Telegram Bot API with the given token. Handler
// registration must happen before Launch.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		token:    cfg.Token,
		cfg:      cfg,
		logger:   logger.With("component", "telegram_client"),
		handlers: make(map[platform.UpdateKind]platform.UpdateHandler),
	}

	b, err := tgbot.New(cfg.Token,
		tgbot.WithDefaultHandler(c.dispatch),
		tgbot.WithErrorsHandler(c.dispatchError),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.bot = b

	return c, nil
}

// OnUpdate registers the handler invoked for raw updates of the given
// kind.
func (c *Client) OnUpdate(kind platform.UpdateKind, handler platform.UpdateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = handler
}

// OnError registers the handler invoked for client-level failures.
func (c *Client) OnError(handler platform.ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errHandler = handler
}

// Launch starts update delivery in the requested mode and returns without
// blocking.
func (c *Client) Launch(ctx context.Context, mode platform.Mode) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	switch mode {
	case platform.ModeWebhook:
		return c.launchWebhook(runCtx)
	default:
		go c.bot.Start(runCtx)
		c.logger.Info("long polling started")
		return nil
	}
}

func (c *Client) launchWebhook(ctx context.Context) error {
	if c.cfg.WebhookURL == "" || c.cfg.WebhookAddr == "" {
		return fmt.Errorf("webhook mode requires webhook_url and webhook_addr")
	}

	if _, err := c.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: c.cfg.WebhookURL}); err != nil {
		return fmt.Errorf("failed to register webhook %s: %w", c.cfg.WebhookURL, err)
	}

	c.server = &http.Server{
		Addr:    c.cfg.WebhookAddr,
		Handler: c.bot.WebhookHandler(),
	}

	go c.bot.StartWebhook(ctx)
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.dispatchError(fmt.Errorf("webhook server failed: %w", err))
		}
	}()

	c.logger.Info("webhook delivery started", "url", c.cfg.WebhookURL, "addr", c.cfg.WebhookAddr)
	return nil
}

// Stop halts update delivery. In-flight handler invocations are not
// awaited.
func (c *Client) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down webhook server: %w", err)
		}
	}
	c.logger.Info("update delivery stopped")
	return nil
}

// SendText sends a plain or Markdown-formatted text message.
func (c *Client) SendText(ctx context.Context, chatID, text string, opts *platform.SendOptions) error {
	params := &tgbot.SendMessageParams{
		ChatID: telegramChatID(chatID),
		Text:   text,
	}
	if opts != nil {
		if opts.Markdown {
			params.ParseMode = models.ParseModeMarkdown
		}
		if opts.DisablePreview {
			params.LinkPreviewOptions = &models.LinkPreviewOptions{IsDisabled: tgbot.True()}
		}
	}

	_, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return fmt.Errorf("telegram send message to chat %s: %w", chatID, err)
	}
	return nil
}

// SendPhoto sends a photo by URL or Telegram file id.
func (c *Client) SendPhoto(ctx context.Context, chatID, photoRef, caption string) error {
	_, err := c.bot.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:    telegramChatID(chatID),
		Photo:     &models.InputFileString{Data: photoRef},
		Caption:   caption,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("telegram send photo to chat %s: %w", chatID, err)
	}
	return nil
}

// SendTyping shows the typing chat action.
func (c *Client) SendTyping(ctx context.Context, chatID string) error {
	_, err := c.bot.SendChatAction(ctx, &tgbot.SendChatActionParams{
		ChatID: telegramChatID(chatID),
		Action: models.ChatActionTyping,
	})
	if err != nil {
		return fmt.Errorf("telegram chat action for chat %s: %w", chatID, err)
	}
	return nil
}

// FileURL resolves a file id to a direct download URL on Telegram's file
// API.
func (c *Client) FileURL(ctx context.Context, fileID string) (string, error) {
	file, err := c.bot.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("telegram get file %s: %w", fileID, err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("telegram returned empty file path for %s", fileID)
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", c.token, file.FilePath), nil
}

// SetCommands registers the bot's command menu.
func (c *Client) SetCommands(ctx context.Context, commands []platform.Command) error {
	tgCommands := make([]models.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		tgCommands = append(tgCommands, models.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	_, err := c.bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: tgCommands})
	if err != nil {
		return fmt.Errorf("telegram set commands: %w", err)
	}
	return nil
}

// dispatch is the SDK's default handler: it converts the update and routes
// it to the handler registered for its kind. Each invocation comes from
// the SDK's own per-update goroutine, so handlers here must not block
// global state.
func (c *Client) dispatch(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	upd := convertMessage(update.Message)
	kind := upd.Kind()

	c.mu.RLock()
	handler := c.handlers[kind]
	if handler == nil {
		handler = c.handlers[platform.KindUnknown]
	}
	c.mu.RUnlock()

	if handler == nil {
		c.logger.DebugContext(ctx, "no handler for update kind", "kind", string(kind))
		return
	}
	handler(ctx, upd)
}

func (c *Client) dispatchError(err error) {
	c.mu.RLock()
	handler := c.errHandler
	c.mu.RUnlock()

	if handler != nil {
		handler(err)
		return
	}
	c.logger.Error("telegram client error", "error", err)
}

// telegramChatID passes numeric chat ids as int64 the way the Bot API
// prefers, and anything else (e.g. @channelname) through as a string.
func telegramChatID(chatID string) any {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return id
	}
	return chatID
}
