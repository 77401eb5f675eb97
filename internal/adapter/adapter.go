// Package adapter binds one chat platform's native client to the unified
// domain model. An Adapter owns a single platform.Client, translates its
// raw updates into domain events published on the bridge, enforces the
// configured allow-list, and exposes the outbound send operations.
package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/polygate-bot/polygate/internal/apperr"
	"github.com/polygate-bot/polygate/internal/bridge"
	"github.com/polygate-bot/polygate/internal/config"
	"github.com/polygate-bot/polygate/internal/domain"
	"github.com/polygate-bot/polygate/internal/platform"
)

// State is the adapter lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ClientFactory constructs the native client for a platform. Initialize
// calls it exactly once; a returned error leaves the adapter uninitialized.
type ClientFactory func(cfg config.PlatformConfig) (platform.Client, error)

// defaultCommands is the command menu registered with the platform on
// start.
var defaultCommands = []platform.Command{
	{Name: "start", Description: "Start a conversation with the bot"},
	{Name: "help", Description: "Show usage information"},
}

// Adapter is one platform binding. All lifecycle transitions and the
// outbound operations are safe for concurrent use; update handling runs
// inside the native client's delivery callbacks and does not hold the
// lifecycle lock.
type Adapter struct {
	platform domain.Platform
	cfg      config.PlatformConfig
	factory  ClientFactory
	bridge   *bridge.Bridge
	logger   *slog.Logger
	now      func() time.Time

	allowed map[string]struct{}

	mu     sync.Mutex
	state  State
	client platform.Client
}

// New creates an adapter in the Uninitialized state. A nil logger is
// replaced with a discard logger.
func New(p domain.Platform, cfg config.PlatformConfig, factory ClientFactory, br *bridge.Bridge, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedUsers))
	for _, u := range cfg.AllowedUsers {
		allowed[u] = struct{}{}
	}

	return &Adapter{
		platform: p,
		cfg:      cfg,
		factory:  factory,
		bridge:   br,
		logger:   logger.With("component", "adapter", "platform", string(p)),
		now:      time.Now,
		allowed:  allowed,
	}
}

// Platform returns the network this adapter serves.
func (a *Adapter) Platform() domain.Platform { return a.platform }

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Initialize constructs the native client and registers the update and
// error handlers. It requires the platform to be enabled and a token to be
// configured; on any failure the adapter stays Uninitialized.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateUninitialized {
		return apperr.NewPlatformError(a.platform, "initialize",
			fmt.Sprintf("cannot initialize from state %s", a.state), nil)
	}
	if !a.cfg.Enabled {
		return apperr.NewPlatformError(a.platform, "initialize", "platform is not enabled", nil)
	}
	if a.cfg.Token == "" {
		return apperr.NewPlatformError(a.platform, "initialize", "no credential configured", nil)
	}

	client, err := a.factory(a.cfg)
	if err != nil {
		a.logger.ErrorContext(ctx, "native client construction failed", "error", err)
		return apperr.NewPlatformError(a.platform, "initialize", "failed to construct native client", err)
	}

	for _, kind := range []platform.UpdateKind{
		platform.KindText,
		platform.KindPhoto,
		platform.KindAudio,
		platform.KindDocument,
		platform.KindSticker,
		platform.KindLocation,
		platform.KindContact,
		platform.KindUnknown,
	} {
		k := kind
		client.OnUpdate(k, func(ctx context.Context, upd *platform.Update) {
			a.handleUpdate(ctx, k, upd)
		})
	}
	client.OnUpdate(platform.KindMemberJoin, a.handleMemberJoin)
	client.OnUpdate(platform.KindMemberLeave, a.handleMemberLeave)
	client.OnError(a.handleClientError)

	a.client = client
	a.state = StateInitialized
	a.logger.InfoContext(ctx, "adapter initialized")
	return nil
}

// Start launches update delivery and registers the command menu. Webhook
// mode is selected when a webhook URL is configured, long polling
// otherwise. Command registration failures are logged and do not prevent
// the adapter from running.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateInitialized {
		return apperr.NewPlatformError(a.platform, "start",
			fmt.Sprintf("cannot start from state %s", a.state), nil)
	}

	mode := platform.ModePolling
	if a.cfg.WebhookURL != "" {
		mode = platform.ModeWebhook
	}

	if err := a.client.Launch(ctx, mode); err != nil {
		a.logger.ErrorContext(ctx, "failed to launch native client", "mode", string(mode), "error", err)
		return apperr.NewPlatformError(a.platform, "start", "failed to launch native client", err)
	}

	if err := a.client.SetCommands(ctx, defaultCommands); err != nil {
		a.logger.WarnContext(ctx, "command registration failed, continuing", "error", err)
	}

	a.state = StateRunning
	a.logger.InfoContext(ctx, "adapter started", "mode", string(mode))
	return nil
}

// Stop releases the native client's delivery resources. It is idempotent:
// calling it in any state other than Running is a no-op. Already-dispatched
// update handlers are not awaited or cancelled.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateRunning {
		return nil
	}

	err := a.client.Stop(ctx)
	a.state = StateStopped
	if err != nil {
		a.logger.ErrorContext(ctx, "error stopping native client", "error", err)
		return apperr.NewPlatformError(a.platform, "stop", "failed to stop native client", err)
	}

	a.logger.InfoContext(ctx, "adapter stopped")
	return nil
}

func (a *Adapter) requireRunning(op string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateRunning {
		return apperr.NewPlatformError(a.platform, op,
			fmt.Sprintf("adapter is %s, not running", a.state), nil)
	}
	return nil
}

// SendMessage sends a text message to the target chat. Unless opts says
// otherwise, link previews are disabled and Markdown formatting is enabled.
// Native client errors are logged and propagated to the caller.
func (a *Adapter) SendMessage(ctx context.Context, chatID, content string, opts *platform.SendOptions) error {
	if err := a.requireRunning("send_message"); err != nil {
		return err
	}
	if opts == nil {
		opts = &platform.SendOptions{DisablePreview: true, Markdown: true}
	}

	if err := a.client.SendText(ctx, chatID, content, opts); err != nil {
		a.logger.ErrorContext(ctx, "failed to send message",
			"chat_id", chatID,
			"content_length", len(content),
			"error", err)
		return apperr.NewPlatformError(a.platform, "send_message", "failed to send message", err)
	}
	return nil
}

// SendPhoto sends a photo (by URL or native file reference) with an
// optional caption. Native client errors are logged and propagated.
func (a *Adapter) SendPhoto(ctx context.Context, chatID, photoRef, caption string) error {
	if err := a.requireRunning("send_photo"); err != nil {
		return err
	}

	if err := a.client.SendPhoto(ctx, chatID, photoRef, caption); err != nil {
		a.logger.ErrorContext(ctx, "failed to send photo",
			"chat_id", chatID,
			"error", err)
		return apperr.NewPlatformError(a.platform, "send_photo", "failed to send photo", err)
	}
	return nil
}

// SendTyping shows the typing indicator in the target chat. The indicator
// is best-effort: delivery failures are logged, never returned.
func (a *Adapter) SendTyping(ctx context.Context, chatID string) error {
	if err := a.requireRunning("send_typing"); err != nil {
		return err
	}

	if err := a.client.SendTyping(ctx, chatID); err != nil {
		a.logger.DebugContext(ctx, "typing indicator failed", "chat_id", chatID, "error", err)
	}
	return nil
}

// ResolveFileURL turns a native file id into a directly fetchable URL.
// Resolution failures are logged and reported as an empty string; callers
// must treat "" as "unavailable", not as an error.
func (a *Adapter) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	if err := a.requireRunning("resolve_file_url"); err != nil {
		return "", err
	}
	return a.resolveFileURL(ctx, fileID, ""), nil
}

// resolveFileURL is the internal resolution path shared with inbound
// normalization. On failure it logs, publishes an error event, and returns
// "".
func (a *Adapter) resolveFileURL(ctx context.Context, fileID, chatID string) string {
	url, err := a.client.FileURL(ctx, fileID)
	if err != nil {
		a.logger.WarnContext(ctx, "file URL resolution failed",
			"file_id", fileID,
			"chat_id", chatID,
			"error", err)
		a.publish(domain.EventError, domain.ErrorEvent{
			Err: err,
			Context: map[string]any{
				"op":      "resolve_file_url",
				"file_id": fileID,
				"chat_id": chatID,
			},
		})
		return ""
	}
	return url
}

func (a *Adapter) handleClientError(err error) {
	a.logger.Error("native client error", "error", err)
	a.publish(domain.EventError, domain.ErrorEvent{
		Err:     err,
		Context: map[string]any{"op": "client"},
	})
}

func (a *Adapter) publish(t domain.EventType, data any) {
	a.bridge.Publish(domain.BotEvent{
		Type:      t,
		Platform:  a.platform,
		Data:      data,
		Timestamp: a.now(),
	})
}
