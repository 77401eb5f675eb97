// Package recorder subscribes to the event bridge and persists every
// normalized event through the store. It is the gateway's built-in
// downstream consumer; AI/command processors attach to the same bridge
// alongside it.
package recorder

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/polygate-bot/polygate/internal/bridge"
	"github.com/polygate-bot/polygate/internal/domain"
	"github.com/polygate-bot/polygate/internal/store"
)

const saveTimeout = 5 * time.Second

// Recorder persists bridge events. Event handling must never panic or
// block for long: the bridge delivers synchronously from the adapters'
// update callbacks.
type Recorder struct {
	store  store.Store
	logger *slog.Logger

	unsubscribe []func()
}

// New creates a recorder; call Attach to start consuming.
func New(st store.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{
		store:  st,
		logger: logger.With("component", "recorder"),
	}
}

// Attach subscribes the recorder to all event types on the bridge.
func (r *Recorder) Attach(br *bridge.Bridge) {
	r.unsubscribe = append(r.unsubscribe,
		br.Subscribe(domain.EventMessage, r.onMessage),
		br.Subscribe(domain.EventUserJoin, r.onMember),
		br.Subscribe(domain.EventUserLeave, r.onMember),
		br.Subscribe(domain.EventError, r.onError),
	)
	r.logger.Info("recorder attached to bridge")
}

// Detach removes all bridge subscriptions.
func (r *Recorder) Detach() {
	for _, u := range r.unsubscribe {
		u()
	}
	r.unsubscribe = nil
}

func (r *Recorder) onMessage(event domain.BotEvent) {
	payload, ok := event.Data.(domain.MessageEvent)
	if !ok {
		r.logger.Error("message event with unexpected payload", "platform", event.Platform)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.store.SaveUser(ctx, payload.User); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist user", "user_id", payload.User.ID, "error", err)
	}
	if err := r.store.SaveMessage(ctx, payload.Message); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist message", "message_id", payload.Message.ID, "error", err)
	}
}

func (r *Recorder) onMember(event domain.BotEvent) {
	payload, ok := event.Data.(domain.MemberEvent)
	if !ok {
		r.logger.Error("member event with unexpected payload",
			"event_type", event.Type, "platform", event.Platform)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.store.SaveUser(ctx, payload.User); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist member",
			"event_type", event.Type, "user_id", payload.User.ID, "error", err)
	}
}

func (r *Recorder) onError(event domain.BotEvent) {
	payload, ok := event.Data.(domain.ErrorEvent)
	if !ok {
		r.logger.Error("error event with unexpected payload", "platform", event.Platform)
		return
	}

	message := "unknown error"
	if payload.Err != nil {
		message = payload.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.store.SaveError(ctx, event.Platform, message, payload.Context); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist error event", "error", err)
	}
}
