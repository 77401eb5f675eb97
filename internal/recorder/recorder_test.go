package recorder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/polygate-bot/polygate/internal/bridge"
	"github.com/polygate-bot/polygate/internal/domain"
	"github.com/polygate-bot/polygate/internal/recorder"
	"github.com/polygate-bot/polygate/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	users    []*domain.User
	messages []*domain.Message
	errors   []string
}

var _ store.Store = (*memStore)(nil)

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) SaveUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, user)
	return nil
}

func (m *memStore) SaveMessage(_ context.Context, message *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *memStore) RecentMessages(context.Context, domain.Platform, int) ([]*domain.Message, error) {
	return nil, nil
}

func (m *memStore) SaveError(_ context.Context, _ domain.Platform, message string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
	return nil
}

func (m *memStore) CountMessages(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.messages)), nil
}

func (m *memStore) RunMaintenance(context.Context) error { return nil }

func event(t domain.EventType, data any) domain.BotEvent {
	return domain.BotEvent{
		Type:      t,
		Platform:  domain.PlatformTelegram,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func TestRecorder_PersistsMessageEvents(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	br := bridge.New(nil)
	rec := recorder.New(st, nil)
	rec.Attach(br)
	defer rec.Detach()

	user := &domain.User{ID: "telegram_42", PlatformID: "42", Platform: domain.PlatformTelegram}
	msg := &domain.Message{ID: "telegram_100", UserID: "telegram_42", Platform: domain.PlatformTelegram, Type: domain.TypeText, Content: "hi"}

	br.Publish(event(domain.EventMessage, domain.MessageEvent{Message: msg, User: user}))

	if len(st.users) != 1 || st.users[0].ID != "telegram_42" {
		t.Errorf("users = %+v, want the sender persisted", st.users)
	}
	if len(st.messages) != 1 || st.messages[0].ID != "telegram_100" {
		t.Errorf("messages = %+v, want the message persisted", st.messages)
	}
}

func TestRecorder_PersistsMemberEvents(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	br := bridge.New(nil)
	rec := recorder.New(st, nil)
	rec.Attach(br)
	defer rec.Detach()

	br.Publish(event(domain.EventUserJoin, domain.MemberEvent{
		User: &domain.User{ID: "telegram_1", PlatformID: "1", Platform: domain.PlatformTelegram},
	}))
	br.Publish(event(domain.EventUserLeave, domain.MemberEvent{
		User: &domain.User{ID: "telegram_2", PlatformID: "2", Platform: domain.PlatformTelegram},
	}))

	if len(st.users) != 2 {
		t.Fatalf("persisted %d users, want one per membership event", len(st.users))
	}
}

func TestRecorder_PersistsErrorEvents(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	br := bridge.New(nil)
	rec := recorder.New(st, nil)
	rec.Attach(br)
	defer rec.Detach()

	br.Publish(event(domain.EventError, domain.ErrorEvent{
		Err:     errors.New("resolution failed"),
		Context: map[string]any{"file_id": "f1"},
	}))

	if len(st.errors) != 1 || st.errors[0] != "resolution failed" {
		t.Errorf("errors = %v, want the error message persisted", st.errors)
	}
}

func TestRecorder_IgnoresMalformedPayloads(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	br := bridge.New(nil)
	rec := recorder.New(st, nil)
	rec.Attach(br)
	defer rec.Detach()

	br.Publish(event(domain.EventMessage, "not a message payload"))

	if len(st.users) != 0 || len(st.messages) != 0 {
		t.Errorf("store received %d users / %d messages from a malformed event, want none",
			len(st.users), len(st.messages))
	}
}

func TestRecorder_DetachStopsConsumption(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	br := bridge.New(nil)
	rec := recorder.New(st, nil)
	rec.Attach(br)
	rec.Detach()

	br.Publish(event(domain.EventMessage, domain.MessageEvent{
		Message: &domain.Message{ID: "telegram_100", UserID: "telegram_42"},
		User:    &domain.User{ID: "telegram_42", PlatformID: "42"},
	}))

	if len(st.messages) != 0 {
		t.Errorf("detached recorder persisted %d messages, want 0", len(st.messages))
	}
}
