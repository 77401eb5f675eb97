package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/polygate-bot/polygate/internal/domain"
)

// Store is the persistence interface the recorder writes through.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveUser upserts a user keyed on (platform, platform_id). The stored
	// created_at is preserved on conflict; last_seen and the mutable fields
	// are refreshed. This is where the adapter's always-now timestamps get
	// reconciled against real history.
	SaveUser(ctx context.Context, user *domain.User) error

	// SaveMessage inserts a normalized message. Metadata and attachments
	// are stored as JSON.
	SaveMessage(ctx context.Context, message *domain.Message) error

	// RecentMessages returns up to limit messages for a platform, newest
	// first.
	RecentMessages(ctx context.Context, platform domain.Platform, limit int) ([]*domain.Message, error)

	// SaveError records a platform error event for later inspection.
	SaveError(ctx context.Context, platform domain.Platform, message string, context map[string]any) error

	// CountMessages returns the number of stored messages.
	CountMessages(ctx context.Context) (int64, error)

	// RunMaintenance reclaims space and refreshes query planner
	// statistics.
	RunMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New creates a Store backed by sqlx.
func New(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type userRow struct {
	ID          string    `db:"id"`
	PlatformID  string    `db:"platform_id"`
	Platform    string    `db:"platform"`
	Username    string    `db:"username"`
	FirstName   string    `db:"first_name"`
	LastName    string    `db:"last_name"`
	Role        string    `db:"role"`
	IsBlocked   bool      `db:"is_blocked"`
	Preferences string    `db:"preferences"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	LastSeen    time.Time `db:"last_seen"`
}

type messageRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Platform    string    `db:"platform"`
	Type        string    `db:"type"`
	Content     string    `db:"content"`
	Metadata    string    `db:"metadata"`
	Attachments string    `db:"attachments"`
	IsFromBot   bool      `db:"is_from_bot"`
	CreatedAt   time.Time `db:"created_at"`
	Processed   bool      `db:"processed"`
}

func (s *sqlxStore) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.ID == "" || user.PlatformID == "" {
		return fmt.Errorf("user must have derived id and platform id")
	}

	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	row := userRow{
		ID:          user.ID,
		PlatformID:  user.PlatformID,
		Platform:    string(user.Platform),
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        string(user.Role),
		IsBlocked:   user.IsBlocked,
		Preferences: string(prefs),
		CreatedAt:   user.CreatedAt.UTC(),
		UpdatedAt:   user.UpdatedAt.UTC(),
		LastSeen:    user.LastSeen.UTC(),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, platform_id, platform, username, first_name, last_name,
		                   role, is_blocked, preferences, created_at, updated_at, last_seen)
		VALUES (:id, :platform_id, :platform, :username, :first_name, :last_name,
		        :role, :is_blocked, :preferences, :created_at, :updated_at, :last_seen)
		ON CONFLICT (platform, platform_id) DO UPDATE SET
			username   = excluded.username,
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			updated_at = excluded.updated_at,
			last_seen  = excluded.last_seen`,
		row)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save user", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to save user %s: %w", user.ID, err)
	}
	return nil
}

func (s *sqlxStore) SaveMessage(ctx context.Context, message *domain.Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ID == "" || message.UserID == "" {
		return fmt.Errorf("message must have id and user id")
	}

	metadata, err := json.Marshal(message.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	attachments, err := json.Marshal(message.Attachments)
	if err != nil {
		return fmt.Errorf("failed to marshal attachments: %w", err)
	}

	row := messageRow{
		ID:          message.ID,
		UserID:      message.UserID,
		Platform:    string(message.Platform),
		Type:        string(message.Type),
		Content:     message.Content,
		Metadata:    string(metadata),
		Attachments: string(attachments),
		IsFromBot:   message.IsFromBot,
		CreatedAt:   message.CreatedAt.UTC(),
		Processed:   message.Processed,
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, user_id, platform, type, content, metadata,
		                                attachments, is_from_bot, created_at, processed)
		VALUES (:id, :user_id, :platform, :type, :content, :metadata,
		        :attachments, :is_from_bot, :created_at, :processed)`,
		row)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save message", "message_id", message.ID, "error", err)
		return fmt.Errorf("failed to save message %s: %w", message.ID, err)
	}
	return nil
}

func (s *sqlxStore) RecentMessages(ctx context.Context, platform domain.Platform, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, platform, type, content, metadata, attachments,
		       is_from_bot, created_at, processed
		FROM messages
		WHERE platform = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		string(platform), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}

	messages := make([]*domain.Message, 0, len(rows))
	for _, row := range rows {
		msg := &domain.Message{
			ID:        row.ID,
			UserID:    row.UserID,
			Platform:  domain.Platform(row.Platform),
			Type:      domain.MessageType(row.Type),
			Content:   row.Content,
			IsFromBot: row.IsFromBot,
			CreatedAt: row.CreatedAt,
			Processed: row.Processed,
		}
		if err := json.Unmarshal([]byte(row.Metadata), &msg.Metadata); err != nil {
			s.logger.WarnContext(ctx, "corrupt message metadata", "message_id", row.ID, "error", err)
			msg.Metadata = map[string]any{}
		}
		if err := json.Unmarshal([]byte(row.Attachments), &msg.Attachments); err != nil {
			s.logger.WarnContext(ctx, "corrupt message attachments", "message_id", row.ID, "error", err)
			msg.Attachments = []domain.Attachment{}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *sqlxStore) SaveError(ctx context.Context, platform domain.Platform, message string, errCtx map[string]any) error {
	contextJSON, err := json.Marshal(errCtx)
	if err != nil {
		contextJSON = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO platform_errors (platform, message, context, created_at)
		VALUES (?, ?, ?, ?)`,
		string(platform), message, string(contextJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save platform error: %w", err)
	}
	return nil
}

func (s *sqlxStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `ANALYZE`); err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}
	s.logger.InfoContext(ctx, "maintenance completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
