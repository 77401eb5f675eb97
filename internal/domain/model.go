// Package domain defines the unified chat model shared by all platform
// adapters: users, messages, attachments, and the events published on the
// bridge. Values are constructed fresh for every inbound update; nothing in
// this package caches or mutates after construction.
package domain

import (
	"fmt"
	"time"
)

// Platform identifies a supported chat network.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformWhatsApp Platform = "whatsapp"
	PlatformDiscord  Platform = "discord"
)

// UserRole is the access level assigned to a user.
type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleModerator  UserRole = "moderator"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// MessageType classifies the content of a normalized message.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeAudio    MessageType = "audio"
	TypeVideo    MessageType = "video"
	TypeDocument MessageType = "document"
	TypeSticker  MessageType = "sticker"
	TypeLocation MessageType = "location"
	TypeContact  MessageType = "contact"
)

// Preferences holds per-user settings. New users get the defaults from
// DefaultPreferences; reconciliation against stored values is the
// persistence layer's job.
type Preferences struct {
	Language             string `json:"language"`
	Timezone             string `json:"timezone"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	AIEnabled            bool   `json:"ai_enabled"`
	VoiceEnabled         bool   `json:"voice_enabled"`
}

// DefaultPreferences returns the preference set assigned to users the
// gateway has not seen before.
func DefaultPreferences() Preferences {
	return Preferences{
		Language:             "en",
		Timezone:             "UTC",
		NotificationsEnabled: true,
		AIEnabled:            true,
		VoiceEnabled:         true,
	}
}

// User is the platform-agnostic representation of a message sender.
// ID is always derived from Platform and PlatformID (see UserID), so the
// pair uniquely identifies a user across the whole gateway.
type User struct {
	ID          string      `json:"id"`
	PlatformID  string      `json:"platform_id"`
	Platform    Platform    `json:"platform"`
	Username    string      `json:"username,omitempty"`
	FirstName   string      `json:"first_name,omitempty"`
	LastName    string      `json:"last_name,omitempty"`
	Role        UserRole    `json:"role"`
	IsBlocked   bool        `json:"is_blocked"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	LastSeen    time.Time   `json:"last_seen"`
}

// Attachment is a resolved media reference carried by a message. URL is
// directly fetchable; an empty URL means the file could not be resolved,
// never that the caller should try the raw file id.
type Attachment struct {
	ID       string      `json:"id"`
	Type     MessageType `json:"type"`
	URL      string      `json:"url"`
	FileName string      `json:"file_name,omitempty"`
	MimeType string      `json:"mime_type,omitempty"`
	Size     int64       `json:"size,omitempty"`
}

// Message is a normalized inbound chat message.
type Message struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Platform    Platform       `json:"platform"`
	Type        MessageType    `json:"type"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	Attachments []Attachment   `json:"attachments"`
	IsFromBot   bool           `json:"is_from_bot"`
	CreatedAt   time.Time      `json:"created_at"`
	Processed   bool           `json:"processed"`
}

// UserID derives the gateway-wide user identifier from a platform and the
// platform's native sender id. The derivation is deterministic: the same
// inputs always produce the same id.
func UserID(platform Platform, platformID string) string {
	return fmt.Sprintf("%s_%s", platform, platformID)
}

// MessageID derives the gateway-wide message identifier. nativeID is the
// platform's message id in string form; when the platform supplied none,
// callers pass "" and the id falls back to the clock reading in
// milliseconds so repeated parses of distinct idless updates stay unique.
func MessageID(platform Platform, nativeID string, now time.Time) string {
	if nativeID == "" {
		nativeID = fmt.Sprintf("%d", now.UnixMilli())
	}
	return fmt.Sprintf("%s_%s", platform, nativeID)
}
