// Package platform defines the narrow capability interface a native chat
// client must satisfy, plus the platform-neutral shapes of raw inbound
// updates. Concrete clients (internal/platform/telegram, ...) translate
// their SDK's wire types into these shapes mechanically; all business
// normalization happens in internal/adapter, which depends only on this
// package.
package platform

import "context"

// Mode selects how a client receives updates.
type Mode string

const (
	ModePolling Mode = "polling"
	ModeWebhook Mode = "webhook"
)

// UpdateKind identifies which content kind a raw update carries. Platform
// updates are assumed to carry at most one content kind.
type UpdateKind string

const (
	KindText        UpdateKind = "text"
	KindPhoto       UpdateKind = "photo"
	KindAudio       UpdateKind = "audio"
	KindDocument    UpdateKind = "document"
	KindSticker     UpdateKind = "sticker"
	KindLocation    UpdateKind = "location"
	KindContact     UpdateKind = "contact"
	KindMemberJoin  UpdateKind = "member_join"
	KindMemberLeave UpdateKind = "member_leave"
	KindUnknown     UpdateKind = "unknown"
)

// RawUser is the sender (or member) portion of a raw update, with native
// identifiers already stringified.
type RawUser struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	IsBot     bool
}

// RawChat identifies the conversation an update belongs to.
type RawChat struct {
	ID   string
	Type string // private, group, supergroup, channel
}

// PhotoSize is one resolution variant of an inbound photo.
type PhotoSize struct {
	FileID string
	Width  int
	Height int
	Size   int64
}

// FileRef is an unresolved media reference (audio, voice, document).
type FileRef struct {
	FileID   string
	FileName string
	MimeType string
	Size     int64
}

// StickerRef is an inbound sticker reference.
type StickerRef struct {
	FileID string
	Emoji  string
}

// GeoPoint is an inbound location payload.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// ContactRef is an inbound shared contact.
type ContactRef struct {
	PhoneNumber string
	FirstName   string
	LastName    string
	UserID      string // native id of the contact itself, if shared
}

// Update is one raw inbound event, already deserialized by the native
// client and stripped of platform-specific types. Exactly one of the
// content fields is populated for message updates; Joined/Left are set for
// membership updates instead.
type Update struct {
	MessageID string
	Chat      RawChat
	Sender    RawUser

	Text     string
	Caption  string
	Photo    []PhotoSize
	Audio    *FileRef
	Document *FileRef
	Sticker  *StickerRef
	Location *GeoPoint
	Contact  *ContactRef

	Joined []RawUser
	Left   *RawUser
}

// Kind reports which content kind the update carries, using the fixed
// precedence the adapter dispatches on.
func (u *Update) Kind() UpdateKind {
	switch {
	case len(u.Joined) > 0:
		return KindMemberJoin
	case u.Left != nil:
		return KindMemberLeave
	case u.Text != "":
		return KindText
	case len(u.Photo) > 0:
		return KindPhoto
	case u.Audio != nil:
		return KindAudio
	case u.Document != nil:
		return KindDocument
	case u.Sticker != nil:
		return KindSticker
	case u.Location != nil:
		return KindLocation
	case u.Contact != nil:
		return KindContact
	default:
		return KindUnknown
	}
}

// Command is one entry of the bot's command menu.
type Command struct {
	Name        string
	Description string
}

// SendOptions tunes an outbound text send. The zero value means "use the
// platform's plain defaults"; adapters normally send with DisablePreview
// and Markdown set.
type SendOptions struct {
	DisablePreview bool
	Markdown       bool
}

// UpdateHandler receives one raw update of the kind it was registered for.
type UpdateHandler func(ctx context.Context, update *Update)

// ErrorHandler receives client-level failures (delivery errors, auth
// failures) that are not tied to a single update.
type ErrorHandler func(err error)

// Client is the capability surface a native chat client exposes to the
// adapter. Handler registration (OnUpdate, OnError) must happen before
// Launch; Launch does not block. Stop releases polling or webhook resources
// and is safe to call once after a successful Launch.
type Client interface {
	SendText(ctx context.Context, chatID, text string, opts *SendOptions) error
	SendPhoto(ctx context.Context, chatID, photoRef, caption string) error
	SendTyping(ctx context.Context, chatID string) error
	FileURL(ctx context.Context, fileID string) (string, error)
	SetCommands(ctx context.Context, commands []Command) error
	OnUpdate(kind UpdateKind, handler UpdateHandler)
	OnError(handler ErrorHandler)
	Launch(ctx context.Context, mode Mode) error
	Stop(ctx context.Context) error
}
