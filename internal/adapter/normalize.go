package adapter

import (
	"context"
	"strconv"
	"strings"

	"github.com/polygate-bot/polygate/internal/domain"
	"github.com/polygate-bot/polygate/internal/platform"
)

// handleUpdate converts one raw update into a domain message and publishes
// it. Any failure while processing a single update is absorbed here: the
// update is dropped, logged with sender/chat context, and never crashes the
// adapter or blocks the next update.
func (a *Adapter) handleUpdate(ctx context.Context, kind platform.UpdateKind, upd *platform.Update) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "panic while processing update",
				"kind", string(kind),
				"sender_id", upd.Sender.ID,
				"chat_id", upd.Chat.ID,
				"panic", r)
		}
	}()

	user := a.normalizeUser(upd.Sender)

	if !a.authorized(upd.Sender) {
		a.refuse(ctx, upd)
		return
	}

	msg := a.normalizeMessage(ctx, kind, upd)

	a.publish(domain.EventMessage, domain.MessageEvent{Message: msg, User: user})
}

// handleMemberJoin publishes one user_join event per joined member.
func (a *Adapter) handleMemberJoin(ctx context.Context, upd *platform.Update) {
	for _, member := range upd.Joined {
		user := a.normalizeUser(member)
		a.publish(domain.EventUserJoin, domain.MemberEvent{User: user})
	}
}

// handleMemberLeave publishes a user_leave event for the departed member.
func (a *Adapter) handleMemberLeave(ctx context.Context, upd *platform.Update) {
	if upd.Left == nil {
		return
	}
	user := a.normalizeUser(*upd.Left)
	a.publish(domain.EventUserLeave, domain.MemberEvent{User: user})
}

// authorized checks the sender against the configured allow-list. An empty
// allow-list admits everyone; otherwise the sender must be listed by native
// id or by username.
func (a *Adapter) authorized(sender platform.RawUser) bool {
	if len(a.allowed) == 0 {
		return true
	}
	if _, ok := a.allowed[sender.ID]; ok {
		return true
	}
	if sender.Username != "" {
		if _, ok := a.allowed[sender.Username]; ok {
			return true
		}
	}
	return false
}

// refuse replies to an unauthorized sender directly, bypassing the bridge,
// and drops the update.
func (a *Adapter) refuse(ctx context.Context, upd *platform.Update) {
	a.logger.WarnContext(ctx, "unauthorized sender rejected",
		"sender_id", upd.Sender.ID,
		"username", upd.Sender.Username,
		"chat_id", upd.Chat.ID)

	message := a.cfg.RefusalMessage
	if message == "" {
		message = "You are not authorized to use this bot."
	}
	if err := a.client.SendText(ctx, upd.Chat.ID, message, nil); err != nil {
		a.logger.ErrorContext(ctx, "failed to send refusal message",
			"chat_id", upd.Chat.ID,
			"error", err)
	}
}

// normalizeUser maps a raw sender to a fresh domain user. The adapter has
// no history, so all three timestamps are set to now and defaults apply;
// reconciliation against stored records is the persistence layer's job.
func (a *Adapter) normalizeUser(raw platform.RawUser) *domain.User {
	now := a.now()
	return &domain.User{
		ID:          domain.UserID(a.platform, raw.ID),
		PlatformID:  raw.ID,
		Platform:    a.platform,
		Username:    raw.Username,
		FirstName:   raw.FirstName,
		LastName:    raw.LastName,
		Role:        domain.RoleUser,
		IsBlocked:   false,
		Preferences: domain.DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
		LastSeen:    now,
	}
}

// normalizeMessage builds the base record and applies exactly one
// kind-specific normalization. It never fails: unresolvable media yields an
// attachment with an empty URL, and an unrecognized kind falls back to a
// text message with the configured unsupported-content marker.
func (a *Adapter) normalizeMessage(ctx context.Context, kind platform.UpdateKind, upd *platform.Update) *domain.Message {
	msg := &domain.Message{
		ID:       domain.MessageID(a.platform, upd.MessageID, a.now()),
		UserID:   domain.UserID(a.platform, upd.Sender.ID),
		Platform: a.platform,
		Metadata: map[string]any{
			"chat_id":    upd.Chat.ID,
			"chat_type":  upd.Chat.Type,
			"message_id": upd.MessageID,
		},
		Attachments: []domain.Attachment{},
		IsFromBot:   false,
		CreatedAt:   a.now(),
		Processed:   false,
	}

	switch kind {
	case platform.KindText:
		a.normalizeText(msg, upd)
	case platform.KindPhoto:
		a.normalizePhoto(ctx, msg, upd)
	case platform.KindAudio:
		a.normalizeAudio(ctx, msg, upd)
	case platform.KindDocument:
		a.normalizeDocument(ctx, msg, upd)
	case platform.KindSticker:
		a.normalizeSticker(ctx, msg, upd)
	case platform.KindLocation:
		a.normalizeLocation(msg, upd)
	case platform.KindContact:
		a.normalizeContact(msg, upd)
	default:
		a.normalizeUnsupported(msg)
	}

	return msg
}

func (a *Adapter) normalizeText(msg *domain.Message, upd *platform.Update) {
	msg.Type = domain.TypeText
	msg.Content = upd.Text
}

// normalizePhoto selects the highest-resolution variant when the platform
// offers several.
func (a *Adapter) normalizePhoto(ctx context.Context, msg *domain.Message, upd *platform.Update) {
	best := upd.Photo[0]
	for _, p := range upd.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}

	msg.Type = domain.TypeImage
	msg.Content = upd.Caption
	msg.Attachments = append(msg.Attachments, domain.Attachment{
		ID:   best.FileID,
		Type: domain.TypeImage,
		URL:  a.resolveFileURL(ctx, best.FileID, upd.Chat.ID),
		Size: best.Size,
	})
}

func (a *Adapter) normalizeAudio(ctx context.Context, msg *domain.Message, upd *platform.Update) {
	msg.Type = domain.TypeAudio
	msg.Attachments = append(msg.Attachments, domain.Attachment{
		ID:       upd.Audio.FileID,
		Type:     domain.TypeAudio,
		URL:      a.resolveFileURL(ctx, upd.Audio.FileID, upd.Chat.ID),
		MimeType: upd.Audio.MimeType,
		Size:     upd.Audio.Size,
	})
}

func (a *Adapter) normalizeDocument(ctx context.Context, msg *domain.Message, upd *platform.Update) {
	msg.Type = domain.TypeDocument
	msg.Content = upd.Caption
	msg.Attachments = append(msg.Attachments, domain.Attachment{
		ID:       upd.Document.FileID,
		Type:     domain.TypeDocument,
		URL:      a.resolveFileURL(ctx, upd.Document.FileID, upd.Chat.ID),
		FileName: upd.Document.FileName,
		MimeType: upd.Document.MimeType,
		Size:     upd.Document.Size,
	})
}

func (a *Adapter) normalizeSticker(ctx context.Context, msg *domain.Message, upd *platform.Update) {
	msg.Type = domain.TypeSticker
	msg.Content = upd.Sticker.Emoji
	msg.Attachments = append(msg.Attachments, domain.Attachment{
		ID:   upd.Sticker.FileID,
		Type: domain.TypeSticker,
		URL:  a.resolveFileURL(ctx, upd.Sticker.FileID, upd.Chat.ID),
	})
}

func (a *Adapter) normalizeLocation(msg *domain.Message, upd *platform.Update) {
	lat := strconv.FormatFloat(upd.Location.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(upd.Location.Longitude, 'f', -1, 64)

	msg.Type = domain.TypeLocation
	msg.Content = "Location: " + lat + ", " + lon
	msg.Metadata["latitude"] = upd.Location.Latitude
	msg.Metadata["longitude"] = upd.Location.Longitude
}

func (a *Adapter) normalizeContact(msg *domain.Message, upd *platform.Update) {
	name := strings.TrimSpace(upd.Contact.FirstName + " " + upd.Contact.LastName)

	msg.Type = domain.TypeContact
	msg.Content = "Contact: " + name
	msg.Metadata["phone_number"] = upd.Contact.PhoneNumber
	msg.Metadata["first_name"] = upd.Contact.FirstName
	msg.Metadata["last_name"] = upd.Contact.LastName
	if upd.Contact.UserID != "" {
		msg.Metadata["user_id"] = upd.Contact.UserID
	}
}

func (a *Adapter) normalizeUnsupported(msg *domain.Message) {
	message := a.cfg.UnsupportedMessage
	if message == "" {
		message = "[Unsupported message type]"
	}
	msg.Type = domain.TypeText
	msg.Content = message
}
