package telegram

import (
	"strconv"

	"github.com/go-telegram/bot/models"

	"github.com/polygate-bot/polygate/internal/platform"
)

// convertMessage maps an SDK message to the platform-neutral update shape.
// Pure value conversion; content classification happens via Update.Kind.
func convertMessage(m *models.Message) *platform.Update {
	upd := &platform.Update{
		MessageID: strconv.Itoa(m.ID),
		Chat: platform.RawChat{
			ID:   strconv.FormatInt(m.Chat.ID, 10),
			Type: string(m.Chat.Type),
		},
		Text:    m.Text,
		Caption: m.Caption,
	}

	if m.From != nil {
		upd.Sender = convertUser(*m.From)
	}

	for _, p := range m.Photo {
		upd.Photo = append(upd.Photo, platform.PhotoSize{
			FileID: p.FileID,
			Width:  p.Width,
			Height: p.Height,
			Size:   int64(p.FileSize),
		})
	}

	switch {
	case m.Voice != nil:
		upd.Audio = &platform.FileRef{
			FileID:   m.Voice.FileID,
			MimeType: m.Voice.MimeType,
			Size:     int64(m.Voice.FileSize),
		}
	case m.Audio != nil:
		upd.Audio = &platform.FileRef{
			FileID:   m.Audio.FileID,
			FileName: m.Audio.FileName,
			MimeType: m.Audio.MimeType,
			Size:     int64(m.Audio.FileSize),
		}
	}

	if m.Document != nil {
		upd.Document = &platform.FileRef{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
			MimeType: m.Document.MimeType,
			Size:     int64(m.Document.FileSize),
		}
	}

	if m.Sticker != nil {
		upd.Sticker = &platform.StickerRef{
			FileID: m.Sticker.FileID,
			Emoji:  m.Sticker.Emoji,
		}
	}

	if m.Location != nil {
		upd.Location = &platform.GeoPoint{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	}

	if m.Contact != nil {
		contact := &platform.ContactRef{
			PhoneNumber: m.Contact.PhoneNumber,
			FirstName:   m.Contact.FirstName,
			LastName:    m.Contact.LastName,
		}
		if m.Contact.UserID != 0 {
			contact.UserID = strconv.FormatInt(m.Contact.UserID, 10)
		}
		upd.Contact = contact
	}

	for _, member := range m.NewChatMembers {
		upd.Joined = append(upd.Joined, convertUser(member))
	}
	if m.LeftChatMember != nil {
		left := convertUser(*m.LeftChatMember)
		upd.Left = &left
	}

	return upd
}

func convertUser(u models.User) platform.RawUser {
	return platform.RawUser{
		ID:        strconv.FormatInt(u.ID, 10),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}
