package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/polygate-bot/polygate/internal/platform"
)

func baseMessage() *models.Message {
	return &models.Message{
		ID:   100,
		Chat: models.Chat{ID: 7, Type: models.ChatTypePrivate},
		From: &models.User{ID: 42, Username: "tester", FirstName: "Test"},
	}
}

func TestConvertMessage_Identifiers(t *testing.T) {
	t.Parallel()

	m := baseMessage()
	m.Text = "hi"

	upd := convertMessage(m)

	if upd.MessageID != "100" {
		t.Errorf("message id = %q, want 100", upd.MessageID)
	}
	if upd.Chat.ID != "7" || upd.Chat.Type != "private" {
		t.Errorf("chat = %+v, want id 7 type private", upd.Chat)
	}
	if upd.Sender.ID != "42" || upd.Sender.Username != "tester" {
		t.Errorf("sender = %+v", upd.Sender)
	}
	if got := upd.Kind(); got != platform.KindText {
		t.Errorf("kind = %s, want text", got)
	}
}

func TestConvertMessage_Photo(t *testing.T) {
	t.Parallel()

	m := baseMessage()
	m.Caption = "sunset"
	m.Photo = []models.PhotoSize{
		{FileID: "small", Width: 90, Height: 90, FileSize: 100},
		{FileID: "big", Width: 800, Height: 600, FileSize: 9000},
	}

	upd := convertMessage(m)

	if got := upd.Kind(); got != platform.KindPhoto {
		t.Fatalf("kind = %s, want photo", got)
	}
	if upd.Caption != "sunset" {
		t.Errorf("caption = %q", upd.Caption)
	}
	if len(upd.Photo) != 2 {
		t.Fatalf("got %d photo sizes, want all variants carried over", len(upd.Photo))
	}
	if upd.Photo[1].FileID != "big" || upd.Photo[1].Size != 9000 {
		t.Errorf("photo variant = %+v", upd.Photo[1])
	}
}

func TestConvertMessage_VoiceTakesPrecedenceOverAudio(t *testing.T) {
	t.Parallel()

	m := baseMessage()
	m.Voice = &models.Voice{FileID: "v1", MimeType: "audio/ogg", FileSize: 512}
	m.Audio = &models.Audio{FileID: "a1", MimeType: "audio/mpeg"}

	upd := convertMessage(m)

	if upd.Audio == nil || upd.Audio.FileID != "v1" {
		t.Errorf("audio ref = %+v, want the voice note", upd.Audio)
	}
	if got := upd.Kind(); got != platform.KindAudio {
		t.Errorf("kind = %s, want audio", got)
	}
}

func TestConvertMessage_Document(t *testing.T) {
	t.Parallel()

	m := baseMessage()
	m.Document = &models.Document{
		FileID:   "d1",
		FileName: "report.pdf",
		MimeType: "application/pdf",
		FileSize: 2048,
	}

	upd := convertMessage(m)

	if got := upd.Kind(); got != platform.KindDocument {
		t.Fatalf("kind = %s, want document", got)
	}
	doc := upd.Document
	if doc.FileName != "report.pdf" || doc.MimeType != "application/pdf" || doc.Size != 2048 {
		t.Errorf("document = %+v", doc)
	}
}

func TestConvertMessage_Contact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		contact    models.Contact
		wantUserID string
	}{
		{
			name:       "with native user id",
			contact:    models.Contact{PhoneNumber: "+155", FirstName: "Ada", UserID: 271828},
			wantUserID: "271828",
		},
		{
			name:       "without native user id",
			contact:    models.Contact{PhoneNumber: "+155", FirstName: "Ada"},
			wantUserID: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := baseMessage()
			contact := tt.contact
			m.Contact = &contact

			upd := convertMessage(m)

			if got := upd.Kind(); got != platform.KindContact {
				t.Fatalf("kind = %s, want contact", got)
			}
			if upd.Contact.UserID != tt.wantUserID {
				t.Errorf("contact user id = %q, want %q", upd.Contact.UserID, tt.wantUserID)
			}
		})
	}
}

func TestConvertMessage_Membership(t *testing.T) {
	t.Parallel()

	m := baseMessage()
	m.NewChatMembers = []models.User{{ID: 1, FirstName: "One"}, {ID: 2, FirstName: "Two"}}

	upd := convertMessage(m)
	if got := upd.Kind(); got != platform.KindMemberJoin {
		t.Fatalf("kind = %s, want member_join", got)
	}
	if len(upd.Joined) != 2 || upd.Joined[0].ID != "1" || upd.Joined[1].ID != "2" {
		t.Errorf("joined = %+v", upd.Joined)
	}

	m = baseMessage()
	m.LeftChatMember = &models.User{ID: 3, FirstName: "Three"}

	upd = convertMessage(m)
	if got := upd.Kind(); got != platform.KindMemberLeave {
		t.Fatalf("kind = %s, want member_leave", got)
	}
	if upd.Left == nil || upd.Left.ID != "3" {
		t.Errorf("left = %+v", upd.Left)
	}
}

func TestConvertMessage_EmptyMessageIsUnknown(t *testing.T) {
	t.Parallel()

	upd := convertMessage(baseMessage())
	if got := upd.Kind(); got != platform.KindUnknown {
		t.Errorf("kind = %s, want unknown for empty message", got)
	}
}

func TestTelegramChatID(t *testing.T) {
	t.Parallel()

	if got := telegramChatID("42"); got != int64(42) {
		t.Errorf("numeric chat id = %v (%T), want int64 42", got, got)
	}
	if got := telegramChatID("@channelname"); got != "@channelname" {
		t.Errorf("channel chat id = %v, want passthrough string", got)
	}
}
