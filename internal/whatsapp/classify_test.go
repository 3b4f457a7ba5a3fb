package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/rihlahq/crm-backend/internal/models"
)

func TestClassify_MessageTypes(t *testing.T) {
	tests := []struct {
		name        string
		message     *InboundMessage
		wantType    models.MessageType
		wantBody    string
		wantMediaID string
	}{
		{
			name:     "text carries literal body",
			message:  &InboundMessage{Type: "text", Text: &TextContent{Body: "Hi"}},
			wantType: models.MessageTypeText,
			wantBody: "Hi",
		},
		{
			name:     "text without content yields empty body",
			message:  &InboundMessage{Type: "text"},
			wantType: models.MessageTypeText,
			wantBody: "",
		},
		{
			name:        "image placeholder",
			message:     &InboundMessage{Type: "image", Image: &MediaContent{ID: "media-1"}},
			wantType:    models.MessageTypeImage,
			wantBody:    "[Image Message]",
			wantMediaID: "media-1",
		},
		{
			name:        "audio placeholder",
			message:     &InboundMessage{Type: "audio", Audio: &MediaContent{ID: "media-2"}},
			wantType:    models.MessageTypeAudio,
			wantBody:    "[Audio Message]",
			wantMediaID: "media-2",
		},
		{
			name:        "video placeholder",
			message:     &InboundMessage{Type: "video", Video: &MediaContent{ID: "media-3"}},
			wantType:    models.MessageTypeVideo,
			wantBody:    "[Video Message]",
			wantMediaID: "media-3",
		},
		{
			name:        "document embeds filename",
			message:     &InboundMessage{Type: "document", Document: &DocumentContent{ID: "media-4", Filename: "quote.pdf"}},
			wantType:    models.MessageTypeDocument,
			wantBody:    "[Document: quote.pdf]",
			wantMediaID: "media-4",
		},
		{
			name:        "document without filename",
			message:     &InboundMessage{Type: "document", Document: &DocumentContent{ID: "media-5"}},
			wantType:    models.MessageTypeDocument,
			wantBody:    "[Document: Unnamed]",
			wantMediaID: "media-5",
		},
		{
			name:     "unknown type falls to other",
			message:  &InboundMessage{Type: "sticker"},
			wantType: models.MessageTypeOther,
			wantBody: "[sticker Message]",
		},
		{
			name:     "reaction type falls to other",
			message:  &InboundMessage{Type: "reaction"},
			wantType: models.MessageTypeOther,
			wantBody: "[reaction Message]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.message)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantBody, got.Body)
			assert.Equal(t, tt.wantMediaID, got.MediaID)
		})
	}
}

func TestClassify_MediaContentMissing(t *testing.T) {
	// A media-typed message without its content block still classifies;
	// there is just no media id to resolve
	got := Classify(&InboundMessage{Type: "image"})
	assert.Equal(t, models.MessageTypeImage, got.Type)
	assert.Equal(t, "[Image Message]", got.Body)
	assert.Empty(t, got.MediaID)
}
