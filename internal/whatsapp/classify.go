package whatsapp

import (
	"fmt"

	"github.com/rihlahq/crm-backend/internal/models"
)

// Classified is the storable form of an inbound message: the closed type
// tag, the body (literal text or a media placeholder), and the media id to
// resolve into a playable URL when the type carries one.
type Classified struct {
	Type    models.MessageType
	Body    string
	MediaID string
}

// Classify maps a provider message onto the closed MessageType set. Every
// known type has an explicit arm; anything else falls through to
// MessageTypeOther with a generic placeholder body so a new provider type
// can never be silently mis-stored.
func Classify(m *InboundMessage) Classified {
	switch m.Type {
	case "text":
		body := ""
		if m.Text != nil {
			body = m.Text.Body
		}
		return Classified{Type: models.MessageTypeText, Body: body}

	case "image":
		c := Classified{Type: models.MessageTypeImage, Body: "[Image Message]"}
		if m.Image != nil {
			c.MediaID = m.Image.ID
		}
		return c

	case "audio":
		c := Classified{Type: models.MessageTypeAudio, Body: "[Audio Message]"}
		if m.Audio != nil {
			c.MediaID = m.Audio.ID
		}
		return c

	case "video":
		c := Classified{Type: models.MessageTypeVideo, Body: "[Video Message]"}
		if m.Video != nil {
			c.MediaID = m.Video.ID
		}
		return c

	case "document":
		filename := "Unnamed"
		c := Classified{Type: models.MessageTypeDocument}
		if m.Document != nil {
			c.MediaID = m.Document.ID
			if m.Document.Filename != "" {
				filename = m.Document.Filename
			}
		}
		c.Body = fmt.Sprintf("[Document: %s]", filename)
		return c

	default:
		return Classified{
			Type: models.MessageTypeOther,
			Body: fmt.Sprintf("[%s Message]", m.Type),
		}
	}
}
