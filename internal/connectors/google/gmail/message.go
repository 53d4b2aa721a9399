package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ToMailMessage converts a full-format Gmail message.
func ToMailMessage(msg *gmail.Message) domain.MailMessage {
	out := domain.MailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.InternalDate > 0 {
		out.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload == nil {
		return out
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			out.Subject = h.Value
		case "from":
			out.From = h.Value
		}
	}

	walkParts(msg.Payload, &out)
	return out
}

// walkParts collects the first text/plain and text/html bodies, skipping
// attachments.
func walkParts(part *gmail.MessagePart, out *domain.MailMessage) {
	if part == nil {
		return
	}
	if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		mime := strings.ToLower(part.MimeType)
		switch {
		case strings.HasPrefix(mime, "text/plain") && out.PlainBody == "":
			out.PlainBody = decodeBody(part.Body.Data)
		case strings.HasPrefix(mime, "text/html") && out.HTMLBody == "":
			out.HTMLBody = decodeBody(part.Body.Data)
		}
	}
	for _, p := range part.Parts {
		walkParts(p, out)
	}
}

// decodeBody decodes base64url data, padded or not.
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b)
	}
	return ""
}
