// Package eml reads RFC 5322 message files (.eml) into mail messages the
// reservation extractor understands.
package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// Parse reads one message. The Message-ID header becomes the message ID.
func Parse(r io.Reader) (*domain.MailMessage, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	out := &domain.MailMessage{
		ID:      strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		From:    decodeHeader(msg.Header.Get("From")),
	}
	if date, err := msg.Header.Date(); err == nil {
		out.ReceivedAt = date.UTC()
	}

	if err := walk(msg.Header, msg.Body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// header is satisfied by mail.Header and by multipart part headers.
type header interface {
	Get(key string) string
}

// walk keeps the first text/plain and text/html bodies, descending into
// multipart containers and skipping attachments.
func walk(h header, body io.Reader, out *domain.MailMessage) error {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if params["boundary"] == "" {
			return nil
		}
		mr := multipart.NewReader(body, params["boundary"])
		for {
			part, err := mr.NextRawPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: reading multipart: %v", domain.ErrInvalidInput, err)
			}
			err = walk(part.Header, part, out)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	if disp, _, _ := mime.ParseMediaType(h.Get("Content-Disposition")); disp == "attachment" {
		return nil
	}

	switch {
	case mediaType == "text/plain" && out.PlainBody == "":
		text, err := decodeBody(h.Get("Content-Transfer-Encoding"), body)
		if err != nil {
			return err
		}
		out.PlainBody = text
	case mediaType == "text/html" && out.HTMLBody == "":
		text, err := decodeBody(h.Get("Content-Transfer-Encoding"), body)
		if err != nil {
			return err
		}
		out.HTMLBody = text
	}
	return nil
}

func decodeBody(encoding string, body io.Reader) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	case "base64":
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("%w: reading body: %v", domain.ErrInvalidInput, err)
		}
		clean := bytes.Map(func(r rune) rune {
			if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, raw)
		decoded, err := base64.StdEncoding.DecodeString(string(clean))
		if err != nil {
			return "", fmt.Errorf("%w: decoding base64 body: %v", domain.ErrInvalidInput, err)
		}
		return string(decoded), nil
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrInvalidInput, err)
	}
	return string(b), nil
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value when
// decoding fails.
func decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}
