package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/mailtriage/mailtriage/internal/validate"
)

// parsedMessage holds the fields ingestion needs from one RFC 5322 message.
type parsedMessage struct {
	Subject string
	From    string
	To      string
	Body    string
}

// parseMessage extracts headers and the readable body from a raw message.
// Transfer encodings and charsets are decoded to UTF-8. A text/plain part
// wins over text/html; HTML-only bodies are reduced to text.
func parseMessage(raw []byte) (parsedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return parsedMessage{}, fmt.Errorf("read message: %w", err)
	}
	defer mr.Close()

	p := parsedMessage{
		From: firstAddress(&mr.Header, "From"),
		To:   firstAddress(&mr.Header, "To"),
	}
	if subject, err := mr.Header.Subject(); err == nil {
		p.Subject = strings.TrimSpace(subject)
	} else {
		p.Subject = strings.TrimSpace(mr.Header.Get("Subject"))
	}

	var plain, html string
	for plain == "" {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return p, fmt.Errorf("next part: %w", err)
		}
		if part == nil {
			continue
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, err := h.ContentType()
		if err != nil || mediaType == "" {
			mediaType = "text/plain"
		}
		if mediaType != "text/plain" && mediaType != "text/html" {
			continue
		}

		text, err := readBody(part.Body)
		if err != nil {
			return p, err
		}
		if mediaType == "text/html" {
			if html == "" {
				html = text
			}
			continue
		}
		plain = text
	}

	switch {
	case plain != "":
		p.Body = strings.TrimSpace(plain)
	case html != "":
		p.Body = validate.StripHTML(html)
	}
	return p, nil
}

func firstAddress(h *mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	return addrs[0].Address
}

// readBody caps a decoded part at the largest body ingestion accepts,
// plus one byte so oversize is still detectable.
func readBody(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, validate.MaxBodyLength+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(b), nil
}
