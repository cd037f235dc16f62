// Package draft turns AI-drafted replies into RFC 5322 messages that any
// mail client can open and send.
package draft

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/model"
)

// ErrNoRecipient is returned when the original email has no sender
// address to reply to.
var ErrNoRecipient = errors.New("email has no sender address")

// ErrEmptyDraft is returned when there is no reply text to export.
var ErrEmptyDraft = errors.New("draft reply is empty")

// Message is a plain-text reply ready to be written out.
type Message struct {
	FromName string
	FromAddr string
	ToName   string
	ToAddr   string
	Subject  string
	Date     time.Time
	Body     string
}

// ReplySubject prefixes subject with "Re: " unless it already has one.
func ReplySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = adapter.NoSubject
	}
	if len(subject) >= 3 && strings.EqualFold(subject[:3], "re:") {
		return subject
	}
	return "Re: " + subject
}

// FromEmail builds a reply to rec from user. body is the reply text; when
// empty the backend's stored draft is used.
func FromEmail(user *model.User, rec model.BackendEmail, body string) (Message, error) {
	if rec.SenderEmail == nil || strings.TrimSpace(*rec.SenderEmail) == "" {
		return Message{}, ErrNoRecipient
	}
	if strings.TrimSpace(body) == "" && rec.DraftReply != nil {
		body = *rec.DraftReply
	}
	if strings.TrimSpace(body) == "" {
		return Message{}, ErrEmptyDraft
	}

	m := Message{
		ToAddr: strings.TrimSpace(*rec.SenderEmail),
		Date:   time.Now(),
		Body:   body,
	}
	if rec.SenderName != nil {
		m.ToName = *rec.SenderName
	}
	if rec.Subject != nil {
		m.Subject = ReplySubject(*rec.Subject)
	} else {
		m.Subject = ReplySubject("")
	}
	if user != nil {
		m.FromName = user.Name
		m.FromAddr = user.Email
	}
	return m, nil
}

// WriteEML writes m as a single-part text/plain message.
func WriteEML(w io.Writer, m Message) error {
	var h mail.Header
	h.SetDate(m.Date)
	if m.FromAddr != "" {
		h.SetAddressList("From", []*mail.Address{{Name: m.FromName, Address: m.FromAddr}})
	}
	h.SetAddressList("To", []*mail.Address{{Name: m.ToName, Address: m.ToAddr}})
	h.SetSubject(m.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating message id: %w", err)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(body, m.Body); err != nil {
		body.Close()
		return fmt.Errorf("writing message body: %w", err)
	}
	return body.Close()
}

// ExportFile writes m to path, replacing any existing file.
func ExportFile(path string, m Message) error {
	var buf bytes.Buffer
	if err := WriteEML(&buf, m); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadEML parses a message written by WriteEML (or any mail client) back
// into a Message, keeping the first text/plain part as the body.
func ReadEML(r io.Reader) (Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return Message{}, fmt.Errorf("parsing message: %w", err)
	}
	defer mr.Close()

	var m Message
	if m.Date, err = mr.Header.Date(); err != nil {
		return Message{}, fmt.Errorf("parsing Date: %w", err)
	}
	if m.Subject, err = mr.Header.Subject(); err != nil {
		return Message{}, fmt.Errorf("parsing Subject: %w", err)
	}
	if from, _ := mr.Header.AddressList("From"); len(from) > 0 {
		m.FromName, m.FromAddr = from[0].Name, from[0].Address
	}
	if to, _ := mr.Header.AddressList("To"); len(to) > 0 {
		m.ToName, m.ToAddr = to[0].Name, to[0].Address
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Message{}, fmt.Errorf("reading part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return Message{}, fmt.Errorf("reading body: %w", err)
		}
		m.Body = string(body)
		break
	}

	return m, nil
}
