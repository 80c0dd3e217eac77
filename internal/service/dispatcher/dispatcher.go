// Package dispatcher sends generated replies back to customers.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"smart-mail-reply-go/internal/model"
)

// SubjectPrefix is prepended to the original subject.
const SubjectPrefix = "Re: "

// Dispatcher delivers replies. Send reports failure as false and never
// retries; Verify checks credentials and fails with model.ErrAuth when they
// are rejected.
type Dispatcher interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, reply model.OutboundReply) bool
}

// ReplyTo builds the reply for an inbound message.
func ReplyTo(msg model.InboundMessage, answer string) model.OutboundReply {
	return model.OutboundReply{
		To:        msg.ReplyTo(),
		Subject:   SubjectPrefix + msg.Subject,
		Body:      answer,
		InReplyTo: msg.MessageID,
	}
}

// BuildMessage renders reply as a plain-text RFC 5322 message.
func BuildMessage(from string, reply model.OutboundReply, now time.Time) ([]byte, error) {
	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	toAddr, err := mail.ParseAddress(reply.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", reply.To, err)
	}

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{fromAddr})
	h.SetAddressList("To", []*mail.Address{toAddr})
	h.SetSubject(reply.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}
	if id := strings.Trim(reply.InReplyTo, "<> "); id != "" {
		h.SetMsgIDList("In-Reply-To", []string{id})
		h.SetMsgIDList("References", []string{id})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, reply.Body); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}
