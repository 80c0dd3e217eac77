package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/jaytaylor/html2text"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/model"
)

// Decode parses a raw RFC 5322 message. Header words are decoded with their
// declared charset. The body is the first text/plain part, falling back to
// the first text/html part converted to text, and is empty when neither can
// be decoded. Header lines that are not fields are dropped so one broken
// line does not lose the whole message.
func Decode(r io.Reader) (model.InboundMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.InboundMessage{}, fmt.Errorf("failed to read message: %w", err)
	}

	entity, err := message.Read(bytes.NewReader(data))
	if err != nil && !tolerable(err) {
		logrus.Warnf("Dropping malformed header lines: %v", err)
		entity, err = message.Read(bytes.NewReader(dropBrokenHeaderLines(data)))
	}
	if err != nil && !tolerable(err) {
		return model.InboundMessage{}, fmt.Errorf("failed to read message: %w", err)
	}

	h := mail.Header{Header: entity.Header}
	msg := model.InboundMessage{}

	if subject, err := h.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = h.Get("Subject")
	}

	if from, err := h.Text("From"); err == nil {
		msg.Sender = from
	} else {
		msg.Sender = h.Get("From")
	}
	if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 {
		msg.SenderAddress = addrs[0].Address
	}

	if id, err := h.MessageID(); err == nil && id != "" {
		msg.MessageID = "<" + id + ">"
	}

	plain, html := firstTextParts(entity)
	switch {
	case plain != "":
		msg.Body = plain
	case html != "":
		text, err := html2text.FromString(html, html2text.Options{OmitLinks: true})
		if err != nil {
			logrus.Warnf("Failed to convert html body to text: %v", err)
			break
		}
		msg.Body = text
	}
	msg.Body = strings.TrimSpace(msg.Body)

	return msg, nil
}

func firstTextParts(entity *message.Entity) (plain, html string) {
	var havePlain, haveHTML bool

	walkErr := entity.Walk(func(path []int, part *message.Entity, err error) error {
		if err != nil && !tolerable(err) {
			return nil
		}
		if havePlain {
			return nil
		}

		t, _, _ := part.Header.ContentType()
		t = strings.ToLower(t)
		if strings.HasPrefix(t, "multipart/") {
			return nil
		}
		if disp, _, _ := part.Header.ContentDisposition(); disp == "attachment" {
			return nil
		}

		switch {
		case t == "" || t == "text/plain":
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil
			}
			plain, havePlain = string(body), true
		case t == "text/html" && !haveHTML:
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil
			}
			html, haveHTML = string(body), true
		}
		return nil
	})
	if walkErr != nil {
		logrus.Debugf("Stopped walking message parts: %v", walkErr)
	}
	return plain, html
}

// dropBrokenHeaderLines keeps only header lines that are a field or the
// continuation of one. The body is left as is.
func dropBrokenHeaderLines(data []byte) []byte {
	header, body := data, []byte(nil)
	for _, sep := range []string{"\r\n\r\n", "\n\n"} {
		if i := bytes.Index(data, []byte(sep)); i >= 0 {
			header, body = data[:i], data[i:]
			break
		}
	}

	var out bytes.Buffer
	kept := false
	for _, line := range strings.SplitAfter(string(header), "\n") {
		trimmed := strings.TrimRight(line, "\r\n")
		switch {
		case trimmed == "":
			continue
		case trimmed[0] == ' ' || trimmed[0] == '\t':
			if !kept {
				continue
			}
		case !isHeaderField(trimmed):
			kept = false
			continue
		default:
			kept = true
		}
		out.WriteString(trimmed)
		out.WriteString("\r\n")
	}
	out.WriteString("\r\n")
	out.Write(bytes.TrimLeft(body, "\r\n"))
	return out.Bytes()
}

func isHeaderField(line string) bool {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return false
	}
	for _, c := range []byte(line[:i]) {
		if c <= ' ' || c >= 0x7f {
			return false
		}
	}
	return true
}

// tolerable reports errors after which go-message still returns a usable entity.
func tolerable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
