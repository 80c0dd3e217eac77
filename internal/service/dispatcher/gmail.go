package dispatcher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"smart-mail-reply-go/internal/model"
)

type gmailSender interface {
	Profile(ctx context.Context) error
	SendRaw(ctx context.Context, raw string) error
}

// GmailDispatcher sends replies through the Gmail API
type GmailDispatcher struct {
	api  gmailSender
	from string
	now  func() time.Time
}

// NewGmailDispatcher creates a dispatcher sending as from.
func NewGmailDispatcher(ctx context.Context, from string, opts ...option.ClientOption) (*GmailDispatcher, error) {
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &GmailDispatcher{
		api:  &gmailAPISender{srv: srv},
		from: from,
		now:  time.Now,
	}, nil
}

// Verify tests the Gmail API connection
func (d *GmailDispatcher) Verify(ctx context.Context) error {
	if err := d.api.Profile(ctx); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
			return fmt.Errorf("%w: Gmail API: %v", model.ErrAuth, err)
		}
		return fmt.Errorf("failed to test Gmail API connection: %w", err)
	}
	return nil
}

func (d *GmailDispatcher) Send(ctx context.Context, reply model.OutboundReply) bool {
	log := logrus.WithField("to", reply.To)

	raw, err := BuildMessage(d.from, reply, d.now())
	if err != nil {
		log.Warnf("Failed to build reply: %v", err)
		return false
	}

	if err := d.api.SendRaw(ctx, base64.URLEncoding.EncodeToString(raw)); err != nil {
		log.Warnf("Failed to send reply: %v", err)
		return false
	}

	log.Info("Reply sent")
	return true
}

type gmailAPISender struct {
	srv *gmail.Service
}

func (g *gmailAPISender) Profile(ctx context.Context) error {
	_, err := g.srv.Users.GetProfile("me").Context(ctx).Do()
	return err
}

func (g *gmailAPISender) SendRaw(ctx context.Context, raw string) error {
	_, err := g.srv.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	return err
}
