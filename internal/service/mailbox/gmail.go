package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"smart-mail-reply-go/internal/model"
)

const unreadLabel = "UNREAD"

// gmailAPI is the subset of the Gmail service used by the gateway.
type gmailAPI interface {
	Profile(ctx context.Context) error
	Labels(ctx context.Context) ([]*gmail.Label, error)
	ListUnread(ctx context.Context, labelID string) ([]string, error)
	Raw(ctx context.Context, id string) (string, error)
	RemoveLabels(ctx context.Context, id string, labels ...string) error
}

// GmailGateway reads a Gmail mailbox through the Gmail API. Labels stand in
// for folders.
type GmailGateway struct {
	newAPI func(ctx context.Context) (gmailAPI, error)
}

// NewGmailGateway creates a gateway for userEmail ("me" when empty).
func NewGmailGateway(userEmail string, opts ...option.ClientOption) *GmailGateway {
	if userEmail == "" {
		userEmail = "me"
	}
	return &GmailGateway{
		newAPI: func(ctx context.Context) (gmailAPI, error) {
			srv, err := gmail.NewService(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("failed to create Gmail service: %w", err)
			}
			return &gmailService{srv: srv, user: userEmail}, nil
		},
	}
}

func (g *GmailGateway) Connect(ctx context.Context) (Session, error) {
	api, err := g.newAPI(ctx)
	if err != nil {
		return nil, err
	}
	if err := api.Profile(ctx); err != nil {
		if isGoogleAuthError(err) {
			return nil, fmt.Errorf("%w: Gmail API: %v", model.ErrAuth, err)
		}
		return nil, fmt.Errorf("failed to reach Gmail API: %w", err)
	}
	return &gmailSession{api: api, labelID: "INBOX"}, nil
}

type gmailSession struct {
	api     gmailAPI
	labelID string
}

func (s *gmailSession) SelectFolder(ctx context.Context, name string) error {
	if strings.EqualFold(name, "INBOX") {
		s.labelID = "INBOX"
		return nil
	}

	labels, err := s.api.Labels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) || l.Id == name {
			s.labelID = l.Id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", model.ErrFolderNotFound, name)
}

func (s *gmailSession) ListUnseen(ctx context.Context) ([]Handle, error) {
	ids, err := s.api.ListUnread(ctx, s.labelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}
	handles := make([]Handle, 0, len(ids))
	// Gmail lists newest first; process in arrival order.
	for i := len(ids) - 1; i >= 0; i-- {
		handles = append(handles, Handle(ids[i]))
	}
	return handles, nil
}

func (s *gmailSession) Fetch(ctx context.Context, h Handle) (model.InboundMessage, error) {
	raw, err := s.api.Raw(ctx, string(h))
	if err != nil {
		return model.InboundMessage{}, fmt.Errorf("failed to get message %s: %w", h, err)
	}

	if err := s.MarkSeen(ctx, h); err != nil {
		return model.InboundMessage{}, err
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return model.InboundMessage{}, fmt.Errorf("failed to decode message %s: %w", h, err)
	}

	msg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return model.InboundMessage{}, fmt.Errorf("failed to decode message %s: %w", h, err)
	}
	msg.Handle = string(h)
	return msg, nil
}

func (s *gmailSession) MarkSeen(ctx context.Context, h Handle) error {
	if err := s.api.RemoveLabels(ctx, string(h), unreadLabel); err != nil {
		return fmt.Errorf("failed to mark message %s as read: %w", h, err)
	}
	return nil
}

// Close is a no-op for the Gmail API
func (s *gmailSession) Close() error {
	return nil
}

type gmailService struct {
	srv  *gmail.Service
	user string
}

func (g *gmailService) Profile(ctx context.Context) error {
	_, err := g.srv.Users.GetProfile(g.user).Context(ctx).Do()
	return err
}

func (g *gmailService) Labels(ctx context.Context) ([]*gmail.Label, error) {
	resp, err := g.srv.Users.Labels.List(g.user).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

func (g *gmailService) ListUnread(ctx context.Context, labelID string) ([]string, error) {
	var ids []string
	err := g.srv.Users.Messages.List(g.user).
		LabelIds(labelID).
		Q("is:unread").
		Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
			for _, m := range resp.Messages {
				ids = append(ids, m.Id)
			}
			return nil
		})
	return ids, err
}

func (g *gmailService) Raw(ctx context.Context, id string) (string, error) {
	msg, err := g.srv.Users.Messages.Get(g.user, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return msg.Raw, nil
}

func (g *gmailService) RemoveLabels(ctx context.Context, id string, labels ...string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: labels}
	_, err := g.srv.Users.Messages.Modify(g.user, id, req).Context(ctx).Do()
	return err
}

func isGoogleAuthError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden
	}
	var rerr *oauth2.RetrieveError
	return errors.As(err, &rerr)
}
