package mailbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/config"
	"smart-mail-reply-go/internal/model"
)

// imapClient is the subset of *client.Client used by the gateway.
type imapClient interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	List(ref, name string, ch chan *imap.MailboxInfo) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Logout() error
}

type imapDialFunc func(addr string) (imapClient, error)

// IMAPGateway opens IMAP sessions over implicit TLS.
type IMAPGateway struct {
	addr     string
	user     string
	password string
	dial     imapDialFunc
}

// IMAPOption customises an IMAPGateway.
type IMAPOption func(*IMAPGateway)

// withIMAPDialer replaces the TLS dialer.
func withIMAPDialer(dial imapDialFunc) IMAPOption {
	return func(g *IMAPGateway) {
		g.dial = dial
	}
}

// NewIMAPGateway creates a new IMAP gateway
func NewIMAPGateway(cfg config.MailboxConfig, opts ...IMAPOption) *IMAPGateway {
	g := &IMAPGateway{
		addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		user:     cfg.User,
		password: cfg.Password,
		dial: func(addr string) (imapClient, error) {
			c, err := client.DialTLS(addr, nil)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connect dials and logs in.
func (g *IMAPGateway) Connect(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := g.dial(g.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server %s: %w", g.addr, err)
	}

	if err := c.Login(g.user, g.password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: IMAP login as %s: %v", model.ErrAuth, g.user, err)
	}

	logrus.WithField("addr", g.addr).Debug("IMAP session opened")
	return &imapSession{client: c}, nil
}

type imapSession struct {
	client imapClient
	folder string
}

func (s *imapSession) SelectFolder(ctx context.Context, name string) error {
	if _, err := s.client.Select(name, false); err != nil {
		if !s.folderExists(name) {
			return fmt.Errorf("%w: %s", model.ErrFolderNotFound, name)
		}
		return fmt.Errorf("failed to select %s: %w", name, err)
	}
	s.folder = name
	return nil
}

func (s *imapSession) folderExists(name string) bool {
	ch := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.client.List("", name, ch)
	}()

	found := false
	for info := range ch {
		if strings.EqualFold(info.Name, name) {
			found = true
		}
	}
	if err := <-done; err != nil {
		logrus.Warnf("Failed to list mailbox %s: %v", name, err)
	}
	return found
}

func (s *imapSession) ListUnseen(ctx context.Context) ([]Handle, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen messages: %w", err)
	}

	handles := make([]Handle, 0, len(uids))
	for _, uid := range uids {
		handles = append(handles, Handle(strconv.FormatUint(uint64(uid), 10)))
	}
	return handles, nil
}

func (s *imapSession) Fetch(ctx context.Context, h Handle) (model.InboundMessage, error) {
	seqset, err := uidSet(h)
	if err != nil {
		return model.InboundMessage{}, err
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		if fetched == nil {
			fetched = msg
		}
	}
	if err := <-done; err != nil {
		return model.InboundMessage{}, fmt.Errorf("failed to fetch message %s: %w", h, err)
	}
	if fetched == nil {
		return model.InboundMessage{}, fmt.Errorf("message %s not found", h)
	}

	body := fetched.GetBody(section)
	if body == nil {
		return model.InboundMessage{}, errors.New("server did not return a message body")
	}

	// Seen before decoding so an undecodable message is not fetched on every run.
	if err := s.MarkSeen(ctx, h); err != nil {
		return model.InboundMessage{}, err
	}

	msg, err := Decode(body)
	if err != nil {
		return model.InboundMessage{}, fmt.Errorf("failed to decode message %s: %w", h, err)
	}
	msg.Handle = string(h)
	return msg, nil
}

func (s *imapSession) MarkSeen(ctx context.Context, h Handle) error {
	seqset, err := uidSet(h)
	if err != nil {
		return err
	}
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := s.client.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("failed to mark message %s as seen: %w", h, err)
	}
	return nil
}

// Close logs out of the session.
func (s *imapSession) Close() error {
	return s.client.Logout()
}

func uidSet(h Handle) (*imap.SeqSet, error) {
	uid, err := strconv.ParseUint(string(h), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid IMAP handle %q: %w", h, err)
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))
	return seqset, nil
}
