package dispatcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/config"
	"smart-mail-reply-go/internal/model"
)

// smtpClient is the subset of *smtp.Client used by SMTPDispatcher.
type smtpClient interface {
	StartTLS(config *tls.Config) error
	Auth(a sasl.Client) error
	SendMail(from string, to []string, r io.Reader) error
	Quit() error
	Close() error
}

// SMTPDispatcher sends each reply over its own STARTTLS session.
type SMTPDispatcher struct {
	host     string
	addr     string
	user     string
	password string
	from     string
	timeout  time.Duration
	dial     func(addr string) (smtpClient, error)
	now      func() time.Time
}

// NewSMTPDispatcher creates a new SMTP dispatcher. The sender defaults to the login user.
func NewSMTPDispatcher(cfg config.SMTPConfig) *SMTPDispatcher {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	d := &SMTPDispatcher{
		host:     cfg.Host,
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		user:     cfg.User,
		password: cfg.Password,
		from:     from,
		timeout:  cfg.Timeout,
		now:      time.Now,
	}
	d.dial = d.dialTCP
	return d
}

func (d *SMTPDispatcher) dialTCP(addr string) (smtpClient, error) {
	c, err := smtp.Dial(addr)
	if err != nil {
		return nil, err
	}
	if d.timeout > 0 {
		c.CommandTimeout = d.timeout
		c.SubmissionTimeout = d.timeout
	}
	return c, nil
}

func (d *SMTPDispatcher) open() (smtpClient, error) {
	c, err := d.dial(d.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server %s: %w", d.addr, err)
	}
	if err := c.StartTLS(&tls.Config{ServerName: d.host}); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}
	if err := c.Auth(sasl.NewPlainClient("", d.user, d.password)); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: SMTP login as %s: %v", model.ErrAuth, d.user, err)
	}
	return c, nil
}

// Verify opens and closes an authenticated session.
func (d *SMTPDispatcher) Verify(ctx context.Context) error {
	c, err := d.open()
	if err != nil {
		return err
	}
	return c.Quit()
}

func (d *SMTPDispatcher) Send(ctx context.Context, reply model.OutboundReply) bool {
	log := logrus.WithField("to", reply.To)

	raw, err := BuildMessage(d.from, reply, d.now())
	if err != nil {
		log.Warnf("Failed to build reply: %v", err)
		return false
	}
	if ctx.Err() != nil {
		log.Warnf("Reply not sent: %v", ctx.Err())
		return false
	}

	c, err := d.open()
	if err != nil {
		log.Warnf("Failed to send reply: %v", err)
		return false
	}
	defer c.Close()

	if err := c.SendMail(d.from, []string{reply.To}, bytes.NewReader(raw)); err != nil {
		log.Warnf("Failed to send reply: %v", err)
		return false
	}
	if err := c.Quit(); err != nil {
		log.Debugf("SMTP quit failed after delivery: %v", err)
	}

	log.Info("Reply sent")
	return true
}
