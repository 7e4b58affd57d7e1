package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/infra/config"
)

// deliver hands a composed message to the relay. Tests replace it.
var deliver = func(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error {
	return client.DialAndSendWithContext(ctx, msg)
}

// SMTPMailer delivers plain-text mail through an SMTP relay using
// opportunistic STARTTLS. PLAIN auth is used when a username is set.
type SMTPMailer struct {
	host    string
	from    string
	options []gomail.Option
	now     func() time.Time
}

// NewSMTPMailer constructs an SMTPMailer and checks the relay settings.
func NewSMTPMailer(cfg config.MailSettings) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("mail: smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("mail: from address is required")
	}

	options := []gomail.Option{gomail.WithTLSPolicy(gomail.TLSOpportunistic)}
	if cfg.SMTPPort > 0 {
		options = append(options, gomail.WithPort(cfg.SMTPPort))
	}
	if cfg.SMTPUsername != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	m := &SMTPMailer{
		host:    cfg.SMTPHost,
		from:    cfg.From,
		options: options,
		now:     time.Now,
	}
	if _, err := m.client(); err != nil {
		return nil, err
	}
	if err := gomail.NewMsg().From(cfg.From); err != nil {
		return nil, fmt.Errorf("mail: invalid from address: %w", err)
	}
	return m, nil
}

// client builds a fresh relay client; one is used per message so concurrent
// sends never share a connection.
func (m *SMTPMailer) client() (*gomail.Client, error) {
	client, err := gomail.NewClient(m.host, m.options...)
	if err != nil {
		return nil, fmt.Errorf("mail: configure smtp client: %w", err)
	}
	return client, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg port.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	composed, err := m.compose(msg)
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return err
	}

	if err := deliver(ctx, client, composed); err != nil {
		return fmt.Errorf("mail: send to smtp relay: %w", err)
	}
	return nil
}

// compose builds a UTF-8 text/plain message. go-mail encodes non-ASCII
// headers per RFC 2047 and the body as quoted-printable.
func (m *SMTPMailer) compose(msg port.MailMessage) (*gomail.Msg, error) {
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, fmt.Errorf("mail: header values must not contain line breaks")
	}

	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("mail: invalid from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDateWithValue(m.now())
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return out, nil
}

var _ port.Mailer = (*SMTPMailer)(nil)
