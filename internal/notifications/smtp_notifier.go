package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPNotifier delivers the welcome mails through a plain SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := renderMail(msg)

	var sb strings.Builder
	sb.WriteString("From: " + n.cfg.From + "\r\n")
	sb.WriteString("To: " + msg.Email + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Pass, n.cfg.Host)

	return smtp.SendMail(addr, auth, n.cfg.From, []string{msg.Email}, []byte(sb.String()))
}

func renderMail(msg Message) (subject, body string) {
	name := msg.Name

	if name == "" {
		name = "there"
	}

	switch msg.Kind {
	case KindSubscription:
		subject = "Welcome To InsightNow!"
		body = fmt.Sprintf(`<p>Hi %s,</p>
<p><strong>Welcome to InsightNow!</strong></p>
<p>Wake up to a curated selection of top news stories, handpicked just for you.
Customize your preferences and get alerts on the topics that matter to you.</p>
<p>Best regards,<br>The InsightNow Team</p>`, name)
	default:
		subject = "Welcome to Newzify"
		body = fmt.Sprintf(`<p>Hi %s,</p>
<p>Your Newzify account is ready. Log in to browse headlines by category and
country, and subscribe to the newsletter for a daily digest.</p>
<p>Best regards,<br>The Newzify Team</p>`, name)
	}

	return subject, body
}
