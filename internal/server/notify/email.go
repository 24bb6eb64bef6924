package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"gopkg.in/gomail.v2"
)

const subject = "Your Verification Code"

// defaultSendTimeout bounds a send when Config.SendTimeout is zero.
const defaultSendTimeout = 30 * time.Second

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// newDialer is a seam for tests. Port 465 makes gomail use implicit TLS.
var newDialer = func(cfg Config) dialer {
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
}

// EmailNotifier sends codes over SMTP.
type EmailNotifier struct {
	cfg    Config
	dialer dialer
	logger logging.Logger
}

func NewEmailNotifier(cfg Config, logger logging.Logger) (*EmailNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EmailNotifier{
		cfg:    cfg,
		dialer: newDialer(cfg),
		logger: logger.With("module", "notify"),
	}, nil
}

func (n *EmailNotifier) SendVerificationCode(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return errEmptyRecipient
	}

	m, err := n.buildMessage(to, code)
	if err != nil {
		return err
	}

	n.logger.Info(ctx, "sending verification email", "to", to)

	// The send outlives the caller's cancellation: once the code is stored
	// and handed to SMTP, reporting a failure for a message that may still
	// arrive would have the user re-signup and invalidate it. Only the
	// notifier's own timeout gives up, and gomail cannot interrupt a dial in
	// progress, so the abandoned send may still be delivered.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(m) }()

	select {
	case <-sendCtx.Done():
		n.logger.Warn(ctx, "verification email timed out", "to", to, "error", sendCtx.Err())
		return fmt.Errorf("%w: %w", common.ErrorDeliveryFailed, sendCtx.Err())
	case err := <-done:
		if err != nil {
			n.logger.Error(ctx, "failed to send verification email", "to", to, "error", err)
			return fmt.Errorf("%w: %w", common.ErrorDeliveryFailed, err)
		}
	}

	n.logger.Info(ctx, "verification email sent", "to", to)
	return nil
}

func (n *EmailNotifier) sendTimeout() time.Duration {
	if n.cfg.SendTimeout > 0 {
		return n.cfg.SendTimeout
	}
	return defaultSendTimeout
}

func (n *EmailNotifier) buildMessage(to, code string) (*gomail.Message, error) {
	var link string
	if n.cfg.UnsubscribeLink != nil {
		var err error
		if link, err = n.cfg.UnsubscribeLink(to); err != nil {
			return nil, fmt.Errorf("unsubscribe link: %w", err)
		}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.sender())
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if link != "" {
		m.SetHeader("List-Unsubscribe", "<"+link+">")
	}
	m.SetBody("text/plain", plainBody(code, ttlMinutes(n.cfg), link))
	return m, nil
}

func ttlMinutes(cfg Config) int {
	minutes := int(cfg.CodeTTL.Minutes())
	if minutes <= 0 {
		minutes = int(common.DefaultCodeTTL.Minutes())
	}
	return minutes
}

func plainBody(code string, minutes int, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi!\n\nYour verification code is:\n\n%s\n\n", code)
	fmt.Fprintf(&b, "This code will expire in %d minutes.\n\n", minutes)
	b.WriteString("If you did not request this, you can safely ignore this email.\n")
	if link != "" {
		fmt.Fprintf(&b, "\nTo stop receiving emails from us, open %s\n", link)
	}
	return b.String()
}
