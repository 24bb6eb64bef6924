// Package notify delivers verification codes to subscribers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
)

// Notifier sends a verification code to an address. A nil error means the
// message was handed to the mail server.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// Config describes the SMTP account used as sender. Username doubles as the
// From address unless From is set.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// CodeTTL is only used for the wording of the message.
	CodeTTL time.Duration

	// SendTimeout bounds one SMTP exchange; zero means 30 seconds.
	SendTimeout time.Duration

	// UnsubscribeLink, when set, yields a one-click unsubscribe URL that is
	// appended to every message.
	UnsubscribeLink func(email string) (string, error)
}

// Validate reports missing sender settings. It is called at construction so
// a misconfigured server refuses to start instead of failing every signup.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "smtp host")
	}
	if c.Port <= 0 {
		missing = append(missing, "smtp port")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "smtp user")
	}
	if c.Password == "" {
		missing = append(missing, "smtp password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", common.ErrorNotifierNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

var errEmptyRecipient = errors.New("empty recipient")
