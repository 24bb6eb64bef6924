// Package services contains server-side business logic. This file implements
// SubscriptionService, the signup → verify → unsubscribe workflow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/dbx"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/dmitrijs2005/maillist/internal/server/auth"
	"github.com/dmitrijs2005/maillist/internal/server/config"
	"github.com/dmitrijs2005/maillist/internal/server/models"
	"github.com/dmitrijs2005/maillist/internal/server/notify"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/maillist/internal/server/repositories/subscribers"
	"github.com/dmitrijs2005/maillist/internal/verifycode"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Mirror is the part of the CSV mirror the workflow writes to.
type Mirror interface {
	UpsertOnSignup(ctx context.Context, at time.Time, email string, send bool) error
	SetSend(ctx context.Context, email string, send bool) error
}

// SubscriptionService runs the subscriber state machine:
// ABSENT → PENDING → VERIFIED, with an orthogonal send flag.
//
// The subscriber store is authoritative. Mirror writes are best effort and
// never change an outcome. Store writes always happen before a notification
// is attempted, and a failed delivery does not roll them back.
type SubscriptionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mirror      Mirror
	notifier    notify.Notifier
	logger      logging.Logger
	observer    Observer
	codeTTL     time.Duration
	tokenSecret []byte

	now          func() time.Time
	generateCode func() (string, error)
}

// NewSubscriptionService wires the workflow to its store, mirror and notifier.
// A nil observer disables metrics.
func NewSubscriptionService(db *sql.DB, m repomanager.RepositoryManager, mirror Mirror, notifier notify.Notifier,
	cfg *config.Config, logger logging.Logger, observer Observer) *SubscriptionService {
	if observer == nil {
		observer = noopObserver{}
	}
	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = common.DefaultCodeTTL
	}
	return &SubscriptionService{
		db:           db,
		repomanager:  m,
		mirror:       mirror,
		notifier:     notifier,
		logger:       logger.With("module", "subscriptions"),
		observer:     observer,
		codeTTL:      ttl,
		tokenSecret:  []byte(cfg.SecretKey),
		now:          time.Now,
		generateCode: verifycode.Generate,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidEmail reports whether a normalized address has a plausible shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Signup registers email or reissues its verification code.
func (s *SubscriptionService) Signup(ctx context.Context, rawEmail string) Result {
	email := NormalizeEmail(rawEmail)
	switch {
	case email == "":
		return s.finish(ctx, OpSignup, email, invalidInput(MsgEmailRequired))
	case !ValidEmail(email):
		return s.finish(ctx, OpSignup, email, invalidInput(MsgInvalidEmail))
	}

	repo := s.repomanager.Subscribers(s.db)

	sub, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return s.finish(ctx, OpSignup, email, s.register(ctx, repo, email))
	case err != nil:
		s.logger.Error(ctx, "subscriber lookup failed", "email", email, "error", err)
		return s.finish(ctx, OpSignup, email, storeUnavailable())
	case sub.Active():
		return s.finish(ctx, OpSignup, email, result(OutcomeAlreadyRegistered, MsgAlreadyRegistered, StepNone))
	default:
		return s.finish(ctx, OpSignup, email, s.reissue(ctx, repo, email))
	}
}

func (s *SubscriptionService) register(ctx context.Context, repo subscribers.Repository, email string) Result {
	now := s.now().UTC()
	code, pending, err := s.issueCode(now)
	if err != nil {
		s.logger.Error(ctx, "code generation failed", "error", err)
		return storeUnavailable()
	}

	if _, err := repo.InsertPending(ctx, email, now, pending); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// a concurrent signup for the same address won the insert
			s.logger.Info(ctx, "signup lost insert race", "email", email)
			return result(OutcomeAlreadyRegistered, MsgAlreadyRegistered, StepNone)
		}
		s.logger.Error(ctx, "insert subscriber failed", "email", email, "error", err)
		return storeUnavailable()
	}

	return s.deliver(ctx, now, email, code)
}

func (s *SubscriptionService) reissue(ctx context.Context, repo subscribers.Repository, email string) Result {
	now := s.now().UTC()
	code, pending, err := s.issueCode(now)
	if err != nil {
		s.logger.Error(ctx, "code generation failed", "error", err)
		return storeUnavailable()
	}

	if err := repo.ReissueCode(ctx, email, now, pending); err != nil {
		s.logger.Error(ctx, "reissue code failed", "email", email, "error", err)
		return storeUnavailable()
	}

	return s.deliver(ctx, now, email, code)
}

// deliver runs after the store write: mirror first, then the notifier.
func (s *SubscriptionService) deliver(ctx context.Context, now time.Time, email, code string) Result {
	if err := s.mirror.UpsertOnSignup(ctx, now, email, true); err != nil {
		s.logger.Warn(ctx, "mirror upsert failed", "email", email, "error", err)
		s.observer.ObserveMirrorFailure("upsert")
	}

	if err := s.notifier.SendVerificationCode(ctx, email, code); err != nil {
		s.logger.Error(ctx, "verification email not delivered", "email", email, "error", err)
		s.observer.ObserveNotifierFailure()
		return result(OutcomeDeliveryFailed, MsgDeliveryFailed, StepSignup)
	}

	return result(OutcomePendingVerification, MsgPendingVerification, StepVerify)
}

func (s *SubscriptionService) issueCode(now time.Time) (string, models.PendingCode, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", models.PendingCode{}, err
	}
	return code, models.PendingCode{
		Digest:    verifycode.Digest(code),
		ExpiresAt: now.Add(s.codeTTL),
	}, nil
}

// Verify checks a submitted code. The lookup and the conditional update run
// in one transaction; the update only applies while the stored digest is
// still the one that was compared.
func (s *SubscriptionService) Verify(ctx context.Context, rawEmail, rawCode string) Result {
	email := NormalizeEmail(rawEmail)
	code := strings.TrimSpace(rawCode)
	if email == "" || code == "" {
		return s.finish(ctx, OpVerify, email, invalidInput(MsgEmailAndCode))
	}

	now := s.now().UTC()
	invalid := result(OutcomeInvalidAttempt, MsgInvalidAttempt, StepNone)

	var res Result
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Subscribers(tx)

		sub, err := repo.FindByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			res = invalid
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case !sub.HasPendingCode():
			res = invalid
			return nil
		case sub.CodeExpired(now):
			res = result(OutcomeExpired, MsgExpired, StepNone)
			return nil
		case !verifycode.Matches(sub.CodeDigest, code):
			res = invalid
			return nil
		}

		if err := repo.MarkVerified(ctx, email, sub.CodeDigest); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// code was reissued between lookup and update
				res = invalid
				return nil
			}
			return err
		}
		res = result(OutcomeVerified, MsgVerified, StepSignup)
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "verify failed", "email", email, "error", err)
		return s.finish(ctx, OpVerify, email, storeUnavailable())
	}

	return s.finish(ctx, OpVerify, email, res)
}

// Unsubscribe turns off mail for email. Verification state is untouched.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, rawEmail string) Result {
	email := NormalizeEmail(rawEmail)
	switch {
	case email == "":
		return s.finish(ctx, OpUnsubscribe, email, invalidInput(MsgEmailRequired))
	case !ValidEmail(email):
		return s.finish(ctx, OpUnsubscribe, email, invalidInput(MsgInvalidUnsubEmail))
	}

	repo := s.repomanager.Subscribers(s.db)

	sub, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return s.finish(ctx, OpUnsubscribe, email, result(OutcomeNotOnList, MsgNotOnList, StepNone))
	case err != nil:
		s.logger.Error(ctx, "subscriber lookup failed", "email", email, "error", err)
		return s.finish(ctx, OpUnsubscribe, email, storeUnavailable())
	case !sub.Send:
		return s.finish(ctx, OpUnsubscribe, email, result(OutcomeAlreadyUnsubscribed, MsgAlreadyUnsubscribed, StepNone))
	}

	if err := repo.SetSend(ctx, email, false); err != nil {
		s.logger.Error(ctx, "set send failed", "email", email, "error", err)
		return s.finish(ctx, OpUnsubscribe, email, storeUnavailable())
	}

	if err := s.mirror.SetSend(ctx, email, false); err != nil {
		s.logger.Warn(ctx, "mirror update failed", "email", email, "error", err)
		s.observer.ObserveMirrorFailure("set_send")
	}

	return s.finish(ctx, OpUnsubscribe, email, result(OutcomeUnsubscribed, MsgUnsubscribed, StepNone))
}

// UnsubscribeByToken handles the one-click link from the verification email.
func (s *SubscriptionService) UnsubscribeByToken(ctx context.Context, token string) Result {
	email, err := auth.EmailFromUnsubscribeToken(token, s.tokenSecret)
	if err != nil {
		s.logger.Info(ctx, "rejected unsubscribe token", "error", err)
		return s.finish(ctx, OpUnsubscribe, "", invalidInput(MsgInvalidLink))
	}
	return s.Unsubscribe(ctx, email)
}

func (s *SubscriptionService) finish(ctx context.Context, op, email string, r Result) Result {
	s.observer.ObserveOutcome(op, string(r.Outcome))
	s.logger.Info(ctx, "workflow outcome", "operation", op, "email", email, "outcome", string(r.Outcome))
	return r
}
