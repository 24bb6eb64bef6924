package models

import "time"

// Subscriber is one row of the subscribers table.
//
// CodeDigest and CodeExpiresAt are either both set (a code is outstanding)
// or both empty. A verified subscriber never holds a code.
type Subscriber struct {
	ID            int64
	Email         string
	SignupTime    time.Time
	Send          bool
	Verified      bool
	CodeDigest    string
	CodeExpiresAt time.Time
}

// Active reports whether the subscriber should receive mailings.
func (s *Subscriber) Active() bool {
	return s.Send && s.Verified
}

// HasPendingCode reports whether a verification code is outstanding.
func (s *Subscriber) HasPendingCode() bool {
	return s.CodeDigest != "" && !s.CodeExpiresAt.IsZero()
}

// CodeExpired reports whether the outstanding code is past its expiry at now.
// A code is still valid at exactly its expiry instant.
func (s *Subscriber) CodeExpired(now time.Time) bool {
	return now.After(s.CodeExpiresAt)
}

// PendingCode is a freshly issued verification code as it is stored.
type PendingCode struct {
	Digest    string
	ExpiresAt time.Time
}
