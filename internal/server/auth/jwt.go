// Package auth signs and checks the tokens embedded in one-click
// unsubscribe links.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const unsubscribeAudience = "unsubscribe"

// Claims carries the subscriber email in addition to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func GenerateUnsubscribeToken(email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("%w: empty secret", common.ErrInvalidToken)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{unsubscribeAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Email: email,
	})

	return token.SignedString(secretKey)
}

// EmailFromUnsubscribeToken validates tokenString and returns the email it
// was issued for. Expired tokens yield common.ErrTokenExpired, anything else
// that fails validation common.ErrInvalidToken.
func EmailFromUnsubscribeToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(unsubscribeAudience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || strings.TrimSpace(claims.Email) == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Email, nil
}

// UnsubscribeLinker builds public unsubscribe URLs.
type UnsubscribeLinker struct {
	BaseURL   string
	SecretKey []byte
	Validity  time.Duration
}

// Link returns BaseURL + "/unsubscribe?token=..." for email.
func (l UnsubscribeLinker) Link(email string) (string, error) {
	tok, err := GenerateUnsubscribeToken(email, l.SecretKey, l.Validity)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(l.BaseURL, "/") + "/unsubscribe?token=" + url.QueryEscape(tok), nil
}
