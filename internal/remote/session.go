package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// ErrNotAuthenticated is returned by gateway writes made without an account.
var ErrNotAuthenticated = errors.New("user must be authenticated")

// Session yields the account the gateway writes on behalf of.
type Session interface {
	AccountID(ctx context.Context) (string, bool)
}

// StaticSession is a fixed account, used for offline mode and tests.
// The empty string means signed out.
type StaticSession string

func (s StaticSession) AccountID(context.Context) (string, bool) {
	return string(s), s != ""
}

// TokenSession reads the account from an HS256 access token. The token is
// checked on every call so an expired session reads as signed out.
type TokenSession struct {
	Token  string
	Secret string
	Issuer string
}

func (s TokenSession) AccountID(context.Context) (string, bool) {
	sub, err := s.subject()
	if err != nil {
		log.Debugf("access token rejected: %s", err)
		return "", false
	}
	return sub, true
}

func (s TokenSession) subject() (string, error) {
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return "", errors.New("no access token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if s.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.Issuer))
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// UnverifiedSubject returns the token's subject without checking its
// signature. Offline mode uses it to keep the same account id as the server.
func UnverifiedSubject(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", false
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

func accountOrErr(ctx context.Context, s Session) (string, error) {
	id, ok := s.AccountID(ctx)
	if !ok {
		return "", ErrNotAuthenticated
	}
	return id, nil
}
