package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidCredential is returned by a Verifier for missing or rejected
// credentials.
var ErrInvalidCredential = errors.New("invalid credential")

// Verifier checks a bearer credential and resolves the calling user. The
// identity provider itself is an external collaborator behind this
// interface.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// StaticTokenVerifier accepts a single configured service token. Suitable
// for single-tenant deployments and tests.
type StaticTokenVerifier struct {
	Token  string
	UserID string
}

func (v *StaticTokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if v.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.Token)) != 1 {
		return "", ErrInvalidCredential
	}
	if v.UserID != "" {
		return v.UserID, nil
	}
	return "default", nil
}

// bearerToken pulls the credential out of the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
