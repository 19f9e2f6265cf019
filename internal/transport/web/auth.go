package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sandevgo/lifecoach/internal/core"
)

// principal is who the caller is, as far as the server can tell.
// An empty Email means anonymous. Verified is set only for a valid bearer token.
type principal struct {
	Email    string
	Tier     string
	Verified bool
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Tier  string `json:"tier,omitempty"`
}

// authenticator verifies HS256 bearer tokens. Without a secret it runs in
// trusted-hints mode and takes the client's declared email at face value for
// account data, which is only suitable for a local single-user server. Such a
// principal is never Verified and so never chooses the quota identity.
type authenticator struct {
	secret []byte
}

func newAuthenticator(secret string) *authenticator {
	return &authenticator{secret: []byte(secret)}
}

func (a *authenticator) verifying() bool {
	return len(a.secret) > 0
}

func (a *authenticator) authenticate(r *http.Request, hintEmail string) (principal, error) {
	if !a.verifying() {
		return principal{Email: strings.TrimSpace(hintEmail)}, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return principal{}, nil
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return principal{}, fmt.Errorf("%w: malformed authorization header", core.ErrUnauthorized)
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return principal{}, fmt.Errorf("%w: token expired", core.ErrUnauthorized)
		}
		return principal{}, fmt.Errorf("%w: invalid token", core.ErrUnauthorized)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return principal{}, fmt.Errorf("%w: token has no email", core.ErrUnauthorized)
	}

	return principal{Email: claims.Email, Tier: claims.Tier, Verified: true}, nil
}

type accountHandler func(w http.ResponseWriter, r *http.Request, email string)

// withAccount rejects anonymous callers.
func (s *Server) withAccount(h accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var hint string
		if !s.auth.verifying() {
			var err error
			if hint, err = emailHint(r); err != nil {
				writeError(w, r, err)
				return
			}
		}

		p, err := s.auth.authenticate(r, hint)
		if err == nil && p.Email == "" {
			err = fmt.Errorf("%w: sign in required", core.ErrUnauthorized)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		h(w, r, p.Email)
	}
}

// emailHint finds the declared email in the query string or the JSON body.
// The body is restored so the handler can decode it again.
func emailHint(r *http.Request) (string, error) {
	if email := r.URL.Query().Get("email"); email != "" {
		return email, nil
	}
	if r.Body == nil || r.Method == http.MethodGet {
		return "", nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable body", core.ErrInvalidRequest)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var hints struct {
		Email         string        `json:"email"`
		IdentityHints identityHints `json:"identityHints"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &hints) != nil {
		return "", nil
	}
	if hints.IdentityHints.Email != "" {
		return hints.IdentityHints.Email, nil
	}
	return hints.Email, nil
}
