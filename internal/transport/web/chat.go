package web

import (
	"net"
	"net/http"
	"strings"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/service/identity"
)

const fingerprintHeader = "X-Fingerprint-ID"

type identityHints struct {
	Email         string `json:"email"`
	FingerprintID string `json:"fingerprintID"`
}

type chatRequest struct {
	Message       string           `json:"message"`
	History       []core.Message   `json:"history"`
	IdentityHints identityHints    `json:"identityHints"`
	SessionID     flexID           `json:"sessionId"`
	Model         string           `json:"model"`
	Attachment    *core.Attachment `json:"attachment"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID int64  `json:"sessionId,omitempty"`
	Model     string `json:"model,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.auth.authenticate(r, body.IdentityHints.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	fingerprint := body.IdentityHints.FingerprintID
	if fingerprint == "" {
		fingerprint = r.Header.Get(fingerprintHeader)
	}

	req := gateway.Request{
		Message: body.Message,
		History: body.History,
		Signals: identity.Signals{
			Origin:          clientOrigin(r, s.opts.TrustProxy),
			ClientSignature: r.UserAgent(),
			Fingerprint:     fingerprint,
		},
		Tier:       p.Tier,
		SessionID:  int64(body.SessionID),
		Model:      body.Model,
		Attachment: body.Attachment,
	}
	// A declared email never picks the quota bucket; the request stays
	// metered under its anonymous hash.
	if p.Verified {
		req.Signals.AccountID = p.Email
	} else {
		req.AccountEmail = p.Email
	}

	resp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  resp.Content,
		SessionID: resp.SessionID,
		Model:     resp.Model,
	})
}

// clientOrigin prefers the Cloudflare header, then X-Forwarded-For when the
// server sits behind a trusted proxy, then the socket peer.
func clientOrigin(r *http.Request, trustProxy bool) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
