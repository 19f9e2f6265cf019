package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const (
	internalErrorMessage  = "Something went wrong. Please try again."
	unavailableMessage    = "The coach is unavailable right now. Please try again in a moment."
	blockedMessage        = "Access from this client has been blocked."
	retryAfterUnlimited   = "unlimited"
	rateLimitedMessageFmt = "You have reached your message limit. Please try again in %d minutes."
)

type errorBody struct {
	Error string `json:"error"`
}

type rateLimitBody struct {
	Error      string `json:"error"`
	RetryAfter any    `json:"retryAfter"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to statuses. Internal error text is logged,
// never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromCtx(r.Context())

	var admission *core.AdmissionError
	switch {
	case errors.As(err, &admission):
		body := rateLimitBody{Error: blockedMessage, RetryAfter: retryAfterUnlimited}
		if !admission.Indefinite {
			mins := admission.RetryAfterMinutes()
			body = rateLimitBody{Error: fmt.Sprintf(rateLimitedMessageFmt, mins), RetryAfter: mins}
			w.Header().Set("Retry-After", strconv.FormatInt(mins*60, 10))
		}
		logger.Info().Str("reason", admission.Reason).Msg("request denied by quota")
		writeJSON(w, http.StatusTooManyRequests, body)

	case errors.Is(err, core.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})

	case errors.Is(err, core.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})

	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})

	case errors.Is(err, core.ErrAllProvidersExhausted):
		logger.Error().Err(err).Msg("no provider produced a reply")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: unavailableMessage})

	default:
		logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: internalErrorMessage})
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", core.ErrInvalidRequest)
	}
	return nil
}

// flexID accepts ids sent as JSON numbers or numeric strings; browsers
// round-trip millisecond ids both ways.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id must be a number or string: %w", err)
		}
		n = json.Number(s)
	}
	if n == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", n, err)
	}
	*f = flexID(v)
	return nil
}
