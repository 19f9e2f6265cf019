package gateway

import (
	"errors"
	"fmt"

	"github.com/sandevgo/lifecoach/internal/core"
)

// Explain renders a Chat error as text safe to show the end user.
func Explain(err error) string {
	var admission *core.AdmissionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &admission) && admission.Indefinite:
		return "Access has been blocked."
	case errors.As(err, &admission):
		return fmt.Sprintf("You have reached your message limit. Please try again in %d minutes.", admission.RetryAfterMinutes())
	case errors.Is(err, core.ErrInvalidRequest):
		return "I could not read that message: " + err.Error()
	case errors.Is(err, core.ErrAllProvidersExhausted):
		return "The coach is unavailable right now. Please try again in a moment."
	default:
		return "Something went wrong. Please try again."
	}
}
