package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConflict marks a scheduling-conflict rejection (HTTP 409). The dashboard
// surfaces it with a distinct message so the user knows an overlapping booking
// caused the failure, not a server fault.
var ErrConflict = errors.New("scheduling conflict")

// ErrUnreachable marks a connectivity failure (dial error, timeout). Callers
// treat it as "the client is offline" and fall back to queueing mutations.
var ErrUnreachable = errors.New("crm unreachable")

// APIError is a non-2xx response from the CRM, carrying the server's most
// specific message when one was provided.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm api: %s (status %d)", e.Message, e.Status)
}

// Is lets errors.Is(err, ErrConflict) match a 409 APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrConflict && e.Status == http.StatusConflict
}
