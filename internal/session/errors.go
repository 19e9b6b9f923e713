package session

import "fmt"

type AuthReason string

const (
	ReasonCredentials AuthReason = "invalid_credentials"
	ReasonToken       AuthReason = "invalid_token"
	ReasonUnavailable AuthReason = "backend_unavailable"
)

// AuthError is recovered locally: the session is cleared and the user sent
// back to the login page with Message.
type AuthError struct {
	Reason  AuthReason
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
