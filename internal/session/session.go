// Package session owns the signed-in actor. A Session is resolved once per
// request by Store.Init and handed down through the request context.
package session

import (
	"context"

	"cms-console/internal/access"
	"cms-console/internal/auth"
	"cms-console/internal/backend"
)

type State int

const (
	// StateLoading means initialization has not finished; guards must not
	// treat it as signed out.
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

type Session struct {
	state       State
	token       string
	claims      *auth.Claims
	roles       []string
	permissions []string
	subject     access.Subject
	user        *backend.User
}

func Pending() *Session {
	return &Session{state: StateLoading, subject: access.NewSubject(nil, nil)}
}

func Anonymous() *Session {
	return &Session{state: StateAnonymous, subject: access.NewSubject(nil, nil)}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) IsLoading() bool {
	return s.state == StateLoading
}

func (s *Session) IsAuthenticated() bool {
	return s.state == StateAuthenticated
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Claims() *auth.Claims {
	return s.claims
}

func (s *Session) Roles() []string {
	return append([]string(nil), s.roles...)
}

func (s *Session) Permissions() []string {
	return append([]string(nil), s.permissions...)
}

func (s *Session) Subject() access.Subject {
	return s.subject
}

func (s *Session) User() *backend.User {
	return s.user
}

func (s *Session) Username() string {
	if s.user != nil && s.user.Username != "" {
		return s.user.Username
	}
	if s.claims != nil {
		return s.claims.Subject
	}
	return ""
}

func (s *Session) Email() string {
	if s.user != nil {
		return s.user.Email
	}
	return ""
}

type sessionKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the request's session, or a pending one when none has
// been resolved yet.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s
	}
	return Pending()
}
