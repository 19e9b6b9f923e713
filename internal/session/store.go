package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cms-console/internal/access"
	"cms-console/internal/auth"
	"cms-console/internal/backend"
)

const (
	tokenKey   = "token"
	idKey      = "sid"
	noticesKey = "notices"
	cookieName = "cms_session"
)

// Backend is the slice of the REST client the session needs.
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context, token string) (backend.User, error)
}

type Options struct {
	Lifetime     time.Duration
	IdleTimeout  time.Duration
	CookieSecure bool
	Backing      scs.Store
}

// NewManager configures the cookie session manager. A nil Backing keeps
// sessions in process memory.
func NewManager(opts Options) *scs.SessionManager {
	manager := scs.New()
	if opts.Lifetime > 0 {
		manager.Lifetime = opts.Lifetime
	}
	if opts.IdleTimeout > 0 {
		manager.IdleTimeout = opts.IdleTimeout
	}
	manager.Cookie.Name = cookieName
	manager.Cookie.HttpOnly = true
	manager.Cookie.SameSite = http.SameSiteLaxMode
	manager.Cookie.Secure = opts.CookieSecure
	if opts.Backing != nil {
		manager.Store = opts.Backing
	}
	return manager
}

// Store is the only writer of session state.
type Store struct {
	manager  *scs.SessionManager
	backend  Backend
	verifier *auth.Verifier
	log      zerolog.Logger
}

func NewStore(manager *scs.SessionManager, be Backend, verifier *auth.Verifier, logger zerolog.Logger) *Store {
	return &Store{manager: manager, backend: be, verifier: verifier, log: logger}
}

func (s *Store) Manager() *scs.SessionManager {
	return s.manager
}

// Init decodes the stored token and fetches the profile, in that order. An
// expired or rejected token is purged before Init returns.
func (s *Store) Init(ctx context.Context) *Session {
	token := s.manager.GetString(ctx, tokenKey)
	if token == "" {
		return Anonymous()
	}
	sess, err := s.establish(ctx, token)
	if err != nil {
		s.log.Info().Err(err).Msg("discarding stored session token")
		s.purge(ctx)
		return Anonymous()
	}
	return sess
}

// Login exchanges credentials for a token and persists it only once it
// decodes and the profile call accepts it.
func (s *Store) Login(ctx context.Context, username, password string) (*Session, error) {
	token, err := s.backend.Login(ctx, username, password)
	if err != nil {
		var apiErr *backend.APIError
		switch {
		case errors.As(err, &apiErr):
			return nil, &AuthError{Reason: ReasonCredentials, Message: backend.Message(err, "Invalid credentials"), Err: err}
		case errors.Is(err, backend.ErrMissingToken), errors.Is(err, backend.ErrMalformed):
			return nil, &AuthError{Reason: ReasonToken, Message: backend.ErrMissingToken.Error(), Err: err}
		}
		return nil, &AuthError{Reason: ReasonUnavailable, Message: "Unable to reach the server", Err: err}
	}

	sess, err := s.establish(ctx, token)
	if err != nil {
		s.purge(ctx)
		return nil, err
	}
	if err := s.manager.RenewToken(ctx); err != nil {
		return nil, err
	}
	s.manager.Put(ctx, tokenKey, token)
	return sess, nil
}

// Logout drops the token and everything derived from it. The backend is not
// consulted.
func (s *Store) Logout(ctx context.Context) error {
	return s.manager.Destroy(ctx)
}

func (s *Store) establish(ctx context.Context, token string) (*Session, error) {
	claims, err := s.verifier.Decode(token)
	if err != nil {
		return nil, &AuthError{Reason: ReasonToken, Message: "Your session has expired, please sign in again", Err: err}
	}
	sess := &Session{
		state:       StateAuthenticated,
		token:       token,
		claims:      claims,
		roles:       auth.NormalizeRoles(claims.Roles),
		permissions: append([]string(nil), claims.Permissions...),
	}

	user, err := s.backend.Me(ctx, token)
	switch {
	case err == nil:
		sess.user = &user
		if len(user.Roles) > 0 {
			sess.roles = append([]string(nil), user.Roles...)
		}
	case backend.IsUnauthorized(err):
		return nil, &AuthError{Reason: ReasonToken, Message: "Your session has expired, please sign in again", Err: err}
	default:
		s.log.Warn().Err(err).Msg("profile fetch failed, using token roles")
	}
	sess.subject = access.NewSubject(sess.roles, sess.permissions)
	return sess, nil
}

func (s *Store) purge(ctx context.Context) {
	s.manager.Remove(ctx, tokenKey)
}

// ID returns a stable identifier for the browser session, minting one on
// first use.
func (s *Store) ID(ctx context.Context) string {
	id := s.manager.GetString(ctx, idKey)
	if id == "" {
		id = uuid.NewString()
		s.manager.Put(ctx, idKey, id)
	}
	return id
}

type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Flash queues a dismissible notice for the next rendered page.
func (s *Store) Flash(ctx context.Context, kind, message string) {
	var notices []Notice
	_, _ = s.GetJSON(ctx, noticesKey, &notices)
	notices = append(notices, Notice{Kind: kind, Message: message})
	_ = s.PutJSON(ctx, noticesKey, notices)
}

// Notices drains queued notices.
func (s *Store) Notices(ctx context.Context) []Notice {
	var notices []Notice
	if ok, _ := s.GetJSON(ctx, noticesKey, &notices); ok {
		s.manager.Remove(ctx, noticesKey)
	}
	return notices
}

func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.manager.Put(ctx, key, string(b))
	return nil
}

func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw := s.manager.GetString(ctx, key)
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Remove(ctx context.Context, key string) {
	s.manager.Remove(ctx, key)
}
