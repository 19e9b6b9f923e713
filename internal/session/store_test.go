package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-console/internal/auth"
	"cms-console/internal/backend"
)

type fakeBackend struct {
	tokens   map[string]string
	loginErr error
	user     backend.User
	meErr    error
	meCalls  int
}

func (f *fakeBackend) Login(_ context.Context, username, _ string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	token, ok := f.tokens[username]
	if !ok {
		return "", &backend.APIError{Status: 401, Message: "Bad credentials"}
	}
	if token == "" {
		return "", backend.ErrMissingToken
	}
	return token, nil
}

func (f *fakeBackend) Me(context.Context, string) (backend.User, error) {
	f.meCalls++
	return f.user, f.meErr
}

func signToken(t *testing.T, exp time.Time, roles, perms []string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Roles:       roles,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func newTestStore(t *testing.T, be Backend) (*Store, context.Context) {
	t.Helper()
	verifier, err := auth.NewVerifier("", "", "")
	require.NoError(t, err)
	manager := NewManager(Options{Lifetime: time.Hour})
	ctx, err := manager.Load(context.Background(), "")
	require.NoError(t, err)
	return NewStore(manager, be, verifier, zerolog.New(io.Discard)), ctx
}

func TestInitWithoutTokenIsAnonymous(t *testing.T) {
	store, ctx := newTestStore(t, &fakeBackend{})
	sess := store.Init(ctx)
	assert.False(t, sess.IsAuthenticated())
	assert.False(t, sess.IsLoading())
}

func TestLoginProfileRolesOverrideTokenRoles(t *testing.T) {
	be := &fakeBackend{
		tokens: map[string]string{"alice": signToken(t, time.Now().Add(time.Hour), []string{"ROLE_EDITOR"}, []string{"PROGRAM_READ"})},
		user:   backend.User{Username: "alice", Email: "a@x.io", Roles: backend.RoleNames{"ADMIN"}},
	}
	store, ctx := newTestStore(t, be)

	sess, err := store.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, []string{"ADMIN"}, sess.Roles())
	assert.True(t, sess.Subject().HasPermission("PROGRAM_READ"))
	assert.Equal(t, "a@x.io", sess.Email())

	again := store.Init(ctx)
	assert.True(t, again.IsAuthenticated())
	assert.Equal(t, 2, be.meCalls)
}

func TestTokenRolesUsedWhenProfileUnavailable(t *testing.T) {
	be := &fakeBackend{
		tokens: map[string]string{"alice": signToken(t, time.Now().Add(time.Hour), []string{"ROLE_EDITOR"}, nil)},
		meErr:  errors.New("connection refused"),
	}
	store, ctx := newTestStore(t, be)

	sess, err := store.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"EDITOR"}, sess.Roles())
	assert.Nil(t, sess.User())
	assert.Equal(t, "alice", sess.Username())
}

func TestLoginFailures(t *testing.T) {
	be := &fakeBackend{tokens: map[string]string{
		"notoken": "",
		"expired": signToken(t, time.Now().Add(-time.Second), nil, nil),
	}}
	store, ctx := newTestStore(t, be)

	var authErr *AuthError
	_, err := store.Login(ctx, "mallory", "pw")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonCredentials, authErr.Reason)
	assert.Equal(t, "Bad credentials", authErr.Message)

	_, err = store.Login(ctx, "notoken", "pw")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Server response missing access token", authErr.Message)

	_, err = store.Login(ctx, "expired", "pw")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonToken, authErr.Reason)
	assert.Empty(t, store.Manager().GetString(ctx, tokenKey))
}

func TestLoginWithUnreadableReply(t *testing.T) {
	be := &fakeBackend{loginErr: fmt.Errorf("POST /login: %w", backend.ErrMalformed)}
	store, ctx := newTestStore(t, be)

	var authErr *AuthError
	_, err := store.Login(ctx, "alice", "pw")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonToken, authErr.Reason)
	assert.Equal(t, "Server response missing access token", authErr.Message)
	assert.Empty(t, store.Manager().GetString(ctx, tokenKey))

	be.loginErr = errors.New("dial tcp: connection refused")
	_, err = store.Login(ctx, "alice", "pw")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, ReasonUnavailable, authErr.Reason)
}

func TestExpiredStoredTokenIsPurged(t *testing.T) {
	store, ctx := newTestStore(t, &fakeBackend{})
	store.Manager().Put(ctx, tokenKey, signToken(t, time.Now().Add(-time.Second), []string{"ADMIN"}, nil))

	sess := store.Init(ctx)
	assert.False(t, sess.IsAuthenticated())
	assert.Empty(t, store.Manager().GetString(ctx, tokenKey))
}

func TestRejectedProfilePurgesToken(t *testing.T) {
	be := &fakeBackend{meErr: &backend.APIError{Status: 401}}
	store, ctx := newTestStore(t, be)
	store.Manager().Put(ctx, tokenKey, signToken(t, time.Now().Add(time.Hour), nil, nil))

	assert.False(t, store.Init(ctx).IsAuthenticated())
	assert.Empty(t, store.Manager().GetString(ctx, tokenKey))
}

func TestLogoutClearsEverything(t *testing.T) {
	be := &fakeBackend{tokens: map[string]string{"alice": signToken(t, time.Now().Add(time.Hour), nil, nil)}}
	store, ctx := newTestStore(t, be)
	_, err := store.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.Init(ctx).IsAuthenticated())
}

func TestNoticesDrain(t *testing.T) {
	store, ctx := newTestStore(t, &fakeBackend{})
	store.Flash(ctx, "success", "Saved")
	store.Flash(ctx, "error", "Failed")

	notices := store.Notices(ctx)
	require.Len(t, notices, 2)
	assert.Equal(t, "Failed", notices[1].Message)
	assert.Empty(t, store.Notices(ctx))
}

func TestStableID(t *testing.T) {
	store, ctx := newTestStore(t, &fakeBackend{})
	id := store.ID(ctx)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, store.ID(ctx))
}

func TestFromContextDefaultsToPending(t *testing.T) {
	assert.True(t, FromContext(context.Background()).IsLoading())
	ctx := NewContext(context.Background(), Anonymous())
	assert.False(t, FromContext(ctx).IsLoading())
}

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.CommitCtx(ctx, "tok", []byte("payload"), time.Now().Add(time.Minute)))
	b, found, err := store.FindCtx(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payload", string(b))

	require.NoError(t, store.DeleteCtx(ctx, "tok"))
	_, found, err = store.FindCtx(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, found)
}
