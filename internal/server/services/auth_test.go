package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/schoolauth/internal/common"
	"github.com/dmitrijs2005/schoolauth/internal/logging"
	"github.com/dmitrijs2005/schoolauth/internal/server/auth"
	"github.com/dmitrijs2005/schoolauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type fakeResolver struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, userName string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[userName]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type countingHasher struct {
	*auth.PasswordHasher
	missing int
}

func (h *countingHasher) VerifyMissing(password string) {
	h.missing++
	h.PasswordHasher.VerifyMissing(password)
}

type failingIssuer struct{ *auth.Issuer }

func (failingIssuer) Issue(string, models.Role, time.Duration) (*auth.Token, error) {
	return nil, common.ErrSigning
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func newTestService(t *testing.T, r UserResolver) (*AuthService, *countingHasher, *auth.Issuer) {
	t.Helper()
	ph, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	h := &countingHasher{PasswordHasher: ph}
	iss, err := auth.NewIssuer([]byte("k"), "HS256", 30*time.Minute)
	require.NoError(t, err)
	return NewAuthService(r, h, iss, logging.NewDiscardLogger()), h, iss
}

func aliceResolver(t *testing.T) *fakeResolver {
	return &fakeResolver{users: map[string]*models.User{
		"alice": {ID: "1", UserName: "alice", HashedPassword: mustHash(t, "pw1"), Role: models.RoleStudent},
		"bob":   {ID: "7", UserName: "bob", HashedPassword: mustHash(t, "pw2"), Role: models.RoleTeacher},
	}}
}

// --- tests ---

func TestAuthenticate_Success(t *testing.T) {
	s, _, _ := newTestService(t, aliceResolver(t))

	u, err := s.Authenticate(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, models.RoleStudent, u.Role)

	u, err = s.Authenticate(context.Background(), "bob", "pw2")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, u.Role)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	s, h, _ := newTestService(t, aliceResolver(t))

	u, err := s.Authenticate(context.Background(), "alice", "wrong")
	assert.Nil(t, u)
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
	assert.Equal(t, 0, h.missing)
}

func TestAuthenticate_UnknownUserRunsDummyCompare(t *testing.T) {
	s, h, _ := newTestService(t, aliceResolver(t))

	u, err := s.Authenticate(context.Background(), "mallory", "pw1")
	assert.Nil(t, u)
	assert.Equal(t, common.ErrorUnauthorized, err)
	assert.Equal(t, 1, h.missing)
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	r := &fakeResolver{err: errors.Join(common.ErrStoreUnavailable, errors.New("conn refused"))}
	s, h, _ := newTestService(t, r)

	_, err := s.Authenticate(context.Background(), "alice", "pw1")
	assert.Equal(t, common.ErrStoreUnavailable, err)
	assert.NotContains(t, err.Error(), "conn refused")
	assert.Equal(t, 0, h.missing)
}

func TestAuthenticate_Canceled(t *testing.T) {
	r := &fakeResolver{err: context.Canceled}
	s, _, _ := newTestService(t, r)

	_, err := s.Authenticate(context.Background(), "alice", "pw1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogin_IssuesToken(t *testing.T) {
	s, _, iss := newTestService(t, aliceResolver(t))

	before := time.Now().Truncate(time.Second)
	sess, err := s.Login(context.Background(), "alice", "pw1")
	require.NoError(t, err)

	assert.Equal(t, "alice", sess.User.UserName)
	assert.Equal(t, "alice", sess.Token.Subject)
	assert.Equal(t, models.RoleStudent, sess.Token.Role)
	assert.False(t, sess.Token.ExpiresAt.Before(before.Add(30*time.Minute)))
	assert.Equal(t, 30*time.Minute, s.TokenTTL())

	claims, err := iss.Parse(sess.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	s, _, _ := newTestService(t, aliceResolver(t))

	sess, err := s.Login(context.Background(), "alice", "nope")
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_SigningFailure(t *testing.T) {
	ph, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	s := NewAuthService(aliceResolver(t), ph, failingIssuer{}, logging.NewDiscardLogger())

	sess, err := s.Login(context.Background(), "alice", "pw1")
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, common.ErrSigning)
}

func TestIdentify(t *testing.T) {
	s, _, iss := newTestService(t, aliceResolver(t))

	tok, err := iss.Issue("bob", models.RoleTeacher, 0)
	require.NoError(t, err)

	claims, err := s.Identify(context.Background(), tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, models.RoleTeacher, claims.Role)

	_, err = s.Identify(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.Identify(context.Background(), "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
