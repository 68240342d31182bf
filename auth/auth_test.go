package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"connectx/apperr"
	"connectx/sessions"
	"connectx/storage/memory"
	"connectx/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newManager(t *testing.T) *Manager {
	t.Helper()

	sess := sessions.NewMemoryStore(0, nil)
	t.Cleanup(func() { sess.Close() })

	return NewManager(memory.New(), sess, Options{Hasher: BcryptHasher{Cost: bcrypt.MinCost}})
}

func register(t *testing.T, m *Manager, username, email, password string) *types.User {
	t.Helper()

	u, sess, err := m.Register(context.Background(), &types.RegisterUser{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	require.NotNil(t, sess)
	return u
}

func TestRegisterLoginScenario(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	alice := register(t, m, "alice", "alice@x.com", "secret1")
	assert.NotEqual(t, "secret1", alice.Password)

	_, _, err := m.Login(ctx, &types.Login{Username: "alice", Password: "wrong-pass"})
	require.ErrorIs(t, err, apperr.ErrAuthentication)

	_, _, err = m.Login(ctx, &types.Login{Username: "nobody", Password: "secret1"})
	require.ErrorIs(t, err, apperr.ErrAuthentication)

	user, sess, err := m.Login(ctx, &types.Login{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	current, err := m.CurrentUser(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, current.ID)

	require.NoError(t, m.Logout(ctx, sess.Token))

	_, err = m.CurrentUser(ctx, sess.Token)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	register(t, m, "alice", "alice@x.com", "secret1")

	_, _, err := m.Register(ctx, &types.RegisterUser{Username: "ALICE", Email: "new@x.com", Password: "secret1"})
	var cv *apperr.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, apperr.ConstraintUniqueUsername, cv.Constraint)

	_, _, err = m.Register(ctx, &types.RegisterUser{Username: "alice2", Email: "ALICE@x.com", Password: "secret1"})
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, apperr.ConstraintUniqueEmail, cv.Constraint)
}

func TestCurrentUserWithoutSession(t *testing.T) {
	m := newManager(t)

	_, err := m.CurrentUser(context.Background(), "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = m.CurrentUser(context.Background(), "not-a-token")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

type countingHasher struct {
	BcryptHasher
	compares int
}

func (c *countingHasher) Compare(hash, password string) bool {
	c.compares++
	return c.BcryptHasher.Compare(hash, password)
}

func TestLoginComparesEvenForUnknownUser(t *testing.T) {
	h := &countingHasher{BcryptHasher: BcryptHasher{Cost: bcrypt.MinCost}}
	m := NewManager(memory.New(), sessions.NewMemoryStore(0, nil), Options{Hasher: h})

	_, _, err := m.Login(context.Background(), &types.Login{Username: "ghost", Password: "secret1"})
	require.ErrorIs(t, err, apperr.ErrAuthentication)
	assert.Equal(t, 1, h.compares)
}

func TestBcryptHasherRejectsLongPassword(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	_, err := h.Hash(strings.Repeat("a", 73))

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	hash, err := h.Hash(strings.Repeat("a", 72))
	require.NoError(t, err)
	assert.True(t, h.Compare(hash, strings.Repeat("a", 72)))
}
