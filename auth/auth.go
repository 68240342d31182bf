// Package auth verifies credentials, issues sessions and resolves the user
// bound to a session token.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"connectx/apperr"
	"connectx/sessions"
	"connectx/storage"
	"connectx/types"

	"go.uber.org/zap"
)

const DefaultSessionTTL = 24 * time.Hour

type Options struct {
	Hasher     PasswordHasher
	SessionTTL time.Duration
	Logger     *zap.Logger
}

type Manager struct {
	store    storage.Storage
	sessions sessions.Store
	hasher   PasswordHasher
	ttl      time.Duration
	logger   *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewManager(store storage.Storage, sess sessions.Store, opts Options) *Manager {
	if opts.Hasher == nil {
		opts.Hasher = BcryptHasher{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Manager{
		store:    store,
		sessions: sess,
		hasher:   opts.Hasher,
		ttl:      opts.SessionTTL,
		logger:   opts.Logger,
	}
}

// Register creates the user and a session for it. A taken username or email
// is a ConstraintViolation; the storage engine enforces it atomically.
func (m *Manager) Register(ctx context.Context, in *types.RegisterUser) (*types.User, *sessions.Session, error) {
	existing, err := m.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperr.Conflict(apperr.ConstraintUniqueUsername, "username is already taken")
	}

	existing, err = m.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperr.Conflict(apperr.ConstraintUniqueEmail, "email is already registered")
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := m.store.CreateUser(ctx, types.NewUser{
		Username:     in.Username,
		Email:        in.Email,
		Password:     hash,
		FullName:     in.FullName,
		ProfileImage: in.ProfileImage,
		Bio:          in.Bio,
	})
	if err != nil {
		return nil, nil, err
	}

	sess, err := m.sessions.Create(ctx, user.ID, m.ttl)
	if err != nil {
		return nil, nil, err
	}

	return user, sess, nil
}

// Login returns apperr.ErrAuthentication for both an unknown username and a
// wrong password.
func (m *Manager) Login(ctx context.Context, in *types.Login) (*types.User, *sessions.Session, error) {
	user, err := m.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}

	if user == nil {
		// Spend the same time as a real comparison
		m.hasher.Compare(m.dummy(), in.Password)
		return nil, nil, apperr.ErrAuthentication
	}

	if !m.hasher.Compare(user.Password, in.Password) {
		return nil, nil, apperr.ErrAuthentication
	}

	sess, err := m.sessions.Create(ctx, user.ID, m.ttl)
	if err != nil {
		return nil, nil, err
	}

	return user, sess, nil
}

func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.sessions.Delete(ctx, token)
}

// CurrentUser resolves a token to its user, or apperr.ErrUnauthorized
func (m *Manager) CurrentUser(ctx context.Context, token string) (*types.User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}

	sess, err := m.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.ErrUnauthorized
	}

	user, err := m.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		m.logger.Error("[auth/CurrentUser] Session bound to a missing user", zap.String("userId", sess.UserID.String()))
		return nil, apperr.Inconsistent("session", sess.UserID.String(), "bound user does not exist")
	}

	return user, nil
}

func (m *Manager) dummy() string {
	m.dummyOnce.Do(func() {
		h, err := m.hasher.Hash("connectx-placeholder-password")
		if err != nil {
			m.logger.Error("[auth/dummy] Failed to hash placeholder password", zap.Error(err))
		}
		m.dummyHash = h
	})
	return m.dummyHash
}
