package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/client"
	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
	"github.com/and161185/campus-onboard/internal/session"
	"github.com/and161185/campus-onboard/internal/validate"
)

// AuthService defines login and session operations.
type AuthService interface {
	// Login validates credentials, authenticates and persists the session.
	Login(ctx context.Context, c model.Credentials) Outcome
	// Logout clears the stored session.
	Logout(ctx context.Context) error
	// Current returns the stored session or errs.ErrNoSession.
	Current(ctx context.Context) (model.Session, error)
}

type AuthServiceImpl struct {
	api   client.AccountClient
	store session.Store
	log   *zap.Logger
	g     guard
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(api client.AccountClient, store session.Store, log *zap.Logger) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{api: api, store: store, log: log}
}

// Login checks email then password, calls the backend and saves the
// session before reporting success. The store is untouched on failure.
func (s *AuthServiceImpl) Login(ctx context.Context, c model.Credentials) Outcome {
	if !s.g.enter() {
		return busyOutcome
	}
	defer s.g.leave()

	switch {
	case !validate.Email(c.Email):
		return invalid(FieldEmail, MsgEmail)
	case !validate.LoginPassword(c.Password):
		return invalid(FieldPassword, MsgLoginPass)
	}

	sess, err := s.api.Login(ctx, strings.TrimSpace(c.Email), c.Password)
	if err != nil {
		s.log.Info("login failed", zap.Error(err))
		return Outcome{State: StateFailed, Message: errs.UserMessage(err, MsgLoginFailed), Err: err}
	}
	if err := s.store.Save(ctx, sess); err != nil {
		s.log.Error("persist session", zap.Error(err))
		return Outcome{State: StateFailed, Message: MsgLoginFailed, Err: fmt.Errorf("save session: %w", err)}
	}

	s.log.Info("login ok", zap.Time("expires_at", sess.ExpiresAt))
	return Outcome{State: StateSuccess}
}

// Logout clears the stored session; logging out twice is not an error.
func (s *AuthServiceImpl) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current reads the session back from the store.
func (s *AuthServiceImpl) Current(ctx context.Context) (model.Session, error) {
	sess, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, errs.ErrNoSession) {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}
	return sess, err
}
