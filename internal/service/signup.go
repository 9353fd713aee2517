package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/client"
	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
	"github.com/and161185/campus-onboard/internal/validate"
)

// RoleResolver maps a role to its backend identifier; config.RoleIDs implements it.
type RoleResolver interface {
	For(role model.Role) (uuid.UUID, bool)
}

// SignupWizard drives role selection and the two-call account creation.
// Form values are owned by the caller and never modified.
type SignupWizard struct {
	api   client.AccountClient
	roles RoleResolver
	log   *zap.Logger

	g     guard
	mu    sync.Mutex
	state State
	role  model.Role
}

// NewSignupWizard constructs a wizard in StateIdle.
func NewSignupWizard(api client.AccountClient, roles RoleResolver, log *zap.Logger) *SignupWizard {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignupWizard{api: api, roles: roles, log: log}
}

// State returns the current position.
func (w *SignupWizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// ChooseRole records the selected role; an empty role returns the wizard to idle.
func (w *SignupWizard) ChooseRole(role model.Role) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.role = role
	w.state = rest(role)
}

// Role returns the selected role.
func (w *SignupWizard) Role() model.Role {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.role
}

func rest(role model.Role) State {
	if role == "" {
		return StateIdle
	}
	return StateRoleChosen
}

func (w *SignupWizard) set(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Submit validates the form fail-fast and creates the account. form.Role
// overrides the chosen role when set. On failure the wizard returns to its
// resting state and the outcome carries StateFailed.
func (w *SignupWizard) Submit(ctx context.Context, form model.SignupForm) Outcome {
	if !w.g.enter() {
		return busyOutcome
	}
	defer w.g.leave()

	if form.Role != "" {
		w.ChooseRole(form.Role)
	}
	role := w.Role()
	w.set(StateSubmitting)

	out := w.submit(ctx, role, form)
	if out.OK() {
		w.set(StateSuccess)
	} else {
		w.set(rest(role))
	}
	return out
}

func (w *SignupWizard) submit(ctx context.Context, role model.Role, form model.SignupForm) Outcome {
	roleID, out, ok := w.check(role, form)
	if !ok {
		w.log.Debug("signup rejected", zap.String("field", out.Err.(*errs.ValidationError).Field))
		return out
	}

	name := strings.TrimSpace(form.Username)
	email := strings.TrimSpace(form.Email)

	userID, err := w.api.CreateUser(ctx, email, form.Password, name, roleID)
	if err != nil {
		w.log.Info("signup failed", zap.String("step", "create_user"), zap.Error(err))
		return Outcome{State: StateFailed, Message: errs.UserMessage(err, MsgSignupFailed), Err: err}
	}

	if err := w.api.CreateRoleRecord(ctx, role, userID, name, email); err != nil {
		w.log.Warn("user created without role record",
			zap.String("user_id", userID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return Outcome{
			State:   StateFailed,
			Message: errs.UserMessage(err, MsgSignupFailed),
			Err:     fmt.Errorf("%w: user %s: %w", errs.ErrPartialSignup, userID, err),
			UserID:  userID,
		}
	}

	w.log.Info("signup complete", zap.String("user_id", userID), zap.String("role", string(role)))
	return Outcome{State: StateSuccess, Message: MsgSignupOK, UserID: userID}
}

// check runs the form rules in order: role, username, email, password,
// then the role identifier lookup.
func (w *SignupWizard) check(role model.Role, form model.SignupForm) (uuid.UUID, Outcome, bool) {
	switch {
	case role == "":
		return uuid.Nil, invalid(FieldRole, MsgSelectRole), false
	case role != model.RoleStudent && role != model.RoleTeacher:
		return uuid.Nil, invalid(FieldRole, MsgInvalidRole), false
	case !validate.Username(form.Username):
		return uuid.Nil, invalid(FieldUsername, MsgUsername), false
	case !validate.Email(form.Email):
		return uuid.Nil, invalid(FieldEmail, MsgEmail), false
	case !validate.SignupPassword(form.Password):
		return uuid.Nil, invalid(FieldPassword, MsgSignupPass), false
	}
	id, ok := w.roles.For(role)
	if !ok {
		return uuid.Nil, invalid(FieldRole, MsgInvalidRole), false
	}
	return id, Outcome{}, true
}
