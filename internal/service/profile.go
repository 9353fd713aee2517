package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/client"
	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
	"github.com/and161185/campus-onboard/internal/session"
	"github.com/and161185/campus-onboard/internal/validate"
)

// StepPersonalInfo is the only profile step.
const StepPersonalInfo = "personal-info"

// ProfileWizard saves the personal-info step with the user's token.
type ProfileWizard struct {
	api   client.AccountClient
	store session.Store
	log   *zap.Logger
	g     guard
}

// NewProfileWizard constructs a ProfileWizard. store is only used by SaveCurrent.
func NewProfileWizard(api client.AccountClient, store session.Store, log *zap.Logger) *ProfileWizard {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileWizard{api: api, store: store, log: log}
}

// Steps lists the wizard steps in order.
func (w *ProfileWizard) Steps() []string { return []string{StepPersonalInfo} }

// Save validates rec and stores it. Backend detail is logged but never
// surfaced; the user only sees the generic retry message.
func (w *ProfileWizard) Save(ctx context.Context, token string, rec model.ProfileRecord) Outcome {
	if !w.g.enter() {
		return busyOutcome
	}
	defer w.g.leave()
	return w.save(ctx, token, rec)
}

// SaveCurrent reads the token from the session store and saves rec with it.
func (w *ProfileWizard) SaveCurrent(ctx context.Context, rec model.ProfileRecord) Outcome {
	if !w.g.enter() {
		return busyOutcome
	}
	defer w.g.leave()

	sess, err := w.store.Load(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrNoSession) {
			return w.save(ctx, "", rec)
		}
		w.log.Error("load session", zap.Error(err))
		return Outcome{State: StateFailed, Message: MsgProfileFailed, Err: err}
	}
	return w.save(ctx, sess.Token, rec)
}

func (w *ProfileWizard) save(ctx context.Context, token string, rec model.ProfileRecord) Outcome {
	if strings.TrimSpace(token) == "" {
		return Outcome{State: StateFailed, Message: MsgMissingToken, Err: &errs.AuthError{Reason: "missing token"}}
	}
	switch {
	case !validate.Required(rec.FirstName):
		return invalid(FieldFirstName, MsgFirstName)
	case !validate.Required(rec.LastName):
		return invalid(FieldLastName, MsgLastName)
	case !validate.Nickname(rec.UsesNickname, rec.Nickname):
		return invalid(FieldNickname, MsgNickname)
	}

	if err := w.api.SaveProfile(ctx, token, rec); err != nil {
		w.log.Info("profile save failed", zap.String("step", StepPersonalInfo), zap.Error(err))
		return Outcome{State: StateFailed, Message: MsgProfileFailed, Err: err}
	}
	return Outcome{State: StateSuccess, Message: MsgProfileOK}
}
