// Package session persists the single login token across runs.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
)

// Key is the fixed key the token lives under in every backend.
const Key = "onb.session"

// Store persists one session value.
type Store interface {
	// Save replaces the stored session.
	Save(ctx context.Context, s model.Session) error
	// Load returns the stored session or errs.ErrNoSession when absent or expired.
	Load(ctx context.Context) (model.Session, error)
	// Clear removes the stored session; clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// record is the serialized form shared by the file and redis backends.
type record struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

func toRecord(s model.Session) record {
	return record{AccessToken: s.Token, ExpiresAt: s.ExpiresAt}
}

func (r record) session() model.Session {
	return model.Session{Token: r.AccessToken, ExpiresAt: r.ExpiresAt}
}

// usable rejects empty and expired sessions.
func usable(s model.Session, now time.Time) (model.Session, error) {
	if s.Token == "" {
		return model.Session{}, errs.ErrNoSession
	}
	if s.Expired(now) {
		return model.Session{}, fmt.Errorf("%w: expired at %s", errs.ErrNoSession, s.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return s, nil
}
