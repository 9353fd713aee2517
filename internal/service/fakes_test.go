package service

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/campus-onboard/internal/client"
	"github.com/and161185/campus-onboard/internal/model"
	"github.com/and161185/campus-onboard/internal/session"
)

type call struct {
	Op     string
	Args   []string
	Role   model.Role
	RoleID uuid.UUID
	Token  string
	Prof   model.ProfileRecord
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []call

	userID     string
	createErr  error
	recordErr  error
	session    model.Session
	loginErr   error
	profileErr error

	// block, when set, parks the first call until released.
	block chan struct{}
	ready chan struct{}
}

var _ client.AccountClient = (*fakeAPI)(nil)

func (f *fakeAPI) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.block != nil {
		close(f.ready)
		<-f.block
		f.block = nil
	}
}

func (f *fakeAPI) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Op)
	}
	return out
}

func (f *fakeAPI) CreateUser(_ context.Context, email, password, displayName string, roleID uuid.UUID) (string, error) {
	f.record(call{Op: "create_user", Args: []string{email, password, displayName}, RoleID: roleID})
	return f.userID, f.createErr
}

func (f *fakeAPI) CreateRoleRecord(_ context.Context, role model.Role, userID, displayName, email string) error {
	f.record(call{Op: "create_role_record", Args: []string{userID, displayName, email}, Role: role})
	return f.recordErr
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (model.Session, error) {
	f.record(call{Op: "login", Args: []string{email, password}})
	if f.loginErr != nil {
		return model.Session{}, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAPI) SaveProfile(_ context.Context, token string, p model.ProfileRecord) error {
	f.record(call{Op: "save_profile", Token: token, Prof: p})
	return f.profileErr
}

// countingStore wraps a memory store and counts mutations.
type countingStore struct {
	*session.Memory
	saves, clears int
	saveErr       error
	loadErr       error
}

func newStore() *countingStore { return &countingStore{Memory: session.NewMemory()} }

func (s *countingStore) Save(ctx context.Context, v model.Session) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Memory.Save(ctx, v)
}

func (s *countingStore) Load(ctx context.Context) (model.Session, error) {
	if s.loadErr != nil {
		return model.Session{}, s.loadErr
	}
	return s.Memory.Load(ctx)
}

func (s *countingStore) Clear(ctx context.Context) error {
	s.clears++
	return s.Memory.Clear(ctx)
}

type roleTable map[model.Role]uuid.UUID

func (t roleTable) For(r model.Role) (uuid.UUID, bool) {
	id, ok := t[r]
	return id, ok
}
