package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/campus-onboard/internal/crypto/clientcrypto"
	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
)

// File keeps the session in a JSON file, optionally sealed with a device key.
type File struct {
	path   string
	sealer *clientcrypto.Sealer // nil: plaintext JSON
	now    func() time.Time
}

var _ Store = (*File)(nil)

// NewFile constructs a file store at path. sealer may be nil.
func NewFile(path string, sealer *clientcrypto.Sealer) *File {
	return &File{path: path, sealer: sealer, now: time.Now}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Save writes the session atomically with 0600 permissions.
func (f *File) Save(_ context.Context, s model.Session) error {
	b, err := json.MarshalIndent(toRecord(s), "", "  ")
	if err != nil {
		return err
	}
	if f.sealer != nil {
		if b, err = f.sealer.Seal(b, []byte(Key)); err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Load reads the session back.
func (f *File) Load(_ context.Context) (model.Session, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.Session{}, errs.ErrNoSession
	}
	if err != nil {
		return model.Session{}, err
	}
	if f.sealer != nil {
		if b, err = f.sealer.Open(b, []byte(Key)); err != nil {
			return model.Session{}, fmt.Errorf("open session: %w", err)
		}
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return usable(r.session(), f.now())
}

// Clear deletes the file.
func (f *File) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
