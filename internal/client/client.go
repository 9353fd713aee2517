// Package client talks to the content/API backend: account creation, role records, login and profile save.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/errs"
	"github.com/and161185/campus-onboard/internal/model"
)

// Backend paths.
const (
	PathLogin = "/auth/login"
	PathUsers = "/users"

	collectionStudents   = "students"
	collectionCounselors = "counselors"
)

const maxBody = 1 << 20

// AccountClient issues the remote account workflow calls. Each call is one
// round trip and is never retried.
type AccountClient interface {
	// CreateUser creates the account and returns the backend-assigned id.
	CreateUser(ctx context.Context, email, password, displayName string, roleID uuid.UUID) (string, error)
	// CreateRoleRecord links a role-specific record to an existing user.
	CreateRoleRecord(ctx context.Context, role model.Role, userID, displayName, email string) error
	// Login exchanges credentials for a session.
	Login(ctx context.Context, email, password string) (model.Session, error)
	// SaveProfile stores the personal-info record with the user's token.
	SaveProfile(ctx context.Context, token string, p model.ProfileRecord) error
}

// Options configures HTTP.
type Options struct {
	BaseURL    string
	AdminToken string
	Timeout    time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// HTTP implements AccountClient over JSON/HTTP.
type HTTP struct {
	baseURL    string
	adminToken string
	http       *http.Client
	log        *zap.Logger
	now        func() time.Time
}

var _ AccountClient = (*HTTP)(nil)

// New constructs an HTTP account client.
func New(opts Options, log *zap.Logger) *HTTP {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		adminToken: opts.AdminToken,
		http:       hc,
		log:        log,
		now:        time.Now,
	}
}

// RoleCollection returns the collection holding role records for role.
func RoleCollection(role model.Role) (string, error) {
	switch role {
	case model.RoleStudent:
		return collectionStudents, nil
	case model.RoleTeacher:
		return collectionCounselors, nil
	default:
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidRole, role)
	}
}

func itemsPath(collection string) string { return "/items/" + collection }

type createUserRequest struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	FirstName string    `json:"first_name"`
	Role      uuid.UUID `json:"role"`
}

// CreateUser posts a new user carrying the already-resolved role id.
func (c *HTTP) CreateUser(ctx context.Context, email, password, displayName string, roleID uuid.UUID) (string, error) {
	const op = "create user"
	if roleID == uuid.Nil {
		return "", fmt.Errorf("%s: %w", op, errs.ErrInvalidRole)
	}
	var out struct {
		ID string `json:"id"`
	}
	req := createUserRequest{Email: email, Password: password, FirstName: displayName, Role: roleID}
	status, err := c.do(ctx, op, PathUsers, c.adminToken, req, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		c.log.Warn("response without id", zap.String("op", op))
		return "", &errs.APIError{Op: op, Status: status}
	}
	return out.ID, nil
}

type roleRecordRequest struct {
	User  string `json:"user"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateRoleRecord posts {user, name, email} to the role's collection.
func (c *HTTP) CreateRoleRecord(ctx context.Context, role model.Role, userID, displayName, email string) error {
	const op = "create role record"
	coll, err := RoleCollection(role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.do(ctx, op, itemsPath(coll), c.adminToken, roleRecordRequest{User: userID, Name: displayName, Email: email}, nil)
	return err
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int64  `json:"expires"` // milliseconds
}

// Login posts credentials and returns the session built from data.access_token.
func (c *HTTP) Login(ctx context.Context, email, password string) (model.Session, error) {
	const op = "login"
	var out loginData
	status, err := c.do(ctx, op, PathLogin, "", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return model.Session{}, err
	}
	if out.AccessToken == "" {
		c.log.Warn("response without access token", zap.String("op", op))
		return model.Session{}, &errs.APIError{Op: op, Status: status}
	}
	return model.Session{Token: out.AccessToken, ExpiresAt: c.expiry(out)}, nil
}

// expiry prefers the token's own exp claim, then the response's lifetime.
func (c *HTTP) expiry(d loginData) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(d.AccessToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if d.Expires > 0 {
		return c.now().Add(time.Duration(d.Expires) * time.Millisecond)
	}
	return time.Time{}
}

type profileRequest struct {
	FirstName    string  `json:"first_name"`
	MiddleName   string  `json:"middle_name"`
	LastName     string  `json:"last_name"`
	Suffix       string  `json:"suffix"`
	UsesNickname bool    `json:"uses_nickname"`
	Nickname     *string `json:"nickname"`
}

// SaveProfile posts the personal-info record. The nickname is sent as null
// unless the user opted to share one.
func (c *HTTP) SaveProfile(ctx context.Context, token string, p model.ProfileRecord) error {
	const op = "save profile"
	if strings.TrimSpace(token) == "" {
		return &errs.AuthError{Reason: "missing authentication token"}
	}
	req := profileRequest{
		FirstName:    p.FirstName,
		MiddleName:   p.MiddleName,
		LastName:     p.LastName,
		Suffix:       p.Suffix,
		UsesNickname: p.UsesNickname,
	}
	if p.UsesNickname {
		nick := p.Nickname
		req.Nickname = &nick
	}
	_, err := c.do(ctx, op, itemsPath(collectionStudents), token, req, nil)
	return err
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do performs one POST and decodes envelope.data into out when out != nil.
// Bodies and tokens are never logged.
func (c *HTTP) do(ctx context.Context, op, path, bearer string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("%s: marshal: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("http",
			zap.String("op", op),
			zap.String("path", path),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return 0, &errs.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	c.log.Info("http",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)
	if err != nil {
		return resp.StatusCode, &errs.NetworkError{Op: op, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &errs.APIError{Op: op, Status: resp.StatusCode}
		if decodeErr == nil && len(env.Errors) > 0 {
			apiErr.Message = env.Errors[0].Message
		}
		return resp.StatusCode, apiErr
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if decodeErr == nil && len(env.Data) > 0 {
		decodeErr = json.Unmarshal(env.Data, out)
	}
	if decodeErr != nil || len(env.Data) == 0 {
		c.log.Warn("bad response body", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Error(decodeErr))
		return resp.StatusCode, &errs.APIError{Op: op, Status: resp.StatusCode}
	}
	return resp.StatusCode, nil
}
