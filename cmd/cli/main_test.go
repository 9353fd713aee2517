package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type backend struct {
	mu   sync.Mutex
	reqs []string
	auth []string
	body []map[string]any
}

func (b *backend) handler(w http.ResponseWriter, r *http.Request) {
	var in map[string]any
	_ = json.NewDecoder(r.Body).Decode(&in)
	b.mu.Lock()
	b.reqs = append(b.reqs, r.Method+" "+r.URL.Path)
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	b.body = append(b.body, in)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/users":
		if in["email"] == "taken@b.co" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"message":"Email already exists"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"u-1"}}`))
	case "/items/students", "/items/counselors":
		_, _ = w.Write([]byte(`{"data":{"id":1}}`))
	case "/auth/login":
		if in["password"] != "abcdef" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"message":"Invalid user credentials."}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"access_token":"T","expires":900000}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// withTmpConfig points config and session storage at a temp dir and a fake backend.
func withTmpConfig(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	t.Cleanup(srv.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ONB_BASE_URL", srv.URL+"/")
	t.Setenv("ONB_ADMIN_TOKEN", "admin")
	t.Setenv("ONB_ROLE_IDS_STUDENT", "11111111-1111-4111-8111-111111111111")
	t.Setenv("ONB_ROLE_IDS_TEACHER", "22222222-2222-4222-8222-222222222222")
	t.Setenv("ONB_SESSION_BACKEND", "file")
	t.Setenv("ONB_SESSION_SEAL", "true")
	return b
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errb)
	return code, out.String(), errb.String()
}

func Test_version_and_usage(t *testing.T) {
	code, out, _ := runCLI(t, "", "version")
	if code != 0 || !strings.HasPrefix(out, "onb dev") {
		t.Fatalf("version: code=%d out=%q", code, out)
	}
	code, _, errOut := runCLI(t, "")
	if code != 2 || !strings.Contains(errOut, "Commands:") {
		t.Fatalf("usage: code=%d err=%q", code, errOut)
	}
}

func Test_signup_login_profile_logout(t *testing.T) {
	b := withTmpConfig(t)

	code, out, errOut := runCLI(t, "Abc123!\n", "signup", "-role", "student", "-u", "abc", "-email", "a@b.co", "-p", "-")
	if code != 0 || !strings.Contains(out, "Account created! Please log in.") {
		t.Fatalf("signup: code=%d out=%q err=%q", code, out, errOut)
	}
	if got := strings.Join(b.reqs, ","); got != "POST /users,POST /items/students" {
		t.Fatalf("signup requests: %s", got)
	}
	if b.auth[0] != "Bearer admin" || b.auth[1] != "Bearer admin" {
		t.Fatalf("signup must use admin token: %v", b.auth)
	}

	code, out, _ = runCLI(t, "", "whoami")
	if code != 0 || !strings.Contains(out, "not logged in") {
		t.Fatalf("whoami before login: %q", out)
	}

	code, out, errOut = runCLI(t, "", "login", "-email", "a@b.co", "-p", "abcdef")
	if code != 0 || strings.TrimSpace(out) != "ok" {
		t.Fatalf("login: code=%d out=%q err=%q", code, out, errOut)
	}
	if b.auth[2] != "" {
		t.Fatalf("login must be unauthenticated, got %q", b.auth[2])
	}

	code, out, _ = runCLI(t, "", "whoami")
	if code != 0 || !strings.Contains(out, "logged in (file), expires") {
		t.Fatalf("whoami after login: %q", out)
	}

	code, out, errOut = runCLI(t, "", "profile", "-first", "Ada", "-last", "Lovelace", "-nickname", "stale")
	if code != 0 || !strings.Contains(out, "Profile info saved successfully!") {
		t.Fatalf("profile: code=%d out=%q err=%q", code, out, errOut)
	}
	last := len(b.reqs) - 1
	if b.reqs[last] != "POST /items/students" || b.auth[last] != "Bearer T" {
		t.Fatalf("profile request: %s %s", b.reqs[last], b.auth[last])
	}
	if v, ok := b.body[last]["nickname"]; !ok || v != nil {
		t.Fatalf("nickname must be null when not shared: %v", b.body[last])
	}

	code, out, _ = runCLI(t, "", "logout")
	if code != 0 || !strings.Contains(out, "logged out") {
		t.Fatalf("logout: %q", out)
	}
	n := len(b.reqs)
	code, _, errOut = runCLI(t, "", "profile", "-first", "Ada", "-last", "Lovelace")
	if code != 1 || !strings.Contains(errOut, "Missing authentication token.") {
		t.Fatalf("profile after logout: code=%d err=%q", code, errOut)
	}
	if len(b.reqs) != n {
		t.Fatalf("no request expected without a token")
	}
}

func Test_failures_surface_messages(t *testing.T) {
	b := withTmpConfig(t)

	code, _, errOut := runCLI(t, "", "signup", "-u", "abc", "-email", "a@b.co", "-p", "Abc123!")
	if code != 1 || strings.TrimSpace(errOut) != "Please select a role." {
		t.Fatalf("signup without role: code=%d err=%q", code, errOut)
	}
	code, _, errOut = runCLI(t, "", "signup", "-role", "admin", "-u", "abc", "-email", "a@b.co", "-p", "Abc123!")
	if code != 1 || strings.TrimSpace(errOut) != "Invalid role selected." {
		t.Fatalf("signup with bad role: code=%d err=%q", code, errOut)
	}
	if len(b.reqs) != 0 {
		t.Fatalf("validation failures must not reach the backend: %v", b.reqs)
	}

	code, _, errOut = runCLI(t, "", "signup", "-role", "teacher", "-u", "abc", "-email", "taken@b.co", "-p", "Abc123!")
	if code != 1 || strings.TrimSpace(errOut) != "Email already exists" {
		t.Fatalf("signup conflict: code=%d err=%q", code, errOut)
	}

	code, _, errOut = runCLI(t, "", "login", "-email", "a@b.co", "-p", "wrong-pass")
	if code != 1 || strings.TrimSpace(errOut) != "Invalid user credentials." {
		t.Fatalf("login failure: code=%d err=%q", code, errOut)
	}
	code, out, _ := runCLI(t, "", "whoami")
	if code != 0 || !strings.Contains(out, "not logged in") {
		t.Fatalf("failed login must not store a session: %q", out)
	}
}

func Test_signup_requires_admin_token(t *testing.T) {
	_ = withTmpConfig(t)
	t.Setenv("ONB_ADMIN_TOKEN", "")
	code, _, errOut := runCLI(t, "", "signup", "-role", "student")
	if code != 1 || !strings.Contains(errOut, "admin_token") {
		t.Fatalf("code=%d err=%q", code, errOut)
	}
}

func Test_steps(t *testing.T) {
	_ = withTmpConfig(t)
	code, out, _ := runCLI(t, "", "steps")
	if code != 0 || strings.TrimSpace(out) != "1/1 personal-info" {
		t.Fatalf("steps: %q", out)
	}
}

func Test_login_without_role_ids(t *testing.T) {
	_ = withTmpConfig(t)
	t.Setenv("ONB_ROLE_IDS_STUDENT", "")
	t.Setenv("ONB_ROLE_IDS_TEACHER", "")

	code, out, errOut := runCLI(t, "", "login", "-email", "a@b.co", "-p", "abcdef")
	if code != 0 || strings.TrimSpace(out) != "ok" {
		t.Fatalf("login needs only base_url: code=%d out=%q err=%q", code, out, errOut)
	}
	code, _, errOut = runCLI(t, "", "profile", "-first", "Ada", "-last", "Lovelace")
	if code != 0 {
		t.Fatalf("profile needs only base_url: err=%q", errOut)
	}
	code, _, errOut = runCLI(t, "", "signup", "-role", "student", "-u", "abc", "-email", "a@b.co", "-p", "Abc123!")
	if code != 1 || !strings.Contains(errOut, "role_ids") {
		t.Fatalf("signup must require role ids: code=%d err=%q", code, errOut)
	}
}

func Test_profile_shares_nickname(t *testing.T) {
	b := withTmpConfig(t)
	_, _, usageOut := runCLI(t, "")
	if !strings.Contains(usageOut, "-uses-nickname") {
		t.Fatalf("usage must document -uses-nickname: %q", usageOut)
	}

	if code, _, errOut := runCLI(t, "", "login", "-email", "a@b.co", "-p", "abcdef"); code != 0 {
		t.Fatalf("login: %q", errOut)
	}
	code, _, errOut := runCLI(t, "", "profile", "-first", "Ada", "-last", "Lovelace", "-uses-nickname", "-nickname", "Countess")
	if code != 0 {
		t.Fatalf("profile: code=%d err=%q", code, errOut)
	}
	last := b.body[len(b.body)-1]
	if last["uses_nickname"] != true || last["nickname"] != "Countess" {
		t.Fatalf("nickname not sent: %v", last)
	}

	code, _, errOut = runCLI(t, "", "profile", "-first", "Ada", "-last", "Lovelace", "-uses-nickname")
	if code != 1 || strings.TrimSpace(errOut) != "Please enter your nickname." {
		t.Fatalf("empty shared nickname: code=%d err=%q", code, errOut)
	}
}
