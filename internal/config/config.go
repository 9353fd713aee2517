// Package config loads client configuration from .env, an optional onb.yaml and ONB_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/and161185/campus-onboard/internal/model"
)

const appDir = "campus-onboard"

// Session backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds everything the client needs; none of it is compiled in.
type Config struct {
	BaseURL    string
	AdminToken string // used for account creation only
	RoleIDs    RoleIDs
	Timeout    time.Duration
	LogLevel   string
	Session    SessionConfig
}

// RoleIDs is the static role -> backend role identifier table.
type RoleIDs struct {
	Student uuid.UUID
	Teacher uuid.UUID
}

// For returns the identifier configured for role.
func (r RoleIDs) For(role model.Role) (uuid.UUID, bool) {
	var id uuid.UUID
	switch role {
	case model.RoleStudent:
		id = r.Student
	case model.RoleTeacher:
		id = r.Teacher
	}
	return id, id != uuid.Nil
}

// SessionConfig selects and parameterises the session store.
type SessionConfig struct {
	Backend     string
	Path        string // file backend
	Seal        bool   // file backend: encrypt at rest
	KeyPath     string // file backend: sealing key
	PostgresDSN string
	RedisAddr   string
	RedisDB     int
}

// Dir returns the per-user config directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

// Load reads configuration. An explicit file must exist; otherwise onb.yaml is
// looked up in the working directory and Dir() and may be absent.
func Load(file string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("log_level", "error")
	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.path", filepath.Join(Dir(), "session.json"))
	v.SetDefault("session.key_path", filepath.Join(Dir(), "session.key"))
	v.SetDefault("session.redis_db", 0)

	v.SetEnvPrefix("ONB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("onb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	student, err := parseRoleID(v.GetString("role_ids.student"))
	if err != nil {
		return Config{}, fmt.Errorf("role_ids.student: %w", err)
	}
	teacher, err := parseRoleID(v.GetString("role_ids.teacher"))
	if err != nil {
		return Config{}, fmt.Errorf("role_ids.teacher: %w", err)
	}

	return Config{
		BaseURL:    NormalizeBaseURL(v.GetString("base_url")),
		AdminToken: strings.TrimSpace(v.GetString("admin_token")),
		RoleIDs:    RoleIDs{Student: student, Teacher: teacher},
		Timeout:    v.GetDuration("timeout"),
		LogLevel:   v.GetString("log_level"),
		Session: SessionConfig{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString("session.backend"))),
			Path:        v.GetString("session.path"),
			Seal:        v.GetBool("session.seal"),
			KeyPath:     v.GetString("session.key_path"),
			PostgresDSN: v.GetString("session.postgres_dsn"),
			RedisAddr:   v.GetString("session.redis_addr"),
			RedisDB:     v.GetInt("session.redis_db"),
		},
	}, nil
}

// Validate checks the keys every backend call needs.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	switch c.Session.Backend {
	case BackendFile, BackendMemory:
	case BackendPostgres:
		if c.Session.PostgresDSN == "" {
			return errors.New("config: session.postgres_dsn is required for postgres backend")
		}
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("config: session.redis_addr is required for redis backend")
		}
	default:
		return fmt.Errorf("config: unknown session.backend %q", c.Session.Backend)
	}
	return nil
}

// ValidateSignup additionally requires the role id table and the admin token
// used for account creation.
func (c Config) ValidateSignup() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.RoleIDs.Student == uuid.Nil || c.RoleIDs.Teacher == uuid.Nil {
		return errors.New("config: role_ids.student and role_ids.teacher are required for signup")
	}
	if c.AdminToken == "" {
		return errors.New("config: admin_token is required for signup")
	}
	return nil
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

func parseRoleID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.FromString(s)
}
