package file

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/inboxwatch/internal/connectors/google"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/security"
)

// State backends.
const (
	StateBackendMemory = "memory"
	StateBackendSQLite = "sqlite"
	StateBackendRedis  = "redis"
)

// Duration is a time.Duration written as a string ("10m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the process configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Google  GoogleConfig  `toml:"google"`
	OAuth   OAuthConfig   `toml:"oauth"`
	PubSub  PubSubConfig  `toml:"pubsub"`
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Listen is the bind address.
	Listen string `toml:"listen"`
	// PublicURL is the externally reachable base URL, used to derive the callback URL.
	PublicURL string `toml:"public_url"`
	// SessionHeader is the header an authenticating proxy sets to the session
	// user. Required in session mode; empty otherwise.
	SessionHeader string `toml:"session_header"`
	// StateCookie names the cookie binding the state to the browser.
	StateCookie  string   `toml:"state_cookie"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	// RedirectURL overrides PublicURL + "/auth/callback".
	RedirectURL string `toml:"redirect_url"`
}

// OAuthConfig holds the authorization defaults.
type OAuthConfig struct {
	Scopes        []string `toml:"scopes"`
	IdentityMode  string   `toml:"identity_mode"`
	OfflineAccess bool     `toml:"offline_access"`
	StateTTL      Duration `toml:"state_ttl"`
}

// PubSubConfig names the notification topic.
type PubSubConfig struct {
	Project string `toml:"project"`
	Topic   string `toml:"topic"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// DataDir holds the SQLite database. Empty uses ~/.inboxwatch/data.
	DataDir string `toml:"data_dir"`
	// EncryptionKey is a base64 key; empty disables encryption at rest.
	EncryptionKey string `toml:"encryption_key"`
	// StateBackend is memory, sqlite or redis.
	StateBackend string `toml:"state_backend"`
}

// RedisConfig configures the Redis state backend.
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
}

// CallbackPath is where the provider redirects after consent.
const CallbackPath = "/auth/callback"

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       "127.0.0.1:8080",
			PublicURL:    "http://localhost:8080",
			StateCookie:  "inboxwatch_state",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		OAuth: OAuthConfig{
			Scopes:        slices.Clone(google.DefaultScopes),
			IdentityMode:  "email",
			OfflineAccess: true,
			StateTTL:      Duration{10 * time.Minute},
		},
		Storage: StorageConfig{StateBackend: StateBackendSQLite},
	}
}

// DefaultPath returns ~/.inboxwatch/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".inboxwatch", "config.toml"), nil
}

// Load reads path over the defaults and applies environment overrides.
// An empty path uses DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	optional := path == ""
	if optional {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv(lookup)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"GCP_PROJECT", &c.PubSub.Project},
		{"PUBSUB_TOPIC", &c.PubSub.Topic},
		{"GOOGLE_CLIENT_ID", &c.Google.ClientID},
		{"GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret},
		{"INBOXWATCH_ENCRYPTION_KEY", &c.Storage.EncryptionKey},
		{"INBOXWATCH_REDIS_ADDR", &c.Redis.Addr},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.name); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate checks the configuration needed to serve authorizations.
func (c *Config) Validate() error {
	var errs []error

	if c.Google.ClientID == "" {
		errs = append(errs, errors.New("google.client_id (GOOGLE_CLIENT_ID) is required"))
	}
	if c.Google.ClientSecret == "" {
		errs = append(errs, errors.New("google.client_secret (GOOGLE_CLIENT_SECRET) is required"))
	}
	if err := c.Topic().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pubsub (GCP_PROJECT, PUBSUB_TOPIC): %w", err))
	}
	if len(c.OAuth.Scopes) == 0 {
		errs = append(errs, errors.New("oauth.scopes must not be empty"))
	}
	if mode, err := domain.ParseIdentityMode(c.OAuth.IdentityMode); err != nil {
		errs = append(errs, fmt.Errorf("oauth.identity_mode: %w", err))
	} else if mode == domain.IdentityModeSession && strings.TrimSpace(c.Server.SessionHeader) == "" {
		errs = append(errs, errors.New("server.session_header is required for the session identity mode"))
	}
	if _, err := url.ParseRequestURI(c.RedirectURL()); err != nil {
		errs = append(errs, fmt.Errorf("callback URL: %w", err))
	}
	if _, err := c.EncryptionKey(); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage.StateBackend {
	case StateBackendMemory, StateBackendSQLite:
	case StateBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis state backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.state_backend: unknown backend %q", c.Storage.StateBackend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// Topic returns the configured Pub/Sub topic.
func (c *Config) Topic() domain.TopicTarget {
	return domain.TopicTarget{Project: c.PubSub.Project, Topic: c.PubSub.Topic}
}

// Mode returns the identity mode, defaulting to profile when unparsable.
func (c *Config) Mode() domain.IdentityMode {
	mode, err := domain.ParseIdentityMode(c.OAuth.IdentityMode)
	if err != nil {
		return domain.IdentityModeProfile
	}
	return mode
}

// RedirectURL returns the OAuth callback URL.
func (c *Config) RedirectURL() string {
	if c.Google.RedirectURL != "" {
		return c.Google.RedirectURL
	}
	return strings.TrimSuffix(c.Server.PublicURL, "/") + CallbackPath
}

// EncryptionKey decodes the configured key. A nil key disables encryption.
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.Storage.EncryptionKey == "" {
		return nil, nil
	}
	key, err := security.KeyFromBase64(c.Storage.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage.encryption_key: %w", err)
	}
	return key, nil
}
