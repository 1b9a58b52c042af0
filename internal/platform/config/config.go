// Package config loads runtime configuration from defaults, an optional
// dotenv file, process environment, and Secret Manager references.
package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// FirebaseConfig identifies the Firebase project used for admin auth.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig selects the Firestore database.
type FirestoreConfig struct {
	ProjectID  string
	DatabaseID string
}

// StorageConfig covers the bucket used for bank slips and product images.
type StorageConfig struct {
	Bucket           string
	SignedURLTTL     time.Duration
	ServiceAccount   string
	PrivateKeySecret string
}

// ContentConfig points at the Sanity content API.
type ContentConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	CacheTTL   time.Duration
	UseCDN     bool
}

// CheckoutConfig carries checkout tunables.
type CheckoutConfig struct {
	MaxSlipSizeBytes int64
}

// IdempotencyConfig controls the duplicate-submission guard.
type IdempotencyConfig struct {
	Enabled    bool
	TTL        time.Duration
	Collection string
}

// EventsConfig names the Pub/Sub topic for order events. Empty topic
// disables publishing.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

// Config is the full runtime configuration.
type Config struct {
	Environment string
	Server      ServerConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	Content     ContentConfig
	Checkout    CheckoutConfig
	Idempotency IdempotencyConfig
	Events      EventsConfig
}

// SecretResolver fetches the payload behind an sm:// reference.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Option customises Load.
type Option func(*loadOptions)

type loadOptions struct {
	envFile  string
	envMap   map[string]string
	resolver SecretResolver
}

// WithEnvFile points Load at a dotenv file. Missing files are ignored.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithEnvironment overlays explicit values on top of the process env,
// mainly for tests.
func WithEnvironment(values map[string]string) Option {
	return func(o *loadOptions) { o.envMap = values }
}

// WithSecretResolver enables sm:// reference resolution.
func WithSecretResolver(r SecretResolver) Option {
	return func(o *loadOptions) { o.resolver = r }
}

// MissingSecretsError reports sm:// references that could not be resolved.
type MissingSecretsError struct {
	Refs []string
}

func (e *MissingSecretsError) Error() string {
	sort.Strings(e.Refs)
	return "config: unresolved secret references: " + strings.Join(e.Refs, ", ")
}

const secretRefPrefix = "sm://"

// Load builds the Config. Precedence, highest first: WithEnvironment
// values, process env, dotenv file, built-in defaults.
func Load(ctx context.Context, opts ...Option) (*Config, error) {
	o := loadOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	fileValues := map[string]string{}
	if o.envFile != "" {
		parsed, err := parseEnvFile(o.envFile)
		if err != nil {
			return nil, err
		}
		fileValues = parsed
	}

	lookup := func(key string) (string, bool) {
		if o.envMap != nil {
			if v, ok := o.envMap[key]; ok {
				return v, true
			}
		}
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}

	cfg := &Config{
		Environment: stringValue(lookup, "APP_ENV", "development"),
		Server: ServerConfig{
			Port:            intValue(lookup, "SERVER_PORT", 8080),
			ReadTimeout:     durationValue(lookup, "SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    durationValue(lookup, "SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: durationValue(lookup, "SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  csvValue(lookup, "SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringValue(lookup, "FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringValue(lookup, "FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:  stringValue(lookup, "FIRESTORE_PROJECT_ID", ""),
			DatabaseID: stringValue(lookup, "FIRESTORE_DATABASE_ID", "(default)"),
		},
		Storage: StorageConfig{
			Bucket:           stringValue(lookup, "STORAGE_BUCKET", ""),
			SignedURLTTL:     durationValue(lookup, "STORAGE_SIGNED_URL_TTL", 15*time.Minute),
			ServiceAccount:   stringValue(lookup, "STORAGE_SERVICE_ACCOUNT", ""),
			PrivateKeySecret: stringValue(lookup, "STORAGE_PRIVATE_KEY", ""),
		},
		Content: ContentConfig{
			ProjectID:  stringValue(lookup, "SANITY_PROJECT_ID", ""),
			Dataset:    stringValue(lookup, "SANITY_DATASET", "production"),
			APIVersion: stringValue(lookup, "SANITY_API_VERSION", "2024-01-01"),
			Token:      stringValue(lookup, "SANITY_TOKEN", ""),
			CacheTTL:   durationValue(lookup, "SANITY_CACHE_TTL", 60*time.Second),
			UseCDN:     boolValue(lookup, "SANITY_USE_CDN", true),
		},
		Checkout: CheckoutConfig{
			MaxSlipSizeBytes: int64Value(lookup, "CHECKOUT_MAX_SLIP_BYTES", 5*1024*1024),
		},
		Idempotency: IdempotencyConfig{
			Enabled:    boolValue(lookup, "IDEMPOTENCY_ENABLED", true),
			TTL:        durationValue(lookup, "IDEMPOTENCY_TTL", 24*time.Hour),
			Collection: stringValue(lookup, "IDEMPOTENCY_COLLECTION", "idempotencyKeys"),
		},
		Events: EventsConfig{
			ProjectID: stringValue(lookup, "EVENTS_PROJECT_ID", ""),
			Topic:     stringValue(lookup, "EVENTS_TOPIC", ""),
		},
	}

	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Firestore.ProjectID
	}

	if err := resolveSecrets(ctx, cfg, o.resolver); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Firestore.ProjectID == "" {
		return errors.New("config: FIRESTORE_PROJECT_ID or FIREBASE_PROJECT_ID is required")
	}
	if c.Checkout.MaxSlipSizeBytes <= 0 {
		return errors.New("config: CHECKOUT_MAX_SLIP_BYTES must be positive")
	}
	return nil
}

func resolveSecrets(ctx context.Context, cfg *Config, resolver SecretResolver) error {
	targets := []*string{
		&cfg.Content.Token,
		&cfg.Storage.PrivateKeySecret,
	}

	var missing []string
	for _, target := range targets {
		ref := *target
		if !strings.HasPrefix(ref, secretRefPrefix) {
			continue
		}
		if resolver == nil {
			missing = append(missing, ref)
			continue
		}
		value, err := resolver.Resolve(ctx, ref)
		if err != nil {
			missing = append(missing, ref)
			continue
		}
		*target = value
	}
	if len(missing) > 0 {
		return &MissingSecretsError{Refs: missing}
	}
	return nil
}

func parseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(string) (string, bool)

func stringValue(lookup lookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func intValue(lookup lookupFunc, key string, fallback int) int {
	if v, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func int64Value(lookup lookupFunc, key string, fallback int64) int64 {
	if v, ok := lookup(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolValue(lookup lookupFunc, key string, fallback bool) bool {
	if v, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func durationValue(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if v, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func csvValue(lookup lookupFunc, key string, fallback []string) []string {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
