package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultRepositoryBackend = BackendMemory
	defaultSQLitePath        = "carts.db"

	defaultCatalogDir = "catalog"

	defaultSessionCookie = "menu_session"
	defaultSessionTTL    = 30 * 24 * time.Hour

	defaultTransitDelay = 600 * time.Millisecond
	defaultBounceDelay  = 400 * time.Millisecond
	defaultToastVisible = 2 * time.Second
	defaultToastExit    = 300 * time.Millisecond

	defaultDetailCollapse = 400 * time.Millisecond

	defaultContactDelay = time.Second

	defaultDiscounts = "SAVE20=0.2,WELCOME10=0.1"
)

// Repository backend identifiers accepted by MENU_REPOSITORY_BACKEND.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Repository RepositoryConfig
	Firestore  FirestoreConfig
	Catalog    CatalogConfig
	Session    SessionConfig
	Cart       CartConfig
	Feedback   FeedbackConfig
	Detail     DetailConfig
	Contact    ContactConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RepositoryConfig selects and configures the cart persistence backend.
type RepositoryConfig struct {
	Backend    string
	SQLitePath string
}

// FirestoreConfig stores database parameters for the firestore backend.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// CatalogConfig locates the menu data files.
type CatalogConfig struct {
	Dir string
}

// SessionConfig controls the browsing-session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

// CartConfig carries cart business parameters.
type CartConfig struct {
	// Discounts maps coupon codes (upper case) to price fractions.
	Discounts map[string]float64
}

// FeedbackConfig holds the add-to-cart feedback sequence timings.
type FeedbackConfig struct {
	TransitDelay time.Duration
	BounceDelay  time.Duration
	ToastVisible time.Duration
	ToastExit    time.Duration
}

// DetailConfig holds item-detail presentation timings.
type DetailConfig struct {
	CollapseCleanup time.Duration
}

// ContactConfig controls the contact form stub.
type ContactConfig struct {
	SubmitDelay time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "MENU_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "MENU_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "MENU_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "MENU_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Repository: RepositoryConfig{
			Backend:    strings.ToLower(stringWithDefault(lookup, "MENU_REPOSITORY_BACKEND", defaultRepositoryBackend)),
			SQLitePath: stringWithDefault(lookup, "MENU_REPOSITORY_SQLITE_PATH", defaultSQLitePath),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "MENU_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "MENU_FIRESTORE_EMULATOR_HOST", ""),
		},
		Catalog: CatalogConfig{
			Dir: stringWithDefault(lookup, "MENU_CATALOG_DIR", defaultCatalogDir),
		},
		Session: SessionConfig{
			CookieName: stringWithDefault(lookup, "MENU_SESSION_COOKIE", defaultSessionCookie),
			TTL:        durationWithDefault(lookup, "MENU_SESSION_TTL", defaultSessionTTL),
		},
		Cart: CartConfig{
			Discounts: discountsWithDefault(lookup, "MENU_CART_DISCOUNTS"),
		},
		Feedback: FeedbackConfig{
			TransitDelay: durationWithDefault(lookup, "MENU_FEEDBACK_TRANSIT_DELAY", defaultTransitDelay),
			BounceDelay:  durationWithDefault(lookup, "MENU_FEEDBACK_BOUNCE_DELAY", defaultBounceDelay),
			ToastVisible: durationWithDefault(lookup, "MENU_FEEDBACK_TOAST_VISIBLE", defaultToastVisible),
			ToastExit:    durationWithDefault(lookup, "MENU_FEEDBACK_TOAST_EXIT", defaultToastExit),
		},
		Detail: DetailConfig{
			CollapseCleanup: durationWithDefault(lookup, "MENU_DETAIL_COLLAPSE_CLEANUP", defaultDetailCollapse),
		},
		Contact: ContactConfig{
			SubmitDelay: durationWithDefault(lookup, "MENU_CONTACT_SUBMIT_DELAY", defaultContactDelay),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Catalog.Dir == "" {
		missing = append(missing, "Catalog.Dir")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		missing = append(missing, "Session.CookieName")
	}
	if cfg.Session.TTL <= 0 {
		missing = append(missing, "Session.TTL")
	}

	switch cfg.Repository.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(cfg.Repository.SQLitePath) == "" {
			missing = append(missing, "Repository.SQLitePath")
		}
	case BackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	default:
		missing = append(missing, "Repository.Backend")
	}

	for code, fraction := range cfg.Cart.Discounts {
		if fraction <= 0 || fraction > 1 {
			missing = append(missing, fmt.Sprintf("Cart.Discounts[%s]", code))
		}
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

// discountsWithDefault parses "CODE=fraction" pairs separated by commas.
// Codes are normalised to upper case the same way coupon input is.
func discountsWithDefault(lookup func(string) (string, bool), key string) map[string]float64 {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		raw = defaultDiscounts
	}

	values := make(map[string]float64)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		fraction, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || code == "" {
			continue
		}
		values[code] = fraction
	}
	return values
}
