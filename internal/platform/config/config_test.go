package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Repository.Backend != BackendMemory {
		t.Errorf("expected default backend memory, got %s", cfg.Repository.Backend)
	}
	if cfg.Catalog.Dir != defaultCatalogDir {
		t.Errorf("unexpected catalog dir %s", cfg.Catalog.Dir)
	}
	if cfg.Session.CookieName != defaultSessionCookie {
		t.Errorf("unexpected session cookie %s", cfg.Session.CookieName)
	}
	if cfg.Feedback.TransitDelay != 600*time.Millisecond {
		t.Errorf("unexpected transit delay %s", cfg.Feedback.TransitDelay)
	}
	if cfg.Feedback.ToastVisible != 2*time.Second {
		t.Errorf("unexpected toast visible duration %s", cfg.Feedback.ToastVisible)
	}
	if cfg.Detail.CollapseCleanup != 400*time.Millisecond {
		t.Errorf("unexpected collapse cleanup %s", cfg.Detail.CollapseCleanup)
	}
	if cfg.Contact.SubmitDelay != time.Second {
		t.Errorf("unexpected contact delay %s", cfg.Contact.SubmitDelay)
	}
	if cfg.Cart.Discounts["SAVE20"] != 0.2 {
		t.Errorf("expected default SAVE20 discount, got %v", cfg.Cart.Discounts)
	}
	if cfg.Cart.Discounts["WELCOME10"] != 0.1 {
		t.Errorf("expected default WELCOME10 discount, got %v", cfg.Cart.Discounts)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"MENU_SERVER_PORT":              "9090",
		"MENU_SERVER_READ_TIMEOUT":      "20s",
		"MENU_SERVER_IDLE_TIMEOUT":      "2m",
		"MENU_REPOSITORY_BACKEND":       "sqlite",
		"MENU_REPOSITORY_SQLITE_PATH":   "/tmp/carts.db",
		"MENU_CATALOG_DIR":              "/srv/menu",
		"MENU_SESSION_COOKIE":           "sid",
		"MENU_SESSION_TTL":              "48h",
		"MENU_CART_DISCOUNTS":           "half=0.5, vip =0.25",
		"MENU_FEEDBACK_TRANSIT_DELAY":   "1s",
		"MENU_FEEDBACK_TOAST_VISIBLE":   "3s",
		"MENU_DETAIL_COLLAPSE_CLEANUP":  "250ms",
		"MENU_CONTACT_SUBMIT_DELAY":     "2s",
		"MENU_FIRESTORE_PROJECT_ID":     "menu-prod",
		"MENU_FIRESTORE_EMULATOR_HOST":  "localhost:8200",
		"MENU_SERVER_WRITE_TIMEOUT":     "25s",
		"MENU_FEEDBACK_BOUNCE_DELAY":    "500ms",
		"MENU_FEEDBACK_TOAST_EXIT":      "200ms",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Repository.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.Repository.Backend)
	}
	if cfg.Repository.SQLitePath != "/tmp/carts.db" {
		t.Errorf("unexpected sqlite path %s", cfg.Repository.SQLitePath)
	}
	if cfg.Session.TTL != 48*time.Hour {
		t.Errorf("unexpected session ttl %s", cfg.Session.TTL)
	}
	if cfg.Cart.Discounts["HALF"] != 0.5 {
		t.Errorf("expected HALF discount 0.5, got %v", cfg.Cart.Discounts)
	}
	if cfg.Cart.Discounts["VIP"] != 0.25 {
		t.Errorf("expected VIP discount 0.25, got %v", cfg.Cart.Discounts)
	}
	if cfg.Feedback.TransitDelay != time.Second {
		t.Errorf("unexpected transit delay %s", cfg.Feedback.TransitDelay)
	}
	if cfg.Feedback.BounceDelay != 500*time.Millisecond {
		t.Errorf("unexpected bounce delay %s", cfg.Feedback.BounceDelay)
	}
	if cfg.Detail.CollapseCleanup != 250*time.Millisecond {
		t.Errorf("unexpected collapse cleanup %s", cfg.Detail.CollapseCleanup)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Errorf("unexpected emulator host %s", cfg.Firestore.EmulatorHost)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "MENU_SERVER_PORT=7070\nMENU_CATALOG_DIR=/data/menu\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Catalog.Dir != "/data/menu" {
		t.Errorf("expected catalog dir from dotenv, got %s", cfg.Catalog.Dir)
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	env := map[string]string{
		"MENU_REPOSITORY_BACKEND": "redis",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if fields := verr.Fields(); len(fields) != 1 || fields[0] != "Repository.Backend" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestLoadFirestoreBackendRequiresProject(t *testing.T) {
	env := map[string]string{
		"MENU_REPOSITORY_BACKEND": "firestore",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadDiscountFractionBounds(t *testing.T) {
	// A full 100% code is a valid fraction; zero and above-one are not.
	cfg, err := Load(WithEnvMap(map[string]string{"MENU_CART_DISCOUNTS": "FREE=1.0"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("expected 100%% discount to validate, got %v", err)
	}
	if cfg.Cart.Discounts["FREE"] != 1.0 {
		t.Errorf("expected FREE discount 1.0, got %v", cfg.Cart.Discounts)
	}

	for _, raw := range []string{"FREE=0", "FREE=1.5"} {
		if _, err := Load(WithEnvMap(map[string]string{"MENU_CART_DISCOUNTS": raw}), WithoutSystemEnv(), WithEnvFile("")); err == nil {
			t.Fatalf("expected validation error for %q, got nil", raw)
		}
	}
}
