package vault

import (
	"io"
	"log/slog"
	"testing"

	"github.com/alvslovescyber/dashingly/internal/database"
	"github.com/alvslovescyber/dashingly/internal/store"
)

func setupVault(t *testing.T, passphrase string) *Vault {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store.NewSettingsStore(db), passphrase, logger)
}

type testSecret struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

func TestVaultRoundTripEncrypted(t *testing.T) {
	v := setupVault(t, "correct horse battery staple")

	if !v.EncryptionAvailable() {
		t.Fatal("encryption should be available with a passphrase")
	}

	in := testSecret{ClientID: "abc", ClientSecret: "shh"}
	if err := v.Save("strava_credentials", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out testSecret
	found, err := v.Get("strava_credentials", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("secret not found after save")
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestVaultRoundTripPlaintext(t *testing.T) {
	v := setupVault(t, "")

	if v.EncryptionAvailable() {
		t.Fatal("encryption should be unavailable without a passphrase")
	}

	in := testSecret{ClientID: "abc", ClientSecret: "shh"}
	if err := v.Save("spotify_credentials", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out testSecret
	found, err := v.Get("spotify_credentials", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || out != in {
		t.Errorf("round trip = %+v (found=%v), want %+v", out, found, in)
	}
}

func TestVaultMissingSecret(t *testing.T) {
	v := setupVault(t, "pw")

	var out testSecret
	found, err := v.Get("nothing", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Error("absent secret reported as found")
	}
	if v.Has("nothing") {
		t.Error("Has should be false for absent secret")
	}
}

func TestVaultWrongPassphraseDegradesToAbsent(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	settings := store.NewSettingsStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	writer := New(settings, "original", logger)
	if err := writer.Save("strava_tokens", testSecret{ClientID: "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	reader := New(settings, "different", logger)
	var out testSecret
	found, err := reader.Get("strava_tokens", &out)
	if err != nil {
		t.Fatalf("get with wrong passphrase should not error: %v", err)
	}
	if found {
		t.Error("undecryptable secret should read as absent")
	}
	// The sealed row is still there.
	if !reader.Has("strava_tokens") {
		t.Error("Has should still be true for the sealed row")
	}
}

func TestVaultClear(t *testing.T) {
	v := setupVault(t, "pw")

	if err := v.Save("s", testSecret{ClientID: "x"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := v.Clear("s"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if v.Has("s") {
		t.Error("cleared secret still present")
	}
	if err := v.Clear("s"); err != nil {
		t.Fatalf("clearing absent secret should be a no-op: %v", err)
	}
}
