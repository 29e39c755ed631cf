// Package vault stores provider credentials and OAuth tokens in the settings
// table, sealed with AES-256-GCM when an encryption passphrase is configured.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/argon2"

	"github.com/alvslovescyber/dashingly/internal/store"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4

	// keyPrefix namespaces vault entries inside the settings table so they
	// never collide with user-facing settings keys.
	keyPrefix = "secure:"
)

// envelope is what actually lands in the settings table. Value holds either
// the plaintext JSON of the secret or base64(salt|nonce|ciphertext).
type envelope struct {
	Encrypted bool   `json:"encrypted"`
	Value     string `json:"value"`
}

// Vault reads and writes secrets through the settings store.
type Vault struct {
	settings   *store.SettingsStore
	passphrase string
	logger     *slog.Logger
}

// New builds a vault. An empty passphrase disables encryption; secrets are
// then stored as plaintext envelopes, which is the fallback for hosts
// without a configured vault key.
func New(settings *store.SettingsStore, passphrase string, logger *slog.Logger) *Vault {
	return &Vault{
		settings:   settings,
		passphrase: passphrase,
		logger:     logger.With("component", "vault"),
	}
}

// EncryptionAvailable reports whether secrets written now would be sealed.
func (v *Vault) EncryptionAvailable() bool {
	return v.passphrase != ""
}

// Save serializes the secret to JSON and stores it under the vault namespace,
// sealing it when encryption is available.
func (v *Vault) Save(name string, secret any) error {
	plaintext, err := json.Marshal(secret)
	if err != nil {
		return fmt.Errorf("marshal secret: %w", err)
	}

	env := envelope{Value: string(plaintext)}
	if v.passphrase != "" {
		sealed, err := v.seal(plaintext)
		if err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
		env = envelope{Encrypted: true, Value: sealed}
	}

	if err := v.settings.SetJSON(keyPrefix+name, env); err != nil {
		return fmt.Errorf("store secret: %w", err)
	}
	return nil
}

// Get loads a secret into out. Returns false when the secret is absent or
// cannot be decrypted; a decryption failure is logged and treated as absence
// so a changed passphrase degrades to "not connected" instead of erroring
// every request.
func (v *Vault) Get(name string, out any) (bool, error) {
	var env envelope
	found, err := v.settings.GetJSON(keyPrefix+name, &env)
	if err != nil {
		return false, fmt.Errorf("load secret: %w", err)
	}
	if !found {
		return false, nil
	}

	plaintext := []byte(env.Value)
	if env.Encrypted {
		if v.passphrase == "" {
			v.logger.Warn("encrypted secret present but no vault key configured", "name", name)
			return false, nil
		}
		plaintext, err = v.open(env.Value)
		if err != nil {
			v.logger.Warn("failed to decrypt secret", "name", name, "error", err)
			return false, nil
		}
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return false, fmt.Errorf("unmarshal secret: %w", err)
	}
	return true, nil
}

// Has reports whether a secret exists, without decrypting it.
func (v *Vault) Has(name string) bool {
	var env envelope
	found, err := v.settings.GetJSON(keyPrefix+name, &env)
	return err == nil && found
}

// Clear removes a secret. Clearing an absent secret is a no-op.
func (v *Vault) Clear(name string) error {
	return v.settings.Delete(keyPrefix + name)
}

// seal encrypts plaintext to base64(salt|nonce|ciphertext) with a key derived
// from the passphrase via Argon2id.
func (v *Vault) seal(plaintext []byte) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := v.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (v *Vault) open(sealed string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decode sealed value: %w", err)
	}
	if len(data) < saltSize+nonceSize {
		return nil, fmt.Errorf("sealed value too small")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	gcm, err := v.aead(salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func (v *Vault) aead(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(v.passphrase), salt, argonTime, argonMem, argonPar, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
