// Package crypto provides authenticated encryption for stored prompt
// content, one-way password hashing, and opaque token generation. The
// symmetric key lives in the OS secret store and never touches the database.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"

	"github.com/prompthist/prompthist/internal/apperr"
	"github.com/prompthist/prompthist/internal/keyring"
)

const (
	// Service is the secret-store service identifier for all prompthist
	// secrets.
	Service = "prompthist"

	keyAccount = "encryption_key"
	keySize    = 32
	nonceSize  = 12
)

// Engine encrypts and decrypts prompt content with AES-256-GCM. The key is
// fetched from the secret store at construction, or generated and persisted
// if absent.
type Engine struct {
	aead    cipher.AEAD
	secrets keyring.Store
}

// NewEngine loads or creates the encryption key and builds the AEAD cipher.
// A stored key that does not decode to exactly 32 bytes is a fatal
// configuration error, not something to silently regenerate over.
func NewEngine(secrets keyring.Store) (*Engine, error) {
	keyBytes, err := getOrCreateKey(secrets)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCipher, err, "creating cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCipher, err, "creating GCM")
	}

	return &Engine{aead: aead, secrets: secrets}, nil
}

func getOrCreateKey(secrets keyring.Store) ([]byte, error) {
	encoded, err := secrets.Get(Service, keyAccount)
	if err == nil {
		keyBytes, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindCipher, err, "decoding stored key")
		}
		if len(keyBytes) != keySize {
			return nil, apperr.New(apperr.KindCipher, "invalid key length %d, want %d", len(keyBytes), keySize)
		}
		return keyBytes, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindSecretStore, err, "fetching encryption key")
	}

	keyBytes := make([]byte, keySize)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, apperr.Wrap(apperr.KindCipher, err, "generating key")
	}
	if err := secrets.Set(Service, keyAccount, base64.StdEncoding.EncodeToString(keyBytes)); err != nil {
		return nil, apperr.Wrap(apperr.KindSecretStore, err, "storing encryption key")
	}
	return keyBytes, nil
}

// Encrypt seals plaintext under a fresh random 96-bit nonce and returns
// base64(nonce || ciphertext || tag). Nonce freshness comes from the CSPRNG,
// never a counter.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", apperr.Wrap(apperr.KindCipher, err, "generating nonce")
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails on malformed base64, blobs shorter than
// the nonce, tag verification failure, or plaintext that is not valid UTF-8.
func (e *Engine) Decrypt(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCipher, err, "decoding encrypted data")
	}
	if len(data) < nonceSize {
		return "", apperr.New(apperr.KindCipher, "encrypted data too short (%d bytes)", len(data))
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCipher, err, "decryption failed")
	}
	if !utf8.Valid(plaintext) {
		return "", apperr.New(apperr.KindCipher, "decrypted data is not valid UTF-8")
	}
	return string(plaintext), nil
}

// SecureDeleteKey removes the encryption key from the secret store. A fresh
// engine constructed afterwards will generate a new key, permanently
// invalidating every previously encrypted blob.
func (e *Engine) SecureDeleteKey() error {
	err := e.secrets.Delete(Service, keyAccount)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return apperr.Wrap(apperr.KindSecretStore, err, "deleting encryption key")
	}
	return nil
}

// GenerateSecureToken returns 32 random bytes, base64-encoded. Used for
// opaque identifiers such as the API bearer token.
func GenerateSecureToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", apperr.Wrap(apperr.KindCipher, err, "generating token")
	}
	return base64.StdEncoding.EncodeToString(tokenBytes), nil
}

// argon2id parameters. Matches the argon2id defaults of common PHC
// implementations: 64 MiB memory, 1 pass, 4 lanes, 32-byte key.
const (
	argonMemory  = 64 * 1024
	argonTime    = 1
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// HashPassword derives an argon2id hash of password with a random salt and
// returns it in PHC string format.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", apperr.Wrap(apperr.KindCipher, err, "generating salt")
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword reports whether password matches the stored PHC-format
// hash. A mismatch is (false, nil); only a structurally invalid hash string
// is an error.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, apperr.New(apperr.KindCipher, "invalid password hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, apperr.Wrap(apperr.KindCipher, err, "parsing hash version")
	}
	if version != argon2.Version {
		return false, apperr.New(apperr.KindCipher, "unsupported argon2 version %d", version)
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, apperr.Wrap(apperr.KindCipher, err, "parsing hash parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, apperr.Wrap(apperr.KindCipher, err, "decoding salt")
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, apperr.Wrap(apperr.KindCipher, err, "decoding hash")
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
