// File: internal/infra/security/encryption_service.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// versionPrefix tags ciphertext so the storage format can change without a migration.
const versionPrefix = "v1:"

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// EncryptionService seals single column values (applicant phone numbers) with AES-GCM.
// Output format: "v1:" + base64(nonce || ciphertext).
type EncryptionService struct {
	gcm cipher.AEAD
	aad []byte
}

// NewEncryptionService requires a 32-byte key (AES-256).
func NewEncryptionService(key string) (*EncryptionService, error) {
	return NewEncryptionServiceWithContext(key, "")
}

// NewEncryptionServiceWithContext binds every ciphertext to context, so a value copied
// into another column fails to decrypt.
func NewEncryptionServiceWithContext(key, context string) (*EncryptionService, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes; got %d", len(key))
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	var aad []byte
	if context != "" {
		aad = []byte(context)
	}
	return &EncryptionService{gcm: gcm, aad: aad}, nil
}

func (e *EncryptionService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	sealed := e.gcm.Seal(nonce, nonce, []byte(plaintext), e.aad)
	return versionPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *EncryptionService) Decrypt(value string) (string, error) {
	body, ok := strings.CutPrefix(value, versionPrefix)
	if !ok {
		return "", ErrMalformedCiphertext
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	ns := e.gcm.NonceSize()
	if len(data) < ns+e.gcm.Overhead() {
		return "", ErrMalformedCiphertext
	}
	pt, err := e.gcm.Open(nil, data[:ns], data[ns:], e.aad)
	if err != nil {
		return "", fmt.Errorf("gcm open: %w", err)
	}
	return string(pt), nil
}
