// Package secret encrypts sensitive profile columns at rest using Fernet tokens.
package secret

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

// noExpiry disables the token age check; stored identifiers do not expire.
const noExpiry = -1

// Cipher encrypts with the first configured key and decrypts with any of them,
// which allows keys to be rotated by prepending a new one.
type Cipher struct {
	keys []*fernet.Key
}

// NewCipher decodes one or more base64 Fernet keys.
func NewCipher(encodedKeys ...string) (*Cipher, error) {
	if len(encodedKeys) == 0 {
		return nil, errors.New("at least one encryption key is required")
	}
	keys, err := fernet.DecodeKeys(encodedKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption keys: %w", err)
	}
	return &Cipher{keys: keys}, nil
}

// GenerateKey returns a new random base64-encoded key.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return k.Encode(), nil
}

// Encrypt returns the token for plaintext. Empty input stays empty.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to encrypt value: %w", err)
	}
	return string(tok), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	msg := fernet.VerifyAndDecrypt([]byte(token), noExpiry, c.keys)
	if msg == nil {
		return "", apperrors.ErrDecryptionFailed
	}
	return string(msg), nil
}
