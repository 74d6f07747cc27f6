package secret_test

import (
	"errors"
	"testing"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/secret"
)

func newCipher(t *testing.T) (*secret.Cipher, string) {
	t.Helper()
	key, err := secret.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() returned unexpected error: %v", err)
	}
	c, err := secret.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher() returned unexpected error: %v", err)
	}
	return c, key
}

func TestCipher(t *testing.T) {
	t.Run("decrypts what it encrypted", func(t *testing.T) {
		c, _ := newCipher(t)

		tok, err := c.Encrypt("123.456.789-09")
		if err != nil {
			t.Fatalf("Encrypt() returned unexpected error: %v", err)
		}
		if tok == "123.456.789-09" {
			t.Fatal("Expected ciphertext to differ from plaintext")
		}

		got, err := c.Decrypt(tok)
		if err != nil {
			t.Fatalf("Decrypt() returned unexpected error: %v", err)
		}
		if got != "123.456.789-09" {
			t.Errorf("Expected original value, got %q", got)
		}
	})

	t.Run("keeps empty values empty", func(t *testing.T) {
		c, _ := newCipher(t)

		tok, err := c.Encrypt("")
		if err != nil || tok != "" {
			t.Errorf("Expected empty token, got %q (%v)", tok, err)
		}
	})

	t.Run("decrypts with a rotated-out key", func(t *testing.T) {
		old, oldKey := newCipher(t)
		tok, err := old.Encrypt("secret")
		if err != nil {
			t.Fatalf("Encrypt() returned unexpected error: %v", err)
		}

		newKey, err := secret.GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey() returned unexpected error: %v", err)
		}
		rotated, err := secret.NewCipher(newKey, oldKey)
		if err != nil {
			t.Fatalf("NewCipher() returned unexpected error: %v", err)
		}

		got, err := rotated.Decrypt(tok)
		if err != nil || got != "secret" {
			t.Errorf("Expected secret, got %q (%v)", got, err)
		}
	})

	t.Run("fails with an unrelated key", func(t *testing.T) {
		a, _ := newCipher(t)
		b, _ := newCipher(t)

		tok, err := a.Encrypt("secret")
		if err != nil {
			t.Fatalf("Encrypt() returned unexpected error: %v", err)
		}

		_, err = b.Decrypt(tok)
		if !errors.Is(err, apperrors.ErrDecryptionFailed) {
			t.Errorf("Expected ErrDecryptionFailed, got %v", err)
		}
	})

	t.Run("rejects malformed keys", func(t *testing.T) {
		if _, err := secret.NewCipher("not-a-key"); err == nil {
			t.Error("Expected error for malformed key")
		}
	})
}
