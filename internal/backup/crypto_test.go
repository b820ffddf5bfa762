package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(salt1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(salt1), saltSize)
	}

	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt 2: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}
	if bytes.Equal(key1, DeriveKey("other", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	original := []byte(`{"children":[{"id":"c1","name":"Ava","totalCents":150}]}`)

	enc, err := Encrypt(original, "correct horse")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if len(enc) != saltSize+nonceSize+len(original)+16 {
		t.Errorf("encrypted length = %d, want %d", len(enc), saltSize+nonceSize+len(original)+16)
	}
	if bytes.Contains(enc, []byte("Ava")) {
		t.Error("ciphertext contains plaintext")
	}

	dec, err := Decrypt(enc, "correct horse")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(dec, original) {
		t.Errorf("decrypted = %q, want %q", dec, original)
	}
}

func TestEncryptUsesFreshSalt(t *testing.T) {
	a, _ := Encrypt([]byte("same"), "pass")
	b, _ := Encrypt([]byte("same"), "pass")
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("two encryptions share a salt")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	enc, err := Encrypt([]byte("secret data"), "right")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(enc, "wrong"); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	enc, err := Encrypt([]byte("secret data"), "pass")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	enc[len(enc)-1] ^= 0xff
	if _, err := Decrypt(enc, "pass"); !errors.Is(err, ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestDecryptTooSmall(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pass"); err == nil {
		t.Error("expected error for short input")
	}
}
