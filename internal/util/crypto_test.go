package util

import (
	"strings"
	"testing"
)

// ============ AES ============

func TestEncryptDecryptAES(t *testing.T) {
	key := "test-encryption-key"

	testCases := []string{
		"Hello World",
		"Olá, academia",
		"",
		"Special!@#$%^&*()",
		strings.Repeat("A", 1000),
	}

	for _, plaintext := range testCases {
		encrypted, err := EncryptAES(key, []byte(plaintext))
		if err != nil {
			t.Fatalf("encrypt %q: %v", plaintext, err)
		}

		decrypted, err := DecryptAES(key, encrypted)
		if err != nil {
			t.Fatalf("decrypt %q: %v", plaintext, err)
		}

		if string(decrypted) != plaintext {
			t.Errorf("mismatch\nwant: %s\ngot:  %s", plaintext, string(decrypted))
		}
	}
}

func TestDecryptAES_WrongKey(t *testing.T) {
	encrypted, _ := EncryptAES("correct-key", []byte("Data"))

	if _, err := DecryptAES("wrong-key", encrypted); err == nil {
		t.Error("wrong key must fail")
	}
}

func TestDecryptAES_InvalidData(t *testing.T) {
	if _, err := DecryptAES("test-key", []byte{1, 2, 3}); err == nil {
		t.Error("short data must fail")
	}
	if _, err := DecryptAES("test-key", []byte{}); err == nil {
		t.Error("empty data must fail")
	}
}

func TestEncryptField(t *testing.T) {
	enc, err := EncryptField("k", "Email: ana@x.com")
	if err != nil {
		t.Fatalf("EncryptField: %v", err)
	}
	if enc == "Email: ana@x.com" {
		t.Fatal("field was not encrypted")
	}
	if got := DecryptField("k", enc); got != "Email: ana@x.com" {
		t.Errorf("DecryptField = %q", got)
	}

	// no key: pass-through both ways
	if got, _ := EncryptField("", "plain"); got != "plain" {
		t.Errorf("EncryptField without key = %q", got)
	}
	if got := DecryptField("", "plain"); got != "plain" {
		t.Errorf("DecryptField without key = %q", got)
	}
	// undecodable input falls back to itself
	if got := DecryptField("k", "not base64!"); got != "not base64!" {
		t.Errorf("DecryptField fallback = %q", got)
	}
}

func TestDeriveKey(t *testing.T) {
	a := deriveKey("k1")
	if len(a) != 32 {
		t.Fatalf("key length = %d, want 32", len(a))
	}
	if string(a) != string(deriveKey("k1")) {
		t.Fatal("derivation must be stable")
	}
	if string(a) == string(deriveKey("k2")) {
		t.Fatal("different keys must derive differently")
	}
}
