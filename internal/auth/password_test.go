package auth

import (
	"strings"
	"testing"
)

func TestPasswordHashingLifecycle(t *testing.T) {
	password := "S3curePass!"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}
	if hash == "" {
		t.Fatal("expected hash to be populated")
	}

	if err := VerifyPassword(hash, password); err != nil {
		t.Fatalf("expected password to verify, got error: %v", err)
	}

	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("expected verification to fail for wrong password")
	}
}

func TestPasswordTruncatedAt72Bytes(t *testing.T) {
	prefix := strings.Repeat("a", 72)
	first := prefix + "tail-one"
	second := prefix + "tail-two"

	hash, err := HashPassword(first)
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}

	// 前 72 字节相同的密码应视为同一密码
	if err := VerifyPassword(hash, second); err != nil {
		t.Fatalf("expected passwords sharing the first 72 bytes to match: %v", err)
	}

	if err := VerifyPassword(hash, strings.Repeat("b", 72)); err == nil {
		t.Fatal("expected verification to fail for a different prefix")
	}
}

func TestEmptyPasswordIsHashable(t *testing.T) {
	hash, err := HashPassword("")
	if err != nil {
		t.Fatalf("unexpected error hashing empty password: %v", err)
	}
	if err := VerifyPassword(hash, ""); err != nil {
		t.Fatalf("expected empty password to verify against its own hash: %v", err)
	}
}

func TestVerifyPasswordRejectsEmptyHash(t *testing.T) {
	if err := VerifyPassword("   ", "whatever"); err == nil {
		t.Fatal("expected error for empty stored hash")
	}
}
