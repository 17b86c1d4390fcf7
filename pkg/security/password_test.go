package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/security"
)

func TestHashRoundTrip(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("shelf-of-paperbacks-9", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash encoding: %s", hash)
	}

	ok, err := security.VerifyPassword("shelf-of-paperbacks-9", hash)
	if err != nil || !ok {
		t.Fatalf("correct password must verify: ok=%v err=%v", ok, err)
	}

	ok, err = security.VerifyPassword("shelf-of-paperbacks-8", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	cfg := config.PasswordConfig{ArgonSaltLen: 16, ArgonKeyLen: 32}
	first, err := security.HashPassword("same-password", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := security.HashPassword("same-password", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of one password must differ by salt")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, stored := range []string{"", "not-a-hash", "$bcrypt$whatever", "$argon2id$v=19$m=oops$salt$key"} {
		if _, err := security.VerifyPassword("irrelevant", stored); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("stored=%q: expected ErrInvalidHash, got %v", stored, err)
		}
	}
}
