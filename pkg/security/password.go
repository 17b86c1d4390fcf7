package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/foliobooks/bookstore-backend/pkg/config"
)

// ErrInvalidHash signals a credential string that is not a well-formed
// argon2id hash.
var ErrInvalidHash = errors.New("invalid argon2id hash")

// hashFormat is the PHC-style encoding written by HashPassword and read back
// by VerifyPassword. Parameters travel with the hash so they can be tightened
// later without invalidating stored credentials.
const hashFormat = "$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s"

type argonParams struct {
	memoryKB uint32
	passes   uint32
	threads  uint8
	saltLen  uint32
	keyLen   uint32
}

// HashPassword derives an argon2id hash of the password under the configured
// cost parameters, with a fresh random salt.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	params := boundedParams(cfg)
	salt := make([]byte, params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, params.passes, params.memoryKB, params.threads, params.keyLen)

	return fmt.Sprintf(hashFormat,
		params.memoryKB, params.passes, params.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether the password matches the stored hash. The
// comparison is constant-time.
func VerifyPassword(password, stored string) (bool, error) {
	params, salt, want, err := splitHash(stored)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, params.passes, params.memoryKB, params.threads, params.keyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func boundedParams(cfg config.PasswordConfig) argonParams {
	return argonParams{
		memoryKB: clamp(cfg.ArgonMemoryKB, 8, 512*1024),
		passes:   clamp(cfg.ArgonTime, 1, 10),
		threads:  uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen:  clamp(cfg.ArgonSaltLen, 8, 64),
		keyLen:   clamp(cfg.ArgonKeyLen, 16, 64),
	}
}

func splitHash(stored string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var params argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memoryKB, &params.passes, &params.threads); err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	params.saltLen = uint32(len(salt))
	params.keyLen = uint32(len(key))
	return params, salt, key, nil
}

func clamp(value, min, max int) uint32 {
	if value < min {
		return uint32(min)
	}
	if value > max {
		return uint32(max)
	}
	return uint32(value)
}
