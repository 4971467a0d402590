package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	MinPasswordLength = 8
	SaltSize          = 16
	KeySize           = 32
	MinIterations     = 100_000
	DefaultIterations = 100_000

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// ErrInvalidParams is returned for unusable derivation settings.
var ErrInvalidParams = errors.New("invalid key derivation parameters")

// ValidatePassword applies the password policy: both inputs must match and be
// at least MinPasswordLength characters long. It fails with common.ErrWeakInput.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", common.ErrWeakInput)
	}
	return checkLength(password)
}

func checkLength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrWeakInput, MinPasswordLength)
	}
	return nil
}

// Deriver turns passwords into keys with a fixed algorithm and cost.
type Deriver struct {
	kdf        KDF
	iterations int
}

// NewDeriver validates the algorithm and cost. PBKDF2 requires at least
// MinIterations; argon2id uses fixed time/memory parameters and ignores
// iterations.
func NewDeriver(kdf KDF, iterations int) (*Deriver, error) {
	switch kdf {
	case KDFPBKDF2:
		if iterations < MinIterations {
			return nil, fmt.Errorf("%w: iterations must be at least %d, got %d", ErrInvalidParams, MinIterations, iterations)
		}
	case KDFArgon2ID:
		iterations = argon2Time
	default:
		return nil, fmt.Errorf("%w: unknown kdf %q", ErrInvalidParams, kdf)
	}
	return &Deriver{kdf: kdf, iterations: iterations}, nil
}

var defaultDeriver = &Deriver{kdf: KDFPBKDF2, iterations: DefaultIterations}

// DeriveKey derives a key with PBKDF2-HMAC-SHA256, DefaultIterations and a
// fresh random salt.
func DeriveKey(password string) (*Key, error) {
	return defaultDeriver.Derive(password)
}

// Derive derives a key under a fresh random salt.
func (d *Deriver) Derive(password string) (*Key, error) {
	if err := checkLength(password); err != nil {
		return nil, err
	}
	salt := common.GenerateRandByteArray(SaltSize)
	return newKey(d.stretch(password, salt, d.iterations), d.kdf, salt, d.iterations), nil
}

// Rederive reproduces a key from persisted params. A password that does not
// match params.Verifier fails with common.ErrWrongPassword. Params without a
// verifier are rejected with ErrInvalidParams.
func (d *Deriver) Rederive(password string, params KeyParams) (*Key, error) {
	if len(params.Salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes", ErrInvalidParams, SaltSize)
	}
	if len(params.Verifier) == 0 {
		return nil, fmt.Errorf("%w: missing verifier", ErrInvalidParams)
	}
	check, err := NewDeriver(params.KDF, params.Iterations)
	if err != nil {
		return nil, err
	}

	material := check.stretch(password, params.Salt, check.iterations)
	if subtle.ConstantTimeCompare(makeVerifier(material), params.Verifier) == 0 {
		common.WipeByteArray(material)
		return nil, common.ErrWrongPassword
	}
	return newKey(material, check.kdf, params.Salt, check.iterations), nil
}

func (d *Deriver) stretch(password string, salt []byte, iterations int) []byte {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if d.kdf == KDFArgon2ID {
		return argon2.IDKey(pw, salt, argon2Time, argon2Memory, argon2Threads, KeySize)
	}
	return pbkdf2.Key(pw, salt, iterations, KeySize, sha256.New)
}
