package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"log/slog"
)

// ErrKeyNotSerializable is returned when something tries to JSON-encode a Key.
var ErrKeyNotSerializable = errors.New("encryption key must not be serialized")

const redacted = "REDACTED"

// KDF names a password-based key derivation function.
type KDF string

const (
	KDFPBKDF2   KDF = "pbkdf2"
	KDFArgon2ID KDF = "argon2id"
)

// KeyParams are the non-secret inputs needed to re-derive a Key from the same
// password, plus a verifier to tell a wrong password from a right one.
type KeyParams struct {
	KDF        KDF    `json:"kdf"`
	Salt       []byte `json:"salt"`
	Iterations int    `json:"iterations"`
	Verifier   []byte `json:"verifier"`
}

// Key is an in-memory symmetric key handle. The zero value is not usable.
type Key struct {
	material []byte
	params   KeyParams
}

func newKey(material []byte, kdf KDF, salt []byte, iterations int) *Key {
	return &Key{
		material: material,
		params: KeyParams{
			KDF:        kdf,
			Salt:       append([]byte(nil), salt...),
			Iterations: iterations,
			Verifier:   makeVerifier(material),
		},
	}
}

// makeVerifier derives a public check value from the key material.
func makeVerifier(material []byte) []byte {
	hash := sha256.Sum256(material)
	return hash[:]
}

// Params returns a copy of the key's derivation parameters.
func (k *Key) Params() KeyParams {
	p := k.params
	p.Salt = append([]byte(nil), k.params.Salt...)
	p.Verifier = append([]byte(nil), k.params.Verifier...)
	return p
}

// equal reports whether both keys hold the same material, in constant time.
func (k *Key) equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return subtle.ConstantTimeCompare(k.material, other.material) == 1
}

// Wipe zeroes the key material. A wiped key can no longer seal or open.
func (k *Key) Wipe() {
	if k == nil {
		return
	}
	for i := range k.material {
		k.material[i] = 0
	}
	k.material = nil
}

// Usable reports whether k holds unwiped key material.
func (k *Key) Usable() bool {
	return k != nil && len(k.material) == KeySize
}

func (k *Key) String() string   { return "cryptox.Key(" + redacted + ")" }
func (k *Key) GoString() string { return k.String() }

// LogValue keeps key material out of slog output.
func (k *Key) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON always fails: keys are never persisted.
func (k *Key) MarshalJSON() ([]byte, error) { return nil, ErrKeyNotSerializable }

// MarshalText always fails: keys are never persisted.
func (k *Key) MarshalText() ([]byte, error) { return nil, ErrKeyNotSerializable }
