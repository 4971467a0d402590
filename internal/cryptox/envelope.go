package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// NonceSize is the AES-GCM nonce length in bytes (96 bits).
const NonceSize = 12

var errNoKey = errors.New("no usable encryption key")

// Envelope is a sealed record: a random nonce and the AES-GCM ciphertext with
// its authentication tag appended.
type Envelope struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal serializes v to JSON and encrypts it under key with a fresh nonce.
func Seal(v any, key *Key) (*Envelope, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	nonce := common.GenerateRandByteArray(NonceSize)
	return &Envelope{Nonce: nonce, Ciphertext: aead.Seal(nil, nonce, plaintext, nil)}, nil
}

// Open verifies and decrypts env with key and decodes the JSON result into v.
// Any tampering, truncation or key mismatch returns
// common.ErrAuthenticationFailure and leaves v untouched.
func Open(env *Envelope, key *Key, v any) error {
	aead, err := newGCM(key)
	if err != nil {
		return err
	}
	if env == nil || len(env.Nonce) != NonceSize || len(env.Ciphertext) < aead.Overhead() {
		return fmt.Errorf("malformed envelope: %w", common.ErrAuthenticationFailure)
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return fmt.Errorf("open envelope: %w", common.ErrAuthenticationFailure)
	}
	defer common.WipeByteArray(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func newGCM(key *Key) (cipher.AEAD, error) {
	if !key.Usable() {
		return nil, errNoKey
	}
	block, err := aes.NewCipher(key.material)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
