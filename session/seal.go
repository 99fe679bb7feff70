package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const sealedPrefix = "sealed:"

var errSealCorrupt = errors.New("sealed value is corrupt")

// Sealer encrypts values stored in the session file.
type Sealer struct {
	key [32]byte
}

// NewSealer derives a secretbox key from secret and salt.
func NewSealer(secret string, salt []byte) (*Sealer, error) {
	raw, err := scrypt.Key([]byte(secret), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

func IsSealed(value string) bool { return strings.HasPrefix(value, sealedPrefix) }

// Seal returns "sealed:" followed by base64(nonce || box).
func (s *Sealer) Seal(plain string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Unsealed values are returned unchanged.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(box) < 24+secretbox.Overhead {
		return "", errSealCorrupt
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return "", errSealCorrupt
	}
	return string(plain), nil
}
