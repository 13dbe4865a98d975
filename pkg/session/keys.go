// Copyright (C) 2025 Joshua Goldstein

package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest accepted session secret.
const MinSecretLength = 16

var ErrWeakSecret = errors.New("session: secret too short")

// DeriveKeys expands one secret into the cookie HMAC key (64 bytes) and the
// AES-256 block key (32 bytes).
func DeriveKeys(secret []byte) (hashKey, blockKey []byte, err error) {
	if len(secret) < MinSecretLength {
		return nil, nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}
	hashKey, err = expand(secret, "crm-session-hash", 64)
	if err != nil {
		return nil, nil, err
	}
	blockKey, err = expand(secret, "crm-session-block", 32)
	if err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

func expand(secret []byte, info string, n int) ([]byte, error) {
	h := hkdf.New(sha256.New, secret, nil, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return out, nil
}
