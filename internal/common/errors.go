// Package common defines shared constants and sentinel errors used across
// the enclavechat client layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Transport-level errors.
	ErrUnavailable = errors.New("remote unavailable")
	ErrNotFound    = errors.New("not found")

	// Crypto-level errors.

	// ErrIntegrity is returned when an AEAD authentication tag does not
	// verify (tampered blob or wrong key). At streamed-chunk granularity
	// this is non-fatal: the chunk may legitimately be plaintext.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrVaultLocked is returned when any stored record fails to decrypt
	// during a batch load, i.e. the supplied passphrase is wrong.
	ErrVaultLocked = errors.New("vault passphrase invalid")

	// ErrValidation marks a malformed remote document (missing or
	// badly-shaped required field).
	ErrValidation = errors.New("validation failed")
)
