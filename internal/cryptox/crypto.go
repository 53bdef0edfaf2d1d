// Package cryptox wraps the low-level primitives the client builds on:
// elliptic-curve key generation and agreement, symmetric key derivation,
// AEAD encryption, hashing, and the passphrase-derived storage key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/enclavechat/internal/common"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// Protocol constants. These are wire-format invariants: changing any of
// them breaks interoperability with the remote or decryption of
// previously stored records.
const (
	// KeyContext binds HKDF-derived message keys to this protocol.
	KeyContext = "ecdsa_encryption"

	// StorageKeyIterations is the fixed PBKDF2 iteration count for the
	// vault storage key. Not configurable per record.
	StorageKeyIterations = 210000

	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12

	// PublicKeySize is the length of an uncompressed curve point.
	PublicKeySize = 65

	// SaltSize is the storage-key salt length in bytes.
	SaltSize = 16
)

var curve = ecdh.P256()

// KeyPair is an ephemeral elliptic-curve keypair. The private key is
// exclusively owned by the encryption call that created it and must not
// be reused across messages.
type KeyPair struct {
	PublicKeyHex string
	PrivateKey   *ecdh.PrivateKey
}

// GenerateKeyPair produces a fresh random keypair. The public key is the
// uncompressed 65-byte point, hex-encoded.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keypair generation failed: %w", err)
	}
	return &KeyPair{
		PublicKeyHex: hex.EncodeToString(priv.PublicKey().Bytes()),
		PrivateKey:   priv,
	}, nil
}

// DecodeHex decodes a hex string, tolerating an optional "0x" prefix and
// mixed case on input. Output encoding elsewhere is always lowercase
// without a prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad hex: %v", common.ErrValidation, err)
	}
	return b, nil
}

// NormalizePublicKey reinterprets raw public key bytes as an uncompressed
// curve point. Both 64-byte raw coordinates and 65-byte prefixed points
// are accepted; 64-byte input gets the 0x04 format byte prepended.
func NormalizePublicKey(b []byte) ([]byte, error) {
	switch len(b) {
	case PublicKeySize - 1:
		return append([]byte{0x04}, b...), nil
	case PublicKeySize:
		return b, nil
	default:
		return nil, fmt.Errorf("%w: public key must be 64 or 65 bytes, got %d", common.ErrValidation, len(b))
	}
}

// DeriveSharedSecret computes the ECDH shared secret between a private
// key and a peer public key given as raw bytes (64 or 65 byte encoding).
// The secret is the 32-byte X coordinate of the shared point.
func DeriveSharedSecret(priv *ecdh.PrivateKey, peerPublicKey []byte) ([]byte, error) {
	normalized, err := NormalizePublicKey(peerPublicKey)
	if err != nil {
		return nil, err
	}
	pub, err := curve.NewPublicKey(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid curve point: %v", common.ErrValidation, err)
	}
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("ecdh failed: %w", err)
	}
	return secret, nil
}

// DeriveSymmetricKey expands a shared secret into a 32-byte AES key via
// HKDF-SHA256, expand-only with no salt, bound to the given context
// label (KeyContext for message encryption).
func DeriveSymmetricKey(sharedSecret []byte, contextLabel string) ([]byte, error) {
	r := hkdf.Expand(sha256.New, sharedSecret, []byte(contextLabel))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return key, nil
}

// AEADEncrypt encrypts plaintext with AES-256-GCM under the given key and
// 12-byte nonce, returning ciphertext with the 16-byte tag appended.
// The nonce must never be reused for the same key.
func AEADEncrypt(key, nonce, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// AEADDecrypt reverses AEADEncrypt. A tag mismatch (tampering or wrong
// key) is reported as common.ErrIntegrity.
func AEADDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init failed: %w", err)
	}
	return cipher.NewGCM(block)
}

// HashHex returns the SHA-256 digest of input as lowercase hex.
func HashHex(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

// DeriveStorageKey derives the vault storage key from a passphrase and a
// per-save random salt via PBKDF2-SHA256 with the fixed iteration count.
func DeriveStorageKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, StorageKeyIterations, 32, sha256.New)
}
