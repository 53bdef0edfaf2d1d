// Package ecies implements per-message hybrid encryption against the
// remote signing key: ephemeral ECDH key agreement, HKDF-SHA256 key
// derivation, and AES-256-GCM.
//
// Blob layout is exactly ephemeralPublicKey(65) || nonce(12) ||
// ciphertext+tag, hex-encoded. Every encryption uses a fresh ephemeral
// keypair, which gives forward secrecy per message.
package ecies

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/cryptox"
)

const minBlobSize = cryptox.PublicKeySize + cryptox.NonceSize + 16

// EncryptMessage encrypts plaintext to the remote public key (hex, 64 or
// 65 byte encoding, optional 0x prefix) and returns the hex-encoded blob
// together with the ephemeral keypair it generated. The keypair is
// exclusively owned by this exchange: the caller holds it only long
// enough to decrypt the corresponding response, then discards it.
func EncryptMessage(plaintext []byte, remotePublicKeyHex string) (string, *cryptox.KeyPair, error) {
	remotePub, err := cryptox.DecodeHex(remotePublicKeyHex)
	if err != nil {
		return "", nil, err
	}

	kp, err := cryptox.GenerateKeyPair()
	if err != nil {
		return "", nil, err
	}

	secret, err := cryptox.DeriveSharedSecret(kp.PrivateKey, remotePub)
	if err != nil {
		return "", nil, err
	}
	key, err := cryptox.DeriveSymmetricKey(secret, cryptox.KeyContext)
	if err != nil {
		return "", nil, err
	}

	nonce := make([]byte, cryptox.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, fmt.Errorf("nonce generation failed: %w", err)
	}

	ct, err := cryptox.AEADEncrypt(key, nonce, plaintext)
	if err != nil {
		return "", nil, err
	}

	ephPub := kp.PrivateKey.PublicKey().Bytes()
	blob := make([]byte, 0, len(ephPub)+len(nonce)+len(ct))
	blob = append(blob, ephPub...)
	blob = append(blob, nonce...)
	blob = append(blob, ct...)
	return hex.EncodeToString(blob), kp, nil
}

// DecryptResponse splits a hex blob back into its fixed-length segments,
// re-derives the shared secret from the embedded ephemeral public key
// and the caller's private key, and decrypts.
//
// Returns common.ErrIntegrity when the blob is too short or the
// authentication tag does not verify. Callers treat that as non-fatal
// at chunk granularity: the transport may legitimately carry plaintext
// when end-to-end encryption was not negotiated for the exchange.
func DecryptResponse(hexBlob string, priv *ecdh.PrivateKey) ([]byte, error) {
	blob, err := cryptox.DecodeHex(hexBlob)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	if len(blob) < minBlobSize {
		return nil, common.ErrIntegrity
	}

	ephPub := blob[:cryptox.PublicKeySize]
	nonce := blob[cryptox.PublicKeySize : cryptox.PublicKeySize+cryptox.NonceSize]
	ct := blob[cryptox.PublicKeySize+cryptox.NonceSize:]

	secret, err := cryptox.DeriveSharedSecret(priv, ephPub)
	if err != nil {
		return nil, common.ErrIntegrity
	}
	key, err := cryptox.DeriveSymmetricKey(secret, cryptox.KeyContext)
	if err != nil {
		return nil, common.ErrIntegrity
	}

	return cryptox.AEADDecrypt(key, nonce, ct)
}
