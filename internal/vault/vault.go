// Package vault implements passphrase-protected encrypted persistence of
// conversations. Storage keys are derived per save from the passphrase
// and a fresh random salt; the vault itself never holds key material
// between calls.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/dmitrijs2005/enclavechat/internal/client/repositories/records"
	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/cryptox"
)

// Vault encrypts and persists conversation records.
type Vault struct {
	repo records.Repository
	now  func() time.Time
}

// New returns a Vault over the given record store.
func New(repo records.Repository) *Vault {
	return &Vault{repo: repo, now: time.Now}
}

// Save serializes and encrypts the conversation and overwrites any prior
// record under the same id. A fresh salt and nonce are generated on
// every call, even for the same record: the storage key is re-derived
// per save, so salt reuse would tie records to a single key.
func (v *Vault) Save(ctx context.Context, conv *models.Conversation, passphrase []byte) error {
	plaintext, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("record serialization failed: %w", err)
	}

	salt := make([]byte, cryptox.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("salt generation failed: %w", err)
	}
	nonce := make([]byte, cryptox.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("nonce generation failed: %w", err)
	}

	key := cryptox.DeriveStorageKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ciphertext, err := cryptox.AEADEncrypt(key, nonce, plaintext)
	if err != nil {
		return fmt.Errorf("record encryption failed: %w", err)
	}

	rec := &models.EncryptedRecord{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		Payload:   base64.StdEncoding.EncodeToString(ciphertext),
		IV:        base64.StdEncoding.EncodeToString(nonce),
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Version:   models.RecordVersion,
	}
	if err := v.repo.Put(ctx, rec); err != nil {
		return fmt.Errorf("record store failed: %w", err)
	}
	return nil
}

// LoadAll decrypts every stored record with the supplied passphrase and
// returns the conversations newest first.
//
// Decryption failure for any single record fails the whole batch with
// common.ErrVaultLocked: partial success would mask a wrong-passphrase
// condition. Legacy records (no IV/salt) are passed through unchanged —
// a one-way compatibility path, not a round-trip guarantee.
func (v *Vault) LoadAll(ctx context.Context, passphrase []byte) ([]models.Conversation, error) {
	recs, err := v.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("record load failed: %w", err)
	}

	result := make([]models.Conversation, 0, len(recs))
	for i := range recs {
		conv, err := v.decryptRecord(&recs[i], passphrase)
		if err != nil {
			return nil, err
		}
		result = append(result, *conv)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (v *Vault) decryptRecord(rec *models.EncryptedRecord, passphrase []byte) (*models.Conversation, error) {
	var conv models.Conversation

	if rec.Legacy() {
		if err := json.Unmarshal([]byte(rec.Payload), &conv); err != nil {
			return nil, fmt.Errorf("legacy record %s unreadable: %w", rec.ID, err)
		}
		return &conv, nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("record %s payload corrupt: %w", rec.ID, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(rec.IV)
	if err != nil {
		return nil, fmt.Errorf("record %s iv corrupt: %w", rec.ID, err)
	}
	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return nil, fmt.Errorf("record %s salt corrupt: %w", rec.ID, err)
	}

	key := cryptox.DeriveStorageKey(passphrase, salt)
	defer common.WipeByteArray(key)

	plaintext, err := cryptox.AEADDecrypt(key, nonce, ciphertext)
	if err != nil {
		return nil, common.ErrVaultLocked
	}
	if err := json.Unmarshal(plaintext, &conv); err != nil {
		return nil, fmt.Errorf("record %s unreadable: %w", rec.ID, err)
	}
	return &conv, nil
}

// Delete removes one record. No passphrase is required.
func (v *Vault) Delete(ctx context.Context, id string) error {
	return v.repo.Delete(ctx, id)
}

// DeleteAll removes every record. No passphrase is required.
func (v *Vault) DeleteAll(ctx context.Context) error {
	return v.repo.DeleteAll(ctx)
}

// SweepExpired deletes every conversation whose retention window has
// elapsed and returns the purged ids. Expiry lives in the encrypted
// plaintext, so sweeping needs the passphrase. The deletes run in a
// single transaction.
func (v *Vault) SweepExpired(ctx context.Context, passphrase []byte) ([]string, error) {
	convs, err := v.LoadAll(ctx, passphrase)
	if err != nil {
		return nil, err
	}

	now := v.now()
	var purged []string
	for i := range convs {
		if convs[i].Expired(now) {
			purged = append(purged, convs[i].ID)
		}
	}
	if len(purged) == 0 {
		return nil, nil
	}

	if err := v.repo.DeleteBatch(ctx, purged); err != nil {
		return nil, err
	}
	return purged, nil
}
