package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/enclavechat/internal/common"
)

// getSimpleText and getPassphrase are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassphrase = GetPassphrase

// Unlock prompts for the vault passphrase and opens the vault with it.
//
// The passphrase is proven by decrypting every stored record: a single
// failure means the passphrase is wrong (common.ErrVaultLocked) and the
// session stays locked. On success the passphrase is retained in memory
// for the session and the decrypted conversations are cached newest
// first.
func (a *App) Unlock(ctx context.Context) error {
	passphrase, err := getPassphrase(os.Stdout)
	if err != nil {
		return err
	}

	convs, err := a.vault.LoadAll(ctx, passphrase)
	if err != nil {
		common.WipeByteArray(passphrase)
		if errors.Is(err, common.ErrVaultLocked) {
			log.Printf("Wrong passphrase, vault stays locked")
		} else {
			log.Printf("Vault open failed: %s", err.Error())
		}
		return err
	}

	a.setPassphrase(passphrase)
	a.convs = convs
	fmt.Printf("Vault unlocked, %d conversation(s)\n", len(convs))
	return nil
}

// Lock wipes the passphrase and every decrypted conversation from memory
// and supersedes any chat stream still in flight.
func (a *App) Lock(ctx context.Context) error {
	a.chatService.Cancel()
	a.lockState()
	fmt.Println("Vault locked")
	return nil
}

// SetAPIKey swaps the access credential. The cached attestation report
// is invalidated: a report fetched under the old credential must not
// satisfy requests made under the new one.
func (a *App) SetAPIKey(ctx context.Context) error {
	key, err := getSimpleText(a.reader, "Enter API key", os.Stdout)
	if err != nil {
		return err
	}

	a.api.SetAPIKey(key)
	a.chatService.InvalidateAttestation()
	a.Mode = ModeUnknown
	fmt.Println("API key updated, attestation cache cleared")
	return nil
}
