package vault

import (
	"context"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/logging"
)

// Sweeper purges expired conversations on a fixed interval. It runs
// concurrently with user-initiated saves and deletes; a sweep and a save
// racing on the same id serialize through the underlying store.
type Sweeper struct {
	vault    *Vault
	interval time.Duration
	log      logging.Logger

	// passphrase returns a copy of the current session passphrase, or
	// nil while the vault is locked. Locked sessions postpone purging to
	// the next unlocked sweep, since expiry lives in the encrypted
	// plaintext. The sweeper owns the returned slice and wipes it after
	// each sweep.
	passphrase func() []byte
}

// NewSweeper builds a retention sweeper over the vault.
func NewSweeper(v *Vault, interval time.Duration, passphrase func() []byte, log logging.Logger) *Sweeper {
	return &Sweeper{vault: v, interval: interval, log: log, passphrase: passphrase}
}

// Run sweeps on every tick until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	pass := s.passphrase()
	if pass == nil {
		return
	}
	defer common.WipeByteArray(pass)

	purged, err := s.vault.SweepExpired(ctx, pass)
	if err != nil {
		s.log.Warn(ctx, "retention sweep failed", "error", err)
		return
	}
	if len(purged) > 0 {
		s.log.Info(ctx, "retention sweep purged conversations", "count", len(purged))
	}
}
