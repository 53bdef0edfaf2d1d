package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	s := "locked"
	if a.isUnlocked() {
		s = "unlocked"
	}
	if a.Mode != ModeUnknown {
		s = s + " " + string(a.Mode)
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to EnclaveChat CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	_ = a.Unlock(ctx)

	runREPL(ctx, a, a.getStatus, scanner)
}
