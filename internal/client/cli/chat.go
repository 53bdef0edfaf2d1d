package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/dmitrijs2005/enclavechat/internal/client/services"
)

// printFn is a test seam for streamed delta output.
var printFn = fmt.Print

// NewChat prompts for a title and starts a fresh conversation. The empty
// conversation is persisted immediately so it survives a crash before the
// first exchange.
func (a *App) NewChat(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}

	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}

	conv := models.NewConversation(title)
	if err := a.vault.Save(ctx, conv, a.passphrase); err != nil {
		log.Println(err.Error())
		return err
	}

	a.current = conv
	fmt.Printf("Started conversation %s\n", conv.ID)
	return nil
}

// Chat prompts for a message and runs one exchange in the current
// conversation, streaming the reply as it arrives. A conversation is
// created on the fly when none is open. The updated conversation is
// persisted after a successful exchange.
func (a *App) Chat(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}

	if a.current == nil {
		a.current = models.NewConversation("untitled")
	}

	text, err := getSimpleText(a.reader, "Enter message", os.Stdout)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	result, err := a.chatService.SendMessage(ctx, a.current, text, func(delta string) {
		printFn(delta)
	})
	printFn("\n")
	if err != nil {
		if errors.Is(err, services.ErrStreamSuperseded) {
			fmt.Println("Exchange cancelled")
			return nil
		}
		log.Println(err.Error())
		return err
	}

	a.lastResult = result
	if result.Encrypted {
		a.setMode(ModeE2EE)
	} else {
		a.setMode(ModeDemo)
	}
	if result.DecryptFailures > 0 {
		fmt.Printf("Warning: %d chunk(s) failed the integrity check and were shown as plaintext\n", result.DecryptFailures)
	}
	printVerificationSummary(result)

	if err := a.vault.Save(ctx, a.current, a.passphrase); err != nil {
		log.Println(err.Error())
		return err
	}
	return nil
}

func printVerificationSummary(result *services.ExchangeResult) {
	v := result.Verification
	switch {
	case v == nil || !v.SignatureFetched:
		fmt.Println("Integrity: signature not available for this exchange")
	case v.SignatureTextMatches:
		fmt.Println("Integrity: response signature matches")
	default:
		fmt.Println("Integrity: MISMATCH, the response may have been altered")
	}
}
