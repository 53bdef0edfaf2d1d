package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	NewChat(ctx context.Context) error
	Chat(ctx context.Context) error
	List(ctx context.Context) error
	Open(ctx context.Context) error
	Delete(ctx context.Context) error
	DeleteAll(ctx context.Context) error
	Retention(ctx context.Context) error
	Attest(ctx context.Context) error
	VerifyLast(ctx context.Context) error
	SetAPIKey(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the EnclaveChat CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Locked:
//	  - help           — show available commands
//	  - unlock         — open the vault with a passphrase
//	  - exit | quit    — leave the program
//
//	Unlocked:
//	  - help           — show available commands
//	  - new            — start a new conversation
//	  - chat           — send a message in the current conversation
//	  - list           — list stored conversations
//	  - open           — make a stored conversation current
//	  - delete         — delete one conversation
//	  - deleteall      — delete every conversation
//	  - retention      — set or clear the retention window
//	  - attest         — show the attestation report
//	  - verify         — show integrity details of the last exchange
//	  - apikey         — change the access credential
//	  - lock           — wipe the session and lock the vault
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ec> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: new, (c)hat, (l)ist, open, delete, deleteall, retention, attest, verify, apikey, lock, exit")
			} else {
				printlnFn("Available commands: unlock, apikey, exit")
			}

		case "unlock":
			_ = a.Unlock(ctx)

		case "lock":
			_ = a.Lock(ctx)

		case "new":
			_ = a.NewChat(ctx)

		case "c", "chat":
			_ = a.Chat(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "open":
			_ = a.Open(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "deleteall":
			_ = a.DeleteAll(ctx)

		case "retention":
			_ = a.Retention(ctx)

		case "attest":
			_ = a.Attest(ctx)

		case "verify":
			_ = a.VerifyLast(ctx)

		case "apikey":
			_ = a.SetAPIKey(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
