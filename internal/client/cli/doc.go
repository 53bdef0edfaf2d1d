// Package cli provides the interactive EnclaveChat command-line client.
//
// It wires configuration, the local encrypted vault, the inference
// transport, and an interactive REPL. Typical flow: prompt for the vault
// passphrase, start the background retention sweeper, and execute user
// commands.
//
// Key features:
//   - Unlock / Lock the passphrase-protected vault
//   - Start conversations and exchange encrypted messages
//   - List / Open / Delete stored conversations, set retention windows
//   - Inspect the attestation report and per-exchange integrity results
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
