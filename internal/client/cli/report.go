package cli

import (
	"context"
	"fmt"
	"log"
)

// Attest runs (or reuses) an attestation check and prints the report. A
// failed check drops the session into demo mode rather than aborting.
func (a *App) Attest(ctx context.Context) error {
	report, err := a.chatService.Attestation(ctx)
	if err != nil {
		log.Println(err.Error())
		a.setMode(ModeDemo)
		return err
	}

	fmt.Printf("Model:           %s\n", report.Model)
	fmt.Printf("Environment:     %s\n", report.Environment)
	fmt.Printf("Signing algo:    %s\n", report.SigningAlgo)
	fmt.Printf("Trust level:     %s\n", report.Level)
	fmt.Printf("Nonce matched:   %t\n", report.NonceMatched)
	if report.KeyFingerprint != "" {
		fmt.Printf("Key fingerprint: %s\n", report.KeyFingerprint)
	}
	fmt.Printf("Checked at:      %s\n", report.CheckedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Note:            %s\n", report.Note)

	if report.Verified {
		a.setMode(ModeE2EE)
	} else {
		a.setMode(ModeDemo)
	}
	return nil
}

// VerifyLast prints the integrity details of the most recent exchange.
func (a *App) VerifyLast(ctx context.Context) error {
	if a.lastResult == nil {
		fmt.Println("No exchange yet")
		return nil
	}

	r := a.lastResult
	fmt.Printf("Chat id:        %s\n", r.ChatID)
	fmt.Printf("Encrypted:      %t\n", r.Encrypted)
	if r.DecryptFailures > 0 {
		fmt.Printf("Chunk failures: %d\n", r.DecryptFailures)
	}

	v := r.Verification
	if v == nil {
		fmt.Println("No verification result")
		return nil
	}
	fmt.Printf("Request hash:   %s\n", v.RequestHash)
	fmt.Printf("Response hash:  %s\n", v.ResponseHash)
	fmt.Printf("Signature:      fetched=%t matches=%t\n", v.SignatureFetched, v.SignatureTextMatches)
	if v.Signature != nil {
		fmt.Printf("Signed by:      %s (%s)\n", v.Signature.SigningAddress, v.Signature.SigningAlgo)
	}
	return nil
}
