// Package verification implements post-response integrity checking: the
// request and response stream are hashed and compared against a
// signature record fetched from the remote by chat id.
package verification

import (
	"context"

	"github.com/dmitrijs2005/enclavechat/internal/cryptox"
)

// Signature is the remote's signature record for one exchange.
type Signature struct {
	Text           string `json:"text"`
	Signature      string `json:"signature"`
	SigningAddress string `json:"signing_address"`
	SigningAlgo    string `json:"signing_algo"`
}

// Result is the immutable outcome of verifying one completed exchange.
type Result struct {
	ChatID               string
	RequestHash          string
	ResponseHash         string
	SignatureFetched     bool
	SignatureTextMatches bool
	Signature            *Signature
}

// Fetcher is the transport contract: fetch the signature record keyed by
// chat id. Absence of a record (or any transport failure) is expected
// mid-stream and must be reported as an error; the verifier downgrades
// it to SignatureFetched=false.
type Fetcher interface {
	FetchSignature(ctx context.Context, chatID, model, signingAlgo string) (*Signature, error)
}

// Verifier compares exchange hashes against fetched signature records.
type Verifier struct {
	fetcher     Fetcher
	model       string
	signingAlgo string
}

func NewVerifier(fetcher Fetcher, model, signingAlgo string) *Verifier {
	return &Verifier{fetcher: fetcher, model: model, signingAlgo: signingAlgo}
}

// HashRequest hashes the fully-assembled serialized request payload.
// Callers compute this eagerly, before the signature fetch, to overlap
// latency.
func HashRequest(serialized []byte) string {
	return cryptox.HashHex(serialized)
}

// HashResponse hashes the raw concatenated response stream text.
func HashResponse(raw string) string {
	return cryptox.HashHex([]byte(raw))
}

// Verify fetches the signature record for chatID and checks that the
// signed text is exactly requestHash + ":" + responseHash.
//
// A missing or unfetchable record yields SignatureFetched=false, never
// an error: identifiers are routinely unavailable mid-stream.
func (v *Verifier) Verify(ctx context.Context, chatID, requestHash, responseHash string) *Result {
	result := &Result{
		ChatID:       chatID,
		RequestHash:  requestHash,
		ResponseHash: responseHash,
	}
	if chatID == "" {
		return result
	}

	sig, err := v.fetcher.FetchSignature(ctx, chatID, v.model, v.signingAlgo)
	if err != nil {
		return result
	}

	result.SignatureFetched = true
	result.Signature = sig
	result.SignatureTextMatches = sig.Text == requestHash+":"+responseHash
	return result
}
