// Package attestation checks whether the remote execution environment is
// trustworthy: it challenges the remote with a single-use nonce, inspects
// the returned signing-key report, and classifies the trust level.
package attestation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/cryptox"
)

// Level classifies how far verification got. Levels only improve within
// a single check; a fresh check starts over at LevelNone.
type Level string

const (
	// LevelNone: no usable report, or the signing key was malformed.
	LevelNone Level = "none"
	// LevelFormat: the signing key has a valid curve point encoding,
	// but the challenge nonce was not echoed back.
	LevelFormat Level = "format"
	// LevelNonce: format valid and the response provably answers this
	// exact challenge.
	LevelNonce Level = "nonce"
)

const nonceSize = 32

// Report is the immutable outcome of one attestation check.
type Report struct {
	SigningPublicKey string
	KeyFingerprint   string
	SigningAlgo      string
	Environment      string
	Model            string
	Verified         bool
	Level            Level
	NonceMatched     bool
	Nonce            string
	CheckedAt        time.Time
	Note             string
}

// Fetcher is the transport contract the verifier consumes. The returned
// document is the parsed JSON response body. Implementations must embed
// the nonce in the upstream request and report non-2xx responses or
// unparseable bodies as an error wrapping common.ErrUnavailable.
type Fetcher interface {
	FetchAttestationDocument(ctx context.Context, model, signingAlgo, nonceHex string) (map[string]any, error)
}

// Verifier performs attestation checks and caches the latest successful
// report until the caller invalidates it (e.g. on credential change).
type Verifier struct {
	fetcher     Fetcher
	model       string
	signingAlgo string
	environment string

	cache cache
}

// NewVerifier builds a Verifier for the given model/signing algorithm.
func NewVerifier(fetcher Fetcher, model, signingAlgo, environment string) *Verifier {
	return &Verifier{
		fetcher:     fetcher,
		model:       model,
		signingAlgo: signingAlgo,
		environment: environment,
	}
}

// Check returns the cached report, or performs a fresh attestation check:
// it generates a fresh 32-byte nonce, fetches the attestation document,
// validates the signing-key encoding and scans the full document for the
// nonce echo.
//
// A transport failure is a hard failure for this call; no partial report
// is returned. Callers treat the absence of a report as "untrusted,
// proceed without encryption" rather than as fatal.
func (v *Verifier) Check(ctx context.Context) (*Report, error) {
	if r := v.cache.get(); r != nil {
		return r, nil
	}
	gen := v.cache.generation()

	nonce := common.MakeRandHexString(nonceSize)

	doc, err := v.fetcher.FetchAttestationDocument(ctx, v.model, v.signingAlgo, nonce)
	if err != nil {
		return nil, fmt.Errorf("attestation fetch failed: %w", err)
	}

	report := v.classify(doc, nonce)

	// A check that was in flight when Invalidate was called must not
	// repopulate the cache with a report for a stale credential.
	v.cache.put(report, gen)
	return report, nil
}

// Invalidate clears the cached report. Must be called whenever the
// access credential changes; a report fetched under one credential must
// not silently satisfy requests made under another.
func (v *Verifier) Invalidate() {
	v.cache.invalidate()
}

func (v *Verifier) classify(doc map[string]any, nonce string) *Report {
	report := &Report{
		SigningAlgo: v.signingAlgo,
		Environment: v.environment,
		Model:       v.model,
		Level:       LevelNone,
		Nonce:       nonce,
		CheckedAt:   time.Now(),
	}

	key, err := findSigningKey(doc)
	if err != nil {
		report.Note = "attestation document carries no usable signing key"
		return report
	}
	report.SigningPublicKey = strings.ToLower(strings.TrimPrefix(key, "0x"))
	report.KeyFingerprint = fingerprint(report.SigningPublicKey)
	report.Level = LevelFormat
	report.Note = "signing key format valid, nonce not echoed"

	if containsString(doc, nonce) {
		report.Level = LevelNonce
		report.NonceMatched = true
		report.Verified = true
		report.Note = "response answers this exact challenge"
	}
	return report
}

// findSigningKey locates a field named exactly signing_public_key
// anywhere in the document and validates its encoding: 64 or 65 raw
// bytes, i.e. 128 or 130 hex characters ignoring an optional 0x prefix.
// Fields whose name merely ends in that string (fake_signing_public_key)
// do not count.
func findSigningKey(doc map[string]any) (string, error) {
	var key string
	walk(doc, func(path string, s string) bool {
		if path[strings.LastIndex(path, "/")+1:] != "signing_public_key" {
			return false
		}
		key = s
		return true
	})
	if key == "" {
		return "", fmt.Errorf("%w: signing_public_key missing", common.ErrValidation)
	}

	raw, err := cryptox.DecodeHex(key)
	if err != nil {
		return "", err
	}
	if _, err := cryptox.NormalizePublicKey(raw); err != nil {
		return "", err
	}
	return key, nil
}

// containsString reports whether any string value in the document
// contains needle, case-insensitively.
func containsString(doc map[string]any, needle string) bool {
	needle = strings.ToLower(needle)
	found := false
	walk(doc, func(_ string, s string) bool {
		if strings.Contains(strings.ToLower(s), needle) {
			found = true
			return true
		}
		return false
	})
	return found
}

func fingerprint(keyHex string) string {
	return cryptox.HashHex([]byte(keyHex))[:16]
}
