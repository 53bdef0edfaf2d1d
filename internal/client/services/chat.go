// Package services contains the application services of the enclavechat
// client. The chat service runs one exchange end to end: attestation
// check, per-message encryption, streamed decryption, and post-response
// integrity verification.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/enclavechat/internal/attestation"
	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/dmitrijs2005/enclavechat/internal/client/transport"
	"github.com/dmitrijs2005/enclavechat/internal/cryptox"
	"github.com/dmitrijs2005/enclavechat/internal/ecies"
	"github.com/dmitrijs2005/enclavechat/internal/logging"
	"github.com/dmitrijs2005/enclavechat/internal/verification"
)

// ErrStreamSuperseded is returned when a newer exchange (or an explicit
// Cancel) made this stream stale. Its output was discarded without
// touching shared state.
var ErrStreamSuperseded = errors.New("stream superseded")

// Streamer is the chat transport contract.
type Streamer interface {
	ChatStream(ctx context.Context, req *transport.ChatRequest, fn func(transport.ChatEvent) error) error
}

// ExchangeResult summarizes one completed exchange.
type ExchangeResult struct {
	Reply     string
	ChatID    string
	Encrypted bool

	// DecryptFailures counts streamed chunks that failed the integrity
	// check during an encrypted exchange and were passed through as
	// plaintext. Non-zero values deserve attention: in end-to-end
	// encrypted mode this could mask tampering.
	DecryptFailures int

	Verification *verification.Result
	Report       *attestation.Report
}

// ChatService coordinates one conversation exchange at a time. Starting
// a new exchange supersedes any stream still in flight.
type ChatService struct {
	streamer Streamer
	attestor *attestation.Verifier
	verifier *verification.Verifier
	log      logging.Logger
	model    string

	gen atomic.Uint64
}

func NewChatService(streamer Streamer, attestor *attestation.Verifier, verifier *verification.Verifier, model string, log logging.Logger) *ChatService {
	return &ChatService{
		streamer: streamer,
		attestor: attestor,
		verifier: verifier,
		model:    model,
		log:      log,
	}
}

// Attestation returns the current attestation report, fetching one if
// the cache is empty. A nil report means the remote could not be
// attested and the caller should proceed without encryption.
func (s *ChatService) Attestation(ctx context.Context) (*attestation.Report, error) {
	return s.attestor.Check(ctx)
}

// InvalidateAttestation clears the cached report. Must be called after
// every credential change.
func (s *ChatService) InvalidateAttestation() {
	s.attestor.Invalidate()
}

// Cancel supersedes any in-flight stream; its remaining output is
// dropped.
func (s *ChatService) Cancel() {
	s.gen.Add(1)
}

// SendMessage runs one exchange: it appends the user message to the
// conversation, streams the model's reply (delivering decrypted deltas
// to onDelta in arrival order), verifies response integrity, and appends
// the assistant reply. The conversation is only mutated on success.
//
// When no attestation report is available the exchange degrades to
// unencrypted operation rather than failing.
func (s *ChatService) SendMessage(ctx context.Context, conv *models.Conversation, text string, onDelta func(string)) (*ExchangeResult, error) {
	gen := s.gen.Add(1)

	report, err := s.attestor.Check(ctx)
	if err != nil {
		s.log.Warn(ctx, "attestation unavailable, proceeding without encryption", "error", err)
		report = nil
	}
	encrypted := report != nil && report.Verified

	outgoing := text
	var kp *cryptox.KeyPair
	if encrypted {
		blob, keyPair, err := ecies.EncryptMessage([]byte(text), report.SigningPublicKey)
		if err != nil {
			return nil, fmt.Errorf("message encryption failed: %w", err)
		}
		outgoing = blob
		kp = keyPair
	}

	messages := make([]transport.ChatMessage, 0, len(conv.Messages)+1)
	for _, m := range conv.Messages {
		messages = append(messages, transport.ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, transport.ChatMessage{Role: "user", Content: outgoing})

	req := &transport.ChatRequest{Model: s.model, Messages: messages, Stream: true}
	serialized, err := req.Serialize()
	if err != nil {
		return nil, fmt.Errorf("request serialization failed: %w", err)
	}
	// Hashed eagerly, before any network latency.
	requestHash := verification.HashRequest(serialized)

	var raw, reply strings.Builder
	var chatID string
	decryptFailures := 0

	err = s.streamer.ChatStream(ctx, req, func(ev transport.ChatEvent) error {
		if s.gen.Load() != gen {
			return ErrStreamSuperseded
		}
		if ev.ID != "" {
			chatID = ev.ID
		}
		if ev.Delta == "" {
			return nil
		}

		raw.WriteString(ev.Delta)

		piece := ev.Delta
		if encrypted {
			pt, derr := ecies.DecryptResponse(ev.Delta, kp.PrivateKey)
			if derr == nil {
				piece = string(pt)
			} else {
				// Fallback: the chunk may legitimately be plaintext.
				// Counted and logged so tampering cannot hide behind
				// the fallback silently.
				decryptFailures++
				s.log.Warn(ctx, "streamed chunk failed integrity check, treating as plaintext",
					"conversation", conv.ID, "chat_id", chatID)
			}
		}

		reply.WriteString(piece)
		if onDelta != nil {
			onDelta(piece)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStreamSuperseded) {
			return nil, ErrStreamSuperseded
		}
		return nil, fmt.Errorf("chat exchange failed: %w", err)
	}

	responseHash := verification.HashResponse(raw.String())
	result := s.verifier.Verify(ctx, chatID, requestHash, responseHash)

	if s.gen.Load() != gen {
		return nil, ErrStreamSuperseded
	}

	conv.Messages = append(conv.Messages,
		models.Message{Role: "user", Content: text},
		models.Message{Role: "assistant", Content: reply.String()},
	)

	return &ExchangeResult{
		Reply:           reply.String(),
		ChatID:          chatID,
		Encrypted:       encrypted,
		DecryptFailures: decryptFailures,
		Verification:    result,
		Report:          report,
	}, nil
}
