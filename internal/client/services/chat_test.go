package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/enclavechat/internal/attestation"
	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/dmitrijs2005/enclavechat/internal/client/transport"
	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/cryptox"
	"github.com/dmitrijs2005/enclavechat/internal/ecies"
	"github.com/dmitrijs2005/enclavechat/internal/logging"
	"github.com/dmitrijs2005/enclavechat/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) logging.Logger          { return l }

// attestationFetcher serves a document for the given signing key,
// echoing the challenge nonce unless broken.
type attestationFetcher struct {
	key string
	err error
}

func (f *attestationFetcher) FetchAttestationDocument(_ context.Context, _, _, nonceHex string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]any{
		"model_attestations": []any{
			map[string]any{"signing_public_key": f.key, "nonce": nonceHex},
		},
	}, nil
}

// signatureFetcher returns whatever record the fake remote prepared.
type signatureFetcher struct {
	sig *verification.Signature
}

func (f *signatureFetcher) FetchSignature(context.Context, string, string, string) (*verification.Signature, error) {
	if f.sig == nil {
		return nil, common.ErrNotFound
	}
	return f.sig, nil
}

// fakeRemote simulates the inference side of an exchange: it decrypts
// the incoming message with its own private key, streams reply chunks
// (encrypted to the embedded ephemeral key when the request was
// encrypted), and signs the exchange hashes.
type fakeRemote struct {
	keyPair     *cryptox.KeyPair
	replyChunks []string
	chatID      string
	encryptBack bool
	sigFetcher  *signatureFetcher
	received    []transport.ChatMessage
	err         error
	onEvent     func()
}

func (r *fakeRemote) ChatStream(_ context.Context, req *transport.ChatRequest, fn func(transport.ChatEvent) error) error {
	if r.err != nil {
		return r.err
	}
	r.received = req.Messages

	serialized, err := req.Serialize()
	if err != nil {
		return err
	}
	requestHash := verification.HashRequest(serialized)

	var raw string
	last := req.Messages[len(req.Messages)-1]
	for _, chunk := range r.replyChunks {
		delta := chunk
		if r.encryptBack {
			// Encrypt to the ephemeral public key embedded in the
			// incoming blob (its first 65 bytes).
			ephPubHex := last.Content[:130]
			delta, _, err = ecies.EncryptMessage([]byte(chunk), ephPubHex)
			if err != nil {
				return err
			}
		}
		raw += delta

		if r.onEvent != nil {
			r.onEvent()
		}
		if err := fn(transport.ChatEvent{ID: r.chatID, Delta: delta}); err != nil {
			return err
		}
	}

	if r.sigFetcher != nil {
		r.sigFetcher.sig = &verification.Signature{
			Text:        requestHash + ":" + verification.HashResponse(raw),
			SigningAlgo: "ecdsa",
		}
	}
	return nil
}

func newService(t *testing.T, remote *fakeRemote, af attestation.Fetcher, sf verification.Fetcher) *ChatService {
	t.Helper()
	attestor := attestation.NewVerifier(af, "test-model", "ecdsa", "tee")
	verifier := verification.NewVerifier(sf, "test-model", "ecdsa")
	return NewChatService(remote, attestor, verifier, "test-model", noopLogger{})
}

func TestSendMessage_EncryptedEndToEnd(t *testing.T) {
	remoteKP, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	sf := &signatureFetcher{}
	remote := &fakeRemote{
		keyPair:     remoteKP,
		replyChunks: []string{"Hel", "lo ", "there"},
		chatID:      "chat-1",
		encryptBack: true,
		sigFetcher:  sf,
	}
	svc := newService(t, remote, &attestationFetcher{key: remoteKP.PublicKeyHex}, sf)

	conv := models.NewConversation("greetings")
	var streamed string
	result, err := svc.SendMessage(context.Background(), conv, "hello", func(delta string) {
		streamed += delta
	})
	require.NoError(t, err)

	assert.True(t, result.Encrypted)
	assert.Equal(t, "Hello there", result.Reply)
	assert.Equal(t, "Hello there", streamed)
	assert.Equal(t, "chat-1", result.ChatID)
	assert.Zero(t, result.DecryptFailures)

	// The wire never saw the plaintext.
	sent := remote.received[len(remote.received)-1].Content
	assert.NotEqual(t, "hello", sent)
	pt, err := ecies.DecryptResponse(sent, remoteKP.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))

	// Integrity verification succeeded against the signed hashes.
	require.NotNil(t, result.Verification)
	assert.True(t, result.Verification.SignatureFetched)
	assert.True(t, result.Verification.SignatureTextMatches)

	// Conversation gained both turns, plaintext form.
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.Message{Role: "user", Content: "hello"}, conv.Messages[0])
	assert.Equal(t, models.Message{Role: "assistant", Content: "Hello there"}, conv.Messages[1])
}

func TestSendMessage_DemoModeWhenAttestationUnavailable(t *testing.T) {
	sf := &signatureFetcher{}
	remote := &fakeRemote{replyChunks: []string{"plain reply"}, chatID: "chat-2", sigFetcher: sf}
	svc := newService(t, remote, &attestationFetcher{err: fmt.Errorf("%w: status 502", common.ErrUnavailable)}, sf)

	conv := models.NewConversation("demo")
	result, err := svc.SendMessage(context.Background(), conv, "hi", nil)
	require.NoError(t, err)

	assert.False(t, result.Encrypted)
	assert.Equal(t, "plain reply", result.Reply)
	assert.Nil(t, result.Report)

	// Message went out as plaintext.
	assert.Equal(t, "hi", remote.received[len(remote.received)-1].Content)
}

func TestSendMessage_UnverifiedReportDisablesEncryption(t *testing.T) {
	// Key present but malformed: level none, no encryption.
	sf := &signatureFetcher{}
	remote := &fakeRemote{replyChunks: []string{"ok"}, sigFetcher: sf}
	svc := newService(t, remote, &attestationFetcher{key: "deadbeef"}, sf)

	conv := models.NewConversation("unverified")
	result, err := svc.SendMessage(context.Background(), conv, "hi", nil)
	require.NoError(t, err)

	assert.False(t, result.Encrypted)
	require.NotNil(t, result.Report)
	assert.Equal(t, attestation.LevelNone, result.Report.Level)
}

func TestSendMessage_PlaintextChunkFallback(t *testing.T) {
	remoteKP, err := cryptox.GenerateKeyPair()
	require.NoError(t, err)

	// Encrypted exchange, but the remote streams plaintext chunks.
	sf := &signatureFetcher{}
	remote := &fakeRemote{
		replyChunks: []string{"not encrypted at all"},
		chatID:      "chat-3",
		encryptBack: false,
		sigFetcher:  sf,
	}
	svc := newService(t, remote, &attestationFetcher{key: remoteKP.PublicKeyHex}, sf)

	conv := models.NewConversation("fallback")
	result, err := svc.SendMessage(context.Background(), conv, "hi", nil)
	require.NoError(t, err)

	assert.True(t, result.Encrypted)
	assert.Equal(t, "not encrypted at all", result.Reply)
	assert.Equal(t, 1, result.DecryptFailures, "fallback must be observable")
}

func TestSendMessage_CancelDiscardsStream(t *testing.T) {
	sf := &signatureFetcher{}
	remote := &fakeRemote{replyChunks: []string{"a", "b", "c"}, chatID: "chat-4", sigFetcher: sf}

	var svc *ChatService
	events := 0
	remote.onEvent = func() {
		events++
		if events == 2 {
			svc.Cancel()
		}
	}
	svc = newService(t, remote, &attestationFetcher{err: common.ErrUnavailable}, sf)

	conv := models.NewConversation("cancelled")
	var streamed string
	_, err := svc.SendMessage(context.Background(), conv, "hi", func(delta string) {
		streamed += delta
	})

	assert.ErrorIs(t, err, ErrStreamSuperseded)
	assert.Equal(t, "a", streamed, "output after cancellation must be dropped")
	assert.Empty(t, conv.Messages, "a superseded stream must not mutate the conversation")
}

func TestSendMessage_TransportErrorIsFatalForExchange(t *testing.T) {
	sf := &signatureFetcher{}
	remote := &fakeRemote{err: fmt.Errorf("%w: connection refused", common.ErrUnavailable)}
	svc := newService(t, remote, &attestationFetcher{err: common.ErrUnavailable}, sf)

	conv := models.NewConversation("down")
	_, err := svc.SendMessage(context.Background(), conv, "hi", nil)

	assert.ErrorIs(t, err, common.ErrUnavailable)
	assert.Empty(t, conv.Messages)
}

func TestSendMessage_NoSignatureRecord(t *testing.T) {
	// Remote never prepares a signature: verification must degrade to
	// signatureFetched=false, not fail the exchange.
	remote := &fakeRemote{replyChunks: []string{"reply"}, chatID: "chat-5"}
	svc := newService(t, remote, &attestationFetcher{err: common.ErrUnavailable}, &signatureFetcher{})

	conv := models.NewConversation("unsigned")
	result, err := svc.SendMessage(context.Background(), conv, "hi", nil)
	require.NoError(t, err)

	require.NotNil(t, result.Verification)
	assert.False(t, result.Verification.SignatureFetched)
}
