package cli

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/dmitrijs2005/enclavechat/internal/attestation"
	"github.com/dmitrijs2005/enclavechat/internal/client/client"
	"github.com/dmitrijs2005/enclavechat/internal/client/config"
	"github.com/dmitrijs2005/enclavechat/internal/client/models"
	"github.com/dmitrijs2005/enclavechat/internal/client/services"
	"github.com/dmitrijs2005/enclavechat/internal/client/transport"
	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/logging"
	"github.com/dmitrijs2005/enclavechat/internal/vault"
	"github.com/dmitrijs2005/enclavechat/internal/verification"

	_ "modernc.org/sqlite"
)

// Mode reflects how the last exchange (or attestation check) went out on
// the wire.
type Mode string

const (
	// ModeUnknown: no attestation check has run yet.
	ModeUnknown Mode = ""
	// ModeE2EE: the remote attested successfully; messages are encrypted.
	ModeE2EE Mode = "e2ee"
	// ModeDemo: attestation failed or is incomplete; messages travel in
	// plaintext.
	ModeDemo Mode = "demo"
)

type App struct {
	config      *config.Config
	log         logging.Logger
	chatService *services.ChatService
	vault       *vault.Vault
	sweeper     *vault.Sweeper
	api         *transport.Client
	repos       *client.Repositories

	// passMu guards passphrase: the REPL goroutine assigns and wipes it
	// while the sweeper goroutine reads it on every tick.
	passMu     sync.Mutex
	passphrase []byte

	convs      []models.Conversation
	current    *models.Conversation
	lastResult *services.ExchangeResult
	Mode       Mode
	reader     *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	lg := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	api := transport.NewClient(c.ServerBaseURL, c.APIKey, c.RequestTimeout)

	attestor := attestation.NewVerifier(api, c.Model, c.SigningAlgo, "production")
	verifier := verification.NewVerifier(api, c.Model, c.SigningAlgo)
	cs := services.NewChatService(api, attestor, verifier, c.Model, lg)

	v := vault.New(repos.Records)

	app := &App{
		config:      c,
		log:         lg,
		chatService: cs,
		vault:       v,
		api:         api,
		repos:       repos,
		reader:      bufio.NewReader(os.Stdin),
	}
	app.sweeper = vault.NewSweeper(v, c.SweepInterval, app.sessionPassphrase, lg)

	return app, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	go a.sweeper.Run(ctx)
	a.Root(ctx)
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	a.lockState()
	if err := a.repos.DB.Close(); err != nil {
		a.log.Warn(ctx, "database close failed", "error", err)
	}
}

func (a *App) isUnlocked() bool {
	a.passMu.Lock()
	defer a.passMu.Unlock()
	return a.passphrase != nil
}

func (a *App) setPassphrase(p []byte) {
	a.passMu.Lock()
	a.passphrase = p
	a.passMu.Unlock()
}

// sessionPassphrase hands the sweeper a copy of the current passphrase,
// or nil while the vault is locked (which postpones sweeping). The
// caller owns the copy and wipes it after use; a concurrent Lock wipes
// only the original.
func (a *App) sessionPassphrase() []byte {
	a.passMu.Lock()
	defer a.passMu.Unlock()
	if a.passphrase == nil {
		return nil
	}
	return append([]byte(nil), a.passphrase...)
}

// lockState wipes the passphrase and drops all plaintext held in memory.
func (a *App) lockState() {
	a.passMu.Lock()
	common.WipeByteArray(a.passphrase)
	a.passphrase = nil
	a.passMu.Unlock()

	a.convs = nil
	a.current = nil
	a.lastResult = nil
}
