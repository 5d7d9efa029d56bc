package cli

import (
	"bufio"
	"context"
	"os"

	_ "modernc.org/sqlite"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/config"
	"github.com/mateotomas2/ai-journaling-sub001/internal/llm"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store"
	"github.com/mateotomas2/ai-journaling-sub001/internal/syncx"
)

// App owns the wired components for one CLI session. The sync key and
// engine only exist after a successful Unlock.
type App struct {
	config *config.Config
	log    logging.Logger
	store  *store.Store
	llm    *llm.Client
	engine *syncx.Engine

	syncKey []byte
	reader  *bufio.Reader
}

// NewApp opens the store (locked) and builds the LLM client.
func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	s, err := store.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		return nil, err
	}

	return &App{
		config: cfg,
		log:    log,
		store:  s,
		llm:    llm.NewClient(cfg.LLMEndpoint, log),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and tears everything down when it returns.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close stops the sync engine before the store: the engine may still be
// finishing a round that reads from the store.
func (a *App) Close() {
	if a.engine != nil {
		a.engine.Stop()
		a.engine = nil
	}
	common.WipeByteArray(a.syncKey)
	a.syncKey = nil
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "closing store", "error", err)
	}
}

func (a *App) isUnlocked() bool {
	return a.syncKey != nil
}
