// Package syncx keeps the local journal and the single remote snapshot
// blob converged. One blob per account, sealed under a password-derived
// sync key; every device downloads it, merges it with local data, and
// uploads the union. There is no per-record protocol and no server-side
// merge logic.
//
// The engine is a small state machine (idle, syncing, error,
// needs-reauth) with at most one sync in flight. Change-feed events from
// the store restart a debounce timer so bursts of edits collapse into
// one round trip.
package syncx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mateotomas2/ai-journaling-sub001/internal/codec"
	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/remote"
	"github.com/mateotomas2/ai-journaling-sub001/internal/remote/token"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
)

// State is the engine's externally visible condition.
type State string

const (
	StateIdle        State = "idle"
	StateSyncing     State = "syncing"
	StateError       State = "error"
	StateNeedsReauth State = "needs-reauth"
)

// DefaultDebounce is the quiet period after the last local change before
// an automatic sync fires.
const DefaultDebounce = 30 * time.Second

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce overrides the automatic-sync quiet period.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// Engine orchestrates sync rounds against the remote blob store.
type Engine struct {
	store     *store.Store
	transport remote.Transport
	tokens    token.Source
	syncKey   []byte
	log       logging.Logger
	debounce  time.Duration

	mu      sync.Mutex
	state   State
	lastErr error
	started bool

	disposers []func()
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewEngine wires an engine. The sync key is the cross-device key derived
// from the password with the fixed sync salt, not the local storage key.
func NewEngine(s *store.Store, t remote.Transport, tokens token.Source, syncKey []byte, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		transport: t,
		tokens:    tokens,
		syncKey:   syncKey,
		log:       log,
		debounce:  DefaultDebounce,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error from the last sync round, nil after a success.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// LastSyncTime returns the completion time of the last successful sync.
func (e *Engine) LastSyncTime(ctx context.Context) (time.Time, error) {
	return e.store.LastSyncTime(ctx)
}

// Sync runs one full sync round. While a round is in flight, concurrent
// calls return common.ErrSyncInProgress without doing any work.
func (e *Engine) Sync(ctx context.Context) error {
	if !e.begin() {
		return common.ErrSyncInProgress
	}
	err := e.run(ctx)
	e.finish(err)
	return err
}

func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSyncing {
		return false
	}
	e.state = StateSyncing
	return true
}

func (e *Engine) finish(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err
	switch {
	case err == nil:
		e.state = StateIdle
	case errors.Is(err, common.ErrUnauthorized):
		e.state = StateNeedsReauth
	default:
		e.state = StateError
	}
}

// run is one sync round: resolve the remote blob, merge, write back.
func (e *Engine) run(ctx context.Context) error {
	tok, err := e.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("acquiring access token: %w", err)
	}
	if tok == "" {
		return fmt.Errorf("%w: no access token", common.ErrUnauthorized)
	}

	fileID, err := e.store.RemoteFileID(ctx)
	if err != nil {
		return fmt.Errorf("reading cached file id: %w", err)
	}
	if fileID == "" {
		fileID, err = e.transport.FindByName(ctx, tok, common.SyncBlobName)
		if err != nil {
			return fmt.Errorf("resolving remote blob: %w", err)
		}
	}

	var remoteEnv *codec.Envelope
	if fileID != "" {
		data, err := e.transport.Download(ctx, tok, fileID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			// Cached id went stale; recreate the blob on upload.
			fileID = ""
		case err != nil:
			return fmt.Errorf("downloading remote blob: %w", err)
		default:
			env, err := OpenSyncBlob(data, e.syncKey)
			switch {
			case err == nil:
				remoteEnv = env
			case errors.Is(err, common.ErrForeignRemote):
				// Sealed under a different key. Overwriting could destroy
				// another account's only copy, so stop here.
				return fmt.Errorf("remote blob sealed under a different key: %w", err)
			default:
				e.log.Warn(ctx, "remote blob unreadable, continuing with local data only", "error", err)
			}
		}
	}

	localEnv, err := codec.Export(ctx, e.store)
	if err != nil {
		return fmt.Errorf("exporting local data: %w", err)
	}

	merged := localEnv
	if remoteEnv != nil {
		merged = Merge(localEnv, remoteEnv)
		if err := e.applyMerged(ctx, merged); err != nil {
			return fmt.Errorf("applying merged data: %w", err)
		}
	}

	sealed, err := SealSyncBlob(merged, e.syncKey)
	if err != nil {
		return fmt.Errorf("sealing sync blob: %w", err)
	}

	newID, err := e.transport.Upload(ctx, tok, common.SyncBlobName, sealed, fileID)
	if err != nil {
		return fmt.Errorf("uploading sync blob: %w", err)
	}

	if err := e.store.SetRemoteFileID(ctx, newID); err != nil {
		return fmt.Errorf("caching file id: %w", err)
	}
	if err := e.store.SetLastSyncTime(ctx, time.Now()); err != nil {
		return fmt.Errorf("recording sync time: %w", err)
	}

	e.log.Info(ctx, "sync complete",
		"days", len(merged.Days), "messages", len(merged.Messages),
		"summaries", len(merged.Summaries), "notes", len(merged.Notes))
	return nil
}

// applyMerged writes merge winners that differ from the local copy back
// into the store. All writes go through the silent Upsert/Import paths so
// a sync round never feeds the debounce timer that triggered it.
func (e *Engine) applyMerged(ctx context.Context, merged *codec.Envelope) error {
	for i := range merged.Days {
		d := merged.Days[i]
		local, err := e.store.GetDay(ctx, d.ID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if local == nil || d.UpdatedAt > local.UpdatedAt {
			if err := e.store.UpsertDay(ctx, &d); err != nil {
				return err
			}
		}
	}

	for i := range merged.Messages {
		m := merged.Messages[i]
		exists, err := e.store.HasMessage(ctx, m.ID)
		if err != nil {
			return err
		}
		if !exists {
			if err := e.store.ImportMessage(ctx, &m); err != nil {
				return err
			}
		}
	}

	for i := range merged.Summaries {
		sum := merged.Summaries[i]
		local, err := e.store.GetSummary(ctx, sum.ID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if local == nil || sum.GeneratedAt > local.GeneratedAt {
			if err := e.store.UpsertSummary(ctx, &sum); err != nil {
				return err
			}
		}
	}

	for i := range merged.Notes {
		n := merged.Notes[i]
		local, err := e.store.GetNote(ctx, n.ID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if local == nil || n.UpdatedAt > local.UpdatedAt {
			if err := e.store.UpsertNote(ctx, &n); err != nil {
				return err
			}
		}
	}

	return nil
}

// Start subscribes to the store's change feed and schedules an automatic
// sync after each quiet period. Safe to call once; Stop tears it down.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}

	events := make(chan struct{}, 1)
	collections := []string{
		store.CollectionDays,
		store.CollectionMessages,
		store.CollectionNotes,
		store.CollectionSummaries,
	}
	for _, c := range collections {
		ch, dispose, err := e.store.Feed().Subscribe(c)
		if err != nil {
			for _, d := range e.disposers {
				d()
			}
			e.disposers = nil
			return fmt.Errorf("subscribing to %s feed: %w", c, err)
		}
		e.disposers = append(e.disposers, dispose)

		e.wg.Add(1)
		go func(ch <-chan feed.Change) {
			defer e.wg.Done()
			for range ch {
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}(ch)
	}

	e.done = make(chan struct{})
	e.started = true
	e.wg.Add(1)
	go e.debounceLoop(events)
	return nil
}

// Stop cancels the feed subscriptions and waits for the debounce loop to
// drain. An in-flight sync round is left to finish on its own.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	disposers := e.disposers
	e.disposers = nil
	done := e.done
	e.mu.Unlock()

	for _, d := range disposers {
		d()
	}
	close(done)
	e.wg.Wait()
}

func (e *Engine) debounceLoop(events <-chan struct{}) {
	defer e.wg.Done()

	timer := time.NewTimer(e.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var timerC <-chan time.Time

	for {
		select {
		case <-e.done:
			timer.Stop()
			return
		case <-events:
			if timerC != nil && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(e.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := e.Sync(context.Background()); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
				e.log.Warn(context.Background(), "automatic sync failed", "error", err)
			}
		}
	}
}
