// Package embedding runs semantic-vector generation on a background
// worker goroutine so model inference never stalls the caller's path.
// The model is opaque: anything that can turn texts into vectors fits
// behind the Model interface, including a first-run download inside
// Init. Requests and responses travel over channels keyed by request id,
// with per-request timeouts that scale with batch size.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

const (
	// InitTimeout covers a cold start including the model download.
	InitTimeout = 2 * time.Minute

	// Per-request budget: a flat floor plus one second per batch item.
	requestTimeout = 5 * time.Second
	perItemTimeout = time.Second
)

// ErrWorkerStopped is returned for requests made after Stop.
var ErrWorkerStopped = errors.New("embedding worker stopped")

// Model generates vectors for texts. Implementations are expected to be
// single-threaded; the worker serializes all calls.
type Model interface {
	// Init loads the model. Called once, before any Embed.
	Init(ctx context.Context) error

	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Version is the "name@version" tag stamped on stored vectors.
	Version() string
}

type request struct {
	id      string
	texts   []string
	timeout time.Duration
	reply   chan response
}

type response struct {
	vectors [][]float32
	err     error
}

// Worker owns the model goroutine and persists results in the store.
type Worker struct {
	model Model
	store *store.Store
	log   logging.Logger

	requests chan request
	done     chan struct{}
	stopped  chan struct{}

	mu      sync.Mutex
	started bool
}

// NewWorker wires a worker; Start must be called before use.
func NewWorker(model Model, s *store.Store, log logging.Logger) *Worker {
	return &Worker{
		model:    model,
		store:    s,
		log:      log,
		requests: make(chan request),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start initializes the model (bounded by InitTimeout) and launches the
// worker loop. A failed init leaves the worker unusable.
func (w *Worker) Start(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	if err := w.model.Init(initCtx); err != nil {
		return fmt.Errorf("initializing embedding model: %w", err)
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	go w.loop()
	w.log.Info(ctx, "embedding worker started", "model", w.model.Version())
	return nil
}

// Stop shuts the worker loop down and waits for it to drain. Calling Stop
// on a worker that never started, or a second time, is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.done)
	<-w.stopped
}

func (w *Worker) loop() {
	defer close(w.stopped)

	// Inference runs under a context that dies with the worker, so Stop
	// never waits out a slow model call.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.done
		cancel()
	}()

	for {
		select {
		case <-w.done:
			return
		case req := <-w.requests:
			reqCtx, reqCancel := context.WithTimeout(ctx, req.timeout)
			vectors, err := w.model.Embed(reqCtx, req.texts)
			reqCancel()
			if err == nil && len(vectors) != len(req.texts) {
				err = fmt.Errorf("model returned %d vectors for %d texts", len(vectors), len(req.texts))
			}
			req.reply <- response{vectors: vectors, err: err}
		}
	}
}

// Embed generates and persists the vector for a single entity's text.
func (w *Worker) Embed(ctx context.Context, entityType models.EntityType, entityID, text string) error {
	vectors, err := w.submit(ctx, []string{text}, requestTimeout)
	if err != nil {
		return err
	}
	return w.persist(ctx, entityType, entityID, vectors[0])
}

// BatchItem pairs an entity with the text to embed for it.
type BatchItem struct {
	EntityType models.EntityType
	EntityID   string
	Text       string
}

// EmbedBatch generates and persists vectors for a set of entities in one
// model call. The timeout grows with the batch size.
func (w *Worker) EmbedBatch(ctx context.Context, items []BatchItem) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}

	timeout := requestTimeout + time.Duration(len(items))*perItemTimeout
	vectors, err := w.submit(ctx, texts, timeout)
	if err != nil {
		return err
	}

	for i, it := range items {
		if err := w.persist(ctx, it.EntityType, it.EntityID, vectors[i]); err != nil {
			return err
		}
	}
	return nil
}

// Stale lists stored vectors produced by a different model version than
// the current one.
func (w *Worker) Stale(ctx context.Context) ([]models.Embedding, error) {
	return w.store.StaleEmbeddings(ctx, w.model.Version())
}

func (w *Worker) submit(ctx context.Context, texts []string, timeout time.Duration) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := request{
		id:      uuid.NewString(),
		texts:   texts,
		timeout: timeout,
		reply:   make(chan response, 1),
	}

	select {
	case w.requests <- req:
	case <-w.done:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, fmt.Errorf("embedding request %s: %w", req.id, ctx.Err())
	}

	select {
	case resp := <-req.reply:
		if resp.err != nil {
			return nil, fmt.Errorf("embedding request %s: %w", req.id, resp.err)
		}
		return resp.vectors, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("embedding request %s: %w", req.id, ctx.Err())
	}
}

func (w *Worker) persist(ctx context.Context, entityType models.EntityType, entityID string, vector []float32) error {
	return w.store.PutEmbedding(ctx, &models.Embedding{
		EntityType:   entityType,
		EntityID:     entityID,
		Vector:       vector,
		ModelVersion: w.model.Version(),
	})
}
