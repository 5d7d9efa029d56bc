package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// fakeModel produces deterministic vectors: one float per text, equal to
// the text's length.
type fakeModel struct {
	version  string
	initErr  error
	embedErr error
	delay    time.Duration
	calls    int
}

func (m *fakeModel) Init(context.Context) error { return m.initErr }

func (m *fakeModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (m *fakeModel) Version() string { return m.version }

var workerDBSeq int

func openWorkerTestStore(t *testing.T) *store.Store {
	t.Helper()
	workerDBSeq++
	dsn := fmt.Sprintf("file:embedding_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), workerDBSeq)

	s, err := store.Open(context.Background(), dsn, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := cryptox.DeriveKey([]byte("test password"), []byte("0123456789abcdef"), 1000)
	require.NoError(t, s.Unlock(context.Background(), key))
	return s
}

func startWorker(t *testing.T, s *store.Store, m Model) *Worker {
	t.Helper()
	w := NewWorker(m, s, logging.NewNop())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func TestWorker_EmbedPersistsVector(t *testing.T) {
	ctx := context.Background()
	s := openWorkerTestStore(t)
	w := startWorker(t, s, &fakeModel{version: "minilm@1"})

	require.NoError(t, w.Embed(ctx, models.EntityMessage, "msg-1", "hello world"))

	got, err := s.EmbeddingFor(ctx, models.EntityMessage, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{11}, got.Vector)
	assert.Equal(t, "minilm@1", got.ModelVersion)
}

func TestWorker_EmbedBatch(t *testing.T) {
	ctx := context.Background()
	s := openWorkerTestStore(t)
	model := &fakeModel{version: "minilm@1"}
	w := startWorker(t, s, model)

	items := []BatchItem{
		{EntityType: models.EntityMessage, EntityID: "msg-1", Text: "a"},
		{EntityType: models.EntityMessage, EntityID: "msg-2", Text: "bb"},
		{EntityType: models.EntityNote, EntityID: "note-1", Text: "ccc"},
	}
	require.NoError(t, w.EmbedBatch(ctx, items))

	// One model call for the whole batch.
	assert.Equal(t, 1, model.calls)

	got, err := s.EmbeddingFor(ctx, models.EntityNote, "note-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, got.Vector)
}

func TestWorker_EmptyBatchIsNoop(t *testing.T) {
	s := openWorkerTestStore(t)
	model := &fakeModel{version: "minilm@1"}
	w := startWorker(t, s, model)

	require.NoError(t, w.EmbedBatch(context.Background(), nil))
	assert.Zero(t, model.calls)
}

func TestWorker_ReEmbedReplacesVector(t *testing.T) {
	ctx := context.Background()
	s := openWorkerTestStore(t)
	w := startWorker(t, s, &fakeModel{version: "minilm@1"})

	require.NoError(t, w.Embed(ctx, models.EntityMessage, "msg-1", "v1"))
	require.NoError(t, w.Embed(ctx, models.EntityMessage, "msg-1", "longer text"))

	got, err := s.EmbeddingFor(ctx, models.EntityMessage, "msg-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{11}, got.Vector)
}

func TestWorker_StaleDetection(t *testing.T) {
	ctx := context.Background()
	s := openWorkerTestStore(t)

	// A vector from an older model version is already on disk.
	require.NoError(t, s.PutEmbedding(ctx, &models.Embedding{
		EntityType:   models.EntityMessage,
		EntityID:     "msg-old",
		Vector:       []float32{1, 2, 3},
		ModelVersion: "minilm@1",
	}))

	w := startWorker(t, s, &fakeModel{version: "minilm@2"})
	require.NoError(t, w.Embed(ctx, models.EntityMessage, "msg-new", "fresh"))

	stale, err := w.Stale(ctx)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "msg-old", stale[0].EntityID)
}

func TestWorker_ModelErrorSurfaced(t *testing.T) {
	s := openWorkerTestStore(t)
	w := startWorker(t, s, &fakeModel{version: "minilm@1", embedErr: errors.New("inference failed")})

	err := w.Embed(context.Background(), models.EntityMessage, "msg-1", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference failed")
}

func TestWorker_InitFailure(t *testing.T) {
	s := openWorkerTestStore(t)
	w := NewWorker(&fakeModel{version: "minilm@1", initErr: errors.New("download interrupted")}, s, logging.NewNop())

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download interrupted")
}

func TestWorker_RequestTimeout(t *testing.T) {
	s := openWorkerTestStore(t)
	w := startWorker(t, s, &fakeModel{version: "minilm@1", delay: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Embed(ctx, models.EntityMessage, "msg-1", "text")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_StoppedWorkerRejectsRequests(t *testing.T) {
	s := openWorkerTestStore(t)
	w := NewWorker(&fakeModel{version: "minilm@1"}, s, logging.NewNop())
	require.NoError(t, w.Start(context.Background()))
	w.Stop()

	err := w.Embed(context.Background(), models.EntityMessage, "msg-1", "text")
	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestWorker_StopWithoutStartReturns(t *testing.T) {
	s := openWorkerTestStore(t)
	w := NewWorker(&fakeModel{version: "minilm@1"}, s, logging.NewNop())

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started worker must return immediately")
	}
}

func TestWorker_StopAfterFailedStartReturns(t *testing.T) {
	s := openWorkerTestStore(t)
	w := NewWorker(&fakeModel{version: "minilm@1", initErr: errors.New("download interrupted")}, s, logging.NewNop())
	require.Error(t, w.Start(context.Background()))

	w.Stop()
}

func TestWorker_StopTwice(t *testing.T) {
	s := openWorkerTestStore(t)
	w := NewWorker(&fakeModel{version: "minilm@1"}, s, logging.NewNop())
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
