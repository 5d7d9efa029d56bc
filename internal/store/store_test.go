package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/logging"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

var dbSeq int

func openTestStore(t *testing.T) (*Store, []byte) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:store_test_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq)

	s, err := Open(context.Background(), dsn, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := cryptox.DeriveKey([]byte("test password"), []byte("0123456789abcdef"), 1000)
	require.NoError(t, s.Unlock(context.Background(), key))
	return s, key
}

func TestUnlock_WrongKeyRejected(t *testing.T) {
	ctx := context.Background()
	// File-backed: the keycheck must survive a full close/reopen cycle.
	dsn := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(ctx, dsn, logging.NewNop())
	require.NoError(t, err)

	goodKey := cryptox.DeriveKey([]byte("right"), []byte("0123456789abcdef"), 1000)
	require.NoError(t, s.Unlock(ctx, goodKey))
	require.NoError(t, s.Close())

	// Reopen the same database with a different key: the keycheck marker
	// must reject it. This is the only password-verification mechanism.
	s2, err := Open(ctx, dsn, logging.NewNop())
	require.NoError(t, err)
	defer s2.Close()

	badKey := cryptox.DeriveKey([]byte("wrong"), []byte("0123456789abcdef"), 1000)
	assert.ErrorIs(t, s2.Unlock(ctx, badKey), common.ErrInvalidPassword)

	require.NoError(t, s2.Unlock(ctx, goodKey))
}

func TestKeyParams_PersistedAcrossOpens(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:keyparams_test_%d?mode=memory&cache=shared", time.Now().UnixNano())

	s, err := Open(ctx, dsn, logging.NewNop())
	require.NoError(t, err)
	defer s.Close()

	salt1, iters1, err := s.KeyParams(ctx)
	require.NoError(t, err)
	assert.Len(t, salt1, cryptox.SaltSize)
	assert.Equal(t, cryptox.DefaultIterations, iters1)

	salt2, iters2, err := s.KeyParams(ctx)
	require.NoError(t, err)
	assert.Equal(t, salt1, salt2)
	assert.Equal(t, iters1, iters2)
}

func TestCRUDBeforeUnlock(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:locked_test_%d?mode=memory&cache=shared", time.Now().UnixNano())

	s, err := Open(ctx, dsn, logging.NewNop())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetDay(ctx, "2026-01-01")
	assert.ErrorIs(t, err, common.ErrStoreClosed)
}

func TestAddMessage_CreatesDayAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	m := &models.Message{
		DayID:      "2026-08-30",
		Role:       models.RoleUser,
		Content:    "slept 8 hours, strange dream about trains",
		Parts:      `[{"type":"text","text":"slept 8 hours"}]`,
		Categories: []models.Category{models.CategoryDream, models.CategoryHealth},
	}
	require.NoError(t, s.AddMessage(ctx, m))
	require.NotEmpty(t, m.ID)

	day, err := s.GetDay(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.False(t, day.HasSummary)

	got, err := s.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Content, got.Content)
	assert.Equal(t, m.Parts, got.Parts)
	assert.Equal(t, m.Categories, got.Categories)

	list, err := s.MessagesByDay(ctx, "2026-08-30")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAddMessage_InvalidDayID(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	err := s.AddMessage(ctx, &models.Message{DayID: "30/08/2026", Role: models.RoleUser})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteMessage_SoftDeletesAndBumpsDay(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	m := &models.Message{DayID: "2026-08-30", Role: models.RoleUser, Content: "x"}
	require.NoError(t, s.AddMessage(ctx, m))

	require.NoError(t, s.DeleteMessage(ctx, m.ID))

	list, err := s.MessagesByDay(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.Empty(t, list)

	// Tombstone survives for sync reconciliation.
	all, err := s.AllMessages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotZero(t, all[0].DeletedAt)
}

func TestPatchNote(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	n := &models.Note{DayID: "2026-08-30", Category: "ideas", Title: "draft", Content: "v1"}
	require.NoError(t, s.AddNote(ctx, n))
	firstUpdated := n.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	newContent := "v2"
	require.NoError(t, s.PatchNote(ctx, n.ID, models.NotePatch{Content: &newContent}))

	got, err := s.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
	assert.Equal(t, "draft", got.Title)
	assert.Greater(t, got.UpdatedAt, firstUpdated)
}

func TestSaveSummary_SetsHasSummary(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	sum := &models.Summary{
		ID:         "2026-08-30",
		Sections:   models.SummarySections{Journal: "a quiet day", Dreams: "trains again"},
		RawContent: "## Journal\na quiet day",
	}
	require.NoError(t, s.SaveSummary(ctx, sum))

	day, err := s.GetDay(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.True(t, day.HasSummary)

	got, err := s.GetSummary(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, sum.Sections, got.Sections)

	// Regeneration overwrites in place: same id, one row.
	sum2 := &models.Summary{ID: "2026-08-30", Sections: models.SummarySections{Journal: "rewritten"}}
	require.NoError(t, s.SaveSummary(ctx, sum2))
	all, err := s.AllSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "rewritten", all[0].Sections.Journal)
}

func TestDeleteSummary_ClearsHasSummary(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	require.NoError(t, s.SaveSummary(ctx, &models.Summary{ID: "2026-08-30"}))
	require.NoError(t, s.DeleteSummary(ctx, "2026-08-30"))

	day, err := s.GetDay(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.False(t, day.HasSummary)
}

func TestUpsertSummary_TombstoneClearsHasSummary(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	require.NoError(t, s.SaveSummary(ctx, &models.Summary{ID: "2026-08-30"}))

	// A remote deletion winning the merge arrives as a tombstone upsert.
	require.NoError(t, s.UpsertSummary(ctx, &models.Summary{
		ID:          "2026-08-30",
		GeneratedAt: models.NowMillis(),
		DeletedAt:   models.NowMillis(),
	}))

	day, err := s.GetDay(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.False(t, day.HasSummary)
}

func TestSettings_PatchAndRead(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	cfg, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)

	key := "sk-123"
	model := "small-fast"
	require.NoError(t, s.PatchSettings(ctx, models.SettingsPatch{APIKey: &key, ChatModel: &model}))

	prompt := "be brief"
	require.NoError(t, s.PatchSettings(ctx, models.SettingsPatch{SystemPrompt: &prompt}))

	cfg, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-123", cfg.APIKey)
	assert.Equal(t, "small-fast", cfg.ChatModel)
	assert.Equal(t, "be brief", cfg.SystemPrompt)
}

func TestEmbeddings_StaleDetection(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	m := &models.Message{DayID: "2026-08-30", Role: models.RoleUser, Content: "x"}
	require.NoError(t, s.AddMessage(ctx, m))

	vec := make([]float32, 384)
	vec[0] = 0.5
	require.NoError(t, s.PutEmbedding(ctx, &models.Embedding{
		EntityType:   models.EntityMessage,
		EntityID:     m.ID,
		Vector:       vec,
		ModelVersion: "minilm@1",
	}))

	got, err := s.EmbeddingFor(ctx, models.EntityMessage, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Vector[0], 1e-6)
	assert.Len(t, got.Vector, 384)

	stale, err := s.StaleEmbeddings(ctx, "minilm@2")
	require.NoError(t, err)
	require.Len(t, stale, 1)

	stale, err = s.StaleEmbeddings(ctx, "minilm@1")
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestListDays_RangeScan(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	for _, d := range []string{"2026-08-28", "2026-08-29", "2026-08-30", "2026-09-01"} {
		_, err := s.GetOrCreateDay(ctx, d, "UTC")
		require.NoError(t, err)
	}

	days, err := s.ListDays(ctx, "2026-08-29", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-08-29", days[0].ID)
	assert.Equal(t, "2026-08-30", days[1].ID)
}

func TestMutationsPublishChanges(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	ch, dispose, err := s.Feed().Subscribe(CollectionNotes)
	require.NoError(t, err)
	defer dispose()

	n := &models.Note{DayID: "2026-08-30", Content: "hello"}
	require.NoError(t, s.AddNote(ctx, n))

	select {
	case change := <-ch:
		assert.Equal(t, feed.OpInsert, change.Op)
		assert.Equal(t, n.ID, change.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestImportMessage_IsSilent(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	// Merged records arrive through the silent path: no feed event, no
	// day bump, timestamps preserved verbatim.
	_, err := s.GetOrCreateDay(ctx, "2026-08-30", "")
	require.NoError(t, err)

	ch, dispose, err := s.Feed().Subscribe(CollectionMessages)
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, s.ImportMessage(ctx, &models.Message{
		ID: "m-remote", DayID: "2026-08-30", Role: models.RoleAssistant,
		Content: "from another device", Timestamp: 42,
	}))

	select {
	case c := <-ch:
		t.Fatalf("silent import published a change: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}

	got, err := s.GetMessage(ctx, "m-remote")
	require.NoError(t, err)
	assert.EqualValues(t, 42, got.Timestamp)
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	require.NoError(t, s.AddMessage(ctx, &models.Message{DayID: "2026-08-30", Role: models.RoleUser, Content: "x"}))
	require.NoError(t, s.Wipe(ctx))

	all, err := s.AllMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	days, err := s.AllDays(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)
}
