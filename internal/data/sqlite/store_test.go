package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbadri/ragchat/internal/domain/fault"
	"github.com/tbadri/ragchat/internal/domain/model"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func TestCreateAndGetDocument(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.CreateDocument(ctx, "handbook")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "handbook", doc.Name)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestGetDocument_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetDocument(context.Background(), "ghost-id")
	require.Error(t, err)
	assert.True(t, fault.IsClass(err, fault.NotFound))
}

func TestCreateDocument_EmptyName(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.CreateDocument(context.Background(), "")
	require.Error(t, err)
	assert.True(t, fault.IsClass(err, fault.InvalidInput))
}

func TestAddChunk_UnknownDocument(t *testing.T) {
	store := setupTestStore(t)

	err := store.AddChunk(context.Background(), "no-such-doc", "content", []float32{1, 2, 3})
	require.Error(t, err)
	assert.True(t, fault.IsClass(err, fault.NotFound))
}

func TestAddChunks_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docId, err := store.CreateDocument(ctx, "doc1")
	require.NoError(t, err)

	chunks := []model.Chunk{
		{Content: "first", Embedding: []float32{1, 0, 0}},
		{Content: "second", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, store.AddChunks(ctx, docId, chunks))

	stored, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	byContent := map[string][]float32{}
	for _, c := range stored {
		byContent[c.Content] = c.Embedding
		assert.Equal(t, docId, c.DocumentId)
	}
	assert.Equal(t, []float32{1, 0, 0}, byContent["first"])
	assert.Equal(t, []float32{0, 1, 0}, byContent["second"])
}

func TestAddChunks_DimensionMismatchRejected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docId, err := store.CreateDocument(ctx, "doc1")
	require.NoError(t, err)
	require.NoError(t, store.AddChunk(ctx, docId, "seed", []float32{1, 2, 3}))

	// a later write with a different dimension must be rejected, not
	// truncated or padded
	err = store.AddChunk(ctx, docId, "wrong dim", []float32{1, 2, 3, 4})
	require.Error(t, err)
	assert.True(t, fault.IsClass(err, fault.InvalidInput))

	stored, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestDeleteDocument_Cascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	docId, err := store.CreateDocument(ctx, "doomed")
	require.NoError(t, err)
	require.NoError(t, store.AddChunk(ctx, docId, "a", []float32{1}))
	require.NoError(t, store.AddChunk(ctx, docId, "b", []float32{2}))

	keepId, err := store.CreateDocument(ctx, "kept")
	require.NoError(t, err)
	require.NoError(t, store.AddChunk(ctx, keepId, "c", []float32{3}))

	require.NoError(t, store.DeleteDocument(ctx, docId))

	// no orphan chunks survive
	stored, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, keepId, stored[0].DocumentId)

	err = store.DeleteDocument(ctx, docId)
	assert.True(t, fault.IsClass(err, fault.NotFound))
}

func TestAppendTurn_MonotonicOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.AppendTurn(ctx, "c1", model.RoleUser, "hello")
	require.NoError(t, err)
	second, err := store.AppendTurn(ctx, "c1", model.RoleAssistant, "hi there")
	require.NoError(t, err)

	assert.Greater(t, second.Id, first.Id)

	turns, err := store.RecentTurns(ctx, "c1", 20)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	for i := 1; i < len(turns); i++ {
		assert.Greater(t, turns[i].Id, turns[i-1].Id)
	}
}

func TestAppendTurn_Validation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.AppendTurn(ctx, "", model.RoleUser, "hello")
	assert.True(t, fault.IsClass(err, fault.InvalidInput))

	_, err = store.AppendTurn(ctx, "c1", model.RoleUser, "")
	assert.True(t, fault.IsClass(err, fault.InvalidInput))

	_, err = store.AppendTurn(ctx, "c1", model.Role("moderator"), "hello")
	assert.True(t, fault.IsClass(err, fault.InvalidInput))
}

func TestRecentTurns_WindowAndOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := store.AppendTurn(ctx, "c1", role, "turn")
		require.NoError(t, err)
	}
	// noise in another conversation
	_, err := store.AppendTurn(ctx, "c2", model.RoleUser, "other")
	require.NoError(t, err)

	turns, err := store.RecentTurns(ctx, "c1", 20)
	require.NoError(t, err)
	require.Len(t, turns, 20)
	for i := 1; i < len(turns); i++ {
		assert.Greater(t, turns[i].Id, turns[i-1].Id)
	}
	for _, turn := range turns {
		assert.Equal(t, "c1", turn.ConversationId)
	}
}

func TestRecentTurns_UnknownConversation(t *testing.T) {
	store := setupTestStore(t)

	turns, err := store.RecentTurns(context.Background(), "never-seen", 20)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestCounts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Counts{}, counts)

	docId, err := store.CreateDocument(ctx, "doc")
	require.NoError(t, err)
	require.NoError(t, store.AddChunk(ctx, docId, "x", []float32{1}))
	_, err = store.AppendTurn(ctx, "c1", model.RoleUser, "q")
	require.NoError(t, err)

	counts, err = store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Counts{Documents: 1, Chunks: 1, Messages: 1}, counts)
}
