package document

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func commitTurn(t *testing.T, store *Store, docID, convID int64, base int, elementID, element string) Version {
	t.Helper()
	version, _, err := store.CommitTurn(context.Background(), TurnCommit{
		DocumentID:     docID,
		ConversationID: convID,
		BaseVersion:    base,
		ElementID:      elementID,
		Element:        json.RawMessage(element),
		AgentType:      "requirement",
		Message:        "updated",
		RawText:        `{"requirements": []}`,
	})
	require.NoError(t, err)
	return version
}

func TestCreateAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, version, err := store.CreateDocument(ctx, "system-design", "payment service")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.LatestVersion)
	assert.Equal(t, 1, version.Version)
	assert.True(t, version.IsActive)
	assert.Empty(t, version.Elements)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "payment service", got.Title)
	assert.Equal(t, "system-design", got.SchemaName)

	_, err = store.GetDocument(ctx, doc.ID+99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitTurnElementIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, _, err := store.CreateDocument(ctx, "system-design", "doc")
	require.NoError(t, err)
	convID, err := store.EnsureConversation(ctx, doc.ID)
	require.NoError(t, err)

	v2 := commitTurn(t, store, doc.ID, convID, 1, "requirements", `["r1"]`)
	v3 := commitTurn(t, store, doc.ID, convID, 2, "architecture", `{"components": ["api"]}`)

	// The untouched element is byte-identical across versions.
	assert.Equal(t, v2.Elements["requirements"], v3.Elements["requirements"])
	assert.JSONEq(t, `{"components": ["api"]}`, string(v3.Elements["architecture"]))
	require.Len(t, v3.Elements, 2)

	// Prior versions are immutable.
	stored, err := store.VersionByNumber(ctx, doc.ID, 2)
	require.NoError(t, err)
	assert.NotContains(t, stored.Elements, "architecture")
}

func TestCommitTurnVersionConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, _, err := store.CreateDocument(ctx, "system-design", "doc")
	require.NoError(t, err)
	convID, err := store.EnsureConversation(ctx, doc.ID)
	require.NoError(t, err)

	commitTurn(t, store, doc.ID, convID, 1, "requirements", `["r1"]`)

	_, _, err = store.CommitTurn(ctx, TurnCommit{
		DocumentID:     doc.ID,
		ConversationID: convID,
		BaseVersion:    1,
		ElementID:      "requirements",
		Element:        json.RawMessage(`["stale"]`),
		AgentType:      "requirement",
		Message:        "stale write",
	})
	require.ErrorIs(t, err, ErrVersionConflict)

	// The failed commit wrote nothing.
	versions, err := store.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestRevertBurnsVersionNumbers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, _, err := store.CreateDocument(ctx, "system-design", "doc")
	require.NoError(t, err)
	convID, err := store.EnsureConversation(ctx, doc.ID)
	require.NoError(t, err)

	for base := 1; base <= 4; base++ {
		commitTurn(t, store, doc.ID, convID, base, "requirements", fmt.Sprintf(`["r%d"]`, base))
	}

	reverted, err := store.Revert(ctx, doc.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, reverted.Version)
	assert.JSONEq(t, `["r2"]`, string(reverted.Elements["requirements"]))

	active, err := store.ActiveVersion(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, active.Version)

	// The next turn allocates past the deactivated versions: 6, not 4.
	next := commitTurn(t, store, doc.ID, convID, 3, "requirements", `["r5"]`)
	assert.Equal(t, 6, next.Version)
}

func TestRevertSoftDeletesMessagesAndPrunesConversations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, v1, err := store.CreateDocument(ctx, "system-design", "doc")
	require.NoError(t, err)
	convID, err := store.EnsureConversation(ctx, doc.ID)
	require.NoError(t, err)

	_, err = store.AppendUserMessage(ctx, convID, v1.ID, "add a requirement")
	require.NoError(t, err)
	commitTurn(t, store, doc.ID, convID, 1, "requirements", `["r1"]`)

	// User message sits on version 1 and survives; the agent message on
	// version 2 goes.
	_, err = store.Revert(ctx, doc.ID, 1)
	require.NoError(t, err)

	turns, err := store.ConversationTurns(ctx, convID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "user", turns[0].Message.FromAgentType)

	messages, err := store.ListMessages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestRevertToMissingVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, _, err := store.CreateDocument(ctx, "system-design", "doc")
	require.NoError(t, err)

	_, err = store.Revert(ctx, doc.ID, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationReopensAfterPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, _, err := store.CreateDocument(ctx, "system-design", "doc")
	require.NoError(t, err)
	convID, err := store.EnsureConversation(ctx, doc.ID)
	require.NoError(t, err)

	commitTurn(t, store, doc.ID, convID, 1, "requirements", `["r1"]`)
	_, err = store.Revert(ctx, doc.ID, 1)
	require.NoError(t, err)

	// The old conversation had only the deleted agent message, so the next
	// turn gets a fresh one.
	nextConv, err := store.EnsureConversation(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEqual(t, convID, nextConv)

	turns, err := store.ConversationTurns(ctx, nextConv)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.CreateDocument(ctx, "system-design", "first")
	require.NoError(t, err)
	_, _, err = store.CreateDocument(ctx, "system-design", "second")
	require.NoError(t, err)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}
