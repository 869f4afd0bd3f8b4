package coordinator

import (
	"testing"

	"github.com/kodewerx/memoria/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func messageNode(id types.NodeId, chatID string, ts int64, text string) *types.Node {
	return &types.Node{
		Id:    id,
		Class: types.NodeClassMessage,
		Message: &types.MessagePayload{
			ChatId:    chatID,
			Sender:    "user",
			Text:      text,
			Timestamp: ts,
		},
	}
}

// S1 — Message persistence across tiers.
func TestMessagePersistsAcrossPromotion(t *testing.T) {
	c := newTestCoordinator(t)

	now := int64(1_700_000_000_000)
	msg := messageNode("m1", "c1", now, "hi")
	require.NoError(t, c.InsertMessage(msg))

	got, err := c.GetMessage("m1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Message.Text)

	advanced := now + 31*types.ActiveToRecentAgeMs/30 // ~31 days later
	moved, err := c.PromoteConversations(advanced)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	got, err = c.GetMessage("m1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hi", got.Message.Text)
}

// S2 — Archive quarter routing.
func TestArchiveQuarterRouting(t *testing.T) {
	c := newTestCoordinator(t)

	ts := int64(1_708_000_000_000) // 2024-02-15T12:26:40Z
	assert.Equal(t, "2024-Q1", types.Quarter(ts))

	msg := messageNode("m2", "c1", ts, "archived")
	require.NoError(t, c.InsertMessage(msg))

	// Push straight to archive: promote twice, once past the
	// active->recent threshold and once past recent->archive.
	_, err := c.PromoteConversations(ts + types.ActiveToRecentAgeMs + 1)
	require.NoError(t, err)
	moved, err := c.PromoteConversations(ts + types.RecentToArchiveAgeMs + 1)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	hint := ts + 5*86_400_000
	got, err := c.GetMessage("m2", &hint)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "archived", got.Message.Text)

	assert.True(t, c.Registry().Has("conversations/archive/2024-Q1"))
}

func TestGetMessageMissReturnsNilNotError(t *testing.T) {
	c := newTestCoordinator(t)
	got, err := c.GetMessage("nope", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteNodeBroadcastsAcrossTiers(t *testing.T) {
	c := newTestCoordinator(t)
	msg := messageNode("m3", "c1", 1_700_000_000_000, "bye")
	require.NoError(t, c.InsertMessage(msg))
	require.NoError(t, c.DeleteNode(types.ClassConversations, "m3"))

	got, err := c.GetMessage("m3", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPromoteEntityMovesByConfirmationCount(t *testing.T) {
	c := newTestCoordinator(t)
	entity := &types.Node{
		Id:    "e1",
		Class: types.NodeClassEntity,
		Entity: &types.EntityPayload{
			Name:              "Ada Lovelace",
			Kind:              "person",
			ConfirmationCount: 0,
		},
	}
	require.NoError(t, c.InsertEntity(entity))

	require.NoError(t, c.PromoteEntity("e1", 12))
	assert.True(t, c.Registry().Has("knowledge/stable"))

	got, err := c.GetEntity("e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.Entity.ConfirmationCount)
}
