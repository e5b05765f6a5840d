package localstore_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"chat-client/internal/localstore"
	"chat-client/internal/models"
	"chat-client/internal/store"
)

func open(t *testing.T) (*localstore.SQLiteSnapshotter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshots.db")
	snaps, err := localstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { snaps.Close() })
	return snaps, path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snaps, _ := open(t)

	active := 7
	in := store.Snapshot{
		Chats:        []models.Chat{{ID: 7, Name: "ops", UnreadCount: 2}},
		ActiveChatID: &active,
		Messages: map[int][]models.Message{
			7: {{ID: "m1", Text: "hi", Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), Status: models.StatusRead}},
		},
	}
	require.NoError(t, snaps.Save(in))

	out, ok, err := snaps.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Chats, out.Chats)
	require.NotNil(t, out.ActiveChatID)
	assert.Equal(t, 7, *out.ActiveChatID)
	assert.Equal(t, in.Messages, out.Messages)
}

func TestSaveOverwritesPrevious(t *testing.T) {
	snaps, _ := open(t)

	require.NoError(t, snaps.Save(store.Snapshot{Chats: []models.Chat{{ID: 1, Name: "old"}}}))
	require.NoError(t, snaps.Save(store.Snapshot{Chats: []models.Chat{{ID: 2, Name: "new"}}}))

	out, ok, err := snaps.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, out.Chats, 1)
	assert.Equal(t, "new", out.Chats[0].Name)
}

func TestLoadAbsentReportsNoSnapshot(t *testing.T) {
	snaps, _ := open(t)

	_, ok, err := snaps.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCorruptPayloadReportsAbsence(t *testing.T) {
	snaps, path := open(t)
	require.NoError(t, snaps.Save(store.Snapshot{Chats: []models.Chat{{ID: 1}}}))

	db, err := sqlx.Connect("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE snapshots SET payload = 'not json' WHERE namespace = $1`, localstore.Namespace)
	require.NoError(t, err)

	_, ok, err := snaps.Load()
	require.NoError(t, err, "corruption degrades to empty state, never an error")
	assert.False(t, ok)
}

func TestReopenSurvivesProcessRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	first, err := localstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(store.Snapshot{Chats: []models.Chat{{ID: 9, Name: "kept"}}}))
	require.NoError(t, first.Close())

	second, err := localstore.Open(path)
	require.NoError(t, err)
	defer second.Close()

	out, ok, err := second.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "kept", out.Chats[0].Name)
}
