package directory

import (
	"log/slog"
	"testing"
	"time"

	"chat-relay/domain"
	errs "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Badger {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadger(db, slog.Default())
}

func TestBadger_UpsertAndResolve(t *testing.T) {
	req := require.New(t)
	dir := setupTestDB(t)

	req.NoError(dir.UpsertMember(7, "alice", "online"))

	name, err := dir.ResolveDisplayName(7)
	req.NoError(err)
	req.Equal("alice", name)
	status, err := dir.ResolveDisplayStatus(7)
	req.NoError(err)
	req.Equal("online", status)

	// When the profile is updated in place
	req.NoError(dir.UpsertMember(7, "alice", "away"))
	status, err = dir.ResolveDisplayStatus(7)
	req.NoError(err)
	req.Equal("away", status)
}

func TestBadger_UnknownMember(t *testing.T) {
	req := require.New(t)
	dir := setupTestDB(t)

	_, err := dir.ResolveDisplayName(42)
	req.ErrorIs(err, errs.ErrMemberUnknown)
	_, err = dir.ResolveDisplayStatus(42)
	req.ErrorIs(err, errs.ErrMemberUnknown)
}

func TestBadger_RecentMessagesChronologicalOrder(t *testing.T) {
	req := require.New(t)
	dir := setupTestDB(t)

	for _, content := range []string{"one", "two", "three"} {
		id, err := dir.PersistMessage(3, 7, content)
		req.NoError(err)
		req.NotEqual(uuid.Nil, id)
		time.Sleep(time.Millisecond) // distinct timestamps, stable order
	}

	messages, err := dir.RecentMessages(3, 10)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("one", messages[0].Content)
	req.Equal("two", messages[1].Content)
	req.Equal("three", messages[2].Content)
	req.Equal(domain.RoomID(3), messages[0].Room)
	req.Equal(domain.MemberID(7), messages[0].Sender)
}

func TestBadger_RecentMessagesKeepsTheNewest(t *testing.T) {
	req := require.New(t)
	dir := setupTestDB(t)

	for _, content := range []string{"old", "mid", "new"} {
		_, err := dir.PersistMessage(3, 7, content)
		req.NoError(err)
		time.Sleep(time.Millisecond)
	}

	// When the limit is smaller than the archive
	messages, err := dir.RecentMessages(3, 2)
	req.NoError(err)

	// Then the oldest entry is the one dropped
	req.Len(messages, 2)
	req.Equal("mid", messages[0].Content)
	req.Equal("new", messages[1].Content)
}

func TestBadger_RecentMessagesIsolatesRooms(t *testing.T) {
	req := require.New(t)
	dir := setupTestDB(t)

	_, err := dir.PersistMessage(3, 7, "for room three")
	req.NoError(err)
	_, err = dir.PersistMessage(4, 7, "for room four")
	req.NoError(err)

	messages, err := dir.RecentMessages(3, 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for room three", messages[0].Content)

	empty, err := dir.RecentMessages(99, 10)
	req.NoError(err)
	req.Empty(empty)
}
