package directory

import (
	"testing"

	errs "chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestStatic_ResolveKnownAndUnknown(t *testing.T) {
	req := require.New(t)
	dir := NewStatic().Add(7, "alice", "online")

	name, err := dir.ResolveDisplayName(7)
	req.NoError(err)
	req.Equal("alice", name)
	status, err := dir.ResolveDisplayStatus(7)
	req.NoError(err)
	req.Equal("online", status)

	_, err = dir.ResolveDisplayName(42)
	req.ErrorIs(err, errs.ErrMemberUnknown)
}

func TestStatic_PersistAndRecall(t *testing.T) {
	req := require.New(t)
	dir := NewStatic().Add(7, "alice", "online")

	for _, content := range []string{"one", "two", "three"} {
		_, err := dir.PersistMessage(3, 7, content)
		req.NoError(err)
	}
	_, err := dir.PersistMessage(4, 7, "elsewhere")
	req.NoError(err)

	// Limit keeps the newest entries in chronological order
	messages, err := dir.RecentMessages(3, 2)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("two", messages[0].Content)
	req.Equal("three", messages[1].Content)
}
