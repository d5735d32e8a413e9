package relay

import (
	"testing"

	"chat-relay/domain"

	"github.com/stretchr/testify/require"
)

func TestSessionRegistry_PutReplacesSilently(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	first := &Session{member: 7}
	second := &Session{member: 7}

	// When the same member authenticates twice
	registry.Put(first)
	registry.Put(second)

	// Then only the newest session is registered
	req.Equal(1, registry.Len())
	current, ok := registry.Get(7)
	req.True(ok)
	req.Same(second, current)
}

func TestSessionRegistry_RemoveIsConditional(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	replaced := &Session{member: 7}
	replacement := &Session{member: 7}
	registry.Put(replaced)
	registry.Put(replacement)

	// When the replaced handler tears itself down
	registry.Remove(7, replaced)

	// Then the replacement survives
	current, ok := registry.Get(7)
	req.True(ok)
	req.Same(replacement, current)

	// And removing the current session actually evicts it
	registry.Remove(7, replacement)
	_, ok = registry.Get(7)
	req.False(ok)
	req.Zero(registry.Len())
}

func TestSessionRegistry_DrainEmptiesTheRegistry(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()
	registry.Put(&Session{member: 7})
	registry.Put(&Session{member: 8})

	drained := registry.Drain()

	req.Len(drained, 2)
	req.Zero(registry.Len())
	req.Empty(registry.Drain())
}

func TestSessionRegistry_GetUnknownMember(t *testing.T) {
	req := require.New(t)
	registry := NewSessionRegistry()

	_, ok := registry.Get(domain.MemberID(42))

	req.False(ok)
}
