package directory

import (
	"fmt"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	errs "chat-relay/errors"

	"github.com/google/uuid"
)

// Static is an in-memory Directory, used by tests and as a fallback when
// no database path is configured.
type Static struct {
	mu       sync.RWMutex
	members  map[domain.MemberID]domain.Profile
	messages []contract.StoredMessage
}

func NewStatic() *Static {
	return &Static{members: make(map[domain.MemberID]domain.Profile)}
}

// Add registers a member profile and returns the directory for chaining.
func (s *Static) Add(id domain.MemberID, nickname, status string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = domain.Profile{ID: id, Nickname: nickname, Status: status}
	return s
}

func (s *Static) ResolveDisplayName(id domain.MemberID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.members[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", errs.ErrMemberUnknown, id)
	}
	return profile.Nickname, nil
}

func (s *Static) ResolveDisplayStatus(id domain.MemberID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.members[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", errs.ErrMemberUnknown, id)
	}
	return profile.Status, nil
}

func (s *Static) PersistMessage(room domain.RoomID, sender domain.MemberID, content string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message := contract.StoredMessage{
		ID:      uuid.New(),
		Room:    room,
		Sender:  sender,
		Content: content,
		At:      time.Now().UTC(),
	}
	s.messages = append(s.messages, message)
	return message.ID, nil
}

func (s *Static) RecentMessages(room domain.RoomID, limit int) ([]contract.StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contract.StoredMessage
	for _, m := range s.messages {
		if m.Room == room {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
