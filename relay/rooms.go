package relay

import (
	"sync"

	"chat-relay/domain"

	"github.com/samber/lo"
)

type memberSet map[domain.MemberID]struct{}

// RoomTable is the relay's in-memory cache of room membership. It is not
// derived from the directory; the authoritative membership is pushed in
// via SET_MEMBERS whenever it changes.
//
// Invariant: a room whose member set becomes empty is removed
// immediately, never retained as an empty entry.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]memberSet
}

func NewRoomTable() *RoomTable {
	return &RoomTable{rooms: make(map[domain.RoomID]memberSet)}
}

// Join adds a member to a room, creating the entry if absent.
func (t *RoomTable) Join(room domain.RoomID, member domain.MemberID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members, ok := t.rooms[room]
	if !ok {
		members = make(memberSet)
		t.rooms[room] = members
	}
	members[member] = struct{}{}
}

// Leave removes a member. It returns how many members remain and whether
// the member was present. The room entry is deleted when the last member
// leaves.
func (t *RoomTable) Leave(room domain.RoomID, member domain.MemberID) (remaining int, existed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members, ok := t.rooms[room]
	if !ok {
		return 0, false
	}
	if _, existed = members[member]; existed {
		delete(members, member)
	}
	if len(members) == 0 {
		delete(t.rooms, room)
		return 0, existed
	}
	return len(members), existed
}

// Replace swaps a room's member set wholesale. An empty list removes the
// entry entirely.
func (t *RoomTable) Replace(room domain.RoomID, members []domain.MemberID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	unique := lo.Uniq(members)
	if len(unique) == 0 {
		delete(t.rooms, room)
		return
	}
	set := make(memberSet, len(unique))
	for _, m := range unique {
		set[m] = struct{}{}
	}
	t.rooms[room] = set
}

// Members returns a snapshot of the room's member set, nil if the room
// is unknown. Absence is not an error; a broadcast to it delivers to
// nobody.
func (t *RoomTable) Members(room domain.RoomID) []domain.MemberID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members, ok := t.rooms[room]
	if !ok {
		return nil
	}
	return lo.Keys(members)
}

func (t *RoomTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms = make(map[domain.RoomID]memberSet)
}

func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}
