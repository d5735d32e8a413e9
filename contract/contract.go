//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// StoredMessage is a persisted chat message as returned by the directory.
type StoredMessage struct {
	ID      uuid.UUID
	Room    domain.RoomID
	Sender  domain.MemberID
	Content string
	At      time.Time
}

// Directory is the surface of the member/room application the relay consumes.
// The relay resolves display names for synthesized system events; persistence
// is invoked by the sending side, never by the relay itself.
type Directory interface {
	ResolveDisplayName(id domain.MemberID) (string, error)
	ResolveDisplayStatus(id domain.MemberID) (string, error)
	PersistMessage(room domain.RoomID, sender domain.MemberID, content string) (uuid.UUID, error)
	RecentMessages(room domain.RoomID, limit int) ([]StoredMessage, error)
}
