// Package directory provides implementations of the member/room
// collaborator the relay consumes. The relay itself only ever sees the
// contract.Directory interface.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	errs "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Badger stores member profiles and the message archive in BadgerDB.
// Message keys are "msg:{room}:{19-digit nanos}:{uuid}" so a prefix scan
// yields chronological order and two messages in the same nanosecond
// cannot collide.
type Badger struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadger(db *badger.DB, log *slog.Logger) *Badger {
	return &Badger{db: db, log: log}
}

type memberRecord struct {
	Nickname string `json:"nickname"`
	Status   string `json:"status"`
}

type messageRecord struct {
	ID      uuid.UUID `json:"id"`
	Room    int       `json:"room"`
	Sender  int       `json:"sender"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

func memberKey(id domain.MemberID) []byte {
	return []byte(fmt.Sprintf("member:%d", id))
}

// UpsertMember creates or updates a member profile.
func (d *Badger) UpsertMember(id domain.MemberID, nickname, status string) error {
	value, err := json.Marshal(memberRecord{Nickname: nickname, Status: status})
	if err != nil {
		return err
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(id), value)
	})
}

func (d *Badger) member(id domain.MemberID) (memberRecord, error) {
	var record memberRecord
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(memberKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return memberRecord{}, fmt.Errorf("%w: %d", errs.ErrMemberUnknown, id)
	}
	return record, err
}

func (d *Badger) ResolveDisplayName(id domain.MemberID) (string, error) {
	record, err := d.member(id)
	if err != nil {
		return "", err
	}
	return record.Nickname, nil
}

func (d *Badger) ResolveDisplayStatus(id domain.MemberID) (string, error) {
	record, err := d.member(id)
	if err != nil {
		return "", err
	}
	return record.Status, nil
}

// PersistMessage archives one message and returns its minted id.
func (d *Badger) PersistMessage(room domain.RoomID, sender domain.MemberID, content string) (uuid.UUID, error) {
	record := messageRecord{
		ID:      uuid.New(),
		Room:    int(room),
		Sender:  int(sender),
		Content: content,
		At:      time.Now().UTC(),
	}
	key := fmt.Sprintf("msg:%d:%019d:%s", record.Room, record.At.UnixNano(), record.ID)
	value, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, err
	}
	err = d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecentMessages returns up to limit messages of a room, oldest first.
// It scans the room prefix in reverse to find the newest entries, then
// flips the result back to chronological order.
func (d *Badger) RecentMessages(room domain.RoomID, limit int) ([]contract.StoredMessage, error) {
	var records []messageRecord
	err := d.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%d:", room)
		prefix := []byte(prefixStr)

		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room.
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				break
			}
			var record messageRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(lo.Reverse(records), func(r messageRecord, _ int) contract.StoredMessage {
		return contract.StoredMessage{
			ID:      r.ID,
			Room:    domain.RoomID(r.Room),
			Sender:  domain.MemberID(r.Sender),
			Content: r.Content,
			At:      r.At,
		}
	}), nil
}
