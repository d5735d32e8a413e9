// Package domain contains the wire payload model of the relay.
// Envelopes are immutable value objects: created by a sender, consumed
// once by each recipient, never stored.
package domain

import (
	"fmt"
	"time"

	errs "chat-relay/errors"
)

type MemberID int

type RoomID int

// SystemSender marks events synthesized by the relay itself (join/leave notices).
const SystemSender MemberID = -1

type EventKind string

const (
	EventMessage EventKind = "MESSAGE"
	EventSystem  EventKind = "SYSTEM"
	EventFile    EventKind = "FILE"
	EventTyping  EventKind = "TYPING"
	EventRead    EventKind = "READ"
)

type CommandKind string

const (
	CommandJoinRoom    CommandKind = "JOIN_ROOM"
	CommandJoinRoomOK  CommandKind = "JOIN_ROOM_OK"
	CommandLeaveRoom   CommandKind = "LEAVE_ROOM"
	CommandLeaveRoomOK CommandKind = "LEAVE_ROOM_OK"
	CommandSetMembers  CommandKind = "SET_MEMBERS"
	CommandRefresh     CommandKind = "REFRESH"
	CommandError       CommandKind = "ERROR"
)

// ChatEvent is one chat payload addressed to a room.
// SenderName and SenderStatus are denormalized so recipients can render
// without a directory round-trip.
type ChatEvent struct {
	Kind         EventKind `json:"kind"`
	Room         RoomID    `json:"room_id"`
	Sender       MemberID  `json:"sender_id"`
	Content      string    `json:"content"`
	At           time.Time `json:"at"`
	SenderName   string    `json:"sender_name,omitempty"`
	SenderStatus string    `json:"sender_status,omitempty"`
}

func NewChatEvent(kind EventKind, room RoomID, sender Profile, content string, at time.Time) ChatEvent {
	return ChatEvent{
		Kind:         kind,
		Room:         room,
		Sender:       sender.ID,
		Content:      content,
		At:           at,
		SenderName:   sender.Nickname,
		SenderStatus: sender.Status,
	}
}

// NewSystemEvent builds a relay-originated notice for a room.
func NewSystemEvent(room RoomID, content string, at time.Time) ChatEvent {
	return ChatEvent{
		Kind:    EventSystem,
		Room:    room,
		Sender:  SystemSender,
		Content: content,
		At:      at,
	}
}

// ControlCommand is one control payload. Members is only meaningful
// for SET_MEMBERS.
type ControlCommand struct {
	Kind    CommandKind `json:"kind"`
	Room    RoomID      `json:"room_id"`
	Member  MemberID    `json:"member_id"`
	Members []MemberID  `json:"members,omitempty"`
}

func NewRoomCommand(kind CommandKind, room RoomID, member MemberID) ControlCommand {
	return ControlCommand{Kind: kind, Room: room, Member: member}
}

func NewSetMembersCommand(room RoomID, members []MemberID) ControlCommand {
	return ControlCommand{Kind: CommandSetMembers, Room: room, Members: members}
}

type PayloadKind string

const (
	PayloadEvent   PayloadKind = "EVENT"
	PayloadCommand PayloadKind = "COMMAND"
)

// Envelope is the tagged union carried on the wire. Exactly one of
// Event and Command is set, matching Kind.
type Envelope struct {
	Kind    PayloadKind     `json:"kind"`
	Event   *ChatEvent      `json:"event,omitempty"`
	Command *ControlCommand `json:"command,omitempty"`
}

func EventEnvelope(e ChatEvent) Envelope {
	return Envelope{Kind: PayloadEvent, Event: &e}
}

func CommandEnvelope(c ControlCommand) Envelope {
	return Envelope{Kind: PayloadCommand, Command: &c}
}

// Validate checks the discriminator against the carried payload.
func (e Envelope) Validate() error {
	switch e.Kind {
	case PayloadEvent:
		if e.Event == nil {
			return fmt.Errorf("%w: event envelope without event", errs.ErrMalformedFrame)
		}
	case PayloadCommand:
		if e.Command == nil {
			return fmt.Errorf("%w: command envelope without command", errs.ErrMalformedFrame)
		}
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownPayload, e.Kind)
	}
	return nil
}
