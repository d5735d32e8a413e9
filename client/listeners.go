package client

import (
	"sync"

	"chat-relay/domain"

	"github.com/google/uuid"
)

// ListenerID identifies one registered callback. Go funcs are not
// comparable, so removal goes through the handle returned at
// registration time.
type ListenerID string

func newListenerID() ListenerID { return ListenerID(uuid.NewString()) }

type MessageListener func(domain.ChatEvent)

type CommandListener func(domain.ControlCommand)

type messageEntry struct {
	id ListenerID
	fn MessageListener
}

type commandEntry struct {
	id ListenerID
	fn CommandListener
}

// listenerRegistry holds per-room chat event callbacks plus a flat list
// of control command callbacks. UI-driven callers mutate it while the
// receive goroutine reads it, so dispatch works on snapshots taken under
// a read lock.
type listenerRegistry struct {
	mu       sync.RWMutex
	messages map[domain.RoomID][]messageEntry
	commands []commandEntry
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{messages: make(map[domain.RoomID][]messageEntry)}
}

func (r *listenerRegistry) addMessage(room domain.RoomID, fn MessageListener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := newListenerID()
	r.messages[room] = append(r.messages[room], messageEntry{id: id, fn: fn})
	return id
}

// removeMessage drops one listener; the room key disappears with its
// last listener.
func (r *listenerRegistry) removeMessage(room domain.RoomID, id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.messages[room]
	for i, e := range entries {
		if e.id == id {
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(entries) == 0 {
		delete(r.messages, room)
		return
	}
	r.messages[room] = entries
}

func (r *listenerRegistry) clearMessages(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, room)
}

func (r *listenerRegistry) addCommand(fn CommandListener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := newListenerID()
	r.commands = append(r.commands, commandEntry{id: id, fn: fn})
	return id
}

func (r *listenerRegistry) removeCommand(id ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.commands {
		if e.id == id {
			r.commands = append(r.commands[:i], r.commands[i+1:]...)
			return
		}
	}
}

func (r *listenerRegistry) clearCommands() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

// messagesFor snapshots the listeners of one room in registration order.
func (r *listenerRegistry) messagesFor(room domain.RoomID) []MessageListener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.messages[room]
	if len(entries) == 0 {
		return nil
	}
	out := make([]MessageListener, len(entries))
	for i, e := range entries {
		out[i] = e.fn
	}
	return out
}

func (r *listenerRegistry) commandListeners() []CommandListener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.commands) == 0 {
		return nil
	}
	out := make([]CommandListener, len(r.commands))
	for i, e := range r.commands {
		out[i] = e.fn
	}
	return out
}
