// Package client owns the single outbound relay connection of a local
// process: handshake, inbound dispatch to registered listeners, and a
// synchronous send API with explicit failure signaling.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"time"

	"chat-relay/domain"
	errs "chat-relay/errors"
	"chat-relay/wire"

	"github.com/gabriel-vasile/mimetype"
)

// Client is a constructed object, not a process-wide singleton; whoever
// owns the session lifecycle constructs and tears it down.
//
// All sends happen on the calling goroutine. There is no outbound queue
// and no deadlines; reconnection policy belongs to the caller (see
// ConnectWithRetry).
type Client struct {
	log  *slog.Logger
	addr string

	mu        sync.Mutex // guards conn, codec, connected, profile
	conn      net.Conn
	codec     *wire.Codec
	connected bool
	profile   domain.Profile

	wmu sync.Mutex // serializes writes on the shared codec

	listeners *listenerRegistry
}

func New(log *slog.Logger, addr string) *Client {
	return &Client{log: log, addr: addr, listeners: newListenerRegistry()}
}

// Connect establishes the connection and authenticates with the given
// profile's identity. A no-op when already live. On success exactly one
// receive goroutine is started. Connect does not retry.
func (c *Client) Connect(profile domain.Profile) error {
	c.mu.Lock()
	if c.connected && c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.profile = profile
	c.connected = false
	if c.conn != nil { // stale socket from a previous life
		_ = c.conn.Close()
		c.conn = nil
		c.codec = nil
	}
	c.mu.Unlock()

	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	codec, err := wire.NewCodec(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err = wire.ClientHello(codec, profile.ID); err != nil {
		// On a rejection the connection is closed immediately,
		// no further reads.
		_ = conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.codec = codec
	c.connected = true
	c.mu.Unlock()

	c.log.Info("Connected to relay", "address", c.addr, "member_id", int(profile.ID))
	go c.receive(codec)
	return nil
}

// Disconnect marks the client not-live and closes the connection, which
// also unblocks the receive goroutine. Idempotent: safe from user
// action, failure detection and shutdown paths alike.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.codec = nil
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasConnected {
		c.log.Info("Disconnected from relay", "address", c.addr)
	}
}

// IsConnected reconciles the connected flag against the connection
// handle; a flag left true after the socket died is corrected as a side
// effect.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.connected && c.conn != nil
	if !live && c.connected {
		c.log.Warn("Connection flag out of sync, correcting")
		c.connected = false
	}
	return live
}

// Profile returns the profile used for the current (or last) Connect.
func (c *Client) Profile() domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// Send writes one chat event on the calling goroutine. An I/O failure
// disconnects and is returned to the caller.
func (c *Client) Send(event domain.ChatEvent) error {
	return c.write(domain.EventEnvelope(event))
}

// SendCommand writes one control command on the calling goroutine.
func (c *Client) SendCommand(cmd domain.ControlCommand) error {
	return c.write(domain.CommandEnvelope(cmd))
}

// SendMessage builds a MESSAGE event from the connected profile and
// sends it. Persisting through the directory is the caller's step,
// taken before or independently of transmission.
func (c *Client) SendMessage(room domain.RoomID, content string) error {
	return c.Send(domain.NewChatEvent(domain.EventMessage, room, c.Profile(), content, time.Now().UTC()))
}

// SendTyping signals that the local member is typing in a room.
func (c *Client) SendTyping(room domain.RoomID) error {
	return c.Send(domain.NewChatEvent(domain.EventTyping, room, c.Profile(), "", time.Now().UTC()))
}

// SendFile announces a file to a room. The content carries the base
// name and the detected media type; the transfer itself is out of band.
func (c *Client) SendFile(room domain.RoomID, path string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect media type of %s: %w", path, err)
	}
	content := fmt.Sprintf("%s (%s)", filepath.Base(path), mtype.String())
	return c.Send(domain.NewChatEvent(domain.EventFile, room, c.Profile(), content, time.Now().UTC()))
}

// JoinRoom asks the relay to add this member to a room. The JOIN_ROOM_OK
// acknowledgement arrives through the command listeners.
func (c *Client) JoinRoom(room domain.RoomID) error {
	return c.SendCommand(domain.NewRoomCommand(domain.CommandJoinRoom, room, c.Profile().ID))
}

// LeaveRoom asks the relay to remove this member and drops every message
// listener registered for that room.
func (c *Client) LeaveRoom(room domain.RoomID) error {
	if err := c.SendCommand(domain.NewRoomCommand(domain.CommandLeaveRoom, room, c.Profile().ID)); err != nil {
		return err
	}
	c.listeners.clearMessages(room)
	return nil
}

// UpdateRoomMembers pushes the authoritative member list of a room so
// the relay's cache matches the directory.
func (c *Client) UpdateRoomMembers(room domain.RoomID, members []domain.MemberID) error {
	return c.SendCommand(domain.NewSetMembersCommand(room, members))
}

func (c *Client) write(env domain.Envelope) error {
	c.mu.Lock()
	codec := c.codec
	live := c.connected && codec != nil
	c.mu.Unlock()
	if !live {
		return errs.ErrNotConnected
	}

	c.wmu.Lock()
	err := codec.WriteEnvelope(env)
	c.wmu.Unlock()
	if err != nil {
		c.Disconnect()
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// receive is the single inbound loop: one blocking read at a time,
// dispatching chat events to the listeners of their room and control
// commands to every command listener. Unknown or malformed payloads are
// logged and skipped; an I/O failure ends the loop and disconnects.
func (c *Client) receive(codec *wire.Codec) {
	for {
		env, err := codec.ReadEnvelope()
		if err != nil {
			if wire.IsProtocolViolation(err) {
				c.log.Warn("Skipping unreadable payload", "error", err)
				continue
			}
			if c.IsConnected() && !errors.Is(err, net.ErrClosed) {
				c.log.Warn("Receive loop ended", "error", err)
			}
			break
		}
		switch env.Kind {
		case domain.PayloadEvent:
			for _, fn := range c.listeners.messagesFor(env.Event.Room) {
				fn(*env.Event)
			}
		case domain.PayloadCommand:
			for _, fn := range c.listeners.commandListeners() {
				fn(*env.Command)
			}
		}
	}
	c.Disconnect()
}

// AddMessageListener registers a callback for chat events of one room
// and returns the handle used to remove it.
func (c *Client) AddMessageListener(room domain.RoomID, fn MessageListener) ListenerID {
	return c.listeners.addMessage(room, fn)
}

func (c *Client) RemoveMessageListener(room domain.RoomID, id ListenerID) {
	c.listeners.removeMessage(room, id)
}

// ClearMessageListeners drops every message listener of one room.
func (c *Client) ClearMessageListeners(room domain.RoomID) {
	c.listeners.clearMessages(room)
}

// AddCommandListener registers a callback invoked for every inbound
// control command.
func (c *Client) AddCommandListener(fn CommandListener) ListenerID {
	return c.listeners.addCommand(fn)
}

func (c *Client) RemoveCommandListener(id ListenerID) {
	c.listeners.removeCommand(id)
}

func (c *Client) ClearCommandListeners() {
	c.listeners.clearCommands()
}
