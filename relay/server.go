package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/wire"
)

// Server accepts connections, authenticates them, and fans chat events
// and control commands out to the right set of live sessions. State is
// memory-only; nothing survives a restart.
type Server struct {
	log       *slog.Logger
	addr      string
	directory contract.Directory

	sessions *SessionRegistry
	rooms    *RoomTable

	mu      sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{} // every accepted connection, pre-handshake included
	stopped bool
	wg      sync.WaitGroup
}

func NewServer(log *slog.Logger, addr string, directory contract.Directory) *Server {
	return &Server{
		log:       log,
		addr:      addr,
		directory: directory,
		sessions:  NewSessionRegistry(),
		rooms:     NewRoomTable(),
		conns:     make(map[net.Conn]struct{}),
	}
}

// Listen binds the relay port. Safe to call before Run so callers can
// learn the bound address (tests bind ":0").
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("server stopped")
	}
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.ln = ln
	s.log.Info("Relay listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, empty before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Run executes the accept loop until Stop or context cancellation. Each
// accepted connection gets its own handler goroutine. Run implements
// contract.Worker so the daemon can supervise it.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.stopping() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.track(conn)
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop closes the listener and every live session, then clears both
// tables. Safe to call once; subsequent calls are no-ops.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	ln := s.ln
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	// Closing the connections is the only way to unblock handlers stuck
	// in a read, handshake reads included.
	for _, conn := range conns {
		_ = conn.Close()
	}
	for _, sess := range s.sessions.Drain() {
		sess.Close()
	}
	s.rooms.Clear()
	s.wg.Wait()
	s.log.Info("Relay stopped")
}

// SessionCount reports how many members currently hold a live session.
func (s *Server) SessionCount() int { return s.sessions.Len() }

// RoomCount reports how many rooms have a non-empty member set.
func (s *Server) RoomCount() int { return s.rooms.Len() }

// handle authenticates one accepted connection and, on success, runs its
// receive loop. A failed handshake closes the connection immediately
// with no partial session.
func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	codec, err := wire.NewCodec(conn)
	if err != nil {
		s.log.Warn("Handshake stream setup failed", "remote", conn.RemoteAddr().String(), "error", err)
		_ = conn.Close()
		return
	}
	member, err := wire.ServerHello(codec)
	if err != nil {
		s.log.Warn("Authentication failed", "remote", conn.RemoteAddr().String(), "error", err)
		_ = conn.Close()
		return
	}

	sess := newSession(member, conn, codec)
	s.sessions.Put(sess) // replaces any previous session for this member
	s.log.Info("Member connected", "member_id", int(member), "remote", conn.RemoteAddr().String())

	s.serve(sess)
}

// serve reads one envelope at a time for the life of the session.
// Protocol violations are logged and skipped; a handling fault answers
// ERROR and keeps the loop; only an I/O failure ends it.
func (s *Server) serve(sess *Session) {
	for {
		env, err := sess.receive()
		if err != nil {
			if wire.IsProtocolViolation(err) {
				s.log.Warn("Skipping unreadable payload", "member_id", int(sess.Member()), "error", err)
				continue
			}
			if !s.stopping() {
				s.log.Info("Member disconnected", "member_id", int(sess.Member()), "error", err)
			}
			break
		}
		switch env.Kind {
		case domain.PayloadEvent:
			s.broadcast(*env.Event)
		case domain.PayloadCommand:
			s.handleCommand(sess, *env.Command)
		}
	}
	sess.Close()
	s.sessions.Remove(sess.Member(), sess)
}

// handleCommand dispatches one control command. Faults are localized: an
// ERROR command echoing room and member goes back to the originator and
// the connection stays up.
func (s *Server) handleCommand(sess *Session, cmd domain.ControlCommand) {
	var err error
	switch cmd.Kind {
	case domain.CommandJoinRoom:
		if err = s.joinRoom(cmd.Room, sess.Member()); err == nil {
			s.reply(sess, domain.NewRoomCommand(domain.CommandJoinRoomOK, cmd.Room, sess.Member()))
		}
	case domain.CommandLeaveRoom:
		if err = s.leaveRoom(cmd.Room, sess.Member()); err == nil {
			s.reply(sess, domain.NewRoomCommand(domain.CommandLeaveRoomOK, cmd.Room, sess.Member()))
		}
	case domain.CommandSetMembers:
		s.rooms.Replace(cmd.Room, cmd.Members)
	default:
		// REFRESH and acknowledgement kinds have no server-side meaning.
		s.log.Debug("Ignoring control command", "kind", string(cmd.Kind), "member_id", int(sess.Member()))
	}
	if err != nil {
		s.log.Error("Command handling failed",
			"kind", string(cmd.Kind), "room_id", int(cmd.Room), "member_id", int(sess.Member()), "error", err)
		s.reply(sess, domain.NewRoomCommand(domain.CommandError, cmd.Room, sess.Member()))
	}
}

// joinRoom adds the member and announces it to the room, sender
// included. The membership mutation stands even if the announcement
// cannot be built.
func (s *Server) joinRoom(room domain.RoomID, member domain.MemberID) error {
	s.rooms.Join(room, member)
	name, err := s.directory.ResolveDisplayName(member)
	if err != nil {
		return fmt.Errorf("resolve display name of %d: %w", member, err)
	}
	s.broadcast(domain.NewSystemEvent(room, fmt.Sprintf("%s joined", name), time.Now().UTC()))
	return nil
}

// leaveRoom removes the member. The last member leaving deletes the room
// entry and nothing is announced; otherwise the remaining members get a
// system notice.
func (s *Server) leaveRoom(room domain.RoomID, member domain.MemberID) error {
	remaining, existed := s.rooms.Leave(room, member)
	if !existed || remaining == 0 {
		return nil
	}
	name, err := s.directory.ResolveDisplayName(member)
	if err != nil {
		return fmt.Errorf("resolve display name of %d: %w", member, err)
	}
	s.broadcast(domain.NewSystemEvent(room, fmt.Sprintf("%s left", name), time.Now().UTC()))
	return nil
}

// reply answers the originating session directly, never broadcast.
// A failed reply is logged but does not end the session; the next read
// will surface a real I/O failure if the connection is gone.
func (s *Server) reply(sess *Session, cmd domain.ControlCommand) {
	if err := sess.Send(domain.CommandEnvelope(cmd)); err != nil {
		s.log.Warn("Command reply failed", "member_id", int(sess.Member()), "error", err)
	}
}

// broadcast delivers one event to every reachable member of its room.
// Delivery is best-effort and per-recipient independent: offline members
// are skipped silently, and one failing recipient neither blocks the
// rest nor surfaces to the sender. Sends are sequential, so all live
// recipients observe broadcasts in the server's processing order.
func (s *Server) broadcast(event domain.ChatEvent) {
	env := domain.EventEnvelope(event)
	for _, member := range s.rooms.Members(event.Room) {
		sess, ok := s.sessions.Get(member)
		if !ok {
			continue
		}
		if err := sess.Send(env); err != nil {
			s.log.Warn("Dropping unreachable session", "member_id", int(member), "error", err)
			sess.Close()
			s.sessions.Remove(member, sess)
		}
	}
}
