package relay

import (
	"net"
	"sync"

	"chat-relay/domain"
	errs "chat-relay/errors"
	"chat-relay/wire"
)

// Session is one authenticated connection. Owned exclusively by the
// server: created after a successful handshake, destroyed on I/O
// failure, protocol violation at handshake time, or Stop.
type Session struct {
	member domain.MemberID
	conn   net.Conn
	codec  *wire.Codec

	mu     sync.Mutex // serializes writes and guards closed
	closed bool
}

func newSession(member domain.MemberID, conn net.Conn, codec *wire.Codec) *Session {
	return &Session{member: member, conn: conn, codec: codec}
}

func (s *Session) Member() domain.MemberID { return s.member }

// Send writes one envelope on the caller's goroutine. There is no
// outbound queue; concurrent broadcasts serialize on the session lock.
func (s *Session) Send(env domain.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.ErrNotConnected
	}
	return s.codec.WriteEnvelope(env)
}

// receive blocks for the next inbound envelope. Only the session's
// handler goroutine calls this.
func (s *Session) receive() (domain.Envelope, error) {
	return s.codec.ReadEnvelope()
}

// Close is idempotent. Closing the connection is also the only way to
// unblock the handler's pending read.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.conn.Close()
}
