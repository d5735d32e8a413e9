// Package wire implements the relay's framing: every payload is a
// 4-byte big-endian length prefix followed by a JSON body. Frames are
// stateless and self-contained, so a partially understood payload never
// desynchronizes the stream.
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

// MaxFrameSize caps a single payload. Anything larger is a protocol
// violation, not an allocation request.
const MaxFrameSize = 1 << 20

// Codec frames JSON payloads over one connection. It is not safe for
// concurrent use; callers serialize writes themselves. Reads and writes
// block without deadlines, a stalled peer is only detected through a
// transport-level I/O error.
type Codec struct {
	w *bufio.Writer
	r *bufio.Reader
}

// NewCodec attaches a codec to conn. The writer is constructed and
// flushed before the reader, mirroring the handshake ordering on both
// sides of the protocol.
func NewCodec(conn io.ReadWriter) (*Codec, error) {
	w := bufio.NewWriter(conn)
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("settle writer: %w", err)
	}
	return &Codec{w: w, r: bufio.NewReader(conn)}, nil
}

// WriteJSON frames and sends one payload, flushing before returning.
func (c *Codec) WriteJSON(v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", errs.ErrFrameTooLarge, len(body))
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err = c.w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err = c.w.Write(body); err != nil {
		return err
	}
	return c.w.Flush()
}

// ReadJSON blocks for one frame and unmarshals it into v.
// A body that fails to unmarshal is reported as ErrMalformedFrame; the
// frame is fully consumed first, so the stream stays usable.
func (c *Codec) ReadJSON(v any) error {
	var prefix [4]byte
	if _, err := io.ReadFull(c.r, prefix[:]); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size == 0 || size > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", errs.ErrFrameTooLarge, size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrMalformedFrame, err)
	}
	return nil
}

// WriteEnvelope validates and sends one envelope.
func (c *Codec) WriteEnvelope(env domain.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	return c.WriteJSON(env)
}

// ReadEnvelope blocks for the next envelope. Callers should check
// IsProtocolViolation on the returned error to decide between skipping
// the payload and tearing the connection down.
func (c *Codec) ReadEnvelope() (domain.Envelope, error) {
	var env domain.Envelope
	if err := c.ReadJSON(&env); err != nil {
		return domain.Envelope{}, err
	}
	if err := env.Validate(); err != nil {
		return domain.Envelope{}, err
	}
	return env, nil
}
