package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

// ClientHello performs the client side of the opening exchange: write
// the member identity, block for the server verdict. A negative verdict
// yields ErrRejected and the caller must close without further reads.
func ClientHello(c *Codec, id domain.MemberID) error {
	if err := c.WriteJSON(int(id)); err != nil {
		return fmt.Errorf("send identity: %w", err)
	}
	var accepted bool
	if err := c.ReadJSON(&accepted); err != nil {
		return fmt.Errorf("read verdict: %w", err)
	}
	if !accepted {
		return errs.ErrRejected
	}
	return nil
}

// ServerHello performs the server side: the first frame must be a bare
// integer identity. Anything else gets an immediate negative verdict and
// ErrBadIdentity; there are no retries and no partial session.
func ServerHello(c *Codec) (domain.MemberID, error) {
	var raw json.RawMessage
	if err := c.ReadJSON(&raw); err != nil {
		if errors.Is(err, errs.ErrMalformedFrame) {
			_ = c.WriteJSON(false)
			return 0, fmt.Errorf("%w: %v", errs.ErrBadIdentity, err)
		}
		return 0, err
	}
	id, err := parseIdentity(raw)
	if err != nil {
		_ = c.WriteJSON(false)
		return 0, err
	}
	if err = c.WriteJSON(true); err != nil {
		return 0, fmt.Errorf("send verdict: %w", err)
	}
	return id, nil
}

// parseIdentity accepts only a JSON integer. Strings, floats, objects
// and null all fail the handshake.
func parseIdentity(raw json.RawMessage) (domain.MemberID, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrBadIdentity, err)
	}
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errs.ErrBadIdentity, n.String())
	}
	return domain.MemberID(id), nil
}

// IsProtocolViolation reports whether err is a recoverable payload
// problem: the frame was fully consumed and the stream is still in sync,
// so the receive loop may log and continue. I/O failures are fatal and
// return false.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, errs.ErrMalformedFrame) || errors.Is(err, errs.ErrUnknownPayload)
}
