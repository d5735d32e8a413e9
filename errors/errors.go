package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Handshake failures are terminal for the connection, never retried by the core.
	ErrBadIdentity = fmt.Errorf("first payload is not an integer identity")
	ErrRejected    = fmt.Errorf("server rejected authentication")

	// Protocol violations are logged and the receive loop keeps going.
	ErrMalformedFrame = fmt.Errorf("malformed frame")
	ErrUnknownPayload = fmt.Errorf("unknown payload kind")
	ErrFrameTooLarge  = fmt.Errorf("frame exceeds size limit")

	ErrNotConnected  = fmt.Errorf("not connected")
	ErrMemberUnknown = fmt.Errorf("member unknown")
)
