package wire

import (
	"net"
	"testing"

	"chat-relay/domain"
	errs "chat-relay/errors"

	"github.com/stretchr/testify/require"
)

// pipeCodecs wires both halves of the exchange over an in-memory duplex
// connection.
func pipeCodecs(t *testing.T) (*Codec, *Codec) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
	})
	clientCodec, err := NewCodec(clientConn)
	require.NoError(t, err)
	serverCodec, err := NewCodec(serverConn)
	require.NoError(t, err)
	return clientCodec, serverCodec
}

func TestHandshake_AcceptsIntegerIdentity(t *testing.T) {
	req := require.New(t)
	clientCodec, serverCodec := pipeCodecs(t)

	type verdict struct {
		member domain.MemberID
		err    error
	}
	done := make(chan verdict, 1)
	go func() {
		member, err := ServerHello(serverCodec)
		done <- verdict{member, err}
	}()

	// When the client presents a plain integer identity
	req.NoError(ClientHello(clientCodec, domain.MemberID(7)))

	// Then the server authenticates that member
	got := <-done
	req.NoError(got.err)
	req.Equal(domain.MemberID(7), got.member)
}

func TestHandshake_RejectsNonIntegerIdentity(t *testing.T) {
	cases := []struct {
		name    string
		payload any
	}{
		{"string", "alice"},
		{"float", 7.5},
		{"object", map[string]int{"id": 7}},
		{"null", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			clientCodec, serverCodec := pipeCodecs(t)

			errc := make(chan error, 1)
			go func() {
				_, err := ServerHello(serverCodec)
				errc <- err
			}()

			// When the identity frame is not a bare integer
			req.NoError(clientCodec.WriteJSON(tc.payload))

			// Then the client reads a negative verdict
			var accepted bool
			req.NoError(clientCodec.ReadJSON(&accepted))
			req.False(accepted)

			// And the server reports a bad identity
			req.ErrorIs(<-errc, errs.ErrBadIdentity)
		})
	}
}

func TestHandshake_ClientSurfacesRejection(t *testing.T) {
	req := require.New(t)
	clientCodec, serverCodec := pipeCodecs(t)

	go func() {
		var raw any
		_ = serverCodec.ReadJSON(&raw)
		_ = serverCodec.WriteJSON(false)
	}()

	// When the server turns the identity down
	err := ClientHello(clientCodec, domain.MemberID(7))

	req.ErrorIs(err, errs.ErrRejected)
}

func TestIsProtocolViolation(t *testing.T) {
	req := require.New(t)

	req.True(IsProtocolViolation(errs.ErrMalformedFrame))
	req.True(IsProtocolViolation(errs.ErrUnknownPayload))
	req.False(IsProtocolViolation(errs.ErrFrameTooLarge))
	req.False(IsProtocolViolation(net.ErrClosed))
	req.False(IsProtocolViolation(nil))
}
