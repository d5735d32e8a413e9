package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"chat-relay/domain"
	errs "chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTripEnvelopes(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	codec, err := NewCodec(&buf)
	req.NoError(err)

	sender := domain.Profile{ID: 7, Nickname: "alice", Status: "online"}
	event := domain.NewChatEvent(domain.EventMessage, 3, sender, "hi", time.Now().UTC())
	command := domain.NewSetMembersCommand(3, []domain.MemberID{7, 8})

	// When both payload shapes are framed back to back
	req.NoError(codec.WriteEnvelope(domain.EventEnvelope(event)))
	req.NoError(codec.WriteEnvelope(domain.CommandEnvelope(command)))

	// Then they come back intact and in order
	got, err := codec.ReadEnvelope()
	req.NoError(err)
	req.Equal(domain.PayloadEvent, got.Kind)
	req.Equal(event.Content, got.Event.Content)
	req.Equal(event.Sender, got.Event.Sender)
	req.True(event.At.Equal(got.Event.At))

	got, err = codec.ReadEnvelope()
	req.NoError(err)
	req.Equal(domain.PayloadCommand, got.Kind)
	req.Equal(domain.CommandSetMembers, got.Command.Kind)
	req.Equal([]domain.MemberID{7, 8}, got.Command.Members)
}

func TestCodec_MalformedBodyKeepsStreamInSync(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	codec, err := NewCodec(&buf)
	req.NoError(err)

	// Given a frame whose body is not JSON, followed by a valid one
	garbage := []byte("{not json")
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(garbage)))
	buf.Write(prefix[:])
	buf.Write(garbage)
	req.NoError(codec.WriteEnvelope(domain.EventEnvelope(
		domain.NewSystemEvent(1, "still here", time.Now().UTC()))))

	// Then the garbage is a recoverable violation
	_, err = codec.ReadEnvelope()
	req.ErrorIs(err, errs.ErrMalformedFrame)
	req.True(IsProtocolViolation(err))

	// And the next envelope is still readable
	env, err := codec.ReadEnvelope()
	req.NoError(err)
	req.Equal("still here", env.Event.Content)
}

func TestCodec_UnknownPayloadKind(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	codec, err := NewCodec(&buf)
	req.NoError(err)

	req.NoError(codec.WriteJSON(map[string]string{"kind": "NOISE"}))

	_, err = codec.ReadEnvelope()
	req.ErrorIs(err, errs.ErrUnknownPayload)
	req.True(IsProtocolViolation(err))
}

func TestCodec_RejectsOversizedAndEmptyFrames(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	codec, err := NewCodec(&buf)
	req.NoError(err)

	// A length prefix past the cap is fatal, not an allocation
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], MaxFrameSize+1)
	buf.Write(prefix[:])
	var v any
	err = codec.ReadJSON(&v)
	req.ErrorIs(err, errs.ErrFrameTooLarge)
	req.False(IsProtocolViolation(err))

	// So is a zero-length frame
	buf.Reset()
	binary.BigEndian.PutUint32(prefix[:], 0)
	buf.Write(prefix[:])
	err = codec.ReadJSON(&v)
	req.ErrorIs(err, errs.ErrFrameTooLarge)
}

func TestCodec_WriteEnvelopeValidatesFirst(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	codec, err := NewCodec(&buf)
	req.NoError(err)

	// An inconsistent envelope never reaches the wire
	req.Error(codec.WriteEnvelope(domain.Envelope{Kind: domain.PayloadEvent}))
	req.Zero(buf.Len())
}
