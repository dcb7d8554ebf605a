package ipc

import (
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/pitrac/pitrac-go/internal/logger"
)

// ErrClosed is returned by Publish/Subscribe after Close has run.
var ErrClosed = errors.New("ipc: bus closed")

// Bus is a publish/subscribe wrapper over a single NATS subject, filtering
// out messages this process published itself (spec.md §4.8's sender-id
// contract). Connection handling mirrors the teacher's NATS transport
// step: bounded reconnect window, disconnect/reconnect/closed handlers
// logged through the shared logger.
type Bus struct {
	conn     *natsgo.Conn
	subject  string
	senderID string
	codec    Codec
	closed   bool
}

// Connect dials the broker and prepares the subject used for both publish
// and subscribe, encoding with JSONCodec; producer and consumer run on
// dedicated goroutines so the FSM thread never blocks on the network. Use
// ConnectWithCodec to select ProtoCodec instead.
func Connect(urls, subject, senderID string) (*Bus, error) {
	return ConnectWithCodec(urls, subject, senderID, JSONCodec{})
}

// ConnectWithCodec is Connect with an explicit wire codec, letting config
// pick JSONCodec (default, human-inspectable) or ProtoCodec (compact
// binary) without touching the pub/sub plumbing.
func ConnectWithCodec(urls, subject, senderID string, codec Codec) (*Bus, error) {
	totalWait := 10 * time.Minute
	reconnectDelay := time.Second

	opts := []natsgo.Option{
		natsgo.Name(senderID),
		natsgo.ReconnectWait(reconnectDelay),
		natsgo.MaxReconnects(int(totalWait / reconnectDelay)),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			logger.Log.Warn().Str("sender", senderID).Err(err).Msg("ipc: disconnected, will attempt reconnects")
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Log.Info().Str("sender", senderID).Str("url", nc.ConnectedUrl()).Msg("ipc: reconnected")
		}),
		natsgo.ClosedHandler(func(nc *natsgo.Conn) {
			logger.Log.Error().Str("sender", senderID).Err(nc.LastError()).Msg("ipc: connection closed")
		}),
	}

	nc, err := natsgo.Connect(urls, opts...)
	if err != nil {
		return nil, fmt.Errorf("ipc: connect: %w", err)
	}

	return &Bus{conn: nc, subject: subject, senderID: senderID, codec: codec}, nil
}

// Publish encodes msg with the bus's codec and publishes it to the bus's
// subject, stamping SenderID so other consumers can filter it out.
func (b *Bus) Publish(msg Message) error {
	if b.closed {
		return ErrClosed
	}
	msg.SenderID = b.senderID

	data, err := b.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("ipc: encode: %w", err)
	}

	return b.conn.Publish(b.subject, data)
}

// Subscribe registers handler to run, on a NATS-managed goroutine, for
// every message on the subject whose sender-id does not match this bus's
// own — implementing the self-echo filter spec.md §4.8 requires.
func (b *Bus) Subscribe(handler func(Message)) error {
	if b.closed {
		return ErrClosed
	}
	_, err := b.conn.Subscribe(b.subject, func(raw *natsgo.Msg) {
		msg, err := b.codec.Decode(raw.Data)
		if err != nil {
			logger.Log.Error().Err(err).Msg("ipc: decode failed, dropping message")
			return
		}
		if msg.SenderID == b.senderID {
			return
		}
		handler(msg)
	})
	if err != nil {
		return fmt.Errorf("ipc: subscribe: %w", err)
	}
	return nil
}

// Close drains outstanding publishes and closes the connection.
func (b *Bus) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("ipc: drain: %w", err)
	}
	return nil
}
