package mq

import (
	"context"
	"errors"
	"sync"
)

const memoryChannelBuffer = 256

// ErrBackendClosed is returned when publishing to or subscribing on a
// closed memory backend.
var ErrBackendClosed = errors.New("mq backend is closed")

// MemoryBackend is an in-process broker for single-binary deployments and
// tests. Messages published before a subscriber attaches are buffered, so
// insertion events are not lost during startup.
type MemoryBackend struct {
	mu     sync.Mutex
	chans  map[string]chan Message
	done   chan struct{}
	closed bool
}

// NewMemoryBackend constructs an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		chans: make(map[string]chan Message),
		done:  make(chan struct{}),
	}
}

func (b *MemoryBackend) channel(name string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBackendClosed
	}
	ch, ok := b.chans[name]
	if !ok {
		ch = make(chan Message, memoryChannelBuffer)
		b.chans[name] = ch
	}
	return ch, nil
}

// Publish delivers a message to the named channel. It blocks if the
// channel buffer is full, preserving delivery order under backpressure;
// closing the backend releases blocked publishers with ErrBackendClosed.
func (b *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	ch, err := b.channel(channel)
	if err != nil {
		return "", err
	}

	msg := Message{
		ID:         newMessageID(),
		Data:       data,
		Attributes: attrs,
	}
	select {
	case ch <- msg:
		return msg.ID, nil
	case <-b.done:
		return "", ErrBackendClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Subscribe consumes messages from the named channel until the context is
// cancelled or the backend is closed. Handler errors are not retried; the
// message is dropped.
func (b *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	ch, err := b.channel(channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return ErrBackendClosed
		case msg := <-ch:
			_ = handler(ctx, msg)
		}
	}
}

// Close shuts the backend down. The message channels themselves are never
// closed: publishers may still hold a reference, and sending on a closed
// channel would panic. Blocked publishers and subscribers are released
// through the done channel instead.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}
