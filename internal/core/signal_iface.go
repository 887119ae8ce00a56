package core

import "errors"

// ErrBackpressure is returned by TrySend when the outbound queue is full.
var ErrBackpressure = errors.New("backpressure")

// ErrConnectionClosed is returned by TrySend after Close.
var ErrConnectionClosed = errors.New("connection closed")

// Frame is one encoded outbound event.
type Frame []byte

// SignalConnection is the router-facing side of one client transport.
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: queuing toward slow clients is the adapter's job.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
