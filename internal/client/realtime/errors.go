package realtime

import "errors"

var (
	// ErrChannelDisconnected means no connection is up right now. Room
	// membership is kept and replayed once the channel reconnects.
	ErrChannelDisconnected = errors.New("realtime channel disconnected")

	// ErrChannelClosed means Close was called; the channel will not
	// reconnect.
	ErrChannelClosed = errors.New("realtime channel closed")
)
