package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client connection is closed")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnknownTopic    = errors.New("unknown topic")
	ErrNotSubscribed   = errors.New("not subscribed to topic")
)
