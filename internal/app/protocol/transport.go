package protocol

import (
	"context"
	"errors"
)

// ErrDisconnected is returned by sends issued after the client disconnected.
var ErrDisconnected = errors.New("protocol: disconnected")

// ErrSendQueueFull is returned when the outbound queue cannot take another frame.
var ErrSendQueueFull = errors.New("protocol: send queue full")

// Transport is the set of room actions available to a session.
type Transport interface {
	// Events delivers inbound events in arrival order.
	Events() <-chan Event

	// Done is closed after Disconnect.
	Done() <-chan struct{}

	SendChat(text string) error
	SendPrivate(nick, text string) error
	SendModeratorMessage(text string) error
	SendTopic(topic string) error
	SendNick(nick string) error

	SendBan(nick string, id int) error
	SendForgive(id int) error
	SendCloseBroadcast(nick string) error
	SendCamApprove(nick string, id int) error
	RequestBanList() error

	StartBroadcast() error
	StopBroadcast() error

	Disconnect() error
	Reconnect(ctx context.Context) error
}
