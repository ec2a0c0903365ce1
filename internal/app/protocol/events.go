/*
Package protocol is the boundary to the room protocol bridge. It defines the typed inbound
events, the Transport used to send room actions, and a websocket implementation that speaks
JSON frames to the bridge.
*/
package protocol

import "roombot/internal/app/user"

// Event is one inbound room event. Consumers type-switch on the concrete types below.
type Event interface {
	isEvent()
}

// ClientInfoEvent announces the bot's own identity and privileges in the room.
// It may be sent again when privileges change.
type ClientInfoEvent struct {
	ID        int    `json:"id"`
	Nick      string `json:"nick"`
	IsMod     bool   `json:"mod"`
	IsOwner   bool   `json:"owner"`
	Greenroom bool   `json:"greenroom"`
	RoomType  string `json:"roomType"`
}

// JoinEvent is a user joining the room.
type JoinEvent struct {
	user.JoinInfo
}

// JoinsDoneEvent marks the end of the initial roster burst.
type JoinsDoneEvent struct{}

// LeaveEvent is a user leaving the room.
type LeaveEvent struct {
	ID int `json:"id"`
}

// BroadcastEvent is a user starting to broadcast, or entering the greenroom.
type BroadcastEvent struct {
	ID        int    `json:"id"`
	Nick      string `json:"nick"`
	Greenroom bool   `json:"greenroom"`
}

// NickEvent is a user changing nick.
type NickEvent struct {
	Old string `json:"old"`
	New string `json:"new"`
	ID  int    `json:"id"`
}

// ChatEvent is a room-visible chat message.
type ChatEvent struct {
	FromID   int    `json:"fromId"`
	FromNick string `json:"fromNick"`
	Text     string `json:"text"`
}

// PrivateEvent is a private message to the bot.
type PrivateEvent struct {
	FromID   int    `json:"fromId"`
	FromNick string `json:"fromNick"`
	Text     string `json:"text"`
}

// DisconnectedEvent reports that the connection dropped without a Disconnect call.
type DisconnectedEvent struct {
	Err error `json:"-"`
}

func (ClientInfoEvent) isEvent()   {}
func (JoinEvent) isEvent()         {}
func (JoinsDoneEvent) isEvent()    {}
func (LeaveEvent) isEvent()        {}
func (BroadcastEvent) isEvent()    {}
func (NickEvent) isEvent()         {}
func (ChatEvent) isEvent()         {}
func (PrivateEvent) isEvent()      {}
func (DisconnectedEvent) isEvent() {}
