/*
Package user contains the room roster: participant identity, permission levels and the
concurrency-safe registry shared by the event path and command workers.
*/
package user

import "time"

// User is one room participant as seen by the client.
type User struct {
	// ID is the room-session id assigned by the protocol. Stable while the user stays in the room.
	ID int `json:"id"`

	// Nick is the current display name. Not guaranteed unique.
	Nick string `json:"nick"`

	// Account is the registered account name, empty for guests.
	Account string `json:"account,omitempty"`

	// Level is the command permission level, 1 (highest) to 6 (denied).
	Level Level `json:"level"`

	IsOwner bool `json:"isOwner"`
	IsMod   bool `json:"isMod"`

	// IsLurker marks a join without camera or chat rights.
	IsLurker bool `json:"isLurker"`

	// IsWaiting is true while the user waits in the greenroom.
	IsWaiting bool `json:"isWaiting"`

	LastMessage string    `json:"lastMessage,omitempty"`
	JoinTime    time.Time `json:"joinTime"`

	// ExternalID and LastLogin are filled lazily from the first account lookup.
	ExternalID string `json:"externalId,omitempty"`
	LastLogin  string `json:"lastLogin,omitempty"`
}

// IsGuest reports whether the user joined without a registered account.
func (u User) IsGuest() bool {
	return u.Account == ""
}

// JoinInfo is the join metadata delivered by the protocol.
type JoinInfo struct {
	ID      int    `json:"id"`
	Nick    string `json:"nick"`
	Account string `json:"account,omitempty"`
	Owner   bool   `json:"owner"`
	Mod     bool   `json:"mod"`
	Lurker  bool   `json:"lurker"`
}

// Valid reports whether the join metadata can produce a roster entry.
func (j JoinInfo) Valid() bool {
	return j.ID > 0 && j.Nick != ""
}

// initialLevel derives the starting permission level from room roles.
func (j JoinInfo) initialLevel() Level {
	switch {
	case j.Account != "" && j.Owner:
		return LevelSuperAdmin
	case j.Account != "" && j.Mod:
		return LevelModerator
	default:
		return LevelUser
	}
}
