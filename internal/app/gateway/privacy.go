package gateway

import (
	"context"
	"fmt"
	"net/url"
)

// PrivacySettings is the current state of the room privacy page.
type PrivacySettings struct {
	BroadcastPassword string   `json:"broadcast_pass"`
	RoomPassword      string   `json:"room_pass"`
	LoginType         string   `json:"allow_guest"`
	ShowOnDirectory   bool     `json:"show_on_directory"`
	Push2Talk         bool     `json:"push2talk"`
	Greenroom         bool     `json:"greenroom"`
	Moderators        []string `json:"moderators"`
}

// ModResult is the outcome of a moderator list change.
type ModResult int

const (
	// ModInvalid means the account does not exist.
	ModInvalid ModResult = iota
	// ModUnchanged means the account already had (or lacked) the role.
	ModUnchanged
	ModChanged
)

// Toggle names a boolean privacy setting.
type Toggle string

const (
	ToggleDirectory Toggle = "directory"
	TogglePush2Talk Toggle = "push2talk"
	ToggleGreenroom Toggle = "greenroom"
)

// Privacy reads and changes the privacy settings of the room the client owns.
type Privacy interface {
	Settings(ctx context.Context) (PrivacySettings, error)
	MakeModerator(ctx context.Context, account string) (ModResult, error)
	RemoveModerator(ctx context.Context, account string) (ModResult, error)
	// Toggle flips the setting and returns its new value.
	Toggle(ctx context.Context, setting Toggle) (bool, error)
	ClearBans(ctx context.Context) error
	SetRoomPassword(ctx context.Context, password string) error
	SetBroadcastPassword(ctx context.Context, password string) error
}

// PrivacyClient implements Privacy for one room over the gateway.
type PrivacyClient struct {
	*Client
	room string
}

func NewPrivacyClient(c *Client, room string) *PrivacyClient {
	return &PrivacyClient{Client: c, room: room}
}

func (p *PrivacyClient) path(suffix string) string {
	return "/rooms/" + url.PathEscape(p.room) + "/privacy" + suffix
}

type modResponse struct {
	Valid   bool `json:"valid"`
	Changed bool `json:"changed"`
}

func (r modResponse) result() ModResult {
	switch {
	case !r.Valid:
		return ModInvalid
	case r.Changed:
		return ModChanged
	default:
		return ModUnchanged
	}
}

func (p *PrivacyClient) Settings(ctx context.Context) (PrivacySettings, error) {
	var s PrivacySettings
	err := p.do(ctx, "GET", p.path(""), nil, nil, &s)
	return s, err
}

func (p *PrivacyClient) MakeModerator(ctx context.Context, account string) (ModResult, error) {
	var r modResponse
	if err := p.do(ctx, "POST", p.path("/moderators"), nil, map[string]string{"account": account}, &r); err != nil {
		return ModInvalid, err
	}
	return r.result(), nil
}

func (p *PrivacyClient) RemoveModerator(ctx context.Context, account string) (ModResult, error) {
	var r modResponse
	if err := p.do(ctx, "DELETE", p.path("/moderators/"+url.PathEscape(account)), nil, nil, &r); err != nil {
		return ModInvalid, err
	}
	return r.result(), nil
}

func (p *PrivacyClient) Toggle(ctx context.Context, setting Toggle) (bool, error) {
	var r struct {
		Enabled bool `json:"enabled"`
	}
	if err := p.do(ctx, "POST", p.path("/toggle/"+string(setting)), nil, nil, &r); err != nil {
		return false, fmt.Errorf("toggling %s: %w", setting, err)
	}
	return r.Enabled, nil
}

func (p *PrivacyClient) ClearBans(ctx context.Context) error {
	return p.do(ctx, "POST", p.path("/clear-bans"), nil, nil, nil)
}

func (p *PrivacyClient) SetRoomPassword(ctx context.Context, password string) error {
	return p.do(ctx, "PUT", p.path("/password/room"), nil, map[string]string{"password": password}, nil)
}

func (p *PrivacyClient) SetBroadcastPassword(ctx context.Context, password string) error {
	return p.do(ctx, "PUT", p.path("/password/broadcast"), nil, map[string]string{"password": password}, nil)
}
