package automod

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"roombot/internal/app/banlist"
	"roombot/internal/app/user"
	"roombot/internal/configs"
)

type fakeLists map[banlist.List][]string

func (f fakeLists) Entries(l banlist.List) []string { return f[l] }

var (
	modClient   = Client{ID: 1, Nick: "bot", Mod: true}
	plainClient = Client{ID: 1, Nick: "bot"}
)

func guest(id int, nick string) user.User {
	return user.User{ID: id, Nick: nick, Level: user.LevelUser}
}

func TestOnNickWildcardBan(t *testing.T) {
	e := NewEngine("lobby", fakeLists{banlist.Nicks: {"*spam"}})
	policy := configs.DefaultRoomPolicy()

	d := e.OnNick("guest-123", guest(9, "userspammer"), modClient, policy)
	assert.Equal(t, Ban, d.Action)
	assert.Equal(t, "*spam", d.Pattern)
	assert.False(t, d.Forgive)
	assert.Empty(t, d.Greeting)

	d = e.OnNick("guest-123", guest(9, "userspammer"), plainClient, policy)
	assert.Equal(t, Allow, d.Action)
	assert.Empty(t, d.Greeting, "no greeting when the client is not moderator")
}

func TestOnNickOnlyChecksGuestOrigin(t *testing.T) {
	e := NewEngine("lobby", fakeLists{banlist.Nicks: {"*spam"}})

	d := e.OnNick("regular", guest(9, "userspammer"), modClient, configs.DefaultRoomPolicy())
	assert.Equal(t, Allow, d.Action)
	assert.Contains(t, d.Greeting, "userspammer")
}

func TestOnNickRuleOrder(t *testing.T) {
	e := NewEngine("lobby", fakeLists{banlist.Nicks: {"guest-2"}})
	policy := configs.DefaultRoomPolicy()
	policy.AllowGuestNicks = false
	policy.AllowNewusers = false

	d := e.OnNick("guest-1", guest(5, "guest-2"), modClient, policy)
	assert.Equal(t, "guest nick", d.Reason)

	d = e.OnNick("guest-1", guest(5, "newuser77"), modClient, policy)
	assert.Equal(t, "newuser nick", d.Reason)

	policy.AllowGuestNicks = true
	d = e.OnNick("guest-1", guest(5, "guest-2"), modClient, policy)
	assert.Equal(t, "bad nick", d.Reason)
	assert.Equal(t, "*Auto-Banned:* (bad nick)", d.Notice)
}

func TestOnNickForgiveFlag(t *testing.T) {
	e := NewEngine("lobby", fakeLists{banlist.Nicks: {"troll"}})
	policy := configs.DefaultRoomPolicy()
	policy.ForgiveAutoBans = true

	d := e.OnNick("guest-1", guest(5, "troll"), modClient, policy)
	assert.Equal(t, Ban, d.Action)
	assert.True(t, d.Forgive)
}

func TestOnNickGreeting(t *testing.T) {
	e := NewEngine("lobby", fakeLists{})
	u := guest(5, "alice")
	u.Account = "alice_acct"

	d := e.OnNick("guest-1", u, modClient, configs.DefaultRoomPolicy())
	assert.Equal(t, "*Greetings & Welcome to lobby* alice: alice_acct (5)", d.Greeting)

	d = e.OnNick("guest-1", guest(6, "bob"), modClient, configs.DefaultRoomPolicy())
	assert.Equal(t, "*Greetings & Welcome to lobby* - bob", d.Greeting)

	policy := configs.DefaultRoomPolicy()
	policy.Greet = false
	d = e.OnNick("guest-1", guest(6, "bob"), modClient, policy)
	assert.Empty(t, d.Greeting)

	d = e.OnNick("guest-1", guest(modClient.ID, "bot2"), modClient, configs.DefaultRoomPolicy())
	assert.Empty(t, d.Greeting, "own renames are never greeted")
}

func TestOnJoin(t *testing.T) {
	e := NewEngine("lobby", fakeLists{banlist.Accounts: {"badguy"}})
	policy := configs.DefaultRoomPolicy()

	bad := user.User{ID: 3, Nick: "x", Account: "badguy", Level: user.LevelUser}
	d := e.OnJoin(bad, modClient, policy)
	assert.Equal(t, Ban, d.Action)
	assert.Equal(t, "*Auto-Banned:* (bad account)", d.Notice)

	d = e.OnJoin(bad, plainClient, policy)
	assert.Equal(t, Allow, d.Action)
	assert.Equal(t, "badguy", d.Pattern)

	owner := bad
	owner.IsOwner = true
	assert.Equal(t, Allow, e.OnJoin(owner, modClient, policy).Action)

	lurker := guest(4, "guest-9")
	lurker.IsLurker = true
	assert.Equal(t, Allow, e.OnJoin(lurker, modClient, policy).Action)

	policy.AllowLurkers = false
	d = e.OnJoin(lurker, modClient, policy)
	assert.Equal(t, "lurkers not allowed", d.Reason)

	policy.AllowGuests = false
	d = e.OnJoin(guest(8, "guest-8"), modClient, policy)
	assert.Equal(t, "guests not allowed", d.Reason)

	d = e.OnJoin(guest(8, "guest-8"), plainClient, policy)
	assert.Equal(t, Allow, d.Action)
}

func TestOnChat(t *testing.T) {
	e := NewEngine("lobby", fakeLists{banlist.Strings: {"bad", "*spam", "*spa"}})
	policy := configs.DefaultRoomPolicy()
	speaker := guest(5, "talker")

	d := e.OnChat(speaker, "this is bad", modClient, policy)
	assert.Equal(t, Ban, d.Action)

	d = e.OnChat(speaker, "badthing", modClient, policy)
	assert.Equal(t, Allow, d.Action)

	d = e.OnChat(speaker, "spam spam bad", modClient, policy)
	assert.Equal(t, Ban, d.Action)
	assert.Equal(t, "bad", d.Pattern, "one decision even with several matches")

	speaker.Level = user.LevelController
	assert.Equal(t, Allow, e.OnChat(speaker, "bad", modClient, policy).Action)

	speaker.Level = user.LevelDenied
	assert.Equal(t, Ban, e.OnChat(speaker, "bad", modClient, policy).Action)

	assert.Equal(t, Allow, e.OnChat(guest(5, "x"), "bad", plainClient, policy).Action)
}

func TestOnBroadcast(t *testing.T) {
	e := NewEngine("lobby", fakeLists{})
	policy := configs.DefaultRoomPolicy()
	u := guest(5, "cammer")

	d := e.OnBroadcast(u, true, modClient, policy)
	assert.Equal(t, Allow, d.Action)
	assert.Equal(t, "cammer:5 *is waiting in the greenroom.*", d.Notice)

	assert.Equal(t, Allow, e.OnBroadcast(u, false, modClient, policy).Action)

	policy.AllowBroadcasts = false
	assert.Equal(t, CloseBroadcast, e.OnBroadcast(u, false, modClient, policy).Action)
	assert.Equal(t, Allow, e.OnBroadcast(u, false, plainClient, policy).Action)
}
