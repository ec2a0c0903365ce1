/*
Package automod evaluates room events against the ban lists and the room policy.

Every entry point is a pure function of the event, the current lists, the policy and the
client's own privileges. The returned Decision is carried out by the room session.
*/
package automod

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"roombot/internal/app/banlist"
	"roombot/internal/app/user"
	"roombot/internal/configs"
	"roombot/internal/pkg/logx"
)

// Action is the moderation action a decision asks for.
type Action int

const (
	Allow Action = iota
	Ban
	CloseBroadcast
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Ban:
		return "ban"
	case CloseBroadcast:
		return "close"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Decision is the outcome of evaluating one event.
type Decision struct {
	Action Action

	// Forgive asks for a forgive right after the ban.
	Forgive bool

	// Reason is a short machine-friendly cause, used in logs and metrics.
	Reason string

	// Pattern is the ban list entry that matched, if any.
	Pattern string

	// Notice is a bot message to post in the room, empty for none.
	Notice string

	// Greeting is a welcome message, only set when Action is Allow.
	Greeting string
}

// Client is the identity and privileges of the bot's own session.
type Client struct {
	ID    int
	Nick  string
	Mod   bool
	Owner bool
}

// Lists is the read side of the ban list store.
type Lists interface {
	Entries(list banlist.List) []string
}

// Engine evaluates events for one room.
type Engine struct {
	room  string
	lists Lists
	log   zerolog.Logger
}

// NewEngine creates the engine of room, matching against lists.
func NewEngine(room string, lists Lists) *Engine {
	return &Engine{
		room:  room,
		lists: lists,
		log:   logx.Room("automod", room),
	}
}

func (e *Engine) ban(event, reason, pattern, notice string, policy configs.RoomPolicy) Decision {
	d := Decision{
		Action:  Ban,
		Forgive: policy.ForgiveAutoBans,
		Reason:  reason,
		Pattern: pattern,
		Notice:  notice,
	}
	e.record(event, d)
	return d
}

func (e *Engine) record(event string, d Decision) {
	decisionsTotal.WithLabelValues(e.room, event, d.Action.String()).Inc()
}

// OnJoin evaluates a user who just joined. Room owners and moderators are never banned.
func (e *Engine) OnJoin(u user.User, client Client, policy configs.RoomPolicy) Decision {
	if u.ID == client.ID {
		return Decision{Action: Allow, Reason: "self"}
	}

	if !u.IsGuest() {
		if u.IsOwner || u.IsMod {
			d := Decision{Action: Allow, Reason: "privileged"}
			e.record("join", d)
			return d
		}
		if p, ok := banlist.MatchAny(e.lists.Entries(banlist.Accounts), u.Account); ok {
			if !client.Mod {
				ignoredMatches.WithLabelValues(e.room, string(banlist.Accounts)).Inc()
				e.log.Info().Str("nick", u.Nick).Str("account", u.Account).Str("pattern", p).
					Msg("Account ban matched but client is not moderator")
				d := Decision{Action: Allow, Reason: "bad account ignored", Pattern: p}
				e.record("join", d)
				return d
			}
			return e.ban("join", "bad account", p, "*Auto-Banned:* (bad account)", policy)
		}
		d := Decision{Action: Allow, Reason: "account"}
		e.record("join", d)
		return d
	}

	if client.Mod {
		if u.IsLurker && !policy.AllowLurkers {
			return e.ban("join", "lurkers not allowed", "", "*Auto-Banned:* (lurkers not allowed)", policy)
		}
		if !policy.AllowGuests {
			return e.ban("join", "guests not allowed", "", "*Auto-Banned:* (guests not allowed)", policy)
		}
	}

	d := Decision{Action: Allow, Reason: "joined"}
	e.record("join", d)
	return d
}

// OnNick evaluates a rename. u carries the new nick. Only renames away from a guest nick are
// checked against the nick rules; other renames may produce a greeting.
func (e *Engine) OnNick(oldNick string, u user.User, client Client, policy configs.RoomPolicy) Decision {
	if u.ID == client.ID {
		return Decision{Action: Allow, Reason: "self"}
	}

	if client.Mod && strings.HasPrefix(oldNick, policy.GuestPrefix) {
		if d, banned := e.checkNick(u.Nick, policy); banned {
			return d
		}
	}

	d := Decision{Action: Allow, Reason: "nick"}
	if client.Mod && policy.Greet {
		d.Greeting = e.greeting(u)
	}
	e.record("nick", d)
	return d
}

func (e *Engine) checkNick(nick string, policy configs.RoomPolicy) (Decision, bool) {
	if strings.HasPrefix(nick, policy.GuestPrefix) && !policy.AllowGuestNicks {
		return e.ban("nick", "guest nick", "", "*Auto-Banned:* (guest nick not allowed)", policy), true
	}
	if strings.HasPrefix(nick, policy.NewuserPrefix) && !policy.AllowNewusers {
		return e.ban("nick", "newuser nick", "", "*Auto-Banned:* (newuser nick not allowed)", policy), true
	}
	if p, ok := banlist.MatchAny(e.lists.Entries(banlist.Nicks), nick); ok {
		notice := "*Auto-Banned:* (bad nick)"
		if banlist.IsWildcard(p) {
			notice = "*Auto-Banned:* (*bad nick)"
		}
		return e.ban("nick", "bad nick", p, notice, policy), true
	}
	return Decision{}, false
}

func (e *Engine) greeting(u user.User) string {
	if u.Account != "" {
		return fmt.Sprintf("*Greetings & Welcome to %s* %s: %s (%d)", e.room, u.Nick, u.Account, u.ID)
	}
	return fmt.Sprintf("*Greetings & Welcome to %s* - %s", e.room, u.Nick)
}

// OnChat evaluates a non-command chat message. Only users below bot controller trust are checked.
// Several matches still yield a single ban.
func (e *Engine) OnChat(u user.User, msg string, client Client, policy configs.RoomPolicy) Decision {
	if !client.Mod || u.ID == client.ID || !u.Level.LessPrivilegedThan(user.LevelController) {
		return Decision{Action: Allow, Reason: "unchecked"}
	}
	if p, ok := banlist.MatchMessage(e.lists.Entries(banlist.Strings), msg); ok {
		return e.ban("chat", "bad string", p, "", policy)
	}
	d := Decision{Action: Allow, Reason: "chat"}
	e.record("chat", d)
	return d
}

// OnBroadcast evaluates a user starting to broadcast. Greenroom broadcasts only produce a notice.
func (e *Engine) OnBroadcast(u user.User, greenroom bool, client Client, policy configs.RoomPolicy) Decision {
	if greenroom {
		d := Decision{
			Action: Allow,
			Reason: "greenroom",
			Notice: fmt.Sprintf("%s:%d *is waiting in the greenroom.*", u.Nick, u.ID),
		}
		e.record("broadcast", d)
		return d
	}
	if u.ID != client.ID && client.Mod && !policy.AllowBroadcasts {
		d := Decision{Action: CloseBroadcast, Reason: "broadcasts not allowed"}
		e.record("broadcast", d)
		return d
	}
	d := Decision{Action: Allow, Reason: "broadcast"}
	e.record("broadcast", d)
	return d
}
