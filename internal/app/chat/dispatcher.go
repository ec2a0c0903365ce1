package chat

import (
	"context"
	"strings"

	"roombot/internal/app/user"
	"roombot/internal/configs"
	"roombot/internal/pkg/errs"
)

// Mode tells the dispatcher where a command runs.
type Mode int

const (
	// Inline commands run on the event path.
	Inline Mode = iota
	// Concurrent commands are submitted to the worker pool.
	Concurrent
)

// Requirement is a condition on the client's own session, checked after the level.
type Requirement int

const (
	NoRequirement Requirement = iota
	NeedMod
	NeedOwner
)

// Handler executes one command invocation.
type Handler func(ctx context.Context, s *Session, inv Invocation)

// Command is one entry of a command table.
type Command struct {
	Level user.Level
	Needs Requirement

	// AlwaysOn commands stay reachable when public commands are disabled.
	AlwaysOn bool

	Mode   Mode
	Usage  string
	Handle Handler
}

// Invocation is a parsed command message.
type Invocation struct {
	User    user.User
	Name    string
	Arg     string
	Parts   []string
	Private bool
}

// parse splits a message into command name and argument. Public messages must carry prefix.
func parse(text, prefix string, private bool) (Invocation, bool) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return Invocation{}, false
	}

	name := strings.ToLower(parts[0])
	if !private {
		if !strings.HasPrefix(name, strings.ToLower(prefix)) {
			return Invocation{}, false
		}
		name = strings.TrimPrefix(name, strings.ToLower(prefix))
	}
	if name == "" {
		return Invocation{}, false
	}

	return Invocation{
		Name:    name,
		Arg:     strings.Join(parts[1:], " "),
		Parts:   parts,
		Private: private,
	}, true
}

// authorize checks the invoker level, the public-commands flag and the client requirement.
func authorize(cmd Command, inv Invocation, policy configs.RoomPolicy, client clientState) *errs.CustomError {
	level := inv.User.Level
	if !user.HasLevel(level, cmd.Level) {
		return errs.NewError(errs.ErrForbidden)
	}
	if !inv.Private && !cmd.AlwaysOn && !policy.PublicCommands && level >= user.LevelUser {
		return errs.NewError(errs.ErrForbidden)
	}

	switch cmd.Needs {
	case NeedOwner:
		if !client.Owner {
			return errs.NewError(errs.ErrNotOwnerSession)
		}
	case NeedMod:
		if !client.Mod {
			return errs.NewError(errs.ErrNotModSession)
		}
	}
	return nil
}

// dispatch runs the command in text, if any. Public refusals are silent; private ones are answered.
func (s *Session) dispatch(ctx context.Context, u user.User, text string, private bool) {
	policy := s.Policy()
	inv, ok := parse(text, policy.Prefix, private)
	if !ok {
		return
	}
	inv.User = u

	surface, table := "public", s.public
	if private {
		surface, table = "private", s.private
	}

	cmd, ok := table[inv.Name]
	if !ok {
		return
	}

	if err := authorize(cmd, inv, policy, s.clientSnapshot()); err != nil {
		commandsTotal.WithLabelValues(s.room, surface, inv.Name, "denied").Inc()
		s.logger.Debug().
			Str("nick", u.Nick).
			Str("command", inv.Name).
			Int("level", int(u.Level)).
			Int("code", err.Code).
			Msg("Command refused")
		if private {
			s.pm(u.Nick, err.Message)
		}
		return
	}

	commandsTotal.WithLabelValues(s.room, surface, inv.Name, "accepted").Inc()
	s.logger.Info().Str("nick", u.Nick).Str("command", inv.Name).Str("surface", surface).Msg("Command accepted.")

	switch cmd.Mode {
	case Concurrent:
		s.pool.TryGo(ctx, inv.Name, func(ctx context.Context) {
			cmd.Handle(ctx, s, inv)
		})
	default:
		cmd.Handle(ctx, s, inv)
	}
}

// reply answers the invoker privately.
func (inv Invocation) reply(s *Session, text string) {
	s.pm(inv.User.Nick, text)
}

// fail answers the invoker with the message of a coded error.
func (inv Invocation) fail(s *Session, code int, details ...any) {
	s.pm(inv.User.Nick, errs.NewError(code, details...).Message)
}
