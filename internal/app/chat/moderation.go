package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roombot/internal/app/banlist"
	"roombot/internal/app/user"
	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/randx"
)

const (
	// pacing between the actions of a multi-target ban or kick.
	banPacing  = 1500 * time.Millisecond
	kickPacing = time.Second
	kickSettle = 500 * time.Millisecond
)

// resolveTarget finds a moderation target. It refuses unknown nicks, the client itself and
// users more privileged than the invoker.
func (s *Session) resolveTarget(inv Invocation) (user.User, bool) {
	if inv.Arg == "" {
		inv.fail(s, errs.ErrMissingArgument, "username")
		return user.User{}, false
	}
	client := s.clientSnapshot()
	if inv.Arg == client.Nick {
		inv.fail(s, errs.ErrActionOnSelf)
		return user.User{}, false
	}

	target, ok := s.users.Search(inv.Arg)
	if !ok {
		inv.fail(s, errs.ErrUserNotFound, inv.Arg)
		return user.User{}, false
	}
	if target.ID == client.ID {
		inv.fail(s, errs.ErrActionOnSelf)
		return user.User{}, false
	}
	if target.Level < inv.User.Level {
		inv.fail(s, errs.ErrForbidden)
		return user.User{}, false
	}
	return target, true
}

var levelChangeReplies = map[user.Level]string{
	user.LevelController: "*%s* is now a bot controller",
	user.LevelUser:       "*%s* was removed",
	user.LevelDenied:     "*%s* was muted.",
}

// setLevel assigns a fixed level to the target user.
func setLevel(level user.Level) Handler {
	return func(_ context.Context, s *Session, inv Invocation) {
		target, ok := s.resolveTarget(inv)
		if !ok {
			return
		}
		s.users.Update(target.ID, func(u *user.User) { u.Level = level })
		inv.reply(s, fmt.Sprintf(levelChangeReplies[level], target.Nick))

		if level == user.LevelController {
			s.pm(target.Nick, "You are now a bot controller (Level 4).")
			if url := s.Policy().HelpURL; url != "" {
				s.pm(target.Nick, "Commands "+url)
			}
		}
		s.logger.Info().
			Str("by", inv.User.Nick).
			Str("nick", target.Nick).
			Str("level", level.String()).
			Msg("User level changed.")
	}
}

func cmdUnmute(_ context.Context, s *Session, inv Invocation) {
	target, ok := s.resolveTarget(inv)
	if !ok {
		return
	}
	if target.Level != user.LevelDenied {
		inv.reply(s, fmt.Sprintf("*%s* is not muted.", target.Nick))
		return
	}
	s.users.Update(target.ID, func(u *user.User) { u.Level = user.LevelUser })
	inv.reply(s, fmt.Sprintf("*%s* was unmuted.", target.Nick))
}

func cmdKick(ctx context.Context, s *Session, inv Invocation) {
	s.banCommand(ctx, inv, true)
}

func cmdBan(ctx context.Context, s *Session, inv Invocation) {
	s.banCommand(ctx, inv, false)
}

// banCommand bans one user, or with a leading wildcard every matching user. Kicks are bans
// followed by a forgive.
func (s *Session) banCommand(ctx context.Context, inv Invocation, kick bool) {
	if banlist.IsWildcard(inv.Arg) {
		substr := strings.ReplaceAll(inv.Arg, banlist.WildcardMarker, "")
		if substr == "" {
			inv.fail(s, errs.ErrMissingArgument, "username")
			return
		}
		s.banMatching(ctx, inv, substr, kick)
		return
	}

	target, ok := s.resolveTarget(inv)
	if !ok {
		return
	}
	s.ban(target.Nick, target.ID, "command")
	if kick {
		s.forgive(target.ID, "command")
	}
	s.logger.Info().Str("by", inv.User.Nick).Str("nick", target.Nick).Bool("kick", kick).Msg("User banned.")
}

// banMatching acts on users whose nick contains substr and who are less privileged than the
// invoker, stopping after MaxMatchBans actions. The client and the invoker are never targeted.
func (s *Session) banMatching(ctx context.Context, inv Invocation, substr string, kick bool) {
	client := s.clientSnapshot()
	limit := s.Policy().MaxMatchBans

	acted := 0
	for _, target := range s.users.SearchContaining(substr) {
		if acted >= limit {
			break
		}
		if target.ID == client.ID || target.Nick == client.Nick || target.ID == inv.User.ID {
			continue
		}
		if !target.Level.LessPrivilegedThan(inv.User.Level) {
			continue
		}

		s.ban(target.Nick, target.ID, "command")
		acted++

		if kick {
			if !s.sleep(ctx, randx.Jitter(kickPacing)) {
				break
			}
			s.forgive(target.ID, "command")
			if !s.sleep(ctx, kickSettle) {
				break
			}
		} else if !s.sleep(ctx, randx.Jitter(banPacing)) {
			break
		}
	}

	s.logger.Info().
		Str("by", inv.User.Nick).
		Str("match", substr).
		Int("count", acted).
		Bool("kick", kick).
		Msg("Multi-target ban finished.")
}

var patternLabels = map[banlist.List]string{
	banlist.Nicks:    "username",
	banlist.Strings:  "Ban string",
	banlist.Accounts: "Account",
}

// addPattern adds the argument to a ban list. String and account patterns need a minimum length.
func addPattern(list banlist.List) Handler {
	return func(ctx context.Context, s *Session, inv Invocation) {
		pattern := inv.Arg
		if pattern == "" {
			inv.fail(s, errs.ErrMissingArgument, strings.ToLower(patternLabels[list]))
			return
		}
		if banlist.TooShort(list, pattern) {
			inv.fail(s, errs.ErrPatternTooShort, patternLabels[list], len(pattern))
			return
		}

		if err := s.bans.Add(ctx, list, pattern); err != nil {
			s.listError(inv, list, err)
			return
		}
		inv.reply(s, fmt.Sprintf("*%s* was added to file.", pattern))
	}
}

func removePattern(list banlist.List) Handler {
	return func(ctx context.Context, s *Session, inv Invocation) {
		pattern := inv.Arg
		if pattern == "" {
			inv.fail(s, errs.ErrMissingArgument, strings.ToLower(patternLabels[list]))
			return
		}
		if err := s.bans.Remove(ctx, list, pattern); err != nil {
			s.listError(inv, list, err)
			return
		}
		inv.reply(s, fmt.Sprintf("*%s* was removed.", pattern))
	}
}

// listError reports a ban list failure. Rejected, duplicate and absent entries are answered as is.
func (s *Session) listError(inv Invocation, list banlist.List, err error) {
	if errs.Is(err, errs.ErrPatternExists) || errs.Is(err, errs.ErrPatternMissing) || errs.Is(err, errs.ErrInvalidParams) {
		inv.reply(s, errs.Message(err))
		return
	}
	s.logger.Error().Err(err).Str("list", string(list)).Msg("Ban list update failed")
	inv.fail(s, errs.ErrUnknown)
}
