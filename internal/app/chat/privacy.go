package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roombot/internal/app/gateway"
	"roombot/internal/pkg/errs"
)

// passwordNoticeDelay separates the private and the room notice of a password change.
const passwordNoticeDelay = time.Second

// privacyClient returns the privacy page client, answering the invoker when there is none.
func (s *Session) privacyClient(inv Invocation) (gateway.Privacy, bool) {
	if s.privacy == nil {
		inv.reply(s, "*Privacy settings are not available.*")
		return nil, false
	}
	return s.privacy, true
}

func (s *Session) privacyError(inv Invocation, op string, err error) {
	s.logger.Error().Err(err).Str("op", op).Msg("Privacy settings update failed")
	inv.fail(s, errs.ErrUnknown)
}

func cmdMakeMod(ctx context.Context, s *Session, inv Invocation) {
	p, ok := s.privacyClient(inv)
	if !ok {
		return
	}
	if inv.Arg == "" {
		inv.fail(s, errs.ErrMissingArgument, "account name")
		return
	}

	result, err := p.MakeModerator(ctx, inv.Arg)
	if err != nil {
		s.privacyError(inv, "mod", err)
		return
	}
	switch result {
	case gateway.ModInvalid:
		inv.reply(s, "*The account is invalid.*")
	case gateway.ModUnchanged:
		inv.reply(s, fmt.Sprintf("*%s* is already a moderator.", inv.Arg))
	default:
		inv.reply(s, fmt.Sprintf("*%s* was made a room moderator.", inv.Arg))
	}
}

func cmdRemoveMod(ctx context.Context, s *Session, inv Invocation) {
	p, ok := s.privacyClient(inv)
	if !ok {
		return
	}
	if inv.Arg == "" {
		inv.fail(s, errs.ErrMissingArgument, "account name")
		return
	}

	result, err := p.RemoveModerator(ctx, inv.Arg)
	if err != nil {
		s.privacyError(inv, "removemod", err)
		return
	}
	switch result {
	case gateway.ModChanged:
		inv.reply(s, fmt.Sprintf("*%s* is no longer a room moderator.", inv.Arg))
	case gateway.ModInvalid:
		inv.reply(s, "*The account is invalid.*")
	default:
		inv.reply(s, fmt.Sprintf("*%s* is not a room moderator.", inv.Arg))
	}
}

// toggleSetting flips a privacy page setting and reports the new state.
func toggleSetting(ctx context.Context, s *Session, inv Invocation, setting gateway.Toggle, on, off string) {
	p, ok := s.privacyClient(inv)
	if !ok {
		return
	}
	enabled, err := p.Toggle(ctx, setting)
	if err != nil {
		s.privacyError(inv, string(setting), err)
		return
	}
	if enabled {
		inv.reply(s, on)
	} else {
		inv.reply(s, off)
	}
}

func cmdDirectory(ctx context.Context, s *Session, inv Invocation) {
	toggleSetting(ctx, s, inv, gateway.ToggleDirectory,
		"*Room IS shown on the directory.*", "*Room is NOT shown on the directory.*")
}

func cmdPush2Talk(ctx context.Context, s *Session, inv Invocation) {
	toggleSetting(ctx, s, inv, gateway.TogglePush2Talk, "*Push2Talk is enabled.*", "*Push2Talk is disabled.*")
}

func cmdGreenroom(ctx context.Context, s *Session, inv Invocation) {
	toggleSetting(ctx, s, inv, gateway.ToggleGreenroom, "*Green room is enabled.*", "*Green room is disabled.*")
}

func cmdClearRoomBans(ctx context.Context, s *Session, inv Invocation) {
	p, ok := s.privacyClient(inv)
	if !ok {
		return
	}
	if err := p.ClearBans(ctx); err != nil {
		s.privacyError(inv, "clearbans", err)
		return
	}
	inv.reply(s, "*All room bans was cleared.*")
}

func cmdRoomPassword(ctx context.Context, s *Session, inv Invocation) {
	p, ok := s.privacyClient(inv)
	if !ok {
		return
	}

	switch len(inv.Arg) {
	case 0:
		if err := p.SetRoomPassword(ctx, ""); err != nil {
			s.privacyError(inv, "roompassword", err)
			return
		}
		s.botMsg("*The room password was removed.*")
		if s.sleep(ctx, passwordNoticeDelay) {
			inv.reply(s, "The room password was removed.")
		}
	case 1:
		inv.fail(s, errs.ErrPatternTooShort, "Password", 1)
	default:
		if err := p.SetRoomPassword(ctx, inv.Arg); err != nil {
			s.privacyError(inv, "roompassword", err)
			return
		}
		inv.reply(s, "*The room password is now:* "+inv.Arg)
		if s.sleep(ctx, passwordNoticeDelay) {
			s.botMsg("*The room is now password protected.*")
		}
	}
}

func cmdBroadcastPassword(ctx context.Context, s *Session, inv Invocation) {
	p, ok := s.privacyClient(inv)
	if !ok {
		return
	}

	switch len(inv.Arg) {
	case 0:
		if err := p.SetBroadcastPassword(ctx, ""); err != nil {
			s.privacyError(inv, "campassword", err)
			return
		}
		inv.reply(s, "*The broadcast password was removed.*")
	case 1:
		inv.fail(s, errs.ErrPatternTooShort, "Password", 1)
	default:
		if err := p.SetBroadcastPassword(ctx, inv.Arg); err != nil {
			s.privacyError(inv, "campassword", err)
			return
		}
		inv.reply(s, "*The broadcast password is now:* "+inv.Arg)
		if s.sleep(ctx, passwordNoticeDelay) {
			inv.reply(s, "*Broadcast password is enabled.*")
		}
	}
}

func cmdSettings(ctx context.Context, s *Session, inv Invocation) {
	if _, ok := s.privacyClient(inv); !ok {
		return
	}
	settings, err := s.loadSettings(ctx)
	if err != nil {
		s.privacyError(inv, "settings", err)
		return
	}

	inv.reply(s, "*Broadcast Password:* "+settings.BroadcastPassword)
	inv.reply(s, "*Room Password:* "+settings.RoomPassword)
	inv.reply(s, "*Login Type:* "+settings.LoginType)
	inv.reply(s, fmt.Sprintf("*Directory:* %t", settings.ShowOnDirectory))
	inv.reply(s, fmt.Sprintf("*Push2Talk:* %t", settings.Push2Talk))
	inv.reply(s, fmt.Sprintf("*Greenroom:* %t", settings.Greenroom))
}

// listModerators answers "list mods" from the cached settings, loading them on first use.
func (s *Session) listModerators(ctx context.Context, inv Invocation) {
	if !s.clientSnapshot().Owner {
		inv.fail(s, errs.ErrNotOwnerSession)
		return
	}
	if _, ok := s.privacyClient(inv); !ok {
		return
	}

	s.mu.RLock()
	cached := s.settings
	s.mu.RUnlock()

	var mods []string
	if cached != nil {
		mods = cached.Moderators
	} else {
		settings, err := s.loadSettings(ctx)
		if err != nil {
			s.privacyError(inv, "settings", err)
			return
		}
		mods = settings.Moderators
	}

	if len(mods) == 0 {
		inv.reply(s, "*There is currently no moderators for this room.*")
		return
	}
	inv.reply(s, "*Moderators:* "+strings.Join(mods, ", "))
}
