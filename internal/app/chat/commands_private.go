package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"roombot/internal/app/banlist"
	"roombot/internal/app/protocol"
	"roombot/internal/app/storage"
	"roombot/internal/app/user"
	"roombot/internal/configs"
	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/randx"
)

const (
	minKeyLength = 6

	// clearLines is the number of blank moderator messages that push the chat out of view.
	clearLines = 10

	backupLinkTTL = time.Hour
)

// privateCommands is the table of private-message commands.
func privateCommands() map[string]Command {
	return map[string]Command{
		// super admin: level 1 is enough, no owner session needed
		"kill":          {Level: user.LevelSuperAdmin, Handle: cmdKill, Usage: "kill"},
		"reboot":        {Level: user.LevelSuperAdmin, Handle: cmdReboot, Usage: "reboot"},
		"key":           {Level: user.LevelSuperAdmin, Handle: cmdKey, Usage: "key [newkey]"},
		"clearnicks":    {Level: user.LevelSuperAdmin, Handle: clearList(banlist.Nicks), Usage: "clearnicks"},
		"clearwords":    {Level: user.LevelSuperAdmin, Handle: clearList(banlist.Strings), Usage: "clearwords"},
		"clearaccounts": {Level: user.LevelSuperAdmin, Handle: clearList(banlist.Accounts), Usage: "clearaccounts"},
		"backup":        {Level: user.LevelSuperAdmin, Mode: Concurrent, Handle: cmdBackup, Usage: "backup"},

		"mod":       {Level: user.LevelSuperAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdMakeMod, Usage: "mod <account>"},
		"removemod": {Level: user.LevelSuperAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdRemoveMod, Usage: "removemod <account>"},
		"directory": {Level: user.LevelSuperAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdDirectory, Usage: "directory"},
		"p2t":       {Level: user.LevelSuperAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdPush2Talk, Usage: "p2t"},
		"green":     {Level: user.LevelSuperAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdGreenroom, Usage: "green"},
		"clearbans": {Level: user.LevelSuperAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdClearRoomBans, Usage: "clearbans"},

		// admin
		"public":       {Level: user.LevelAdmin, Handle: togglePolicy("*Public Commands Enabled:* %t", func(p *configs.RoomPolicy) *bool { return &p.PublicCommands }), Usage: "public"},
		"roompassword": {Level: user.LevelAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdRoomPassword, Usage: "roompassword [password]"},
		"campassword":  {Level: user.LevelAdmin, Needs: NeedOwner, Mode: Concurrent, Handle: cmdBroadcastPassword, Usage: "campassword [password]"},

		// moderator
		"op":       {Level: user.LevelModerator, Needs: NeedMod, Handle: setLevel(user.LevelController), Usage: "op <user>"},
		"deop":     {Level: user.LevelModerator, Needs: NeedMod, Handle: setLevel(user.LevelUser), Usage: "deop <user>"},
		"mute":     {Level: user.LevelModerator, Needs: NeedMod, Handle: setLevel(user.LevelDenied), Usage: "mute <user>"},
		"unmute":   {Level: user.LevelModerator, Needs: NeedMod, Handle: cmdUnmute, Usage: "unmute <user>"},
		"greeting": {Level: user.LevelModerator, Handle: togglePolicy("*Greet Users:* %t", func(p *configs.RoomPolicy) *bool { return &p.Greet }), Usage: "greeting"},
		"settings": {Level: user.LevelModerator, Needs: NeedOwner, Mode: Concurrent, Handle: cmdSettings, Usage: "settings"},
		"clear":    {Level: user.LevelModerator, Handle: cmdClear, Usage: "clear"},
		"nick":     {Level: user.LevelModerator, Handle: cmdNick, Usage: "nick [newnick]"},
		"topic":    {Level: user.LevelModerator, Needs: NeedMod, Handle: cmdTopic, Usage: "topic [text]"},
		"list":     {Level: user.LevelModerator, Needs: NeedMod, Mode: Concurrent, Handle: cmdList, Usage: "list <nicks|words|accounts|mods>"},
		"uinfo":    {Level: user.LevelModerator, Needs: NeedMod, Mode: Concurrent, Handle: cmdUserInfo, Usage: "uinfo <user>"},

		"up":    {Level: user.LevelModerator, Handle: cmdCamUp, Usage: "up"},
		"down":  {Level: user.LevelModerator, Handle: cmdCamDown, Usage: "down"},
		"nocam": {Level: user.LevelModerator, Handle: togglePolicy("*Allow Broadcasts:* %t", func(p *configs.RoomPolicy) *bool { return &p.AllowBroadcasts }), Usage: "nocam"},
		"close": {Level: user.LevelModerator, Needs: NeedMod, Handle: cmdCloseBroadcast, Usage: "close <user>"},
		"cam":   {Level: user.LevelModerator, Needs: NeedMod, Handle: cmdCamApprove, Usage: "cam [user]"},

		"kick":        {Level: user.LevelModerator, Needs: NeedMod, Mode: Concurrent, Handle: cmdKick, Usage: "kick <user|*match>"},
		"ban":         {Level: user.LevelModerator, Needs: NeedMod, Mode: Concurrent, Handle: cmdBan, Usage: "ban <user|*match>"},
		"badnick":     {Level: user.LevelModerator, Needs: NeedMod, Handle: addPattern(banlist.Nicks), Usage: "badnick <nick>"},
		"removenick":  {Level: user.LevelModerator, Needs: NeedMod, Handle: removePattern(banlist.Nicks), Usage: "removenick <nick>"},
		"badstring":   {Level: user.LevelModerator, Needs: NeedMod, Handle: addPattern(banlist.Strings), Usage: "badstring <text>"},
		"removeword":  {Level: user.LevelModerator, Needs: NeedMod, Handle: removePattern(banlist.Strings), Usage: "removeword <text>"},
		"badaccount":  {Level: user.LevelModerator, Needs: NeedMod, Handle: addPattern(banlist.Accounts), Usage: "badaccount <account>"},
		"goodaccount": {Level: user.LevelModerator, Needs: NeedMod, Handle: removePattern(banlist.Accounts), Usage: "goodaccount <account>"},

		"noguest":   {Level: user.LevelModerator, Handle: togglePolicy("*Allow Guests:* %t", func(p *configs.RoomPolicy) *bool { return &p.AllowGuests }), Usage: "noguest"},
		"lurkers":   {Level: user.LevelModerator, Handle: togglePolicy("*Allow Lurkers:* %t", func(p *configs.RoomPolicy) *bool { return &p.AllowLurkers }), Usage: "lurkers"},
		"guestnick": {Level: user.LevelModerator, Handle: togglePolicy("*Allow Guest Nicks:* %t", func(p *configs.RoomPolicy) *bool { return &p.AllowGuestNicks }), Usage: "guestnick"},
		"newusers":  {Level: user.LevelModerator, Handle: togglePolicy("*Allow Newusers:* %t", func(p *configs.RoomPolicy) *bool { return &p.AllowNewusers }), Usage: "newusers"},

		// everyone
		"opme": {Level: user.LevelUser, Handle: cmdOpMe, Usage: "opme <key>"},
		"pm":   {Level: user.LevelUser, Handle: cmdPMBridge, Usage: "pm <user> <message>"},
	}
}

func cmdKill(_ context.Context, s *Session, inv Invocation) {
	s.logger.Warn().Str("nick", inv.User.Nick).Msg("Kill requested, disconnecting.")
	s.check("disconnect", s.transport.Disconnect())
}

func cmdReboot(ctx context.Context, s *Session, inv Invocation) {
	s.logger.Warn().Str("nick", inv.User.Nick).Msg("Reboot requested, reconnecting.")
	s.resetPresence()

	err := s.transport.Reconnect(ctx)
	if err == nil || errors.Is(err, protocol.ErrDisconnected) {
		s.check("reconnect", err)
		return
	}
	// the old connection is gone, so no disconnect event will follow
	s.onDisconnected(ctx, protocol.DisconnectedEvent{Err: err})
}

// cmdKey shows or replaces the room key. A new key demotes every admin and bot controller.
func cmdKey(_ context.Context, s *Session, inv Invocation) {
	switch {
	case inv.Arg == "":
		key := s.Policy().Key
		if strings.HasPrefix(key, "$2") {
			inv.reply(s, "The current key is stored hashed.")
			return
		}
		inv.reply(s, fmt.Sprintf("The current key is: *%s*", key))
	case len(inv.Arg) < minKeyLength:
		inv.reply(s, fmt.Sprintf("*Key must be at least %d characters long:* %d", minKeyLength, len(inv.Arg)))
	default:
		for _, u := range s.users.All() {
			if u.Level == user.LevelAdmin || u.Level == user.LevelController {
				s.users.Update(u.ID, func(u *user.User) { u.Level = user.LevelUser })
			}
		}
		s.updatePolicy(func(p *configs.RoomPolicy) { p.Key = inv.Arg })
		inv.reply(s, fmt.Sprintf("The key was changed to: *%s*", inv.Arg))
	}
}

func clearList(list banlist.List) Handler {
	return func(ctx context.Context, s *Session, inv Invocation) {
		if err := s.bans.Clear(ctx, list); err != nil {
			s.logger.Error().Err(err).Str("list", string(list)).Msg("Failed to clear ban list")
			inv.fail(s, errs.ErrUnknown)
			return
		}
		inv.reply(s, fmt.Sprintf("*The %s list was cleared.*", list))
	}
}

// cmdBackup uploads the ban lists and replies with a temporary download link.
func cmdBackup(ctx context.Context, s *Session, inv Invocation) {
	if s.backup == nil {
		inv.reply(s, "*Backups are not configured.*")
		return
	}

	snapshot := storage.Snapshot{
		Room:    s.room,
		TakenAt: s.now().UTC(),
		Lists:   make(map[string][]string),
	}
	for list, entries := range s.bans.Snapshot() {
		snapshot.Lists[string(list)] = entries
	}

	key, err := s.backup.Upload(ctx, snapshot)
	if err != nil {
		s.logger.Error().Err(err).Msg("Ban list backup failed")
		inv.fail(s, errs.ErrUnknown)
		return
	}
	link, err := s.backup.PresignDownload(ctx, key, backupLinkTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to presign backup link")
		inv.reply(s, "*Backup saved:* "+key)
		return
	}
	inv.reply(s, "*Backup saved:* "+link)
}

// togglePolicy flips one boolean policy field and reports the new value.
func togglePolicy(format string, field func(*configs.RoomPolicy) *bool) Handler {
	return func(_ context.Context, s *Session, inv Invocation) {
		var value bool
		s.updatePolicy(func(p *configs.RoomPolicy) {
			f := field(p)
			*f = !*f
			value = *f
		})
		inv.reply(s, fmt.Sprintf(format, value))
	}
}

// cmdClear pushes the chat out of view. Without moderator rights a single filler message is sent.
func cmdClear(_ context.Context, s *Session, _ Invocation) {
	if s.clientSnapshot().Mod {
		for range clearLines {
			s.check("mod_message", s.transport.SendModeratorMessage(" "))
		}
		return
	}
	s.check("chat", s.transport.SendChat(strings.Repeat("\u0085", 15)))
}

func cmdNick(_ context.Context, s *Session, inv Invocation) {
	nick := inv.Arg
	if nick == "" {
		generated, err := randx.Nickname(5, 25)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to generate nick")
			return
		}
		nick = generated
	} else if !randx.IsValidNick(nick) {
		inv.fail(s, errs.ErrInvalidParams)
		return
	}

	s.mu.Lock()
	s.client.Nick = nick
	s.mu.Unlock()
	s.check("nick", s.transport.SendNick(nick))
}

func cmdTopic(_ context.Context, s *Session, inv Invocation) {
	s.check("topic", s.transport.SendTopic(inv.Arg))
	if inv.Arg == "" {
		inv.reply(s, "Topic was cleared.")
		return
	}
	inv.reply(s, "The room topic was set to: "+inv.Arg)
}

func cmdCamUp(_ context.Context, s *Session, _ Invocation) {
	s.mu.Lock()
	start := !s.client.Broadcasting
	s.client.Broadcasting = true
	s.mu.Unlock()
	if start {
		s.check("stream_start", s.transport.StartBroadcast())
	}
}

func cmdCamDown(_ context.Context, s *Session, _ Invocation) {
	s.mu.Lock()
	stop := s.client.Broadcasting
	s.client.Broadcasting = false
	s.mu.Unlock()
	if stop {
		s.check("stream_stop", s.transport.StopBroadcast())
	}
}

func cmdCloseBroadcast(_ context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		inv.fail(s, errs.ErrMissingArgument, "username")
		return
	}
	if _, ok := s.users.Search(inv.Arg); !ok {
		inv.fail(s, errs.ErrUserNotFound, inv.Arg)
		return
	}
	s.check("close", s.transport.SendCloseBroadcast(inv.Arg))
	moderationActions.WithLabelValues(s.room, "close", "command").Inc()
}

// cmdCamApprove lets a greenroom user broadcast. Without argument the invoker is approved.
func cmdCamApprove(_ context.Context, s *Session, inv Invocation) {
	if !s.clientSnapshot().Greenroom {
		inv.reply(s, "*The room is not in greenroom mode.*")
		return
	}

	target := inv.User
	if inv.Arg != "" {
		u, ok := s.users.Search(inv.Arg)
		if !ok {
			inv.fail(s, errs.ErrUserNotFound, inv.Arg)
			return
		}
		target = u
	}

	current, ok := s.users.SearchByID(target.ID)
	if !ok || !current.IsWaiting {
		if inv.Arg != "" {
			inv.fail(s, errs.ErrUserNotFound, inv.Arg)
		}
		return
	}
	s.users.Update(current.ID, func(u *user.User) { u.IsWaiting = false })
	s.check("cam_approve", s.transport.SendCamApprove(current.Nick, current.ID))
}

func cmdList(ctx context.Context, s *Session, inv Invocation) {
	name := strings.ToLower(inv.Arg)
	if name == "" {
		inv.fail(s, errs.ErrMissingArgument, "list type")
		return
	}
	if name == "mods" {
		s.listModerators(ctx, inv)
		return
	}

	list, err := banlist.ParseList(name)
	if err != nil {
		inv.reply(s, errs.Message(err))
		return
	}
	n := s.bans.Len(list)
	if n == 0 {
		inv.reply(s, "No items in this list.")
		return
	}
	inv.reply(s, fmt.Sprintf("%d *%s bans in list.*", n, strings.TrimSuffix(string(list), "s")))
}

// cmdUserInfo shows the roster entry of a user, fetching account metadata on first use.
func cmdUserInfo(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		inv.fail(s, errs.ErrMissingArgument, "username")
		return
	}
	u, ok := s.users.Search(inv.Arg)
	if !ok {
		inv.fail(s, errs.ErrUserNotFound, inv.Arg)
		return
	}
	if u.Account != "" && u.ExternalID == "" {
		if fetched, ok := s.fetchAccount(ctx, u.ID, u.Account); ok {
			u = fetched
		}
	}

	inv.reply(s, fmt.Sprintf("*User Level:* %d", u.Level))
	inv.reply(s, "*Online Time:* "+formatDuration(s.now().Sub(u.JoinTime)))
	if u.ExternalID != "" {
		inv.reply(s, "*Account:* "+u.Account)
		inv.reply(s, "*Account ID:* "+u.ExternalID)
		inv.reply(s, "*Last login:* "+u.LastLogin)
	}
	inv.reply(s, "*Last message:* "+u.LastMessage)
}

// cmdOpMe raises the invoker with the super key (owner session) or the key (moderator session).
func cmdOpMe(_ context.Context, s *Session, inv Invocation) {
	policy := s.Policy()
	client := s.clientSnapshot()

	switch {
	case inv.Arg == "":
		inv.fail(s, errs.ErrMissingArgument, "key")
	case policy.MatchesSuperKey(inv.Arg):
		if !client.Owner {
			inv.fail(s, errs.ErrNotOwnerSession)
			return
		}
		s.users.Update(inv.User.ID, func(u *user.User) { u.Level = user.LevelSuperAdmin })
		inv.reply(s, "*You are now super admin.*")
	case policy.MatchesKey(inv.Arg):
		if !client.Mod {
			inv.fail(s, errs.ErrNotModSession)
			return
		}
		s.users.Update(inv.User.ID, func(u *user.User) { u.Level = user.LevelAdmin })
		inv.reply(s, "*You are now administrator (Level 2).*")
		if policy.HelpURL != "" {
			inv.reply(s, "Commands "+policy.HelpURL)
		}
	default:
		inv.reply(s, "Wrong key.")
	}
}

// cmdPMBridge relays a private message to another user, tagged with the sender.
func cmdPMBridge(_ context.Context, s *Session, inv Invocation) {
	switch len(inv.Parts) {
	case 1:
		inv.fail(s, errs.ErrMissingArgument, "username")
		return
	case 2:
		inv.reply(s, "The command is: "+s.Policy().Prefix+"pm username message")
		return
	}

	to := inv.Parts[1]
	target, ok := s.users.Search(to)
	if !ok {
		inv.fail(s, errs.ErrUserNotFound, to)
		return
	}
	if target.ID == s.clientSnapshot().ID {
		inv.fail(s, errs.ErrActionOnSelf)
		return
	}
	s.pm(to, fmt.Sprintf("*<%s>* %s", inv.User.Nick, strings.Join(inv.Parts[2:], " ")))
}
