package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"roombot/internal/app/gateway"
	"roombot/internal/app/user"
	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/randx"
)

const (
	urbanChunkSize = 85
	urbanMaxChunks = 3
)

var eightBallAnswers = []string{
	"It is certain.", "It is decidedly so.", "Without a doubt.", "Yes, definitely.",
	"You may rely on it.", "As I see it, yes.", "Most likely.", "Outlook good.", "Yes.",
	"Signs point to yes.", "Reply hazy, try again.", "Ask again later.",
	"Better not tell you now.", "Cannot predict now.", "Concentrate and ask again.",
	"Don't count on it.", "My reply is no.", "My sources say no.", "Outlook not so good.",
	"Very doubtful.",
}

// publicCommands is the table of prefixed chat commands.
func publicCommands() map[string]Command {
	return map[string]Command{
		"pmme":       {Level: user.LevelUser, AlwaysOn: true, Handle: cmdPMMe, Usage: "pmme"},
		"fullscreen": {Level: user.LevelUser, AlwaysOn: true, Handle: cmdFullscreen, Usage: "fullscreen"},

		"help":   {Level: user.LevelUser, Handle: cmdHelp, Usage: "help"},
		"uptime": {Level: user.LevelUser, Handle: cmdUptime, Usage: "uptime"},

		"spy":     {Level: user.LevelUser, Needs: NeedMod, Mode: Concurrent, Handle: cmdSpy, Usage: "spy <room>"},
		"spyuser": {Level: user.LevelUser, Needs: NeedMod, Mode: Concurrent, Handle: cmdSpyUser, Usage: "spyuser <account>"},
		"room":    {Level: user.LevelUser, Needs: NeedMod, Mode: Concurrent, Handle: cmdRoomInfo, Usage: "room <room>"},
		"urban":   {Level: user.LevelUser, Needs: NeedMod, Mode: Concurrent, Handle: cmdUrban, Usage: "urban <term>"},

		"ip":        {Level: user.LevelUser, Mode: Concurrent, Handle: cmdWhois, Usage: "ip <host>"},
		"time":      {Level: user.LevelUser, Mode: Concurrent, Handle: cmdTime, Usage: "time <place>"},
		"translate": {Level: user.LevelUser, Mode: Concurrent, Handle: cmdTranslate, Usage: "translate <text>"},
		"advice":    {Level: user.LevelUser, Mode: Concurrent, Handle: cmdAdvice, Usage: "advice"},
		"chuck":     {Level: user.LevelUser, Mode: Concurrent, Handle: cmdChuck, Usage: "chuck"},

		"8ball": {Level: user.LevelUser, Handle: cmd8Ball, Usage: "8ball <question>"},
		"roll":  {Level: user.LevelUser, Handle: cmdRoll, Usage: "roll"},
		"flip":  {Level: user.LevelUser, Handle: cmdFlip, Usage: "flip"},
	}
}

func cmdPMMe(_ context.Context, s *Session, inv Invocation) {
	inv.reply(s, fmt.Sprintf("How can i help you *%s*?", inv.User.Nick))
}

func cmdFullscreen(_ context.Context, s *Session, _ Invocation) {
	s.botMsg(roomURL(s.Policy().FullscreenURL, s.room))
}

// cmdHelp links the help page, or lists the public commands when none is configured.
func cmdHelp(_ context.Context, s *Session, inv Invocation) {
	policy := s.Policy()
	if policy.HelpURL != "" {
		inv.reply(s, "*Commands:* "+policy.HelpURL)
		return
	}

	names := make([]string, 0, len(s.public))
	for _, cmd := range s.public {
		names = append(names, policy.Prefix+cmd.Usage)
	}
	slices.Sort(names)
	inv.reply(s, "*Commands:* "+strings.Join(names, ", "))
}

func cmdUptime(_ context.Context, s *Session, _ Invocation) {
	s.botMsg("*Uptime:* " + formatDuration(s.now().Sub(s.startedAt)))
}

func cmdSpy(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		inv.fail(s, errs.ErrMissingArgument, "room name")
		return
	}

	info, err := s.lookups.SpyInfo(ctx, inv.Arg)
	if err != nil {
		s.lookupError("spy", inv.Arg, err)
		inv.reply(s, "Failed to retrieve information.")
		return
	}
	if info.Error != "" {
		inv.reply(s, info.Error)
		return
	}

	s.botMsg(fmt.Sprintf("*Mods:* %d, *Broadcasters:* %d, *Users:* %d",
		info.ModCount, info.BroadcasterCount, info.TotalCount))
	if user.HasLevel(inv.User.Level, user.LevelModerator) && len(info.Users) > 0 {
		inv.reply(s, "*"+strings.Join(info.Users, ", ")+"*")
	}
}

func cmdSpyUser(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		inv.reply(s, "Missing username to search for.")
		return
	}

	info, err := s.lookups.AccountInfo(ctx, inv.Arg)
	if err != nil {
		s.lookupError("spyuser", inv.Arg, err)
		inv.fail(s, errs.ErrLookupFailed, inv.Arg)
		return
	}

	s.botMsg("*Account:* *" + inv.Arg + "*")
	s.botMsg("*Website:* " + info.Website)
	s.botMsg("*Bio:* " + info.Biography)
	s.botMsg("*Location:* " + info.Location)
	s.botMsg("*Last login:* " + info.LastActive)
	s.botMsg("*Room ID:* " + info.ExternalID)
}

func cmdRoomInfo(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		inv.reply(s, "Missing room to search for.")
		return
	}

	info, err := s.lookups.RoomInfo(ctx, inv.Arg)
	if err != nil {
		s.lookupError("room", inv.Arg, err)
		inv.fail(s, errs.ErrLookupFailed, inv.Arg)
		return
	}
	s.botMsg("*Room ID:* " + info.ExternalID)
}

func cmdUrban(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		s.botMsg("Please specify something to look up.")
		return
	}

	definition, err := s.lookups.Urban(ctx, inv.Arg)
	if err != nil || definition == "" {
		s.lookupError("urban", inv.Arg, err)
		s.botMsg("Could not find a definition for: " + inv.Arg)
		return
	}

	chunks := chunkString(definition, urbanChunkSize)
	for _, chunk := range chunks[:min(len(chunks), urbanMaxChunks)] {
		s.botMsg(chunk)
	}
}

func cmdWhois(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		s.botMsg("Please provide an IP address.")
		return
	}

	whois, err := s.lookups.Whois(ctx, inv.Arg)
	if err != nil || whois == "" {
		s.lookupError("ip", inv.Arg, err)
		s.botMsg("No info found for: " + inv.Arg)
		return
	}
	s.botMsg(whois)
}

func cmdTime(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		s.botMsg("Please enter a location to fetch the time.")
		return
	}

	t, err := s.lookups.TimeIn(ctx, inv.Arg)
	if err != nil || t == "" {
		s.lookupError("time", inv.Arg, err)
		s.botMsg(fmt.Sprintf("We could not fetch the time in \"%s\".", inv.Arg))
		return
	}
	s.botMsg(fmt.Sprintf("The time in *%s* is: *%s*", inv.Arg, t))
}

func cmdTranslate(ctx context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		s.botMsg("Please enter a query to be translated to English, Example: translate jeg er fantastisk")
		return
	}

	translated, err := s.lookups.Translate(ctx, inv.Arg)
	if err != nil || translated == "" {
		s.lookupError("translate", inv.Arg, err)
		s.botMsg("Could not translate: " + inv.Arg)
		return
	}
	s.botMsg("In English: *" + translated + "*")
}

func cmdAdvice(ctx context.Context, s *Session, _ Invocation) {
	if advice, err := s.lookups.Advice(ctx); err == nil && advice != "" {
		s.botMsg(advice)
	} else {
		s.lookupError("advice", "", err)
	}
}

func cmdChuck(ctx context.Context, s *Session, _ Invocation) {
	if joke, err := s.lookups.ChuckNorris(ctx); err == nil && joke != "" {
		s.botMsg(joke)
	} else {
		s.lookupError("chuck", "", err)
	}
}

func cmd8Ball(_ context.Context, s *Session, inv Invocation) {
	if inv.Arg == "" {
		s.botMsg("Question.")
		return
	}
	s.botMsg("*8Ball* " + randx.Pick(eightBallAnswers))
}

func cmdRoll(_ context.Context, s *Session, _ Invocation) {
	s.botMsg(fmt.Sprintf("*The dice rolled:* %d", randx.Intn(6)+1))
}

func cmdFlip(_ context.Context, s *Session, _ Invocation) {
	s.botMsg("*The coin was:* " + randx.Pick([]string{"heads", "tails"}))
}

// lookupError logs a failed lookup. Not-found results are expected and logged at debug.
func (s *Session) lookupError(kind, query string, err error) {
	if err == nil || errors.Is(err, gateway.ErrNotFound) {
		s.logger.Debug().Str("lookup", kind).Str("query", query).Msg("Lookup returned nothing")
		return
	}
	s.logger.Warn().Err(err).Str("lookup", kind).Str("query", query).Msg("Lookup failed")
}
