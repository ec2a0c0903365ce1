/*
Package chat runs the bot's room sessions: the sequential event path, the command
dispatcher and the worker pool that takes blocking command work off the event path.

This file defines the Session struct, which owns the roster, the policy and the ban lists of
one room and reacts to the events delivered by its transport.
*/
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roombot/internal/app/automod"
	"roombot/internal/app/banlist"
	"roombot/internal/app/gateway"
	"roombot/internal/app/protocol"
	"roombot/internal/app/storage"
	"roombot/internal/app/user"
	"roombot/internal/configs"
	"roombot/internal/pkg/logx"
)

const (
	// reconnect throttling after a lost connection.
	reconnectInterval = 6 * time.Second
	reconnectMax      = time.Minute

	// RoomTypeDefault is the room type without a privacy page.
	RoomTypeDefault = "default"
)

// SessionConfig holds the collaborators of one room session.
// Lookups defaults to gateway.Disabled. Privacy and Backup may be nil.
type SessionConfig struct {
	Room        string
	Nick        string
	Transport   protocol.Transport
	Bans        *banlist.Store
	Lookups     gateway.Lookups
	Privacy     gateway.Privacy
	Backup      storage.BackupService
	Policy      configs.RoomPolicy
	WorkerLimit int
}

// Option customizes a Session.
type Option func(*Session)

// WithSleep replaces the pacing sleep. fn returns false when ctx ended first.
func WithSleep(fn func(ctx context.Context, d time.Duration) bool) Option {
	return func(s *Session) { s.sleep = fn }
}

// WithClock replaces the session clock.
func WithClock(fn func() time.Time) Option {
	return func(s *Session) { s.now = fn }
}

// clientState is what the session knows about its own presence in the room.
type clientState struct {
	ID           int
	Nick         string
	Mod          bool
	Owner        bool
	Greenroom    bool
	RoomType     string
	Broadcasting bool
}

// Session is one bot participation in a room.
type Session struct {
	room      string
	transport protocol.Transport
	users     *user.Registry
	bans      *banlist.Store
	engine    *automod.Engine
	lookups   gateway.Lookups
	privacy   gateway.Privacy
	backup    storage.BackupService
	pool      *Pool
	public    map[string]Command
	private   map[string]Command

	sleep     func(ctx context.Context, d time.Duration) bool
	now       func() time.Time
	startedAt time.Time

	// mu guards policy, client and settings.
	mu       sync.RWMutex
	policy   configs.RoomPolicy
	client   clientState
	settings *gateway.PrivacySettings

	logger zerolog.Logger
}

// NewSession creates a session. Call Run to start consuming events.
func NewSession(cfg SessionConfig, opts ...Option) *Session {
	logger := logx.Room("session", cfg.Room)

	lookups := cfg.Lookups
	if lookups == nil {
		lookups = gateway.Disabled{}
	}

	s := &Session{
		room:      cfg.Room,
		transport: cfg.Transport,
		users:     user.NewRegistry(),
		bans:      cfg.Bans,
		engine:    automod.NewEngine(cfg.Room, cfg.Bans),
		lookups:   lookups,
		privacy:   cfg.Privacy,
		backup:    cfg.Backup,
		pool:      NewPool(cfg.Room, cfg.WorkerLimit, logger),
		sleep:     sleepContext,
		now:       time.Now,
		policy:    cfg.Policy,
		client:    clientState{Nick: cfg.Nick, RoomType: RoomTypeDefault},
		logger:    logger,
	}
	s.public = publicCommands()
	s.private = privateCommands()
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Room returns the room name.
func (s *Session) Room() string {
	return s.room
}

// Users returns a snapshot of the roster in join order.
func (s *Session) Users() []user.User {
	return s.users.All()
}

// Bans returns the ban list store of the room.
func (s *Session) Bans() *banlist.Store {
	return s.bans
}

// Policy returns a copy of the current room policy.
func (s *Session) Policy() configs.RoomPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

func (s *Session) updatePolicy(fn func(*configs.RoomPolicy)) configs.RoomPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.policy)
	return s.policy
}

func (s *Session) clientSnapshot() clientState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

func (s *Session) clientView() automod.Client {
	c := s.clientSnapshot()
	return automod.Client{ID: c.ID, Nick: c.Nick, Mod: c.Mod, Owner: c.Owner}
}

// Wait blocks until all worker tasks have finished.
func (s *Session) Wait() {
	s.pool.Wait()
}

// Run consumes transport events in arrival order until ctx ends or the transport is shut down.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info().Msg("Session started.")
	defer func() {
		s.pool.Wait()
		s.logger.Info().Msg("Session stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.transport.Done():
			return nil
		case ev := <-s.transport.Events():
			s.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent processes one inbound event on the event path.
func (s *Session) HandleEvent(ctx context.Context, ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.ClientInfoEvent:
		s.onClientInfo(e)
	case protocol.JoinEvent:
		s.onJoin(ctx, e)
	case protocol.JoinsDoneEvent:
		s.onJoinsDone(ctx)
	case protocol.LeaveEvent:
		s.onLeave(e)
	case protocol.BroadcastEvent:
		s.onBroadcast(e)
	case protocol.NickEvent:
		s.onNick(e)
	case protocol.ChatEvent:
		s.onChat(ctx, e)
	case protocol.PrivateEvent:
		s.onPrivate(ctx, e)
	case protocol.DisconnectedEvent:
		s.onDisconnected(ctx, e)
	default:
		s.logger.Debug().Type("event", ev).Msg("Ignoring unhandled event")
	}
}

func (s *Session) onClientInfo(e protocol.ClientInfoEvent) {
	s.mu.Lock()
	s.client.ID = e.ID
	if e.Nick != "" {
		s.client.Nick = e.Nick
	}
	s.client.Mod = e.IsMod || e.IsOwner
	s.client.Owner = e.IsOwner
	s.client.Greenroom = e.Greenroom
	if e.RoomType != "" {
		s.client.RoomType = e.RoomType
	}
	c := s.client
	s.mu.Unlock()

	s.logger.Info().
		Int("client_id", c.ID).
		Str("nick", c.Nick).
		Bool("mod", c.Mod).
		Bool("owner", c.Owner).
		Str("room_type", c.RoomType).
		Msg("Client info received.")
}

func (s *Session) onJoin(ctx context.Context, e protocol.JoinEvent) {
	u, ok := s.users.Add(e.JoinInfo)
	if !ok {
		s.logger.Warn().Int("id", e.ID).Str("nick", e.Nick).Msg("Ignoring malformed join")
		return
	}

	d := s.engine.OnJoin(u, s.clientView(), s.Policy())
	s.apply(d, u, "join")

	if d.Action == automod.Allow {
		ev := s.logger.Info().Str("nick", u.Nick).Int("id", u.ID).Str("level", u.Level.String())
		if u.Account != "" {
			ev = ev.Str("account", u.Account)
		}
		ev.Msg("User joined the room.")
	}

	if u.Account != "" {
		id, account := u.ID, u.Account
		s.pool.TryGo(ctx, "account-info", func(ctx context.Context) {
			s.fetchAccount(ctx, id, account)
		})
	}
}

// fetchAccount fills the roster entry with account metadata. Failures leave the entry as is.
func (s *Session) fetchAccount(ctx context.Context, id int, account string) (user.User, bool) {
	info, err := s.lookups.AccountInfo(ctx, account)
	if err != nil {
		if !errors.Is(err, gateway.ErrNotFound) {
			s.logger.Warn().Err(err).Str("account", account).Msg("Account lookup failed")
		}
		return s.users.SearchByID(id)
	}
	return s.users.Update(id, func(u *user.User) {
		u.ExternalID = info.ExternalID
		u.LastLogin = info.LastActive
	})
}

func (s *Session) onJoinsDone(ctx context.Context) {
	c := s.clientSnapshot()
	s.logger.Info().Int("users", s.users.Len()).Msg("Initial roster received.")

	if c.Mod {
		s.check("banlist", s.transport.RequestBanList())
		if err := s.bans.Load(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Failed to reload ban lists")
		}
	}
	if c.Owner && c.RoomType != RoomTypeDefault && s.privacy != nil {
		s.pool.TryGo(ctx, "privacy-settings", func(ctx context.Context) {
			if _, err := s.loadSettings(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to load privacy settings")
			}
		})
	}
}

func (s *Session) loadSettings(ctx context.Context) (gateway.PrivacySettings, error) {
	settings, err := s.privacy.Settings(ctx)
	if err != nil {
		return gateway.PrivacySettings{}, err
	}
	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	return settings, nil
}

func (s *Session) onLeave(e protocol.LeaveEvent) {
	if u, ok := s.users.Remove(e.ID); ok {
		s.logger.Info().Str("nick", u.Nick).Int("id", u.ID).Msg("User left the room.")
	}
}

func (s *Session) onBroadcast(e protocol.BroadcastEvent) {
	if e.Greenroom {
		u, ok := s.users.Update(e.ID, func(u *user.User) { u.IsWaiting = true })
		if !ok {
			return
		}
		s.apply(s.engine.OnBroadcast(u, true, s.clientView(), s.Policy()), u, "broadcast")
		return
	}

	u, ok := s.users.Update(e.ID, func(u *user.User) { u.IsWaiting = false })
	if !ok {
		u = user.User{ID: e.ID, Nick: e.Nick, Level: user.LevelUser}
	}
	if e.Nick != "" {
		u.Nick = e.Nick
	}

	d := s.engine.OnBroadcast(u, false, s.clientView(), s.Policy())
	s.apply(d, u, "broadcast")
	if d.Action == automod.Allow {
		s.logger.Info().Str("nick", u.Nick).Int("id", u.ID).Msg("User is broadcasting.")
	}
}

func (s *Session) onNick(e protocol.NickEvent) {
	s.mu.Lock()
	if e.ID == s.client.ID {
		s.client.Nick = e.New
	}
	s.mu.Unlock()

	u, ok := s.users.Rename(e.Old, e.New)
	if !ok {
		u, ok = s.users.RenameByID(e.ID, e.New)
	}
	if !ok {
		s.logger.Error().Str("old", e.Old).Str("new", e.New).Int("id", e.ID).Msg("Failed to change nick for user")
		return
	}

	s.apply(s.engine.OnNick(e.Old, u, s.clientView(), s.Policy()), u, "nick")
	s.logger.Info().Str("old", e.Old).Str("new", e.New).Int("id", e.ID).Msg("User changed nick.")
}

// sender resolves the author of a message. Unknown authors get the default level.
func (s *Session) sender(id int, nick string) user.User {
	if u, ok := s.users.SearchByID(id); ok {
		return u
	}
	if u, ok := s.users.Search(nick); ok {
		return u
	}
	return user.User{ID: id, Nick: nick, Level: user.LevelUser}
}

func (s *Session) onChat(ctx context.Context, e protocol.ChatEvent) {
	u := s.sender(e.FromID, e.FromNick)
	policy := s.Policy()

	if strings.HasPrefix(e.Text, policy.Prefix) {
		s.dispatch(ctx, u, e.Text, false)
	} else {
		s.logger.Debug().Str("nick", u.Nick).Str("msg", e.Text).Msg("Chat message")
		s.apply(s.engine.OnChat(u, e.Text, s.clientView(), policy), u, "chat")
	}

	s.users.Update(u.ID, func(u *user.User) { u.LastMessage = e.Text })
}

func (s *Session) onPrivate(ctx context.Context, e protocol.PrivateEvent) {
	u := s.sender(e.FromID, e.FromNick)
	if strings.TrimSpace(e.Text) != "" {
		s.dispatch(ctx, u, e.Text, true)
	}

	policy := s.Policy()
	s.logger.Info().
		Str("nick", u.Nick).
		Str("msg", redact(redactSecrets(e.Text), policy.Key, policy.SuperKey)).
		Msg("Private message received.")
}

func (s *Session) onDisconnected(ctx context.Context, e protocol.DisconnectedEvent) {
	s.logger.Warn().Err(e.Err).Msg("Lost room connection, reconnecting")
	s.resetPresence()

	var delay time.Duration
	for {
		if !s.sleep(ctx, delay) {
			return
		}
		if delay < reconnectMax {
			delay += reconnectInterval
		}

		err := s.transport.Reconnect(ctx)
		if err == nil {
			s.logger.Info().Msg("Reconnected to room.")
			return
		}
		if errors.Is(err, protocol.ErrDisconnected) || ctx.Err() != nil {
			return
		}
		s.logger.Error().Err(err).Dur("retry_in", delay).Msg("Reconnect failed")
	}
}

// resetPresence forgets the roster and the own stream, which the room resends after a connect.
func (s *Session) resetPresence() {
	s.users.Clear()
	s.mu.Lock()
	s.client.Broadcasting = false
	s.mu.Unlock()
}

// apply carries out an automod decision: ban, optional forgive, then the room notices.
func (s *Session) apply(d automod.Decision, u user.User, source string) {
	switch d.Action {
	case automod.Ban:
		s.ban(u.Nick, u.ID, source)
		if d.Forgive {
			s.forgive(u.ID, source)
		}
		s.logger.Info().
			Str("nick", u.Nick).
			Int("id", u.ID).
			Str("reason", d.Reason).
			Str("pattern", d.Pattern).
			Msg("Auto-banned user.")
	case automod.CloseBroadcast:
		s.check("close", s.transport.SendCloseBroadcast(u.Nick))
		moderationActions.WithLabelValues(s.room, "close", source).Inc()
		s.logger.Info().Str("nick", u.Nick).Int("id", u.ID).Msg("Auto closed broadcast.")
	}

	if d.Notice != "" {
		s.botMsg(d.Notice)
	}
	if d.Greeting != "" {
		s.botMsg(d.Greeting)
	}
}

func (s *Session) ban(nick string, id int, source string) {
	s.check("ban", s.transport.SendBan(nick, id))
	moderationActions.WithLabelValues(s.room, "ban", source).Inc()
}

func (s *Session) forgive(id int, source string) {
	s.check("forgive", s.transport.SendForgive(id))
	moderationActions.WithLabelValues(s.room, "forgive", source).Inc()
}

// botMsg posts to the room, as a moderator message when the client is moderator.
func (s *Session) botMsg(text string) {
	if s.clientSnapshot().Mod {
		s.check("mod_message", s.transport.SendModeratorMessage(text))
		return
	}
	s.check("chat", s.transport.SendChat(text))
}

// pm sends a private message.
func (s *Session) pm(nick, text string) {
	s.check("private", s.transport.SendPrivate(nick, text))
}

// check logs and drops a failed send. Sends after a disconnect are expected and only counted.
func (s *Session) check(op string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, protocol.ErrDisconnected):
		sendsDropped.WithLabelValues(s.room, op, "disconnected").Inc()
		s.logger.Debug().Str("op", op).Msg("Send dropped, not connected")
	case errors.Is(err, protocol.ErrSendQueueFull):
		sendsDropped.WithLabelValues(s.room, op, "queue_full").Inc()
		s.logger.Warn().Str("op", op).Msg("Send dropped, queue full")
	default:
		sendsDropped.WithLabelValues(s.room, op, "error").Inc()
		s.logger.Error().Err(err).Str("op", op).Msg("Send failed")
	}
}

// Close disconnects the transport and waits for running workers.
func (s *Session) Close() {
	if err := s.transport.Disconnect(); err != nil {
		s.logger.Warn().Err(err).Msg("Disconnect error")
	}
	s.pool.Wait()
}
