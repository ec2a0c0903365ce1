/*
Package chat runs the bot's room sessions.

This file defines the Manager struct, which tracks one Session per room, runs them
concurrently and shuts them down together.
*/
package chat

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/logx"
)

// Manager struct is responsible for coordinating all managed room sessions.
type Manager struct {
	// sessions stores every Session, keyed by room name.
	sessions map[string]*Session

	// mu protects concurrent access to the sessions map.
	mu sync.RWMutex

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager constructs and returns a new Manager instance.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logx.Component("manager"),
	}
}

// AddRoom creates the session of a room. A room can be managed only once.
func (m *Manager) AddRoom(cfg SessionConfig, opts ...Option) (*Session, *errs.CustomError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[cfg.Room]; ok {
		m.logger.Warn().Str("room", cfg.Room).Msg("Attempted to add a room twice.")
		return nil, errs.NewError(errs.ErrRoomExists, cfg.Room)
	}

	s := NewSession(cfg, opts...)
	m.sessions[cfg.Room] = s

	m.logger.Info().Str("room", cfg.Room).Int("worker_limit", cfg.WorkerLimit).Msg("Room session added.")
	return s, nil
}

// Session retrieves the session of a room.
func (m *Manager) Session(room string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[room]
	return s, ok
}

// Rooms returns the managed room names, sorted.
func (m *Manager) Rooms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]string, 0, len(m.sessions))
	for room := range m.sessions {
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms
}

// Run runs every session until ctx ends or each one has stopped. A stopped session does not
// stop the others.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			err := s.Run(ctx)
			if err != nil {
				m.logger.Error().Err(err).Str("room", s.Room()).Msg("Room session failed.")
			}
			return err
		})
	}
	return g.Wait()
}

// Shutdown disconnects every session and waits for their workers.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down room sessions...")

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}

	m.logger.Info().Msg("Manager shutdown complete.")
}
