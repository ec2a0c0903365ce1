package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombot/internal/app/banlist"
	"roombot/internal/configs"
	"roombot/internal/pkg/errs"
)

func roomConfig(room string, ft *fakeTransport) SessionConfig {
	return SessionConfig{
		Room:      room,
		Transport: ft,
		Bans:      banlist.NewStore(room, banlist.NewMemoryBackend()),
		Policy:    configs.DefaultRoomPolicy(),
	}
}

func TestManagerAddRoom(t *testing.T) {
	m := NewManager()

	s, cerr := m.AddRoom(roomConfig("lobby", newFakeTransport()))
	require.Nil(t, cerr)
	assert.Equal(t, "lobby", s.Room())

	_, cerr = m.AddRoom(roomConfig("lobby", newFakeTransport()))
	require.NotNil(t, cerr)
	assert.Equal(t, errs.ErrRoomExists, cerr.Code)
	assert.Equal(t, "Room lobby is already managed.", cerr.Message)

	_, cerr = m.AddRoom(roomConfig("attic", newFakeTransport()))
	require.Nil(t, cerr)
	assert.Equal(t, []string{"attic", "lobby"}, m.Rooms())

	got, ok := m.Session("attic")
	require.True(t, ok)
	assert.Equal(t, "attic", got.Room())

	_, ok = m.Session("cellar")
	assert.False(t, ok)
}

func TestManagerRunAndShutdown(t *testing.T) {
	m := NewManager()
	a, b := newFakeTransport(), newFakeTransport()
	_, cerr := m.AddRoom(roomConfig("a", a))
	require.Nil(t, cerr)
	_, cerr = m.AddRoom(roomConfig("b", b))
	require.Nil(t, cerr)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	m.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.Empty(t, m.Rooms())

	select {
	case <-a.Done():
	default:
		t.Fatal("room a not disconnected")
	}
}
