package protocol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombot/internal/app/user"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Event
	}{
		{"join", `{"type":"join","payload":{"id":4,"nick":"guest-1","lurker":true}}`,
			JoinEvent{JoinInfo: user.JoinInfo{ID: 4, Nick: "guest-1", Lurker: true}}},
		{"joins done", `{"type":"joins_done"}`, JoinsDoneEvent{}},
		{"nick", `{"type":"nick","payload":{"old":"a","new":"b","id":2}}`, NickEvent{Old: "a", New: "b", ID: 2}},
		{"chat", `{"type":"chat","payload":{"fromId":3,"fromNick":"c","text":"hi"}}`,
			ChatEvent{FromID: 3, FromNick: "c", Text: "hi"}},
		{"private", `{"type":"private","payload":{"fromId":3,"fromNick":"c","text":"opme k"}}`,
			PrivateEvent{FromID: 3, FromNick: "c", Text: "opme k"}},
		{"broadcast", `{"type":"broadcast","payload":{"id":3,"nick":"c","greenroom":true}}`,
			BroadcastEvent{ID: 3, Nick: "c", Greenroom: true}},
		{"leave", `{"type":"leave","payload":{"id":9}}`, LeaveEvent{ID: 9}},
		{"client info", `{"type":"client_info","payload":{"id":1,"nick":"bot","mod":true,"roomType":"default"}}`,
			ClientInfoEvent{ID: 1, Nick: "bot", IsMod: true, RoomType: "default"}},
		{"unknown", `{"type":"typing","payload":{}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := decodeFrame([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	_, err := decodeFrame([]byte(`not json`))
	assert.Error(t, err)

	_, err = decodeFrame([]byte(`{"type":"join"}`))
	assert.Error(t, err)

	_, err = decodeFrame([]byte(`{"type":"join","payload":{"id":"x"}}`))
	assert.Error(t, err)
}

func TestEncodeFrame(t *testing.T) {
	data, err := encodeFrame(FrameBan, targetPayload{Nick: "troll", ID: 7})
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, FrameBan, f.Type)
	assert.NotEmpty(t, f.ID)
	assert.JSONEq(t, `{"nick":"troll","id":7}`, string(f.Payload))
}

// bridge is a minimal room bridge: it records frames and pushes scripted frames.
func newBridge(t *testing.T, push []string) (*httptest.Server, <-chan Frame) {
	t.Helper()
	received := make(chan Frame, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, p := range push {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f Frame
			if json.Unmarshal(data, &f) == nil {
				received <- f
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func nextFrame(t *testing.T, ch <-chan Frame) Frame {
	t.Helper()
	select {
	case f := <-ch:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return Frame{}
}

func TestWSTransportRoundTrip(t *testing.T) {
	srv, received := newBridge(t, []string{
		`{"type":"join","payload":{"id":5,"nick":"alice"}}`,
	})

	tr := NewWSTransport(WSConfig{
		URL:   "ws" + strings.TrimPrefix(srv.URL, "http"),
		Login: LoginPayload{Room: "lobby", Nick: "bot"},
	})
	require.NoError(t, tr.Connect(context.Background()))

	login := nextFrame(t, received)
	assert.Equal(t, FrameLogin, login.Type)

	select {
	case ev := <-tr.Events():
		join, ok := ev.(JoinEvent)
		require.True(t, ok)
		assert.Equal(t, "alice", join.Nick)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	require.NoError(t, tr.SendBan("alice", 5))
	ban := nextFrame(t, received)
	assert.Equal(t, FrameBan, ban.Type)
	assert.JSONEq(t, `{"nick":"alice","id":5}`, string(ban.Payload))

	require.NoError(t, tr.Disconnect())
	assert.ErrorIs(t, tr.SendChat("late"), ErrDisconnected)
	assert.ErrorIs(t, tr.Reconnect(context.Background()), ErrDisconnected)

	select {
	case <-tr.Done():
	default:
		t.Fatal("Done not closed after Disconnect")
	}
}

func TestSendBeforeConnect(t *testing.T) {
	tr := NewWSTransport(WSConfig{URL: "ws://127.0.0.1:1"})
	assert.ErrorIs(t, tr.SendForgive(1), ErrDisconnected)
}
