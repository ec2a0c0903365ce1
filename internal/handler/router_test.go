package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roombot/internal/app/banlist"
	"roombot/internal/app/chat"
	"roombot/internal/app/protocol"
	"roombot/internal/app/user"
	"roombot/internal/configs"
	"roombot/internal/pkg/auth/jwt"
	"roombot/internal/pkg/errs"
)

const testSecret = "handler-test-secret"

// nopTransport accepts every send.
type nopTransport struct {
	events chan protocol.Event
	done   chan struct{}
}

func newNopTransport() *nopTransport {
	return &nopTransport{events: make(chan protocol.Event), done: make(chan struct{})}
}

func (n *nopTransport) Events() <-chan protocol.Event     { return n.events }
func (n *nopTransport) Done() <-chan struct{}             { return n.done }
func (n *nopTransport) SendChat(string) error             { return nil }
func (n *nopTransport) SendPrivate(string, string) error  { return nil }
func (n *nopTransport) SendModeratorMessage(string) error { return nil }
func (n *nopTransport) SendTopic(string) error            { return nil }
func (n *nopTransport) SendNick(string) error             { return nil }
func (n *nopTransport) SendBan(string, int) error         { return nil }
func (n *nopTransport) SendForgive(int) error             { return nil }
func (n *nopTransport) SendCloseBroadcast(string) error   { return nil }
func (n *nopTransport) SendCamApprove(string, int) error  { return nil }
func (n *nopTransport) RequestBanList() error             { return nil }
func (n *nopTransport) StartBroadcast() error             { return nil }
func (n *nopTransport) StopBroadcast() error              { return nil }
func (n *nopTransport) Disconnect() error                 { return nil }
func (n *nopTransport) Reconnect(context.Context) error   { return nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (http.Handler, *chat.Session) {
	t.Helper()
	manager := chat.NewManager()
	session, cerr := manager.AddRoom(chat.SessionConfig{
		Room:      "lobby",
		Nick:      "bot",
		Transport: newNopTransport(),
		Bans:      banlist.NewStore("lobby", banlist.NewMemoryBackend()),
		Policy:    configs.DefaultRoomPolicy(),
	})
	require.Nil(t, cerr)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	router := Router(ctx, &AppDeps{
		Manager: manager,
		Config:  &configs.AppConfig{Environment: "development", JWTSecret: testSecret},
	})
	return router, session
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.GenerateToken("ops", role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, method, target, auth, body string) (int, envelope) {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	h, _ := setup(t)
	code, env := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","service":"roombot","rooms":1}`, string(env.Data))
}

func TestMetrics(t *testing.T) {
	h, _ := setup(t)
	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestListUsers(t *testing.T) {
	h, s := setup(t)
	s.HandleEvent(context.Background(), protocol.JoinEvent{JoinInfo: user.JoinInfo{ID: 7, Nick: "alice", Account: "alice"}})

	code, env := do(t, h, http.MethodGet, "/api/rooms/lobby/users", "", "")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Room  string      `json:"room"`
		Users []user.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "lobby", data.Room)
	require.Len(t, data.Users, 1)
	assert.Equal(t, "alice", data.Users[0].Nick)

	code, env = do(t, h, http.MethodGet, "/api/rooms/cellar/users", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, errs.ErrRoomNotFound, env.Code)
}

func TestBanListMutationRequiresAdmin(t *testing.T) {
	h, _ := setup(t)
	body := `{"pattern":"spam"}`

	code, _ := do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/strings", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/strings", token(t, "viewer"), body)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, h, http.MethodDelete, "/api/rooms/lobby/banlists/strings?pattern=spam", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBanListRoundTrip(t *testing.T) {
	h, s := setup(t)
	admin := token(t, jwt.RoleAdmin)

	code, _ := do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/strings", admin, `{"pattern":"spam"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []string{"spam"}, s.Bans().Entries(banlist.Strings))

	code, env := do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/words", admin, `{"pattern":"spam"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "*spam* is already in list.", env.Message)

	code, env = do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/accounts", admin, `{"pattern":"ab"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errs.ErrPatternTooShort, env.Code)

	code, env = do(t, h, http.MethodGet, "/api/rooms/lobby/banlists/strings", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"room":"lobby","list":"strings","entries":["spam"]}`, string(env.Data))

	code, _ = do(t, h, http.MethodDelete, "/api/rooms/lobby/banlists/strings?pattern=spam", admin, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, s.Bans().Entries(banlist.Strings))

	code, env = do(t, h, http.MethodDelete, "/api/rooms/lobby/banlists/strings?pattern=spam", admin, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "*spam* is not in list.", env.Message)

	code, env = do(t, h, http.MethodGet, "/api/rooms/lobby/banlists/colors", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, errs.ErrBanListUnknown, env.Code)
}

func TestBanListRejectsBadBody(t *testing.T) {
	h, _ := setup(t)
	admin := token(t, jwt.RoleAdmin)

	code, env := do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/nicks", admin, `{"pattern":"x","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errs.ErrInvalidJSONFormat, env.Code)

	code, env = do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/nicks", admin, `{"pattern":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errs.ErrMissingArgument, env.Code)
}

func TestBanListNormalizesPattern(t *testing.T) {
	h, s := setup(t)
	admin := token(t, jwt.RoleAdmin)

	code, env := do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/strings", admin, `{"pattern":"bad\nword"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errs.ErrInvalidParams, env.Code)

	code, _ = do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/strings", admin, `{"pattern":"  spam  "}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []string{"spam"}, s.Bans().Entries(banlist.Strings))

	code, env = do(t, h, http.MethodPost, "/api/rooms/lobby/banlists/accounts", admin, `{"pattern":"  ab  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errs.ErrPatternTooShort, env.Code)
}
