package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLookups(t *testing.T, h http.Handler) *LookupClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithMaxRetries(0))
	require.NoError(t, err)
	return NewLookupClient(c, 16, time.Minute)
}

func TestAccountInfoCached(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/alice", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"id": "42", "last_active": "yesterday"})
	})
	lk := newTestLookups(t, mux)

	for i := 0; i < 3; i++ {
		info, err := lk.AccountInfo(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "42", info.ExternalID)
		assert.Equal(t, "alice", info.Account)
	}
	assert.EqualValues(t, 1, hits.Load())
}

func TestNotFoundMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/urban", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "  "})
	})
	mux.HandleFunc("/whois", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "example.com", r.URL.Query().Get("host"))
		json.NewEncoder(w).Encode(map[string]string{"text": "Example Inc."})
	})
	lk := newTestLookups(t, mux)
	ctx := context.Background()

	_, err := lk.Urban(ctx, "thing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = lk.AccountInfo(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))

	who, err := lk.Whois(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "Example Inc.", who)
}

func TestServerErrorIsNotFatal(t *testing.T) {
	lk := newTestLookups(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := lk.Advice(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestPrivacyClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rooms/lobby/privacy/moderators", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(modResponse{Valid: body["account"] != "ghost", Changed: body["account"] == "bob"})
	})
	mux.HandleFunc("POST /rooms/lobby/privacy/toggle/greenroom", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"enabled": true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithMaxRetries(0))
	require.NoError(t, err)
	p := NewPrivacyClient(c, "lobby")
	ctx := context.Background()

	res, err := p.MakeModerator(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, ModChanged, res)

	res, _ = p.MakeModerator(ctx, "carol")
	assert.Equal(t, ModUnchanged, res)

	res, _ = p.MakeModerator(ctx, "ghost")
	assert.Equal(t, ModInvalid, res)

	on, err := p.Toggle(ctx, ToggleGreenroom)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var lk Lookups = Disabled{}
	_, err := lk.ChuckNorris(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}
