package gateway

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AccountInfo is the public profile of a registered account.
type AccountInfo struct {
	Account    string `json:"account"`
	ExternalID string `json:"id"`
	Website    string `json:"website"`
	Biography  string `json:"biography"`
	Location   string `json:"location"`
	LastActive string `json:"last_active"`
}

// SpyInfo summarizes the population of another room.
type SpyInfo struct {
	ModCount         int      `json:"mod_count"`
	BroadcasterCount int      `json:"broadcaster_count"`
	TotalCount       int      `json:"total_count"`
	Users            []string `json:"users"`
	Error            string   `json:"error,omitempty"`
}

// RoomInfo is the public metadata of a room.
type RoomInfo struct {
	ExternalID string `json:"id"`
}

type textResult struct {
	Text string `json:"text"`
}

// Lookups is the set of informational queries used by chat commands.
type Lookups interface {
	AccountInfo(ctx context.Context, account string) (AccountInfo, error)
	SpyInfo(ctx context.Context, room string) (SpyInfo, error)
	RoomInfo(ctx context.Context, room string) (RoomInfo, error)
	Urban(ctx context.Context, term string) (string, error)
	Whois(ctx context.Context, host string) (string, error)
	TimeIn(ctx context.Context, place string) (string, error)
	Translate(ctx context.Context, text string) (string, error)
	Advice(ctx context.Context) (string, error)
	ChuckNorris(ctx context.Context) (string, error)
}

// LookupClient implements Lookups over the gateway. Account profiles are cached.
type LookupClient struct {
	*Client
	accounts *expirable.LRU[string, AccountInfo]
}

// NewLookupClient wraps c with an account cache of the given size and ttl.
func NewLookupClient(c *Client, cacheSize int, ttl time.Duration) *LookupClient {
	return &LookupClient{
		Client:   c,
		accounts: expirable.NewLRU[string, AccountInfo](cacheSize, nil, ttl),
	}
}

func (c *LookupClient) AccountInfo(ctx context.Context, account string) (AccountInfo, error) {
	if account == "" {
		return AccountInfo{}, ErrNotFound
	}
	if info, ok := c.accounts.Get(account); ok {
		return info, nil
	}

	var info AccountInfo
	if err := c.do(ctx, "GET", "/accounts/"+url.PathEscape(account), nil, nil, &info); err != nil {
		return AccountInfo{}, err
	}
	if info.Account == "" {
		info.Account = account
	}
	c.accounts.Add(account, info)
	return info, nil
}

func (c *LookupClient) SpyInfo(ctx context.Context, room string) (SpyInfo, error) {
	var info SpyInfo
	err := c.do(ctx, "GET", "/rooms/"+url.PathEscape(room)+"/spy", nil, nil, &info)
	return info, err
}

func (c *LookupClient) RoomInfo(ctx context.Context, room string) (RoomInfo, error) {
	var info RoomInfo
	if err := c.do(ctx, "GET", "/rooms/"+url.PathEscape(room), nil, nil, &info); err != nil {
		return RoomInfo{}, err
	}
	if info.ExternalID == "" {
		return RoomInfo{}, ErrNotFound
	}
	return info, nil
}

func (c *LookupClient) text(ctx context.Context, path string, query url.Values) (string, error) {
	var res textResult
	if err := c.do(ctx, "GET", path, query, nil, &res); err != nil {
		return "", err
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", ErrNotFound
	}
	return text, nil
}

func (c *LookupClient) Urban(ctx context.Context, term string) (string, error) {
	return c.text(ctx, "/urban", url.Values{"term": {term}})
}

func (c *LookupClient) Whois(ctx context.Context, host string) (string, error) {
	return c.text(ctx, "/whois", url.Values{"host": {host}})
}

func (c *LookupClient) TimeIn(ctx context.Context, place string) (string, error) {
	return c.text(ctx, "/time", url.Values{"place": {place}})
}

func (c *LookupClient) Translate(ctx context.Context, text string) (string, error) {
	return c.text(ctx, "/translate", url.Values{"q": {text}, "to": {"en"}})
}

func (c *LookupClient) Advice(ctx context.Context) (string, error) {
	return c.text(ctx, "/advice", nil)
}

func (c *LookupClient) ChuckNorris(ctx context.Context) (string, error) {
	return c.text(ctx, "/chuck", nil)
}

// Disabled answers every lookup with ErrNotFound. Used when no gateway is configured.
type Disabled struct{}

func (Disabled) AccountInfo(context.Context, string) (AccountInfo, error) {
	return AccountInfo{}, ErrNotFound
}
func (Disabled) SpyInfo(context.Context, string) (SpyInfo, error)   { return SpyInfo{}, ErrNotFound }
func (Disabled) RoomInfo(context.Context, string) (RoomInfo, error) { return RoomInfo{}, ErrNotFound }
func (Disabled) Urban(context.Context, string) (string, error)      { return "", ErrNotFound }
func (Disabled) Whois(context.Context, string) (string, error)      { return "", ErrNotFound }
func (Disabled) TimeIn(context.Context, string) (string, error)     { return "", ErrNotFound }
func (Disabled) Translate(context.Context, string) (string, error)  { return "", ErrNotFound }
func (Disabled) Advice(context.Context) (string, error)             { return "", ErrNotFound }
func (Disabled) ChuckNorris(context.Context) (string, error)        { return "", ErrNotFound }
