package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// PolicyFileName is the per-room policy file inside CONFIG_PATH/<room>/.
const PolicyFileName = "policy.yaml"

// RoomPolicy is the moderation policy of one room. The session owns its copy and
// mutates it only from command handlers.
type RoomPolicy struct {
	Prefix   string `yaml:"prefix"`
	Key      string `yaml:"key"`
	SuperKey string `yaml:"super_key"`

	AllowGuests     bool `yaml:"allow_guests"`
	AllowLurkers    bool `yaml:"allow_lurkers"`
	AllowBroadcasts bool `yaml:"allow_broadcasts"`
	AllowGuestNicks bool `yaml:"allow_guest_nicks"`
	AllowNewusers   bool `yaml:"allow_newusers"`

	Greet           bool `yaml:"greet"`
	PublicCommands  bool `yaml:"public_commands"`
	ForgiveAutoBans bool `yaml:"forgive_auto_bans"`

	// MaxMatchBans caps the actions taken by one multi-target kick or ban.
	MaxMatchBans int `yaml:"max_match_bans"`

	GuestPrefix   string `yaml:"guest_prefix"`
	NewuserPrefix string `yaml:"newuser_prefix"`

	FullscreenURL string `yaml:"fullscreen_url"`
	HelpURL       string `yaml:"help_url"`
}

// DefaultRoomPolicy returns the policy used when a room has no policy file.
func DefaultRoomPolicy() RoomPolicy {
	return RoomPolicy{
		Prefix:          "!",
		AllowGuests:     true,
		AllowLurkers:    true,
		AllowBroadcasts: true,
		AllowGuestNicks: true,
		AllowNewusers:   true,
		Greet:           true,
		PublicCommands:  true,
		ForgiveAutoBans: false,
		MaxMatchBans:    3,
		GuestPrefix:     "guest-",
		NewuserPrefix:   "newuser",
		FullscreenURL:   "https://www.ruddernation.com/info/fullscreen/?room=%s",
	}
}

// RoomDir returns the directory holding the room's policy and ban list files.
func RoomDir(configPath, room string) string {
	return filepath.Join(configPath, room)
}

// LoadRoomPolicy reads CONFIG_PATH/<room>/policy.yaml on top of the defaults.
// A missing file yields the defaults.
func LoadRoomPolicy(configPath, room string) (RoomPolicy, error) {
	policy := DefaultRoomPolicy()

	path := filepath.Join(RoomDir(configPath, room), PolicyFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return policy, nil
		}
		return policy, fmt.Errorf("reading room policy %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return DefaultRoomPolicy(), fmt.Errorf("parsing room policy %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return DefaultRoomPolicy(), fmt.Errorf("room policy %s: %w", path, err)
	}
	return policy, nil
}

// Validate checks field ranges that would make the session misbehave.
func (p RoomPolicy) Validate() error {
	if strings.TrimSpace(p.Prefix) == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if p.MaxMatchBans < 1 {
		return fmt.Errorf("max_match_bans must be at least 1, got %d", p.MaxMatchBans)
	}
	return nil
}

// MatchesKey reports whether candidate is the room's secret key.
func (p RoomPolicy) MatchesKey(candidate string) bool {
	return matchSecret(p.Key, candidate)
}

// MatchesSuperKey reports whether candidate is the room's super key.
func (p RoomPolicy) MatchesSuperKey(candidate string) bool {
	return matchSecret(p.SuperKey, candidate)
}

// matchSecret compares against a plaintext or bcrypt-hashed secret. An empty secret never matches.
func matchSecret(secret, candidate string) bool {
	if secret == "" || candidate == "" {
		return false
	}
	if strings.HasPrefix(secret, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(candidate)) == nil
	}
	return secret == candidate
}
