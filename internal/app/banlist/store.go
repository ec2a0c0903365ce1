package banlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/logx"
)

// List names one of the three ban lists of a room.
type List string

const (
	Nicks    List = "nicks"
	Strings  List = "strings"
	Accounts List = "accounts"
)

// AllLists is the fixed set of lists, in load order.
var AllLists = []List{Nicks, Strings, Accounts}

// MinPatternLen is the shortest string or account pattern accepted by Add callers.
const MinPatternLen = 3

// TooShort reports whether pattern is below the minimum length for list. Nick patterns have none.
func TooShort(list List, pattern string) bool {
	return list != Nicks && len(pattern) < MinPatternLen
}

// normalize trims pattern. Patterns are stored one per line, so line breaks are rejected.
func normalize(pattern string) (string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "", errs.NewError(errs.ErrMissingArgument, "pattern")
	}
	if strings.ContainsAny(pattern, "\r\n") {
		return "", errs.NewError(errs.ErrInvalidParams)
	}
	return pattern, nil
}

// ParseList resolves a list name as typed in chat commands or API paths.
func ParseList(name string) (List, error) {
	switch name {
	case "nicks", "nick":
		return Nicks, nil
	case "strings", "string", "words", "word":
		return Strings, nil
	case "accounts", "account":
		return Accounts, nil
	}
	return "", errs.NewError(errs.ErrBanListUnknown, name)
}

// ErrAlreadyPresent is returned by a Backend when the pattern is already stored.
var ErrAlreadyPresent = errors.New("pattern already present")

// Backend persists the ban lists of one room.
type Backend interface {
	Load(ctx context.Context, list List) ([]string, error)
	Append(ctx context.Context, list List, pattern string) error
	Remove(ctx context.Context, list List, pattern string) error
	Clear(ctx context.Context, list List) error
}

type listState struct {
	// write serializes mutations of this list, including backend I/O.
	write sync.Mutex

	mu      sync.RWMutex
	entries []string
}

// Store is the in-memory copy of a room's ban lists backed by a Backend.
type Store struct {
	room    string
	backend Backend
	lists   map[List]*listState
}

// NewStore creates an empty store. Call Load to read the persisted lists.
func NewStore(room string, backend Backend) *Store {
	lists := make(map[List]*listState, len(AllLists))
	for _, l := range AllLists {
		lists[l] = &listState{}
	}
	return &Store{room: room, backend: backend, lists: lists}
}

func (s *Store) state(list List) (*listState, error) {
	st, ok := s.lists[list]
	if !ok {
		return nil, errs.NewError(errs.ErrBanListUnknown, string(list))
	}
	return st, nil
}

// Load replaces the in-memory lists with the persisted ones.
func (s *Store) Load(ctx context.Context, lists ...List) error {
	if len(lists) == 0 {
		lists = AllLists
	}
	for _, l := range lists {
		st, err := s.state(l)
		if err != nil {
			return err
		}

		st.write.Lock()
		entries, err := s.backend.Load(ctx, l)
		if err != nil {
			st.write.Unlock()
			return fmt.Errorf("loading %s ban list for room %s: %w", l, s.room, err)
		}
		entries = dedupe(entries)
		st.mu.Lock()
		st.entries = entries
		st.mu.Unlock()
		st.write.Unlock()

		logx.Debug("Ban list loaded", "room", s.room, "list", string(l), "entries", len(entries))
	}
	return nil
}

// Add appends pattern to list. Adding a pattern already present returns ErrPatternExists
// and leaves the list unchanged.
func (s *Store) Add(ctx context.Context, list List, pattern string) error {
	st, err := s.state(list)
	if err != nil {
		return err
	}
	pattern, err = normalize(pattern)
	if err != nil {
		return err
	}

	st.write.Lock()
	defer st.write.Unlock()

	if s.contains(st, pattern) {
		return errs.NewError(errs.ErrPatternExists, pattern)
	}

	if err := s.backend.Append(ctx, list, pattern); err != nil {
		if errors.Is(err, ErrAlreadyPresent) {
			return errs.NewError(errs.ErrPatternExists, pattern)
		}
		return fmt.Errorf("appending to %s ban list: %w", list, err)
	}

	st.mu.Lock()
	st.entries = append(st.entries, pattern)
	st.mu.Unlock()
	return nil
}

// Remove deletes pattern from list. Removing an absent pattern returns ErrPatternMissing.
func (s *Store) Remove(ctx context.Context, list List, pattern string) error {
	st, err := s.state(list)
	if err != nil {
		return err
	}
	pattern, err = normalize(pattern)
	if err != nil {
		return err
	}

	st.write.Lock()
	defer st.write.Unlock()

	if !s.contains(st, pattern) {
		return errs.NewError(errs.ErrPatternMissing, pattern)
	}

	if err := s.backend.Remove(ctx, list, pattern); err != nil {
		return fmt.Errorf("removing from %s ban list: %w", list, err)
	}

	st.mu.Lock()
	st.entries = slices.DeleteFunc(st.entries, func(e string) bool { return e == pattern })
	st.mu.Unlock()
	return nil
}

// Clear empties list.
func (s *Store) Clear(ctx context.Context, list List) error {
	st, err := s.state(list)
	if err != nil {
		return err
	}

	st.write.Lock()
	defer st.write.Unlock()

	if err := s.backend.Clear(ctx, list); err != nil {
		return fmt.Errorf("clearing %s ban list: %w", list, err)
	}

	st.mu.Lock()
	st.entries = nil
	st.mu.Unlock()
	return nil
}

// Entries returns a copy of list in insertion order.
func (s *Store) Entries(list List) []string {
	st, err := s.state(list)
	if err != nil {
		return nil
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return slices.Clone(st.entries)
}

// Len returns the number of patterns in list.
func (s *Store) Len(list List) int {
	st, err := s.state(list)
	if err != nil {
		return 0
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// Contains reports whether pattern is stored in list.
func (s *Store) Contains(list List, pattern string) bool {
	st, err := s.state(list)
	if err != nil {
		return false
	}
	return s.contains(st, pattern)
}

func (s *Store) contains(st *listState, pattern string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return slices.Contains(st.entries, pattern)
}

// Snapshot returns a copy of all lists keyed by list name.
func (s *Store) Snapshot() map[List][]string {
	out := make(map[List][]string, len(AllLists))
	for _, l := range AllLists {
		out[l] = s.Entries(l)
	}
	return out
}

// Room returns the room the store belongs to.
func (s *Store) Room() string {
	return s.room
}

func dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok || e == "" {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
