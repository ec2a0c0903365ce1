package user

import (
	"strings"
	"sync"
	"time"
)

// Registry is the roster of one room. Entries are keyed by id and kept in join order;
// all lookups return copies so callers never hold a reference into the roster.
type Registry struct {
	mu    sync.RWMutex
	byID  map[int]*User
	order []int
	now   func() time.Time
}

// NewRegistry creates an empty roster.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[int]*User),
		now:  time.Now,
	}
}

// Add inserts a user from join metadata and returns a snapshot of the entry.
// A join for an id already present returns the existing entry unchanged.
// Malformed metadata returns false.
func (r *Registry) Add(info JoinInfo) (User, bool) {
	if !info.Valid() {
		return User{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[info.ID]; ok {
		return *existing, true
	}

	u := &User{
		ID:       info.ID,
		Nick:     info.Nick,
		Account:  info.Account,
		Level:    info.initialLevel(),
		IsOwner:  info.Owner,
		IsMod:    info.Mod,
		IsLurker: info.Lurker,
		JoinTime: r.now(),
	}
	r.order = append(r.order, info.ID)
	r.byID[info.ID] = u

	return *u, true
}

// Search returns the first user, in join order, whose nick equals nick.
func (r *Registry) Search(nick string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.byID[id]; u.Nick == nick {
			return *u, true
		}
	}
	return User{}, false
}

// SearchByID returns the user with the given id.
func (r *Registry) SearchByID(id int) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.byID[id]; ok {
		return *u, true
	}
	return User{}, false
}

// SearchContaining returns every user whose nick contains substr, in join order.
func (r *Registry) SearchContaining(substr string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found []User
	for _, id := range r.order {
		if u := r.byID[id]; strings.Contains(u.Nick, substr) {
			found = append(found, *u)
		}
	}
	return found
}

// Rename moves the first entry whose nick is oldNick to newNick. All other fields are kept.
// It fails, leaving the roster unchanged, when no user is named oldNick.
func (r *Registry) Rename(oldNick, newNick string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if u := r.byID[id]; u.Nick == oldNick {
			u.Nick = newNick
			return *u, true
		}
	}
	return User{}, false
}

// RenameByID changes the nick of the user with the given id.
func (r *Registry) RenameByID(id int, newNick string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, false
	}
	u.Nick = newNick
	return *u, true
}

// Update applies fn to the entry with the given id and returns the resulting snapshot.
func (r *Registry) Update(id int, fn func(*User)) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, false
	}
	fn(u)
	// id is the key; fn must not move the entry.
	u.ID = id
	return *u, true
}

// Remove deletes the user with the given id. Unknown ids are a no-op.
func (r *Registry) Remove(id int) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, false
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *u, true
}

// All returns a snapshot of the roster in join order.
func (r *Registry) All() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, *r.byID[id])
	}
	return users
}

// Len returns the number of users in the room.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear empties the roster, used when the client reconnects.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = make(map[int]*User)
	r.order = nil
}
