package user

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasLevel(t *testing.T) {
	assert := assert.New(t)

	assert.True(HasLevel(LevelSuperAdmin, LevelUser))
	assert.True(HasLevel(LevelModerator, LevelModerator))
	assert.False(HasLevel(LevelUser, LevelModerator))
	assert.False(HasLevel(LevelDenied, LevelDenied))
	assert.False(HasLevel(LevelDenied, 7))
}

func TestAddAssignsInitialLevel(t *testing.T) {
	r := NewRegistry()

	owner, ok := r.Add(JoinInfo{ID: 1, Nick: "boss", Account: "boss", Owner: true})
	require.True(t, ok)
	assert.Equal(t, LevelSuperAdmin, owner.Level)

	mod, _ := r.Add(JoinInfo{ID: 2, Nick: "helper", Account: "helper", Mod: true})
	assert.Equal(t, LevelModerator, mod.Level)

	guest, _ := r.Add(JoinInfo{ID: 3, Nick: "guest-1", Mod: true})
	assert.Equal(t, LevelUser, guest.Level)
	assert.True(t, guest.IsGuest())
}

func TestAddRejectsMalformed(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Add(JoinInfo{ID: 0, Nick: "x"})
	assert.False(t, ok)
	_, ok = r.Add(JoinInfo{ID: 4, Nick: ""})
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestSearchReturnsFirstInJoinOrder(t *testing.T) {
	r := NewRegistry()
	r.Add(JoinInfo{ID: 10, Nick: "twin"})
	r.Add(JoinInfo{ID: 11, Nick: "twin"})

	u, ok := r.Search("twin")
	require.True(t, ok)
	assert.Equal(t, 10, u.ID)

	_, ok = r.Search("nobody")
	assert.False(t, ok)
}

func TestRenamePreservesIdentity(t *testing.T) {
	r := NewRegistry()
	r.Add(JoinInfo{ID: 7, Nick: "old", Account: "acct", Mod: true})
	r.Update(7, func(u *User) { u.Level = LevelController })

	renamed, ok := r.Rename("old", "new")
	require.True(t, ok)
	assert.Equal(t, 7, renamed.ID)
	assert.Equal(t, "acct", renamed.Account)
	assert.Equal(t, LevelController, renamed.Level)

	_, ok = r.Search("old")
	assert.False(t, ok)
	got, ok := r.SearchByID(7)
	require.True(t, ok)
	assert.Equal(t, "new", got.Nick)
}

func TestRenameMissingLeavesRosterUnchanged(t *testing.T) {
	r := NewRegistry()
	r.Add(JoinInfo{ID: 1, Nick: "a"})

	_, ok := r.Rename("ghost", "b")
	assert.False(t, ok)
	assert.Equal(t, []User{mustGet(t, r, 1)}, r.All())
	assert.Equal(t, "a", mustGet(t, r, 1).Nick)
}

func TestAddExistingIDReturnsExisting(t *testing.T) {
	r := NewRegistry()
	r.Add(JoinInfo{ID: 1, Nick: "first"})

	again, ok := r.Add(JoinInfo{ID: 1, Nick: "second", Owner: true, Account: "x"})
	require.True(t, ok)
	assert.Equal(t, "first", again.Nick)
	assert.Equal(t, LevelUser, again.Level)
	assert.Equal(t, 1, r.Len())
}

func mustGet(t *testing.T, r *Registry, id int) User {
	t.Helper()
	u, ok := r.SearchByID(id)
	require.True(t, ok)
	return u
}

func TestSnapshotsAreCopies(t *testing.T) {
	r := NewRegistry()
	u, _ := r.Add(JoinInfo{ID: 1, Nick: "a"})
	u.Nick = "mutated"

	got, _ := r.SearchByID(1)
	assert.Equal(t, "a", got.Nick)
}

func TestRemoveAndContaining(t *testing.T) {
	r := NewRegistry()
	r.Add(JoinInfo{ID: 1, Nick: "troll1"})
	r.Add(JoinInfo{ID: 2, Nick: "nice"})
	r.Add(JoinInfo{ID: 3, Nick: "xtrollx"})

	found := r.SearchContaining("troll")
	require.Len(t, found, 2)
	assert.Equal(t, 1, found[0].ID)
	assert.Equal(t, 3, found[1].ID)

	_, ok := r.Remove(1)
	assert.True(t, ok)
	_, ok = r.Remove(1)
	assert.False(t, ok)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].ID)
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r.Add(JoinInfo{ID: id, Nick: fmt.Sprintf("u%d", id)})
			r.RenameByID(id, fmt.Sprintf("r%d", id))
			r.SearchContaining("r")
			r.All()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	for _, u := range r.All() {
		assert.Equal(t, fmt.Sprintf("r%d", u.ID), u.Nick)
	}
}
