package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupKey(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "backups/lobby/1700000000.json", backupKey("lobby", at))
}

func TestEncodeSnapshot(t *testing.T) {
	snap := Snapshot{
		Room:    "lobby",
		TakenAt: time.Unix(1700000000, 0).UTC(),
		Lists:   map[string][]string{"nicks": {"*troll"}, "strings": {}},
	}

	body, err := encodeSnapshot(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "lobby", decoded.Room)
	assert.Equal(t, []string{"*troll"}, decoded.Lists["nicks"])
	assert.True(t, snap.TakenAt.Equal(decoded.TakenAt))
}

func TestSnapshotMetadata(t *testing.T) {
	meta := snapshotMetadata(Snapshot{
		Room:  "lobby",
		Lists: map[string][]string{"nicks": {"*troll", "spam"}, "accounts": nil},
	})
	assert.Equal(t, map[string]string{"room": "lobby", "nicks": "2", "accounts": "0"}, meta)
}
