package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{65 * time.Second, "01:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{49*time.Hour + 5*time.Second, "2 Day(s) 1:00:05"},
		{-time.Second, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), tt.in.String())
	}
}

func TestChunkString(t *testing.T) {
	s := strings.Repeat("a", 200)
	chunks := chunkString(s, 85)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 85)
	assert.Len(t, chunks[2], 30)

	assert.Empty(t, chunkString("", 85))
}

func TestRoomURL(t *testing.T) {
	assert.Equal(t, "https://example.com/?room=lobby", roomURL("https://example.com/?room=%s", "lobby"))
	assert.Equal(t, "https://example.com/lobby", roomURL("https://example.com/", "lobby"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "opme ***", redactSecrets("opme hunter22"))
	assert.Equal(t, "KEY ***", redactSecrets("KEY newsecret"))
	assert.Equal(t, "opme", redactSecrets("opme"))
	assert.Equal(t, "hello", redactSecrets("hello"))
	assert.Equal(t, "x ***KEY*** y ***SUPER KEY***", redact("x k1 y s1", "k1", "s1"))
}
