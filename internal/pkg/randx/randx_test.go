package randx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNicknameBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		nick, err := Nickname(5, 25)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(nick), 5)
		assert.LessOrEqual(t, len(nick), 25)
		assert.True(t, IsValidNick(nick), nick)
		for _, c := range nick {
			assert.True(t, strings.ContainsRune(Base62Chars, c))
		}
	}
}

func TestNicknameRejectsBadBounds(t *testing.T) {
	_, err := Nickname(10, 5)
	assert.Error(t, err)
	_, err = Nickname(0, 5)
	assert.Error(t, err)
	_, err = Nickname(5, 26)
	assert.Error(t, err)
}

func TestIsValidNick(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsValidNick("bot_[1]{x}"))
	assert.False(IsValidNick(""))
	assert.False(IsValidNick("has space"))
	assert.False(IsValidNick("dash-nick"))
	assert.False(IsValidNick(strings.Repeat("a", 26)))
}

func TestJitter(t *testing.T) {
	assert.Equal(t, time.Duration(0), Jitter(0))
	for i := 0; i < 100; i++ {
		d := Jitter(time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, time.Second)
	}
}

func TestMessageIDUnique(t *testing.T) {
	assert.NotEqual(t, MessageID(), MessageID())
}

func TestPick(t *testing.T) {
	items := []string{"heads", "tails"}
	for range 20 {
		assert.Contains(t, items, Pick(items))
	}
}
