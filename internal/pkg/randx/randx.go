/*
Package randx provides random identifiers, random nicknames and pacing jitter.

Nicknames are generated with crypto/rand over a Base62 alphabet; outbound frame IDs
are UUID v4 strings.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for random nicknames (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// MinNickLength and MaxNickLength bound generated and accepted nicknames.
	MinNickLength = 1
	MaxNickLength = 25
)

var nickRegex = regexp.MustCompile(`^[][{}a-zA-Z0-9_]{1,25}$`)

// MessageID generates a UUID v4 string used to identify an outbound frame.
func MessageID() string {
	return uuid.New().String()
}

// Nickname generates a random Base62 nickname whose length lies in [minLen, maxLen].
func Nickname(minLen, maxLen int) (string, error) {
	if minLen < MinNickLength || maxLen > MaxNickLength || minLen > maxLen {
		return "", fmt.Errorf("invalid nickname length bounds %d..%d", minLen, maxLen)
	}

	span, err := rand.Int(rand.Reader, big.NewInt(int64(maxLen-minLen+1)))
	if err != nil {
		return "", fmt.Errorf("failed to generate nickname length: %v", err)
	}
	length := minLen + int(span.Int64())

	result := make([]byte, length)
	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for nickname: %v", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsValidNick reports whether nick is acceptable as the client's own nickname.
func IsValidNick(nick string) bool {
	return nickRegex.MatchString(nick)
}

// Jitter returns a uniformly distributed duration in [0, max).
func Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(mrand.Int64N(int64(max)))
}

// Pick returns a uniformly chosen element of items. items must not be empty.
func Pick[T any](items []T) T {
	return items[mrand.IntN(len(items))]
}

// Intn returns a uniform int in [0, n).
func Intn(n int) int {
	return mrand.IntN(n)
}
