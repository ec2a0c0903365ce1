/*
Package banlist holds the three per-room ban lists (nicks, strings, accounts), the pattern
matching rules applied to them, and the persistence backends behind them.

A pattern starting with '*' is a wildcard: it matches any target containing the rest of the
pattern. Any other pattern matches by exact equality.
*/
package banlist

import "strings"

// WildcardMarker prefixes a substring-contains pattern.
const WildcardMarker = "*"

// IsWildcard reports whether pattern is a substring-contains pattern.
func IsWildcard(pattern string) bool {
	return strings.HasPrefix(pattern, WildcardMarker)
}

// Match reports whether pattern matches target.
func Match(pattern, target string) bool {
	if IsWildcard(pattern) {
		needle := strings.TrimPrefix(pattern, WildcardMarker)
		return needle != "" && strings.Contains(target, needle)
	}
	return pattern != "" && pattern == target
}

// MatchAny returns the first pattern, in list order, matching target.
func MatchAny(patterns []string, target string) (string, bool) {
	for _, p := range patterns {
		if Match(p, target) {
			return p, true
		}
	}
	return "", false
}

// MatchMessage returns the first pattern matching a chat message. Wildcard patterns are
// checked against the raw message, exact patterns against each whitespace-delimited token.
func MatchMessage(patterns []string, msg string) (string, bool) {
	var tokens []string
	for _, p := range patterns {
		if IsWildcard(p) {
			if Match(p, msg) {
				return p, true
			}
			continue
		}
		if tokens == nil {
			tokens = strings.Fields(msg)
		}
		for _, tok := range tokens {
			if tok == p {
				return p, true
			}
		}
	}
	return "", false
}
