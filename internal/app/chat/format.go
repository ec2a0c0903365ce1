package chat

import (
	"fmt"
	"strings"
	"time"
)

// formatDuration renders d as mm:ss, h:mm:ss or "N Day(s) h:mm:ss".
func formatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	s := total % 60
	m := (total / 60) % 60
	h := (total / 3600) % 24
	days := total / 86400

	switch {
	case days == 0 && h == 0:
		return fmt.Sprintf("%02d:%02d", m, s)
	case days == 0:
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	default:
		return fmt.Sprintf("%d Day(s) %d:%02d:%02d", days, h, m, s)
	}
}

// chunkString splits s into pieces of at most size runes.
func chunkString(s string, size int) []string {
	runes := []rune(s)
	var chunks []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}

// roomURL fills a URL template with the room name. Templates without %s get the room appended.
func roomURL(template, room string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, room)
	}
	return strings.TrimRight(template, "/") + "/" + room
}

// redact hides the room keys in a logged private message.
func redact(msg, key, superKey string) string {
	if superKey != "" {
		msg = strings.ReplaceAll(msg, superKey, "***SUPER KEY***")
	}
	if key != "" {
		msg = strings.ReplaceAll(msg, key, "***KEY***")
	}
	return msg
}

// redactSecrets hides the argument of commands that carry a key.
func redactSecrets(msg string) string {
	parts := strings.Fields(msg)
	if len(parts) < 2 {
		return msg
	}
	switch strings.ToLower(parts[0]) {
	case "opme", "key":
		return parts[0] + " ***"
	}
	return msg
}
