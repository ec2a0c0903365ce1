package user

import "fmt"

// Level is a command permission level. Lower numbers carry more authority.
type Level int

const (
	// LevelSuperAdmin is the room owner or a holder of the super key.
	LevelSuperAdmin Level = 1

	// LevelAdmin is a bot controller authenticated with the secret key.
	LevelAdmin Level = 2

	// LevelModerator is a room moderator.
	LevelModerator Level = 3

	// LevelController is a user promoted with op.
	LevelController Level = 4

	// LevelUser is the default untrusted level.
	LevelUser Level = 5

	// LevelDenied is an explicit deny. No threshold check passes at this level.
	LevelDenied Level = 6
)

// HasLevel reports whether a user at level may invoke something requiring threshold.
func HasLevel(level, threshold Level) bool {
	if level == LevelDenied {
		return false
	}
	return level <= threshold
}

// Valid reports whether l is one of the six defined levels.
func (l Level) Valid() bool {
	return l >= LevelSuperAdmin && l <= LevelDenied
}

// LessPrivilegedThan reports whether l carries strictly less authority than other.
func (l Level) LessPrivilegedThan(other Level) bool {
	return l > other
}

func (l Level) String() string {
	switch l {
	case LevelSuperAdmin:
		return "super admin (1)"
	case LevelAdmin:
		return "admin (2)"
	case LevelModerator:
		return "moderator (3)"
	case LevelController:
		return "bot controller (4)"
	case LevelUser:
		return "user (5)"
	case LevelDenied:
		return "denied (6)"
	}
	return fmt.Sprintf("invalid (%d)", int(l))
}
