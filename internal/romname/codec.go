// Package romname implements the ROM-name codec: a small, deterministic
// compression scheme that drops the redundant game-name substring from a
// ROM's stored filename and recognizes a handful of canonical suffixes.
package romname

import "strings"

const (
	trackPrefix = "# (Track "
	trackSuffix = ").bin"
)

// Compress shrinks romName relative to gameName. The transform is pure
// text substitution and never fails: a name that matches none of the
// canonical suffixes is returned with only the game name replaced by "#".
func Compress(romName, gameName string) string {
	s := strings.ReplaceAll(romName, gameName, "#")
	switch {
	case strings.HasPrefix(s, trackPrefix) && strings.HasSuffix(s, trackSuffix):
		n := s[len(trackPrefix) : len(s)-len(trackSuffix)]
		return "$T" + n
	case s == "#.cue":
		return "$c"
	case s == "#.iso":
		return "$i"
	case s == "#.bin":
		return "$b"
	default:
		return s
	}
}

// Decompress is the inverse of Compress: given the stored (possibly
// compressed) name and the owning game's name, it reconstructs the
// original ROM filename.
func Decompress(romName, gameName string) string {
	switch {
	case romName == "$c":
		return gameName + ".cue"
	case romName == "$i":
		return gameName + ".iso"
	case romName == "$b":
		return gameName + ".bin"
	case strings.HasPrefix(romName, "$T"):
		return gameName + " (Track " + romName[2:] + ").bin"
	default:
		return strings.ReplaceAll(romName, "#", gameName)
	}
}
