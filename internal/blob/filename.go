package blob

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFilenameBytes = 200

// SafeFilename turns a title into something usable as a file name. Path separators,
// control characters and characters reserved on common filesystems become '_'.
// fallback is returned when nothing usable is left.
func SafeFilename(title, fallback string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsControl(r):
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	name := strings.Trim(b.String(), " .")
	for len(name) > maxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	name = strings.TrimRight(name, " .")

	if name == "" {
		return fallback
	}

	return name
}
