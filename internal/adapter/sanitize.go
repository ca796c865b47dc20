package adapter

import "strings"

// untitledFolder is used when sanitization leaves nothing of the name.
const untitledFolder = "Untitled Deal"

// maxFolderNameLen caps folder names; Drive rejects longer ones.
const maxFolderNameLen = 200

// SanitizeFolderName makes a deal name safe for the storage provider:
// characters invalid in folder names become underscores, runs of whitespace
// collapse to single spaces, and the result is trimmed and capped at 200
// runes. An empty result yields a placeholder. The function is idempotent.
func SanitizeFolderName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, name)

	sanitized = strings.Join(strings.Fields(sanitized), " ")

	if runes := []rune(sanitized); len(runes) > maxFolderNameLen {
		sanitized = strings.TrimSpace(string(runes[:maxFolderNameLen]))
	}

	if sanitized == "" {
		return untitledFolder
	}
	return sanitized
}
