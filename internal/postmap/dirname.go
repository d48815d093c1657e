package postmap

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Windows forbids these characters in directory names; they are also the
// characters most likely to break a path on any OS.
var illegalDirChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

var reservedDirNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

const maxDirNameLength = 255

// SanitizeDirName turns a post title into a directory name that is valid on
// Windows and sensible everywhere else. Returns "" when nothing usable
// remains; the caller falls back to the post id.
func SanitizeDirName(name string) string {
	clean := illegalDirChars.ReplaceAllString(name, "_")
	clean = strings.Trim(clean, " .")

	base := strings.TrimSuffix(clean, filepath.Ext(clean))
	if _, reserved := reservedDirNames[strings.ToUpper(base)]; reserved {
		clean = "_" + clean + "_post"
	}

	if clean == "" {
		return ""
	}

	if len(clean) > maxDirNameLength {
		runes := []rune(clean)
		for len(string(runes)) > maxDirNameLength {
			runes = runes[:len(runes)-1]
		}
		clean = string(runes)
	}
	return clean
}
