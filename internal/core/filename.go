package core

import (
	"regexp"
	"strings"
	"unicode"
)

var multiSpace = regexp.MustCompile(`\s+`)

// SanitizeFilename keeps letters, digits, spaces, dashes and underscores so
// the result is safe in a Content-Disposition header and on every platform.
func SanitizeFilename(filename string) string {
	// Only treat the last dot as an extension when it looks like one.
	ext := ""
	if lastDot := strings.LastIndex(filename, "."); lastDot != -1 {
		potentialExt := filename[lastDot:]
		if !strings.Contains(potentialExt, " ") && len(potentialExt) > 1 && len(potentialExt) <= 6 {
			ext = potentialExt
			filename = filename[:lastDot]
		}
	}

	var result strings.Builder
	for _, r := range filename {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_') {
			result.WriteRune(r)
		}
	}
	filename = multiSpace.ReplaceAllString(result.String(), " ")
	filename = strings.TrimSpace(filename)
	filename = sanitizeWindowsReservedNames(filename)

	if len(filename) > 200 {
		filename = strings.TrimRight(filename[:200], " ")
	}

	if filename == "" {
		filename = "download"
	}

	return filename + ext
}

var windowsReservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

func sanitizeWindowsReservedNames(filename string) string {
	for _, reserved := range windowsReservedNames {
		if strings.EqualFold(filename, reserved) {
			return filename + " file"
		}
	}
	return filename
}

// IsSafeFilename reports whether name can be joined to a directory without
// escaping it.
func IsSafeFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return !strings.HasPrefix(name, ".")
}
