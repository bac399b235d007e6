package logger

import (
	"strings"
	"unicode"
)

// Length limits for values written to logs or echoed to clients
const (
	MaxPathLength          = 500
	MaxIdentifierLength    = 128
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxDocumentLength bounds VTODO bodies in debug logs
	MaxDocumentLength = 10000
)

// SanitizeString makes s safe to log: invalid UTF-8 and control characters
// other than tab, newline and carriage return are dropped, and the result is
// cut to maxLength bytes with a trailing "...". maxLength <= 0 means
// MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = strings.Map(keepRune, strings.ToValidUTF8(s, ""))
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

func keepRune(r rune) rune {
	if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return r
	}
	return -1
}

// SanitizePath sanitizes a request path
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeIdentifier sanitizes a task ID, draft UID or collection UID taken from a request
func SanitizeIdentifier(id string) string {
	return SanitizeString(id, MaxIdentifierLength)
}

// SanitizeError sanitizes an error message. A nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeDocument sanitizes a stored iCalendar body
func SanitizeDocument(content string) string {
	return SanitizeString(content, MaxDocumentLength)
}
