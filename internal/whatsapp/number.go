package whatsapp

import (
	"regexp"
	"strings"
)

// Indonesian mobile numbers only: a 62 or 0 prefix followed by an 8x
// operator block and 7-11 more digits.
var numberPattern = regexp.MustCompile(`^(62|0)8[1-9][0-9]{6,10}$`)

// ValidNumber reports whether raw is an acceptable Indonesian WhatsApp
// number. Spaces, dashes and a leading + are tolerated.
func ValidNumber(raw string) bool {
	return numberPattern.MatchString(normalize(raw))
}

// FormatNumber canonicalizes raw to international form (62...). Callers must
// validate first; invalid input is returned cleaned but unconverted.
func FormatNumber(raw string) string {
	n := normalize(raw)
	if strings.HasPrefix(n, "0") {
		return "62" + n[1:]
	}
	return n
}

func normalize(raw string) string {
	n := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(raw)
	return strings.TrimSpace(n)
}
