package identity

import (
	"regexp"
	"strings"
)

var nonAlnumRegex = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizeSerial reduces a device serial to its canonical form so the
// portal's rendering ("cam-0042 a", "CAM0042A") and the registry's
// stored serial compare equal. Case and separators are not significant.
func NormalizeSerial(serial string) string {
	s := strings.ToUpper(strings.TrimSpace(serial))
	return nonAlnumRegex.ReplaceAllString(s, "")
}
