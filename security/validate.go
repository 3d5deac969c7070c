package security

import (
	"crypto/subtle"
	"strings"
	"unicode"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/chessmesh/chessmesh/internal/metrics"
)

// injectionPatterns is a small OWASP-style corpus of substrings that never
// belong in a chess message's free-text fields: script injection, template
// injection, SQL comment markers, and path traversal.
var injectionPatterns = []string{
	"<script",
	"javascript:",
	"${", // template-injection sigil (EL/Freemarker/Velocity-style)
	"{{", // template-injection sigil (Jinja2/Handlebars-style)
	"--",
	"/*",
	"../",
	"..\\",
	"\x00",
}

// CheckSafeText rejects control characters (other than \n \r \t), known
// injection substrings, and text whose whitespace ratio is implausibly high
// for its length. field names the offending field for error reporting.
func CheckSafeText(field, value string) error {
	for _, r := range value {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			metrics.InjectionAttemptsBlocked.Inc()
			return chesserr.New(chesserr.KindSuspiciousPattern, "field %s contains a control character", field).
				WithField("field", field)
		}
	}

	lower := strings.ToLower(value)
	for _, pattern := range injectionPatterns {
		if strings.Contains(lower, pattern) {
			metrics.InjectionAttemptsBlocked.Inc()
			return chesserr.New(chesserr.KindInjectionAttempt, "field %s matches a known injection pattern", field).
				WithField("field", field).WithField("pattern", pattern)
		}
	}

	if len(value) > 50 {
		whitespace := 0
		for _, r := range value {
			if unicode.IsSpace(r) {
				whitespace++
			}
		}
		if float64(whitespace)/float64(len([]rune(value))) > 0.8 {
			metrics.InjectionAttemptsBlocked.Inc()
			return chesserr.New(chesserr.KindSuspiciousPattern, "field %s is implausibly whitespace-heavy", field).
				WithField("field", field)
		}
	}
	return nil
}

// CheckFieldLength rejects value if it exceeds max. It does not reject empty
// values.
func CheckFieldLength(field, value string, max int) error {
	if len(value) > max {
		return chesserr.New(chesserr.KindFieldTooLong, "field %s has length %d, max is %d", field, len(value), max).
			WithField("field", field).WithField("length", len(value)).WithField("max", max)
	}
	return nil
}

// ConstantTimeHexEqual compares two hex strings in constant time over their
// shared length. Unequal lengths are reported as a straightforward mismatch
// without attempting a constant-time comparison, since length itself is not
// the secret being protected here — the comparison exists to avoid timing
// side-channels on the hash *content*, not its length.
func ConstantTimeHexEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
