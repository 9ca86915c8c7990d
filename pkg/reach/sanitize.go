package reach

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTermSize bounds a focus search term in bytes.
const MaxTermSize = 256

var (
	ErrTermTooLarge = errors.New("search term exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("search term contains invalid UTF-8 sequences")
)

// SanitizeTerm validates a search term received from a client and strips
// control characters and surrounding spaces. Oversized terms are rejected
// rather than truncated.
func SanitizeTerm(term string) (string, error) {
	if len(term) > MaxTermSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTermTooLarge, len(term), MaxTermSize)
	}
	if !utf8.ValidString(term) {
		return "", ErrInvalidUTF8
	}

	// Fast path: no control chars.
	if strings.IndexFunc(term, unicode.IsControl) < 0 {
		return strings.TrimSpace(term), nil
	}
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, term)), nil
}
