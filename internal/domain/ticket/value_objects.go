package ticket

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidCodeFormat = errors.New("invalid ticket code format")
)

// Ticket codes are printed on credentials as "TKT-" followed by 8 to 32
// characters from an uppercase alphabet that omits easily confused glyphs
// (0/O, 1/I). The pattern is checked before any cache or store access.
var codePattern = regexp.MustCompile(`^TKT-[A-Z2-9]{8,32}$`)

const maxCodeLength = 4 + 32

type Code struct {
	value string
}

// ParseCode validates a scanned string against the ticket code pattern.
// Surrounding whitespace is tolerated; anything else is rejected.
func ParseCode(raw string) (Code, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 || len(trimmed) > maxCodeLength {
		return Code{}, ErrInvalidCodeFormat
	}
	if !codePattern.MatchString(trimmed) {
		return Code{}, ErrInvalidCodeFormat
	}
	return Code{value: trimmed}, nil
}

func (c Code) String() string {
	return c.value
}

func (c Code) IsZero() bool {
	return c.value == ""
}
