package serial

import "math"

// ParseInt parses a terminated buffer the way C atoi does: leading
// whitespace is skipped, an optional sign is accepted and digits are
// consumed until the first non-digit. Anything else yields 0. Parsing
// stops at Terminator. Out of range values saturate.
func ParseInt(b []byte) int {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}

	neg := false
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		neg = b[i] == '-'
		i++
	}

	n := 0
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		d := int(b[i] - '0')
		if n > (math.MaxInt-d)/10 {
			if neg {
				return math.MinInt
			}
			return math.MaxInt
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
