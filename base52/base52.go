// Package base52 implements the bijective mapping between trail sequence
// numbers and the short textual identifiers exposed to clients.
// The alphabet is fixed; changing it breaks every identifier already issued.
package base52

import "errors"

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = int64(len(alphabet))

// ErrInvalidIdentifier is returned by Decode for strings that are not
// valid base52 identifiers.
var ErrInvalidIdentifier = errors.New("invalid trail identifier")

// Encode converts a non-negative sequence number into its identifier.
// Encode(0) is "a", the zero digit; negative input also yields "a".
func Encode(n int64) string {
	if n <= 0 {
		return alphabet[:1]
	}

	// 64-bit values need at most 12 base52 digits.
	buf := make([]byte, 0, 12)
	for n > 0 {
		buf = append(buf, alphabet[n%base])
		n /= base
	}

	// Digits were produced least-significant first.
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Decode converts an identifier back into its sequence number.
// It is the exact inverse of Encode: Decode(Encode(n)) == n for all n >= 0.
func Decode(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidIdentifier
	}

	var n int64
	for i := 0; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 {
			return 0, ErrInvalidIdentifier
		}
		if n > (1<<63-1-int64(d))/base {
			return 0, ErrInvalidIdentifier
		}
		n = n*base + int64(d)
	}
	return n, nil
}

func digitValue(c byte) int {
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 26
	default:
		return -1
	}
}
