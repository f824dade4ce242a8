// Package base62 implements positional encoding of unsigned integers using
// a 62-symbol alphabet (digits, then uppercase, then lowercase). The alphabet
// ordering is part of the short code format and must not change.
package base62

import "errors"

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = uint64(62)

// ErrInvalidCharacter is returned when a string contains a symbol outside the base62 alphabet.
var ErrInvalidCharacter = errors.New("invalid base62 character")

var symbolValues [256]int8

func init() {
	for i := range symbolValues {
		symbolValues[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		symbolValues[alphabet[i]] = int8(i)
	}
}

// Encode converts n into its big-endian base62 representation without
// leading zero symbols. Encode(0) returns "0".
func Encode(n uint64) string {
	if n == 0 {
		return alphabet[:1]
	}

	// 64-bit values never exceed 11 base62 digits.
	var buf [11]byte
	i := len(buf)

	for n > 0 {
		i--
		buf[i] = alphabet[n%base]
		n /= base
	}

	return string(buf[i:])
}

// Decode is the exact inverse of Encode.
func Decode(s string) (uint64, error) {
	var n uint64

	for i := 0; i < len(s); i++ {
		v := symbolValues[s[i]]
		if v < 0 {
			return 0, ErrInvalidCharacter
		}
		n = n*base + uint64(v)
	}

	return n, nil
}
