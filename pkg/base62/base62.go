// Package base62 implements integer encoding over the 62-symbol alphabet
// used for short codes: lowercase letters, uppercase letters, digits.
package base62

import (
	"errors"
	"math"
	"strings"
)

// Alphabet is the symbol set, in digit order. Position defines digit value.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const base = int64(len(Alphabet))

var (
	// ErrNegativeNumber is returned when a negative number is encoded.
	ErrNegativeNumber = errors.New("base62: cannot encode negative number")
	// ErrInvalidCharacter is returned when a decoded string contains
	// a symbol outside the alphabet.
	ErrInvalidCharacter = errors.New("base62: invalid character")
	// ErrValueOverflow is returned when a decoded string encodes a value
	// that does not fit in an int64.
	ErrValueOverflow = errors.New("base62: value overflows int64")
)

// Encode converts a non-negative integer into its base62 representation.
func Encode(num int64) (string, error) {
	if num < 0 {
		return "", ErrNegativeNumber
	}
	if num == 0 {
		return string(Alphabet[0]), nil
	}

	var sb strings.Builder
	for num > 0 {
		sb.WriteByte(Alphabet[num%base])
		num /= base
	}

	// Digits were emitted least-significant first.
	encoded := []byte(sb.String())
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}

	return string(encoded), nil
}

// EncodeFixed encodes num and left-pads the result with the zero symbol to
// exactly length symbols. It fails if the encoding does not fit, which for
// short codes means the code space is exhausted.
func EncodeFixed(num int64, length int) (string, error) {
	encoded, err := Encode(num)
	if err != nil {
		return "", err
	}
	if len(encoded) > length {
		return "", errors.New("base62: encoded value exceeds fixed length")
	}

	return strings.Repeat(string(Alphabet[0]), length-len(encoded)) + encoded, nil
}

// Decode converts a base62 string back into the integer it encodes.
// Leading zero symbols are ignored, so Decode inverts EncodeFixed as well.
func Decode(s string) (int64, error) {
	var num int64

	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(Alphabet, s[i])
		if idx < 0 {
			return 0, ErrInvalidCharacter
		}
		if num > (math.MaxInt64-int64(idx))/base {
			return 0, ErrValueOverflow
		}
		num = num*base + int64(idx)
	}

	return num, nil
}
