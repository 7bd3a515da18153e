// Package encoding provides text decoding for names stored in legacy charsets.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// NameDecoder converts a raw name read from an asset file into UTF-8.
type NameDecoder func(string) string

// Charsets accepted by Decoder.
const (
	CharsetUTF8  = "utf-8"
	CharsetEUCKR = "euc-kr"
)

// Decoder returns the NameDecoder for the given charset.
// An empty charset means names are already UTF-8.
func Decoder(charset string) (NameDecoder, error) {
	switch strings.ToLower(charset) {
	case "", CharsetUTF8, "utf8":
		return Identity, nil
	case CharsetEUCKR, "cp949", "euckr":
		return EUCKRStringToUTF8, nil
	default:
		return nil, fmt.Errorf("unsupported name charset %q", charset)
	}
}

// Identity returns s unchanged.
func Identity(s string) string {
	return s
}

// EUCKRToUTF8 converts EUC-KR encoded bytes to UTF-8 string.
// Returns the original string if conversion fails.
func EUCKRToUTF8(data []byte) string {
	decoder := korean.EUCKR.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// EUCKRStringToUTF8 converts an EUC-KR encoded string to UTF-8.
// Plain ASCII is returned as-is.
func EUCKRStringToUTF8(s string) string {
	if isASCII(s) {
		return s
	}
	return EUCKRToUTF8([]byte(s))
}

// UTF8ToEUCKR converts UTF-8 string to EUC-KR encoded bytes.
// Returns the original bytes if conversion fails.
func UTF8ToEUCKR(s string) []byte {
	encoder := korean.EUCKR.NewEncoder()
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
