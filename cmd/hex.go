/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// parseHexInput converts hex strings to bytes. Supports both:
// - Space-separated: "48 65 6C 6C 6F" or "0x48 0x65"
// - Continuous: "48656C6C6F"
func parseHexInput(hexStr string) ([]byte, error) {
	cleanHex := strings.NewReplacer(" ", "", "0x", "", "0X", "").Replace(strings.TrimSpace(hexStr))
	if len(cleanHex) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	for _, char := range cleanHex {
		if !((char >= '0' && char <= '9') || (char >= 'A' && char <= 'F') || (char >= 'a' && char <= 'f')) {
			return nil, fmt.Errorf("invalid hex character '%c'", char)
		}
	}

	// Must be even number of hex digits to form complete bytes
	if len(cleanHex)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(cleanHex))
	}

	bytes := make([]byte, 0, len(cleanHex)/2)
	for i := 0; i < len(cleanHex); i += 2 {
		b, err := strconv.ParseUint(cleanHex[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s': %v", cleanHex[i:i+2], err)
		}
		bytes = append(bytes, byte(b))
	}
	return bytes, nil
}

// printable replaces non-printable bytes for display
func printable(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c < 32 || c > 126 {
			b.WriteRune('·')
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}
