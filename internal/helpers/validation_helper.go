package helpers

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
)

// IsAddressValid checks if the provided string is a valid Ethereum address
// (0x prefix followed by 40 hex characters)
func IsAddressValid(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// NormalizeAddress returns the EIP-55 checksummed form of an Ethereum address.
// Non-Ethereum addresses are returned unchanged.
func NormalizeAddress(address string) string {
	if !IsAddressValid(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// IsOriginValid checks that an origin is a non-empty identifier without
// whitespace or control characters
func IsOriginValid(origin string) bool {
	if origin == "" || len(origin) > 2048 {
		return false
	}
	for _, r := range origin {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidURL reports whether raw is an absolute http or https URL
func IsValidURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SplitList splits a comma separated list, trimming entries and dropping empty ones
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
