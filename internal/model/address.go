package model

import (
	"fmt"
	"strings"
)

// Chain identifies an address encoding family.
type Chain string

const (
	ChainSui   Chain = "sui"
	ChainAptos Chain = "aptos"
)

// suiAddressHexLen is the full width of a normalized Sui object id.
const suiAddressHexLen = 64

// ChainAddress is a chain-tagged on-chain address. Equality is structural,
// so values can key registry maps directly.
type ChainAddress struct {
	Chain Chain
	Value string
}

// PoolID identifies a monitored liquidity pool.
type PoolID = ChainAddress

// NewSuiAddress validates and normalizes a Sui object id to its full
// 0x-prefixed 64-digit form.
func NewSuiAddress(raw string) (ChainAddress, error) {
	normalized, err := normalizeSuiHex(raw)
	if err != nil {
		return ChainAddress{}, err
	}
	return ChainAddress{Chain: ChainSui, Value: normalized}, nil
}

// NewAptosAddress wraps an Aptos account address.
func NewAptosAddress(raw string) (ChainAddress, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ChainAddress{}, fmt.Errorf("empty aptos address")
	}
	if !strings.HasPrefix(trimmed, "0x") {
		return ChainAddress{}, fmt.Errorf("aptos address must start with 0x: %s", raw)
	}
	return ChainAddress{Chain: ChainAptos, Value: trimmed}, nil
}

// ParseChainAddress parses the "chain:value" text form produced by String.
func ParseChainAddress(input string) (ChainAddress, error) {
	parts := strings.SplitN(input, ":", 2)
	if len(parts) != 2 {
		return ChainAddress{}, fmt.Errorf("invalid chain address: %s", input)
	}
	switch Chain(strings.ToLower(parts[0])) {
	case ChainSui:
		return NewSuiAddress(parts[1])
	case ChainAptos:
		return NewAptosAddress(parts[1])
	default:
		return ChainAddress{}, fmt.Errorf("unknown chain: %s", parts[0])
	}
}

// Network derives the owning network from the chain tag.
func (a ChainAddress) Network() Network {
	if a.Chain == ChainAptos {
		return NetworkAptosMainnet
	}
	return NetworkSuiMainnet
}

// IsZero reports whether the address is the empty value.
func (a ChainAddress) IsZero() bool {
	return a.Chain == "" && a.Value == ""
}

func (a ChainAddress) String() string {
	return string(a.Chain) + ":" + a.Value
}

// MarshalText lets ChainAddress key JSON maps.
func (a ChainAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *ChainAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseChainAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func normalizeSuiHex(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(trimmed, "0x") {
		return "", fmt.Errorf("sui address must start with 0x: %s", raw)
	}
	digits := trimmed[2:]
	if digits == "" || len(digits) > suiAddressHexLen {
		return "", fmt.Errorf("invalid sui address length: %s", raw)
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("invalid sui address: %s", raw)
		}
	}
	return "0x" + strings.Repeat("0", suiAddressHexLen-len(digits)) + digits, nil
}
