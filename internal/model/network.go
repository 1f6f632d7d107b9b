package model

import (
	"fmt"
	"strings"
)

// Network is a chain/environment pair.
type Network string

const (
	NetworkSuiMainnet   Network = "sui-mainnet"
	NetworkSuiTestnet   Network = "sui-testnet"
	NetworkAptosMainnet Network = "aptos-mainnet"
)

// Networks lists every supported network.
func Networks() []Network {
	return []Network{NetworkSuiMainnet, NetworkSuiTestnet, NetworkAptosMainnet}
}

// ParseNetwork resolves a case-insensitive network name.
func ParseNetwork(input string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "sui-mainnet":
		return NetworkSuiMainnet, nil
	case "sui-testnet":
		return NetworkSuiTestnet, nil
	case "aptos-mainnet":
		return NetworkAptosMainnet, nil
	default:
		return "", fmt.Errorf("unknown network: %s", input)
	}
}

// IsTestnet reports whether the network is a test environment.
func (n Network) IsTestnet() bool {
	return strings.HasSuffix(string(n), "-testnet")
}

// IsMainnet reports whether the network is a production environment.
func (n Network) IsMainnet() bool {
	return strings.HasSuffix(string(n), "-mainnet")
}

func (n Network) String() string {
	return string(n)
}
