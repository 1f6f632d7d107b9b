package model

import (
	"fmt"
	"strings"
)

// DexID identifies a supported DEX protocol. The value is the canonical
// display name.
type DexID string

const (
	DexCetus  DexID = "Cetus"
	DexTurbos DexID = "Turbos"
	DexKriya  DexID = "Kriya"
)

// AllDexIDs lists every supported protocol.
func AllDexIDs() []DexID {
	return []DexID{DexCetus, DexTurbos, DexKriya}
}

// ParseDexID resolves a case-insensitive protocol name.
func ParseDexID(input string) (DexID, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "cetus":
		return DexCetus, nil
	case "turbos":
		return DexTurbos, nil
	case "kriya":
		return DexKriya, nil
	default:
		return "", fmt.Errorf("unknown dex: %s", input)
	}
}

// Name returns the canonical display name.
func (d DexID) Name() string {
	return string(d)
}

func (d DexID) String() string {
	return string(d)
}
