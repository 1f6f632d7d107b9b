package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TokenInfo describes a token well enough for pricing: the raw-to-decimal
// scale lives in Decimals.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address,omitempty"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name,omitempty"`
}

// Same reports whether two tokens are interchangeable for pricing. When both
// carry addresses the address decides; otherwise the symbol does. Decimals
// must agree either way.
func (t TokenInfo) Same(other TokenInfo) bool {
	if t.Decimals != other.Decimals {
		return false
	}
	if t.Address != "" && other.Address != "" {
		return strings.EqualFold(t.Address, other.Address)
	}
	return strings.EqualFold(t.Symbol, other.Symbol)
}

// ToDecimal converts a raw integer amount into token units.
func (t TokenInfo) ToDecimal(raw decimal.Decimal) decimal.Decimal {
	return raw.Shift(-int32(t.Decimals))
}

// ToRaw converts a token-unit amount back to the raw integer scale.
func (t TokenInfo) ToRaw(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(int32(t.Decimals))
}

func (t TokenInfo) String() string {
	return t.Symbol
}

// TokenPair is an ordered base/quote pairing, e.g. SUI/USDC.
type TokenPair struct {
	Base  TokenInfo `json:"base"`
	Quote TokenInfo `json:"quote"`
}

// Symbol returns the pair in "BASE/QUOTE" form.
func (p TokenPair) Symbol() string {
	return p.Base.Symbol + "/" + p.Quote.Symbol
}

// Matches reports whether both pairs cover the same two tokens, in either
// order.
func (p TokenPair) Matches(other TokenPair) bool {
	if p.Base.Same(other.Base) && p.Quote.Same(other.Quote) {
		return true
	}
	return p.Base.Same(other.Quote) && p.Quote.Same(other.Base)
}

// Reversed swaps base and quote.
func (p TokenPair) Reversed() TokenPair {
	return TokenPair{Base: p.Quote, Quote: p.Base}
}

func (p TokenPair) String() string {
	return p.Symbol()
}
